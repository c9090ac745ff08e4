package pipeline

import (
	"iter"

	"go.trai.ch/zerr"
)

// Names of the predefined GitLab variables every VariableStore declares.
const (
	CIDefaultBranch     = "CI_DEFAULT_BRANCH"
	CIPipelineSource    = "CI_PIPELINE_SOURCE"
	CIPipelineTriggered = "CI_PIPELINE_TRIGGERED"
	CIPipelineURL       = "CI_PIPELINE_URL"
	CIRegistry          = "CI_REGISTRY"
	CIRegistryImage     = "CI_REGISTRY_IMAGE"
	CIRegistryPassword  = "CI_REGISTRY_PASSWORD"
	CIRegistryUser      = "CI_REGISTRY_USER"
	CIRepositoryURL     = "CI_REPOSITORY_URL"
	CIMergeRequestID    = "CI_MERGE_REQUEST_ID"
	CIOpenMergeRequests = "CI_OPEN_MERGE_REQUESTS"
	CICommitAuthor      = "CI_COMMIT_AUTHOR"
	CICommitBranch      = "CI_COMMIT_BRANCH"
	CICommitDescription = "CI_COMMIT_DESCRIPTION"
	CICommitMessage     = "CI_COMMIT_MESSAGE"
	CICommitRefName     = "CI_COMMIT_REF_NAME"
	CICommitSHA         = "CI_COMMIT_SHA"
	CICommitTag         = "CI_COMMIT_TAG"
	CIJobName           = "CI_JOB_NAME"
	CIJobToken          = "CI_JOB_TOKEN"
)

var builtinNames = []string{
	CIDefaultBranch,
	CIPipelineSource,
	CIPipelineTriggered,
	CIPipelineURL,
	CIRegistry,
	CIRegistryImage,
	CIRegistryPassword,
	CIRegistryUser,
	CIRepositoryURL,
	CIMergeRequestID,
	CIOpenMergeRequests,
	CICommitAuthor,
	CICommitBranch,
	CICommitDescription,
	CICommitMessage,
	CICommitRefName,
	CICommitSHA,
	CICommitTag,
	CIJobName,
	CIJobToken,
}

// VariableStore holds the variables of a pipeline in declaration order.
// Predefined variables are declared unset and never rendered.
type VariableStore struct {
	store   *Store[*Variable]
	builtin map[string]bool
}

// NewVariableStore creates a store holding the predefined variables.
func NewVariableStore() *VariableStore {
	s := &VariableStore{
		store:   NewStore[*Variable](),
		builtin: make(map[string]bool, len(builtinNames)),
	}
	for _, name := range builtinNames {
		v := mustAdd(s.store, name, newBuiltin())
		// Fresh variables cannot be named already.
		_ = v.assignName(name)
		s.builtin[name] = true
	}
	return s
}

// Declare adds v under name. It panics if name is already declared.
func (s *VariableStore) Declare(name string, v *Variable) *Variable {
	return mustAdd(s.store, name, v)
}

// DeclareBool adds b under name. It panics if name is already declared.
func (s *VariableStore) DeclareBool(name string, b *BoolVariable) *BoolVariable {
	mustAdd(s.store, name, b.Variable)
	return b
}

// Get returns the variable declared under name.
func (s *VariableStore) Get(name string) (*Variable, bool) {
	return s.store.Get(name)
}

// MustGet is like Get but panics for undeclared names.
func (s *VariableStore) MustGet(name string) *Variable {
	v, ok := s.store.Get(name)
	if !ok {
		panic(zerr.With(zerr.New("variable is not declared"), "variable", name))
	}
	return v
}

// IsBuiltin reports whether name is a predefined variable.
func (s *VariableStore) IsBuiltin(name string) bool {
	return s.builtin[name]
}

// All yields names and variables in declaration order, predefined variables first.
func (s *VariableStore) All() iter.Seq2[string, *Variable] {
	return s.store.All()
}

// Names returns the declared names in declaration order.
func (s *VariableStore) Names() []string {
	return s.store.Keys()
}

// AssignNames names every variable after the identifier it was declared under.
func (s *VariableStore) AssignNames() error {
	for name, v := range s.store.All() {
		if err := v.assignName(name); err != nil {
			return err
		}
	}
	return nil
}

// Validate checks the values of all variables against their options.
func (s *VariableStore) Validate() error {
	for _, v := range s.store.All() {
		if err := v.CheckValue(); err != nil {
			return err
		}
	}
	return nil
}

// Render returns the user declared variables as a document mapping.
func (s *VariableStore) Render() (*Map, error) {
	m := NewMap()
	for name, v := range s.store.All() {
		if s.builtin[name] {
			continue
		}
		rendered, err := v.Render()
		if err != nil {
			return nil, zerr.With(zerr.Wrap(err, "failed to render variable "+name), "variable", name)
		}
		m.Set(name, rendered)
	}
	return m, nil
}

// PipelineSourceIs is true if the pipeline was started by source.
func (s *VariableStore) PipelineSourceIs(source PipelineSource) *Condition {
	return s.MustGet(CIPipelineSource).EqualTo(string(source))
}

// BranchIsDefault is true if the pipeline runs for the default branch.
func (s *VariableStore) BranchIsDefault() *Condition {
	return s.MustGet(CICommitBranch).EqualToVar(s.MustGet(CIDefaultBranch))
}

// IsMergeRequest is true for merge request pipelines.
func (s *VariableStore) IsMergeRequest() *Condition {
	return s.PipelineSourceIs(SourceMergeRequestEvent)
}

// IsTag is true for tag pipelines.
func (s *VariableStore) IsTag() *Condition {
	return s.MustGet(CICommitTag).IsSet()
}

// IsBranch is true for branch pipelines.
func (s *VariableStore) IsBranch() *Condition {
	return s.MustGet(CICommitBranch).IsSet()
}
