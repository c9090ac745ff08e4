package pipeline

import (
	"context"
	"fmt"
	"iter"
	"slices"

	"go.trai.ch/zerr"
)

// Job is a unit of work in the pipeline.
// Its internal name is assigned by the JobStore it is added to.
type Job struct {
	name         string
	internalName string
	config       JobConfig
}

// NewJob creates a job and links it with the artifacts it produces and needs.
func NewJob(name string, cfg JobConfig) (*Job, error) {
	j := &Job{name: name, config: cfg}

	if a := cfg.Artifacts; a != nil {
		if a.producedBy != nil {
			err := zerr.Wrap(ErrProducerConflict, fmt.Sprintf(
				"artifact %s is produced by job %q and job %q", a.describe(), a.producedBy.name, name))
			err = zerr.With(err, "artifact", a.describe())
			return nil, zerr.With(err, "job", name)
		}
	}

	for _, n := range cfg.Needs {
		an, ok := n.(ArtifactNeed)
		if !ok {
			continue
		}
		if an.Artifact.producedBy == nil {
			err := zerr.Wrap(ErrUnresolvedArtifact, fmt.Sprintf(
				"job %q needs artifact %s which is not produced by any job", name, an.Artifact.describe()))
			err = zerr.With(err, "artifact", an.Artifact.describe())
			return nil, zerr.With(err, "job", name)
		}
	}

	if a := cfg.Artifacts; a != nil {
		a.producedBy = j
	}
	for _, n := range cfg.Needs {
		if an, ok := n.(ArtifactNeed); ok {
			an.Artifact.neededBy = append(an.Artifact.neededBy, j)
		}
	}
	return j, nil
}

// MustJob is like NewJob but panics on error.
func MustJob(name string, cfg JobConfig) *Job {
	j, err := NewJob(name, cfg)
	if err != nil {
		panic(err)
	}
	return j
}

// Name returns the display name of the job.
func (j *Job) Name() string {
	return j.name
}

// InternalName returns the identifier the job was added under, or "".
func (j *Job) InternalName() string {
	return j.internalName
}

// Config returns the settings of the job.
func (j *Job) Config() JobConfig {
	return j.config
}

// HasWork reports whether running the job does anything.
func (j *Job) HasWork() bool {
	return j.config.Work != nil
}

func (j *Job) assignInternalName(id string) error {
	if j.internalName != "" && j.internalName != id {
		err := zerr.Wrap(ErrJobRenamed, fmt.Sprintf("job %q cannot be renamed from %s to %s", j.name, j.internalName, id))
		return zerr.With(err, "job", j.name)
	}
	j.internalName = id
	return nil
}

// Disposition returns the effective 'when' of the job under the current variable values.
func (j *Job) Disposition() When {
	fallback := j.config.When
	if fallback == "" {
		fallback = OnSuccess
	}
	if j.config.Rules == nil {
		return fallback
	}
	for _, r := range j.config.Rules {
		if !r.Eval() {
			continue
		}
		if r.When != "" {
			return r.When
		}
		return fallback
	}
	return Never
}

// Run executes the work of the job. A job without work reports success.
func (j *Job) Run(ctx context.Context) any {
	if j.config.Work == nil {
		return true
	}
	return j.config.Work(ctx)
}

// RenderOptions controls how a job is rendered.
type RenderOptions struct {
	// RunScript is the path of the program executing jobs in CI.
	RunScript string
	// DisplayName resolves the key of a job in the document. Defaults to Job.Name.
	DisplayName func(*Job) string
}

func (o RenderOptions) displayName(j *Job) string {
	if o.DisplayName == nil {
		return j.name
	}
	return o.DisplayName(j)
}

// Render returns the job as a document mapping.
func (j *Job) Render(opts RenderOptions) (*Map, error) {
	if j.internalName == "" {
		return nil, zerr.With(zerr.Wrap(ErrMissingInternalName, fmt.Sprintf("job %q was not added to a pipeline", j.name)), "job", j.name)
	}
	if j.config.Stage == nil {
		return nil, zerr.With(zerr.Wrap(ErrMissingStage, fmt.Sprintf("job %q has no stage", j.name)), "job", j.name)
	}

	m := NewMap()
	m.Set("stage", j.config.Stage.Name)

	script := opts.RunScript + " run " + j.internalName
	if j.config.RunPrefix != "" {
		script = j.config.RunPrefix + " " + script
	}
	m.Set("script", []string{script})

	if j.config.Rules != nil {
		rules := make([]*Map, 0, len(j.config.Rules))
		for _, r := range j.config.Rules {
			rendered, err := r.Render()
			if err != nil {
				return nil, zerr.With(zerr.Wrap(err, "failed to render rules of job "+j.name), "job", j.name)
			}
			rules = append(rules, rendered)
		}
		m.Set("rules", rules)
	}

	if j.config.Artifacts != nil {
		rendered, err := j.config.Artifacts.Render()
		if err != nil {
			return nil, zerr.With(zerr.Wrap(err, "failed to render artifacts of job "+j.name), "job", j.name)
		}
		m.Set("artifacts", rendered)
	}

	if j.config.Needs != nil {
		needs, err := j.renderNeeds(opts)
		if err != nil {
			return nil, err
		}
		m.Set("needs", needs)
	}

	if j.config.Tags != nil {
		m.Set("tags", slices.Clone(j.config.Tags))
	}
	if j.config.When != "" {
		m.Set("when", j.config.When.String())
	}
	if j.config.AllowFailure != nil {
		m.Set("allow_failure", *j.config.AllowFailure)
	}
	m.Merge(j.config.Override)
	return m, nil
}

func (j *Job) renderNeeds(opts RenderOptions) ([]any, error) {
	needs := make([]any, 0, len(j.config.Needs))
	for _, n := range j.config.Needs {
		switch n := n.(type) {
		case ArtifactNeed:
			name, err := j.needName(n.Artifact.producedBy, opts)
			if err != nil {
				return nil, err
			}
			needs = append(needs, name)
		case JobNeed:
			name, err := j.needName(n.Job, opts)
			if err != nil {
				return nil, err
			}
			if j.config.checksDivergingRules() && !RulesEquivalent(j.config.Rules, n.Job.config.Rules) {
				err := zerr.Wrap(ErrDivergingRules, fmt.Sprintf(
					"job %q and the job it depends on %q have different rules", j.name, n.Job.name))
				err = zerr.With(err, "job", j.name)
				return nil, zerr.With(err, "dependency", n.Job.name)
			}
			entry := NewMap()
			entry.Set("job", name)
			entry.Set("artifacts", false)
			needs = append(needs, entry)
		}
	}
	return needs, nil
}

// needName resolves the document key of dep, which must be part of the same pipeline.
func (j *Job) needName(dep *Job, opts RenderOptions) (string, error) {
	var name string
	if dep.internalName != "" {
		name = opts.displayName(dep)
	}
	if name == "" {
		err := zerr.Wrap(ErrMissingInternalName, fmt.Sprintf(
			"job %q depends on %q, which was not added to the pipeline", j.name, dep.name))
		err = zerr.With(err, "job", j.name)
		return "", zerr.With(err, "dependency", dep.name)
	}
	return name, nil
}

// JobStore holds the jobs of a pipeline in declaration order.
type JobStore struct {
	store *Store[*Job]
}

// NewJobStore creates an empty JobStore.
func NewJobStore() *JobStore {
	return &JobStore{store: NewStore[*Job]()}
}

// Add declares j under the internal name id. It panics if id is already declared.
func (s *JobStore) Add(id string, j *Job) *Job {
	return mustAdd(s.store, id, j)
}

// Get returns the job declared under the internal name id.
func (s *JobStore) Get(id string) (*Job, bool) {
	return s.store.Get(id)
}

// Len returns the number of jobs.
func (s *JobStore) Len() int {
	return s.store.Len()
}

// All yields internal names and jobs in declaration order.
func (s *JobStore) All() iter.Seq2[string, *Job] {
	return s.store.All()
}

// AssignNames gives every job its internal name.
func (s *JobStore) AssignNames() error {
	for id, j := range s.store.All() {
		if err := j.assignInternalName(id); err != nil {
			return err
		}
	}
	return nil
}
