package pipeline

import "iter"

// Stage is a named bucket jobs belong to.
// Jobs of a stage with PreserveOrder keep their declaration order in the CI view.
type Stage struct {
	Name          string
	PreserveOrder bool
}

// NewStage creates a stage.
func NewStage(name string) *Stage {
	return &Stage{Name: name}
}

// StageStore holds the stages of a pipeline in declaration order.
type StageStore struct {
	store *Store[*Stage]
}

// NewStageStore creates an empty StageStore.
func NewStageStore() *StageStore {
	return &StageStore{store: NewStore[*Stage]()}
}

// Add declares s under id. It panics if id is already declared.
func (s *StageStore) Add(id string, stage *Stage) *Stage {
	return mustAdd(s.store, id, stage)
}

// Get returns the stage declared under id.
func (s *StageStore) Get(id string) (*Stage, bool) {
	return s.store.Get(id)
}

// All yields the stages in declaration order.
func (s *StageStore) All() iter.Seq2[string, *Stage] {
	return s.store.All()
}

// Render returns the stage names in declaration order.
func (s *StageStore) Render() []string {
	names := make([]string, 0, s.store.Len())
	for _, st := range s.store.All() {
		names = append(names, st.Name)
	}
	return names
}
