package pipeline

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strings"

	"go.trai.ch/zerr"
)

// OrderMarker is prepended to the display names of jobs in stages with
// PreserveOrder. It sorts after every printable ASCII character, so repeating
// it by declaration position makes alphabetical order follow declaration order.
const OrderMarker = "\u200b"

// Config is the declaration of a pipeline.
type Config struct {
	Stages    *StageStore
	Jobs      *JobStore
	Variables *VariableStore
	// Workflow decides whether a pipeline is created at all. Nil means always.
	Workflow []*Rule
	Override map[string]any
}

// Pipeline is a set of stages, jobs and variables that renders to a GitLab CI
// document and executes single jobs inside CI.
type Pipeline struct {
	stages    *StageStore
	jobs      *JobStore
	variables *VariableStore
	workflow  []*Rule
	override  map[string]any

	prepared bool
}

// New creates a pipeline. Missing stores are replaced by empty ones.
func New(cfg Config) *Pipeline {
	p := &Pipeline{
		stages:    cfg.Stages,
		jobs:      cfg.Jobs,
		variables: cfg.Variables,
		workflow:  cfg.Workflow,
		override:  cfg.Override,
	}
	if p.stages == nil {
		p.stages = NewStageStore()
	}
	if p.jobs == nil {
		p.jobs = NewJobStore()
	}
	if p.variables == nil {
		p.variables = NewVariableStore()
	}
	return p
}

// Stages returns the stage store.
func (p *Pipeline) Stages() *StageStore { return p.stages }

// Jobs returns the job store.
func (p *Pipeline) Jobs() *JobStore { return p.jobs }

// Variables returns the variable store.
func (p *Pipeline) Variables() *VariableStore { return p.variables }

// Prepare names variables and jobs after their identifiers, rejects jobs
// sharing a display name and validates variable values.
// It is safe to call more than once.
func (p *Pipeline) Prepare() error {
	if err := p.variables.AssignNames(); err != nil {
		return zerr.Wrap(err, "failed to name variables")
	}
	if err := p.jobs.AssignNames(); err != nil {
		return zerr.Wrap(err, "failed to name jobs")
	}
	if err := p.checkDuplicateNames(); err != nil {
		return err
	}
	if err := p.variables.Validate(); err != nil {
		return err
	}
	p.prepared = true
	return nil
}

func (p *Pipeline) ensurePrepared() error {
	if p.prepared {
		return nil
	}
	return p.Prepare()
}

func (p *Pipeline) checkDuplicateNames() error {
	var jobs []*Job
	for _, j := range p.jobs.All() {
		jobs = append(jobs, j)
	}
	for i, a := range jobs {
		for _, b := range jobs[i+1:] {
			if a.name != b.name {
				continue
			}
			err := zerr.Wrap(ErrDuplicateJobName, fmt.Sprintf(
				"jobs %s and %s have the same name %q", a.internalName, b.internalName, a.name))
			err = zerr.With(err, "job", a.name)
			return zerr.With(err, "internal_names", []string{a.internalName, b.internalName})
		}
	}
	return nil
}

// EvaluateWorkflow reports whether a pipeline should be created for the current
// variable values. The first workflow rule that applies decides.
func (p *Pipeline) EvaluateWorkflow() (bool, error) {
	for _, r := range p.workflow {
		if !r.Eval() {
			continue
		}
		switch r.When {
		case "", Always:
			return true, nil
		case Never:
			return false, nil
		default:
			err := zerr.Wrap(ErrInvalidWorkflowWhen, fmt.Sprintf("workflow rule has 'when' %q", r.When))
			return false, zerr.With(err, "when", r.When.String())
		}
	}
	return true, nil
}

// DisplayNames returns the key every job is rendered under.
func (p *Pipeline) DisplayNames() map[*Job]string {
	names := make(map[*Job]string, p.jobs.Len())
	positions := make(map[*Stage]int)
	for _, j := range p.jobs.All() {
		st := j.config.Stage
		if st == nil || !st.PreserveOrder {
			names[j] = j.name
			continue
		}
		positions[st]++
		names[j] = strings.Repeat(OrderMarker, positions[st]) + j.name
	}
	return names
}

// Render returns the GitLab CI document of the pipeline. runScript is the
// path of the program that executes single jobs inside CI.
func (p *Pipeline) Render(runScript string) (*Map, error) {
	if err := p.ensurePrepared(); err != nil {
		return nil, err
	}

	doc := NewMap()

	if p.workflow != nil {
		rules := make([]*Map, 0, len(p.workflow))
		for _, r := range p.workflow {
			rendered, err := r.Render()
			if err != nil {
				return nil, zerr.Wrap(err, "failed to render workflow")
			}
			rules = append(rules, rendered)
		}
		workflow := NewMap()
		workflow.Set("rules", rules)
		doc.Set("workflow", workflow)
	}

	variables, err := p.variables.Render()
	if err != nil {
		return nil, zerr.Wrap(err, "failed to render variables")
	}
	if variables.Len() > 0 {
		doc.Set("variables", variables)
	}

	doc.Set("stages", p.stages.Render())

	base := NewMap()
	base.Set("script", []string{"${JOB_RUN_PREFIX} " + runScript + " run ${INTERNAL_JOB_NAME}"})
	doc.Set(".job_base", base)

	names := p.DisplayNames()
	opts := RenderOptions{
		RunScript:   runScript,
		DisplayName: func(j *Job) string { return names[j] },
	}
	for _, j := range p.jobs.All() {
		rendered, err := j.Render(opts)
		if err != nil {
			return nil, err
		}
		doc.Set(names[j], rendered)
	}

	doc.Merge(p.override)
	return doc, nil
}

// Lookup returns the job added under internalName.
func (p *Pipeline) Lookup(internalName string) (*Job, error) {
	j, ok := p.jobs.Get(internalName)
	if !ok {
		err := zerr.Wrap(ErrJobNotFound, fmt.Sprintf("job %q does not exist", internalName))
		return nil, zerr.With(err, "job", internalName)
	}
	return j, nil
}

// Outcome is the result of executing a job.
type Outcome struct {
	Job    *Job
	Result any
	// Code is the exit status derived from Result.
	Code int
	// Unrecognized is set when Result had no meaningful exit status.
	Unrecognized bool
}

// Execute runs the job added under internalName. CI_JOB_NAME is set to the
// display name of the job unless it already holds a value.
func (p *Pipeline) Execute(ctx context.Context, internalName string) (Outcome, error) {
	if err := p.ensurePrepared(); err != nil {
		return Outcome{}, err
	}
	j, err := p.Lookup(internalName)
	if err != nil {
		return Outcome{}, err
	}

	jobName := p.variables.MustGet(CIJobName)
	if jobName.Value() == "" {
		jobName.SetValue(j.name)
	}

	result := j.Run(ctx)
	code, recognized := ExitStatus(result)
	return Outcome{Job: j, Result: result, Code: code, Unrecognized: !recognized}, nil
}

// Listing is a stage with the jobs assigned to it.
type Listing struct {
	Stage *Stage
	Jobs  []ListedJob
}

// ListedJob is a job with its effective disposition.
type ListedJob struct {
	Job  *Job
	When When
}

// List returns the jobs of every stage with their effective disposition under
// the current variable values. Jobs that would not run are left out unless all is set.
// Within a stage, jobs are ordered as GitLab shows them.
func (p *Pipeline) List(all bool) ([]Listing, error) {
	if err := p.ensurePrepared(); err != nil {
		return nil, err
	}

	var out []Listing
	for _, st := range p.stages.All() {
		listing := Listing{Stage: st}
		for _, j := range p.jobs.All() {
			if j.config.Stage != st {
				continue
			}
			when := j.Disposition()
			if when == Never && !all {
				continue
			}
			listing.Jobs = append(listing.Jobs, ListedJob{Job: j, When: when})
		}
		if !st.PreserveOrder {
			slices.SortStableFunc(listing.Jobs, func(a, b ListedJob) int {
				return cmp.Compare(a.Job.name, b.Job.name)
			})
		}
		out = append(out, listing)
	}
	return out, nil
}
