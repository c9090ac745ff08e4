package pipeline_test

import (
	"context"
	"slices"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/cigen/pkg/pipeline"
	"gopkg.in/yaml.v3"
)

type fixture struct {
	p       *pipeline.Pipeline
	vars    *pipeline.VariableStore
	deploy  *pipeline.BoolVariable
	compile *pipeline.Job
	unit    *pipeline.Job
	lint    *pipeline.Job
	release *pipeline.Job
}

func newFixture() *fixture {
	f := &fixture{vars: pipeline.NewVariableStore()}
	f.deploy = f.vars.DeclareBool("DEPLOY", pipeline.NewBoolVariable(false, pipeline.WithDescription("Deploy?")))
	f.vars.Declare("GO_VERSION", pipeline.NewVariable("1.25"))

	stages := pipeline.NewStageStore()
	build := stages.Add("build", pipeline.NewStage("build"))
	test := stages.Add("test", &pipeline.Stage{Name: "test", PreserveOrder: true})
	deploy := stages.Add("deploy", pipeline.NewStage("deploy"))

	binary := pipeline.NewArtifact("bin/")
	jobs := pipeline.NewJobStore()
	f.compile = jobs.Add("compile", pipeline.MustJob("Compile", pipeline.JobConfig{
		Stage:     build,
		Artifacts: binary,
		Work:      func(context.Context) any { return true },
	}))
	f.unit = jobs.Add("unit", pipeline.MustJob("Unit", pipeline.JobConfig{
		Stage: test,
		Needs: []pipeline.NeedRef{pipeline.NeedsArtifact(binary)},
		Work:  func(context.Context) any { return false },
	}))
	f.lint = jobs.Add("lint", pipeline.MustJob("Lint", pipeline.JobConfig{
		Stage: test,
		Needs: []pipeline.NeedRef{pipeline.NeedsJob(f.compile)},
		Work:  func(context.Context) any { return 3 },
	}))
	f.release = jobs.Add("release", pipeline.MustJob("Release", pipeline.JobConfig{
		Stage:               deploy,
		Rules:               []*pipeline.Rule{pipeline.NewRule(f.deploy.IsTrue(), pipeline.Manual)},
		Needs:               []pipeline.NeedRef{pipeline.NeedsJob(f.compile)},
		CheckDivergingRules: pipeline.Bool(false),
		Work:                func(context.Context) any { return "released" },
	}))

	f.p = pipeline.New(pipeline.Config{
		Stages:    stages,
		Jobs:      jobs,
		Variables: f.vars,
		Workflow: []*pipeline.Rule{
			pipeline.NewRule(f.vars.IsMergeRequest(), pipeline.Never),
			pipeline.NewRule(nil, pipeline.Always),
		},
		Override: map[string]any{"default": map[string]any{"interruptible": true}},
	})
	return f
}

func TestPipeline_Render(t *testing.T) {
	f := newFixture()

	doc, err := f.p.Render("./pipeline")
	require.NoError(t, err)

	m := pipeline.OrderMarker
	wantKeys := []string{
		"workflow", "variables", "stages", ".job_base",
		"Compile", m + "Unit", m + m + "Lint", "Release",
		"default",
	}
	if diff := cmp.Diff(wantKeys, doc.Keys()); diff != "" {
		t.Errorf("document keys mismatch (-want +got):\n%s", diff)
	}

	stages, _ := doc.Get("stages")
	assert.Equal(t, []string{"build", "test", "deploy"}, stages)

	variables, _ := doc.Get("variables")
	assert.Equal(t, []string{"DEPLOY", "GO_VERSION"}, variables.(*pipeline.Map).Keys())

	base, _ := doc.Get(".job_base")
	script, _ := base.(*pipeline.Map).Get("script")
	assert.Equal(t, []string{"${JOB_RUN_PREFIX} ./pipeline run ${INTERNAL_JOB_NAME}"}, script)

	unit, _ := doc.Get(m + "Unit")
	needs, _ := unit.(*pipeline.Map).Get("needs")
	assert.Equal(t, []any{"Compile"}, needs)

	compile, _ := doc.Get("Compile")
	_, extends := compile.(*pipeline.Map).Get("extends")
	assert.False(t, extends, "jobs inline their script instead of extending .job_base")
	own, _ := compile.(*pipeline.Map).Get("script")
	assert.NotEmpty(t, own)

	out, err := yaml.Marshal(doc)
	require.NoError(t, err)
	text := string(out)
	assert.True(t, strings.HasPrefix(text, "workflow:\n"))
	assert.Contains(t, text, "if: ($CI_PIPELINE_SOURCE == 'merge_request_event')")
	assert.Contains(t, text, "if: ($DEPLOY == 'yes')")
	assert.Contains(t, text, "GO_VERSION: \"1.25\"")
}

func TestPipeline_Render_PreserveOrderSortsLikeDeclaration(t *testing.T) {
	stages := pipeline.NewStageStore()
	st := stages.Add("s", &pipeline.Stage{Name: "s", PreserveOrder: true})
	jobs := pipeline.NewJobStore()
	for _, name := range []string{"Zulu", "Alpha", "Mike"} {
		jobs.Add(strings.ToLower(name), pipeline.MustJob(name, pipeline.JobConfig{Stage: st}))
	}
	p := pipeline.New(pipeline.Config{Stages: stages, Jobs: jobs})

	names := p.DisplayNames()
	var keys []string
	for _, j := range p.Jobs().All() {
		keys = append(keys, names[j])
	}
	assert.True(t, slices.IsSorted(keys), "display names %q do not sort in declaration order", keys)
}

func TestPipeline_Render_OmitsEmptyVariables(t *testing.T) {
	p := pipeline.New(pipeline.Config{})
	doc, err := p.Render("./pipeline")
	require.NoError(t, err)
	assert.Equal(t, []string{"stages", ".job_base"}, doc.Keys())
}

func TestPipeline_Render_NeedOnForeignJob(t *testing.T) {
	stage := pipeline.NewStage("build")

	otherJobs := pipeline.NewJobStore()
	foreign := otherJobs.Add("foreign", pipeline.MustJob("Foreign", pipeline.JobConfig{Stage: stage}))
	other := pipeline.New(pipeline.Config{Jobs: otherJobs})
	require.NoError(t, other.Prepare())

	stages := pipeline.NewStageStore()
	stages.Add("build", stage)
	jobs := pipeline.NewJobStore()
	jobs.Add("local", pipeline.MustJob("Local", pipeline.JobConfig{
		Stage: stage,
		Needs: []pipeline.NeedRef{pipeline.NeedsJob(foreign)},
	}))
	p := pipeline.New(pipeline.Config{Stages: stages, Jobs: jobs})

	_, err := p.Render("./pipeline")
	require.ErrorIs(t, err, pipeline.ErrMissingInternalName)
	assert.Contains(t, err.Error(), `"Foreign"`)
}

func TestPipeline_Prepare(t *testing.T) {
	t.Run("duplicate names", func(t *testing.T) {
		jobs := pipeline.NewJobStore()
		jobs.Add("a", pipeline.MustJob("Same", pipeline.JobConfig{}))
		jobs.Add("b", pipeline.MustJob("Other", pipeline.JobConfig{}))
		jobs.Add("c", pipeline.MustJob("Same", pipeline.JobConfig{}))
		p := pipeline.New(pipeline.Config{Jobs: jobs})

		err := p.Prepare()
		require.ErrorIs(t, err, pipeline.ErrDuplicateJobName)
		assert.Contains(t, err.Error(), "a and c")

		_, err = p.Render("./pipeline")
		require.ErrorIs(t, err, pipeline.ErrDuplicateJobName)
	})

	t.Run("invalid variable value", func(t *testing.T) {
		f := newFixture()
		f.deploy.SetValue("maybe")
		require.ErrorIs(t, f.p.Prepare(), pipeline.ErrInvalidOption)
	})

	t.Run("idempotent", func(t *testing.T) {
		f := newFixture()
		require.NoError(t, f.p.Prepare())
		require.NoError(t, f.p.Prepare())
		assert.Equal(t, "DEPLOY", f.deploy.Name())
		assert.Equal(t, "lint", f.lint.InternalName())
	})
}

func TestPipeline_EvaluateWorkflow(t *testing.T) {
	f := newFixture()
	require.NoError(t, f.p.Prepare())

	enabled, err := f.p.EvaluateWorkflow()
	require.NoError(t, err)
	assert.True(t, enabled)

	f.vars.MustGet(pipeline.CIPipelineSource).SetValue(string(pipeline.SourceMergeRequestEvent))
	enabled, err = f.p.EvaluateWorkflow()
	require.NoError(t, err)
	assert.False(t, enabled)

	t.Run("no matching rule enables", func(t *testing.T) {
		vars := pipeline.NewVariableStore()
		p := pipeline.New(pipeline.Config{
			Variables: vars,
			Workflow:  []*pipeline.Rule{pipeline.NewRule(vars.IsTag(), pipeline.Never)},
		})
		enabled, err := p.EvaluateWorkflow()
		require.NoError(t, err)
		assert.True(t, enabled)
	})

	t.Run("invalid when", func(t *testing.T) {
		p := pipeline.New(pipeline.Config{
			Workflow: []*pipeline.Rule{pipeline.NewRule(nil, pipeline.Manual)},
		})
		_, err := p.EvaluateWorkflow()
		require.ErrorIs(t, err, pipeline.ErrInvalidWorkflowWhen)
	})
}

func TestPipeline_Execute(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		job          string
		code         int
		unrecognized bool
	}{
		{"compile", 0, false},
		{"unit", 1, false},
		{"lint", 3, false},
		{"release", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.job, func(t *testing.T) {
			f := newFixture()
			out, err := f.p.Execute(ctx, tt.job)
			require.NoError(t, err)
			assert.Equal(t, tt.code, out.Code)
			assert.Equal(t, tt.unrecognized, out.Unrecognized)
			assert.Equal(t, tt.job, out.Job.InternalName())
		})
	}

	t.Run("sets job name", func(t *testing.T) {
		f := newFixture()
		_, err := f.p.Execute(ctx, "lint")
		require.NoError(t, err)
		assert.Equal(t, "Lint", f.vars.MustGet(pipeline.CIJobName).Value())
	})

	t.Run("keeps provided job name", func(t *testing.T) {
		f := newFixture()
		f.vars.MustGet(pipeline.CIJobName).SetValue("from CI")
		_, err := f.p.Execute(ctx, "lint")
		require.NoError(t, err)
		assert.Equal(t, "from CI", f.vars.MustGet(pipeline.CIJobName).Value())
	})

	t.Run("unknown job", func(t *testing.T) {
		f := newFixture()
		_, err := f.p.Execute(ctx, "missing")
		require.ErrorIs(t, err, pipeline.ErrJobNotFound)
	})
}

func TestPipeline_List(t *testing.T) {
	f := newFixture()

	listings, err := f.p.List(false)
	require.NoError(t, err)
	require.Len(t, listings, 3)

	names := func(l pipeline.Listing) []string {
		var out []string
		for _, j := range l.Jobs {
			out = append(out, j.Job.Name()+":"+j.When.String())
		}
		return out
	}
	assert.Equal(t, []string{"Compile:on_success"}, names(listings[0]))
	assert.Equal(t, []string{"Unit:on_success", "Lint:on_success"}, names(listings[1]))
	assert.Empty(t, listings[2].Jobs)

	listings, err = f.p.List(true)
	require.NoError(t, err)
	assert.Equal(t, []string{"Release:never"}, names(listings[2]))

	f.deploy.SetBool(true)
	listings, err = f.p.List(false)
	require.NoError(t, err)
	assert.Equal(t, []string{"Release:manual"}, names(listings[2]))
}
