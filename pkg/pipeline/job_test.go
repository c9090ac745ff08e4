package pipeline_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/cigen/pkg/pipeline"
)

func TestJobConfig_Extend(t *testing.T) {
	build := pipeline.NewStage("build")
	test := pipeline.NewStage("test")

	first := pipeline.JobConfig{
		Stage:    build,
		Tags:     []string{"docker"},
		Override: map[string]any{"image": "golang", "retry": 1},
	}
	second := pipeline.JobConfig{
		Stage:        test,
		When:         pipeline.Manual,
		AllowFailure: pipeline.Bool(false),
		Override:     map[string]any{"retry": 2},
	}
	child := pipeline.JobConfig{
		RunPrefix: "nix develop -c",
		Override:  map[string]any{"timeout": "1h"},
	}

	got := child.Extend(first, second)
	assert.Same(t, test, got.Stage)
	assert.Equal(t, []string{"docker"}, got.Tags)
	assert.Equal(t, pipeline.Manual, got.When)
	assert.Equal(t, "nix develop -c", got.RunPrefix)
	require.NotNil(t, got.AllowFailure)
	assert.False(t, *got.AllowFailure)
	assert.Nil(t, got.CheckDivergingRules)
	assert.Equal(t, map[string]any{"image": "golang", "retry": 2, "timeout": "1h"}, got.Override)

	child.Stage = build
	child.Override = map[string]any{"retry": 3}
	got = child.Extend(first, second)
	assert.Same(t, build, got.Stage)
	assert.Equal(t, 3, got.Override["retry"])

	assert.Nil(t, pipeline.JobConfig{}.Extend(pipeline.JobConfig{}).Override)
}

func TestNewJob_Artifacts(t *testing.T) {
	binary := pipeline.NewArtifact("bin/")

	producer, err := pipeline.NewJob("Compile", pipeline.JobConfig{Artifacts: binary})
	require.NoError(t, err)
	assert.Same(t, producer, binary.ProducedBy())

	_, err = pipeline.NewJob("Compile again", pipeline.JobConfig{Artifacts: binary})
	require.ErrorIs(t, err, pipeline.ErrProducerConflict)
	assert.Contains(t, err.Error(), `"Compile"`)
	assert.Contains(t, err.Error(), `"Compile again"`)
	assert.Same(t, producer, binary.ProducedBy())

	consumer := pipeline.MustJob("Test", pipeline.JobConfig{Needs: []pipeline.NeedRef{pipeline.NeedsArtifact(binary)}})
	assert.Equal(t, []*pipeline.Job{consumer}, binary.NeededBy())

	orphan := pipeline.NewJUnitReport("report.xml")
	_, err = pipeline.NewJob("Report", pipeline.JobConfig{Needs: []pipeline.NeedRef{pipeline.NeedsArtifact(orphan)}})
	require.ErrorIs(t, err, pipeline.ErrUnresolvedArtifact)
	assert.Empty(t, orphan.NeededBy())

	assert.Panics(t, func() {
		pipeline.MustJob("Report", pipeline.JobConfig{Needs: []pipeline.NeedRef{pipeline.NeedsArtifact(orphan)}})
	})
}

func TestArtifact_Render(t *testing.T) {
	a := &pipeline.Artifact{
		Paths:    []string{"bin/", "dist/"},
		Lifetime: "1 week",
		When:     pipeline.Always,
		Override: map[string]any{"name": "binaries"},
	}
	m, err := a.Render()
	require.NoError(t, err)
	assert.Equal(t, []string{"paths", "expire_in", "when", "name"}, m.Keys())

	m, err = pipeline.NewJUnitReport("report.xml").Render()
	require.NoError(t, err)
	reports, ok := m.Get("reports")
	require.True(t, ok)
	junit, _ := reports.(*pipeline.Map).Get("junit")
	assert.Equal(t, "report.xml", junit)

	_, err = (&pipeline.Artifact{Paths: []string{"a"}, JUnitReport: "b"}).Render()
	require.ErrorIs(t, err, pipeline.ErrArtifactKind)
}

func TestJob_Render(t *testing.T) {
	vars := pipeline.NewVariableStore()
	require.NoError(t, vars.AssignNames())
	onBranch := []*pipeline.Rule{pipeline.NewRule(vars.IsBranch(), "")}

	stage := pipeline.NewStage("build")
	binary := pipeline.NewArtifact("bin/")
	jobs := pipeline.NewJobStore()
	compile := jobs.Add("compile", pipeline.MustJob("Compile", pipeline.JobConfig{
		Stage: stage, Artifacts: binary, Rules: onBranch,
	}))
	lint := jobs.Add("lint", pipeline.MustJob("Lint", pipeline.JobConfig{Stage: stage, Rules: onBranch}))
	pkg := jobs.Add("package", pipeline.MustJob("Package", pipeline.JobConfig{
		Stage:        stage,
		Rules:        onBranch,
		Needs:        []pipeline.NeedRef{pipeline.NeedsArtifact(binary), pipeline.NeedsJob(lint)},
		Tags:         []string{"docker"},
		RunPrefix:    "nix develop -c",
		When:         pipeline.OnSuccess,
		AllowFailure: pipeline.Bool(true),
		Override:     map[string]any{"timeout": "1h"},
	}))
	require.NoError(t, jobs.AssignNames())
	assert.Equal(t, "compile", compile.InternalName())

	opts := pipeline.RenderOptions{RunScript: "./pipeline"}
	m, err := pkg.Render(opts)
	require.NoError(t, err)
	assert.Equal(t,
		[]string{"stage", "script", "rules", "needs", "tags", "when", "allow_failure", "timeout"},
		m.Keys())

	script, _ := m.Get("script")
	assert.Equal(t, []string{"nix develop -c ./pipeline run package"}, script)

	needs, _ := m.Get("needs")
	require.Len(t, needs, 2)
	list := needs.([]any)
	assert.Equal(t, "Compile", list[0])
	jobNeed := list[1].(*pipeline.Map)
	name, _ := jobNeed.Get("job")
	assert.Equal(t, "Lint", name)
	artifacts, _ := jobNeed.Get("artifacts")
	assert.Equal(t, false, artifacts)

	m, err = compile.Render(pipeline.RenderOptions{
		RunScript:   "./pipeline",
		DisplayName: func(j *pipeline.Job) string { return "renamed " + j.Name() },
	})
	require.NoError(t, err)
	script, _ = m.Get("script")
	assert.Equal(t, []string{"./pipeline run compile"}, script)
	_, hasNeeds := m.Get("needs")
	assert.False(t, hasNeeds)
}

func TestJob_Render_Errors(t *testing.T) {
	vars := pipeline.NewVariableStore()
	require.NoError(t, vars.AssignNames())
	opts := pipeline.RenderOptions{RunScript: "./pipeline"}
	stage := pipeline.NewStage("build")

	t.Run("missing internal name", func(t *testing.T) {
		j := pipeline.MustJob("Loose", pipeline.JobConfig{Stage: stage})
		_, err := j.Render(opts)
		require.ErrorIs(t, err, pipeline.ErrMissingInternalName)
	})

	t.Run("missing stage", func(t *testing.T) {
		jobs := pipeline.NewJobStore()
		j := jobs.Add("loose", pipeline.MustJob("Loose", pipeline.JobConfig{}))
		require.NoError(t, jobs.AssignNames())
		_, err := j.Render(opts)
		require.ErrorIs(t, err, pipeline.ErrMissingStage)
	})

	t.Run("diverging rules", func(t *testing.T) {
		jobs := pipeline.NewJobStore()
		dep := jobs.Add("dep", pipeline.MustJob("Dep", pipeline.JobConfig{
			Stage: stage,
			Rules: []*pipeline.Rule{pipeline.NewRule(vars.IsTag(), "")},
		}))
		strict := jobs.Add("strict", pipeline.MustJob("Strict", pipeline.JobConfig{
			Stage: stage,
			Needs: []pipeline.NeedRef{pipeline.NeedsJob(dep)},
		}))
		relaxed := jobs.Add("relaxed", pipeline.MustJob("Relaxed", pipeline.JobConfig{
			Stage:               stage,
			Needs:               []pipeline.NeedRef{pipeline.NeedsJob(dep)},
			CheckDivergingRules: pipeline.Bool(false),
		}))
		require.NoError(t, jobs.AssignNames())

		_, err := strict.Render(opts)
		require.ErrorIs(t, err, pipeline.ErrDivergingRules)
		assert.Contains(t, err.Error(), `"Strict"`)
		assert.Contains(t, err.Error(), `"Dep"`)

		_, err = relaxed.Render(opts)
		require.NoError(t, err)
	})

	t.Run("artifact needs ignore rules", func(t *testing.T) {
		deploy := vars.DeclareBool("DEPLOY", pipeline.NewBoolVariable(false))
		require.NoError(t, vars.AssignNames())

		jobs := pipeline.NewJobStore()
		binary := pipeline.NewArtifact("bin/")
		jobs.Add("build", pipeline.MustJob("Build", pipeline.JobConfig{Stage: stage, Artifacts: binary}))
		ship := jobs.Add("deploy", pipeline.MustJob("Deploy", pipeline.JobConfig{
			Stage: stage,
			Rules: []*pipeline.Rule{pipeline.NewRule(deploy.IsTrue(), pipeline.Manual)},
			Needs: []pipeline.NeedRef{pipeline.NeedsArtifact(binary)},
		}))
		require.NoError(t, jobs.AssignNames())

		m, err := ship.Render(opts)
		require.NoError(t, err)
		needs, _ := m.Get("needs")
		assert.Equal(t, []any{"Build"}, needs)
	})

	t.Run("needed job outside the pipeline", func(t *testing.T) {
		jobs := pipeline.NewJobStore()
		outside := pipeline.MustJob("Outside", pipeline.JobConfig{Stage: stage})
		inside := jobs.Add("inside", pipeline.MustJob("Inside", pipeline.JobConfig{
			Stage: stage,
			Needs: []pipeline.NeedRef{pipeline.NeedsJob(outside)},
		}))
		require.NoError(t, jobs.AssignNames())

		_, err := inside.Render(opts)
		require.ErrorIs(t, err, pipeline.ErrMissingInternalName)
		assert.Contains(t, err.Error(), `"Inside"`)
		assert.Contains(t, err.Error(), `"Outside"`)
	})

	t.Run("producer outside the pipeline", func(t *testing.T) {
		jobs := pipeline.NewJobStore()
		binary := pipeline.NewArtifact("bin/")
		pipeline.MustJob("Orphan", pipeline.JobConfig{Stage: stage, Artifacts: binary})
		consumer := jobs.Add("consumer", pipeline.MustJob("Consumer", pipeline.JobConfig{
			Stage: stage,
			Needs: []pipeline.NeedRef{pipeline.NeedsArtifact(binary)},
		}))
		require.NoError(t, jobs.AssignNames())

		_, err := consumer.Render(opts)
		require.ErrorIs(t, err, pipeline.ErrMissingInternalName)
		assert.Contains(t, err.Error(), `"Orphan"`)
	})

	t.Run("renamed job", func(t *testing.T) {
		jobs := pipeline.NewJobStore()
		j := pipeline.MustJob("Twice", pipeline.JobConfig{Stage: stage})
		jobs.Add("first", j)
		jobs.Add("second", j)
		require.ErrorIs(t, jobs.AssignNames(), pipeline.ErrJobRenamed)
	})
}

func TestJob_Disposition(t *testing.T) {
	v := pipeline.NewVariable("a")
	namedVariables(t, map[string]*pipeline.Variable{"A": v})

	tests := []struct {
		name string
		cfg  pipeline.JobConfig
		want pipeline.When
	}{
		{"no rules", pipeline.JobConfig{}, pipeline.OnSuccess},
		{"no rules with when", pipeline.JobConfig{When: pipeline.Manual}, pipeline.Manual},
		{"matching rule", pipeline.JobConfig{Rules: []*pipeline.Rule{
			pipeline.NewRule(v.EqualTo("b"), pipeline.Never),
			pipeline.NewRule(v.EqualTo("a"), pipeline.Always),
		}}, pipeline.Always},
		{"matching rule without when", pipeline.JobConfig{Rules: []*pipeline.Rule{
			pipeline.NewRule(v.EqualTo("a"), ""),
		}}, pipeline.OnSuccess},
		{"no matching rule", pipeline.JobConfig{Rules: []*pipeline.Rule{
			pipeline.NewRule(v.EqualTo("b"), pipeline.Always),
		}}, pipeline.Never},
		{"empty rules", pipeline.JobConfig{Rules: []*pipeline.Rule{}}, pipeline.Never},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, pipeline.MustJob("Job", tt.cfg).Disposition())
		})
	}
}

func TestJob_Run(t *testing.T) {
	idle := pipeline.MustJob("Idle", pipeline.JobConfig{})
	assert.False(t, idle.HasWork())
	assert.Equal(t, true, idle.Run(context.Background()))

	busy := pipeline.MustJob("Busy", pipeline.JobConfig{Work: func(context.Context) any { return 7 }})
	assert.True(t, busy.HasWork())
	assert.Equal(t, 7, busy.Run(context.Background()))
}
