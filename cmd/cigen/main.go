// Package main defines the GitLab CI pipeline of cigen itself.
//
// Regenerate .gitlab-ci.yml with:
//
//	go run ./cmd/cigen generate
package main

import (
	"context"

	"go.trai.ch/cigen/pkg/cli"
	"go.trai.ch/cigen/pkg/pipeline"
)

func main() {
	cli.Main(newPipeline())
}

func newPipeline() *pipeline.Pipeline {
	vars := pipeline.NewVariableStore()
	vars.Declare("GO_VERSION", pipeline.NewVariable("1.25",
		pipeline.WithDescription("Go toolchain used by every job"),
		pipeline.WithShow(),
	))
	race := vars.DeclareBool("RACE", pipeline.NewBoolVariable(true,
		pipeline.WithDescription("Run the tests with the race detector"),
	))
	release := vars.DeclareBool("RELEASE", pipeline.NewBoolVariable(false,
		pipeline.WithDescription("Publish release binaries"),
	))

	stages := pipeline.NewStageStore()
	check := stages.Add("check", pipeline.NewStage("check"))
	test := stages.Add("test", pipeline.NewStage("test"))
	build := stages.Add("build", &pipeline.Stage{Name: "build", PreserveOrder: true})

	base := pipeline.JobConfig{
		Tags:     []string{"docker"},
		Override: map[string]any{"image": "golang:${GO_VERSION}"},
	}
	releaseOnly := []*pipeline.Rule{
		pipeline.NewRule(release.IsTrue().And(vars.IsTag()), pipeline.OnSuccess),
		pipeline.NewRule(release.IsTrue(), pipeline.Manual),
	}

	binary := pipeline.NewArtifact("bin/")
	binary.Lifetime = "1 week"
	report := pipeline.NewJUnitReport("report.xml")
	report.When = pipeline.Always

	jobs := pipeline.NewJobStore()
	jobs.Add("lint", pipeline.MustJob("Lint", pipeline.JobConfig{
		Stage: check,
		Work:  pipeline.Command("golangci-lint", "run", "./..."),
		Override: map[string]any{
			"image": "golangci/golangci-lint:latest",
		},
	}.Extend(base)))
	jobs.Add("check_ci", pipeline.MustJob("Check CI document", pipeline.JobConfig{
		Stage: check,
		Work:  pipeline.Command("go", "run", "./cmd/cigen", "generate", "--check"),
	}.Extend(base)))
	jobs.Add("unit_tests", pipeline.MustJob("Unit tests", pipeline.JobConfig{
		Stage:     test,
		Artifacts: report,
		Work: func(ctx context.Context) any {
			args := []string{"run", "gotest.tools/gotestsum@latest", "--junitfile", "report.xml", "--", "./..."}
			if on, err := race.Bool(); err == nil && on {
				args = append(args, "-race")
			}
			return pipeline.Command("go", args...)(ctx)
		},
	}.Extend(base)))
	jobs.Add("build_linux", pipeline.MustJob("Build linux", pipeline.JobConfig{
		Stage:     build,
		Rules:     releaseOnly,
		Artifacts: binary,
		Work:      pipeline.Command("go", "build", "-o", "bin/", "./cmd/cigen"),
		Override: map[string]any{
			"variables": map[string]any{"GOOS": "linux", "CGO_ENABLED": "0"},
		},
	}.Extend(base)))
	jobs.Add("publish", pipeline.MustJob("Publish", pipeline.JobConfig{
		Stage: build,
		Rules: releaseOnly,
		Needs: []pipeline.NeedRef{pipeline.NeedsArtifact(binary)},
		Work:  pipeline.Command("sh", "-c", "ls -l bin/"),
	}.Extend(base)))

	return pipeline.New(pipeline.Config{
		Stages:    stages,
		Jobs:      jobs,
		Variables: vars,
		Workflow: []*pipeline.Rule{
			pipeline.NewRule(vars.IsMergeRequest(), pipeline.Always),
			pipeline.NewRule(vars.IsBranch().And(vars.BranchIsDefault()), pipeline.Always),
			pipeline.NewRule(vars.IsTag(), pipeline.Always),
			pipeline.NewRule(vars.PipelineSourceIs(pipeline.SourceWeb), pipeline.Always),
			pipeline.NewRule(nil, pipeline.Never),
		},
		Override: map[string]any{
			"default": map[string]any{"interruptible": true},
		},
	})
}
