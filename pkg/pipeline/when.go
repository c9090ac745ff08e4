package pipeline

// When is the scheduling intent of a rule outcome.
type When string

// Dispositions understood by GitLab-CI.
const (
	Always    When = "always"
	Never     When = "never"
	Manual    When = "manual"
	OnSuccess When = "on_success"
	OnFailure When = "on_failure"
)

// String returns the disposition as it appears in the generated document.
func (w When) String() string {
	return string(w)
}

// Valid reports whether w is one of the known dispositions.
func (w When) Valid() bool {
	switch w {
	case Always, Never, Manual, OnSuccess, OnFailure:
		return true
	default:
		return false
	}
}

// PipelineSource is a value of the CI_PIPELINE_SOURCE built-in variable.
type PipelineSource string

// Pipeline sources.
const (
	SourceAPI               PipelineSource = "api"
	SourceExternal          PipelineSource = "external"
	SourceMergeRequestEvent PipelineSource = "merge_request_event"
	SourcePush              PipelineSource = "push"
	SourceSchedule          PipelineSource = "schedule"
	SourceTrigger           PipelineSource = "trigger"
	SourceWeb               PipelineSource = "web"
)
