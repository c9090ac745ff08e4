package pipeline

import "go.trai.ch/zerr"

var (
	// ErrUnnamedVariable is returned when a variable is rendered or evaluated before its registry named it.
	ErrUnnamedVariable = zerr.New("usage of variable before name was given")

	// ErrVariableRenamed is returned when a variable is declared under two different identifiers.
	ErrVariableRenamed = zerr.New("variable already has a different name")

	// ErrInvalidOption is returned when a variable holds a value outside of its option set.
	ErrInvalidOption = zerr.New("value is not one of the variable options")

	// ErrIllegalBoolValue is returned when a bool variable holds neither "yes" nor "no".
	ErrIllegalBoolValue = zerr.New("bool variable contains illegal value")

	// ErrPatternValidation is returned when a full-match pattern disagrees with one of its examples.
	ErrPatternValidation = zerr.New("pattern validation failed")

	// ErrInvalidCondition is returned when a condition node has an unknown kind.
	ErrInvalidCondition = zerr.New("invalid condition")

	// ErrEmptyRule is returned when a rule has neither a condition nor a disposition.
	ErrEmptyRule = zerr.New("either a condition or 'when' has to be specified")

	// ErrArtifactKind is returned when an artifact declares both paths and a junit report.
	ErrArtifactKind = zerr.New("paths and junit_report given")

	// ErrProducerConflict is returned when an artifact is produced by more than one job.
	ErrProducerConflict = zerr.New("artifact produced by more than one job")

	// ErrUnresolvedArtifact is returned when a job needs an artifact that no job produces yet.
	ErrUnresolvedArtifact = zerr.New("artifact is not produced by any job")

	// ErrDivergingRules is returned when a job and a job it depends on have different rules.
	ErrDivergingRules = zerr.New("diverging rules")

	// ErrMissingStage is returned when a job without stage is rendered.
	ErrMissingStage = zerr.New("job has no stage")

	// ErrMissingInternalName is returned when a job is rendered before its registry named it.
	ErrMissingInternalName = zerr.New("job has no internal name")

	// ErrJobRenamed is returned when a job is added under two different identifiers.
	ErrJobRenamed = zerr.New("job already has a different internal name")

	// ErrDuplicateJobName is returned when two jobs share the same display name.
	ErrDuplicateJobName = zerr.New("jobs have the same name")

	// ErrDuplicateIdentifier is returned when a store already holds an entry for an identifier.
	ErrDuplicateIdentifier = zerr.New("identifier already declared")

	// ErrJobNotFound is returned when a job is looked up by an unknown internal name.
	ErrJobNotFound = zerr.New("job does not exist")

	// ErrInvalidWorkflowWhen is returned when a matched workflow rule has a disposition other than always or never.
	ErrInvalidWorkflowWhen = zerr.New("invalid 'when'-type for pipeline workflow")

	// ErrNoCommandRunner is returned when command work runs without a runner in its context.
	ErrNoCommandRunner = zerr.New("no command runner available")
)
