package domain

import "go.trai.ch/zerr"

var (
	// ErrUnknownVariable is returned when settings assign a variable the pipeline does not declare.
	ErrUnknownVariable = zerr.New("unknown variable")

	// ErrInvalidAssignment is returned when a variable assignment is not of the form NAME=VALUE.
	ErrInvalidAssignment = zerr.New("invalid variable assignment")

	// ErrInvalidSettings is returned when the resolved settings fail validation.
	ErrInvalidSettings = zerr.New("invalid settings")

	// ErrOutputStale is returned when the generated document on disk does not match the pipeline.
	ErrOutputStale = zerr.New("generated document is out of date")

	// ErrPipelineDisabled is reported when the workflow rules prevent a pipeline for the current variables.
	ErrPipelineDisabled = zerr.New("pipeline disabled by workflow rules")
)
