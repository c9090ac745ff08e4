package domain

import (
	"strings"

	"go.trai.ch/zerr"
)

// SettingsFiles are loaded from the working directory in this order, later files winning.
var SettingsFiles = []string{".cigen.yml", ".local.cigen.yml"}

// Settings is the resolved configuration of a cigen invocation.
type Settings struct {
	// RunScript is the command CI uses to execute a single job.
	RunScript string `koanf:"run_script" validate:"required"`
	// Output is the path of the generated document.
	Output string `koanf:"output" validate:"required"`
	// Variables holds values for declared pipeline variables.
	Variables map[string]string `koanf:"variables,omitempty" validate:"dive,keys,required,endkeys"`
	// Journal is the path job runs are recorded to. Empty disables recording.
	Journal string `koanf:"journal,omitempty"`
}

// DefaultSettings returns the settings used when nothing else is configured.
func DefaultSettings() Settings {
	return Settings{
		RunScript: "./pipeline",
		Output:    ".gitlab-ci.yml",
	}
}

// SettingsRequest describes which sources a SettingsLoader consults.
type SettingsRequest struct {
	// Dir is searched for SettingsFiles.
	Dir string
	// Variables are the names read from the process environment.
	Variables []string
	// UseEnvironment enables reading Variables from the process environment.
	UseEnvironment bool
	// Assignments take precedence over every other source.
	Assignments map[string]string
}

// ParseAssignments parses NAME=VALUE pairs. The value may be empty and may contain '='.
func ParseAssignments(pairs []string) (map[string]string, error) {
	out := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		name, value, ok := strings.Cut(pair, "=")
		if !ok || strings.TrimSpace(name) == "" {
			return nil, zerr.With(zerr.Wrap(ErrInvalidAssignment, "expected NAME=VALUE, got "+pair), "assignment", pair)
		}
		out[name] = value
	}
	return out, nil
}
