package pipeline

import (
	"slices"
	"strings"
)

// Artifact is a set of files, or a test report, produced by exactly one job
// and needed by any number of jobs.
type Artifact struct {
	Paths       []string
	JUnitReport string
	Lifetime    string
	When        When
	Override    map[string]any

	producedBy *Job
	neededBy   []*Job
}

// NewArtifact creates an artifact for the given paths.
func NewArtifact(paths ...string) *Artifact {
	return &Artifact{Paths: paths}
}

// NewJUnitReport creates an artifact holding a junit test report.
func NewJUnitReport(path string) *Artifact {
	return &Artifact{JUnitReport: path}
}

// ProducedBy returns the job producing the artifact, or nil.
func (a *Artifact) ProducedBy() *Job {
	return a.producedBy
}

// NeededBy returns the jobs consuming the artifact in declaration order.
func (a *Artifact) NeededBy() []*Job {
	return slices.Clone(a.neededBy)
}

func (a *Artifact) describe() string {
	if a.Paths != nil {
		return "[" + strings.Join(a.Paths, ", ") + "]"
	}
	return a.JUnitReport
}

// Render returns the artifact as a document mapping.
func (a *Artifact) Render() (*Map, error) {
	m := NewMap()
	if a.Paths != nil {
		m.Set("paths", slices.Clone(a.Paths))
	}
	if a.JUnitReport != "" {
		if a.Paths != nil {
			return nil, ErrArtifactKind
		}
		junit := NewMap()
		junit.Set("junit", a.JUnitReport)
		m.Set("reports", junit)
	}
	if a.Lifetime != "" {
		m.Set("expire_in", a.Lifetime)
	}
	if a.When != "" {
		m.Set("when", a.When.String())
	}
	m.Merge(a.Override)
	return m, nil
}
