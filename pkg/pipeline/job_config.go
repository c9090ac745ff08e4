package pipeline

import "maps"

// JobConfig holds the settings of a job.
// Zero values mean "unset" and are filled in by Extend.
type JobConfig struct {
	Stage     *Stage
	Work      Work
	Rules     []*Rule
	Artifacts *Artifact
	Needs     []NeedRef
	Tags      []string
	// RunPrefix is placed in front of the run script, e.g. a container wrapper.
	RunPrefix    string
	When         When
	AllowFailure *bool
	// CheckDivergingRules defaults to true when nil.
	CheckDivergingRules *bool
	Override            map[string]any
}

// Extend returns a copy of c where every unset field is taken from the
// last base that sets it. Override maps are merged per key, c winning.
func (c JobConfig) Extend(bases ...JobConfig) JobConfig {
	out := c
	out.Stage = inherit(c.Stage, bases, func(b JobConfig) *Stage { return b.Stage }, notNil)
	out.Work = inherit(c.Work, bases, func(b JobConfig) Work { return b.Work }, func(w Work) bool { return w != nil })
	out.Rules = inherit(c.Rules, bases, func(b JobConfig) []*Rule { return b.Rules }, func(r []*Rule) bool { return r != nil })
	out.Artifacts = inherit(c.Artifacts, bases, func(b JobConfig) *Artifact { return b.Artifacts }, notNil)
	out.Needs = inherit(c.Needs, bases, func(b JobConfig) []NeedRef { return b.Needs }, func(n []NeedRef) bool { return n != nil })
	out.Tags = inherit(c.Tags, bases, func(b JobConfig) []string { return b.Tags }, func(t []string) bool { return t != nil })
	out.RunPrefix = inherit(c.RunPrefix, bases, func(b JobConfig) string { return b.RunPrefix }, notEmpty)
	out.When = inherit(c.When, bases, func(b JobConfig) When { return b.When }, notEmpty)
	out.AllowFailure = inherit(c.AllowFailure, bases, func(b JobConfig) *bool { return b.AllowFailure }, notNil)
	out.CheckDivergingRules = inherit(c.CheckDivergingRules, bases, func(b JobConfig) *bool { return b.CheckDivergingRules }, notNil)

	var override map[string]any
	for _, b := range bases {
		if b.Override == nil {
			continue
		}
		if override == nil {
			override = make(map[string]any)
		}
		maps.Copy(override, b.Override)
	}
	if c.Override != nil {
		if override == nil {
			override = make(map[string]any)
		}
		maps.Copy(override, c.Override)
	}
	out.Override = override
	return out
}

func (c JobConfig) checksDivergingRules() bool {
	return c.CheckDivergingRules == nil || *c.CheckDivergingRules
}

func inherit[T any](own T, bases []JobConfig, field func(JobConfig) T, isSet func(T) bool) T {
	if isSet(own) {
		return own
	}
	for i := len(bases) - 1; i >= 0; i-- {
		if v := field(bases[i]); isSet(v) {
			return v
		}
	}
	return own
}

func notNil[T any](p *T) bool {
	return p != nil
}

func notEmpty[T ~string](s T) bool {
	return s != ""
}

// Bool returns a pointer to b, for the optional flags of JobConfig and Rule.
func Bool(b bool) *bool {
	return &b
}
