package pipeline

import (
	"bytes"

	"gopkg.in/yaml.v3"
)

// Rule bundles a Condition with a disposition.
// A rule without condition always applies.
type Rule struct {
	Condition    *Condition
	When         When
	AllowFailure *bool
	Override     map[string]any
}

// NewRule creates a rule for condition with the given disposition.
func NewRule(condition *Condition, when When) *Rule {
	return &Rule{Condition: condition, When: when}
}

// Eval reports whether the rule applies for the current variable values.
func (r *Rule) Eval() bool {
	if r.Condition == nil {
		return true
	}
	return r.Condition.Eval()
}

// Render returns the rule as a document mapping.
func (r *Rule) Render() (*Map, error) {
	m := NewMap()
	if r.Condition != nil {
		cond, err := r.Condition.Render()
		if err != nil {
			return nil, err
		}
		m.Set("if", cond)
	}
	if r.When != "" {
		m.Set("when", r.When.String())
	}
	if r.AllowFailure != nil {
		m.Set("allow_failure", *r.AllowFailure)
	}
	if m.Len() == 0 {
		return nil, ErrEmptyRule
	}
	m.Merge(r.Override)
	return m, nil
}

// RulesEquivalent reports whether two rule lists are interchangeable.
// Both nil is equivalent, one nil is not. Otherwise each pair must be the
// same rule or render to the same mapping.
func RulesEquivalent(a, b []*Rule) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] == b[i] {
			continue
		}
		ra, errA := a[i].Render()
		rb, errB := b[i].Render()
		if errA != nil || errB != nil {
			return false
		}
		if !sameRendering(ra, rb) {
			return false
		}
	}
	return true
}

func sameRendering(a, b *Map) bool {
	outa, errA := yaml.Marshal(a)
	outb, errB := yaml.Marshal(b)
	return errA == nil && errB == nil && bytes.Equal(outa, outb)
}
