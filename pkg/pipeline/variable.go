package pipeline

import (
	"fmt"
	"slices"
	"strings"

	"go.trai.ch/zerr"
)

// Operand is the right hand side of a comparison: a literal string or another variable.
type Operand interface {
	operand()
}

// Lit is a literal string operand.
type Lit string

func (Lit) operand() {}

// Variable is a CI/CD variable.
// Its name is assigned by the VariableStore it is declared in.
type Variable struct {
	name  string
	named bool

	value    string
	hasValue bool

	defaultValue string
	options      []string
	description  *string
	show         bool
	override     map[string]any
}

func (*Variable) operand() {}

// VariableOption configures a Variable.
type VariableOption func(*Variable)

// WithDescription sets the description shown in the pipeline run form.
func WithDescription(description string) VariableOption {
	return func(v *Variable) {
		v.description = &description
	}
}

// WithOptions restricts the values the variable may hold.
func WithOptions(options ...string) VariableOption {
	return func(v *Variable) {
		v.options = slices.Clone(options)
	}
}

// WithShow prints the value of the variable before a job runs.
func WithShow() VariableOption {
	return func(v *Variable) {
		v.show = true
	}
}

// WithVariableOverride merges raw keys into the rendered variable.
func WithVariableOverride(override map[string]any) VariableOption {
	return func(v *Variable) {
		v.override = override
	}
}

// NewVariable creates a variable holding defaultValue.
func NewVariable(defaultValue string, opts ...VariableOption) *Variable {
	v := &Variable{
		defaultValue: defaultValue,
		value:        defaultValue,
		hasValue:     true,
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

func newBuiltin() *Variable {
	return &Variable{}
}

// Name returns the name assigned by the owning store, or "" if unnamed.
func (v *Variable) Name() string {
	return v.name
}

// Named reports whether the variable received its name.
func (v *Variable) Named() bool {
	return v.named
}

func (v *Variable) assignName(name string) error {
	if v.named && v.name != name {
		return zerr.With(zerr.With(
			zerr.Wrap(ErrVariableRenamed, fmt.Sprintf("variable %q cannot be renamed to %q", v.name, name)),
			"variable", v.name), "identifier", name)
	}
	v.name = name
	v.named = true
	return nil
}

func (v *Variable) checkName() error {
	if !v.named {
		return ErrUnnamedVariable
	}
	return nil
}

// Value returns the current value, or "" if the variable holds none.
func (v *Variable) Value() string {
	return v.value
}

// HasValue reports whether the variable holds a value. An empty value counts.
func (v *Variable) HasValue() bool {
	return v.hasValue
}

// SetValue replaces the current value.
func (v *Variable) SetValue(value string) {
	v.value = value
	v.hasValue = true
}

// Unset removes the current value.
func (v *Variable) Unset() {
	v.value = ""
	v.hasValue = false
}

// DefaultValue returns the value the variable was declared with.
func (v *Variable) DefaultValue() string {
	return v.defaultValue
}

// Options returns the allowed values, or nil if any value is allowed.
func (v *Variable) Options() []string {
	return slices.Clone(v.options)
}

// Description returns the description and whether one was given.
func (v *Variable) Description() (string, bool) {
	if v.description == nil {
		return "", false
	}
	return *v.description, true
}

// Shows reports whether the value is printed before a job runs.
func (v *Variable) Shows() bool {
	return v.show
}

// CheckValue verifies that the default and the current value are allowed options.
func (v *Variable) CheckValue() error {
	if v.options == nil {
		return nil
	}
	if !slices.Contains(v.options, v.defaultValue) {
		return v.optionError(v.defaultValue)
	}
	if v.hasValue && !slices.Contains(v.options, v.value) {
		return v.optionError(v.value)
	}
	return nil
}

func (v *Variable) optionError(value string) error {
	msg := fmt.Sprintf("invalid value %q for variable %q, valid options are [%s]",
		value, v.name, strings.Join(v.options, ", "))
	return zerr.With(zerr.With(zerr.Wrap(ErrInvalidOption, msg), "variable", v.name), "value", value)
}

// Render returns the representation of the variable in the generated document.
func (v *Variable) Render() (any, error) {
	if err := v.checkName(); err != nil {
		return nil, err
	}
	if v.description == nil && v.options == nil && v.override == nil {
		return v.defaultValue, nil
	}

	m := NewMap()
	m.Set("value", v.defaultValue)
	if v.description != nil {
		m.Set("description", *v.description)
	}
	if v.options != nil {
		m.Set("options", slices.Clone(v.options))
	}
	m.Merge(v.override)
	return m, nil
}

// EqualTo is true if the variable holds s.
func (v *Variable) EqualTo(s string) *Condition {
	return Equal(v, Lit(s))
}

// EqualToVar is true if both variables hold the same value.
func (v *Variable) EqualToVar(other *Variable) *Condition {
	return Equal(v, other)
}

// NotEqualTo is true if the variable does not hold s.
func (v *Variable) NotEqualTo(s string) *Condition {
	return NotEqual(v, Lit(s))
}

// NotEqualToVar is true if the variables hold different values.
func (v *Variable) NotEqualToVar(other *Variable) *Condition {
	return NotEqual(v, other)
}

// IsEmpty is true if the variable holds the empty string.
func (v *Variable) IsEmpty() *Condition {
	return IsEmpty(v)
}

// IsNotEmpty is true if the variable does not hold the empty string.
func (v *Variable) IsNotEmpty() *Condition {
	return IsNotEmpty(v)
}

// IsSet is true if the variable holds a non-empty value.
func (v *Variable) IsSet() *Condition {
	return IsSet(v)
}

// DefinedAndNotEmpty is true if the variable holds a non-empty value.
// It renders as an explicit null and empty check.
func (v *Variable) DefinedAndNotEmpty() *Condition {
	return DefinedAndNotEmpty(v)
}

// FullMatch is true if the whole value matches pattern.
func (v *Variable) FullMatch(pattern string, opts ...MatchOption) (*Condition, error) {
	return FullMatch(v, pattern, opts...)
}

// MustFullMatch is like FullMatch but panics if the pattern does not validate.
func (v *Variable) MustFullMatch(pattern string, opts ...MatchOption) *Condition {
	c, err := FullMatch(v, pattern, opts...)
	if err != nil {
		panic(err)
	}
	return c
}

// The values a BoolVariable can hold.
const (
	TrueString  = "yes"
	FalseString = "no"
)

// BoolVariable is a variable restricted to "yes" and "no".
type BoolVariable struct {
	*Variable
}

// NewBoolVariable creates a bool variable defaulting to defaultValue.
func NewBoolVariable(defaultValue bool, opts ...VariableOption) *BoolVariable {
	v := NewVariable(boolString(defaultValue), opts...)
	v.options = []string{TrueString, FalseString}
	return &BoolVariable{Variable: v}
}

// SetBool stores b as "yes" or "no".
func (b *BoolVariable) SetBool(value bool) {
	b.SetValue(boolString(value))
}

// Bool returns the current value as a boolean.
func (b *BoolVariable) Bool() (bool, error) {
	switch strings.ToLower(b.value) {
	case TrueString:
		return true, nil
	case FalseString:
		return false, nil
	default:
		return false, zerr.With(zerr.With(
			zerr.Wrap(ErrIllegalBoolValue, fmt.Sprintf("bool variable %q contains illegal value %q", b.name, b.value)),
			"variable", b.name), "value", b.value)
	}
}

// IsTrue is true if the variable holds "yes".
func (b *BoolVariable) IsTrue() *Condition {
	return Equal(b.Variable, Lit(TrueString))
}

// IsFalse is true if the variable does not hold "yes".
func (b *BoolVariable) IsFalse() *Condition {
	return NotEqual(b.Variable, Lit(TrueString))
}

func boolString(b bool) string {
	if b {
		return TrueString
	}
	return FalseString
}
