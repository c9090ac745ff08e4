package pipeline

import (
	"fmt"
	"regexp"

	"go.trai.ch/zerr"
)

// ConditionKind identifies the operation of a Condition node.
type ConditionKind int

// Condition kinds.
const (
	KindEqual ConditionKind = iota
	KindNotEqual
	KindFullMatch
	KindIsSet
	KindNotEmpty
	KindAnd
	KindOr
)

// Condition is a boolean expression over variables. It implements the 'if' rule statement.
type Condition struct {
	kind ConditionKind

	// leaf operands
	v       *Variable
	rhs     Operand
	pattern string
	re      *regexp.Regexp

	// boolean operands
	a, b *Condition
}

// Equal is true if v holds the value of rhs.
func Equal(v *Variable, rhs Operand) *Condition {
	return &Condition{kind: KindEqual, v: v, rhs: rhs}
}

// NotEqual is true if v does not hold the value of rhs.
func NotEqual(v *Variable, rhs Operand) *Condition {
	return &Condition{kind: KindNotEqual, v: v, rhs: rhs}
}

// IsEmpty is true if v holds the empty string.
func IsEmpty(v *Variable) *Condition {
	return Equal(v, Lit(""))
}

// IsNotEmpty is true if v does not hold the empty string.
func IsNotEmpty(v *Variable) *Condition {
	return NotEqual(v, Lit(""))
}

// IsSet is true if v holds a non-empty value.
func IsSet(v *Variable) *Condition {
	return &Condition{kind: KindIsSet, v: v}
}

// DefinedAndNotEmpty is true if v holds a non-empty value.
func DefinedAndNotEmpty(v *Variable) *Condition {
	return &Condition{kind: KindNotEmpty, v: v}
}

type matchConfig struct {
	matching    []string
	notMatching []string
}

// MatchOption supplies examples a full-match pattern is validated against.
type MatchOption func(*matchConfig)

// WithMatching lists values the pattern must match.
func WithMatching(examples ...string) MatchOption {
	return func(c *matchConfig) {
		c.matching = append(c.matching, examples...)
	}
}

// WithoutMatching lists values the pattern must not match.
func WithoutMatching(examples ...string) MatchOption {
	return func(c *matchConfig) {
		c.notMatching = append(c.notMatching, examples...)
	}
}

// FullMatch is true if the entire value of v matches pattern.
// The pattern is anchored at both ends and checked against the given examples.
func FullMatch(v *Variable, pattern string, opts ...MatchOption) (*Condition, error) {
	re, err := regexp.Compile(anchored(pattern))
	if err != nil {
		return nil, zerr.With(zerr.Wrap(ErrPatternValidation, fmt.Sprintf("invalid pattern %q: %v", pattern, err)), "pattern", pattern)
	}

	var cfg matchConfig
	for _, opt := range opts {
		opt(&cfg)
	}
	for _, e := range cfg.matching {
		if !re.MatchString(e) {
			return nil, patternError(fmt.Sprintf("pattern %q does not match with %q", pattern, e), pattern, e)
		}
	}
	for _, e := range cfg.notMatching {
		if re.MatchString(e) {
			return nil, patternError(fmt.Sprintf("pattern %q does match with %q", pattern, e), pattern, e)
		}
	}

	return &Condition{kind: KindFullMatch, v: v, pattern: pattern, re: re}, nil
}

// anchored wraps pattern in a group so that alternations stay inside the anchors.
func anchored(pattern string) string {
	return "^(?:" + pattern + ")$"
}

func patternError(msg, pattern, example string) error {
	return zerr.With(zerr.With(zerr.Wrap(ErrPatternValidation, msg), "pattern", pattern), "example", example)
}

// And is true if both a and b are true.
func And(a, b *Condition) *Condition {
	return &Condition{kind: KindAnd, a: a, b: b}
}

// Or is true if a or b is true.
func Or(a, b *Condition) *Condition {
	return &Condition{kind: KindOr, a: a, b: b}
}

// And combines c and other with a logical and.
func (c *Condition) And(other *Condition) *Condition {
	return And(c, other)
}

// Or combines c and other with a logical or.
func (c *Condition) Or(other *Condition) *Condition {
	return Or(c, other)
}

// Kind returns the operation of the node.
func (c *Condition) Kind() ConditionKind {
	return c.kind
}

// Eval computes the condition against the current variable values.
func (c *Condition) Eval() bool {
	switch c.kind {
	case KindEqual:
		return c.v.value == operandValue(c.rhs)
	case KindNotEqual:
		return c.v.value != operandValue(c.rhs)
	case KindIsSet, KindNotEmpty:
		return c.v.hasValue && c.v.value != ""
	case KindFullMatch:
		return c.re.MatchString(c.v.value)
	case KindAnd:
		return c.a.Eval() && c.b.Eval()
	case KindOr:
		return c.a.Eval() || c.b.Eval()
	default:
		return false
	}
}

func operandValue(o Operand) string {
	switch o := o.(type) {
	case Lit:
		return string(o)
	case *Variable:
		return o.value
	default:
		return ""
	}
}

// Render returns the condition in GitLab-CI expression syntax.
func (c *Condition) Render() (string, error) {
	switch c.kind {
	case KindEqual, KindNotEqual:
		if err := c.v.checkName(); err != nil {
			return "", err
		}
		op := "=="
		if c.kind == KindNotEqual {
			op = "!="
		}
		rhs, err := renderOperand(c.rhs)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("($%s %s %s)", c.v.name, op, rhs), nil
	case KindIsSet:
		if err := c.v.checkName(); err != nil {
			return "", err
		}
		return fmt.Sprintf("($%s)", c.v.name), nil
	case KindNotEmpty:
		if err := c.v.checkName(); err != nil {
			return "", err
		}
		return fmt.Sprintf("($%s != null && $%s != '')", c.v.name, c.v.name), nil
	case KindFullMatch:
		if err := c.v.checkName(); err != nil {
			return "", err
		}
		return fmt.Sprintf("($%s =~ /%s/)", c.v.name, anchored(c.pattern)), nil
	case KindAnd, KindOr:
		a, err := c.a.Render()
		if err != nil {
			return "", err
		}
		b, err := c.b.Render()
		if err != nil {
			return "", err
		}
		op := "&&"
		if c.kind == KindOr {
			op = "||"
		}
		return fmt.Sprintf("(%s %s %s)", a, op, b), nil
	default:
		return "", zerr.With(zerr.Wrap(ErrInvalidCondition, "unknown kind"), "kind", int(c.kind))
	}
}

func renderOperand(o Operand) (string, error) {
	switch o := o.(type) {
	case Lit:
		return "'" + string(o) + "'", nil
	case *Variable:
		if err := o.checkName(); err != nil {
			return "", err
		}
		return "$" + o.name, nil
	default:
		return "", zerr.Wrap(ErrInvalidCondition, fmt.Sprintf("unsupported operand %T", o))
	}
}
