package domain

import (
	"fmt"
	"strings"

	"github.com/wbrown/janus-planner/planner"
	"github.com/wbrown/janus-planner/planner/temporal"
)

// DurationKind discriminates the duration spec variants.
type DurationKind int

const (
	// NoDuration marks an instantaneous action; no timepoints are
	// allocated for it.
	NoDuration DurationKind = iota
	// FixedDuration is an exact length in seconds.
	FixedDuration
	// VariableDuration is a [min, max] length window in seconds.
	VariableDuration
	// ConditionalDuration resolves to a fixed or variable spec from the
	// state and entity allocations at expansion time.
	ConditionalDuration
)

// ResolveFunc computes a conditional duration. The allocations map holds
// the entity → action-instance assignments current at expansion time.
type ResolveFunc func(s *planner.State, allocations map[string]string) DurationSpec

// DurationSpec describes how long an action takes, in integer seconds.
type DurationSpec struct {
	Kind    DurationKind
	Seconds int64 // fixed
	Min     int64 // variable
	Max     int64 // variable
	Resolve ResolveFunc
}

// Fixed returns an exact duration of n seconds.
func Fixed(n int64) DurationSpec {
	return DurationSpec{Kind: FixedDuration, Seconds: n}
}

// Variable returns a duration between min and max seconds inclusive.
func Variable(min, max int64) DurationSpec {
	return DurationSpec{Kind: VariableDuration, Min: min, Max: max}
}

// Conditional returns a duration resolved at expansion time.
func Conditional(fn ResolveFunc) DurationSpec {
	return DurationSpec{Kind: ConditionalDuration, Resolve: fn}
}

// Validate checks the spec's well-formedness: fixed seconds ≥ 0,
// 0 ≤ min ≤ max, a resolver present on conditional specs.
func (d DurationSpec) Validate() error {
	switch d.Kind {
	case NoDuration:
		return nil
	case FixedDuration:
		if d.Seconds < 0 {
			return fmt.Errorf("fixed duration %d is negative", d.Seconds)
		}
		return nil
	case VariableDuration:
		if d.Min < 0 || d.Min > d.Max {
			return fmt.Errorf("variable duration [%d, %d] is malformed", d.Min, d.Max)
		}
		return nil
	case ConditionalDuration:
		if d.Resolve == nil {
			return fmt.Errorf("conditional duration has no resolver")
		}
		return nil
	}
	return fmt.Errorf("unknown duration kind %d", int(d.Kind))
}

// Window returns the spec's length as a distance window between an
// action's start and end timepoints. Conditional specs must be resolved
// first.
func (d DurationSpec) Window() (temporal.Window, error) {
	switch d.Kind {
	case FixedDuration:
		return temporal.Exact(d.Seconds), nil
	case VariableDuration:
		return temporal.Between(d.Min, d.Max), nil
	}
	return temporal.Window{}, fmt.Errorf("duration kind %d has no window", int(d.Kind))
}

// String renders the spec.
func (d DurationSpec) String() string {
	switch d.Kind {
	case NoDuration:
		return "instantaneous"
	case FixedDuration:
		return FormatDuration(d.Seconds)
	case VariableDuration:
		return fmt.Sprintf("[%s, %s]", FormatDuration(d.Min), FormatDuration(d.Max))
	case ConditionalDuration:
		return "conditional"
	}
	return "invalid"
}

const (
	secondsPerMinute = 60
	secondsPerHour   = 60 * secondsPerMinute
	secondsPerDay    = 24 * secondsPerHour
)

// ParseDuration parses a calendar-style duration literal of the form
// P[nD]T[nH][nM][nS] into integer seconds. All fields are optional; any
// present field is a non-negative integer or a fixed-point decimal.
// Fractions finer than one second truncate toward zero.
func ParseDuration(literal string) (int64, error) {
	rest := literal
	if !strings.HasPrefix(rest, "P") {
		return 0, fmt.Errorf("duration %q: missing P designator", literal)
	}
	rest = rest[1:]
	if rest == "" {
		return 0, fmt.Errorf("duration %q: no fields", literal)
	}

	var total int64
	sawField := false
	inTime := false
	for rest != "" {
		if rest[0] == 'T' {
			if inTime {
				return 0, fmt.Errorf("duration %q: repeated T designator", literal)
			}
			inTime = true
			rest = rest[1:]
			continue
		}
		value, frac, fracDigits, n, err := scanDecimal(rest)
		if err != nil {
			return 0, fmt.Errorf("duration %q: %w", literal, err)
		}
		rest = rest[n:]
		if rest == "" {
			return 0, fmt.Errorf("duration %q: number without unit", literal)
		}
		unit := rest[0]
		rest = rest[1:]

		var scale int64
		switch {
		case !inTime && unit == 'D':
			scale = secondsPerDay
		case inTime && unit == 'H':
			scale = secondsPerHour
		case inTime && unit == 'M':
			scale = secondsPerMinute
		case inTime && unit == 'S':
			scale = 1
		default:
			return 0, fmt.Errorf("duration %q: unexpected unit %q", literal, string(unit))
		}
		total += value * scale
		if fracDigits > 0 {
			total += fracSeconds(frac, fracDigits, scale)
		}
		sawField = true
	}
	if !sawField {
		return 0, fmt.Errorf("duration %q: no fields", literal)
	}
	return total, nil
}

// scanDecimal reads a non-negative decimal prefix, returning the integer
// part, fractional digits as an integer, the fractional digit count, and
// bytes consumed.
func scanDecimal(s string) (value, frac int64, fracDigits, n int, err error) {
	for n < len(s) && s[n] >= '0' && s[n] <= '9' {
		value = value*10 + int64(s[n]-'0')
		n++
	}
	if n == 0 {
		return 0, 0, 0, 0, fmt.Errorf("expected digit at %q", s)
	}
	if n < len(s) && (s[n] == '.' || s[n] == ',') {
		n++
		start := n
		for n < len(s) && s[n] >= '0' && s[n] <= '9' {
			frac = frac*10 + int64(s[n]-'0')
			n++
		}
		if n == start {
			return 0, 0, 0, 0, fmt.Errorf("dangling decimal point at %q", s)
		}
		fracDigits = n - start
	}
	return value, frac, fracDigits, n, nil
}

func fracSeconds(frac int64, digits int, scale int64) int64 {
	pow := int64(1)
	for i := 0; i < digits; i++ {
		pow *= 10
	}
	return frac * scale / pow
}

// FormatDuration renders seconds as the canonical duration literal:
// largest units first, zero fields omitted, "PT0S" for zero. For
// non-negative input, parsing the result yields the input again.
func FormatDuration(seconds int64) string {
	if seconds == 0 {
		return "PT0S"
	}
	var b strings.Builder
	b.WriteByte('P')
	if d := seconds / secondsPerDay; d > 0 {
		fmt.Fprintf(&b, "%dD", d)
		seconds -= d * secondsPerDay
	}
	if seconds > 0 {
		b.WriteByte('T')
		if h := seconds / secondsPerHour; h > 0 {
			fmt.Fprintf(&b, "%dH", h)
			seconds -= h * secondsPerHour
		}
		if m := seconds / secondsPerMinute; m > 0 {
			fmt.Fprintf(&b, "%dM", m)
			seconds -= m * secondsPerMinute
		}
		if seconds > 0 {
			fmt.Fprintf(&b, "%dS", seconds)
		}
	}
	return b.String()
}

// MustParseDuration is ParseDuration for literals known good at
// registration time; it panics on malformed input.
func MustParseDuration(literal string) int64 {
	n, err := ParseDuration(literal)
	if err != nil {
		panic(err)
	}
	return n
}
