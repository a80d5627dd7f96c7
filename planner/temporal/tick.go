// Package temporal implements the planner's temporal reasoning layer:
// integer tick arithmetic with dedicated infinities, Allen's interval
// algebra, and a Simple Temporal Network kept consistent by
// path-consistency propagation.
//
// Complexity:
//
//   - Window operations: O(1).
//   - Network.Solve (PC-2): O(n³) per stable pass over n timepoints.
//
// Notes on implementation choices:
//
//   - Infinite bounds are dedicated values, never large integer
//     sentinels, so PC-2's additions cannot overflow into nonsense.
//   - Finite addition saturates to the matching infinity on overflow.
package temporal

import (
	"fmt"
	"math"
)

// Tick is an integer instant or distance. The zero value is tick 0.
type Tick struct {
	ticks int64
	inf   int8 // -1 for -∞, +1 for +∞, 0 for finite
}

// NegInf and PosInf are the dedicated unbounded tick values.
var (
	NegInf = Tick{inf: -1}
	PosInf = Tick{inf: 1}
)

// Ticks returns a finite tick.
func Ticks(n int64) Tick {
	return Tick{ticks: n}
}

// Finite reports whether the tick is a concrete integer.
func (t Tick) Finite() bool {
	return t.inf == 0
}

// Int64 returns the concrete value; ok is false for ±∞.
func (t Tick) Int64() (int64, bool) {
	return t.ticks, t.inf == 0
}

// Cmp returns -1, 0, or 1 comparing t against o.
func (t Tick) Cmp(o Tick) int {
	if t.inf != o.inf {
		if t.inf < o.inf {
			return -1
		}
		return 1
	}
	if t.inf != 0 {
		return 0
	}
	if t.ticks < o.ticks {
		return -1
	}
	if t.ticks > o.ticks {
		return 1
	}
	return 0
}

// Less reports t < o.
func (t Tick) Less(o Tick) bool { return t.Cmp(o) < 0 }

// Add returns t + o. An infinite operand absorbs; finite addition
// saturates to the matching infinity instead of overflowing. Well-formed
// windows never add opposite infinities (lower bounds are never +∞ and
// upper bounds never -∞ on the same side of the sum).
func (t Tick) Add(o Tick) Tick {
	if t.inf != 0 {
		return t
	}
	if o.inf != 0 {
		return o
	}
	sum := t.ticks + o.ticks
	if t.ticks > 0 && o.ticks > 0 && sum < 0 {
		return PosInf
	}
	if t.ticks < 0 && o.ticks < 0 && sum >= 0 {
		return NegInf
	}
	return Tick{ticks: sum}
}

// Neg returns -t; infinities flip.
func (t Tick) Neg() Tick {
	switch {
	case t.inf != 0:
		return Tick{inf: -t.inf}
	case t.ticks == math.MinInt64:
		return PosInf
	default:
		return Tick{ticks: -t.ticks}
	}
}

// String renders the tick; infinities as "-inf"/"+inf".
func (t Tick) String() string {
	switch t.inf {
	case -1:
		return "-inf"
	case 1:
		return "+inf"
	default:
		return fmt.Sprintf("%d", t.ticks)
	}
}

// Window is an inclusive distance interval [Lo, Hi]. Lo may be -∞ and Hi
// may be +∞. A window with Lo > Hi is empty.
type Window struct {
	Lo Tick
	Hi Tick
}

// Unbounded is the window (-∞, +∞), the default bound between
// unconstrained timepoint pairs.
var Unbounded = Window{Lo: NegInf, Hi: PosInf}

// NewWindow creates the window [lo, hi].
func NewWindow(lo, hi Tick) Window {
	return Window{Lo: lo, Hi: hi}
}

// Between creates the finite window [lo, hi].
func Between(lo, hi int64) Window {
	return Window{Lo: Ticks(lo), Hi: Ticks(hi)}
}

// Exact creates the degenerate window [n, n].
func Exact(n int64) Window {
	return Between(n, n)
}

// AtLeast creates the window [n, +∞).
func AtLeast(n int64) Window {
	return Window{Lo: Ticks(n), Hi: PosInf}
}

// AtMost creates the window (-∞, n].
func AtMost(n int64) Window {
	return Window{Lo: NegInf, Hi: Ticks(n)}
}

// Empty reports whether the window contains no value.
func (w Window) Empty() bool {
	return w.Lo.Cmp(w.Hi) > 0
}

// Contains reports whether n falls inside the window.
func (w Window) Contains(n int64) bool {
	t := Ticks(n)
	return w.Lo.Cmp(t) <= 0 && t.Cmp(w.Hi) <= 0
}

// Intersect returns the intersection of two windows.
func (w Window) Intersect(o Window) Window {
	out := w
	if o.Lo.Cmp(out.Lo) > 0 {
		out.Lo = o.Lo
	}
	if o.Hi.Cmp(out.Hi) < 0 {
		out.Hi = o.Hi
	}
	return out
}

// Add returns the composed window {Lo+o.Lo, Hi+o.Hi}, the distance of a
// two-edge path in the network.
func (w Window) Add(o Window) Window {
	return Window{Lo: w.Lo.Add(o.Lo), Hi: w.Hi.Add(o.Hi)}
}

// Invert returns the window of the reversed edge: v-u ∈ [lo, hi] iff
// u-v ∈ [-hi, -lo].
func (w Window) Invert() Window {
	return Window{Lo: w.Hi.Neg(), Hi: w.Lo.Neg()}
}

// Equal reports exact equality of bounds.
func (w Window) Equal(o Window) bool {
	return w.Lo.Cmp(o.Lo) == 0 && w.Hi.Cmp(o.Hi) == 0 &&
		w.Lo.inf == o.Lo.inf && w.Hi.inf == o.Hi.inf
}

// String renders the window as "[lo, hi]".
func (w Window) String() string {
	return fmt.Sprintf("[%s, %s]", w.Lo, w.Hi)
}
