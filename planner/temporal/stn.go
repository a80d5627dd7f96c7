package temporal

import (
	"fmt"
	"sort"
)

// Timepoint identifies a variable in the network. Its realised value is
// any integer tick the network's bounds admit, measured from Zero.
type Timepoint int

// Zero is the implicit wall-clock origin. Every network contains it.
const Zero Timepoint = 0

// InconsistencyError reports a constraint addition or propagation step
// that would empty a distance window. The addition it aborted was not
// committed.
type InconsistencyError struct {
	From Timepoint
	To   Timepoint
	W    Window
}

func (e *InconsistencyError) Error() string {
	return fmt.Sprintf("inconsistent network: t%d - t%d tightened to empty %s", e.To, e.From, e.W)
}

type edge struct {
	from Timepoint
	to   Timepoint
}

// Network is a Simple Temporal Network: a set of timepoints with
// pairwise distance windows, meaning to - from ∈ [lo, hi]. The network
// is consistent between caller-observable operations; AddConstraint is
// atomic and rejects any addition that would make it inconsistent.
//
// Two timepoints made equal via an Exact(0) constraint keep their
// distinct identities; the network never aliases ids.
type Network struct {
	next   Timepoint
	points map[Timepoint]bool
	bounds map[edge]Window // normalized: from < to
}

// NewNetwork creates a network containing only Zero.
func NewNetwork() *Network {
	return &Network{
		next:   Zero + 1,
		points: map[Timepoint]bool{Zero: true},
		bounds: make(map[edge]Window),
	}
}

// AddTimepoint allocates a fresh, unconstrained timepoint.
func (n *Network) AddTimepoint() Timepoint {
	tp := n.next
	n.next++
	n.points[tp] = true
	return tp
}

// Size returns the number of timepoints, including Zero.
func (n *Network) Size() int {
	return len(n.points)
}

// Timepoints returns all timepoint ids in ascending order.
func (n *Network) Timepoints() []Timepoint {
	out := make([]Timepoint, 0, len(n.points))
	for tp := range n.points {
		out = append(out, tp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Window returns the current bound on to - from; Unbounded when the pair
// has no recorded constraint.
func (n *Network) Window(from, to Timepoint) Window {
	if from == to {
		return Exact(0)
	}
	if from < to {
		if w, ok := n.bounds[edge{from, to}]; ok {
			return w
		}
		return Unbounded
	}
	if w, ok := n.bounds[edge{to, from}]; ok {
		return w.Invert()
	}
	return Unbounded
}

func (n *Network) setWindow(from, to Timepoint, w Window, journal map[edge]*Window) {
	e := edge{from, to}
	if from > to {
		e = edge{to, from}
		w = w.Invert()
	}
	if journal != nil {
		if _, seen := journal[e]; !seen {
			if old, ok := n.bounds[e]; ok {
				saved := old
				journal[e] = &saved
			} else {
				journal[e] = nil
			}
		}
	}
	n.bounds[e] = w
}

func (n *Network) rollback(journal map[edge]*Window) {
	for e, old := range journal {
		if old == nil {
			delete(n.bounds, e)
		} else {
			n.bounds[e] = *old
		}
	}
}

// AddConstraint intersects [w] with the existing bound on to - from and
// propagates to a fixed point. The addition is atomic: on inconsistency
// every tentative tightening is rolled back and an *InconsistencyError
// is returned.
func (n *Network) AddConstraint(from, to Timepoint, w Window) error {
	if !n.points[from] {
		return fmt.Errorf("unknown timepoint t%d", from)
	}
	if !n.points[to] {
		return fmt.Errorf("unknown timepoint t%d", to)
	}
	if w.Empty() {
		return &InconsistencyError{From: from, To: to, W: w}
	}
	if from == to {
		// A self-distance is 0 by definition; any window containing 0
		// adds nothing, any other is a contradiction.
		if w.Contains(0) {
			return nil
		}
		return &InconsistencyError{From: from, To: to, W: w}
	}

	journal := make(map[edge]*Window)
	tightened := n.Window(from, to).Intersect(w)
	if tightened.Empty() {
		return &InconsistencyError{From: from, To: to, W: tightened}
	}
	n.setWindow(from, to, tightened, journal)

	if err := n.propagate(journal); err != nil {
		n.rollback(journal)
		return err
	}
	return nil
}

// Solve runs path-consistency (PC-2) to a fixed point, tightening every
// triple (i, j, k) by d(i,j) ← d(i,j) ∩ (d(i,k) + d(k,j)) until a stable
// pass. An emptied window reports inconsistency; with atomic
// AddConstraint this only occurs on networks mutated through other
// means, so callers normally observe nil.
func (n *Network) Solve() error {
	return n.propagate(nil)
}

func (n *Network) propagate(journal map[edge]*Window) error {
	tps := n.Timepoints()
	for changed := true; changed; {
		changed = false
		for _, k := range tps {
			for _, i := range tps {
				if i == k {
					continue
				}
				for _, j := range tps {
					if j == i || j == k {
						continue
					}
					dij := n.Window(i, j)
					through := n.Window(i, k).Add(n.Window(k, j))
					tightened := dij.Intersect(through)
					if tightened.Equal(dij) {
						continue
					}
					if tightened.Empty() {
						return &InconsistencyError{From: i, To: j, W: tightened}
					}
					n.setWindow(i, j, tightened, journal)
					changed = true
				}
			}
		}
	}
	return nil
}

// Consistent reports whether the network admits at least one assignment.
// The check runs propagation on a scratch copy; the network itself is
// untouched.
func (n *Network) Consistent() bool {
	return n.Clone().Solve() == nil
}

// Earliest returns the smallest admissible tick for tp relative to Zero.
// Call Solve first when constraints were added through means other than
// AddConstraint.
func (n *Network) Earliest(tp Timepoint) Tick {
	return n.Window(Zero, tp).Lo
}

// Latest returns the largest admissible tick for tp relative to Zero.
func (n *Network) Latest(tp Timepoint) Tick {
	return n.Window(Zero, tp).Hi
}

// Clone returns an independent copy of the network. The search snapshots
// the network before trying a method and restores the clone when the
// branch fails, which discards every constraint the branch posted.
func (n *Network) Clone() *Network {
	out := &Network{
		next:   n.next,
		points: make(map[Timepoint]bool, len(n.points)),
		bounds: make(map[edge]Window, len(n.bounds)),
	}
	for tp := range n.points {
		out.points[tp] = true
	}
	for e, w := range n.bounds {
		out.bounds[e] = w
	}
	return out
}
