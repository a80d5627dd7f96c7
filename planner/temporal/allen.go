package temporal

import (
	"fmt"
	"sort"
	"strings"
)

// Relation is one of Allen's thirteen interval relations between
// X = [xs, xe] and Y = [ys, ye].
type Relation int

const (
	Before Relation = iota
	Meets
	Overlaps
	FinishedBy
	Contains
	Starts
	Equals
	StartedBy
	During
	Finishes
	OverlappedBy
	MetBy
	After
)

// Relations lists all thirteen relations in canonical order.
var Relations = []Relation{
	Before, Meets, Overlaps, FinishedBy, Contains, Starts, Equals,
	StartedBy, During, Finishes, OverlappedBy, MetBy, After,
}

var relationNames = map[Relation]string{
	Before:       "before",
	Meets:        "meets",
	Overlaps:     "overlaps",
	FinishedBy:   "finished-by",
	Contains:     "contains",
	Starts:       "starts",
	Equals:       "equals",
	StartedBy:    "started-by",
	During:       "during",
	Finishes:     "finishes",
	OverlappedBy: "overlapped-by",
	MetBy:        "met-by",
	After:        "after",
}

// String returns the relation's canonical name.
func (r Relation) String() string {
	if name, ok := relationNames[r]; ok {
		return name
	}
	return fmt.Sprintf("relation(%d)", int(r))
}

// ParseRelation resolves a canonical relation name.
func ParseRelation(name string) (Relation, error) {
	for r, n := range relationNames {
		if n == name {
			return r, nil
		}
	}
	return 0, fmt.Errorf("unknown interval relation %q", name)
}

// Constraint is a distance bound on a pair of timepoints:
// To - From ∈ W.
type Constraint struct {
	From Timepoint
	To   Timepoint
	W    Window
}

// String renders the constraint as "t<to> - t<from> in [lo, hi]".
func (c Constraint) String() string {
	return fmt.Sprintf("t%d - t%d in %s", c.To, c.From, c.W)
}

// RelationConstraints converts an Allen relation between intervals
// X = [xs, xe] and Y = [ys, ye] into the equivalent conjunction of
// endpoint distance constraints. Strict orderings use a minimum distance
// of one tick, as intervals live on an integer timeline.
func RelationConstraints(r Relation, xs, xe, ys, ye Timepoint) ([]Constraint, error) {
	switch r {
	case Before:
		// X ends strictly before Y starts.
		return []Constraint{{xe, ys, AtLeast(1)}}, nil
	case Meets:
		return []Constraint{{xe, ys, Exact(0)}}, nil
	case Overlaps:
		// xs < ys < xe < ye
		return []Constraint{
			{xs, ys, AtLeast(1)},
			{ys, xe, AtLeast(1)},
			{xe, ye, AtLeast(1)},
		}, nil
	case FinishedBy:
		// Y finishes X: xs < ys, xe = ye.
		return []Constraint{
			{xs, ys, AtLeast(1)},
			{xe, ye, Exact(0)},
		}, nil
	case Contains:
		return []Constraint{
			{xs, ys, AtLeast(1)},
			{ye, xe, AtLeast(1)},
		}, nil
	case Starts:
		// X starts Y: xs = ys, xe < ye.
		return []Constraint{
			{xs, ys, Exact(0)},
			{xe, ye, AtLeast(1)},
		}, nil
	case Equals:
		return []Constraint{
			{xs, ys, Exact(0)},
			{xe, ye, Exact(0)},
		}, nil
	case StartedBy:
		return []Constraint{
			{xs, ys, Exact(0)},
			{ye, xe, AtLeast(1)},
		}, nil
	case During:
		return []Constraint{
			{ys, xs, AtLeast(1)},
			{xe, ye, AtLeast(1)},
		}, nil
	case Finishes:
		return []Constraint{
			{ys, xs, AtLeast(1)},
			{xe, ye, Exact(0)},
		}, nil
	case OverlappedBy:
		// ys < xs < ye < xe
		return []Constraint{
			{ys, xs, AtLeast(1)},
			{xs, ye, AtLeast(1)},
			{ye, xe, AtLeast(1)},
		}, nil
	case MetBy:
		return []Constraint{{ye, xs, Exact(0)}}, nil
	case After:
		return []Constraint{{ye, xs, AtLeast(1)}}, nil
	}
	return nil, fmt.Errorf("unknown interval relation %d", int(r))
}

// RelationBetween recovers the Allen relation a constraint set encodes
// for intervals X = [xs, xe], Y = [ys, ye]. It is the inverse of
// RelationConstraints: the constraints are canonicalized and matched
// against each relation's generated set.
func RelationBetween(cs []Constraint, xs, xe, ys, ye Timepoint) (Relation, bool) {
	want := canonicalConstraints(cs)
	for _, r := range Relations {
		generated, err := RelationConstraints(r, xs, xe, ys, ye)
		if err != nil {
			continue
		}
		if canonicalConstraints(generated) == want {
			return r, true
		}
	}
	return 0, false
}

// canonicalConstraints renders a constraint set into an order- and
// direction-independent key. Each constraint is normalized so its lower
// timepoint id is the From endpoint.
func canonicalConstraints(cs []Constraint) string {
	parts := make([]string, len(cs))
	for i, c := range cs {
		if c.To < c.From {
			c = Constraint{From: c.To, To: c.From, W: c.W.Invert()}
		}
		parts[i] = c.String()
	}
	sort.Strings(parts)
	return strings.Join(parts, ";")
}
