package search

import (
	"fmt"

	"github.com/wbrown/janus-planner/planner"
	"github.com/wbrown/janus-planner/planner/domain"
)

// OptimizerMethodID names the default multigoal method.
const OptimizerMethodID = "multigoal/displace-then-place"

// OptimizerConfig specialises the multigoal optimiser to a predicate
// family. The optimiser handles any domain with a displace-then-place
// pattern: subjects occupy destinations, a destination accepts a subject
// only while clear, and a neutral surface always accepts.
type OptimizerConfig struct {
	// Predicate is the placement relation, e.g. "pos".
	Predicate string
	// Clear is the accepts-a-subject relation, e.g. "clear".
	Clear string
	// Surface is the always-free destination, e.g. "table".
	Surface string
}

// DefaultOptimizerConfig covers the pos/clear/table family.
func DefaultOptimizerConfig() OptimizerConfig {
	return OptimizerConfig{Predicate: "pos", Clear: "clear", Surface: "table"}
}

// DefaultOptimizer returns the optimiser with the default configuration.
func DefaultOptimizer() domain.MultigoalMethodFunc {
	return NewOptimizer(DefaultOptimizerConfig())
}

type subjectStatus int

const (
	statusDone subjectStatus = iota
	statusInaccessible
	statusMoveToSurface
	statusMoveToBlock
	statusWaiting
)

// NewOptimizer builds the multigoal method. Per invocation it emits the
// next-best single goal followed by the multigoal itself, so the search
// re-enters with the remainder until every goal holds:
//
//  1. A subject whose destination is ready moves directly (move-to-block).
//  2. Otherwise a subject bound for the surface, or in the way, moves to
//     the surface.
//  3. Otherwise a waiting subject not already on the surface is parked
//     there to unblock its destination.
//
// Within each step subjects are considered in sorted order.
//
// This is an adaptation of Gupta–Nau near-optimal blocks-world ordering.
func NewOptimizer(cfg OptimizerConfig) domain.MultigoalMethodFunc {
	return func(state *planner.State, goal planner.Multigoal) ([]planner.Todo, error) {
		if len(goal.Unsatisfied(state)) == 0 {
			return []planner.Todo{}, nil
		}
		subjects := state.SubjectsWithPred(cfg.Predicate)

		for _, b := range subjects {
			if classify(cfg, state, goal, b) == statusMoveToBlock {
				dest, _ := goal.Goal(cfg.Predicate, b)
				return []planner.Todo{
					planner.Unigoal{Predicate: cfg.Predicate, Subject: b, Value: dest},
					goal,
				}, nil
			}
		}
		for _, b := range subjects {
			if classify(cfg, state, goal, b) == statusMoveToSurface {
				return []planner.Todo{
					planner.Unigoal{Predicate: cfg.Predicate, Subject: b, Value: cfg.Surface},
					goal,
				}, nil
			}
		}
		for _, b := range subjects {
			if classify(cfg, state, goal, b) != statusWaiting {
				continue
			}
			if state.Matches(cfg.Predicate, b, cfg.Surface) {
				continue
			}
			return []planner.Todo{
				planner.Unigoal{Predicate: cfg.Predicate, Subject: b, Value: cfg.Surface},
				goal,
			}, nil
		}
		return nil, fmt.Errorf("no achievable %s goal in %s", cfg.Predicate, goal)
	}
}

// classify assigns a subject its Gupta–Nau status against the goal set.
func classify(cfg OptimizerConfig, state *planner.State, goal planner.Multigoal, b string) subjectStatus {
	if isDone(cfg, state, goal, b, nil) {
		return statusDone
	}
	if !state.Matches(cfg.Clear, b, true) {
		return statusInaccessible
	}
	dest, inGoal := goal.Goal(cfg.Predicate, b)
	destName, isName := dest.(string)
	if !inGoal || (isName && destName == cfg.Surface) {
		return statusMoveToSurface
	}
	if isName && isDone(cfg, state, goal, destName, nil) && state.Matches(cfg.Clear, destName, true) {
		return statusMoveToBlock
	}
	return statusWaiting
}

// isDone reports whether a subject is at its final position: its own
// goal holds (or it has none) and everything beneath it is done too.
func isDone(cfg OptimizerConfig, state *planner.State, goal planner.Multigoal, b string, seen map[string]bool) bool {
	if b == cfg.Surface {
		return true
	}
	if seen[b] {
		// Support cycle in the state; nothing in it can be done.
		return false
	}
	cur, has := state.Get(cfg.Predicate, b)
	if !has {
		return true
	}
	if want, inGoal := goal.Goal(cfg.Predicate, b); inGoal && !planner.ValuesEqual(cur, want) {
		return false
	}
	curName, isName := cur.(string)
	if !isName || curName == cfg.Surface {
		return isName
	}
	if seen == nil {
		seen = make(map[string]bool)
	}
	seen[b] = true
	return isDone(cfg, state, goal, curName, seen)
}
