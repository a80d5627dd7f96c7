// Package search implements the planner's central algorithm: depth-first
// HTN decomposition with method iteration, verification, and
// backtracking, interleaved with temporal constraint propagation.
//
// File organization:
//   - search.go: Options, Result, the Plan() entry point, and the
//     decomposition recursion
//   - temporal.go: timepoint allocation, duration and per-action
//     constraint posting, entity allocation
//   - optimizer.go: the default multigoal method
//
// Start with Plan() to understand the planning flow.
package search

import (
	"errors"
	"fmt"
	"time"

	"github.com/wbrown/janus-planner/planner"
	"github.com/wbrown/janus-planner/planner/annotations"
	"github.com/wbrown/janus-planner/planner/domain"
	"github.com/wbrown/janus-planner/planner/solution"
	"github.com/wbrown/janus-planner/planner/temporal"
)

// Options controls a planning call. The zero value refuses any
// decomposition (MaxDepth 0); use DefaultOptions for the usual limits.
type Options struct {
	// MaxDepth bounds the decomposition depth. 0 refuses any
	// decomposition; 1 permits only primitive todos.
	MaxDepth int
	// Verbose selects the diagnostic level (0..3). 0 emits nothing,
	// 1 lifecycle events, 2 per-method events, 3 temporal detail.
	Verbose int
	// TimeBudget bounds the planning call's wall-clock time.
	// 0 means unlimited.
	TimeBudget time.Duration
	// Handler receives diagnostic events when Verbose ≥ 1.
	Handler annotations.Handler
}

// DefaultOptions returns the documented defaults.
func DefaultOptions() Options {
	return Options{MaxDepth: 20}
}

// Metadata summarises a finished planning call.
type Metadata struct {
	PlanID       string
	Actions      int
	Nodes        int
	MethodsTried int
	Backtracks   int
	DepthReached int
	Timepoints   int
	Elapsed      time.Duration
}

// Result is a successful plan: the solution tree, the state projected
// through its primitives, the temporal network the plan must respect,
// and call metadata.
type Result struct {
	Tree    *solution.Tree
	Final   *planner.State
	Network *temporal.Network
	// Intervals spans the durative actions, in expansion order.
	Intervals []temporal.Interval
	Metadata  Metadata
}

// Plan decomposes todos against the domain from the given state. The
// caller's state is not mutated. The returned tree's DFS traversal of
// action leaves is the plan's canonical linearisation; the result is
// deterministic for fixed inputs.
func Plan(dom *domain.Domain, state *planner.State, todos []planner.Todo, opts Options) (*Result, error) {
	began := time.Now()
	s := &search{
		dom:       dom,
		opts:      opts,
		col:       annotations.NewCollector(verboseHandler(opts)),
		stn:       temporal.NewNetwork(),
		tree:      solution.NewTree(),
		blacklist: make(map[blacklistKey]bool),
		alloc:     make(map[string]holder),
	}
	if opts.TimeBudget > 0 {
		s.deadline = began.Add(opts.TimeBudget)
	}
	s.emit(1, annotations.PlanInvoked, map[string]interface{}{"todos": len(todos)})

	final, err := s.seq(state.Copy(), todos, s.tree.Root(), 0)
	meta := Metadata{
		PlanID:       s.tree.ID,
		MethodsTried: s.methodsTried,
		Backtracks:   s.backtracks,
		DepthReached: s.depthReached,
		Timepoints:   s.stn.Size() - 1,
		Elapsed:      time.Since(began),
	}
	if err != nil {
		s.emit(1, annotations.PlanFailed, map[string]interface{}{"error": err.Error()})
		return nil, err
	}
	meta.Actions = len(s.tree.PrimitivesDFS())
	meta.Nodes = s.tree.Size()
	s.emit(1, annotations.PlanCompleted, map[string]interface{}{
		"actions":    meta.Actions,
		"nodes":      meta.Nodes,
		"backtracks": meta.Backtracks,
	})
	return &Result{Tree: s.tree, Final: final, Network: s.stn, Intervals: s.intervals, Metadata: meta}, nil
}

func verboseHandler(opts Options) annotations.Handler {
	if opts.Verbose < 1 || opts.Handler == nil {
		return nil
	}
	return opts.Handler
}

type blacklistKey struct {
	methodID string
	todo     string
	state    planner.Fingerprint
}

// holder records an entity's most recent assignment, so a later action
// can only reuse the entity once the earlier one is constrained to have
// released it.
type holder struct {
	instance string
	end      temporal.Timepoint
	durative bool
}

type search struct {
	dom  *domain.Domain
	opts Options
	col  *annotations.Collector
	stn  *temporal.Network
	tree *solution.Tree

	blacklist map[blacklistKey]bool
	alloc     map[string]holder
	intervals []temporal.Interval
	lastEnd   temporal.Timepoint
	hasLast   bool
	actionSeq int

	deadline     time.Time
	methodsTried int
	backtracks   int
	depthReached int
}

// emit sends an event when the verbosity level admits it.
func (s *search) emit(level int, name string, data map[string]interface{}) {
	if s.opts.Verbose < level {
		return
	}
	s.col.Emit(name, data)
}

// snapshot captures the branch-local planning state a failed method must
// restore: the temporal network, entity allocations, and the sequencing
// anchor. Tree changes are undone separately by removing the subtree.
type snapshot struct {
	stn       *temporal.Network
	alloc     map[string]holder
	intervals int
	lastEnd   temporal.Timepoint
	hasLast   bool
	actionSeq int
}

func (s *search) save() snapshot {
	alloc := make(map[string]holder, len(s.alloc))
	for k, v := range s.alloc {
		alloc[k] = v
	}
	return snapshot{
		stn:       s.stn.Clone(),
		alloc:     alloc,
		intervals: len(s.intervals),
		lastEnd:   s.lastEnd,
		hasLast:   s.hasLast,
		actionSeq: s.actionSeq,
	}
}

func (s *search) restore(snap snapshot) {
	s.stn = snap.stn
	s.alloc = snap.alloc
	s.intervals = s.intervals[:snap.intervals]
	s.lastEnd = snap.lastEnd
	s.hasLast = snap.hasLast
	s.actionSeq = snap.actionSeq
}

// seq plans an ordered todo list: each todo is decomposed against the
// state projected through its predecessors.
func (s *search) seq(state *planner.State, todos []planner.Todo, parent solution.NodeID, depth int) (*planner.State, error) {
	for _, td := range todos {
		next, err := s.decompose(state, td, parent, depth)
		if err != nil {
			return nil, err
		}
		state = next
	}
	return state, nil
}

func (s *search) decompose(state *planner.State, td planner.Todo, parent solution.NodeID, depth int) (*planner.State, error) {
	if !s.deadline.IsZero() && time.Now().After(s.deadline) {
		return nil, planner.ErrTimeBudgetExceeded
	}
	if depth > s.depthReached {
		s.depthReached = depth
	}
	if depth >= s.opts.MaxDepth {
		return nil, fmt.Errorf("%w at %s", planner.ErrDepthExceeded, td)
	}

	switch td := td.(type) {
	case planner.Action:
		return s.expandAction(state, td, parent)
	case planner.Task:
		return s.expandTask(state, td, parent, depth)
	case planner.Unigoal:
		return s.expandUnigoal(state, td, parent, depth)
	case planner.Multigoal:
		return s.expandMultigoal(state, td, parent, depth)
	}
	return nil, fmt.Errorf("unknown todo variant %T", td)
}

// fatal reports failures that must not be absorbed by method iteration.
func fatal(err error) bool {
	return errors.Is(err, planner.ErrTimeBudgetExceeded) || errors.Is(err, planner.ErrDepthExceeded)
}

func (s *search) expandAction(state *planner.State, td planner.Action, parent solution.NodeID) (*planner.State, error) {
	spec, ok := s.dom.GetAction(td.Name)
	if !ok {
		return nil, &planner.UnknownActionError{Name: td.Name}
	}

	instance := fmt.Sprintf("%s#%d", td.Name, s.actionSeq)
	s.actionSeq++

	start, end, durative, err := s.expandTemporal(state, spec, instance)
	if err != nil {
		return nil, err
	}
	if err := s.allocateEntities(spec, instance, start, end, durative); err != nil {
		return nil, err
	}

	pre := state.Fingerprint()
	next, err := spec.Fn(state.Copy(), td.Args)
	if err != nil {
		s.emit(2, annotations.ActionFailed, map[string]interface{}{"action": td.String(), "error": err.Error()})
		var precond *planner.ActionPreconditionError
		if errors.As(err, &precond) {
			return nil, err
		}
		return nil, &planner.ActionFailedError{Action: td.Name, Err: err}
	}

	node := &solution.Node{
		Kind:     solution.KindAction,
		Source:   td,
		Name:     td.Name,
		Args:     td.Args,
		Expanded: true,
		PreHash:  pre,
		PostHash: next.Fingerprint(),
	}
	if _, err := s.tree.AppendChild(parent, node); err != nil {
		return nil, err
	}
	if durative {
		s.lastEnd = end
		s.hasLast = true
	}
	s.emit(2, annotations.ActionExpanded, map[string]interface{}{"action": td.String()})
	return next, nil
}

func (s *search) expandTask(state *planner.State, td planner.Task, parent solution.NodeID, depth int) (*planner.State, error) {
	methods := s.dom.MethodsForTask(td.Name)
	if len(methods) == 0 {
		return nil, &planner.UnknownMethodError{Name: td.Name}
	}
	ids := make([]string, len(methods))
	for i, m := range methods {
		ids[i] = m.ID
	}
	return s.iterateMethods(state, td, parent, depth, ids,
		func(i int) ([]planner.Todo, error) {
			return methods[i].Fn(state, td.Args)
		},
		solution.KindTask, nil)
}

func (s *search) expandUnigoal(state *planner.State, td planner.Unigoal, parent solution.NodeID, depth int) (*planner.State, error) {
	if td.Satisfied(state) {
		s.emit(2, annotations.GoalSatisfied, map[string]interface{}{"goal": td.String()})
		return state, nil
	}
	methods := s.dom.MethodsForGoal(td.Predicate)
	if len(methods) == 0 {
		return nil, &planner.UnknownMethodError{Name: td.Predicate}
	}
	ids := make([]string, len(methods))
	for i, m := range methods {
		ids[i] = m.ID
	}
	verify := func(projected *planner.State) bool { return td.Satisfied(projected) }
	return s.iterateMethods(state, td, parent, depth, ids,
		func(i int) ([]planner.Todo, error) {
			return methods[i].Fn(state, td.Subject, td.Value)
		},
		solution.KindUnigoal, verify)
}

func (s *search) expandMultigoal(state *planner.State, td planner.Multigoal, parent solution.NodeID, depth int) (*planner.State, error) {
	if td.Satisfied(state) {
		s.emit(2, annotations.GoalSatisfied, map[string]interface{}{"goal": td.String()})
		return state, nil
	}
	methods := s.dom.MultigoalMethods()
	if len(methods) == 0 {
		// The displace-then-place optimiser is installed by default; a
		// domain that registers its own methods replaces it.
		methods = []domain.MultigoalMethod{{ID: OptimizerMethodID, Fn: DefaultOptimizer()}}
	}
	ids := make([]string, len(methods))
	for i, m := range methods {
		ids[i] = m.ID
	}
	verify := func(projected *planner.State) bool { return td.Satisfied(projected) }
	return s.iterateMethods(state, td, parent, depth, ids,
		func(i int) ([]planner.Todo, error) {
			return methods[i].Fn(state, td)
		},
		solution.KindMultigoal, verify)
}

// iterateMethods runs the shared method-iteration loop: try each method
// in declaration order, recurse on the todos it returns, verify where a
// goal demands it, and backtrack by discarding the subtree and restoring
// the snapshot. A method is never re-invoked for the same todo in the
// same state.
func (s *search) iterateMethods(
	state *planner.State,
	td planner.Todo,
	parent solution.NodeID,
	depth int,
	ids []string,
	invoke func(i int) ([]planner.Todo, error),
	kind solution.Kind,
	verify func(projected *planner.State) bool,
) (*planner.State, error) {
	stateHash := state.Fingerprint()
	var lastErr error
	for i := 0; i < len(ids); i++ {
		id := ids[i]
		key := blacklistKey{methodID: id, todo: td.String(), state: stateHash}
		if s.blacklist[key] {
			s.emit(2, annotations.MethodBlacklist, map[string]interface{}{"method": id, "todo": td.String()})
			continue
		}
		s.blacklist[key] = true
		s.methodsTried++
		s.emit(2, annotations.MethodTried, map[string]interface{}{"method": id, "todo": td.String(), "depth": depth})

		todos, err := invoke(i)
		if err != nil {
			s.emit(2, annotations.MethodFailed, map[string]interface{}{"method": id, "todo": td.String(), "error": err.Error()})
			lastErr = err
			continue
		}

		snap := s.save()
		node := &solution.Node{Kind: kind, Source: td, MethodID: id, MethodIndex: i}
		nodeID, aerr := s.tree.AppendChild(parent, node)
		if aerr != nil {
			return nil, aerr
		}

		projected, err := s.seq(state, todos, nodeID, depth+1)
		if err == nil && verify != nil && !verify(projected) {
			s.emit(2, annotations.GoalVerificationFailed, map[string]interface{}{"goal": td.String()})
			err = &planner.VerificationError{Goal: td.String()}
		}
		if err == nil {
			node.Expanded = true
			if verify != nil {
				s.emit(2, annotations.GoalVerified, map[string]interface{}{"goal": td.String()})
			}
			s.emit(2, annotations.MethodSucceeded, map[string]interface{}{"method": id, "todo": td.String()})
			return projected, nil
		}

		s.restore(snap)
		if rerr := s.tree.RemoveSubtree(nodeID); rerr != nil {
			return nil, rerr
		}
		s.backtracks++
		s.emit(2, annotations.MethodFailed, map[string]interface{}{"method": id, "todo": td.String(), "error": err.Error()})
		s.emit(1, annotations.PlanBacktrack, map[string]interface{}{"todo": td.String()})
		if fatal(err) {
			return nil, err
		}
		lastErr = err
	}
	if lastErr != nil {
		return nil, fmt.Errorf("%w: %w", &planner.NoApplicableMethodError{Head: td.String()}, lastErr)
	}
	return nil, &planner.NoApplicableMethodError{Head: td.String()}
}
