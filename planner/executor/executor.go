// Package executor walks a solution tree in DFS order, applying each
// primitive action to the world state. It is re-entrant: when an action
// fails at execution time, the residual todos are re-planned and the
// fresh subtree spliced in, bounded by a re-plan budget.
package executor

import (
	"context"
	"errors"
	"fmt"

	"github.com/wbrown/janus-planner/planner"
	"github.com/wbrown/janus-planner/planner/annotations"
	"github.com/wbrown/janus-planner/planner/domain"
	"github.com/wbrown/janus-planner/planner/search"
	"github.com/wbrown/janus-planner/planner/solution"
)

// Options controls execution and any re-planning it triggers.
type Options struct {
	// Search configures planning and re-planning.
	Search search.Options
	// ReplanBudget bounds how many re-plans one execution may perform.
	ReplanBudget int
}

// DefaultOptions returns the documented defaults.
func DefaultOptions() Options {
	return Options{Search: search.DefaultOptions(), ReplanBudget: 5}
}

// Result is a finished execution: the tree as finally executed and the
// state after its last action.
type Result struct {
	Tree  *solution.Tree
	Final *planner.State
}

// Run plans the todos and executes the resulting tree.
func Run(ctx context.Context, dom *domain.Domain, state *planner.State, todos []planner.Todo, opts Options) (*Result, error) {
	res, err := search.Plan(dom, state, todos, opts.Search)
	if err != nil {
		return nil, err
	}
	return RunTree(ctx, dom, state, res.Tree, opts)
}

// RunTree executes a prepared solution tree from the given state. The
// caller's state is not mutated; all observable effects are confined to
// the returned state. Cancellation is cooperative: the context is
// checked between actions, never during one.
func RunTree(ctx context.Context, dom *domain.Domain, state *planner.State, tree *solution.Tree, opts Options) (*Result, error) {
	col := annotations.NewCollector(handlerFor(opts))
	state = state.Copy()

	leaves := tree.PrimitivesDFS()
	emit(col, opts, 1, annotations.ExecuteBegin, map[string]interface{}{"actions": len(leaves)})

	executed := make(map[solution.NodeID]bool)
	replans := 0
	applied := 0
	i := 0
	for i < len(leaves) {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("execution aborted: %w", err)
		}
		leaf := leaves[i]
		spec, ok := dom.GetAction(leaf.Name)
		if !ok {
			return nil, &planner.UnknownActionError{Name: leaf.Name}
		}

		var next *planner.State
		var err error
		if state.Fingerprint() != leaf.PreHash {
			err = &planner.ActionPreconditionError{
				Action: leaf.Name,
				Detail: "world state diverged from the planned pre-state",
			}
		} else {
			next, err = spec.Fn(state, leaf.Args)
		}
		if err != nil {
			replans++
			emit(col, opts, 1, annotations.ExecuteReplan, map[string]interface{}{
				"action":  leaf.Name,
				"replans": replans,
				"budget":  opts.ReplanBudget,
			})
			if replans > opts.ReplanBudget {
				return nil, fmt.Errorf("%w: %w", &planner.ReplanBudgetError{Budget: opts.ReplanBudget}, err)
			}
			if rerr := replan(dom, state, tree, leaves[i:], executed, opts); rerr != nil {
				return nil, fmt.Errorf("re-plan after %s: %w", leaf.Name, rerr)
			}
			leaves = tree.PrimitivesDFS()
			i = countExecuted(leaves, executed)
			continue
		}

		state = next
		executed[leaf.ID] = true
		applied++
		emit(col, opts, 1, annotations.ActionApplied, map[string]interface{}{"action": leaf.Name})
		i++
	}

	emit(col, opts, 1, annotations.ExecuteCompleted, map[string]interface{}{"actions": applied})
	return &Result{Tree: tree, Final: state}, nil
}

func handlerFor(opts Options) annotations.Handler {
	if opts.Search.Verbose < 1 {
		return nil
	}
	return opts.Search.Handler
}

func emit(col *annotations.Collector, opts Options, level int, name string, data map[string]interface{}) {
	if opts.Search.Verbose < level {
		return
	}
	col.Emit(name, data)
}

// countExecuted returns how many leading leaves of the DFS order are
// already applied; execution resumes at that index.
func countExecuted(leaves []*solution.Node, executed map[solution.NodeID]bool) int {
	n := 0
	for _, leaf := range leaves {
		if !executed[leaf.ID] {
			break
		}
		n++
	}
	return n
}

// replan translates the untraversed leaves back to their originating
// todos, plans them from the current state, and splices the fresh
// subtrees into the tree in place of the failed tail.
func replan(
	dom *domain.Domain,
	state *planner.State,
	tree *solution.Tree,
	remaining []*solution.Node,
	executed map[solution.NodeID]bool,
	opts Options,
) error {
	roots := residualRoots(tree, remaining, executed)
	if len(roots) == 0 {
		return errors.New("no residual todos to re-plan")
	}
	todos := make([]planner.Todo, 0, len(roots))
	for _, id := range roots {
		n := tree.Node(id)
		if n == nil || n.Source == nil {
			return fmt.Errorf("residual node %d has no source todo", id)
		}
		todos = append(todos, n.Source)
	}

	res, err := search.Plan(dom, state, todos, opts.Search)
	if err != nil {
		return err
	}

	// Splice: the first residual root is replaced by the whole fresh
	// plan; the rest of the stale tail is removed.
	for _, id := range roots[1:] {
		if err := tree.RemoveSubtree(id); err != nil {
			return err
		}
	}
	return tree.ReplaceSubtree(roots[0], res.Tree)
}

// residualRoots finds, in DFS order, the topmost subtrees containing no
// executed leaf. Their source todos are exactly the work still owed.
func residualRoots(tree *solution.Tree, remaining []*solution.Node, executed map[solution.NodeID]bool) []solution.NodeID {
	var roots []solution.NodeID
	seen := make(map[solution.NodeID]bool)
	for _, leaf := range remaining {
		if executed[leaf.ID] {
			continue
		}
		id := leaf.ID
		for {
			n := tree.Node(id)
			if n == nil || n.Parent == solution.InvalidNode {
				break
			}
			parent := tree.Node(n.Parent)
			if parent == nil || parent.Kind == solution.KindRoot {
				break
			}
			if subtreeHasExecuted(tree, n.Parent, executed) {
				break
			}
			id = n.Parent
		}
		if !seen[id] {
			seen[id] = true
			roots = append(roots, id)
		}
	}
	return roots
}

func subtreeHasExecuted(tree *solution.Tree, id solution.NodeID, executed map[solution.NodeID]bool) bool {
	n := tree.Node(id)
	if n == nil {
		return false
	}
	if n.Kind == solution.KindAction {
		return executed[n.ID]
	}
	for _, c := range n.Children {
		if subtreeHasExecuted(tree, c, executed) {
			return true
		}
	}
	return false
}
