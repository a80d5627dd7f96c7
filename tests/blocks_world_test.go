package tests

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wbrown/janus-planner/examples/blocks"
	"github.com/wbrown/janus-planner/planner"
	"github.com/wbrown/janus-planner/planner/executor"
	"github.com/wbrown/janus-planner/planner/search"
)

func primitiveStrings(res *search.Result) []string {
	var out []string
	for _, leaf := range res.Tree.PrimitivesDFS() {
		s := leaf.Name
		for _, a := range leaf.Args {
			s += fmt.Sprintf(" %v", a)
		}
		out = append(out, s)
	}
	return out
}

func pos(s, v string) planner.Unigoal {
	return planner.Unigoal{Predicate: "pos", Subject: s, Value: v}
}

func TestSimplePickup(t *testing.T) {
	dom := blocks.Build()
	state := blocks.InitialState()

	res, err := search.Plan(dom, state, []planner.Todo{
		planner.Action{Name: "pickup", Args: []planner.Value{"c"}},
	}, search.DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, []string{"pickup c"}, primitiveStrings(res))

	assert.True(t, res.Final.Matches("clear", "c", false))
	assert.True(t, res.Final.Matches("pos", "c", blocks.Hand))
	assert.True(t, res.Final.Matches("holding", blocks.Hand, "c"))
}

func TestUnreachablePickup(t *testing.T) {
	dom := blocks.Build()
	state := blocks.InitialState()

	// a sits on b, not at table level; pickup's precondition fails.
	_, err := search.Plan(dom, state, []planner.Todo{
		planner.Action{Name: "pickup", Args: []planner.Value{"a"}},
	}, search.DefaultOptions())
	var precond *planner.ActionPreconditionError
	require.ErrorAs(t, err, &precond)
	assert.Equal(t, "pickup", precond.Action)
}

func TestTakeTaskDispatches(t *testing.T) {
	dom := blocks.Build()
	state := blocks.InitialState()

	// pos(a) = "b", so take dispatches to unstack.
	res, err := search.Plan(dom, state, []planner.Todo{
		planner.Task{Name: "take", Args: []planner.Value{"a"}},
	}, search.DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, []string{"unstack a b"}, primitiveStrings(res))
}

func TestSussmanAnomaly(t *testing.T) {
	dom := blocks.Build()
	state := blocks.SussmanState()

	goal := planner.Multigoal{Goals: []planner.Unigoal{
		pos("a", "b"),
		pos("b", "c"),
	}}
	res, err := search.Plan(dom, state, []planner.Todo{goal}, search.DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, []string{
		"unstack c a",
		"putdown c",
		"pickup b",
		"stack b c",
		"pickup a",
		"stack a b",
	}, primitiveStrings(res))

	// Executing the plan reaches the goal.
	exec, err := executor.RunTree(context.Background(), dom, state, res.Tree, executor.DefaultOptions())
	require.NoError(t, err)
	assert.True(t, goal.Satisfied(exec.Final))
}

func TestInvertedStack(t *testing.T) {
	dom := blocks.Build()
	state := blocks.InitialState()

	goal := planner.Multigoal{Goals: []planner.Unigoal{
		pos("c", "b"),
		pos("b", "a"),
		pos("a", blocks.Table),
	}}
	res, err := search.Plan(dom, state, []planner.Todo{goal}, search.DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, []string{
		"unstack a b",
		"putdown a",
		"pickup b",
		"stack b a",
		"pickup c",
		"stack c b",
	}, primitiveStrings(res))
}

func TestParallelRearrange(t *testing.T) {
	dom := blocks.Build()
	state := planner.FromTriples([]planner.Fact{
		{Predicate: "pos", Subject: "a", Value: "c"},
		{Predicate: "pos", Subject: "b", Value: "d"},
		{Predicate: "pos", Subject: "c", Value: blocks.Table},
		{Predicate: "pos", Subject: "d", Value: blocks.Table},
		{Predicate: "clear", Subject: "a", Value: true},
		{Predicate: "clear", Subject: "b", Value: true},
		{Predicate: "clear", Subject: "c", Value: false},
		{Predicate: "clear", Subject: "d", Value: false},
		{Predicate: "holding", Subject: blocks.Hand, Value: false},
	})

	goal := planner.Multigoal{Goals: []planner.Unigoal{
		pos("b", "c"),
		pos("a", "d"),
	}}
	res, err := search.Plan(dom, state, []planner.Todo{goal}, search.DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, []string{
		"unstack a c",
		"putdown a",
		"unstack b d",
		"stack b c",
		"pickup a",
		"stack a d",
	}, primitiveStrings(res))
}

func TestMultigoalAlreadySatisfied(t *testing.T) {
	dom := blocks.Build()
	state := blocks.InitialState()

	goal := planner.Multigoal{Goals: []planner.Unigoal{
		pos("a", "b"),
		pos("b", blocks.Table),
	}}
	res, err := search.Plan(dom, state, []planner.Todo{goal}, search.DefaultOptions())
	require.NoError(t, err)
	assert.Empty(t, res.Tree.PrimitivesDFS(), "satisfied goals contribute zero actions")
}

func TestPlanThenRunMatchesProjection(t *testing.T) {
	dom := blocks.Build()
	state := blocks.SussmanState()

	goal := planner.Multigoal{Goals: []planner.Unigoal{pos("a", "b"), pos("b", "c")}}
	res, err := search.Plan(dom, state, []planner.Todo{goal}, search.DefaultOptions())
	require.NoError(t, err)

	exec, err := executor.RunTree(context.Background(), dom, state, res.Tree, executor.DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, res.Final.Fingerprint(), exec.Final.Fingerprint(),
		"execution must land exactly on the projected state")
}

func TestReplanFromFinalState(t *testing.T) {
	dom := blocks.Build()
	state := blocks.SussmanState()

	goal := planner.Multigoal{Goals: []planner.Unigoal{pos("a", "b"), pos("b", "c")}}
	res, err := search.Plan(dom, state, []planner.Todo{goal}, search.DefaultOptions())
	require.NoError(t, err)

	// From the final state the same multigoal is already satisfied.
	again, err := search.Plan(dom, res.Final, []planner.Todo{goal}, search.DefaultOptions())
	require.NoError(t, err)
	assert.Empty(t, again.Tree.PrimitivesDFS())
}

func TestDeterministicPlans(t *testing.T) {
	dom := blocks.Build()
	state := blocks.SussmanState()
	goal := planner.Multigoal{Goals: []planner.Unigoal{pos("a", "b"), pos("b", "c")}}

	first, err := search.Plan(dom, state, []planner.Todo{goal}, search.DefaultOptions())
	require.NoError(t, err)
	second, err := search.Plan(dom, state, []planner.Todo{goal}, search.DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, primitiveStrings(first), primitiveStrings(second))
}

func TestMixedTodoList(t *testing.T) {
	dom := blocks.Build()
	state := blocks.InitialState()

	// A task, then a goal over the state the task leaves behind.
	res, err := search.Plan(dom, state, []planner.Todo{
		planner.Task{Name: "take", Args: []planner.Value{"a"}},
		planner.Task{Name: "put", Args: []planner.Value{"a", blocks.Table}},
		planner.Unigoal{Predicate: "pos", Subject: "c", Value: "a"},
	}, search.DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, []string{
		"unstack a b",
		"putdown a",
		"pickup c",
		"stack c a",
	}, primitiveStrings(res))
}

func TestActionLeavesCarryStateHashes(t *testing.T) {
	dom := blocks.Build()
	state := blocks.InitialState()

	res, err := search.Plan(dom, state, []planner.Todo{
		planner.Task{Name: "take", Args: []planner.Value{"a"}},
	}, search.DefaultOptions())
	require.NoError(t, err)

	leaves := res.Tree.PrimitivesDFS()
	require.Len(t, leaves, 1)
	assert.Equal(t, state.Fingerprint(), leaves[0].PreHash)
	assert.Equal(t, res.Final.Fingerprint(), leaves[0].PostHash)
	assert.NotEqual(t, leaves[0].PreHash, leaves[0].PostHash)
}

func TestFatalErrorsSurface(t *testing.T) {
	dom := blocks.Build()
	state := blocks.SussmanState()
	goal := planner.Multigoal{Goals: []planner.Unigoal{pos("a", "b"), pos("b", "c")}}

	_, err := search.Plan(dom, state, []planner.Todo{goal}, search.Options{MaxDepth: 2})
	assert.True(t, errors.Is(err, planner.ErrDepthExceeded), "err = %v", err)
}
