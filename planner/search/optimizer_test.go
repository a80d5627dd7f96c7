package search

import (
	"testing"

	"github.com/wbrown/janus-planner/planner"
)

func optimizerState(facts ...planner.Fact) *planner.State {
	return planner.FromTriples(facts)
}

func f(p, s string, v planner.Value) planner.Fact {
	return planner.Fact{Predicate: p, Subject: s, Value: v}
}

func TestOptimizerAllSatisfied(t *testing.T) {
	state := optimizerState(
		f("pos", "a", "b"),
		f("pos", "b", "table"),
	)
	mg := planner.Multigoal{Goals: []planner.Unigoal{
		{Predicate: "pos", Subject: "a", Value: "b"},
	}}

	todos, err := DefaultOptimizer()(state, mg)
	if err != nil {
		t.Fatal(err)
	}
	if len(todos) != 0 {
		t.Errorf("satisfied multigoal should yield an empty list, got %v", todos)
	}
}

func TestOptimizerPrefersReadyDestination(t *testing.T) {
	// b can move straight onto c: c is done (on the table, no goal) and
	// clear. a is already done.
	state := optimizerState(
		f("pos", "a", "table"),
		f("pos", "b", "table"),
		f("pos", "c", "table"),
		f("clear", "a", true),
		f("clear", "b", true),
		f("clear", "c", true),
	)
	mg := planner.Multigoal{Goals: []planner.Unigoal{
		{Predicate: "pos", Subject: "b", Value: "c"},
	}}

	todos, err := DefaultOptimizer()(state, mg)
	if err != nil {
		t.Fatal(err)
	}
	if len(todos) != 2 {
		t.Fatalf("expected [goal, multigoal], got %v", todos)
	}
	goal, ok := todos[0].(planner.Unigoal)
	if !ok || goal.Subject != "b" || goal.Value != "c" {
		t.Errorf("next goal = %v", todos[0])
	}
	if _, ok := todos[1].(planner.Multigoal); !ok {
		t.Errorf("tail should re-enter the multigoal, got %v", todos[1])
	}
}

func TestOptimizerDisplacesBlocker(t *testing.T) {
	// c sits on a and has no goal of its own: it is in the way and goes
	// to the table first.
	state := optimizerState(
		f("pos", "c", "a"),
		f("pos", "a", "table"),
		f("pos", "b", "table"),
		f("clear", "c", true),
		f("clear", "a", false),
		f("clear", "b", true),
	)
	mg := planner.Multigoal{Goals: []planner.Unigoal{
		{Predicate: "pos", Subject: "a", Value: "b"},
		{Predicate: "pos", Subject: "b", Value: "c"},
	}}

	todos, err := DefaultOptimizer()(state, mg)
	if err != nil {
		t.Fatal(err)
	}
	goal, ok := todos[0].(planner.Unigoal)
	if !ok || goal.Subject != "c" || goal.Value != "table" {
		t.Errorf("expected c to the table first, got %v", todos[0])
	}
}

func TestOptimizerParksWaitingBlock(t *testing.T) {
	// Both goal destinations are buried, so a waiting block parks on the
	// table to free its destination.
	state := optimizerState(
		f("pos", "a", "c"),
		f("pos", "b", "d"),
		f("pos", "c", "table"),
		f("pos", "d", "table"),
		f("clear", "a", true),
		f("clear", "b", true),
		f("clear", "c", false),
		f("clear", "d", false),
	)
	mg := planner.Multigoal{Goals: []planner.Unigoal{
		{Predicate: "pos", Subject: "b", Value: "c"},
		{Predicate: "pos", Subject: "a", Value: "d"},
	}}

	todos, err := DefaultOptimizer()(state, mg)
	if err != nil {
		t.Fatal(err)
	}
	goal, ok := todos[0].(planner.Unigoal)
	if !ok || goal.Subject != "a" || goal.Value != "table" {
		t.Errorf("expected a parked on the table, got %v", todos[0])
	}
}

func TestOptimizerCustomPredicateFamily(t *testing.T) {
	// Same strategy over a cargo/free/dock vocabulary.
	cfg := OptimizerConfig{Predicate: "at", Clear: "free", Surface: "dock"}
	state := optimizerState(
		f("at", "crate1", "dock"),
		f("at", "crate2", "dock"),
		f("free", "crate1", true),
		f("free", "crate2", true),
	)
	mg := planner.Multigoal{Goals: []planner.Unigoal{
		{Predicate: "at", Subject: "crate1", Value: "crate2"},
	}}

	todos, err := NewOptimizer(cfg)(state, mg)
	if err != nil {
		t.Fatal(err)
	}
	goal, ok := todos[0].(planner.Unigoal)
	if !ok || goal.Subject != "crate1" || goal.Value != "crate2" {
		t.Errorf("next goal = %v", todos[0])
	}
}

func TestOptimizerReportsStuckGoals(t *testing.T) {
	// A support cycle can never be untangled: a on b, b on a.
	state := optimizerState(
		f("pos", "a", "b"),
		f("pos", "b", "a"),
		f("clear", "a", false),
		f("clear", "b", false),
	)
	mg := planner.Multigoal{Goals: []planner.Unigoal{
		{Predicate: "pos", Subject: "a", Value: "table"},
	}}

	if _, err := DefaultOptimizer()(state, mg); err == nil {
		t.Error("an unachievable goal set should fail the method")
	}
}
