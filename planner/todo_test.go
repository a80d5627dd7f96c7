package planner

import (
	"testing"
)

func TestUnigoalSatisfied(t *testing.T) {
	s := NewState()
	s.Set("pos", "a", "b")

	if !(Unigoal{Predicate: "pos", Subject: "a", Value: "b"}).Satisfied(s) {
		t.Error("goal matching the state should be satisfied")
	}
	if (Unigoal{Predicate: "pos", Subject: "a", Value: "c"}).Satisfied(s) {
		t.Error("goal with a different value should not be satisfied")
	}
	if (Unigoal{Predicate: "pos", Subject: "z", Value: "b"}).Satisfied(s) {
		t.Error("goal on an absent subject should not be satisfied")
	}
}

func TestMultigoalUnsatisfied(t *testing.T) {
	s := NewState()
	s.Set("pos", "a", "b")
	s.Set("pos", "b", "c")

	mg := Multigoal{Goals: []Unigoal{
		{Predicate: "pos", Subject: "a", Value: "b"},
		{Predicate: "pos", Subject: "b", Value: "table"},
		{Predicate: "pos", Subject: "c", Value: "table"},
	}}
	if mg.Satisfied(s) {
		t.Error("multigoal with open goals should not be satisfied")
	}
	open := mg.Unsatisfied(s)
	if len(open) != 2 {
		t.Fatalf("expected 2 open goals, got %d", len(open))
	}
	if open[0].Subject != "b" || open[1].Subject != "c" {
		t.Errorf("open goals should keep declaration order, got %v", open)
	}

	if v, ok := mg.Goal("pos", "b"); !ok || v != "table" {
		t.Errorf("Goal lookup returned %v, %v", v, ok)
	}
	if _, ok := mg.Goal("pos", "z"); ok {
		t.Error("Goal lookup for an absent subject should miss")
	}
}

func TestTodoStrings(t *testing.T) {
	tests := []struct {
		td   Todo
		want string
	}{
		{Action{Name: "pickup", Args: []Value{"c"}}, "action pickup(c)"},
		{Task{Name: "take", Args: []Value{"a"}}, "task take(a)"},
		{Unigoal{Predicate: "pos", Subject: "a", Value: "b"}, "goal (pos a b)"},
	}
	for _, tt := range tests {
		if got := tt.td.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}
