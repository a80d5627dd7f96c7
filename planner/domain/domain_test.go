package domain

import (
	"testing"

	"github.com/wbrown/janus-planner/planner"
)

func noopAction(s *planner.State, args []planner.Value) (*planner.State, error) {
	return s, nil
}

func noopTaskMethod(s *planner.State, args []planner.Value) ([]planner.Todo, error) {
	return nil, nil
}

func noopGoalMethod(s *planner.State, subject string, value planner.Value) ([]planner.Todo, error) {
	return nil, nil
}

func TestBuilderBuildsLookups(t *testing.T) {
	dom, err := NewBuilder().
		Action(ActionSpec{Name: "move", Fn: noopAction, Duration: Fixed(5)}).
		TaskMethod("travel", "travel/direct", noopTaskMethod).
		TaskMethod("travel", "travel/via-hub", noopTaskMethod).
		UnigoalMethod("at", "at/by-travel", noopGoalMethod).
		Build()
	if err != nil {
		t.Fatal(err)
	}

	if _, ok := dom.GetAction("move"); !ok {
		t.Error("registered action not found")
	}
	if _, ok := dom.GetAction("teleport"); ok {
		t.Error("unregistered action found")
	}

	methods := dom.MethodsForTask("travel")
	if len(methods) != 2 {
		t.Fatalf("expected 2 task methods, got %d", len(methods))
	}
	// Declaration order is iteration order.
	if methods[0].ID != "travel/direct" || methods[1].ID != "travel/via-hub" {
		t.Errorf("method order lost: %v, %v", methods[0].ID, methods[1].ID)
	}

	if got := dom.MethodsForGoal("at"); len(got) != 1 {
		t.Errorf("expected 1 unigoal method, got %d", len(got))
	}
	if got := dom.MethodsForGoal("pos"); got != nil {
		t.Errorf("unknown predicate should have no methods, got %v", got)
	}

	spec, ok := dom.DurationOf("move")
	if !ok || spec.Kind != FixedDuration || spec.Seconds != 5 {
		t.Errorf("DurationOf(move) = %+v, %v", spec, ok)
	}
}

func TestBuilderValidation(t *testing.T) {
	tests := []struct {
		name  string
		build func() (*Domain, error)
	}{
		{"empty action name", func() (*Domain, error) {
			return NewBuilder().Action(ActionSpec{Fn: noopAction}).Build()
		}},
		{"nil action fn", func() (*Domain, error) {
			return NewBuilder().Action(ActionSpec{Name: "x"}).Build()
		}},
		{"bad duration", func() (*Domain, error) {
			return NewBuilder().Action(ActionSpec{Name: "x", Fn: noopAction, Duration: Fixed(-1)}).Build()
		}},
		{"duplicate action", func() (*Domain, error) {
			return NewBuilder().
				Action(ActionSpec{Name: "x", Fn: noopAction}).
				Action(ActionSpec{Name: "x", Fn: noopAction}).
				Build()
		}},
		{"nil method fn", func() (*Domain, error) {
			return NewBuilder().TaskMethod("t", "t/only", nil).Build()
		}},
		{"empty method id", func() (*Domain, error) {
			return NewBuilder().TaskMethod("t", "", noopTaskMethod).Build()
		}},
		{"unregistered entity type", func() (*Domain, error) {
			return NewBuilder().Action(ActionSpec{
				Name: "x", Fn: noopAction,
				Entities: []EntityRequirement{{Type: "ghost", Count: 1}},
			}).Build()
		}},
		{"zero entity count", func() (*Domain, error) {
			return NewBuilder().
				EntityType("robot", "move").
				Action(ActionSpec{
					Name: "x", Fn: noopAction,
					Entities: []EntityRequirement{{Type: "robot", Count: 0}},
				}).Build()
		}},
		{"entity of unknown type", func() (*Domain, error) {
			return NewBuilder().Entity("r1", "robot").Build()
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := tt.build(); err == nil {
				t.Error("expected a validation error")
			}
		})
	}
}

func TestEntityRegistry(t *testing.T) {
	dom, err := NewBuilder().
		EntityType("robot", "move", "grasp").
		Entity("r1", "robot").
		Entity("r2", "robot").
		Action(ActionSpec{
			Name: "fetch", Fn: noopAction,
			Entities: []EntityRequirement{{Type: "robot", Count: 1}},
		}).
		Build()
	if err != nil {
		t.Fatal(err)
	}

	reg := dom.Entities()
	caps, ok := reg.CapabilitiesOf("robot")
	if !ok || len(caps) != 2 {
		t.Errorf("CapabilitiesOf(robot) = %v, %v", caps, ok)
	}
	ids := reg.EntitiesOfType("robot")
	if len(ids) != 2 || ids[0] != "r1" || ids[1] != "r2" {
		t.Errorf("EntitiesOfType(robot) = %v", ids)
	}
	if typ, ok := reg.TypeOf("r1"); !ok || typ != "robot" {
		t.Errorf("TypeOf(r1) = %v, %v", typ, ok)
	}
}

func TestDomainSnapshotIsolation(t *testing.T) {
	b := NewBuilder().
		Action(ActionSpec{Name: "x", Fn: noopAction}).
		TaskMethod("t", "t/first", noopTaskMethod)
	dom, err := b.Build()
	if err != nil {
		t.Fatal(err)
	}

	// Registering after Build must not change the frozen domain.
	b.TaskMethod("t", "t/second", noopTaskMethod)
	if got := dom.MethodsForTask("t"); len(got) != 1 {
		t.Errorf("built domain changed after further registration: %d methods", len(got))
	}
}
