package planner

import (
	"fmt"
	"strings"
)

// Todo is an item the search decomposes: a primitive action, an abstract
// task, a single-triple goal, or a set of goals treated as one unit.
// The variant set is closed.
type Todo interface {
	todoItem()
	String() string
}

// Action names a primitive from the domain's action catalogue.
type Action struct {
	Name string
	Args []Value
}

// Task names an abstract task resolved against the task-method catalogue.
type Task struct {
	Name string
	Args []Value
}

// Unigoal is a single desired triple (predicate, subject, value).
type Unigoal struct {
	Predicate string
	Subject   string
	Value     Value
}

// Multigoal is a set of unigoals to achieve jointly.
type Multigoal struct {
	Goals []Unigoal
}

func (Action) todoItem()    {}
func (Task) todoItem()      {}
func (Unigoal) todoItem()   {}
func (Multigoal) todoItem() {}

func (a Action) String() string {
	return fmt.Sprintf("action %s%s", a.Name, formatArgs(a.Args))
}

func (t Task) String() string {
	return fmt.Sprintf("task %s%s", t.Name, formatArgs(t.Args))
}

func (g Unigoal) String() string {
	return fmt.Sprintf("goal (%s %s %v)", g.Predicate, g.Subject, g.Value)
}

func (m Multigoal) String() string {
	parts := make([]string, len(m.Goals))
	for i, g := range m.Goals {
		parts[i] = fmt.Sprintf("(%s %s %v)", g.Predicate, g.Subject, g.Value)
	}
	return "multigoal {" + strings.Join(parts, " ") + "}"
}

func formatArgs(args []Value) string {
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = fmt.Sprintf("%v", a)
	}
	return "(" + strings.Join(parts, " ") + ")"
}

// Satisfied reports whether the state already holds the goal triple.
func (g Unigoal) Satisfied(s *State) bool {
	return s.Matches(g.Predicate, g.Subject, g.Value)
}

// Satisfied reports whether every goal in the multigoal holds in the state.
func (m Multigoal) Satisfied(s *State) bool {
	for _, g := range m.Goals {
		if !g.Satisfied(s) {
			return false
		}
	}
	return true
}

// Unsatisfied returns the goals not yet holding in the state, in
// declaration order.
func (m Multigoal) Unsatisfied(s *State) []Unigoal {
	var out []Unigoal
	for _, g := range m.Goals {
		if !g.Satisfied(s) {
			out = append(out, g)
		}
	}
	return out
}

// Goal returns the multigoal's entry for (predicate, subject), if any.
func (m Multigoal) Goal(predicate, subject string) (Value, bool) {
	for _, g := range m.Goals {
		if g.Predicate == predicate && g.Subject == subject {
			return g.Value, true
		}
	}
	return nil, false
}
