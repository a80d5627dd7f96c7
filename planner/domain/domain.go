// Package domain holds the planner's declarative catalogues: primitive
// actions, task methods, goal methods, multigoal methods, and the entity
// registry. A Domain is built once through a Builder and is read-only at
// planning time; method iteration order is declaration order.
package domain

import (
	"fmt"

	"github.com/wbrown/janus-planner/planner"
	"github.com/wbrown/janus-planner/planner/temporal"
)

// ActionFunc applies a primitive action to a state. It must be pure with
// respect to the core: no ambient I/O, no reads outside the state. On
// success it returns the successor state; the input state is not
// mutated.
type ActionFunc func(s *planner.State, args []planner.Value) (*planner.State, error)

// TaskMethodFunc maps a task to a list of subordinate todos, or fails.
// It must not mutate the state.
type TaskMethodFunc func(s *planner.State, args []planner.Value) ([]planner.Todo, error)

// UnigoalMethodFunc maps a goal triple's (subject, value) to a list of
// subordinate todos, or fails. It must not mutate the state.
type UnigoalMethodFunc func(s *planner.State, subject string, value planner.Value) ([]planner.Todo, error)

// MultigoalMethodFunc maps a multigoal to a list of subordinate todos,
// typically the next goal to attempt followed by the multigoal itself.
type MultigoalMethodFunc func(s *planner.State, goal planner.Multigoal) ([]planner.Todo, error)

// Anchor names an endpoint a temporal constraint relates.
type Anchor int

const (
	// AnchorOrigin is the network's zero point.
	AnchorOrigin Anchor = iota
	// AnchorStart is the action's start timepoint.
	AnchorStart
	// AnchorEnd is the action's end timepoint.
	AnchorEnd
)

// Constraint is a per-action temporal constraint, posted relative to the
// action's own timepoints when it is expanded: To - From ∈ W. A deadline
// of an hour is {AnchorOrigin, AnchorEnd, AtMost(3600)}.
type Constraint struct {
	From Anchor
	To   Anchor
	W    temporal.Window
}

// ActionSpec bundles a primitive action's function with its metadata.
type ActionSpec struct {
	Name        string
	Fn          ActionFunc
	Duration    DurationSpec
	Entities    []EntityRequirement
	Constraints []Constraint
	Metadata    map[string]string
}

// TaskMethod is one entry of a task's ordered method list.
type TaskMethod struct {
	ID string
	Fn TaskMethodFunc
}

// UnigoalMethod is one entry of a predicate's ordered method list.
type UnigoalMethod struct {
	ID string
	Fn UnigoalMethodFunc
}

// MultigoalMethod is one entry of the ordered multigoal method list.
type MultigoalMethod struct {
	ID string
	Fn MultigoalMethodFunc
}

// Domain is the read-only catalogue bundle the planner consults.
type Domain struct {
	actions          map[string]*ActionSpec
	taskMethods      map[string][]TaskMethod
	unigoalMethods   map[string][]UnigoalMethod
	multigoalMethods []MultigoalMethod
	entities         *EntityRegistry
}

// GetAction looks up an action spec by name.
func (d *Domain) GetAction(name string) (*ActionSpec, bool) {
	a, ok := d.actions[name]
	return a, ok
}

// MethodsForTask returns a task's methods in declaration order.
func (d *Domain) MethodsForTask(name string) []TaskMethod {
	return d.taskMethods[name]
}

// MethodsForGoal returns a predicate's unigoal methods in declaration
// order.
func (d *Domain) MethodsForGoal(predicate string) []UnigoalMethod {
	return d.unigoalMethods[predicate]
}

// MultigoalMethods returns the multigoal methods in declaration order.
func (d *Domain) MultigoalMethods() []MultigoalMethod {
	return d.multigoalMethods
}

// DurationOf returns an action's duration spec.
func (d *Domain) DurationOf(name string) (DurationSpec, bool) {
	a, ok := d.actions[name]
	if !ok {
		return DurationSpec{}, false
	}
	return a.Duration, true
}

// ConstraintsOf returns an action's temporal constraint list.
func (d *Domain) ConstraintsOf(name string) []Constraint {
	a, ok := d.actions[name]
	if !ok {
		return nil
	}
	return a.Constraints
}

// Entities returns the entity registry.
func (d *Domain) Entities() *EntityRegistry {
	return d.entities
}

// Builder accumulates catalogue declarations and freezes them into a
// Domain. Registration requires explicit names; nothing is inferred
// from function values.
type Builder struct {
	actions          []*ActionSpec
	taskNames        []string
	taskMethods      map[string][]TaskMethod
	unigoalPreds     []string
	unigoalMethods   map[string][]UnigoalMethod
	multigoalMethods []MultigoalMethod
	entities         *EntityRegistry
	errs             []error
}

// NewBuilder creates an empty domain builder.
func NewBuilder() *Builder {
	return &Builder{
		taskMethods:    make(map[string][]TaskMethod),
		unigoalMethods: make(map[string][]UnigoalMethod),
		entities:       NewEntityRegistry(),
	}
}

// Action registers a primitive action spec.
func (b *Builder) Action(spec ActionSpec) *Builder {
	b.actions = append(b.actions, &spec)
	return b
}

// TaskMethod appends a method to a task's ordered method list.
func (b *Builder) TaskMethod(task, id string, fn TaskMethodFunc) *Builder {
	if _, ok := b.taskMethods[task]; !ok {
		b.taskNames = append(b.taskNames, task)
	}
	b.taskMethods[task] = append(b.taskMethods[task], TaskMethod{ID: id, Fn: fn})
	return b
}

// UnigoalMethod appends a method to a predicate's ordered method list.
func (b *Builder) UnigoalMethod(predicate, id string, fn UnigoalMethodFunc) *Builder {
	if _, ok := b.unigoalMethods[predicate]; !ok {
		b.unigoalPreds = append(b.unigoalPreds, predicate)
	}
	b.unigoalMethods[predicate] = append(b.unigoalMethods[predicate], UnigoalMethod{ID: id, Fn: fn})
	return b
}

// MultigoalMethod appends a method to the ordered multigoal method list.
func (b *Builder) MultigoalMethod(id string, fn MultigoalMethodFunc) *Builder {
	b.multigoalMethods = append(b.multigoalMethods, MultigoalMethod{ID: id, Fn: fn})
	return b
}

// EntityType declares an entity type and its capabilities.
func (b *Builder) EntityType(typ string, capabilities ...string) *Builder {
	b.entities.RegisterType(typ, capabilities)
	return b
}

// Entity declares a concrete entity of a previously declared type.
func (b *Builder) Entity(id, typ string) *Builder {
	if err := b.entities.AddEntity(id, typ); err != nil {
		b.errs = append(b.errs, err)
	}
	return b
}

// Build validates the declarations and freezes them into a Domain.
func (b *Builder) Build() (*Domain, error) {
	if len(b.errs) > 0 {
		return nil, b.errs[0]
	}
	d := &Domain{
		actions:          make(map[string]*ActionSpec, len(b.actions)),
		taskMethods:      make(map[string][]TaskMethod, len(b.taskMethods)),
		unigoalMethods:   make(map[string][]UnigoalMethod, len(b.unigoalMethods)),
		multigoalMethods: append([]MultigoalMethod(nil), b.multigoalMethods...),
		entities:         b.entities.clone(),
	}
	for _, spec := range b.actions {
		if spec.Name == "" {
			return nil, fmt.Errorf("action with empty name")
		}
		if spec.Fn == nil {
			return nil, fmt.Errorf("action %q has no function", spec.Name)
		}
		if err := spec.Duration.Validate(); err != nil {
			return nil, fmt.Errorf("action %q: %w", spec.Name, err)
		}
		for _, req := range spec.Entities {
			if req.Count <= 0 {
				return nil, fmt.Errorf("action %q: entity requirement for %q has count %d", spec.Name, req.Type, req.Count)
			}
			if _, ok := b.entities.CapabilitiesOf(req.Type); !ok {
				return nil, fmt.Errorf("action %q: unregistered entity type %q", spec.Name, req.Type)
			}
		}
		for _, c := range spec.Constraints {
			if c.W.Empty() {
				return nil, fmt.Errorf("action %q: empty constraint window %s", spec.Name, c.W)
			}
		}
		if _, dup := d.actions[spec.Name]; dup {
			return nil, fmt.Errorf("action %q registered twice", spec.Name)
		}
		copied := *spec
		d.actions[spec.Name] = &copied
	}
	for _, task := range b.taskNames {
		methods := b.taskMethods[task]
		for _, m := range methods {
			if m.ID == "" || m.Fn == nil {
				return nil, fmt.Errorf("task %q has a malformed method", task)
			}
		}
		d.taskMethods[task] = append([]TaskMethod(nil), methods...)
	}
	for _, pred := range b.unigoalPreds {
		methods := b.unigoalMethods[pred]
		for _, m := range methods {
			if m.ID == "" || m.Fn == nil {
				return nil, fmt.Errorf("goal predicate %q has a malformed method", pred)
			}
		}
		d.unigoalMethods[pred] = append([]UnigoalMethod(nil), methods...)
	}
	for _, m := range d.multigoalMethods {
		if m.ID == "" || m.Fn == nil {
			return nil, fmt.Errorf("malformed multigoal method")
		}
	}
	return d, nil
}

// MustBuild is Build for domains known good at construction time.
func (b *Builder) MustBuild() *Domain {
	d, err := b.Build()
	if err != nil {
		panic(err)
	}
	return d
}
