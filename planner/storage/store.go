// Package storage persists named state snapshots and plans outside the
// planner core. The core never touches disk; this package is the defined
// interface for that collaborator, used by the CLI and by callers that
// want to keep world states or finished plans between runs.
package storage

import (
	"github.com/wbrown/janus-planner/planner"
)

// PlanStep is one primitive of a persisted plan. Plans are stored as
// their canonical DFS linearisation; the tree shape and the method
// functions that produced it are not persisted.
type PlanStep struct {
	Name string
	Args []planner.Value
}

// SnapshotStore is the interface for snapshot persistence.
type SnapshotStore interface {
	// State snapshots
	SaveState(name string, s *planner.State) error
	LoadState(name string) (*planner.State, error)
	ListStates() ([]string, error)
	DeleteState(name string) error

	// Plan linearisations
	SavePlan(name string, steps []PlanStep) error
	LoadPlan(name string) ([]PlanStep, error)
	ListPlans() ([]string, error)
	DeletePlan(name string) error

	// Lifecycle
	Close() error
}
