package planner

import (
	"time"
)

// Value represents any value that can be stored in a fact.
// Like the datom V position, we use interface{} with direct Go types.
type Value interface{}

// Valid value types:
// - string
// - int64
// - float64
// - bool
// - time.Time
// - nil (present-with-nil is distinct from absent)

// Helper functions for creating typed values
func String(s string) Value  { return s }
func Int(i int64) Value      { return i }
func Float(f float64) Value  { return f }
func Bool(b bool) Value      { return b }
func Time(t time.Time) Value { return t }
