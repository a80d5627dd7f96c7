// Package annotations provides a clean, low-overhead annotation system
// for tracking planner decisions and debugging information.
package annotations

import (
	"sync"
	"time"
)

// Event name constants following hierarchical naming pattern
const (
	// Planning lifecycle
	PlanInvoked   = "plan/invoked"
	PlanCompleted = "plan/completed"
	PlanFailed    = "plan/failed"
	PlanBacktrack = "plan/backtrack"

	// Method iteration
	MethodTried     = "method/tried"
	MethodSucceeded = "method/succeeded"
	MethodFailed    = "method/failed"
	MethodBlacklist = "method/blacklisted"

	// Goal verification
	GoalSatisfied          = "goal/already-satisfied"
	GoalVerified           = "goal/verified"
	GoalVerificationFailed = "goal/verification-failed"

	// Temporal network
	STNTimepoints   = "stn/timepoints"
	STNTightened    = "stn/tightened"
	STNInconsistent = "stn/inconsistent"

	// Actions
	ActionExpanded = "action/expanded"
	ActionApplied  = "action/applied"
	ActionFailed   = "action/failed"

	// Execution
	ExecuteBegin     = "execute/begin"
	ExecuteReplan    = "execute/replan"
	ExecuteCompleted = "execute/completed"
)

// Event represents a single annotation event during planning or
// execution.
type Event struct {
	Name    string                 // Event name using hierarchical constants above
	Start   time.Time              // Start timestamp
	End     time.Time              // End timestamp
	Latency time.Duration          // Duration (End - Start)
	Data    map[string]interface{} // Additional event-specific data
}

// Handler processes annotation events as they occur.
type Handler func(event Event)

// Collector accumulates events during a planning call.
type Collector struct {
	enabled bool
	handler Handler
	events  []Event

	// Pre-allocated buffers to minimize allocations
	dataPool []map[string]interface{}
	poolIdx  int
	mu       sync.Mutex // Protects dataPool and poolIdx for concurrent access
}

// NewCollector creates a new annotation collector. A nil handler
// disables collection entirely; every emit becomes a no-op.
func NewCollector(handler Handler) *Collector {
	const poolSize = 32
	c := &Collector{
		enabled:  handler != nil,
		handler:  handler,
		events:   make([]Event, 0, 128),
		dataPool: make([]map[string]interface{}, poolSize),
	}

	for i := range c.dataPool {
		c.dataPool[i] = make(map[string]interface{}, 8)
	}

	return c
}

// Enabled reports whether the collector records anything.
func (c *Collector) Enabled() bool {
	return c != nil && c.enabled
}

// Data returns a pooled map for event payloads.
func (c *Collector) Data() map[string]interface{} {
	if !c.Enabled() {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.poolIdx < len(c.dataPool) {
		m := c.dataPool[c.poolIdx]
		c.poolIdx++
		for k := range m {
			delete(m, k)
		}
		return m
	}
	return make(map[string]interface{}, 8)
}

// Emit records an instantaneous event.
func (c *Collector) Emit(name string, data map[string]interface{}) {
	if !c.Enabled() {
		return
	}
	now := time.Now()
	event := Event{Name: name, Start: now, End: now, Data: data}
	c.events = append(c.events, event)
	c.handler(event)
}

// Span starts a timed event; the returned func completes and records it.
func (c *Collector) Span(name string, data map[string]interface{}) func() {
	if !c.Enabled() {
		return func() {}
	}
	start := time.Now()
	return func() {
		end := time.Now()
		event := Event{Name: name, Start: start, End: end, Latency: end.Sub(start), Data: data}
		c.events = append(c.events, event)
		c.handler(event)
	}
}

// Events returns everything recorded so far.
func (c *Collector) Events() []Event {
	if c == nil {
		return nil
	}
	return c.events
}
