package search

import (
	"errors"
	"fmt"

	"github.com/wbrown/janus-planner/planner"
	"github.com/wbrown/janus-planner/planner/annotations"
	"github.com/wbrown/janus-planner/planner/domain"
	"github.com/wbrown/janus-planner/planner/temporal"
)

// expandTemporal allocates start/end timepoints for a durative action,
// posts its duration window and per-action constraints, and sequences it
// after the previously expanded durative action so the DFS linearisation
// stays realisable. An inconsistent network fails the branch; the
// enclosing method iteration restores the pre-method snapshot.
func (s *search) expandTemporal(state *planner.State, spec *domain.ActionSpec, instance string) (start, end temporal.Timepoint, durative bool, err error) {
	dur := spec.Duration
	if dur.Kind == domain.ConditionalDuration {
		dur = dur.Resolve(state, s.allocationView())
		if verr := dur.Validate(); verr != nil {
			return 0, 0, false, fmt.Errorf("action %q: resolved duration: %w", spec.Name, verr)
		}
		if dur.Kind == domain.ConditionalDuration {
			return 0, 0, false, fmt.Errorf("action %q: conditional duration resolved to another conditional", spec.Name)
		}
	}
	if dur.Kind == domain.NoDuration {
		if len(spec.Constraints) > 0 {
			return 0, 0, false, fmt.Errorf("action %q: temporal constraints on an instantaneous action", spec.Name)
		}
		return 0, 0, false, nil
	}

	start = s.stn.AddTimepoint()
	end = s.stn.AddTimepoint()
	s.emit(3, annotations.STNTimepoints, map[string]interface{}{
		"action":     instance,
		"timepoints": []int{int(start), int(end)},
	})

	w, werr := dur.Window()
	if werr != nil {
		return 0, 0, false, werr
	}
	if err := s.post(start, end, w); err != nil {
		return 0, 0, false, err
	}

	// Actions cannot start before the origin.
	if err := s.post(temporal.Zero, start, temporal.AtLeast(0)); err != nil {
		return 0, 0, false, err
	}

	// Keep the network's admissible orderings compatible with the DFS
	// linearisation: this action starts no earlier than the previous
	// durative action ends.
	if s.hasLast {
		if err := s.post(s.lastEnd, start, temporal.AtLeast(0)); err != nil {
			return 0, 0, false, err
		}
	}

	s.intervals = append(s.intervals, temporal.Interval{
		ID:    instance,
		Start: start,
		End:   end,
		Label: spec.Name,
	})

	for _, c := range spec.Constraints {
		from, ferr := anchorTimepoint(c.From, start, end)
		if ferr != nil {
			return 0, 0, false, fmt.Errorf("action %q: %w", spec.Name, ferr)
		}
		to, terr := anchorTimepoint(c.To, start, end)
		if terr != nil {
			return 0, 0, false, fmt.Errorf("action %q: %w", spec.Name, terr)
		}
		if err := s.post(from, to, c.W); err != nil {
			return 0, 0, false, err
		}
	}
	return start, end, true, nil
}

// post adds one constraint to the network, emitting temporal diagnostics.
func (s *search) post(from, to temporal.Timepoint, w temporal.Window) error {
	if err := s.stn.AddConstraint(from, to, w); err != nil {
		var inc *temporal.InconsistencyError
		if errors.As(err, &inc) {
			s.emit(3, annotations.STNInconsistent, map[string]interface{}{"error": err.Error()})
		}
		return err
	}
	s.emit(3, annotations.STNTightened, map[string]interface{}{
		"from":   int(from),
		"to":     int(to),
		"window": s.stn.Window(from, to).String(),
	})
	return nil
}

func anchorTimepoint(a domain.Anchor, start, end temporal.Timepoint) (temporal.Timepoint, error) {
	switch a {
	case domain.AnchorOrigin:
		return temporal.Zero, nil
	case domain.AnchorStart:
		return start, nil
	case domain.AnchorEnd:
		return end, nil
	}
	return 0, fmt.Errorf("unknown constraint anchor %d", int(a))
}

// allocationView exposes the current entity → action-instance map to
// conditional duration resolvers, without handing out internal state.
func (s *search) allocationView() map[string]string {
	out := make(map[string]string, len(s.alloc))
	for ent, h := range s.alloc {
		out[ent] = h.instance
	}
	return out
}

// allocateEntities claims the entities an action requires, one holder per
// entity at a time. A previously held entity may be reused only when the
// network admits the earlier holder finishing before this action starts;
// contention forces backtracking, never blocking. Instantaneous actions
// follow the DFS order, so reuse is always admissible for them.
func (s *search) allocateEntities(spec *domain.ActionSpec, instance string, start, end temporal.Timepoint, durative bool) error {
	reg := s.dom.Entities()
	for _, req := range spec.Entities {
		candidates := reg.EntitiesOfType(req.Type)
		taken := 0
		for _, ent := range candidates {
			if taken == req.Count {
				break
			}
			h, held := s.alloc[ent]
			if held && h.durative && durative {
				// Reuse requires the previous hold to release first.
				if err := s.post(h.end, start, temporal.AtLeast(0)); err != nil {
					continue
				}
			}
			s.alloc[ent] = holder{instance: instance, end: end, durative: durative}
			taken++
		}
		if taken < req.Count {
			return &planner.ActionFailedError{
				Action: spec.Name,
				Err:    fmt.Errorf("needs %d entities of type %q, only %d available", req.Count, req.Type, taken),
			}
		}
	}
	return nil
}
