package temporal

import (
	"fmt"
)

// Interval names a pair of network timepoints spanning a durative
// action's extent. Intervals live and die with the plan that created
// them: discarding a candidate branch discards its intervals.
type Interval struct {
	ID    string
	Start Timepoint
	End   Timepoint
	Label string
}

// String renders the interval.
func (iv Interval) String() string {
	return fmt.Sprintf("%s[t%d, t%d]", iv.Label, iv.Start, iv.End)
}
