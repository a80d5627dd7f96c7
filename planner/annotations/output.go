package annotations

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
)

// OutputFormatter formats events for human-readable display.
type OutputFormatter struct {
	useColor bool
	writer   io.Writer
}

// NewOutputFormatter creates a formatter with color support detection.
func NewOutputFormatter(w io.Writer) *OutputFormatter {
	if w == nil {
		w = os.Stdout
	}

	// Auto-detect color support
	useColor := false
	if f, ok := w.(*os.File); ok {
		useColor = isTerminal(f.Fd())
	}

	return &OutputFormatter{
		useColor: useColor,
		writer:   w,
	}
}

func isTerminal(fd uintptr) bool {
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// Handle has the Handler signature - prints events as they occur
func (f *OutputFormatter) Handle(event Event) {
	output := f.Format(event)
	if output != "" {
		fmt.Fprintln(f.writer, output)
	}
}

// Format converts an event to a human-readable string.
func (f *OutputFormatter) Format(event Event) string {
	latency := f.formatLatency(event.Latency)

	switch event.Name {
	case PlanInvoked:
		return fmt.Sprintf("%s Planning %v todos", latency, event.Data["todos"])

	case PlanCompleted:
		return fmt.Sprintf("%s %s Plan complete: %v actions, %v nodes, %v backtracks",
			latency,
			f.colorize("===", color.FgGreen),
			event.Data["actions"], event.Data["nodes"], event.Data["backtracks"])

	case PlanFailed:
		return fmt.Sprintf("%s %s Planning failed: %v",
			latency,
			f.colorize("✗", color.FgRed),
			event.Data["error"])

	case PlanBacktrack:
		return fmt.Sprintf("%s %s backtrack at %v",
			latency,
			f.colorize("<<<", color.FgYellow),
			event.Data["todo"])

	case MethodTried:
		return fmt.Sprintf("%s trying %v for %v (depth %v)",
			latency, event.Data["method"], event.Data["todo"], event.Data["depth"])

	case MethodSucceeded:
		return fmt.Sprintf("%s %s %v succeeded for %v",
			latency,
			f.colorize("ok", color.FgGreen),
			event.Data["method"], event.Data["todo"])

	case MethodFailed:
		return fmt.Sprintf("%s %s %v failed for %v: %v",
			latency,
			f.colorize("--", color.FgYellow),
			event.Data["method"], event.Data["todo"], event.Data["error"])

	case MethodBlacklist:
		return fmt.Sprintf("%s skipping blacklisted %v for %v",
			latency, event.Data["method"], event.Data["todo"])

	case GoalSatisfied:
		return fmt.Sprintf("%s %v already satisfied", latency, event.Data["goal"])

	case GoalVerified:
		return fmt.Sprintf("%s %s verified %v",
			latency, f.colorize("ok", color.FgGreen), event.Data["goal"])

	case GoalVerificationFailed:
		return fmt.Sprintf("%s %s verification failed for %v",
			latency, f.colorize("✗", color.FgRed), event.Data["goal"])

	case STNTimepoints:
		return fmt.Sprintf("%s timepoints %v for %v",
			latency, event.Data["timepoints"], event.Data["action"])

	case STNTightened:
		return fmt.Sprintf("%s stn %v - %v tightened to %v",
			latency, event.Data["to"], event.Data["from"], event.Data["window"])

	case STNInconsistent:
		return fmt.Sprintf("%s %s stn inconsistent: %v",
			latency, f.colorize("✗", color.FgRed), event.Data["error"])

	case ActionExpanded:
		return fmt.Sprintf("%s expanded %v", latency, event.Data["action"])

	case ActionApplied:
		return fmt.Sprintf("%s %s applied %v",
			latency, f.colorize(">>", color.FgCyan), event.Data["action"])

	case ActionFailed:
		return fmt.Sprintf("%s %s %v failed: %v",
			latency, f.colorize("✗", color.FgRed), event.Data["action"], event.Data["error"])

	case ExecuteBegin:
		return fmt.Sprintf("%s Executing %v actions", latency, event.Data["actions"])

	case ExecuteReplan:
		return fmt.Sprintf("%s %s re-planning after %v (%v/%v budget)",
			latency,
			f.colorize("!!", color.FgYellow),
			event.Data["action"], event.Data["replans"], event.Data["budget"])

	case ExecuteCompleted:
		return fmt.Sprintf("%s %s Execution complete: %v actions applied",
			latency, f.colorize("===", color.FgGreen), event.Data["actions"])
	}

	return fmt.Sprintf("%s %s %v", latency, event.Name, event.Data)
}

// formatLatency renders the latency column; instantaneous events show
// a blank gutter.
func (f *OutputFormatter) formatLatency(d time.Duration) string {
	if d == 0 {
		return "         "
	}
	return fmt.Sprintf("%8.3fms", float64(d.Microseconds())/1000.0)
}

func (f *OutputFormatter) colorize(s string, attr color.Attribute) string {
	if !f.useColor {
		return s
	}
	return color.New(attr).Sprint(s)
}
