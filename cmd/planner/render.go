package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/renderer"
	"github.com/olekukonko/tablewriter/tw"

	"github.com/wbrown/janus-planner/planner"
	"github.com/wbrown/janus-planner/planner/search"
	"github.com/wbrown/janus-planner/planner/temporal"
)

// printState renders the state's triples as a table.
func printState(s *planner.State) {
	table := newTable()
	table.Header([]string{"predicate", "subject", "value"})
	for _, f := range s.Triples() {
		table.Append([]string{f.Predicate, f.Subject, fmt.Sprintf("%v", f.Value)})
	}
	table.Render()
}

// printPlan renders the plan's DFS linearisation as a table and, when the
// network holds timepoints, the earliest and latest tick of the last one
// allocated (the end of the last durative action).
func printPlan(res *search.Result) {
	leaves := res.Tree.PrimitivesDFS()
	if len(leaves) == 0 {
		fmt.Println(color.GreenString("Empty plan: nothing to do."))
		return
	}
	if err := res.Network.Solve(); err != nil {
		fmt.Printf("warning: temporal network unsolvable: %v\n", err)
	}

	table := newTable()
	table.Header([]string{"#", "action", "args"})
	for i, leaf := range leaves {
		args := make([]string, len(leaf.Args))
		for j, a := range leaf.Args {
			args[j] = fmt.Sprintf("%v", a)
		}
		table.Append([]string{
			fmt.Sprintf("%d", i+1),
			leaf.Name,
			strings.Join(args, " "),
		})
	}
	table.Render()
	fmt.Printf("%s %d actions\n", color.CyanString("==="), len(leaves))

	if res.Network.Size() > 1 {
		fmt.Printf("schedule end window: earliest %s, latest %s\n",
			earliestEnd(res), latestEnd(res))
	}
}

func earliestEnd(res *search.Result) temporal.Tick {
	last := temporal.Timepoint(res.Network.Size() - 1)
	return res.Network.Earliest(last)
}

func latestEnd(res *search.Result) temporal.Tick {
	last := temporal.Timepoint(res.Network.Size() - 1)
	return res.Network.Latest(last)
}

func newTable() *tablewriter.Table {
	alignment := []tw.Align{tw.AlignNone, tw.AlignNone, tw.AlignNone}
	return tablewriter.NewTable(os.Stdout,
		tablewriter.WithRenderer(renderer.NewMarkdown()),
		tablewriter.WithAlignment(alignment),
		tablewriter.WithHeaderAutoFormat(tw.Off),
	)
}
