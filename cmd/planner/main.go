package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/wbrown/janus-planner/examples/blocks"
	"github.com/wbrown/janus-planner/planner"
	"github.com/wbrown/janus-planner/planner/annotations"
	"github.com/wbrown/janus-planner/planner/executor"
	"github.com/wbrown/janus-planner/planner/search"
	"github.com/wbrown/janus-planner/planner/storage"
)

func main() {
	var dbPath string
	var scenarioPath string
	var interactive bool
	var help bool
	var verbose int
	var maxDepth int
	var execute bool

	flag.StringVar(&dbPath, "db", "", "snapshot database path (optional)")
	flag.StringVar(&scenarioPath, "scenario", "", "scenario file (yaml)")
	flag.BoolVar(&interactive, "i", false, "interactive mode")
	flag.BoolVar(&help, "h", false, "show help")
	flag.IntVar(&verbose, "verbose", 0, "verbosity 0..3 (planner diagnostics on stderr)")
	flag.IntVar(&maxDepth, "max-depth", 20, "maximum decomposition depth")
	flag.BoolVar(&execute, "run", false, "execute the plan and print the final state")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [options] [scenario.yaml]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "A hierarchical task network planner with temporal constraints.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s                        # Run the blocks-world demo\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s sussman.yaml           # Plan a scenario file\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s -run sussman.yaml      # Plan and execute it\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s -i                     # Interactive mode\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s -verbose 2             # Show planner decisions\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s -db plans.db           # Persist snapshots\n", os.Args[0])
	}
	flag.Parse()

	if help {
		flag.Usage()
		os.Exit(0)
	}
	if scenarioPath == "" && flag.NArg() > 0 {
		scenarioPath = flag.Arg(0)
	}

	var handler annotations.Handler
	if verbose > 0 {
		formatter := annotations.NewOutputFormatter(os.Stderr)
		handler = formatter.Handle
	}
	opts := executor.Options{
		Search: search.Options{
			MaxDepth: maxDepth,
			Verbose:  verbose,
			Handler:  handler,
		},
		ReplanBudget: 5,
	}

	var store storage.SnapshotStore
	if dbPath != "" {
		var err error
		store, err = storage.NewBadgerStore(dbPath)
		if err != nil {
			log.Fatalf("Failed to open snapshot store: %v", err)
		}
		defer store.Close()
	}

	switch {
	case interactive:
		runInteractive(opts, store)
	case scenarioPath != "":
		runScenario(scenarioPath, opts, store, execute)
	default:
		runDemo(opts)
	}
}

func runDemo(opts executor.Options) {
	fmt.Println("=== Janus Planner Demo: the Sussman anomaly ===")

	dom := blocks.Build()
	state := blocks.SussmanState()
	goal := planner.Multigoal{Goals: []planner.Unigoal{
		{Predicate: "pos", Subject: "a", Value: "b"},
		{Predicate: "pos", Subject: "b", Value: "c"},
	}}

	fmt.Println("\nInitial state:")
	printState(state)

	res, err := search.Plan(dom, state, []planner.Todo{goal}, opts.Search)
	if err != nil {
		log.Fatalf("Planning failed: %v", err)
	}

	fmt.Println("\nPlan:")
	printPlan(res)
	fmt.Printf("\n%d methods tried, %d backtracks, %d timepoints, %v\n",
		res.Metadata.MethodsTried, res.Metadata.Backtracks,
		res.Metadata.Timepoints, res.Metadata.Elapsed)

	exec, err := executor.RunTree(context.Background(), dom, state, res.Tree, opts)
	if err != nil {
		log.Fatalf("Execution failed: %v", err)
	}
	fmt.Println("\nFinal state:")
	printState(exec.Final)
}

func runScenario(path string, opts executor.Options, store storage.SnapshotStore, execute bool) {
	sc, err := loadScenario(path)
	if err != nil {
		log.Fatalf("Failed to load scenario: %v", err)
	}
	dom := blocks.Build()
	state := sc.initial
	if sc.MaxDepth > 0 {
		opts.Search.MaxDepth = sc.MaxDepth
	}

	res, err := search.Plan(dom, state, sc.todos, opts.Search)
	if err != nil {
		log.Fatalf("Planning failed: %v", err)
	}
	printPlan(res)

	if store != nil {
		steps := make([]storage.PlanStep, 0)
		for _, leaf := range res.Tree.PrimitivesDFS() {
			steps = append(steps, storage.PlanStep{Name: leaf.Name, Args: leaf.Args})
		}
		if err := store.SavePlan(sc.Name, steps); err != nil {
			log.Fatalf("Failed to persist plan: %v", err)
		}
		fmt.Printf("Saved plan %q (%d steps)\n", sc.Name, len(steps))
	}

	if execute {
		exec, err := executor.RunTree(context.Background(), dom, state, res.Tree, opts)
		if err != nil {
			log.Fatalf("Execution failed: %v", err)
		}
		fmt.Println("\nFinal state:")
		printState(exec.Final)
		if store != nil {
			if err := store.SaveState(sc.Name, exec.Final); err != nil {
				log.Fatalf("Failed to persist final state: %v", err)
			}
			fmt.Printf("Saved state %q\n", sc.Name)
		}
	}
}

func runInteractive(opts executor.Options, store storage.SnapshotStore) {
	fmt.Println("Janus Planner interactive mode. Commands:")
	fmt.Println("  state                      show the current state")
	fmt.Println("  goal <pred> <subj> <val>   add a goal")
	fmt.Println("  plan                       plan the accumulated goals")
	fmt.Println("  run                        plan, execute, adopt the final state")
	fmt.Println("  reset                      restore the initial blocks state")
	fmt.Println("  save <name> / load <name>  snapshot the state (needs -db)")
	fmt.Println("  quit")

	dom := blocks.Build()
	state := blocks.InitialState()
	var goals []planner.Unigoal

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("planner> ")
		if !scanner.Scan() {
			break
		}
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		switch fields[0] {
		case "quit", "exit":
			return
		case "state":
			printState(state)
		case "reset":
			state = blocks.InitialState()
			goals = nil
		case "goal":
			if len(fields) != 4 {
				fmt.Println("usage: goal <pred> <subj> <val>")
				continue
			}
			goals = append(goals, planner.Unigoal{Predicate: fields[1], Subject: fields[2], Value: parseScalar(fields[3])})
			fmt.Printf("%d goals pending\n", len(goals))
		case "plan", "run":
			if len(goals) == 0 {
				fmt.Println("no goals; use: goal <pred> <subj> <val>")
				continue
			}
			todo := []planner.Todo{planner.Multigoal{Goals: goals}}
			res, err := search.Plan(dom, state, todo, opts.Search)
			if err != nil {
				fmt.Printf("planning failed: %v\n", err)
				continue
			}
			printPlan(res)
			if fields[0] == "run" {
				exec, err := executor.RunTree(context.Background(), dom, state, res.Tree, opts)
				if err != nil {
					fmt.Printf("execution failed: %v\n", err)
					continue
				}
				state = exec.Final
				goals = nil
				fmt.Println("final state adopted")
			}
		case "save", "load":
			if store == nil {
				fmt.Println("no snapshot store; start with -db <path>")
				continue
			}
			if len(fields) != 2 {
				fmt.Printf("usage: %s <name>\n", fields[0])
				continue
			}
			if fields[0] == "save" {
				if err := store.SaveState(fields[1], state); err != nil {
					fmt.Printf("save failed: %v\n", err)
				}
			} else {
				loaded, err := store.LoadState(fields[1])
				if err != nil {
					fmt.Printf("load failed: %v\n", err)
					continue
				}
				state = loaded
			}
		default:
			fmt.Printf("unknown command %q\n", fields[0])
		}
	}
}

// scenario is the yaml input format: triples, todos, and limits.
type scenario struct {
	Name     string          `yaml:"name"`
	State    [][]interface{} `yaml:"state"`
	Goals    [][]interface{} `yaml:"goals"`
	Tasks    [][]interface{} `yaml:"tasks"`
	MaxDepth int             `yaml:"max_depth"`

	initial *planner.State
	todos   []planner.Todo
}

func loadScenario(path string) (*scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var sc scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, err
	}
	if sc.Name == "" {
		sc.Name = strings.TrimSuffix(strings.TrimSuffix(path, ".yaml"), ".yml")
	}

	facts := make([]planner.Fact, 0, len(sc.State))
	for i, row := range sc.State {
		if len(row) != 3 {
			return nil, fmt.Errorf("state row %d: want [pred, subj, value]", i)
		}
		pred, pok := row[0].(string)
		subj, sok := row[1].(string)
		if !pok || !sok {
			return nil, fmt.Errorf("state row %d: predicate and subject must be strings", i)
		}
		facts = append(facts, planner.Fact{Predicate: pred, Subject: subj, Value: normalizeYAML(row[2])})
	}
	sc.initial = planner.FromTriples(facts)

	for i, row := range sc.Tasks {
		if len(row) < 1 {
			return nil, fmt.Errorf("task row %d: want [name, args...]", i)
		}
		name, ok := row[0].(string)
		if !ok {
			return nil, fmt.Errorf("task row %d: name must be a string", i)
		}
		args := make([]planner.Value, 0, len(row)-1)
		for _, a := range row[1:] {
			args = append(args, normalizeYAML(a))
		}
		sc.todos = append(sc.todos, planner.Task{Name: name, Args: args})
	}
	if len(sc.Goals) > 0 {
		goals := make([]planner.Unigoal, 0, len(sc.Goals))
		for i, row := range sc.Goals {
			if len(row) != 3 {
				return nil, fmt.Errorf("goal row %d: want [pred, subj, value]", i)
			}
			pred, pok := row[0].(string)
			subj, sok := row[1].(string)
			if !pok || !sok {
				return nil, fmt.Errorf("goal row %d: predicate and subject must be strings", i)
			}
			goals = append(goals, planner.Unigoal{Predicate: pred, Subject: subj, Value: normalizeYAML(row[2])})
		}
		sc.todos = append(sc.todos, planner.Multigoal{Goals: goals})
	}
	return &sc, nil
}

// normalizeYAML maps yaml scalars onto planner value types.
func normalizeYAML(v interface{}) planner.Value {
	switch v := v.(type) {
	case int:
		return int64(v)
	default:
		return v
	}
}

func parseScalar(s string) planner.Value {
	switch s {
	case "true":
		return true
	case "false":
		return false
	}
	return s
}
