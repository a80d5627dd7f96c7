package storage

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"sort"
	"strings"

	"github.com/dgraph-io/badger/v4"
	"github.com/wbrown/janus-planner/planner"
)

// Key layout: "state/<name>" and "plan/<name>".
const (
	statePrefix = "state/"
	planPrefix  = "plan/"
)

// BadgerStore implements SnapshotStore using BadgerDB.
type BadgerStore struct {
	db *badger.DB
}

// NewBadgerStore opens a BadgerDB-backed store at path.
func NewBadgerStore(path string) (*BadgerStore, error) {
	opts := badger.DefaultOptions(path)
	opts.Logger = nil // Disable BadgerDB logs

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger: %w", err)
	}
	return &BadgerStore{db: db}, nil
}

// SaveState persists the state's triples under name.
func (s *BadgerStore) SaveState(name string, state *planner.State) error {
	data, err := EncodeFacts(state.Triples())
	if err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(statePrefix+name), data)
	})
}

// LoadState reads the state stored under name.
func (s *BadgerStore) LoadState(name string) (*planner.State, error) {
	var facts []planner.Fact
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(statePrefix + name))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			facts, err = DecodeFacts(val)
			return err
		})
	})
	if err != nil {
		return nil, fmt.Errorf("state %q: %w", name, err)
	}
	return planner.FromTriples(facts), nil
}

// ListStates returns the stored state names, sorted.
func (s *BadgerStore) ListStates() ([]string, error) {
	return s.list(statePrefix)
}

// DeleteState removes the state stored under name.
func (s *BadgerStore) DeleteState(name string) error {
	return s.delete(statePrefix + name)
}

// SavePlan persists a plan's DFS linearisation under name.
func (s *BadgerStore) SavePlan(name string, steps []PlanStep) error {
	var buf bytes.Buffer
	var tmp [binary.MaxVarintLen64]byte
	buf.Write(tmp[:binary.PutUvarint(tmp[:], uint64(len(steps)))])
	for _, step := range steps {
		facts := make([]planner.Fact, 0, len(step.Args)+1)
		facts = append(facts, planner.Fact{Predicate: "name", Subject: step.Name, Value: nil})
		for i, a := range step.Args {
			facts = append(facts, planner.Fact{Predicate: "arg", Subject: fmt.Sprintf("%d", i), Value: a})
		}
		data, err := EncodeFacts(facts)
		if err != nil {
			return fmt.Errorf("plan %q step %s: %w", name, step.Name, err)
		}
		buf.Write(tmp[:binary.PutUvarint(tmp[:], uint64(len(data)))])
		buf.Write(data)
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(planPrefix+name), buf.Bytes())
	})
}

// LoadPlan reads the plan stored under name.
func (s *BadgerStore) LoadPlan(name string) ([]PlanStep, error) {
	var steps []PlanStep
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(planPrefix + name))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			steps, err = decodePlan(val)
			return err
		})
	})
	if err != nil {
		return nil, fmt.Errorf("plan %q: %w", name, err)
	}
	return steps, nil
}

func decodePlan(val []byte) ([]PlanStep, error) {
	buf := bytes.NewReader(val)
	n, err := binary.ReadUvarint(buf)
	if err != nil {
		return nil, err
	}
	steps := make([]PlanStep, 0, n)
	for i := uint64(0); i < n; i++ {
		size, err := binary.ReadUvarint(buf)
		if err != nil {
			return nil, err
		}
		data := make([]byte, size)
		if _, err := buf.Read(data); err != nil {
			return nil, err
		}
		facts, err := DecodeFacts(data)
		if err != nil {
			return nil, err
		}
		var step PlanStep
		args := make(map[int]planner.Value)
		maxArg := -1
		for _, f := range facts {
			switch f.Predicate {
			case "name":
				step.Name = f.Subject
			case "arg":
				var idx int
				fmt.Sscanf(f.Subject, "%d", &idx)
				args[idx] = f.Value
				if idx > maxArg {
					maxArg = idx
				}
			}
		}
		for j := 0; j <= maxArg; j++ {
			step.Args = append(step.Args, args[j])
		}
		steps = append(steps, step)
	}
	return steps, nil
}

// ListPlans returns the stored plan names, sorted.
func (s *BadgerStore) ListPlans() ([]string, error) {
	return s.list(planPrefix)
}

// DeletePlan removes the plan stored under name.
func (s *BadgerStore) DeletePlan(name string) error {
	return s.delete(planPrefix + name)
}

func (s *BadgerStore) list(prefix string) ([]string, error) {
	var names []string
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = []byte(prefix)
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			key := string(it.Item().Key())
			names = append(names, strings.TrimPrefix(key, prefix))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(names)
	return names, nil
}

func (s *BadgerStore) delete(key string) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(key))
	})
}

// Close flushes and closes the underlying database.
func (s *BadgerStore) Close() error {
	return s.db.Close()
}
