// Package solution holds the planner's solution tree: an ordered rose
// tree of planning nodes. Nodes live in an arena owned by the Tree;
// parent and child links are arena indices, so dropping the tree drops
// every node with it.
package solution

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/wbrown/janus-planner/planner"
)

// NodeID indexes a node in the tree's arena.
type NodeID int

// InvalidNode is the nil node id.
const InvalidNode NodeID = -1

// Kind discriminates the node variants.
type Kind uint8

const (
	KindRoot Kind = iota
	KindTask
	KindUnigoal
	KindMultigoal
	KindAction
)

func (k Kind) String() string {
	switch k {
	case KindRoot:
		return "root"
	case KindTask:
		return "task"
	case KindUnigoal:
		return "unigoal"
	case KindMultigoal:
		return "multigoal"
	case KindAction:
		return "action"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Node is one planning node. Non-leaf nodes record the method that
// expanded them and the iterator position over methods tried so far;
// action leaves record the fingerprints of their pre- and post-states.
type Node struct {
	ID     NodeID
	Parent NodeID
	Kind   Kind

	// Source is the todo this node decomposes; nil for the root.
	Source planner.Todo

	// MethodID and MethodIndex identify the method that expanded a
	// non-leaf node and its position in the catalogue's iteration.
	MethodID    string
	MethodIndex int
	Expanded    bool

	Children []NodeID

	// Action leaves only.
	Name     string
	Args     []planner.Value
	PreHash  planner.Fingerprint
	PostHash planner.Fingerprint
}

// Tree is the arena-owned solution tree.
type Tree struct {
	ID    string
	nodes []*Node
	root  NodeID
}

// NewTree creates a tree holding only a root node.
func NewTree() *Tree {
	t := &Tree{ID: uuid.NewString()}
	root := &Node{ID: 0, Parent: InvalidNode, Kind: KindRoot}
	t.nodes = append(t.nodes, root)
	t.root = 0
	return t
}

// Root returns the fixed root id.
func (t *Tree) Root() NodeID {
	return t.root
}

// Node returns the node at id, or nil for freed or out-of-range ids.
func (t *Tree) Node(id NodeID) *Node {
	if id < 0 || int(id) >= len(t.nodes) {
		return nil
	}
	return t.nodes[id]
}

// Size returns the number of live nodes.
func (t *Tree) Size() int {
	n := 0
	for _, node := range t.nodes {
		if node != nil {
			n++
		}
	}
	return n
}

// AppendChild places n as the last child of parent and returns its id.
func (t *Tree) AppendChild(parent NodeID, n *Node) (NodeID, error) {
	p := t.Node(parent)
	if p == nil {
		return InvalidNode, fmt.Errorf("append under unknown node %d", parent)
	}
	id := NodeID(len(t.nodes))
	n.ID = id
	n.Parent = parent
	t.nodes = append(t.nodes, n)
	p.Children = append(p.Children, id)
	return id, nil
}

// RemoveSubtree detaches the node at id from its parent and frees the
// node and all its descendants atomically. The root cannot be removed.
func (t *Tree) RemoveSubtree(id NodeID) error {
	n := t.Node(id)
	if n == nil {
		return fmt.Errorf("remove of unknown node %d", id)
	}
	if id == t.root {
		return fmt.Errorf("cannot remove the root")
	}
	p := t.Node(n.Parent)
	if p != nil {
		for i, c := range p.Children {
			if c == id {
				p.Children = append(p.Children[:i], p.Children[i+1:]...)
				break
			}
		}
	}
	t.free(id)
	return nil
}

func (t *Tree) free(id NodeID) {
	n := t.Node(id)
	if n == nil {
		return
	}
	for _, c := range n.Children {
		t.free(c)
	}
	t.nodes[id] = nil
}

// ReplaceSubtree replaces the subtree rooted at id with the root
// children of other, grafted in its place in order. The other tree's
// nodes are copied into this arena; other is left untouched.
func (t *Tree) ReplaceSubtree(id NodeID, other *Tree) error {
	n := t.Node(id)
	if n == nil {
		return fmt.Errorf("replace of unknown node %d", id)
	}
	if id == t.root {
		return fmt.Errorf("cannot replace the root")
	}
	parent := n.Parent
	p := t.Node(parent)
	pos := -1
	for i, c := range p.Children {
		if c == id {
			pos = i
			break
		}
	}
	if pos < 0 {
		return fmt.Errorf("node %d not linked under its parent", id)
	}
	p.Children = append(p.Children[:pos], p.Children[pos+1:]...)
	t.free(id)

	grafted, err := t.graftNodes(parent, other, other.Root())
	if err != nil {
		return err
	}
	// Move the grafted ids from the tail back to the original position.
	head := p.Children[:len(p.Children)-len(grafted)]
	reordered := make([]NodeID, 0, len(p.Children))
	reordered = append(reordered, head[:pos]...)
	reordered = append(reordered, grafted...)
	reordered = append(reordered, head[pos:]...)
	p.Children = reordered
	return nil
}

// Graft copies the root children of other under parent, in order, and
// returns their new ids.
func (t *Tree) Graft(parent NodeID, other *Tree) ([]NodeID, error) {
	return t.graftNodes(parent, other, other.Root())
}

func (t *Tree) graftNodes(parent NodeID, other *Tree, otherRoot NodeID) ([]NodeID, error) {
	src := other.Node(otherRoot)
	if src == nil {
		return nil, fmt.Errorf("graft from unknown node %d", otherRoot)
	}
	var out []NodeID
	for _, c := range src.Children {
		id, err := t.copyInto(parent, other, c)
		if err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, nil
}

func (t *Tree) copyInto(parent NodeID, other *Tree, id NodeID) (NodeID, error) {
	src := other.Node(id)
	if src == nil {
		return InvalidNode, fmt.Errorf("copy of unknown node %d", id)
	}
	clone := *src
	clone.Children = nil
	newID, err := t.AppendChild(parent, &clone)
	if err != nil {
		return InvalidNode, err
	}
	for _, c := range src.Children {
		if _, err := t.copyInto(newID, other, c); err != nil {
			return InvalidNode, err
		}
	}
	return newID, nil
}

// PrimitivesDFS returns the action leaves in depth-first order, the
// canonical linearisation the executor follows.
func (t *Tree) PrimitivesDFS() []*Node {
	var out []*Node
	t.walk(t.root, func(n *Node) {
		if n.Kind == KindAction {
			out = append(out, n)
		}
	})
	return out
}

// Walk visits every live node in depth-first order.
func (t *Tree) Walk(fn func(n *Node)) {
	t.walk(t.root, fn)
}

func (t *Tree) walk(id NodeID, fn func(n *Node)) {
	n := t.Node(id)
	if n == nil {
		return
	}
	fn(n)
	for _, c := range n.Children {
		t.walk(c, fn)
	}
}

// Subtree returns a new tree whose root children are deep copies of the
// node at id. Used to lift a residual branch out of a larger plan.
func (t *Tree) Subtree(id NodeID) (*Tree, error) {
	out := NewTree()
	if _, err := out.copyInto(out.Root(), t, id); err != nil {
		return nil, err
	}
	return out, nil
}
