package tiling

import (
	"fmt"

	"github.com/1broseidon/treetile/internal/platform"
)

// NodeID addresses a node inside a Tree's arena.
type NodeID int

// NoNode marks an absent parent or child.
const NoNode NodeID = -1

// Split is the direction an internal node divides its rectangle.
type Split int

const (
	// SplitHorizontal stacks children top/bottom.
	SplitHorizontal Split = iota
	// SplitVertical places children left/right.
	SplitVertical
)

func (s Split) String() string {
	if s == SplitVertical {
		return "vertical"
	}
	return "horizontal"
}

// DefaultRatio is the share of a split given to the leading child.
const DefaultRatio = 0.5

// Node is either a leaf bound to a window or an internal node with exactly
// two children.
type Node struct {
	Parent NodeID
	Left   NodeID
	Right  NodeID

	Window platform.WindowID
	Split  Split
	Ratio  float64
	Rect   Rect
}

// IsLeaf reports whether the node has no children.
func (n Node) IsLeaf() bool {
	return n.Left == NoNode && n.Right == NoNode
}

// Tree is a binary space partition over a fixed rectangle. Nodes live in a
// slice and refer to each other by index; discarding the tree discards
// every node at once.
type Tree struct {
	nodes  []Node
	root   NodeID
	bounds Rect
}

// NewTree returns an empty tree over bounds.
func NewTree(bounds Rect) *Tree {
	return &Tree{root: NoNode, bounds: bounds}
}

// Bounds returns the usable rectangle the tree partitions.
func (t *Tree) Bounds() Rect { return t.bounds }

// Root returns the root node id, or NoNode for an empty tree.
func (t *Tree) Root() NodeID { return t.root }

// Node returns a copy of the node with the given id.
func (t *Tree) Node(id NodeID) Node { return t.nodes[id] }

// Len returns the number of nodes reachable from the root.
func (t *Tree) Len() int {
	n := 0
	t.Walk(func(NodeID, Node) { n++ })
	return n
}

// SetRect overwrites the rectangle of a single node without touching its
// descendants.
func (t *Tree) SetRect(id NodeID, r Rect) {
	t.nodes[id].Rect = r
}

func (t *Tree) newNode(window platform.WindowID) NodeID {
	t.nodes = append(t.nodes, Node{
		Parent: NoNode,
		Left:   NoNode,
		Right:  NoNode,
		Window: window,
		Ratio:  DefaultRatio,
	})
	return NodeID(len(t.nodes) - 1)
}

// Insert adds a window and returns its leaf.
//
// The first window becomes a root leaf covering the whole tree bounds.
// Later windows split the leaf reached by always descending toward the most
// recently created subtree: the split node keeps the old leaf on the left
// and the new window on the right. Geometry is recomputed for the whole
// tree afterwards; the root rectangle itself never changes.
func (t *Tree) Insert(window platform.WindowID) NodeID {
	leaf := t.newNode(window)

	if t.root == NoNode {
		t.root = leaf
		t.nodes[leaf].Rect = t.bounds
		return leaf
	}

	current := t.root
	for !t.nodes[current].IsLeaf() {
		n := t.nodes[current]
		switch {
		case n.Right != NoNode && !t.nodes[n.Right].IsLeaf():
			current = n.Right
		case n.Left != NoNode && !t.nodes[n.Left].IsLeaf():
			current = n.Left
		case n.Right != NoNode:
			current = n.Right
		default:
			current = n.Left
		}
	}

	old := t.nodes[current]
	parent := t.newNode(0)
	t.nodes[parent].Rect = old.Rect
	t.nodes[parent].Parent = old.Parent
	if old.Rect.Width > old.Rect.Height {
		t.nodes[parent].Split = SplitVertical
	} else {
		t.nodes[parent].Split = SplitHorizontal
	}

	if old.Parent == NoNode {
		t.root = parent
	} else if t.nodes[old.Parent].Left == current {
		t.nodes[old.Parent].Left = parent
	} else {
		t.nodes[old.Parent].Right = parent
	}

	t.nodes[parent].Left = current
	t.nodes[parent].Right = leaf
	t.nodes[current].Parent = parent
	t.nodes[leaf].Parent = parent

	t.Layout()
	return leaf
}

// Walk visits every reachable node in pre-order: self, left, right.
func (t *Tree) Walk(fn func(id NodeID, n Node)) {
	t.walk(t.root, fn)
}

func (t *Tree) walk(id NodeID, fn func(NodeID, Node)) {
	if id == NoNode {
		return
	}
	n := t.nodes[id]
	fn(id, n)
	t.walk(n.Left, fn)
	t.walk(n.Right, fn)
}

// Leaves returns leaf ids in pre-order.
func (t *Tree) Leaves() []NodeID {
	var leaves []NodeID
	t.Walk(func(id NodeID, n Node) {
		if n.IsLeaf() {
			leaves = append(leaves, id)
		}
	})
	return leaves
}

// Validate checks the structural invariants: internal nodes have two
// children, and every child points back at the parent that holds it.
func (t *Tree) Validate() error {
	if t.root == NoNode {
		return nil
	}
	if p := t.nodes[t.root].Parent; p != NoNode {
		return fmt.Errorf("root %d has parent %d", t.root, p)
	}

	var err error
	t.Walk(func(id NodeID, n Node) {
		if err != nil || n.IsLeaf() {
			return
		}
		if n.Left == NoNode || n.Right == NoNode {
			err = fmt.Errorf("internal node %d has a single child", id)
			return
		}
		for _, child := range []NodeID{n.Left, n.Right} {
			if got := t.nodes[child].Parent; got != id {
				err = fmt.Errorf("node %d is a child of %d but reports parent %d", child, id, got)
				return
			}
		}
	})
	return err
}
