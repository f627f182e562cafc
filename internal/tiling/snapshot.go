package tiling

// Snapshot is a window-free copy of a tree's shape: rectangles and split
// metadata only. The poller keeps one across ticks and replaces it whole.
type Snapshot struct {
	nodes []snapshotNode
	root  NodeID
}

type snapshotNode struct {
	Rect  Rect
	Split Split
	Ratio float64
	Left  NodeID
	Right NodeID
}

// Snapshot copies the tree's current shape.
func (t *Tree) Snapshot() *Snapshot {
	s := &Snapshot{root: NoNode}
	s.root = s.copyFrom(t, t.root)
	return s
}

func (s *Snapshot) copyFrom(t *Tree, id NodeID) NodeID {
	if id == NoNode {
		return NoNode
	}
	n := t.nodes[id]
	idx := NodeID(len(s.nodes))
	s.nodes = append(s.nodes, snapshotNode{Rect: n.Rect, Split: n.Split, Ratio: n.Ratio})

	left := s.copyFrom(t, n.Left)
	right := s.copyFrom(t, n.Right)
	s.nodes[idx].Left = left
	s.nodes[idx].Right = right
	return idx
}

// Len returns the number of nodes in the snapshot.
func (s *Snapshot) Len() int {
	if s == nil {
		return 0
	}
	return len(s.nodes)
}

// Rects returns node rectangles in pre-order.
func (s *Snapshot) Rects() []Rect {
	if s == nil {
		return nil
	}
	var rects []Rect
	var walk func(NodeID)
	walk = func(id NodeID) {
		if id == NoNode {
			return
		}
		n := s.nodes[id]
		rects = append(rects, n.Rect)
		walk(n.Left)
		walk(n.Right)
	}
	walk(s.root)
	return rects
}

// Equal reports whether two snapshots have the same realized geometry,
// node for node, left matched with left. Split direction and ratio do not
// take part. A nil snapshot equals an empty one.
func Equal(a, b *Snapshot) bool {
	return equalNodes(a, rootOf(a), b, rootOf(b))
}

func rootOf(s *Snapshot) NodeID {
	if s == nil {
		return NoNode
	}
	return s.root
}

func equalNodes(a *Snapshot, ai NodeID, b *Snapshot, bi NodeID) bool {
	if ai == NoNode && bi == NoNode {
		return true
	}
	if ai == NoNode || bi == NoNode {
		return false
	}

	na, nb := a.nodes[ai], b.nodes[bi]
	if na.Rect != nb.Rect {
		return false
	}
	return equalNodes(a, na.Left, b, nb.Left) && equalNodes(a, na.Right, b, nb.Right)
}
