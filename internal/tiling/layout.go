package tiling

import "github.com/1broseidon/treetile/internal/platform"

// Rect represents a window position and size
type Rect struct {
	X      int
	Y      int
	Width  int
	Height int
}

// SplitGap is the number of pixels taken off the leading child of a
// vertical split. Horizontal splits have no gap.
const SplitGap = 5

// UsableArea returns the rectangle windows are tiled into on a display of
// the given size, with reservedMargin pixels left free at the bottom.
func UsableArea(width, height, reservedMargin int) Rect {
	return Rect{X: 0, Y: 0, Width: width, Height: height - reservedMargin}
}

// Layout recomputes the rectangles of every node below the root from the
// root's own rectangle.
func (t *Tree) Layout() {
	t.layout(t.root)
}

func (t *Tree) layout(id NodeID) {
	if id == NoNode {
		return
	}
	n := t.nodes[id]
	if n.IsLeaf() {
		return
	}

	left, right := splitRect(n.Rect, n.Split, n.Ratio)
	t.nodes[n.Left].Rect = left
	t.nodes[n.Right].Rect = right

	t.layout(n.Left)
	t.layout(n.Right)
}

// splitRect divides r into its leading (top/left) and trailing
// (bottom/right) parts.
func splitRect(r Rect, split Split, ratio float64) (Rect, Rect) {
	if split == SplitHorizontal {
		pos := int(float64(r.Height) * ratio)
		top := Rect{X: r.X, Y: r.Y, Width: r.Width, Height: pos}
		bottom := Rect{X: r.X, Y: r.Y + pos, Width: r.Width, Height: r.Height - pos}
		return top, bottom
	}

	pos := int(float64(r.Width) * ratio)
	left := Rect{X: r.X, Y: r.Y, Width: pos - SplitGap, Height: r.Height}
	right := Rect{X: r.X + pos, Y: r.Y, Width: r.Width - pos, Height: r.Height}
	return left, right
}

// rectFromPlatform converts a platform.Rect to a tiling Rect.
func rectFromPlatform(r platform.Rect) Rect {
	return Rect{X: r.X, Y: r.Y, Width: r.Width, Height: r.Height}
}

func (r Rect) platform() platform.Rect {
	return platform.Rect{X: r.X, Y: r.Y, Width: r.Width, Height: r.Height}
}
