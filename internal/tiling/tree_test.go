package tiling

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/1broseidon/treetile/internal/platform"
)

var fullHD = UsableArea(1920, 1080, DefaultReservedMargin)

func buildTree(bounds Rect, n int) *Tree {
	tree := NewTree(bounds)
	for i := 1; i <= n; i++ {
		tree.Insert(platform.WindowID(i))
	}
	return tree
}

func countNodes(tree *Tree) (leaves, internal int) {
	tree.Walk(func(_ NodeID, n Node) {
		if n.IsLeaf() {
			leaves++
		} else {
			internal++
		}
	})
	return leaves, internal
}

func TestInsert_LeafAndInternalCounts(t *testing.T) {
	for n := 1; n <= 12; n++ {
		tree := buildTree(fullHD, n)

		leaves, internal := countNodes(tree)
		require.Equal(t, n, leaves, "leaves for %d windows", n)
		require.Equal(t, n-1, internal, "internal nodes for %d windows", n)
		require.NoError(t, tree.Validate())
	}
}

func TestInsert_EmptyTreeHasNoRoot(t *testing.T) {
	tree := NewTree(fullHD)
	require.Equal(t, NoNode, tree.Root())
	require.Zero(t, tree.Len())
	require.Empty(t, tree.Leaves())
	require.NoError(t, tree.Validate())
}

func TestInsert_FirstWindowCoversUsableArea(t *testing.T) {
	tree := NewTree(fullHD)
	leaf := tree.Insert(7)

	require.Equal(t, leaf, tree.Root())
	node := tree.Node(leaf)
	require.True(t, node.IsLeaf())
	require.Equal(t, platform.WindowID(7), node.Window)
	require.Equal(t, Rect{X: 0, Y: 0, Width: 1920, Height: 1075}, node.Rect)
}

func TestInsert_FourWindowGeometry(t *testing.T) {
	tree := buildTree(fullHD, 4)

	var got []Rect
	for _, id := range tree.Leaves() {
		got = append(got, tree.Node(id).Rect)
	}

	want := []Rect{
		{X: 0, Y: 0, Width: 955, Height: 1075},
		{X: 960, Y: 0, Width: 960, Height: 537},
		{X: 960, Y: 537, Width: 475, Height: 538},
		{X: 1440, Y: 537, Width: 480, Height: 538},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("leaf geometry mismatch (-want +got):\n%s", diff)
	}
}

func TestInsert_LeavesFollowInsertionOrder(t *testing.T) {
	tree := buildTree(fullHD, 5)

	var windows []platform.WindowID
	for _, id := range tree.Leaves() {
		windows = append(windows, tree.Node(id).Window)
	}
	require.Equal(t, []platform.WindowID{1, 2, 3, 4, 5}, windows)
}

func TestInsert_SplitsTheMostRecentLeaf(t *testing.T) {
	tree := buildTree(fullHD, 3)
	newest := tree.Insert(4)

	parent := tree.Node(tree.Node(newest).Parent)
	require.Equal(t, newest, parent.Right)
	require.Equal(t, platform.WindowID(3), tree.Node(parent.Left).Window)
}

func TestInsert_SplitDirectionFollowsLeafShape(t *testing.T) {
	tests := []struct {
		name   string
		bounds Rect
		want   Split
	}{
		{name: "wide", bounds: Rect{Width: 200, Height: 100}, want: SplitVertical},
		{name: "tall", bounds: Rect{Width: 100, Height: 200}, want: SplitHorizontal},
		{name: "square", bounds: Rect{Width: 100, Height: 100}, want: SplitHorizontal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tree := buildTree(tt.bounds, 2)
			require.Equal(t, tt.want, tree.Node(tree.Root()).Split)
		})
	}
}

func TestInsert_RootRectangleIsStable(t *testing.T) {
	tree := NewTree(fullHD)
	tree.Insert(1)
	original := tree.Node(tree.Root()).Rect

	tree.Insert(2)
	require.Equal(t, original, tree.Node(tree.Root()).Rect)

	tree.Insert(3)
	require.Equal(t, original, tree.Node(tree.Root()).Rect)
}

func TestInsert_RatioIsFixed(t *testing.T) {
	tree := buildTree(fullHD, 6)
	tree.Walk(func(_ NodeID, n Node) {
		require.Equal(t, DefaultRatio, n.Ratio)
	})
}

func TestValidate_DetectsCrossLink(t *testing.T) {
	tree := buildTree(fullHD, 3)
	root := tree.Node(tree.Root())
	tree.nodes[root.Left].Parent = root.Right

	require.Error(t, tree.Validate())
}
