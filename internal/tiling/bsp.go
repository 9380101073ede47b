package tiling

import (
	"fmt"

	"github.com/1broseidon/tilewm/internal/platform"
)

// Split is the orientation of a BSP container.
type Split int

const (
	SplitNone Split = iota
	// SplitHorizontal places the children side by side (cuts the width).
	SplitHorizontal
	// SplitVertical stacks the children (cuts the height).
	SplitVertical
)

func (s Split) String() string {
	switch s {
	case SplitNone:
		return "none"
	case SplitHorizontal:
		return "horizontal"
	case SplitVertical:
		return "vertical"
	default:
		return fmt.Sprintf("split(%d)", int(s))
	}
}

const (
	MinRatio     = 0.1
	MaxRatio     = 0.9
	defaultRatio = 0.5
)

type bspNode struct {
	parent   *bspNode
	children [2]*bspNode
	split    Split
	ratio    float64

	window    platform.WindowID
	hasWindow bool

	// rect is the area assigned by the last ApplyLayout.
	rect platform.Rect
}

func (n *bspNode) leaf() bool {
	return n.split == SplitNone
}

func (n *bspNode) leaves() int {
	if n == nil {
		return 0
	}
	if n.leaf() {
		return 1
	}
	return n.children[0].leaves() + n.children[1].leaves()
}

func (n *bspNode) sibling() *bspNode {
	p := n.parent
	if p == nil {
		return nil
	}
	if p.children[0] == n {
		return p.children[1]
	}
	return p.children[0]
}

// BSPTree is an incrementally maintained binary space partition. Every node is
// either a leaf holding at most one window or a container with exactly two
// children. Not safe for concurrent use.
type BSPTree struct {
	root  *bspNode
	index map[platform.WindowID]*bspNode
}

// NewBSPTree returns an empty tree.
func NewBSPTree() *BSPTree {
	return &BSPTree{index: make(map[platform.WindowID]*bspNode)}
}

// Empty reports whether the tree holds no nodes.
func (t *BSPTree) Empty() bool {
	return t.root == nil
}

// Contains reports whether id occupies a leaf.
func (t *BSPTree) Contains(id platform.WindowID) bool {
	_, ok := t.index[id]
	return ok
}

// CountLeaves returns the number of leaves in the tree.
func (t *BSPTree) CountLeaves() int {
	return t.root.leaves()
}

// Clear drops every node.
func (t *BSPTree) Clear() {
	t.root = nil
	t.index = make(map[platform.WindowID]*bspNode)
}

// Insert adds id by splitting the leaf found by descending into the subtree
// with fewer leaves (ties go to the first child). The split orientation
// alternates with the depth of the leaf being split.
func (t *BSPTree) Insert(id platform.WindowID) {
	if _, ok := t.index[id]; ok {
		return
	}

	if t.root == nil {
		t.root = &bspNode{window: id, hasWindow: true, ratio: defaultRatio}
		t.index[id] = t.root
		return
	}

	n := t.root
	depth := 0
	for !n.leaf() {
		if n.children[1].leaves() < n.children[0].leaves() {
			n = n.children[1]
		} else {
			n = n.children[0]
		}
		depth++
	}

	if !n.hasWindow {
		n.window = id
		n.hasWindow = true
		t.index[id] = n
		return
	}

	first := &bspNode{parent: n, window: n.window, hasWindow: true, ratio: defaultRatio}
	second := &bspNode{parent: n, window: id, hasWindow: true, ratio: defaultRatio}

	n.window = 0
	n.hasWindow = false
	n.children = [2]*bspNode{first, second}
	n.ratio = defaultRatio
	if depth%2 == 0 {
		n.split = SplitHorizontal
	} else {
		n.split = SplitVertical
	}

	t.index[first.window] = first
	t.index[id] = second
}

// Remove deletes id's leaf. The leaf's sibling is hoisted into the parent's
// place and keeps its own split and ratio.
func (t *BSPTree) Remove(id platform.WindowID) bool {
	n, ok := t.index[id]
	if !ok {
		return false
	}
	delete(t.index, id)

	if n == t.root {
		t.root = nil
		return true
	}

	p := n.parent
	sib := n.sibling()

	p.split = sib.split
	p.ratio = sib.ratio
	p.window = sib.window
	p.hasWindow = sib.hasWindow
	p.children = sib.children
	for _, c := range p.children {
		if c != nil {
			c.parent = p
		}
	}
	if p.leaf() && p.hasWindow {
		t.index[p.window] = p
	}
	return true
}

// Rebuild clears the tree and inserts ids in order.
func (t *BSPTree) Rebuild(ids []platform.WindowID) {
	t.Clear()
	for _, id := range ids {
		t.Insert(id)
	}
}

// ApplyLayout partitions bounds top-down and returns one placement per leaf
// window. Leaves for which skip returns true keep their cached area but are
// not placed. The children of a container always cover its area exactly.
func (t *BSPTree) ApplyLayout(bounds platform.Rect, skip func(platform.WindowID) bool) []Placement {
	if t.root == nil {
		return nil
	}
	out := make([]Placement, 0, len(t.index))
	return t.root.layout(bounds, skip, out)
}

func (n *bspNode) layout(bounds platform.Rect, skip func(platform.WindowID) bool, out []Placement) []Placement {
	n.rect = bounds

	if n.leaf() {
		if n.hasWindow && (skip == nil || !skip(n.window)) {
			out = append(out, Placement{ID: n.window, Rect: bounds})
		}
		return out
	}

	a, b := bounds, bounds
	switch n.split {
	case SplitHorizontal:
		a.Width = int(float64(bounds.Width) * n.ratio)
		b.X = bounds.X + a.Width
		b.Width = bounds.Width - a.Width
	case SplitVertical:
		a.Height = int(float64(bounds.Height) * n.ratio)
		b.Y = bounds.Y + a.Height
		b.Height = bounds.Height - a.Height
	}

	out = n.children[0].layout(a, skip, out)
	return n.children[1].layout(b, skip, out)
}

// HandleResize back-solves the parent ratio from an interactive resize of
// id's window. It needs the areas cached by a previous ApplyLayout.
func (t *BSPTree) HandleResize(id platform.WindowID, geo platform.Rect) bool {
	n, ok := t.index[id]
	if !ok || n.parent == nil {
		return false
	}
	p := n.parent

	var dim, parentDim int
	switch p.split {
	case SplitHorizontal:
		dim, parentDim = geo.Width, p.rect.Width
	case SplitVertical:
		dim, parentDim = geo.Height, p.rect.Height
	default:
		return false
	}
	if parentDim <= 0 {
		return false
	}

	ratio := float64(dim) / float64(parentDim)
	if p.children[1] == n {
		ratio = 1 - ratio
	}
	p.ratio = clampRatio(ratio)
	return true
}

// Ratio returns the ratio of the container directly above id.
func (t *BSPTree) Ratio(id platform.WindowID) (float64, bool) {
	n, ok := t.index[id]
	if !ok || n.parent == nil {
		return 0, false
	}
	return n.parent.ratio, true
}

// Windows lists leaf windows in depth-first order.
func (t *BSPTree) Windows() []platform.WindowID {
	var ids []platform.WindowID
	var walk func(*bspNode)
	walk = func(n *bspNode) {
		if n == nil {
			return
		}
		if n.leaf() {
			if n.hasWindow {
				ids = append(ids, n.window)
			}
			return
		}
		walk(n.children[0])
		walk(n.children[1])
	}
	walk(t.root)
	return ids
}

// Validate checks the node invariant, parent links and the window index.
func (t *BSPTree) Validate() error {
	if t.root == nil {
		if len(t.index) != 0 {
			return fmt.Errorf("empty tree with %d indexed windows", len(t.index))
		}
		return nil
	}
	if t.root.parent != nil {
		return fmt.Errorf("root has a parent")
	}

	seen := 0
	var check func(n *bspNode) error
	check = func(n *bspNode) error {
		if n.leaf() {
			if n.children[0] != nil || n.children[1] != nil {
				return fmt.Errorf("leaf has children")
			}
			if n.hasWindow {
				seen++
				if t.index[n.window] != n {
					return fmt.Errorf("window %d not indexed to its leaf", n.window)
				}
			}
			return nil
		}
		if n.hasWindow {
			return fmt.Errorf("container holds window %d", n.window)
		}
		if n.ratio < MinRatio || n.ratio > MaxRatio {
			return fmt.Errorf("container ratio %.3f out of range", n.ratio)
		}
		for _, c := range n.children {
			if c == nil {
				return fmt.Errorf("container with %s split has a missing child", n.split)
			}
			if c.parent != n {
				return fmt.Errorf("child has wrong parent")
			}
			if err := check(c); err != nil {
				return err
			}
		}
		return nil
	}

	if err := check(t.root); err != nil {
		return err
	}
	if seen != len(t.index) {
		return fmt.Errorf("%d leaves hold windows but %d are indexed", seen, len(t.index))
	}
	return nil
}

func clampRatio(r float64) float64 {
	if r < MinRatio {
		return MinRatio
	}
	if r > MaxRatio {
		return MaxRatio
	}
	return r
}
