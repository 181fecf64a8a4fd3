// Package layout implements the pure binary split-tree that underlies every
// tab's pane arrangement. A Layout is persistent: every operation returns a
// new Layout and never mutates its receiver, mirroring the split-tree
// manipulation in the teacher's texel.Tree while trading its n-ary,
// mutate-in-place node for the binary, copy-on-write node spec.md requires.
package layout

import (
	"math"

	"github.com/tabworks/panecore/id"
)

// SplitDirection names how a split arranges its two children. Horizontal
// places Left and Right side by side (dividing the rect's width); Vertical
// stacks them top over bottom (dividing the rect's height).
type SplitDirection int

const (
	Horizontal SplitDirection = iota
	Vertical
)

// Direction is a focus/resize navigation direction.
type Direction int

const (
	DirUp Direction = iota
	DirDown
	DirLeft
	DirRight
)

// Position indicates which side of a target leaf a new leaf is inserted on.
type Position int

const (
	Before Position = iota
	After
)

const (
	minRatio = 0.05
	maxRatio = 0.95
)

// Node is either a leaf (PaneID set, Left/Right nil) or an internal split
// node (SplitID set, Left and Right both non-nil).
type Node struct {
	// Leaf fields.
	PaneID id.ID

	// Internal fields.
	SplitID   id.ID
	Direction SplitDirection
	Ratio     float64
	Left      *Node
	Right     *Node
}

func (n *Node) isLeaf() bool {
	return n != nil && n.Left == nil && n.Right == nil
}

func clampRatio(r float64) float64 {
	if math.IsNaN(r) {
		return 0.5
	}
	if r < minRatio {
		return minRatio
	}
	if r > maxRatio {
		return maxRatio
	}
	return r
}

func cloneNode(n *Node) *Node {
	if n == nil {
		return nil
	}
	out := &Node{
		PaneID:    n.PaneID,
		SplitID:   n.SplitID,
		Direction: n.Direction,
		Ratio:     n.Ratio,
		Left:      cloneNode(n.Left),
		Right:     cloneNode(n.Right),
	}
	return out
}

// Layout is an immutable binary split-tree. The zero value is an empty
// layout with no panes.
type Layout struct {
	Root         *Node
	ZoomedPaneID id.ID
}

// New returns an empty layout.
func New() Layout {
	return Layout{}
}

// NewSingleton returns a layout whose only content is a single leaf.
func NewSingleton(paneID id.ID) Layout {
	return Layout{Root: &Node{PaneID: paneID}}
}

// clone deep-copies the layout so callers never observe a shared node graph
// after a mutating-looking operation.
func (l Layout) clone() Layout {
	return Layout{Root: cloneNode(l.Root), ZoomedPaneID: l.ZoomedPaneID}
}

// IsEmpty reports whether the layout has no panes.
func (l Layout) IsEmpty() bool {
	return l.Root == nil
}

// findLeaf returns the leaf node holding paneID and, if any, its parent plus
// which side ("left"/not) it occupies. Operates on the given root so callers
// can search within a freshly cloned tree.
func findLeaf(root *Node, paneID id.ID) (leaf, parent *Node, isLeft bool) {
	var walk func(n, p *Node, left bool) (*Node, *Node, bool)
	walk = func(n, p *Node, left bool) (*Node, *Node, bool) {
		if n == nil {
			return nil, nil, false
		}
		if n.isLeaf() {
			if n.PaneID == paneID {
				return n, p, left
			}
			return nil, nil, false
		}
		if found, fp, fl := walk(n.Left, n, true); found != nil {
			return found, fp, fl
		}
		return walk(n.Right, n, false)
	}
	return walk(root, nil, false)
}

// Leaves returns every pane-id in the layout, left-to-right in tree order.
func (l Layout) Leaves() []id.ID {
	var out []id.ID
	var walk func(n *Node)
	walk = func(n *Node) {
		if n == nil {
			return
		}
		if n.isLeaf() {
			out = append(out, n.PaneID)
			return
		}
		walk(n.Left)
		walk(n.Right)
	}
	walk(l.Root)
	return out
}

// VisiblePaneIDs returns the set of panes currently visible in the layout.
// When a pane is zoomed, only it is visible.
func (l Layout) VisiblePaneIDs() []id.ID {
	if l.ZoomedPaneID.Valid() {
		for _, p := range l.Leaves() {
			if p == l.ZoomedPaneID {
				return []id.ID{p}
			}
		}
	}
	return l.Leaves()
}

// Contains reports whether paneID is a leaf of the layout.
func (l Layout) Contains(paneID id.ID) bool {
	leaf, _, _ := findLeaf(l.Root, paneID)
	return leaf != nil
}

// ParentDirection returns the split direction of paneID's immediate parent
// node. Returns false if paneID is the sole root leaf or absent from the
// layout.
func (l Layout) ParentDirection(paneID id.ID) (SplitDirection, bool) {
	leaf, parent, _ := findLeaf(l.Root, paneID)
	if leaf == nil || parent == nil {
		return Horizontal, false
	}
	return parent.Direction, true
}

// Insert splits the target leaf into an internal node with the requested
// direction, attaching a new leaf for paneID on the requested side. If the
// layout is empty, target is ignored and paneID becomes the sole root leaf.
// Invalid inputs (missing target, target already a split, paneID already
// present) return the layout unchanged.
func (l Layout) Insert(paneID, target id.ID, dir SplitDirection, pos Position, splitID id.ID) Layout {
	if l.Contains(paneID) {
		return l
	}
	if l.IsEmpty() {
		return NewSingleton(paneID)
	}
	out := l.clone()
	leaf, _, _ := findLeaf(out.Root, target)
	if leaf == nil {
		return l
	}

	originalPaneID := leaf.PaneID
	newLeaf := &Node{PaneID: paneID}
	keepLeaf := &Node{PaneID: originalPaneID}

	leaf.PaneID = id.Nil
	leaf.SplitID = splitID
	leaf.Direction = dir
	leaf.Ratio = 0.5
	if pos == Before {
		leaf.Left, leaf.Right = newLeaf, keepLeaf
	} else {
		leaf.Left, leaf.Right = keepLeaf, newLeaf
	}
	return out
}

// Remove deletes paneID's leaf, collapsing its parent split so the sibling
// subtree takes the parent's place. Returns the new layout and whether it is
// now empty. Removing a pane not present in the layout is a no-op.
func (l Layout) Remove(paneID id.ID) (Layout, bool) {
	out := l.clone()
	leaf, parent, isLeft := findLeaf(out.Root, paneID)
	if leaf == nil {
		return l, l.IsEmpty()
	}
	if parent == nil {
		// Sole root leaf.
		out.Root = nil
		if out.ZoomedPaneID == paneID {
			out.ZoomedPaneID = id.Nil
		}
		return out, true
	}

	var sibling *Node
	if isLeft {
		sibling = parent.Right
	} else {
		sibling = parent.Left
	}

	// Promote the sibling subtree into the parent's place.
	grandparent, parentIsLeft := findParentOf(out.Root, parent)
	if grandparent == nil {
		out.Root = sibling
	} else if parentIsLeft {
		grandparent.Left = sibling
	} else {
		grandparent.Right = sibling
	}

	if out.ZoomedPaneID == paneID {
		out.ZoomedPaneID = id.Nil
	}
	return out, out.Root == nil
}

func findParentOf(root, target *Node) (parent *Node, isLeft bool) {
	if root == nil || root == target {
		return nil, false
	}
	var walk func(n *Node) (*Node, bool)
	walk = func(n *Node) (*Node, bool) {
		if n == nil || n.isLeaf() {
			return nil, false
		}
		if n.Left == target {
			return n, true
		}
		if n.Right == target {
			return n, false
		}
		if p, l := walk(n.Left); p != nil {
			return p, l
		}
		return walk(n.Right)
	}
	return walk(root)
}

func findSplitNode(root *Node, splitID id.ID) *Node {
	if root == nil {
		return nil
	}
	if !root.isLeaf() && root.SplitID == splitID {
		return root
	}
	if root.isLeaf() {
		return nil
	}
	if found := findSplitNode(root.Left, splitID); found != nil {
		return found
	}
	return findSplitNode(root.Right, splitID)
}

// Resize sets splitID's ratio, clamped to [0.05, 0.95]. Unknown split ids
// leave the layout unchanged.
func (l Layout) Resize(splitID id.ID, ratio float64) Layout {
	out := l.clone()
	node := findSplitNode(out.Root, splitID)
	if node == nil {
		return l
	}
	node.Ratio = clampRatio(ratio)
	return out
}

// leafCount returns the number of leaves under n.
func leafCount(n *Node) int {
	if n == nil {
		return 0
	}
	if n.isLeaf() {
		return 1
	}
	return leafCount(n.Left) + leafCount(n.Right)
}

// Equalize sets every internal ratio so each subtree's leaf areas are equal:
// ratio = leftLeafCount / (leftLeafCount + rightLeafCount) for every node.
// Idempotent by construction.
func (l Layout) Equalize() Layout {
	out := l.clone()
	var walk func(n *Node)
	walk = func(n *Node) {
		if n == nil || n.isLeaf() {
			return
		}
		left, right := leafCount(n.Left), leafCount(n.Right)
		if total := left + right; total > 0 {
			n.Ratio = clampRatio(float64(left) / float64(total))
		}
		walk(n.Left)
		walk(n.Right)
	}
	walk(out.Root)
	return out
}

// ToggleZoom sets the zoomed-pane sentinel to paneID, or clears it if paneID
// is already zoomed. paneID must be a leaf; otherwise the layout is
// unchanged.
func (l Layout) ToggleZoom(paneID id.ID) Layout {
	if !l.Contains(paneID) {
		return l
	}
	out := l.clone()
	if out.ZoomedPaneID == paneID {
		out.ZoomedPaneID = id.Nil
	} else {
		out.ZoomedPaneID = paneID
	}
	return out
}

// directionAxis maps a focus/resize Direction to the split axis it acts on
// and whether growing paneID means growing the node's left or right child.
func directionAxis(d Direction) (axis SplitDirection, growsLeft bool) {
	switch d {
	case DirLeft:
		return Horizontal, true
	case DirRight:
		return Horizontal, false
	case DirUp:
		return Vertical, true
	case DirDown:
		return Vertical, false
	}
	return Horizontal, false
}

// ResizeByDelta walks from paneID's leaf toward the root, finds the nearest
// ancestor split whose direction matches dir's axis, and shifts its ratio by
// amount/100 (a percentage), clamped to [0.05, 0.95]. No matching ancestor
// is a no-op.
func (l Layout) ResizeByDelta(paneID id.ID, dir Direction, amount float64) Layout {
	axis, _ := directionAxis(dir)
	out := l.clone()
	leaf, _, _ := findLeaf(out.Root, paneID)
	if leaf == nil {
		return l
	}

	cur := leaf
	for {
		parent, isLeft := findParentOf(out.Root, cur)
		if parent == nil {
			return l
		}
		if parent.Direction == axis {
			delta := amount / 100.0
			if !isLeft {
				delta = -delta
			}
			parent.Ratio = clampRatio(parent.Ratio + delta)
			return out
		}
		cur = parent
	}
}

// rect is a unit-coordinate bounding box used for neighbor geometry.
type rect struct {
	x, y, w, h float64
}

func unfold(n *Node, r rect, out map[id.ID]rect) {
	if n == nil {
		return
	}
	if n.isLeaf() {
		out[n.PaneID] = r
		return
	}
	ratio := clampRatio(n.Ratio)
	if n.Direction == Horizontal {
		leftW := r.w * ratio
		unfold(n.Left, rect{r.x, r.y, leftW, r.h}, out)
		unfold(n.Right, rect{r.x + leftW, r.y, r.w - leftW, r.h}, out)
	} else {
		topH := r.h * ratio
		unfold(n.Left, rect{r.x, r.y, r.w, topH}, out)
		unfold(n.Right, rect{r.x, r.y + topH, r.w, r.h - topH}, out)
	}
}

const geometryEpsilon = 1e-9

// FocusNeighbor finds the geometric neighbor of paneID's rectangle along
// dir: among visible leaves whose rectangle lies on the requested side, it
// picks the one sharing the most edge length, tie-broken by the earlier
// (top-left) rectangle origin. Returns (id.Nil, false) when no neighbor
// exists.
func (l Layout) FocusNeighbor(paneID id.ID, dir Direction) (id.ID, bool) {
	rects := make(map[id.ID]rect)
	unfold(l.Root, rect{0, 0, 1, 1}, rects)

	visible := l.VisiblePaneIDs()
	visibleSet := make(map[id.ID]bool, len(visible))
	for _, p := range visible {
		visibleSet[p] = true
	}

	self, ok := rects[paneID]
	if !ok {
		return id.Nil, false
	}

	var best id.ID
	bestOverlap := -1.0
	bestOriginSum := math.MaxFloat64
	haveBest := false

	for pid, r := range rects {
		if pid == paneID || !visibleSet[pid] {
			continue
		}
		var onSide bool
		var overlap float64
		switch dir {
		case DirRight:
			onSide = r.x >= self.x+self.w-geometryEpsilon
			overlap = overlapLen(self.y, self.y+self.h, r.y, r.y+r.h)
		case DirLeft:
			onSide = r.x+r.w <= self.x+geometryEpsilon
			overlap = overlapLen(self.y, self.y+self.h, r.y, r.y+r.h)
		case DirDown:
			onSide = r.y >= self.y+self.h-geometryEpsilon
			overlap = overlapLen(self.x, self.x+self.w, r.x, r.x+r.w)
		case DirUp:
			onSide = r.y+r.h <= self.y+geometryEpsilon
			overlap = overlapLen(self.x, self.x+self.w, r.x, r.x+r.w)
		}
		if !onSide || overlap <= geometryEpsilon {
			continue
		}
		originSum := r.x + r.y
		if overlap > bestOverlap+geometryEpsilon ||
			(math.Abs(overlap-bestOverlap) <= geometryEpsilon && originSum < bestOriginSum) {
			best = pid
			bestOverlap = overlap
			bestOriginSum = originSum
			haveBest = true
		}
	}
	return best, haveBest
}

func overlapLen(aLo, aHi, bLo, bHi float64) float64 {
	lo := math.Max(aLo, bLo)
	hi := math.Min(aHi, bHi)
	if hi <= lo {
		return 0
	}
	return hi - lo
}

// RatioTransition describes one split's ratio changing from one Layout to
// the next; a renderer can use it to animate, but the core never does.
type RatioTransition struct {
	SplitID    id.ID
	FromRatio  float64
	ToRatio    float64
}

// TransitionFrom computes the set of split-ratio deltas between prev and l,
// matched by SplitID. Splits present in only one layout are omitted.
func (l Layout) TransitionFrom(prev Layout) []RatioTransition {
	prevRatios := make(map[id.ID]float64)
	collectRatios(prev.Root, prevRatios)
	curRatios := make(map[id.ID]float64)
	collectRatios(l.Root, curRatios)

	var out []RatioTransition
	for splitID, to := range curRatios {
		if from, ok := prevRatios[splitID]; ok && math.Abs(from-to) > geometryEpsilon {
			out = append(out, RatioTransition{SplitID: splitID, FromRatio: from, ToRatio: to})
		}
	}
	return out
}

func collectRatios(n *Node, out map[id.ID]float64) {
	if n == nil || n.isLeaf() {
		return
	}
	out[n.SplitID] = n.Ratio
	collectRatios(n.Left, out)
	collectRatios(n.Right, out)
}
