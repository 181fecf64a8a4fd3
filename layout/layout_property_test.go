package layout

import (
	"testing"

	"pgregory.net/rapid"

	"github.com/tabworks/panecore/id"
)

// genPaneID produces small, collidable pane-id pools so insert/remove
// sequences exercise both fresh and already-present ids.
func genPaneID(t *rapid.T) id.ID {
	return id.ID(rapid.StringMatching(`p[0-9]`).Draw(t, "paneID"))
}

// TestLayoutInvariantsHoldAfterAnySequence drives random Insert/Remove/
// Resize/Equalize/ToggleZoom sequences and checks spec.md invariant 3:
// every layout's visible-pane set has no duplicates and every ratio is in
// [0.05, 0.95].
func TestLayoutInvariantsHoldAfterAnySequence(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		l := New()
		steps := rapid.IntRange(1, 30).Draw(t, "steps")
		for i := 0; i < steps; i++ {
			switch rapid.IntRange(0, 4).Draw(t, "op") {
			case 0:
				pane := genPaneID(t)
				if l.IsEmpty() {
					l = NewSingleton(pane)
					continue
				}
				leaves := l.Leaves()
				target := leaves[rapid.IntRange(0, len(leaves)-1).Draw(t, "target")]
				dir := Vertical
				if rapid.Bool().Draw(t, "dir") {
					dir = Horizontal
				}
				l = l.Insert(pane, target, dir, After, genPaneID(t))
			case 1:
				if l.IsEmpty() {
					continue
				}
				leaves := l.Leaves()
				target := leaves[rapid.IntRange(0, len(leaves)-1).Draw(t, "removeTarget")]
				l, _ = l.Remove(target)
			case 2:
				l = l.Equalize()
			case 3:
				if !l.IsEmpty() {
					leaves := l.Leaves()
					pane := leaves[rapid.IntRange(0, len(leaves)-1).Draw(t, "zoomTarget")]
					l = l.ToggleZoom(pane)
				}
			case 4:
				if !l.IsEmpty() {
					leaves := l.Leaves()
					pane := leaves[rapid.IntRange(0, len(leaves)-1).Draw(t, "resizeTarget")]
					l = l.ResizeByDelta(pane, DirRight, float64(rapid.IntRange(-50, 50).Draw(t, "amount")))
				}
			}

			seen := make(map[id.ID]bool)
			for _, p := range l.VisiblePaneIDs() {
				if seen[p] {
					t.Fatalf("duplicate visible pane %q", p)
				}
				seen[p] = true
			}
			assertRatiosInRange(t, l.Root)
		}
	})
}

func assertRatiosInRange(t *rapid.T, n *Node) {
	if n == nil || n.isLeaf() {
		return
	}
	if n.Ratio < minRatio-1e-9 || n.Ratio > maxRatio+1e-9 {
		t.Fatalf("ratio %v out of range", n.Ratio)
	}
	assertRatiosInRange(t, n.Left)
	assertRatiosInRange(t, n.Right)
}
