package action

import "github.com/tabworks/panecore/id"

// ErrorKind is the dispatch-level failure taxonomy from spec.md §7.
type ErrorKind int

const (
	OK ErrorKind = iota
	InvalidPayload
	PreconditionFailed
	BackendUnavailable
	RuntimeNotReady
	UnsupportedCommand
	SurfaceCreateFailed
	ViewNotFound
	SurfaceMismatch
	SnapshotUnavailable
)

func (k ErrorKind) String() string {
	switch k {
	case OK:
		return "ok"
	case InvalidPayload:
		return "invalidPayload"
	case PreconditionFailed:
		return "preconditionFailed"
	case BackendUnavailable:
		return "backendUnavailable"
	case RuntimeNotReady:
		return "runtimeNotReady"
	case UnsupportedCommand:
		return "unsupportedCommand"
	case SurfaceCreateFailed:
		return "surfaceCreateFailed"
	case ViewNotFound:
		return "viewNotFound"
	case SurfaceMismatch:
		return "surfaceMismatch"
	case SnapshotUnavailable:
		return "snapshotUnavailable"
	default:
		return "unknown"
	}
}

// Verdict is the validator's accept/reject result.
type Verdict struct {
	Kind   ErrorKind
	Reason string
}

// Accepted reports whether the action should proceed.
func (v Verdict) Accepted() bool { return v.Kind == OK }

func accept() Verdict { return Verdict{Kind: OK} }

func reject(kind ErrorKind, reason string) Verdict {
	return Verdict{Kind: kind, Reason: reason}
}

// Validator rejects actions that would violate an invariant before the
// coordinator ever touches the store.
type Validator struct{}

// NewValidator returns a stateless validator.
func NewValidator() *Validator { return &Validator{} }

// Validate checks act against snapshot.
func (v *Validator) Validate(act PaneAction, snapshot Snapshot) Verdict {
	switch act.Kind {
	case ClosePane:
		return v.validateClosePane(act, snapshot)
	case InsertPane:
		return v.validateInsertPane(act, snapshot)
	case ReactivatePane:
		return v.validateReactivatePane(act, snapshot)
	case RemoveArrangement:
		return v.validateRemoveArrangement(act, snapshot)
	case SelectTab, CloseTab, MoveTab:
		return v.validateTabExists(act.TabID, snapshot)
	default:
		return accept()
	}
}

func findTab(snapshot Snapshot, tabID id.ID) (TabView, bool) {
	for _, t := range snapshot.Tabs {
		if t.ID == tabID {
			return t, true
		}
	}
	return TabView{}, false
}

func (v *Validator) validateTabExists(tabID id.ID, snapshot Snapshot) Verdict {
	if _, ok := findTab(snapshot, tabID); !ok {
		return reject(InvalidPayload, "unknown tab")
	}
	return accept()
}

// validateClosePane rejects closing a tab's single non-drawer pane directly
// — callers must escalate to closeTab instead (spec.md §4.4, §4.6).
func (v *Validator) validateClosePane(act PaneAction, snapshot Snapshot) Verdict {
	tab, ok := findTab(snapshot, act.TabID)
	if !ok {
		return reject(InvalidPayload, "unknown tab")
	}
	if !tab.Layout.Contains(act.PaneID) {
		return reject(InvalidPayload, "pane not in tab")
	}
	if len(tab.Layout.Leaves()) <= 1 {
		return reject(PreconditionFailed, "closing the last pane must escalate to closeTab")
	}
	return accept()
}

// validateInsertPane rejects inserting an existing pane into the same target
// it already anchors (a self-split is meaningless and would corrupt the
// tree), and rejects targets that aren't a current leaf.
func (v *Validator) validateInsertPane(act PaneAction, snapshot Snapshot) Verdict {
	tab, ok := findTab(snapshot, act.TabID)
	if !ok {
		return reject(InvalidPayload, "unknown tab")
	}
	if act.Source.ExistingPaneID.Valid() && act.Source.ExistingPaneID == act.TargetPane {
		return reject(PreconditionFailed, "cannot split a pane into itself")
	}
	if !tab.Layout.IsEmpty() && !tab.Layout.Contains(act.TargetPane) {
		return reject(InvalidPayload, "target pane is not a leaf of the tab")
	}
	return accept()
}

// validateReactivatePane rejects reactivating a pane that is already active.
func (v *Validator) validateReactivatePane(act PaneAction, snapshot Snapshot) Verdict {
	for _, t := range snapshot.Tabs {
		if t.Layout.Contains(act.PaneID) {
			return reject(PreconditionFailed, "pane is already active")
		}
	}
	return accept()
}

// validateRemoveArrangement refuses when the tab has only one arrangement.
func (v *Validator) validateRemoveArrangement(act PaneAction, snapshot Snapshot) Verdict {
	tab, ok := findTab(snapshot, act.TabID)
	if !ok {
		return reject(InvalidPayload, "unknown tab")
	}
	if len(tab.ArrangementIDs) <= 1 {
		return reject(PreconditionFailed, "cannot remove the last arrangement")
	}
	return accept()
}
