package platform

import "errors"

// WindowID is a platform-neutral window identifier.
type WindowID uint32

// WorkspaceID is the zero-based index of a virtual desktop.
type WorkspaceID int

// Rect describes a rectangular region in screen coordinates.
type Rect struct {
	X      int
	Y      int
	Width  int
	Height int
}

// WindowKind distinguishes application windows from docks, dialogs and the like.
type WindowKind int

const (
	KindOther WindowKind = iota
	KindNormal
)

func (k WindowKind) String() string {
	if k == KindNormal {
		return "normal"
	}
	return "other"
}

var (
	// ErrStaleWindow is returned when a window handle no longer refers to a live window.
	ErrStaleWindow = errors.New("window no longer exists")
	// ErrNoActiveWorkspace is returned when the window manager reports no current desktop.
	ErrNoActiveWorkspace = errors.New("no active workspace")
	// ErrNoWorkspace is returned for a workspace index outside the current desktop count.
	ErrNoWorkspace = errors.New("workspace does not exist")
	// ErrNotConnected is returned by a backend without a live connection.
	ErrNotConnected = errors.New("window system connection is nil")
)

// WindowSystem abstracts the window-manager operations the tiler needs.
//
// All calls are synchronous. Windows returns handles in global open order,
// oldest first. RequestAdditionalWorkspace is fire-and-forget: callers
// confirm it by re-reading WorkspaceCount.
type WindowSystem interface {
	Windows() ([]WindowID, error)
	IsMinimized(w WindowID) (bool, error)
	WindowKind(w WindowID) (WindowKind, error)
	WorkspaceOf(w WindowID) (WorkspaceID, error)
	Geometry(w WindowID) (Rect, error)

	SetGeometry(w WindowID, r Rect) error
	Unmaximize(w WindowID) error

	Workspaces() ([]WorkspaceID, error)
	WorkspaceCount() (int, error)
	WorkspaceByIndex(i int) (WorkspaceID, error)
	ActiveWorkspace() (WorkspaceID, error)
	MoveToWorkspace(w WindowID, ws WorkspaceID) error
	RequestAdditionalWorkspace() error

	PrimaryDisplayResolution() (width, height int, err error)
}

// IsActiveOn reports whether w counts toward ws: not minimized, a normal
// window, and currently on ws. Query failures count as "not active".
func IsActiveOn(sys WindowSystem, w WindowID, ws WorkspaceID) bool {
	if minimized, err := sys.IsMinimized(w); err != nil || minimized {
		return false
	}
	if kind, err := sys.WindowKind(w); err != nil || kind != KindNormal {
		return false
	}
	on, err := sys.WorkspaceOf(w)
	return err == nil && on == ws
}
