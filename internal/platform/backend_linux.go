//go:build linux

package platform

import (
	"fmt"

	"github.com/BurntSushi/xgb/xproto"

	"github.com/1broseidon/treetile/internal/x11"
)

// LinuxBackend wraps an existing X11 connection behind the WindowSystem interface.
type LinuxBackend struct {
	conn *x11.Connection
}

var _ WindowSystem = (*LinuxBackend)(nil)

// NewLinuxBackend creates a Linux platform backend from an existing X11 connection.
func NewLinuxBackend(conn *x11.Connection) *LinuxBackend {
	return &LinuxBackend{conn: conn}
}

// NewLinuxBackendFromDisplay creates a new Linux backend by opening a fresh
// X11 connection to display ("" means $DISPLAY).
func NewLinuxBackendFromDisplay(display string) (*LinuxBackend, error) {
	conn, err := x11.NewConnectionDisplay(display)
	if err != nil {
		return nil, err
	}
	return &LinuxBackend{conn: conn}, nil
}

// Disconnect closes the underlying X11 connection.
func (b *LinuxBackend) Disconnect() {
	if b != nil && b.conn != nil {
		b.conn.Close()
	}
}

// Windows lists managed windows, oldest first.
func (b *LinuxBackend) Windows() ([]WindowID, error) {
	conn, err := b.connection()
	if err != nil {
		return nil, err
	}

	clients, err := conn.ClientList()
	if err != nil {
		return nil, err
	}

	ids := make([]WindowID, 0, len(clients))
	for _, c := range clients {
		ids = append(ids, WindowID(c))
	}
	return ids, nil
}

func (b *LinuxBackend) IsMinimized(w WindowID) (bool, error) {
	conn, err := b.connection()
	if err != nil {
		return false, err
	}

	minimized, err := conn.IsMinimized(xproto.Window(w))
	if err != nil {
		return false, b.staleOr(w, err)
	}
	return minimized, nil
}

func (b *LinuxBackend) WindowKind(w WindowID) (WindowKind, error) {
	conn, err := b.connection()
	if err != nil {
		return KindOther, err
	}

	if !conn.WindowExists(xproto.Window(w)) {
		return KindOther, fmt.Errorf("window %d: %w", w, ErrStaleWindow)
	}
	if conn.IsNormalWindow(xproto.Window(w)) {
		return KindNormal, nil
	}
	return KindOther, nil
}

// WorkspaceOf returns the desktop a window is on. Sticky windows are
// reported with ErrNoWorkspace since they belong to no single desktop.
func (b *LinuxBackend) WorkspaceOf(w WindowID) (WorkspaceID, error) {
	conn, err := b.connection()
	if err != nil {
		return 0, err
	}

	desktop, err := conn.GetWindowDesktop(xproto.Window(w))
	if err != nil {
		return 0, b.staleOr(w, err)
	}
	if desktop == x11.StickyDesktop {
		return 0, fmt.Errorf("window %d is sticky: %w", w, ErrNoWorkspace)
	}
	return WorkspaceID(desktop), nil
}

func (b *LinuxBackend) Geometry(w WindowID) (Rect, error) {
	conn, err := b.connection()
	if err != nil {
		return Rect{}, err
	}

	x, y, width, height, err := conn.Geometry(xproto.Window(w))
	if err != nil {
		return Rect{}, b.staleOr(w, err)
	}
	return Rect{X: x, Y: y, Width: width, Height: height}, nil
}

func (b *LinuxBackend) SetGeometry(w WindowID, r Rect) error {
	conn, err := b.connection()
	if err != nil {
		return err
	}
	return conn.MoveResizeWindow(xproto.Window(w), r.X, r.Y, r.Width, r.Height)
}

func (b *LinuxBackend) Unmaximize(w WindowID) error {
	conn, err := b.connection()
	if err != nil {
		return err
	}
	if err := conn.Unmaximize(xproto.Window(w)); err != nil {
		return b.staleOr(w, err)
	}
	return nil
}

func (b *LinuxBackend) Workspaces() ([]WorkspaceID, error) {
	count, err := b.WorkspaceCount()
	if err != nil {
		return nil, err
	}

	workspaces := make([]WorkspaceID, count)
	for i := range workspaces {
		workspaces[i] = WorkspaceID(i)
	}
	return workspaces, nil
}

func (b *LinuxBackend) WorkspaceCount() (int, error) {
	conn, err := b.connection()
	if err != nil {
		return 0, err
	}
	return conn.GetDesktopCount()
}

func (b *LinuxBackend) WorkspaceByIndex(i int) (WorkspaceID, error) {
	count, err := b.WorkspaceCount()
	if err != nil {
		return 0, err
	}
	if i < 0 || i >= count {
		return 0, fmt.Errorf("desktop %d of %d: %w", i, count, ErrNoWorkspace)
	}
	return WorkspaceID(i), nil
}

func (b *LinuxBackend) ActiveWorkspace() (WorkspaceID, error) {
	conn, err := b.connection()
	if err != nil {
		return 0, err
	}

	desktop, err := conn.GetCurrentDesktop()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrNoActiveWorkspace, err)
	}
	return WorkspaceID(desktop), nil
}

func (b *LinuxBackend) MoveToWorkspace(w WindowID, ws WorkspaceID) error {
	conn, err := b.connection()
	if err != nil {
		return err
	}
	if !conn.WindowExists(xproto.Window(w)) {
		return fmt.Errorf("window %d: %w", w, ErrStaleWindow)
	}
	return conn.SetWindowDesktop(xproto.Window(w), int(ws))
}

// RequestAdditionalWorkspace asks for one more desktop than currently exist.
func (b *LinuxBackend) RequestAdditionalWorkspace() error {
	conn, err := b.connection()
	if err != nil {
		return err
	}

	count, err := conn.GetDesktopCount()
	if err != nil {
		return err
	}
	return conn.RequestDesktopCount(count + 1)
}

func (b *LinuxBackend) PrimaryDisplayResolution() (int, int, error) {
	conn, err := b.connection()
	if err != nil {
		return 0, 0, err
	}
	return conn.PrimaryResolution()
}

func (b *LinuxBackend) connection() (*x11.Connection, error) {
	if b == nil || b.conn == nil {
		return nil, ErrNotConnected
	}
	return b.conn, nil
}

// staleOr maps a failed property read to ErrStaleWindow when the window is gone.
func (b *LinuxBackend) staleOr(w WindowID, err error) error {
	if !b.conn.WindowExists(xproto.Window(w)) {
		return fmt.Errorf("window %d: %w", w, ErrStaleWindow)
	}
	return err
}
