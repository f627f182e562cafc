package x11

import (
	"fmt"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil/ewmh"
	"github.com/BurntSushi/xgbutil/icccm"
	"github.com/BurntSushi/xgbutil/xwindow"
)

// ClientList returns managed windows in initial mapping order, oldest first.
func (c *Connection) ClientList() ([]xproto.Window, error) {
	clients, err := ewmh.ClientListGet(c.XUtil)
	if err != nil {
		return nil, fmt.Errorf("failed to get client list: %w", err)
	}
	return clients, nil
}

// WindowExists reports whether the server still knows about windowID.
func (c *Connection) WindowExists(windowID xproto.Window) bool {
	_, err := xproto.GetWindowAttributes(c.XUtil.Conn(), windowID).Reply()
	return err == nil
}

// IsMinimized reports whether a window is iconified, either through
// _NET_WM_STATE_HIDDEN or the ICCCM WM_STATE.
func (c *Connection) IsMinimized(windowID xproto.Window) (bool, error) {
	if states, err := ewmh.WmStateGet(c.XUtil, windowID); err == nil {
		for _, state := range states {
			if state == "_NET_WM_STATE_HIDDEN" {
				return true, nil
			}
		}
	}

	wmState, err := icccm.WmStateGet(c.XUtil, windowID)
	if err != nil {
		// Not every client sets WM_STATE; only a vanished window is an error.
		if !c.WindowExists(windowID) {
			return false, fmt.Errorf("window %d: %w", windowID, err)
		}
		return false, nil
	}
	return wmState.State == icccm.StateIconic, nil
}

// IsNormalWindow checks if a window is a normal application window
func (c *Connection) IsNormalWindow(windowID xproto.Window) bool {
	types, err := ewmh.WmWindowTypeGet(c.XUtil, windowID)
	if err != nil {
		// If we can't determine type, assume it's normal
		return true
	}

	for _, t := range types {
		if t == "_NET_WM_WINDOW_TYPE_NORMAL" {
			return true
		}
	}

	// If no specific type is set, assume it's normal
	return len(types) == 0
}

// Geometry returns a window's position in root coordinates and its size.
func (c *Connection) Geometry(windowID xproto.Window) (x, y, width, height int, err error) {
	geom, err := xproto.GetGeometry(c.XUtil.Conn(), xproto.Drawable(windowID)).Reply()
	if err != nil {
		return 0, 0, 0, 0, fmt.Errorf("failed to get geometry of window %d: %w", windowID, err)
	}

	translate, err := xproto.TranslateCoordinates(
		c.XUtil.Conn(),
		windowID,
		c.Root,
		0, 0,
	).Reply()
	if err != nil {
		return 0, 0, 0, 0, fmt.Errorf("failed to translate coordinates of window %d: %w", windowID, err)
	}

	return int(translate.DstX), int(translate.DstY), int(geom.Width), int(geom.Height), nil
}

// MoveResizeWindow moves and resizes a window to the specified geometry
func (c *Connection) MoveResizeWindow(windowID xproto.Window, x, y, width, height int) error {
	// Use EWMH MoveResize for better WM compatibility
	err := ewmh.MoveresizeWindow(c.XUtil, windowID, x, y, width, height)
	if err != nil {
		// Fallback to direct window manipulation
		xwindow.New(c.XUtil, windowID).MoveResize(x, y, width, height)
	}
	return nil
}

// Unmaximize removes maximized state from a window. Window managers
// commonly ignore geometry requests on maximized windows.
func (c *Connection) Unmaximize(windowID xproto.Window) error {
	states, err := ewmh.WmStateGet(c.XUtil, windowID)
	if err != nil {
		return fmt.Errorf("failed to get state of window %d: %w", windowID, err)
	}

	for _, state := range states {
		if state != "_NET_WM_STATE_MAXIMIZED_HORZ" && state != "_NET_WM_STATE_MAXIMIZED_VERT" {
			continue
		}
		if err := ewmh.WmStateReq(c.XUtil, windowID, ewmh.StateRemove, state); err != nil {
			return fmt.Errorf("failed to remove %s: %w", state, err)
		}
	}

	return nil
}
