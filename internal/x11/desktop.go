package x11

import (
	"fmt"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil/ewmh"
)

// StickyDesktop is the _NET_WM_DESKTOP value of a window shown on all desktops.
const StickyDesktop = -1

// GetCurrentDesktop returns the current virtual desktop number (0-indexed).
// Uses _NET_CURRENT_DESKTOP atom.
func (c *Connection) GetCurrentDesktop() (int, error) {
	desktop, err := ewmh.CurrentDesktopGet(c.XUtil)
	if err != nil {
		return 0, fmt.Errorf("failed to get current desktop: %w", err)
	}
	return int(desktop), nil
}

// GetWindowDesktop returns the desktop number a window is on.
// Uses _NET_WM_DESKTOP atom. Returns StickyDesktop for windows visible on all desktops.
func (c *Connection) GetWindowDesktop(windowID xproto.Window) (int, error) {
	desktop, err := ewmh.WmDesktopGet(c.XUtil, windowID)
	if err != nil {
		return 0, fmt.Errorf("failed to get window desktop: %w", err)
	}
	// 0xFFFFFFFF means the window is on all desktops (sticky)
	if desktop == 0xFFFFFFFF {
		return StickyDesktop, nil
	}
	return int(desktop), nil
}

// GetDesktopCount returns the number of virtual desktops.
func (c *Connection) GetDesktopCount() (int, error) {
	count, err := ewmh.NumberOfDesktopsGet(c.XUtil)
	if err != nil {
		return 0, fmt.Errorf("failed to get desktop count: %w", err)
	}
	return int(count), nil
}

// SetWindowDesktop moves a window to the specified virtual desktop.
// The _NET_WM_DESKTOP request goes to the root window as a client message.
// We build the message manually because the xgbutil ewmh.WmDesktopReq
// helper panics on this library version (uint vs int type assertion).
func (c *Connection) SetWindowDesktop(windowID xproto.Window, desktop int) error {
	const sourceIndication = 2 // pager/direct action
	if err := c.sendRootMessage(windowID, "_NET_WM_DESKTOP", uint32(desktop), sourceIndication); err != nil {
		return fmt.Errorf("failed to move window %d to desktop %d: %w", windowID, desktop, err)
	}
	return nil
}

// RequestDesktopCount asks the window manager to change _NET_NUMBER_OF_DESKTOPS.
// There is no acknowledgment; re-read GetDesktopCount to observe the effect.
func (c *Connection) RequestDesktopCount(count int) error {
	if err := c.sendRootMessage(c.Root, "_NET_NUMBER_OF_DESKTOPS", uint32(count)); err != nil {
		return fmt.Errorf("failed to request %d desktops: %w", count, err)
	}
	c.Sync()
	return nil
}
