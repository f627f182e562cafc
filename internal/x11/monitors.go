package x11

import (
	"fmt"

	"github.com/BurntSushi/xgb/randr"
)

// Monitor represents a physical display
type Monitor struct {
	ID      int
	Name    string
	X       int
	Y       int
	Width   int
	Height  int
	Primary bool
}

// GetMonitors retrieves all active monitors using XRandR
func (c *Connection) GetMonitors() ([]Monitor, error) {
	// Initialize RandR if not already done
	if err := randr.Init(c.XUtil.Conn()); err != nil {
		return nil, fmt.Errorf("randr init failed: %w", err)
	}

	resources, err := randr.GetScreenResources(c.XUtil.Conn(), c.Root).Reply()
	if err != nil {
		return nil, fmt.Errorf("failed to get screen resources: %w", err)
	}

	var primaryOutput randr.Output
	if primary, err := randr.GetOutputPrimary(c.XUtil.Conn(), c.Root).Reply(); err == nil {
		primaryOutput = primary.Output
	}

	var monitors []Monitor

	// Query each CRTC for active monitors
	for i, crtc := range resources.Crtcs {
		crtcInfo, err := randr.GetCrtcInfo(c.XUtil.Conn(), crtc, resources.ConfigTimestamp).Reply()
		if err != nil {
			continue
		}

		// Skip disabled CRTCs
		if crtcInfo.Width == 0 || crtcInfo.Height == 0 || len(crtcInfo.Outputs) == 0 {
			continue
		}

		outputName := fmt.Sprintf("Monitor%d", i)
		outputInfo, err := randr.GetOutputInfo(c.XUtil.Conn(), crtcInfo.Outputs[0], resources.ConfigTimestamp).Reply()
		if err == nil {
			outputName = string(outputInfo.Name)
		}

		isPrimary := false
		for _, out := range crtcInfo.Outputs {
			if primaryOutput != 0 && out == primaryOutput {
				isPrimary = true
				break
			}
		}

		monitors = append(monitors, Monitor{
			ID:      i,
			Name:    outputName,
			X:       int(crtcInfo.X),
			Y:       int(crtcInfo.Y),
			Width:   int(crtcInfo.Width),
			Height:  int(crtcInfo.Height),
			Primary: isPrimary,
		})
	}

	return monitors, nil
}

// PrimaryResolution returns the size of the primary monitor. Without a
// RandR primary output it falls back to the first enabled monitor, then
// to the root screen size.
func (c *Connection) PrimaryResolution() (width, height int, err error) {
	monitors, err := c.GetMonitors()
	if err == nil && len(monitors) > 0 {
		for _, m := range monitors {
			if m.Primary {
				return m.Width, m.Height, nil
			}
		}
		return monitors[0].Width, monitors[0].Height, nil
	}

	screen := c.XUtil.Screen()
	if screen == nil || screen.WidthInPixels == 0 || screen.HeightInPixels == 0 {
		if err == nil {
			err = fmt.Errorf("no monitors found")
		}
		return 0, 0, fmt.Errorf("failed to determine display resolution: %w", err)
	}
	return int(screen.WidthInPixels), int(screen.HeightInPixels), nil
}
