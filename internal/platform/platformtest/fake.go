// Package platformtest provides an in-memory platform.WindowSystem for tests.
package platformtest

import (
	"fmt"
	"sync"

	"github.com/1broseidon/treetile/internal/platform"
)

// Window is the fake's view of a single client window.
type Window struct {
	ID        platform.WindowID
	Minimized bool
	Kind      platform.WindowKind
	Workspace platform.WorkspaceID
	Bounds    platform.Rect
	Maximized bool
}

// GeometryCall records one SetGeometry invocation.
type GeometryCall struct {
	Window platform.WindowID
	Rect   platform.Rect
	// Maximized is the window's state when the call arrived.
	Maximized bool
}

// MoveCall records one MoveToWorkspace invocation.
type MoveCall struct {
	Window    platform.WindowID
	Workspace platform.WorkspaceID
}

// Fake is a deterministic window system. Windows keep the order they were
// added in, which stands in for the global open order.
type Fake struct {
	mu sync.Mutex

	windows        []*Window
	workspaceCount int
	active         platform.WorkspaceID
	hasActive      bool
	width, height  int

	// CreationFails makes RequestAdditionalWorkspace silently do nothing.
	CreationFails bool
	// CreationDelay is how many WorkspaceCount reads pass before a
	// requested workspace becomes visible.
	CreationDelay int
	// IgnoreGeometry makes SetGeometry record the call without moving the window.
	IgnoreGeometry bool
	// WindowsErr, when set, is returned from Windows.
	WindowsErr error
	// BeforeMove, when set, runs at the start of every MoveToWorkspace.
	BeforeMove func(platform.WindowID)
	// AfterGeometry, when set, runs after every successful Geometry read.
	AfterGeometry func(platform.WindowID)

	pending      int
	pendingReads int
	stale        map[platform.WindowID]bool

	GeometryCalls    []GeometryCall
	UnmaximizeCalls  []platform.WindowID
	MoveCalls        []MoveCall
	CreationRequests int
}

var _ platform.WindowSystem = (*Fake)(nil)

// NewFake returns a fake with the given display size and workspace count.
// Workspace 0 is active.
func NewFake(width, height, workspaces int) *Fake {
	return &Fake{
		width:          width,
		height:         height,
		workspaceCount: workspaces,
		hasActive:      workspaces > 0,
		stale:          make(map[platform.WindowID]bool),
	}
}

// AddWindow opens a normal window on ws and returns it for further tweaking.
func (f *Fake) AddWindow(id platform.WindowID, ws platform.WorkspaceID) *Window {
	f.mu.Lock()
	defer f.mu.Unlock()

	w := &Window{ID: id, Kind: platform.KindNormal, Workspace: ws}
	f.windows = append(f.windows, w)
	return w
}

// Window returns the fake window with the given id, or nil.
func (f *Fake) Window(id platform.WindowID) *Window {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.find(id)
}

// SetActive selects the active workspace.
func (f *Fake) SetActive(ws platform.WorkspaceID) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.active = ws
	f.hasActive = true
}

// ClearActive makes ActiveWorkspace fail.
func (f *Fake) ClearActive() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.hasActive = false
}

// MarkStale makes every query on id fail with platform.ErrStaleWindow while
// the window stays in the client list.
func (f *Fake) MarkStale(id platform.WindowID) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stale[id] = true
}

// WindowsOn returns the ids of all windows on ws, in open order.
func (f *Fake) WindowsOn(ws platform.WorkspaceID) []platform.WindowID {
	f.mu.Lock()
	defer f.mu.Unlock()

	var ids []platform.WindowID
	for _, w := range f.windows {
		if w.Workspace == ws {
			ids = append(ids, w.ID)
		}
	}
	return ids
}

// ResetCalls forgets recorded calls.
func (f *Fake) ResetCalls() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.GeometryCalls = nil
	f.UnmaximizeCalls = nil
	f.MoveCalls = nil
	f.CreationRequests = 0
}

func (f *Fake) Windows() ([]platform.WindowID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.WindowsErr != nil {
		return nil, f.WindowsErr
	}
	ids := make([]platform.WindowID, 0, len(f.windows))
	for _, w := range f.windows {
		ids = append(ids, w.ID)
	}
	return ids, nil
}

func (f *Fake) IsMinimized(id platform.WindowID) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	w, err := f.lookup(id)
	if err != nil {
		return false, err
	}
	return w.Minimized, nil
}

func (f *Fake) WindowKind(id platform.WindowID) (platform.WindowKind, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	w, err := f.lookup(id)
	if err != nil {
		return platform.KindOther, err
	}
	return w.Kind, nil
}

func (f *Fake) WorkspaceOf(id platform.WindowID) (platform.WorkspaceID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	w, err := f.lookup(id)
	if err != nil {
		return 0, err
	}
	return w.Workspace, nil
}

func (f *Fake) Geometry(id platform.WindowID) (platform.Rect, error) {
	f.mu.Lock()
	w, err := f.lookup(id)
	var r platform.Rect
	if err == nil {
		r = w.Bounds
	}
	hook := f.AfterGeometry
	f.mu.Unlock()

	if err != nil {
		return platform.Rect{}, err
	}
	if hook != nil {
		hook(id)
	}
	return r, nil
}

func (f *Fake) SetGeometry(id platform.WindowID, r platform.Rect) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	w, err := f.lookup(id)
	if err != nil {
		return err
	}
	f.GeometryCalls = append(f.GeometryCalls, GeometryCall{Window: id, Rect: r, Maximized: w.Maximized})
	if !f.IgnoreGeometry {
		w.Bounds = r
	}
	return nil
}

func (f *Fake) Unmaximize(id platform.WindowID) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	w, err := f.lookup(id)
	if err != nil {
		return err
	}
	f.UnmaximizeCalls = append(f.UnmaximizeCalls, id)
	w.Maximized = false
	return nil
}

func (f *Fake) Workspaces() ([]platform.WorkspaceID, error) {
	count, err := f.WorkspaceCount()
	if err != nil {
		return nil, err
	}
	ids := make([]platform.WorkspaceID, count)
	for i := range ids {
		ids[i] = platform.WorkspaceID(i)
	}
	return ids, nil
}

func (f *Fake) WorkspaceCount() (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.pending > 0 {
		if f.pendingReads <= 0 {
			f.workspaceCount += f.pending
			f.pending = 0
		} else {
			f.pendingReads--
		}
	}
	return f.workspaceCount, nil
}

func (f *Fake) WorkspaceByIndex(i int) (platform.WorkspaceID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if i < 0 || i >= f.workspaceCount {
		return 0, fmt.Errorf("workspace %d of %d: %w", i, f.workspaceCount, platform.ErrNoWorkspace)
	}
	return platform.WorkspaceID(i), nil
}

func (f *Fake) ActiveWorkspace() (platform.WorkspaceID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if !f.hasActive {
		return 0, platform.ErrNoActiveWorkspace
	}
	return f.active, nil
}

func (f *Fake) MoveToWorkspace(id platform.WindowID, ws platform.WorkspaceID) error {
	if f.BeforeMove != nil {
		f.BeforeMove(id)
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	w, err := f.lookup(id)
	if err != nil {
		return err
	}
	if int(ws) < 0 || int(ws) >= f.workspaceCount {
		return fmt.Errorf("workspace %d: %w", ws, platform.ErrNoWorkspace)
	}
	f.MoveCalls = append(f.MoveCalls, MoveCall{Window: id, Workspace: ws})
	w.Workspace = ws
	return nil
}

func (f *Fake) RequestAdditionalWorkspace() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.CreationRequests++
	if f.CreationFails {
		return nil
	}
	f.pending++
	f.pendingReads = f.CreationDelay
	return nil
}

func (f *Fake) PrimaryDisplayResolution() (int, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.width, f.height, nil
}

func (f *Fake) find(id platform.WindowID) *Window {
	for _, w := range f.windows {
		if w.ID == id {
			return w
		}
	}
	return nil
}

func (f *Fake) lookup(id platform.WindowID) (*Window, error) {
	w := f.find(id)
	if w == nil || f.stale[id] {
		return nil, fmt.Errorf("window %d: %w", id, platform.ErrStaleWindow)
	}
	return w, nil
}
