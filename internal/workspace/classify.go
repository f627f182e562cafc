// Package workspace keeps the number of active windows per workspace at or
// below a threshold by moving the newest windows onto workspaces with room.
package workspace

import (
	"fmt"
	"sort"

	"github.com/1broseidon/treetile/internal/platform"
)

// DefaultThreshold is the maximum number of active windows per workspace.
const DefaultThreshold = 5

// Bucket is a workspace's classification against the threshold.
type Bucket int

const (
	Exact Bucket = iota
	Free
	Overloaded
)

func (b Bucket) String() string {
	switch b {
	case Free:
		return "free"
	case Overloaded:
		return "overloaded"
	default:
		return "exact"
	}
}

// Classify places a workspace with count active windows into a bucket.
func Classify(count, threshold int) Bucket {
	switch {
	case count > threshold:
		return Overloaded
	case count < threshold:
		return Free
	default:
		return Exact
	}
}

// Info describes one workspace.
type Info struct {
	ID      platform.WorkspaceID `json:"id"`
	Windows int                  `json:"windows"`
	Bucket  string               `json:"bucket"`
	Active  bool                 `json:"active"`
}

// CountActive returns the number of active windows on every workspace.
// Workspaces without windows are present with a zero count.
func CountActive(sys platform.WindowSystem) (map[platform.WorkspaceID]int, error) {
	workspaces, err := sys.Workspaces()
	if err != nil {
		return nil, fmt.Errorf("list workspaces: %w", err)
	}
	windows, err := sys.Windows()
	if err != nil {
		return nil, fmt.Errorf("list windows: %w", err)
	}

	counts := make(map[platform.WorkspaceID]int, len(workspaces))
	for _, ws := range workspaces {
		counts[ws] = 0
	}
	for _, w := range windows {
		ws, err := sys.WorkspaceOf(w)
		if err != nil {
			continue
		}
		if _, known := counts[ws]; !known {
			continue
		}
		if platform.IsActiveOn(sys, w, ws) {
			counts[ws]++
		}
	}
	return counts, nil
}

// Survey reports every workspace with its count and bucket, ordered by id.
func Survey(sys platform.WindowSystem, threshold int) ([]Info, error) {
	counts, err := CountActive(sys)
	if err != nil {
		return nil, err
	}
	active, activeErr := sys.ActiveWorkspace()

	infos := make([]Info, 0, len(counts))
	for ws, n := range counts {
		infos = append(infos, Info{
			ID:      ws,
			Windows: n,
			Bucket:  Classify(n, threshold).String(),
			Active:  activeErr == nil && ws == active,
		})
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].ID < infos[j].ID })
	return infos, nil
}

// partition splits counts into overloaded and free workspaces, both ordered
// by id.
func partition(counts map[platform.WorkspaceID]int, threshold int) (overloaded, free []platform.WorkspaceID) {
	ids := make([]platform.WorkspaceID, 0, len(counts))
	for ws := range counts {
		ids = append(ids, ws)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	for _, ws := range ids {
		switch Classify(counts[ws], threshold) {
		case Overloaded:
			overloaded = append(overloaded, ws)
		case Free:
			free = append(free, ws)
		}
	}
	return overloaded, free
}
