//go:build linux

package main

import "github.com/1broseidon/treetile/internal/platform"

func openWindowSystem(display string) (platform.WindowSystem, func(), error) {
	backend, err := platform.NewLinuxBackendFromDisplay(display)
	if err != nil {
		return nil, nil, err
	}
	return backend, backend.Disconnect, nil
}
