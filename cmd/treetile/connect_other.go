//go:build !linux

package main

import (
	"errors"
	"fmt"

	"github.com/1broseidon/treetile/internal/platform"
)

func openWindowSystem(string) (platform.WindowSystem, func(), error) {
	return nil, nil, fmt.Errorf("%w: the X11 backend is only built on linux", errors.ErrUnsupported)
}
