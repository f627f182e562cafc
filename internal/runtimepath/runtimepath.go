// Package runtimepath locates the daemon's control socket.
package runtimepath

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

const (
	// SocketName is the control socket's file name inside the runtime directory.
	SocketName = "treetile.sock"
	// SocketEnv names an environment variable that overrides the socket path.
	SocketEnv = "TREETILE_SOCKET"
)

// Dir returns the per-user runtime directory: $XDG_RUNTIME_DIR, then
// /run/user/<uid>, then a private directory under os.TempDir.
func Dir() (string, error) {
	if dir := os.Getenv("XDG_RUNTIME_DIR"); dir != "" {
		return dir, nil
	}

	uid := os.Getuid()
	runUser := filepath.Join("/run/user", strconv.Itoa(uid))
	if info, err := os.Stat(runUser); err == nil && info.IsDir() {
		return runUser, nil
	}

	return privateTempDir(fmt.Sprintf("treetile-runtime-%d", uid))
}

// privateTempDir creates name under os.TempDir and refuses an existing
// directory that other users can reach.
func privateTempDir(name string) (string, error) {
	dir := filepath.Join(os.TempDir(), name)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", fmt.Errorf("failed to create runtime dir: %w", err)
	}
	info, err := os.Stat(dir)
	if err != nil {
		return "", fmt.Errorf("failed to stat runtime dir: %w", err)
	}
	if perm := info.Mode().Perm(); perm&0o077 != 0 {
		return "", fmt.Errorf("runtime dir %s is accessible by other users (mode %04o)", dir, perm)
	}
	return dir, nil
}

// SocketPath returns $TREETILE_SOCKET when set, otherwise SocketName
// inside Dir.
func SocketPath() (string, error) {
	if path := os.Getenv(SocketEnv); path != "" {
		return path, nil
	}
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, SocketName), nil
}
