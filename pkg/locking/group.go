package locking

import (
	"context"
	"fmt"
)

// Group runs functions with mutual exclusion over sets of keys.
type Group interface {
	// DoWithLock runs fn while holding the lock for key. It gives up waiting for
	// the lock when ctx is done.
	DoWithLock(ctx context.Context, key string, fn func() (interface{}, error)) (interface{}, error)
}

// GetGroup returns the Group for mode. "file" (or "") locks across processes using
// files under dir, "memory" only within this process and "none" not at all.
func GetGroup(mode, dir string) (Group, error) {
	switch mode {
	case "file", "":
		return NewFileLock(dir)
	case "memory":
		return NewMemLock(), nil
	case "none":
		return NewNoOpGroup(), nil
	default:
		return nil, fmt.Errorf("invalid locking mode %q", mode)
	}
}
