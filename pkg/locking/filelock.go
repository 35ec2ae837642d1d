package locking

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	"github.com/rs/zerolog/log"
)

const DefaultRetryDelay = 250 * time.Millisecond

// FileLock takes an advisory lock on <dir>/<key>.lock so that processes sharing a
// cache directory do not fetch the same key twice. Callers in the same process are
// queued on a MemLock first.
type FileLock struct {
	dir        string
	retryDelay time.Duration
	local      *MemLock
}

func NewFileLock(dir string) (*FileLock, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create lock directory: %w", err)
	}

	return &FileLock{
		dir:        dir,
		retryDelay: DefaultRetryDelay,
		local:      NewMemLock(),
	}, nil
}

func (f *FileLock) DoWithLock(ctx context.Context, key string, fn func() (interface{}, error)) (interface{}, error) {
	return f.local.DoWithLock(ctx, key, func() (interface{}, error) {
		fileLock := flock.New(filepath.Join(f.dir, key+".lock"))

		locked, err := fileLock.TryLock()
		if err != nil {
			return nil, fmt.Errorf("failed to lock %s: %w", key, err)
		}
		if !locked {
			log.Info().Str("key", key).Msg("Waiting for another process holding the lock")
			locked, err = fileLock.TryLockContext(ctx, f.retryDelay)
			if err != nil {
				return nil, fmt.Errorf("failed to lock %s: %w", key, err)
			}
			if !locked {
				return nil, ctx.Err()
			}
		}
		defer func() {
			if err := fileLock.Unlock(); err != nil {
				log.Warn().Err(err).Str("key", key).Msg("Failed to release lock")
			}
		}()

		return fn()
	})
}
