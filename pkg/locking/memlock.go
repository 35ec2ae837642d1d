package locking

import (
	"context"
	"sync"
)

// MemLock serializes callers within one process. It does nothing for other
// processes sharing the cache directory; FileLock covers those.
type MemLock struct {
	mu    sync.Mutex
	locks map[string]chan struct{}
}

func NewMemLock() *MemLock {
	return &MemLock{
		locks: make(map[string]chan struct{}),
	}
}

func (m *MemLock) DoWithLock(ctx context.Context, key string, fn func() (interface{}, error)) (interface{}, error) {
	m.mu.Lock()
	lock, ok := m.locks[key]
	if !ok {
		lock = make(chan struct{}, 1)
		m.locks[key] = lock
	}
	m.mu.Unlock()

	select {
	case lock <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	defer func() { <-lock }()

	return fn()
}
