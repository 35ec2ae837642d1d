package locking

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/go-cmp/cmp"
)

func testMutualExclusion(t *testing.T, group Group) {
	t.Helper()

	var active, maxActive int32
	var wg sync.WaitGroup

	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := group.DoWithLock(context.Background(), "same-key", func() (interface{}, error) {
				now := atomic.AddInt32(&active, 1)
				for {
					old := atomic.LoadInt32(&maxActive)
					if now <= old || atomic.CompareAndSwapInt32(&maxActive, old, now) {
						break
					}
				}
				time.Sleep(5 * time.Millisecond)
				atomic.AddInt32(&active, -1)
				return nil, nil
			})
			if err != nil {
				t.Errorf("DoWithLock: %v", err)
			}
		}()
	}
	wg.Wait()

	if diff := cmp.Diff(int32(1), maxActive); diff != "" {
		t.Fatal(diff)
	}
}

func TestMemLockMutualExclusion(t *testing.T) {
	testMutualExclusion(t, NewMemLock())
}

func TestFileLockMutualExclusion(t *testing.T) {
	group, err := NewFileLock(filepath.Join(t.TempDir(), ".locks"))
	if err != nil {
		t.Fatal(err)
	}
	testMutualExclusion(t, group)
}

func TestGroupsReturnValues(t *testing.T) {
	fileLock, err := NewFileLock(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	sentinel := errors.New("sentinel")

	for name, group := range map[string]Group{"noop": NewNoOpGroup(), "mem": NewMemLock(), "file": fileLock} {
		t.Run(name, func(t *testing.T) {
			v, err := group.DoWithLock(context.Background(), "k", func() (interface{}, error) {
				return "value", sentinel
			})
			if !errors.Is(err, sentinel) {
				t.Fatalf("expected sentinel error, got %v", err)
			}
			if diff := cmp.Diff("value", v); diff != "" {
				t.Fatal(diff)
			}
		})
	}
}

func TestFileLockWaitsForOtherHolder(t *testing.T) {
	dir := t.TempDir()
	group, err := NewFileLock(dir)
	if err != nil {
		t.Fatal(err)
	}
	group.retryDelay = 5 * time.Millisecond

	// Simulates another process holding the lock.
	other := flock.New(filepath.Join(dir, "k.lock"))
	if locked, err := other.TryLock(); err != nil || !locked {
		t.Fatalf("failed to take lock: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	_, err = group.DoWithLock(ctx, "k", func() (interface{}, error) {
		t.Fatal("fn must not run while another holder has the lock")
		return nil, nil
	})
	if err == nil {
		t.Fatal("expected an error when the context expires")
	}

	if err = other.Unlock(); err != nil {
		t.Fatal(err)
	}

	ran := false
	_, err = group.DoWithLock(context.Background(), "k", func() (interface{}, error) {
		ran = true
		return nil, nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if !ran {
		t.Fatal("fn did not run after the lock was released")
	}
}

func TestGetGroup(t *testing.T) {
	dir := filepath.Join(t.TempDir(), ".locks")

	tests := []struct {
		mode string
		want string
	}{
		{"", "*locking.FileLock"},
		{"file", "*locking.FileLock"},
		{"memory", "*locking.MemLock"},
		{"none", "*locking.NoOpGroup"},
	}
	for _, tt := range tests {
		t.Run(tt.mode, func(t *testing.T) {
			group, err := GetGroup(tt.mode, dir)
			if err != nil {
				t.Fatal(err)
			}
			if diff := cmp.Diff(tt.want, fmt.Sprintf("%T", group)); diff != "" {
				t.Fatal(diff)
			}
		})
	}

	if _, err := GetGroup("etcd", dir); err == nil {
		t.Fatal("expected an error for an unknown mode")
	}
}
