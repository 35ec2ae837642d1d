package disk

import (
	"fmt"
	"os"

	"github.com/google/uuid"
)

// AtomicFile is written under a temporary name next to its destination and only
// appears at the destination once Commit succeeds.
type AtomicFile struct {
	fp       *os.File
	path     string
	tempPath string
	closed   bool
}

func CreateAtomic(path string) (*AtomicFile, error) {
	tempPath := path + "." + uuid.NewString() + ".partial"

	fp, err := os.OpenFile(tempPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, err
	}

	return &AtomicFile{fp: fp, path: path, tempPath: tempPath}, nil
}

func (a *AtomicFile) Write(p []byte) (int, error) {
	return a.fp.Write(p)
}

// Commit closes the temporary file and renames it into place.
func (a *AtomicFile) Commit() error {
	if a.closed {
		return fmt.Errorf("%s already finished", a.tempPath)
	}
	a.closed = true

	if err := a.fp.Close(); err != nil {
		_ = os.Remove(a.tempPath)
		return err
	}

	if err := os.Rename(a.tempPath, a.path); err != nil {
		_ = os.Remove(a.tempPath)
		return err
	}
	return nil
}

// Discard removes the temporary file. It is a no-op after Commit.
func (a *AtomicFile) Discard() error {
	if a.closed {
		return nil
	}
	a.closed = true

	_ = a.fp.Close()
	return os.Remove(a.tempPath)
}
