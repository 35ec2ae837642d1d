package storage

import (
	"errors"

	"github.com/terrycain/tcga-cache/pkg/s"
	"github.com/terrycain/tcga-cache/pkg/storage/disk"
)

// Backend is the local archive store. Archives are addressed by request fingerprint.
type Backend interface {
	Setup() error
	Type() string
	Root() string
	ArchivePath(fp s.Fingerprint) string
	Exists(fp s.Fingerprint) (bool, error)
	WriteMetadata(meta s.ArchiveMetadata) error
	ReadMetadata(fp s.Fingerprint) (s.ArchiveMetadata, error)
	List() ([]s.ArchiveMetadata, error)
	GetFilePath(key string) (string, error)
}

func GetStorageBackend(backend, connectionString string) (Backend, error) {
	var b Backend
	var err error

	switch backend {
	case "disk", "":
		b, err = disk.New(connectionString)
	default:
		return nil, errors.New("invalid storage backend")
	}

	if err != nil {
		return nil, err
	}

	if err := b.Setup(); err != nil {
		return nil, err
	}

	return b, nil
}
