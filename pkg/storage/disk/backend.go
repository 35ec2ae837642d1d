package disk

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/terrycain/tcga-cache/pkg/cachedir"
	"github.com/terrycain/tcga-cache/pkg/e"
	"github.com/terrycain/tcga-cache/pkg/fingerprint"
	"github.com/terrycain/tcga-cache/pkg/s"
)

type Backend struct {
	BaseDir string
}

// New returns a disk backend rooted at connectionString, or at the default per-user
// data directory when it is empty.
func New(connectionString string) (*Backend, error) {
	root, err := cachedir.EnsureRoot(connectionString)
	if err != nil {
		return nil, err
	}

	backend := Backend{BaseDir: root}
	return &backend, nil
}

func (b *Backend) Setup() error {
	_, err := cachedir.EnsureRoot(b.BaseDir)
	return err
}

func (b *Backend) Type() string {
	return "disk"
}

func (b *Backend) Root() string {
	return b.BaseDir
}

func (b *Backend) ArchivePath(fp s.Fingerprint) string {
	return filepath.Join(b.BaseDir, fp.ArchiveName())
}

func (b *Backend) metadataPath(fp s.Fingerprint) string {
	return filepath.Join(b.BaseDir, fp.MetadataName())
}

// Exists reports whether the archive for fp is present.
func (b *Backend) Exists(fp s.Fingerprint) (bool, error) {
	info, err := os.Stat(b.ArchivePath(fp))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	return info.Mode().IsRegular(), nil
}

func (b *Backend) WriteMetadata(meta s.ArchiveMetadata) error {
	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal metadata: %w", err)
	}

	af, err := CreateAtomic(b.metadataPath(meta.Fingerprint))
	if err != nil {
		return fmt.Errorf("failed to create metadata file: %w", err)
	}
	if _, err = af.Write(data); err != nil {
		_ = af.Discard()
		return fmt.Errorf("failed to write metadata: %w", err)
	}
	return af.Commit()
}

func (b *Backend) ReadMetadata(fp s.Fingerprint) (s.ArchiveMetadata, error) {
	data, err := os.ReadFile(b.metadataPath(fp))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return s.ArchiveMetadata{}, e.ErrNotFound
		}
		return s.ArchiveMetadata{}, err
	}

	var meta s.ArchiveMetadata
	if err = json.Unmarshal(data, &meta); err != nil {
		return s.ArchiveMetadata{}, fmt.Errorf("corrupt metadata for %s: %w", fp, err)
	}
	return meta, nil
}

// List returns one entry per cached archive, newest first. Archives without a
// readable sidecar are still listed with their size and modification time.
func (b *Backend) List() ([]s.ArchiveMetadata, error) {
	entries, err := os.ReadDir(b.BaseDir)
	if err != nil {
		return nil, err
	}

	result := make([]s.ArchiveMetadata, 0)
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".tar") {
			continue
		}
		fp := s.Fingerprint(strings.TrimSuffix(name, ".tar"))
		if !fingerprint.Valid(string(fp)) {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			return nil, err
		}

		meta, err := b.ReadMetadata(fp)
		if err != nil && !errors.Is(err, e.ErrNotFound) {
			log.Warn().Err(err).Str("fingerprint", string(fp)).Msg("Failed to read archive metadata")
		}
		meta.Fingerprint = fp
		meta.Size = info.Size()
		if meta.DownloadedAt.IsZero() {
			meta.DownloadedAt = info.ModTime().UTC()
		}
		result = append(result, meta)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].DownloadedAt.After(result[j].DownloadedAt)
	})
	return result, nil
}

// GetFilePath maps a fingerprint key to its archive path.
func (b *Backend) GetFilePath(key string) (string, error) {
	if !fingerprint.Valid(key) {
		return "", e.ErrNotFound
	}

	fp := s.Fingerprint(key)
	exists, err := b.Exists(fp)
	if err != nil {
		return "", err
	}
	if !exists {
		return "", e.ErrNotFound
	}

	return b.ArchivePath(fp), nil
}
