// Package archive unpacks cached job archives.
package archive

import (
	"archive/tar"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/terrycain/tcga-cache/pkg/e"
	"github.com/terrycain/tcga-cache/pkg/storage/disk"
)

type Options struct {
	// Filter selects members by their name inside the archive. Nil extracts everything.
	Filter func(name string) bool
	// SkipExisting leaves files already present in the destination untouched.
	SkipExisting bool
	// Flatten drops directory components and writes every member directly into dest.
	Flatten bool
}

// Contains returns a filter matching member names containing substr.
func Contains(substr string) func(string) bool {
	return func(name string) bool { return strings.Contains(name, substr) }
}

// Suffix returns a filter matching member names ending in suffix.
func Suffix(suffix string) func(string) bool {
	return func(name string) bool { return strings.HasSuffix(name, suffix) }
}

// Any matches a member accepted by any of filters.
func Any(filters ...func(string) bool) func(string) bool {
	return func(name string) bool {
		for _, f := range filters {
			if f(name) {
				return true
			}
		}
		return false
	}
}

// Extract unpacks the regular files of the tar archive at archivePath into dest
// and returns their paths in archive order. Members that would land outside dest
// are rejected.
func Extract(archivePath, dest string, opts Options) ([]string, error) {
	f, err := os.Open(archivePath)
	if err != nil {
		return nil, &e.IOError{Path: archivePath, Err: err}
	}
	defer f.Close()

	if err = os.MkdirAll(dest, 0o755); err != nil {
		return nil, &e.IOError{Path: dest, Err: err}
	}

	var extracted []string
	written := make(map[string]string)
	reader := tar.NewReader(f)
	for {
		header, err := reader.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return extracted, fmt.Errorf("failed to read %s: %w", archivePath, err)
		}
		if header.Typeflag != tar.TypeReg {
			continue
		}
		if opts.Filter != nil && !opts.Filter(header.Name) {
			continue
		}

		target, err := memberPath(dest, header.Name, opts.Flatten)
		if err != nil {
			return extracted, err
		}

		// Flattening can map members from different directories onto one name.
		if first, seen := written[target]; seen {
			log.Warn().Str("archive", archivePath).Str("member", header.Name).Str("kept", first).Msg("Skipping archive member with duplicate flattened name")
			continue
		}
		written[target] = header.Name

		if opts.SkipExisting {
			if info, statErr := os.Stat(target); statErr == nil && info.Mode().IsRegular() {
				extracted = append(extracted, target)
				continue
			}
		}

		if err = writeMember(target, reader); err != nil {
			return extracted, err
		}
		extracted = append(extracted, target)
	}

	log.Debug().Str("archive", archivePath).Str("dest", dest).Int("files", len(extracted)).Msg("Extracted archive")
	return extracted, nil
}

func memberPath(dest, name string, flatten bool) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(name))
	if flatten {
		clean = filepath.Base(clean)
	}
	if filepath.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("archive member %q escapes destination", name)
	}
	return filepath.Join(dest, clean), nil
}

func writeMember(target string, r io.Reader) error {
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return &e.IOError{Path: target, Err: err}
	}

	af, err := disk.CreateAtomic(target)
	if err != nil {
		return &e.IOError{Path: target, Err: err}
	}
	if _, err = io.Copy(af, r); err != nil {
		_ = af.Discard()
		return fmt.Errorf("failed to extract %s: %w", target, err)
	}
	if err = af.Commit(); err != nil {
		return &e.IOError{Path: target, Err: err}
	}
	return nil
}
