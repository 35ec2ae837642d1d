package cachedir

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
)

const (
	SchemeName    = "tcga-cache"
	SchemeVersion = "0.1"
)

// DefaultRoot is the per-user data directory for the current cache scheme.
func DefaultRoot() string {
	return filepath.Join(xdg.DataHome, SchemeName, SchemeVersion)
}

// EnsureRoot resolves dir (or DefaultRoot when empty) to an absolute path and
// creates it along with any missing parents. It never removes anything.
func EnsureRoot(dir string) (string, error) {
	if dir == "" {
		dir = DefaultRoot()
	}

	absDir, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("failed to get absolute path: %w", err)
	}

	if err := os.MkdirAll(absDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create cache directory: %w", err)
	}

	return absDir, nil
}

// DiseaseDir returns <root>/<DISEASE>, creating it if needed.
func DiseaseDir(root, disease string) (string, error) {
	disease = strings.ToUpper(strings.TrimSpace(disease))
	if disease == "" || strings.ContainsAny(disease, `/\`) || disease == "." || disease == ".." {
		return "", fmt.Errorf("invalid disease code %q", disease)
	}

	dir := filepath.Join(root, disease)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create disease directory: %w", err)
	}
	return dir, nil
}
