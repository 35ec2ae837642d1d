// Package datasets holds the preset requests for common TCGA data types and loads
// the resulting archives into data frames.
package datasets

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/go-gota/gota/dataframe"
	"github.com/terrycain/tcga-cache/pkg/cachedir"
	"github.com/terrycain/tcga-cache/pkg/resolver"
	"github.com/terrycain/tcga-cache/pkg/s"
)

type Resolver interface {
	Resolve(ctx context.Context, params s.RequestParameters, opts resolver.Options) (string, error)
}

type ClinicalSource interface {
	Request(ctx context.Context, disease string, useCache bool) (string, error)
}

// Loader fetches presets through the Resolver and unpacks them under
// <Root>/<DISEASE>/<kind>.
type Loader struct {
	Resolver Resolver
	Clinical ClinicalSource
	Root     string
	Options  resolver.Options
	// Centers are tried in order for mutation data.
	Centers []string
}

func NewLoader(r Resolver, clinical ClinicalSource, root string, opts resolver.Options) *Loader {
	return &Loader{
		Resolver: r,
		Clinical: clinical,
		Root:     root,
		Options:  opts,
		Centers:  SequencingCenters,
	}
}

func (l *Loader) resultDir(disease, kind string) (string, error) {
	dir, err := cachedir.DiseaseDir(l.Root, disease)
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, kind), nil
}

// attachClinical outer-joins the clinical patient table on TCGA_ID.
func (l *Loader) attachClinical(ctx context.Context, disease string, df dataframe.DataFrame) (dataframe.DataFrame, error) {
	clinical, err := l.LoadClinical(ctx, disease)
	if err != nil {
		return df, err
	}

	merged := df.OuterJoin(clinical, tcgaIDColumn)
	if merged.Err != nil {
		return df, fmt.Errorf("failed to join clinical data: %w", merged.Err)
	}
	return merged, nil
}

func normalizeDisease(disease string) string {
	return strings.ToUpper(strings.TrimSpace(disease))
}
