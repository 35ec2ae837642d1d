package datasets

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/rs/zerolog/log"
	"github.com/terrycain/tcga-cache/pkg/archive"
	"github.com/terrycain/tcga-cache/pkg/e"
	"github.com/terrycain/tcga-cache/pkg/s"
	"github.com/terrycain/tcga-cache/pkg/tabular"
)

// SequencingCenters produced the somatic mutation calls; every study has data from
// one of them.
var SequencingCenters = []string{"BI", "BCM", "WUSM"}

const (
	VariantAll   = "all"
	VariantIndel = "indel"

	sampleBarcodeColumn = "Tumor_Sample_Barcode"
	variantTypeColumn   = "Variant_Type"
)

func MutationParams(disease, center string) s.RequestParameters {
	p := s.NewRequestParameters(disease)
	p.Center = s.String(center)
	p.Level = s.String("2")
	p.PlatformType = s.String("Somatic Mutations")
	p.Platform = s.String("Automated Mutation Calling")
	return p
}

// PrefetchMutations resolves the mutation archive, moving on to the next center
// whenever the service reports no data. If no center has data it returns
// e.ErrNoCenterData.
func (l *Loader) PrefetchMutations(ctx context.Context, disease string) (string, error) {
	for _, center := range l.Centers {
		path, err := l.Resolver.Resolve(ctx, MutationParams(disease, center), l.Options)
		if err == nil {
			return path, nil
		}
		if !e.IsSoft(err) {
			return "", err
		}
		log.Debug().Err(err).Str("disease", disease).Str("center", center).Msg("Center has no mutation data")
	}
	return "", fmt.Errorf("%s mutations from %s: %w", normalizeDisease(disease), strings.Join(l.Centers, ", "), e.ErrNoCenterData)
}

type MutationOptions struct {
	// VariantType keeps only one Variant_Type, e.g. "SNP". VariantIndel keeps
	// insertions and deletions; "" or VariantAll keeps everything.
	VariantType  string
	WithClinical bool
}

// LoadMutations loads every MAF file of the mutation archive with the barcode
// split into TCGA_ID and its parts.
func (l *Loader) LoadMutations(ctx context.Context, disease string, opts MutationOptions) (dataframe.DataFrame, error) {
	archivePath, err := l.PrefetchMutations(ctx, disease)
	if err != nil {
		return dataframe.DataFrame{}, err
	}

	resultDir, err := l.resultDir(disease, "mutations")
	if err != nil {
		return dataframe.DataFrame{}, err
	}
	mafFiles, err := archive.Extract(archivePath, resultDir, archive.Options{Filter: archive.Suffix(".maf"), Flatten: true})
	if err != nil {
		return dataframe.DataFrame{}, err
	}
	if len(mafFiles) == 0 {
		return dataframe.DataFrame{}, fmt.Errorf("no .maf files in %s: %w", archivePath, e.ErrNotFound)
	}

	frames := make([]dataframe.DataFrame, 0, len(mafFiles))
	for _, maf := range mafFiles {
		df, err := tabular.ReadFile(maf, tabular.Options{})
		if err != nil {
			return dataframe.DataFrame{}, err
		}
		frames = append(frames, df)
	}

	mutations, err := tabular.Concat(frames...)
	if err != nil {
		return mutations, err
	}
	if mutations, err = tabular.WithBarcodeColumns(mutations, sampleBarcodeColumn); err != nil {
		return mutations, err
	}
	if mutations, err = filterVariants(mutations, opts.VariantType); err != nil {
		return mutations, err
	}

	log.Info().
		Int("mutations", mutations.Nrow()).
		Int("tumors", tabular.Unique(mutations, sampleBarcodeColumn)).
		Int("patients", tabular.Unique(mutations, tcgaIDColumn)).
		Msg("Loaded mutations")

	if opts.WithClinical {
		return l.attachClinical(ctx, disease, mutations)
	}
	return mutations, nil
}

func filterVariants(df dataframe.DataFrame, variantType string) (dataframe.DataFrame, error) {
	var filters []dataframe.F
	switch strings.ToLower(variantType) {
	case "", VariantAll:
		return df, nil
	case VariantIndel:
		filters = []dataframe.F{
			{Colname: variantTypeColumn, Comparator: series.Eq, Comparando: "INS"},
			{Colname: variantTypeColumn, Comparator: series.Eq, Comparando: "DEL"},
		}
	default:
		filters = []dataframe.F{{Colname: variantTypeColumn, Comparator: series.Eq, Comparando: variantType}}
	}

	filtered := df.Filter(filters...)
	if filtered.Err != nil {
		return df, fmt.Errorf("failed to filter variants: %w", filtered.Err)
	}
	return filtered, nil
}
