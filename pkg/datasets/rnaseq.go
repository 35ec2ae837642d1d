package datasets

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/rs/zerolog/log"
	"github.com/terrycain/tcga-cache/pkg/archive"
	"github.com/terrycain/tcga-cache/pkg/e"
	"github.com/terrycain/tcga-cache/pkg/s"
	"github.com/terrycain/tcga-cache/pkg/tabular"
)

const (
	FileSampleMap      = "FILE_SAMPLE_MAP.txt"
	GeneQuantification = "genes.normalized_results"
	GeneNameColumn     = "gene_name"

	geneIDColumn           = "gene_id"
	normalizedCountColumn  = "normalized_count"
	sampleMapFileColumn    = "filename"
	sampleMapBarcodeColumn = "barcode(s)"
)

func RNASeqParams(disease string) s.RequestParameters {
	p := s.NewRequestParameters(disease)
	p.Center = s.String("7")
	p.Level = s.String("3")
	p.PlatformType = s.String("RNASeqV2")
	p.Platform = s.String("IlluminaHiSeq_RNASeqV2")
	return p
}

func (l *Loader) PrefetchRNASeq(ctx context.Context, disease string) (string, error) {
	return l.Resolver.Resolve(ctx, RNASeqParams(disease), l.Options)
}

// LoadRNASeq loads the normalized gene quantifications of every sample, tagged with
// the sample's TCGA_ID and the gene name.
func (l *Loader) LoadRNASeq(ctx context.Context, disease string, withClinical bool) (dataframe.DataFrame, error) {
	archivePath, err := l.PrefetchRNASeq(ctx, disease)
	if err != nil {
		return dataframe.DataFrame{}, err
	}

	resultDir, err := l.resultDir(disease, "gene_expression")
	if err != nil {
		return dataframe.DataFrame{}, err
	}
	_, err = archive.Extract(archivePath, resultDir, archive.Options{
		Filter:       archive.Any(archive.Contains(GeneQuantification), archive.Suffix(FileSampleMap)),
		SkipExisting: true,
		Flatten:      true,
	})
	if err != nil {
		return dataframe.DataFrame{}, err
	}

	sampleMap, err := tabular.ReadFile(filepath.Join(resultDir, FileSampleMap), tabular.Options{})
	if err != nil {
		return dataframe.DataFrame{}, err
	}
	if sampleMap, err = tabular.WithBarcodeColumns(sampleMap, sampleMapBarcodeColumn); err != nil {
		return dataframe.DataFrame{}, err
	}

	files := sampleMap.Col(sampleMapFileColumn).Records()
	ids := sampleMap.Col(tcgaIDColumn).Records()

	var frames []dataframe.DataFrame
	for i, file := range files {
		if !strings.Contains(file, GeneQuantification) {
			continue
		}
		df, err := loadQuantification(filepath.Join(resultDir, filepath.Base(file)), ids[i])
		if err != nil {
			return dataframe.DataFrame{}, err
		}
		frames = append(frames, df)
	}
	if len(frames) == 0 {
		return dataframe.DataFrame{}, fmt.Errorf("no %s files listed in %s: %w", GeneQuantification, FileSampleMap, e.ErrNotFound)
	}

	expression, err := tabular.Concat(frames...)
	if err != nil {
		return expression, err
	}

	log.Info().
		Int("rows", expression.Nrow()).
		Int("patients", tabular.Unique(expression, tcgaIDColumn)).
		Msg("Loaded gene expression")

	if withClinical {
		return l.attachClinical(ctx, disease, expression)
	}
	return expression, nil
}

func loadQuantification(path, tcgaID string) (dataframe.DataFrame, error) {
	df, err := tabular.ReadFile(path, tabular.Options{Types: map[string]series.Type{normalizedCountColumn: series.Float}})
	if err != nil {
		return df, err
	}

	geneIDs := df.Col(geneIDColumn).Records()
	names := make([]string, len(geneIDs))
	patient := make([]string, len(geneIDs))
	for i, id := range geneIDs {
		names[i] = strings.SplitN(id, "|", 2)[0]
		patient[i] = tcgaID
	}

	df = df.Mutate(series.New(patient, series.String, tcgaIDColumn)).
		Mutate(series.New(names, series.String, GeneNameColumn))
	if df.Err != nil {
		return df, fmt.Errorf("%s: %w", path, df.Err)
	}
	return df, nil
}
