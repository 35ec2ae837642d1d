package datasets

import (
	"context"
	"fmt"

	"github.com/go-gota/gota/dataframe"
	"github.com/rs/zerolog/log"
	"github.com/terrycain/tcga-cache/pkg/tabular"
)

const (
	PatientBarcodeColumn = "bcr_patient_barcode"
	tcgaIDColumn         = tabular.ColTCGAID
)

// LoadClinical loads the patient table. A copy of bcr_patient_barcode is added as
// TCGA_ID so it joins with the other datasets.
func (l *Loader) LoadClinical(ctx context.Context, disease string) (dataframe.DataFrame, error) {
	path, err := l.Clinical.Request(ctx, disease, true)
	if err != nil {
		return dataframe.DataFrame{}, err
	}

	// Column names are on the second line of a biotab file, CDE ids on the third.
	df, err := tabular.ReadFile(path, tabular.Options{SkipRows: 1, SkipAfterHeader: 1})
	if err != nil {
		return df, err
	}

	barcodes := df.Col(PatientBarcodeColumn)
	if barcodes.Err != nil {
		return df, fmt.Errorf("%s: %w", path, barcodes.Err)
	}
	ids := barcodes.Copy()
	ids.Name = tcgaIDColumn
	df = df.Mutate(ids)
	if df.Err != nil {
		return df, df.Err
	}

	log.Info().
		Int("rows", df.Nrow()).
		Int("patients", tabular.Unique(df, PatientBarcodeColumn)).
		Msg("Loaded clinical data")
	return df, nil
}
