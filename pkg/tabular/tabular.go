// Package tabular loads the tab-separated files found in TCGA archives into data frames.
package tabular

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/terrycain/tcga-cache/pkg/e"
)

// NotAvailable is how TCGA files spell a missing value.
const NotAvailable = "[Not Available]"

var DefaultNaNValues = []string{NotAvailable, "NA", "NaN", "<nil>"}

// Barcode component columns, most significant first.
const (
	ColTCGAID    = "TCGA_ID"
	ColSampleID  = "SampleID"
	ColPortionID = "PortionID"
	ColPlateID   = "PlateID"
	ColCenterID  = "CenterID"
)

var BarcodeColumns = []string{ColTCGAID, ColSampleID, ColPortionID, ColPlateID, ColCenterID}

type Options struct {
	// SkipRows drops this many lines before the header.
	SkipRows int
	// SkipAfterHeader drops this many lines between the header and the data.
	SkipAfterHeader int
	NaNValues       []string
	// Types forces column types. Columns not listed are read as strings.
	Types map[string]series.Type
}

// Read parses a tab-separated table. Columns are strings unless listed in opts.Types.
func Read(r io.Reader, opts Options) (dataframe.DataFrame, error) {
	body, err := dropLines(r, opts.SkipRows, opts.SkipAfterHeader)
	if err != nil {
		return dataframe.DataFrame{}, err
	}

	nanValues := opts.NaNValues
	if nanValues == nil {
		nanValues = DefaultNaNValues
	}

	loadOpts := []dataframe.LoadOption{
		dataframe.WithDelimiter('\t'),
		dataframe.HasHeader(true),
		dataframe.WithLazyQuotes(true),
		dataframe.NaNValues(nanValues),
		dataframe.DetectTypes(false),
		dataframe.DefaultType(series.String),
	}
	if len(opts.Types) > 0 {
		loadOpts = append(loadOpts, dataframe.WithTypes(opts.Types))
	}

	df := dataframe.ReadCSV(body, loadOpts...)
	if df.Err != nil {
		return df, fmt.Errorf("failed to parse table: %w", df.Err)
	}
	return df, nil
}

func ReadFile(path string, opts Options) (dataframe.DataFrame, error) {
	f, err := os.Open(path)
	if err != nil {
		return dataframe.DataFrame{}, &e.IOError{Path: path, Err: err}
	}
	defer f.Close()

	df, err := Read(f, opts)
	if err != nil {
		return df, fmt.Errorf("%s: %w", path, err)
	}
	return df, nil
}

// dropLines removes skip lines before the header and after lines after it.
func dropLines(r io.Reader, skip, after int) (io.Reader, error) {
	if skip == 0 && after == 0 {
		return r, nil
	}

	var out bytes.Buffer
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	line := 0
	for scanner.Scan() {
		switch {
		case line < skip:
		case line > skip && line <= skip+after:
		default:
			out.Write(scanner.Bytes())
			out.WriteByte('\n')
		}
		line++
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read table: %w", err)
	}
	return &out, nil
}

// SplitBarcode splits a TCGA barcode from the right into the patient ID followed by
// the sample, portion, plate and center parts. Short barcodes leave the trailing
// parts empty.
func SplitBarcode(barcode string) []string {
	maxSplits := len(BarcodeColumns) - 1
	var tail []string
	rest := barcode
	for len(tail) < maxSplits {
		idx := strings.LastIndex(rest, "-")
		if idx < 0 {
			break
		}
		tail = append(tail, rest[idx+1:])
		rest = rest[:idx]
	}

	parts := make([]string, len(BarcodeColumns))
	parts[0] = rest
	for i := range tail {
		parts[i+1] = tail[len(tail)-1-i]
	}
	return parts
}

// WithBarcodeColumns adds the BarcodeColumns parsed from column to df.
func WithBarcodeColumns(df dataframe.DataFrame, column string) (dataframe.DataFrame, error) {
	if !hasColumn(df, column) {
		return df, fmt.Errorf("missing column %s", column)
	}

	values := make([][]string, len(BarcodeColumns))
	for i := range values {
		values[i] = make([]string, df.Nrow())
	}
	for row, barcode := range df.Col(column).Records() {
		for i, part := range SplitBarcode(barcode) {
			values[i][row] = part
		}
	}

	for i, name := range BarcodeColumns {
		df = df.Mutate(series.New(values[i], series.String, name))
		if df.Err != nil {
			return df, df.Err
		}
	}
	return df, nil
}

// Concat stacks frames with the same columns.
func Concat(frames ...dataframe.DataFrame) (dataframe.DataFrame, error) {
	if len(frames) == 0 {
		return dataframe.DataFrame{}, fmt.Errorf("no tables to concatenate")
	}

	result := frames[0]
	for _, df := range frames[1:] {
		result = result.RBind(df)
		if result.Err != nil {
			return result, fmt.Errorf("failed to concatenate tables: %w", result.Err)
		}
	}
	return result, nil
}

// Unique returns the number of distinct non-empty values in column.
func Unique(df dataframe.DataFrame, column string) int {
	if !hasColumn(df, column) {
		return 0
	}
	col := df.Col(column)
	seen := make(map[string]struct{})
	for i, v := range col.Records() {
		if v == "" || col.Elem(i).IsNA() {
			continue
		}
		seen[v] = struct{}{}
	}
	return len(seen)
}

func hasColumn(df dataframe.DataFrame, column string) bool {
	for _, name := range df.Names() {
		if name == column {
			return true
		}
	}
	return false
}
