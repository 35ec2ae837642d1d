package clinical

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/rs/zerolog"
	"github.com/terrycain/tcga-cache/pkg/e"
	"github.com/terrycain/tcga-cache/pkg/tcga"
	"github.com/terrycain/tcga-cache/pkg/tcga/tcgatest"
)

func TestMain(m *testing.M) {
	zerolog.SetGlobalLevel(zerolog.Disabled)
	os.Exit(m.Run())
}

const (
	patientFile = "nationwidechildrens.org_clinical_patient_luad.txt"
	drugFile    = "nationwidechildrens.org_clinical_drug_luad.txt"
	listingDir  = "luad/bcr/biotab/clin/"
)

func newRetriever(t *testing.T) (*Retriever, *tcgatest.Server) {
	t.Helper()

	srv := tcgatest.NewServer(t)
	srv.Files[listingDir+patientFile] = []byte("bcr_patient_barcode\tgender\n")
	srv.Files[listingDir+drugFile] = []byte("bcr_patient_barcode\tdrug_name\n")
	srv.Files[listingDir+"README.pdf"] = []byte("%PDF")

	opts := tcga.DefaultOptions()
	opts.ServiceURL = srv.ServiceURL()
	r := New(tcga.NewClient(opts), t.TempDir())
	r.ListingURL = srv.URL + "/files/%s/bcr/biotab/clin/"
	return r, srv
}

func TestRequestDownloadsTextFiles(t *testing.T) {
	r, _ := newRetriever(t)

	path, err := r.Request(context.Background(), "LUAD", true)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(filepath.Join(r.Root, "LUAD", patientFile), path); diff != "" {
		t.Fatal(diff)
	}

	entries, err := os.ReadDir(filepath.Join(r.Root, "LUAD"))
	if err != nil {
		t.Fatal(err)
	}
	var names []string
	for _, entry := range entries {
		names = append(names, entry.Name())
	}
	if diff := cmp.Diff([]string{drugFile, patientFile}, names); diff != "" {
		t.Fatal(diff)
	}
}

func TestRequestCacheHit(t *testing.T) {
	r, srv := newRetriever(t)

	first, err := r.Request(context.Background(), "LUAD", true)
	if err != nil {
		t.Fatal(err)
	}

	// Listing would now fail; a cache hit must not need it.
	srv.Files = map[string][]byte{}
	second, err := r.Request(context.Background(), "luad", true)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(first, second); diff != "" {
		t.Fatal(diff)
	}
}

func TestRequestBypassRefetches(t *testing.T) {
	r, srv := newRetriever(t)

	path, err := r.Request(context.Background(), "LUAD", true)
	if err != nil {
		t.Fatal(err)
	}

	srv.Files[listingDir+patientFile] = []byte("updated\n")
	if _, err = r.Request(context.Background(), "LUAD", false); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff("updated\n", string(data)); diff != "" {
		t.Fatal(diff)
	}
}

func TestRequestWithoutPatientFile(t *testing.T) {
	r, srv := newRetriever(t)
	delete(srv.Files, listingDir+patientFile)

	_, err := r.Request(context.Background(), "LUAD", true)
	if !errors.Is(err, e.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestRequestInvalidDisease(t *testing.T) {
	r, srv := newRetriever(t)

	_, err := r.Request(context.Background(), "../etc", true)

	var validationErr *e.ValidationError
	if !errors.As(err, &validationErr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if diff := cmp.Diff(0, srv.Calls()); diff != "" {
		t.Fatal(diff)
	}
}
