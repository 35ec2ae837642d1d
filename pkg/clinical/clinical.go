// Package clinical fetches the per-disease clinical flat files published next to the
// job service. They are not produced by jobs, so they are cached by file name under
// <root>/<DISEASE> instead of by fingerprint.
package clinical

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog/log"
	"github.com/terrycain/tcga-cache/pkg/cachedir"
	"github.com/terrycain/tcga-cache/pkg/e"
	"github.com/terrycain/tcga-cache/pkg/tcga"
)

// PatientFileCode marks the patient table among the clinical files.
const PatientFileCode = "clinical_patient"

type Transport interface {
	Fetch(ctx context.Context, url string) (io.ReadCloser, int64, error)
	Download(ctx context.Context, archiveURL, dest string, blockSize int) (tcga.DownloadResult, error)
}

type Retriever struct {
	Transport Transport
	Root      string
	// ListingURL is a format string taking the lower-case disease code.
	ListingURL string
	BlockSize  int
}

func New(transport Transport, root string) *Retriever {
	return &Retriever{
		Transport:  transport,
		Root:       root,
		ListingURL: tcga.ClinicalListingURL,
		BlockSize:  tcga.DefaultBlockSize,
	}
}

// Request downloads every clinical file for disease and returns the path of the
// patient table. With useCache set, a disease directory already holding exactly one
// patient table is returned without any network access.
func (r *Retriever) Request(ctx context.Context, disease string, useCache bool) (string, error) {
	dir, err := cachedir.DiseaseDir(r.Root, disease)
	if err != nil {
		return "", &e.ValidationError{Field: "disease", Reason: err.Error()}
	}

	if useCache {
		cached, err := patientFiles(dir)
		if err != nil {
			return "", err
		}
		if len(cached) == 1 {
			log.Debug().Str("path", cached[0]).Msg("Clinical data found in cache")
			return cached[0], nil
		}
	}

	listingURL := fmt.Sprintf(r.ListingURL, strings.ToLower(strings.TrimSpace(disease)))
	files, err := r.list(ctx, listingURL)
	if err != nil {
		return "", err
	}

	var patientPath string
	for _, file := range files {
		dest := filepath.Join(dir, file.name)
		log.Debug().Str("file", file.name).Str("path", dest).Msg("Saving clinical data file")

		if _, err = r.Transport.Download(ctx, file.url, dest, r.BlockSize); err != nil {
			return "", err
		}
		if strings.Contains(file.name, PatientFileCode) {
			patientPath = dest
		}
	}

	if patientPath == "" {
		return "", fmt.Errorf("no %s file listed at %s: %w", PatientFileCode, listingURL, e.ErrNotFound)
	}
	return patientPath, nil
}

type listedFile struct {
	name string
	url  string
}

// list returns the .txt files linked from the directory listing at listingURL.
func (r *Retriever) list(ctx context.Context, listingURL string) ([]listedFile, error) {
	base, err := url.Parse(listingURL)
	if err != nil {
		return nil, fmt.Errorf("invalid listing url: %w", err)
	}

	body, _, err := r.Transport.Fetch(ctx, listingURL)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	doc, err := goquery.NewDocumentFromReader(body)
	if err != nil {
		return nil, &e.ProtocolError{URL: listingURL, Reason: "listing is not valid HTML: " + err.Error()}
	}

	seen := make(map[string]bool)
	files := make([]listedFile, 0)
	doc.Find("a[href]").Each(func(_ int, link *goquery.Selection) {
		href, _ := link.Attr("href")
		if !strings.HasSuffix(href, ".txt") {
			return
		}
		ref, err := url.Parse(href)
		if err != nil {
			return
		}
		resolved := base.ResolveReference(ref)
		name := path.Base(resolved.Path)
		if seen[name] {
			return
		}
		seen[name] = true
		files = append(files, listedFile{name: name, url: resolved.String()})
	})

	log.Info().Str("url", listingURL).Int("files", len(files)).Msg("Listed clinical data files")
	return files, nil
}

func patientFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, &e.IOError{Path: dir, Err: err}
	}

	var matches []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.Type().IsRegular() && strings.HasSuffix(name, ".txt") && strings.Contains(name, PatientFileCode) {
			matches = append(matches, filepath.Join(dir, name))
		}
	}
	return matches, nil
}
