package tcga

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/rs/zerolog"
	"github.com/terrycain/tcga-cache/pkg/e"
	"github.com/terrycain/tcga-cache/pkg/s"
	"github.com/terrycain/tcga-cache/pkg/tcga/tcgatest"
)

func TestMain(m *testing.M) {
	zerolog.SetGlobalLevel(zerolog.Disabled)
	if _, exists := os.LookupEnv("DEBUG"); exists {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
	os.Exit(m.Run())
}

func newTestClient(serviceURL string) *Client {
	opts := DefaultOptions()
	opts.ServiceURL = serviceURL
	opts.Timeout = 5 * time.Second
	return NewClient(opts)
}

func mutationParams() s.RequestParameters {
	p := s.NewRequestParameters("luad")
	p.Center = s.String("BI")
	p.Level = s.String("2")
	p.Platform = s.String("Automated Mutation Calling")
	p.PlatformType = s.String("Somatic Mutations")
	return p
}

func TestSubmitRequiresPlatform(t *testing.T) {
	srv := tcgatest.NewServer(t)
	client := newTestClient(srv.ServiceURL())

	params := mutationParams()
	params.Platform = nil

	_, err := client.Submit(context.Background(), params)

	var validationErr *e.ValidationError
	if !errors.As(err, &validationErr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if diff := cmp.Diff(s.FieldPlatform, validationErr.Field); diff != "" {
		t.Fatal(diff)
	}
	if diff := cmp.Diff(0, srv.Calls()); diff != "" {
		t.Fatalf("no HTTP call should be made: %s", diff)
	}
}

func TestSubmitReturnsHandle(t *testing.T) {
	srv := tcgatest.NewServer(t)
	srv.Archive = bytes.Repeat([]byte("x"), 2048)
	client := newTestClient(srv.ServiceURL())

	handle, err := client.Submit(context.Background(), mutationParams())
	if err != nil {
		t.Fatalf("Submit: %s", err.Error())
	}

	want := s.JobHandle{
		Ticket:         "ticket-1",
		StatusURL:      srv.URL + "/status/ticket-1",
		SubmissionTime: "2015-06-01 12:00:00",
		EstimatedSize:  2048,
	}
	if diff := cmp.Diff(want, handle); diff != "" {
		t.Fatal(diff)
	}

	query := srv.Queries()[0]
	expected := url.Values{
		"disease":          {"LUAD"},
		"center":           {"BI"},
		"level":            {"2"},
		"platform":         {"Automated Mutation Calling"},
		"platformType":     {"Somatic Mutations"},
		"flattenDir":       {"true"},
		"consolidateFiles": {"true"},
	}
	if diff := cmp.Diff(expected, query); diff != "" {
		t.Fatal(diff)
	}
}

func TestSubmitSoftError(t *testing.T) {
	srv := tcgatest.NewServer(t)
	srv.NoData = func(url.Values) bool { return true }
	client := newTestClient(srv.ServiceURL())

	_, err := client.Submit(context.Background(), mutationParams())

	var soft *e.SoftServiceError
	if !errors.As(err, &soft) {
		t.Fatalf("expected SoftServiceError, got %v", err)
	}
	if diff := cmp.Diff(&e.SoftServiceError{Code: "204", Message: "No data available"}, soft); diff != "" {
		t.Fatal(diff)
	}
}

func TestSubmitErrors(t *testing.T) {
	tables := []struct {
		name    string
		status  int
		body    string
		checkFn func(err error) bool
	}{
		{"server-error", http.StatusInternalServerError, "boom", func(err error) bool {
			var r *e.RemoteServiceError
			return errors.As(err, &r) && r.StatusCode == http.StatusInternalServerError && r.Body == "boom"
		}},
		{"missing-field", http.StatusOK, `{"ticket": "1", "submission-time": "now", "estimated-size": 1}`, func(err error) bool {
			var p *e.ProtocolError
			return errors.As(err, &p) && strings.Contains(p.Reason, StatusCheckURLField)
		}},
		{"not-json", http.StatusOK, `<html>maintenance</html>`, func(err error) bool {
			var p *e.ProtocolError
			return errors.As(err, &p)
		}},
		{"string-size", http.StatusOK, `{"ticket": "1", "submission-time": "now", "estimated-size": "12", "status-check-url": "http://x/1"}`, func(err error) bool {
			return err == nil
		}},
	}

	for _, table := range tables {
		t.Run(table.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(table.status)
				fmt.Fprint(w, table.body)
			}))
			defer server.Close()

			client := newTestClient(server.URL)
			_, err := client.Submit(context.Background(), mutationParams())
			if !table.checkFn(err) {
				t.Fatalf("unexpected error %v", err)
			}
		})
	}
}

func TestParseSoftError(t *testing.T) {
	tables := []struct {
		name     string
		body     string
		expected *e.SoftServiceError
	}{
		{"no-data", "<h2>HTTP STATUS 204 - No data available</h2>", &e.SoftServiceError{Code: "204", Message: "No data available"}},
		{"whitespace", "\n  <h2>HTTP STATUS 412 -  Precondition failed </h2>\n<p>more</p>", &e.SoftServiceError{Code: "412", Message: "Precondition failed"}},
		{"unparseable", "<h2>HTTP STATUS oops</h2>", &e.SoftServiceError{Message: "<h2>HTTP STATUS oops</h2>"}},
		{"json", `{"ticket": "1"}`, nil},
	}

	for _, table := range tables {
		t.Run(table.name, func(t *testing.T) {
			if diff := cmp.Diff(table.expected, ParseSoftError([]byte(table.body))); diff != "" {
				t.Fatal(diff)
			}
		})
	}
}

func TestPollUntilReadySleepsBetweenPendingQueries(t *testing.T) {
	srv := tcgatest.NewServer(t)
	srv.PendingPolls = 2
	client := newTestClient(srv.ServiceURL())

	var sleeps []time.Duration
	client.Sleep = func(ctx context.Context, d time.Duration) error {
		sleeps = append(sleeps, d)
		return nil
	}

	handle, err := client.Submit(context.Background(), mutationParams())
	if err != nil {
		t.Fatal(err)
	}

	archiveURL, err := client.PollUntilReady(context.Background(), handle, PollOptions{Interval: 30 * time.Second, MaxWait: time.Hour})
	if err != nil {
		t.Fatalf("PollUntilReady: %s", err.Error())
	}

	if diff := cmp.Diff(srv.URL+"/archive/ticket-1.tar", archiveURL); diff != "" {
		t.Fatal(diff)
	}
	if diff := cmp.Diff([]time.Duration{30 * time.Second, 30 * time.Second}, sleeps); diff != "" {
		t.Fatal(diff)
	}
	if diff := cmp.Diff(3, srv.StatusQueries()); diff != "" {
		t.Fatal(diff)
	}
}

func TestPollUntilReadySingleShot(t *testing.T) {
	srv := tcgatest.NewServer(t)
	srv.PendingPolls = 1
	client := newTestClient(srv.ServiceURL())
	client.Sleep = func(ctx context.Context, d time.Duration) error {
		t.Fatal("single-shot poll must not sleep")
		return nil
	}

	handle, err := client.Submit(context.Background(), mutationParams())
	if err != nil {
		t.Fatal(err)
	}

	_, err = client.PollUntilReady(context.Background(), handle, PollOptions{})
	if !errors.Is(err, e.ErrNotReady) {
		t.Fatalf("expected ErrNotReady, got %v", err)
	}
	if diff := cmp.Diff(1, srv.StatusQueries()); diff != "" {
		t.Fatal(diff)
	}
}

func TestPollUntilReadyTimeouts(t *testing.T) {
	tables := []struct {
		name             string
		opts             PollOptions
		expectedAttempts int
		expectedWaited   time.Duration
	}{
		{"max-attempts", PollOptions{Interval: 10 * time.Second, MaxWait: time.Hour, MaxAttempts: 3}, 3, 20 * time.Second},
		{"max-wait", PollOptions{Interval: 10 * time.Second, MaxWait: 25 * time.Second}, 3, 20 * time.Second},
		{"single-attempt", PollOptions{Interval: 10 * time.Second, MaxWait: time.Hour, MaxAttempts: 1}, 1, 0},
	}

	for _, table := range tables {
		t.Run(table.name, func(t *testing.T) {
			srv := tcgatest.NewServer(t)
			srv.PendingPolls = 100
			client := newTestClient(srv.ServiceURL())

			now := time.Date(2015, 6, 1, 12, 0, 0, 0, time.UTC)
			client.Now = func() time.Time { return now }
			client.Sleep = func(ctx context.Context, d time.Duration) error {
				now = now.Add(d)
				return nil
			}

			handle, err := client.Submit(context.Background(), mutationParams())
			if err != nil {
				t.Fatal(err)
			}

			_, err = client.PollUntilReady(context.Background(), handle, table.opts)
			var timeoutErr *e.PollTimeoutError
			if !errors.As(err, &timeoutErr) {
				t.Fatalf("expected PollTimeoutError, got %v", err)
			}

			expected := &e.PollTimeoutError{Ticket: "ticket-1", Attempts: table.expectedAttempts, Waited: table.expectedWaited}
			if diff := cmp.Diff(expected, timeoutErr); diff != "" {
				t.Fatal(diff)
			}
		})
	}
}

func TestPollUntilReadyRequiresMaxWait(t *testing.T) {
	srv := tcgatest.NewServer(t)
	client := newTestClient(srv.ServiceURL())

	_, err := client.PollUntilReady(context.Background(), s.JobHandle{Ticket: "1", StatusURL: srv.URL + "/status/1"}, PollOptions{Interval: time.Second})

	var validationErr *e.ValidationError
	if !errors.As(err, &validationErr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if diff := cmp.Diff(0, srv.Calls()); diff != "" {
		t.Fatal(diff)
	}
}

func TestPollUntilReadyContextCancellation(t *testing.T) {
	srv := tcgatest.NewServer(t)
	srv.PendingPolls = 100
	client := newTestClient(srv.ServiceURL())

	handle, err := client.Submit(context.Background(), mutationParams())
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err = client.PollUntilReady(ctx, handle, PollOptions{Interval: time.Hour, MaxWait: 2 * time.Hour})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected context deadline error, got %v", err)
	}
}

func TestStatusReadyWithoutArchiveURL(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"job-status": {"status-message": "OK"}}`)
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	_, err := client.Status(context.Background(), server.URL)

	var protocolErr *e.ProtocolError
	if !errors.As(err, &protocolErr) {
		t.Fatalf("expected ProtocolError, got %v", err)
	}
}

func TestDownloadBlocks(t *testing.T) {
	tables := []struct {
		name           string
		size           int
		blockSize      int
		expectedBlocks int
	}{
		{"uneven", 10, 4, 3},
		{"even", 8, 4, 2},
		{"single", 3, 4, 1},
		{"large", 1<<20 + 17, 64 * 1024, 17},
		{"empty", 0, 4, 0},
	}

	for _, table := range tables {
		t.Run(table.name, func(t *testing.T) {
			data := bytes.Repeat([]byte{0xab}, table.size)
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write(data)
			}))
			defer server.Close()

			dest := filepath.Join(t.TempDir(), "archive.tar")
			client := newTestClient(server.URL)

			result, err := client.Download(context.Background(), server.URL, dest, table.blockSize)
			if err != nil {
				t.Fatalf("Download: %s", err.Error())
			}

			expected := DownloadResult{Path: dest, Bytes: int64(table.size), Blocks: table.expectedBlocks}
			if diff := cmp.Diff(expected, result); diff != "" {
				t.Fatal(diff)
			}

			written, err := os.ReadFile(dest)
			if err != nil {
				t.Fatal(err)
			}
			if !bytes.Equal(data, written) {
				t.Fatal("downloaded bytes differ")
			}
		})
	}
}

func TestDownloadTruncatedLeavesNothing(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Length", "1000")
		_, _ = w.Write([]byte("only a little"))
	}))
	defer server.Close()

	dir := t.TempDir()
	dest := filepath.Join(dir, "archive.tar")
	client := newTestClient(server.URL)

	_, err := client.Download(context.Background(), server.URL, dest, 4)

	var transportErr *e.TransportError
	if !errors.As(err, &transportErr) {
		t.Fatalf("expected TransportError, got %v", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected no files after failed download, found %d", len(entries))
	}
}

func TestDownloadNotFound(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	defer server.Close()

	client := newTestClient(server.URL)
	_, err := client.Download(context.Background(), server.URL+"/missing.tar", filepath.Join(t.TempDir(), "a.tar"), 4)

	var remoteErr *e.RemoteServiceError
	if !errors.As(err, &remoteErr) {
		t.Fatalf("expected RemoteServiceError, got %v", err)
	}
	if diff := cmp.Diff(http.StatusNotFound, remoteErr.StatusCode); diff != "" {
		t.Fatal(diff)
	}
}

func TestDownloadWriteFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("data"))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	dest := filepath.Join(t.TempDir(), "missing-dir", "a.tar")

	_, err := client.Download(context.Background(), server.URL, dest, 4)

	var ioErr *e.IOError
	if !errors.As(err, &ioErr) {
		t.Fatalf("expected IOError, got %v", err)
	}
}

// emptyReader returns data in one-byte reads separated by (0, nil) reads, then
// optionally never makes progress again.
type emptyReader struct {
	data    []byte
	stalled bool
	flip    bool
}

func (r *emptyReader) Read(p []byte) (int, error) {
	r.flip = !r.flip
	if r.flip || len(p) == 0 {
		return 0, nil
	}
	if len(r.data) == 0 {
		if r.stalled {
			return 0, nil
		}
		return 0, io.EOF
	}
	p[0] = r.data[0]
	r.data = r.data[1:]
	return 1, nil
}

func TestCopyBlocksEmptyReads(t *testing.T) {
	var out bytes.Buffer
	result, err := copyBlocks(&out, &emptyReader{data: []byte("0123456789")}, 4)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(DownloadResult{Bytes: 10, Blocks: 3}, result); diff != "" {
		t.Fatal(diff)
	}
	if diff := cmp.Diff("0123456789", out.String()); diff != "" {
		t.Fatal(diff)
	}

	out.Reset()
	_, err = copyBlocks(&out, &emptyReader{data: []byte("0123"), stalled: true}, 8)

	var transportErr *e.TransportError
	if !errors.As(err, &transportErr) {
		t.Fatalf("expected TransportError, got %v", err)
	}
	if !errors.Is(err, io.ErrNoProgress) {
		t.Fatalf("expected io.ErrNoProgress, got %v", err)
	}
}
