package tcga

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/cenkalti/backoff"
	"github.com/rs/zerolog/log"
	"github.com/terrycain/tcga-cache/pkg/e"
	"github.com/terrycain/tcga-cache/pkg/metrics"
	"github.com/terrycain/tcga-cache/pkg/s"
)

// PollOptions bounds PollUntilReady.
type PollOptions struct {
	// Interval between status queries. Zero queries once and returns e.ErrNotReady
	// if the job is still pending.
	Interval time.Duration

	// MaxWait is the longest PollUntilReady keeps polling. Required when Interval > 0.
	MaxWait time.Duration

	// MaxAttempts caps the number of status queries. Zero means no cap.
	MaxAttempts int

	// Schedule overrides the constant Interval schedule.
	Schedule func() backoff.BackOff
}

func (p PollOptions) validate() error {
	if p.Interval < 0 {
		return &e.ValidationError{Field: "poll interval", Reason: "must not be negative"}
	}
	if p.Interval > 0 && p.MaxWait <= 0 {
		return &e.ValidationError{Field: "max wait", Reason: "must be positive when polling"}
	}
	if p.MaxAttempts < 0 {
		return &e.ValidationError{Field: "max attempts", Reason: "must not be negative"}
	}
	return nil
}

func (p PollOptions) schedule() backoff.BackOff {
	if p.Schedule != nil {
		return p.Schedule()
	}
	return backoff.NewConstantBackOff(p.Interval)
}

type statusDocument struct {
	JobStatus *struct {
		StatusMessage *string `json:"status-message"`
		ArchiveURL    string  `json:"archive-url"`
	} `json:"job-status"`
}

// Status fetches and interprets one status document. "OK" is ready; every other
// message is pending, the service has no explicit failure message.
func (c *Client) Status(ctx context.Context, statusURL string) (s.JobStatus, error) {
	metrics.StatusQueries.Inc()
	status, respURL, body, err := c.getAPI(ctx, statusURL)
	if err != nil {
		return s.JobStatus{}, err
	}
	if status != http.StatusOK {
		return s.JobStatus{}, &e.RemoteServiceError{StatusCode: status, URL: respURL, Body: string(body)}
	}

	var doc statusDocument
	if err = json.Unmarshal(body, &doc); err != nil {
		return s.JobStatus{}, &e.ProtocolError{URL: respURL, Reason: "status is not valid JSON"}
	}
	if doc.JobStatus == nil || doc.JobStatus.StatusMessage == nil {
		return s.JobStatus{}, &e.ProtocolError{URL: respURL, Reason: "missing " + JobStatusField + "." + StatusMessageField}
	}

	message := *doc.JobStatus.StatusMessage
	if message != StatusMessageOK {
		return s.JobStatus{State: s.JobPending, Message: message}, nil
	}
	if doc.JobStatus.ArchiveURL == "" {
		return s.JobStatus{}, &e.ProtocolError{URL: respURL, Reason: "ready job without " + ArchiveURLField}
	}
	return s.JobStatus{State: s.JobReady, Message: message, ArchiveURL: doc.JobStatus.ArchiveURL}, nil
}

// PollUntilReady queries the job status until it is ready and returns the archive
// URL. It fails with *e.PollTimeoutError when the wait or attempt budget runs out.
func (c *Client) PollUntilReady(ctx context.Context, handle s.JobHandle, opts PollOptions) (string, error) {
	if err := opts.validate(); err != nil {
		return "", err
	}

	start := c.Now()
	schedule := opts.schedule()
	attempts := 0

	timeout := func() error {
		return &e.PollTimeoutError{Ticket: handle.Ticket, Attempts: attempts, Waited: c.Now().Sub(start)}
	}

	for {
		status, err := c.Status(ctx, handle.StatusURL)
		if err != nil {
			return "", err
		}
		attempts++

		switch status.State {
		case s.JobReady:
			log.Info().Str("ticket", handle.Ticket).Str("archive_url", status.ArchiveURL).Int("attempts", attempts).Msg("Archive ready")
			return status.ArchiveURL, nil
		case s.JobFailed:
			return "", &e.SoftServiceError{Code: status.Code, Message: status.Message}
		}

		if opts.Interval == 0 {
			log.Debug().Str("ticket", handle.Ticket).Str("status", status.Message).Msg("Archive not ready, not waiting")
			return "", e.ErrNotReady
		}
		if opts.MaxAttempts > 0 && attempts >= opts.MaxAttempts {
			return "", timeout()
		}

		wait := schedule.NextBackOff()
		if wait == backoff.Stop {
			return "", timeout()
		}
		if c.Now().Sub(start)+wait > opts.MaxWait {
			return "", timeout()
		}

		log.Debug().Str("ticket", handle.Ticket).Str("status", status.Message).Dur("wait", wait).Msg("Archive not ready")
		if err = c.Sleep(ctx, wait); err != nil {
			return "", err
		}
	}
}
