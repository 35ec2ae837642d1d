package tcga

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog/log"
	"github.com/terrycain/tcga-cache/pkg/e"
	"github.com/terrycain/tcga-cache/pkg/s"
)

var softErrorRegex = regexp.MustCompile(`(?s)^<h2>HTTP STATUS\s+(\d+)\s*-\s*(.*?)\s*</h2>`)

// SubmitURL returns the job submission URL for params. Absent fields are omitted.
func (c *Client) SubmitURL(params s.RequestParameters) (string, error) {
	base, err := url.Parse(strings.TrimSuffix(c.opts.ServiceURL, "/") + JobProcessPath)
	if err != nil {
		return "", fmt.Errorf("invalid service url: %w", err)
	}

	query := url.Values{}
	for name, value := range params.Normalize().Fields() {
		if value != nil {
			query.Set(name, *value)
		}
	}
	base.RawQuery = query.Encode()
	return base.String(), nil
}

// Submit asks the service to build the archive described by params.
func (c *Client) Submit(ctx context.Context, params s.RequestParameters) (s.JobHandle, error) {
	params = params.Normalize()
	if params.Disease == "" {
		return s.JobHandle{}, &e.ValidationError{Field: s.FieldDisease}
	}
	if params.Platform == nil {
		return s.JobHandle{}, &e.ValidationError{Field: s.FieldPlatform}
	}

	submitURL, err := c.SubmitURL(params)
	if err != nil {
		return s.JobHandle{}, err
	}

	status, respURL, body, err := c.getAPI(ctx, submitURL)
	if err != nil {
		return s.JobHandle{}, err
	}
	log.Debug().Int("status", status).Str("url", respURL).Msg("Job submission response")

	if status != http.StatusOK {
		return s.JobHandle{}, &e.RemoteServiceError{StatusCode: status, URL: respURL, Body: string(body)}
	}

	if soft := ParseSoftError(body); soft != nil {
		return s.JobHandle{}, soft
	}

	handle, err := parseSubmission(respURL, body)
	if err != nil {
		return s.JobHandle{}, err
	}

	log.Info().
		Str("ticket", handle.Ticket).
		Str("submission_time", handle.SubmissionTime).
		Str("estimated_size", humanSize(handle.EstimatedSize)).
		Msg("Request received")
	log.Info().Str("ticket", handle.Ticket).Str("status_url", handle.StatusURL).Msg("Tracking ticket")

	return handle, nil
}

// ParseSoftError returns the embedded service error in a 200 body, or nil when the
// body does not start with SoftErrorMarker.
func ParseSoftError(body []byte) *e.SoftServiceError {
	trimmed := bytes.TrimSpace(body)
	if !bytes.HasPrefix(trimmed, []byte(SoftErrorMarker)) {
		return nil
	}

	parts := softErrorRegex.FindSubmatch(trimmed)
	if parts == nil {
		return &e.SoftServiceError{Message: string(trimmed)}
	}
	return &e.SoftServiceError{Code: string(parts[1]), Message: string(parts[2])}
}

func parseSubmission(respURL string, body []byte) (s.JobHandle, error) {
	var parsed map[string]json.RawMessage
	if err := json.Unmarshal(body, &parsed); err != nil {
		return s.JobHandle{}, &e.ProtocolError{URL: respURL, Reason: "body is not a JSON object"}
	}

	for _, field := range []string{TicketIDField, SubmissionTimeField, EstimatedSizeField, StatusCheckURLField} {
		if _, ok := parsed[field]; !ok {
			return s.JobHandle{}, &e.ProtocolError{URL: respURL, Reason: "missing field " + field}
		}
	}

	handle := s.JobHandle{
		Ticket:         rawText(parsed[TicketIDField]),
		SubmissionTime: rawText(parsed[SubmissionTimeField]),
		StatusURL:      rawText(parsed[StatusCheckURLField]),
		EstimatedSize:  rawSize(parsed[EstimatedSizeField]),
	}
	if handle.Ticket == "" {
		return s.JobHandle{}, &e.ProtocolError{URL: respURL, Reason: "empty " + TicketIDField}
	}
	if handle.StatusURL == "" {
		return s.JobHandle{}, &e.ProtocolError{URL: respURL, Reason: "empty " + StatusCheckURLField}
	}

	return handle, nil
}

// rawText returns a JSON string's value, or the literal text of any other value.
func rawText(raw json.RawMessage) string {
	var str string
	if err := json.Unmarshal(raw, &str); err == nil {
		return str
	}
	text := strings.TrimSpace(string(raw))
	if text == "null" {
		return ""
	}
	return text
}

// rawSize reads a size given as a number or numeric string; -1 if unknown.
func rawSize(raw json.RawMessage) int64 {
	size, err := strconv.ParseFloat(rawText(raw), 64)
	if err != nil || size < 0 {
		return -1
	}
	return int64(size)
}

func humanSize(size int64) string {
	if size < 0 {
		return "unknown"
	}
	return humanize.Bytes(uint64(size))
}
