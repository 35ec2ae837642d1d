package e

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrNotReady     = errors.New("archive not ready")
	ErrNotFound     = errors.New("not found")
	ErrNoCenterData = errors.New("no sequencing center has data for this request")
)

// ValidationError is returned before any network I/O when a request is missing a
// required field.
type ValidationError struct {
	Field  string
	Reason string
}

func (v *ValidationError) Error() string {
	if v.Reason == "" {
		return fmt.Sprintf("invalid request: %s must be specified", v.Field)
	}
	return fmt.Sprintf("invalid request: %s %s", v.Field, v.Reason)
}

// RemoteServiceError is a non-200 response from the remote service.
type RemoteServiceError struct {
	StatusCode int
	URL        string
	Body       string
}

func (r *RemoteServiceError) Error() string {
	return fmt.Sprintf("request %s failed with status %d: %s", r.URL, r.StatusCode, r.Body)
}

// SoftServiceError is a 200 response carrying an embedded service error, usually
// "no data available" for the requested parameter combination.
type SoftServiceError struct {
	Code    string
	Message string
}

func (s *SoftServiceError) Error() string {
	return fmt.Sprintf("service returned status %s: %s", s.Code, s.Message)
}

// ProtocolError means the service answered successfully but not in the expected shape.
type ProtocolError struct {
	URL    string
	Reason string
}

func (p *ProtocolError) Error() string {
	return fmt.Sprintf("unexpected response from %s: %s", p.URL, p.Reason)
}

type IOError struct {
	Path string
	Err  error
}

func (i *IOError) Error() string { return fmt.Sprintf("writing %s: %s", i.Path, i.Err) }
func (i *IOError) Unwrap() error { return i.Err }

type TransportError struct {
	URL string
	Err error
}

func (t *TransportError) Error() string { return fmt.Sprintf("fetching %s: %s", t.URL, t.Err) }
func (t *TransportError) Unwrap() error { return t.Err }

// PollTimeoutError is returned when a job has not become ready within the
// configured wait or attempt budget.
type PollTimeoutError struct {
	Ticket   string
	Attempts int
	Waited   time.Duration
}

func (p *PollTimeoutError) Error() string {
	return fmt.Sprintf("ticket %s not ready after %d attempts (%s)", p.Ticket, p.Attempts, p.Waited)
}

// IsSoft reports whether err is a SoftServiceError.
func IsSoft(err error) bool {
	var soft *SoftServiceError
	return errors.As(err, &soft)
}
