package s

import (
	"strconv"
	"strings"
	"time"
)

// Wire names of the request filter fields.
const (
	FieldDisease          = "disease"
	FieldCenter           = "center"
	FieldLevel            = "level"
	FieldPlatform         = "platform"
	FieldPlatformType     = "platformType"
	FieldSampleList       = "sampleList"
	FieldFlattenDir       = "flattenDir"
	FieldConsolidateFiles = "consolidateFiles"
)

// RequestParameters selects a dataset slice. Nil pointers are absent fields, which
// is not the same as an empty string.
type RequestParameters struct {
	Disease          string  `json:"disease" binding:"required"`
	Center           *string `json:"center,omitempty"`
	Level            *string `json:"level,omitempty"`
	Platform         *string `json:"platform,omitempty"`
	PlatformType     *string `json:"platformType,omitempty"`
	SampleList       *string `json:"sampleList,omitempty"`
	FlattenDir       bool    `json:"flattenDir"`
	ConsolidateFiles bool    `json:"consolidateFiles"`
}

func NewRequestParameters(disease string) RequestParameters {
	return RequestParameters{
		Disease:          disease,
		FlattenDir:       true,
		ConsolidateFiles: true,
	}
}

// String returns a pointer to v, for filling optional fields.
func String(v string) *string { return &v }

// Normalize returns a copy with the disease code upper-cased.
func (p RequestParameters) Normalize() RequestParameters {
	p.Disease = strings.ToUpper(strings.TrimSpace(p.Disease))
	return p
}

// Fields maps wire names to values; absent fields map to nil.
func (p RequestParameters) Fields() map[string]*string {
	return map[string]*string{
		FieldDisease:          String(p.Disease),
		FieldCenter:           p.Center,
		FieldLevel:            p.Level,
		FieldPlatform:         p.Platform,
		FieldPlatformType:     p.PlatformType,
		FieldSampleList:       p.SampleList,
		FieldFlattenDir:       String(strconv.FormatBool(p.FlattenDir)),
		FieldConsolidateFiles: String(strconv.FormatBool(p.ConsolidateFiles)),
	}
}

// Fingerprint is the hex SHA-256 digest identifying a RequestParameters value.
type Fingerprint string

func (f Fingerprint) ArchiveName() string { return string(f) + ".tar" }
func (f Fingerprint) MetadataName() string { return string(f) + ".json" }

// JobHandle is the ticket returned by the service for a submitted job.
type JobHandle struct {
	Ticket         string
	StatusURL      string
	SubmissionTime string
	EstimatedSize  int64
}

type JobState int

const (
	JobPending JobState = iota
	JobReady
	JobFailed
)

func (j JobState) String() string {
	switch j {
	case JobPending:
		return "pending"
	case JobReady:
		return "ready"
	case JobFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// JobStatus is one observation of a job's status document.
type JobStatus struct {
	State      JobState
	Message    string
	ArchiveURL string
	Code       string
}

// ArchiveMetadata is written next to a cached archive. It is informational; the
// archive file alone decides whether a request is cached.
type ArchiveMetadata struct {
	Fingerprint    Fingerprint       `json:"fingerprint"`
	Parameters     RequestParameters `json:"parameters"`
	Ticket         string            `json:"ticket"`
	SubmissionTime string            `json:"submissionTime"`
	EstimatedSize  int64             `json:"estimatedSize"`
	Size           int64             `json:"size"`
	DownloadedAt   time.Time         `json:"downloadedAt"`
}
