package tcga

const (
	DefaultServiceURL = "http://tcga-data.nci.nih.gov/tcga/damws"
	JobProcessPath    = "/jobprocess/json"

	ClinicalListingURL = "https://tcga-data.nci.nih.gov/tcgafiles/ftp_auth/distro_ftpusers/anonymous/tumor/%s/bcr/biotab/clin/"
)

// Fields of the job submission acknowledgement.
const (
	TicketIDField       = "ticket"
	SubmissionTimeField = "submission-time"
	EstimatedSizeField  = "estimated-size"
	StatusCheckURLField = "status-check-url"
)

// Fields of the status document.
const (
	JobStatusField     = "job-status"
	StatusMessageField = "status-message"
	ArchiveURLField    = "archive-url"

	StatusMessageOK = "OK"
)

// SoftErrorMarker starts the HTML fragment the service sends with a 200 status when a
// request cannot be served, e.g. "<h2>HTTP STATUS 204 - No data available</h2>".
const SoftErrorMarker = "<h2>HTTP STATUS"
