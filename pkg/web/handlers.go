package web

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"github.com/terrycain/tcga-cache/pkg/e"
	"github.com/terrycain/tcga-cache/pkg/fingerprint"
	"github.com/terrycain/tcga-cache/pkg/resolver"
	"github.com/terrycain/tcga-cache/pkg/s"
	"github.com/terrycain/tcga-cache/pkg/storage"
)

//go:generate mockgen -destination=mock_web/resolver.go -package=mock_web github.com/terrycain/tcga-cache/pkg/web Resolver
//go:generate mockgen -destination=mock_web/storage.go -package=mock_web github.com/terrycain/tcga-cache/pkg/storage Backend

type Resolver interface {
	Resolve(ctx context.Context, params s.RequestParameters, opts resolver.Options) (string, error)
}

type Handlers struct {
	Storage  storage.Backend
	Resolver Resolver
	Options  resolver.Options
	Debug    bool
}

type ResolveRequest struct {
	s.RequestParameters
	// UseCache overrides the server default when set.
	UseCache *bool `json:"useCache,omitempty"`
}

type ResolveResponse struct {
	Fingerprint s.Fingerprint `json:"fingerprint"`
	Path        string        `json:"path"`
	ArchiveURL  string        `json:"archiveUrl"`
}

func (h *Handlers) Resolve(c *gin.Context) {
	req := ResolveRequest{RequestParameters: s.NewRequestParameters("")}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	opts := h.Options
	if req.UseCache != nil {
		opts.UseCache = *req.UseCache
	}

	params := req.RequestParameters.Normalize()
	fp := fingerprint.Of(params)
	logger := log.With().Str("fingerprint", string(fp)).Str("request_id", c.GetString(requestIDKey)).Logger()

	path, err := h.Resolver.Resolve(c.Request.Context(), params, opts)
	if err != nil {
		status, body := errorResponse(err)
		if status >= http.StatusInternalServerError {
			logger.Error().Err(err).Msg("Failed to resolve request")
		} else {
			logger.Debug().Err(err).Int("status", status).Msg("Request not resolved")
		}
		if h.Debug && body["detail"] == nil {
			body["detail"] = err.Error()
		}
		c.JSON(status, body)
		return
	}

	c.JSON(http.StatusOK, ResolveResponse{Fingerprint: fp, Path: path, ArchiveURL: archiveURL(c, fp)})
}

// errorResponse maps resolve errors onto HTTP statuses.
func errorResponse(err error) (int, gin.H) {
	var (
		validationErr *e.ValidationError
		softErr       *e.SoftServiceError
		timeoutErr    *e.PollTimeoutError
		remoteErr     *e.RemoteServiceError
		protocolErr   *e.ProtocolError
		transportErr  *e.TransportError
	)

	switch {
	case errors.As(err, &validationErr):
		return http.StatusBadRequest, gin.H{"error": validationErr.Error()}
	case errors.As(err, &softErr):
		return http.StatusNotFound, gin.H{"error": "no data available", "code": softErr.Code, "message": softErr.Message}
	case errors.Is(err, e.ErrNotReady):
		return http.StatusAccepted, gin.H{"error": "archive not ready, try again later"}
	case errors.As(err, &timeoutErr):
		return http.StatusGatewayTimeout, gin.H{"error": timeoutErr.Error(), "ticket": timeoutErr.Ticket}
	case errors.As(err, &remoteErr), errors.As(err, &protocolErr), errors.As(err, &transportErr):
		return http.StatusBadGateway, gin.H{"error": "remote service failed", "detail": err.Error()}
	case errors.Is(err, context.Canceled):
		// Client went away; the status is never seen.
		return 499, gin.H{"error": "request cancelled"}
	default:
		return http.StatusInternalServerError, gin.H{"error": "failed to resolve request"}
	}
}

func (h *Handlers) ListRequests(c *gin.Context) {
	entries, err := h.Storage.List()
	if err != nil {
		log.Error().Err(err).Msg("Failed to list cache")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list cache"})
		return
	}

	c.JSON(http.StatusOK, entries)
}

func (h *Handlers) GetRequest(c *gin.Context) {
	key := c.Param("fingerprint")
	if !fingerprint.Valid(key) {
		c.JSON(http.StatusNotFound, gin.H{"error": "request not found"})
		return
	}

	meta, err := h.Storage.ReadMetadata(s.Fingerprint(key))
	if err != nil {
		if errors.Is(err, e.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "request not found"})
		} else {
			log.Error().Err(err).Msg("Failed to read metadata")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read metadata"})
		}
		return
	}

	c.JSON(http.StatusOK, meta)
}

func (h *Handlers) ArchivePath(c *gin.Context) {
	key := c.Param("fingerprint")

	path, err := h.Storage.GetFilePath(key)
	if err != nil {
		if errors.Is(err, e.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "file not found"})
		} else {
			log.Error().Err(err).Msg("Failed to get file")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get file"})
		}
		return
	}

	c.FileAttachment(path, s.Fingerprint(key).ArchiveName())
}
