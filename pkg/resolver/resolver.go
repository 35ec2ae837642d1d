// Package resolver turns request parameters into a cached archive path, submitting
// and downloading a remote job only when the archive is not already cached.
package resolver

import (
	"context"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"
	"github.com/terrycain/tcga-cache/pkg/e"
	"github.com/terrycain/tcga-cache/pkg/fingerprint"
	"github.com/terrycain/tcga-cache/pkg/locking"
	"github.com/terrycain/tcga-cache/pkg/metrics"
	"github.com/terrycain/tcga-cache/pkg/s"
	"github.com/terrycain/tcga-cache/pkg/storage"
	"github.com/terrycain/tcga-cache/pkg/tcga"
)

const LockDirName = ".locks"

// JobService is the part of tcga.Client the resolver drives.
type JobService interface {
	Submit(ctx context.Context, params s.RequestParameters) (s.JobHandle, error)
	PollUntilReady(ctx context.Context, handle s.JobHandle, opts tcga.PollOptions) (string, error)
	Download(ctx context.Context, archiveURL, dest string, blockSize int) (tcga.DownloadResult, error)
}

type Options struct {
	// UseCache returns an existing archive without contacting the service. When
	// false a new job is always submitted and the cached archive replaced.
	UseCache  bool
	Poll      tcga.PollOptions
	BlockSize int
}

func DefaultOptions() Options {
	return Options{
		UseCache: true,
		Poll: tcga.PollOptions{
			Interval: 30 * time.Second,
			MaxWait:  2 * time.Hour,
		},
		BlockSize: tcga.DefaultBlockSize,
	}
}

type Resolver struct {
	Storage storage.Backend
	Jobs    JobService
	Locks   locking.Group
	Latency *metrics.LatencyTracker
	Now     func() time.Time
}

// New builds a Resolver whose fingerprint locks are chosen by lockMode (see
// locking.GetGroup). File locks live under <storage root>/.locks.
func New(backend storage.Backend, jobs JobService, lockMode string) (*Resolver, error) {
	locks, err := locking.GetGroup(lockMode, filepath.Join(backend.Root(), LockDirName))
	if err != nil {
		return nil, err
	}

	return &Resolver{
		Storage: backend,
		Jobs:    jobs,
		Locks:   locks,
		Latency: metrics.NewLatencyTracker(0.01),
		Now:     time.Now,
	}, nil
}

// Resolve returns the path of the cached archive for params, fetching it first if
// needed. A single-shot poll (Interval 0) on a pending job returns e.ErrNotReady.
func (r *Resolver) Resolve(ctx context.Context, params s.RequestParameters, opts Options) (string, error) {
	start := time.Now()
	defer func() { r.record(metrics.PhaseResolve, time.Since(start)) }()

	params = params.Normalize()
	fp := fingerprint.Of(params)
	path := r.Storage.ArchivePath(fp)
	logger := log.With().Str("fingerprint", string(fp)).Str("disease", params.Disease).Logger()

	if opts.UseCache {
		cached, err := r.Storage.Exists(fp)
		if err != nil {
			return "", err
		}
		if cached {
			metrics.CacheLookups.WithLabelValues("hit").Inc()
			logger.Debug().Str("path", path).Msg("Archive found in cache")
			return path, nil
		}
	}

	_, err := r.Locks.DoWithLock(ctx, string(fp), func() (interface{}, error) {
		if opts.UseCache {
			// Another caller may have finished the download while we waited.
			cached, err := r.Storage.Exists(fp)
			if err != nil {
				return nil, err
			}
			if cached {
				metrics.CacheLookups.WithLabelValues("hit").Inc()
				return nil, nil
			}
			metrics.CacheLookups.WithLabelValues("miss").Inc()
		} else {
			metrics.CacheLookups.WithLabelValues("bypass").Inc()
		}

		return nil, r.fetch(ctx, fp, params, path, opts)
	})
	if err != nil {
		return "", err
	}

	return path, nil
}

func (r *Resolver) fetch(ctx context.Context, fp s.Fingerprint, params s.RequestParameters, path string, opts Options) error {
	var handle s.JobHandle
	err := r.phase(metrics.PhaseSubmit, func() error {
		var err error
		handle, err = r.Jobs.Submit(ctx, params)
		return err
	})
	if err != nil {
		metrics.Submissions.WithLabelValues(submitOutcome(err)).Inc()
		return err
	}
	metrics.Submissions.WithLabelValues("accepted").Inc()

	var archiveURL string
	err = r.phase(metrics.PhasePoll, func() error {
		var err error
		archiveURL, err = r.Jobs.PollUntilReady(ctx, handle, opts.Poll)
		return err
	})
	if err != nil {
		return err
	}

	var result tcga.DownloadResult
	err = r.phase(metrics.PhaseDownload, func() error {
		var err error
		result, err = r.Jobs.Download(ctx, archiveURL, path, opts.BlockSize)
		return err
	})
	if err != nil {
		return err
	}
	metrics.DownloadedBytes.Add(float64(result.Bytes))

	meta := s.ArchiveMetadata{
		Fingerprint:    fp,
		Parameters:     params,
		Ticket:         handle.Ticket,
		SubmissionTime: handle.SubmissionTime,
		EstimatedSize:  handle.EstimatedSize,
		Size:           result.Bytes,
		DownloadedAt:   r.now().UTC(),
	}
	if err = r.Storage.WriteMetadata(meta); err != nil {
		// The archive is already in place and is what counts as cached.
		log.Warn().Err(err).Str("fingerprint", string(fp)).Msg("Failed to write archive metadata")
	}

	return nil
}

func (r *Resolver) phase(name string, fn func() error) error {
	timer := prometheus.NewTimer(metrics.PhaseDuration.WithLabelValues(name))
	defer timer.ObserveDuration()

	if r.Latency == nil {
		return fn()
	}
	return r.Latency.RecordFunc(name, fn)
}

func (r *Resolver) record(name string, d time.Duration) {
	metrics.PhaseDuration.WithLabelValues(name).Observe(d.Seconds())
	if r.Latency != nil {
		r.Latency.Record(name, d)
	}
}

func (r *Resolver) now() time.Time {
	if r.Now != nil {
		return r.Now()
	}
	return time.Now()
}

func submitOutcome(err error) string {
	if e.IsSoft(err) {
		return "no_data"
	}
	return "error"
}
