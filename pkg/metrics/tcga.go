package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var CacheLookups = prometheus.NewCounterVec(prometheus.CounterOpts{
	Name: "tcga_cache_lookups_total",
	Help: "Cache lookups by result (hit, miss, bypass)",
}, []string{"result"})

var Submissions = prometheus.NewCounterVec(prometheus.CounterOpts{
	Name: "tcga_job_submissions_total",
	Help: "Jobs submitted to the data matrix service, partitioned by outcome",
}, []string{"outcome"})

var StatusQueries = prometheus.NewCounter(prometheus.CounterOpts{
	Name: "tcga_job_status_queries_total",
	Help: "Status document fetches",
})

var DownloadedBytes = prometheus.NewCounter(prometheus.CounterOpts{
	Name: "tcga_downloaded_bytes_total",
	Help: "Archive bytes written to the cache",
})

var PhaseDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
	Name:    "tcga_phase_duration_seconds",
	Help:    "Duration of resolve phases",
	Buckets: []float64{0.1, 0.5, 1, 5, 30, 60, 300, 900, 1800, 3600, 7200},
}, []string{"phase"})

// Register adds every collector in this package to reg. Registering twice
// returns an AlreadyRegisteredError, which is ignored.
func Register(reg prometheus.Registerer) {
	for _, c := range []prometheus.Collector{
		CacheLookups, Submissions, StatusQueries, DownloadedBytes, PhaseDuration,
		reqCount, reqDur, reqSize, respSize,
	} {
		if err := reg.Register(c); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); !ok {
				panic(err)
			}
		}
	}
}
