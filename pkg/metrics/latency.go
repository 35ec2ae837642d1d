package metrics

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/DataDog/sketches-go/ddsketch"
)

// Resolve phases tracked by the LatencyTracker.
const (
	PhaseSubmit   = "submit"
	PhasePoll     = "poll"
	PhaseDownload = "download"
	PhaseResolve  = "resolve"
)

// LatencyTracker keeps a DDSketch of durations per phase.
type LatencyTracker struct {
	mu               sync.Mutex
	sketches         map[string]*ddsketch.DDSketch
	relativeAccuracy float64
}

// NewLatencyTracker creates a tracker whose quantiles are accurate to within
// relativeAccuracy (0.01 = 1%).
func NewLatencyTracker(relativeAccuracy float64) *LatencyTracker {
	return &LatencyTracker{
		sketches:         make(map[string]*ddsketch.DDSketch),
		relativeAccuracy: relativeAccuracy,
	}
}

// Record adds duration to the sketch for phase, in milliseconds.
func (lt *LatencyTracker) Record(phase string, duration time.Duration) {
	lt.mu.Lock()
	defer lt.mu.Unlock()

	sketch, exists := lt.sketches[phase]
	if !exists {
		var err error
		sketch, err = ddsketch.LogUnboundedDenseDDSketch(lt.relativeAccuracy)
		if err != nil {
			sketch, _ = ddsketch.NewDefaultDDSketch(lt.relativeAccuracy)
		}
		lt.sketches[phase] = sketch
	}

	_ = sketch.Add(float64(duration.Microseconds()) / 1000.0)
}

// RecordFunc runs fn and records how long it took, whatever it returned.
func (lt *LatencyTracker) RecordFunc(phase string, fn func() error) error {
	start := time.Now()
	err := fn()
	lt.Record(phase, time.Since(start))
	return err
}

type Stats struct {
	Phase string
	Count int64
	Min   float64
	P50   float64
	P90   float64
	P99   float64
	Max   float64
}

func (lt *LatencyTracker) GetStats(phase string) (Stats, error) {
	lt.mu.Lock()
	defer lt.mu.Unlock()

	sketch, exists := lt.sketches[phase]
	if !exists {
		return Stats{}, fmt.Errorf("no data for phase: %s", phase)
	}
	return statsOf(phase, sketch), nil
}

// GetAllStats returns stats for every phase seen so far, sorted by phase name.
func (lt *LatencyTracker) GetAllStats() []Stats {
	lt.mu.Lock()
	defer lt.mu.Unlock()

	stats := make([]Stats, 0, len(lt.sketches))
	for phase, sketch := range lt.sketches {
		stats = append(stats, statsOf(phase, sketch))
	}
	sort.Slice(stats, func(i, j int) bool { return stats[i].Phase < stats[j].Phase })

	return stats
}

func statsOf(phase string, sketch *ddsketch.DDSketch) Stats {
	count := sketch.GetCount()
	if count == 0 {
		return Stats{Phase: phase}
	}

	min, _ := sketch.GetMinValue()
	p50, _ := sketch.GetValueAtQuantile(0.50)
	p90, _ := sketch.GetValueAtQuantile(0.90)
	p99, _ := sketch.GetValueAtQuantile(0.99)
	max, _ := sketch.GetMaxValue()

	return Stats{
		Phase: phase,
		Count: int64(count),
		Min:   min,
		P50:   p50,
		P90:   p90,
		P99:   p99,
		Max:   max,
	}
}

func (s Stats) String() string {
	if s.Count == 0 {
		return fmt.Sprintf("%s: no data", s.Phase)
	}
	return fmt.Sprintf("%s (n=%d): min=%.2fms p50=%.2fms p90=%.2fms p99=%.2fms max=%.2fms",
		s.Phase, s.Count, s.Min, s.P50, s.P90, s.P99, s.Max)
}
