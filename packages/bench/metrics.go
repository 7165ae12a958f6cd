package bench

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"
)

// Histogram bounds, one microsecond to one minute at three significant
// figures. Latencies outside the range clamp to the nearest bound.
const (
	histogramMin     = 1
	histogramMax     = 60_000_000
	histogramSigFigs = 3
)

// histogramBins is how many equal-width buckets the latency histogram uses.
const histogramBins = 10

// percentiles are reported largest first, matching the summary layout.
var percentiles = []int{99, 95, 90, 75, 50, 25, 10}

// Metrics accumulates samples from concurrent workers.
type Metrics struct {
	successes atomic.Int64
	errors    atomic.Int64

	mu          sync.Mutex
	histogram   *hdrhistogram.Histogram
	samples     []time.Duration
	statusCodes map[int]int64
	errorCounts map[string]int64
}

func NewMetrics() *Metrics {
	return &Metrics{
		histogram:   hdrhistogram.New(histogramMin, histogramMax, histogramSigFigs),
		statusCodes: make(map[int]int64),
		errorCounts: make(map[string]int64),
	}
}

// RecordSuccess adds one completed request.
func (m *Metrics) RecordSuccess(statusCode int, latency time.Duration) {
	m.successes.Add(1)

	latencyUs := latency.Microseconds()
	if latencyUs < histogramMin {
		latencyUs = histogramMin
	}
	if latencyUs > histogramMax {
		latencyUs = histogramMax
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	_ = m.histogram.RecordValue(latencyUs)
	m.samples = append(m.samples, latency)
	m.statusCodes[statusCode]++
}

// RecordError adds one failed request. Failures carry no latency sample.
func (m *Metrics) RecordError(err error) {
	m.errors.Add(1)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.errorCounts[err.Error()]++
}

// Requests returns how many requests finished so far, failed ones included.
func (m *Metrics) Requests() int64 {
	return m.successes.Load() + m.errors.Load()
}

// Percentile pairs a quantile with the latency at or below it.
type Percentile struct {
	Quantile int
	Value    time.Duration
}

// Bin is one equal-width latency bucket.
type Bin struct {
	Start time.Duration
	End   time.Duration
	Count int
}

// Summary is the aggregate of one benchmark run.
type Summary struct {
	TotalRequests int64
	Successes     int64
	Errors        int64
	Duration      time.Duration
	RPS           float64

	Mean    time.Duration
	StdDev  time.Duration
	Fastest time.Duration
	Slowest time.Duration

	Percentiles []Percentile
	StatusCodes map[int]int64
	ErrorCounts map[string]int64
	Histogram   []Bin
}

// Summarize folds the recorded samples into a report over the given wall
// clock duration. With no successful samples the latency fields stay zero
// and the distribution and histogram are empty.
func (m *Metrics) Summarize(elapsed time.Duration) *Summary {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := &Summary{
		Successes:   m.successes.Load(),
		Errors:      m.errors.Load(),
		Duration:    elapsed,
		StatusCodes: make(map[int]int64, len(m.statusCodes)),
		ErrorCounts: make(map[string]int64, len(m.errorCounts)),
	}
	s.TotalRequests = s.Successes + s.Errors
	for code, n := range m.statusCodes {
		s.StatusCodes[code] = n
	}
	for msg, n := range m.errorCounts {
		s.ErrorCounts[msg] = n
	}
	if elapsed > 0 {
		s.RPS = float64(s.TotalRequests) / elapsed.Seconds()
	}
	if s.Successes == 0 {
		return s
	}

	s.Mean = time.Duration(m.histogram.Mean()) * time.Microsecond
	s.StdDev = time.Duration(m.histogram.StdDev()) * time.Microsecond
	s.Fastest = time.Duration(m.histogram.Min()) * time.Microsecond
	s.Slowest = time.Duration(m.histogram.Max()) * time.Microsecond
	s.Percentiles = make([]Percentile, 0, len(percentiles))
	for _, p := range percentiles {
		v := time.Duration(m.histogram.ValueAtQuantile(float64(p))) * time.Microsecond
		s.Percentiles = append(s.Percentiles, Percentile{Quantile: p, Value: v})
	}
	s.Histogram = buildHistogram(m.samples, histogramBins)
	return s
}

// buildHistogram buckets samples into equal-width bins spanning the
// observed range. Samples past the last edge, a casualty of integer bin
// width, land in the last bin. Identical samples collapse into one bin.
func buildHistogram(samples []time.Duration, bins int) []Bin {
	if len(samples) == 0 || bins < 1 {
		return nil
	}
	min, max := samples[0], samples[0]
	for _, d := range samples[1:] {
		if d < min {
			min = d
		}
		if d > max {
			max = d
		}
	}
	width := (max - min) / time.Duration(bins)
	if width <= 0 {
		return []Bin{{Start: min, End: max, Count: len(samples)}}
	}

	out := make([]Bin, bins)
	for i := range out {
		start := min + time.Duration(i)*width
		out[i] = Bin{Start: start, End: start + width}
	}
	for _, d := range samples {
		idx := int((d - min) / width)
		if idx >= bins {
			idx = bins - 1
		}
		out[idx].Count++
	}
	return out
}
