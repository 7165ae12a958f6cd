package bench

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/fatih/color"
)

// barScale is the cell width of the fullest histogram bar.
const barScale = 50

// Reporter renders benchmark progress and the final summary.
type Reporter struct {
	writer  io.Writer
	noColor bool
}

type ReporterOption func(*Reporter)

// WithWriter sets the output writer.
func WithWriter(w io.Writer) ReporterOption {
	return func(r *Reporter) { r.writer = w }
}

// WithNoColor disables colored output.
func WithNoColor(noColor bool) ReporterOption {
	return func(r *Reporter) { r.noColor = noColor }
}

// NewReporter creates a reporter writing to stdout unless overridden.
func NewReporter(opts ...ReporterOption) *Reporter {
	r := &Reporter{writer: os.Stdout}
	for _, opt := range opts {
		opt(r)
	}
	if r.noColor {
		color.NoColor = true
	}
	return r
}

// Progress rewrites the current line with the iteration count.
func (r *Reporter) Progress(completed, total int64) {
	fmt.Fprintf(r.writer, "\r%d / %d iterations", completed, total)
}

// ClearProgress erases the progress line before the summary prints.
func (r *Reporter) ClearProgress() {
	fmt.Fprint(r.writer, "\r\033[K")
}

// Summary prints the final report: status codes, statistics, the latency
// distribution, the latency histogram, and any errors.
func (r *Reporter) Summary(s *Summary) {
	bold := color.New(color.Bold)
	red := color.New(color.FgRed)

	bold.Fprintln(r.writer, "status codes:")
	for _, code := range sortedCodes(s.StatusCodes) {
		fmt.Fprintf(r.writer, "  %d: %d\n", code, s.StatusCodes[code])
	}

	bold.Fprintln(r.writer, "statistics:")
	fmt.Fprintf(r.writer, "  total requests:     %d\n", s.TotalRequests)
	fmt.Fprintf(r.writer, "  total duration:     %v\n", s.Duration)
	fmt.Fprintf(r.writer, "  requests/sec:       %.1f\n", s.RPS)
	if s.Successes > 0 {
		fmt.Fprintf(r.writer, "  mean duration:      %v\n", s.Mean)
		fmt.Fprintf(r.writer, "  standard deviation: %v\n", s.StdDev)
		fmt.Fprintf(r.writer, "  fastest duration:   %v\n", s.Fastest)
		fmt.Fprintf(r.writer, "  slowest duration:   %v\n", s.Slowest)
	}

	if len(s.Percentiles) > 0 {
		bold.Fprintln(r.writer, "latency distribution:")
		for _, p := range s.Percentiles {
			fmt.Fprintf(r.writer, "  %d%%: %v\n", p.Quantile, p.Value)
		}
	}

	if len(s.Histogram) > 0 {
		bold.Fprintln(r.writer, "latency histogram:")
		fmt.Fprintln(r.writer, "  bin ranges:")
		for _, b := range s.Histogram {
			fmt.Fprintf(r.writer, "  - [%v, %v]\n", b.Start, b.End)
		}
		fmt.Fprintln(r.writer, "  values:")
		r.histogramBars(s.Histogram)
	}

	if len(s.ErrorCounts) > 0 {
		red.Fprintln(r.writer, "errors:")
		for _, msg := range sortedMessages(s.ErrorCounts) {
			fmt.Fprintf(r.writer, "  %s: %d\n", msg, s.ErrorCounts[msg])
		}
	}
}

// histogramBars renders one bar per bin, scaled so the fullest bin spans
// barScale cells. Counts right-align so the bars share a left edge.
func (r *Reporter) histogramBars(bins []Bin) {
	maxCount := 0
	for _, b := range bins {
		if b.Count > maxCount {
			maxCount = b.Count
		}
	}
	if maxCount == 0 {
		return
	}
	width := len(strconv.Itoa(maxCount))
	for _, b := range bins {
		bar := strings.Repeat("█", b.Count*barScale/maxCount)
		fmt.Fprintf(r.writer, "    %*d: %s\n", width, b.Count, bar)
	}
}

func sortedCodes(codes map[int]int64) []int {
	out := make([]int, 0, len(codes))
	for code := range codes {
		out = append(out, code)
	}
	sort.Ints(out)
	return out
}

func sortedMessages(counts map[string]int64) []string {
	out := make([]string, 0, len(counts))
	for msg := range counts {
		out = append(out, msg)
	}
	sort.Strings(out)
	return out
}
