package output

import (
	"encoding/json"
	"io"
	"os"
	"time"

	"github.com/abdul-hamid-achik/apictl/packages/core/runner"
)

// JSONDocument is the complete output structure for a batch of runs.
type JSONDocument struct {
	Summary  JSONSummary `json:"summary"`
	Tests    []JSONTest  `json:"tests"`
	Duration float64     `json:"duration"`
	Time     string      `json:"time"`
}

// JSONSummary counts terminal states across the batch.
type JSONSummary struct {
	Total  int `json:"total"`
	Passed int `json:"passed"`
	Failed int `json:"failed"`
}

// JSONTest is one test run.
type JSONTest struct {
	RunID       string     `json:"runId"`
	Name        string     `json:"name"`
	Description string     `json:"description,omitempty"`
	State       string     `json:"state"`
	FailReason  string     `json:"failReason,omitempty"`
	Duration    float64    `json:"duration"`
	Steps       []JSONStep `json:"steps"`
}

// JSONStep is one step within a test run.
type JSONStep struct {
	Name          string          `json:"name"`
	Request       string          `json:"request"`
	State         string          `json:"state"`
	Duration      float64         `json:"duration"`
	Error         string          `json:"error,omitempty"`
	Response      *JSONResponse   `json:"response,omitempty"`
	Assertions    []JSONAssertion `json:"assertions,omitempty"`
	SQLAssertions []JSONAssertion `json:"sqlAssertions,omitempty"`
}

// JSONResponse summarizes the captured response.
type JSONResponse struct {
	StatusCode int     `json:"statusCode"`
	Status     string  `json:"status"`
	Duration   float64 `json:"duration"`
}

// JSONAssertion is one evaluated assertion.
type JSONAssertion struct {
	Name     string `json:"name"`
	Passed   bool   `json:"passed"`
	Expected string `json:"expected,omitempty"`
	Actual   string `json:"actual,omitempty"`
	Message  string `json:"message,omitempty"`
}

// JSONFormatter accumulates test results and writes one document on
// Flush.
type JSONFormatter struct {
	writer  io.Writer
	results []JSONTest
}

type JSONOption func(*JSONFormatter)

func NewJSONFormatter(opts ...JSONOption) *JSONFormatter {
	f := &JSONFormatter{
		writer:  os.Stdout,
		results: make([]JSONTest, 0),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func JSONWithWriter(w io.Writer) JSONOption {
	return func(f *JSONFormatter) {
		f.writer = w
	}
}

func (f *JSONFormatter) FormatTestResult(result *runner.TestResult) {
	test := JSONTest{
		RunID:       result.RunID.String(),
		Name:        result.Name,
		Description: result.Description,
		State:       result.State.String(),
		FailReason:  result.FailReason,
		Duration:    float64(result.Duration.Milliseconds()),
		Steps:       make([]JSONStep, len(result.Steps)),
	}

	for i, step := range result.Steps {
		js := JSONStep{
			Name:     step.Name,
			Request:  step.RequestID,
			State:    step.State.String(),
			Duration: float64(step.Duration.Milliseconds()),
		}

		if step.Err != nil {
			js.Error = step.Err.Error()
		}

		if step.Response != nil {
			js.Response = &JSONResponse{
				StatusCode: step.Response.StatusCode,
				Status:     step.Response.Status,
				Duration:   float64(step.Response.Duration.Milliseconds()),
			}
		}

		for _, a := range step.Assertions {
			js.Assertions = append(js.Assertions, JSONAssertion{
				Name:     a.Name,
				Passed:   a.Passed,
				Expected: a.Expected,
				Actual:   a.Actual,
				Message:  assertMessage(a),
			})
		}
		for _, a := range step.SQLAsserts {
			js.SQLAssertions = append(js.SQLAssertions, JSONAssertion{
				Name:     a.Name,
				Passed:   a.Passed,
				Expected: a.Expected,
				Actual:   a.Actual,
				Message:  a.Message,
			})
		}

		test.Steps[i] = js
	}

	f.results = append(f.results, test)
}

func (f *JSONFormatter) FormatError(err error) {
	// Errors surface through individual test results.
}

func (f *JSONFormatter) FormatHeader(version string) {
	// No header in JSON output.
}

// Flush writes the accumulated document.
func (f *JSONFormatter) Flush(totalDuration time.Duration) error {
	var passed, failed int
	for _, t := range f.results {
		if t.State == runner.StatePassed.String() {
			passed++
		} else {
			failed++
		}
	}

	doc := JSONDocument{
		Summary: JSONSummary{
			Total:  len(f.results),
			Passed: passed,
			Failed: failed,
		},
		Tests:    f.results,
		Duration: float64(totalDuration.Milliseconds()),
		Time:     time.Now().Format(time.RFC3339),
	}

	encoder := json.NewEncoder(f.writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(doc)
}
