package output

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/abdul-hamid-achik/apictl/packages/assertions"
	"github.com/abdul-hamid-achik/apictl/packages/core/config"
	"github.com/abdul-hamid-achik/apictl/packages/core/runner"
	"github.com/fatih/color"
)

// ConsoleFormatter renders runner results as a colored tree.
type ConsoleFormatter struct {
	writer  io.Writer
	verbose bool
	noColor bool
}

type ConsoleOption func(*ConsoleFormatter)

func NewConsoleFormatter(opts ...ConsoleOption) *ConsoleFormatter {
	f := &ConsoleFormatter{
		writer: os.Stdout,
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.noColor {
		color.NoColor = true
	}
	return f
}

func WithWriter(w io.Writer) ConsoleOption {
	return func(f *ConsoleFormatter) {
		f.writer = w
	}
}

func WithVerbose(v bool) ConsoleOption {
	return func(f *ConsoleFormatter) {
		f.verbose = v
	}
}

func WithNoColor(nc bool) ConsoleOption {
	return func(f *ConsoleFormatter) {
		f.noColor = nc
	}
}

// FormatTestResult writes one test run as an indented tree. Steps that
// never ran render dim; failures carry their reason beneath the line.
func (f *ConsoleFormatter) FormatTestResult(result *runner.TestResult) {
	green := color.New(color.FgGreen).SprintFunc()
	red := color.New(color.FgRed).SprintFunc()
	cyan := color.New(color.FgCyan).SprintFunc()
	dim := color.New(color.Faint).SprintFunc()

	glyph := func(s runner.State) string {
		switch s {
		case runner.StatePassed:
			return green("✓")
		case runner.StateFailed:
			return red("✗")
		default:
			return dim("-")
		}
	}

	fmt.Fprintf(f.writer, "\n%s %s %s\n", glyph(result.State), result.Name, cyan(formatMillis(result.Duration)))

	for _, step := range result.Steps {
		if step.State == runner.StatePending {
			fmt.Fprintf(f.writer, "  %s %s\n", dim("-"), dim(step.Name))
			continue
		}

		fmt.Fprintf(f.writer, "  %s %s %s\n", glyph(step.State), step.Name, cyan(formatMillis(step.Duration)))

		if step.Err != nil {
			fmt.Fprintf(f.writer, "    %s\n", red(step.Err.Error()))
			continue
		}

		if f.verbose && step.Response != nil {
			fmt.Fprintf(f.writer, "    %s\n", dim(step.Response.Status))
		}

		for _, a := range step.Assertions {
			if a.Passed {
				fmt.Fprintf(f.writer, "    %s %s\n", green("✓"), a.Name)
				continue
			}
			fmt.Fprintf(f.writer, "    %s %s\n", red("✗"), a.Name)
			fmt.Fprintf(f.writer, "      %s\n", assertMessage(a))
		}

		for _, a := range step.SQLAsserts {
			if a.Passed {
				fmt.Fprintf(f.writer, "    %s %s\n", green("✓"), a.Name)
				continue
			}
			fmt.Fprintf(f.writer, "    %s %s\n", red("✗"), a.Name)
			fmt.Fprintf(f.writer, "      %s\n", a.Message)
		}
	}
}

func assertMessage(a *assertions.Result) string {
	if a.Err != nil {
		return a.Err.Error()
	}
	return a.Message
}

// FormatSummary writes aggregate counts for a batch of test runs.
func (f *ConsoleFormatter) FormatSummary(results []*runner.TestResult, total time.Duration) {
	green := color.New(color.FgGreen).SprintFunc()
	red := color.New(color.FgRed).SprintFunc()

	var passed, failed int
	for _, r := range results {
		if r.Passed() {
			passed++
		} else {
			failed++
		}
	}

	fmt.Fprintf(f.writer, "\nTests: ")
	if passed > 0 {
		fmt.Fprintf(f.writer, "%s, ", green(fmt.Sprintf("%d passed", passed)))
	}
	if failed > 0 {
		fmt.Fprintf(f.writer, "%s, ", red(fmt.Sprintf("%d failed", failed)))
	}
	fmt.Fprintf(f.writer, "%d total\n", len(results))
	fmt.Fprintf(f.writer, "Time:  %dms\n", total.Milliseconds())
}

// PrintResponse writes a standalone request run's response body. Verbose
// mode prepends the request id, status line and headers.
func (f *ConsoleFormatter) PrintResponse(run *runner.RequestRun) {
	resp := run.Response
	if resp == nil {
		return
	}

	if f.verbose {
		status := color.New(color.FgGreen)
		switch {
		case resp.IsClientError() || resp.IsServerError():
			status = color.New(color.FgRed)
		case resp.IsRedirect():
			status = color.New(color.FgYellow)
		}
		cyan := color.New(color.FgCyan).SprintFunc()
		fmt.Fprintf(f.writer, "%s %s %s\n", cyan(run.ID), status.Sprint(resp.Status), formatMillis(run.Duration))

		names := make([]string, 0, len(resp.Headers))
		for name := range resp.Headers {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			fmt.Fprintf(f.writer, "%s: %s\n", name, resp.Headers[name])
		}
		fmt.Fprintln(f.writer)
	}

	if body := strings.TrimRight(string(resp.Body), "\n"); body != "" {
		fmt.Fprintln(f.writer, body)
	}
}

func (f *ConsoleFormatter) FormatError(err error) {
	red := color.New(color.FgRed).SprintFunc()
	fmt.Fprintf(f.writer, "%s %v\n", red("Error:"), err)
}

func (f *ConsoleFormatter) FormatHeader(version string) {
	bold := color.New(color.Bold).SprintFunc()
	fmt.Fprintf(f.writer, "%s %s\n", bold("apictl"), version)
}

// DescribeTest writes a test's steps and assertions in declaration
// order, the order they will execute in.
func DescribeTest(w io.Writer, name string, test *config.Test) {
	bold := color.New(color.Bold).SprintFunc()

	fmt.Fprintf(w, "%s\n", bold(name))
	if test.Description != "" {
		fmt.Fprintf(w, "  description: %s\n", test.Description)
	}
	fmt.Fprintf(w, "  steps:\n")
	for _, step := range test.Steps {
		label := step.Name
		if label == "" {
			label = step.Request
		}
		fmt.Fprintf(w, "    %s (%s)\n", label, step.Request)
		if len(step.Asserts) > 0 {
			fmt.Fprintf(w, "      asserts:\n")
			for _, a := range step.Asserts {
				fmt.Fprintf(w, "        %s\n", a)
			}
		}
		if len(step.SQLAsserts) > 0 {
			fmt.Fprintf(w, "      sql_asserts:\n")
			for _, a := range step.SQLAsserts {
				fmt.Fprintf(w, "        %s\n", a)
			}
		}
	}
}

func formatMillis(d time.Duration) string {
	return fmt.Sprintf("(%dms)", d.Milliseconds())
}
