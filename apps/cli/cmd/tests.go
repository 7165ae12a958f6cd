package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/abdul-hamid-achik/apictl/packages/core/runner"
	"github.com/abdul-hamid-achik/apictl/packages/output"
	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
)

var testsCmd = &cobra.Command{
	Use:   "tests",
	Short: "Inspect and run the configured tests",
}

// WatchDebounceDelay is the debounce delay for file watch events
const WatchDebounceDelay = 300 * time.Millisecond

var (
	testsFormatFlag      string
	testsRunContextsFlag []string
	testsRunOutputFlag   string
	testsRunWatchFlag    bool
	testsRunNoColorFlag  bool
)

var testsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the tests defined in the configuration",
	Args:  cobra.NoArgs,
	RunE:  testsListCommand,
}

var testsDescribeCmd = &cobra.Command{
	Use:   "describe <test>...",
	Short: "Show the steps and assertions of tests",
	Args:  cobra.MinimumNArgs(1),
	RunE:  testsDescribeCommand,
}

var testsRunCmd = &cobra.Command{
	Use:   "run [<test>...]",
	Short: "Run tests and report their results",
	Long: `Run the named tests, or every test when none are named. Steps run
in declaration order; a failing step aborts the steps after it.

Examples:
  apictl tests run
  apictl tests run crud
  apictl tests run -x staging crud search
  apictl tests run --output json
  apictl tests run --watch`,
	RunE: testsRunCommand,
}

func init() {
	testsListCmd.Flags().StringVarP(&testsFormatFlag, "output", "o", "table", "Output format: table, tsv, yaml")

	testsRunCmd.Flags().StringArrayVarP(&testsRunContextsFlag, "contexts", "x", nil, "Contexts to merge, later ones win (repeatable)")
	testsRunCmd.Flags().StringVar(&testsRunOutputFlag, "output", getEnvString("APICTL_OUTPUT", "console"), "Output format: console, json (env: APICTL_OUTPUT)")
	testsRunCmd.Flags().BoolVarP(&testsRunWatchFlag, "watch", "w", false, "Watch the configuration for changes and re-run")
	testsRunCmd.Flags().BoolVar(&testsRunNoColorFlag, "no-color", getEnvBool("APICTL_NO_COLOR", false), "Disable colored output (env: APICTL_NO_COLOR)")

	testsCmd.AddCommand(testsListCmd)
	testsCmd.AddCommand(testsDescribeCmd)
	testsCmd.AddCommand(testsRunCmd)
}

// Formatter is the interface every test output format implements.
type Formatter interface {
	FormatTestResult(result *runner.TestResult)
	FormatError(err error)
	FormatHeader(version string)
}

// Summarizer is implemented by formatters that print a closing summary from
// the collected results.
type Summarizer interface {
	FormatSummary(results []*runner.TestResult, total time.Duration)
}

// Flushable is implemented by formatters that buffer output until the end
// of the run.
type Flushable interface {
	Flush(totalDuration time.Duration) error
}

func newTestFormatter(cmd *cobra.Command) (Formatter, error) {
	switch strings.ToLower(testsRunOutputFlag) {
	case "json":
		return output.NewJSONFormatter(output.JSONWithWriter(cmd.OutOrStdout())), nil
	case "console":
		return output.NewConsoleFormatter(
			output.WithWriter(cmd.OutOrStdout()),
			output.WithNoColor(testsRunNoColorFlag),
		), nil
	default:
		return nil, fmt.Errorf("unknown output format: %s", testsRunOutputFlag)
	}
}

func testsListCommand(cmd *cobra.Command, _ []string) error {
	format, err := output.ParseFormat(testsFormatFlag)
	if err != nil {
		return exitWith(ExitUsageError, err)
	}
	cfg, err := loadTargetConfig()
	if err != nil {
		return err
	}
	return output.Render(cmd.OutOrStdout(), output.NewTestList(cfg), format)
}

func testsDescribeCommand(cmd *cobra.Command, args []string) error {
	cfg, err := loadTargetConfig()
	if err != nil {
		return err
	}
	for _, name := range args {
		test, ok := cfg.Tests[name]
		if !ok {
			return exitWith(ExitConfigError, fmt.Errorf("test not found: %q", name))
		}
		output.DescribeTest(cmd.OutOrStdout(), name, test)
	}
	return nil
}

func testsRunCommand(cmd *cobra.Command, args []string) error {
	if testsRunWatchFlag {
		return watchTests(cmd, args)
	}
	code, err := runTests(cmd, args)
	if err != nil {
		return err
	}
	if code != ExitSuccess {
		os.Exit(code)
	}
	return nil
}

// runTests executes the named tests once against a freshly loaded
// configuration and returns the exit code the run deserves.
func runTests(cmd *cobra.Command, args []string) (int, error) {
	formatter, err := newTestFormatter(cmd)
	if err != nil {
		return 0, exitWith(ExitUsageError, err)
	}

	cfg, err := loadTargetConfig()
	if err != nil {
		return 0, err
	}
	vars, err := mergeContexts(cfg, testsRunContextsFlag)
	if err != nil {
		return 0, err
	}

	names := args
	if len(names) == 0 {
		names = cfg.TestNames()
	}

	formatter.FormatHeader(version)

	r := runner.New(cfg)
	results := make([]*runner.TestResult, 0, len(names))
	start := time.Now()
	for _, name := range names {
		result, err := r.RunTest(cmd.Context(), name, vars)
		if err != nil {
			return 0, exitWith(ExitConfigError, err)
		}
		formatter.FormatTestResult(result)
		results = append(results, result)
	}
	elapsed := time.Since(start)

	if s, ok := formatter.(Summarizer); ok {
		s.FormatSummary(results, elapsed)
	}
	if f, ok := formatter.(Flushable); ok {
		if err := f.Flush(elapsed); err != nil {
			return 0, fmt.Errorf("error writing output: %w", err)
		}
	}

	for _, result := range results {
		if !result.Passed() {
			return ExitTestFailure, nil
		}
	}
	return ExitSuccess, nil
}

// watchTests re-runs the tests whenever the configuration changes. Failures
// and config errors are reported but keep the watch alive, so the loop
// survives a half-saved file.
func watchTests(cmd *cobra.Command, args []string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer watcher.Close()

	// Editors often replace files on save, so watch the directory and
	// filter events down to the configured path.
	target := filepath.Clean(configFlag)
	watchDir := filepath.Dir(target)
	if info, statErr := os.Stat(target); statErr == nil && info.IsDir() {
		watchDir = target
	}
	if err := watcher.Add(watchDir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", watchDir, err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	cmd.SetContext(ctx)

	runOnce := func() {
		if _, err := runTests(cmd, args); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
		}
	}

	runOnce()
	fmt.Fprintf(cmd.OutOrStdout(), "\nWatching %s for changes... (press Ctrl+C to stop)\n", configFlag)

	var debounce *time.Timer
	for {
		select {
		case <-ctx.Done():
			fmt.Fprintln(cmd.OutOrStdout())
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if !watchHit(target, event.Name) {
				continue
			}
			if debounce != nil {
				debounce.Stop()
			}
			debounce = time.AfterFunc(WatchDebounceDelay, func() {
				fmt.Fprintf(cmd.OutOrStdout(), "\nConfiguration changed: %s\nRe-running tests...\n", event.Name)
				runOnce()
				fmt.Fprintf(cmd.OutOrStdout(), "\nWatching %s for changes... (press Ctrl+C to stop)\n", configFlag)
			})
		case werr, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "Error: watcher error: %v\n", werr)
		}
	}
}

// watchHit reports whether an event path belongs to the watched target, the
// config file itself or any yaml file under a config directory.
func watchHit(target, name string) bool {
	if filepath.Clean(name) == target {
		return true
	}
	info, err := os.Stat(target)
	if err != nil || !info.IsDir() {
		return false
	}
	switch strings.ToLower(filepath.Ext(name)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}
