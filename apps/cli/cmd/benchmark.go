package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/abdul-hamid-achik/apictl/packages/bench"
	"github.com/spf13/cobra"
)

var benchmarkCmd = &cobra.Command{
	Use:   "benchmark <request>...",
	Short: "Benchmark requests and report latency statistics",
	Long: `Send the named requests repeatedly and report status codes, latency
statistics, a percentile distribution, and a latency histogram. Each
iteration runs the full request list in order with its own response store,
so chained placeholders keep working under load.

Examples:
  apictl benchmark get-posts
  apictl benchmark -n 1000 -p 16 get-posts
  apictl benchmark -x staging --rate 50 get-posts get-comments`,
	Args: cobra.MinimumNArgs(1),
	RunE: benchmarkCommand,
}

var (
	benchContextsFlag   []string
	benchNumberFlag     int
	benchParallelFlag   int
	benchRateFlag       float64
	benchNoProgressFlag bool
)

func init() {
	benchmarkCmd.Flags().StringArrayVarP(&benchContextsFlag, "contexts", "x", nil, "Contexts to merge, later ones win (repeatable)")
	benchmarkCmd.Flags().IntVarP(&benchNumberFlag, "number", "n", bench.DefaultNumber, "Iterations of the request list")
	benchmarkCmd.Flags().IntVarP(&benchParallelFlag, "parallel", "p", getEnvInt("APICTL_PARALLEL", bench.DefaultParallel), "Concurrent workers (env: APICTL_PARALLEL)")
	benchmarkCmd.Flags().Float64Var(&benchRateFlag, "rate", 0, "Cap iterations per second, 0 means unlimited")
	benchmarkCmd.Flags().BoolVar(&benchNoProgressFlag, "no-progress", false, "Disable the progress display")
}

func benchmarkCommand(cmd *cobra.Command, args []string) error {
	cfg, err := loadTargetConfig()
	if err != nil {
		return err
	}
	vars, err := mergeContexts(cfg, benchContextsFlag)
	if err != nil {
		return err
	}

	reporter := bench.NewReporter(bench.WithWriter(cmd.OutOrStdout()))

	var opts []bench.RunnerOption
	if !benchNoProgressFlag {
		opts = append(opts, bench.WithProgress(reporter.Progress))
	}

	r, err := bench.NewRunner(cfg, bench.Config{
		Number:   benchNumberFlag,
		Parallel: benchParallelFlag,
		Rate:     benchRateFlag,
		Requests: args,
		Vars:     vars,
	}, opts...)
	if err != nil {
		return exitWith(ExitConfigError, err)
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		fmt.Fprintln(os.Stderr, "\nReceived interrupt, stopping...")
		cancel()
	}()

	summary := r.Run(ctx)
	if !benchNoProgressFlag {
		reporter.ClearProgress()
	}
	reporter.Summary(summary)
	return nil
}
