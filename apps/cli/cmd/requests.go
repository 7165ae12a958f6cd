package cmd

import (
	"errors"
	neturl "net/url"

	"github.com/abdul-hamid-achik/apictl/packages/core/runner"
	"github.com/abdul-hamid-achik/apictl/packages/output"
	"github.com/spf13/cobra"
)

var requestsCmd = &cobra.Command{
	Use:   "requests",
	Short: "Inspect and send the configured requests",
}

var (
	requestsFormatFlag   string
	requestsContextsFlag []string
	requestsVerboseFlag  bool
	requestsQuietFlag    bool
)

var requestsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the requests defined in the configuration",
	Args:  cobra.NoArgs,
	RunE:  requestsListCommand,
}

var requestsRunCmd = &cobra.Command{
	Use:   "run <request>...",
	Short: "Send requests in order and print their responses",
	Long: `Send the named requests in order, printing each response body.
Responses accumulate during the run, so a later request can reference an
earlier one through ${response.<request>.<field>} placeholders.

Examples:
  apictl requests run get-posts
  apictl requests run -x production get-posts get-comments
  apictl requests run -v create-post`,
	Args: cobra.MinimumNArgs(1),
	RunE: requestsRunCommand,
}

func init() {
	requestsListCmd.Flags().StringVarP(&requestsFormatFlag, "output", "o", "table", "Output format: table, tsv, yaml")

	requestsRunCmd.Flags().StringArrayVarP(&requestsContextsFlag, "contexts", "x", nil, "Contexts to merge, later ones win (repeatable)")
	requestsRunCmd.Flags().BoolVarP(&requestsVerboseFlag, "verbose", "v", false, "Print the status line and headers with each response")
	requestsRunCmd.Flags().BoolVarP(&requestsQuietFlag, "quiet", "q", getEnvBool("APICTL_QUIET", false), "Suppress response output (env: APICTL_QUIET)")

	requestsCmd.AddCommand(requestsListCmd)
	requestsCmd.AddCommand(requestsRunCmd)
}

func requestsListCommand(cmd *cobra.Command, _ []string) error {
	format, err := output.ParseFormat(requestsFormatFlag)
	if err != nil {
		return exitWith(ExitUsageError, err)
	}
	cfg, err := loadTargetConfig()
	if err != nil {
		return err
	}
	return output.Render(cmd.OutOrStdout(), output.NewRequestList(cfg), format)
}

func requestsRunCommand(cmd *cobra.Command, args []string) error {
	cfg, err := loadTargetConfig()
	if err != nil {
		return err
	}
	vars, err := mergeContexts(cfg, requestsContextsFlag)
	if err != nil {
		return err
	}

	printer := output.NewConsoleFormatter(
		output.WithWriter(cmd.OutOrStdout()),
		output.WithVerbose(requestsVerboseFlag),
	)

	runs, err := runner.New(cfg).RunRequests(cmd.Context(), args, vars)
	if !requestsQuietFlag {
		for _, run := range runs {
			if run.Err == nil {
				printer.PrintResponse(run)
			}
		}
	}
	if err != nil {
		return requestErr(err)
	}
	return nil
}

// requestErr classifies a failed request: delivery failures exit as network
// errors, anything else points back at the configuration.
func requestErr(err error) error {
	var urlErr *neturl.Error
	if errors.As(err, &urlErr) {
		return exitWith(ExitNetworkError, err)
	}
	return exitWith(ExitConfigError, err)
}
