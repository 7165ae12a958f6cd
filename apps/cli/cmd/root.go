package cmd

import (
	"errors"
	"os"
	"strconv"

	"github.com/abdul-hamid-achik/apictl/packages/core/config"
	"github.com/spf13/cobra"
)

var (
	version   = "dev"
	buildTime = "unknown"
)

// configFlag names the configuration file or directory every command reads.
var configFlag string

var rootCmd = &cobra.Command{
	Use:   "apictl",
	Short: "Declarative API testing from a YAML playbook.",
	Long: `apictl drives HTTP APIs from a declarative YAML configuration.
Define requests, chain their responses through ${...} placeholders, group
them into tests with assertions, and benchmark them, all from one file.`,
}

func Execute(v, bt string) {
	version = v
	buildTime = bt
	if err := rootCmd.Execute(); err != nil {
		var ee *exitError
		if errors.As(err, &ee) {
			os.Exit(ee.code)
		}
		os.Exit(ExitUsageError)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFlag, "config", "c",
		getEnvString("APICTL_CONFIG", ".apictl.yaml"),
		"Configuration file or directory (env: APICTL_CONFIG)")

	rootCmd.AddCommand(requestsCmd)
	rootCmd.AddCommand(contextsCmd)
	rootCmd.AddCommand(testsCmd)
	rootCmd.AddCommand(benchmarkCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(versionCmd)
}

// loadTargetConfig reads the configuration named by --config.
func loadTargetConfig() (*config.Config, error) {
	cfg, err := config.Load(configFlag)
	if err != nil {
		return nil, exitWith(ExitConfigError, err)
	}
	return cfg, nil
}

// mergeContexts flattens the named contexts into the variable set runs
// resolve against.
func mergeContexts(cfg *config.Config, names []string) (map[string]string, error) {
	vars, err := cfg.MergeNamed(names...)
	if err != nil {
		return nil, exitWith(ExitConfigError, err)
	}
	return vars, nil
}

// Environment variable helpers
func getEnvString(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	if val := os.Getenv(key); val != "" {
		return val == "true" || val == "1" || val == "yes"
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}
