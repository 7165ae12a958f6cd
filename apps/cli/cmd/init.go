package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var forceInit bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a starter configuration file",
	Long: `Create a starter configuration in the current directory.

The generated file defines a local context, three chained requests, and a
smoke test that exercises them. The target path follows the --config flag.

Examples:
  apictl init
  apictl init --force
  apictl -c deploy/apis.yaml init`,
	Args: cobra.NoArgs,
	RunE: initCommand,
}

func init() {
	initCmd.Flags().BoolVarP(&forceInit, "force", "f", false, "Overwrite an existing file")
}

const starterConfig = `# apictl configuration.
#
# Contexts hold variables that requests reference through ` + "`${...}`" + `
# placeholders. Select one or more with --contexts when running.

contexts:
  local:
    base_url: http://localhost:3000

requests:
  health:
    description: Check that the API is up
    tags:
      - smoke
    url: ${base_url}/health

  create-item:
    description: Create an example item
    method: POST
    url: ${base_url}/items
    headers:
      Content-Type: application/json
    payload:
      type: raw
      body:
        type: raw
        data: '{"name": "example"}'

  get-item:
    description: Fetch the item created by create-item
    url: ${base_url}/items/${response.create-item.id}

tests:
  smoke:
    description: Create an item and read it back
    steps:
      - name: service is healthy
        request: health
        asserts:
          - type: status_code
            value: 200
      - name: item can be created
        request: create-item
        asserts:
          - type: status_code
            value: 201
          - type: equals
            key: name
            value: example
      - name: item can be fetched
        request: get-item
        asserts:
          - type: status_code
            value: 200
          - type: equals
            key: name
            value: example
`

func initCommand(cmd *cobra.Command, _ []string) error {
	target := configFlag

	if !forceInit {
		if _, err := os.Stat(target); err == nil {
			return fmt.Errorf("file already exists: %s (use --force to overwrite)", target)
		}
	}

	if err := os.WriteFile(target, []byte(starterConfig), 0644); err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Created: %s\n", target)

	fmt.Fprintf(cmd.OutOrStdout(), "\napictl project initialized!\n")
	fmt.Fprintf(cmd.OutOrStdout(), "Run 'apictl validate' to check the configuration and 'apictl tests run' to execute the smoke test.\n")

	return nil
}
