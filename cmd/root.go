package cmd

import (
	"fmt"

	logger "github.com/ToruAI/ToruVault/internal/logging"

	"github.com/common-nighthawk/go-figure"
	"github.com/spf13/cobra"
)

var (
	verbose bool
	debug   bool
	Logger  logger.Logger

	rootCmd = &cobra.Command{
		Use:   "toruvault",
		Short: "ToruVault - Load secrets from your secrets manager into your environment.",
		Long: `ToruVault fetches secrets from a Bitwarden-compatible secrets manager and
exposes them to your processes, with a machine-bound encrypted local cache.

Configuration comes from the environment:
  BWS_TOKEN        machine access token (required)
  STATE_FILE       path for the authentication state file (required)
  ORGANIZATION_ID  default organization (optional, can be persisted)
  API_URL          provider API endpoint (optional)
  IDENTITY_URL     provider identity endpoint (optional)

Run 'toruvault help <command>' for more details on a specific command.
`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			Logger = logger.Logger{
				Verbose: verbose,
				Debug:   debug,
			}
			Logger.Debugf("Initializing toruvault with verbose=%t, debug=%t", verbose, debug)
		},
		Run: func(cmd *cobra.Command, args []string) {
			banner := figure.NewColorFigure("ToruVault", "", "green", true)
			banner.Print()
			fmt.Println("Run 'toruvault --help' to see available commands.")
		},
	}
)

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "enable debug output")

	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(getCmd)
	rootCmd.AddCommand(runCmd)
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
