package cmd

import (
	"fmt"
	"sort"
	"strings"

	"github.com/ToruAI/ToruVault/internal/ui"
	"github.com/ToruAI/ToruVault/pkg/vault"

	"github.com/spf13/cobra"
)

var (
	getOrgID      string
	getProjectID  string
	getRefresh    bool
	getShowValues bool
)

func init() {
	getCmd.Flags().StringVarP(&getOrgID, "org-id", "o", "", "organization ID (default: ORGANIZATION_ID)")
	getCmd.Flags().StringVarP(&getProjectID, "project-id", "p", "", "limit secrets to one project")
	getCmd.Flags().BoolVarP(&getRefresh, "refresh", "r", false, "bypass the cache and refetch")
	getCmd.Flags().BoolVar(&getShowValues, "show-values", false, "print secret values (default: names only)")
}

var getCmd = &cobra.Command{
	Use:   "get",
	Short: "Fetch secrets and print them",
	Long: `Fetches the secret set for an organization (optionally scoped to one
project) and prints the secret names. Values are only printed with
--show-values; be careful with shell history and scrollback.

Secrets without a project association are unscoped and are included for
every project filter.

Examples:
  # Print the names of all secrets in the default organization
  toruvault get

  # Print NAME=VALUE pairs for one project, bypassing the cache
  toruvault get -p 1f2e3d4c-... --refresh --show-values`,
	RunE: func(cmd *cobra.Command, args []string) error {
		spinner, cleanup := startSpinner("Fetching secrets...")
		defer cleanup()

		v, err := vault.Open(vault.Options{Verbose: verbose, Debug: debug})
		if err != nil {
			return Logger.ErrorfAndReturn("failed to open vault: %v", err)
		}
		defer v.Close()

		fetched, err := v.Get(cmd.Context(), getOrgID, getProjectID, getRefresh)
		if err != nil {
			return Logger.ErrorfAndReturn("failed to fetch secrets: %v", err)
		}

		if len(fetched) == 0 {
			spinner.FinalMSG = ui.Warning.Sprint("⚠") + " No secrets found"
			return nil
		}

		names := make([]string, 0, len(fetched))
		for name := range fetched {
			names = append(names, name)
		}
		sort.Strings(names)

		var out strings.Builder
		out.WriteString(ui.Success.Sprint("✓") + fmt.Sprintf(" %d secret(s):\n", len(names)))
		for _, name := range names {
			if getShowValues {
				out.WriteString("  " + name + "=" + fetched[name] + "\n")
			} else {
				out.WriteString("  " + name + "\n")
			}
		}

		spinner.FinalMSG = out.String()
		return nil
	},
}
