package cmd

import (
	"fmt"
	"strings"

	"github.com/ToruAI/ToruVault/internal/ui"
	"github.com/ToruAI/ToruVault/pkg/vault"

	"github.com/spf13/cobra"
)

var listOrgID string

func init() {
	listCmd.Flags().StringVarP(&listOrgID, "org-id", "o", "", "organization ID (default: ORGANIZATION_ID)")
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List the organization's projects",
	Long: `Lists all projects of the organization along with their IDs, so the ID can
be used to scope 'toruvault get' or 'toruvault run' to a single project.

Examples:
  # List projects of the default organization
  toruvault list

  # List projects of a specific organization
  toruvault list -o 9a8b7c6d-...`,
	RunE: func(cmd *cobra.Command, args []string) error {
		spinner, cleanup := startSpinner("Fetching projects...")
		defer cleanup()

		v, err := vault.Open(vault.Options{Verbose: verbose, Debug: debug})
		if err != nil {
			return Logger.ErrorfAndReturn("failed to open vault: %v", err)
		}
		defer v.Close()

		projects, err := v.Projects(cmd.Context(), listOrgID)
		if err != nil {
			return Logger.ErrorfAndReturn("failed to list projects: %v", err)
		}

		if len(projects) == 0 {
			spinner.FinalMSG = ui.Warning.Sprint("⚠") + " No projects found"
			return nil
		}

		var out strings.Builder
		out.WriteString(ui.Success.Sprint("✓") + " Available projects:\n\n")
		for _, project := range projects {
			out.WriteString(fmt.Sprintf("  %s %s\n", ui.Highlight.Sprint(project.Name), ui.Muted.Sprint(project.ID)))
			if project.CreationDate != "" {
				out.WriteString("    created " + project.CreationDate + "\n")
			}
		}

		spinner.FinalMSG = out.String()
		return nil
	},
}
