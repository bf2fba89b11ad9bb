package cmd

import (
	"errors"
	"os"
	"os/exec"

	"github.com/ToruAI/ToruVault/pkg/vault"

	"github.com/spf13/cobra"
)

var (
	runOrgID     string
	runProjectID string
	runOverride  bool
)

func init() {
	runCmd.Flags().StringVarP(&runOrgID, "org-id", "o", "", "organization ID (default: ORGANIZATION_ID)")
	runCmd.Flags().StringVarP(&runProjectID, "project-id", "p", "", "limit secrets to one project")
	runCmd.Flags().BoolVar(&runOverride, "override", false, "let secrets replace existing environment variables")
}

var runCmd = &cobra.Command{
	Use:   "run -- command [args...]",
	Short: "Run a command with secrets injected into its environment",
	Long: `Fetches the secret set and runs the given command with the secrets added
to its environment. Existing environment variables win over secrets of
the same name unless --override is given.

The child's stdin, stdout, and stderr are passed through, and its exit
code becomes toruvault's exit code.

Examples:
  # Run a server with its API keys in the environment
  toruvault run -p 1f2e3d4c-... -- ./server --port 8080

  # Let secrets replace variables that are already set
  toruvault run --override -- env`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		v, err := vault.Open(vault.Options{Verbose: verbose, Debug: debug})
		if err != nil {
			return Logger.ErrorfAndReturn("failed to open vault: %v", err)
		}
		defer v.Close()

		env, err := v.Environ(cmd.Context(), runOrgID, runProjectID, runOverride)
		if err != nil {
			return Logger.ErrorfAndReturn("failed to fetch secrets: %v", err)
		}

		child := exec.CommandContext(cmd.Context(), args[0], args[1:]...) // #nosec G204 -- running the user's own command is the point
		child.Env = env
		child.Stdin = os.Stdin
		child.Stdout = os.Stdout
		child.Stderr = os.Stderr

		if err := child.Run(); err != nil {
			var exitErr *exec.ExitError
			if errors.As(err, &exitErr) {
				// Propagate the child's exit code after the deferred
				// cache teardown has run.
				v.Close()
				os.Exit(exitErr.ExitCode())
			}
			return Logger.ErrorfAndReturn("failed to run %s: %v", args[0], err)
		}

		return nil
	},
}
