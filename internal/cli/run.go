package cli

import (
	"context"
	"os"
	"os/exec"

	"github.com/spf13/cobra"

	"webharness/internal/harness"
)

// NewRunCommand creates the "run" command: bring the stack up, run the
// given command against it, and tear the stack down afterwards regardless
// of how the command fared. This is the CLI equivalent of wrapping a test
// session in the harness.
func NewRunCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "run -- <command> [args...]",
		Short: "Run a command against a live stack, then tear it down",
		Example: `  webharness run -- go test ./tests/e2e/ -tags e2e
  webharness run -- pytest tests/e2e/`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			h := harness.New(cfg)
			return h.Run(cmd.Context(), func(ctx context.Context) error {
				child := exec.CommandContext(ctx, args[0], args[1:]...)
				child.Stdout = os.Stdout
				child.Stderr = os.Stderr
				child.Stdin = os.Stdin
				// The stack's page URL is handed to the child so test
				// runners need no extra configuration.
				child.Env = append(os.Environ(), "PAGE_URL="+cfg.PageURL())
				return child.Run()
			})
		},
	}
}
