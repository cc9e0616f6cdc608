package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"webharness/internal/harness"
)

// NewLogsCommand creates the "logs" command: print the captured logs of
// the named services, or the whole stack when none are given.
func NewLogsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "logs [service...]",
		Short: "Print service logs from the stack",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			out, err := harness.New(cfg).Compose.Logs(cmd.Context(), args...)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), out)
			return nil
		},
	}
}
