package cli

import (
	"github.com/spf13/cobra"

	"webharness/internal/harness"
)

// NewDownCommand creates the "down" command: tear the stack down,
// removing containers, networks, and orphans.
func NewDownCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "down",
		Short: "Stop the stack and remove its containers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			return harness.New(cfg).Compose.Down(cmd.Context())
		},
	}
}
