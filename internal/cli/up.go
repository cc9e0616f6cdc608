package cli

import (
	"github.com/spf13/cobra"

	"webharness/internal/harness"
)

// NewUpCommand creates the "up" command: start the stack and wait for it
// to become healthy. On health check failure the stack is torn down so no
// containers linger.
func NewUpCommand() *cobra.Command {
	var skipWait bool

	cmd := &cobra.Command{
		Use:   "up",
		Short: "Start the stack and wait for it to become healthy",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			h := harness.New(cfg)
			if skipWait {
				return h.Compose.Up(cmd.Context())
			}
			return h.Start(cmd.Context())
		},
	}

	cmd.Flags().BoolVar(&skipWait, "no-wait", false, "start containers without polling for readiness")

	return cmd
}
