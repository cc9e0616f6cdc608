package cli

import (
	"github.com/spf13/cobra"

	"webharness/internal/health"
)

// NewWaitCommand creates the "wait" command: poll the page URL until it
// answers 200 or the timeout elapses, without touching the stack.
func NewWaitCommand() *cobra.Command {
	var url string

	cmd := &cobra.Command{
		Use:   "wait",
		Short: "Poll the page URL until the application answers healthy",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if url == "" {
				url = cfg.PageURL()
			}

			checker := &health.Checker{
				Interval: cfg.Health.Interval,
				Timeout:  cfg.Health.Timeout,
			}
			return checker.Wait(cmd.Context(), url)
		},
	}

	cmd.Flags().StringVar(&url, "url", "", "URL to poll (default derived from HOST_PORT)")

	return cmd
}
