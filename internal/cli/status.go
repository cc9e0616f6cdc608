package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"webharness/internal/docker"
)

// NewStatusCommand creates the "status" command: list the project's
// containers as the engine sees them, running or not.
func NewStatusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the state of the stack's containers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			cli, err := docker.NewClient()
			if err != nil {
				return err
			}
			defer cli.Close()

			infos, err := cli.ProjectContainers(cmd.Context(), cfg.Compose.ProjectName)
			if err != nil {
				return err
			}
			if len(infos) == 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "no containers for project %s\n", cfg.Compose.ProjectName)
				return nil
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "CONTAINER\tSERVICE\tSTATE\tSTATUS")
			for _, ci := range infos {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", ci.Name, ci.Service, ci.State, ci.Status)
			}
			return w.Flush()
		},
	}
}
