package commands

import (
	"github.com/spf13/cobra"
	"go.trai.ch/neja/internal/app"
	"go.trai.ch/neja/internal/core/domain"
)

func (c *CLI) newStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the definition units changed since the last generation",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			chdir, _ := cmd.Flags().GetString("chdir")
			check, _ := cmd.Flags().GetBool("check")

			report, err := c.app.Status(cmd.Context(), app.StatusOptions{BuildDir: chdir})
			if err != nil {
				return err
			}
			if check && report.Stale() {
				return domain.ErrOutputStale
			}
			return nil
		},
	}

	cmd.Flags().StringP("chdir", "C", "", "Build directory (defaults to the working directory)")
	cmd.Flags().Bool("check", false, "Exit with status 1 when build.ninja is stale")

	return cmd
}
