package commands

import (
	"github.com/spf13/cobra"
	"go.trai.ch/neja/internal/app"
)

func (c *CLI) newCleanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clean",
		Short: "Remove build.ninja and the run manifest",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			chdir, _ := cmd.Flags().GetString("chdir")
			link, _ := cmd.Flags().GetBool("link")

			return c.app.Clean(cmd.Context(), app.CleanOptions{
				BuildDir: chdir,
				Link:     link,
			})
		},
	}

	cmd.Flags().StringP("chdir", "C", "", "Build directory (defaults to the working directory)")
	cmd.Flags().BoolP("link", "l", false, "Also remove the build directory link in the source root")

	return cmd
}
