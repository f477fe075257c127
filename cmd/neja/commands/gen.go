package commands

import (
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.trai.ch/neja/internal/app"
	"go.trai.ch/neja/internal/core/domain"
)

func (c *CLI) newGenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "gen",
		Short: "Generate build.ninja from a definition unit",
		Long: "Load the definition unit given with --file and every unit it imports, then write " +
			"build.ninja into the build directory. The build directory defaults to the working directory.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			file, _ := cmd.Flags().GetString("file")
			chdir, _ := cmd.Flags().GetString("chdir")
			if file == "" {
				return domain.ErrMissingUnitFile
			}

			_, err := c.app.Generate(cmd.Context(), app.GenerateOptions{
				RootUnit: file,
				BuildDir: chdir,
				Exe:      executable(),
			})
			return err
		},
	}

	cmd.Flags().StringP("file", "f", "", "Path to the root definition unit")
	cmd.Flags().StringP("chdir", "C", "", "Build directory (defaults to the working directory)")

	return cmd
}

// executable returns the resolved path of the running binary, or "neja" when it cannot be found.
func executable() string {
	exe, err := os.Executable()
	if err != nil {
		return "neja"
	}
	if resolved, err := filepath.EvalSymlinks(exe); err == nil {
		return resolved
	}
	return exe
}
