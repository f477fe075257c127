// Package commands implements the CLI commands for neja.
package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.trai.ch/neja/internal/adapters/detector"
	"go.trai.ch/neja/internal/app"
	"go.trai.ch/neja/internal/build"
)

// CLI represents the command line interface for neja.
type CLI struct {
	app     Application
	log     app.LogSettings
	rootCmd *cobra.Command
}

// Application represents the application logic interface.
type Application interface {
	Generate(ctx context.Context, opts app.GenerateOptions) (*app.GenerateResult, error)
	Clean(ctx context.Context, opts app.CleanOptions) error
	Status(ctx context.Context, opts app.StatusOptions) (*app.StatusReport, error)
}

// New creates a new CLI instance with the given app.
func New(a Application, log app.LogSettings) *CLI {
	rootCmd := &cobra.Command{
		Use:           "neja",
		Short:         "Compile build definitions into a Ninja build graph",
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       build.Version,
	}

	rootCmd.SetVersionTemplate(fmt.Sprintf(
		"{{.Name}} version {{.Version}} (commit: %s, date: %s)\n",
		build.Commit,
		build.Date,
	))
	rootCmd.InitDefaultVersionFlag()
	rootCmd.Flags().Lookup("version").Usage = "Print the application version"

	rootCmd.InitDefaultHelpFlag()
	rootCmd.Flags().Lookup("help").Usage = "Show help for command"

	rootCmd.PersistentFlags().String("log-format", "auto", "Log format: auto, pretty or json")
	rootCmd.PersistentFlags().Bool("verbose", false, "Show debug logs and phase timings")

	c := &CLI{
		app:     a,
		log:     log,
		rootCmd: rootCmd,
	}

	rootCmd.PersistentPreRun = func(cmd *cobra.Command, _ []string) {
		format, _ := cmd.Flags().GetString("log-format")
		verbose, _ := cmd.Flags().GetBool("verbose")
		resolved := detector.ResolveFormat(detector.DetectFormat(), format)
		c.log.SetJSON(resolved == detector.FormatJSON)
		c.log.SetVerbose(verbose)
	}

	rootCmd.AddCommand(c.newGenCmd())
	rootCmd.AddCommand(c.newCleanCmd())
	rootCmd.AddCommand(c.newStatusCmd())
	rootCmd.AddCommand(c.newVersionCmd())

	return c
}

// Execute runs the root command with the given context.
func (c *CLI) Execute(ctx context.Context) error {
	c.rootCmd.SetContext(ctx)
	return c.rootCmd.Execute()
}

// SetArgs sets the arguments for the root command. Used for testing.
func (c *CLI) SetArgs(args []string) {
	c.rootCmd.SetArgs(args)
}

// SetOutput sets the output and error streams for the root command. Used for testing.
func (c *CLI) SetOutput(out, err io.Writer) {
	c.rootCmd.SetOut(out)
	c.rootCmd.SetErr(err)
}
