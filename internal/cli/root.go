package cli

import (
	"context"
	stderrors "errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/naoray/filastart/internal/config"
	"github.com/naoray/filastart/internal/database"
	"github.com/naoray/filastart/internal/exec"
	"github.com/naoray/filastart/internal/mode"
	"github.com/naoray/filastart/internal/ui"
)

var rootCmd = &cobra.Command{
	Use:   "filastart",
	Short: "Scaffold a Laravel project with a Filament admin panel",
	Long: `filastart creates a new Laravel application, installs Filament,
configures the database and creates an admin user in one run.

Run it in a terminal to be prompted for every option, or pass flags
with --no-interaction (or --json for a machine-readable report).`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Collaborators replaced in tests.
var (
	newCommander = func() exec.Commander { return &exec.RealCommander{} }
	newDatabase  = func() database.Manager { return database.New(database.DefaultTimeout) }
	isTerminal   = mode.IsTerminal
)

// exitError reports a failure that has already been rendered.
type exitError struct {
	code int
}

func (e *exitError) Error() string {
	return fmt.Sprintf("exit status %d", e.code)
}

// rawArgs are the arguments of the current Execute call.
var rawArgs []string

// Execute runs the root command with args and returns the process exit code.
func Execute(ctx context.Context, args []string) int {
	rawArgs = args
	rootCmd.SetArgs(args)

	err := rootCmd.ExecuteContext(ctx)
	if err == nil {
		return config.ExitSuccess
	}

	var exit *exitError
	if stderrors.As(err, &exit) {
		return exit.code
	}
	if ui.IsAbort(err) {
		fmt.Fprintln(rootCmd.ErrOrStderr(), err)
		return config.ExitInterrupted
	}

	fmt.Fprintf(rootCmd.ErrOrStderr(), "Error: %v\n", err)
	return config.ExitFailure
}

// globalFlags are the persistent mode flags.
type globalFlags struct {
	JSON           bool
	NoColor        bool
	Color          bool
	Defaults       bool
	NonInteractive bool
	Verbose        bool
	ConfigPath     string
}

func readGlobalFlags(cmd *cobra.Command) globalFlags {
	var g globalFlags
	g.JSON, _ = cmd.Flags().GetBool("json")
	g.NoColor, _ = cmd.Flags().GetBool("no-color")
	g.Color, _ = cmd.Flags().GetBool("color")
	g.Defaults, _ = cmd.Flags().GetBool("defaults")
	g.NonInteractive, _ = cmd.Flags().GetBool("no-interaction")
	g.Verbose, _ = cmd.Flags().GetBool("verbose")
	g.ConfigPath, _ = cmd.Flags().GetString("config")
	return g
}

// resolveMode computes the output mode once per command.
func resolveMode(g globalFlags) mode.Descriptor {
	return mode.Resolve(mode.Inputs{
		JSON:           g.JSON,
		NoColor:        g.NoColor || os.Getenv("NO_COLOR") != "",
		ForceColor:     g.Color,
		NonInteractive: g.NonInteractive,
		AssumeDefaults: g.Defaults,
		Verbose:        g.Verbose,
		StdinTTY:       isTerminal(os.Stdin),
		StdoutTTY:      isTerminal(os.Stdout),
	})
}

func init() {
	rootCmd.PersistentFlags().Bool("json", false, "Write a single JSON report to stdout")
	rootCmd.PersistentFlags().Bool("no-color", false, "Disable colored output")
	rootCmd.PersistentFlags().Bool("color", false, "Force colored output")
	rootCmd.PersistentFlags().Bool("defaults", false, "Use defaults for unset options instead of prompting")
	rootCmd.PersistentFlags().BoolP("no-interaction", "n", false, "Never prompt; fail when required options are missing")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().String("config", "", "Config file (default $XDG_CONFIG_HOME/filastart/filastart.yaml)")
}
