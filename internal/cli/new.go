package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/naoray/filastart/internal/config"
	"github.com/naoray/filastart/internal/errors"
	"github.com/naoray/filastart/internal/exec"
	"github.com/naoray/filastart/internal/logging"
	"github.com/naoray/filastart/internal/params"
	"github.com/naoray/filastart/internal/present"
	"github.com/naoray/filastart/internal/report"
	"github.com/naoray/filastart/internal/scaffold"
	"github.com/naoray/filastart/internal/scaffold/steps"
	"github.com/naoray/filastart/internal/ui"
)

var newCmd = &cobra.Command{
	Use:   "new [NAME]",
	Short: "Create a new Laravel project with Filament",
	Long: `Creates a Laravel project, installs Filament and sets up an admin user.

Arguments:
  NAME  Optional project name (same as --name)

In a terminal every unset option is prompted for. With --no-interaction
or --json all required options must come from flags or the config file;
--defaults fills the project name, starter kit and database.`,
	Args: func(cmd *cobra.Command, args []string) error {
		if err := cobra.MaximumNArgs(1)(cmd, args); err != nil {
			return rejectUsage(cmd, err)
		}
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		g := readGlobalFlags(cmd)
		desc := resolveMode(g)

		logger := logging.New(cmd.ErrOrStderr(), logging.Options{Verbose: desc.Verbose, Color: desc.Color})
		meta := report.Meta{
			Version: Version,
			Command: cmd.Name(),
			Flags:   echoFlags(cmd),
			TTY:     desc.TTY,
		}
		presenter := present.New(desc, cmd.OutOrStdout(), meta)

		reject := func(err error) error {
			if err := presenter.Reject(err); err != nil {
				return err
			}
			return &exitError{code: config.ExitFailure}
		}

		cfg, err := config.Load(g.ConfigPath)
		if err != nil {
			return reject(err)
		}
		if cfg.Path != "" {
			logger.Debug("loaded config", "path", cfg.Path)
		}

		in := mergeInput(cfg.Input(), flagInput(cmd, args))
		in.AssumeDefaults = g.Defaults

		if desc.Prompts() {
			in, err = ui.CollectParams(in)
			if err != nil {
				return err
			}
		}

		set, err := params.Resolve(in)
		if err != nil {
			return reject(err)
		}

		timeout := cfg.CommandTimeout
		if cmd.Flags().Changed("timeout") {
			timeout, _ = cmd.Flags().GetDuration("timeout")
			if timeout < 0 {
				return reject(fmt.Errorf("invalid --timeout: must not be negative"))
			}
		}

		commander := newCommander()
		run := scaffold.NewRun(set, scaffold.RunOptions{
			Runner:   exec.NewShellRunner(commander),
			Observer: presenter,
			Logger:   logger,
			Env:      cfg.CommandEnv,
			Timeout:  timeout,
		})
		pipeline := steps.Installer(steps.Options{
			Commander:       commander,
			Database:        newDatabase(),
			FilamentVersion: cfg.FilamentVersion,
			Env:             cfg.Env,
			Version:         Version,
		})

		logger.Debug("starting installation", "run", run.ID, "mode", desc.Kind, "project", set.ProjectPath(), "steps", len(pipeline.Steps()))
		outcome := pipeline.Execute(cmd.Context(), run)
		logger.Debug("installation finished", "run", run.ID, "state", outcome.State, "duration", outcome.Duration)

		if err := presenter.Finish(run, outcome); err != nil {
			return fmt.Errorf("rendering result: %w", err)
		}
		if !outcome.Succeeded() {
			return &exitError{code: config.ExitFailure}
		}
		return nil
	},
}

// rejectUsage turns a command-line error into a JSON document when --json
// is requested, so structured callers always get one.
func rejectUsage(cmd *cobra.Command, err error) error {
	if !wantsJSON(cmd) {
		return err
	}
	meta := report.Meta{
		Version: Version,
		Command: cmd.Name(),
		Flags:   echoFlags(cmd),
		TTY:     isTerminal(os.Stdin) && isTerminal(os.Stdout),
	}
	if werr := report.Write(cmd.OutOrStdout(), report.Rejected(meta, errors.Usage(err))); werr != nil {
		return werr
	}
	return &exitError{code: config.ExitFailure}
}

// wantsJSON checks the parsed flag and, because parsing stops at the first
// bad flag, the raw arguments too.
func wantsJSON(cmd *cobra.Command) bool {
	if v, _ := cmd.Flags().GetBool("json"); v {
		return true
	}
	for _, arg := range rawArgs {
		if arg == "--" {
			break
		}
		if arg == "--json" || arg == "--json=true" {
			return true
		}
	}
	return false
}

// flagInput collects parameter values given on the command line.
func flagInput(cmd *cobra.Command, args []string) params.Input {
	get := func(name string) string {
		v, _ := cmd.Flags().GetString(name)
		return v
	}

	in := params.Input{
		ProjectName:   get(params.FlagName),
		Kit:           get(params.FlagKit),
		Database:      get(params.FlagDatabase),
		DBHost:        get(params.FlagDBHost),
		DBPort:        get(params.FlagDBPort),
		DBName:        get(params.FlagDBName),
		DBUser:        get(params.FlagDBUser),
		DBPassword:    get(params.FlagDBPassword),
		BaseDir:       get(params.FlagPath),
		AdminName:     get(params.FlagAdminName),
		AdminEmail:    get(params.FlagAdminEmail),
		AdminPassword: get(params.FlagAdminPassword),
	}
	if in.ProjectName == "" && len(args) > 0 {
		in.ProjectName = args[0]
	}
	return in
}

// mergeInput overlays the non-empty values of top onto base.
func mergeInput(base, top params.Input) params.Input {
	pick := func(dst *string, v string) {
		if strings.TrimSpace(v) != "" {
			*dst = v
		}
	}
	pick(&base.ProjectName, top.ProjectName)
	pick(&base.Kit, top.Kit)
	pick(&base.Database, top.Database)
	pick(&base.DBHost, top.DBHost)
	pick(&base.DBPort, top.DBPort)
	pick(&base.DBName, top.DBName)
	pick(&base.DBUser, top.DBUser)
	pick(&base.DBPassword, top.DBPassword)
	pick(&base.BaseDir, top.BaseDir)

	// The admin triple is all-or-nothing, so flags replace the config
	// defaults as a whole.
	if top.AdminName != "" || top.AdminEmail != "" || top.AdminPassword != "" {
		base.AdminName = top.AdminName
		base.AdminEmail = top.AdminEmail
		base.AdminPassword = top.AdminPassword
	}
	return base
}

// echoFlags returns the flags set on the command line with secrets masked.
func echoFlags(cmd *cobra.Command) map[string]any {
	flags := map[string]any{}
	cmd.Flags().Visit(func(f *pflag.Flag) {
		switch {
		case strings.Contains(f.Name, "password"):
			flags[f.Name] = "********"
		case f.Value.Type() == "bool":
			flags[f.Name] = f.Value.String() == "true"
		default:
			flags[f.Name] = f.Value.String()
		}
	})
	return flags
}

func init() {
	rootCmd.AddCommand(newCmd)

	newCmd.Flags().String(params.FlagName, "", "Project name")
	newCmd.Flags().String(params.FlagKit, "", "Starter kit (livewire, react, vue)")
	newCmd.Flags().String(params.FlagDatabase, "", "Database (sqlite, supabase, mysql, postgresql)")
	newCmd.Flags().String(params.FlagDBHost, "", "Database host (mysql, postgresql)")
	newCmd.Flags().String(params.FlagDBPort, "", "Database port (mysql, postgresql)")
	newCmd.Flags().String(params.FlagDBName, "", "Database name (mysql, postgresql)")
	newCmd.Flags().String(params.FlagDBUser, "", "Database user (mysql, postgresql)")
	newCmd.Flags().String(params.FlagDBPassword, "", "Database password (mysql, postgresql)")
	newCmd.Flags().String(params.FlagPath, "", "Directory the project is created in (default current directory)")
	newCmd.Flags().String(params.FlagAdminName, "", "Admin user name")
	newCmd.Flags().String(params.FlagAdminEmail, "", "Admin user email")
	newCmd.Flags().String(params.FlagAdminPassword, "", "Admin user password")
	newCmd.Flags().Duration("timeout", 0, "Limit for each external command, 0 for none")
	newCmd.SetFlagErrorFunc(rejectUsage)
}
