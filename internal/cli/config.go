package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/naoray/filastart/internal/config"
	"github.com/naoray/filastart/internal/ui"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the filastart defaults file",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a defaults file",
	Long: `Writes a config file with the default starter kit, database and admin
user. Values in it are used for every option not given as a flag.

The file is written to --config, or to the global config directory.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		g := readGlobalFlags(cmd)
		force, _ := cmd.Flags().GetBool("force")

		path := g.ConfigPath
		if path == "" {
			var err error
			path, err = config.DefaultPath()
			if err != nil {
				return err
			}
		}

		if _, err := os.Stat(path); err == nil && !force {
			return fmt.Errorf("%s already exists (use --force to overwrite)", path)
		}

		if err := config.Save(path, config.Defaults()); err != nil {
			return err
		}

		p := ui.NewPrinter(cmd.OutOrStdout(), resolveMode(g).Color)
		p.Done("Config written to %s", path)
		return nil
	},
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the config file in use",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		g := readGlobalFlags(cmd)
		cfg, err := config.Load(g.ConfigPath)
		if err != nil {
			return err
		}
		if cfg.Path == "" {
			path, err := config.DefaultPath()
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s (not created)\n", path)
			return nil
		}
		fmt.Fprintln(cmd.OutOrStdout(), cfg.Path)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configPathCmd)

	configInitCmd.Flags().Bool("force", false, "Overwrite an existing file")
}
