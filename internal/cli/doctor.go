package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/naoray/filastart/internal/config"
	"github.com/naoray/filastart/internal/exec"
	"github.com/naoray/filastart/internal/scaffold/steps"
	"github.com/naoray/filastart/internal/ui"
)

type toolReport struct {
	Name    string `json:"name"`
	Found   bool   `json:"found"`
	Path    string `json:"path,omitempty"`
	Details string `json:"details"`
	Purpose string `json:"purpose"`
}

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check that the required tools are installed",
	Long: `Checks that php, composer, the laravel installer and npm are on PATH
and prints their versions. Exits with status 1 when any is missing.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		g := readGlobalFlags(cmd)
		desc := resolveMode(g)

		commander := newCommander()
		statuses := steps.CheckTools(cmd.Context(), commander, exec.NewShellRunner(commander))

		missing := 0
		reports := make([]toolReport, len(statuses))
		for i, s := range statuses {
			if !s.Found {
				missing++
			}
			reports[i] = toolReport{Name: s.Name, Found: s.Found, Path: s.Path, Details: s.Details, Purpose: s.Purpose}
		}

		if g.JSON {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			if err := enc.Encode(reports); err != nil {
				return fmt.Errorf("encoding report: %w", err)
			}
		} else {
			p := ui.NewPrinter(cmd.OutOrStdout(), desc.Color)
			rows := make([][]string, len(reports))
			for i, r := range reports {
				status := "ok"
				if !r.Found {
					status = "missing"
				}
				rows[i] = []string{r.Name, status, r.Details, r.Purpose}
			}
			if err := p.Table([]string{"Tool", "Status", "Version", "Needed for"}, rows); err != nil {
				return err
			}
			p.Println("")
			if missing == 0 {
				p.Done("All required tools are installed")
			} else {
				p.Error("%d required tool(s) missing", missing)
			}
		}

		if missing > 0 {
			return &exitError{code: config.ExitFailure}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(doctorCmd)
}
