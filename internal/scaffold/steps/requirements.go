package steps

import (
	"context"
	"fmt"
	"strings"

	"github.com/naoray/filastart/internal/errors"
	"github.com/naoray/filastart/internal/exec"
	"github.com/naoray/filastart/internal/scaffold"
)

// Tool is an external binary the installer shells out to.
type Tool struct {
	Name    string
	Version string
	Purpose string
}

// Tools lists the binaries every install needs.
var Tools = []Tool{
	{Name: "php", Version: "php --version", Purpose: "runs artisan commands"},
	{Name: "composer", Version: "composer --version", Purpose: "installs Filament"},
	{Name: "laravel", Version: "laravel --version", Purpose: "creates the project"},
	{Name: "npm", Version: "npm --version", Purpose: "builds frontend assets"},
}

// ToolStatus is the result of checking one tool.
type ToolStatus struct {
	Tool
	Path    string
	Found   bool
	Details string
}

// CheckTools resolves each tool and asks it for its version. It is used by
// the requirements step and by the doctor command.
func CheckTools(ctx context.Context, commander exec.Commander, runner exec.Runner) []ToolStatus {
	statuses := make([]ToolStatus, 0, len(Tools))
	for _, tool := range Tools {
		status := ToolStatus{Tool: tool}
		path, err := commander.LookPath(tool.Name)
		if err != nil {
			status.Details = "not found on PATH"
			statuses = append(statuses, status)
			continue
		}
		status.Path = path
		status.Found = true

		res := runner.Run(ctx, tool.Version, exec.Options{})
		if res.Failed() {
			status.Details = res.Message()
		} else {
			status.Details = firstLine(res.Stdout)
		}
		statuses = append(statuses, status)
	}
	return statuses
}

func checkRequirements(opts Options) scaffold.Action {
	return func(ctx context.Context, run *scaffold.Run) error {
		var missing []string
		firstMissing := ""

		for _, tool := range Tools {
			event := "requirements." + tool.Name
			if _, err := opts.Commander.LookPath(tool.Name); err != nil {
				run.Record(scaffold.Event{
					Name:   event,
					Status: scaffold.StatusError,
					Detail: fmt.Sprintf("%s not found on PATH (%s)", tool.Name, tool.Purpose),
				})
				if firstMissing == "" {
					firstMissing = event
				}
				missing = append(missing, tool.Name)
				continue
			}
			run.TryTool(ctx, event, tool.Version)
		}

		if len(missing) > 0 {
			return errors.Precondition(Requirements, firstMissing,
				"required tools not found: "+strings.Join(missing, ", "))
		}
		return nil
	}
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(strings.TrimSpace(s), "\n")
	return line
}
