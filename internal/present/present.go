// Package present renders a pipeline run for the resolved output mode.
package present

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/naoray/filastart/internal/errors"
	"github.com/naoray/filastart/internal/mode"
	"github.com/naoray/filastart/internal/params"
	"github.com/naoray/filastart/internal/report"
	"github.com/naoray/filastart/internal/scaffold"
	"github.com/naoray/filastart/internal/ui"
)

// Presenter observes a run and renders its outcome.
type Presenter interface {
	scaffold.Observer

	// Finish renders the outcome of a pipeline run.
	Finish(run *scaffold.Run, outcome scaffold.Outcome) error

	// Reject renders an error raised before the pipeline started.
	Reject(err error) error
}

// New returns the presenter for desc. Human output goes to out; structured
// output writes exactly one document to out.
func New(desc mode.Descriptor, out io.Writer, meta report.Meta) Presenter {
	switch desc.Kind {
	case mode.Structured:
		return &Structured{out: out, meta: meta}
	case mode.Interactive:
		return &Console{
			printer: ui.NewPrinter(out, desc.Color),
			verbose: desc.Verbose,
			spinner: true,
		}
	default:
		return &Console{
			printer: ui.NewPrinter(out, desc.Color),
			verbose: desc.Verbose,
		}
	}
}

// Structured buffers nothing and prints nothing until the run ends.
type Structured struct {
	out  io.Writer
	meta report.Meta
}

func (s *Structured) RunStep(_, _ int, _ scaffold.Step, run func() error) error {
	return run()
}

func (s *Structured) EventRecorded(scaffold.Event) {}

func (s *Structured) Finish(run *scaffold.Run, outcome scaffold.Outcome) error {
	return report.Write(s.out, report.Build(s.meta, run, outcome))
}

func (s *Structured) Reject(err error) error {
	return report.Write(s.out, report.Rejected(s.meta, err))
}

// summary lists what a successful run produced.
func summary(p *ui.Printer, set params.Set) {
	p.Println("")
	p.Title("Filament is ready")
	p.Println("")
	p.Done("Project   %s", set.ProjectPath())
	p.Done("Database  %s", set.DBLabel())
	p.Done("Admin     %s", set.Admin.Email)
	if set.Admin == params.DefaultAdmin {
		p.Warning("Default admin password %q is in use, change it before deploying", params.DefaultAdmin.Password)
	}
	p.Done("Panel     %s", params.AppURL+"/admin")
	p.Println("")
	p.Println("Next steps:")
	p.Info("cd %s", relative(set))
	p.Info("php artisan serve")
	p.Info("open %s", params.AppURL+"/admin")
}

func relative(set params.Set) string {
	path := set.ProjectPath()
	wd, err := os.Getwd()
	if err != nil {
		return path
	}
	if rel, err := filepath.Rel(wd, path); err == nil && !strings.HasPrefix(rel, "..") {
		return rel
	}
	return path
}

// failure prints the error and the output of the event that caused it.
func failure(p *ui.Printer, outcome scaffold.Outcome) {
	p.Println("")
	p.Error("%s", outcome.Error())

	e := outcome.Err
	if e == nil {
		return
	}
	for i := len(outcome.Events) - 1; i >= 0; i-- {
		ev := outcome.Events[i]
		if !ev.Failed() || ev.Step != e.Step {
			continue
		}
		output := ev.Stderr
		if strings.TrimSpace(output) == "" {
			output = ev.Stdout
		}
		if strings.TrimSpace(output) != "" {
			p.Println(p.Muted(strings.TrimRight(output, "\n")))
		}
		return
	}
}

func rejection(p *ui.Printer, err error) {
	e, ok := errors.As(err)
	if ok && e.Kind == errors.KindValidation && len(e.Missing) > 0 {
		p.Error("%s", e.Error())
		p.Info("run without --no-interaction in a terminal to be prompted, or pass --defaults")
		return
	}
	p.Error("%s", err)
}

func eventRows(events []scaffold.Event) [][]string {
	rows := make([][]string, len(events))
	for i, e := range events {
		rows[i] = []string{
			fmt.Sprintf("%d", e.Index),
			e.Step,
			e.Name,
			string(e.Status),
			e.Duration.Round(1e6).String(),
		}
	}
	return rows
}
