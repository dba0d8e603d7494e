package present

import (
	"fmt"
	"time"

	"github.com/charmbracelet/huh/spinner"

	"github.com/naoray/filastart/internal/scaffold"
	"github.com/naoray/filastart/internal/ui"
)

// Console renders runs for people. With spinner set each step shows live
// progress; otherwise one line is printed per finished step.
type Console struct {
	printer *ui.Printer
	verbose bool
	spinner bool

	notes []scaffold.Event
}

func (c *Console) RunStep(index, total int, step scaffold.Step, run func() error) error {
	label := fmt.Sprintf("[%d/%d] %s", index+1, total, step.Title)
	start := time.Now()
	c.notes = c.notes[:0]

	var err error
	if c.spinner {
		spinErr := spinner.New().
			Title(label).
			Action(func() { err = run() }).
			Run()
		if spinErr != nil && err == nil {
			err = spinErr
		}
	} else {
		err = run()
	}

	elapsed := time.Since(start).Round(time.Millisecond)
	if err != nil {
		c.printer.Error("%s", label)
	} else {
		c.printer.Done("%s %s", label, c.printer.Muted(elapsed.String()))
	}
	for _, n := range c.notes {
		if n.Status == scaffold.StatusWarning {
			c.printer.Warning("%s: %s", n.Name, n.Detail)
		} else {
			c.printer.Skipped("%s: %s", n.Name, n.Detail)
		}
	}
	return err
}

func (c *Console) EventRecorded(e scaffold.Event) {
	switch {
	case e.Status == scaffold.StatusWarning:
		c.notes = append(c.notes, e)
	case e.Status == scaffold.StatusSkipped && c.verbose:
		c.notes = append(c.notes, e)
	}
}

func (c *Console) Finish(run *scaffold.Run, outcome scaffold.Outcome) error {
	if c.verbose {
		c.printer.Println("")
		if err := c.printer.Table([]string{"#", "Step", "Event", "Status", "Duration"}, eventRows(outcome.Events)); err != nil {
			return err
		}
	}

	if !outcome.Succeeded() {
		failure(c.printer, outcome)
		return nil
	}
	summary(c.printer, run.Params)
	return nil
}

func (c *Console) Reject(err error) error {
	rejection(c.printer, err)
	return nil
}
