package scaffold

import (
	"context"
	"fmt"
	"time"

	"github.com/naoray/filastart/internal/errors"
)

// Action performs a step's work against the shared run.
type Action func(ctx context.Context, run *Run) error

// Step is one named unit of pipeline work.
type Step struct {
	// Name identifies the step in events and errors.
	Name string

	// Title is shown to the user while the step runs.
	Title string

	Action Action
}

// State is the lifecycle state of a pipeline run.
type State int

const (
	NotStarted State = iota
	Running
	Completed
	Failed
)

func (s State) String() string {
	switch s {
	case Running:
		return "running"
	case Completed:
		return "completed"
	case Failed:
		return "failed"
	default:
		return "not_started"
	}
}

// Outcome is the terminal result of a pipeline run.
type Outcome struct {
	State State

	// FailedStep is the name of the step that aborted the run.
	FailedStep string

	Err      *errors.Error
	Events   []Event
	Duration time.Duration
}

// Succeeded reports whether every step completed.
func (o Outcome) Succeeded() bool {
	return o.State == Completed
}

// Error formats the failure for display.
func (o Outcome) Error() string {
	if o.Err == nil {
		return ""
	}
	return fmt.Sprintf("step %s failed: %s", o.FailedStep, o.Err)
}

// Pipeline executes steps strictly in declaration order and stops at the
// first fatal error. Side effects of completed steps are never rolled back.
type Pipeline struct {
	steps []Step
}

// NewPipeline creates a pipeline of steps.
func NewPipeline(steps ...Step) *Pipeline {
	return &Pipeline{steps: steps}
}

// Steps returns the declared steps.
func (p *Pipeline) Steps() []Step {
	return p.steps
}

// Execute runs every step against run and returns the outcome. Advisory
// errors returned by a step are recorded as warnings and execution continues.
func (p *Pipeline) Execute(ctx context.Context, run *Run) Outcome {
	start := time.Now()
	total := len(p.steps)

	for i, step := range p.steps {
		run.step = step.Name

		if err := ctx.Err(); err != nil {
			return p.fail(run, start, errors.StepExecution(step.Name, step.Name, fmt.Errorf("cancelled: %w", err)))
		}

		run.logger.Debug("executing step", "step", step.Name, "index", i+1, "total", total)

		err := run.observer.RunStep(i, total, step, func() error {
			return step.Action(ctx, run)
		})
		if err == nil {
			continue
		}

		e := errors.Classify(step.Name, err)
		if !e.Fatal() {
			name := e.Event
			if name == "" {
				name = step.Name
			}
			run.Warn(name, e.Message)
			continue
		}

		return p.fail(run, start, e)
	}

	return Outcome{
		State:    Completed,
		Events:   run.Events(),
		Duration: time.Since(start),
	}
}

func (p *Pipeline) fail(run *Run, start time.Time, e *errors.Error) Outcome {
	if e.Event == "" {
		e.Event = e.Step
	}
	if !run.hasFailure(e.Event) {
		run.Record(Event{Name: e.Event, Status: StatusError, Detail: e.Reason()})
	}

	run.logger.Debug("pipeline aborted", "step", e.Step, "event", e.Event, "kind", e.Kind, "err", e)

	return Outcome{
		State:      Failed,
		FailedStep: e.Step,
		Err:        e,
		Events:     run.Events(),
		Duration:   time.Since(start),
	}
}
