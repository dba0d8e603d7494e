package scaffold

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/naoray/filastart/internal/errors"
	"github.com/naoray/filastart/internal/exec"
	"github.com/naoray/filastart/internal/logging"
	"github.com/naoray/filastart/internal/params"
	"github.com/naoray/filastart/internal/patch"
)

// RunOptions configures a Run.
type RunOptions struct {
	Runner   exec.Runner
	Observer Observer
	Logger   *log.Logger

	// Env is overlaid on the process environment of every command.
	Env map[string]string

	// Timeout bounds each command. Zero means no limit.
	Timeout time.Duration
}

// Run is the shared mutable context of one pipeline execution. Only the
// active step touches it.
type Run struct {
	ID        string
	Params    params.Set
	StartedAt time.Time

	runner   exec.Runner
	observer Observer
	logger   *log.Logger
	env      map[string]string
	timeout  time.Duration

	secrets []string

	dir     string
	entered bool
	step    string
	events  []Event
}

// NewRun creates a run for set. The working directory starts at the base
// directory.
func NewRun(set params.Set, opts RunOptions) *Run {
	if opts.Runner == nil {
		opts.Runner = exec.NewShellRunner(nil)
	}
	if opts.Observer == nil {
		opts.Observer = NopObserver{}
	}
	if opts.Logger == nil {
		opts.Logger = logging.Discard()
	}

	return &Run{
		ID:        uuid.NewString(),
		Params:    set,
		StartedAt: time.Now(),
		runner:    opts.Runner,
		observer:  opts.Observer,
		logger:    opts.Logger,
		env:       opts.Env,
		timeout:   opts.Timeout,
		secrets:   secretsOf(set),
		dir:       set.BaseDir,
	}
}

func secretsOf(set params.Set) []string {
	var secrets []string
	if set.Admin.Password != "" {
		secrets = append(secrets, set.Admin.Password)
	}
	if set.Connection != nil && set.Connection.Password != "" {
		secrets = append(secrets, set.Connection.Password)
	}
	return secrets
}

// redact masks secrets in s for logging.
func (r *Run) redact(s string) string {
	for _, secret := range r.secrets {
		s = strings.ReplaceAll(s, secret, "********")
	}
	return s
}

// Dir is the working directory commands run in.
func (r *Run) Dir() string {
	return r.dir
}

// EnterProject moves the working directory into path. It may be called
// only once per run.
func (r *Run) EnterProject(path string) error {
	if r.entered {
		return fmt.Errorf("working directory already moved to %s", r.dir)
	}
	r.dir = path
	r.entered = true
	r.logger.Debug("entered project directory", "dir", path)
	return nil
}

// Events returns a copy of the event log.
func (r *Run) Events() []Event {
	events := make([]Event, len(r.events))
	copy(events, r.events)
	return events
}

// Record appends e to the event log under the current step.
func (r *Run) Record(e Event) Event {
	e.Index = len(r.events)
	e.Step = r.step
	r.events = append(r.events, e)

	r.logger.Debug("event recorded", "step", e.Step, "event", e.Name, "status", e.Status, "duration", e.Duration)
	r.observer.EventRecorded(e)
	return e
}

// Succeed records a successful non-command operation that started at start.
func (r *Run) Succeed(name, detail string, start time.Time) {
	r.Record(Event{Name: name, Status: StatusSuccess, Duration: time.Since(start), Detail: detail})
}

// Warn records a non-fatal anomaly.
func (r *Run) Warn(name, detail string) {
	r.logger.Debug("warning recorded", "step", r.step, "event", name, "detail", detail)
	r.Record(Event{Name: name, Status: StatusWarning, Detail: detail})
}

// Skip records an operation that had nothing to do.
func (r *Run) Skip(name, detail string) {
	r.Record(Event{Name: name, Status: StatusSkipped, Detail: detail})
}

// Fail records a failed non-command operation and returns it escalated.
func (r *Run) Fail(name string, start time.Time, err error) error {
	r.Record(Event{Name: name, Status: StatusError, Duration: time.Since(start), Detail: err.Error()})
	return errors.StepExecution(r.step, name, err)
}

// Command runs command and escalates a failure to a fatal step error.
func (r *Run) Command(ctx context.Context, name, command string) (exec.Result, error) {
	res := r.execute(ctx, name, command, r.dir, StatusError)
	if res.Failed() {
		return res, errors.StepExecution(r.step, name, fmt.Errorf("%s", res.Message()))
	}
	return res, nil
}

// TryCommand runs command and downgrades a failure to a warning.
func (r *Run) TryCommand(ctx context.Context, name, command string) exec.Result {
	return r.execute(ctx, name, command, r.dir, StatusWarning)
}

// TryTool runs command in the process's own working directory and downgrades
// a failure to a warning. Tool checks use it before the base directory exists.
func (r *Run) TryTool(ctx context.Context, name, command string) exec.Result {
	return r.execute(ctx, name, command, "", StatusWarning)
}

func (r *Run) execute(ctx context.Context, name, command, dir string, failure Status) exec.Result {
	r.logger.Debug("running command", "step", r.step, "event", name, "dir", dir, "command", r.redact(command))

	res := r.runner.Run(ctx, command, exec.Options{
		Dir:     dir,
		Env:     r.env,
		Timeout: r.timeout,
	})

	status := StatusSuccess
	if res.Failed() {
		status = failure
		r.logger.Debug("command failed", "step", r.step, "event", name, "exit", res.ExitCode, "err", res.Err)
	}
	r.Record(Event{
		Name:     name,
		Status:   status,
		Duration: res.Duration,
		Stdout:   res.Stdout,
		Stderr:   res.Stderr,
		Detail:   res.Message(),
	})
	return res
}

// Patch applies a file patch. Patched is recorded as success, every other
// outcome as skipped, and an error is fatal.
func (r *Run) Patch(name string, apply func() (patch.Result, error)) (patch.Result, error) {
	start := time.Now()
	res, err := apply()
	if err != nil {
		return res, r.Fail(name, start, err)
	}

	status := StatusSkipped
	if res.Changed() {
		status = StatusSuccess
	}
	r.Record(Event{Name: name, Status: status, Duration: time.Since(start), Detail: res.String()})
	return res, nil
}

// hasFailure reports whether the current step already recorded an error
// event named name.
func (r *Run) hasFailure(name string) bool {
	for i := len(r.events) - 1; i >= 0; i-- {
		e := r.events[i]
		if e.Step != r.step {
			return false
		}
		if e.Name == name && e.Failed() {
			return true
		}
	}
	return false
}
