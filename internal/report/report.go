// Package report builds the machine-readable document describing one run.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"runtime"

	"github.com/naoray/filastart/internal/errors"
	"github.com/naoray/filastart/internal/params"
	"github.com/naoray/filastart/internal/scaffold"
)

const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Environment describes where the installer ran.
type Environment struct {
	TTY            bool   `json:"tty"`
	RuntimeVersion string `json:"runtimeVersion"`
	Platform       string `json:"platform"`
}

// Task is one recorded event.
type Task struct {
	Index      int    `json:"index"`
	Name       string `json:"name"`
	Step       string `json:"step"`
	Status     string `json:"status"`
	DurationMs int64  `json:"durationMs"`
	Stdout     string `json:"stdout"`
	Stderr     string `json:"stderr"`
	Detail     string `json:"detail,omitempty"`
}

// Result is present only on success.
type Result struct {
	Status      string `json:"status"`
	ProjectPath string `json:"projectPath"`
	DBLabel     string `json:"dbLabel"`
	AdminEmail  string `json:"adminEmail"`
	URL         string `json:"url"`
}

// Metrics aggregates the run.
type Metrics struct {
	TotalDurationMs int64 `json:"totalDurationMs"`
}

// Error is present only on failure.
type Error struct {
	Message string   `json:"message"`
	Step    string   `json:"step,omitempty"`
	Event   string   `json:"event,omitempty"`
	Kind    string   `json:"kind"`
	Missing []string `json:"missing,omitempty"`
}

// Document is the single JSON document written in structured mode.
type Document struct {
	Version     string            `json:"version"`
	Command     string            `json:"command"`
	RunID       string            `json:"runId,omitempty"`
	Status      string            `json:"status"`
	Flags       map[string]any    `json:"flags"`
	Environment Environment       `json:"environment"`
	Input       map[string]string `json:"input"`
	Tasks       []Task            `json:"tasks"`
	Result      *Result           `json:"result,omitempty"`
	Metrics     Metrics           `json:"metrics"`
	Error       *Error            `json:"error,omitempty"`
}

// Meta is the run-independent part of a document.
type Meta struct {
	Version string
	Command string
	Flags   map[string]any
	TTY     bool
}

func newDocument(meta Meta) Document {
	flags := meta.Flags
	if flags == nil {
		flags = map[string]any{}
	}
	return Document{
		Version: meta.Version,
		Command: meta.Command,
		Flags:   flags,
		Environment: Environment{
			TTY:            meta.TTY,
			RuntimeVersion: runtime.Version(),
			Platform:       runtime.GOOS + "/" + runtime.GOARCH,
		},
		Input: map[string]string{},
		Tasks: []Task{},
	}
}

// Build describes a finished pipeline run.
func Build(meta Meta, run *scaffold.Run, outcome scaffold.Outcome) Document {
	doc := newDocument(meta)
	doc.RunID = run.ID
	doc.Input = run.Params.Echo()
	doc.Metrics.TotalDurationMs = outcome.Duration.Milliseconds()

	for _, e := range outcome.Events {
		doc.Tasks = append(doc.Tasks, Task{
			Index:      e.Index,
			Name:       e.Name,
			Step:       e.Step,
			Status:     string(e.Status),
			DurationMs: e.Duration.Milliseconds(),
			Stdout:     e.Stdout,
			Stderr:     e.Stderr,
			Detail:     e.Detail,
		})
	}

	if outcome.Succeeded() {
		doc.Status = StatusSuccess
		doc.Result = resultFor(run.Params)
		return doc
	}

	doc.Status = StatusError
	doc.Error = errorFor(outcome.Err)
	return doc
}

// Rejected describes a run that failed before any step executed, such as
// a validation failure.
func Rejected(meta Meta, err error) Document {
	doc := newDocument(meta)
	doc.Status = StatusError

	if e, ok := errors.As(err); ok {
		doc.Error = errorFor(e)
	} else {
		doc.Error = &Error{Message: err.Error(), Kind: "internal"}
	}
	return doc
}

func resultFor(set params.Set) *Result {
	return &Result{
		Status:      StatusSuccess,
		ProjectPath: set.ProjectPath(),
		DBLabel:     set.DBLabel(),
		AdminEmail:  set.Admin.Email,
		URL:         params.AppURL + "/admin",
	}
}

func errorFor(e *errors.Error) *Error {
	if e == nil {
		return &Error{Message: "unknown error", Kind: "internal"}
	}
	return &Error{
		Message: e.Error(),
		Step:    e.Step,
		Event:   e.Event,
		Kind:    e.Kind.String(),
		Missing: e.Missing,
	}
}

// Write encodes doc as indented JSON.
func Write(w io.Writer, doc Document) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encoding report: %w", err)
	}
	return nil
}
