// Package errors defines the installer's error taxonomy. Every failure that
// reaches the pipeline engine is classified into one of four kinds so the
// engine can apply a single abort-or-continue policy.
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies an installer error.
type Kind int

const (
	// KindStepExecution is an external command or file patch failure that a
	// step escalated.
	KindStepExecution Kind = iota
	// KindValidation is a missing or invalid parameter detected before any step runs.
	KindValidation
	// KindPrecondition is a missing external requirement detected at step start.
	KindPrecondition
	// KindAdvisory is a non-fatal anomaly recorded as a warning.
	KindAdvisory
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindPrecondition:
		return "precondition"
	case KindAdvisory:
		return "advisory"
	default:
		return "step_execution"
	}
}

// Error is an installer error tagged with its kind and origin.
type Error struct {
	Kind Kind

	// Step is the name of the step that raised the error, if any.
	Step string

	// Event is the name of the sub-operation that triggered it, if any.
	Event string

	Message string

	// Missing lists flag names for validation errors.
	Missing []string

	Err error
}

func (e *Error) Error() string {
	msg := e.Reason()
	if e.Event != "" {
		return fmt.Sprintf("%s: %s", e.Event, msg)
	}
	return msg
}

// Reason is the message without the event prefix.
func (e *Error) Reason() string {
	if e.Message == "" && e.Err != nil {
		return e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Fatal reports whether the error must abort the pipeline.
func (e *Error) Fatal() bool {
	return e.Kind != KindAdvisory
}

// Validation reports the complete list of missing flags in one error.
func Validation(missing []string) *Error {
	flags := make([]string, len(missing))
	for i, name := range missing {
		flags[i] = "--" + name
	}
	return &Error{
		Kind:    KindValidation,
		Message: "missing required options: " + strings.Join(flags, ", "),
		Missing: missing,
	}
}

// Invalid reports a supplied parameter with an unacceptable value.
func Invalid(flag, format string, args ...any) *Error {
	return &Error{
		Kind:    KindValidation,
		Message: fmt.Sprintf("invalid --%s: %s", flag, fmt.Sprintf(format, args...)),
	}
}

// Validations merges invalid values and missing flags into one error. With
// nothing invalid it is the same as Validation(missing).
func Validations(invalid []*Error, missing []string) *Error {
	if len(invalid) == 0 {
		return Validation(missing)
	}
	if len(invalid) == 1 && len(missing) == 0 {
		return invalid[0]
	}

	reasons := make([]string, 0, len(invalid)+1)
	for _, e := range invalid {
		reasons = append(reasons, e.Message)
	}
	if len(missing) > 0 {
		reasons = append(reasons, Validation(missing).Message)
	}
	return &Error{
		Kind:    KindValidation,
		Message: strings.Join(reasons, "; "),
		Missing: missing,
	}
}

// Usage reports a malformed command line, such as an unknown flag or an
// extra argument.
func Usage(err error) *Error {
	return &Error{Kind: KindValidation, Message: err.Error(), Err: err}
}

// Precondition reports a missing requirement for step.
func Precondition(step, event, message string) *Error {
	return &Error{Kind: KindPrecondition, Step: step, Event: event, Message: message}
}

// StepExecution escalates a failed sub-operation of step.
func StepExecution(step, event string, err error) *Error {
	return &Error{Kind: KindStepExecution, Step: step, Event: event, Err: err}
}

// Advisory records a non-fatal anomaly.
func Advisory(step, event, message string) *Error {
	return &Error{Kind: KindAdvisory, Step: step, Event: event, Message: message}
}

// Classify returns err as an *Error. Untyped errors become step execution
// errors attributed to step.
func Classify(step string, err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		if e.Step == "" {
			e.Step = step
		}
		return e
	}
	return StepExecution(step, "", err)
}

// As is errors.As for *Error.
func As(err error) (*Error, bool) {
	var e *Error
	ok := errors.As(err, &e)
	return e, ok
}
