package scaffold

import "time"

// Status is the outcome of one recorded sub-operation.
type Status string

const (
	StatusSuccess Status = "success"
	StatusError   Status = "error"
	StatusWarning Status = "warning"
	StatusSkipped Status = "skipped"
)

// Event records one command or file patch executed inside a step. Events
// are appended once and never modified.
type Event struct {
	// Index is the position of the event in the run's log.
	Index int

	// Step is the name of the step that recorded the event.
	Step string

	Name     string
	Status   Status
	Duration time.Duration
	Stdout   string
	Stderr   string
	Detail   string
}

// Failed reports whether the event is an error.
func (e Event) Failed() bool {
	return e.Status == StatusError
}
