package scaffold

// Observer follows a pipeline run. RunStep must call run exactly once and
// return its error, which lets presenters wrap a step in progress output.
type Observer interface {
	RunStep(index, total int, step Step, run func() error) error
	EventRecorded(e Event)
}

// NopObserver runs steps without reporting anything.
type NopObserver struct{}

func (NopObserver) RunStep(_, _ int, _ Step, run func() error) error { return run() }

func (NopObserver) EventRecorded(Event) {}
