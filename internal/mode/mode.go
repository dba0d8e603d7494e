// Package mode decides once per run how the installer interacts with the
// user and renders its output.
package mode

import (
	"os"

	"github.com/charmbracelet/x/term"
)

// Kind is the interaction and rendering mode of a run.
type Kind int

const (
	// Silent builds parameters from flags and config only and prints plain progress.
	Silent Kind = iota
	// Interactive prompts for parameters and renders live progress.
	Interactive
	// Structured emits exactly one JSON document on stdout.
	Structured
)

func (k Kind) String() string {
	switch k {
	case Interactive:
		return "interactive"
	case Structured:
		return "structured"
	default:
		return "silent"
	}
}

// Inputs are the flags and terminal facts mode resolution depends on.
type Inputs struct {
	JSON           bool
	NoColor        bool
	ForceColor     bool
	NonInteractive bool
	AssumeDefaults bool
	Verbose        bool

	StdinTTY  bool
	StdoutTTY bool
}

// Descriptor is the resolved mode. It is computed once and never changes
// during a run.
type Descriptor struct {
	Kind    Kind
	Color   bool
	Verbose bool
	TTY     bool
}

// Prompts reports whether the run may ask the user anything.
func (d Descriptor) Prompts() bool {
	return d.Kind == Interactive
}

// Resolve computes the descriptor for in.
func Resolve(in Inputs) Descriptor {
	tty := in.StdinTTY && in.StdoutTTY

	d := Descriptor{
		Kind:    Silent,
		Verbose: in.Verbose,
		TTY:     tty,
	}
	switch {
	case in.JSON:
		d.Kind = Structured
	case tty && !in.NonInteractive && !in.AssumeDefaults:
		d.Kind = Interactive
	}

	d.Color = !in.JSON && !in.NoColor && (in.ForceColor || tty)
	return d
}

// IsTerminal reports whether f is attached to a terminal.
func IsTerminal(f *os.File) bool {
	return term.IsTerminal(f.Fd())
}
