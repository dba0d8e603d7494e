// Package exec provides interfaces and implementations for command execution.
// This abstraction allows for dependency injection and testing of steps that
// execute external commands.
package exec

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"time"
)

const waitDelay = 2 * time.Second

// Commander defines the interface for executing commands.
// Implementations can provide real command execution or mock behavior for testing.
type Commander interface {
	// Run executes the command described by spec and returns its separated
	// stdout and stderr along with any execution error.
	Run(ctx context.Context, spec Spec) (Output, error)

	// LookPath resolves a binary on PATH.
	LookPath(name string) (string, error)
}

// Spec describes a single process invocation.
type Spec struct {
	// Dir is the working directory. Empty means the caller's directory.
	Dir string

	// Env is the complete environment in KEY=value form. Nil inherits the
	// current process environment.
	Env []string

	Command string
	Args    []string
}

// Output holds what a process wrote and how it exited.
type Output struct {
	Stdout []byte
	Stderr []byte

	// ExitCode is -1 when the process could not be started.
	ExitCode int
}

// RealCommander executes commands using the real operating system.
type RealCommander struct{}

// Run executes the command using exec.CommandContext, capturing stdout and
// stderr into separate buffers.
func (c *RealCommander) Run(ctx context.Context, spec Spec) (Output, error) {
	cmd := exec.CommandContext(ctx, spec.Command, spec.Args...)
	cmd.Dir = spec.Dir
	if spec.Env != nil {
		cmd.Env = spec.Env
	}
	// Grandchildren holding the pipes open must not stall Wait after a kill.
	cmd.WaitDelay = waitDelay

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()

	out := Output{
		Stdout: stdout.Bytes(),
		Stderr: stderr.Bytes(),
	}
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			out.ExitCode = exitErr.ExitCode()
		} else {
			out.ExitCode = -1
		}
	}

	return out, err
}

// LookPath resolves name using exec.LookPath.
func (c *RealCommander) LookPath(name string) (string, error) {
	return exec.LookPath(name)
}
