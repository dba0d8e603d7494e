package exec

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// MockCommander is a test double that records command calls and returns preset responses.
// Use this in tests to verify commands are executed correctly without actually running them.
type MockCommander struct {
	// Responses maps command keys to their preset responses.
	// The key is formatted as: "command arg1 arg2 ..."
	Responses map[string]CommandResponse

	// Calls records all commands that were executed.
	Calls []CommandCall

	// Missing lists binaries that LookPath should fail to resolve.
	Missing map[string]bool
}

// CommandCall records details of a single command execution.
type CommandCall struct {
	Dir     string
	Env     []string
	Command string
	Args    []string
}

// EnvValue returns the value of key in the call's environment.
func (c CommandCall) EnvValue(key string) (string, bool) {
	for _, kv := range c.Env {
		if k, v, ok := strings.Cut(kv, "="); ok && k == key {
			return v, true
		}
	}
	return "", false
}

// CommandResponse defines the response for a specific command.
type CommandResponse struct {
	Stdout   []byte
	Stderr   []byte
	ExitCode int

	// Err is the error to return (nil for successful execution).
	Err error
}

// NewMockCommander creates a new MockCommander with empty responses and calls.
func NewMockCommander() *MockCommander {
	return &MockCommander{
		Responses: make(map[string]CommandResponse),
		Calls:     make([]CommandCall, 0),
		Missing:   make(map[string]bool),
	}
}

// Run records the command call and returns the preset response if one exists.
// If no response is found for the key, it returns success with no output.
func (m *MockCommander) Run(ctx context.Context, spec Spec) (Output, error) {
	m.Calls = append(m.Calls, CommandCall{
		Dir:     spec.Dir,
		Env:     spec.Env,
		Command: spec.Command,
		Args:    spec.Args,
	})

	if err := ctx.Err(); err != nil {
		return Output{ExitCode: -1}, err
	}

	key := buildCommandKey(spec.Command, spec.Args)
	if resp, ok := m.Responses[key]; ok {
		return Output{Stdout: resp.Stdout, Stderr: resp.Stderr, ExitCode: resp.ExitCode}, resp.Err
	}

	return Output{}, nil
}

// LookPath fails for binaries listed in Missing and resolves everything else
// under /usr/bin.
func (m *MockCommander) LookPath(name string) (string, error) {
	if m.Missing[name] {
		return "", &exec.Error{Name: name, Err: exec.ErrNotFound}
	}
	return "/usr/bin/" + name, nil
}

// SetResponse configures a preset response for a specific command.
func (m *MockCommander) SetResponse(command string, args []string, resp CommandResponse) {
	m.Responses[buildCommandKey(command, args)] = resp
}

// SetShellResponse configures a preset response for a command string run
// through sh -c.
func (m *MockCommander) SetShellResponse(command string, resp CommandResponse) {
	m.SetResponse("sh", []string{"-c", command}, resp)
}

// FailShell makes the shell command exit with code 1 and the given stderr.
func (m *MockCommander) FailShell(command, stderr string) {
	m.SetShellResponse(command, CommandResponse{
		Stderr:   []byte(stderr),
		ExitCode: 1,
		Err:      fmt.Errorf("exit status 1"),
	})
}

// GetCall returns the nth command call (0-indexed).
// Returns nil if n is out of range.
func (m *MockCommander) GetCall(n int) *CommandCall {
	if n < 0 || n >= len(m.Calls) {
		return nil
	}
	return &m.Calls[n]
}

// LastCall returns the most recent command call.
// Returns nil if no commands have been executed.
func (m *MockCommander) LastCall() *CommandCall {
	if len(m.Calls) == 0 {
		return nil
	}
	return &m.Calls[len(m.Calls)-1]
}

// CallCount returns the number of commands that have been executed.
func (m *MockCommander) CallCount() int {
	return len(m.Calls)
}

// ShellCommands returns the command strings passed to sh -c, in call order.
func (m *MockCommander) ShellCommands() []string {
	var commands []string
	for _, call := range m.Calls {
		if call.Command == "sh" && len(call.Args) == 2 && call.Args[0] == "-c" {
			commands = append(commands, call.Args[1])
		}
	}
	return commands
}

// WasCalled checks if a command with the given arguments was ever executed.
// The command key must match exactly.
func (m *MockCommander) WasCalled(command string, args ...string) bool {
	key := buildCommandKey(command, args)
	for _, call := range m.Calls {
		if buildCommandKey(call.Command, call.Args) == key {
			return true
		}
	}
	return false
}

// Reset clears all recorded calls and responses.
func (m *MockCommander) Reset() {
	m.Calls = make([]CommandCall, 0)
	m.Responses = make(map[string]CommandResponse)
}

// buildCommandKey constructs a command key from command and args.
func buildCommandKey(command string, args []string) string {
	if len(args) == 0 {
		return command
	}
	return fmt.Sprintf("%s %s", command, strings.Join(args, " "))
}
