package exec

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"
	"unicode/utf8"
)

// MaxOutput is the number of characters kept from each captured stream.
const MaxOutput = 8192

// Status is the outcome of a single command.
type Status string

const (
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

// Options controls where and how a command runs.
type Options struct {
	// Dir is the working directory for the command.
	Dir string

	// Env is overlaid on top of the current process environment.
	Env map[string]string

	// Timeout bounds the command's run time. Zero means no limit.
	Timeout time.Duration
}

// Result is the structured outcome of running a command. Failures are
// reported here rather than as a separate error value.
type Result struct {
	Command  string
	Dir      string
	Status   Status
	Duration time.Duration
	Stdout   string
	Stderr   string
	ExitCode int

	// Err is the underlying execution error, kept for diagnostics.
	Err error
}

// Failed reports whether the command did not complete successfully.
func (r Result) Failed() bool {
	return r.Status == StatusError
}

// Message describes the failure, preferring the command's own stderr.
func (r Result) Message() string {
	if !r.Failed() {
		return ""
	}
	detail := strings.TrimSpace(r.Stderr)
	if detail == "" {
		detail = strings.TrimSpace(r.Stdout)
	}
	if r.Err == nil {
		return detail
	}
	if detail == "" {
		return r.Err.Error()
	}
	return fmt.Sprintf("%v: %s", r.Err, lastLines(detail, 5))
}

// Runner runs a shell command string and reports the outcome as data.
type Runner interface {
	Run(ctx context.Context, command string, opts Options) Result
}

// ShellRunner executes command strings through sh -c using a Commander.
type ShellRunner struct {
	commander Commander
	environ   func() []string
}

// NewShellRunner creates a ShellRunner with the given Commander.
// If commander is nil, a RealCommander is used.
func NewShellRunner(commander Commander) *ShellRunner {
	if commander == nil {
		commander = &RealCommander{}
	}
	return &ShellRunner{
		commander: commander,
		environ:   os.Environ,
	}
}

// Run executes command in opts.Dir with the environment overlay applied.
func (r *ShellRunner) Run(ctx context.Context, command string, opts Options) Result {
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	spec := Spec{
		Dir:     opts.Dir,
		Env:     MergeEnv(r.environ(), opts.Env),
		Command: "sh",
		Args:    []string{"-c", command},
	}

	start := time.Now()
	out, err := r.commander.Run(ctx, spec)
	duration := time.Since(start)

	result := Result{
		Command:  command,
		Dir:      opts.Dir,
		Status:   StatusSuccess,
		Duration: duration,
		Stdout:   Truncate(string(out.Stdout)),
		Stderr:   Truncate(string(out.Stderr)),
		ExitCode: out.ExitCode,
	}

	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			err = fmt.Errorf("timed out after %s: %w", opts.Timeout, err)
		}
		result.Status = StatusError
		result.Err = err
		if result.ExitCode == 0 {
			result.ExitCode = -1
		}
	}

	return result
}

// Truncate keeps the first MaxOutput characters of s and appends a marker
// stating how many characters were cut.
func Truncate(s string) string {
	if utf8.RuneCountInString(s) <= MaxOutput {
		return s
	}
	runes := []rune(s)
	return string(runes[:MaxOutput]) + fmt.Sprintf("\n... [truncated %d characters]", len(runes)-MaxOutput)
}

// MergeEnv applies overlay on top of base, replacing existing keys in place
// and appending new keys in sorted order.
func MergeEnv(base []string, overlay map[string]string) []string {
	merged := make([]string, 0, len(base)+len(overlay))
	seen := make(map[string]bool, len(overlay))

	for _, kv := range base {
		key, _, _ := strings.Cut(kv, "=")
		if value, ok := overlay[key]; ok {
			merged = append(merged, key+"="+value)
			seen[key] = true
			continue
		}
		merged = append(merged, kv)
	}

	keys := make([]string, 0, len(overlay))
	for key := range overlay {
		if !seen[key] {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	for _, key := range keys {
		merged = append(merged, key+"="+overlay[key])
	}

	return merged
}

func lastLines(s string, n int) string {
	lines := strings.Split(s, "\n")
	if len(lines) <= n {
		return s
	}
	return strings.Join(lines[len(lines)-n:], "\n")
}
