package exec

import (
	"context"
	"errors"
	"testing"
)

func TestRealCommander_Run(t *testing.T) {
	commander := &RealCommander{}
	ctx := context.Background()

	out, err := commander.Run(ctx, Spec{Dir: ".", Command: "echo", Args: []string{"hello"}})
	if err != nil {
		t.Errorf("expected no error, got: %v", err)
	}
	if string(out.Stdout) != "hello\n" {
		t.Errorf("expected 'hello\\n', got: %s", string(out.Stdout))
	}
	if out.ExitCode != 0 {
		t.Errorf("expected exit code 0, got: %d", out.ExitCode)
	}
}

func TestRealCommander_Run_SeparatesStreams(t *testing.T) {
	commander := &RealCommander{}

	out, err := commander.Run(context.Background(), Spec{
		Command: "sh",
		Args:    []string{"-c", "echo out; echo err >&2; exit 3"},
	})
	if err == nil {
		t.Fatal("expected error for non-zero exit")
	}
	if string(out.Stdout) != "out\n" {
		t.Errorf("expected stdout 'out\\n', got: %q", string(out.Stdout))
	}
	if string(out.Stderr) != "err\n" {
		t.Errorf("expected stderr 'err\\n', got: %q", string(out.Stderr))
	}
	if out.ExitCode != 3 {
		t.Errorf("expected exit code 3, got: %d", out.ExitCode)
	}
}

func TestRealCommander_Run_SpawnFailure(t *testing.T) {
	commander := &RealCommander{}

	out, err := commander.Run(context.Background(), Spec{Command: "definitely-not-a-real-binary-xyz"})
	if err == nil {
		t.Fatal("expected error for missing binary")
	}
	if out.ExitCode != -1 {
		t.Errorf("expected exit code -1, got: %d", out.ExitCode)
	}
}

func TestRealCommander_Run_WithContextCancellation(t *testing.T) {
	commander := &RealCommander{}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := commander.Run(ctx, Spec{Command: "sleep", Args: []string{"1"}})
	if err == nil {
		t.Error("expected error for cancelled context, got nil")
	}
}

func TestMockCommander_WasCalled(t *testing.T) {
	mock := NewMockCommander()

	_, _ = mock.Run(context.Background(), Spec{Dir: "/project", Command: "php", Args: []string{"artisan", "migrate"}})

	if !mock.WasCalled("php", "artisan", "migrate") {
		t.Error("expected WasCalled to return true for 'php artisan migrate'")
	}
	if mock.WasCalled("php", "artisan", "optimize") {
		t.Error("expected WasCalled to return false for 'php artisan optimize'")
	}
}

func TestMockCommander_Reset(t *testing.T) {
	mock := NewMockCommander()
	ctx := context.Background()

	_, _ = mock.Run(ctx, Spec{Command: "echo", Args: []string{"hello"}})
	_, _ = mock.Run(ctx, Spec{Command: "echo", Args: []string{"world"}})

	if mock.CallCount() != 2 {
		t.Errorf("expected 2 calls before reset, got %d", mock.CallCount())
	}

	mock.Reset()

	if mock.CallCount() != 0 {
		t.Errorf("expected 0 calls after reset, got %d", mock.CallCount())
	}
	if len(mock.Responses) != 0 {
		t.Error("expected responses to be cleared")
	}
}

func TestMockCommander_ErrorResponse(t *testing.T) {
	mock := NewMockCommander()
	expectedErr := errors.New("command failed")
	mock.SetResponse("failing", []string{"cmd"}, CommandResponse{Stderr: []byte("error output"), ExitCode: 2, Err: expectedErr})

	out, err := mock.Run(context.Background(), Spec{Command: "failing", Args: []string{"cmd"}})

	if err != expectedErr {
		t.Errorf("expected error %v, got: %v", expectedErr, err)
	}
	if string(out.Stderr) != "error output" {
		t.Errorf("expected 'error output', got: %s", string(out.Stderr))
	}
	if out.ExitCode != 2 {
		t.Errorf("expected exit code 2, got: %d", out.ExitCode)
	}
}

func TestMockCommander_LookPath(t *testing.T) {
	mock := NewMockCommander()
	mock.Missing["laravel"] = true

	if _, err := mock.LookPath("php"); err != nil {
		t.Errorf("expected php to resolve, got: %v", err)
	}
	if _, err := mock.LookPath("laravel"); err == nil {
		t.Error("expected laravel lookup to fail")
	}
}
