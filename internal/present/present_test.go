package present

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/naoray/filastart/internal/errors"
	"github.com/naoray/filastart/internal/exec"
	"github.com/naoray/filastart/internal/mode"
	"github.com/naoray/filastart/internal/params"
	"github.com/naoray/filastart/internal/report"
	"github.com/naoray/filastart/internal/scaffold"
)

func testSet(t *testing.T) params.Set {
	t.Helper()
	return params.Set{
		ProjectName: "Demo",
		Kit:         params.KitLivewire,
		Database:    params.SQLite,
		Admin:       params.DefaultAdmin,
		BaseDir:     t.TempDir(),
	}
}

func commandStep(name, title, command string) scaffold.Step {
	return scaffold.Step{
		Name:  name,
		Title: title,
		Action: func(ctx context.Context, run *scaffold.Run) error {
			_, err := run.Command(ctx, name, command)
			return err
		},
	}
}

func execute(t *testing.T, p Presenter, mock *exec.MockCommander) (*scaffold.Run, scaffold.Outcome) {
	t.Helper()
	run := scaffold.NewRun(testSet(t), scaffold.RunOptions{
		Runner:   exec.NewShellRunner(mock),
		Observer: p,
	})
	pipeline := scaffold.NewPipeline(
		commandStep("first", "First step", "echo one"),
		commandStep("second", "Second step", "echo two"),
	)
	return run, pipeline.Execute(context.Background(), run)
}

func TestNew(t *testing.T) {
	var buf bytes.Buffer

	assert.IsType(t, &Structured{}, New(mode.Descriptor{Kind: mode.Structured}, &buf, report.Meta{}))

	interactive, ok := New(mode.Descriptor{Kind: mode.Interactive}, &buf, report.Meta{}).(*Console)
	require.True(t, ok)
	assert.True(t, interactive.spinner)

	silent, ok := New(mode.Descriptor{Kind: mode.Silent}, &buf, report.Meta{}).(*Console)
	require.True(t, ok)
	assert.False(t, silent.spinner)
}

func TestStructured(t *testing.T) {
	meta := report.Meta{Version: "dev", Command: "new", Flags: map[string]any{"json": true}}

	t.Run("success writes exactly one document", func(t *testing.T) {
		var buf bytes.Buffer
		p := New(mode.Descriptor{Kind: mode.Structured}, &buf, meta)

		run, outcome := execute(t, p, exec.NewMockCommander())
		require.NoError(t, p.Finish(run, outcome))

		dec := json.NewDecoder(&buf)
		var doc map[string]any
		require.NoError(t, dec.Decode(&doc))
		assert.False(t, dec.More())

		assert.Equal(t, "success", doc["status"])
		assert.Len(t, doc["tasks"], 2)
		result, ok := doc["result"].(map[string]any)
		require.True(t, ok)
		assert.Equal(t, "http://localhost:8000/admin", result["url"])
		assert.NotContains(t, doc, "error")
	})

	t.Run("failure reports the failing step", func(t *testing.T) {
		var buf bytes.Buffer
		p := New(mode.Descriptor{Kind: mode.Structured}, &buf, meta)

		mock := exec.NewMockCommander()
		mock.FailShell("echo two", "boom")
		run, outcome := execute(t, p, mock)
		require.NoError(t, p.Finish(run, outcome))

		var doc report.Document
		require.NoError(t, json.Unmarshal(buf.Bytes(), &doc))
		assert.Equal(t, "error", doc.Status)
		assert.Nil(t, doc.Result)
		require.NotNil(t, doc.Error)
		assert.Equal(t, "second", doc.Error.Step)
	})

	t.Run("rejection writes a document", func(t *testing.T) {
		var buf bytes.Buffer
		p := New(mode.Descriptor{Kind: mode.Structured}, &buf, meta)

		require.NoError(t, p.Reject(errors.Validation([]string{"name", "kit"})))

		var doc report.Document
		require.NoError(t, json.Unmarshal(buf.Bytes(), &doc))
		assert.Equal(t, "error", doc.Status)
		require.NotNil(t, doc.Error)
		assert.Equal(t, []string{"name", "kit"}, doc.Error.Missing)
		assert.Empty(t, doc.Tasks)
	})
}

func TestConsole(t *testing.T) {
	t.Run("silent prints one line per step and a summary", func(t *testing.T) {
		var buf bytes.Buffer
		p := New(mode.Descriptor{Kind: mode.Silent}, &buf, report.Meta{})

		run, outcome := execute(t, p, exec.NewMockCommander())
		require.NoError(t, p.Finish(run, outcome))

		out := buf.String()
		assert.Contains(t, out, "✓ [1/2] First step")
		assert.Contains(t, out, "✓ [2/2] Second step")
		assert.Contains(t, out, "admin@example.com")
		assert.Contains(t, out, "SQLite (database/database.sqlite)")
		assert.Contains(t, out, "http://localhost:8000/admin")
		assert.NotContains(t, out, "\x1b[")
	})

	t.Run("failure shows the failing output", func(t *testing.T) {
		var buf bytes.Buffer
		p := New(mode.Descriptor{Kind: mode.Silent}, &buf, report.Meta{})

		mock := exec.NewMockCommander()
		mock.FailShell("echo one", "permission denied")
		run, outcome := execute(t, p, mock)
		require.NoError(t, p.Finish(run, outcome))

		out := buf.String()
		assert.Contains(t, out, "✗ [1/2] First step")
		assert.NotContains(t, out, "Second step")
		assert.Contains(t, out, "step first failed")
		assert.Contains(t, out, "permission denied")
		assert.NotContains(t, out, "Next steps")
	})

	t.Run("warnings are listed under their step", func(t *testing.T) {
		var buf bytes.Buffer
		p := New(mode.Descriptor{Kind: mode.Silent}, &buf, report.Meta{})

		run := scaffold.NewRun(testSet(t), scaffold.RunOptions{
			Runner:   exec.NewShellRunner(exec.NewMockCommander()),
			Observer: p,
		})
		pipeline := scaffold.NewPipeline(scaffold.Step{
			Name:  "database",
			Title: "Preparing database",
			Action: func(_ context.Context, run *scaffold.Run) error {
				run.Warn("database.probe", "connection refused")
				return nil
			},
		})
		outcome := pipeline.Execute(context.Background(), run)
		require.True(t, outcome.Succeeded())

		assert.Contains(t, buf.String(), "! database.probe: connection refused")
	})

	t.Run("verbose prints the event table", func(t *testing.T) {
		var buf bytes.Buffer
		p := New(mode.Descriptor{Kind: mode.Silent, Verbose: true}, &buf, report.Meta{})

		run, outcome := execute(t, p, exec.NewMockCommander())
		require.NoError(t, p.Finish(run, outcome))

		assert.Contains(t, buf.String(), "second")
		assert.Contains(t, buf.String(), "success")
	})

	t.Run("validation rejection", func(t *testing.T) {
		var buf bytes.Buffer
		p := New(mode.Descriptor{Kind: mode.Silent}, &buf, report.Meta{})

		require.NoError(t, p.Reject(errors.Validation([]string{"db-host", "db-port"})))

		assert.Contains(t, buf.String(), "missing required options: --db-host, --db-port")
	})
}
