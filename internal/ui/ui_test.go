package ui

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"testing"

	"github.com/charmbracelet/huh"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeAbort(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		aborted bool
	}{
		{"huh abort", huh.ErrUserAborted, true},
		{"wrapped huh abort", fmt.Errorf("form: %w", huh.ErrUserAborted), true},
		{"eof", io.EOF, true},
		{"context cancelled", context.Canceled, true},
		{"other error", assert.AnError, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NormalizeAbort(tt.err)
			assert.Equal(t, tt.aborted, IsAbort(err))
			if !tt.aborted {
				assert.Equal(t, tt.err, err)
			}
		})
	}

	assert.NoError(t, NormalizeAbort(nil))
}

func TestPrinter(t *testing.T) {
	t.Run("plain output without color", func(t *testing.T) {
		var buf bytes.Buffer
		p := NewPrinter(&buf, false)

		p.Done("created %s", "demo")
		p.Warning("database not reachable")
		p.Error("step failed")
		p.Info("next")

		assert.Equal(t, "✓ created demo\n! database not reachable\n✗ step failed\n• next\n", buf.String())
	})

	t.Run("table", func(t *testing.T) {
		var buf bytes.Buffer
		p := NewPrinter(&buf, false)

		require.NoError(t, p.Table([]string{"Tool", "Status"}, [][]string{{"php", "ok"}, {"npm", "missing"}}))

		assert.Contains(t, buf.String(), "php")
		assert.Contains(t, buf.String(), "missing")
	})
}

func TestValidators(t *testing.T) {
	assert.NoError(t, validatePort("5432"))
	assert.NoError(t, validatePort(""))
	assert.Error(t, validatePort("0"))
	assert.Error(t, validatePort("abc"))
	assert.Error(t, required("host")("  "))
	assert.NoError(t, required("host")("db"))
	assert.Equal(t, "3306", defaultPort("mysql"))
	assert.Equal(t, "5432", defaultPort("postgresql"))
	assert.Len(t, kitOptions(), 3)
	assert.Len(t, databaseOptions(), 4)
}
