package ui

import (
	"context"
	"errors"
	"io"

	"github.com/charmbracelet/huh"
)

// ErrUserAborted is returned when the user cancels a prompt. Callers map it
// to the interrupt exit code.
var ErrUserAborted = errors.New("installation cancelled")

// NormalizeAbort folds the ways a prompt can be cancelled (Esc or Ctrl+C in
// huh, Ctrl+D on stdin, a cancelled context) into ErrUserAborted.
func NormalizeAbort(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, huh.ErrUserAborted),
		errors.Is(err, io.EOF),
		errors.Is(err, context.Canceled):
		return ErrUserAborted
	default:
		return err
	}
}

// IsAbort reports whether err is a user abort.
func IsAbort(err error) bool {
	return errors.Is(err, ErrUserAborted)
}
