// Package patch implements the idempotent text-file mutations the installer
// applies to a generated project: .env merging, XML attribute patching,
// array-literal injection and line appends. Expected conditions (missing
// file, already patched, marker not found) are reported as outcomes, not
// errors.
package patch

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

var (
	fileLocks   = make(map[string]*sync.Mutex)
	fileLocksMu sync.Mutex
)

// lockFile serialises read-modify-write cycles on path and returns the unlock func.
func lockFile(path string) func() {
	fileLocksMu.Lock()
	lock, ok := fileLocks[path]
	if !ok {
		lock = &sync.Mutex{}
		fileLocks[path] = lock
	}
	fileLocksMu.Unlock()

	lock.Lock()
	return lock.Unlock
}

// Outcome describes what a patch did.
type Outcome string

const (
	Patched        Outcome = "patched"
	AlreadyPresent Outcome = "already_present"
	NotFound       Outcome = "file_not_found"
	BlockNotFound  Outcome = "block_not_found"
	NoOp           Outcome = "no_op"
)

// Result is the outcome of a patch and the file it targeted.
type Result struct {
	Outcome Outcome
	Path    string
}

// Changed reports whether the file was rewritten.
func (r Result) Changed() bool {
	return r.Outcome == Patched
}

func (r Result) String() string {
	switch r.Outcome {
	case Patched:
		return fmt.Sprintf("patched %s", r.Path)
	case AlreadyPresent:
		return fmt.Sprintf("%s already contains the entries", r.Path)
	case NotFound:
		return fmt.Sprintf("%s not found", r.Path)
	case BlockNotFound:
		return fmt.Sprintf("no patchable block in %s", r.Path)
	default:
		return fmt.Sprintf("%s already up to date", r.Path)
	}
}

// writeFileAtomic replaces path with content via a temp file in the same
// directory, keeping the existing permissions.
func writeFileAtomic(path string, content []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating parent directory: %w", err)
	}

	perms := os.FileMode(0644)
	if info, err := os.Stat(path); err == nil {
		perms = info.Mode().Perm()
	}

	tmpFile, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpFileName := tmpFile.Name()

	if _, err := tmpFile.Write(content); err != nil {
		_ = tmpFile.Close()
		_ = os.Remove(tmpFileName)
		return fmt.Errorf("writing temp file: %w", err)
	}

	if err := tmpFile.Close(); err != nil {
		_ = os.Remove(tmpFileName)
		return fmt.Errorf("closing temp file: %w", err)
	}

	if err := os.Chmod(tmpFileName, perms); err != nil {
		_ = os.Remove(tmpFileName)
		return fmt.Errorf("setting permissions: %w", err)
	}

	if err := os.Rename(tmpFileName, path); err != nil {
		_ = os.Remove(tmpFileName)
		return fmt.Errorf("renaming temp file: %w", err)
	}

	return nil
}
