package patch

import (
	"errors"
	"fmt"
	"os"
	"strings"
)

// EnsureLine appends line to the file at path unless an identical line is
// already present, e.g. adding an entry to .gitignore.
func EnsureLine(path, line string) (Result, error) {
	defer lockFile(path)()

	raw, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return Result{Outcome: NotFound, Path: path}, nil
	}
	if err != nil {
		return Result{}, fmt.Errorf("reading %s: %w", path, err)
	}
	content := string(raw)

	for _, existing := range strings.Split(content, "\n") {
		if strings.TrimSpace(existing) == line {
			return Result{Outcome: AlreadyPresent, Path: path}, nil
		}
	}

	if content != "" && !strings.HasSuffix(content, "\n") {
		content += "\n"
	}
	content += line + "\n"

	if err := writeFileAtomic(path, []byte(content)); err != nil {
		return Result{}, fmt.Errorf("writing %s: %w", path, err)
	}
	return Result{Outcome: Patched, Path: path}, nil
}
