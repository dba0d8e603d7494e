package patch

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"
)

var returnArray = regexp.MustCompile(`return\s*\[`)

// InjectArrayEntries inserts entries before the closing bracket of the first
// `return [ ... ];` block in the file at path. Nothing is written when any of
// guards already appears in the file.
func InjectArrayEntries(path string, entries []string, guards []string) (Result, error) {
	defer lockFile(path)()

	raw, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return Result{Outcome: NotFound, Path: path}, nil
	}
	if err != nil {
		return Result{}, fmt.Errorf("reading %s: %w", path, err)
	}
	content := string(raw)

	for _, guard := range guards {
		if guard != "" && strings.Contains(content, guard) {
			return Result{Outcome: AlreadyPresent, Path: path}, nil
		}
	}
	if len(entries) == 0 {
		return Result{Outcome: NoOp, Path: path}, nil
	}

	patched, ok := injectEntries(content, entries)
	if !ok {
		return Result{Outcome: BlockNotFound, Path: path}, nil
	}

	if err := writeFileAtomic(path, []byte(patched)); err != nil {
		return Result{}, fmt.Errorf("writing %s: %w", path, err)
	}
	return Result{Outcome: Patched, Path: path}, nil
}

func injectEntries(content string, entries []string) (string, bool) {
	loc := returnArray.FindStringIndex(content)
	if loc == nil {
		return content, false
	}

	closing := matchingBracket(content, loc[1]-1)
	if closing < 0 {
		return content, false
	}
	if !strings.HasPrefix(strings.TrimLeft(content[closing+1:], " \t\r\n"), ";") {
		return content, false
	}

	last := strings.LastIndexFunc(content[:closing], func(r rune) bool {
		return r != ' ' && r != '\t' && r != '\n' && r != '\r'
	})

	separator := ""
	if content[last] != '[' && content[last] != ',' {
		separator = ","
	}

	indent := "    "
	if content[last] != '[' {
		indent = lineIndent(content, last)
	}

	trailing := content[last+1 : closing]
	if !strings.Contains(trailing, "\n") {
		trailing = "\n"
	}

	var b strings.Builder
	b.WriteString(content[:last+1])
	b.WriteString(separator)
	for _, entry := range entries {
		entry = strings.TrimSpace(entry)
		if !strings.HasSuffix(entry, ",") {
			entry += ","
		}
		b.WriteString("\n")
		b.WriteString(indent)
		b.WriteString(entry)
	}
	b.WriteString(trailing)
	b.WriteString(content[closing:])

	return b.String(), true
}

// matchingBracket returns the index of the ']' closing the '[' at open,
// skipping quoted strings.
func matchingBracket(content string, open int) int {
	depth := 0
	var quote byte
	for i := open; i < len(content); i++ {
		c := content[i]
		if quote != 0 {
			if c == '\\' {
				i++
				continue
			}
			if c == quote {
				quote = 0
			}
			continue
		}
		switch c {
		case '\'', '"':
			quote = c
		case '[':
			depth++
		case ']':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}
