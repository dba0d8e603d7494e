package patch

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// XMLPatch describes an attribute on the root element and a keyed child
// element that must be present in an XML file.
type XMLPatch struct {
	// Candidates are file names tried in order, relative to the project.
	Candidates []string

	Root      string
	RootAttr  string
	RootValue string

	// Parent is the element that holds the child, created under Root when missing.
	Parent    string
	Element   string
	KeyAttr   string
	KeyValue  string
	ValueAttr string
	Value     string
}

// PatchXMLAttribute applies p to the first candidate file that exists under
// projectPath. No candidate existing is a successful NotFound outcome.
func PatchXMLAttribute(projectPath string, p XMLPatch) (Result, error) {
	path, content, err := readFirst(projectPath, p.Candidates)
	if err != nil {
		return Result{}, err
	}
	if path == "" {
		return Result{Outcome: NotFound, Path: strings.Join(p.Candidates, ", ")}, nil
	}

	unlock := lockFile(path)
	defer unlock()

	patched, ok := applyXMLPatch(content, p)
	if !ok {
		return Result{Outcome: BlockNotFound, Path: path}, nil
	}
	if patched == content {
		return Result{Outcome: NoOp, Path: path}, nil
	}

	if err := writeFileAtomic(path, []byte(patched)); err != nil {
		return Result{}, fmt.Errorf("writing %s: %w", path, err)
	}
	return Result{Outcome: Patched, Path: path}, nil
}

func readFirst(projectPath string, candidates []string) (string, string, error) {
	for _, name := range candidates {
		path := filepath.Join(projectPath, name)
		content, err := os.ReadFile(path)
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return "", "", fmt.Errorf("reading %s: %w", path, err)
		}
		return path, string(content), nil
	}
	return "", "", nil
}

func applyXMLPatch(content string, p XMLPatch) (string, bool) {
	rootTag := regexp.MustCompile(`<` + regexp.QuoteMeta(p.Root) + `\b[^>]*>`)
	loc := rootTag.FindStringIndex(content)
	if loc == nil {
		return content, false
	}

	if p.RootAttr != "" {
		tag := setAttr(content[loc[0]:loc[1]], p.RootAttr, p.RootValue)
		content = content[:loc[0]] + tag + content[loc[1]:]
	}

	if p.Element == "" {
		return content, true
	}

	child := regexp.MustCompile(`<` + regexp.QuoteMeta(p.Element) + `\s[^>]*\b` +
		regexp.QuoteMeta(p.KeyAttr) + `="` + regexp.QuoteMeta(p.KeyValue) + `"[^>]*>`)
	if loc := child.FindStringIndex(content); loc != nil {
		tag := setAttr(content[loc[0]:loc[1]], p.ValueAttr, p.Value)
		return content[:loc[0]] + tag + content[loc[1]:], true
	}

	element := fmt.Sprintf(`<%s %s="%s" %s="%s"/>`, p.Element, p.KeyAttr, p.KeyValue, p.ValueAttr, p.Value)

	closeParent := "</" + p.Parent + ">"
	if idx := strings.Index(content, closeParent); idx >= 0 {
		indent := lineIndent(content, idx)
		lineStart := strings.LastIndex(content[:idx], "\n") + 1
		insert := indent + "    " + element + "\n"
		if strings.TrimSpace(content[lineStart:idx]) != "" {
			// closing tag shares a line with other content
			insert = "\n" + insert + indent
			return content[:idx] + insert + content[idx:], true
		}
		return content[:lineStart] + insert + content[lineStart:], true
	}

	closeRoot := "</" + p.Root + ">"
	idx := strings.LastIndex(content, closeRoot)
	if idx < 0 {
		return content, false
	}
	lineStart := strings.LastIndex(content[:idx], "\n") + 1
	block := fmt.Sprintf("    <%s>\n        %s\n    </%s>\n", p.Parent, element, p.Parent)
	return content[:lineStart] + block + content[lineStart:], true
}

// setAttr sets attr="value" inside a single start tag.
func setAttr(tag, attr, value string) string {
	existing := regexp.MustCompile(`(\s` + regexp.QuoteMeta(attr) + `=)"[^"]*"`)
	if existing.MatchString(tag) {
		return existing.ReplaceAllString(tag, `${1}"`+escapeReplacement(value)+`"`)
	}

	end := len(tag) - 1
	if strings.HasSuffix(tag, "/>") {
		end = len(tag) - 2
	}
	body := strings.TrimRight(tag[:end], " \t\r\n")
	sep := " "
	if strings.Contains(body, "\n") {
		sep = "\n" + attrIndent(body)
	}
	return body + sep + attr + `="` + value + `"` + tag[end:]
}

func attrIndent(body string) string {
	lines := strings.Split(body, "\n")
	last := lines[len(lines)-1]
	return last[:len(last)-len(strings.TrimLeft(last, " \t"))]
}

func lineIndent(content string, idx int) string {
	lineStart := strings.LastIndex(content[:idx], "\n") + 1
	line := content[lineStart:idx]
	return line[:len(line)-len(strings.TrimLeft(line, " \t"))]
}

func escapeReplacement(s string) string {
	return strings.ReplaceAll(s, "$", "$$")
}
