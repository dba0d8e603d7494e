package patch

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/joho/godotenv"
)

// EnvFile is the default environment file name.
const EnvFile = ".env"

// MergeEnvFile merges updates into projectPath/.env.
func MergeEnvFile(projectPath string, updates map[string]string) (Result, error) {
	return MergeEnvFileAt(filepath.Join(projectPath, EnvFile), updates)
}

// MergeEnvFileAt merges updates into the key=value file at path. Matching
// keys are replaced in place, unknown keys are appended in sorted order,
// and comments and malformed lines pass through unchanged. A missing file
// is treated as empty.
func MergeEnvFileAt(path string, updates map[string]string) (Result, error) {
	defer lockFile(path)()

	content, err := os.ReadFile(path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return Result{}, fmt.Errorf("reading %s: %w", path, err)
	}

	merged := MergeEnvContent(string(content), updates)
	if merged == string(content) {
		return Result{Outcome: NoOp, Path: path}, nil
	}

	if err := writeFileAtomic(path, []byte(merged)); err != nil {
		return Result{}, fmt.Errorf("writing %s: %w", path, err)
	}
	return Result{Outcome: Patched, Path: path}, nil
}

// MergeEnvContent applies updates to env file content.
func MergeEnvContent(content string, updates map[string]string) string {
	var lines []string
	if trimmed := strings.TrimRight(content, "\n"); trimmed != "" {
		lines = strings.Split(trimmed, "\n")
	}

	found := make(map[string]bool, len(updates))
	for i, line := range lines {
		key, ok := envKey(line)
		if !ok {
			continue
		}
		if value, ok := updates[key]; ok {
			lines[i] = key + "=" + formatEnvValue(value)
			found[key] = true
		}
	}

	keys := make([]string, 0, len(updates))
	for key := range updates {
		if !found[key] {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	for _, key := range keys {
		lines = append(lines, key+"="+formatEnvValue(updates[key]))
	}

	return strings.Join(lines, "\n")
}

// ReadEnvFile reads projectPath/file into a map. A missing or unparsable
// file yields an empty map.
func ReadEnvFile(projectPath, file string) map[string]string {
	values, err := godotenv.Read(filepath.Join(projectPath, file))
	if err != nil {
		return map[string]string{}
	}
	return values
}

func envKey(line string) (string, bool) {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" || strings.HasPrefix(trimmed, "#") {
		return "", false
	}
	key, _, ok := strings.Cut(trimmed, "=")
	if !ok {
		return "", false
	}
	key = strings.TrimSpace(strings.TrimPrefix(key, "export "))
	if key == "" {
		return "", false
	}
	return key, true
}

func formatEnvValue(value string) string {
	if strings.HasPrefix(value, `"`) && strings.HasSuffix(value, `"`) && len(value) > 1 {
		return value
	}
	if strings.ContainsAny(value, " #\t") {
		return `"` + strings.ReplaceAll(value, `"`, `\"`) + `"`
	}
	return value
}
