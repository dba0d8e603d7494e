package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// ReceiptFile is written into every generated project. It holds local
// install state and should never be committed.
const ReceiptFile = ".filastart.local"

// Receipt records how a project was generated.
type Receipt struct {
	RunID           string    `yaml:"run_id"`
	Version         string    `yaml:"version"`
	InstalledAt     time.Time `yaml:"installed_at"`
	StarterKit      string    `yaml:"starter_kit"`
	Database        string    `yaml:"database"`
	FilamentVersion string    `yaml:"filament_version"`
	AdminEmail      string    `yaml:"admin_email"`
}

// ReadReceipt reads the receipt in projectPath. A missing file yields an
// empty receipt.
func ReadReceipt(projectPath string) (*Receipt, error) {
	path := filepath.Join(projectPath, ReceiptFile)

	content, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return &Receipt{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading receipt: %w", err)
	}

	var receipt Receipt
	if err := yaml.Unmarshal(content, &receipt); err != nil {
		return nil, fmt.Errorf("parsing receipt: %w", err)
	}

	return &receipt, nil
}

// WriteReceipt writes receipt to projectPath, keeping unknown keys of an
// existing receipt.
func WriteReceipt(projectPath string, receipt Receipt) error {
	path := filepath.Join(projectPath, ReceiptFile)

	existing := make(map[string]interface{})
	if content, err := os.ReadFile(path); err == nil {
		if err := yaml.Unmarshal(content, &existing); err != nil {
			return fmt.Errorf("parsing existing receipt: %w", err)
		}
	}

	var fields map[string]interface{}
	raw, err := yaml.Marshal(receipt)
	if err != nil {
		return fmt.Errorf("marshaling receipt: %w", err)
	}
	if err := yaml.Unmarshal(raw, &fields); err != nil {
		return fmt.Errorf("marshaling receipt: %w", err)
	}
	for k, v := range fields {
		existing[k] = v
	}

	content, err := yaml.Marshal(existing)
	if err != nil {
		return fmt.Errorf("marshaling receipt: %w", err)
	}

	if err := os.WriteFile(path, content, 0644); err != nil {
		return fmt.Errorf("writing receipt: %w", err)
	}

	return nil
}
