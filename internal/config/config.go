package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"

	"github.com/naoray/filastart/internal/params"
)

const (
	// Exit codes
	ExitSuccess     = 0
	ExitFailure     = 1
	ExitInterrupted = 130
)

const (
	// Name is the config file name without extension.
	Name = "filastart"

	// EnvPrefix prefixes environment overrides, e.g. FILASTART_DATABASE.
	EnvPrefix = "FILASTART"

	DefaultFilamentVersion = "^4.0"
)

// AdminConfig holds default admin credentials.
type AdminConfig struct {
	Name     string `mapstructure:"name"`
	Email    string `mapstructure:"email"`
	Password string `mapstructure:"password"`
}

// Config represents the installer defaults file.
type Config struct {
	BaseDir         string            `mapstructure:"base_dir"`
	StarterKit      string            `mapstructure:"starter_kit"`
	Database        string            `mapstructure:"database"`
	Admin           AdminConfig       `mapstructure:"admin"`
	CommandTimeout  time.Duration     `mapstructure:"command_timeout"`
	FilamentVersion string            `mapstructure:"filament_version"`
	Env             map[string]string `mapstructure:"env"`
	CommandEnv      map[string]string `mapstructure:"command_env"`

	// Path is the file the config was read from, empty when none was found.
	Path string `mapstructure:"-"`
}

// Input returns the config values as parameter input. Flags and prompts
// take precedence over these.
func (c *Config) Input() params.Input {
	return params.Input{
		Kit:           c.StarterKit,
		Database:      c.Database,
		BaseDir:       expandHome(c.BaseDir),
		AdminName:     c.Admin.Name,
		AdminEmail:    c.Admin.Email,
		AdminPassword: c.Admin.Password,
	}
}

// GetGlobalConfigDir returns the directory holding filastart.yaml.
func GetGlobalConfigDir() (string, error) {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, Name), nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}

	return filepath.Join(home, ".config", Name), nil
}

// DefaultPath returns the path of the global config file.
func DefaultPath() (string, error) {
	dir, err := GetGlobalConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, Name+".yaml"), nil
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")

	v.SetDefault("base_dir", "")
	v.SetDefault("starter_kit", "")
	v.SetDefault("database", "")
	v.SetDefault("admin.name", "")
	v.SetDefault("admin.email", "")
	v.SetDefault("admin.password", "")
	v.SetDefault("command_timeout", "0s")
	v.SetDefault("filament_version", DefaultFilamentVersion)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return v
}

// Load reads the config file at path, or the global config file when path
// is empty. A missing global file is not an error; a missing explicit file is.
func Load(path string) (*Config, error) {
	v := newViper()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	} else {
		configDir, err := GetGlobalConfigDir()
		if err != nil {
			return nil, err
		}
		v.SetConfigName(Name)
		v.AddConfigPath(configDir)

		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("reading global config: %w", err)
			}
		}
	}

	var config Config
	hook := viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
	))
	if err := v.Unmarshal(&config, hook); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if config.CommandTimeout < 0 {
		return nil, fmt.Errorf("parsing config: command_timeout must not be negative")
	}

	// viper lowercases map keys; environment variable names are upper case.
	config.Env = upperKeys(config.Env)
	config.CommandEnv = upperKeys(config.CommandEnv)

	config.Path = v.ConfigFileUsed()
	return &config, nil
}

// Save writes cfg to path, creating parent directories.
func Save(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	v := viper.New()
	v.SetConfigType("yaml")

	configMap := map[string]interface{}{
		"base_dir":         cfg.BaseDir,
		"starter_kit":      cfg.StarterKit,
		"database":         cfg.Database,
		"command_timeout":  cfg.CommandTimeout.String(),
		"filament_version": cfg.FilamentVersion,
		"admin": map[string]interface{}{
			"name":     cfg.Admin.Name,
			"email":    cfg.Admin.Email,
			"password": cfg.Admin.Password,
		},
	}
	if len(cfg.Env) > 0 {
		configMap["env"] = cfg.Env
	}
	if len(cfg.CommandEnv) > 0 {
		configMap["command_env"] = cfg.CommandEnv
	}

	if err := v.MergeConfigMap(configMap); err != nil {
		return fmt.Errorf("merging config: %w", err)
	}

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	return nil
}

// Defaults returns the config `config init` writes.
func Defaults() *Config {
	return &Config{
		StarterKit:      string(params.DefaultKit),
		Database:        string(params.DefaultDatabase),
		FilamentVersion: DefaultFilamentVersion,
		Admin: AdminConfig{
			Name:     params.DefaultAdmin.Name,
			Email:    params.DefaultAdmin.Email,
			Password: params.DefaultAdmin.Password,
		},
	}
}

func upperKeys(m map[string]string) map[string]string {
	if m == nil {
		return nil
	}
	upper := make(map[string]string, len(m))
	for k, v := range m {
		upper[strings.ToUpper(k)] = v
	}
	return upper
}

func expandHome(path string) string {
	if path == "" || path[0] != '~' {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[1:])
}
