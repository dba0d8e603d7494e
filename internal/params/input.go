package params

import (
	"fmt"
	"net/mail"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gosimple/slug"

	"github.com/naoray/filastart/internal/errors"
)

// Flag names, also used to report missing values.
const (
	FlagName          = "name"
	FlagKit           = "kit"
	FlagDatabase      = "database"
	FlagDBHost        = "db-host"
	FlagDBPort        = "db-port"
	FlagDBName        = "db-name"
	FlagDBUser        = "db-user"
	FlagDBPassword    = "db-password"
	FlagPath          = "path"
	FlagAdminName     = "admin-name"
	FlagAdminEmail    = "admin-email"
	FlagAdminPassword = "admin-password"
)

// Input is raw, unvalidated parameter input from flags, config and prompts.
type Input struct {
	ProjectName string `mapstructure:"name"`
	Kit         string `mapstructure:"starter_kit"`
	Database    string `mapstructure:"database"`

	DBHost     string `mapstructure:"db_host"`
	DBPort     string `mapstructure:"db_port"`
	DBName     string `mapstructure:"db_name"`
	DBUser     string `mapstructure:"db_user"`
	DBPassword string `mapstructure:"db_password"`

	BaseDir string `mapstructure:"base_dir"`

	AdminName     string `mapstructure:"admin_name"`
	AdminEmail    string `mapstructure:"admin_email"`
	AdminPassword string `mapstructure:"admin_password"`

	// AssumeDefaults fills the project name, kit and database when unset.
	// Connection fields are never defaulted.
	AssumeDefaults bool `mapstructure:"-"`
}

// Resolve validates in and builds the parameter set. Every missing required
// value is collected into a single validation error.
func Resolve(in Input) (Set, error) {
	var missing []string
	require := func(flag, value, fallback string) string {
		value = strings.TrimSpace(value)
		if value == "" && in.AssumeDefaults {
			value = fallback
		}
		if value == "" {
			missing = append(missing, flag)
		}
		return value
	}

	var invalid []*errors.Error

	set := Set{
		ProjectName: require(FlagName, in.ProjectName, DefaultProjectName),
	}
	kit := require(FlagKit, in.Kit, string(DefaultKit))
	database := require(FlagDatabase, in.Database, string(DefaultDatabase))

	if kit != "" {
		k, err := ParseKit(kit)
		if e, ok := errors.As(err); ok {
			invalid = append(invalid, e)
		}
		set.Kit = k
	}
	if database != "" {
		d, err := ParseDatabase(database)
		if e, ok := errors.As(err); ok {
			invalid = append(invalid, e)
		}
		set.Database = d
	}

	if set.Database.NeedsConnection() {
		conn := Connection{}
		conn.Host = requireValue(&missing, FlagDBHost, in.DBHost)
		conn.Port = requireValue(&missing, FlagDBPort, in.DBPort)
		conn.Name = requireValue(&missing, FlagDBName, in.DBName)
		conn.User = requireValue(&missing, FlagDBUser, in.DBUser)
		conn.Password = requireValue(&missing, FlagDBPassword, in.DBPassword)
		set.Connection = &conn

		if conn.Port != "" {
			if err := validatePort(conn.Port); err != nil {
				invalid = append(invalid, err)
			}
		}
	}

	admin, adminMissing := resolveAdmin(in)
	missing = append(missing, adminMissing...)
	set.Admin = admin

	if set.ProjectName != "" && set.DirName() == "" {
		invalid = append(invalid, errors.Invalid(FlagName, "%q does not contain any letters or digits", set.ProjectName))
	}
	if set.Admin.Email != "" {
		if _, err := mail.ParseAddress(set.Admin.Email); err != nil {
			invalid = append(invalid, errors.Invalid(FlagAdminEmail, "%q is not a valid email address", set.Admin.Email))
		}
	}

	if len(invalid) > 0 || len(missing) > 0 {
		return Set{}, errors.Validations(invalid, missing)
	}

	baseDir := strings.TrimSpace(in.BaseDir)
	if baseDir == "" {
		baseDir = "."
	}
	abs, err := filepath.Abs(baseDir)
	if err != nil {
		return Set{}, fmt.Errorf("resolving base directory: %w", err)
	}
	set.BaseDir = abs

	return set, nil
}

// resolveAdmin applies the default triple when nothing is supplied and
// otherwise requires all three values.
func resolveAdmin(in Input) (Admin, []string) {
	admin := Admin{
		Name:     strings.TrimSpace(in.AdminName),
		Email:    strings.TrimSpace(in.AdminEmail),
		Password: in.AdminPassword,
	}
	if admin.Name == "" && admin.Email == "" && admin.Password == "" {
		return DefaultAdmin, nil
	}

	var missing []string
	requireValue(&missing, FlagAdminName, admin.Name)
	requireValue(&missing, FlagAdminEmail, admin.Email)
	requireValue(&missing, FlagAdminPassword, admin.Password)
	return admin, missing
}

func requireValue(missing *[]string, flag, value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		*missing = append(*missing, flag)
	}
	return value
}

func validatePort(port string) *errors.Error {
	n, err := strconv.Atoi(port)
	if err != nil || n < 1 || n > 65535 {
		return errors.Invalid(FlagDBPort, "%q is not a valid port", port)
	}
	return nil
}

// ParseKit parses a starter kit name.
func ParseKit(s string) (Kit, error) {
	for _, k := range Kits {
		if strings.EqualFold(s, string(k)) {
			return k, nil
		}
	}
	return "", errors.Invalid(FlagKit, "%q must be one of react, vue, livewire", s)
}

// ParseDatabase parses a database name. "pgsql" and "postgres" are accepted
// as aliases for postgresql.
func ParseDatabase(s string) (Database, error) {
	switch strings.ToLower(s) {
	case "pgsql", "postgres":
		return PostgreSQL, nil
	}
	for _, d := range Databases {
		if strings.EqualFold(s, string(d)) {
			return d, nil
		}
	}
	return "", errors.Invalid(FlagDatabase, "%q must be one of sqlite, supabase, mysql, postgresql", s)
}

// ValidateProjectName rejects names that do not produce a directory name.
func ValidateProjectName(name string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("project name cannot be empty")
	}
	if slug.Make(name) == "" {
		return fmt.Errorf("project name must contain letters or digits")
	}
	return nil
}

// ValidateEmail rejects malformed email addresses.
func ValidateEmail(email string) error {
	if _, err := mail.ParseAddress(email); err != nil {
		return fmt.Errorf("%q is not a valid email address", email)
	}
	return nil
}
