// Package params holds the resolved installation parameters and the rules
// that turn raw flag, config and prompt input into them.
package params

import (
	"fmt"
	"net"
	"path/filepath"
	"strconv"

	"github.com/gosimple/slug"
)

// Kit is a Laravel starter kit.
type Kit string

const (
	KitReact    Kit = "react"
	KitVue      Kit = "vue"
	KitLivewire Kit = "livewire"
)

// Kits lists the supported starter kits in prompt order.
var Kits = []Kit{KitLivewire, KitReact, KitVue}

// Database is the database the project is configured for.
type Database string

const (
	SQLite     Database = "sqlite"
	Supabase   Database = "supabase"
	MySQL      Database = "mysql"
	PostgreSQL Database = "postgresql"
)

// Databases lists the supported databases in prompt order.
var Databases = []Database{SQLite, Supabase, MySQL, PostgreSQL}

// NeedsConnection reports whether the database requires user supplied
// connection details.
func (d Database) NeedsConnection() bool {
	return d == MySQL || d == PostgreSQL
}

// Label is the human readable database name.
func (d Database) Label() string {
	switch d {
	case Supabase:
		return "Supabase"
	case MySQL:
		return "MySQL"
	case PostgreSQL:
		return "PostgreSQL"
	default:
		return "SQLite"
	}
}

// Driver returns the Laravel DB_CONNECTION value.
func (d Database) Driver() string {
	switch d {
	case MySQL:
		return "mysql"
	case PostgreSQL, Supabase:
		return "pgsql"
	default:
		return "sqlite"
	}
}

// Connection holds network database credentials.
type Connection struct {
	Host     string
	Port     string
	Name     string
	User     string
	Password string
}

// Address returns host:port.
func (c Connection) Address() string {
	return net.JoinHostPort(c.Host, c.Port)
}

// PortNumber parses Port.
func (c Connection) PortNumber() (int, error) {
	port, err := strconv.Atoi(c.Port)
	if err != nil {
		return 0, fmt.Errorf("invalid port %q: %w", c.Port, err)
	}
	return port, nil
}

// SupabaseConnection is the local Supabase stack started by `supabase start`.
var SupabaseConnection = Connection{
	Host:     "127.0.0.1",
	Port:     "54322",
	Name:     "postgres",
	User:     "postgres",
	Password: "postgres",
}

// Admin holds the credentials of the first panel user.
type Admin struct {
	Name     string
	Email    string
	Password string
}

// DefaultAdmin is used when no admin credentials are supplied.
var DefaultAdmin = Admin{
	Name:     "Admin",
	Email:    "admin@example.com",
	Password: "password",
}

const (
	DefaultProjectName = "filament-app"
	DefaultKit         = KitLivewire
	DefaultDatabase    = SQLite

	// AppURL is where `php artisan serve` exposes the project.
	AppURL = "http://localhost:8000"

	redacted = "********"
)

// Set is the resolved, validated parameter record for one run. It is built
// by Resolve and never modified afterwards.
type Set struct {
	ProjectName string
	Kit         Kit
	Database    Database

	// Connection is non-nil only for databases that need one.
	Connection *Connection

	Admin   Admin
	BaseDir string
}

// DirName is the project directory name derived from the project name.
func (s Set) DirName() string {
	return slug.Make(s.ProjectName)
}

// ProjectPath is the absolute path of the generated project.
func (s Set) ProjectPath() string {
	return filepath.Join(s.BaseDir, s.DirName())
}

// DriverName is the Laravel DB_CONNECTION value.
func (s Set) DriverName() string {
	return s.Database.Driver()
}

// DatabaseConnection returns the effective network connection, including
// the fixed Supabase one. It reports false for SQLite.
func (s Set) DatabaseConnection() (Connection, bool) {
	switch {
	case s.Database == Supabase:
		return SupabaseConnection, true
	case s.Connection != nil:
		return *s.Connection, true
	default:
		return Connection{}, false
	}
}

// SQLitePath is the database file Laravel uses by default.
func (s Set) SQLitePath() string {
	return filepath.Join(s.ProjectPath(), "database", "database.sqlite")
}

// DBLabel describes the configured database for summaries.
func (s Set) DBLabel() string {
	conn, ok := s.DatabaseConnection()
	if !ok {
		return fmt.Sprintf("%s (database/database.sqlite)", s.Database.Label())
	}
	return fmt.Sprintf("%s (%s@%s/%s)", s.Database.Label(), conn.User, conn.Address(), conn.Name)
}

// EnvValues returns the .env entries that configure the project for s.
func (s Set) EnvValues() map[string]string {
	values := map[string]string{
		"APP_NAME":      s.ProjectName,
		"APP_URL":       AppURL,
		"DB_CONNECTION": s.DriverName(),
	}
	if conn, ok := s.DatabaseConnection(); ok {
		values["DB_HOST"] = conn.Host
		values["DB_PORT"] = conn.Port
		values["DB_DATABASE"] = conn.Name
		values["DB_USERNAME"] = conn.User
		values["DB_PASSWORD"] = conn.Password
	}
	return values
}

// Echo returns the parameters keyed by flag name with secrets redacted.
func (s Set) Echo() map[string]string {
	echo := map[string]string{
		FlagName:          s.ProjectName,
		FlagKit:           string(s.Kit),
		FlagDatabase:      string(s.Database),
		FlagPath:          s.BaseDir,
		FlagAdminName:     s.Admin.Name,
		FlagAdminEmail:    s.Admin.Email,
		FlagAdminPassword: redact(s.Admin.Password),
	}
	if s.Connection != nil {
		echo[FlagDBHost] = s.Connection.Host
		echo[FlagDBPort] = s.Connection.Port
		echo[FlagDBName] = s.Connection.Name
		echo[FlagDBUser] = s.Connection.User
		echo[FlagDBPassword] = redact(s.Connection.Password)
	}
	return echo
}

func redact(secret string) string {
	if secret == "" {
		return ""
	}
	return redacted
}
