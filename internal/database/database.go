// Package database prepares the database a generated project points at:
// advisory reachability probes, creating the database on MySQL and
// PostgreSQL servers, and creating the SQLite file.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5"
	_ "github.com/mattn/go-sqlite3"

	"github.com/naoray/filastart/internal/params"
)

// DefaultTimeout bounds every probe and connection attempt.
const DefaultTimeout = 5 * time.Second

// maintenanceDB is the PostgreSQL database connected to for CREATE DATABASE.
const maintenanceDB = "postgres"

// Manager prepares databases for the installer.
type Manager interface {
	// Probe checks that something accepts TCP connections at the address.
	Probe(ctx context.Context, conn params.Connection) error

	// Ensure creates conn.Name on the server if it does not exist.
	Ensure(ctx context.Context, db params.Database, conn params.Connection) error

	// EnsureSQLite creates the SQLite database file at path.
	EnsureSQLite(ctx context.Context, path string) error
}

// Client is the Manager backed by real drivers.
type Client struct {
	timeout time.Duration
}

// New creates a Client. A zero timeout uses DefaultTimeout.
func New(timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{timeout: timeout}
}

// Probe dials the connection's address.
func (c *Client) Probe(ctx context.Context, conn params.Connection) error {
	dialer := net.Dialer{Timeout: c.timeout}
	tcp, err := dialer.DialContext(ctx, "tcp", conn.Address())
	if err != nil {
		return fmt.Errorf("nothing is listening on %s: %w", conn.Address(), err)
	}
	return tcp.Close()
}

// Ensure creates the database using the driver for db.
func (c *Client) Ensure(ctx context.Context, db params.Database, conn params.Connection) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	switch db.Driver() {
	case "mysql":
		return c.ensureMySQL(ctx, conn)
	case "pgsql":
		return c.ensurePostgres(ctx, conn)
	default:
		return fmt.Errorf("database %s has no server to prepare", db)
	}
}

func (c *Client) ensureMySQL(ctx context.Context, conn params.Connection) error {
	cfg := mysql.NewConfig()
	cfg.User = conn.User
	cfg.Passwd = conn.Password
	cfg.Net = "tcp"
	cfg.Addr = conn.Address()
	cfg.Timeout = c.timeout

	connector, err := mysql.NewConnector(cfg)
	if err != nil {
		return fmt.Errorf("configuring mysql connection: %w", err)
	}
	db := sql.OpenDB(connector)
	defer db.Close()

	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("connecting to mysql at %s: %w", conn.Address(), err)
	}
	if _, err := db.ExecContext(ctx, "CREATE DATABASE IF NOT EXISTS "+quoteMySQL(conn.Name)); err != nil {
		return fmt.Errorf("creating database %s: %w", conn.Name, err)
	}
	return nil
}

func (c *Client) ensurePostgres(ctx context.Context, conn params.Connection) error {
	port, err := conn.PortNumber()
	if err != nil {
		return err
	}

	cfg, err := pgx.ParseConfig("")
	if err != nil {
		return fmt.Errorf("configuring postgres connection: %w", err)
	}
	cfg.Host = conn.Host
	cfg.Port = uint16(port)
	cfg.User = conn.User
	cfg.Password = conn.Password
	cfg.Database = maintenanceDB
	cfg.ConnectTimeout = c.timeout

	pg, err := pgx.ConnectConfig(ctx, cfg)
	if err != nil {
		return fmt.Errorf("connecting to postgres at %s: %w", conn.Address(), err)
	}
	defer pg.Close(context.Background())

	var exists bool
	if err := pg.QueryRow(ctx, "SELECT EXISTS (SELECT 1 FROM pg_database WHERE datname = $1)", conn.Name).Scan(&exists); err != nil {
		return fmt.Errorf("checking database %s: %w", conn.Name, err)
	}
	if exists {
		return nil
	}

	if _, err := pg.Exec(ctx, "CREATE DATABASE "+pgx.Identifier{conn.Name}.Sanitize()); err != nil {
		return fmt.Errorf("creating database %s: %w", conn.Name, err)
	}
	return nil
}

// EnsureSQLite creates the database file and checks that it opens.
func (c *Client) EnsureSQLite(ctx context.Context, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return fmt.Errorf("opening %s: %w", path, err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var version int
	if err := db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("opening %s: %w", path, err)
	}
	return nil
}

func quoteMySQL(name string) string {
	return "`" + strings.ReplaceAll(name, "`", "``") + "`"
}
