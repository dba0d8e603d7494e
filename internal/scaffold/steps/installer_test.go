package steps

import (
	"context"
	stderrors "errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/naoray/filastart/internal/config"
	"github.com/naoray/filastart/internal/errors"
	"github.com/naoray/filastart/internal/exec"
	"github.com/naoray/filastart/internal/params"
	"github.com/naoray/filastart/internal/scaffold"
)

type fakeDatabase struct {
	probeErr  error
	ensureErr error
	sqlite    []string
	ensured   []params.Connection
}

func (f *fakeDatabase) Probe(ctx context.Context, conn params.Connection) error {
	return f.probeErr
}

func (f *fakeDatabase) Ensure(ctx context.Context, db params.Database, conn params.Connection) error {
	f.ensured = append(f.ensured, conn)
	return f.ensureErr
}

func (f *fakeDatabase) EnsureSQLite(ctx context.Context, path string) error {
	f.sqlite = append(f.sqlite, path)
	return nil
}

type fixture struct {
	mock *exec.MockCommander
	db   *fakeDatabase
	set  params.Set
	opts Options
}

func newFixture(t *testing.T, set params.Set) *fixture {
	t.Helper()
	if set.ProjectName == "" {
		set.ProjectName = "Demo"
	}
	if set.Kit == "" {
		set.Kit = params.KitLivewire
	}
	if set.Database == "" {
		set.Database = params.SQLite
	}
	if set.Admin == (params.Admin{}) {
		set.Admin = params.DefaultAdmin
	}
	set.BaseDir = t.TempDir()

	// laravel new is mocked, so the project directory has to exist already.
	require.NoError(t, os.MkdirAll(set.ProjectPath(), 0755))

	mock := exec.NewMockCommander()
	db := &fakeDatabase{}
	return &fixture{
		mock: mock,
		db:   db,
		set:  set,
		opts: Options{
			Commander: mock,
			Database:  db,
			Version:   "1.2.3",
			Now: func() time.Time {
				return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
			},
		},
	}
}

func (f *fixture) run() *scaffold.Run {
	return scaffold.NewRun(f.set, scaffold.RunOptions{Runner: exec.NewShellRunner(f.mock)})
}

func (f *fixture) execute(t *testing.T) (scaffold.Outcome, *scaffold.Run) {
	t.Helper()
	run := f.run()
	return Installer(f.opts).Execute(context.Background(), run), run
}

// only runs a single installer step inside the project directory.
func (f *fixture) only(t *testing.T, name string) (scaffold.Outcome, *scaffold.Run) {
	t.Helper()
	for _, step := range Installer(f.opts).Steps() {
		if step.Name == name {
			run := f.run()
			require.NoError(t, run.EnterProject(f.set.ProjectPath()))
			return scaffold.NewPipeline(step).Execute(context.Background(), run), run
		}
	}
	t.Fatalf("no step named %s", name)
	return scaffold.Outcome{}, nil
}

func eventNames(events []scaffold.Event) []string {
	names := make([]string, len(events))
	for i, e := range events {
		names[i] = e.Name
	}
	return names
}

func TestInstaller(t *testing.T) {
	t.Run("declares the steps in order", func(t *testing.T) {
		var names []string
		for _, step := range Installer(Options{}).Steps() {
			names = append(names, step.Name)
			assert.NotEmpty(t, step.Title)
		}

		assert.Equal(t, []string{
			Requirements, Directory, Laravel, Environment, Database, Filament, Panel,
			Providers, PHPUnit, NPMInstall, NPMBuild, Migrate, AdminUser, Finalize,
		}, names)
	})

	t.Run("sqlite install runs every command", func(t *testing.T) {
		f := newFixture(t, params.Set{})

		outcome, _ := f.execute(t)

		require.True(t, outcome.Succeeded(), outcome.Error())
		assert.Equal(t, []string{
			"php --version",
			"composer --version",
			"laravel --version",
			"npm --version",
			"laravel new demo --livewire --database=sqlite --no-interaction",
			"composer require 'filament/filament:^4.0' -W --no-interaction",
			"php artisan filament:install --panels --no-interaction",
			"npm install",
			"npm run build",
			"php artisan migrate --force --no-interaction",
			"php artisan make:filament-user --name=Admin --email=admin@example.com --password=password --no-interaction",
			"php artisan storage:link",
			"php artisan optimize:clear",
		}, f.mock.ShellCommands())

		assert.Equal(t, []string{
			"requirements.php", "requirements.composer", "requirements.laravel", "requirements.npm",
			"directory.base", "directory.project",
			"laravel.new", "laravel.enter",
			"environment.merge", "environment.verify",
			"database.sqlite",
			"filament.require",
			"panel.install",
			"providers.register",
			"phpunit.connection", "phpunit.database",
			"npm.install",
			"npm.build",
			"migrate",
			"admin.create",
			"finalize.storage-link", "finalize.receipt", "finalize.gitignore", "finalize.optimize-clear",
		}, eventNames(outcome.Events))
	})

	t.Run("commands move into the project after laravel new", func(t *testing.T) {
		f := newFixture(t, params.Set{})

		outcome, run := f.execute(t)

		require.True(t, outcome.Succeeded())
		assert.Equal(t, f.set.BaseDir, f.mock.GetCall(4).Dir)
		assert.Equal(t, f.set.ProjectPath(), f.mock.GetCall(5).Dir)
		assert.Equal(t, f.set.ProjectPath(), f.mock.LastCall().Dir)
		assert.Equal(t, f.set.ProjectPath(), run.Dir())
	})

	t.Run("writes the environment, database and receipt", func(t *testing.T) {
		f := newFixture(t, params.Set{})
		f.opts.Env = map[string]string{"APP_LOCALE": "es", "DB_CONNECTION": "mysql"}

		outcome, run := f.execute(t)

		require.True(t, outcome.Succeeded())
		env, err := os.ReadFile(filepath.Join(f.set.ProjectPath(), ".env"))
		require.NoError(t, err)
		assert.Contains(t, string(env), "DB_CONNECTION=sqlite")
		assert.Contains(t, string(env), "APP_LOCALE=es")
		assert.Contains(t, string(env), "APP_NAME=Demo")

		assert.Equal(t, []string{filepath.Join(f.set.ProjectPath(), "database", "database.sqlite")}, f.db.sqlite)

		receipt, err := config.ReadReceipt(f.set.ProjectPath())
		require.NoError(t, err)
		assert.Equal(t, run.ID, receipt.RunID)
		assert.Equal(t, "1.2.3", receipt.Version)
		assert.Equal(t, "sqlite", receipt.Database)
		assert.Equal(t, "^4.0", receipt.FilamentVersion)
	})

	t.Run("missing tools abort before any project command", func(t *testing.T) {
		f := newFixture(t, params.Set{})
		f.mock.Missing["laravel"] = true
		f.mock.Missing["npm"] = true

		outcome, _ := f.execute(t)

		assert.Equal(t, scaffold.Failed, outcome.State)
		assert.Equal(t, Requirements, outcome.FailedStep)
		assert.Equal(t, errors.KindPrecondition, outcome.Err.Kind)
		assert.Equal(t, "requirements.laravel", outcome.Err.Event)
		assert.Equal(t, "required tools not found: laravel, npm", outcome.Err.Message)
		assert.Equal(t, []string{"php --version", "composer --version"}, f.mock.ShellCommands())
		assert.Len(t, outcome.Events, 4)
	})

	t.Run("refuses a non-empty project directory", func(t *testing.T) {
		f := newFixture(t, params.Set{})
		require.NoError(t, os.WriteFile(filepath.Join(f.set.ProjectPath(), "composer.json"), []byte("{}"), 0644))

		outcome, _ := f.execute(t)

		assert.Equal(t, Directory, outcome.FailedStep)
		assert.Equal(t, errors.KindPrecondition, outcome.Err.Kind)
		assert.Contains(t, outcome.Err.Error(), "already exists and is not empty")
		assert.False(t, f.mock.WasCalled("sh", "-c", "laravel new demo --livewire --database=sqlite --no-interaction"))
	})

	t.Run("failed command aborts the remaining steps", func(t *testing.T) {
		f := newFixture(t, params.Set{})
		f.mock.FailShell("composer require 'filament/filament:^4.0' -W --no-interaction", "Your requirements could not be resolved")

		outcome, _ := f.execute(t)

		assert.Equal(t, Filament, outcome.FailedStep)
		assert.Equal(t, "filament.require", outcome.Err.Event)
		last := outcome.Events[len(outcome.Events)-1]
		assert.Equal(t, "filament.require", last.Name)
		assert.Equal(t, scaffold.StatusError, last.Status)
		assert.Equal(t, "Your requirements could not be resolved", last.Stderr)
		assert.False(t, f.mock.WasCalled("sh", "-c", "npm install"))
	})

	t.Run("unreachable database server is only a warning", func(t *testing.T) {
		f := newFixture(t, params.Set{
			Database:   params.MySQL,
			Connection: &params.Connection{Host: "127.0.0.1", Port: "3306", Name: "demo", User: "root", Password: "secret"},
		})
		f.db.probeErr = stderrors.New("connection refused")

		outcome, _ := f.execute(t)

		require.True(t, outcome.Succeeded())
		var probe scaffold.Event
		for _, e := range outcome.Events {
			if e.Name == "database.probe" {
				probe = e
			}
		}
		assert.Equal(t, scaffold.StatusWarning, probe.Status)
		assert.Contains(t, probe.Detail, "127.0.0.1:3306")
		assert.Empty(t, f.db.ensured)
		assert.True(t, f.mock.WasCalled("sh", "-c", "php artisan migrate --force --no-interaction"))
	})

	t.Run("database creation failure is only a warning", func(t *testing.T) {
		f := newFixture(t, params.Set{Database: params.Supabase})
		f.db.ensureErr = stderrors.New("permission denied")

		outcome, _ := f.only(t, Database)

		require.True(t, outcome.Succeeded())
		require.Len(t, outcome.Events, 2)
		assert.Equal(t, "database.probe", outcome.Events[0].Name)
		assert.Equal(t, "database.create", outcome.Events[1].Name)
		assert.Equal(t, scaffold.StatusWarning, outcome.Events[1].Status)
		assert.Equal(t, []params.Connection{params.SupabaseConnection}, f.db.ensured)
	})
}

func TestRegisterProvider(t *testing.T) {
	t.Run("injects the panel provider", func(t *testing.T) {
		f := newFixture(t, params.Set{})
		providers := filepath.Join(f.set.ProjectPath(), "bootstrap", "providers.php")
		require.NoError(t, os.MkdirAll(filepath.Dir(providers), 0755))
		require.NoError(t, os.WriteFile(providers, []byte("<?php\n\nreturn [\n    App\\Providers\\AppServiceProvider::class,\n];\n"), 0644))

		outcome, _ := f.only(t, Providers)

		require.True(t, outcome.Succeeded())
		assert.Equal(t, scaffold.StatusSuccess, outcome.Events[0].Status)
		content, err := os.ReadFile(providers)
		require.NoError(t, err)
		assert.Contains(t, string(content), PanelProvider+",")
	})

	t.Run("already registered provider is skipped", func(t *testing.T) {
		f := newFixture(t, params.Set{})
		providers := filepath.Join(f.set.ProjectPath(), "bootstrap", "providers.php")
		require.NoError(t, os.MkdirAll(filepath.Dir(providers), 0755))
		require.NoError(t, os.WriteFile(providers, []byte("<?php\n\nreturn [\n    "+PanelProvider+",\n];\n"), 0644))

		outcome, _ := f.only(t, Providers)

		require.True(t, outcome.Succeeded())
		assert.Equal(t, scaffold.StatusSkipped, outcome.Events[0].Status)
	})
}

func TestConfigurePHPUnit(t *testing.T) {
	f := newFixture(t, params.Set{})
	phpunit := filepath.Join(f.set.ProjectPath(), "phpunit.xml")
	require.NoError(t, os.WriteFile(phpunit, []byte("<phpunit>\n    <php>\n        <env name=\"APP_ENV\" value=\"testing\"/>\n    </php>\n</phpunit>\n"), 0644))

	outcome, _ := f.only(t, PHPUnit)

	require.True(t, outcome.Succeeded())
	content, err := os.ReadFile(phpunit)
	require.NoError(t, err)
	assert.Contains(t, string(content), `<phpunit colors="true">`)
	assert.Contains(t, string(content), `<env name="DB_CONNECTION" value="sqlite"/>`)
	assert.Contains(t, string(content), `<env name="DB_DATABASE" value=":memory:"/>`)
}

func TestCheckTools(t *testing.T) {
	mock := exec.NewMockCommander()
	mock.Missing["npm"] = true
	mock.SetShellResponse("php --version", exec.CommandResponse{Stdout: []byte("PHP 8.4.1 (cli)\nCopyright")})

	statuses := CheckTools(context.Background(), mock, exec.NewShellRunner(mock))

	require.Len(t, statuses, len(Tools))
	assert.True(t, statuses[0].Found)
	assert.Equal(t, "/usr/bin/php", statuses[0].Path)
	assert.Equal(t, "PHP 8.4.1 (cli)", statuses[0].Details)
	assert.False(t, statuses[3].Found)
	assert.Equal(t, "not found on PATH", statuses[3].Details)
}

func TestRequirementsBeforeBaseDirExists(t *testing.T) {
	set := params.Set{
		ProjectName: "demo",
		Kit:         params.KitLivewire,
		Database:    params.SQLite,
		Admin:       params.DefaultAdmin,
		BaseDir:     filepath.Join(t.TempDir(), "not", "yet"),
	}

	t.Run("version checks do not run in the base directory", func(t *testing.T) {
		mock := exec.NewMockCommander()
		run := scaffold.NewRun(set, scaffold.RunOptions{Runner: exec.NewShellRunner(mock)})
		steps := Installer(Options{Commander: mock, Database: &fakeDatabase{}}).Steps()

		outcome := scaffold.NewPipeline(steps[0]).Execute(context.Background(), run)

		require.True(t, outcome.Succeeded(), outcome.Error())
		require.Equal(t, len(Tools), mock.CallCount())
		for i := range Tools {
			assert.Empty(t, mock.GetCall(i).Dir)
		}
	})

	t.Run("real commands succeed", func(t *testing.T) {
		orig := Tools
		Tools = []Tool{{Name: "sh", Version: "echo sh-1.0", Purpose: "runs commands"}}
		t.Cleanup(func() { Tools = orig })

		commander := &exec.RealCommander{}
		run := scaffold.NewRun(set, scaffold.RunOptions{Runner: exec.NewShellRunner(commander)})
		steps := Installer(Options{Commander: commander, Database: &fakeDatabase{}}).Steps()

		outcome := scaffold.NewPipeline(steps[0]).Execute(context.Background(), run)

		require.True(t, outcome.Succeeded(), outcome.Error())
		require.Len(t, outcome.Events, 1)
		assert.Equal(t, scaffold.StatusSuccess, outcome.Events[0].Status)
		assert.Equal(t, "sh-1.0\n", outcome.Events[0].Stdout)

		_, err := os.Stat(set.BaseDir)
		assert.True(t, os.IsNotExist(err))
	})
}

func TestCreateAdminQuotesCredentials(t *testing.T) {
	f := newFixture(t, params.Set{Admin: params.Admin{
		Name:     "Jane O'Brien",
		Email:    "jane@example.com",
		Password: "p@ss word$",
	}})

	outcome, _ := f.only(t, AdminUser)

	require.True(t, outcome.Succeeded(), outcome.Error())
	assert.Equal(t, []string{
		`php artisan make:filament-user --name='Jane O'"'"'Brien' --email=jane@example.com --password='p@ss word$' --no-interaction`,
	}, f.mock.ShellCommands())
}
