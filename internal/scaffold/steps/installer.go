// Package steps defines the fixed pipeline that scaffolds a Laravel project
// with a Filament admin panel.
package steps

import (
	"context"
	"time"

	"github.com/naoray/filastart/internal/config"
	"github.com/naoray/filastart/internal/database"
	"github.com/naoray/filastart/internal/exec"
	"github.com/naoray/filastart/internal/scaffold"
)

// Step names, in pipeline order.
const (
	Requirements = "requirements"
	Directory    = "directory"
	Laravel      = "laravel"
	Environment  = "environment"
	Database     = "database"
	Filament     = "filament"
	Panel        = "panel"
	Providers    = "providers"
	PHPUnit      = "phpunit"
	NPMInstall   = "npm-install"
	NPMBuild     = "npm-build"
	Migrate      = "migrate"
	AdminUser    = "admin"
	Finalize     = "finalize"
)

// Options are the collaborators and settings the installer steps use.
type Options struct {
	// Commander resolves required binaries on PATH.
	Commander exec.Commander

	// Database prepares the configured database.
	Database database.Manager

	// FilamentVersion is the composer constraint for filament/filament.
	FilamentVersion string

	// Env holds extra .env entries. Connection settings derived from the
	// parameters take precedence.
	Env map[string]string

	// Version is recorded in the install receipt.
	Version string

	Now func() time.Time
}

func (o *Options) defaults() {
	if o.Commander == nil {
		o.Commander = &exec.RealCommander{}
	}
	if o.Database == nil {
		o.Database = database.New(0)
	}
	if o.FilamentVersion == "" {
		o.FilamentVersion = config.DefaultFilamentVersion
	}
	if o.Now == nil {
		o.Now = time.Now
	}
}

// Installer returns the pipeline that scaffolds the project.
func Installer(opts Options) *scaffold.Pipeline {
	opts.defaults()

	return scaffold.NewPipeline(
		scaffold.Step{Name: Requirements, Title: "Checking requirements", Action: checkRequirements(opts)},
		scaffold.Step{Name: Directory, Title: "Preparing directory", Action: prepareDirectory},
		scaffold.Step{Name: Laravel, Title: "Creating Laravel project", Action: createProject},
		scaffold.Step{Name: Environment, Title: "Configuring environment", Action: configureEnvironment(opts)},
		scaffold.Step{Name: Database, Title: "Preparing database", Action: prepareDatabase(opts)},
		scaffold.Step{Name: Filament, Title: "Installing Filament", Action: requireFilament(opts)},
		scaffold.Step{Name: Panel, Title: "Installing admin panel", Action: installPanel},
		scaffold.Step{Name: Providers, Title: "Registering panel provider", Action: registerProvider},
		scaffold.Step{Name: PHPUnit, Title: "Configuring PHPUnit", Action: configurePHPUnit},
		scaffold.Step{Name: NPMInstall, Title: "Installing npm dependencies", Action: command("npm.install", "npm install")},
		scaffold.Step{Name: NPMBuild, Title: "Building assets", Action: command("npm.build", "npm run build")},
		scaffold.Step{Name: Migrate, Title: "Running migrations", Action: command("migrate", "php artisan migrate --force --no-interaction")},
		scaffold.Step{Name: AdminUser, Title: "Creating admin user", Action: createAdmin},
		scaffold.Step{Name: Finalize, Title: "Finalizing", Action: finalize(opts)},
	)
}

func command(name, cmd string) scaffold.Action {
	return func(ctx context.Context, run *scaffold.Run) error {
		_, err := run.Command(ctx, name, cmd)
		return err
	}
}
