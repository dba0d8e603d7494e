package steps

import (
	"context"
	"fmt"
	"path/filepath"

	"al.essio.dev/pkg/shellescape"

	"github.com/naoray/filastart/internal/patch"
	"github.com/naoray/filastart/internal/scaffold"
)

// PanelProvider is the provider class filament:install generates.
const PanelProvider = `App\Providers\Filament\AdminPanelProvider::class`

func requireFilament(opts Options) scaffold.Action {
	return func(ctx context.Context, run *scaffold.Run) error {
		cmd := fmt.Sprintf("composer require %s -W --no-interaction", shellescape.Quote("filament/filament:"+opts.FilamentVersion))
		_, err := run.Command(ctx, "filament.require", cmd)
		return err
	}
}

func installPanel(ctx context.Context, run *scaffold.Run) error {
	_, err := run.Command(ctx, "panel.install", "php artisan filament:install --panels --no-interaction")
	return err
}

func registerProvider(ctx context.Context, run *scaffold.Run) error {
	path := filepath.Join(run.Dir(), "bootstrap", "providers.php")
	_, err := run.Patch("providers.register", func() (patch.Result, error) {
		return patch.InjectArrayEntries(path, []string{PanelProvider}, []string{"AdminPanelProvider"})
	})
	return err
}

// phpunitPatches point the test suite at an in-memory SQLite database.
var phpunitPatches = []struct {
	event string
	patch patch.XMLPatch
}{
	{
		event: "phpunit.connection",
		patch: patch.XMLPatch{
			Candidates: []string{"phpunit.xml", "phpunit.xml.dist"},
			Root:       "phpunit",
			RootAttr:   "colors",
			RootValue:  "true",
			Parent:     "php",
			Element:    "env",
			KeyAttr:    "name",
			KeyValue:   "DB_CONNECTION",
			ValueAttr:  "value",
			Value:      "sqlite",
		},
	},
	{
		event: "phpunit.database",
		patch: patch.XMLPatch{
			Candidates: []string{"phpunit.xml", "phpunit.xml.dist"},
			Root:       "phpunit",
			Parent:     "php",
			Element:    "env",
			KeyAttr:    "name",
			KeyValue:   "DB_DATABASE",
			ValueAttr:  "value",
			Value:      ":memory:",
		},
	},
}

func configurePHPUnit(ctx context.Context, run *scaffold.Run) error {
	dir := run.Dir()
	for _, p := range phpunitPatches {
		xmlPatch := p.patch
		if _, err := run.Patch(p.event, func() (patch.Result, error) {
			return patch.PatchXMLAttribute(dir, xmlPatch)
		}); err != nil {
			return err
		}
	}
	return nil
}
