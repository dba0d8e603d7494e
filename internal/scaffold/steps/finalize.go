package steps

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"al.essio.dev/pkg/shellescape"

	"github.com/naoray/filastart/internal/config"
	"github.com/naoray/filastart/internal/patch"
	"github.com/naoray/filastart/internal/scaffold"
)

func createAdmin(ctx context.Context, run *scaffold.Run) error {
	admin := run.Params.Admin
	cmd := fmt.Sprintf("php artisan make:filament-user --name=%s --email=%s --password=%s --no-interaction",
		shellescape.Quote(admin.Name), shellescape.Quote(admin.Email), shellescape.Quote(admin.Password))
	_, err := run.Command(ctx, "admin.create", cmd)
	return err
}

func finalize(opts Options) scaffold.Action {
	return func(ctx context.Context, run *scaffold.Run) error {
		run.TryCommand(ctx, "finalize.storage-link", "php artisan storage:link")

		start := time.Now()
		receipt := config.Receipt{
			RunID:           run.ID,
			Version:         opts.Version,
			InstalledAt:     opts.Now().UTC(),
			StarterKit:      string(run.Params.Kit),
			Database:        string(run.Params.Database),
			FilamentVersion: opts.FilamentVersion,
			AdminEmail:      run.Params.Admin.Email,
		}
		if err := config.WriteReceipt(run.Dir(), receipt); err != nil {
			run.Warn("finalize.receipt", err.Error())
		} else {
			run.Succeed("finalize.receipt", config.ReceiptFile, start)

			gitignore := filepath.Join(run.Dir(), ".gitignore")
			if _, err := run.Patch("finalize.gitignore", func() (patch.Result, error) {
				return patch.EnsureLine(gitignore, config.ReceiptFile)
			}); err != nil {
				return err
			}
		}

		run.TryCommand(ctx, "finalize.optimize-clear", "php artisan optimize:clear")
		return nil
	}
}
