package steps

import (
	"context"
	"fmt"
	"os"
	"time"

	"al.essio.dev/pkg/shellescape"

	"github.com/naoray/filastart/internal/errors"
	"github.com/naoray/filastart/internal/scaffold"
)

func prepareDirectory(ctx context.Context, run *scaffold.Run) error {
	start := time.Now()
	if err := os.MkdirAll(run.Params.BaseDir, 0755); err != nil {
		return run.Fail("directory.base", start, fmt.Errorf("creating %s: %w", run.Params.BaseDir, err))
	}
	run.Succeed("directory.base", run.Params.BaseDir, start)

	start = time.Now()
	projectPath := run.Params.ProjectPath()
	entries, err := os.ReadDir(projectPath)
	switch {
	case err == nil && len(entries) > 0:
		return errors.Precondition(Directory, "directory.project",
			fmt.Sprintf("%s already exists and is not empty", projectPath))
	case err != nil && !os.IsNotExist(err):
		return run.Fail("directory.project", start, fmt.Errorf("reading %s: %w", projectPath, err))
	}
	run.Succeed("directory.project", projectPath, start)
	return nil
}

func createProject(ctx context.Context, run *scaffold.Run) error {
	p := run.Params
	cmd := fmt.Sprintf("laravel new %s --%s --database=%s --no-interaction",
		shellescape.Quote(p.DirName()), p.Kit, p.DriverName())
	if _, err := run.Command(ctx, "laravel.new", cmd); err != nil {
		return err
	}

	start := time.Now()
	if _, err := os.Stat(p.ProjectPath()); err != nil {
		return run.Fail("laravel.enter", start, fmt.Errorf("project directory missing after laravel new: %w", err))
	}
	if err := run.EnterProject(p.ProjectPath()); err != nil {
		return run.Fail("laravel.enter", start, err)
	}
	run.Succeed("laravel.enter", p.ProjectPath(), start)
	return nil
}
