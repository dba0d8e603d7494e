package steps

import (
	"context"
	"fmt"
	"time"

	"github.com/naoray/filastart/internal/errors"
	"github.com/naoray/filastart/internal/patch"
	"github.com/naoray/filastart/internal/scaffold"
)

func configureEnvironment(opts Options) scaffold.Action {
	return func(ctx context.Context, run *scaffold.Run) error {
		values := make(map[string]string, len(opts.Env))
		for k, v := range opts.Env {
			values[k] = v
		}
		for k, v := range run.Params.EnvValues() {
			values[k] = v
		}

		dir := run.Dir()
		if _, err := run.Patch("environment.merge", func() (patch.Result, error) {
			return patch.MergeEnvFile(dir, values)
		}); err != nil {
			return err
		}

		start := time.Now()
		written := patch.ReadEnvFile(dir, patch.EnvFile)
		if got, want := written["DB_CONNECTION"], run.Params.DriverName(); got != want {
			return run.Fail("environment.verify", start,
				fmt.Errorf("DB_CONNECTION is %q after merge, expected %q", got, want))
		}
		run.Succeed("environment.verify", fmt.Sprintf("%d keys set", len(values)), start)
		return nil
	}
}

func prepareDatabase(opts Options) scaffold.Action {
	return func(ctx context.Context, run *scaffold.Run) error {
		p := run.Params
		conn, ok := p.DatabaseConnection()
		if !ok {
			start := time.Now()
			path := p.SQLitePath()
			if err := opts.Database.EnsureSQLite(ctx, path); err != nil {
				return run.Fail("database.sqlite", start, err)
			}
			run.Succeed("database.sqlite", path, start)
			return nil
		}

		start := time.Now()
		if err := opts.Database.Probe(ctx, conn); err != nil {
			return errors.Advisory(Database, "database.probe",
				fmt.Sprintf("%s does not appear to be running on %s; migrations will fail until it is", p.Database.Label(), conn.Address()))
		}
		run.Succeed("database.probe", conn.Address(), start)

		start = time.Now()
		if err := opts.Database.Ensure(ctx, p.Database, conn); err != nil {
			run.Warn("database.create", fmt.Sprintf("could not create database %s: %v", conn.Name, err))
			return nil
		}
		run.Succeed("database.create", conn.Name, start)
		return nil
	}
}
