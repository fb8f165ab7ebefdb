package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/marinxz/n-playwright-3.9/history"
	"github.com/marinxz/n-playwright-3.9/location"
	"github.com/marinxz/n-playwright-3.9/session"
	"github.com/marinxz/n-playwright-3.9/storage"
	"github.com/marinxz/n-playwright-3.9/workflow"
)

func (a *app) runBackups(ctx context.Context, names []string) error {
	// Every name is checked before any settings or browser work.
	for _, name := range names {
		if err := location.CheckKnown(name); err != nil {
			return err
		}
	}

	loader := location.NewLoader(a.settings.ConfigFile, a.secrets)
	cfgs := make([]*location.Config, 0, len(names))
	var cfgErrs []error
	for _, name := range names {
		cfg, err := loader.Load(name)
		if err != nil {
			cfgErrs = append(cfgErrs, err)
			continue
		}
		cfgs = append(cfgs, cfg)
	}
	if len(cfgErrs) > 0 {
		return errors.Join(cfgErrs...)
	}

	if a.flags.dryRun {
		return a.printConfigs(cfgs)
	}

	var opts []workflow.Option

	reg := session.NewRegistry(a.logger)
	opts = append(opts, workflow.WithRegistry(reg))

	if a.settings.History.Enabled() {
		store, closeDB, err := a.openHistory()
		if err != nil {
			return err
		}
		defer closeDB()
		opts = append(opts, workflow.WithHistory(store))
	}

	if a.settings.ArchiveBucket != "" {
		archive, err := storage.NewArtifactStore(ctx, "s3", storage.Settings{
			Bucket: a.settings.ArchiveBucket,
			Region: a.settings.ArchiveRegion,
		})
		if err != nil {
			return fmt.Errorf("failed to set up archive: %w", err)
		}
		opts = append(opts, workflow.WithArchive(archive))
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			a.logger.Warn(context.Background(), "interrupted, closing live browser sessions", nil)
			if err := reg.CloseAll(context.Background()); err != nil {
				a.logger.Error(context.Background(), "failed to close browser sessions", map[string]interface{}{
					"error": err.Error(),
				})
			}
		case <-done:
		}
	}()

	wf := workflow.NewWorkflow(a.newLauncher(a.logger), a.logger, opts...)
	results := wf.RunAll(ctx, cfgs, a.settings.Workers)

	if err := a.printResults(results); err != nil {
		return err
	}
	for _, res := range results {
		if !res.Success {
			return errRunsFailed
		}
	}
	return nil
}

func (a *app) openHistory() (*history.GormStore, func(), error) {
	db, err := history.Open(a.settings.History)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open run history: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open run history: %w", err)
	}
	return history.NewGormStore(db, a.logger), func() { sqlDB.Close() }, nil
}
