// Package app wires configuration, storage and services into one App for
// the CLI.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"golang.org/x/term"

	"github.com/Merlito456/ospsurveyengine/internal/archive"
	"github.com/Merlito456/ospsurveyengine/internal/clock"
	"github.com/Merlito456/ospsurveyengine/internal/config"
	"github.com/Merlito456/ospsurveyengine/internal/entitlement"
	"github.com/Merlito456/ospsurveyengine/internal/export"
	"github.com/Merlito456/ospsurveyengine/internal/health"
	"github.com/Merlito456/ospsurveyengine/internal/logging"
	"github.com/Merlito456/ospsurveyengine/internal/project"
	"github.com/Merlito456/ospsurveyengine/internal/repositories/blobs"
	"github.com/Merlito456/ospsurveyengine/internal/repositories/flatstore"
	"github.com/Merlito456/ospsurveyengine/internal/resilience"
	"github.com/Merlito456/ospsurveyengine/internal/storage"
)

// FormatAuto picks text logs on a terminal and JSON otherwise.
const FormatAuto = "auto"

type App struct {
	Config      *config.Config
	Logger      logging.Logger
	Clock       clock.Clock
	Repos       *storage.Repositories
	Blobs       blobs.Repository
	Tiers       *resilience.Store
	Entitlement *entitlement.Service
	Session     *project.Session
	Health      *health.Poller

	sync func() error
}

// Options carries collaborators that are not part of Config.
type Options struct {
	LogOutput io.Writer
	Clock     clock.Clock
	// Validator decides activation codes. Without one every code is
	// rejected.
	Validator entitlement.CodeValidator
}

func NewApp(ctx context.Context, cfg *config.Config, opts Options) (*App, error) {
	if opts.LogOutput == nil {
		opts.LogOutput = os.Stderr
	}
	if opts.Clock == nil {
		opts.Clock = clock.Real()
	}

	logger, err := logging.New(resolveLogFormat(cfg.LogFormat, opts.LogOutput), cfg.LogLevel, opts.LogOutput)
	if err != nil {
		return nil, err
	}
	a := &App{Config: cfg, Logger: logger, Clock: opts.Clock, sync: func() error { return nil }}
	if z, ok := logger.(*logging.ZapLogger); ok {
		a.sync = z.Sync
	}

	if err := os.MkdirAll(cfg.DataDir, 0o700); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	repos, err := storage.InitDatabase(ctx, cfg.DatabasePath())
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}
	a.Repos = repos

	var wipe func(context.Context, string) error
	switch cfg.BlobBackend {
	case config.BlobBackendS3:
		client, err := blobs.NewS3Client(ctx, blobs.S3Options{
			User:     cfg.S3.User,
			Password: cfg.S3.Password,
			Bucket:   cfg.S3.Bucket,
			Region:   cfg.S3.Region,
			Endpoint: cfg.S3.Endpoint,
		})
		if err != nil {
			_ = repos.Close()
			return nil, err
		}
		a.Blobs = blobs.NewS3Repository(client, cfg.S3.Bucket, cfg.S3.Prefix)
	default:
		a.Blobs = repos.Blobs
		wipe = repos.Wipe
	}

	a.Tiers = resilience.NewStore(repos.Config, flatstore.New(cfg.FallbackPath()), logger)
	a.Entitlement = entitlement.NewService(a.Tiers, opts.Validator, opts.Clock, logger)

	dispatcher := export.NewDispatcher(logger,
		&export.DirectoryChannel{Dir: cfg.ExportDir},
		&export.CommandChannel{Command: cfg.ShareArgs()},
		&export.DownloadChannel{Dir: cfg.DownloadDir},
	)

	a.Session, err = project.Open(ctx, project.Options{
		Documents:     repos.Documents,
		Blobs:         a.Blobs,
		DocumentKey:   cfg.DocumentKey,
		Wipe:          wipe,
		AutosaveDelay: cfg.AutosaveDelay,
		Compiler:      archive.NewCompiler(a.Blobs, opts.Clock, cfg.ArchiveConcurrency, logger),
		Dispatcher:    dispatcher,
		Clock:         opts.Clock,
		Logger:        logger,
	})
	if err != nil {
		_ = repos.Close()
		return nil, err
	}

	a.Health = health.NewPoller(cfg.DataDir, health.Probe, cfg.HealthInterval, cfg.QuotaWarnPercent, opts.Clock, logger)
	return a, nil
}

// Close flushes the live document and releases the store.
func (a *App) Close(ctx context.Context) error {
	var errs []error
	if a.Session != nil {
		if err := a.Session.Close(ctx); err != nil {
			errs = append(errs, fmt.Errorf("final save: %w", err))
		}
	}
	errs = append(errs, a.Repos.Close())
	_ = a.sync()
	return errors.Join(errs...)
}

func resolveLogFormat(format string, w io.Writer) string {
	if format != FormatAuto && format != "" {
		return format
	}
	if f, ok := w.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		return logging.FormatText
	}
	return logging.FormatJSON
}
