// Package storage opens the local SQLite store and upgrades its schema.
//
// Each goose migration version adds one container (project_state,
// image_assets, app_config). Re-opening an existing store at a higher
// version only applies the missing versions; existing containers and their
// rows are left alone.
package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/pressly/goose/v3"

	"github.com/Merlito456/ospsurveyengine/internal/dbx"
	"github.com/Merlito456/ospsurveyengine/internal/migrations"
	"github.com/Merlito456/ospsurveyengine/internal/repositories/appconfig"
	"github.com/Merlito456/ospsurveyengine/internal/repositories/blobs"
	"github.com/Merlito456/ospsurveyengine/internal/repositories/documents"

	_ "modernc.org/sqlite"
)

// SchemaVersion is the latest migration version.
const SchemaVersion int64 = 3

type Repositories struct {
	DB        *sql.DB
	Documents documents.Repository
	Blobs     blobs.Repository
	Config    appconfig.Repository
}

func init() {
	goose.SetBaseFS(migrations.Migrations)
	goose.SetLogger(goose.NopLogger())
}

func RunMigrations(ctx context.Context, db *sql.DB) error {
	return RunMigrationsTo(ctx, db, SchemaVersion)
}

// RunMigrationsTo upgrades db up to and including version.
func RunMigrationsTo(ctx context.Context, db *sql.DB, version int64) error {
	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}
	if err := goose.UpToContext(ctx, db, ".", version); err != nil {
		return fmt.Errorf("migrate to version %d: %w", version, err)
	}
	return nil
}

// OpenDB opens the SQLite file at dsn with WAL journaling and a busy
// timeout, without migrating.
func OpenDB(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, err)
		}
	}
	return db, nil
}

// InitDatabase opens and migrates the store and wires the SQLite
// repositories for every container.
func InitDatabase(ctx context.Context, dsn string) (*Repositories, error) {
	db, err := OpenDB(ctx, dsn)
	if err != nil {
		return nil, err
	}

	if err := RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Repositories{
		DB:        db,
		Documents: documents.NewSQLiteRepository(db),
		Blobs:     blobs.NewSQLiteRepository(db),
		Config:    appconfig.NewSQLiteRepository(db),
	}, nil
}

// Version returns the applied schema version.
func Version(ctx context.Context, db *sql.DB) (int64, error) {
	if err := goose.SetDialect("sqlite3"); err != nil {
		return 0, err
	}
	return goose.GetDBVersionContext(ctx, db)
}

func (r *Repositories) Close() error {
	if r == nil || r.DB == nil {
		return nil
	}
	return r.DB.Close()
}

// Wipe deletes the document under key and every blob in one transaction.
// Config entries are left alone.
func (r *Repositories) Wipe(ctx context.Context, key string) error {
	return dbx.WithTx(ctx, r.DB, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := documents.NewSQLiteRepository(tx).Delete(ctx, key); err != nil {
			return err
		}
		return blobs.NewSQLiteRepository(tx).Clear(ctx)
	})
}
