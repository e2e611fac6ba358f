package db

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fieldops/fieldmirror/internal/config"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var (
	DB    *sqlx.DB
	OrmDB *gorm.DB
)

// Init opens the local store with both sqlx (record upserts) and gorm
// (sync_state / sync_jobs repositories) on the same backend. sqlite is the
// embedded default; a postgres DSN switches both over.
func Init(cfg config.StoreConfig) error {
	switch cfg.Backend {
	case "", "sqlite":
		return initSQLite(cfg.SQLitePath)
	case "postgres":
		return initPostgres(cfg.PostgresDSN)
	default:
		return fmt.Errorf("unknown store backend %q", cfg.Backend)
	}
}

func initSQLite(path string) error {
	if path == "" {
		path = filepath.Join("data", "app.db")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create store directory: %w", err)
	}

	// WAL keeps readers unblocked while sync batches commit
	dsn := fmt.Sprintf("file:%s?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=30000&_foreign_keys=on", path)

	sqlxDB, err := sqlx.Connect("sqlite3", dsn)
	if err != nil {
		return fmt.Errorf("failed to connect to sqlite: %w", err)
	}
	// sqlite allows one writer at a time
	sqlxDB.SetMaxOpenConns(1)
	DB = sqlxDB

	ormDB, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return fmt.Errorf("failed to connect to sqlite (GORM): %w", err)
	}
	OrmDB = ormDB

	return InitSchema(DB)
}

func initPostgres(dsn string) error {
	if dsn == "" {
		return fmt.Errorf("store.postgres_dsn is required for the postgres backend")
	}

	var (
		sqlxDB *sqlx.DB
		err    error
	)
	for i := 0; i < 10; i++ {
		sqlxDB, err = sqlx.Connect("postgres", dsn)
		if err == nil {
			break
		}
		time.Sleep(500 * time.Millisecond)
	}
	if err != nil {
		return fmt.Errorf("failed to connect to postgres: %w", err)
	}
	DB = sqlxDB

	ormDB, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return fmt.Errorf("failed to connect to postgres (GORM): %w", err)
	}
	OrmDB = ormDB

	return InitSchema(DB)
}
