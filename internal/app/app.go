// Package app assembles stores, repositories and services from Config.
// Both binaries share it so the server and the operator CLI see the same
// record store and search index.
package app

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/docsync/internal/config"
	dbRedis "github.com/kailas-cloud/docsync/internal/db/redis"
	"github.com/kailas-cloud/docsync/internal/db/sqldb"
	documentrepo "github.com/kailas-cloud/docsync/internal/repository/document"
	indexrepo "github.com/kailas-cloud/docsync/internal/repository/index"
	"github.com/kailas-cloud/docsync/internal/transport/yadisk"
	documentuc "github.com/kailas-cloud/docsync/internal/usecase/document"
	healthuc "github.com/kailas-cloud/docsync/internal/usecase/health"
	ingestionuc "github.com/kailas-cloud/docsync/internal/usecase/ingestion"
	reconcileuc "github.com/kailas-cloud/docsync/internal/usecase/reconcile"
)

// App holds the wired components.
type App struct {
	SQL   *sqldb.Store
	Redis *dbRedis.Store

	Documents *documentuc.Service
	Ingestion *ingestionuc.Service
	Reconcile *reconcileuc.Service
	Health    *healthuc.Service
}

// New connects both backends, migrates the record store, ensures the
// search index exists and builds the services.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	sqlStore, err := sqldb.Open(sqlConfig(cfg.Database), logger.Named("sql"))
	if err != nil {
		return nil, fmt.Errorf("open record store: %w", err)
	}
	if err := sqlStore.WaitForReady(ctx, seconds(cfg.Database.ReadinessTimeout)); err != nil {
		sqlStore.Close()
		return nil, fmt.Errorf("record store not ready: %w", err)
	}

	redisStore, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    []string{cfg.Index.Addr()},
		Username: cfg.Index.Username,
		Password: cfg.Index.Password,
		DB:       cfg.Index.DB,
	})
	if err != nil {
		sqlStore.Close()
		return nil, fmt.Errorf("create search index client: %w", err)
	}

	a := &App{SQL: sqlStore, Redis: redisStore}
	if err := redisStore.WaitForReady(ctx, seconds(cfg.Index.ReadinessTimeout)); err != nil {
		a.Close()
		return nil, fmt.Errorf("search index not ready: %w", err)
	}

	docRepo := documentrepo.New(sqlStore.DB())
	if err := docRepo.Migrate(ctx); err != nil {
		a.Close()
		return nil, fmt.Errorf("migrate record store: %w", err)
	}

	idxRepo := indexrepo.New(redisStore).
		WithNames(cfg.Index.Name, cfg.Index.Prefix).
		WithLanguage(cfg.Index.Language).
		WithChunkSize(cfg.Index.ChunkSize).
		WithLogger(logger.Named("index"))
	if err := idxRepo.EnsureIndex(ctx); err != nil {
		a.Close()
		return nil, fmt.Errorf("ensure search index: %w", err)
	}

	downloader := yadisk.New(cfg.Ingestion.YandexBaseURL, seconds(cfg.Ingestion.DownloadTimeoutSec)).
		WithMaxBytes(int64(cfg.Ingestion.MaxDownloadMB) << 20)

	a.Documents = documentuc.New(docRepo, idxRepo)
	a.Ingestion = ingestionuc.New(a.Documents, downloader).
		WithTempDir(cfg.Ingestion.TempDir).
		WithDefaultSeparator(cfg.Ingestion.DefaultSeparator)
	a.Reconcile = reconcileuc.New(docRepo, idxRepo, logger.Named("reconcile")).
		WithPageSize(cfg.Reconcile.PageSize).
		WithRate(cfg.Reconcile.RatePerSec, cfg.Reconcile.Burst).
		WithVerifyText(cfg.Reconcile.VerifyText)
	a.Health = healthuc.New(sqlStore, idxRepo)

	return a, nil
}

// Close releases both backends.
func (a *App) Close() {
	if a.Redis != nil {
		a.Redis.Close()
	}
	if a.SQL != nil {
		a.SQL.Close()
	}
}

func sqlConfig(c config.DatabaseConfig) sqldb.Config {
	return sqldb.Config{
		Driver:          c.Driver,
		Host:            c.Host,
		Port:            c.Port,
		User:            c.User,
		Password:        c.Password,
		Name:            c.Name,
		SSLMode:         c.SSLMode,
		Path:            c.Path,
		MaxOpenConns:    c.MaxOpenConns,
		MaxIdleConns:    c.MaxIdleConns,
		ConnMaxLifetime: seconds(c.ConnMaxLifeSec),
	}
}

func seconds(n int) time.Duration {
	return time.Duration(n) * time.Second
}
