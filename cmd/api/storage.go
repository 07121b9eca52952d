package main

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jhoicas/audita-nfe/internal/application/ports"
	"github.com/jhoicas/audita-nfe/internal/domain/repository"
	"github.com/jhoicas/audita-nfe/internal/infrastructure/postgres"
	"github.com/jhoicas/audita-nfe/internal/infrastructure/sqlite"
	"github.com/jhoicas/audita-nfe/internal/infrastructure/storage"
	"github.com/jhoicas/audita-nfe/pkg/config"
	"github.com/jhoicas/audita-nfe/pkg/logger"
)

// repositories adaptadores elegidos según la configuración. Los metadatos van a
// PostgreSQL si hay DB configurada y a SQLite si no; los ZIP van al backend de
// STORAGE_BACKEND.
type repositories struct {
	companies  repository.CompanyRepository
	users      repository.UserRepository
	clients    repository.ClientRepository
	uploads    repository.UploadRepository
	analyses   repository.AnalysisRepository
	auditLogs  repository.AuditLogRepository
	analytics  repository.AnalyticsRepository
	archives   repository.ArchiveStore
	dictionary repository.DictionaryRepository
	tx         ports.AnalysisTxRunner

	closers []func()
}

// Close libera conexiones en orden inverso de apertura.
func (r *repositories) Close() {
	for i := len(r.closers) - 1; i >= 0; i-- {
		r.closers[i]()
	}
}

func openRepositories(ctx context.Context, cfg *config.Config, log *logger.Logger) (*repositories, error) {
	r := &repositories{}
	var (
		pool *pgxpool.Pool
		lite *sqlite.Store
	)

	if cfg.DB.Enabled() {
		var err error
		pool, err = postgres.NewPool(ctx, cfg.DB, log)
		if err != nil {
			return nil, fmt.Errorf("conexión a PostgreSQL: %w", err)
		}
		r.closers = append(r.closers, pool.Close)

		r.companies = postgres.NewCompanyRepository(pool)
		r.users = postgres.NewUserRepository(pool)
		r.clients = postgres.NewClientRepository(pool)
		r.uploads = postgres.NewUploadRepository(pool)
		r.analyses = postgres.NewAnalysisRepository(pool)
		r.auditLogs = postgres.NewAuditLogRepository(pool)
		r.analytics = postgres.NewAnalyticsRepository(pool)
		r.dictionary = postgres.NewDictionaryRepository(pool)
		r.tx = postgres.NewTxRunner(pool)
		log.Info().Msg("metadatos en PostgreSQL")
	} else {
		var err error
		lite, err = openSQLite(cfg.Storage.SQLitePath, r)
		if err != nil {
			return nil, err
		}
		r.companies = lite.Companies()
		r.users = lite.Users()
		r.clients = lite.Clients()
		r.uploads = lite.Uploads()
		r.analyses = lite.Analyses()
		r.auditLogs = lite.AuditLogs()
		r.analytics = lite.Analytics()
		r.dictionary = lite.Dictionary()
		r.tx = lite
		log.Info().Str("path", lite.Path()).Msg("metadatos en SQLite")
	}

	switch cfg.Storage.Backend {
	case "postgres":
		if pool == nil {
			r.Close()
			return nil, fmt.Errorf("STORAGE_BACKEND=postgres requiere DATABASE_URL o DB_HOST")
		}
		r.archives = postgres.NewArchiveStore(pool)
	case "sqlite":
		if lite == nil {
			var err error
			if lite, err = openSQLite(cfg.Storage.SQLitePath, r); err != nil {
				r.Close()
				return nil, err
			}
		}
		r.archives = lite.Archives()
	default:
		local, err := storage.NewLocalStore(cfg.Storage.LocalDir)
		if err != nil {
			r.Close()
			return nil, fmt.Errorf("almacenamiento local: %w", err)
		}
		r.archives = local
	}
	log.Info().Str("backend", cfg.Storage.Backend).Msg("almacenamiento de archivos")
	return r, nil
}

func openSQLite(path string, r *repositories) (*sqlite.Store, error) {
	s, err := sqlite.NewStore(path)
	if err != nil {
		return nil, fmt.Errorf("abrir SQLite %s: %w", path, err)
	}
	r.closers = append(r.closers, func() { _ = s.Close() })
	return s, nil
}
