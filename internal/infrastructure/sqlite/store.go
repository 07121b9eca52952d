// Package sqlite almacenamiento en un único archivo SQLite (modernc.org/sqlite, sin CGO).
// Implementa los mismos puertos que el adaptador PostgreSQL para instalaciones
// de una sola máquina y para la CLI.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	_ "modernc.org/sqlite" // driver SQLite

	"github.com/jhoicas/audita-nfe/internal/domain/repository"
	"github.com/jhoicas/audita-nfe/internal/infrastructure/sqlite/migrations"
)

// querier lo que comparten *sql.DB y *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// scanner abstrae *sql.Row y *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

// Store acceso unificado a la base; los repositorios son vistas sobre la misma conexión.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore abre (o crea) la base en path y aplica las migraciones pendientes.
func NewStore(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("sqlite: crear directorio: %w", err)
		}
	}

	// WAL para lecturas concurrentes mientras una corrida escribe
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)&_time_format=sqlite")
	if err != nil {
		return nil, fmt.Errorf("sqlite: abrir base: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite: abrir base: %w", err)
	}

	s := &Store{db: db, path: path}
	if err := s.migrate(context.Background(), migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite: migraciones: %w", err)
	}
	return s, nil
}

// Close cierra la conexión.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path ruta del archivo de la base.
func (s *Store) Path() string {
	return s.path
}

// Repositorios sobre la conexión compartida.

func (s *Store) Companies() repository.CompanyRepository { return &companyStore{q: s.db} }
func (s *Store) Users() repository.UserRepository { return &userStore{q: s.db} }
func (s *Store) Clients() repository.ClientRepository { return &clientStore{q: s.db} }
func (s *Store) Uploads() repository.UploadRepository { return &uploadStore{q: s.db} }
func (s *Store) Analyses() repository.AnalysisRepository { return &analysisStore{q: s.db} }
func (s *Store) AuditLogs() repository.AuditLogRepository { return &auditLogStore{q: s.db} }
func (s *Store) Archives() repository.ArchiveStore { return &archiveStore{q: s.db} }
func (s *Store) Dictionary() *DictionaryStore { return &DictionaryStore{db: s.db} }
func (s *Store) Analytics() repository.AnalyticsRepository { return &analyticsStore{q: s.db} }

// RunAnalysis ejecuta fn en una transacción con los repos de análisis y log.
func (s *Store) RunAnalysis(ctx context.Context, fn func(
	analyses repository.AnalysisRepository,
	logs repository.AuditLogRepository,
) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := fn(&analysisStore{q: tx}, &auditLogStore{q: tx}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func (s *Store) migrate(ctx context.Context, fsys fs.FS) error {
	if _, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version    INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`); err != nil {
		return fmt.Errorf("crear schema_migrations: %w", err)
	}

	var current int
	if err := s.db.QueryRowContext(ctx, `SELECT COALESCE(MAX(version), 0) FROM schema_migrations`).Scan(&current); err != nil {
		return fmt.Errorf("versión actual: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("leer migraciones: %w", err)
	}
	var files []string
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), ".up.sql") {
			files = append(files, e.Name())
		}
	}
	sort.Strings(files)

	for _, name := range files {
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil || version <= current {
			continue
		}
		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("leer %s: %w", name, err)
		}
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, string(content)); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("ejecutar %s: %w", name, err)
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO schema_migrations (version) VALUES (?)`, version); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("registrar %s: %w", name, err)
		}
		if err := tx.Commit(); err != nil {
			return err
		}
	}
	return nil
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
