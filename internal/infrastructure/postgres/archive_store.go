package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jhoicas/audita-nfe/internal/domain"
	"github.com/jhoicas/audita-nfe/internal/domain/repository"
)

var _ repository.ArchiveStore = (*ArchiveStore)(nil)

// ArchiveStore guarda los ZIP como bytea; útil cuando el servidor no tiene disco persistente.
type ArchiveStore struct {
	pool *pgxpool.Pool
}

// NewArchiveStore construye el adaptador.
func NewArchiveStore(pool *pgxpool.Pool) *ArchiveStore {
	return &ArchiveStore{pool: pool}
}

// Put guarda el contenido y devuelve su referencia (UUID).
func (s *ArchiveStore) Put(ctx context.Context, name string, data []byte) (string, error) {
	ref := uuid.New().String()
	if _, err := s.pool.Exec(ctx, `INSERT INTO archives (ref, name, content) VALUES ($1, $2, $3)`, ref, name, data); err != nil {
		return "", fmt.Errorf("insert archive: %w", err)
	}
	return ref, nil
}

// Get devuelve el contenido; domain.ErrNotFound si la referencia no existe.
func (s *ArchiveStore) Get(ctx context.Context, ref string) ([]byte, error) {
	var data []byte
	if err := s.pool.QueryRow(ctx, `SELECT content FROM archives WHERE ref = $1`, ref).Scan(&data); err != nil {
		if isNoRows(err) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get archive: %w", err)
	}
	return data, nil
}

// Delete elimina el contenido. Referencias inexistentes no son error.
func (s *ArchiveStore) Delete(ctx context.Context, ref string) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM archives WHERE ref = $1`, ref); err != nil {
		return fmt.Errorf("delete archive: %w", err)
	}
	return nil
}
