package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jhoicas/audita-nfe/internal/domain/entity"
	"github.com/jhoicas/audita-nfe/internal/domain/repository"
)

var _ repository.UploadRepository = (*UploadRepo)(nil)

// UploadRepo metadatos de uploads sobre PostgreSQL.
type UploadRepo struct {
	pool *pgxpool.Pool
}

// NewUploadRepository construye el adaptador.
func NewUploadRepository(pool *pgxpool.Pool) *UploadRepo {
	return &UploadRepo{pool: pool}
}

const uploadColumns = `id, company_id, client_id, filename, storage_ref, size, sha256, uploaded_at`

// Create persiste los metadatos de un upload.
func (r *UploadRepo) Create(u *entity.Upload) error {
	_, err := r.pool.Exec(context.Background(), `
		INSERT INTO uploads (`+uploadColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		u.ID, u.CompanyID, u.ClientID, u.Filename, u.StorageRef, u.Size, u.SHA256, u.UploadedAt,
	)
	if err != nil {
		return fmt.Errorf("insert upload: %w", err)
	}
	return nil
}

// GetByID obtiene un upload por ID.
func (r *UploadRepo) GetByID(id string) (*entity.Upload, error) {
	return r.one(`SELECT `+uploadColumns+` FROM uploads WHERE id = $1`, id)
}

// LatestByClient último upload del cliente.
func (r *UploadRepo) LatestByClient(clientID string) (*entity.Upload, error) {
	return r.one(`SELECT `+uploadColumns+` FROM uploads WHERE client_id = $1 ORDER BY uploaded_at DESC LIMIT 1`, clientID)
}

func (r *UploadRepo) one(query string, arg any) (*entity.Upload, error) {
	u, err := scanUpload(r.pool.QueryRow(context.Background(), query, arg))
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get upload: %w", err)
	}
	return u, nil
}

// ListByClient lista uploads del cliente, más recientes primero.
func (r *UploadRepo) ListByClient(clientID string, limit, offset int) ([]*entity.Upload, error) {
	rows, err := r.pool.Query(context.Background(),
		`SELECT `+uploadColumns+` FROM uploads WHERE client_id = $1 ORDER BY uploaded_at DESC LIMIT $2 OFFSET $3`,
		clientID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list uploads: %w", err)
	}
	defer rows.Close()
	var list []*entity.Upload
	for rows.Next() {
		u, err := scanUpload(rows)
		if err != nil {
			return nil, fmt.Errorf("scan upload: %w", err)
		}
		list = append(list, u)
	}
	return list, rows.Err()
}

func scanUpload(row pgxScanner) (*entity.Upload, error) {
	var u entity.Upload
	if err := row.Scan(&u.ID, &u.CompanyID, &u.ClientID, &u.Filename, &u.StorageRef, &u.Size, &u.SHA256, &u.UploadedAt); err != nil {
		return nil, err
	}
	return &u, nil
}
