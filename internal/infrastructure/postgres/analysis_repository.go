package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jhoicas/audita-nfe/internal/domain"
	"github.com/jhoicas/audita-nfe/internal/domain/entity"
	"github.com/jhoicas/audita-nfe/internal/domain/repository"
)

var _ repository.AnalysisRepository = (*AnalysisRepo)(nil)

// AnalysisRepo corridas del motor; los totales van en una columna JSONB.
type AnalysisRepo struct {
	q Querier
}

// NewAnalysisRepository construye el adaptador. Pasar pool o tx (Querier).
func NewAnalysisRepository(q Querier) *AnalysisRepo {
	return &AnalysisRepo{q: q}
}

const analysisColumns = `id, company_id, client_id, upload_id, status, rate, paid_tax, totals, error, created_at, finished_at`

// Create persiste una corrida (normalmente en estado processing).
func (r *AnalysisRepo) Create(a *entity.Analysis) error {
	totals, err := marshalTotals(a.Totals)
	if err != nil {
		return err
	}
	_, err = r.q.Exec(context.Background(), `
		INSERT INTO analyses (`+analysisColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		a.ID, a.CompanyID, a.ClientID, a.UploadID, a.Status, a.Rate, a.PaidTax, totals, a.Error,
		a.CreatedAt, a.FinishedAt,
	)
	if err != nil {
		return fmt.Errorf("insert analysis: %w", err)
	}
	return nil
}

// Update guarda el resultado de la corrida.
func (r *AnalysisRepo) Update(a *entity.Analysis) error {
	totals, err := marshalTotals(a.Totals)
	if err != nil {
		return err
	}
	cmd, err := r.q.Exec(context.Background(), `
		UPDATE analyses SET status = $2, totals = $3, error = $4, finished_at = $5
		WHERE id = $1`,
		a.ID, a.Status, totals, a.Error, a.FinishedAt,
	)
	if err != nil {
		return fmt.Errorf("update analysis: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// GetByID obtiene una corrida por ID.
func (r *AnalysisRepo) GetByID(id string) (*entity.Analysis, error) {
	return r.one(`SELECT `+analysisColumns+` FROM analyses WHERE id = $1`, id)
}

// LatestDoneByUpload última corrida terminada del upload.
func (r *AnalysisRepo) LatestDoneByUpload(uploadID string) (*entity.Analysis, error) {
	return r.one(`SELECT `+analysisColumns+` FROM analyses
		WHERE upload_id = $1 AND status = 'done' ORDER BY created_at DESC LIMIT 1`, uploadID)
}

func (r *AnalysisRepo) one(query string, arg any) (*entity.Analysis, error) {
	a, err := scanAnalysis(r.q.QueryRow(context.Background(), query, arg))
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get analysis: %w", err)
	}
	return a, nil
}

// ListByClient corridas del cliente, más recientes primero. No incluye los totales
// completos para no mover los listados de productos en cada página.
func (r *AnalysisRepo) ListByClient(clientID string, limit, offset int) ([]*entity.Analysis, error) {
	rows, err := r.q.Query(context.Background(), `
		SELECT id, company_id, client_id, upload_id, status, rate, paid_tax, NULL::jsonb, error, created_at, finished_at
		FROM analyses WHERE client_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`,
		clientID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list analyses: %w", err)
	}
	defer rows.Close()
	var list []*entity.Analysis
	for rows.Next() {
		a, err := scanAnalysis(rows)
		if err != nil {
			return nil, fmt.Errorf("scan analysis: %w", err)
		}
		list = append(list, a)
	}
	return list, rows.Err()
}

func scanAnalysis(row pgxScanner) (*entity.Analysis, error) {
	var (
		a      entity.Analysis
		totals []byte
	)
	if err := row.Scan(&a.ID, &a.CompanyID, &a.ClientID, &a.UploadID, &a.Status, &a.Rate, &a.PaidTax,
		&totals, &a.Error, &a.CreatedAt, &a.FinishedAt); err != nil {
		return nil, err
	}
	if len(totals) > 0 {
		var t entity.AnalysisTotals
		if err := json.Unmarshal(totals, &t); err != nil {
			return nil, fmt.Errorf("decode totals: %w", err)
		}
		a.Totals = &t
	}
	return &a, nil
}

func marshalTotals(t *entity.AnalysisTotals) ([]byte, error) {
	if t == nil {
		return nil, nil
	}
	b, err := json.Marshal(t)
	if err != nil {
		return nil, fmt.Errorf("encode totals: %w", err)
	}
	return b, nil
}
