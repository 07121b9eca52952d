package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jhoicas/audita-nfe/internal/domain/repository"
)

var _ repository.AnalyticsRepository = (*AnalyticsRepo)(nil)

// AnalyticsRepo consultas de solo lectura para el panel de la oficina.
type AnalyticsRepo struct {
	pool *pgxpool.Pool
}

// NewAnalyticsRepository construye el adaptador de analítica.
func NewAnalyticsRepository(pool *pgxpool.Pool) *AnalyticsRepo {
	return &AnalyticsRepo{pool: pool}
}

// GetClientOverview agrega por cliente: uploads, corridas terminadas y, sobre la
// última corrida terminada de cada upload, receita excluída y economía estimada.
// Los montos salen del JSONB de totales; COALESCE devuelve cero sin corridas.
func (r *AnalyticsRepo) GetClientOverview(ctx context.Context, companyID string) ([]repository.ClientOverviewResult, error) {
	const query = `
	WITH latest AS (
	    SELECT DISTINCT ON (a.upload_id)
	           a.client_id,
	           (a.totals->>'excluded_revenue')::numeric                   AS excluded_revenue,
	           (a.totals->'tax_summary'->>'estimated_savings')::numeric   AS estimated_savings
	    FROM analyses a
	    WHERE a.company_id = $1 AND a.status = 'done'
	    ORDER BY a.upload_id, a.created_at DESC
	)
	SELECT
	    c.id,
	    c.name,
	    c.cnpj,
	    (SELECT COUNT(*) FROM uploads u WHERE u.client_id = c.id)                         AS uploads,
	    (SELECT COUNT(*) FROM analyses a WHERE a.client_id = c.id AND a.status = 'done')  AS analyses,
	    (SELECT MAX(a.finished_at) FROM analyses a WHERE a.client_id = c.id)              AS last_analysis_at,
	    COALESCE((SELECT SUM(l.excluded_revenue)  FROM latest l WHERE l.client_id = c.id), 0) AS excluded_revenue,
	    COALESCE((SELECT SUM(l.estimated_savings) FROM latest l WHERE l.client_id = c.id), 0) AS estimated_savings
	FROM clients c
	WHERE c.company_id = $1
	ORDER BY estimated_savings DESC, c.name`

	rows, err := r.pool.Query(ctx, query, companyID)
	if err != nil {
		return nil, fmt.Errorf("analytics.GetClientOverview: %w", err)
	}
	defer rows.Close()

	var results []repository.ClientOverviewResult
	for rows.Next() {
		var row repository.ClientOverviewResult
		if err := rows.Scan(
			&row.ClientID,
			&row.ClientName,
			&row.CNPJ,
			&row.Uploads,
			&row.Analyses,
			&row.LastAnalysisAt,
			&row.ExcludedRevenue,
			&row.EstimatedSavings,
		); err != nil {
			return nil, fmt.Errorf("analytics.GetClientOverview scan: %w", err)
		}
		results = append(results, row)
	}
	return results, rows.Err()
}
