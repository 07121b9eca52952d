package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/audita-nfe/internal/domain/repository"
)

type analyticsStore struct{ q querier }

var _ repository.AnalyticsRepository = (*analyticsStore)(nil)

// GetClientOverview mismo resultado que el adaptador PostgreSQL. Los montos se
// suman en Go: SQLite convertiría el texto decimal a REAL.
func (s *analyticsStore) GetClientOverview(ctx context.Context, companyID string) ([]repository.ClientOverviewResult, error) {
	rows, err := s.q.QueryContext(ctx, `
		SELECT c.id, c.name, c.cnpj,
		       (SELECT COUNT(*) FROM uploads u WHERE u.client_id = c.id),
		       (SELECT COUNT(*) FROM analyses a WHERE a.client_id = c.id AND a.status = 'done')
		FROM clients c
		WHERE c.company_id = ?`, companyID)
	if err != nil {
		return nil, fmt.Errorf("analytics.GetClientOverview: %w", err)
	}
	var results []repository.ClientOverviewResult
	index := make(map[string]int)
	for rows.Next() {
		var row repository.ClientOverviewResult
		if err := rows.Scan(&row.ClientID, &row.ClientName, &row.CNPJ, &row.Uploads, &row.Analyses); err != nil {
			rows.Close()
			return nil, fmt.Errorf("analytics.GetClientOverview scan: %w", err)
		}
		index[row.ClientID] = len(results)
		results = append(results, row)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// corridas terminadas, la más reciente primero; sólo cuenta la primera de cada upload
	runs, err := s.q.QueryContext(ctx, `
		SELECT client_id, upload_id, finished_at,
		       json_extract(totals, '$.excluded_revenue'),
		       json_extract(totals, '$.tax_summary.estimated_savings')
		FROM analyses
		WHERE company_id = ? AND status = 'done'
		ORDER BY created_at DESC`, companyID)
	if err != nil {
		return nil, fmt.Errorf("analytics.GetClientOverview runs: %w", err)
	}
	defer runs.Close()

	seen := make(map[string]bool)
	for runs.Next() {
		var (
			clientID, uploadID string
			finished           sql.NullTime
			excluded, savings  sql.NullString
		)
		if err := runs.Scan(&clientID, &uploadID, &finished, &excluded, &savings); err != nil {
			return nil, fmt.Errorf("analytics.GetClientOverview scan: %w", err)
		}
		i, ok := index[clientID]
		if !ok {
			continue
		}
		row := &results[i]
		if finished.Valid && (row.LastAnalysisAt == nil || finished.Time.After(*row.LastAnalysisAt)) {
			t := finished.Time
			row.LastAnalysisAt = &t
		}
		if seen[uploadID] {
			continue
		}
		seen[uploadID] = true
		row.ExcludedRevenue = row.ExcludedRevenue.Add(textDecimal(excluded))
		row.EstimatedSavings = row.EstimatedSavings.Add(textDecimal(savings))
	}
	if err := runs.Err(); err != nil {
		return nil, err
	}

	sort.SliceStable(results, func(i, j int) bool {
		if c := results[i].EstimatedSavings.Cmp(results[j].EstimatedSavings); c != 0 {
			return c > 0
		}
		return results[i].ClientName < results[j].ClientName
	})
	return results, nil
}

func textDecimal(s sql.NullString) decimal.Decimal {
	d, err := parseDecimal(s)
	if err != nil || d == nil {
		return decimal.Zero
	}
	return *d
}
