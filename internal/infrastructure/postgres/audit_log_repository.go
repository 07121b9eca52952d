package postgres

import (
	"context"
	"fmt"

	"github.com/jhoicas/audita-nfe/internal/domain/entity"
	"github.com/jhoicas/audita-nfe/internal/domain/repository"
)

var _ repository.AuditLogRepository = (*AuditLogRepo)(nil)

// AuditLogRepo log de acciones (usable con pool o tx).
type AuditLogRepo struct {
	q Querier
}

// NewAuditLogRepository construye el adaptador. Pasar pool o tx (Querier).
func NewAuditLogRepository(q Querier) *AuditLogRepo {
	return &AuditLogRepo{q: q}
}

// Create inserta un registro.
func (r *AuditLogRepo) Create(l *entity.AuditLog) error {
	_, err := r.q.Exec(context.Background(), `
		INSERT INTO audit_logs (id, company_id, user_id, action, details, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		l.ID, l.CompanyID, nullIfEmpty(l.UserID), l.Action, l.Details, l.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert audit_log: %w", err)
	}
	return nil
}

// ListByCompany registros de la empresa, más recientes primero.
func (r *AuditLogRepo) ListByCompany(companyID string, limit, offset int) ([]*entity.AuditLog, error) {
	rows, err := r.q.Query(context.Background(), `
		SELECT id, company_id, user_id::text, action, details, created_at
		FROM audit_logs WHERE company_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`,
		companyID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list audit_logs: %w", err)
	}
	defer rows.Close()
	var list []*entity.AuditLog
	for rows.Next() {
		var (
			l      entity.AuditLog
			userID *string
		)
		if err := rows.Scan(&l.ID, &l.CompanyID, &userID, &l.Action, &l.Details, &l.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan audit_log: %w", err)
		}
		l.UserID = derefString(userID)
		list = append(list, &l)
	}
	return list, rows.Err()
}
