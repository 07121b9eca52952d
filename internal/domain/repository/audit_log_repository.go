package repository

import "github.com/jhoicas/audita-nfe/internal/domain/entity"

// AuditLogRepository registro de acciones de usuario (sólo inserción y lectura).
type AuditLogRepository interface {
	Create(log *entity.AuditLog) error
	ListByCompany(companyID string, limit, offset int) ([]*entity.AuditLog, error)
}
