package ports

import (
	"context"

	"github.com/jhoicas/audita-nfe/internal/domain/repository"
)

// AnalysisTxRunner ejecuta fn en una transacción con los repos de corridas y de log.
// Si fn devuelve error se hace rollback.
type AnalysisTxRunner interface {
	RunAnalysis(ctx context.Context, fn func(
		analyses repository.AnalysisRepository,
		logs repository.AuditLogRepository,
	) error) error
}
