package repository

import "github.com/jhoicas/audita-nfe/internal/domain/entity"

// AnalysisRepository corridas persistidas del motor. Totals se guarda como JSON.
type AnalysisRepository interface {
	Create(analysis *entity.Analysis) error
	// Update guarda estado, totales, error y fecha de fin.
	Update(analysis *entity.Analysis) error
	GetByID(id string) (*entity.Analysis, error)
	// LatestDoneByUpload devuelve la última corrida terminada del upload o nil.
	LatestDoneByUpload(uploadID string) (*entity.Analysis, error)
	ListByClient(clientID string, limit, offset int) ([]*entity.Analysis, error)
}
