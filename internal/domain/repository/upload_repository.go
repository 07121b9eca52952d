package repository

import "github.com/jhoicas/audita-nfe/internal/domain/entity"

// UploadRepository metadatos de los ZIP subidos. El contenido vive en ArchiveStore.
type UploadRepository interface {
	Create(upload *entity.Upload) error
	GetByID(id string) (*entity.Upload, error)
	// LatestByClient devuelve el último upload del cliente o nil.
	LatestByClient(clientID string) (*entity.Upload, error)
	ListByClient(clientID string, limit, offset int) ([]*entity.Upload, error)
}
