package ports

import (
	"context"

	"github.com/jhoicas/audita-nfe/internal/domain/classifier"
	"github.com/jhoicas/audita-nfe/internal/domain/entity"
)

// DictionaryWriter persiste el diccionario completo (archivo o base).
type DictionaryWriter interface {
	Save(ctx context.Context, rules []entity.CategoryRule) error
}

// DictionaryReloader recarga el clasificador vigente desde su fuente.
// Lo implementa *classifier.Store.
type DictionaryReloader interface {
	Current() *classifier.Classifier
	Reload(ctx context.Context) (*classifier.Classifier, error)
}
