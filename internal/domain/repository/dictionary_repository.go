package repository

import (
	"context"

	"github.com/jhoicas/audita-nfe/internal/domain/entity"
)

// DictionaryRepository fuente persistente del diccionario monofásico. Load cumple
// classifier.Loader; Save reemplaza el diccionario completo.
type DictionaryRepository interface {
	Load(ctx context.Context) ([]entity.CategoryRule, error)
	Count(ctx context.Context) (int, error)
	Save(ctx context.Context, rules []entity.CategoryRule) error
}
