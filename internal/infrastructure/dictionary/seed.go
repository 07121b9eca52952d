package dictionary

import (
	"context"
	"fmt"

	"github.com/jhoicas/audita-nfe/internal/domain/repository"
)

// SeedDefault carga el diccionario embebido si la tabla está vacía. Devuelve cuántas
// categorías insertó (0 si ya había datos).
func SeedDefault(ctx context.Context, repo repository.DictionaryRepository) (int, error) {
	n, err := repo.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("dictionary: contar categorías: %w", err)
	}
	if n > 0 {
		return 0, nil
	}
	rules, err := Decode(defaultDictionary, FormatJSON)
	if err != nil {
		return 0, err
	}
	if err := repo.Save(ctx, rules); err != nil {
		return 0, fmt.Errorf("dictionary: sembrar: %w", err)
	}
	return len(rules), nil
}
