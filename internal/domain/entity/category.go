package entity

import "time"

// CategoryRule una entrada del diccionario de productos monofásicos.
type CategoryRule struct {
	Category    string
	Keywords    []string // normalizadas (minúsculas, sin acentos)
	NCMPrefixes []string // vacío = cualquier NCM se acepta
	SinglePhase bool
	UpdatedAt   time.Time
}

// ClassificationResult resultado de clasificar una descripción.
// Category vacía significa "sin categoría"; no es un error.
type ClassificationResult struct {
	Category    string
	Keyword     string
	Score       int // 0..100
	SinglePhase bool
}

// Found indica si la clasificación encontró categoría.
func (r ClassificationResult) Found() bool {
	return r.Category != ""
}
