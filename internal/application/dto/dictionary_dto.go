package dto

import "time"

// CategoryDTO una categoría del diccionario.
type CategoryDTO struct {
	Category    string    `json:"category"`
	Keywords    []string  `json:"keywords"`
	NCMPrefixes []string  `json:"ncm_prefixes"`
	SinglePhase bool      `json:"single_phase"`
	UpdatedAt   time.Time `json:"updated_at,omitempty"`
}

// DictionaryResponse instantánea del diccionario vigente.
type DictionaryResponse struct {
	Version    string        `json:"version"`
	Threshold  int           `json:"threshold"`
	Keywords   int           `json:"keywords"`
	Categories []CategoryDTO `json:"categories"`
}

// UpdateCategoryRequest agrega palabras (y prefijos NCM) a una categoría; la crea si
// no existe. Replace reemplaza las listas en lugar de unirlas.
type UpdateCategoryRequest struct {
	Category    string   `json:"category" validate:"required"`
	Keywords    []string `json:"keywords"`
	NCMPrefixes []string `json:"ncm_prefixes"`
	SinglePhase *bool    `json:"single_phase"`
	Replace     bool     `json:"replace"`
}

// SuggestRequest descripciones sin categoría para consultar al LLM.
type SuggestRequest struct {
	Descriptions []string `json:"descriptions" validate:"required,min=1,max=50"`
}

// SuggestionDTO sugerencia del LLM para una descripción.
type SuggestionDTO struct {
	Description string  `json:"description"`
	Category    string  `json:"category"` // vacío = no es monofásico
	Keyword     string  `json:"keyword"`
	Confidence  float64 `json:"confidence"`
	Reasoning   string  `json:"reasoning"`
}

// SuggestResponse sugerencias del LLM. Nunca se aplican solas.
type SuggestResponse struct {
	Suggestions []SuggestionDTO `json:"suggestions"`
}
