package ports

import (
	"context"

	"github.com/jhoicas/audita-nfe/internal/application/dto"
)

// LLMService define el puerto de salida para los servicios de inteligencia artificial.
// Cualquier adaptador (Anthropic, mock) debe implementar esta interfaz; la aplicación
// solo conoce este contrato.
type LLMService interface {
	// SuggestSinglePhase recibe descripciones que el clasificador dejó sin categoría y
	// propone, para cada una, categoría monofásica y palabra clave. categories son las
	// categorías del diccionario vigente. El contexto debe llevar timeout.
	SuggestSinglePhase(
		ctx context.Context,
		descriptions []string,
		categories []string,
	) ([]dto.SuggestionDTO, error)
}
