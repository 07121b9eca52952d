package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/jhoicas/audita-nfe/internal/application/dto"
	"github.com/jhoicas/audita-nfe/internal/application/ports"
	"github.com/jhoicas/audita-nfe/internal/domain"
)

const maxSuggestDescriptions = 50

// AIUseCase segunda opinión de un LLM para descripciones que el diccionario no
// reconoce. Las sugerencias se devuelven al usuario; nunca entran al motor.
// Aplica un timeout de 30 segundos en cada llamada al LLM.
type AIUseCase struct {
	llm   ports.LLMService // nil = sin proveedor configurado
	store ports.DictionaryReloader
}

// NewAIUseCase construye el caso de uso inyectando el puerto LLMService.
func NewAIUseCase(llm ports.LLMService, store ports.DictionaryReloader) *AIUseCase {
	return &AIUseCase{llm: llm, store: store}
}

// SuggestCategories filtra lo que el diccionario ya reconoce y consulta al LLM por el resto.
func (uc *AIUseCase) SuggestCategories(ctx context.Context, req dto.SuggestRequest) (*dto.SuggestResponse, error) {
	if uc.llm == nil {
		return nil, fmt.Errorf("%w: proveedor de IA no configurado", domain.ErrUnavailable)
	}
	if len(req.Descriptions) == 0 || len(req.Descriptions) > maxSuggestDescriptions {
		return nil, fmt.Errorf("%w: descriptions debe tener entre 1 y %d elementos", domain.ErrInvalidInput, maxSuggestDescriptions)
	}

	cur := uc.store.Current()
	pending := unmatched(cur, req.Descriptions)
	if len(pending) == 0 {
		return &dto.SuggestResponse{Suggestions: []dto.SuggestionDTO{}}, nil
	}
	categories := make([]string, 0)
	for _, r := range cur.Rules() {
		if r.SinglePhase {
			categories = append(categories, r.Category)
		}
	}

	// Timeout de 30 s: las llamadas a LLMs pueden demorar varios segundos.
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	suggestions, err := uc.llm.SuggestSinglePhase(ctx, pending, categories)
	if err != nil {
		return nil, fmt.Errorf("sugerencia IA: %w", err)
	}
	return &dto.SuggestResponse{Suggestions: suggestions}, nil
}
