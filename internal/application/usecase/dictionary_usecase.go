package usecase

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/audita-nfe/internal/application/dto"
	"github.com/jhoicas/audita-nfe/internal/application/ports"
	"github.com/jhoicas/audita-nfe/internal/domain"
	"github.com/jhoicas/audita-nfe/internal/domain/classifier"
	"github.com/jhoicas/audita-nfe/internal/domain/entity"
	"github.com/jhoicas/audita-nfe/internal/domain/repository"
)

// DictionaryUseCase consulta y mantenimiento del diccionario monofásico.
// Las corridas en curso conservan su instantánea; los cambios valen para las siguientes.
type DictionaryUseCase struct {
	store  ports.DictionaryReloader
	writer ports.DictionaryWriter // nil = diccionario de solo lectura (embebido)
	logs   repository.AuditLogRepository
	mu     sync.Mutex // serializa actualizaciones (leer-modificar-escribir)
	now    func() time.Time
}

// NewDictionaryUseCase construye el caso de uso.
func NewDictionaryUseCase(store ports.DictionaryReloader, writer ports.DictionaryWriter, logs repository.AuditLogRepository) *DictionaryUseCase {
	return &DictionaryUseCase{store: store, writer: writer, logs: logs, now: time.Now}
}

// Get instantánea del diccionario vigente.
func (uc *DictionaryUseCase) Get() *dto.DictionaryResponse {
	return toDictionaryResponse(uc.store.Current())
}

// Update agrega palabras clave y prefijos NCM a una categoría (la crea si no existe),
// persiste el diccionario completo y recarga el clasificador.
//
// Retorna:
//   - domain.ErrUnavailable  si el diccionario no tiene dónde escribirse.
//   - domain.ErrInvalidInput si la categoría queda sin palabras o no compila.
func (uc *DictionaryUseCase) Update(ctx context.Context, companyID, userID string, req dto.UpdateCategoryRequest) (*dto.DictionaryResponse, error) {
	if uc.writer == nil {
		return nil, fmt.Errorf("%w: diccionario embebido de solo lectura", domain.ErrUnavailable)
	}
	category := classifier.Normalize(req.Category)
	if category == "" {
		return nil, fmt.Errorf("%w: category es requerida", domain.ErrInvalidInput)
	}

	uc.mu.Lock()
	defer uc.mu.Unlock()

	cur := uc.store.Current()
	rules := cur.Rules()
	idx := -1
	for i, r := range rules {
		if r.Category == category {
			idx = i
			break
		}
	}
	if idx < 0 {
		rules = append(rules, entity.CategoryRule{Category: category, SinglePhase: true})
		idx = len(rules) - 1
	}
	rule := &rules[idx]
	if req.Replace {
		rule.Keywords = nil
		rule.NCMPrefixes = nil
	}
	rule.Keywords = append(rule.Keywords, req.Keywords...)
	rule.NCMPrefixes = append(rule.NCMPrefixes, req.NCMPrefixes...)
	if req.SinglePhase != nil {
		rule.SinglePhase = *req.SinglePhase
	}
	rule.UpdatedAt = uc.now().UTC()

	// compilar antes de escribir: un diccionario inválido nunca llega a la fuente
	next, err := classifier.New(rules, classifier.Options{Threshold: cur.Threshold()})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	if r, _ := next.Rule(category); len(r.Keywords) == 0 {
		return nil, fmt.Errorf("%w: la categoría %s quedaría sin palabras clave", domain.ErrInvalidInput, category)
	}

	if err := uc.writer.Save(ctx, next.Rules()); err != nil {
		return nil, fmt.Errorf("dictionary: guardar: %w", err)
	}
	reloaded, err := uc.store.Reload(ctx)
	if err != nil {
		return nil, fmt.Errorf("dictionary: recargar: %w", err)
	}
	uc.audit(companyID, userID, entity.ActionDictionaryUpdate,
		fmt.Sprintf("categoría %s actualizada; versión %s", category, reloaded.Fingerprint()))
	return toDictionaryResponse(reloaded), nil
}

// Reload vuelve a leer la fuente. Si falla, el diccionario vigente se mantiene.
func (uc *DictionaryUseCase) Reload(ctx context.Context, companyID, userID string) (*dto.DictionaryResponse, error) {
	prev := uc.store.Current().Fingerprint()
	c, err := uc.store.Reload(ctx)
	if err != nil {
		return nil, fmt.Errorf("dictionary: recargar: %w", err)
	}
	uc.audit(companyID, userID, entity.ActionDictionaryReload,
		fmt.Sprintf("versión %s -> %s", prev, c.Fingerprint()))
	return toDictionaryResponse(c), nil
}

// el log es informativo: un fallo no deshace el cambio ya aplicado
func (uc *DictionaryUseCase) audit(companyID, userID, action, details string) {
	if uc.logs == nil || companyID == "" {
		return
	}
	_ = uc.logs.Create(&entity.AuditLog{
		ID:        uuid.New().String(),
		CompanyID: companyID,
		UserID:    userID,
		Action:    action,
		Details:   details,
		CreatedAt: uc.now(),
	})
}

func toDictionaryResponse(c *classifier.Classifier) *dto.DictionaryResponse {
	rules := c.Rules()
	_, keywords := c.Stats()
	out := &dto.DictionaryResponse{
		Version:    c.Fingerprint(),
		Threshold:  c.Threshold(),
		Keywords:   keywords,
		Categories: make([]dto.CategoryDTO, 0, len(rules)),
	}
	for _, r := range rules {
		out.Categories = append(out.Categories, dto.CategoryDTO{
			Category:    r.Category,
			Keywords:    r.Keywords,
			NCMPrefixes: r.NCMPrefixes,
			SinglePhase: r.SinglePhase,
			UpdatedAt:   r.UpdatedAt,
		})
	}
	return out
}

// unmatched descripciones (sin repetir) que el clasificador no reconoce.
func unmatched(c *classifier.Classifier, descriptions []string) []string {
	seen := make(map[string]bool, len(descriptions))
	var out []string
	for _, d := range descriptions {
		d = strings.TrimSpace(d)
		if d == "" || seen[d] {
			continue
		}
		seen[d] = true
		if !c.Classify(d).Found() {
			out = append(out, d)
		}
	}
	return out
}
