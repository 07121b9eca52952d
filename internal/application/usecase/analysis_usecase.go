package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/audita-nfe/internal/application/analysis"
	"github.com/jhoicas/audita-nfe/internal/application/dto"
	"github.com/jhoicas/audita-nfe/internal/application/ports"
	"github.com/jhoicas/audita-nfe/internal/domain"
	"github.com/jhoicas/audita-nfe/internal/domain/entity"
	"github.com/jhoicas/audita-nfe/internal/domain/repository"
	"github.com/jhoicas/audita-nfe/pkg/logger"
)

// Analyzer el motor de auditoría. Lo implementa *analysis.Engine.
type Analyzer interface {
	Analyze(ctx context.Context, archive []byte, in analysis.Input) (*entity.AnalysisTotals, error)
}

// AnalysisUseCase corre el motor sobre un upload y persiste la corrida.
//
// Ciclo: processing (visible de inmediato) → done | failed. El cierre de la corrida y
// su registro en el log van en la misma transacción.
type AnalysisUseCase struct {
	uploads  repository.UploadRepository
	analyses repository.AnalysisRepository
	archives repository.ArchiveStore
	engine   Analyzer
	tx       ports.AnalysisTxRunner
	log      *logger.Logger
}

// NewAnalysisUseCase construye el caso de uso.
func NewAnalysisUseCase(
	uploads repository.UploadRepository,
	analyses repository.AnalysisRepository,
	archives repository.ArchiveStore,
	engine Analyzer,
	tx ports.AnalysisTxRunner,
	log *logger.Logger,
) *AnalysisUseCase {
	if log == nil {
		log = logger.Nop()
	}
	return &AnalysisUseCase{uploads: uploads, analyses: analyses, archives: archives, engine: engine, tx: tx, log: log}
}

// Run ejecuta una corrida sincrónica.
//
// Retorna:
//   - domain.ErrNotFound       si el upload no existe o es de otra empresa.
//   - domain.ErrInvalidInput   si la alíquota informada no se puede interpretar.
//   - domain.ErrArchiveCorrupt si el ZIP guardado no abre (la corrida queda failed).
func (uc *AnalysisUseCase) Run(ctx context.Context, companyID, userID string, req dto.RunAnalysisRequest) (*dto.AnalysisResponse, error) {
	upload, err := uc.uploads.GetByID(req.UploadID)
	if err != nil {
		return nil, fmt.Errorf("analysis: obtener upload: %w", err)
	}
	if upload == nil || upload.CompanyID != companyID {
		return nil, domain.ErrNotFound
	}

	in := analysis.Input{Rate: blankToNil(req.Aliquota), PaidTax: blankToNil(req.ImpostoPago)}
	rate, paid := in.Parsed()
	if in.Rate != nil && rate == nil {
		return nil, fmt.Errorf("%w: alíquota %v ilegible", domain.ErrInvalidInput, req.Aliquota)
	}

	a := &entity.Analysis{
		ID:        uuid.New().String(),
		CompanyID: companyID,
		ClientID:  upload.ClientID,
		UploadID:  upload.ID,
		Status:    entity.AnalysisStatusProcessing,
		Rate:      rate,
		PaidTax:   paid,
		CreatedAt: time.Now(),
	}
	if err := uc.analyses.Create(a); err != nil {
		return nil, fmt.Errorf("analysis: registrar corrida: %w", err)
	}

	totals, runErr := uc.execute(ctx, upload, in)
	finished := time.Now()
	a.FinishedAt = &finished
	if runErr != nil {
		a.Status = entity.AnalysisStatusFailed
		a.Error = runErr.Error()
		uc.log.Error().Err(runErr).Str("analysis_id", a.ID).Str("upload_id", upload.ID).Msg("corrida fallida")
	} else {
		a.Status = entity.AnalysisStatusDone
		a.Totals = totals
	}

	if err := uc.close(ctx, a, userID); err != nil {
		return nil, err
	}
	if runErr != nil {
		return nil, runErr
	}
	out := toAnalysisResponse(a, true)
	return &out, nil
}

func (uc *AnalysisUseCase) execute(ctx context.Context, upload *entity.Upload, in analysis.Input) (*entity.AnalysisTotals, error) {
	data, err := uc.archives.Get(ctx, upload.StorageRef)
	if err != nil {
		return nil, fmt.Errorf("analysis: leer archivo: %w", err)
	}
	return uc.engine.Analyze(ctx, data, in)
}

// close guarda el resultado y el log en una transacción. Si el contexto de la petición
// ya terminó igual se cierra la corrida para no dejarla en processing.
func (uc *AnalysisUseCase) close(ctx context.Context, a *entity.Analysis, userID string) error {
	if ctx.Err() != nil {
		ctx = context.Background()
	}
	details := fmt.Sprintf("corrida %s sobre upload %s: %s", a.ID, a.UploadID, a.Status)
	if a.Totals != nil {
		details += fmt.Sprintf(" (%d NF-e, %d monofásicos, economía %s)",
			a.Totals.Documents, a.Totals.SinglePhaseTotal, a.Totals.Tax.EstimatedSavings.StringFixed(2))
	}
	err := uc.tx.RunAnalysis(ctx, func(analyses repository.AnalysisRepository, logs repository.AuditLogRepository) error {
		if err := analyses.Update(a); err != nil {
			return err
		}
		return logs.Create(&entity.AuditLog{
			ID:        uuid.New().String(),
			CompanyID: a.CompanyID,
			UserID:    userID,
			Action:    entity.ActionAnalysis,
			Details:   details,
			CreatedAt: *a.FinishedAt,
		})
	})
	if err != nil {
		return fmt.Errorf("analysis: cerrar corrida: %w", err)
	}
	return nil
}

// Get detalle de una corrida con totales.
func (uc *AnalysisUseCase) Get(companyID, id string) (*dto.AnalysisResponse, error) {
	a, err := uc.analyses.GetByID(id)
	if err != nil {
		return nil, err
	}
	if a == nil || a.CompanyID != companyID {
		return nil, domain.ErrNotFound
	}
	out := toAnalysisResponse(a, true)
	return &out, nil
}

// LatestDone última corrida terminada del upload; la ejecuta sin alíquota ni imposto
// pago si todavía no hay ninguna.
func (uc *AnalysisUseCase) LatestDone(ctx context.Context, companyID, userID, uploadID string) (*entity.Analysis, error) {
	a, err := uc.analyses.LatestDoneByUpload(uploadID)
	if err != nil {
		return nil, err
	}
	if a != nil {
		if a.CompanyID != companyID {
			return nil, domain.ErrNotFound
		}
		return a, nil
	}
	out, err := uc.Run(ctx, companyID, userID, dto.RunAnalysisRequest{UploadID: uploadID})
	if err != nil {
		return nil, err
	}
	return uc.analyses.GetByID(out.ID)
}

// List corridas del cliente, sin totales. Las de otra empresa no se devuelven.
func (uc *AnalysisUseCase) List(companyID, clientID string, limit, offset int) (*dto.AnalysisListResponse, error) {
	list, err := uc.analyses.ListByClient(clientID, limit, offset)
	if err != nil {
		return nil, err
	}
	items := make([]dto.AnalysisResponse, 0, len(list))
	for _, a := range list {
		if a.CompanyID != companyID {
			continue
		}
		items = append(items, toAnalysisResponse(a, false))
	}
	return &dto.AnalysisListResponse{Items: items, Page: dto.PageResponse{Limit: limit, Offset: offset}}, nil
}

// IsInputError indica si el error de Run se debe a lo que mandó el usuario.
func IsInputError(err error) bool {
	return errors.Is(err, domain.ErrInvalidInput) || analysis.IsInputError(err)
}

func blankToNil(v any) any {
	if s, ok := v.(string); ok && strings.TrimSpace(s) == "" {
		return nil
	}
	return v
}

func toAnalysisResponse(a *entity.Analysis, withTotals bool) dto.AnalysisResponse {
	out := dto.AnalysisResponse{
		ID:         a.ID,
		ClientID:   a.ClientID,
		UploadID:   a.UploadID,
		Status:     a.Status,
		Rate:       a.Rate,
		PaidTax:    a.PaidTax,
		Error:      a.Error,
		CreatedAt:  a.CreatedAt,
		FinishedAt: a.FinishedAt,
	}
	if withTotals {
		out.Totals = a.Totals
	}
	return out
}
