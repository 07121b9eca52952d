package usecase

import (
	"context"
	"fmt"

	"github.com/jhoicas/audita-nfe/internal/application/ports"
	"github.com/jhoicas/audita-nfe/internal/domain"
	"github.com/jhoicas/audita-nfe/internal/domain/entity"
	"github.com/jhoicas/audita-nfe/internal/domain/repository"
)

// ReportUseCase genera el informe PDF de una corrida.
// Solo se permite para corridas terminadas (status done).
type ReportUseCase struct {
	analyses  repository.AnalysisRepository
	companies repository.CompanyRepository
	clients   repository.ClientRepository
	uploads   repository.UploadRepository
	generator ports.ReportGenerator
}

// NewReportUseCase construye el caso de uso inyectando todas sus dependencias.
func NewReportUseCase(
	analyses repository.AnalysisRepository,
	companies repository.CompanyRepository,
	clients repository.ClientRepository,
	uploads repository.UploadRepository,
	generator ports.ReportGenerator,
) *ReportUseCase {
	return &ReportUseCase{
		analyses:  analyses,
		companies: companies,
		clients:   clients,
		uploads:   uploads,
		generator: generator,
	}
}

// DownloadReport recupera la corrida con su contexto y genera el PDF.
//
// Retorna:
//   - (pdfBytes, filename, nil)  si todo sale bien.
//   - domain.ErrNotFound         si la corrida no existe o es de otra empresa.
//   - domain.ErrInvalidInput     si la corrida no terminó bien.
func (uc *ReportUseCase) DownloadReport(
	ctx context.Context,
	companyID, analysisID string,
) (pdfBytes []byte, filename string, err error) {
	// ── 1. Cargar corrida ─────────────────────────────────────────────────────
	a, err := uc.analyses.GetByID(analysisID)
	if err != nil {
		return nil, "", fmt.Errorf("report: obtener corrida: %w", err)
	}
	if a == nil || a.CompanyID != companyID {
		return nil, "", domain.ErrNotFound
	}
	if a.Status != entity.AnalysisStatusDone || a.Totals == nil {
		return nil, "", fmt.Errorf("%w: la corrida está en estado %s", domain.ErrInvalidInput, a.Status)
	}

	// ── 2. Contexto: empresa, cliente, upload ─────────────────────────────────
	company, err := uc.companies.GetByID(companyID)
	if err != nil || company == nil {
		return nil, "", fmt.Errorf("report: obtener empresa: %w", err)
	}
	client, err := uc.clients.GetByID(a.ClientID)
	if err != nil || client == nil {
		return nil, "", fmt.Errorf("report: obtener cliente: %w", err)
	}
	upload, err := uc.uploads.GetByID(a.UploadID)
	if err != nil {
		return nil, "", fmt.Errorf("report: obtener upload: %w", err)
	}

	// ── 3. Generar PDF ────────────────────────────────────────────────────────
	pdfBytes, err = uc.generator.GenerateAnalysisReport(ctx, ports.ReportData{
		Company:  company,
		Client:   client,
		Upload:   upload,
		Analysis: a,
	})
	if err != nil {
		return nil, "", fmt.Errorf("report: generación fallida: %w", err)
	}

	filename = fmt.Sprintf("auditoria_%s_%s.pdf", client.CNPJ, a.CreatedAt.Format("20060102"))
	return pdfBytes, filename, nil
}
