package ports

import (
	"context"

	"github.com/jhoicas/audita-nfe/internal/domain/entity"
)

// ReportData lo que necesita el generador para el informe de una corrida.
type ReportData struct {
	Company  *entity.Company
	Client   *entity.Client
	Upload   *entity.Upload
	Analysis *entity.Analysis
}

// ReportGenerator produce el informe PDF de una corrida terminada.
type ReportGenerator interface {
	GenerateAnalysisReport(ctx context.Context, data ReportData) ([]byte, error)
}
