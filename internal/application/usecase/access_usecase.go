package usecase

import (
	"context"
	"fmt"

	"github.com/jhoicas/audita-nfe/internal/domain/repository"
)

// AccessService verifica si la empresa del token puede operar.
// Es el único punto de la aplicación que conoce los estados de la empresa.
type AccessService struct {
	companyRepo repository.CompanyRepository
}

// NewAccessService construye el servicio.
func NewAccessService(companyRepo repository.CompanyRepository) *AccessService {
	return &AccessService{companyRepo: companyRepo}
}

// IsCompanyActive informa si la empresa existe y está activa.
// Devuelve false (sin error) si está suspendida o no existe; error solo ante fallos
// de infraestructura.
func (s *AccessService) IsCompanyActive(ctx context.Context, companyID string) (bool, error) {
	if companyID == "" {
		return false, fmt.Errorf("access: companyID es obligatorio")
	}
	company, err := s.companyRepo.GetByID(companyID)
	if err != nil {
		return false, err
	}
	return company != nil && company.Status == "active", nil
}
