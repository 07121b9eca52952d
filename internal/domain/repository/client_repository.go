package repository

import "github.com/jhoicas/audita-nfe/internal/domain/entity"

// ClientRepository define el puerto de persistencia para los contribuyentes auditados.
type ClientRepository interface {
	Create(client *entity.Client) error
	GetByID(id string) (*entity.Client, error)
	GetByCompanyAndCNPJ(companyID, cnpj string) (*entity.Client, error)
	ListByCompany(companyID string, limit, offset int) ([]*entity.Client, error)
	Update(client *entity.Client) error
	Delete(id string) error
}
