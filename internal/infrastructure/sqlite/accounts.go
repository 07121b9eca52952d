package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jhoicas/audita-nfe/internal/domain"
	"github.com/jhoicas/audita-nfe/internal/domain/entity"
	"github.com/jhoicas/audita-nfe/internal/domain/repository"
)

// ==================== Companies ====================

type companyStore struct{ q querier }

var _ repository.CompanyRepository = (*companyStore)(nil)

const companyColumns = `id, name, trade_name, cnpj, status, created_at, updated_at`

func (s *companyStore) Create(c *entity.Company) error {
	_, err := s.q.ExecContext(context.Background(),
		`INSERT INTO companies (`+companyColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.Name, c.TradeName, c.CNPJ, c.Status, c.CreatedAt, c.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert company: %w", err)
	}
	return nil
}

func (s *companyStore) GetByID(id string) (*entity.Company, error) {
	return s.one(`SELECT `+companyColumns+` FROM companies WHERE id = ?`, id)
}

func (s *companyStore) GetByCNPJ(cnpj string) (*entity.Company, error) {
	return s.one(`SELECT `+companyColumns+` FROM companies WHERE cnpj = ?`, cnpj)
}

func (s *companyStore) one(query string, arg any) (*entity.Company, error) {
	c, err := scanCompany(s.q.QueryRowContext(context.Background(), query, arg))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get company: %w", err)
	}
	return c, nil
}

func (s *companyStore) Update(c *entity.Company) error {
	res, err := s.q.ExecContext(context.Background(),
		`UPDATE companies SET name = ?, trade_name = ?, cnpj = ?, status = ?, updated_at = ? WHERE id = ?`,
		c.Name, c.TradeName, c.CNPJ, c.Status, c.UpdatedAt, c.ID)
	if err != nil {
		return fmt.Errorf("update company: %w", err)
	}
	return requireAffected(res)
}

func scanCompany(row scanner) (*entity.Company, error) {
	var c entity.Company
	if err := row.Scan(&c.ID, &c.Name, &c.TradeName, &c.CNPJ, &c.Status, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	return &c, nil
}

// ==================== Users ====================

type userStore struct{ q querier }

var _ repository.UserRepository = (*userStore)(nil)

const userColumns = `id, company_id, email, password_hash, name, role, status, created_at, updated_at`

func (s *userStore) Create(u *entity.User) error {
	_, err := s.q.ExecContext(context.Background(),
		`INSERT INTO users (`+userColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		u.ID, u.CompanyID, strings.ToLower(u.Email), u.PasswordHash, u.Name, u.Role, u.Status, u.CreatedAt, u.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrEmailAlreadyExists
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (s *userStore) GetByID(id string) (*entity.User, error) {
	return s.one(`SELECT `+userColumns+` FROM users WHERE id = ?`, id)
}

func (s *userStore) GetByEmail(email string) (*entity.User, error) {
	return s.one(`SELECT `+userColumns+` FROM users WHERE email = ?`, strings.ToLower(strings.TrimSpace(email)))
}

func (s *userStore) one(query string, arg any) (*entity.User, error) {
	u, err := scanUser(s.q.QueryRowContext(context.Background(), query, arg))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

func (s *userStore) Update(u *entity.User) error {
	_, err := s.q.ExecContext(context.Background(),
		`UPDATE users SET email = ?, password_hash = ?, name = ?, role = ?, status = ?, updated_at = ? WHERE id = ?`,
		strings.ToLower(u.Email), u.PasswordHash, u.Name, u.Role, u.Status, u.UpdatedAt, u.ID)
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	return nil
}

func (s *userStore) ListByCompany(companyID string, limit, offset int) ([]*entity.User, error) {
	rows, err := s.q.QueryContext(context.Background(),
		`SELECT `+userColumns+` FROM users WHERE company_id = ? ORDER BY created_at DESC LIMIT ? OFFSET ?`,
		companyID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()
	var list []*entity.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		list = append(list, u)
	}
	return list, rows.Err()
}

func scanUser(row scanner) (*entity.User, error) {
	var u entity.User
	if err := row.Scan(&u.ID, &u.CompanyID, &u.Email, &u.PasswordHash, &u.Name, &u.Role, &u.Status,
		&u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, err
	}
	return &u, nil
}

// ==================== Clients ====================

type clientStore struct{ q querier }

var _ repository.ClientRepository = (*clientStore)(nil)

const clientColumns = `id, company_id, name, cnpj, email, phone, address, regime, created_at, updated_at`

func (s *clientStore) Create(c *entity.Client) error {
	_, err := s.q.ExecContext(context.Background(),
		`INSERT INTO clients (`+clientColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.CompanyID, c.Name, c.CNPJ, c.Email, c.Phone, c.Address, c.Regime, c.CreatedAt, c.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert client: %w", err)
	}
	return nil
}

func (s *clientStore) GetByID(id string) (*entity.Client, error) {
	return s.one(`SELECT `+clientColumns+` FROM clients WHERE id = ?`, id)
}

func (s *clientStore) GetByCompanyAndCNPJ(companyID, cnpj string) (*entity.Client, error) {
	return s.one(`SELECT `+clientColumns+` FROM clients WHERE company_id = ? AND cnpj = ?`, companyID, cnpj)
}

func (s *clientStore) one(query string, args ...any) (*entity.Client, error) {
	c, err := scanClient(s.q.QueryRowContext(context.Background(), query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get client: %w", err)
	}
	return c, nil
}

func (s *clientStore) ListByCompany(companyID string, limit, offset int) ([]*entity.Client, error) {
	rows, err := s.q.QueryContext(context.Background(),
		`SELECT `+clientColumns+` FROM clients WHERE company_id = ? ORDER BY name LIMIT ? OFFSET ?`,
		companyID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list clients: %w", err)
	}
	defer rows.Close()
	var list []*entity.Client
	for rows.Next() {
		c, err := scanClient(rows)
		if err != nil {
			return nil, fmt.Errorf("scan client: %w", err)
		}
		list = append(list, c)
	}
	return list, rows.Err()
}

func (s *clientStore) Update(c *entity.Client) error {
	res, err := s.q.ExecContext(context.Background(),
		`UPDATE clients SET name = ?, cnpj = ?, email = ?, phone = ?, address = ?, regime = ?, updated_at = ? WHERE id = ?`,
		c.Name, c.CNPJ, c.Email, c.Phone, c.Address, c.Regime, c.UpdatedAt, c.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("update client: %w", err)
	}
	return requireAffected(res)
}

func (s *clientStore) Delete(id string) error {
	if _, err := s.q.ExecContext(context.Background(), `DELETE FROM clients WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete client: %w", err)
	}
	return nil
}

func scanClient(row scanner) (*entity.Client, error) {
	var c entity.Client
	if err := row.Scan(&c.ID, &c.CompanyID, &c.Name, &c.CNPJ, &c.Email, &c.Phone, &c.Address, &c.Regime,
		&c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	return &c, nil
}

func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}
