package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/audita-nfe/internal/domain"
	"github.com/jhoicas/audita-nfe/internal/domain/entity"
	"github.com/jhoicas/audita-nfe/internal/domain/repository"
)

// ==================== Uploads ====================

type uploadStore struct{ q querier }

var _ repository.UploadRepository = (*uploadStore)(nil)

const uploadColumns = `id, company_id, client_id, filename, storage_ref, size, sha256, uploaded_at`

func (s *uploadStore) Create(u *entity.Upload) error {
	_, err := s.q.ExecContext(context.Background(),
		`INSERT INTO uploads (`+uploadColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		u.ID, u.CompanyID, u.ClientID, u.Filename, u.StorageRef, u.Size, u.SHA256, u.UploadedAt.UTC())
	if err != nil {
		return fmt.Errorf("insert upload: %w", err)
	}
	return nil
}

func (s *uploadStore) GetByID(id string) (*entity.Upload, error) {
	return s.one(`SELECT `+uploadColumns+` FROM uploads WHERE id = ?`, id)
}

func (s *uploadStore) LatestByClient(clientID string) (*entity.Upload, error) {
	return s.one(`SELECT `+uploadColumns+` FROM uploads WHERE client_id = ? ORDER BY uploaded_at DESC LIMIT 1`, clientID)
}

func (s *uploadStore) one(query string, arg any) (*entity.Upload, error) {
	u, err := scanUpload(s.q.QueryRowContext(context.Background(), query, arg))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get upload: %w", err)
	}
	return u, nil
}

func (s *uploadStore) ListByClient(clientID string, limit, offset int) ([]*entity.Upload, error) {
	rows, err := s.q.QueryContext(context.Background(),
		`SELECT `+uploadColumns+` FROM uploads WHERE client_id = ? ORDER BY uploaded_at DESC LIMIT ? OFFSET ?`,
		clientID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list uploads: %w", err)
	}
	defer rows.Close()
	var list []*entity.Upload
	for rows.Next() {
		u, err := scanUpload(rows)
		if err != nil {
			return nil, fmt.Errorf("scan upload: %w", err)
		}
		list = append(list, u)
	}
	return list, rows.Err()
}

func scanUpload(row scanner) (*entity.Upload, error) {
	var u entity.Upload
	if err := row.Scan(&u.ID, &u.CompanyID, &u.ClientID, &u.Filename, &u.StorageRef, &u.Size, &u.SHA256,
		&u.UploadedAt); err != nil {
		return nil, err
	}
	return &u, nil
}

// ==================== Archives ====================

type archiveStore struct{ q querier }

var _ repository.ArchiveStore = (*archiveStore)(nil)

func (s *archiveStore) Put(ctx context.Context, name string, data []byte) (string, error) {
	ref := uuid.New().String()
	if _, err := s.q.ExecContext(ctx,
		`INSERT INTO archives (ref, name, content, created_at) VALUES (?, ?, ?, ?)`,
		ref, name, data, time.Now().UTC()); err != nil {
		return "", fmt.Errorf("insert archive: %w", err)
	}
	return ref, nil
}

func (s *archiveStore) Get(ctx context.Context, ref string) ([]byte, error) {
	var data []byte
	err := s.q.QueryRowContext(ctx, `SELECT content FROM archives WHERE ref = ?`, ref).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get archive: %w", err)
	}
	return data, nil
}

func (s *archiveStore) Delete(ctx context.Context, ref string) error {
	if _, err := s.q.ExecContext(ctx, `DELETE FROM archives WHERE ref = ?`, ref); err != nil {
		return fmt.Errorf("delete archive: %w", err)
	}
	return nil
}

// ==================== Analyses ====================

type analysisStore struct{ q querier }

var _ repository.AnalysisRepository = (*analysisStore)(nil)

const analysisColumns = `id, company_id, client_id, upload_id, status, rate, paid_tax, totals, error, created_at, finished_at`

func (s *analysisStore) Create(a *entity.Analysis) error {
	totals, err := marshalTotals(a.Totals)
	if err != nil {
		return err
	}
	_, err = s.q.ExecContext(context.Background(),
		`INSERT INTO analyses (`+analysisColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.CompanyID, a.ClientID, a.UploadID, a.Status, decimalText(a.Rate), decimalText(a.PaidTax),
		totals, a.Error, a.CreatedAt.UTC(), nullTime(a.FinishedAt))
	if err != nil {
		return fmt.Errorf("insert analysis: %w", err)
	}
	return nil
}

func (s *analysisStore) Update(a *entity.Analysis) error {
	totals, err := marshalTotals(a.Totals)
	if err != nil {
		return err
	}
	res, err := s.q.ExecContext(context.Background(),
		`UPDATE analyses SET status = ?, totals = ?, error = ?, finished_at = ? WHERE id = ?`,
		a.Status, totals, a.Error, nullTime(a.FinishedAt), a.ID)
	if err != nil {
		return fmt.Errorf("update analysis: %w", err)
	}
	return requireAffected(res)
}

func (s *analysisStore) GetByID(id string) (*entity.Analysis, error) {
	return s.one(`SELECT `+analysisColumns+` FROM analyses WHERE id = ?`, id)
}

func (s *analysisStore) LatestDoneByUpload(uploadID string) (*entity.Analysis, error) {
	return s.one(`SELECT `+analysisColumns+` FROM analyses
		WHERE upload_id = ? AND status = 'done' ORDER BY created_at DESC LIMIT 1`, uploadID)
}

func (s *analysisStore) one(query string, arg any) (*entity.Analysis, error) {
	a, err := scanAnalysis(s.q.QueryRowContext(context.Background(), query, arg))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get analysis: %w", err)
	}
	return a, nil
}

// ListByClient no trae los totales, igual que el adaptador PostgreSQL.
func (s *analysisStore) ListByClient(clientID string, limit, offset int) ([]*entity.Analysis, error) {
	rows, err := s.q.QueryContext(context.Background(), `
		SELECT id, company_id, client_id, upload_id, status, rate, paid_tax, NULL, error, created_at, finished_at
		FROM analyses WHERE client_id = ? ORDER BY created_at DESC LIMIT ? OFFSET ?`,
		clientID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list analyses: %w", err)
	}
	defer rows.Close()
	var list []*entity.Analysis
	for rows.Next() {
		a, err := scanAnalysis(rows)
		if err != nil {
			return nil, fmt.Errorf("scan analysis: %w", err)
		}
		list = append(list, a)
	}
	return list, rows.Err()
}

func scanAnalysis(row scanner) (*entity.Analysis, error) {
	var (
		a             entity.Analysis
		rate, paidTax sql.NullString
		totals        sql.NullString
		finished      sql.NullTime
	)
	if err := row.Scan(&a.ID, &a.CompanyID, &a.ClientID, &a.UploadID, &a.Status, &rate, &paidTax,
		&totals, &a.Error, &a.CreatedAt, &finished); err != nil {
		return nil, err
	}
	var err error
	if a.Rate, err = parseDecimal(rate); err != nil {
		return nil, err
	}
	if a.PaidTax, err = parseDecimal(paidTax); err != nil {
		return nil, err
	}
	if finished.Valid {
		t := finished.Time
		a.FinishedAt = &t
	}
	if totals.Valid && totals.String != "" {
		var t entity.AnalysisTotals
		if err := json.Unmarshal([]byte(totals.String), &t); err != nil {
			return nil, fmt.Errorf("decode totals: %w", err)
		}
		a.Totals = &t
	}
	return &a, nil
}

func marshalTotals(t *entity.AnalysisTotals) (sql.NullString, error) {
	if t == nil {
		return sql.NullString{}, nil
	}
	b, err := json.Marshal(t)
	if err != nil {
		return sql.NullString{}, fmt.Errorf("encode totals: %w", err)
	}
	return sql.NullString{String: string(b), Valid: true}, nil
}

// Los decimales se guardan como texto para no perder precisión.
func decimalText(d *decimal.Decimal) sql.NullString {
	if d == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: d.String(), Valid: true}
}

func parseDecimal(s sql.NullString) (*decimal.Decimal, error) {
	if !s.Valid || s.String == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(s.String)
	if err != nil {
		return nil, fmt.Errorf("decode decimal %q: %w", s.String, err)
	}
	return &d, nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}

// ==================== Audit logs ====================

type auditLogStore struct{ q querier }

var _ repository.AuditLogRepository = (*auditLogStore)(nil)

func (s *auditLogStore) Create(l *entity.AuditLog) error {
	_, err := s.q.ExecContext(context.Background(),
		`INSERT INTO audit_logs (id, company_id, user_id, action, details, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		l.ID, l.CompanyID, nullString(l.UserID), l.Action, l.Details, l.CreatedAt.UTC())
	if err != nil {
		return fmt.Errorf("insert audit_log: %w", err)
	}
	return nil
}

func (s *auditLogStore) ListByCompany(companyID string, limit, offset int) ([]*entity.AuditLog, error) {
	rows, err := s.q.QueryContext(context.Background(), `
		SELECT id, company_id, user_id, action, details, created_at
		FROM audit_logs WHERE company_id = ? ORDER BY created_at DESC LIMIT ? OFFSET ?`,
		companyID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list audit_logs: %w", err)
	}
	defer rows.Close()
	var list []*entity.AuditLog
	for rows.Next() {
		var (
			l      entity.AuditLog
			userID sql.NullString
		)
		if err := rows.Scan(&l.ID, &l.CompanyID, &userID, &l.Action, &l.Details, &l.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan audit_log: %w", err)
		}
		l.UserID = userID.String
		list = append(list, &l)
	}
	return list, rows.Err()
}
