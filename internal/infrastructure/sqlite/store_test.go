package sqlite_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/audita-nfe/internal/domain"
	"github.com/jhoicas/audita-nfe/internal/domain/entity"
	"github.com/jhoicas/audita-nfe/internal/domain/repository"
	"github.com/jhoicas/audita-nfe/internal/infrastructure/sqlite"
)

// setupStore crea una base temporal con las migraciones aplicadas.
func setupStore(t *testing.T) *sqlite.Store {
	t.Helper()
	store, err := sqlite.NewStore(filepath.Join(t.TempDir(), "data", "audita.db"))
	require.NoError(t, err)
	t.Cleanup(func() { assert.NoError(t, store.Close()) })
	return store
}

var base = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

// seedClient crea empresa y cliente para satisfacer las claves foráneas.
func seedClient(t *testing.T, store *sqlite.Store) (*entity.Company, *entity.Client) {
	t.Helper()
	company := &entity.Company{ID: "co-1", Name: "Contábil Alfa", CNPJ: "11222333000181", Status: "active",
		CreatedAt: base, UpdatedAt: base}
	require.NoError(t, store.Companies().Create(company))
	client := &entity.Client{ID: "cl-1", CompanyID: company.ID, Name: "Mercado Bom Preço", CNPJ: "11444777000161",
		Regime: "simples", CreatedAt: base, UpdatedAt: base}
	require.NoError(t, store.Clients().Create(client))
	return company, client
}

func seedUpload(t *testing.T, store *sqlite.Store, id string, at time.Time) *entity.Upload {
	t.Helper()
	u := &entity.Upload{ID: id, CompanyID: "co-1", ClientID: "cl-1", Filename: id + ".zip", StorageRef: "ref-" + id,
		Size: 10, SHA256: "abc", UploadedAt: at}
	require.NoError(t, store.Uploads().Create(u))
	return u
}

func doneAnalysis(id, uploadID string, at time.Time, excluded, savings string) *entity.Analysis {
	finished := at.Add(time.Second)
	return &entity.Analysis{
		ID: id, CompanyID: "co-1", ClientID: "cl-1", UploadID: uploadID,
		Status: entity.AnalysisStatusDone,
		Totals: &entity.AnalysisTotals{
			RunID:           id,
			ExcludedRevenue: decimal.RequireFromString(excluded),
			Tax:             entity.TaxSummary{EstimatedSavings: decimal.RequireFromString(savings)},
		},
		CreatedAt:  at,
		FinishedAt: &finished,
	}
}

// ── Migraciones ──────────────────────────────────────────────────────────────

func TestNewStore_ReopenKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audita.db")
	store, err := sqlite.NewStore(path)
	require.NoError(t, err)
	require.NoError(t, store.Companies().Create(&entity.Company{ID: "co-1", Name: "A", CNPJ: "1", CreatedAt: base, UpdatedAt: base}))
	require.NoError(t, store.Close())

	store, err = sqlite.NewStore(path)
	require.NoError(t, err)
	defer store.Close()
	c, err := store.Companies().GetByID("co-1")
	require.NoError(t, err)
	require.NotNil(t, c)
	assert.Equal(t, path, store.Path())
}

// ── Empresas, usuarios y clientes ────────────────────────────────────────────

func TestCompaniesAndUsers(t *testing.T) {
	store := setupStore(t)
	company, _ := seedClient(t, store)

	got, err := store.Companies().GetByCNPJ(company.CNPJ)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Contábil Alfa", got.Name)
	assert.True(t, base.Equal(got.CreatedAt))

	missing, err := store.Companies().GetByID("nao-existe")
	require.NoError(t, err)
	assert.Nil(t, missing)

	err = store.Companies().Create(&entity.Company{ID: "co-2", Name: "B", CNPJ: company.CNPJ, CreatedAt: base, UpdatedAt: base})
	assert.True(t, errors.Is(err, domain.ErrDuplicate))

	got.Status = "suspended"
	got.UpdatedAt = base.Add(time.Hour)
	require.NoError(t, store.Companies().Update(got))
	suspended, err := store.Companies().GetByID(company.ID)
	require.NoError(t, err)
	assert.Equal(t, "suspended", suspended.Status)
	assert.True(t, errors.Is(store.Companies().Update(&entity.Company{ID: "nao-existe"}), domain.ErrNotFound))

	user := &entity.User{ID: "u-1", CompanyID: company.ID, Email: "Ana@Example.com", PasswordHash: "hash",
		Name: "Ana", Role: entity.RoleAdmin, Status: "active", CreatedAt: base, UpdatedAt: base}
	require.NoError(t, store.Users().Create(user))
	byEmail, err := store.Users().GetByEmail(" ana@example.com ")
	require.NoError(t, err)
	require.NotNil(t, byEmail)
	assert.Equal(t, "u-1", byEmail.ID)

	dup := *user
	dup.ID = "u-2"
	assert.True(t, errors.Is(store.Users().Create(&dup), domain.ErrEmailAlreadyExists))

	users, err := store.Users().ListByCompany(company.ID, 10, 0)
	require.NoError(t, err)
	assert.Len(t, users, 1)
}

func TestClients(t *testing.T) {
	store := setupStore(t)
	_, client := seedClient(t, store)

	got, err := store.Clients().GetByCompanyAndCNPJ("co-1", client.CNPJ)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "simples", got.Regime)

	got.Name = "Mercado Bom Preço Ltda"
	require.NoError(t, store.Clients().Update(got))
	got, err = store.Clients().GetByID(client.ID)
	require.NoError(t, err)
	assert.Equal(t, "Mercado Bom Preço Ltda", got.Name)

	ghost := &entity.Client{ID: "cl-x"}
	assert.True(t, errors.Is(store.Clients().Update(ghost), domain.ErrNotFound))

	require.NoError(t, store.Clients().Delete(client.ID))
	got, err = store.Clients().GetByID(client.ID)
	require.NoError(t, err)
	assert.Nil(t, got)
}

// ── Uploads y archivos ───────────────────────────────────────────────────────

func TestUploadsAndArchives(t *testing.T) {
	store := setupStore(t)
	seedClient(t, store)
	ctx := context.Background()

	ref, err := store.Archives().Put(ctx, "notas.zip", []byte("PK\x03\x04"))
	require.NoError(t, err)
	data, err := store.Archives().Get(ctx, ref)
	require.NoError(t, err)
	assert.Equal(t, []byte("PK\x03\x04"), data)

	seedUpload(t, store, "up-1", base)
	seedUpload(t, store, "up-2", base.Add(time.Hour))

	latest, err := store.Uploads().LatestByClient("cl-1")
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, "up-2", latest.ID)

	list, err := store.Uploads().ListByClient("cl-1", 10, 0)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "up-1", list[1].ID)

	require.NoError(t, store.Archives().Delete(ctx, ref))
	_, err = store.Archives().Get(ctx, ref)
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

// ── Corridas de análisis ─────────────────────────────────────────────────────

func TestAnalyses_Lifecycle(t *testing.T) {
	store := setupStore(t)
	seedClient(t, store)
	seedUpload(t, store, "up-1", base)

	rate := decimal.RequireFromString("0.06")
	a := &entity.Analysis{ID: "an-1", CompanyID: "co-1", ClientID: "cl-1", UploadID: "up-1",
		Status: entity.AnalysisStatusProcessing, Rate: &rate, CreatedAt: base}
	require.NoError(t, store.Analyses().Create(a))

	none, err := store.Analyses().LatestDoneByUpload("up-1")
	require.NoError(t, err)
	assert.Nil(t, none, "una corrida en proceso no cuenta")

	finished := base.Add(time.Minute)
	a.Status = entity.AnalysisStatusDone
	a.FinishedAt = &finished
	a.Totals = &entity.AnalysisTotals{RunID: "run-1", Documents: 3, ExcludedRevenue: decimal.RequireFromString("123.45")}
	require.NoError(t, store.Analyses().Update(a))

	got, err := store.Analyses().LatestDoneByUpload("up-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	require.NotNil(t, got.Totals)
	assert.Equal(t, 3, got.Totals.Documents)
	assert.True(t, got.Totals.ExcludedRevenue.Equal(decimal.RequireFromString("123.45")))
	require.NotNil(t, got.Rate)
	assert.True(t, got.Rate.Equal(rate))
	assert.Nil(t, got.PaidTax)
	require.NotNil(t, got.FinishedAt)
	assert.True(t, finished.Equal(*got.FinishedAt))

	list, err := store.Analyses().ListByClient("cl-1", 10, 0)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Nil(t, list[0].Totals, "el listado no trae totales")

	assert.True(t, errors.Is(store.Analyses().Update(&entity.Analysis{ID: "nao-existe"}), domain.ErrNotFound))
}

func TestRunAnalysis_RollsBackOnError(t *testing.T) {
	store := setupStore(t)
	seedClient(t, store)
	seedUpload(t, store, "up-1", base)

	boom := errors.New("boom")
	err := store.RunAnalysis(context.Background(), func(analyses repository.AnalysisRepository, logs repository.AuditLogRepository) error {
		require.NoError(t, analyses.Create(doneAnalysis("an-1", "up-1", base, "1", "1")))
		require.NoError(t, logs.Create(&entity.AuditLog{ID: "log-1", CompanyID: "co-1", Action: entity.ActionAnalysis, CreatedAt: base}))
		return boom
	})
	assert.ErrorIs(t, err, boom)

	got, err := store.Analyses().GetByID("an-1")
	require.NoError(t, err)
	assert.Nil(t, got)
	logs, err := store.AuditLogs().ListByCompany("co-1", 10, 0)
	require.NoError(t, err)
	assert.Empty(t, logs)
}

func TestRunAnalysis_Commits(t *testing.T) {
	store := setupStore(t)
	seedClient(t, store)
	seedUpload(t, store, "up-1", base)

	err := store.RunAnalysis(context.Background(), func(analyses repository.AnalysisRepository, logs repository.AuditLogRepository) error {
		if err := analyses.Create(doneAnalysis("an-1", "up-1", base, "1", "1")); err != nil {
			return err
		}
		return logs.Create(&entity.AuditLog{ID: "log-1", CompanyID: "co-1", UserID: "u-1", Action: entity.ActionAnalysis,
			Details: "an-1", CreatedAt: base})
	})
	require.NoError(t, err)

	logs, err := store.AuditLogs().ListByCompany("co-1", 10, 0)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, "u-1", logs[0].UserID)
}

// ── Panel ────────────────────────────────────────────────────────────────────

func TestAnalytics_ClientOverview(t *testing.T) {
	store := setupStore(t)
	seedClient(t, store)
	require.NoError(t, store.Clients().Create(&entity.Client{ID: "cl-2", CompanyID: "co-1", Name: "Adega Sem Notas",
		CNPJ: "99", CreatedAt: base, UpdatedAt: base}))
	seedUpload(t, store, "up-1", base)
	seedUpload(t, store, "up-2", base.Add(time.Hour))

	// up-1 tiene dos corridas: sólo cuenta la más reciente
	require.NoError(t, store.Analyses().Create(doneAnalysis("an-1", "up-1", base, "100", "10")))
	require.NoError(t, store.Analyses().Create(doneAnalysis("an-2", "up-1", base.Add(time.Minute), "200", "20")))
	require.NoError(t, store.Analyses().Create(doneAnalysis("an-3", "up-2", base.Add(2*time.Hour), "50.25", "5.5")))

	rows, err := store.Analytics().GetClientOverview(context.Background(), "co-1")
	require.NoError(t, err)
	require.Len(t, rows, 2)

	first := rows[0]
	assert.Equal(t, "cl-1", first.ClientID)
	assert.Equal(t, 2, first.Uploads)
	assert.Equal(t, 3, first.Analyses)
	assert.True(t, first.ExcludedRevenue.Equal(decimal.RequireFromString("250.25")), first.ExcludedRevenue.String())
	assert.True(t, first.EstimatedSavings.Equal(decimal.RequireFromString("25.5")), first.EstimatedSavings.String())
	require.NotNil(t, first.LastAnalysisAt)
	assert.True(t, base.Add(2*time.Hour+time.Second).Equal(*first.LastAnalysisAt))

	assert.Equal(t, "cl-2", rows[1].ClientID)
	assert.True(t, rows[1].EstimatedSavings.IsZero())
	assert.Nil(t, rows[1].LastAnalysisAt)
}

// ── Diccionario ──────────────────────────────────────────────────────────────

func TestDictionary_SaveLoad(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()
	dict := store.Dictionary()

	n, err := dict.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	require.NoError(t, dict.Save(ctx, []entity.CategoryRule{
		{Category: "refrigerante", Keywords: []string{"coca", "guarana"}, NCMPrefixes: []string{"2202"}, SinglePhase: true},
		{Category: "papelaria", Keywords: []string{"caderno"}},
	}))
	rules, err := dict.Load(ctx)
	require.NoError(t, err)
	require.Len(t, rules, 2)
	assert.Equal(t, "papelaria", rules[0].Category)
	assert.False(t, rules[0].SinglePhase)
	assert.Empty(t, rules[0].NCMPrefixes)
	assert.Equal(t, []string{"coca", "guarana"}, rules[1].Keywords)
	assert.True(t, rules[1].SinglePhase)
	assert.False(t, rules[1].UpdatedAt.IsZero())

	// Save reemplaza todo
	require.NoError(t, dict.Save(ctx, []entity.CategoryRule{{Category: "cerveja", Keywords: []string{"skol"}, SinglePhase: true}}))
	n, err = dict.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}
