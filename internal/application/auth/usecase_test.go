package auth_test

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/audita-nfe/internal/application/auth"
	"github.com/jhoicas/audita-nfe/internal/application/dto"
	"github.com/jhoicas/audita-nfe/internal/domain"
	"github.com/jhoicas/audita-nfe/internal/domain/entity"
	"github.com/jhoicas/audita-nfe/internal/infrastructure/sqlite"
	"github.com/jhoicas/audita-nfe/pkg/jwt"
)

const secret = "segredo-de-teste"

func newAuth(t *testing.T) (*auth.AuthUseCase, *sqlite.Store) {
	t.Helper()
	store, err := sqlite.NewStore(filepath.Join(t.TempDir(), "audita.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	now := time.Now()
	require.NoError(t, store.Companies().Create(&entity.Company{ID: "co-1", Name: "Contábil", CNPJ: "11222333000181",
		Status: "active", CreatedAt: now, UpdatedAt: now}))
	uc := auth.NewAuthUseCase(store.Users(), store.Companies(), auth.JWTConfig{Secret: secret, ExpMinutes: 60, Issuer: "audita"})
	return uc, store
}

func TestRegister_FirstUserIsAdmin(t *testing.T) {
	uc, _ := newAuth(t)

	first, err := uc.RegisterUser(dto.RegisterRequest{Email: " Ana@Escritorio.com.br ", Password: "senha-forte", CompanyID: "co-1"})
	require.NoError(t, err)
	assert.Equal(t, "ana@escritorio.com.br", first.Email)
	assert.Equal(t, entity.RoleAdmin, first.Role)

	second, err := uc.RegisterUser(dto.RegisterRequest{Email: "bruno@escritorio.com.br", Password: "senha-forte", CompanyID: "co-1"})
	require.NoError(t, err)
	assert.Equal(t, entity.RoleAuditor, second.Role)
}

func TestRegister_Errors(t *testing.T) {
	uc, _ := newAuth(t)
	_, err := uc.RegisterUser(dto.RegisterRequest{Email: "ana@x.com", Password: "senha-forte", CompanyID: "co-1"})
	require.NoError(t, err)

	cases := map[string]struct {
		in   dto.RegisterRequest
		want error
	}{
		"email repetido":   {dto.RegisterRequest{Email: "ANA@x.com", Password: "senha-forte", CompanyID: "co-1"}, domain.ErrEmailAlreadyExists},
		"password corta":   {dto.RegisterRequest{Email: "c@x.com", Password: "123", CompanyID: "co-1"}, domain.ErrInvalidInput},
		"empresa inexiste": {dto.RegisterRequest{Email: "d@x.com", Password: "senha-forte", CompanyID: "co-9"}, domain.ErrNotFound},
		"rol inválido":     {dto.RegisterRequest{Email: "e@x.com", Password: "senha-forte", CompanyID: "co-1", Role: "root"}, domain.ErrInvalidInput},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := uc.RegisterUser(tc.in)
			assert.True(t, errors.Is(err, tc.want), "obtuvo %v", err)
		})
	}
}

func TestLogin(t *testing.T) {
	uc, _ := newAuth(t)
	user, err := uc.RegisterUser(dto.RegisterRequest{Email: "ana@x.com", Password: "senha-forte", CompanyID: "co-1"})
	require.NoError(t, err)

	out, err := uc.Login(dto.LoginRequest{Email: "Ana@X.com", Password: "senha-forte"})
	require.NoError(t, err)
	assert.Equal(t, user.ID, out.User.ID)

	claims, err := jwt.ParseClaims(secret, out.Token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.Equal(t, "co-1", claims.CompanyID)
	assert.Equal(t, entity.RoleAdmin, claims.Role)

	_, err = uc.Login(dto.LoginRequest{Email: "ana@x.com", Password: "errada"})
	assert.True(t, errors.Is(err, domain.ErrUnauthorized))

	_, err = uc.Login(dto.LoginRequest{Email: "ninguem@x.com", Password: "senha-forte"})
	assert.True(t, errors.Is(err, domain.ErrUserNotFound))
}

func TestLogin_InactiveUser(t *testing.T) {
	uc, store := newAuth(t)
	created, err := uc.RegisterUser(dto.RegisterRequest{Email: "ana@x.com", Password: "senha-forte", CompanyID: "co-1"})
	require.NoError(t, err)

	u, err := store.Users().GetByID(created.ID)
	require.NoError(t, err)
	u.Status = "inactive"
	require.NoError(t, store.Users().Update(u))

	_, err = uc.Login(dto.LoginRequest{Email: "ana@x.com", Password: "senha-forte"})
	assert.True(t, errors.Is(err, domain.ErrForbidden))
}
