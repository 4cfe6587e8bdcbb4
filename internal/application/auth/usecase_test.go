package auth_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/jhoicas/stock-ledger/internal/application/auth"
	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/infrastructure/memory"
	pkgjwt "github.com/jhoicas/stock-ledger/pkg/jwt"
	"github.com/jhoicas/stock-ledger/pkg/logger"
)

const tenant = "rest-001"

var issuer = pkgjwt.NewIssuer("secreto-de-prueba", "stock-ledger-test", 30*time.Minute)

func newUseCase(t *testing.T) (*auth.AuthUseCase, *memory.Store) {
	t.Helper()
	store := memory.NewStore(time.Second)
	uc := auth.NewAuthUseCase(store.Users(), issuer, logger.NewNop()).
		WithBcryptCost(bcrypt.MinCost)
	return uc, store
}

func TestRegister_NormalizaYHashea(t *testing.T) {
	uc, store := newUseCase(t)
	ctx := context.Background()

	user, err := uc.Register(ctx, auth.RegisterInput{TenantID: tenant, Email: "  Cocina@Rest.CO ", Password: "clave-segura"})
	require.NoError(t, err)
	assert.Equal(t, "cocina@rest.co", user.Email)
	assert.Equal(t, entity.RoleVendedor, user.Role, "rol por defecto")
	assert.Equal(t, "cocina@rest.co", user.Name)
	assert.True(t, user.IsActive)
	assert.NotEqual(t, "clave-segura", user.PasswordHash)

	stored, err := store.Users().GetByEmail(ctx, "cocina@rest.co")
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("clave-segura")))

	_, err = uc.Register(ctx, auth.RegisterInput{TenantID: "otro", Email: "cocina@rest.co", Password: "otra-clave-1"})
	assert.ErrorIs(t, err, domain.ErrDuplicate, "el email es único global")
}

func TestRegister_Validaciones(t *testing.T) {
	uc, _ := newUseCase(t)
	cases := map[string]auth.RegisterInput{
		"sin tenant":      {Email: "a@b.co", Password: "12345678"},
		"email inválido":  {TenantID: tenant, Email: "sin-arroba", Password: "12345678"},
		"clave corta":     {TenantID: tenant, Email: "a@b.co", Password: "corta"},
		"rol desconocido": {TenantID: tenant, Email: "a@b.co", Password: "12345678", Role: "chef"},
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := uc.Register(context.Background(), in)
			assert.ErrorIs(t, err, domain.ErrInvalidInput)
		})
	}
}

func TestLogin_EmiteTokenConTenantYRol(t *testing.T) {
	uc, _ := newUseCase(t)
	ctx := context.Background()
	user, err := uc.Register(ctx, auth.RegisterInput{TenantID: tenant, Email: "bodega@rest.co", Password: "clave-segura", Role: "Bodeguero"})
	require.NoError(t, err)

	res, err := uc.Login(ctx, "BODEGA@rest.co", "clave-segura")
	require.NoError(t, err)
	assert.Equal(t, user.ID, res.User.ID)
	assert.WithinDuration(t, time.Now().Add(30*time.Minute), res.ExpiresAt, time.Minute)

	subject, err := issuer.Verify(res.Token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, subject.UserID)
	assert.Equal(t, tenant, subject.TenantID)
	assert.Equal(t, entity.RoleBodeguero, subject.Role)
}

func TestLogin_CredencialesInvalidas(t *testing.T) {
	uc, _ := newUseCase(t)
	ctx := context.Background()
	_, err := uc.Register(ctx, auth.RegisterInput{TenantID: tenant, Email: "caja@rest.co", Password: "clave-segura"})
	require.NoError(t, err)

	_, err = uc.Login(ctx, "caja@rest.co", "otra-clave")
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
	_, err = uc.Login(ctx, "nadie@rest.co", "clave-segura")
	assert.ErrorIs(t, err, domain.ErrUnauthorized, "no se distingue usuario inexistente")
}

func TestListStaff(t *testing.T) {
	uc, _ := newUseCase(t)
	ctx := context.Background()
	for _, email := range []string{"b@rest.co", "a@rest.co"} {
		_, err := uc.Register(ctx, auth.RegisterInput{TenantID: tenant, Email: email, Password: "clave-segura"})
		require.NoError(t, err)
	}
	_, err := uc.Register(ctx, auth.RegisterInput{TenantID: "otro", Email: "c@otro.co", Password: "clave-segura"})
	require.NoError(t, err)

	list, err := uc.ListStaff(ctx, tenant)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "a@rest.co", list[0].Email)

	_, err = uc.ListStaff(ctx, "")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
