// Package auth da de alta al personal y emite los tokens con los que opera la API de inventario.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
	"github.com/jhoicas/stock-ledger/pkg/jwt"
	"github.com/jhoicas/stock-ledger/pkg/logger"
)

const minPasswordLength = 8

// RegisterInput alta de un miembro del personal.
type RegisterInput struct {
	TenantID string
	Email    string
	Password string
	Name     string
	Role     string // vacío = vendedor
}

// LoginResult token firmado y el usuario autenticado.
type LoginResult struct {
	Token     string
	ExpiresAt time.Time
	User      *entity.User
}

// AuthUseCase registro y login del personal.
type AuthUseCase struct {
	users  repository.UserRepository
	tokens *jwt.Issuer
	log    *logger.Logger
	cost   int
}

// NewAuthUseCase construye el caso de uso con el costo bcrypt por defecto.
func NewAuthUseCase(users repository.UserRepository, tokens *jwt.Issuer, log *logger.Logger) *AuthUseCase {
	return &AuthUseCase{users: users, tokens: tokens, log: log, cost: bcrypt.DefaultCost}
}

// WithBcryptCost cambia el costo del hash (tests usan bcrypt.MinCost).
func (uc *AuthUseCase) WithBcryptCost(cost int) *AuthUseCase {
	uc.cost = cost
	return uc
}

// Register hashea la contraseña y persiste el usuario. Email repetido -> domain.ErrDuplicate.
func (uc *AuthUseCase) Register(ctx context.Context, in RegisterInput) (*entity.User, error) {
	email := entity.NormalizeEmail(in.Email)
	role := strings.ToLower(strings.TrimSpace(in.Role))
	if role == "" {
		role = entity.RoleVendedor
	}
	switch {
	case in.TenantID == "":
		return nil, fmt.Errorf("tenant requerido: %w", domain.ErrInvalidInput)
	case email == "" || !strings.Contains(email, "@"):
		return nil, fmt.Errorf("email inválido: %w", domain.ErrInvalidInput)
	case len(in.Password) < minPasswordLength:
		return nil, fmt.Errorf("la contraseña debe tener al menos %d caracteres: %w", minPasswordLength, domain.ErrInvalidInput)
	case !entity.ValidRole(role):
		return nil, fmt.Errorf("rol %q: %w", in.Role, domain.ErrInvalidInput)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), uc.cost)
	if err != nil {
		return nil, fmt.Errorf("hash de contraseña: %w", err)
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		name = email
	}
	now := time.Now().UTC()
	user := &entity.User{
		ID:           uuid.New().String(),
		TenantID:     in.TenantID,
		Email:        email,
		PasswordHash: string(hash),
		Name:         name,
		Role:         role,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := uc.users.Create(ctx, user); err != nil {
		return nil, err
	}
	uc.log.Info().Str("tenant_id", user.TenantID).Str("user_id", user.ID).Str("role", role).Msg("usuario registrado")
	return user, nil
}

// Login verifica email y contraseña y firma un JWT con tenant y rol.
// Usuario inexistente o contraseña errónea -> domain.ErrUnauthorized; usuario inactivo -> domain.ErrForbidden.
func (uc *AuthUseCase) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	user, err := uc.users.GetByEmail(ctx, entity.NormalizeEmail(email))
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, domain.ErrUnauthorized
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return nil, domain.ErrUnauthorized
		}
		return nil, fmt.Errorf("verificar contraseña: %w", err)
	}
	if !user.IsActive {
		return nil, domain.ErrForbidden
	}
	token, exp, err := uc.tokens.Sign(jwt.Subject{UserID: user.ID, TenantID: user.TenantID, Role: user.Role})
	if err != nil {
		return nil, err
	}
	return &LoginResult{Token: token, ExpiresAt: exp, User: user}, nil
}

// ListStaff personal del tenant.
func (uc *AuthUseCase) ListStaff(ctx context.Context, tenantID string) ([]*entity.User, error) {
	if tenantID == "" {
		return nil, domain.ErrInvalidInput
	}
	return uc.users.ListByTenant(ctx, tenantID)
}
