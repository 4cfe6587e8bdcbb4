// Package jwt firma y verifica los tokens Bearer del personal del restaurante.
package jwt

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrNoSecret el emisor se construyó sin JWT_SECRET.
	ErrNoSecret = errors.New("jwt: secret vacío")
	// ErrNoTenant token válido pero sin restaurante; la API de inventario no lo acepta.
	ErrNoTenant = errors.New("jwt: token sin company_id")
)

// Subject quién opera, en qué restaurante y con qué rol.
type Subject struct {
	UserID   string
	TenantID string
	Role     string // "admin" | "bodeguero" | "vendedor"
}

// Claims claims registrados más la identidad del personal. El tenant viaja como company_id.
type Claims struct {
	jwt.RegisteredClaims
	UserID   string `json:"user_id"`
	TenantID string `json:"company_id"`
	Role     string `json:"role"`
}

// Issuer emite y valida tokens HS256 con un secreto compartido.
type Issuer struct {
	secret []byte
	name   string
	ttl    time.Duration
	now    func() time.Time
}

// NewIssuer ttl es la vigencia de cada token; name se firma como "iss" y se exige al verificar.
func NewIssuer(secret, name string, ttl time.Duration) *Issuer {
	return &Issuer{secret: []byte(secret), name: name, ttl: ttl, now: time.Now}
}

// Sign firma el token y devuelve su vencimiento.
func (i *Issuer) Sign(s Subject) (string, time.Time, error) {
	if len(i.secret) == 0 {
		return "", time.Time{}, ErrNoSecret
	}
	now := i.now()
	exp := now.Add(i.ttl)
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    i.name,
			Subject:   s.UserID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
		UserID:   s.UserID,
		TenantID: s.TenantID,
		Role:     s.Role,
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("firmar token: %w", err)
	}
	return token, exp, nil
}

// Verify valida firma, vencimiento y emisor. Un token sin tenant -> ErrNoTenant.
func (i *Issuer) Verify(token string) (Subject, error) {
	if len(i.secret) == 0 {
		return Subject{}, ErrNoSecret
	}
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(i.now),
	}
	if i.name != "" {
		opts = append(opts, jwt.WithIssuer(i.name))
	}
	var claims Claims
	if _, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (interface{}, error) {
		return i.secret, nil
	}, opts...); err != nil {
		return Subject{}, err
	}
	if claims.TenantID == "" {
		return Subject{}, ErrNoTenant
	}
	return Subject{UserID: claims.UserID, TenantID: claims.TenantID, Role: claims.Role}, nil
}
