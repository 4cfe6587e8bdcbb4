package entity

import (
	"strings"
	"time"
)

// Roles del personal del restaurante. Viajan en el claim "role" del JWT.
const (
	RoleAdmin     = "admin"     // catálogo, recetas, ajustes y reversas
	RoleBodeguero = "bodeguero" // compras, mermas y alertas
	RoleVendedor  = "vendedor"  // deducciones por venta
)

// User miembro del personal de un restaurante (tenant) con acceso a la API.
type User struct {
	ID           string
	TenantID     string
	Email        string // único global; es el usuario de login
	PasswordHash string // bcrypt
	Name         string
	Role         string
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// ValidRole indica si role es uno de los roles reconocidos.
func ValidRole(role string) bool {
	switch role {
	case RoleAdmin, RoleBodeguero, RoleVendedor:
		return true
	}
	return false
}

// NormalizeEmail minúsculas y sin espacios.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
