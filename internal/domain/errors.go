package domain

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Errores de dominio (sin dependencias de infraestructura).
var (
	ErrNotFound           = errors.New("recurso no encontrado")
	ErrInvalidInput       = errors.New("entrada inválida")
	ErrDuplicate          = errors.New("recurso duplicado")
	ErrForbidden          = errors.New("acceso denegado")
	ErrUnauthorized       = errors.New("credenciales inválidas")
	ErrInsufficientStock  = errors.New("stock insuficiente")
	ErrAlreadyApplied     = errors.New("operación ya aplicada")
	ErrLockTimeout        = errors.New("tiempo de espera de bloqueo agotado")
	ErrInvariantViolation = errors.New("violación de invariante")
	ErrInvalidTransition  = errors.New("transición de estado inválida")
)

// InsufficientStockError identifica el primer insumo obligatorio sin stock suficiente.
// errors.Is(err, ErrInsufficientStock) es verdadero.
type InsufficientStockError struct {
	ItemID    string
	Available decimal.Decimal
	Required  decimal.Decimal
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("stock insuficiente para %s: disponible %s, requerido %s",
		e.ItemID, e.Available.String(), e.Required.String())
}

func (e *InsufficientStockError) Is(target error) bool {
	return target == ErrInsufficientStock
}

// InvariantViolationError describe un invariante roto (ledger vs cantidad, alertas abiertas duplicadas).
// Nunca se repara en silencio.
type InvariantViolationError struct {
	ItemID string
	Detail string
}

func (e *InvariantViolationError) Error() string {
	return fmt.Sprintf("violación de invariante en %s: %s", e.ItemID, e.Detail)
}

func (e *InvariantViolationError) Is(target error) bool {
	return target == ErrInvariantViolation
}
