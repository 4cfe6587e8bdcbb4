package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreateStockItemRequest body para POST /api/inventory/items.
type CreateStockItemRequest struct {
	Code            string           `json:"code" validate:"required,max=60"`
	Name            string           `json:"name" validate:"required,min=1,max=200"`
	Category        string           `json:"category,omitempty" validate:"omitempty,max=100"`
	Unit            string           `json:"unit" validate:"required,max=20"`
	InitialQuantity decimal.Decimal  `json:"initial_quantity"`
	MinimumQuantity decimal.Decimal  `json:"minimum_quantity"`
	MaximumQuantity *decimal.Decimal `json:"maximum_quantity,omitempty"`
	ReorderQuantity *decimal.Decimal `json:"reorder_quantity,omitempty"`
	CostPerUnit     decimal.Decimal  `json:"cost_per_unit"`
}

// SetThresholdsRequest body para PUT /api/inventory/items/:id/thresholds.
type SetThresholdsRequest struct {
	MinimumQuantity decimal.Decimal  `json:"minimum_quantity"`
	MaximumQuantity *decimal.Decimal `json:"maximum_quantity,omitempty"`
	ReorderQuantity *decimal.Decimal `json:"reorder_quantity,omitempty"`
}

// StockItemResponse insumo con su estado derivado.
type StockItemResponse struct {
	ID              string           `json:"id"`
	Code            string           `json:"code"`
	Name            string           `json:"name"`
	Category        string           `json:"category,omitempty"`
	Unit            string           `json:"unit"`
	CurrentQuantity decimal.Decimal  `json:"current_quantity"`
	MinimumQuantity decimal.Decimal  `json:"minimum_quantity"`
	MaximumQuantity *decimal.Decimal `json:"maximum_quantity,omitempty"`
	ReorderQuantity *decimal.Decimal `json:"reorder_quantity,omitempty"`
	CostPerUnit     decimal.Decimal  `json:"cost_per_unit"`
	TotalValue      decimal.Decimal  `json:"total_value"`
	Status          string           `json:"status"`
	IsActive        bool             `json:"is_active"`
	CreatedAt       time.Time        `json:"created_at"`
	UpdatedAt       time.Time        `json:"updated_at"`
}

// RestockRequest body para POST /api/inventory/items/:id/restock.
type RestockRequest struct {
	Quantity       decimal.Decimal  `json:"quantity"`
	CostPerUnit    *decimal.Decimal `json:"cost_per_unit,omitempty"`
	Cause          string           `json:"cause,omitempty" validate:"omitempty,oneof=PURCHASE MANUAL_ADDITION RETURN"`
	Reference      string           `json:"reference,omitempty" validate:"omitempty,max=120"`
	IdempotencyKey string           `json:"idempotency_key,omitempty" validate:"omitempty,max=120"`
	Notes          string           `json:"notes,omitempty" validate:"omitempty,max=500"`
}

// AdjustRequest body para POST /api/inventory/items/:id/adjust.
type AdjustRequest struct {
	Delta          decimal.Decimal `json:"delta"`
	Cause          string          `json:"cause" validate:"required,oneof=PURCHASE MANUAL_ADDITION RETURN ORDER_DEDUCTION WASTAGE MANUAL_DEDUCTION RETURN_TO_SUPPLIER MANUAL_ADJUSTMENT"`
	Reference      string          `json:"reference,omitempty" validate:"omitempty,max=120"`
	IdempotencyKey string          `json:"idempotency_key,omitempty" validate:"omitempty,max=120"`
	Notes          string          `json:"notes,omitempty" validate:"omitempty,max=500"`
}

// DeductionLineRequest unidades vendidas de un ítem compuesto.
type DeductionLineRequest struct {
	CompositeItemID string `json:"composite_item_id" validate:"required"`
	Units           int    `json:"units" validate:"required,min=1"`
}

// DeductRequest body para POST /api/inventory/deductions.
type DeductRequest struct {
	IdempotencyKey string                 `json:"idempotency_key" validate:"required,max=120"`
	Cause          string                 `json:"cause,omitempty" validate:"omitempty,oneof=ORDER_DEDUCTION WASTAGE MANUAL_DEDUCTION"`
	Reference      string                 `json:"reference,omitempty" validate:"omitempty,max=120"`
	Lines          []DeductionLineRequest `json:"lines" validate:"required,min=1,dive"`
}

// ReverseRequest body para POST /api/inventory/deductions/:key/reverse.
type ReverseRequest struct {
	ReversalKey string `json:"reversal_key" validate:"required,max=120"`
}

// SkippedIngredientResponse insumo opcional omitido por falta de stock.
type SkippedIngredientResponse struct {
	StockItemID string          `json:"stock_item_id"`
	Required    decimal.Decimal `json:"required"`
	Available   decimal.Decimal `json:"available"`
}

// DeductResponse cantidades resultantes por insumo tocado.
type DeductResponse struct {
	Quantities map[string]decimal.Decimal  `json:"quantities"`
	Entries    []LedgerEntryResponse       `json:"entries"`
	Skipped    []SkippedIngredientResponse `json:"skipped,omitempty"`
}

// AlreadyAppliedResponse respuesta 200 cuando la clave de idempotencia ya fue consumida.
type AlreadyAppliedResponse struct {
	Code           string `json:"code"`
	IdempotencyKey string `json:"idempotency_key"`
}

// InsufficientStockResponse cuerpo 409 con el primer insumo faltante.
type InsufficientStockResponse struct {
	Code      string          `json:"code"`
	Message   string          `json:"message"`
	ItemID    string          `json:"item_id"`
	Available decimal.Decimal `json:"available"`
	Required  decimal.Decimal `json:"required"`
}

// LedgerEntryResponse movimiento del ledger.
type LedgerEntryResponse struct {
	ID             string          `json:"id"`
	StockItemID    string          `json:"stock_item_id"`
	Delta          decimal.Decimal `json:"delta"`
	QuantityBefore decimal.Decimal `json:"quantity_before"`
	QuantityAfter  decimal.Decimal `json:"quantity_after"`
	CostPerUnit    decimal.Decimal `json:"cost_per_unit"`
	TotalCost      decimal.Decimal `json:"total_cost"`
	Cause          string          `json:"cause"`
	Reference      string          `json:"reference,omitempty"`
	IdempotencyKey string          `json:"idempotency_key,omitempty"`
	ActorID        string          `json:"actor_id,omitempty"`
	Notes          string          `json:"notes,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
}

// AvailabilityLineResponse disponibilidad de un insumo para un compuesto.
type AvailabilityLineResponse struct {
	StockItemID string          `json:"stock_item_id"`
	Required    decimal.Decimal `json:"required"`
	Available   decimal.Decimal `json:"available"`
	Sufficient  bool            `json:"sufficient"`
	Optional    bool            `json:"optional"`
}

// AvailabilityResponse resultado de GET /api/inventory/composites/:id/availability.
type AvailabilityResponse struct {
	CompositeItemID string                     `json:"composite_item_id"`
	Units           int                        `json:"units"`
	Available       bool                       `json:"available"`
	Lines           []AvailabilityLineResponse `json:"lines"`
}

// BomLinkRequest body para POST /api/inventory/composites/:id/bom.
type BomLinkRequest struct {
	StockItemID     string          `json:"stock_item_id" validate:"required"`
	QuantityPerUnit decimal.Decimal `json:"quantity_per_unit"`
	IsOptional      bool            `json:"is_optional"`
	Notes           string          `json:"notes,omitempty" validate:"omitempty,max=500"`
}

// BomLinkResponse vínculo de receta.
type BomLinkResponse struct {
	CompositeItemID string          `json:"composite_item_id"`
	StockItemID     string          `json:"stock_item_id"`
	QuantityPerUnit decimal.Decimal `json:"quantity_per_unit"`
	IsOptional      bool            `json:"is_optional"`
	Notes           string          `json:"notes,omitempty"`
}

// StockAlertResponse alerta de stock.
type StockAlertResponse struct {
	ID             string          `json:"id"`
	StockItemID    string          `json:"stock_item_id"`
	Type           string          `json:"type"`
	Status         string          `json:"status"`
	QuantityAtOpen decimal.Decimal `json:"quantity_at_open"`
	MinimumAtOpen  decimal.Decimal `json:"minimum_at_open"`
	AcknowledgedBy string          `json:"acknowledged_by,omitempty"`
	AcknowledgedAt *time.Time      `json:"acknowledged_at,omitempty"`
	ResolvedAt     *time.Time      `json:"resolved_at,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// AlertCountResponse cantidad de alertas abiertas.
type AlertCountResponse struct {
	Open int `json:"open"`
}

// ReplenishmentSuggestionDTO sugerencia de pedido para un insumo en o bajo su mínimo.
type ReplenishmentSuggestionDTO struct {
	StockItemID        string          `json:"stock_item_id"`
	Code               string          `json:"code"`
	Name               string          `json:"name"`
	Unit               string          `json:"unit"`
	Status             string          `json:"status"`
	CurrentQuantity    decimal.Decimal `json:"current_quantity"`
	MinimumQuantity    decimal.Decimal `json:"minimum_quantity"`
	IdealQuantity      decimal.Decimal `json:"ideal_quantity"`       // máximo, o mínimo * 1.5
	SuggestedOrderQty  decimal.Decimal `json:"suggested_order_qty"`  // múltiplo de la cantidad de reorden si existe
	CostPerUnit        decimal.Decimal `json:"cost_per_unit"`        // costo promedio ponderado
	EstimatedOrderCost decimal.Decimal `json:"estimated_order_cost"` // SuggestedOrderQty * CostPerUnit
	Priority           int             `json:"priority"`             // 1 = más urgente
}

// VerifyResponse resultado de la verificación del ledger para un insumo.
type VerifyResponse struct {
	StockItemID string          `json:"stock_item_id"`
	Quantity    decimal.Decimal `json:"quantity"`
	LedgerSum   decimal.Decimal `json:"ledger_sum"`
	Consistent  bool            `json:"consistent"`
}
