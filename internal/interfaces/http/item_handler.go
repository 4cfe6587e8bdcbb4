package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/stock-ledger/internal/application/dto"
	"github.com/jhoicas/stock-ledger/internal/application/inventory"
	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

// ItemHandler catálogo de insumos, reposiciones, ajustes y ledger por insumo (protegido).
type ItemHandler struct {
	catalog   *inventory.CatalogUseCase
	deduction *inventory.DeductionUseCase
	ledger    *inventory.LedgerQueryUseCase
}

// NewItemHandler construye el handler.
func NewItemHandler(catalog *inventory.CatalogUseCase, deduction *inventory.DeductionUseCase, ledger *inventory.LedgerQueryUseCase) *ItemHandler {
	return &ItemHandler{catalog: catalog, deduction: deduction, ledger: ledger}
}

// Create godoc
// @Summary      Crear insumo
// @Tags         items
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body      dto.CreateStockItemRequest  true  "code, name, unit, cantidades y costo"
// @Success      201   {object}  dto.StockItemResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/inventory/items [post]
func (h *ItemHandler) Create(c *fiber.Ctx) error {
	companyID, userID := GetCompanyID(c), GetUserID(c)
	if companyID == "" {
		return unauthorized(c)
	}
	var in dto.CreateStockItemRequest
	if ok, err := parseBody(c, &in); !ok {
		return err
	}
	item, err := h.catalog.Create(c.UserContext(), inventory.CreateItemInput{
		TenantID:        companyID,
		ActorID:         userID,
		Code:            in.Code,
		Name:            in.Name,
		Category:        in.Category,
		Unit:            in.Unit,
		InitialQuantity: in.InitialQuantity,
		MinimumQuantity: in.MinimumQuantity,
		MaximumQuantity: in.MaximumQuantity,
		ReorderQuantity: in.ReorderQuantity,
		CostPerUnit:     in.CostPerUnit,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(toItemResponse(item))
}

// List godoc
// @Summary      Listar insumos
// @Tags         items
// @Security     Bearer
// @Produce      json
// @Param        status  query  string  false  "IN_STOCK | LOW_STOCK | OUT_OF_STOCK"
// @Param        limit   query  int     false  "máximo 500"
// @Param        offset  query  int     false  "desplazamiento"
// @Success      200  {object}  map[string]interface{}
// @Router       /api/inventory/items [get]
func (h *ItemHandler) List(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return unauthorized(c)
	}
	items, err := h.catalog.List(c.UserContext(), repository.StockItemFilter{
		TenantID: companyID,
		Status:   c.Query("status"),
		Limit:    c.QueryInt("limit", 0),
		Offset:   c.QueryInt("offset", 0),
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{"items": toItemList(items), "total": len(items)})
}

// ListLowStock insumos en o bajo el mínimo.
// @Router /api/inventory/items/low-stock [get]
func (h *ItemHandler) ListLowStock(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return unauthorized(c)
	}
	items, err := h.catalog.ListLowStock(c.UserContext(), companyID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{"items": toItemList(items), "total": len(items)})
}

// ReorderSuggestions godoc
// @Summary      Sugerencias de pedido
// @Description  Insumos en o bajo el mínimo con la cantidad sugerida para volver al ideal.
// @Tags         items
// @Security     Bearer
// @Produce      json
// @Success      200  {array}  dto.ReplenishmentSuggestionDTO
// @Router       /api/inventory/items/reorder-suggestions [get]
func (h *ItemHandler) ReorderSuggestions(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return unauthorized(c)
	}
	list, err := h.catalog.ReorderSuggestions(c.UserContext(), companyID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{"total": len(list), "suggestions": list})
}

// GetByID godoc
// @Summary      Obtener insumo
// @Tags         items
// @Security     Bearer
// @Produce      json
// @Param        id   path      string  true  "ID del insumo"
// @Success      200  {object}  dto.StockItemResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/inventory/items/{id} [get]
func (h *ItemHandler) GetByID(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return unauthorized(c)
	}
	item, err := h.catalog.Get(c.UserContext(), companyID, c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(toItemResponse(item))
}

// SetThresholds godoc
// @Summary      Cambiar mínimo/máximo/reorden
// @Tags         items
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path      string                    true  "ID del insumo"
// @Param        body  body      dto.SetThresholdsRequest  true  "umbrales"
// @Success      200   {object}  dto.StockItemResponse
// @Router       /api/inventory/items/{id}/thresholds [put]
func (h *ItemHandler) SetThresholds(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return unauthorized(c)
	}
	var in dto.SetThresholdsRequest
	if ok, err := parseBody(c, &in); !ok {
		return err
	}
	item, err := h.catalog.SetThresholds(c.UserContext(), inventory.ThresholdsInput{
		TenantID:        companyID,
		ItemID:          c.Params("id"),
		MinimumQuantity: in.MinimumQuantity,
		MaximumQuantity: in.MaximumQuantity,
		ReorderQuantity: in.ReorderQuantity,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(toItemResponse(item))
}

// Restock godoc
// @Summary      Registrar entrada (compra, devolución, ingreso manual)
// @Tags         items
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path      string              true  "ID del insumo"
// @Param        body  body      dto.RestockRequest  true  "cantidad y costo unitario"
// @Success      201   {object}  dto.LedgerEntryResponse
// @Success      200   {object}  dto.AlreadyAppliedResponse
// @Failure      503   {object}  dto.ErrorResponse
// @Router       /api/inventory/items/{id}/restock [post]
func (h *ItemHandler) Restock(c *fiber.Ctx) error {
	companyID, userID := GetCompanyID(c), GetUserID(c)
	if companyID == "" || userID == "" {
		return unauthorized(c)
	}
	var in dto.RestockRequest
	if ok, err := parseBody(c, &in); !ok {
		return err
	}
	entry, err := h.deduction.RestockFromRequest(c.UserContext(), companyID, userID, c.Params("id"), in)
	if errors.Is(err, domain.ErrAlreadyApplied) {
		return alreadyApplied(c, in.IdempotencyKey)
	}
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(toEntryResponse(entry))
}

// Adjust godoc
// @Summary      Ajuste con causa explícita (merma, conteo, devolución a proveedor)
// @Tags         items
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path      string             true  "ID del insumo"
// @Param        body  body      dto.AdjustRequest  true  "delta con signo y causa"
// @Success      201   {object}  dto.LedgerEntryResponse
// @Failure      409   {object}  dto.InsufficientStockResponse
// @Router       /api/inventory/items/{id}/adjust [post]
func (h *ItemHandler) Adjust(c *fiber.Ctx) error {
	companyID, userID := GetCompanyID(c), GetUserID(c)
	if companyID == "" || userID == "" {
		return unauthorized(c)
	}
	var in dto.AdjustRequest
	if ok, err := parseBody(c, &in); !ok {
		return err
	}
	entry, err := h.deduction.AdjustFromRequest(c.UserContext(), companyID, userID, c.Params("id"), in)
	if errors.Is(err, domain.ErrAlreadyApplied) {
		return alreadyApplied(c, in.IdempotencyKey)
	}
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(toEntryResponse(entry))
}

// Ledger movimientos de un insumo.
// @Router /api/inventory/items/{id}/ledger [get]
func (h *ItemHandler) Ledger(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return unauthorized(c)
	}
	itemID := c.Params("id")
	if _, err := h.catalog.Get(c.UserContext(), companyID, itemID); err != nil {
		return writeError(c, err)
	}
	filter, err := ledgerFilterFromQuery(c, companyID)
	if err != nil {
		return writeError(c, err)
	}
	filter.StockItemID = itemID
	entries, err := h.ledger.List(c.UserContext(), filter)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{"entries": toEntryList(entries), "total": len(entries)})
}

// Verify godoc
// @Summary      Verificar cantidad contra la suma del ledger
// @Tags         items
// @Security     Bearer
// @Produce      json
// @Param        id   path      string  true  "ID del insumo"
// @Success      200  {object}  dto.VerifyResponse
// @Failure      500  {object}  dto.VerifyResponse
// @Router       /api/inventory/items/{id}/verify [get]
func (h *ItemHandler) Verify(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return unauthorized(c)
	}
	res, err := h.ledger.Verify(c.UserContext(), companyID, c.Params("id"))
	if err != nil && res == nil {
		return writeError(c, err)
	}
	body := dto.VerifyResponse{
		StockItemID: res.StockItemID,
		Quantity:    res.Quantity,
		LedgerSum:   res.LedgerSum,
		Consistent:  res.Consistent,
	}
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(body)
	}
	return c.JSON(body)
}
