package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/stock-ledger/internal/application/dto"
	"github.com/jhoicas/stock-ledger/internal/application/inventory"
	"github.com/jhoicas/stock-ledger/internal/domain"
)

// DeductionHandler deducciones por venta, reversas y disponibilidad (protegido).
type DeductionHandler struct {
	uc *inventory.DeductionUseCase
}

// NewDeductionHandler construye el handler.
func NewDeductionHandler(uc *inventory.DeductionUseCase) *DeductionHandler {
	return &DeductionHandler{uc: uc}
}

// Deduct godoc
// @Summary      Deducir insumos de una venta
// @Description  Expande cada línea por su receta y descuenta todo o nada.
// @Description  Una clave ya aplicada responde 200 ALREADY_APPLIED sin nuevos movimientos.
// @Tags         deductions
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body      dto.DeductRequest  true  "idempotency_key y líneas (composite_item_id, units)"
// @Success      201   {object}  dto.DeductResponse
// @Success      200   {object}  dto.AlreadyAppliedResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.InsufficientStockResponse
// @Failure      503   {object}  dto.ErrorResponse
// @Router       /api/inventory/deductions [post]
func (h *DeductionHandler) Deduct(c *fiber.Ctx) error {
	companyID, userID := GetCompanyID(c), GetUserID(c)
	if companyID == "" || userID == "" {
		return unauthorized(c)
	}
	var in dto.DeductRequest
	if ok, err := parseBody(c, &in); !ok {
		return err
	}
	res, err := h.uc.DeductFromRequest(c.UserContext(), companyID, userID, in)
	if errors.Is(err, domain.ErrAlreadyApplied) {
		return alreadyApplied(c, in.IdempotencyKey)
	}
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(toDeductResponse(res))
}

// Reverse godoc
// @Summary      Revertir una deducción
// @Description  Devuelve al inventario lo descontado por la clave original con causa RETURN.
// @Tags         deductions
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        key   path      string              true  "idempotency_key de la deducción original"
// @Param        body  body      dto.ReverseRequest  true  "reversal_key"
// @Success      201   {object}  dto.DeductResponse
// @Success      200   {object}  dto.AlreadyAppliedResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/inventory/deductions/{key}/reverse [post]
func (h *DeductionHandler) Reverse(c *fiber.Ctx) error {
	companyID, userID := GetCompanyID(c), GetUserID(c)
	if companyID == "" || userID == "" {
		return unauthorized(c)
	}
	var in dto.ReverseRequest
	if ok, err := parseBody(c, &in); !ok {
		return err
	}
	res, err := h.uc.Reverse(c.UserContext(), inventory.ReverseInput{
		TenantID:       companyID,
		IdempotencyKey: c.Params("key"),
		ReversalKey:    in.ReversalKey,
		ActorID:        userID,
	})
	if errors.Is(err, domain.ErrAlreadyApplied) {
		return alreadyApplied(c, in.ReversalKey)
	}
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(toDeductResponse(res))
}

// Availability godoc
// @Summary      Disponibilidad de un compuesto
// @Description  Consulta de solo lectura; no bloquea ni escribe.
// @Tags         deductions
// @Security     Bearer
// @Produce      json
// @Param        id     path      string  true   "ID del compuesto"
// @Param        units  query     int     false  "unidades (por defecto 1)"
// @Success      200    {object}  dto.AvailabilityResponse
// @Router       /api/inventory/composites/{id}/availability [get]
func (h *DeductionHandler) Availability(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return unauthorized(c)
	}
	a, err := h.uc.CheckAvailability(c.UserContext(), companyID, c.Params("id"), c.QueryInt("units", 1))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(toAvailabilityResponse(a))
}
