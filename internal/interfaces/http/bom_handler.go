package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/stock-ledger/internal/application/dto"
	"github.com/jhoicas/stock-ledger/internal/application/inventory"
)

// BomHandler recetas de los ítems compuestos (protegido).
type BomHandler struct {
	uc *inventory.BomUseCase
}

// NewBomHandler construye el handler.
func NewBomHandler(uc *inventory.BomUseCase) *BomHandler {
	return &BomHandler{uc: uc}
}

// List godoc
// @Summary      Receta de un compuesto
// @Tags         bom
// @Security     Bearer
// @Produce      json
// @Param        id   path      string  true  "ID del compuesto"
// @Success      200  {array}   dto.BomLinkResponse
// @Router       /api/inventory/composites/{id}/bom [get]
func (h *BomHandler) List(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return unauthorized(c)
	}
	links, err := h.uc.RequirementsFor(c.UserContext(), companyID, c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	out := make([]dto.BomLinkResponse, 0, len(links))
	for _, l := range links {
		out = append(out, toBomResponse(l))
	}
	return c.JSON(out)
}

// Link godoc
// @Summary      Agregar o reemplazar insumo en la receta
// @Tags         bom
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path      string              true  "ID del compuesto"
// @Param        body  body      dto.BomLinkRequest  true  "stock_item_id y quantity_per_unit"
// @Success      201   {object}  dto.BomLinkResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/inventory/composites/{id}/bom [post]
func (h *BomHandler) Link(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return unauthorized(c)
	}
	var in dto.BomLinkRequest
	if ok, err := parseBody(c, &in); !ok {
		return err
	}
	link, err := h.uc.Link(c.UserContext(), inventory.LinkInput{
		TenantID:        companyID,
		CompositeItemID: c.Params("id"),
		StockItemID:     in.StockItemID,
		QuantityPerUnit: in.QuantityPerUnit,
		IsOptional:      in.IsOptional,
		Notes:           in.Notes,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(toBomResponse(*link))
}

// Unlink quita un insumo de la receta.
// @Router /api/inventory/composites/{id}/bom/{itemId} [delete]
func (h *BomHandler) Unlink(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return unauthorized(c)
	}
	if err := h.uc.Unlink(c.UserContext(), companyID, c.Params("id"), c.Params("itemId")); err != nil {
		return writeError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
