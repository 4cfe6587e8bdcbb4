package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/stock-ledger/internal/application/dto"
	"github.com/jhoicas/stock-ledger/internal/application/inventory"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

// AlertHandler alertas de stock (protegido).
type AlertHandler struct {
	alerts *inventory.AlertManager
}

// NewAlertHandler construye el handler.
func NewAlertHandler(alerts *inventory.AlertManager) *AlertHandler {
	return &AlertHandler{alerts: alerts}
}

// List godoc
// @Summary      Listar alertas
// @Tags         alerts
// @Security     Bearer
// @Produce      json
// @Param        status  query  string  false  "ACTIVE | ACKNOWLEDGED | RESOLVED"
// @Param        limit   query  int     false  "máximo 500"
// @Param        offset  query  int     false  "desplazamiento"
// @Success      200  {object}  map[string]interface{}
// @Router       /api/inventory/alerts [get]
func (h *AlertHandler) List(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return unauthorized(c)
	}
	list, err := h.alerts.List(c.UserContext(), repository.AlertFilter{
		TenantID: companyID,
		Status:   c.Query("status"),
		Limit:    c.QueryInt("limit", 0),
		Offset:   c.QueryInt("offset", 0),
	})
	if err != nil {
		return writeError(c, err)
	}
	out := make([]dto.StockAlertResponse, 0, len(list))
	for _, a := range list {
		out = append(out, toAlertResponse(a))
	}
	return c.JSON(fiber.Map{"alerts": out, "total": len(out)})
}

// Count alertas abiertas (ACTIVE + ACKNOWLEDGED).
// @Router /api/inventory/alerts/count [get]
func (h *AlertHandler) Count(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return unauthorized(c)
	}
	n, err := h.alerts.CountOpen(c.UserContext(), companyID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.AlertCountResponse{Open: n})
}

// Acknowledge godoc
// @Summary      Reconocer alerta
// @Tags         alerts
// @Security     Bearer
// @Produce      json
// @Param        id   path      string  true  "ID de la alerta"
// @Success      200  {object}  dto.StockAlertResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/inventory/alerts/{id}/acknowledge [post]
func (h *AlertHandler) Acknowledge(c *fiber.Ctx) error {
	companyID, userID := GetCompanyID(c), GetUserID(c)
	if companyID == "" || userID == "" {
		return unauthorized(c)
	}
	a, err := h.alerts.Acknowledge(c.UserContext(), companyID, c.Params("id"), userID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(toAlertResponse(a))
}

// Resolve cierre manual de la alerta.
// @Router /api/inventory/alerts/{id}/resolve [post]
func (h *AlertHandler) Resolve(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return unauthorized(c)
	}
	a, err := h.alerts.Resolve(c.UserContext(), companyID, c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(toAlertResponse(a))
}
