package http

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/stock-ledger/internal/application/inventory"
	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

// ReportHandler ledger del tenant y resumen de inventario (protegido).
type ReportHandler struct {
	ledger *inventory.LedgerQueryUseCase
}

// NewReportHandler construye el handler.
func NewReportHandler(ledger *inventory.LedgerQueryUseCase) *ReportHandler {
	return &ReportHandler{ledger: ledger}
}

// Ledger godoc
// @Summary      Movimientos del ledger
// @Tags         reports
// @Security     Bearer
// @Produce      json
// @Param        item_id          query  string  false  "filtrar por insumo"
// @Param        cause            query  string  false  "filtrar por causa"
// @Param        idempotency_key  query  string  false  "movimientos de una deducción"
// @Param        from             query  string  false  "RFC3339 o YYYY-MM-DD"
// @Param        to               query  string  false  "RFC3339 o YYYY-MM-DD"
// @Success      200  {object}  map[string]interface{}
// @Router       /api/inventory/ledger [get]
func (h *ReportHandler) Ledger(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return unauthorized(c)
	}
	filter, err := ledgerFilterFromQuery(c, companyID)
	if err != nil {
		return writeError(c, err)
	}
	filter.StockItemID = c.Query("item_id")
	entries, err := h.ledger.List(c.UserContext(), filter)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{"entries": toEntryList(entries), "total": len(entries)})
}

// Summary godoc
// @Summary      Resumen de inventario
// @Description  Valor del stock, insumos bajo mínimo, alertas abiertas y costos del rango.
// @Tags         reports
// @Security     Bearer
// @Produce      json
// @Param        from  query  string  false  "por defecto hace 30 días"
// @Param        to    query  string  false  "por defecto ahora"
// @Router       /api/inventory/reports/summary [get]
func (h *ReportHandler) Summary(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return unauthorized(c)
	}
	from, to, err := rangeFromQuery(c)
	if err != nil {
		return writeError(c, err)
	}
	s, err := h.ledger.Summary(c.UserContext(), companyID, from, to)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{
		"tenant_id":          s.TenantID,
		"from":               s.From,
		"to":                 s.To,
		"generated_at":       s.GeneratedAt,
		"item_count":         s.ItemCount,
		"stock_value":        s.StockValue,
		"low_stock_count":    s.LowStockCount,
		"out_of_stock_count": s.OutOfStockCount,
		"open_alerts":        s.OpenAlerts,
		"purchase_cost":      s.PurchaseCost,
		"consumed_cost":      s.ConsumedCost,
		"entries_in_range":   s.EntriesInRange,
		"low_stock_items":    toItemList(s.LowStockItems),
		"recent_entries":     toEntryList(s.RecentEntries),
	})
}

// SummaryPDF godoc
// @Summary      Resumen de inventario en PDF
// @Tags         reports
// @Security     Bearer
// @Produce      application/pdf
// @Router       /api/inventory/reports/summary.pdf [get]
func (h *ReportHandler) SummaryPDF(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return unauthorized(c)
	}
	from, to, err := rangeFromQuery(c)
	if err != nil {
		return writeError(c, err)
	}
	pdf, err := h.ledger.SummaryPDF(c.UserContext(), companyID, from, to)
	if err != nil {
		return writeError(c, err)
	}
	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`inline; filename="inventario_%s.pdf"`, time.Now().Format("20060102")))
	return c.Send(pdf)
}

func ledgerFilterFromQuery(c *fiber.Ctx, tenantID string) (repository.LedgerFilter, error) {
	f := repository.LedgerFilter{
		TenantID:       tenantID,
		Cause:          c.Query("cause"),
		IdempotencyKey: c.Query("idempotency_key"),
		Limit:          c.QueryInt("limit", 0),
		Offset:         c.QueryInt("offset", 0),
	}
	from, to, err := rangeFromQuery(c)
	if err != nil {
		return f, err
	}
	if !from.IsZero() {
		f.From = &from
	}
	if !to.IsZero() {
		f.To = &to
	}
	return f, nil
}

// rangeFromQuery lee from/to; ausentes quedan en cero.
func rangeFromQuery(c *fiber.Ctx) (from, to time.Time, err error) {
	if from, err = parseTime(c.Query("from")); err != nil {
		return
	}
	to, err = parseTime(c.Query("to"))
	return
}

func parseTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("fecha %q: %w", s, domain.ErrInvalidInput)
	}
	return t, nil
}
