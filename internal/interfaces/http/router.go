package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jhoicas/stock-ledger/internal/application/auth"
	"github.com/jhoicas/stock-ledger/internal/application/inventory"
	"github.com/jhoicas/stock-ledger/pkg/jwt"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	Catalog     *inventory.CatalogUseCase
	Deduction   *inventory.DeductionUseCase
	Bom         *inventory.BomUseCase
	Alerts      *inventory.AlertManager
	LedgerQuery *inventory.LedgerQueryUseCase
	Auth        *auth.AuthUseCase // opcional: sin él no se exponen /api/auth/*
	Tokens      *jwt.Issuer
	ServiceName string
	// Registry opcional: expone /metrics y cuenta respuestas HTTP.
	Registry *prometheus.Registry
	Metrics  httpMetrics
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	if deps.Metrics != nil {
		app.Use(MetricsMiddleware(deps.Metrics))
	}

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": deps.ServiceName})
	})
	if deps.Registry != nil {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{})))
	}

	api := app.Group("/api")

	if deps.Auth != nil {
		authHandler := NewAuthHandler(deps.Auth)
		api.Post("/auth/login", authHandler.Login)
		staff := api.Group("/auth/staff", AuthMiddleware(deps.Tokens), RequireRole(RoleAdmin))
		staff.Post("/", authHandler.RegisterStaff)
		staff.Get("/", authHandler.ListStaff)
	}

	// Todo el inventario es protegido; company_id del token = tenant.
	inv := api.Group("/inventory", AuthMiddleware(deps.Tokens))
	canManage := RequireRole(RoleAdmin)
	canStock := RequireRole(RoleAdmin, RoleBodeguero)
	canSell := RequireRole(RoleAdmin, RoleVendedor)

	// Items
	itemHandler := NewItemHandler(deps.Catalog, deps.Deduction, deps.LedgerQuery)
	items := inv.Group("/items")
	items.Post("/", canManage, itemHandler.Create)
	items.Get("/", itemHandler.List)
	items.Get("/low-stock", itemHandler.ListLowStock)
	items.Get("/reorder-suggestions", itemHandler.ReorderSuggestions)
	items.Get("/:id", itemHandler.GetByID)
	items.Put("/:id/thresholds", canStock, itemHandler.SetThresholds)
	items.Post("/:id/restock", canStock, itemHandler.Restock)
	items.Post("/:id/adjust", canStock, itemHandler.Adjust)
	items.Get("/:id/ledger", itemHandler.Ledger)
	items.Get("/:id/verify", itemHandler.Verify)

	// Deducciones
	deductionHandler := NewDeductionHandler(deps.Deduction)
	inv.Post("/deductions", canSell, deductionHandler.Deduct)
	inv.Post("/deductions/:key/reverse", canManage, deductionHandler.Reverse)

	// Compuestos: recetas y disponibilidad
	bomHandler := NewBomHandler(deps.Bom)
	composites := inv.Group("/composites")
	composites.Get("/:id/availability", deductionHandler.Availability)
	composites.Get("/:id/bom", bomHandler.List)
	composites.Post("/:id/bom", canManage, bomHandler.Link)
	composites.Delete("/:id/bom/:itemId", canManage, bomHandler.Unlink)

	// Alertas
	alertHandler := NewAlertHandler(deps.Alerts)
	alerts := inv.Group("/alerts")
	alerts.Get("/", alertHandler.List)
	alerts.Get("/count", alertHandler.Count)
	alerts.Post("/:id/acknowledge", canStock, alertHandler.Acknowledge)
	alerts.Post("/:id/resolve", canStock, alertHandler.Resolve)

	// Ledger y reportes
	reportHandler := NewReportHandler(deps.LedgerQuery)
	inv.Get("/ledger", reportHandler.Ledger)
	inv.Get("/reports/summary.pdf", reportHandler.SummaryPDF)
	inv.Get("/reports/summary", reportHandler.Summary)
}
