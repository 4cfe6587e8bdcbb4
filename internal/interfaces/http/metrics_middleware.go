package http

import (
	"github.com/gofiber/fiber/v2"
)

// httpMetrics lo implementa *metrics.Prometheus.
type httpMetrics interface {
	HTTPResponse(method, route string, status int)
}

// MetricsMiddleware cuenta respuestas por método, patrón de ruta y código.
// Usa el patrón (/items/:id) y no la URL para no disparar la cardinalidad.
func MetricsMiddleware(m httpMetrics) fiber.Handler {
	return func(c *fiber.Ctx) error {
		err := c.Next()
		status := c.Response().StatusCode()
		if err != nil {
			if fe, ok := err.(*fiber.Error); ok {
				status = fe.Code
			} else {
				status = fiber.StatusInternalServerError
			}
		}
		m.HTTPResponse(c.Method(), c.Route().Path, status)
		return err
	}
}
