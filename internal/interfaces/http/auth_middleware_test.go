package http_test

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apphttp "github.com/jhoicas/stock-ledger/internal/interfaces/http"
	pkgjwt "github.com/jhoicas/stock-ledger/pkg/jwt"
)

const (
	testUserID    = "00000000-0000-0000-0000-000000000001"
	testCompanyID = "00000000-0000-0000-0000-000000000002"
)

var testTokens = pkgjwt.NewIssuer("test-secret-key-for-unit-tests", "stock-ledger-test", time.Hour)

// buildTestApp GET /protected detrás de AuthMiddleware + RequireRole; responde el rol si pasa.
func buildTestApp(allowedRoles ...string) *fiber.App {
	app := fiber.New()
	app.Get("/protected",
		apphttp.AuthMiddleware(testTokens),
		apphttp.RequireRole(allowedRoles...),
		func(c *fiber.Ctx) error {
			return c.JSON(fiber.Map{"role": apphttp.GetRole(c)})
		},
	)
	return app
}

func signWith(t *testing.T, issuer *pkgjwt.Issuer, s pkgjwt.Subject) string {
	t.Helper()
	tok, _, err := issuer.Sign(s)
	require.NoError(t, err)
	return "Bearer " + tok
}

// tokenForRole token del restaurante de prueba con el rol indicado.
func tokenForRole(t *testing.T, role string) string {
	t.Helper()
	return signWith(t, testTokens, pkgjwt.Subject{UserID: testUserID, TenantID: testCompanyID, Role: role})
}

func get(t *testing.T, app *fiber.App, authHeader string) (*http.Response, string) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	resp.Body.Close()
	return resp, string(body)
}

func TestRequireRole(t *testing.T) {
	tests := []struct {
		name    string
		allowed []string
		role    string
		status  int
		code    string
	}{
		{"admin en ruta de admin", []string{"admin"}, "admin", http.StatusOK, ""},
		{"bodeguero en reposición", []string{"admin", "bodeguero"}, "bodeguero", http.StatusOK, ""},
		{"rol en mayúsculas", []string{"vendedor"}, "VENDEDOR", http.StatusOK, ""},
		{"vendedor no administra", []string{"admin"}, "vendedor", http.StatusForbidden, "FORBIDDEN"},
		{"bodeguero no vende", []string{"admin", "vendedor"}, "bodeguero", http.StatusForbidden, "FORBIDDEN"},
		{"token sin rol", []string{"admin"}, "", http.StatusUnauthorized, "MISSING_ROLE"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := get(t, buildTestApp(tt.allowed...), tokenForRole(t, tt.role))
			assert.Equal(t, tt.status, resp.StatusCode)
			if tt.code != "" {
				assert.Contains(t, body, tt.code)
			}
		})
	}
}

func TestAuthMiddleware_Rechazos(t *testing.T) {
	expired := pkgjwt.NewIssuer("test-secret-key-for-unit-tests", "stock-ledger-test", -time.Minute)
	otherSecret := pkgjwt.NewIssuer("otro-secret-completamente-distinto", "stock-ledger-test", time.Hour)
	otherIssuer := pkgjwt.NewIssuer("test-secret-key-for-unit-tests", "otro-servicio", time.Hour)
	subject := pkgjwt.Subject{UserID: testUserID, TenantID: testCompanyID, Role: "admin"}

	tests := []struct {
		name   string
		header string
		code   string
	}{
		{"sin header", "", "MISSING_TOKEN"},
		{"esquema distinto", "Basic dXNlcjpwYXNz", "INVALID_TOKEN"},
		{"malformado", "Bearer token.invalido.aqui", "INVALID_TOKEN"},
		{"expirado", signWith(t, expired, subject), "INVALID_TOKEN"},
		{"otra firma", signWith(t, otherSecret, subject), "INVALID_TOKEN"},
		{"otro emisor", signWith(t, otherIssuer, subject), "INVALID_TOKEN"},
		{"sin restaurante", signWith(t, testTokens, pkgjwt.Subject{UserID: testUserID, Role: "admin"}), "no indica el restaurante"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := get(t, buildTestApp("admin"), tt.header)
			assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
			assert.Contains(t, body, tt.code)
		})
	}
}

func TestAuthMiddleware_CargaLocals(t *testing.T) {
	app := fiber.New()
	app.Get("/me", apphttp.AuthMiddleware(testTokens), func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"user_id":    apphttp.GetUserID(c),
			"company_id": apphttp.GetCompanyID(c),
			"role":       apphttp.GetRole(c),
		})
	})

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", tokenForRole(t, "bodeguero"))
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, testUserID, body["user_id"])
	assert.Equal(t, testCompanyID, body["company_id"])
	assert.Equal(t, "bodeguero", body["role"])
}
