package router

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/amirphl/listing-price-history/app/dto"
	"github.com/amirphl/listing-price-history/app/middleware"
	"github.com/amirphl/listing-price-history/app/services"
	"github.com/amirphl/listing-price-history/config"
	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubHandler answers every route with the route name so dispatch can be asserted
type stubHandler struct{}

func (stubHandler) reply(c fiber.Ctx, name string) error {
	return c.JSON(fiber.Map{"route": name, "listing": c.Params("id"), "history": c.Params("historyId")})
}

func (h stubHandler) List(c fiber.Ctx) error     { return h.reply(c, "list") }
func (h stubHandler) Get(c fiber.Ctx) error      { return h.reply(c, "get") }
func (h stubHandler) Create(c fiber.Ctx) error   { return h.reply(c, "create") }
func (h stubHandler) Update(c fiber.Ctx) error   { return h.reply(c, "update") }
func (h stubHandler) Delete(c fiber.Ctx) error   { return h.reply(c, "delete") }
func (h stubHandler) Analysis(c fiber.Ctx) error { return h.reply(c, "analysis") }
func (h stubHandler) Export(c fiber.Ctx) error   { return h.reply(c, "export") }

func testConfig() *config.ProductionConfig {
	return &config.ProductionConfig{
		Server: config.ServerConfig{
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 5 * time.Second,
			IdleTimeout:  5 * time.Second,
			BodyLimit:    1 << 20,
		},
		Security: config.SecurityConfig{
			AllowedOrigins:  []string{"http://localhost:3000"},
			AllowedMethods:  []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders:  []string{"Authorization", "Content-Type"},
			GlobalRateLimit: 1000,
			RateLimitWindow: time.Minute,
			XFrameOptions:   "DENY",
			ReferrerPolicy:  "no-referrer",
		},
		Metrics:    config.MetricsConfig{Enabled: true, Path: "/metrics"},
		Deployment: config.DeploymentConfig{Environment: "test", Version: "1.2.3"},
	}
}

func newTestRouter(t *testing.T, checks map[string]HealthCheck) (*fiber.App, services.TokenService) {
	t.Helper()

	tokens, err := services.NewTokenService(time.Hour, "test-issuer", "test-audience", "test-secret-key-for-jwt-signing-32-chars")
	require.NoError(t, err)

	r := NewFiberRouter(testConfig(), stubHandler{}, middleware.NewAuthMiddleware(tokens), checks)
	r.SetupRoutes()
	return r.GetApp(), tokens
}

func decode(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var out map[string]any
	require.NoError(t, json.Unmarshal(body, &out))
	return out
}

func TestHealthCheck(t *testing.T) {
	app, _ := newTestRouter(t, map[string]HealthCheck{
		"database": func(context.Context) error { return nil },
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))

	body := decode(t, resp)
	assert.Equal(t, true, body["success"])
	data := body["data"].(map[string]any)
	assert.Equal(t, "1.2.3", data["version"])
	assert.Equal(t, "ok", data["checks"].(map[string]any)["database"])
}

func TestHealthCheck_Degraded(t *testing.T) {
	app, _ := newTestRouter(t, map[string]HealthCheck{
		"database": func(context.Context) error { return nil },
		"cache":    func(context.Context) error { return errors.New("connection refused") },
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

	checks := decode(t, resp)["data"].(map[string]any)["checks"].(map[string]any)
	assert.Equal(t, "connection refused", checks["cache"])
	assert.Equal(t, "ok", checks["database"])
}

func TestPriceHistoryRoutes_RequireBearerToken(t *testing.T) {
	app, _ := newTestRouter(t, nil)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/listings/1/price-history", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestPriceHistoryRoutes_Dispatch(t *testing.T) {
	app, tokens := newTestRouter(t, nil)
	token, err := tokens.GenerateAccessToken(7)
	require.NoError(t, err)

	tests := []struct {
		method  string
		path    string
		route   string
		history string
	}{
		{http.MethodGet, "/api/v1/listings/5/price-history", "list", ""},
		{http.MethodPost, "/api/v1/listings/5/price-history", "create", ""},
		{http.MethodGet, "/api/v1/listings/5/price-history/analysis", "analysis", ""},
		{http.MethodGet, "/api/v1/listings/5/price-history/export", "export", ""},
		{http.MethodGet, "/api/v1/listings/5/price-history/9", "get", "9"},
		{http.MethodPut, "/api/v1/listings/5/price-history/9", "update", "9"},
		{http.MethodDelete, "/api/v1/listings/5/price-history/9", "delete", "9"},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.route, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, nil)
			req.Header.Set("Authorization", "Bearer "+token)

			resp, err := app.Test(req)
			require.NoError(t, err)
			require.Equal(t, http.StatusOK, resp.StatusCode)

			body := decode(t, resp)
			assert.Equal(t, tt.route, body["route"])
			assert.Equal(t, "5", body["listing"])
			assert.Equal(t, tt.history, body["history"])
		})
	}
}

func TestNotFound(t *testing.T) {
	app, _ := newTestRouter(t, nil)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/nope", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	var body dto.APIResponse
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, &body))
	assert.False(t, body.Success)
	assert.Equal(t, "NOT_FOUND", body.Error.(map[string]any)["code"])
}

func TestSwaggerDisabledOutsideDevelopment(t *testing.T) {
	app, _ := newTestRouter(t, nil)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/swagger.json", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
