package unit

import (
	"context"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"

	"github.com/promata/reservas-gateway/internal/config"
	"github.com/promata/reservas-gateway/internal/handler"
	"github.com/promata/reservas-gateway/internal/middleware"
	"github.com/promata/reservas-gateway/internal/router"
)

type response struct {
	Success bool `json:"success"`
	Data    struct {
		Status       string            `json:"status"`
		Dependencies map[string]string `json:"dependencies"`
		Service      string            `json:"service"`
		Environment  string            `json:"environment"`
		Timestamp    time.Time         `json:"timestamp"`
	} `json:"data"`
}

func TestHealthCheck(t *testing.T) {
	cfg := config.Config{
		AppName: "Pro-Mata Gateway",
		AppEnv:  "test",
	}

	app := fiber.New()
	middleware.Register(app, middleware.Config{})
	router.Register(app, cfg, router.Dependencies{})

	req := httptest.NewRequest("GET", "/api/v1/health", nil)
	req.Header.Set("X-Correlation-ID", "health-probe")
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("failed to execute request: %v", err)
	}

	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "health-probe", resp.Header.Get("X-Correlation-ID"))

	var payload response
	err = json.NewDecoder(resp.Body).Decode(&payload)
	assert.NoError(t, err)
	assert.True(t, payload.Success)
	assert.Equal(t, "ok", payload.Data.Status)
	assert.Equal(t, cfg.AppName, payload.Data.Service)
	assert.Equal(t, cfg.AppEnv, payload.Data.Environment)
	assert.WithinDuration(t, time.Now().UTC(), payload.Data.Timestamp, 2*time.Second)
}

func TestHealthCheckReportsDegradedCache(t *testing.T) {
	app := fiber.New()
	router.Register(app, config.Config{AppName: "Pro-Mata Gateway"}, router.Dependencies{
		HealthProbes: map[string]handler.Pinger{
			"database": func(context.Context) error { return nil },
			"redis":    func(context.Context) error { return errors.New("connection refused") },
		},
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/api/v1/health", nil), -1)
	if err != nil {
		t.Fatalf("failed to execute request: %v", err)
	}
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "Pro-Mata Gateway", resp.Header.Get("X-Application"))

	var payload response
	assert.NoError(t, json.NewDecoder(resp.Body).Decode(&payload))
	assert.Equal(t, "degraded", payload.Data.Status)
	assert.Equal(t, map[string]string{"database": "up", "redis": "down"}, payload.Data.Dependencies)
}
