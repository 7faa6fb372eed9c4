package utils_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"

	"github.com/promata/reservas-gateway/internal/utils"
)

type envelope struct {
	Success bool                   `json:"success"`
	Message string                 `json:"message"`
	Data    map[string]interface{} `json:"data"`
	Meta    map[string]interface{} `json:"meta"`
	Details map[string]interface{} `json:"details"`
}

func TestEnvelopes(t *testing.T) {
	cases := []struct {
		name    string
		handler fiber.Handler
		status  int
		check   func(t *testing.T, body envelope)
	}{
		{
			name: "ok carries page meta",
			handler: func(c *fiber.Ctx) error {
				return utils.OK(c, map[string]string{"id": "e1"}, "", map[string]int{"page": 2, "totalPages": 3})
			},
			status: fiber.StatusOK,
			check: func(t *testing.T, body envelope) {
				require.True(t, body.Success)
				require.Equal(t, "success", body.Message)
				require.Equal(t, "e1", body.Data["id"])
				require.Equal(t, float64(2), body.Meta["page"])
				require.Nil(t, body.Details)
			},
		},
		{
			name: "created keeps message",
			handler: func(c *fiber.Ctx) error {
				return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "reservation created", map[string]string{"id": "grp-1"})
			},
			status: fiber.StatusCreated,
			check: func(t *testing.T, body envelope) {
				require.True(t, body.Success)
				require.Equal(t, "reservation created", body.Message)
				require.Nil(t, body.Meta)
			},
		},
		{
			name: "fail exposes details without data",
			handler: func(c *fiber.Ctx) error {
				return utils.Fail(c, fiber.StatusBadRequest, "invalid filters", map[string]string{"key": "page", "reason": "expected integer"})
			},
			status: fiber.StatusBadRequest,
			check: func(t *testing.T, body envelope) {
				require.False(t, body.Success)
				require.Equal(t, "invalid filters", body.Message)
				require.Equal(t, "page", body.Details["key"])
				require.Nil(t, body.Data)
			},
		},
		{
			name: "zero status defaults to 500",
			handler: func(c *fiber.Ctx) error {
				return utils.SendError(c, 0, "")
			},
			status: fiber.StatusInternalServerError,
			check: func(t *testing.T, body envelope) {
				require.False(t, body.Success)
				require.Equal(t, "error", body.Message)
			},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			app := fiber.New()
			app.Get("/", tc.handler)

			resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil), -1)
			require.NoError(t, err)
			defer resp.Body.Close()
			require.Equal(t, tc.status, resp.StatusCode)

			var body envelope
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
			tc.check(t, body)
		})
	}
}
