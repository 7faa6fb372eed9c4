package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func signToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(testSecret))
	require.NoError(t, err)
	return signed
}

func TestJWTProtectedStoresIdentity(t *testing.T) {
	app := fiber.New()
	app.Use(JWTProtected(testSecret))
	app.Get("/me", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"id":    c.Locals(LocalUserID),
			"role":  c.Locals(LocalUserRole),
			"roles": c.Locals(LocalUserRoles),
			"token": c.Locals(LocalToken),
		})
	})

	token := signToken(t, jwt.MapClaims{
		"sub":   "a7c3e0f2",
		"roles": []string{"GUEST", "ADMIN"},
		"exp":   time.Now().Add(time.Hour).Unix(),
	})
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var body struct {
		ID    string   `json:"id"`
		Role  string   `json:"role"`
		Roles []string `json:"roles"`
		Token string   `json:"token"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.Equal(t, "a7c3e0f2", body.ID)
	require.Equal(t, "admin", body.Role)
	require.Equal(t, []string{"guest", "admin"}, body.Roles)
	require.Equal(t, token, body.Token)
}

func TestJWTProtectedRejectsBadTokens(t *testing.T) {
	app := fiber.New()
	app.Use(JWTProtected(testSecret))
	app.Get("/me", func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) })

	expired := signToken(t, jwt.MapClaims{"sub": "1", "exp": time.Now().Add(-time.Hour).Unix()})
	cases := map[string]string{
		"missing": "",
		"scheme":  "Basic abc",
		"empty":   "Bearer ",
		"garbage": "Bearer not-a-jwt",
		"expired": "Bearer " + expired,
	}
	for name, header := range cases {
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		resp, err := app.Test(req, -1)
		require.NoError(t, err, name)
		require.Equal(t, fiber.StatusUnauthorized, resp.StatusCode, name)
	}
}

func TestNormalizeUserID(t *testing.T) {
	require.Equal(t, "42", normalizeUserID(float64(42)))
	require.Equal(t, "", normalizeUserID(float64(4.2)))
	require.Equal(t, "", normalizeUserID(-1))
	require.Equal(t, "abc", normalizeUserID(" abc "))
}
