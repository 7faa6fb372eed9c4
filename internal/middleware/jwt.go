package middleware

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"

	"github.com/promata/reservas-gateway/internal/utils"
)

// Locals keys populated by JWTProtected and CorrelationID.
const (
	LocalUserID        = "user_id"
	LocalUserName      = "user_name"
	LocalUserRole      = "user_role"
	LocalUserRoles     = "user_roles"
	LocalToken         = "access_token"
	LocalCorrelationID = "correlation_id"
)

// JWTProtected returns a middleware that validates JWT bearer tokens. The raw token is kept
// in locals so calls to the backend can be made on the user's behalf.
func JWTProtected(secret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		tokenString, err := bearerToken(c.Get("Authorization"))
		if err != nil {
			return utils.SendError(c, fiber.StatusUnauthorized, err.Error())
		}

		token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method")
			}
			return []byte(secret), nil
		})
		if err != nil || !token.Valid {
			return utils.SendError(c, fiber.StatusUnauthorized, "invalid token")
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			return utils.SendError(c, fiber.StatusUnauthorized, "invalid token claims")
		}

		c.Locals(LocalToken, tokenString)
		if userID := extractUserIDFromClaims(claims); userID != "" {
			c.Locals(LocalUserID, userID)
		}
		if name, ok := claims["name"].(string); ok && strings.TrimSpace(name) != "" {
			c.Locals(LocalUserName, strings.TrimSpace(name))
		}
		roles := extractRolesFromClaims(claims)
		if len(roles) > 0 {
			c.Locals(LocalUserRoles, roles)
			c.Locals(LocalUserRole, primaryRole(roles))
		}

		return c.Next()
	}
}

func bearerToken(authorization string) (string, error) {
	if authorization == "" {
		return "", fmt.Errorf("authorization header missing")
	}

	const bearer = "Bearer "
	if !strings.HasPrefix(strings.ToLower(authorization), strings.ToLower(bearer)) {
		return "", fmt.Errorf("invalid authorization header")
	}

	token := strings.TrimSpace(authorization[len(bearer):])
	if token == "" {
		return "", fmt.Errorf("invalid token")
	}
	return token, nil
}

func extractUserIDFromClaims(claims jwt.MapClaims) string {
	keys := []string{"sub", "user_id", "userId", "id"}
	for _, key := range keys {
		if value, ok := claims[key]; ok {
			if normalized := normalizeUserID(value); normalized != "" {
				return normalized
			}
		}
	}
	return ""
}

func normalizeUserID(value interface{}) string {
	switch v := value.(type) {
	case string:
		return strings.TrimSpace(v)
	case float64:
		if v < 0 || v != float64(int64(v)) {
			return ""
		}
		return strconv.FormatInt(int64(v), 10)
	case int:
		if v < 0 {
			return ""
		}
		return strconv.Itoa(v)
	default:
		return ""
	}
}

func extractRolesFromClaims(claims jwt.MapClaims) []string {
	candidates := []string{"roles", "role", "userType"}
	for _, key := range candidates {
		if value, ok := claims[key]; ok {
			if roles := normalizeRoles(value); len(roles) > 0 {
				return roles
			}
		}
	}
	return nil
}

func normalizeRoles(value interface{}) []string {
	switch v := value.(type) {
	case string:
		if role := strings.ToLower(strings.TrimSpace(v)); role != "" {
			return []string{role}
		}
	case []interface{}:
		roles := make([]string, 0, len(v))
		for _, item := range v {
			if str, ok := item.(string); ok {
				if role := strings.ToLower(strings.TrimSpace(str)); role != "" {
					roles = append(roles, role)
				}
			}
		}
		return roles
	}
	return nil
}

// primaryRole picks the most privileged role so single-role guards see admins first.
func primaryRole(roles []string) string {
	for _, preferred := range []string{"root", "admin", "professor"} {
		for _, role := range roles {
			if role == preferred {
				return role
			}
		}
	}
	return roles[0]
}
