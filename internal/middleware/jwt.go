package middleware

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"

	"github.com/ssms-dev/ssms-api/internal/utils"
)

// accessClaims is the token shape issued by the SSMS auth service: the
// numeric user id in the subject and the role as a flat claim. Older tokens
// carry the id in a user_id claim instead; both are accepted.
type accessClaims struct {
	Role   string `json:"role"`
	UserID uint   `json:"user_id,omitempty"`
	jwt.RegisteredClaims
}

// JWTProtected validates bearer tokens and exposes the caller's identity to
// downstream handlers as the user_id and user_role locals.
func JWTProtected(secret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		header := c.Get(fiber.HeaderAuthorization)
		if strings.TrimSpace(header) == "" {
			return utils.SendError(c, fiber.StatusUnauthorized, "authorization header missing")
		}

		tokenString := bearerToken(header)
		if tokenString == "" {
			return utils.SendError(c, fiber.StatusUnauthorized, "invalid authorization header")
		}

		claims := &accessClaims{}
		token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
			return []byte(secret), nil
		}, jwt.WithValidMethods([]string{"HS256", "HS384", "HS512"}))
		if err != nil || !token.Valid {
			return utils.SendError(c, fiber.StatusUnauthorized, "invalid token")
		}

		userID := claims.UserID
		if userID == 0 {
			if parsed, err := strconv.ParseUint(claims.Subject, 10, 64); err == nil {
				userID = uint(parsed)
			}
		}
		if userID == 0 {
			return utils.SendError(c, fiber.StatusUnauthorized, "invalid token claims")
		}

		c.Locals("user_id", userID)
		if role := strings.ToLower(strings.TrimSpace(claims.Role)); role != "" {
			c.Locals("user_role", role)
		}

		return c.Next()
	}
}

func bearerToken(header string) string {
	const prefix = "bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return ""
	}
	return strings.TrimSpace(header[len(prefix):])
}
