package middleware

import (
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

const CookieName = "bd_session"

// Claims carried in the session cookie token.
type Claims struct {
	UserID uint `json:"uid"`
	jwt.RegisteredClaims
}

// Auth validates the session cookie and attaches the caller's user id to
// the request context. Unauthenticated requests get 401.
func Auth(secret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		tokenStr := c.Cookies(CookieName)
		if tokenStr == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "not authorized"})
		}

		tok, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (any, error) {
			return []byte(secret), nil
		})
		if err != nil || !tok.Valid {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "bad token"})
		}

		cl, ok := tok.Claims.(*Claims)
		if !ok || cl.UserID == 0 {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "bad claims"})
		}

		c.Locals("user_id", cl.UserID)
		return c.Next()
	}
}

// UserID returns the authenticated caller's id set by Auth, or 0.
func UserID(c *fiber.Ctx) uint {
	v, _ := c.Locals("user_id").(uint)
	return v
}
