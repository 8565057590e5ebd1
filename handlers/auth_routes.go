// handlers/auth_routes.go
package handlers

import (
	"badminton-ranking-system/middleware"
	"badminton-ranking-system/services"

	"github.com/gofiber/fiber/v2"
)

func SetupAuthRoutes(app *fiber.App, authService *services.AuthService) {
	auth := app.Group("/api/auth")

	auth.Post("/register", authService.Register)
	auth.Post("/login", authService.Login)
	auth.Post("/logout", authService.Logout)

	// Session lookup requires a valid cookie.
	auth.Get("/session", middleware.Auth(authService.Secret), authService.Session)
}
