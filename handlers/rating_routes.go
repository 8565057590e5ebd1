// handlers/rating_routes.go
package handlers

import (
	"badminton-ranking-system/middleware"
	"badminton-ranking-system/services"

	"github.com/gofiber/fiber/v2"
)

func SetupRatingRoutes(app *fiber.App, secret string, ratingService *services.RatingService) {
	secured := app.Group("/api", middleware.Auth(secret))

	secured.Get("/leaderboard", ratingService.Leaderboard)
	secured.Get("/dashboard/stats", ratingService.DashboardStats)
}
