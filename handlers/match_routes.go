// handlers/match_routes.go
package handlers

import (
	"badminton-ranking-system/middleware"
	"badminton-ranking-system/services"

	"github.com/gofiber/fiber/v2"
)

func SetupMatchRoutes(app *fiber.App, secret string, playerService *services.PlayerService, matchLogService *services.MatchLogService) {
	secured := app.Group("/api", middleware.Auth(secret))

	secured.Get("/players", playerService.ListPlayers)

	secured.Post("/match-logs", matchLogService.CreateMatchLog)
	secured.Get("/match-logs/inbox", matchLogService.GetInbox)
	secured.Get("/match-logs/history", matchLogService.GetHistory)
	secured.Post("/match-logs/:id/decision", matchLogService.SubmitDecisionHandler)
}
