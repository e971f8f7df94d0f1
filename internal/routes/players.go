package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/boardbank/boardbank/internal/player"
)

// RegisterPlayerRoutes wires player join and listing endpoints.
func RegisterPlayerRoutes(r fiber.Router, h *player.Handler, joinLimit fiber.Handler) {
	r.Post("/sessions/:sessionId/players", joinLimit, h.Join)
	r.Get("/sessions/:sessionId/players", h.ListBySession)
}
