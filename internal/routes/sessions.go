package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/boardbank/boardbank/internal/session"
)

// RegisterSessionRoutes wires game session lifecycle endpoints.
func RegisterSessionRoutes(r fiber.Router, h *session.Handler) {
	r.Post("/sessions", h.Create)
	r.Get("/sessions", h.List)
	r.Get("/sessions/:sessionId", h.Get)
	r.Post("/sessions/:sessionId/end", h.End)
}
