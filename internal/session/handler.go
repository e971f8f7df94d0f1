package session

import (
	"errors"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// Handler exposes session lifecycle endpoints.
type Handler struct {
	service *Service
}

// NewHandler builds a session HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type createRequest struct {
	Name string `json:"name"`
}

type sessionResponse struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	IsActive  bool       `json:"is_active"`
	CreatedAt time.Time  `json:"created_at"`
	EndedAt   *time.Time `json:"ended_at,omitempty"`
}

// Create provisions a new game session.
func (h *Handler) Create(c *fiber.Ctx) error {
	var req createRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	sess, err := h.service.Create(c.UserContext(), req.Name)
	if err != nil {
		if errors.Is(err, ErrNameTaken) {
			return fiber.NewError(http.StatusConflict, err.Error())
		}
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	return c.Status(http.StatusCreated).JSON(toResponse(sess))
}

// List returns all sessions.
func (h *Handler) List(c *fiber.Ctx) error {
	sessions, err := h.service.List(c.UserContext())
	if err != nil {
		return err
	}
	out := make([]sessionResponse, 0, len(sessions))
	for _, sess := range sessions {
		out = append(out, toResponse(sess))
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"sessions": out})
}

// Get returns one session.
func (h *Handler) Get(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("sessionId"))
	if err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid session id")
	}
	sess, err := h.service.Get(c.UserContext(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return fiber.NewError(http.StatusNotFound, err.Error())
		}
		return err
	}
	return c.Status(http.StatusOK).JSON(toResponse(sess))
}

// End closes a session, freezing its economy.
func (h *Handler) End(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("sessionId"))
	if err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid session id")
	}
	sess, err := h.service.End(c.UserContext(), id)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			return fiber.NewError(http.StatusNotFound, err.Error())
		case errors.Is(err, ErrAlreadyEnded):
			return fiber.NewError(http.StatusConflict, err.Error())
		}
		return err
	}
	return c.Status(http.StatusOK).JSON(toResponse(sess))
}

func toResponse(sess Session) sessionResponse {
	return sessionResponse{
		ID:        sess.ID.String(),
		Name:      sess.Name,
		IsActive:  sess.IsActive,
		CreatedAt: sess.CreatedAt,
		EndedAt:   sess.EndedAt,
	}
}
