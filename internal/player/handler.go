package player

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/boardbank/boardbank/internal/session"
	"github.com/boardbank/boardbank/internal/wallet"
)

// Handler exposes player enrollment endpoints.
type Handler struct {
	service *Service
}

// NewHandler builds a player HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type joinRequest struct {
	UserName    string `json:"user_name"`
	AvatarColor string `json:"avatar_color"`
	IsBanker    bool   `json:"is_banker"`
}

type playerResponse struct {
	ID            string `json:"id"`
	UserName      string `json:"user_name"`
	AvatarColor   string `json:"avatar_color"`
	IsBanker      bool   `json:"is_banker"`
	GameSessionID string `json:"game_session_id"`
	WalletID      string `json:"wallet_id,omitempty"`
}

// Join enrolls a player into the session from the path and returns the
// player together with their fresh wallet.
func (h *Handler) Join(c *fiber.Ctx) error {
	sessionID, err := uuid.Parse(c.Params("sessionId"))
	if err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid session id")
	}
	var req joinRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}

	p, w, err := h.service.Join(c.UserContext(), JoinInput{
		GameSessionID: sessionID,
		UserName:      req.UserName,
		AvatarColor:   req.AvatarColor,
		IsBanker:      req.IsBanker,
	})
	if err != nil {
		switch {
		case errors.Is(err, session.ErrNotFound):
			return fiber.NewError(http.StatusNotFound, err.Error())
		case errors.Is(err, ErrSessionClosed):
			return fiber.NewError(http.StatusUnprocessableEntity, err.Error())
		case errors.Is(err, wallet.ErrDuplicate):
			return fiber.NewError(http.StatusConflict, err.Error())
		}
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}

	resp := toResponse(p)
	resp.WalletID = w.ID.String()
	return c.Status(http.StatusCreated).JSON(resp)
}

// ListBySession returns the players seated at the session from the path.
func (h *Handler) ListBySession(c *fiber.Ctx) error {
	sessionID, err := uuid.Parse(c.Params("sessionId"))
	if err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid session id")
	}
	players, err := h.service.ListBySession(c.UserContext(), sessionID)
	if err != nil {
		return err
	}
	out := make([]playerResponse, 0, len(players))
	for _, p := range players {
		out = append(out, toResponse(p))
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"players": out})
}

func toResponse(p Player) playerResponse {
	return playerResponse{
		ID:            p.ID.String(),
		UserName:      p.UserName,
		AvatarColor:   p.AvatarColor,
		IsBanker:      p.IsBanker,
		GameSessionID: p.GameSessionID.String(),
	}
}
