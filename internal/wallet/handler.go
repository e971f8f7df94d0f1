package wallet

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// Handler exposes read-only wallet endpoints. Balances are only ever
// written by the ledger engine.
type Handler struct {
	repo Repository
}

// NewHandler builds a wallet HTTP handler.
func NewHandler(repo Repository) *Handler {
	return &Handler{repo: repo}
}

// Balance returns the wallet's current balance.
func (h *Handler) Balance(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("walletId"))
	if err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid wallet id")
	}
	w, err := h.repo.Get(c.UserContext(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return fiber.NewError(http.StatusNotFound, err.Error())
		}
		return err
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{
		"wallet_id":       w.ID.String(),
		"balance":         w.Balance.StringFixed(2),
		"user_id":         w.UserID.String(),
		"game_session_id": w.GameSessionID.String(),
	})
}
