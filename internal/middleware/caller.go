package middleware

import (
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/boardbank/boardbank/internal/ledger"
	"github.com/boardbank/boardbank/internal/player"
)

const playerIDHeader = "X-Player-ID"

// Caller resolves the calling player from the X-Player-ID header and
// injects a ledger.Caller into the request locals. The banker flag reaches
// the engine only through this explicit value; the engine never reads
// identities itself.
func Caller(players player.Repository) fiber.Handler {
	return func(c *fiber.Ctx) error {
		raw := c.Get(playerIDHeader)
		if raw == "" {
			return fiber.NewError(http.StatusUnauthorized, "missing "+playerIDHeader+" header")
		}
		id, err := uuid.Parse(raw)
		if err != nil {
			return fiber.NewError(http.StatusUnauthorized, "invalid "+playerIDHeader+" header")
		}

		p, err := players.Get(c.UserContext(), id)
		if err != nil {
			return fiber.NewError(http.StatusUnauthorized, "unknown player")
		}

		c.Locals(ledger.CallerKey, ledger.Caller{UserID: p.ID, IsBanker: p.IsBanker})
		return c.Next()
	}
}
