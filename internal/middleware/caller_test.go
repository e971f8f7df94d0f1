package middleware

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/boardbank/boardbank/internal/ledger"
	"github.com/boardbank/boardbank/internal/player"
)

func setupCallerApp(t *testing.T) (*fiber.App, player.Player) {
	t.Helper()
	store := ledger.NewMemoryStore()
	banker := player.Player{
		ID: uuid.New(), UserName: "alice", AvatarColor: "#FF0000",
		IsBanker: true, GameSessionID: uuid.New(),
	}
	if err := store.Players().Create(context.Background(), banker); err != nil {
		t.Fatalf("create player: %v", err)
	}

	app := fiber.New()
	app.Use(Caller(store.Players()))
	app.Post("/op", func(c *fiber.Ctx) error {
		caller, ok := c.Locals(ledger.CallerKey).(ledger.Caller)
		if !ok {
			return fiber.NewError(fiber.StatusInternalServerError, "caller missing")
		}
		return c.JSON(fiber.Map{"user_id": caller.UserID, "is_banker": caller.IsBanker})
	})
	return app, banker
}

func TestCallerResolvesPlayer(t *testing.T) {
	app, banker := setupCallerApp(t)

	req := httptest.NewRequest(fiber.MethodPost, "/op", nil)
	req.Header.Set(playerIDHeader, banker.ID.String())

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("status = %d, want %d", resp.StatusCode, fiber.StatusOK)
	}
}

func TestCallerRejectsUnknownOrMissing(t *testing.T) {
	app, _ := setupCallerApp(t)

	cases := map[string]string{
		"missing header": "",
		"malformed id":   "not-a-uuid",
		"unknown player": uuid.NewString(),
	}
	for name, header := range cases {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(fiber.MethodPost, "/op", nil)
			if header != "" {
				req.Header.Set(playerIDHeader, header)
			}
			resp, err := app.Test(req)
			if err != nil {
				t.Fatalf("app.Test: %v", err)
			}
			if resp.StatusCode != fiber.StatusUnauthorized {
				t.Fatalf("status = %d, want %d", resp.StatusCode, fiber.StatusUnauthorized)
			}
		})
	}
}
