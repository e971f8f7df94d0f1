package routes

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/boardbank/boardbank/internal/config"
	"github.com/boardbank/boardbank/internal/ledger"
	"github.com/boardbank/boardbank/internal/middleware"
	"github.com/boardbank/boardbank/internal/notification"
	"github.com/boardbank/boardbank/internal/player"
	"github.com/boardbank/boardbank/internal/session"
	"github.com/boardbank/boardbank/internal/wallet"
)

// Deps aggregates shared dependencies required to wire routes.
type Deps struct {
	Cfg    config.Config
	DB     *pgxpool.Pool
	Cache  *redis.Client
	Logger *slog.Logger
}

// Setup configures middlewares and all application routes.
func Setup(app *fiber.App, d Deps) error {
	// Enforce DB presence outside of dev, even though main also checks.
	if !d.Cfg.IsDev() {
		if d.DB == nil {
			return fmt.Errorf("database is required when APP_ENV=%s", d.Cfg.AppEnv)
		}
		if d.Cache == nil {
			return fmt.Errorf("redis is required when APP_ENV=%s", d.Cfg.AppEnv)
		}
	}

	// Middlewares
	app.Use(recover.New())
	app.Use(middleware.RequestID())
	// Plain text access log in desired format: [HH:MM:SS] 200 -  145ms METHOD /path
	app.Use(logger.New(logger.Config{
		Format:     "[${time}] ${status} -  ${latency} ${method} ${path}\n",
		TimeFormat: "15:04:05",
		TimeZone:   "Local",
	}))
	app.Use(middleware.Audit(d.Logger))
	if d.Cache != nil {
		app.Use(middleware.Idempotency(d.Cache, d.Cfg.IdempotencyTTL, d.Logger))
	}

	// Health
	RegisterHealthRoutes(app, d)

	// Repositories and the ledger store. Without a database the whole state
	// lives in one in-memory store so the ledger and the repositories see the
	// same wallets.
	var (
		sessionRepo session.Repository
		playerRepo  player.Repository
		walletRepo  wallet.Repository
		store       ledger.Store
	)
	if d.DB != nil {
		sessionRepo = session.NewPostgresRepository(d.DB)
		playerRepo = player.NewPostgresRepository(d.DB)
		walletRepo = wallet.NewPostgresRepository(d.DB)
		store = ledger.NewPostgresStore(d.DB)
	} else {
		mem := ledger.NewMemoryStore()
		sessionRepo = mem.Sessions()
		playerRepo = mem.Players()
		walletRepo = mem.Wallets()
		store = mem
	}

	// Services and handlers
	notifier := notification.NewLoggerNotifier(d.Logger)
	engine := ledger.NewEngine(store, d.Logger, notifier)

	sessionHandler := session.NewHandler(session.NewService(sessionRepo))
	playerHandler := player.NewHandler(player.NewService(playerRepo, sessionRepo, walletRepo))
	walletHandler := wallet.NewHandler(walletRepo)
	ledgerHandler := ledger.NewHandler(engine, walletRepo)

	// API routes
	api := app.Group("/api/v1")
	api.Get("/ping", func(c *fiber.Ctx) error {
		reqID, _ := c.Locals("X-Request-ID").(string)
		return c.Status(http.StatusOK).JSON(fiber.Map{
			"status":     "ok",
			"request_id": reqID,
			"timestamp":  time.Now().UTC().Format(time.RFC3339Nano),
		})
	})

	// Public routes: creating a game and joining it happen before any
	// player identity exists.
	joinLimit := middleware.JoinRateLimit(d.Cache, 10)
	RegisterSessionRoutes(api, sessionHandler)
	RegisterPlayerRoutes(api, playerHandler, joinLimit)

	// Money-moving routes require a caller resolved from X-Player-ID.
	protected := api.Group("", middleware.Caller(playerRepo))
	RegisterWalletRoutes(protected, walletHandler)
	RegisterTransactionRoutes(protected, ledgerHandler)

	return nil
}
