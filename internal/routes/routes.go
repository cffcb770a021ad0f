package routes

import (
	"fmt"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/coinwave/azax/internal/apperr"
	"github.com/coinwave/azax/internal/auth"
	"github.com/coinwave/azax/internal/bank"
	"github.com/coinwave/azax/internal/config"
	"github.com/coinwave/azax/internal/email"
	"github.com/coinwave/azax/internal/identity"
	"github.com/coinwave/azax/internal/ledger"
	"github.com/coinwave/azax/internal/middleware"
	"github.com/coinwave/azax/internal/paystack"
	"github.com/coinwave/azax/internal/settlement"
)

// Deps aggregates shared dependencies required to wire routes. The optional
// fields override the default implementations and exist for tests.
type Deps struct {
	Cfg    config.Config
	DB     *pgxpool.Pool
	Cache  *redis.Client
	Logger *slog.Logger

	Users    identity.Repository
	Store    ledger.Store
	Provider settlement.Provider
	Registry bank.Registry
	Resolver bank.Resolver
	Mail     email.Sender
}

// Setup configures middlewares and all application routes.
func Setup(app *fiber.App, d Deps) error {
	if !isDev(d.Cfg.AppEnv) {
		if d.DB == nil {
			return fmt.Errorf("database is required when APP_ENV=%s", d.Cfg.AppEnv)
		}
		if d.Cache == nil {
			return fmt.Errorf("redis is required when APP_ENV=%s", d.Cfg.AppEnv)
		}
	}

	app.Use(recover.New())
	app.Use(middleware.RequestID())
	app.Use(logger.New(logger.Config{
		Format:     "[${time}] ${status} -  ${latency} ${method} ${path}\n",
		TimeFormat: "15:04:05",
		TimeZone:   "Local",
	}))
	app.Use(middleware.Audit(d.Logger))
	if d.Cache != nil {
		app.Use(middleware.Idempotency(d.Cache, d.Cfg.IdempotencyTTL, d.Logger))
	}

	RegisterHealthRoutes(app, d)

	users := d.Users
	if users == nil {
		if d.DB != nil {
			users = identity.NewPostgresRepository(d.DB)
		} else {
			users = identity.NewMemoryRepository()
		}
	}
	store := d.Store
	if store == nil {
		if d.DB != nil {
			store = ledger.NewPostgresStore(d.DB)
		} else {
			store = ledger.NewMemoryStore()
		}
	}

	gateway := paystack.New(d.Cfg.PaystackBaseURL, d.Cfg.PaystackSecret)
	provider := d.Provider
	if provider == nil {
		provider = gateway
	}
	registry := d.Registry
	if registry == nil {
		registry = gateway
	}
	resolver := d.Resolver
	if resolver == nil {
		resolver = gateway
	}
	mail := d.Mail
	if mail == nil {
		if d.Cfg.SMTPHost != "" {
			mail = email.NewSMTPSender(d.Cfg.SMTPHost, d.Cfg.SMTPPort, d.Cfg.SMTPUsername, d.Cfg.SMTPPassword, d.Cfg.SMTPFrom)
		} else {
			mail = email.NewLogSender(d.Logger)
		}
	}

	identitySvc := identity.NewService(users, mail, d.Cfg.OTPTTL, d.Cfg.AppName)
	tokens := auth.NewTokenManager(d.Cfg.JWTSecret, d.Cfg.TokenTTL)
	directory := bank.NewDirectory(registry)
	bankSvc := bank.NewService(users, directory, resolver)
	settlementSvc := settlement.NewService(users, store, provider, d.Cfg.SettlementAdminID, d.Logger).
		WithCallbackURL(d.Cfg.CallbackBaseURL)

	identityHandler := identity.NewHandler(identitySvc, tokens)
	bankHandler := bank.NewHandler(bankSvc, directory)
	settlementHandler := settlement.NewHandler(settlementSvc)

	rateLimiter := middleware.LoginRateLimit(d.Cache, 5)
	RegisterAuthRoutes(app, identityHandler, rateLimiter)

	jwtmw := middleware.JWTAuth(tokens)
	protected := app.Group("", jwtmw)
	RegisterUserRoutes(protected, identityHandler)
	RegisterBankRoutes(protected, bankHandler)
	RegisterTransactionRoutes(protected, settlementHandler)

	return nil
}

// requireSelf rejects requests whose token subject differs from the path's
// user identifier.
func requireSelf(param string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if middleware.AuthenticatedUser(c) != c.Params(param) {
			return apperr.Authz("cannot operate on another user's account")
		}
		return c.Next()
	}
}

func isDev(env string) bool {
	return env == "" || env == "dev" || env == "development" || env == "local" || env == "test"
}
