package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	defaultAppName           = "Azax"
	defaultAppEnv            = "development"
	defaultPort              = "8080"
	defaultLogLevel          = "info"
	defaultShutdownPeriod    = 10 * time.Second
	defaultIdempotencyTTL    = 24 * time.Hour
	defaultTokenTTL          = 168 * time.Hour
	defaultOTPTTL            = 90 * time.Second
	defaultPaystackBaseURL   = "https://api.paystack.co"
	defaultReconcileSchedule = "@every 1h"
)

// Config captures application runtime configuration loaded from environment
// variables (and an optional .env file loaded by main).
type Config struct {
	AppName        string
	AppEnv         string
	Port           string
	LogLevel       string
	DatabaseURL    string
	RedisURL       string
	ShutdownPeriod time.Duration
	IdempotencyTTL time.Duration

	JWTSecret string
	TokenTTL  time.Duration
	OTPTTL    time.Duration

	PaystackBaseURL string
	PaystackSecret  string
	CallbackBaseURL string

	// SettlementAdminID is the identity whose ledger account is the platform
	// counterparty for every fiat settlement. Set at provisioning time.
	SettlementAdminID string

	ReconcileSchedule string

	SMTPHost     string
	SMTPPort     string
	SMTPUsername string
	SMTPPassword string
	SMTPFrom     string
}

// Load reads configuration values from the environment and populates a Config
// instance. Values the process cannot run without are reported as errors so
// startup fails fast.
func Load() (Config, error) {
	v := viper.New()
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("APP_NAME", defaultAppName)
	v.SetDefault("APP_ENV", defaultAppEnv)
	v.SetDefault("PORT", defaultPort)
	v.SetDefault("LOG_LEVEL", defaultLogLevel)
	v.SetDefault("SHUTDOWN_TIMEOUT", defaultShutdownPeriod)
	v.SetDefault("IDEMPOTENCY_TTL", defaultIdempotencyTTL)
	v.SetDefault("TOKEN_TTL", defaultTokenTTL)
	v.SetDefault("OTP_TTL", defaultOTPTTL)
	v.SetDefault("PAYSTACK_BASE_URL", defaultPaystackBaseURL)
	v.SetDefault("RECONCILE_SCHEDULE", defaultReconcileSchedule)
	v.SetDefault("SMTP_PORT", "587")

	cfg := Config{
		AppName:           v.GetString("APP_NAME"),
		AppEnv:            v.GetString("APP_ENV"),
		Port:              v.GetString("PORT"),
		LogLevel:          strings.ToLower(v.GetString("LOG_LEVEL")),
		DatabaseURL:       v.GetString("DATABASE_URL"),
		RedisURL:          v.GetString("REDIS_URL"),
		ShutdownPeriod:    v.GetDuration("SHUTDOWN_TIMEOUT"),
		IdempotencyTTL:    v.GetDuration("IDEMPOTENCY_TTL"),
		JWTSecret:         v.GetString("JWT_SECRET"),
		TokenTTL:          v.GetDuration("TOKEN_TTL"),
		OTPTTL:            v.GetDuration("OTP_TTL"),
		PaystackBaseURL:   v.GetString("PAYSTACK_BASE_URL"),
		PaystackSecret:    v.GetString("PAYSTACK_SECRET_KEY"),
		CallbackBaseURL:   v.GetString("CALLBACK_BASE_URL"),
		SettlementAdminID: v.GetString("SETTLEMENT_ADMIN_ID"),
		ReconcileSchedule: v.GetString("RECONCILE_SCHEDULE"),
		SMTPHost:          v.GetString("SMTP_HOST"),
		SMTPPort:          v.GetString("SMTP_PORT"),
		SMTPUsername:      v.GetString("SMTP_USERNAME"),
		SMTPPassword:      v.GetString("SMTP_PASSWORD"),
		SMTPFrom:          v.GetString("SMTP_FROM"),
	}

	for name, value := range map[string]string{
		"DATABASE_URL":        cfg.DatabaseURL,
		"REDIS_URL":           cfg.RedisURL,
		"JWT_SECRET":          cfg.JWTSecret,
		"PAYSTACK_SECRET_KEY": cfg.PaystackSecret,
		"SETTLEMENT_ADMIN_ID": cfg.SettlementAdminID,
	} {
		if value == "" {
			return Config{}, fmt.Errorf("%s must be set", name)
		}
	}

	return cfg, nil
}

// Address returns the listen address in the format Fiber expects.
func (c Config) Address() string {
	if strings.HasPrefix(c.Port, ":") {
		return c.Port
	}
	return fmt.Sprintf(":%s", c.Port)
}
