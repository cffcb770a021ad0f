package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/coinwave/azax/internal/identity"
)

// RegisterAuthRoutes adds the public registration and credential endpoints.
// Login is rate limited per email to slow credential stuffing.
func RegisterAuthRoutes(app *fiber.App, h *identity.Handler, rateLimiter fiber.Handler) {
	group := app.Group("/auth")
	group.Post("/registerUser", h.Register)
	group.Post("/loginUser", rateLimiter, h.Login)
	group.Post("/verifyEmailOtp", h.VerifyEmailOTP)
	group.Post("/resendEmailVerificationOtp", h.SendOTP(identity.PurposeEmailVerification))
	group.Post("/sendforgotPasswordOtp", h.SendOTP(identity.PurposeForgotPassword))
	group.Post("/resendForgotPasswordOtp", h.SendOTP(identity.PurposeForgotPassword))
	group.Post("/resetPassword", h.ResetPassword)
}
