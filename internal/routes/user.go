package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/coinwave/azax/internal/identity"
)

// RegisterUserRoutes adds the authenticated profile, settings, security and
// notification endpoints. Each route only serves the token's own user.
func RegisterUserRoutes(router fiber.Router, h *identity.Handler) {
	user := router.Group("/user")
	user.Get("/:userId", requireSelf("userId"), h.Profile)
	user.Put("/:userId", requireSelf("userId"), h.UpdateProfile)
	user.Delete("/:userId", requireSelf("userId"), h.Delete)

	settings := router.Group("/settings")
	settings.Get("/:id", requireSelf("id"), h.Settings)
	settings.Put("/:id", requireSelf("id"), h.UpdateSettings)

	security := router.Group("/security")
	security.Get("/twoFactorAuth/:id", requireSelf("id"), h.TwoFactorStatus)
	security.Put("/twoFactorAuth/:id", requireSelf("id"), h.TwoFactorUpdate)
	security.Put("/changePassword/:id", requireSelf("id"), h.ChangePassword)

	notification := router.Group("/notification")
	notification.Get("/:userId", requireSelf("userId"), h.NotificationStatus)
	notification.Put("/:userId", requireSelf("userId"), h.UpdateNotificationStatus)
}
