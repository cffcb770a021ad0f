package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/coinwave/azax/internal/bank"
)

// RegisterBankRoutes adds the bank registry and linkage endpoints.
func RegisterBankRoutes(router fiber.Router, h *bank.Handler) {
	group := router.Group("/bank")
	group.Get("/supported", h.Supported)
	group.Get("/:userId", requireSelf("userId"), h.Details)
	group.Put("/updateDetails/:userId", requireSelf("userId"), h.UpdateDetails)
	group.Post("/verifyDetails", h.VerifyDetails)
}
