package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/coinwave/azax/internal/settlement"
)

// RegisterTransactionRoutes adds the fiat settlement endpoints.
func RegisterTransactionRoutes(router fiber.Router, h *settlement.Handler) {
	group := router.Group("/transaction")
	group.Post("/depositFiat/:userId", requireSelf("userId"), h.Deposit)
	group.Post("/withdrawFiat/:userId", requireSelf("userId"), h.Withdraw)
	group.Get("/history/:userId", requireSelf("userId"), h.History)
}
