package settlement

import (
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/coinwave/azax/internal/ledger"
	"github.com/coinwave/azax/internal/middleware"
)

// Handler exposes HTTP endpoints for fiat deposits and withdrawals.
type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type amountRequest struct {
	Amount int64 `json:"amount"`
}

// ReceiptResponse is the JSON shape of a settled deposit or withdrawal.
type ReceiptResponse struct {
	FiatBalance      int64               `json:"fiatBalance"`
	Transaction      TransactionResponse `json:"transaction"`
	Reference        string              `json:"reference"`
	AuthorizationURL string              `json:"authorizationUrl,omitempty"`
}

// TransactionResponse is one history entry.
type TransactionResponse struct {
	ID          string    `json:"id"`
	Direction   string    `json:"direction"`
	Category    string    `json:"category"`
	Amount      int64     `json:"amount"`
	Description string    `json:"description"`
	Reference   string    `json:"reference"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Deposit funds the user's fiat balance.
func (h *Handler) Deposit(c *fiber.Ctx) error {
	var req amountRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	receipt, err := h.service.Deposit(c.UserContext(), middleware.AuthenticatedUser(c), c.Params("userId"), req.Amount)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(toReceiptResponse(receipt))
}

type withdrawRequest struct {
	Amount int64 `json:"amount"`
	BankDetailsInput
}

// Withdraw pays out of the user's fiat balance to the supplied bank details.
func (h *Handler) Withdraw(c *fiber.Ctx) error {
	var req withdrawRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	receipt, err := h.service.Withdraw(c.UserContext(), middleware.AuthenticatedUser(c), c.Params("userId"), req.Amount, req.BankDetailsInput)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(toReceiptResponse(receipt))
}

// History lists the user's transactions.
func (h *Handler) History(c *fiber.Ctx) error {
	history, err := h.service.History(c.UserContext(), middleware.AuthenticatedUser(c), c.Params("userId"))
	if err != nil {
		return err
	}
	items := make([]TransactionResponse, 0, len(history))
	for _, tx := range history {
		items = append(items, toTransactionResponse(tx))
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"transactions": items})
}

func toReceiptResponse(receipt Receipt) ReceiptResponse {
	return ReceiptResponse{
		FiatBalance:      receipt.FiatBalance,
		Transaction:      toTransactionResponse(receipt.Transaction),
		Reference:        receipt.Reference,
		AuthorizationURL: receipt.AuthorizationURL,
	}
}

func toTransactionResponse(tx ledger.Transaction) TransactionResponse {
	return TransactionResponse{
		ID:          tx.ID,
		Direction:   string(tx.Direction),
		Category:    tx.Category,
		Amount:      tx.Amount,
		Description: tx.Description,
		Reference:   tx.Reference,
		Status:      tx.Status,
		CreatedAt:   tx.CreatedAt,
	}
}
