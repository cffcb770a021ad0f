package bank

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/coinwave/azax/internal/apperr"
	"github.com/coinwave/azax/internal/identity"
	"github.com/coinwave/azax/internal/middleware"
)

// Handler exposes HTTP endpoints for bank linkage.
type Handler struct {
	service   *Service
	directory *Directory
}

func NewHandler(service *Service, directory *Directory) *Handler {
	return &Handler{service: service, directory: directory}
}

// DetailsResponse is the JSON shape of a user's linked bank details.
type DetailsResponse struct {
	BankName      string `json:"bankName"`
	AccountName   string `json:"bankAccountName"`
	AccountNumber string `json:"bankAccountNumber"`
	Code          string `json:"bankCode"`
	Verified      bool   `json:"verified"`
}

func toDetailsResponse(details identity.BankDetails) DetailsResponse {
	return DetailsResponse{
		BankName:      details.BankName,
		AccountName:   details.AccountName,
		AccountNumber: details.AccountNumber,
		Code:          details.Code,
		Verified:      details.Verified,
	}
}

// Supported lists the banks the provider can settle against.
func (h *Handler) Supported(c *fiber.Ctx) error {
	banks, err := h.directory.List(c.UserContext())
	if err != nil {
		return err
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"banks": banks})
}

// Details returns the user's linked bank details.
func (h *Handler) Details(c *fiber.Ctx) error {
	details, err := h.service.Details(c.UserContext(), c.Params("userId"))
	if err != nil {
		return err
	}
	return c.Status(http.StatusOK).JSON(toDetailsResponse(details))
}

// UpdateDetails links a bank account to the user.
func (h *Handler) UpdateDetails(c *fiber.Ctx) error {
	var req struct {
		BankName          string `json:"bankName"`
		BankAccountNumber string `json:"bankAccountNumber"`
	}
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	details, err := h.service.UpdateDetails(c.UserContext(), c.Params("userId"), req.BankName, req.BankAccountNumber)
	if err != nil {
		return err
	}
	return c.Status(http.StatusOK).JSON(toDetailsResponse(details))
}

// VerifyDetails checks the linked account against the provider's records.
func (h *Handler) VerifyDetails(c *fiber.Ctx) error {
	var req struct {
		UserID string `json:"userId"`
	}
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	if middleware.AuthenticatedUser(c) != req.UserID {
		return apperr.Authz("cannot operate on another user's account")
	}
	outcome, details, err := h.service.Verify(c.UserContext(), req.UserID)
	if err != nil {
		return err
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{
		"outcome": outcome,
		"details": toDetailsResponse(details),
	})
}
