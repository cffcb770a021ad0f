// Package settlement orchestrates fiat deposits and withdrawals: the external
// provider leg runs first, then both ledger sides commit atomically under the
// provider's reference.
package settlement

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/coinwave/azax/internal/apperr"
	"github.com/coinwave/azax/internal/identity"
	"github.com/coinwave/azax/internal/ledger"
	"github.com/coinwave/azax/internal/paystack"
)

var validate = validator.New()

// Provider is the external money movement gateway.
type Provider interface {
	InitializeDeposit(ctx context.Context, email string, amount int64, callbackURL string) (paystack.DepositIntent, error)
	FindOrCreateRecipient(ctx context.Context, input paystack.RecipientInput) (string, error)
	ExecuteTransfer(ctx context.Context, recipientCode string, amount int64, reason string) (string, error)
}

// Receipt reports the user's side of a completed settlement.
type Receipt struct {
	FiatBalance      int64
	Transaction      ledger.Transaction
	Reference        string
	AuthorizationURL string
}

// Service runs deposits and withdrawals against the two-party ledger.
type Service struct {
	users       identity.Repository
	store       ledger.Store
	provider    Provider
	adminID     string
	callbackURL string
	logger      *slog.Logger
}

func NewService(users identity.Repository, store ledger.Store, provider Provider, adminID string, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		users:    users,
		store:    store,
		provider: provider,
		adminID:  adminID,
		logger:   logger,
	}
}

// WithCallbackURL sets the redirect target passed on deposit initialization.
func (s *Service) WithCallbackURL(url string) *Service {
	s.callbackURL = url
	return s
}

// Deposit initializes a provider charge for the amount and credits both the
// user's and the platform account. The account is created on first deposit.
func (s *Service) Deposit(ctx context.Context, callerID, userID string, amount int64) (Receipt, error) {
	if err := s.authorize(callerID, userID); err != nil {
		return Receipt{}, err
	}
	if amount <= 0 {
		return Receipt{}, apperr.Validation("amount must be greater than zero")
	}
	user, err := s.findUser(ctx, userID)
	if err != nil {
		return Receipt{}, err
	}

	intent, err := s.provider.InitializeDeposit(ctx, user.Email, amount, s.callbackURL)
	if err != nil {
		return Receipt{}, apperr.Provider("could not initialize deposit", err)
	}

	if _, err := s.store.EnsureForOwner(ctx, userID); err != nil {
		return Receipt{}, apperr.Persistence("could not open account", err)
	}
	if _, err := s.store.EnsureForOwner(ctx, s.adminID); err != nil {
		return Receipt{}, apperr.Persistence("could not open platform account", err)
	}

	result, err := s.store.ApplyPair(ctx, intent.Reference,
		ledger.Entry{OwnerID: userID, Delta: amount, Direction: ledger.DirectionCredit, Description: "Fiat deposit"},
		ledger.Entry{OwnerID: s.adminID, Delta: amount, Direction: ledger.DirectionCredit, Description: "Fiat deposit"},
	)
	if err != nil {
		return Receipt{}, apperr.Persistence("could not settle deposit", err)
	}

	s.logger.Info("fiat deposit settled", "user_id", userID, "amount", amount, "reference", intent.Reference)
	return Receipt{
		FiatBalance:      result.UserAccount.FiatBalance,
		Transaction:      result.UserTransaction,
		Reference:        intent.Reference,
		AuthorizationURL: intent.AuthorizationURL,
	}, nil
}

// BankDetailsInput is the payout destination the caller supplies on a
// withdrawal. All fields are required and must agree with the verified
// details stored on the user.
type BankDetailsInput struct {
	BankName          string `json:"bankName" validate:"required"`
	BankAccountName   string `json:"bankAccountName" validate:"required"`
	BankAccountNumber string `json:"bankAccountNumber" validate:"required"`
}

// Withdraw pays the amount out to the user's verified bank account and debits
// both the user's and the platform account.
func (s *Service) Withdraw(ctx context.Context, callerID, userID string, amount int64, details BankDetailsInput) (Receipt, error) {
	if err := s.authorize(callerID, userID); err != nil {
		return Receipt{}, err
	}
	if amount <= 0 {
		return Receipt{}, apperr.Validation("amount must be greater than zero")
	}
	if err := validate.Struct(details); err != nil {
		return Receipt{}, apperr.Validation("incomplete bank details, withdrawal cannot be completed")
	}
	user, err := s.findUser(ctx, userID)
	if err != nil {
		return Receipt{}, err
	}
	if user.BankDetails.AccountNumber == "" || user.BankDetails.Code == "" {
		return Receipt{}, apperr.Validation("no bank details linked")
	}
	if !user.BankDetails.Verified {
		return Receipt{}, apperr.Validation("bank details not verified")
	}
	if details.BankAccountNumber != user.BankDetails.AccountNumber ||
		!strings.EqualFold(strings.TrimSpace(details.BankName), user.BankDetails.BankName) ||
		!strings.EqualFold(strings.TrimSpace(details.BankAccountName), user.BankDetails.AccountName) {
		return Receipt{}, apperr.Validation("bank details do not match the verified bank details")
	}

	account, err := s.store.GetByOwner(ctx, userID)
	if err != nil {
		if errors.Is(err, ledger.ErrAccountNotFound) {
			return Receipt{}, apperr.NotFound("account not found")
		}
		return Receipt{}, apperr.Persistence("could not load account", err)
	}
	if account.FiatBalance < amount {
		return Receipt{}, apperr.Validation("insufficient funds")
	}

	recipient, err := s.provider.FindOrCreateRecipient(ctx, paystack.RecipientInput{
		Name:          user.BankDetails.AccountName,
		AccountNumber: user.BankDetails.AccountNumber,
		BankCode:      user.BankDetails.Code,
	})
	if err != nil {
		return Receipt{}, apperr.Provider("could not prepare payout recipient", err)
	}
	reference, err := s.provider.ExecuteTransfer(ctx, recipient, amount, "Fiat withdrawal")
	if err != nil {
		return Receipt{}, apperr.Provider("could not execute payout", err)
	}

	if _, err := s.store.EnsureForOwner(ctx, s.adminID); err != nil {
		return Receipt{}, apperr.Persistence("could not open platform account", err)
	}

	result, err := s.store.ApplyPair(ctx, reference,
		ledger.Entry{OwnerID: userID, Delta: -amount, Direction: ledger.DirectionDebit, Description: "Fiat withdrawal"},
		ledger.Entry{OwnerID: s.adminID, Delta: -amount, Direction: ledger.DirectionDebit, Description: "Fiat withdrawal"},
	)
	if err != nil {
		if errors.Is(err, ledger.ErrInsufficientFunds) {
			return Receipt{}, apperr.Validation("insufficient funds")
		}
		if errors.Is(err, ledger.ErrAccountNotFound) {
			return Receipt{}, apperr.NotFound("account not found")
		}
		return Receipt{}, apperr.Persistence("could not settle withdrawal", err)
	}

	s.logger.Info("fiat withdrawal settled", "user_id", userID, "amount", amount, "reference", reference)
	return Receipt{
		FiatBalance: result.UserAccount.FiatBalance,
		Transaction: result.UserTransaction,
		Reference:   reference,
	}, nil
}

// History lists the user's settled transactions, newest first.
func (s *Service) History(ctx context.Context, callerID, userID string) ([]ledger.Transaction, error) {
	if err := s.authorize(callerID, userID); err != nil {
		return nil, err
	}
	if _, err := s.findUser(ctx, userID); err != nil {
		return nil, err
	}
	history, err := s.store.History(ctx, userID)
	if err != nil {
		return nil, apperr.Persistence("could not load transaction history", err)
	}
	return history, nil
}

// Balance returns the user's current fiat balance, zero when no account has
// been opened yet.
func (s *Service) Balance(ctx context.Context, callerID, userID string) (int64, error) {
	if err := s.authorize(callerID, userID); err != nil {
		return 0, err
	}
	account, err := s.store.GetByOwner(ctx, userID)
	if errors.Is(err, ledger.ErrAccountNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, apperr.Persistence("could not load account", err)
	}
	return account.FiatBalance, nil
}

func (s *Service) authorize(callerID, userID string) error {
	if callerID != userID {
		return apperr.Authz("cannot operate on another user's account")
	}
	return nil
}

func (s *Service) findUser(ctx context.Context, userID string) (identity.User, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, identity.ErrNotFound) {
			return identity.User{}, apperr.NotFound("user not found")
		}
		return identity.User{}, apperr.Persistence("could not load user", err)
	}
	return user, nil
}
