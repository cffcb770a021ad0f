package bank

import (
	"context"
	"errors"
	"strings"

	"github.com/coinwave/azax/internal/apperr"
	"github.com/coinwave/azax/internal/identity"
	"github.com/coinwave/azax/internal/paystack"
)

// Resolver looks up the registered holder of a bank account.
type Resolver interface {
	ResolveAccount(ctx context.Context, accountNumber, bankCode string) (string, error)
}

// VerifyOutcome classifies the result of an account verification attempt.
type VerifyOutcome string

const (
	OutcomeVerified     VerifyOutcome = "verified"
	OutcomeNameMismatch VerifyOutcome = "name_mismatch"
)

// Service manages a user's linked bank details.
type Service struct {
	users     identity.Repository
	directory *Directory
	resolver  Resolver
}

func NewService(users identity.Repository, directory *Directory, resolver Resolver) *Service {
	return &Service{users: users, directory: directory, resolver: resolver}
}

// Details returns the user's linked bank details.
func (s *Service) Details(ctx context.Context, userID string) (identity.BankDetails, error) {
	user, err := s.findUser(ctx, userID)
	if err != nil {
		return identity.BankDetails{}, err
	}
	return user.BankDetails, nil
}

// UpdateDetails links a bank account to the user. The bank name is resolved
// against the supported registry and its transfer code cached on the user.
// Changing details always clears the verified flag until the account is
// verified again.
func (s *Service) UpdateDetails(ctx context.Context, userID, bankName, accountNumber string) (identity.BankDetails, error) {
	bankName = strings.TrimSpace(bankName)
	accountNumber = strings.TrimSpace(accountNumber)
	if bankName == "" || accountNumber == "" {
		return identity.BankDetails{}, apperr.Validation("bank name and account number are required")
	}

	user, err := s.findUser(ctx, userID)
	if err != nil {
		return identity.BankDetails{}, err
	}

	resolved, err := s.directory.ResolveByName(ctx, bankName)
	if err != nil {
		return identity.BankDetails{}, err
	}

	user.BankDetails = identity.BankDetails{
		BankName:      resolved.Name,
		AccountNumber: accountNumber,
		Code:          resolved.Code,
	}
	if err := s.users.Update(ctx, user); err != nil {
		return identity.BankDetails{}, apperr.Persistence("could not save bank details", err)
	}
	return user.BankDetails, nil
}

// Verify checks the linked account against the provider's records. On a
// holder name match the account name is stored and the details are marked
// verified.
func (s *Service) Verify(ctx context.Context, userID string) (VerifyOutcome, identity.BankDetails, error) {
	user, err := s.findUser(ctx, userID)
	if err != nil {
		return "", identity.BankDetails{}, err
	}
	if user.BankDetails.AccountNumber == "" || user.BankDetails.Code == "" {
		return "", identity.BankDetails{}, apperr.Validation("no bank details linked")
	}

	holder, err := s.resolver.ResolveAccount(ctx, user.BankDetails.AccountNumber, user.BankDetails.Code)
	if err != nil {
		if isUnresolvable(err) {
			return "", identity.BankDetails{}, apperr.Validation("bank account verification failed, account name cannot be resolved")
		}
		return "", identity.BankDetails{}, apperr.Provider("could not resolve bank account", err)
	}

	if !NameMatches(user.FullName(), holder) {
		return OutcomeNameMismatch, user.BankDetails, nil
	}

	user.BankDetails.AccountName = holder
	user.BankDetails.Verified = true
	if err := s.users.Update(ctx, user); err != nil {
		return "", identity.BankDetails{}, apperr.Persistence("could not save bank details", err)
	}
	return OutcomeVerified, user.BankDetails, nil
}

// isUnresolvable reports whether the resolve failure came back from the
// provider as a rejection of the account details rather than an outage.
// Transport failures and 5xx responses stay provider errors.
func isUnresolvable(err error) bool {
	var provErr *paystack.Error
	if !errors.As(err, &provErr) {
		return false
	}
	return provErr.Err == nil && provErr.StatusCode > 0 && provErr.StatusCode < 500
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
