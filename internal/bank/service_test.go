package bank

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/coinwave/azax/internal/apperr"
	"github.com/coinwave/azax/internal/identity"
	"github.com/coinwave/azax/internal/paystack"
)

type stubRegistry struct {
	banks []paystack.Bank
	err   error
}

func (r *stubRegistry) ListBanks(context.Context) ([]paystack.Bank, error) {
	return r.banks, r.err
}

type stubResolver struct {
	holder string
	err    error
}

func (r *stubResolver) ResolveAccount(context.Context, string, string) (string, error) {
	return r.holder, r.err
}

var testBanks = []paystack.Bank{
	{ID: 1, Name: "First Bank of Nigeria", Code: "011", Slug: "first-bank"},
	{ID: 2, Name: "Guaranty Trust Bank", Code: "058", Slug: "gtbank"},
}

func newBankFixture(t *testing.T, resolver *stubResolver) (*Service, identity.Repository, string) {
	t.Helper()
	users := identity.NewMemoryRepository()
	user := identity.User{
		ID:        uuid.NewString(),
		Username:  "ada",
		FirstName: "Ada",
		LastName:  "Obi",
		Email:     "ada@example.com",
	}
	require.NoError(t, users.Create(context.Background(), user))

	directory := NewDirectory(&stubRegistry{banks: testBanks})
	return NewService(users, directory, resolver), users, user.ID
}

func TestResolveByNameIgnoresCase(t *testing.T) {
	directory := NewDirectory(&stubRegistry{banks: testBanks})

	bank, err := directory.ResolveByName(context.Background(), "  guaranty trust bank ")
	require.NoError(t, err)
	require.Equal(t, "058", bank.Code)

	_, err = directory.ResolveByName(context.Background(), "Unknown Bank")
	require.True(t, apperr.IsKind(err, apperr.KindNotFound))
}

func TestResolveByNameProviderFailure(t *testing.T) {
	directory := NewDirectory(&stubRegistry{err: errors.New("timeout")})

	_, err := directory.ResolveByName(context.Background(), "First Bank of Nigeria")
	require.True(t, apperr.IsKind(err, apperr.KindProvider))
}

func TestUpdateDetailsCachesCodeAndResetsVerified(t *testing.T) {
	svc, users, userID := newBankFixture(t, &stubResolver{holder: "OBI ADA"})
	ctx := context.Background()

	// Verify the first linkage.
	_, err := svc.UpdateDetails(ctx, userID, "First Bank of Nigeria", "0123456789")
	require.NoError(t, err)
	outcome, details, err := svc.Verify(ctx, userID)
	require.NoError(t, err)
	require.Equal(t, OutcomeVerified, outcome)
	require.True(t, details.Verified)
	require.Equal(t, "OBI ADA", details.AccountName)

	// Relinking different details drops the verified flag.
	details, err = svc.UpdateDetails(ctx, userID, "guaranty trust bank", "9876543210")
	require.NoError(t, err)
	require.Equal(t, "Guaranty Trust Bank", details.BankName)
	require.Equal(t, "058", details.Code)
	require.False(t, details.Verified)

	stored, err := users.FindByID(ctx, userID)
	require.NoError(t, err)
	require.False(t, stored.BankDetails.Verified)
}

func TestUpdateDetailsValidation(t *testing.T) {
	svc, _, userID := newBankFixture(t, &stubResolver{})

	_, err := svc.UpdateDetails(context.Background(), userID, "", "0123456789")
	require.True(t, apperr.IsKind(err, apperr.KindValidation))

	_, err = svc.UpdateDetails(context.Background(), userID, "Unknown Bank", "0123456789")
	require.True(t, apperr.IsKind(err, apperr.KindNotFound))

	_, err = svc.UpdateDetails(context.Background(), uuid.NewString(), "First Bank of Nigeria", "0123456789")
	require.True(t, apperr.IsKind(err, apperr.KindNotFound))
}

func TestVerifyNameMismatch(t *testing.T) {
	svc, users, userID := newBankFixture(t, &stubResolver{holder: "CHUKWU EMEKA"})
	ctx := context.Background()

	_, err := svc.UpdateDetails(ctx, userID, "First Bank of Nigeria", "0123456789")
	require.NoError(t, err)

	outcome, details, err := svc.Verify(ctx, userID)
	require.NoError(t, err)
	require.Equal(t, OutcomeNameMismatch, outcome)
	require.False(t, details.Verified)

	stored, err := users.FindByID(ctx, userID)
	require.NoError(t, err)
	require.False(t, stored.BankDetails.Verified)
}

func TestVerifyWithoutLinkedDetails(t *testing.T) {
	svc, _, userID := newBankFixture(t, &stubResolver{holder: "OBI ADA"})

	_, _, err := svc.Verify(context.Background(), userID)
	require.True(t, apperr.IsKind(err, apperr.KindValidation))
}

func TestVerifyUnresolvableAccountIsValidation(t *testing.T) {
	// The provider answered but rejected the account details.
	resolver := &stubResolver{err: &paystack.Error{
		Op:         "resolve account",
		Message:    "Could not resolve account name",
		StatusCode: 422,
	}}
	svc, _, userID := newBankFixture(t, resolver)
	ctx := context.Background()

	_, err := svc.UpdateDetails(ctx, userID, "First Bank of Nigeria", "0123456789")
	require.NoError(t, err)

	_, _, err = svc.Verify(ctx, userID)
	require.True(t, apperr.IsKind(err, apperr.KindValidation))
	require.Contains(t, err.Error(), "cannot be resolved")
}

func TestVerifyStatusFalseUnderOKIsValidation(t *testing.T) {
	resolver := &stubResolver{err: &paystack.Error{
		Op:         "resolve account",
		Message:    "Could not resolve account name",
		StatusCode: 200,
	}}
	svc, _, userID := newBankFixture(t, resolver)
	ctx := context.Background()

	_, err := svc.UpdateDetails(ctx, userID, "First Bank of Nigeria", "0123456789")
	require.NoError(t, err)

	_, _, err = svc.Verify(ctx, userID)
	require.True(t, apperr.IsKind(err, apperr.KindValidation))
}

func TestVerifyProviderOutageIsProviderError(t *testing.T) {
	cases := []error{
		errors.New("connection refused"),
		&paystack.Error{Op: "resolve account", Message: "provider unreachable", Err: errors.New("timeout")},
		&paystack.Error{Op: "resolve account", Message: "internal error", StatusCode: 503},
	}
	for _, resolveErr := range cases {
		svc, _, userID := newBankFixture(t, &stubResolver{err: resolveErr})
		ctx := context.Background()

		_, err := svc.UpdateDetails(ctx, userID, "First Bank of Nigeria", "0123456789")
		require.NoError(t, err)

		_, _, err = svc.Verify(ctx, userID)
		require.True(t, apperr.IsKind(err, apperr.KindProvider))
	}
}
