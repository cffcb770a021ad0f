// Package ledger keeps fiat account balances and their transaction history.
// Every settlement writes two entries, one on the user's account and one on
// the platform admin's, correlated by a shared provider reference.
package ledger

import (
	"context"
	"errors"
	"time"
)

// ErrAccountNotFound indicates the owner has no ledger account.
var ErrAccountNotFound = errors.New("account not found")

// ErrInsufficientFunds indicates a debit would push the balance negative.
var ErrInsufficientFunds = errors.New("insufficient funds")

// Direction labels a transaction entry.
type Direction string

const (
	DirectionCredit Direction = "credit"
	DirectionDebit  Direction = "debit"
)

const (
	CategoryFiat    = "fiat"
	StatusCompleted = "completed"
)

// Account holds an owner's fiat balance in minor units. Version increments on
// every balance change and guards concurrent settlements.
type Account struct {
	ID          string
	OwnerID     string
	FiatBalance int64
	Version     int64
	CreatedAt   time.Time
}

// Transaction is one immutable history entry on an account.
type Transaction struct {
	ID          string
	OwnerID     string
	AccountID   string
	Direction   Direction
	Category    string
	Amount      int64
	Description string
	Reference   string
	Status      string
	CreatedAt   time.Time
}

// Entry describes one side of a paired settlement. Delta is signed, positive
// for credits and negative for debits, and must agree with Direction.
type Entry struct {
	OwnerID     string
	Delta       int64
	Direction   Direction
	Description string
}

// PairResult reports the user's side of an applied settlement.
type PairResult struct {
	UserAccount     Account
	UserTransaction Transaction
}

// Store persists accounts and transactions.
type Store interface {
	// GetByOwner returns the owner's account or ErrAccountNotFound.
	GetByOwner(ctx context.Context, ownerID string) (Account, error)
	// EnsureForOwner returns the owner's account, creating it with a zero
	// balance when missing.
	EnsureForOwner(ctx context.Context, ownerID string) (Account, error)
	// ApplyPair applies both sides of a settlement atomically. Either both
	// balances move and both transactions record, or nothing changes. A debit
	// that would overdraw returns ErrInsufficientFunds.
	ApplyPair(ctx context.Context, reference string, user, admin Entry) (PairResult, error)
	// History lists the owner's transactions, newest first.
	History(ctx context.Context, ownerID string) ([]Transaction, error)
}
