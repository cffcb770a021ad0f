package ledger

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore is an in-memory Store used in tests and when no database is
// configured.
type MemoryStore struct {
	mu           sync.Mutex
	accounts     map[string]Account // keyed by owner ID
	transactions map[string][]Transaction
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		accounts:     make(map[string]Account),
		transactions: make(map[string][]Transaction),
	}
}

func (s *MemoryStore) GetByOwner(_ context.Context, ownerID string) (Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	account, ok := s.accounts[ownerID]
	if !ok {
		return Account{}, ErrAccountNotFound
	}
	return account, nil
}

func (s *MemoryStore) EnsureForOwner(_ context.Context, ownerID string) (Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ensureLocked(ownerID), nil
}

func (s *MemoryStore) ApplyPair(_ context.Context, reference string, user, admin Entry) (PairResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Stage both moves before committing so the entries apply sequentially
	// even when they target the same owner, matching the Postgres store.
	staged := make(map[string]Account, 2)
	apply := func(entry Entry) (Account, error) {
		account, ok := staged[entry.OwnerID]
		if !ok {
			account, ok = s.accounts[entry.OwnerID]
			if !ok {
				return Account{}, ErrAccountNotFound
			}
		}
		if account.FiatBalance+entry.Delta < 0 {
			return Account{}, ErrInsufficientFunds
		}
		account.FiatBalance += entry.Delta
		account.Version++
		staged[entry.OwnerID] = account
		return account, nil
	}

	userAccount, err := apply(user)
	if err != nil {
		return PairResult{}, err
	}
	adminAccount, err := apply(admin)
	if err != nil {
		return PairResult{}, err
	}

	for owner, account := range staged {
		s.accounts[owner] = account
	}

	userTx := s.recordLocked(userAccount, user, reference)
	s.recordLocked(adminAccount, admin, reference)

	return PairResult{UserAccount: userAccount, UserTransaction: userTx}, nil
}

func (s *MemoryStore) History(_ context.Context, ownerID string) ([]Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	history := make([]Transaction, len(s.transactions[ownerID]))
	copy(history, s.transactions[ownerID])
	sort.SliceStable(history, func(i, j int) bool {
		return history[i].CreatedAt.After(history[j].CreatedAt)
	})
	return history, nil
}

func (s *MemoryStore) ensureLocked(ownerID string) Account {
	if account, ok := s.accounts[ownerID]; ok {
		return account
	}
	account := Account{
		ID:        uuid.NewString(),
		OwnerID:   ownerID,
		CreatedAt: time.Now().UTC(),
	}
	s.accounts[ownerID] = account
	return account
}

func (s *MemoryStore) recordLocked(account Account, entry Entry, reference string) Transaction {
	amount := entry.Delta
	if amount < 0 {
		amount = -amount
	}
	tx := Transaction{
		ID:          uuid.NewString(),
		OwnerID:     entry.OwnerID,
		AccountID:   account.ID,
		Direction:   entry.Direction,
		Category:    CategoryFiat,
		Amount:      amount,
		Description: entry.Description,
		Reference:   reference,
		Status:      StatusCompleted,
		CreatedAt:   time.Now().UTC(),
	}
	s.transactions[entry.OwnerID] = append(s.transactions[entry.OwnerID], tx)
	return tx
}
