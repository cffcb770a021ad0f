package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore implements Store on PostgreSQL. Paired settlements run in a
// single transaction with guarded balance updates, so a concurrent write
// never produces a lost update or a negative balance.
type PostgresStore struct {
	db *pgxpool.Pool
}

func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) GetByOwner(ctx context.Context, ownerID string) (Account, error) {
	owner, err := uuid.Parse(ownerID)
	if err != nil {
		return Account{}, ErrAccountNotFound
	}
	row := s.db.QueryRow(ctx, `SELECT id, owner_id, fiat_balance, version, created_at
        FROM accounts WHERE owner_id = $1`, owner)
	return scanAccount(row)
}

func (s *PostgresStore) EnsureForOwner(ctx context.Context, ownerID string) (Account, error) {
	owner, err := uuid.Parse(ownerID)
	if err != nil {
		return Account{}, fmt.Errorf("parse owner id: %w", err)
	}
	_, err = s.db.Exec(ctx, `INSERT INTO accounts (id, owner_id, fiat_balance, version)
        VALUES ($1, $2, 0, 0) ON CONFLICT (owner_id) DO NOTHING`, uuid.New(), owner)
	if err != nil {
		return Account{}, fmt.Errorf("create account: %w", err)
	}
	return s.GetByOwner(ctx, ownerID)
}

func (s *PostgresStore) ApplyPair(ctx context.Context, reference string, user, admin Entry) (PairResult, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return PairResult{}, fmt.Errorf("begin settlement: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	userAccount, err := applyEntry(ctx, tx, user)
	if err != nil {
		return PairResult{}, err
	}
	adminAccount, err := applyEntry(ctx, tx, admin)
	if err != nil {
		return PairResult{}, err
	}

	userTx, err := recordEntry(ctx, tx, userAccount, user, reference)
	if err != nil {
		return PairResult{}, err
	}
	if _, err := recordEntry(ctx, tx, adminAccount, admin, reference); err != nil {
		return PairResult{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return PairResult{}, fmt.Errorf("commit settlement: %w", err)
	}
	return PairResult{UserAccount: userAccount, UserTransaction: userTx}, nil
}

func (s *PostgresStore) History(ctx context.Context, ownerID string) ([]Transaction, error) {
	owner, err := uuid.Parse(ownerID)
	if err != nil {
		return nil, ErrAccountNotFound
	}
	rows, err := s.db.Query(ctx, `SELECT id, owner_id, account_id, direction, category,
            amount, description, reference, status, created_at
        FROM transactions
        WHERE owner_id = $1
        ORDER BY created_at DESC`, owner)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var history []Transaction
	for rows.Next() {
		var item Transaction
		if err := rows.Scan(&item.ID, &item.OwnerID, &item.AccountID, &item.Direction, &item.Category,
			&item.Amount, &item.Description, &item.Reference, &item.Status, &item.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		history = append(history, item)
	}
	return history, rows.Err()
}

// applyEntry moves one account's balance inside the settlement transaction.
// The WHERE guard rejects overdrafts, and the version bump invalidates any
// stale concurrent read of the same row.
func applyEntry(ctx context.Context, tx pgx.Tx, entry Entry) (Account, error) {
	owner, err := uuid.Parse(entry.OwnerID)
	if err != nil {
		return Account{}, ErrAccountNotFound
	}
	row := tx.QueryRow(ctx, `UPDATE accounts
        SET fiat_balance = fiat_balance + $2, version = version + 1
        WHERE owner_id = $1 AND fiat_balance + $2 >= 0
        RETURNING id, owner_id, fiat_balance, version, created_at`, owner, entry.Delta)
	account, err := scanAccount(row)
	if err == nil {
		return account, nil
	}
	if !errors.Is(err, ErrAccountNotFound) {
		return Account{}, err
	}
	// The guarded update matched no row. Distinguish a missing account from
	// an overdraft for the caller.
	var exists bool
	if checkErr := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM accounts WHERE owner_id = $1)`,
		owner).Scan(&exists); checkErr != nil {
		return Account{}, fmt.Errorf("check account: %w", checkErr)
	}
	if exists {
		return Account{}, ErrInsufficientFunds
	}
	return Account{}, ErrAccountNotFound
}

func recordEntry(ctx context.Context, tx pgx.Tx, account Account, entry Entry, reference string) (Transaction, error) {
	amount := entry.Delta
	if amount < 0 {
		amount = -amount
	}
	record := Transaction{
		ID:          uuid.NewString(),
		OwnerID:     entry.OwnerID,
		AccountID:   account.ID,
		Direction:   entry.Direction,
		Category:    CategoryFiat,
		Amount:      amount,
		Description: entry.Description,
		Reference:   reference,
		Status:      StatusCompleted,
	}
	row := tx.QueryRow(ctx, `INSERT INTO transactions
            (id, owner_id, account_id, direction, category, amount, description, reference, status)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
        RETURNING created_at`,
		record.ID, record.OwnerID, record.AccountID, record.Direction, record.Category,
		record.Amount, record.Description, record.Reference, record.Status)
	if err := row.Scan(&record.CreatedAt); err != nil {
		return Transaction{}, fmt.Errorf("record transaction: %w", err)
	}
	return record, nil
}

func scanAccount(row pgx.Row) (Account, error) {
	var account Account
	err := row.Scan(&account.ID, &account.OwnerID, &account.FiatBalance, &account.Version, &account.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Account{}, ErrAccountNotFound
	}
	if err != nil {
		return Account{}, fmt.Errorf("scan account: %w", err)
	}
	return account, nil
}
