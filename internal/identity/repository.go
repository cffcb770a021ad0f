package identity

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound indicates no user matched the lookup.
var ErrNotFound = errors.New("user not found")

// ErrConflict indicates the email or username is already taken.
var ErrConflict = errors.New("user already exists")

// Repository persists users and their deletion tombstones.
type Repository interface {
	Create(ctx context.Context, user User) error
	FindByID(ctx context.Context, id string) (User, error)
	FindByEmail(ctx context.Context, email string) (User, error)
	ExistsByEmailOrUsername(ctx context.Context, email, username string) (bool, error)
	Update(ctx context.Context, user User) error
	// ArchiveAndDelete removes the live record and writes the tombstone in a
	// single storage transaction.
	ArchiveAndDelete(ctx context.Context, id string) (Tombstone, error)
}

const userColumns = `id, username, first_name, last_name, email, phone_number, password_hash,
    email_otp, email_otp_issued_at, is_email_verified, image_url,
    bank_name, bank_account_name, bank_account_number, bank_code, bank_verified,
    role, is_account_verified, notification_status,
    two_factor_enabled, totp_secret,
    weekly_newsletter, sms_opt_in, language, created_at, updated_at`

// PostgresRepository implements Repository using PostgreSQL.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository builds a Postgres-backed identity repository.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts a new user record.
func (r *PostgresRepository) Create(ctx context.Context, user User) error {
	id, err := uuid.Parse(user.ID)
	if err != nil {
		return err
	}
	_, err = r.db.Exec(ctx, `INSERT INTO users (`+userColumns+`)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16,
                $17, $18, $19, $20, $21, $22, $23, $24, $25, $26)`,
		id, user.Username, user.FirstName, user.LastName, user.Email, user.PhoneNumber,
		user.PasswordHash, user.EmailOTP, nullableTime(user.EmailOTPIssuedAt), user.IsEmailVerified,
		user.ImageURL, user.BankDetails.BankName, user.BankDetails.AccountName,
		user.BankDetails.AccountNumber, user.BankDetails.Code, user.BankDetails.Verified,
		user.Role, user.IsAccountVerified, user.NotificationStatus,
		user.Security.TwoFactorEnabled, user.Security.TOTPSecret,
		user.Settings.ReceiveWeeklyNewsletter, user.Settings.OptInForSMSNotification,
		user.Settings.Language, user.CreatedAt.UTC(), user.UpdatedAt.UTC())
	return err
}

// FindByID fetches a user by identifier.
func (r *PostgresRepository) FindByID(ctx context.Context, id string) (User, error) {
	userID, err := uuid.Parse(id)
	if err != nil {
		return User{}, ErrNotFound
	}
	row := r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, userID)
	return scanUser(row)
}

// FindByEmail fetches a user by email address.
func (r *PostgresRepository) FindByEmail(ctx context.Context, email string) (User, error) {
	row := r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
	return scanUser(row)
}

// ExistsByEmailOrUsername reports whether either handle is already taken.
func (r *PostgresRepository) ExistsByEmailOrUsername(ctx context.Context, email, username string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM users WHERE email = $1 OR username = $2)`,
		email, username).Scan(&exists)
	return exists, err
}

// Update rewrites the mutable fields of a user record.
func (r *PostgresRepository) Update(ctx context.Context, user User) error {
	id, err := uuid.Parse(user.ID)
	if err != nil {
		return ErrNotFound
	}
	cmd, err := r.db.Exec(ctx, `UPDATE users SET
        username = $2, first_name = $3, last_name = $4, email = $5, phone_number = $6,
        password_hash = $7, email_otp = $8, email_otp_issued_at = $9, is_email_verified = $10,
        image_url = $11, bank_name = $12, bank_account_name = $13, bank_account_number = $14,
        bank_code = $15, bank_verified = $16, role = $17, is_account_verified = $18,
        notification_status = $19, two_factor_enabled = $20, totp_secret = $21,
        weekly_newsletter = $22, sms_opt_in = $23, language = $24, updated_at = NOW()
        WHERE id = $1`,
		id, user.Username, user.FirstName, user.LastName, user.Email, user.PhoneNumber,
		user.PasswordHash, user.EmailOTP, nullableTime(user.EmailOTPIssuedAt), user.IsEmailVerified,
		user.ImageURL, user.BankDetails.BankName, user.BankDetails.AccountName,
		user.BankDetails.AccountNumber, user.BankDetails.Code, user.BankDetails.Verified,
		user.Role, user.IsAccountVerified, user.NotificationStatus,
		user.Security.TwoFactorEnabled, user.Security.TOTPSecret,
		user.Settings.ReceiveWeeklyNewsletter, user.Settings.OptInForSMSNotification,
		user.Settings.Language)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ArchiveAndDelete removes the live record and persists the tombstone
// atomically, so a crash cannot lose the archived trace.
func (r *PostgresRepository) ArchiveAndDelete(ctx context.Context, id string) (Tombstone, error) {
	userID, err := uuid.Parse(id)
	if err != nil {
		return Tombstone{}, ErrNotFound
	}

	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return Tombstone{}, err
	}
	defer tx.Rollback(ctx) // nolint:errcheck

	row := tx.QueryRow(ctx, `DELETE FROM users WHERE id = $1
        RETURNING id, email, username, first_name, last_name`, userID)
	var deletedID uuid.UUID
	var email, username, firstName, lastName string
	if err := row.Scan(&deletedID, &email, &username, &firstName, &lastName); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Tombstone{}, ErrNotFound
		}
		return Tombstone{}, err
	}

	tombstone := Tombstone{
		ID:        uuid.NewString(),
		UserID:    deletedID.String(),
		Email:     email,
		Username:  username,
		FullName:  lastName + " " + firstName,
		DeletedAt: time.Now().UTC(),
	}
	if _, err := tx.Exec(ctx, `INSERT INTO deleted_users (id, user_id, email, username, full_name, deleted_at)
        VALUES ($1, $2, $3, $4, $5, $6)`,
		uuid.MustParse(tombstone.ID), deletedID, tombstone.Email, tombstone.Username,
		tombstone.FullName, tombstone.DeletedAt); err != nil {
		return Tombstone{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return Tombstone{}, err
	}
	return tombstone, nil
}

func scanUser(row pgx.Row) (User, error) {
	var (
		user     User
		id       uuid.UUID
		otpAt    *time.Time
		created  time.Time
		updated  time.Time
	)
	err := row.Scan(&id, &user.Username, &user.FirstName, &user.LastName, &user.Email,
		&user.PhoneNumber, &user.PasswordHash, &user.EmailOTP, &otpAt, &user.IsEmailVerified,
		&user.ImageURL, &user.BankDetails.BankName, &user.BankDetails.AccountName,
		&user.BankDetails.AccountNumber, &user.BankDetails.Code, &user.BankDetails.Verified,
		&user.Role, &user.IsAccountVerified, &user.NotificationStatus,
		&user.Security.TwoFactorEnabled, &user.Security.TOTPSecret,
		&user.Settings.ReceiveWeeklyNewsletter, &user.Settings.OptInForSMSNotification,
		&user.Settings.Language, &created, &updated)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, ErrNotFound
		}
		return User{}, err
	}
	user.ID = id.String()
	if otpAt != nil {
		user.EmailOTPIssuedAt = otpAt.UTC()
	}
	user.CreatedAt = created.UTC()
	user.UpdatedAt = updated.UTC()
	return user, nil
}

func nullableTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	utc := t.UTC()
	return &utc
}
