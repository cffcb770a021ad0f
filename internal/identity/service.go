package identity

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/pquerna/otp/totp"
	"golang.org/x/crypto/bcrypt"

	"github.com/coinwave/azax/internal/apperr"
	"github.com/coinwave/azax/internal/email"
)

var validate = validator.New()

// Service manages the identity lifecycle: registration, email OTP
// verification, authentication, profile, settings and security flows.
type Service struct {
	repo   Repository
	mail   email.Sender
	otpTTL time.Duration
	issuer string
}

// NewService creates a new identity service. otpTTL bounds how long an email
// OTP stays redeemable; issuer names the TOTP enrolment.
func NewService(repo Repository, mail email.Sender, otpTTL time.Duration, issuer string) *Service {
	if otpTTL <= 0 {
		otpTTL = 90 * time.Second
	}
	if issuer == "" {
		issuer = "Azax"
	}
	return &Service{repo: repo, mail: mail, otpTTL: otpTTL, issuer: issuer}
}

// RegisterInput captures the data required to create an identity.
type RegisterInput struct {
	Username    string `json:"username" validate:"required"`
	FirstName   string `json:"firstName"`
	LastName    string `json:"lastName"`
	Email       string `json:"email" validate:"required,email"`
	PhoneNumber string `json:"phoneNumber"`
	Password    string `json:"password" validate:"required,min=6"`
}

// Register creates an unverified user, hashes the password and emails a
// verification OTP.
func (s *Service) Register(ctx context.Context, input RegisterInput) (User, error) {
	if err := validate.Struct(input); err != nil {
		return User{}, apperr.Validation(err.Error())
	}

	exists, err := s.repo.ExistsByEmailOrUsername(ctx, input.Email, input.Username)
	if err != nil {
		return User{}, apperr.Persistence("check existing user", err)
	}
	if exists {
		return User{}, apperr.Validation("user already exists")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return User{}, apperr.Persistence("hash password", err)
	}

	otp, err := generateOTP()
	if err != nil {
		return User{}, apperr.Persistence("generate otp", err)
	}

	now := time.Now().UTC()
	user := User{
		ID:               uuid.NewString(),
		Username:         input.Username,
		FirstName:        input.FirstName,
		LastName:         input.LastName,
		Email:            input.Email,
		PhoneNumber:      input.PhoneNumber,
		PasswordHash:     hash,
		EmailOTP:         otp,
		EmailOTPIssuedAt: now,
		ImageURL:         DefaultImageURL,
		Role:             RoleUser,
		Settings:         Settings{Language: "English"},
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	if err := s.mail.Send(ctx, user.Email, "Azax Email Verification",
		fmt.Sprintf("Your email verification OTP is %s", otp)); err != nil {
		return User{}, apperr.Persistence("send verification email", err)
	}

	if err := s.repo.Create(ctx, user); err != nil {
		if errors.Is(err, ErrConflict) {
			return User{}, apperr.Validation("user already exists")
		}
		return User{}, apperr.Persistence("create user", err)
	}

	return user, nil
}

// VerifyEmailOTP redeems the verification OTP for the given email address.
// Expired codes are rejected; the stored code is cleared on success.
func (s *Service) VerifyEmailOTP(ctx context.Context, emailAddr, otp string) error {
	user, err := s.findByEmail(ctx, emailAddr)
	if err != nil {
		return err
	}
	if user.IsEmailVerified {
		return apperr.Validation("email already verified")
	}
	if err := s.checkOTP(user, otp); err != nil {
		return err
	}

	user.IsEmailVerified = true
	user.EmailOTP = ""
	user.EmailOTPIssuedAt = time.Time{}
	if err := s.repo.Update(ctx, user); err != nil {
		return apperr.Persistence("update user", err)
	}
	return nil
}

// OTPPurpose labels what an issued OTP is redeemable for; it only affects the
// email copy and the already-verified guard.
type OTPPurpose string

const (
	// PurposeEmailVerification re-issues the registration OTP.
	PurposeEmailVerification OTPPurpose = "email verification"
	// PurposeForgotPassword issues a password-reset OTP.
	PurposeForgotPassword OTPPurpose = "forgot password"
)

// SendOTP issues a fresh OTP for the given purpose and emails it.
func (s *Service) SendOTP(ctx context.Context, emailAddr string, purpose OTPPurpose) error {
	user, err := s.findByEmail(ctx, emailAddr)
	if err != nil {
		return err
	}
	if purpose == PurposeEmailVerification && user.IsEmailVerified {
		return apperr.Validation("email already verified")
	}

	otp, err := generateOTP()
	if err != nil {
		return apperr.Persistence("generate otp", err)
	}
	user.EmailOTP = otp
	user.EmailOTPIssuedAt = time.Now().UTC()

	if err := s.mail.Send(ctx, user.Email, "Azax Email Verification",
		fmt.Sprintf("Your %s OTP is %s", purpose, otp)); err != nil {
		return apperr.Persistence("send otp email", err)
	}
	if err := s.repo.Update(ctx, user); err != nil {
		return apperr.Persistence("update user", err)
	}
	return nil
}

// ResetPassword redeems a forgot-password OTP and replaces the password hash.
func (s *Service) ResetPassword(ctx context.Context, emailAddr, otp, newPassword string) error {
	if newPassword == "" {
		return apperr.Validation("new password is required")
	}
	user, err := s.findByEmail(ctx, emailAddr)
	if err != nil {
		return err
	}
	if err := s.checkOTP(user, otp); err != nil {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return apperr.Persistence("hash password", err)
	}
	user.PasswordHash = hash
	user.EmailOTP = ""
	user.EmailOTPIssuedAt = time.Time{}
	if err := s.repo.Update(ctx, user); err != nil {
		return apperr.Persistence("update user", err)
	}
	return nil
}

// Authenticate verifies email/password credentials. Unverified email accounts
// cannot log in.
func (s *Service) Authenticate(ctx context.Context, emailAddr, password string) (User, error) {
	user, err := s.findByEmail(ctx, emailAddr)
	if err != nil {
		return User{}, err
	}
	if !user.IsEmailVerified {
		return User{}, apperr.Validation("email account unverified, cannot login")
	}
	if err := bcrypt.CompareHashAndPassword(user.PasswordHash, []byte(password)); err != nil {
		return User{}, apperr.Authz("incorrect password")
	}
	return user, nil
}

// Profile returns the identity for the given id.
func (s *Service) Profile(ctx context.Context, id string) (User, error) {
	return s.findByID(ctx, id)
}

var allowedProfileUpdates = map[string]bool{
	"username": true, "firstName": true, "lastName": true,
	"email": true, "phoneNumber": true,
}

// UpdateProfile applies an allow-listed set of profile field updates. Any
// key outside the allow-list rejects the whole request.
func (s *Service) UpdateProfile(ctx context.Context, id string, updates map[string]any) (User, error) {
	if len(updates) == 0 {
		return User{}, apperr.Validation("no updates supplied")
	}
	for key := range updates {
		if !allowedProfileUpdates[key] {
			return User{}, apperr.Validation("invalid updates")
		}
	}

	user, err := s.findByID(ctx, id)
	if err != nil {
		return User{}, err
	}
	for key, raw := range updates {
		value, ok := raw.(string)
		if !ok {
			return User{}, apperr.Validationf("%s must be a string", key)
		}
		switch key {
		case "username":
			user.Username = value
		case "firstName":
			user.FirstName = value
		case "lastName":
			user.LastName = value
		case "email":
			user.Email = value
		case "phoneNumber":
			user.PhoneNumber = value
		}
	}
	if err := s.repo.Update(ctx, user); err != nil {
		return User{}, apperr.Persistence("update user", err)
	}
	return user, nil
}

// Delete soft-archives the identity into the tombstone store and removes the
// live record.
func (s *Service) Delete(ctx context.Context, id string) (Tombstone, error) {
	tombstone, err := s.repo.ArchiveAndDelete(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Tombstone{}, apperr.NotFound("user not found")
		}
		return Tombstone{}, apperr.Persistence("delete user", err)
	}
	return tombstone, nil
}

// SettingsFor returns the identity's preference flags.
func (s *Service) SettingsFor(ctx context.Context, id string) (Settings, error) {
	user, err := s.findByID(ctx, id)
	if err != nil {
		return Settings{}, err
	}
	return user.Settings, nil
}

var allowedSettingsUpdates = map[string]bool{
	"receiveWeeklyNewsletter": true, "optInForSMSNotification": true, "language": true,
}

// UpdateSettings applies allow-listed preference updates.
func (s *Service) UpdateSettings(ctx context.Context, id string, updates map[string]any) error {
	if len(updates) == 0 {
		return apperr.Validation("invalid update field")
	}
	for key := range updates {
		if !allowedSettingsUpdates[key] {
			return apperr.Validation("invalid update field")
		}
	}

	user, err := s.findByID(ctx, id)
	if err != nil {
		return err
	}
	for key, raw := range updates {
		switch key {
		case "receiveWeeklyNewsletter":
			value, ok := raw.(bool)
			if !ok {
				return apperr.Validation("receiveWeeklyNewsletter must be a boolean")
			}
			user.Settings.ReceiveWeeklyNewsletter = value
		case "optInForSMSNotification":
			value, ok := raw.(bool)
			if !ok {
				return apperr.Validation("optInForSMSNotification must be a boolean")
			}
			user.Settings.OptInForSMSNotification = value
		case "language":
			value, ok := raw.(string)
			if !ok {
				return apperr.Validation("language must be a string")
			}
			user.Settings.Language = value
		}
	}
	if err := s.repo.Update(ctx, user); err != nil {
		return apperr.Persistence("update user", err)
	}
	return nil
}

// NotificationStatus returns the identity's notification flag.
func (s *Service) NotificationStatus(ctx context.Context, id string) (bool, error) {
	user, err := s.findByID(ctx, id)
	if err != nil {
		return false, err
	}
	return user.NotificationStatus, nil
}

// UpdateNotificationStatus sets the identity's notification flag.
func (s *Service) UpdateNotificationStatus(ctx context.Context, id string, status bool) error {
	user, err := s.findByID(ctx, id)
	if err != nil {
		return err
	}
	user.NotificationStatus = status
	if err := s.repo.Update(ctx, user); err != nil {
		return apperr.Persistence("update user", err)
	}
	return nil
}

// ChangePassword replaces the password after checking the previous one. The
// new password must differ from the old.
func (s *Service) ChangePassword(ctx context.Context, id, prevPassword, newPassword string) error {
	if prevPassword == "" || newPassword == "" {
		return apperr.Validation("previous password and new password fields are required")
	}
	user, err := s.findByID(ctx, id)
	if err != nil {
		return err
	}
	if err := bcrypt.CompareHashAndPassword(user.PasswordHash, []byte(prevPassword)); err != nil {
		return apperr.Authz("previous password is incorrect")
	}
	if bcrypt.CompareHashAndPassword(user.PasswordHash, []byte(newPassword)) == nil {
		return apperr.Validation("new password cannot be the same as previous password")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return apperr.Persistence("hash password", err)
	}
	user.PasswordHash = hash
	if err := s.repo.Update(ctx, user); err != nil {
		return apperr.Persistence("update user", err)
	}
	return nil
}

// TwoFactorStatus reports whether TOTP is active for the identity.
func (s *Service) TwoFactorStatus(ctx context.Context, id string) (bool, error) {
	user, err := s.findByID(ctx, id)
	if err != nil {
		return false, err
	}
	return user.Security.TwoFactorEnabled, nil
}

// SetupTwoFactor provisions a TOTP secret for the identity and returns the
// otpauth enrolment URL. The factor stays inactive until confirmed.
func (s *Service) SetupTwoFactor(ctx context.Context, id string) (string, error) {
	user, err := s.findByID(ctx, id)
	if err != nil {
		return "", err
	}
	if user.Security.TwoFactorEnabled {
		return "", apperr.Validation("two-factor authentication is already active")
	}

	key, err := totp.Generate(totp.GenerateOpts{Issuer: s.issuer, AccountName: user.Email})
	if err != nil {
		return "", apperr.Persistence("generate totp secret", err)
	}
	user.Security.TOTPSecret = key.Secret()
	if err := s.repo.Update(ctx, user); err != nil {
		return "", apperr.Persistence("update user", err)
	}
	return key.URL(), nil
}

// ConfirmTwoFactor activates the pending TOTP enrolment after validating a
// code generated from the provisioned secret.
func (s *Service) ConfirmTwoFactor(ctx context.Context, id, code string) error {
	user, err := s.findByID(ctx, id)
	if err != nil {
		return err
	}
	if user.Security.TOTPSecret == "" {
		return apperr.Validation("two-factor authentication has not been set up")
	}
	if !totp.Validate(code, user.Security.TOTPSecret) {
		return apperr.Validation("invalid two-factor code")
	}

	user.Security.TwoFactorEnabled = true
	if err := s.repo.Update(ctx, user); err != nil {
		return apperr.Persistence("update user", err)
	}
	return nil
}

// DisableTwoFactor deactivates TOTP and discards the secret.
func (s *Service) DisableTwoFactor(ctx context.Context, id string) error {
	user, err := s.findByID(ctx, id)
	if err != nil {
		return err
	}
	user.Security.TwoFactorEnabled = false
	user.Security.TOTPSecret = ""
	if err := s.repo.Update(ctx, user); err != nil {
		return apperr.Persistence("update user", err)
	}
	return nil
}

func (s *Service) findByID(ctx context.Context, id string) (User, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return User{}, apperr.NotFound("user not found")
		}
		return User{}, apperr.Persistence("find user", err)
	}
	return user, nil
}

func (s *Service) findByEmail(ctx context.Context, emailAddr string) (User, error) {
	user, err := s.repo.FindByEmail(ctx, emailAddr)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return User{}, apperr.NotFound("user not found")
		}
		return User{}, apperr.Persistence("find user", err)
	}
	return user, nil
}

func (s *Service) checkOTP(user User, otp string) error {
	if otp == "" || user.EmailOTP == "" || user.EmailOTP != otp {
		return apperr.Validation("invalid OTP")
	}
	if time.Since(user.EmailOTPIssuedAt) > s.otpTTL {
		return apperr.Validation("OTP expired, request a new one")
	}
	return nil
}

// generateOTP produces a 4-digit numeric one-time code.
func generateOTP() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(9000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%04d", n.Int64()+1000), nil
}
