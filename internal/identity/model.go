package identity

import "time"

// Roles an identity can hold. CustomersAdmin is the distinguished settlement
// counterparty role; the settlement service resolves it by configured id, not
// by querying for the role.
const (
	RoleUser           = "user"
	RoleCustomersAdmin = "customersAdmin"
	RoleCompanyAdmin   = "companyAdmin"
	RoleManager        = "manager"
)

// DefaultImageURL is assigned to newly registered users until they upload an
// avatar through the image service.
const DefaultImageURL = "https://i.postimg.cc/hj3g9nRG/profile-avatar.png"

// BankDetails holds the linked payout destination for an identity. Code is
// resolved from the provider's bank registry when the name is first linked
// and cached here afterwards.
type BankDetails struct {
	BankName      string
	AccountName   string
	AccountNumber string
	Code          string
	Verified      bool
}

// Security holds the identity's second-factor state. Secret is only set once
// two-factor enrolment has been confirmed with a valid TOTP code.
type Security struct {
	TwoFactorEnabled bool
	TOTPSecret       string
}

// Settings holds per-user preference flags.
type Settings struct {
	ReceiveWeeklyNewsletter bool
	OptInForSMSNotification bool
	Language                string
}

// User represents a registered identity with its credentials, verification
// state and linked bank details.
type User struct {
	ID           string
	Username     string
	FirstName    string
	LastName     string
	Email        string
	PhoneNumber  string
	PasswordHash []byte

	EmailOTP         string
	EmailOTPIssuedAt time.Time
	IsEmailVerified  bool

	ImageURL    string
	BankDetails BankDetails

	Role              string
	IsAccountVerified bool

	NotificationStatus bool
	Security           Security
	Settings           Settings

	CreatedAt time.Time
	UpdatedAt time.Time
}

// FullName joins the identity's first and last name for display and for the
// bank-account ownership check.
func (u User) FullName() string {
	switch {
	case u.FirstName == "":
		return u.LastName
	case u.LastName == "":
		return u.FirstName
	default:
		return u.FirstName + " " + u.LastName
	}
}

// Tombstone is the minimal record archived when an identity is deleted.
type Tombstone struct {
	ID        string
	UserID    string
	Email     string
	Username  string
	FullName  string
	DeletedAt time.Time
}
