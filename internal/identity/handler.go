package identity

import (
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/coinwave/azax/internal/auth"
)

// Handler exposes HTTP endpoints for registration, authentication and
// profile management.
type Handler struct {
	service *Service
	tokens  *auth.TokenManager
}

func NewHandler(service *Service, tokens *auth.TokenManager) *Handler {
	return &Handler{service: service, tokens: tokens}
}

// UserResponse is the public JSON shape of a user profile.
type UserResponse struct {
	ID                 string    `json:"id"`
	Username           string    `json:"username"`
	FirstName          string    `json:"firstName"`
	LastName           string    `json:"lastName"`
	Email              string    `json:"email"`
	PhoneNumber        string    `json:"phoneNumber"`
	IsEmailVerified    bool      `json:"isEmailVerified"`
	ImageURL           string    `json:"imageUrl"`
	Role               string    `json:"role"`
	IsAccountVerified  bool      `json:"isAccountVerified"`
	NotificationStatus bool      `json:"notificationStatus"`
	CreatedAt          time.Time `json:"createdAt"`
}

func toUserResponse(user User) UserResponse {
	return UserResponse{
		ID:                 user.ID,
		Username:           user.Username,
		FirstName:          user.FirstName,
		LastName:           user.LastName,
		Email:              user.Email,
		PhoneNumber:        user.PhoneNumber,
		IsEmailVerified:    user.IsEmailVerified,
		ImageURL:           user.ImageURL,
		Role:               user.Role,
		IsAccountVerified:  user.IsAccountVerified,
		NotificationStatus: user.NotificationStatus,
		CreatedAt:          user.CreatedAt,
	}
}

// Register creates a new unverified user and emails the verification code.
func (h *Handler) Register(c *fiber.Ctx) error {
	var input RegisterInput
	if err := c.BodyParser(&input); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	user, err := h.service.Register(c.UserContext(), input)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"message": "verification code sent to " + user.Email,
		"user":    toUserResponse(user),
	})
}

// Login authenticates a verified user and issues a session token.
func (h *Handler) Login(c *fiber.Ctx) error {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	user, err := h.service.Authenticate(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return err
	}
	token, err := h.tokens.Issue(user.ID)
	if err != nil {
		return err
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{
		"token": token,
		"user":  toUserResponse(user),
	})
}

// VerifyEmailOTP confirms the code sent at registration.
func (h *Handler) VerifyEmailOTP(c *fiber.Ctx) error {
	var req struct {
		Email string `json:"email"`
		OTP   string `json:"otp"`
	}
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	if err := h.service.VerifyEmailOTP(c.UserContext(), req.Email, req.OTP); err != nil {
		return err
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"message": "email verified"})
}

// SendOTP re-issues a verification or password reset code.
func (h *Handler) SendOTP(purpose OTPPurpose) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req struct {
			Email string `json:"email"`
		}
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(http.StatusBadRequest, err.Error())
		}
		if err := h.service.SendOTP(c.UserContext(), req.Email, purpose); err != nil {
			return err
		}
		return c.Status(http.StatusOK).JSON(fiber.Map{"message": "code sent to " + req.Email})
	}
}

// ResetPassword sets a new password after OTP validation.
func (h *Handler) ResetPassword(c *fiber.Ctx) error {
	var req struct {
		Email       string `json:"email"`
		OTP         string `json:"otp"`
		NewPassword string `json:"newPassword"`
	}
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	if err := h.service.ResetPassword(c.UserContext(), req.Email, req.OTP, req.NewPassword); err != nil {
		return err
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"message": "password reset"})
}

// Profile returns the user's own profile.
func (h *Handler) Profile(c *fiber.Ctx) error {
	user, err := h.service.Profile(c.UserContext(), c.Params("userId"))
	if err != nil {
		return err
	}
	return c.Status(http.StatusOK).JSON(toUserResponse(user))
}

// UpdateProfile applies a partial profile update.
func (h *Handler) UpdateProfile(c *fiber.Ctx) error {
	updates := map[string]any{}
	if err := c.BodyParser(&updates); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	user, err := h.service.UpdateProfile(c.UserContext(), c.Params("userId"), updates)
	if err != nil {
		return err
	}
	return c.Status(http.StatusOK).JSON(toUserResponse(user))
}

// Delete removes the account and leaves a tombstone record.
func (h *Handler) Delete(c *fiber.Ctx) error {
	tombstone, err := h.service.Delete(c.UserContext(), c.Params("userId"))
	if err != nil {
		return err
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{
		"message":  "account deleted",
		"fullName": tombstone.FullName,
	})
}

// Settings returns the user's preference settings.
func (h *Handler) Settings(c *fiber.Ctx) error {
	settings, err := h.service.SettingsFor(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.Status(http.StatusOK).JSON(toSettingsResponse(settings))
}

// UpdateSettings applies a partial settings update.
func (h *Handler) UpdateSettings(c *fiber.Ctx) error {
	updates := map[string]any{}
	if err := c.BodyParser(&updates); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	if err := h.service.UpdateSettings(c.UserContext(), c.Params("id"), updates); err != nil {
		return err
	}
	settings, err := h.service.SettingsFor(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.Status(http.StatusOK).JSON(toSettingsResponse(settings))
}

func toSettingsResponse(settings Settings) fiber.Map {
	return fiber.Map{
		"receiveWeeklyNewsletter": settings.ReceiveWeeklyNewsletter,
		"optInForSMSNotification": settings.OptInForSMSNotification,
		"language":                settings.Language,
	}
}

// NotificationStatus returns whether in-app notifications are enabled.
func (h *Handler) NotificationStatus(c *fiber.Ctx) error {
	enabled, err := h.service.NotificationStatus(c.UserContext(), c.Params("userId"))
	if err != nil {
		return err
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"notificationStatus": enabled})
}

// UpdateNotificationStatus toggles in-app notifications.
func (h *Handler) UpdateNotificationStatus(c *fiber.Ctx) error {
	var req struct {
		NotificationStatus bool `json:"notificationStatus"`
	}
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	if err := h.service.UpdateNotificationStatus(c.UserContext(), c.Params("userId"), req.NotificationStatus); err != nil {
		return err
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"notificationStatus": req.NotificationStatus})
}

// ChangePassword replaces the password after checking the previous one.
func (h *Handler) ChangePassword(c *fiber.Ctx) error {
	var req struct {
		PreviousPassword string `json:"previousPassword"`
		NewPassword      string `json:"newPassword"`
	}
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	if err := h.service.ChangePassword(c.UserContext(), c.Params("id"), req.PreviousPassword, req.NewPassword); err != nil {
		return err
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"message": "password changed"})
}

// TwoFactor reports and mutates the two factor authentication state. A setup
// request returns the otpauth URL, a confirm request activates it with a
// code, and a disable request turns it off.
func (h *Handler) TwoFactorStatus(c *fiber.Ctx) error {
	enabled, err := h.service.TwoFactorStatus(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"twoFactorEnabled": enabled})
}

func (h *Handler) TwoFactorUpdate(c *fiber.Ctx) error {
	var req struct {
		Action string `json:"action"`
		Code   string `json:"code"`
	}
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	id := c.Params("id")
	switch req.Action {
	case "setup":
		url, err := h.service.SetupTwoFactor(c.UserContext(), id)
		if err != nil {
			return err
		}
		return c.Status(http.StatusOK).JSON(fiber.Map{"otpauthUrl": url})
	case "confirm":
		if err := h.service.ConfirmTwoFactor(c.UserContext(), id, req.Code); err != nil {
			return err
		}
		return c.Status(http.StatusOK).JSON(fiber.Map{"twoFactorEnabled": true})
	case "disable":
		if err := h.service.DisableTwoFactor(c.UserContext(), id); err != nil {
			return err
		}
		return c.Status(http.StatusOK).JSON(fiber.Map{"twoFactorEnabled": false})
	default:
		return fiber.NewError(http.StatusBadRequest, "unknown action")
	}
}
