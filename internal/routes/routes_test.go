package routes_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/coinwave/azax/internal/config"
	"github.com/coinwave/azax/internal/identity"
	"github.com/coinwave/azax/internal/ledger"
	"github.com/coinwave/azax/internal/logging"
	"github.com/coinwave/azax/internal/paystack"
	"github.com/coinwave/azax/internal/routes"
	"github.com/coinwave/azax/internal/server"
)

type recordingMail struct {
	lastOTP string
}

func (m *recordingMail) Send(_ context.Context, _, _, body string) error {
	fields := strings.Fields(body)
	m.lastOTP = fields[len(fields)-1]
	return nil
}

type stubGateway struct {
	seq int
}

func (g *stubGateway) InitializeDeposit(_ context.Context, _ string, _ int64, _ string) (paystack.DepositIntent, error) {
	g.seq++
	ref := fmt.Sprintf("ref-%d", g.seq)
	return paystack.DepositIntent{Reference: ref, AuthorizationURL: "https://checkout.example.com/" + ref}, nil
}

func (g *stubGateway) FindOrCreateRecipient(_ context.Context, input paystack.RecipientInput) (string, error) {
	return "RCP_" + input.AccountNumber, nil
}

func (g *stubGateway) ExecuteTransfer(_ context.Context, _ string, _ int64, _ string) (string, error) {
	g.seq++
	return fmt.Sprintf("ref-%d", g.seq), nil
}

func (g *stubGateway) ListBanks(context.Context) ([]paystack.Bank, error) {
	return []paystack.Bank{{ID: 1, Name: "First Bank of Nigeria", Code: "011", Slug: "first-bank"}}, nil
}

func (g *stubGateway) ResolveAccount(context.Context, string, string) (string, error) {
	return "OBI ADA", nil
}

type testEnv struct {
	app   *fiber.App
	users identity.Repository
	mail  *recordingMail
}

func newTestEnv(t *testing.T) testEnv {
	t.Helper()
	users := identity.NewMemoryRepository()
	adminID := uuid.NewString()
	require.NoError(t, users.Create(context.Background(), identity.User{
		ID:       adminID,
		Username: "platform",
		Email:    "platform@example.com",
		Role:     identity.RoleCustomersAdmin,
	}))

	cfg := config.Config{
		AppName:           "Azax",
		AppEnv:            "test",
		JWTSecret:         "test-secret",
		TokenTTL:          time.Hour,
		OTPTTL:            90 * time.Second,
		SettlementAdminID: adminID,
	}
	mail := &recordingMail{}
	gateway := &stubGateway{}

	app := fiber.New(fiber.Config{ErrorHandler: server.ErrorHandler})
	require.NoError(t, routes.Setup(app, routes.Deps{
		Cfg:      cfg,
		Logger:   logging.Discard(),
		Users:    users,
		Store:    ledger.NewMemoryStore(),
		Provider: gateway,
		Registry: gateway,
		Resolver: gateway,
		Mail:     mail,
	}))
	return testEnv{app: app, users: users, mail: mail}
}

func (e testEnv) request(t *testing.T, method, path, token string, body any) (*http.Response, map[string]any) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(encoded)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	}

	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)

	payload := map[string]any{}
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	resp.Body.Close()
	if len(raw) > 0 {
		_ = json.Unmarshal(raw, &payload)
	}
	return resp, payload
}

// signup registers, verifies and logs in a user, returning its id and token.
func (e testEnv) signup(t *testing.T, emailAddr string) (string, string) {
	t.Helper()
	resp, body := e.request(t, fiber.MethodPost, "/auth/registerUser", "", map[string]any{
		"username":  "user-" + emailAddr,
		"firstName": "Ada",
		"lastName":  "Obi",
		"email":     emailAddr,
		"password":  "secret123",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, body)

	resp, _ = e.request(t, fiber.MethodPost, "/auth/verifyEmailOtp", "", map[string]any{
		"email": emailAddr,
		"otp":   e.mail.lastOTP,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body = e.request(t, fiber.MethodPost, "/auth/loginUser", "", map[string]any{
		"email":    emailAddr,
		"password": "secret123",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	token, _ := body["token"].(string)
	require.NotEmpty(t, token)
	user, _ := body["user"].(map[string]any)
	id, _ := user["id"].(string)
	require.NotEmpty(t, id)
	return id, token
}

func TestRegisterLoginFlow(t *testing.T) {
	env := newTestEnv(t)

	// Login before verification is rejected.
	resp, _ := env.request(t, fiber.MethodPost, "/auth/registerUser", "", map[string]any{
		"username": "ada", "email": "ada@example.com", "password": "secret123",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp, body := env.request(t, fiber.MethodPost, "/auth/loginUser", "", map[string]any{
		"email": "ada@example.com", "password": "secret123",
	})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	require.Equal(t, "failure", body["status"])

	resp, _ = env.request(t, fiber.MethodPost, "/auth/verifyEmailOtp", "", map[string]any{
		"email": "ada@example.com", "otp": env.mail.lastOTP,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body = env.request(t, fiber.MethodPost, "/auth/loginUser", "", map[string]any{
		"email": "ada@example.com", "password": "secret123",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NotEmpty(t, body["token"])
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	env := newTestEnv(t)
	userID, token := env.signup(t, "ada@example.com")

	resp, _ := env.request(t, fiber.MethodGet, "/user/"+userID, "", nil)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, body := env.request(t, fiber.MethodGet, "/user/"+userID, token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "ada@example.com", body["email"])

	// A valid token cannot read someone else's profile.
	otherID, _ := env.signup(t, "obi@example.com")
	resp, _ = env.request(t, fiber.MethodGet, "/user/"+otherID, token, nil)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestBankLinkAndVerifyFlow(t *testing.T) {
	env := newTestEnv(t)
	userID, token := env.signup(t, "ada@example.com")

	resp, body := env.request(t, fiber.MethodGet, "/bank/supported", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NotEmpty(t, body["banks"])

	resp, body = env.request(t, fiber.MethodPut, "/bank/updateDetails/"+userID, token, map[string]any{
		"bankName":          "first bank of nigeria",
		"bankAccountNumber": "0123456789",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "011", body["bankCode"])
	require.Equal(t, false, body["verified"])

	resp, body = env.request(t, fiber.MethodPost, "/bank/verifyDetails", token, map[string]any{
		"userId": userID,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "verified", body["outcome"])
}

func TestDepositWithdrawOverHTTP(t *testing.T) {
	env := newTestEnv(t)
	userID, token := env.signup(t, "ada@example.com")

	// Link and verify bank details so withdrawals are allowed.
	resp, _ := env.request(t, fiber.MethodPut, "/bank/updateDetails/"+userID, token, map[string]any{
		"bankName":          "First Bank of Nigeria",
		"bankAccountNumber": "0123456789",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp, _ = env.request(t, fiber.MethodPost, "/bank/verifyDetails", token, map[string]any{"userId": userID})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body := env.request(t, fiber.MethodPost, "/transaction/depositFiat/"+userID, token, map[string]any{"amount": 5000})
	require.Equal(t, http.StatusCreated, resp.StatusCode, body)
	require.EqualValues(t, 5000, body["fiatBalance"])
	require.NotEmpty(t, body["authorizationUrl"])

	// Withdrawals without the bank payload are rejected before any provider call.
	resp, body = env.request(t, fiber.MethodPost, "/transaction/withdrawFiat/"+userID, token, map[string]any{"amount": 2000})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	require.Equal(t, "incomplete bank details, withdrawal cannot be completed", body["message"])

	payout := map[string]any{
		"amount":            2000,
		"bankName":          "First Bank of Nigeria",
		"bankAccountName":   "OBI ADA",
		"bankAccountNumber": "0123456789",
	}
	resp, body = env.request(t, fiber.MethodPost, "/transaction/withdrawFiat/"+userID, token, payout)
	require.Equal(t, http.StatusCreated, resp.StatusCode, body)
	require.EqualValues(t, 3000, body["fiatBalance"])

	// Overdraft rejected.
	payout["amount"] = 100000
	resp, body = env.request(t, fiber.MethodPost, "/transaction/withdrawFiat/"+userID, token, payout)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	require.Equal(t, "insufficient funds", body["message"])

	resp, body = env.request(t, fiber.MethodGet, "/transaction/history/"+userID, token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	history, _ := body["transactions"].([]any)
	require.Len(t, history, 2)
}

func TestHealthz(t *testing.T) {
	env := newTestEnv(t)
	resp, body := env.request(t, fiber.MethodGet, "/healthz", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NotNil(t, body["status"])
}
