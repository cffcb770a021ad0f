// Package paystack wraps the external payment processor's REST API: bank
// registry listing, account resolution, charge initialization, transfer
// recipients and payout transfers. Every call is a single attempt; any
// non-2xx response, status:false envelope or malformed payload surfaces as a
// provider failure.
package paystack

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// Client calls the payment provider's REST API with a bearer secret.
type Client struct {
	baseURL    string
	secret     string
	httpClient *http.Client
}

// New creates a provider client for the given API base URL and secret key.
func New(baseURL, secret string) *Client {
	return &Client{
		baseURL: baseURL,
		secret:  secret,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Bank is one entry of the provider's bank registry.
type Bank struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Code string `json:"code"`
	Slug string `json:"slug"`
}

// DepositIntent is the provider's response to a charge initialization.
type DepositIntent struct {
	AuthorizationURL string `json:"authorization_url"`
	AccessCode       string `json:"access_code"`
	Reference        string `json:"reference"`
}

// RecipientInput identifies the payout destination for a transfer recipient.
type RecipientInput struct {
	Name          string
	AccountNumber string
	BankCode      string
}

// envelope is the provider's uniform response wrapper. Status false means the
// operation failed even under a 2xx response code.
type envelope struct {
	Status  bool            `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// ListBanks fetches the bank registry.
func (c *Client) ListBanks(ctx context.Context) ([]Bank, error) {
	var banks []Bank
	if err := c.do(ctx, http.MethodGet, "/bank", nil, &banks); err != nil {
		return nil, err
	}
	return banks, nil
}

// InitializeDeposit initializes a charge against the user's email and returns
// the provider's intent, including the reference correlating both ledger
// sides of the settlement.
func (c *Client) InitializeDeposit(ctx context.Context, email string, amount int64, callbackURL string) (DepositIntent, error) {
	payload := map[string]any{
		"email":  email,
		"amount": amount,
	}
	if callbackURL != "" {
		payload["callback_url"] = callbackURL
	}
	var intent DepositIntent
	if err := c.do(ctx, http.MethodPost, "/transaction/initialize", payload, &intent); err != nil {
		return DepositIntent{}, err
	}
	if intent.Reference == "" {
		return DepositIntent{}, &Error{Op: "initialize deposit", Message: "missing reference in provider response"}
	}
	return intent, nil
}

// ResolveAccount returns the account holder name registered for the account
// number at the bank identified by code.
func (c *Client) ResolveAccount(ctx context.Context, accountNumber, bankCode string) (string, error) {
	query := url.Values{}
	query.Set("account_number", accountNumber)
	query.Set("bank_code", bankCode)
	var resolved struct {
		AccountName   string `json:"account_name"`
		AccountNumber string `json:"account_number"`
	}
	if err := c.do(ctx, http.MethodGet, "/bank/resolve?"+query.Encode(), nil, &resolved); err != nil {
		return "", err
	}
	if resolved.AccountName == "" {
		return "", &Error{Op: "resolve account", Message: "missing account name in provider response"}
	}
	return resolved.AccountName, nil
}

// FindOrCreateRecipient returns the transfer recipient code for the payout
// destination, creating the recipient when none matches.
func (c *Client) FindOrCreateRecipient(ctx context.Context, input RecipientInput) (string, error) {
	var existing []struct {
		RecipientCode string `json:"recipient_code"`
		Details       struct {
			AccountNumber string `json:"account_number"`
			BankCode      string `json:"bank_code"`
		} `json:"details"`
	}
	if err := c.do(ctx, http.MethodGet, "/transferrecipient", nil, &existing); err != nil {
		return "", err
	}
	for _, recipient := range existing {
		if recipient.Details.AccountNumber == input.AccountNumber && recipient.Details.BankCode == input.BankCode {
			return recipient.RecipientCode, nil
		}
	}

	payload := map[string]any{
		"type":           "nuban",
		"name":           input.Name,
		"account_number": input.AccountNumber,
		"bank_code":      input.BankCode,
		"currency":       "NGN",
	}
	var created struct {
		RecipientCode string `json:"recipient_code"`
	}
	if err := c.do(ctx, http.MethodPost, "/transferrecipient", payload, &created); err != nil {
		return "", err
	}
	if created.RecipientCode == "" {
		return "", &Error{Op: "create recipient", Message: "missing recipient code in provider response"}
	}
	return created.RecipientCode, nil
}

// ExecuteTransfer initiates a payout to the recipient and returns the
// provider's transfer reference.
func (c *Client) ExecuteTransfer(ctx context.Context, recipientCode string, amount int64, reason string) (string, error) {
	payload := map[string]any{
		"source":    "balance",
		"reason":    reason,
		"amount":    amount,
		"recipient": recipientCode,
		"currency":  "NGN",
	}
	var transfer struct {
		Reference string `json:"reference"`
	}
	if err := c.do(ctx, http.MethodPost, "/transfer", payload, &transfer); err != nil {
		return "", err
	}
	if transfer.Reference == "" {
		return "", &Error{Op: "execute transfer", Message: "missing reference in provider response"}
	}
	return transfer.Reference, nil
}

// do issues one request, checks both the HTTP status and the envelope status
// flag, and decodes the envelope data into out.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return &Error{Op: path, Message: "encode request", Err: err}
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return &Error{Op: path, Message: "build request", Err: err}
	}
	req.Header.Set("Authorization", "Bearer "+c.secret)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &Error{Op: path, Message: "provider unreachable", Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return &Error{Op: path, Message: "read provider response", Err: err}
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return &Error{Op: path, Message: "malformed provider response", Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 || !env.Status {
		msg := env.Message
		if msg == "" {
			msg = fmt.Sprintf("provider returned status %d", resp.StatusCode)
		}
		return &Error{Op: path, Message: msg, StatusCode: resp.StatusCode}
	}
	if out != nil {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return &Error{Op: path, Message: "malformed provider payload", Err: err}
		}
	}
	return nil
}
