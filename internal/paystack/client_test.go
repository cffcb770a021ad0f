package paystack

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestListBanks(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/bank", r.URL.Path)
		require.Equal(t, "Bearer sk_test", r.Header.Get("Authorization"))
		json.NewEncoder(w).Encode(map[string]any{
			"status":  true,
			"message": "Banks retrieved",
			"data": []map[string]any{
				{"id": 1, "name": "First Bank of Nigeria", "code": "011", "slug": "first-bank"},
				{"id": 2, "name": "Guaranty Trust Bank", "code": "058", "slug": "gtbank"},
			},
		})
	}))
	defer srv.Close()

	client := New(srv.URL, "sk_test")
	banks, err := client.ListBanks(context.Background())
	require.NoError(t, err)
	require.Len(t, banks, 2)
	require.Equal(t, "011", banks[0].Code)
}

func TestInitializeDeposit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/transaction/initialize", r.URL.Path)

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Equal(t, "ada@example.com", body["email"])
		require.EqualValues(t, 5000, body["amount"])

		json.NewEncoder(w).Encode(map[string]any{
			"status": true,
			"data": map[string]any{
				"authorization_url": "https://checkout.paystack.com/abc",
				"access_code":       "abc",
				"reference":         "ref123",
			},
		})
	}))
	defer srv.Close()

	client := New(srv.URL, "sk_test")
	intent, err := client.InitializeDeposit(context.Background(), "ada@example.com", 5000, "")
	require.NoError(t, err)
	require.Equal(t, "ref123", intent.Reference)
	require.Equal(t, "https://checkout.paystack.com/abc", intent.AuthorizationURL)
}

func TestResolveAccount(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/bank/resolve", r.URL.Path)
		require.Equal(t, "0123456789", r.URL.Query().Get("account_number"))
		require.Equal(t, "011", r.URL.Query().Get("bank_code"))
		json.NewEncoder(w).Encode(map[string]any{
			"status": true,
			"data": map[string]any{
				"account_name":   "OBI ADA",
				"account_number": "0123456789",
			},
		})
	}))
	defer srv.Close()

	client := New(srv.URL, "sk_test")
	holder, err := client.ResolveAccount(context.Background(), "0123456789", "011")
	require.NoError(t, err)
	require.Equal(t, "OBI ADA", holder)
}

func TestFindOrCreateRecipientReusesExisting(t *testing.T) {
	created := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			created = true
		}
		json.NewEncoder(w).Encode(map[string]any{
			"status": true,
			"data": []map[string]any{
				{
					"recipient_code": "RCP_1",
					"details":        map[string]any{"account_number": "0123456789", "bank_code": "011"},
				},
			},
		})
	}))
	defer srv.Close()

	client := New(srv.URL, "sk_test")
	code, err := client.FindOrCreateRecipient(context.Background(), RecipientInput{
		Name: "OBI ADA", AccountNumber: "0123456789", BankCode: "011",
	})
	require.NoError(t, err)
	require.Equal(t, "RCP_1", code)
	require.False(t, created)
}

func TestFindOrCreateRecipientCreatesWhenMissing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			json.NewEncoder(w).Encode(map[string]any{"status": true, "data": []any{}})
			return
		}
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Equal(t, "nuban", body["type"])
		require.Equal(t, "NGN", body["currency"])
		json.NewEncoder(w).Encode(map[string]any{
			"status": true,
			"data":   map[string]any{"recipient_code": "RCP_2"},
		})
	}))
	defer srv.Close()

	client := New(srv.URL, "sk_test")
	code, err := client.FindOrCreateRecipient(context.Background(), RecipientInput{
		Name: "OBI ADA", AccountNumber: "9876543210", BankCode: "058",
	})
	require.NoError(t, err)
	require.Equal(t, "RCP_2", code)
}

func TestExecuteTransfer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Equal(t, "balance", body["source"])
		require.Equal(t, "RCP_1", body["recipient"])
		json.NewEncoder(w).Encode(map[string]any{
			"status": true,
			"data":   map[string]any{"reference": "trf_123"},
		})
	}))
	defer srv.Close()

	client := New(srv.URL, "sk_test")
	ref, err := client.ExecuteTransfer(context.Background(), "RCP_1", 2000, "Fiat withdrawal")
	require.NoError(t, err)
	require.Equal(t, "trf_123", ref)
}

func TestProviderErrorSurfaces(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]any{"status": false, "message": "Invalid key"})
	}))
	defer srv.Close()

	client := New(srv.URL, "sk_test")
	_, err := client.ListBanks(context.Background())
	require.Error(t, err)

	var provErr *Error
	require.ErrorAs(t, err, &provErr)
	require.Equal(t, http.StatusUnauthorized, provErr.StatusCode)
	require.Contains(t, provErr.Message, "Invalid key")
}

func TestStatusFalseUnderOKIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"status": false, "message": "Could not resolve account name"})
	}))
	defer srv.Close()

	client := New(srv.URL, "sk_test")
	_, err := client.ResolveAccount(context.Background(), "0000000000", "011")
	require.Error(t, err)
	require.Contains(t, err.Error(), "Could not resolve account name")
}

func TestMalformedResponseIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not json"))
	}))
	defer srv.Close()

	client := New(srv.URL, "sk_test")
	_, err := client.ListBanks(context.Background())
	require.Error(t, err)
}
