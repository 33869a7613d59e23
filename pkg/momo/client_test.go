package momo

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockRequestToPay(t *testing.T) {
	client := NewClient("", "", "", "", "sandbox", true)

	txn := client.CreateTransaction("150.00", "ZAR", "mentor_payment_1_abc", "27821234567", "msisdn", "Payment for cv_review session")
	ref, err := client.RequestToPay(context.Background(), txn)
	require.NoError(t, err)
	assert.NotEmpty(t, ref)

	status, err := client.GetTransactionStatus(context.Background(), ref)
	require.NoError(t, err)
	assert.Equal(t, StatusSuccessful, status)
}

func TestMockRequestToPayRejectsBadMSISDN(t *testing.T) {
	client := NewClient("", "", "", "", "sandbox", true)

	for _, msisdn := range []string{"", "12345", "not-a-number", "278212345678901234"} {
		txn := client.CreateTransaction("100.00", "ZAR", "ref", msisdn, "msisdn", "desc")
		_, err := client.RequestToPay(context.Background(), txn)
		assert.ErrorIs(t, err, ErrRequestRejected, "msisdn %q", msisdn)
	}
}

func TestRequestToPayAgainstSandbox(t *testing.T) {
	var gotReference string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/collection/token/":
			assert.NotEmpty(t, r.Header.Get("Authorization"))
			json.NewEncoder(w).Encode(map[string]interface{}{
				"access_token": "test-token",
				"expires_in":   3600,
			})
		case "/collection/v1_0/requesttopay":
			assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
			assert.Equal(t, "sandbox", r.Header.Get("X-Target-Environment"))
			gotReference = r.Header.Get("X-Reference-Id")
			assert.NotEmpty(t, gotReference)

			var body map[string]interface{}
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, "200.00", body["amount"])
			assert.Equal(t, "ZAR", body["currency"])

			w.WriteHeader(http.StatusAccepted)
		default:
			// status lookup
			json.NewEncoder(w).Encode(map[string]string{"status": StatusPending})
		}
	}))
	defer server.Close()

	client := NewClient(server.URL, "sub-key", "api-user", "api-key", "sandbox", false)

	txn := client.CreateTransaction("200.00", "ZAR", "ext-ref", "27821234567", "msisdn", "desc")
	ref, err := client.RequestToPay(context.Background(), txn)
	require.NoError(t, err)
	assert.Equal(t, gotReference, ref)

	status, err := client.GetTransactionStatus(context.Background(), ref)
	require.NoError(t, err)
	assert.Equal(t, StatusPending, status)
}

func TestRequestToPayRejected(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/collection/token/" {
			json.NewEncoder(w).Encode(map[string]interface{}{"access_token": "t", "expires_in": 3600})
			return
		}
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer server.Close()

	client := NewClient(server.URL, "sub-key", "api-user", "api-key", "sandbox", false)

	txn := client.CreateTransaction("200.00", "ZAR", "ext-ref", "27821234567", "msisdn", "desc")
	_, err := client.RequestToPay(context.Background(), txn)
	assert.ErrorIs(t, err, ErrRequestRejected)
}
