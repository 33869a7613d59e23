package momo

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Transaction statuses reported by the MoMo collections API
const (
	StatusPending    = "PENDING"
	StatusSuccessful = "SUCCESSFUL"
	StatusFailed     = "FAILED"
)

// ErrRequestRejected is returned when the provider refuses a collection
// request (bad payer, misconfigured subscription, and so on).
var ErrRequestRejected = errors.New("momo: request to pay rejected")

// Client represents an MTN MoMo collections API client
type Client struct {
	BaseURL           string
	SubscriptionKey   string
	APIUser           string
	APIKey            string
	TargetEnvironment string
	MockAPI           bool
	client            *http.Client

	mu          sync.Mutex
	token       string
	tokenExpiry time.Time
}

// Transaction is a collection request descriptor. ExternalRef is caller
// generated and lets the provider deduplicate retries.
type Transaction struct {
	Amount      string `json:"amount"`
	Currency    string `json:"currency"`
	ExternalRef string `json:"externalId"`
	PayerMSISDN string `json:"-"`
	PayerType   string `json:"-"`
	Description string `json:"-"`
}

// NewClient creates a new MoMo API client
func NewClient(baseURL, subscriptionKey, apiUser, apiKey, targetEnvironment string, mockAPI bool) *Client {
	return &Client{
		BaseURL:           baseURL,
		SubscriptionKey:   subscriptionKey,
		APIUser:           apiUser,
		APIKey:            apiKey,
		TargetEnvironment: targetEnvironment,
		MockAPI:           mockAPI,
		client:            &http.Client{Timeout: 10 * time.Second},
	}
}

// CreateTransaction builds a collection request descriptor
func (c *Client) CreateTransaction(amount, currency, externalRef, payer, payerType, description string) *Transaction {
	return &Transaction{
		Amount:      amount,
		Currency:    currency,
		ExternalRef: externalRef,
		PayerMSISDN: payer,
		PayerType:   payerType,
		Description: description,
	}
}

// RequestToPay submits a collection request and returns the gateway
// reference id to use for status lookups and reconciliation.
func (c *Client) RequestToPay(ctx context.Context, t *Transaction) (string, error) {
	if c.MockAPI {
		return c.mockRequestToPay(t)
	}

	token, err := c.accessToken(ctx)
	if err != nil {
		return "", err
	}

	referenceID := uuid.NewString()

	body, err := json.Marshal(map[string]interface{}{
		"amount":     t.Amount,
		"currency":   t.Currency,
		"externalId": t.ExternalRef,
		"payer": map[string]string{
			"partyIdType": t.PayerType,
			"partyId":     t.PayerMSISDN,
		},
		"payerMessage": t.Description,
		"payeeNote":    t.Description,
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/collection/v1_0/requesttopay", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("X-Reference-Id", referenceID)
	req.Header.Set("X-Target-Environment", c.TargetEnvironment)
	req.Header.Set("Ocp-Apim-Subscription-Key", c.SubscriptionKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusAccepted {
		return "", fmt.Errorf("%w: status %d", ErrRequestRejected, resp.StatusCode)
	}
	return referenceID, nil
}

// GetTransactionStatus looks up the current status of a collection request
func (c *Client) GetTransactionStatus(ctx context.Context, referenceID string) (string, error) {
	if c.MockAPI {
		return StatusSuccessful, nil
	}

	token, err := c.accessToken(ctx)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/collection/v1_0/requesttopay/"+referenceID, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("X-Target-Environment", c.TargetEnvironment)
	req.Header.Set("Ocp-Apim-Subscription-Key", c.SubscriptionKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("momo: status lookup failed with status %d", resp.StatusCode)
	}

	var result struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", err
	}
	return result.Status, nil
}

// mockRequestToPay mocks the RequestToPay method for testing
func (c *Client) mockRequestToPay(t *Transaction) (string, error) {
	if !validMSISDN(t.PayerMSISDN) {
		return "", fmt.Errorf("%w: invalid payer msisdn %q", ErrRequestRejected, t.PayerMSISDN)
	}
	return uuid.NewString(), nil
}

// accessToken returns a cached collections token, refreshing it when close
// to expiry.
func (c *Client) accessToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.token != "" && time.Now().Before(c.tokenExpiry.Add(-30*time.Second)) {
		return c.token, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/collection/token/", nil)
	if err != nil {
		return "", err
	}
	credentials := base64.StdEncoding.EncodeToString([]byte(c.APIUser + ":" + c.APIKey))
	req.Header.Set("Authorization", "Basic "+credentials)
	req.Header.Set("Ocp-Apim-Subscription-Key", c.SubscriptionKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("momo: token request failed with status %d", resp.StatusCode)
	}

	var result struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", err
	}

	c.token = result.AccessToken
	c.tokenExpiry = time.Now().Add(time.Duration(result.ExpiresIn) * time.Second)
	return c.token, nil
}

// validMSISDN checks a payer identifier is a plausible phone number:
// digits only, optionally prefixed with +, 9 to 15 digits.
func validMSISDN(msisdn string) bool {
	if msisdn == "" {
		return false
	}
	digits := msisdn
	if digits[0] == '+' {
		digits = digits[1:]
	}
	if len(digits) < 9 || len(digits) > 15 {
		return false
	}
	for _, r := range digits {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
