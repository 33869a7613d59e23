package smsgateway

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// Gateway represents an SMS gateway interface
type Gateway interface {
	SendSMS(msisdn, message string) (string, error)
	GetDeliveryStatus(messageID string) (string, error)
}

// MTNGateway represents the MTN SMS gateway used to notify clients of
// payment requests and confirmations.
type MTNGateway struct {
	BaseURL    string
	APIKey     string
	MockSMS    bool
	httpClient *http.Client
}

// MockGateway represents a mock SMS gateway for testing
type MockGateway struct {
	Name string

	// Sent records every message handed to the gateway, oldest first.
	Sent []SentMessage
}

// SentMessage is one message recorded by the MockGateway
type SentMessage struct {
	MSISDN  string
	Message string
}

// NewMTNGateway creates a new MTN SMS gateway
func NewMTNGateway(baseURL, apiKey string, mockSMS bool) Gateway {
	return &MTNGateway{
		BaseURL: baseURL,
		APIKey:  apiKey,
		MockSMS: mockSMS,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// NewMockGateway creates a new Mock SMS gateway
func NewMockGateway(name string) *MockGateway {
	return &MockGateway{Name: name}
}

// SendSMS sends an SMS using the MTN gateway
func (g *MTNGateway) SendSMS(msisdn, message string) (string, error) {
	if g.MockSMS {
		return fmt.Sprintf("MTN-MOCK-MSG-%d", time.Now().UnixNano()), nil
	}

	body, err := json.Marshal(map[string]string{
		"to":      msisdn,
		"message": message,
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequest(http.MethodPost, g.BaseURL+"/messages", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-API-Key", g.APIKey)

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return "", fmt.Errorf("sms gateway returned status %d", resp.StatusCode)
	}

	var result struct {
		MessageID string `json:"messageId"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", err
	}
	return result.MessageID, nil
}

// GetDeliveryStatus gets the delivery status of an SMS from MTN
func (g *MTNGateway) GetDeliveryStatus(messageID string) (string, error) {
	if g.MockSMS {
		return "DELIVERED", nil
	}

	req, err := http.NewRequest(http.MethodGet, g.BaseURL+"/messages/"+messageID, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("X-API-Key", g.APIKey)

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("sms gateway returned status %d", resp.StatusCode)
	}

	var result struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", err
	}
	return result.Status, nil
}

// SendSMS records the message and returns a mock id
func (g *MockGateway) SendSMS(msisdn, message string) (string, error) {
	if msisdn == "" {
		return "", errors.New("msisdn is required")
	}
	g.Sent = append(g.Sent, SentMessage{MSISDN: msisdn, Message: message})
	return fmt.Sprintf("%s-MOCK-MSG-%d", g.Name, len(g.Sent)), nil
}

// GetDeliveryStatus always reports delivered for the mock gateway
func (g *MockGateway) GetDeliveryStatus(messageID string) (string, error) {
	return "DELIVERED", nil
}
