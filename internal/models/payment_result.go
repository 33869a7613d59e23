package models

// PaymentResult is the outcome of initiating a collection request. A
// gateway rejection is a business outcome, not an error: Success is false
// and Message carries the reason.
type PaymentResult struct {
	Success       bool   `json:"success"`
	TransactionID string `json:"transactionId,omitempty"`
	Message       string `json:"message"`
}

// PaymentStatusResult is the answer to a payment status poll
type PaymentStatusResult struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}
