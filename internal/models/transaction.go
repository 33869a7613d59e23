package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Transaction statuses
const (
	TransactionStatusPending   = "pending"
	TransactionStatusCompleted = "completed"
	TransactionStatusFailed    = "failed"
)

// Transaction types
const (
	TransactionTypeCollection   = "collection"
	TransactionTypeDisbursement = "disbursement"
)

// Transaction purposes
const (
	PurposeMentorPayment   = "mentor_payment"
	PurposeServicePurchase = "service_purchase"
)

// TransactionLink carries the identities a transaction was raised for, so
// reconciliation can update the owning records without parsing an opaque
// metadata blob.
type TransactionLink struct {
	PaymentRequestID primitive.ObjectID `bson:"paymentRequestId,omitempty" json:"paymentRequestId,omitempty"`
	SessionID        primitive.ObjectID `bson:"sessionId,omitempty" json:"sessionId,omitempty"`
	ServiceID        primitive.ObjectID `bson:"serviceId,omitempty" json:"serviceId,omitempty"`
	MentorID         primitive.ObjectID `bson:"mentorId,omitempty" json:"mentorId,omitempty"`
}

// Transaction is the gateway-facing record of money movement. ExternalRef
// is generated by us and lets the provider deduplicate retries; GatewayRef
// is assigned by the provider and is the key status callbacks arrive under.
type Transaction struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	UserID      primitive.ObjectID `bson:"userId" json:"userId"`
	ExternalRef string             `bson:"externalRef" json:"externalRef"`
	GatewayRef  string             `bson:"gatewayRef" json:"gatewayRef"`
	Type        string             `bson:"type" json:"type"`
	Purpose     string             `bson:"purpose" json:"purpose"`
	Amount      float64            `bson:"amount" json:"amount"`
	Currency    string             `bson:"currency" json:"currency"`
	Status      string             `bson:"status" json:"status"`
	PayerMSISDN string             `bson:"payerMsisdn" json:"payerMsisdn"`
	Description string             `bson:"description" json:"description"`
	Link        TransactionLink    `bson:"link" json:"link"`
	CreatedAt   time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time          `bson:"updatedAt" json:"updatedAt"`
}
