package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Payment request statuses. A request only moves forward:
// pending -> sent -> paid|failed.
const (
	RequestStatusPending = "pending"
	RequestStatusSent    = "sent"
	RequestStatusPaid    = "paid"
	RequestStatusFailed  = "failed"
)

// PaymentRequest is a mentor-initiated ask for money from a client,
// optionally raised for a specific session. GatewayRef holds the reference
// assigned by the mobile-money provider and is the join key used during
// reconciliation.
type PaymentRequest struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	MentorID    primitive.ObjectID `bson:"mentorId" json:"mentorId"`
	ClientPhone string             `bson:"clientPhone" json:"clientPhone"`
	Amount      float64            `bson:"amount" json:"amount"`
	Description string             `bson:"description" json:"description"`
	Status      string             `bson:"status" json:"status"`
	GatewayRef  string             `bson:"gatewayRef,omitempty" json:"transactionId,omitempty"`
	CreatedAt   time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time          `bson:"updatedAt" json:"updatedAt"`
}
