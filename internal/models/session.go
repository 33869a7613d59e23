package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Session lifecycle statuses
const (
	SessionStatusScheduled = "scheduled"
	SessionStatusCompleted = "completed"
	SessionStatusCancelled = "cancelled"
)

// Session payment statuses
const (
	PaymentStatusPending = "pending"
	PaymentStatusPaid    = "paid"
	PaymentStatusFailed  = "failed"
)

// MentorshipSession represents a scheduled interaction between a mentor and
// a client. PaymentStatus only reaches "paid" or "failed" after the session
// itself is completed, and is mutated solely by payment reconciliation.
type MentorshipSession struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	MentorID      primitive.ObjectID `bson:"mentorId" json:"mentorId"`
	ClientID      primitive.ObjectID `bson:"clientId" json:"clientId"`
	SessionType   string             `bson:"sessionType" json:"sessionType"`
	Duration      int                `bson:"duration" json:"duration"`
	Rate          float64            `bson:"rate" json:"rate"`
	ScheduledAt   time.Time          `bson:"scheduledAt" json:"scheduledAt"`
	Status        string             `bson:"status" json:"status"`
	PaymentStatus string             `bson:"paymentStatus" json:"paymentStatus"`
	CreatedAt     time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt     time.Time          `bson:"updatedAt" json:"updatedAt"`

	// Joined from the users collection for list views, never persisted
	// on the session document itself.
	ClientName  string `bson:"clientName,omitempty" json:"clientName,omitempty"`
	ClientPhone string `bson:"clientPhone,omitempty" json:"clientPhone,omitempty"`
}

// EarningsStats is derived from a mentor's sessions, never persisted.
type EarningsStats struct {
	TotalEarnings     float64 `json:"totalEarnings"`
	PendingPayments   float64 `json:"pendingPayments"`
	CompletedSessions int64   `json:"completedSessions"`
	MonthlyGrowth     float64 `json:"monthlyGrowth"`
}
