package repositories

import (
	"context"
	"time"

	"github.com/KatlegoSeiphemo/careernest/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// UserRepository defines the interface for user data operations
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
}

// SessionRepository defines the interface for mentorship session data
// operations. The aggregate methods back the earnings dashboard; all month
// filters are range predicates against scheduledAt.
type SessionRepository interface {
	Create(ctx context.Context, session *models.MentorshipSession) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.MentorshipSession, error)
	FindByMentor(ctx context.Context, mentorID primitive.ObjectID) ([]*models.MentorshipSession, error)
	FindEligibleForPayment(ctx context.Context, id, mentorID primitive.ObjectID) (*models.MentorshipSession, error)
	UpdatePaymentStatus(ctx context.Context, id primitive.ObjectID, paymentStatus string) error
	SumRateByPaymentStatus(ctx context.Context, mentorID primitive.ObjectID, paymentStatus string) (float64, error)
	SumRatePendingCompleted(ctx context.Context, mentorID primitive.ObjectID) (float64, error)
	SumRatePaidInRange(ctx context.Context, mentorID primitive.ObjectID, start, end time.Time) (float64, error)
	CountCompletedInRange(ctx context.Context, mentorID primitive.ObjectID, start, end time.Time) (int64, error)
}

// PaymentRequestRepository defines the interface for payment request data operations
type PaymentRequestRepository interface {
	Create(ctx context.Context, request *models.PaymentRequest) error
	FindByMentor(ctx context.Context, mentorID primitive.ObjectID) ([]*models.PaymentRequest, error)
	UpdateStatusByGatewayRef(ctx context.Context, gatewayRef, status string) error
}

// TransactionRepository defines the interface for transaction data operations
type TransactionRepository interface {
	Create(ctx context.Context, transaction *models.Transaction) error
	FindByGatewayRef(ctx context.Context, gatewayRef string) (*models.Transaction, error)
	UpdateStatusByGatewayRef(ctx context.Context, gatewayRef, status string) error
}

// CareerServiceRepository defines the interface for service catalog operations
type CareerServiceRepository interface {
	FindActive(ctx context.Context) ([]*models.CareerService, error)
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.CareerService, error)
}

// UserServiceRepository defines the interface for user service activations
type UserServiceRepository interface {
	// Upsert is keyed on gatewayRef so redelivered payment notifications
	// do not create duplicate activations.
	Upsert(ctx context.Context, activation *models.UserService) error
	FindByUser(ctx context.Context, userID primitive.ObjectID) ([]*models.UserService, error)
}
