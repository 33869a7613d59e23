package services

import (
	"context"
	"errors"

	"github.com/KatlegoSeiphemo/careernest/internal/models"
	"github.com/KatlegoSeiphemo/careernest/pkg/momo"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Service-level outcomes surfaced to handlers
var (
	ErrSessionNotEligible  = errors.New("session not found or not eligible for payment")
	ErrServiceNotFound     = errors.New("service not found or inactive")
	ErrTransactionNotFound = errors.New("transaction not found")
	ErrInvalidStatus       = errors.New("unsupported payment status")
)

// PaymentGateway is the slice of the MoMo client the services depend on
type PaymentGateway interface {
	CreateTransaction(amount, currency, externalRef, payer, payerType, description string) *momo.Transaction
	RequestToPay(ctx context.Context, t *momo.Transaction) (string, error)
	GetTransactionStatus(ctx context.Context, referenceID string) (string, error)
}

// TxnRunner executes fn with all repository writes in one atomic unit, so
// a crash mid-reconciliation cannot leave the transaction, payment request
// and session disagreeing.
type TxnRunner interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// PurchaseActivator reacts to a completed purchase transaction
type PurchaseActivator interface {
	ActivatePurchase(ctx context.Context, txn *models.Transaction) error
}

// PaymentService defines the interface for mentor earnings and payment
// request operations
type PaymentService interface {
	GetMentorSessions(ctx context.Context, mentorID primitive.ObjectID) ([]*models.MentorshipSession, error)
	GetPaymentRequests(ctx context.Context, mentorID primitive.ObjectID) ([]*models.PaymentRequest, error)
	GetEarningsStats(ctx context.Context, mentorID primitive.ObjectID) (*models.EarningsStats, error)
	CreatePaymentRequest(ctx context.Context, mentorID primitive.ObjectID, clientPhone string, amount float64, description string) (*models.PaymentResult, error)
	RequestSessionPayment(ctx context.Context, mentorID, sessionID primitive.ObjectID) (*models.PaymentResult, error)
	UpdatePaymentStatus(ctx context.Context, gatewayRef, status string) error
	CheckPaymentStatus(ctx context.Context, gatewayRef string) (*models.PaymentStatusResult, error)
}

// CatalogService defines the interface for the career service catalog and
// mobile-money purchases
type CatalogService interface {
	PurchaseActivator
	ListServices(ctx context.Context) ([]*models.CareerService, error)
	ListUserServices(ctx context.Context, userID primitive.ObjectID) ([]*models.UserService, error)
	PurchaseService(ctx context.Context, userID, serviceID primitive.ObjectID, phone string) (*models.PaymentResult, error)
}

// AuthService defines the interface for authentication operations
type AuthService interface {
	Register(ctx context.Context, req *models.RegisterRequest) (*models.User, error)
	Login(ctx context.Context, req *models.LoginRequest) (*models.LoginResponse, error)
}
