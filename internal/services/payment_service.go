package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/KatlegoSeiphemo/careernest/internal/models"
	"github.com/KatlegoSeiphemo/careernest/internal/repositories"
	"github.com/KatlegoSeiphemo/careernest/pkg/momo"
	"github.com/KatlegoSeiphemo/careernest/pkg/smsgateway"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/exp/slog"
)

// Compile-time check to ensure MentorPaymentService implements PaymentService
var _ PaymentService = (*MentorPaymentService)(nil)

// MentorPaymentService computes mentor earnings and orchestrates
// mobile-money payment requests against the MoMo gateway.
type MentorPaymentService struct {
	sessionRepo     repositories.SessionRepository
	requestRepo     repositories.PaymentRequestRepository
	transactionRepo repositories.TransactionRepository
	gateway         PaymentGateway
	runner          TxnRunner
	sms             smsgateway.Gateway
	activator       PurchaseActivator
	currency        string
	now             func() time.Time
}

// NewMentorPaymentService creates a new MentorPaymentService. sms and
// activator may be nil when notification or service activation is not
// wired in.
func NewMentorPaymentService(
	sessionRepo repositories.SessionRepository,
	requestRepo repositories.PaymentRequestRepository,
	transactionRepo repositories.TransactionRepository,
	gateway PaymentGateway,
	runner TxnRunner,
	sms smsgateway.Gateway,
	activator PurchaseActivator,
	currency string,
) *MentorPaymentService {
	return &MentorPaymentService{
		sessionRepo:     sessionRepo,
		requestRepo:     requestRepo,
		transactionRepo: transactionRepo,
		gateway:         gateway,
		runner:          runner,
		sms:             sms,
		activator:       activator,
		currency:        currency,
		now:             time.Now,
	}
}

// GetMentorSessions retrieves a mentor's sessions, most recently scheduled
// first, with client name and phone joined in.
func (s *MentorPaymentService) GetMentorSessions(ctx context.Context, mentorID primitive.ObjectID) ([]*models.MentorshipSession, error) {
	sessions, err := s.sessionRepo.FindByMentor(ctx, mentorID)
	if err != nil {
		slog.Error("Failed to fetch mentor sessions", "error", err, "mentorId", mentorID.Hex())
		return nil, fmt.Errorf("failed to fetch mentor sessions: %w", err)
	}
	return sessions, nil
}

// GetPaymentRequests retrieves a mentor's payment requests, most recent first.
func (s *MentorPaymentService) GetPaymentRequests(ctx context.Context, mentorID primitive.ObjectID) ([]*models.PaymentRequest, error) {
	requests, err := s.requestRepo.FindByMentor(ctx, mentorID)
	if err != nil {
		slog.Error("Failed to fetch payment requests", "error", err, "mentorId", mentorID.Hex())
		return nil, fmt.Errorf("failed to fetch payment requests: %w", err)
	}
	return requests, nil
}

// GetEarningsStats computes a mentor's earnings dashboard figures. Month
// windows are half-open ranges against scheduledAt: [monthStart,
// nextMonthStart) for the current month, [prevMonthStart, monthStart) for
// the previous one.
func (s *MentorPaymentService) GetEarningsStats(ctx context.Context, mentorID primitive.ObjectID) (*models.EarningsStats, error) {
	now := s.now()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	nextMonthStart := monthStart.AddDate(0, 1, 0)
	prevMonthStart := monthStart.AddDate(0, -1, 0)

	totalEarnings, err := s.sessionRepo.SumRateByPaymentStatus(ctx, mentorID, models.PaymentStatusPaid)
	if err != nil {
		return nil, s.statsError(err, mentorID)
	}

	pendingPayments, err := s.sessionRepo.SumRatePendingCompleted(ctx, mentorID)
	if err != nil {
		return nil, s.statsError(err, mentorID)
	}

	completedSessions, err := s.sessionRepo.CountCompletedInRange(ctx, mentorID, monthStart, nextMonthStart)
	if err != nil {
		return nil, s.statsError(err, mentorID)
	}

	currentMonthPaid, err := s.sessionRepo.SumRatePaidInRange(ctx, mentorID, monthStart, nextMonthStart)
	if err != nil {
		return nil, s.statsError(err, mentorID)
	}

	previousMonthPaid, err := s.sessionRepo.SumRatePaidInRange(ctx, mentorID, prevMonthStart, monthStart)
	if err != nil {
		return nil, s.statsError(err, mentorID)
	}

	return &models.EarningsStats{
		TotalEarnings:     totalEarnings,
		PendingPayments:   pendingPayments,
		CompletedSessions: completedSessions,
		MonthlyGrowth:     monthlyGrowth(currentMonthPaid, previousMonthPaid),
	}, nil
}

func (s *MentorPaymentService) statsError(err error, mentorID primitive.ObjectID) error {
	slog.Error("Failed to fetch earnings stats", "error", err, "mentorId", mentorID.Hex())
	return fmt.Errorf("failed to fetch earnings stats: %w", err)
}

// monthlyGrowth is the month-over-month change of paid earnings as a
// percentage, rounded to two decimal places. A zero previous-month
// baseline yields 0, not a division error.
func monthlyGrowth(current, previous float64) float64 {
	if previous <= 0 {
		return 0
	}
	growth := decimal.NewFromFloat(current).
		Sub(decimal.NewFromFloat(previous)).
		Div(decimal.NewFromFloat(previous)).
		Mul(decimal.NewFromInt(100)).
		Round(2)
	result, _ := growth.Float64()
	return result
}

// CreatePaymentRequest submits a collection request for an arbitrary
// amount and records the PaymentRequest and Transaction together.
func (s *MentorPaymentService) CreatePaymentRequest(ctx context.Context, mentorID primitive.ObjectID, clientPhone string, amount float64, description string) (*models.PaymentResult, error) {
	return s.createPaymentRequest(ctx, mentorID, clientPhone, amount, description, primitive.NilObjectID)
}

func (s *MentorPaymentService) createPaymentRequest(ctx context.Context, mentorID primitive.ObjectID, clientPhone string, amount float64, description string, sessionID primitive.ObjectID) (*models.PaymentResult, error) {
	externalRef := fmt.Sprintf("mentor_payment_%s_%s", mentorID.Hex(), uuid.NewString())

	momoTxn := s.gateway.CreateTransaction(
		decimal.NewFromFloat(amount).StringFixed(2),
		s.currency,
		externalRef,
		clientPhone,
		"msisdn",
		description,
	)

	gatewayRef, err := s.gateway.RequestToPay(ctx, momoTxn)
	if err != nil {
		slog.Error("Gateway rejected payment request", "error", err, "mentorId", mentorID.Hex())
		return &models.PaymentResult{
			Success: false,
			Message: "Failed to create payment request: " + err.Error(),
		}, nil
	}

	request := &models.PaymentRequest{
		MentorID:    mentorID,
		ClientPhone: clientPhone,
		Amount:      amount,
		Description: description,
		Status:      models.RequestStatusSent,
		GatewayRef:  gatewayRef,
	}

	// The request and its transaction are written together: a
	// PaymentRequest without a Transaction would be unreconcilable.
	err = s.runner.WithTransaction(ctx, func(ctx context.Context) error {
		if err := s.requestRepo.Create(ctx, request); err != nil {
			return err
		}
		return s.transactionRepo.Create(ctx, &models.Transaction{
			UserID:      mentorID,
			ExternalRef: externalRef,
			GatewayRef:  gatewayRef,
			Type:        models.TransactionTypeCollection,
			Purpose:     models.PurposeMentorPayment,
			Amount:      amount,
			Currency:    s.currency,
			Status:      models.TransactionStatusPending,
			PayerMSISDN: clientPhone,
			Description: description,
			Link: models.TransactionLink{
				PaymentRequestID: request.ID,
				SessionID:        sessionID,
				MentorID:         mentorID,
			},
		})
	})
	if err != nil {
		slog.Error("Failed to persist payment request", "error", err, "mentorId", mentorID.Hex(), "gatewayRef", gatewayRef)
		return &models.PaymentResult{
			Success: false,
			Message: "Failed to create payment request",
		}, nil
	}

	s.notifyClient(clientPhone, amount, description)

	slog.Info("Payment request sent", "mentorId", mentorID.Hex(), "gatewayRef", gatewayRef, "amount", amount)
	return &models.PaymentResult{
		Success:       true,
		TransactionID: gatewayRef,
		Message:       "Payment request sent successfully",
	}, nil
}

// notifyClient sends a best-effort SMS about the payment prompt. Failures
// are logged and never fail the request.
func (s *MentorPaymentService) notifyClient(clientPhone string, amount float64, description string) {
	if s.sms == nil {
		return
	}
	message := fmt.Sprintf("CareerNest: approve the %s %s payment prompt on your phone. %s",
		decimal.NewFromFloat(amount).StringFixed(2), s.currency, description)
	if _, err := s.sms.SendSMS(clientPhone, message); err != nil {
		slog.Warn("Failed to send payment request SMS", "error", err, "msisdn", clientPhone)
	}
}

// RequestSessionPayment raises a payment request for a completed session.
// The lookup is filtered to the mentor's own completed, still-unpaid
// sessions so payment cannot be requested twice or before completion.
func (s *MentorPaymentService) RequestSessionPayment(ctx context.Context, mentorID, sessionID primitive.ObjectID) (*models.PaymentResult, error) {
	session, err := s.sessionRepo.FindEligibleForPayment(ctx, sessionID, mentorID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return &models.PaymentResult{
				Success: false,
				Message: ErrSessionNotEligible.Error(),
			}, nil
		}
		slog.Error("Failed to look up session for payment", "error", err, "sessionId", sessionID.Hex())
		return nil, fmt.Errorf("failed to request session payment: %w", err)
	}

	description := fmt.Sprintf("Payment for %s session", session.SessionType)

	result, err := s.createPaymentRequest(ctx, mentorID, session.ClientPhone, session.Rate, description, session.ID)
	if err != nil {
		return nil, err
	}

	if result.Success {
		// Confirms a request is in flight and stamps the update time.
		if err := s.sessionRepo.UpdatePaymentStatus(ctx, session.ID, models.PaymentStatusPending); err != nil {
			slog.Warn("Failed to stamp session after payment request", "error", err, "sessionId", session.ID.Hex())
		}
	}
	return result, nil
}

// UpdatePaymentStatus is the single reconciliation point for asynchronous
// payment outcomes. It updates the transaction, the payment request
// sharing its gateway reference and, when the transaction links one, the
// session — atomically. Re-applying the same terminal status is a no-op,
// so redelivered notifications are safe.
func (s *MentorPaymentService) UpdatePaymentStatus(ctx context.Context, gatewayRef, status string) error {
	var transactionStatus string
	switch status {
	case models.PaymentStatusPaid:
		transactionStatus = models.TransactionStatusCompleted
	case models.PaymentStatusFailed:
		transactionStatus = models.TransactionStatusFailed
	default:
		return fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}

	return s.runner.WithTransaction(ctx, func(ctx context.Context) error {
		txn, err := s.transactionRepo.FindByGatewayRef(ctx, gatewayRef)
		if err != nil {
			if errors.Is(err, mongo.ErrNoDocuments) {
				return ErrTransactionNotFound
			}
			return err
		}

		if err := s.transactionRepo.UpdateStatusByGatewayRef(ctx, gatewayRef, transactionStatus); err != nil {
			return err
		}
		if err := s.requestRepo.UpdateStatusByGatewayRef(ctx, gatewayRef, status); err != nil {
			return err
		}

		if !txn.Link.SessionID.IsZero() {
			if err := s.sessionRepo.UpdatePaymentStatus(ctx, txn.Link.SessionID, status); err != nil {
				return err
			}
		}

		if s.activator != nil && status == models.PaymentStatusPaid && txn.Purpose == models.PurposeServicePurchase {
			txn.Status = transactionStatus
			if err := s.activator.ActivatePurchase(ctx, txn); err != nil {
				return err
			}
		}

		slog.Info("Payment status reconciled", "gatewayRef", gatewayRef, "status", status)
		return nil
	})
}

// CheckPaymentStatus answers a status poll for a transaction. While the
// transaction is still pending it asks the gateway and reconciles any
// terminal outcome it learns about, so a missed webhook cannot strand a
// payment in pending forever.
func (s *MentorPaymentService) CheckPaymentStatus(ctx context.Context, gatewayRef string) (*models.PaymentStatusResult, error) {
	txn, err := s.transactionRepo.FindByGatewayRef(ctx, gatewayRef)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrTransactionNotFound
		}
		slog.Error("Failed to look up transaction", "error", err, "gatewayRef", gatewayRef)
		return nil, fmt.Errorf("failed to check payment status: %w", err)
	}

	switch txn.Status {
	case models.TransactionStatusCompleted:
		return &models.PaymentStatusResult{Status: "completed", Message: "Payment completed successfully"}, nil
	case models.TransactionStatusFailed:
		return &models.PaymentStatusResult{Status: "failed", Message: "Payment failed"}, nil
	}

	gatewayStatus, err := s.gateway.GetTransactionStatus(ctx, gatewayRef)
	if err != nil {
		slog.Error("Gateway status lookup failed", "error", err, "gatewayRef", gatewayRef)
		return nil, fmt.Errorf("failed to check payment status: %w", err)
	}

	switch gatewayStatus {
	case momo.StatusSuccessful:
		if err := s.UpdatePaymentStatus(ctx, gatewayRef, models.PaymentStatusPaid); err != nil {
			return nil, err
		}
		return &models.PaymentStatusResult{Status: "completed", Message: "Payment completed successfully"}, nil
	case momo.StatusFailed:
		if err := s.UpdatePaymentStatus(ctx, gatewayRef, models.PaymentStatusFailed); err != nil {
			return nil, err
		}
		return &models.PaymentStatusResult{Status: "failed", Message: "Payment failed"}, nil
	default:
		return &models.PaymentStatusResult{Status: "pending", Message: "Payment is still being processed"}, nil
	}
}
