package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/KatlegoSeiphemo/careernest/internal/models"
	"github.com/KatlegoSeiphemo/careernest/internal/repositories"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/exp/slog"
)

// Compile-time check to ensure CareerCatalogService implements CatalogService
var _ CatalogService = (*CareerCatalogService)(nil)

const defaultServiceDurationDays = 30

// CareerCatalogService serves the purchasable service catalog and turns
// completed purchase transactions into service activations.
type CareerCatalogService struct {
	serviceRepo     repositories.CareerServiceRepository
	userServiceRepo repositories.UserServiceRepository
	transactionRepo repositories.TransactionRepository
	gateway         PaymentGateway
	now             func() time.Time
}

// NewCareerCatalogService creates a new CareerCatalogService
func NewCareerCatalogService(
	serviceRepo repositories.CareerServiceRepository,
	userServiceRepo repositories.UserServiceRepository,
	transactionRepo repositories.TransactionRepository,
	gateway PaymentGateway,
) *CareerCatalogService {
	return &CareerCatalogService{
		serviceRepo:     serviceRepo,
		userServiceRepo: userServiceRepo,
		transactionRepo: transactionRepo,
		gateway:         gateway,
		now:             time.Now,
	}
}

// ListServices retrieves the active catalog
func (s *CareerCatalogService) ListServices(ctx context.Context) ([]*models.CareerService, error) {
	services, err := s.serviceRepo.FindActive(ctx)
	if err != nil {
		slog.Error("Failed to fetch service catalog", "error", err)
		return nil, fmt.Errorf("failed to fetch services: %w", err)
	}
	return services, nil
}

// ListUserServices retrieves a user's service activations
func (s *CareerCatalogService) ListUserServices(ctx context.Context, userID primitive.ObjectID) ([]*models.UserService, error) {
	activations, err := s.userServiceRepo.FindByUser(ctx, userID)
	if err != nil {
		slog.Error("Failed to fetch user services", "error", err, "userId", userID.Hex())
		return nil, fmt.Errorf("failed to fetch user services: %w", err)
	}
	return activations, nil
}

// PurchaseService submits a collection request for a catalog entry and
// records the pending transaction. The activation itself happens when the
// payment outcome is reconciled.
func (s *CareerCatalogService) PurchaseService(ctx context.Context, userID, serviceID primitive.ObjectID, phone string) (*models.PaymentResult, error) {
	service, err := s.serviceRepo.FindByID(ctx, serviceID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return &models.PaymentResult{Success: false, Message: ErrServiceNotFound.Error()}, nil
		}
		slog.Error("Failed to look up service", "error", err, "serviceId", serviceID.Hex())
		return nil, fmt.Errorf("failed to purchase service: %w", err)
	}
	if !service.IsActive {
		return &models.PaymentResult{Success: false, Message: ErrServiceNotFound.Error()}, nil
	}

	externalRef := fmt.Sprintf("service_purchase_%s_%s", userID.Hex(), uuid.NewString())
	description := fmt.Sprintf("Purchase of %s", service.Name)

	momoTxn := s.gateway.CreateTransaction(
		decimal.NewFromFloat(service.Price).StringFixed(2),
		service.Currency,
		externalRef,
		phone,
		"msisdn",
		description,
	)

	gatewayRef, err := s.gateway.RequestToPay(ctx, momoTxn)
	if err != nil {
		slog.Error("Gateway rejected service purchase", "error", err, "serviceId", serviceID.Hex())
		return &models.PaymentResult{
			Success: false,
			Message: "Failed to initiate payment: " + err.Error(),
		}, nil
	}

	err = s.transactionRepo.Create(ctx, &models.Transaction{
		UserID:      userID,
		ExternalRef: externalRef,
		GatewayRef:  gatewayRef,
		Type:        models.TransactionTypeCollection,
		Purpose:     models.PurposeServicePurchase,
		Amount:      service.Price,
		Currency:    service.Currency,
		Status:      models.TransactionStatusPending,
		PayerMSISDN: phone,
		Description: description,
		Link: models.TransactionLink{
			ServiceID: service.ID,
		},
	})
	if err != nil {
		slog.Error("Failed to persist purchase transaction", "error", err, "gatewayRef", gatewayRef)
		return &models.PaymentResult{Success: false, Message: "Failed to initiate payment"}, nil
	}

	slog.Info("Service purchase initiated", "userId", userID.Hex(), "serviceId", serviceID.Hex(), "gatewayRef", gatewayRef)
	return &models.PaymentResult{
		Success:       true,
		TransactionID: gatewayRef,
		Message:       "Payment initiated, approve the prompt on your phone",
	}, nil
}

// ActivatePurchase creates the service activation for a completed purchase
// transaction. The activation is upserted on the gateway reference, so
// redelivered notifications do not produce duplicates.
func (s *CareerCatalogService) ActivatePurchase(ctx context.Context, txn *models.Transaction) error {
	service, err := s.serviceRepo.FindByID(ctx, txn.Link.ServiceID)
	if err != nil {
		return fmt.Errorf("failed to activate purchase %s: %w", txn.GatewayRef, err)
	}

	durationDays := service.DurationDays
	if durationDays <= 0 {
		durationDays = defaultServiceDurationDays
	}

	activation := &models.UserService{
		UserID:      txn.UserID,
		ServiceID:   service.ID,
		ServiceName: service.Name,
		ServiceType: service.ServiceType,
		Status:      models.TransactionStatusCompleted,
		GatewayRef:  txn.GatewayRef,
		ExpiresAt:   s.now().AddDate(0, 0, durationDays),
	}
	if err := s.userServiceRepo.Upsert(ctx, activation); err != nil {
		return fmt.Errorf("failed to activate purchase %s: %w", txn.GatewayRef, err)
	}

	slog.Info("Service activated", "userId", txn.UserID.Hex(), "serviceType", service.ServiceType, "expiresAt", activation.ExpiresAt)
	return nil
}
