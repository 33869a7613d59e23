package mongodb

import (
	"context"
	"time"

	"github.com/KatlegoSeiphemo/careernest/internal/models"
	"github.com/KatlegoSeiphemo/careernest/internal/repositories"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// PaymentRequestRepository implements the repositories.PaymentRequestRepository interface
type PaymentRequestRepository struct {
	collection *mongo.Collection
}

// NewPaymentRequestRepository creates a new PaymentRequestRepository
func NewPaymentRequestRepository(db *mongo.Database) repositories.PaymentRequestRepository {
	return &PaymentRequestRepository{
		collection: db.Collection("payment_requests"),
	}
}

// Create creates a new payment request
func (r *PaymentRequestRepository) Create(ctx context.Context, request *models.PaymentRequest) error {
	request.CreatedAt = time.Now()
	request.UpdatedAt = time.Now()
	res, err := r.collection.InsertOne(ctx, request)
	if err != nil {
		return err
	}
	if id, ok := res.InsertedID.(primitive.ObjectID); ok {
		request.ID = id
	}
	return nil
}

// FindByMentor finds a mentor's payment requests, most recent first
func (r *PaymentRequestRepository) FindByMentor(ctx context.Context, mentorID primitive.ObjectID) ([]*models.PaymentRequest, error) {
	opts := options.Find().SetSort(bson.M{"createdAt": -1})

	cursor, err := r.collection.Find(ctx, bson.M{"mentorId": mentorID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var requests []*models.PaymentRequest
	if err := cursor.All(ctx, &requests); err != nil {
		return nil, err
	}
	return requests, nil
}

// UpdateStatusByGatewayRef updates the status of the request carrying the
// given gateway reference. Setting the same status twice is a no-op.
func (r *PaymentRequestRepository) UpdateStatusByGatewayRef(ctx context.Context, gatewayRef, status string) error {
	_, err := r.collection.UpdateOne(ctx, bson.M{"gatewayRef": gatewayRef}, bson.M{
		"$set": bson.M{
			"status":    status,
			"updatedAt": time.Now(),
		},
	})
	return err
}
