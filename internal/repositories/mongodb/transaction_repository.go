package mongodb

import (
	"context"
	"time"

	"github.com/KatlegoSeiphemo/careernest/internal/models"
	"github.com/KatlegoSeiphemo/careernest/internal/repositories"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// TransactionRepository implements the repositories.TransactionRepository interface
type TransactionRepository struct {
	collection *mongo.Collection
}

// NewTransactionRepository creates a new TransactionRepository
func NewTransactionRepository(db *mongo.Database) repositories.TransactionRepository {
	return &TransactionRepository{
		collection: db.Collection("transactions"),
	}
}

// Create creates a new transaction
func (r *TransactionRepository) Create(ctx context.Context, transaction *models.Transaction) error {
	transaction.CreatedAt = time.Now()
	transaction.UpdatedAt = time.Now()
	res, err := r.collection.InsertOne(ctx, transaction)
	if err != nil {
		return err
	}
	if id, ok := res.InsertedID.(primitive.ObjectID); ok {
		transaction.ID = id
	}
	return nil
}

// FindByGatewayRef finds a transaction by its gateway reference
func (r *TransactionRepository) FindByGatewayRef(ctx context.Context, gatewayRef string) (*models.Transaction, error) {
	var transaction models.Transaction
	err := r.collection.FindOne(ctx, bson.M{"gatewayRef": gatewayRef}).Decode(&transaction)
	if err != nil {
		return nil, err
	}
	return &transaction, nil
}

// UpdateStatusByGatewayRef updates the status of the transaction carrying
// the given gateway reference. Setting the same status twice is a no-op.
func (r *TransactionRepository) UpdateStatusByGatewayRef(ctx context.Context, gatewayRef, status string) error {
	_, err := r.collection.UpdateOne(ctx, bson.M{"gatewayRef": gatewayRef}, bson.M{
		"$set": bson.M{
			"status":    status,
			"updatedAt": time.Now(),
		},
	})
	return err
}
