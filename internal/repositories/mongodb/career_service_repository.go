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

// CareerServiceRepository implements the repositories.CareerServiceRepository interface
type CareerServiceRepository struct {
	collection *mongo.Collection
}

// NewCareerServiceRepository creates a new CareerServiceRepository
func NewCareerServiceRepository(db *mongo.Database) repositories.CareerServiceRepository {
	return &CareerServiceRepository{
		collection: db.Collection("career_services"),
	}
}

// FindActive finds all active catalog entries
func (r *CareerServiceRepository) FindActive(ctx context.Context) ([]*models.CareerService, error) {
	opts := options.Find().SetSort(bson.M{"price": 1})

	cursor, err := r.collection.Find(ctx, bson.M{"isActive": true}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var services []*models.CareerService
	if err := cursor.All(ctx, &services); err != nil {
		return nil, err
	}
	return services, nil
}

// FindByID finds a catalog entry by ID
func (r *CareerServiceRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.CareerService, error) {
	var service models.CareerService
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&service)
	if err != nil {
		return nil, err
	}
	return &service, nil
}

// UserServiceRepository implements the repositories.UserServiceRepository interface
type UserServiceRepository struct {
	collection *mongo.Collection
}

// NewUserServiceRepository creates a new UserServiceRepository
func NewUserServiceRepository(db *mongo.Database) repositories.UserServiceRepository {
	return &UserServiceRepository{
		collection: db.Collection("user_services"),
	}
}

// Upsert creates or replaces the activation keyed by gateway reference
func (r *UserServiceRepository) Upsert(ctx context.Context, activation *models.UserService) error {
	if activation.CreatedAt.IsZero() {
		activation.CreatedAt = time.Now()
	}
	opts := options.Replace().SetUpsert(true)
	_, err := r.collection.ReplaceOne(ctx, bson.M{"gatewayRef": activation.GatewayRef}, activation, opts)
	return err
}

// FindByUser finds a user's service activations, newest first
func (r *UserServiceRepository) FindByUser(ctx context.Context, userID primitive.ObjectID) ([]*models.UserService, error) {
	opts := options.Find().SetSort(bson.M{"createdAt": -1})

	cursor, err := r.collection.Find(ctx, bson.M{"userId": userID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var activations []*models.UserService
	if err := cursor.All(ctx, &activations); err != nil {
		return nil, err
	}
	return activations, nil
}
