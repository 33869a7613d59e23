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

// SessionRepository implements the repositories.SessionRepository interface
type SessionRepository struct {
	collection *mongo.Collection
}

// NewSessionRepository creates a new SessionRepository
func NewSessionRepository(db *mongo.Database) repositories.SessionRepository {
	return &SessionRepository{
		collection: db.Collection("mentorship_sessions"),
	}
}

// Create creates a new mentorship session
func (r *SessionRepository) Create(ctx context.Context, session *models.MentorshipSession) error {
	session.CreatedAt = time.Now()
	session.UpdatedAt = time.Now()
	res, err := r.collection.InsertOne(ctx, session)
	if err != nil {
		return err
	}
	if id, ok := res.InsertedID.(primitive.ObjectID); ok {
		session.ID = id
	}
	return nil
}

// FindByID finds a session by ID
func (r *SessionRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.MentorshipSession, error) {
	var session models.MentorshipSession
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&session)
	if err != nil {
		return nil, err
	}
	return &session, nil
}

// FindByMentor finds a mentor's sessions, most recently scheduled first,
// with the client's display name and phone joined from the users collection.
func (r *SessionRepository) FindByMentor(ctx context.Context, mentorID primitive.ObjectID) ([]*models.MentorshipSession, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"mentorId": mentorID}}},
		{{Key: "$sort", Value: bson.M{"scheduledAt": -1}}},
		{{Key: "$lookup", Value: bson.M{
			"from":         "users",
			"localField":   "clientId",
			"foreignField": "_id",
			"as":           "client",
		}}},
		{{Key: "$addFields", Value: bson.M{
			"clientName":  bson.M{"$arrayElemAt": bson.A{"$client.name", 0}},
			"clientPhone": bson.M{"$arrayElemAt": bson.A{"$client.msisdn", 0}},
		}}},
		{{Key: "$project", Value: bson.M{"client": 0}}},
	}

	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var sessions []*models.MentorshipSession
	if err := cursor.All(ctx, &sessions); err != nil {
		return nil, err
	}
	return sessions, nil
}

// FindEligibleForPayment finds a session that may have payment requested:
// owned by the mentor, lifecycle completed, payment still pending. The
// client phone is joined in because the payment request needs it.
func (r *SessionRepository) FindEligibleForPayment(ctx context.Context, id, mentorID primitive.ObjectID) (*models.MentorshipSession, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{
			"_id":           id,
			"mentorId":      mentorID,
			"status":        models.SessionStatusCompleted,
			"paymentStatus": models.PaymentStatusPending,
		}}},
		{{Key: "$lookup", Value: bson.M{
			"from":         "users",
			"localField":   "clientId",
			"foreignField": "_id",
			"as":           "client",
		}}},
		{{Key: "$addFields", Value: bson.M{
			"clientName":  bson.M{"$arrayElemAt": bson.A{"$client.name", 0}},
			"clientPhone": bson.M{"$arrayElemAt": bson.A{"$client.msisdn", 0}},
		}}},
		{{Key: "$project", Value: bson.M{"client": 0}}},
		{{Key: "$limit", Value: 1}},
	}

	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var sessions []*models.MentorshipSession
	if err := cursor.All(ctx, &sessions); err != nil {
		return nil, err
	}
	if len(sessions) == 0 {
		return nil, mongo.ErrNoDocuments
	}
	return sessions[0], nil
}

// UpdatePaymentStatus updates a session's payment status
func (r *SessionRepository) UpdatePaymentStatus(ctx context.Context, id primitive.ObjectID, paymentStatus string) error {
	_, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{
		"$set": bson.M{
			"paymentStatus": paymentStatus,
			"updatedAt":     time.Now(),
		},
	})
	return err
}

// SumRateByPaymentStatus sums session rates for a mentor filtered by
// payment status, all time.
func (r *SessionRepository) SumRateByPaymentStatus(ctx context.Context, mentorID primitive.ObjectID, paymentStatus string) (float64, error) {
	return r.sumRate(ctx, bson.M{
		"mentorId":      mentorID,
		"paymentStatus": paymentStatus,
	})
}

// SumRatePendingCompleted sums rates of completed-but-unpaid sessions.
func (r *SessionRepository) SumRatePendingCompleted(ctx context.Context, mentorID primitive.ObjectID) (float64, error) {
	return r.sumRate(ctx, bson.M{
		"mentorId":      mentorID,
		"status":        models.SessionStatusCompleted,
		"paymentStatus": models.PaymentStatusPending,
	})
}

// SumRatePaidInRange sums paid session rates scheduled in [start, end).
func (r *SessionRepository) SumRatePaidInRange(ctx context.Context, mentorID primitive.ObjectID, start, end time.Time) (float64, error) {
	return r.sumRate(ctx, bson.M{
		"mentorId":      mentorID,
		"paymentStatus": models.PaymentStatusPaid,
		"scheduledAt":   bson.M{"$gte": start, "$lt": end},
	})
}

// CountCompletedInRange counts completed sessions scheduled in [start, end).
func (r *SessionRepository) CountCompletedInRange(ctx context.Context, mentorID primitive.ObjectID, start, end time.Time) (int64, error) {
	return r.collection.CountDocuments(ctx, bson.M{
		"mentorId":    mentorID,
		"status":      models.SessionStatusCompleted,
		"scheduledAt": bson.M{"$gte": start, "$lt": end},
	})
}

func (r *SessionRepository) sumRate(ctx context.Context, match bson.M) (float64, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: match}},
		{{Key: "$group", Value: bson.M{
			"_id":   nil,
			"total": bson.M{"$sum": "$rate"},
		}}},
	}

	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return 0, err
	}
	defer cursor.Close(ctx)

	var results []struct {
		Total float64 `bson:"total"`
	}
	if err := cursor.All(ctx, &results); err != nil {
		return 0, err
	}
	if len(results) == 0 {
		return 0, nil
	}
	return results[0].Total, nil
}
