package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CareerService is a purchasable catalog entry (CV review, interview prep,
// AI matching and so on), paid for with mobile money.
type CareerService struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	Name         string             `bson:"name" json:"name"`
	Description  string             `bson:"description" json:"description"`
	Price        float64            `bson:"price" json:"price"`
	Currency     string             `bson:"currency" json:"currency"`
	ServiceType  string             `bson:"serviceType" json:"serviceType"`
	IsActive     bool               `bson:"isActive" json:"isActive"`
	DurationDays int                `bson:"durationDays" json:"durationDays"`
	Features     []string           `bson:"features" json:"features"`
	CreatedAt    time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// UserService is a service activation for a user. One is created when the
// purchase transaction completes; GatewayRef keeps re-delivered payment
// notifications from activating the same purchase twice.
type UserService struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	UserID      primitive.ObjectID `bson:"userId" json:"userId"`
	ServiceID   primitive.ObjectID `bson:"serviceId" json:"serviceId"`
	ServiceName string             `bson:"serviceName" json:"serviceName"`
	ServiceType string             `bson:"serviceType" json:"serviceType"`
	Status      string             `bson:"status" json:"status"`
	GatewayRef  string             `bson:"gatewayRef" json:"gatewayRef"`
	ExpiresAt   time.Time          `bson:"expiresAt" json:"expiresAt"`
	CreatedAt   time.Time          `bson:"createdAt" json:"createdAt"`
}
