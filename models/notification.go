package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Notification is an append-only message for one recipient
type Notification struct {
	ID          primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	Message     string             `json:"message" bson:"message"`
	ToEmail     string             `json:"toEmail" bson:"toEmail"`
	ActionRoute string             `json:"actionRoute" bson:"actionRoute"`
	Time        time.Time          `json:"time" bson:"time"`
}
