package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Payment is a coin purchase history entry. TransactionID is unique.
type Payment struct {
	ID            primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	Email         string             `json:"email" bson:"email"`
	Coins         int64              `json:"coins" bson:"coins"`
	Price         Money              `json:"price" bson:"price"`
	TransactionID string             `json:"transactionId" bson:"transactionId"`
	Date          time.Time          `json:"date" bson:"date"`
}

// PaymentIntent is what the gateway hands back for the client to complete
type PaymentIntent struct {
	ClientSecret  string `json:"clientSecret"`
	TransactionID string `json:"transactionId"`
}

// CreatePaymentIntentRequest picks a coin package
type CreatePaymentIntentRequest struct {
	Coins int64 `json:"coins"`
}

// CreatePaymentRequest records a completed purchase
type CreatePaymentRequest struct {
	TransactionID string `json:"transactionId" validate:"required"`
	Coins         int64  `json:"coins"`
}

// PaymentIntentRecord pins what the gateway was asked to charge for a
// transaction. A payment can only be recorded against one of these.
type PaymentIntentRecord struct {
	ID            primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	TransactionID string             `json:"transactionId" bson:"transactionId"`
	Email         string             `json:"email" bson:"email"`
	Coins         int64              `json:"coins" bson:"coins"`
	AmountMinor   int64              `json:"amountMinor" bson:"amountMinor"`
	Currency      string             `json:"currency" bson:"currency"`
	CreatedAt     time.Time          `json:"createdAt" bson:"createdAt"`
}
