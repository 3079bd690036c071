package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Withdrawal statuses
const (
	WithdrawalPending  = "pending"
	WithdrawalApproved = "approved"
)

// WithdrawalRequest asks to convert coins to cash
type WithdrawalRequest struct {
	ID               primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	WorkerEmail      string             `bson:"worker_email" json:"worker_email"`
	WorkerName       string             `bson:"worker_name" json:"worker_name"`
	WithdrawalCoin   int64              `bson:"withdrawal_coin" json:"withdrawal_coin"`
	WithdrawalAmount Money              `bson:"withdrawal_amount" json:"withdrawal_amount"`
	PaymentSystem    string             `bson:"payment_system" json:"payment_system"`
	AccountNumber    string             `bson:"account_number" json:"account_number"`
	WithdrawDate     time.Time          `bson:"withdraw_date" json:"withdraw_date"`
	Status           string             `bson:"status" json:"status"`
	ApprovedBy       string             `bson:"approved_by,omitempty" json:"approved_by,omitempty"`
	ProcessedAt      *time.Time         `bson:"processed_at,omitempty" json:"processed_at,omitempty"`
}

// CreateWithdrawalRequest is sent by a worker
type CreateWithdrawalRequest struct {
	WithdrawalCoin int64  `json:"withdrawal_coin"`
	PaymentSystem  string `json:"payment_system" validate:"required"`
	AccountNumber  string `json:"account_number" validate:"required"`
}

// ApproveWithdrawalRequest mirrors the admin approval payload. Email is the
// balance owner, WorkerEmail the notification recipient; they are kept apart.
type ApproveWithdrawalRequest struct {
	AdminName   string `json:"adminName"`
	WorkerEmail string `json:"workerEmail"`
	Email       string `json:"email"`
	Amount      int64  `json:"amount"`
}

// WithdrawalFilter narrows ListWithdrawals
type WithdrawalFilter struct {
	WorkerEmail string
	Status      string
}
