package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Submission statuses. pending is the only non-terminal one.
const (
	SubmissionPending  = "pending"
	SubmissionApproved = "approved"
	SubmissionRejected = "rejected"
)

// Submission is a worker's completion report against a task
type Submission struct {
	ID                primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	TaskID            primitive.ObjectID `json:"task_id" bson:"task_id"`
	TaskTitle         string             `json:"task_title" bson:"task_title"`
	PayableAmount     int64              `json:"payable_amount" bson:"payable_amount"`
	WorkerEmail       string             `json:"worker_email" bson:"worker_email"`
	WorkerName        string             `json:"worker_name" bson:"worker_name"`
	BuyerEmail        string             `json:"buyer_email" bson:"buyer_email"`
	BuyerName         string             `json:"buyer_name" bson:"buyer_name"`
	SubmissionDetails string             `json:"submission_details" bson:"submission_details"`
	CurrentDate       time.Time          `json:"current_date" bson:"current_date"`
	Status            string             `json:"status" bson:"status"`
}

// CreateSubmissionRequest is sent by a worker
type CreateSubmissionRequest struct {
	TaskID            string `json:"task_id" validate:"required"`
	SubmissionDetails string `json:"submission_details" validate:"required"`
}

// ApproveSubmissionRequest mirrors the fields the client sends on approval.
// Amount and WorkerEmail must agree with the stored submission.
type ApproveSubmissionRequest struct {
	Amount      int64  `json:"amount"`
	WorkerEmail string `json:"workerEmail"`
	TaskTitle   string `json:"taskTitle"`
	BuyerName   string `json:"buyerName"`
}

// RejectSubmissionRequest mirrors the fields the client sends on rejection
type RejectSubmissionRequest struct {
	TaskID      string `json:"taskId"`
	TaskTitle   string `json:"taskTitle"`
	BuyerName   string `json:"buyerName"`
	WorkerEmail string `json:"workerEmail"`
}

// SubmissionFilter narrows ListSubmissions. Zero values mean "any".
type SubmissionFilter struct {
	WorkerEmail string
	BuyerEmail  string
	Status      string
	Skip        int64
	Limit       int64
}
