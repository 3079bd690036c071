package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Task is a job posted by a buyer. RequiredWorkers counts the open slots left.
type Task struct {
	ID              primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	BuyerEmail      string             `json:"buyer_email" bson:"buyer_email"`
	BuyerName       string             `json:"buyer_name" bson:"buyer_name"`
	TaskTitle       string             `json:"task_title" bson:"task_title"`
	TaskDetail      string             `json:"task_detail" bson:"task_detail"`
	PayableAmount   int64              `json:"payable_amount" bson:"payable_amount"`
	RequiredWorkers int64              `json:"required_workers" bson:"required_workers"`
	SubmissionInfo  string             `json:"submission_info" bson:"submission_info"`
	TaskImageURL    string             `json:"task_image_url,omitempty" bson:"task_image_url,omitempty"`
	CompletionDate  *time.Time         `json:"completion_date,omitempty" bson:"completion_date,omitempty"`
	CreatedAt       time.Time          `json:"created_at" bson:"created_at"`
}

// CreateTaskRequest is the payload for posting a task
type CreateTaskRequest struct {
	TaskTitle       string     `json:"task_title" validate:"required"`
	TaskDetail      string     `json:"task_detail"`
	PayableAmount   int64      `json:"payable_amount"`
	RequiredWorkers int64      `json:"required_workers"`
	SubmissionInfo  string     `json:"submission_info"`
	TaskImageURL    string     `json:"task_image_url"`
	CompletionDate  *time.Time `json:"completion_date"`
}

// UpdateTaskRequest carries the owner-editable text fields; empty means unchanged
type UpdateTaskRequest struct {
	TaskTitle      string `json:"task_title"`
	TaskDetail     string `json:"task_detail"`
	SubmissionInfo string `json:"submission_info"`
}

// UpdateRequiredWorkersRequest overwrites the slot count
type UpdateRequiredWorkersRequest struct {
	RequiredWorkers int64 `json:"required_workers"`
}

// TaskFilter narrows ListTasks
type TaskFilter struct {
	BuyerEmail    string
	AvailableOnly bool
}
