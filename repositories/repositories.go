// Package repositories holds the document-store access for every collection.
// Conditional updates report whether a document matched so callers can tell a
// lost race from a successful transition.
package repositories

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/microtask/microtask_backend/models"
)

var (
	ErrNotFound  = errors.New("document not found")
	ErrDuplicate = errors.New("duplicate key")
)

// UserStore persists users and their coin balances
type UserStore interface {
	Create(ctx context.Context, user *models.User) error
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	List(ctx context.Context, filter models.UserFilter) ([]models.User, error)
	Delete(ctx context.Context, id primitive.ObjectID) (bool, error)
	UpdateRole(ctx context.Context, email, role string) (bool, error)
	UpdateProfile(ctx context.Context, email string, req models.UpdateProfileRequest) (bool, error)
	SetCoins(ctx context.Context, email string, value int64) (bool, error)
	// AddCoins adds delta, treating a missing or non-numeric balance as 0.
	AddCoins(ctx context.Context, email string, delta int64) (bool, error)
	// DebitCoins subtracts amount only while the balance covers it.
	DebitCoins(ctx context.Context, email string, amount int64) (bool, error)
}

// TaskStore persists tasks and their open slot counts
type TaskStore interface {
	Create(ctx context.Context, task *models.Task) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Task, error)
	List(ctx context.Context, filter models.TaskFilter) ([]models.Task, error)
	Update(ctx context.Context, id primitive.ObjectID, req models.UpdateTaskRequest) (bool, error)
	SetRequiredWorkers(ctx context.Context, id primitive.ObjectID, count int64) (bool, error)
	// ClaimSlot decrements required_workers only while it is positive.
	ClaimSlot(ctx context.Context, id primitive.ObjectID) (bool, error)
	ReleaseSlot(ctx context.Context, id primitive.ObjectID) (bool, error)
	Delete(ctx context.Context, id primitive.ObjectID) (bool, error)
}

// SubmissionStore persists submissions
type SubmissionStore interface {
	Create(ctx context.Context, sub *models.Submission) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Submission, error)
	List(ctx context.Context, filter models.SubmissionFilter) ([]models.Submission, int64, error)
	// HasLive reports a pending or approved submission by worker on task.
	HasLive(ctx context.Context, taskID primitive.ObjectID, workerEmail string) (bool, error)
	// TransitionStatus writes to only when the current status is from.
	TransitionStatus(ctx context.Context, id primitive.ObjectID, from, to string) (bool, error)
}

// WithdrawalStore persists withdrawal requests
type WithdrawalStore interface {
	Create(ctx context.Context, req *models.WithdrawalRequest) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.WithdrawalRequest, error)
	List(ctx context.Context, filter models.WithdrawalFilter) ([]models.WithdrawalRequest, error)
	// Approve moves a pending request to approved, recording who approved it.
	Approve(ctx context.Context, id primitive.ObjectID, adminName string) (bool, error)
}

// NotificationStore is append-only
type NotificationStore interface {
	Create(ctx context.Context, n *models.Notification) error
	ListByRecipient(ctx context.Context, email string) ([]models.Notification, error)
}

// PaymentStore keeps coin purchase history. TransactionID is unique.
type PaymentStore interface {
	Create(ctx context.Context, p *models.Payment) error
	ListByEmail(ctx context.Context, email string) ([]models.Payment, error)
	// CreateIntent records a gateway intent. TransactionID is unique.
	CreateIntent(ctx context.Context, intent *models.PaymentIntentRecord) error
	FindIntent(ctx context.Context, transactionID string) (*models.PaymentIntentRecord, error)
}

// Stores bundles one implementation of every store
type Stores struct {
	Users         UserStore
	Tasks         TaskStore
	Submissions   SubmissionStore
	Withdrawals   WithdrawalStore
	Notifications NotificationStore
	Payments      PaymentStore
}
