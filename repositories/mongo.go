package repositories

import (
	"errors"

	"go.mongodb.org/mongo-driver/mongo"
)

// Collection names
const (
	UsersCollection          = "users"
	TasksCollection          = "tasks"
	SubmissionsCollection    = "submissions"
	WithdrawalsCollection    = "withdrawals"
	NotificationsCollection  = "notifications"
	PaymentsCollection       = "payments"
	PaymentIntentsCollection = "payment_intents"
)

// NewMongoStores builds every store on top of db
func NewMongoStores(db *mongo.Database) Stores {
	return Stores{
		Users:         NewUserRepository(db),
		Tasks:         NewTaskRepository(db),
		Submissions:   NewSubmissionRepository(db),
		Withdrawals:   NewWithdrawalRepository(db),
		Notifications: NewNotificationRepository(db),
		Payments:      NewPaymentRepository(db),
	}
}

// translate maps driver errors onto the package sentinels
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return ErrNotFound
	case mongo.IsDuplicateKeyError(err):
		return ErrDuplicate
	}
	return err
}
