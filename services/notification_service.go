package services

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/microtask/microtask_backend/metrics"
	"github.com/microtask/microtask_backend/models"
	"github.com/microtask/microtask_backend/repositories"
)

// Pusher delivers a committed notification over some live channel.
type Pusher interface {
	Name() string
	Push(ctx context.Context, n models.Notification) error
}

const pushTimeout = 5 * time.Second

// NotificationService appends notification records and fans them out.
type NotificationService struct {
	store   repositories.NotificationStore
	pushers []Pusher
	log     *logrus.Entry
	now     func() time.Time
}

func NewNotificationService(store repositories.NotificationStore, logger *logrus.Logger, pushers ...Pusher) *NotificationService {
	return &NotificationService{
		store:   store,
		pushers: pushers,
		log:     logger.WithField("service", "notifications"),
		now:     time.Now,
	}
}

// AddPusher registers another delivery channel
func (s *NotificationService) AddPusher(p Pusher) {
	s.pushers = append(s.pushers, p)
}

// Notify stores the record and then pushes it. Only the store write can fail
// the call; push errors are logged and counted.
func (s *NotificationService) Notify(ctx context.Context, toEmail, message, actionRoute string) error {
	n := models.Notification{
		Message:     message,
		ToEmail:     normalizeEmail(toEmail),
		ActionRoute: actionRoute,
		Time:        s.now(),
	}
	if err := s.store.Create(ctx, &n); err != nil {
		return internal("failed to save notification", err)
	}

	for _, p := range s.pushers {
		pctx, cancel := context.WithTimeout(ctx, pushTimeout)
		if err := p.Push(pctx, n); err != nil {
			metrics.RecordPushFailure(p.Name())
			s.log.WithError(err).WithFields(logrus.Fields{
				"channel": p.Name(),
				"email":   toEmail,
			}).Warn("notification push failed")
		}
		cancel()
	}
	return nil
}

// List returns the recipient's notifications, newest first. Only the
// recipient or an Admin may read them.
func (s *NotificationService) List(ctx context.Context, actor models.Identity, email string) ([]models.Notification, error) {
	email = normalizeEmail(email)
	if email == "" {
		email = normalizeEmail(actor.Email)
	}
	if email != normalizeEmail(actor.Email) && !actor.IsAdmin() {
		return nil, forbidden("cannot read another user's notifications")
	}
	items, err := s.store.ListByRecipient(ctx, email)
	if err != nil {
		return nil, internal("failed to list notifications", err)
	}
	return items, nil
}
