package services

import (
	"context"
	"errors"
	"time"

	"firebase.google.com/go/v4/messaging"

	"github.com/microtask/microtask_backend/models"
	"github.com/microtask/microtask_backend/repositories"
)

// MessageSender is satisfied by *messaging.Client
type MessageSender interface {
	Send(ctx context.Context, message *messaging.Message) (string, error)
}

// FCMPusher sends a mobile push to users that registered an FCM token.
type FCMPusher struct {
	client MessageSender
	users  repositories.UserStore
}

func NewFCMPusher(client MessageSender, users repositories.UserStore) *FCMPusher {
	return &FCMPusher{client: client, users: users}
}

func (p *FCMPusher) Name() string { return "fcm" }

func (p *FCMPusher) Push(ctx context.Context, n models.Notification) error {
	user, err := p.users.FindByEmail(ctx, n.ToEmail)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil
		}
		return err
	}
	if user.FCMToken == "" {
		return nil
	}

	_, err = p.client.Send(ctx, &messaging.Message{
		Token: user.FCMToken,
		Notification: &messaging.Notification{
			Title: "MicroTask",
			Body:  n.Message,
		},
		Data: map[string]string{
			"actionRoute": n.ActionRoute,
			"time":        n.Time.Format(time.RFC3339),
		},
		Android: &messaging.AndroidConfig{
			Priority: "high",
		},
	})
	return err
}
