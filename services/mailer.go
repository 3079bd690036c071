package services

import (
	"context"
	"fmt"

	"gopkg.in/gomail.v2"

	"github.com/microtask/microtask_backend/models"
)

// Sender is the part of gomail.Dialer the email pusher needs
type Sender interface {
	DialAndSend(m ...*gomail.Message) error
}

// EmailPusher mails every notification to its recipient.
type EmailPusher struct {
	sender Sender
	from   string
	appURL string
}

func NewEmailPusher(host string, port int, user, pass, appURL string) *EmailPusher {
	return &EmailPusher{
		sender: gomail.NewDialer(host, port, user, pass),
		from:   user,
		appURL: appURL,
	}
}

func (p *EmailPusher) Name() string { return "email" }

func (p *EmailPusher) Push(ctx context.Context, n models.Notification) error {
	m := gomail.NewMessage()
	m.SetHeader("From", p.from)
	m.SetHeader("To", n.ToEmail)
	m.SetHeader("Subject", "MicroTask notification")
	m.SetBody("text/plain", fmt.Sprintf("%s\n\nOpen: %s%s", n.Message, p.appURL, n.ActionRoute))

	done := make(chan error, 1)
	go func() { done <- p.sender.DialAndSend(m) }()
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}
