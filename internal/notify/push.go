package notify

import (
	"context"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	logrus "github.com/sirupsen/logrus"
	"google.golang.org/api/option"
)

// Pusher sends a push notification to one device token. Push is best-effort
// everywhere it is used; failures are logged, never surfaced.
type Pusher interface {
	Push(ctx context.Context, token, title, body string) error
}

// FCMPusher delivers through Firebase Cloud Messaging.
type FCMPusher struct {
	client *messaging.Client
}

func NewFCMPusher(ctx context.Context, credentialsFile string) (*FCMPusher, error) {
	app, err := firebase.NewApp(ctx, nil, option.WithCredentialsFile(credentialsFile))
	if err != nil {
		return nil, err
	}
	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, err
	}
	return &FCMPusher{client: client}, nil
}

func (p *FCMPusher) Push(ctx context.Context, token, title, body string) error {
	if token == "" {
		return nil
	}
	_, err := p.client.Send(ctx, &messaging.Message{
		Notification: &messaging.Notification{Title: title, Body: body},
		Token:        token,
	})
	if err != nil {
		logrus.WithError(err).Warn("push notification failed")
	}
	return err
}

// NopPusher is used when Firebase credentials are not configured.
type NopPusher struct{}

func (NopPusher) Push(context.Context, string, string, string) error { return nil }
