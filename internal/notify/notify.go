// Package notify delivers account emails. Delivery itself happens outside this
// service: the Kafka notifier queues a job for a mail worker, the log notifier
// prints the message for local development.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"
)

type Message struct {
	To      string
	Subject string
	Body    string
}

type Notifier interface {
	Send(ctx context.Context, msg Message) error
}

type EventPublisher interface {
	PublishEvent(ctx context.Context, topic, key string, event any) error
}

type emailJob struct {
	Type     string    `json:"type"`
	From     string    `json:"from"`
	To       string    `json:"to"`
	Subject  string    `json:"subject"`
	Body     string    `json:"body"`
	QueuedAt time.Time `json:"queued_at"`
}

type KafkaNotifier struct {
	Producer EventPublisher
	Topic    string
	From     string
}

func (n *KafkaNotifier) Send(ctx context.Context, msg Message) error {
	job := emailJob{
		Type:     "send_email",
		From:     n.From,
		To:       msg.To,
		Subject:  msg.Subject,
		Body:     msg.Body,
		QueuedAt: time.Now().UTC(),
	}
	if err := n.Producer.PublishEvent(ctx, n.Topic, msg.To, job); err != nil {
		return fmt.Errorf("queue email: %w", err)
	}
	return nil
}

// LogNotifier stands in for a mail transport in development. The body carries
// live single-use links, so it is only written at debug level.
type LogNotifier struct {
	Logger *slog.Logger
}

func (n *LogNotifier) Send(ctx context.Context, msg Message) error {
	l := n.Logger
	if l == nil {
		l = slog.Default()
	}
	l.InfoContext(ctx, "email", "to", msg.To, "subject", msg.Subject)
	l.DebugContext(ctx, "email_body", "to", msg.To, "body", msg.Body)
	return nil
}

func link(base string, parts ...string) string {
	u, err := url.JoinPath(base, parts...)
	if err != nil {
		return strings.TrimRight(base, "/") + "/" + strings.Join(parts, "/")
	}
	return u
}

func VerificationEmail(frontendURL, to, token string) Message {
	return Message{
		To:      to,
		Subject: "Verify your email",
		Body:    "Please click the following link to verify your email: " + link(frontendURL, "verify-email", token),
	}
}

func PasswordResetEmail(frontendURL, to, token string, ttl time.Duration) Message {
	return Message{
		To:      to,
		Subject: "Password Reset Request",
		Body: fmt.Sprintf("Please click the following link to reset your password: %s\nThis link will expire in %s.",
			link(frontendURL, "reset-password", token), humanDuration(ttl)),
	}
}

func humanDuration(d time.Duration) string {
	if d >= time.Hour && d%time.Hour == 0 {
		h := int(d / time.Hour)
		if h == 1 {
			return "1 hour"
		}
		return fmt.Sprintf("%d hours", h)
	}
	return d.String()
}
