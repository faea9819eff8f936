package service

import (
	"context"
	"time"

	"github.com/Skotchmaster/authservice/internal/logging"
	"github.com/Skotchmaster/authservice/internal/models"
	"github.com/Skotchmaster/authservice/internal/notify"
)

const eventTimeout = 5 * time.Second

type userEvent struct {
	Type      string    `json:"type"`
	UserID    string    `json:"user_id"`
	Email     string    `json:"email"`
	Timestamp time.Time `json:"timestamp"`
}

// Events publishes account lifecycle events. A nil *Events drops them.
type Events struct {
	Publisher notify.EventPublisher
	Topic     string
}

func (e *Events) publish(ctx context.Context, kind string, acc *models.Account) {
	if e == nil || e.Publisher == nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, eventTimeout)
	defer cancel()

	event := userEvent{
		Type:      kind,
		UserID:    acc.ID.String(),
		Email:     acc.Email,
		Timestamp: time.Now().UTC(),
	}
	if err := e.Publisher.PublishEvent(ctx, e.Topic, acc.ID.String(), event); err != nil {
		logging.FromContext(ctx).Error("event_publish_failed", "type", kind, "error", err)
	}
}
