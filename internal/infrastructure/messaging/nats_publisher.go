// Package messaging fans newly created notifications out to live
// consumers. Publishing never fails the sweep: the record is already
// persisted and readable through the API.
package messaging

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	"github.com/nats-io/nats.go"

	"rncflow/internal/bootstrap/logging"
	"rncflow/internal/domain/notification"
	"rncflow/internal/errs"
	"rncflow/internal/ports"
)

type notificationEvent struct {
	ID         uint64    `json:"id"`
	UserID     uint64    `json:"user_id"`
	TypeCode   string    `json:"type_code"`
	UniqueKey  string    `json:"unique_key"`
	EntityType string    `json:"entity_type"`
	EntityID   uint64    `json:"entity_id"`
	Title      string    `json:"title"`
	Message    string    `json:"message"`
	Severity   string    `json:"severity"`
	Link       string    `json:"link,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// NATSPublisher publishes on {prefix}.{typeCode}.
type NATSPublisher struct {
	conn   *nats.Conn
	prefix string
}

var _ ports.NotificationPublisher = (*NATSPublisher)(nil)

func Connect(url string, name string) (*nats.Conn, error) {
	conn, err := nats.Connect(url,
		nats.Name(name),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, errs.Wrapf(err, "connect nats %q", url)
	}
	return conn, nil
}

func NewNATSPublisher(conn *nats.Conn, prefix string) *NATSPublisher {
	prefix = strings.Trim(strings.TrimSpace(prefix), ".")
	if prefix == "" {
		prefix = "notifications.rnc"
	}
	return &NATSPublisher{conn: conn, prefix: prefix}
}

func (p *NATSPublisher) Subject(code string) string {
	return p.prefix + "." + notification.NormalizeCode(code)
}

func (p *NATSPublisher) Publish(ctx context.Context, n notification.Notification) error {
	if p.conn == nil {
		return nil
	}
	data, err := json.Marshal(notificationEvent{
		ID:         n.ID,
		UserID:     n.UserID,
		TypeCode:   n.TypeCode,
		UniqueKey:  n.UniqueKey,
		EntityType: n.EntityType,
		EntityID:   n.EntityID,
		Title:      n.Title,
		Message:    n.Message,
		Severity:   string(n.Severity),
		Link:       n.Link,
		CreatedAt:  n.CreatedAt,
	})
	if err != nil {
		logging.Warn(ctx, "marshal notification event failed", slog.Any("err", errs.Loggable(err)))
		return nil
	}

	subject := p.Subject(n.TypeCode)
	if err := p.conn.Publish(subject, data); err != nil {
		logging.Warn(ctx, "publish notification event failed (non-fatal)",
			slog.String("subject", subject),
			slog.Uint64("notification_id", n.ID),
			slog.Any("err", errs.Loggable(err)),
		)
		return nil
	}

	logging.Debug(ctx, "notification event published", slog.String("subject", subject), slog.Uint64("notification_id", n.ID))
	return nil
}

// NoopPublisher is used when nats.enabled is false.
type NoopPublisher struct{}

var _ ports.NotificationPublisher = NoopPublisher{}

func (NoopPublisher) Publish(context.Context, notification.Notification) error { return nil }
