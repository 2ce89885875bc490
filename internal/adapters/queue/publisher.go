package queue

import (
	"context"
	"encoding/json"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"

	"waitlist/internal/domain"
)

const messageVersion = 1

// NotificationMessage is the body published for each queued notification.
// Only the entry id travels; the consumer reloads the entry before sending.
type NotificationMessage struct {
	Version int                     `json:"version"`
	EntryID string                  `json:"entry_id"`
	Kind    domain.NotificationKind `json:"kind"`
}

// RoutingKey returns the topic key a notification kind is published under.
func RoutingKey(kind domain.NotificationKind) string {
	return "waitlist." + string(kind)
}

type Publisher struct {
	conn     *amqp.Connection
	ch       *amqp.Channel
	exchange string
}

func NewPublisher(url, exchange string) (*Publisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("declare exchange: %w", err)
	}
	return &Publisher{conn: conn, ch: ch, exchange: exchange}, nil
}

func (p *Publisher) PublishJSON(ctx context.Context, key string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return p.ch.PublishWithContext(ctx, p.exchange, key, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Body:         b,
	})
}

func (p *Publisher) Close() error {
	if p.ch != nil {
		_ = p.ch.Close()
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}

// JSONPublisher is satisfied by *Publisher.
type JSONPublisher interface {
	PublishJSON(ctx context.Context, key string, v any) error
}

type queueNotifier struct {
	pub JSONPublisher
}

// NewNotifier returns a Notifier that enqueues notifications instead of
// sending them inline. A consumer running Dispatcher delivers them.
func NewNotifier(pub JSONPublisher) domain.Notifier {
	return &queueNotifier{pub: pub}
}

func (n *queueNotifier) Send(ctx context.Context, entry *domain.Entry, kind domain.NotificationKind) error {
	msg := NotificationMessage{Version: messageVersion, EntryID: entry.ID, Kind: kind}
	if err := n.pub.PublishJSON(ctx, RoutingKey(kind), msg); err != nil {
		return fmt.Errorf("publish %s notification: %w", kind, err)
	}
	return nil
}
