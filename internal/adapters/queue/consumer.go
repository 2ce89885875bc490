package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	amqp "github.com/rabbitmq/amqp091-go"

	"waitlist/internal/domain"
)

type Consumer struct {
	conn     *amqp.Connection
	ch       *amqp.Channel
	exchange string
	queue    string
	keys     []string
}

func NewConsumer(url, exchange, queue string, keys []string) (*Consumer, error) {
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
	q, err := ch.QueueDeclare(queue, true, false, false, false, nil)
	if err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("declare queue: %w", err)
	}
	for _, rk := range keys {
		if err := ch.QueueBind(q.Name, rk, exchange, false, nil); err != nil {
			_ = ch.Close()
			_ = conn.Close()
			return nil, fmt.Errorf("bind %s: %w", rk, err)
		}
	}
	return &Consumer{conn: conn, ch: ch, exchange: exchange, queue: q.Name, keys: keys}, nil
}

func (c *Consumer) Deliveries(ctx context.Context) (<-chan amqp.Delivery, error) {
	return c.ch.ConsumeWithContext(ctx, c.queue, "", false, false, false, false, nil)
}

func (c *Consumer) Close() error {
	if c.ch != nil {
		_ = c.ch.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

// NotificationKeys are the routing keys a notification consumer binds.
func NotificationKeys() []string {
	return []string{
		RoutingKey(domain.NotificationVerification),
		RoutingKey(domain.NotificationInvited),
	}
}

// Dispatcher delivers queued notifications through a synchronous Notifier.
type Dispatcher struct {
	logger  *slog.Logger
	entries domain.EntryRepository
	next    domain.Notifier
}

func NewDispatcher(logger *slog.Logger, entries domain.EntryRepository, next domain.Notifier) *Dispatcher {
	return &Dispatcher{logger: logger, entries: entries, next: next}
}

// Run handles deliveries until the channel closes or ctx is done.
func (d *Dispatcher) Run(ctx context.Context, deliveries <-chan amqp.Delivery) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-deliveries:
			if !ok {
				return nil
			}
			d.Handle(ctx, msg)
		}
	}
}

// Handle processes one delivery. Malformed messages and messages for entries
// that no longer exist are dropped; send failures are requeued once.
func (d *Dispatcher) Handle(ctx context.Context, msg amqp.Delivery) {
	var body NotificationMessage
	if err := json.Unmarshal(msg.Body, &body); err != nil || body.EntryID == "" || body.Kind == "" {
		d.logger.Warn("dropping malformed notification", "routing_key", msg.RoutingKey, "error", err)
		_ = msg.Nack(false, false)
		return
	}

	entry, err := d.entries.GetByID(ctx, body.EntryID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			d.logger.Warn("dropping notification for missing entry", "entry_id", body.EntryID)
			_ = msg.Ack(false)
			return
		}
		d.logger.Error("load entry for notification", "entry_id", body.EntryID, "error", err)
		_ = msg.Nack(false, !msg.Redelivered)
		return
	}

	if body.Kind == domain.NotificationVerification && (entry.IsVerified() || entry.VerificationToken == nil) {
		d.logger.Info("skipping verification for verified entry", "entry_id", entry.ID)
		_ = msg.Ack(false)
		return
	}

	if err := d.next.Send(ctx, entry, body.Kind); err != nil {
		d.logger.Error("deliver notification", "entry_id", entry.ID, "kind", body.Kind, "error", err)
		_ = msg.Nack(false, !msg.Redelivered)
		return
	}
	_ = msg.Ack(false)
}
