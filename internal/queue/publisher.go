package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/iliyamo/placenote/internal/config"
)

// Publisher sends MemoEvents to a durable queue on the default exchange.
// Each call opens and closes its own connection; event volume is one
// message per memo write.
type Publisher struct {
	url   string
	queue string
	log   *zap.Logger
	dial  func(url string, timeout time.Duration) (*amqp.Connection, error)
}

// defaultDialTimeout applies when the caller's context has no deadline.
const defaultDialTimeout = 30 * time.Second

// dialWithTimeout bounds both the TCP connect and the AMQP handshake.
func dialWithTimeout(url string, timeout time.Duration) (*amqp.Connection, error) {
	return amqp.DialConfig(url, amqp.Config{
		Heartbeat: 10 * time.Second,
		Locale:    "en_US",
		Dial:      amqp.DefaultDial(timeout),
	})
}

func NewPublisher(cfg config.QueueConfig, log *zap.Logger) *Publisher {
	if log == nil {
		log = zap.NewNop()
	}
	return &Publisher{url: cfg.URL, queue: cfg.QueueName, log: log, dial: dialWithTimeout}
}

// Publish delivers ev as a persistent JSON message.  The dial and handshake
// share ctx's deadline.  Errors are logged and returned; callers decide
// whether they matter.
func (p *Publisher) Publish(ctx context.Context, ev MemoEvent) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal memo event: %w", err)
	}

	timeout := defaultDialTimeout
	if dl, ok := ctx.Deadline(); ok {
		timeout = time.Until(dl)
	}
	if err := ctx.Err(); err != nil || timeout <= 0 {
		if err == nil {
			err = context.DeadlineExceeded
		}
		return fmt.Errorf("dial broker: %w", err)
	}

	conn, err := p.dial(p.url, timeout)
	if err != nil {
		p.log.Warn("memo event broker dial failed", zap.Error(err))
		return fmt.Errorf("dial broker: %w", err)
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("open channel: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if _, err := declare(ch, p.queue); err != nil {
		return err
	}

	err = ch.PublishWithContext(ctx, "", p.queue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Type:         string(ev.Type),
		Body:         body,
	})
	if err != nil {
		p.log.Warn("memo event publish failed", zap.String("type", string(ev.Type)), zap.Error(err))
		return fmt.Errorf("publish %s: %w", ev.Type, err)
	}
	return nil
}

// declare makes sure the durable queue exists.  Idempotent.
func declare(ch *amqp.Channel, name string) (amqp.Queue, error) {
	q, err := ch.QueueDeclare(name, true, false, false, false, nil)
	if err != nil {
		return q, fmt.Errorf("declare queue %s: %w", name, err)
	}
	return q, nil
}
