// Package events publishes domain events to the message broker. The
// caller treats publishing as best effort; a broker outage never fails
// the request that produced the event.
package events

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"booking-core/internal/pkg/config"
	"booking-core/internal/pkg/errs"

	amqp "github.com/rabbitmq/amqp091-go"
)

type Publisher struct {
	conn     *amqp.Connection
	exchange string

	mu       sync.Mutex
	ch       *amqp.Channel
	declared map[string]struct{}
}

func NewPublisher(cfg config.AMQPConfig) (*Publisher, func(), error) {
	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, nil, errs.Wrap(err, "failed to connect to message broker")
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, nil, errs.Wrap(err, "failed to open broker channel")
	}

	p := &Publisher{
		conn:     conn,
		exchange: cfg.Exchange,
		ch:       ch,
		declared: map[string]struct{}{},
	}
	cleanup := func() {
		_ = ch.Close()
		_ = conn.Close()
	}
	return p, cleanup, nil
}

func (p *Publisher) Publish(ctx context.Context, topic string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return errs.Wrap(err, "failed to marshal event payload")
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.ensureQueue(topic); err != nil {
		return err
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}
	if err := p.ch.PublishWithContext(ctx, p.exchange, topic, false, false, pub); err != nil {
		return errs.Wrap(err, "failed to publish event")
	}
	return nil
}

// ensureQueue declares the topic's queue once per process. Declaration
// is idempotent on the broker side; skipping repeats just saves a round
// trip. Only used with the default exchange, where the routing key is
// the queue name.
func (p *Publisher) ensureQueue(topic string) error {
	if p.exchange != "" {
		return nil
	}
	if _, ok := p.declared[topic]; ok {
		return nil
	}

	if _, err := p.ch.QueueDeclare(topic, true, false, false, false, nil); err != nil {
		return errs.Wrap(err, "failed to declare event queue")
	}
	p.declared[topic] = struct{}{}
	return nil
}
