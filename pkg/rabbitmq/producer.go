/**
 * @description
 * This package provides the RabbitMQ producer used for transaction
 * notifications. Messages go straight to a durable queue via the default
 * exchange, with persistent delivery so notifications survive a broker
 * restart.
 *
 * The connection is established lazily on the first publish rather than at
 * startup, so the service comes up even when the broker is down. A failed
 * publish drops the cached connection and retries once on a fresh one.
 *
 * @dependencies
 * - context, encoding/json, sync, time: Standard Go libraries.
 * - github.com/rabbitmq/amqp091-go: The RabbitMQ client library.
 * - internal/domain: Event payload types.
 */
package rabbitmq

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/rabbitmq/amqp091-go"

	"github.com/AllanKariuki/ledger-service/internal/domain"
)

// Publisher is the interface implemented by types that can publish events.
type Publisher interface {
	PublishTransactionEvent(ctx context.Context, event domain.TransactionEvent) error
	Close()
}

func sanitizeAMQPURL(raw string) (string, error) {
	clean := strings.TrimSpace(raw)
	clean = strings.Trim(clean, "\"'")
	// If any stray characters precede the scheme, slice from first occurrence of amqp
	idx := strings.Index(strings.ToLower(clean), "amqp")
	if idx > 0 {
		clean = clean[idx:]
	}
	u, err := url.Parse(clean)
	if err != nil {
		return "", err
	}
	if u.Scheme != "amqp" && u.Scheme != "amqps" {
		return "", errors.New("AMQP scheme must be either 'amqp://' or 'amqps://'")
	}
	return clean, nil
}

// Producer publishes messages to one durable queue.
type Producer struct {
	url   string
	queue string

	mu      sync.Mutex
	conn    *amqp091.Connection
	channel *amqp091.Channel
}

// NewProducer validates the broker URL and returns a producer. No connection
// is made here; the first publish dials the broker.
func NewProducer(amqpURL, queue string) (*Producer, error) {
	cleanURL, err := sanitizeAMQPURL(amqpURL)
	if err != nil {
		return nil, err
	}
	return &Producer{url: cleanURL, queue: queue}, nil
}

// ensureChannel returns an open channel with the queue declared, dialing the
// broker if needed. Callers must hold p.mu.
func (p *Producer) ensureChannel() (*amqp091.Channel, error) {
	if p.channel != nil && !p.channel.IsClosed() {
		return p.channel, nil
	}

	if p.conn == nil || p.conn.IsClosed() {
		// Bounded dial timeout so a dead broker does not hang the caller
		conn, err := amqp091.DialConfig(p.url, amqp091.Config{Dial: amqp091.DefaultDial(10 * time.Second)})
		if err != nil {
			return nil, err
		}
		p.conn = conn
	}

	ch, err := p.conn.Channel()
	if err != nil {
		return nil, err
	}
	if _, err := ch.QueueDeclare(p.queue, true, false, false, false, nil); err != nil {
		ch.Close()
		return nil, err
	}
	p.channel = ch
	return ch, nil
}

// reset drops the cached connection so the next publish redials. Callers
// must hold p.mu.
func (p *Producer) reset() {
	if p.channel != nil {
		p.channel.Close()
		p.channel = nil
	}
	if p.conn != nil {
		p.conn.Close()
		p.conn = nil
	}
}

// Publish sends a JSON message to the configured queue with persistent
// delivery. On a publish failure the connection is rebuilt and the publish
// retried once.
func (p *Producer) Publish(ctx context.Context, body interface{}) error {
	jsonBody, err := json.Marshal(body)
	if err != nil {
		log.Printf("level=error component=rabbitmq_producer msg=\"json marshal failed\" queue=%s err=%v", p.queue, err)
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	publish := func() error {
		ch, err := p.ensureChannel()
		if err != nil {
			return err
		}
		return ch.PublishWithContext(ctx,
			"",      // default exchange routes by queue name
			p.queue, // routing key
			false,   // mandatory
			false,   // immediate
			amqp091.Publishing{
				ContentType:  "application/json",
				DeliveryMode: amqp091.Persistent,
				Timestamp:    time.Now(),
				Body:         jsonBody,
			},
		)
	}

	if err := publish(); err != nil {
		log.Printf("level=warn component=rabbitmq_producer msg=\"publish failed; reconnecting\" queue=%s err=%v", p.queue, err)
		p.reset()
		if err := publish(); err != nil {
			p.reset()
			return err
		}
	}
	return nil
}

// PublishTransactionEvent publishes a transaction event to the notification queue.
func (p *Producer) PublishTransactionEvent(ctx context.Context, event domain.TransactionEvent) error {
	return p.Publish(ctx, event)
}

// Close gracefully closes the channel and connection to RabbitMQ.
func (p *Producer) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.reset()
}
