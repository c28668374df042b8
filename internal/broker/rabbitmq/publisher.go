// Package rabbitmq publishes order lifecycle events to a RabbitMQ topic
// exchange.
package rabbitmq

import (
	"context"
	"sync"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/smartmenu/order-intake/internal/domain/order"
)

// RoutingKeyCreated is the routing key of order.created events.
const RoutingKeyCreated = "order.created"

var _ order.Publisher = (*Publisher)(nil)

// Channel is the subset of *amqp.Channel used by Publisher.
type Channel interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// Publisher implements order.Publisher over an AMQP channel.
type Publisher struct {
	exchange string

	mu   sync.Mutex // amqp channels are not safe for concurrent publishing
	ch   Channel
	conn *amqp.Connection
}

// Dial connects to the broker and declares a durable topic exchange.
func Dial(url, exchange string) (*Publisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, errors.Wrap(err, "dial rabbitmq")
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, errors.Wrap(err, "open channel")
	}

	p, err := New(ch, exchange)
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	p.conn = conn
	return p, nil
}

// New declares the exchange on ch and returns a Publisher using it.
func New(ch Channel, exchange string) (*Publisher, error) {
	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		return nil, errors.Wrapf(err, "declare exchange %q", exchange)
	}
	return &Publisher{exchange: exchange, ch: ch}, nil
}

// PublishCreated sends a persistent order.created event.
func (p *Publisher) PublishCreated(ctx context.Context, o *order.Order) error {
	msg := amqp.Publishing{
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		ContentType:  "application/json",
		Type:         RoutingKeyCreated,
		Body:         EncodeCreated(o),
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.ch.PublishWithContext(ctx, p.exchange, RoutingKeyCreated, false, false, msg); err != nil {
		return errors.Wrapf(err, "publish %s for order %d", RoutingKeyCreated, o.ID)
	}
	return nil
}

// Close closes the channel and, when dialed by this package, the connection.
func (p *Publisher) Close() error {
	err := p.ch.Close()
	if p.conn != nil {
		if cerr := p.conn.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}
	return err
}

// EncodeCreated renders the order.created event body.
func EncodeCreated(o *order.Order) []byte {
	var e jx.Encoder
	e.ObjStart()
	e.FieldStart("orderId")
	e.Int64(o.ID)
	e.FieldStart("customerName")
	e.Str(o.CustomerName)
	e.FieldStart("currency")
	e.Str(o.Currency)
	e.FieldStart("subtotal")
	e.Str(o.Subtotal.StringFixed(2))
	e.FieldStart("tax")
	e.Str(o.Tax.StringFixed(2))
	e.FieldStart("total")
	e.Str(o.Total.StringFixed(2))
	e.FieldStart("itemCount")
	e.Int(len(o.Items))
	e.FieldStart("createdAt")
	e.Str(o.CreatedAt.UTC().Format(time.RFC3339Nano))
	e.ObjEnd()
	return e.Bytes()
}
