package notifier

import (
	"context"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Publisher is the subset of *amqp.Channel used for publishing.
type Publisher interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// AMQPNotifier publishes each report as a text message to a queue.
type AMQPNotifier struct {
	Queue   string
	channel Publisher
	closer  func() error
}

// DialAMQP connects to the broker and declares a durable queue.
func DialAMQP(url, queue string) (*AMQPNotifier, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("amqp dial: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("amqp channel: %w", err)
	}
	if _, err := ch.QueueDeclare(
		queue, // name
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,   // arguments
	); err != nil {
		conn.Close()
		return nil, fmt.Errorf("amqp declare %s: %w", queue, err)
	}
	n := NewAMQPNotifier(ch, queue)
	n.closer = conn.Close
	return n, nil
}

// NewAMQPNotifier wraps an already open channel.
func NewAMQPNotifier(ch Publisher, queue string) *AMQPNotifier {
	return &AMQPNotifier{Queue: queue, channel: ch}
}

func (a *AMQPNotifier) Name() string { return "amqp" }

// Deliver publishes body on the default exchange; recipient overrides the routing key.
func (a *AMQPNotifier) Deliver(ctx context.Context, recipient, subject, body string) error {
	key := recipient
	if key == "" {
		key = a.Queue
	}
	err := a.channel.PublishWithContext(ctx,
		"",    // exchange
		key,   // routing key
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType:  "text/plain",
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now(),
			Headers:      amqp.Table{"subject": subject},
			Body:         []byte(body),
		})
	if err != nil {
		return fmt.Errorf("amqp publish: %w", err)
	}
	return nil
}

// Close closes the broker connection when the notifier owns it.
func (a *AMQPNotifier) Close() error {
	if a.closer == nil {
		return nil
	}
	return a.closer()
}
