package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/SscSPs/cashdesk_backoffice/internal/core/domain"
	portssvc "github.com/SscSPs/cashdesk_backoffice/internal/core/ports/services"
	amqp "github.com/rabbitmq/amqp091-go"
)

// publisher is the part of *amqp.Channel the notifier needs.
type publisher interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// AMQPNotifier publishes workflow events to a topic exchange. The routing key is the
// event name, e.g. "transaction.validated".
type AMQPNotifier struct {
	conn     *amqp.Connection
	channel  publisher
	exchange string
	mu       sync.Mutex
}

var _ portssvc.Notifier = (*AMQPNotifier)(nil)

// NewAMQPNotifier dials url and declares a durable topic exchange.
func NewAMQPNotifier(url, exchange string, logger *slog.Logger) (*AMQPNotifier, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	err = channel.ExchangeDeclare(
		exchange, // name
		"topic",  // type
		true,     // durable
		false,    // auto-deleted
		false,    // internal
		false,    // no-wait
		nil,      // arguments
	)
	if err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare exchange: %w", err)
	}

	logger.Info("RabbitMQ notifier initialized", slog.String("exchange", exchange))
	return &AMQPNotifier{conn: conn, channel: channel, exchange: exchange}, nil
}

func newAMQPNotifierWithPublisher(p publisher, exchange string) *AMQPNotifier {
	return &AMQPNotifier{channel: p, exchange: exchange}
}

func (n *AMQPNotifier) Notify(ctx context.Context, event domain.Event) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event %s: %w", event.Name, err)
	}

	n.mu.Lock()
	defer n.mu.Unlock()
	err = n.channel.PublishWithContext(ctx,
		n.exchange,         // exchange
		string(event.Name), // routing key
		false,              // mandatory
		false,              // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Timestamp:    event.OccurredAt,
			MessageId:    event.Subject,
			Type:         string(event.Name),
			Body:         body,
		})
	if err != nil {
		return fmt.Errorf("failed to publish %s: %w", event.Name, err)
	}
	return nil
}

// Close releases the channel and connection.
func (n *AMQPNotifier) Close() error {
	if ch, ok := n.channel.(*amqp.Channel); ok {
		ch.Close()
	}
	if n.conn != nil {
		return n.conn.Close()
	}
	return nil
}
