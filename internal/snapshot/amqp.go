package snapshot

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"jobmatch/internal/config"
	"jobmatch/internal/types"

	"github.com/streadway/amqp"
)

type amqpChannel interface {
	Publish(exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// SnapshotUpdate is the message body sent after each save
type SnapshotUpdate struct {
	LastUpdated time.Time `json:"last_updated"`
	TotalJobs   int       `json:"total_jobs"`
}

// AMQPNotifier announces saved snapshots on a topic exchange
type AMQPNotifier struct {
	conn       *amqp.Connection
	channel    func() (amqpChannel, error)
	exchange   string
	routingKey string
}

// NewAMQPNotifier dials the broker and declares the exchange
func NewAMQPNotifier(cfg config.AMQPConfig) (*AMQPNotifier, error) {
	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("connect to amqp broker: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open amqp channel: %w", err)
	}
	defer ch.Close()

	if err := ch.ExchangeDeclare(cfg.Exchange, amqp.ExchangeTopic, true, false, false, false, nil); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("declare exchange %s: %w", cfg.Exchange, err)
	}

	return &AMQPNotifier{
		conn:       conn,
		channel:    func() (amqpChannel, error) { return conn.Channel() },
		exchange:   cfg.Exchange,
		routingKey: cfg.RoutingKey,
	}, nil
}

func (n *AMQPNotifier) Name() string { return "amqp" }

// Publish sends {last_updated, total_jobs}
func (n *AMQPNotifier) Publish(_ context.Context, snap types.Snapshot, _ []byte) error {
	ch, err := n.channel()
	if err != nil {
		return fmt.Errorf("open amqp channel: %w", err)
	}
	defer ch.Close()

	body, err := json.Marshal(SnapshotUpdate{LastUpdated: snap.LastUpdated, TotalJobs: snap.TotalJobs})
	if err != nil {
		return err
	}

	return ch.Publish(n.exchange, n.routingKey, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    snap.LastUpdated,
		Body:         body,
	})
}

// Close releases the broker connection
func (n *AMQPNotifier) Close() error {
	if n.conn == nil {
		return nil
	}
	return n.conn.Close()
}
