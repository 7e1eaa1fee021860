package rabbitmq

import (
	"clipnest-pipeline/config"
	"clipnest-pipeline/constant"
	"context"
	"fmt"
	amqp "github.com/rabbitmq/amqp091-go"
	"strings"
	"sync"
	"time"
)

const routingKeyPrefix = "wake."

func RoutingKey(stage constant.Stage) string {
	return routingKeyPrefix + stage.String()
}

func StageFromRoutingKey(key string) (constant.Stage, bool) {
	if !strings.HasPrefix(key, routingKeyPrefix) {
		return "", false
	}
	return constant.ParseStage(strings.TrimPrefix(key, routingKeyPrefix))
}

// Waker publishes wake signals for other processes. An amqp channel is not
// safe for concurrent publishing, so publishes are serialized.
type Waker struct {
	mu       sync.Mutex
	ch       *amqp.Channel
	exchange string
}

func NewWaker(conn *amqp.Connection, cfg *config.RabbitMQ) (*Waker, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, err
	}

	err = ch.ExchangeDeclare(cfg.ExchangeName, cfg.Kind, true, false, false, false, nil)
	if err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("declare exchange %s: %w", cfg.ExchangeName, err)
	}

	return &Waker{ch: ch, exchange: cfg.ExchangeName}, nil
}

func (w *Waker) Wake(ctx context.Context, stage constant.Stage) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	err := w.ch.PublishWithContext(ctx, w.exchange, RoutingKey(stage), false, false, amqp.Publishing{
		ContentType: "application/json",
		Timestamp:   time.Now(),
		Body:        []byte("{}"),
	})
	if err != nil {
		return fmt.Errorf("publish wake %s: %w", stage, err)
	}
	return nil
}

func (w *Waker) Close() error {
	return w.ch.Close()
}
