package mq

import (
	"context"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
)

// ReviewConsumer читает сообщения о наступивших дедлайнах переоценок
type ReviewConsumer struct {
	conn  *amqp.Connection
	ch    *amqp.Channel
	queue string
}

// NewReviewConsumer создает потребителя и объявляет топологию
func NewReviewConsumer(url, exchange, reviewQueue, waitQueue string) (*ReviewConsumer, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	if err := declareReviewTopology(ch, exchange, reviewQueue, waitQueue); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, err
	}
	return &ReviewConsumer{conn: conn, ch: ch, queue: reviewQueue}, nil
}

// Deliveries возвращает канал доставок; ack ручной
func (c *ReviewConsumer) Deliveries(ctx context.Context) (<-chan amqp.Delivery, error) {
	return c.ch.ConsumeWithContext(ctx, c.queue, "", false, false, false, false, nil)
}

// Close закрывает канал и соединение
func (c *ReviewConsumer) Close() error {
	if c.ch != nil {
		_ = c.ch.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}
