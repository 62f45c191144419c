package mq

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// ReviewScheduler публикует отложенные сообщения о дедлайнах переоценок
//
// Отложенная доставка через очередь ожидания: сообщение публикуется в wait-очередь
// без потребителей с per-message TTL, по истечении TTL брокер через dead-letter
// exchange перекладывает его в рабочую очередь воркера
type ReviewScheduler struct {
	conn      *amqp.Connection
	ch        *amqp.Channel
	waitQueue string
}

// NewReviewScheduler создает планировщик и объявляет топологию
func NewReviewScheduler(url, exchange, reviewQueue, waitQueue string) (*ReviewScheduler, error) {
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
	return &ReviewScheduler{conn: conn, ch: ch, waitQueue: waitQueue}, nil
}

// ScheduleReviewDue публикует сообщение, которое доедет до воркера не раньше dueAt
func (s *ReviewScheduler) ScheduleReviewDue(ctx context.Context, reviewID, reservationID int64, dueAt time.Time) error {
	msg := ReviewDueMessage{
		ReviewID:      reviewID,
		ReservationID: reservationID,
		DueAt:         dueAt,
	}
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal review message: %w", err)
	}

	delay := time.Until(dueAt)
	if delay < 0 {
		delay = 0
	}

	// Публикация в wait-очередь напрямую через default exchange
	return s.ch.PublishWithContext(ctx, "", s.waitQueue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Expiration:   strconv.FormatInt(delay.Milliseconds(), 10),
		Body:         body,
	})
}

// Close закрывает канал и соединение
func (s *ReviewScheduler) Close() error {
	if s.ch != nil {
		_ = s.ch.Close()
	}
	if s.conn != nil {
		return s.conn.Close()
	}
	return nil
}

// declareReviewTopology объявляет exchange, рабочую и wait-очереди
// Объявления идемпотентны и выполняются и издателем, и потребителем
func declareReviewTopology(ch *amqp.Channel, exchange, reviewQueue, waitQueue string) error {
	if err := ch.ExchangeDeclare(exchange, "direct", true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare exchange: %w", err)
	}

	q, err := ch.QueueDeclare(reviewQueue, true, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("declare queue %s: %w", reviewQueue, err)
	}
	if err := ch.QueueBind(q.Name, RoutingKeyReviewDue, exchange, false, nil); err != nil {
		return fmt.Errorf("bind %s: %w", RoutingKeyReviewDue, err)
	}

	_, err = ch.QueueDeclare(waitQueue, true, false, false, false, amqp.Table{
		"x-dead-letter-exchange":    exchange,
		"x-dead-letter-routing-key": RoutingKeyReviewDue,
	})
	if err != nil {
		return fmt.Errorf("declare wait queue %s: %w", waitQueue, err)
	}

	return nil
}
