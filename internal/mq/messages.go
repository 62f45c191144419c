package mq

import "time"

// RoutingKeyReviewDue ключ маршрутизации сообщений о наступлении дедлайна переоценки
const RoutingKeyReviewDue = "review.due"

// ReviewDueMessage сообщение о наступлении дедлайна отложенной переоценки отмены
// Публикуется в очередь ожидания с TTL до начала слота; по истечении TTL брокер
// перекладывает его через dead-letter exchange в рабочую очередь воркера
type ReviewDueMessage struct {
	ReviewID      int64     `json:"review_id"`
	ReservationID int64     `json:"reservation_id"`
	DueAt         time.Time `json:"due_at"`
}
