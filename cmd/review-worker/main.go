package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"

	"github.com/canchapp/PDR-BookingService/internal/config"
	creditRepo "github.com/canchapp/PDR-BookingService/internal/infra/storage/credit"
	reviewRepo "github.com/canchapp/PDR-BookingService/internal/infra/storage/review"
	"github.com/canchapp/PDR-BookingService/internal/mq"
	depositsService "github.com/canchapp/PDR-BookingService/internal/service/deposits"
	"github.com/canchapp/PDR-BookingService/pkg/logger"
)

// Воркер отложенной переоценки отмен.
// Основной канал доставки - RabbitMQ: сообщение приезжает в момент дедлайна
// (начала отмененного слота). Fallback - периодический опрос просроченных
// переоценок в базе на случай потерянных сообщений
func main() {
	// Загружаем конфигурацию
	cfg, err := config.Load("config.toml")
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Инициализируем логгер
	log, err := logger.New(cfg.Logs.File, cfg.Logs.Level)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Close()

	log.Info("Starting PDR-BookingService review worker...")

	// Подключаемся к базе данных
	db, err := sql.Open("postgres", cfg.Database.DSN())
	if err != nil {
		log.Fatal("Failed to connect to database: %v", err)
	}
	defer db.Close()

	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	db.SetConnMaxLifetime(time.Duration(cfg.Database.ConnMaxLifetime) * time.Second)

	if err := db.Ping(); err != nil {
		log.Fatal("Failed to ping database: %v", err)
	}
	log.Info("Successfully connected to database (host=%s, port=%d, db=%s)",
		cfg.Database.Host, cfg.Database.Port, cfg.Database.DBName)

	// Инициализируем репозитории и сервис депозитной политики
	creditRepository := creditRepo.NewRepository(db)
	reviewRepository := reviewRepo.NewRepository(db)
	depositSvc := depositsService.NewService(creditRepository, reviewRepository, log)

	// Подключаемся к RabbitMQ
	consumer, err := mq.NewReviewConsumer(
		cfg.AMQP.URL,
		cfg.AMQP.Exchange,
		cfg.AMQP.ReviewQueue,
		cfg.AMQP.ReviewWaitQueue,
	)
	if err != nil {
		log.Fatal("Failed to connect to RabbitMQ: %v", err)
	}
	defer consumer.Close()
	log.Info("Review consumer connected (queue=%s)", cfg.AMQP.ReviewQueue)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	deliveries, err := consumer.Deliveries(ctx)
	if err != nil {
		log.Fatal("Failed to start consuming: %v", err)
	}

	// Основной канал: сообщения о наступивших дедлайнах
	go func() {
		for d := range deliveries {
			var msg mq.ReviewDueMessage
			if err := json.Unmarshal(d.Body, &msg); err != nil {
				log.Error("Failed to unmarshal review message: %v", err)
				_ = d.Nack(false, false)
				continue
			}

			if err := depositSvc.ResolveByDeadline(ctx, msg.ReviewID, time.Now()); err != nil {
				// Сообщение не возвращаем в очередь: просроченную переоценку
				// доберет fallback-опрос
				log.Error("Failed to resolve review by deadline: review_id=%d, error=%v", msg.ReviewID, err)
				_ = d.Nack(false, false)
				continue
			}

			log.Info("Review resolved by deadline message: review_id=%d, reservation_id=%d",
				msg.ReviewID, msg.ReservationID)
			_ = d.Ack(false)
		}
	}()

	// Fallback: периодический опрос просроченных переоценок
	pollInterval := time.Duration(cfg.AMQP.PollInterval) * time.Second
	go func() {
		ticker := time.NewTicker(pollInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				resolved, err := depositSvc.ResolveDue(ctx, time.Now())
				if err != nil {
					log.Error("Failed to resolve due reviews: %v", err)
					continue
				}
				if resolved > 0 {
					log.Info("Resolved %d overdue reviews via poll", resolved)
				}
			}
		}
	}()
	log.Info("Fallback poller started (interval=%s)", pollInterval)

	// Ожидаем сигнал завершения
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down review worker...")
	cancel()
	log.Info("Review worker stopped gracefully")
}
