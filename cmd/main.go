package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	cancelReservationHandler "github.com/canchapp/PDR-BookingService/internal/api/handlers/cancel_reservation"
	createReservationHandler "github.com/canchapp/PDR-BookingService/internal/api/handlers/create_reservation"
	getAvailableSlotsHandler "github.com/canchapp/PDR-BookingService/internal/api/handlers/get_available_slots"
	getReservationHandler "github.com/canchapp/PDR-BookingService/internal/api/handlers/get_reservation"
	getUserReservationsHandler "github.com/canchapp/PDR-BookingService/internal/api/handlers/get_user_reservations"
	getVenueReservationsHandler "github.com/canchapp/PDR-BookingService/internal/api/handlers/get_venue_reservations"
	paymentWebhookHandler "github.com/canchapp/PDR-BookingService/internal/api/handlers/payment_webhook"
	updateReservationStatusHandler "github.com/canchapp/PDR-BookingService/internal/api/handlers/update_reservation_status"
	"github.com/canchapp/PDR-BookingService/internal/api/middleware"
	"github.com/canchapp/PDR-BookingService/internal/config"
	creditRepo "github.com/canchapp/PDR-BookingService/internal/infra/storage/credit"
	paymentEventRepo "github.com/canchapp/PDR-BookingService/internal/infra/storage/paymentevent"
	reservationRepo "github.com/canchapp/PDR-BookingService/internal/infra/storage/reservation"
	reviewRepo "github.com/canchapp/PDR-BookingService/internal/infra/storage/review"
	payGatewayClient "github.com/canchapp/PDR-BookingService/internal/integrations/paygateway"
	venueServiceClient "github.com/canchapp/PDR-BookingService/internal/integrations/venueservice"
	"github.com/canchapp/PDR-BookingService/internal/mq"
	depositsService "github.com/canchapp/PDR-BookingService/internal/service/deposits"
	reservationsService "github.com/canchapp/PDR-BookingService/internal/service/reservations"
	cancelReservationUC "github.com/canchapp/PDR-BookingService/internal/usecase/cancel_reservation"
	createReservationUC "github.com/canchapp/PDR-BookingService/internal/usecase/create_reservation"
	getAvailableSlotsUC "github.com/canchapp/PDR-BookingService/internal/usecase/get_available_slots"
	processNotificationUC "github.com/canchapp/PDR-BookingService/internal/usecase/process_payment_notification"
	"github.com/canchapp/PDR-BookingService/pkg/dbmetrics"
	"github.com/canchapp/PDR-BookingService/pkg/logger"
	"github.com/canchapp/PDR-BookingService/pkg/metrics"
	"github.com/canchapp/PDR-BookingService/pkg/simpletxmanager"
	"github.com/canchapp/PDR-BookingService/pkg/txmanager"
)

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

	log.Info("Starting PDR-BookingService...")
	log.Info("Configuration loaded from config.toml")

	// Инициализируем метрики (если включены)
	var metricsCollector *metrics.Metrics
	var wrappedDB *dbmetrics.DB
	stopMetricsCh := make(chan struct{})

	if cfg.Metrics.Enabled {
		metricsCollector = metrics.New(cfg.Metrics.ServiceName)
		log.Info("Metrics enabled at %s", cfg.Metrics.Path)
	}

	// Подключаемся к базе данных
	db, err := sql.Open("postgres", cfg.Database.DSN())
	if err != nil {
		log.Fatal("Failed to connect to database: %v", err)
	}
	defer db.Close()

	// Настраиваем connection pool
	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	db.SetConnMaxLifetime(time.Duration(cfg.Database.ConnMaxLifetime) * time.Second)

	// Проверяем соединение
	if err := db.Ping(); err != nil {
		log.Fatal("Failed to ping database: %v", err)
	}
	log.Info("Successfully connected to database (host=%s, port=%d, db=%s)",
		cfg.Database.Host, cfg.Database.Port, cfg.Database.DBName)

	// Инициализируем интеграционных клиентов
	venueClient := venueServiceClient.NewClient(
		cfg.VenueService.URL,
		time.Duration(cfg.VenueService.Timeout)*time.Second,
		log,
	)
	payClient := payGatewayClient.NewClient(
		cfg.PayGateway.URL,
		cfg.PayGateway.Token,
		time.Duration(cfg.PayGateway.Timeout)*time.Second,
		log,
	)
	log.Info("Integration clients initialized (VenueService=%s timeout=%ds, PayGateway=%s timeout=%ds)",
		cfg.VenueService.URL, cfg.VenueService.Timeout, cfg.PayGateway.URL, cfg.PayGateway.Timeout)

	// Планировщик отложенной переоценки отмен
	reviewScheduler, err := mq.NewReviewScheduler(
		cfg.AMQP.URL,
		cfg.AMQP.Exchange,
		cfg.AMQP.ReviewQueue,
		cfg.AMQP.ReviewWaitQueue,
	)
	if err != nil {
		log.Fatal("Failed to connect to RabbitMQ: %v", err)
	}
	defer reviewScheduler.Close()
	log.Info("Review scheduler connected (exchange=%s, queue=%s)", cfg.AMQP.Exchange, cfg.AMQP.ReviewQueue)

	// Инициализируем репозитории (с метриками или без)
	var (
		reservationRepository  *reservationRepo.Repository
		creditRepository       *creditRepo.Repository
		reviewRepository       *reviewRepo.Repository
		paymentEventRepository *paymentEventRepo.Repository
	)

	// Интерфейс для transaction manager (используется в usecases)
	type TxManager interface {
		Do(ctx context.Context, fn func(ctx context.Context) error) error
		DoSerializable(ctx context.Context, fn func(ctx context.Context) error) error
	}
	var txMgr TxManager

	if cfg.Metrics.Enabled {
		wrappedDB = dbmetrics.WrapWithDefault(db, metricsCollector, cfg.Metrics.ServiceName, stopMetricsCh)
		log.Info("Database metrics collection started")

		reservationRepository = reservationRepo.NewRepository(wrappedDB)
		creditRepository = creditRepo.NewRepository(wrappedDB)
		reviewRepository = reviewRepo.NewRepository(wrappedDB)
		paymentEventRepository = paymentEventRepo.NewRepository(wrappedDB)
		txMgr = txmanager.NewTransactionManager(wrappedDB)
	} else {
		reservationRepository = reservationRepo.NewRepository(db)
		creditRepository = creditRepo.NewRepository(db)
		reviewRepository = reviewRepo.NewRepository(db)
		paymentEventRepository = paymentEventRepo.NewRepository(db)
		txMgr = simpletxmanager.NewTransactionManager(db)
	}

	// Инициализируем сервисы
	depositSvc := depositsService.NewService(
		creditRepository,
		reviewRepository,
		log,
	)
	reservationSvc := reservationsService.NewService(
		reservationRepository,
		venueClient,
		log,
	)

	// Инициализируем use cases
	createReservationUseCase := createReservationUC.NewUseCase(
		reservationRepository,
		creditRepository,
		depositSvc,
		venueClient,
		txMgr,
		log,
	)

	cancelReservationUseCase := cancelReservationUC.NewUseCase(
		reservationRepository,
		depositSvc,
		venueClient,
		reviewScheduler,
		txMgr,
		log,
	)

	getAvailableSlotsUseCase := getAvailableSlotsUC.NewUseCase(
		reservationRepository,
		venueClient,
		log,
	)

	processNotificationUseCase := processNotificationUC.NewUseCase(
		reservationRepository,
		paymentEventRepository,
		payClient,
		txMgr,
		log,
	)

	// Инициализируем handlers
	createReservation := createReservationHandler.NewHandler(createReservationUseCase, log)
	cancelReservation := cancelReservationHandler.NewHandler(cancelReservationUseCase, log)
	getAvailableSlots := getAvailableSlotsHandler.NewHandler(getAvailableSlotsUseCase, log)
	paymentWebhook := paymentWebhookHandler.NewHandler(processNotificationUseCase, log)
	getReservation := getReservationHandler.NewHandler(reservationSvc, log)
	getUserReservations := getUserReservationsHandler.NewHandler(reservationSvc, log)
	getVenueReservations := getVenueReservationsHandler.NewHandler(reservationSvc, log)
	updateReservationStatus := updateReservationStatusHandler.NewHandler(reservationSvc, log)

	// Настраиваем роутер
	r := mux.NewRouter()

	// Добавляем metrics middleware (если метрики включены)
	if cfg.Metrics.Enabled {
		r.Use(middleware.MetricsMiddleware(metricsCollector, cfg.Metrics.ServiceName))
		log.Info("HTTP metrics middleware enabled")
	}

	// Metrics endpoint (публичный, без аутентификации)
	if cfg.Metrics.Enabled {
		r.Handle(cfg.Metrics.Path, promhttp.Handler()).Methods(http.MethodGet)
		log.Info("Prometheus metrics endpoint exposed at %s", cfg.Metrics.Path)
	}

	// API prefix
	api := r.PathPrefix("/api/v1").Subrouter()

	// ============================================================
	// PUBLIC ROUTES (без аутентификации)
	// ============================================================

	// Получение доступных слотов корта на день
	api.HandleFunc("/courts/{courtId}/available-slots",
		getAvailableSlots.Handle).Methods(http.MethodGet)

	// Вебхук платежного шлюза (статус перепроверяется внутри use case)
	api.HandleFunc("/payments/webhook", paymentWebhook.Handle).Methods(http.MethodPost)

	// ============================================================
	// PROTECTED ROUTES (требуют X-User-ID header)
	// ============================================================

	protected := api.PathPrefix("").Subrouter()
	protected.Use(middleware.Auth)

	// --- Бронирования ---
	// Создание бронирования
	protected.HandleFunc("/reservations", createReservation.Handle).Methods(http.MethodPost)

	// Получение бронирования по ID
	protected.HandleFunc("/reservations/{reservationId}", getReservation.Handle).Methods(http.MethodGet)

	// Отмена бронирования (с депозитной политикой)
	protected.HandleFunc("/reservations/{reservationId}/cancel", cancelReservation.Handle).Methods(http.MethodPatch)

	// Ручное обновление статуса оплаты (наличные, перевод; только владельцы предия)
	protected.HandleFunc("/reservations/{reservationId}/status", updateReservationStatus.Handle).Methods(http.MethodPatch)

	// История бронирований пользователя
	protected.HandleFunc("/users/{userId}/reservations", getUserReservations.Handle).Methods(http.MethodGet)

	// --- Управление предием (для владельцев) ---
	// Список бронирований предия с фильтрацией
	protected.HandleFunc("/venues/{venueId}/reservations", getVenueReservations.Handle).Methods(http.MethodGet)

	// Создаем HTTP сервер
	addr := fmt.Sprintf(":%d", cfg.Server.HTTPPort)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	// Graceful shutdown
	go func() {
		log.Info("Starting server on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Server failed to start: %v", err)
		}
	}()

	// Ожидаем сигнал завершения
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	// Останавливаем сбор метрик connection pool
	if cfg.Metrics.Enabled {
		close(stopMetricsCh)
		log.Info("Metrics collection stopped")
	}

	shutdownCtx, cancel := context.WithTimeout(
		context.Background(),
		time.Duration(cfg.Server.ShutdownTimeout)*time.Second,
	)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown: %v", err)
	}

	log.Info("Server stopped gracefully")
}
