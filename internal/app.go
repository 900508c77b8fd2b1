package internal

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/feldboy/aparmenttool/internal/adapters/facebookfetcher"
	"github.com/feldboy/aparmenttool/internal/adapters/imagehash"
	logger_adapter "github.com/feldboy/aparmenttool/internal/adapters/logger"
	"github.com/feldboy/aparmenttool/internal/adapters/notifier"
	postgres_adapter "github.com/feldboy/aparmenttool/internal/adapters/postgres"
	rabbitmq_adapter "github.com/feldboy/aparmenttool/internal/adapters/rabbitmq"
	"github.com/feldboy/aparmenttool/internal/adapters/rediscache"
	"github.com/feldboy/aparmenttool/internal/adapters/rest"
	"github.com/feldboy/aparmenttool/internal/adapters/yad2fetcher"
	"github.com/feldboy/aparmenttool/internal/configs"
	"github.com/feldboy/aparmenttool/internal/constants"
	"github.com/feldboy/aparmenttool/internal/core/domain"
	"github.com/feldboy/aparmenttool/internal/core/port"
	"github.com/feldboy/aparmenttool/internal/core/usecase"
	"github.com/feldboy/aparmenttool/internal/scheduler"
	"github.com/feldboy/aparmenttool/migrations"
	fluentlogger "github.com/feldboy/aparmenttool/pkg/fluent_logger"
	"github.com/feldboy/aparmenttool/pkg/postgres"
	"github.com/feldboy/aparmenttool/pkg/rabbitmq/rabbitmq_common"
	"github.com/feldboy/aparmenttool/pkg/rabbitmq/rabbitmq_producer"

	"github.com/fluent/fluent-logger-golang/fluent"
	"github.com/jackc/pgx/v5/pgxpool"
)

// App – структура приложения
type App struct {
	config        *configs.AppConfig
	dbPool        *pgxpool.Pool
	connManager   *rabbitmq_common.ConnectionManager
	eventProducer *rabbitmq_producer.Publisher
	fluentClient  *fluent.Fluent
	seenCache     *rediscache.RedisSeenCache
	logger        port.LoggerPort

	scheduler  *scheduler.Service
	restServer *rest.Server
}

// NewApp создает новый экземпляр приложения.
// Это "Composition Root", где все зависимости создаются и связываются.
func NewApp() (*App, error) {
	appConfig, err := configs.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("error loading application configuration: %w", err)
	}

	// --- 1. ИНИЦИАЛИЗАЦИЯ ЛОГГЕРОВ ---
	var activeLoggers []port.LoggerPort

	slogCfg := logger_adapter.SlogConfig{
		Level:    parseLogLevel(appConfig.StdoutLogger.Level),
		IsJSON:   false, // текстовый формат
		UseColor: true,
	}
	stdoutLogger := logger_adapter.NewSlogAdapter(slogCfg)
	activeLoggers = append(activeLoggers, stdoutLogger)

	// Добавляем Fluent Bit логгер, если он включен в конфигурации
	var fluentClient *fluent.Fluent
	if appConfig.FluentBit.Enabled {
		fluentClient, err = fluentlogger.NewClient(fluentlogger.Config{
			Host:      appConfig.FluentBit.Host,
			Port:      appConfig.FluentBit.Port,
			TagPrefix: appConfig.AppName, // Используем имя приложения как префикс
		})
		if err != nil {
			stdoutLogger.Error("Failed to create fluentbit client", err, nil)
			return nil, fmt.Errorf("failed to create fluentbit client: %w", err)
		}

		fluentAdapter, err := logger_adapter.NewFluentLoggerAdapter(fluentClient, parseLogLevel(appConfig.FluentBit.Level))
		if err != nil {
			stdoutLogger.Error("Failed to create fluentbit adapter", err, nil)
			fluentClient.Close()
			return nil, err
		}
		activeLoggers = append(activeLoggers, fluentAdapter)
	}

	// Создаем наш композитный логгер
	multiLogger, err := logger_adapter.NewMultiloggerAdapter(activeLoggers...)
	if err != nil {
		return nil, fmt.Errorf("failed to create multi-logger: %w", err)
	}

	// --- 2. СОЗДАЕМ БАЗОВЫЙ ЛОГГЕР ПРИЛОЖЕНИЯ С КОНТЕКСТОМ ---
	baseLogger := multiLogger.WithFields(port.Fields{
		"service_name": appConfig.AppName,
	})

	appLogger := baseLogger.WithFields(port.Fields{"component": "app"})
	appLogger.Info("Logger system initialized", port.Fields{
		"active_loggers": len(activeLoggers), "fluent_enabled": appConfig.FluentBit.Enabled,
	})

	// --- 3. НИЗКОУРОВНЕВЫЕ ЗАВИСИМОСТИ ---
	if err := postgres.RunMigrations(appConfig.Database.URL, migrations.FS); err != nil {
		appLogger.Error("Failed to run database migrations", err, nil)
		return nil, fmt.Errorf("failed to run database migrations: %w", err)
	}
	appLogger.Info("Database migrations applied.", nil)

	dbPool, err := postgres.NewClient(context.Background(), postgres.Config{DatabaseURL: appConfig.Database.URL})
	if err != nil {
		appLogger.Error("Failed to connect to PostgreSQL", err, nil)
		return nil, fmt.Errorf("failed to connect to PostgreSQL: %w", err)
	}
	appLogger.Info("Successfully connected to PostgreSQL pool!", nil)

	connManagerLogger := baseLogger.WithFields(port.Fields{"component": "rabbitmq_conn_manager"})
	connManagerBridge := rabbitmq_adapter.NewPkgLoggerBridge(connManagerLogger)
	connManager, err := rabbitmq_common.GetManager(appConfig.RabbitMQ.URL, connManagerBridge)
	if err != nil {
		appLogger.Error("Failed to create connection manager", err, nil)
		dbPool.Close()
		return nil, fmt.Errorf("failed to create connection manager: %w", err)
	}
	appLogger.Info("RabbitMQ Connection Manager initialized.", nil)

	producerLogger := baseLogger.WithFields(port.Fields{"component": "rabbitmq_producer"})
	producerCfg := rabbitmq_producer.PublisherConfig{
		Config:                   rabbitmq_common.Config{URL: appConfig.RabbitMQ.URL},
		ExchangeName:             constants.ScannerExchange,
		ExchangeType:             "topic",
		DurableExchange:          true,
		DeclareExchangeIfMissing: true,
		Logger:                   rabbitmq_adapter.NewPkgLoggerBridge(producerLogger),
	}
	eventProducer, err := rabbitmq_producer.NewPublisher(producerCfg, connManager)
	if err != nil {
		appLogger.Error("Failed to create event producer", err, port.Fields{"url": appConfig.RabbitMQ.URL})
		dbPool.Close()
		return nil, fmt.Errorf("failed to create event producer: %w", err)
	}
	appLogger.Info("RabbitMQ Event Producer initialized.", nil)

	var seenCache *rediscache.RedisSeenCache
	if appConfig.Redis.Enabled {
		seenCache, err = rediscache.NewRedisSeenCache(context.Background(), appConfig.Redis.URL)
		if err != nil {
			// Кэш опционален, без него дедупликация просто ходит в базу
			appLogger.Warn("Failed to connect to Redis, continuing without seen cache", port.Fields{"error": err.Error()})
			seenCache = nil
		} else {
			appLogger.Info("Redis seen cache initialized.", nil)
		}
	}

	// --- 4. ИСХОДЯЩИЕ АДАПТЕРЫ ---
	yad2Adapter, err := yad2fetcher.NewYad2FetcherAdapter(constants.Yad2RentSearchURL)
	if err != nil {
		appLogger.Error("Failed to create Yad2 Fetcher Adapter", err, nil)
		eventProducer.Close()
		dbPool.Close()
		return nil, fmt.Errorf("failed to initialize yad2 fetcher: %w", err)
	}
	facebookAdapter := facebookfetcher.NewFacebookFetcherAdapter(appConfig.Facebook.CookiesFile, appConfig.Facebook.Headless)
	appLogger.Info("Source fetcher adapters initialized.", nil)

	profileRepo, err := postgres_adapter.NewPostgresProfileRepository(dbPool)
	if err != nil {
		eventProducer.Close()
		dbPool.Close()
		return nil, err
	}
	scanStateRepo, err := postgres_adapter.NewPostgresScanStateRepository(dbPool)
	if err != nil {
		eventProducer.Close()
		dbPool.Close()
		return nil, err
	}
	notificationLog, err := postgres_adapter.NewPostgresNotificationLogRepository(dbPool)
	if err != nil {
		eventProducer.Close()
		dbPool.Close()
		return nil, err
	}

	var seenCachePort port.SeenCachePort
	if seenCache != nil {
		seenCachePort = seenCache
	}
	dedupIndex, err := postgres_adapter.NewPostgresDedupIndexRepository(dbPool, seenCachePort)
	if err != nil {
		eventProducer.Close()
		dbPool.Close()
		return nil, err
	}

	matchEventsQueue, err := rabbitmq_adapter.NewRabbitMQMatchEventsAdapter(eventProducer, constants.RoutingKeyMatchFound)
	if err != nil {
		appLogger.Error("Failed to create match events adapter", err, nil)
		eventProducer.Close()
		dbPool.Close()
		return nil, err
	}

	var imageHasher port.ImageHasherPort
	if appConfig.Scanner.ImageHashEnabled {
		imageHasher = imagehash.NewPerceptionHasher()
	}

	channels, err := buildDeliveryChannels(appConfig, appLogger)
	if err != nil {
		eventProducer.Close()
		dbPool.Close()
		return nil, err
	}
	appLogger.Info("All outgoing adapters initialized.", port.Fields{"delivery_channels": len(channels)})

	// --- 5. ИНИЦИАЛИЗАЦИЯ USE CASES (ядра бизнес-логики) ---
	evaluateUC := usecase.NewEvaluateListingUseCase()
	dispatchUC := usecase.NewDispatchMatchUseCase(
		channels,
		notificationLog,
		domain.ChannelTelegram,
		appConfig.Telegram.OperatorChatID,
		appConfig.Scanner.NotifyMaxRetries,
		time.Duration(appConfig.Scanner.NotifyBackoffSeconds)*time.Second,
	)
	scanSourceUC := usecase.NewScanSourceUseCase(
		[]port.SourceFetcherPort{yad2Adapter, facebookAdapter},
		scanStateRepo,
		dedupIndex,
		imageHasher,
		evaluateUC,
		dispatchUC,
		matchEventsQueue,
	)
	suspensions := usecase.NewSuspensionRegistry()
	runCycleUC := usecase.NewRunCycleUseCase(
		profileRepo,
		scanSourceUC,
		dispatchUC,
		dedupIndex,
		suspensions,
		time.Duration(appConfig.Scanner.CycleTimeoutMinutes)*time.Minute,
		int64(appConfig.Scanner.MaxConcurrentProfiles),
		time.Duration(appConfig.Scanner.DedupWindowDays)*24*time.Hour,
	)
	appLogger.Info("All use cases initialized.", nil)

	// --- 6. ВХОДЯЩИЕ КОМПОНЕНТЫ: ПЛАНИРОВЩИК И REST ---
	schedulerService := scheduler.NewService(runCycleUC, baseLogger, appConfig.Scanner.IntervalMinutes)

	opsHandler := rest.NewOpsHandler(schedulerService, suspensions)
	restServer := rest.NewServer(strconv.Itoa(appConfig.Rest.Port), opsHandler, baseLogger)

	application := &App{
		config:        appConfig,
		dbPool:        dbPool,
		connManager:   connManager,
		eventProducer: eventProducer,
		fluentClient:  fluentClient,
		seenCache:     seenCache,
		logger:        appLogger,
		scheduler:     schedulerService,
		restServer:    restServer,
	}

	return application, nil
}

// buildDeliveryChannels собирает адаптеры каналов, для которых есть
// конфигурация. Отсутствие канала не ошибка: профили без него просто
// не смогут его использовать.
func buildDeliveryChannels(cfg *configs.AppConfig, logger port.LoggerPort) ([]port.DeliveryChannelPort, error) {
	var channels []port.DeliveryChannelPort

	if cfg.Telegram.BotToken != "" {
		tg, err := notifier.NewTelegramChannel(cfg.Telegram.BotToken)
		if err != nil {
			logger.Error("Failed to initialize Telegram channel", err, nil)
			return nil, fmt.Errorf("failed to initialize telegram channel: %w", err)
		}
		channels = append(channels, tg)
	} else {
		logger.Warn("Telegram channel is not configured", nil)
	}

	if cfg.Twilio.AccountSID != "" {
		wa, err := notifier.NewWhatsAppChannel(cfg.Twilio.AccountSID, cfg.Twilio.AuthToken, cfg.Twilio.WhatsAppFrom)
		if err != nil {
			logger.Error("Failed to initialize WhatsApp channel", err, nil)
			return nil, fmt.Errorf("failed to initialize whatsapp channel: %w", err)
		}
		channels = append(channels, wa)
	} else {
		logger.Warn("WhatsApp channel is not configured", nil)
	}

	if cfg.SMTP.Host != "" {
		em, err := notifier.NewEmailChannel(cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.Username, cfg.SMTP.Password, cfg.SMTP.From)
		if err != nil {
			logger.Error("Failed to initialize Email channel", err, nil)
			return nil, fmt.Errorf("failed to initialize email channel: %w", err)
		}
		channels = append(channels, em)
	} else {
		logger.Warn("Email channel is not configured", nil)
	}

	return channels, nil
}

// Run запускает все компоненты приложения и управляет их жизненным циклом.
func (a *App) Run() error {
	// Единый контекст приложения для управления graceful shutdown
	appCtx, cancelApp := context.WithCancel(context.Background())

	defer func() {
		a.logger.Info("Shutdown sequence initiated...", nil)

		a.scheduler.Stop()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := a.restServer.Stop(shutdownCtx); err != nil {
			a.logger.Error("Error stopping REST server", err, nil)
		}

		if a.eventProducer != nil {
			if err := a.eventProducer.Close(); err != nil {
				a.logger.Error("Error closing event producer", err, nil)
			}
		}

		if a.connManager != nil {
			if err := a.connManager.Close(); err != nil {
				a.logger.Error("Error closing RabbitMQ connection manager", err, nil)
			}
		}

		if a.seenCache != nil {
			if err := a.seenCache.Close(); err != nil {
				a.logger.Error("Error closing Redis seen cache", err, nil)
			}
		}

		if a.dbPool != nil {
			a.dbPool.Close()
			a.logger.Info("PostgreSQL pool closed.", nil)
		}

		a.logger.Info("Application shut down gracefully.", nil)

		if a.fluentClient != nil {
			a.logger.Info("Closing Fluent Bit connection...", nil)
			if err := a.fluentClient.Close(); err != nil {
				log.Printf("App: Error closing fluent client: %v\n", err)
			}
		}
	}()

	a.logger.Info("Application is starting...", nil)

	serverErrors := make(chan error, 1)
	go func() {
		if err := a.restServer.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrors <- fmt.Errorf("rest server error: %w", err)
		}
	}()

	if err := a.scheduler.Start(appCtx); err != nil {
		cancelApp()
		return err
	}

	// Ожидание сигнала на завершение или ошибки от одного из компонентов
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	a.logger.Info("Application running. Waiting for signals or component error...", nil)
	select {
	case receivedSignal := <-quit:
		a.logger.Warn("Received signal, shutting down", port.Fields{"signal": receivedSignal.String()})
	case err := <-serverErrors:
		a.logger.Error("A critical component failed, shutting down", err, nil)
	case <-appCtx.Done():
		a.logger.Warn("Context was cancelled unexpectedly, shutting down", nil)
	}

	// Инициируем graceful shutdown, отменяя главный контекст
	cancelApp()

	return nil
}

func parseLogLevel(levelStr string) slog.Level {
	switch strings.ToLower(levelStr) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		// Возвращаем безопасное значение по умолчанию
		log.Printf("Warning: Unknown log level '%s'. Defaulting to 'info'.", levelStr)
		return slog.LevelInfo
	}
}
