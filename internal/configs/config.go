package configs

import (
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// RabbitMQConfig хранит конфигурацию для RabbitMQ
type RabbitMQConfig struct {
	URL string
}

// DBconfig хранит конфигурацию для БД
type DBconfig struct {
	URL string
}

// RedisConfig хранит конфигурацию для Redis (кэш дедупликации)
type RedisConfig struct {
	URL     string
	Enabled bool
}

type StdoutLogConfig struct {
	Level string // По умолчанию DEBUG
}

type FluentBitConfig struct {
	Host    string
	Port    int
	Enabled bool
	Level   string // По умолчанию INFO
}

// ScannerConfig - параметры цикла сканирования
type ScannerConfig struct {
	IntervalMinutes       int
	CycleTimeoutMinutes   int
	MaxConcurrentProfiles int
	DedupWindowDays       int
	NotifyMaxRetries      int
	NotifyBackoffSeconds  int
	ImageHashEnabled      bool
}

// TelegramConfig - канал доставки Telegram
type TelegramConfig struct {
	BotToken       string
	OperatorChatID string
}

// TwilioConfig - канал доставки WhatsApp через Twilio
type TwilioConfig struct {
	AccountSID   string
	AuthToken    string
	WhatsAppFrom string
}

// SMTPConfig - канал доставки email
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// FacebookConfig - параметры обхода Facebook через headless-браузер
type FacebookConfig struct {
	CookiesFile string
	Headless    bool
}

// RestConfig - служебный HTTP-сервер
type RestConfig struct {
	Port int
}

// AppConfig хранит всю конфигурацию приложения
type AppConfig struct {
	AppName      string
	Database     DBconfig
	RabbitMQ     RabbitMQConfig
	Redis        RedisConfig
	FluentBit    FluentBitConfig
	StdoutLogger StdoutLogConfig
	Scanner      ScannerConfig
	Telegram     TelegramConfig
	Twilio       TwilioConfig
	SMTP         SMTPConfig
	Facebook     FacebookConfig
	Rest         RestConfig
}

// LoadConfig загружает конфигурацию из переменных окружения.
func LoadConfig(envPath ...string) (*AppConfig, error) {

	var err error
	if len(envPath) > 0 {
		err = godotenv.Load(envPath[0])
	} else {
		err = godotenv.Load()
	}

	if err != nil {
		// В контейнере переменные приходят из окружения, .env не обязателен
		log.Printf("Info: Could not load .env file (path: %v): %v.\n", envPath, err)
	}

	cfg := &AppConfig{}

	cfg.AppName = os.Getenv("APP_NAME")
	if cfg.AppName == "" {
		cfg.AppName = "realty-scanner-service" // Устанавливаем default
	}

	// Читаем DATABASE URL
	cfg.Database.URL = os.Getenv("DATABASE_URL")
	if cfg.Database.URL == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable is required")
	}

	// Читаем конфигурацию для RabbitMQ
	cfg.RabbitMQ.URL = os.Getenv("RABBITMQ_URL")
	if cfg.RabbitMQ.URL == "" {
		return nil, fmt.Errorf("RABBITMQ_URL environment variable is required")
	}

	cfg.Redis.Enabled = getEnvAsBool("REDIS_ENABLED", false)
	if cfg.Redis.Enabled {
		cfg.Redis.URL = os.Getenv("REDIS_URL")
		if cfg.Redis.URL == "" {
			log.Println("WARNING: REDIS_ENABLED is true, but REDIS_URL is not set. Disabling Redis cache.")
			cfg.Redis.Enabled = false
		}
	}

	cfg.FluentBit.Enabled = getEnvAsBool("FLUENTBIT_ENABLED", false)
	if cfg.FluentBit.Enabled {
		cfg.FluentBit.Host = os.Getenv("FLUENTBIT_HOST")
		if cfg.FluentBit.Host == "" {
			log.Println("WARNING: FLUENTBIT_ENABLED is true, but FLUENTBIT_HOST is not set. Disabling Fluent Bit.")
			cfg.FluentBit.Enabled = false
		}

		cfg.FluentBit.Port = getEnvAsInt("FLUENTBIT_PORT", 24224)
		cfg.FluentBit.Level = getEnvAsString("FLUENTBIT_LOG_LEVEL", "info")
	}

	cfg.StdoutLogger.Level = getEnvAsString("STDOUT_LOG_LEVEL", "debug")

	cfg.Scanner.IntervalMinutes = getEnvAsInt("SCAN_INTERVAL_MINUTES", 5)
	cfg.Scanner.CycleTimeoutMinutes = getEnvAsInt("SCAN_CYCLE_TIMEOUT_MINUTES", 4)
	cfg.Scanner.MaxConcurrentProfiles = getEnvAsInt("SCAN_MAX_CONCURRENT_PROFILES", 3)
	cfg.Scanner.DedupWindowDays = getEnvAsInt("DEDUP_WINDOW_DAYS", 90)
	cfg.Scanner.NotifyMaxRetries = getEnvAsInt("NOTIFY_MAX_RETRIES", 2)
	cfg.Scanner.NotifyBackoffSeconds = getEnvAsInt("NOTIFY_BACKOFF_SECONDS", 2)
	cfg.Scanner.ImageHashEnabled = getEnvAsBool("IMAGE_HASH_ENABLED", false)

	cfg.Telegram.BotToken = os.Getenv("TELEGRAM_BOT_TOKEN")
	cfg.Telegram.OperatorChatID = os.Getenv("TELEGRAM_OPERATOR_CHAT_ID")

	cfg.Twilio.AccountSID = os.Getenv("TWILIO_ACCOUNT_SID")
	cfg.Twilio.AuthToken = os.Getenv("TWILIO_AUTH_TOKEN")
	cfg.Twilio.WhatsAppFrom = os.Getenv("TWILIO_WHATSAPP_FROM")

	cfg.SMTP.Host = os.Getenv("SMTP_HOST")
	cfg.SMTP.Port = getEnvAsInt("SMTP_PORT", 587)
	cfg.SMTP.Username = os.Getenv("SMTP_USERNAME")
	cfg.SMTP.Password = os.Getenv("SMTP_PASSWORD")
	cfg.SMTP.From = getEnvAsString("SMTP_FROM", cfg.SMTP.Username)

	cfg.Facebook.CookiesFile = os.Getenv("FACEBOOK_COOKIES_FILE")
	cfg.Facebook.Headless = getEnvAsBool("FACEBOOK_HEADLESS", true)

	cfg.Rest.Port = getEnvAsInt("REST_PORT", 8080)

	return cfg, nil
}

// getEnvAsString читает переменную окружения как строку или возвращает значение по умолчанию
func getEnvAsString(key string, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// getEnvAsInt читает переменную окружения как int или возвращает значение по умолчанию
// Логирует ошибку, если переменная есть, но не может быть преобразована в int
func getEnvAsInt(key string, defaultValue int) int {
	valueStr, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}

	valueInt, err := strconv.Atoi(valueStr)
	if err != nil {
		log.Printf("Warning: Environment variable %s (value: %s) could not be parsed as int: %v. Using default value: %d\n", key, valueStr, err, defaultValue)
		return defaultValue
	}
	return valueInt
}

// getEnvAsBool читает переменную окружения как bool или возвращает значение по умолчанию
func getEnvAsBool(key string, defaultValue bool) bool {
	valStr, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}
	valBool, err := strconv.ParseBool(valStr)
	if err != nil {
		log.Printf("Warning: Environment variable %s (value: %s) could not be parsed as bool: %v. Using default value: %t\n", key, valStr, err, defaultValue)
		return defaultValue
	}
	return valBool
}
