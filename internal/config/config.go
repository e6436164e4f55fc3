package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config содержит все настройки приложения
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Risk      RiskConfig
	Scheduler SchedulerConfig
	Trading   TradingConfig
	Telegram  TelegramConfig
	LogLevel  string
	LogFile   string
}

type ServerConfig struct {
	Port int
}

type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

type RiskConfig struct {
	Profile      string
	ProfilesPath string
}

type SchedulerConfig struct {
	Tick time.Duration
}

type TradingConfig struct {
	PendingDecisionTTL time.Duration
	Universe           []string
}

type TelegramConfig struct {
	BotToken string
	ChatID   int64
}

// Load загружает конфигурацию из .env файла
func Load() (*Config, error) {
	// Загружаем .env файл (если есть)
	if err := godotenv.Load(); err != nil {
		fmt.Println("Warning: .env file not found, using environment variables")
	}

	serverPort, err := strconv.Atoi(getEnv("SERVER_PORT", "8080"))
	if err != nil {
		return nil, fmt.Errorf("invalid SERVER_PORT: %w", err)
	}

	dbPort, err := strconv.Atoi(getEnv("DB_PORT", "5432"))
	if err != nil {
		return nil, fmt.Errorf("invalid DB_PORT: %w", err)
	}

	maxOpenConns, err := strconv.Atoi(getEnv("DB_MAX_OPEN_CONNS", "25"))
	if err != nil {
		return nil, fmt.Errorf("invalid DB_MAX_OPEN_CONNS: %w", err)
	}

	maxIdleConns, err := strconv.Atoi(getEnv("DB_MAX_IDLE_CONNS", "5"))
	if err != nil {
		return nil, fmt.Errorf("invalid DB_MAX_IDLE_CONNS: %w", err)
	}

	connMaxLifetime, err := time.ParseDuration(getEnv("DB_CONN_MAX_LIFETIME", "5m"))
	if err != nil {
		return nil, fmt.Errorf("invalid DB_CONN_MAX_LIFETIME: %w", err)
	}

	schedulerTick, err := time.ParseDuration(getEnv("SCHEDULER_TICK", "1m"))
	if err != nil {
		return nil, fmt.Errorf("invalid SCHEDULER_TICK: %w", err)
	}

	pendingTTL, err := time.ParseDuration(getEnv("PENDING_DECISION_TTL", "60m"))
	if err != nil {
		return nil, fmt.Errorf("invalid PENDING_DECISION_TTL: %w", err)
	}

	chatID, err := strconv.ParseInt(getEnv("TELEGRAM_CHAT_ID", "0"), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid TELEGRAM_CHAT_ID: %w", err)
	}

	config := &Config{
		Server: ServerConfig{
			Port: serverPort,
		},
		Database: DatabaseConfig{
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            dbPort,
			User:            getEnv("DB_USER", "postgres"),
			Password:        getEnv("DB_PASSWORD", ""),
			DBName:          getEnv("DB_NAME", "aitradegame"),
			SSLMode:         getEnv("DB_SSLMODE", "disable"),
			MaxOpenConns:    maxOpenConns,
			MaxIdleConns:    maxIdleConns,
			ConnMaxLifetime: connMaxLifetime,
		},
		Risk: RiskConfig{
			Profile:      getEnv("RISK_PROFILE", "moderate"),
			ProfilesPath: getEnv("RISK_PROFILES_PATH", "configs/risk_profiles.yaml"),
		},
		Scheduler: SchedulerConfig{
			Tick: schedulerTick,
		},
		Trading: TradingConfig{
			PendingDecisionTTL: pendingTTL,
			Universe:           parseUniverse(getEnv("TRADING_UNIVERSE", "BTC,ETH,SOL,BNB,XRP")),
		},
		Telegram: TelegramConfig{
			BotToken: getEnv("TELEGRAM_BOT_TOKEN", ""),
			ChatID:   chatID,
		},
		LogLevel: getEnv("LOG_LEVEL", "info"),
		LogFile:  getEnv("LOG_FILE", ""),
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate проверяет обязательные поля конфигурации
func (c *Config) Validate() error {
	if c.Database.Password == "" {
		return fmt.Errorf("DB_PASSWORD is required")
	}
	if c.Scheduler.Tick < time.Second {
		return fmt.Errorf("SCHEDULER_TICK must be at least 1s")
	}
	if c.Trading.PendingDecisionTTL <= 0 {
		return fmt.Errorf("PENDING_DECISION_TTL must be positive")
	}
	if len(c.Trading.Universe) == 0 {
		return fmt.Errorf("TRADING_UNIVERSE must list at least one coin")
	}
	// Telegram не обязателен: без токена уведомления выключены
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// parseUniverse разбирает список монет для рыночного контекста AI
func parseUniverse(raw string) []string {
	parts := strings.Split(raw, ",")
	coins := make([]string, 0, len(parts))
	for _, p := range parts {
		coin := strings.ToUpper(strings.TrimSpace(p))
		if coin != "" {
			coins = append(coins, coin)
		}
	}
	return coins
}
