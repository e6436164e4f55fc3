package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tackey2/aitradegame/internal/ai"
	"github.com/tackey2/aitradegame/internal/api"
	"github.com/tackey2/aitradegame/internal/config"
	"github.com/tackey2/aitradegame/internal/domain"
	"github.com/tackey2/aitradegame/internal/exchange"
	"github.com/tackey2/aitradegame/internal/execution"
	"github.com/tackey2/aitradegame/internal/notify"
	"github.com/tackey2/aitradegame/internal/orchestrator"
	"github.com/tackey2/aitradegame/internal/portfolio"
	"github.com/tackey2/aitradegame/internal/risk"
	"github.com/tackey2/aitradegame/internal/storage"
	"github.com/tackey2/aitradegame/pkg/utils"
)

// exchangeClients выдает маршрутизатору биржевой клиент модели,
// собранный из ее ключей и выбранного контура
type exchangeClients struct {
	manager *exchange.CredentialsManager
}

func (c *exchangeClients) ClientFor(model *domain.Model) (execution.ExchangeClient, error) {
	client, err := c.manager.ClientFor(model)
	if err != nil {
		return nil, err
	}
	return client, nil
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	var logger *utils.Logger
	if cfg.LogFile != "" {
		logger = utils.NewFileLogger(cfg.LogLevel, cfg.LogFile)
	} else {
		logger = utils.NewLogger(cfg.LogLevel)
	}
	utils.SetDefault(logger)

	logger.Info("🚀 AI Trade Game запускается...")

	store, err := storage.NewPostgresStorage(
		cfg.Database.Host,
		cfg.Database.Port,
		cfg.Database.User,
		cfg.Database.Password,
		cfg.Database.DBName,
		cfg.Database.SSLMode,
		cfg.Database.MaxOpenConns,
		cfg.Database.MaxIdleConns,
		cfg.Database.ConnMaxLifetime,
	)
	if err != nil {
		logger.Error("❌ Ошибка подключения к базе данных: %v", err)
		os.Exit(1)
	}
	defer store.Close()
	logger.Info("✅ База данных подключена")

	var notifier *notify.Notifier
	if cfg.Telegram.BotToken != "" {
		notifier, err = notify.New(cfg.Telegram.BotToken, cfg.Telegram.ChatID, logger)
		if err != nil {
			logger.Warn("⚠️ Telegram недоступен, уведомления выключены: %v", err)
			notifier = nil
		} else {
			logger.Info("✅ Telegram-уведомления включены")
		}
	}

	incidents := newAlertingStore(store, notifier)

	evaluator, err := risk.NewEvaluator(cfg.Risk.ProfilesPath, cfg.Risk.Profile, incidents, logger)
	if err != nil {
		logger.Error("❌ Ошибка загрузки риск-профиля: %v", err)
		os.Exit(1)
	}
	logger.Info("✅ Риск-профиль: %s", cfg.Risk.Profile)

	// Рыночные цены берутся с публичного API mainnet: ключи не нужны,
	// а цены тестнета для оценки портфеля непригодны
	marketData := exchange.NewMarketData(exchange.NewBinanceClient("", "", exchange.MainnetBaseURL), logger)

	credentials := exchange.NewCredentialsManager(incidents, exchange.PlainCodec{}, logger)
	portfolioSvc := portfolio.NewService(store, marketData, logger)
	clients := &exchangeClients{manager: credentials}

	router := execution.NewRouter(incidents, portfolioSvc, marketData, clients, evaluator, notifier, cfg.Trading.PendingDecisionTTL, logger)
	decisions := ai.NewDecisionService(store)
	scheduler := orchestrator.NewScheduler(incidents, portfolioSvc, marketData, decisions, router, notifier, cfg.Trading.Universe, cfg.Scheduler.Tick, logger)

	server := api.NewServer(store, credentials, router, scheduler, portfolioSvc, evaluator, logger, cfg.Server.Port)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := scheduler.Start(ctx); err != nil {
		logger.Error("❌ Ошибка запуска планировщика: %v", err)
		os.Exit(1)
	}

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- server.Start()
	}()

	select {
	case <-ctx.Done():
		logger.Info("🛑 Получен сигнал завершения")
	case err := <-serverErr:
		if err != nil {
			logger.Error("❌ Ошибка HTTP сервера: %v", err)
		}
	}

	scheduler.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("❌ Ошибка остановки HTTP сервера: %v", err)
	}

	logger.Info("👋 Сервис остановлен")
}
