package orchestrator

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/tackey2/aitradegame/internal/ai"
	"github.com/tackey2/aitradegame/internal/domain"
	"github.com/tackey2/aitradegame/internal/execution"
	"github.com/tackey2/aitradegame/internal/metrics"
	"github.com/tackey2/aitradegame/internal/portfolio"
	"github.com/tackey2/aitradegame/pkg/utils"
)

// Store операции хранилища, необходимые планировщику
type Store interface {
	GetModel(id int64) (*domain.Model, error)
	GetActiveModels() ([]domain.Model, error)
	GetRiskSettings(modelID int64) (*domain.RiskSettings, error)
	StopAllModels() ([]int64, error)
	SaveIncident(incident *domain.Incident) error
}

// Snapshots источник снимков портфеля
type Snapshots interface {
	Snapshot(ctx context.Context, model *domain.Model) (*portfolio.Snapshot, error)
}

// Prices источник текущих цен монет
type Prices interface {
	GetCoinPrice(ctx context.Context, coin string) (float64, error)
}

// DecisionSource источник торговых решений AI
type DecisionSource interface {
	RequestDecision(ctx context.Context, model *domain.Model, req ai.DecisionRequest) (*ai.Decision, error)
}

// DecisionRouter исполняет решения согласно режиму модели
type DecisionRouter interface {
	Route(ctx context.Context, model *domain.Model, decision *execution.Decision) (*execution.Result, error)
	ExpireStale() error
}

// Alerter уведомляет об аварийной остановке
type Alerter interface {
	EmergencyStopped(stopped int)
}

// CycleResult итог одного цикла принятия решений
type CycleResult struct {
	ModelID  int64             `json:"model_id"`
	Decision *ai.Decision      `json:"decision"`
	Result   *execution.Result `json:"result"`
}

// Scheduler гоняет циклы принятия решений активных моделей. Один грубый
// тикер обслуживает все модели: на каждом тике запускаются те, чей
// торговый интервал истек. Ошибка цикла одной модели не трогает остальные.
type Scheduler struct {
	store     Store
	snapshots Snapshots
	prices    Prices
	decisions DecisionSource
	router    DecisionRouter
	notifier  Alerter
	universe  []string
	tick      time.Duration
	logger    *utils.Logger

	mu        sync.Mutex
	lastRun   map[int64]time.Time
	isRunning bool
	stopChan  chan struct{}
}

// NewScheduler создает планировщик циклов. notifier может быть nil.
func NewScheduler(store Store, snapshots Snapshots, prices Prices, decisions DecisionSource, router DecisionRouter, notifier Alerter, universe []string, tick time.Duration, logger *utils.Logger) *Scheduler {
	if logger == nil {
		logger = utils.NewLogger("info")
	}
	if tick <= 0 {
		tick = time.Minute
	}
	return &Scheduler{
		store:     store,
		snapshots: snapshots,
		prices:    prices,
		decisions: decisions,
		router:    router,
		notifier:  notifier,
		universe:  universe,
		tick:      tick,
		logger:    logger,
		lastRun:   make(map[int64]time.Time),
		stopChan:  make(chan struct{}),
	}
}

// Start запускает фоновый цикл планировщика
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return fmt.Errorf("scheduler already running")
	}
	s.isRunning = true
	s.mu.Unlock()

	s.logger.Info("🚀 Scheduler started (tick: %v)", s.tick)
	go s.run(ctx)

	return nil
}

// Stop останавливает планировщик
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.isRunning {
		return
	}

	s.logger.Info("🛑 Stopping scheduler...")
	close(s.stopChan)
	s.isRunning = false
	s.logger.Info("✅ Scheduler stopped")
}

// run основной цикл планировщика
func (s *Scheduler) run(ctx context.Context) {
	ticker := time.NewTicker(s.tick)
	defer ticker.Stop()

	// Первый проход сразу после старта
	s.runDueModels(ctx)

	for {
		select {
		case <-ticker.C:
			s.runDueModels(ctx)

		case <-s.stopChan:
			return

		case <-ctx.Done():
			return
		}
	}
}

// runDueModels запускает циклы моделей, чей торговый интервал истек
func (s *Scheduler) runDueModels(ctx context.Context) {
	if err := s.router.ExpireStale(); err != nil {
		s.logger.Warn("Failed to expire stale pending decisions: %v", err)
	}

	models, err := s.store.GetActiveModels()
	if err != nil {
		s.logger.Error("❌ Failed to list active models: %v", err)
		return
	}

	now := time.Now().UTC()
	for i := range models {
		model := &models[i]

		settings, err := s.store.GetRiskSettings(model.ID)
		if err != nil {
			s.logger.Error("❌ Failed to load risk settings for model %d: %v", model.ID, err)
			continue
		}

		interval := time.Duration(settings.TradingIntervalMinutes) * time.Minute
		if interval <= 0 {
			interval = domain.DefaultTradingIntervalMinutes * time.Minute
		}
		if !s.due(model.ID, interval, now) {
			continue
		}
		s.markRun(model.ID, now)

		if _, err := s.runCycle(ctx, model); err != nil {
			s.logger.Error("❌ Decision cycle failed for model %d (%s): %v", model.ID, model.Name, err)
		}
	}
}

// RunCycle выполняет один цикл принятия решений для модели немедленно,
// минуя торговый интервал. Используется ручным запуском с дашборда.
func (s *Scheduler) RunCycle(ctx context.Context, modelID int64) (*CycleResult, error) {
	model, err := s.store.GetModel(modelID)
	if err != nil {
		return nil, err
	}
	if !model.Active {
		return nil, fmt.Errorf("%w: model %d", domain.ErrModelInactive, modelID)
	}

	s.markRun(model.ID, time.Now().UTC())
	return s.runCycle(ctx, model)
}

// runCycle собирает контекст, запрашивает решение AI и маршрутизирует его
func (s *Scheduler) runCycle(ctx context.Context, model *domain.Model) (*CycleResult, error) {
	s.logger.Info("🧠 Starting decision cycle for model %d (%s)", model.ID, model.Name)

	request, err := s.gatherContext(ctx, model)
	if err != nil {
		metrics.DecisionCycles.WithLabelValues("error").Inc()
		return nil, err
	}

	decision, err := s.decisions.RequestDecision(ctx, model, *request)
	if err != nil {
		metrics.DecisionCycles.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("AI decision for model %d: %w", model.ID, err)
	}

	s.logger.Info("💡 Model %d decided: %s %.8f %s (confidence %.2f)",
		model.ID, decision.Signal, decision.Quantity, decision.Coin, decision.Confidence)

	routed, err := s.router.Route(ctx, model, &execution.Decision{
		Signal:        decision.Signal,
		Coin:          decision.Coin,
		Quantity:      decision.Quantity,
		Leverage:      decision.Leverage,
		Confidence:    decision.Confidence,
		Justification: decision.Justification,
	})
	if err != nil {
		metrics.DecisionCycles.WithLabelValues("error").Inc()
		if routed == nil {
			return nil, err
		}
		// Ошибка исполнения уже зафиксирована инцидентом, итог сохраняем
		return &CycleResult{ModelID: model.ID, Decision: decision, Result: routed}, err
	}

	metrics.DecisionCycles.WithLabelValues("ok").Inc()
	return &CycleResult{ModelID: model.ID, Decision: decision, Result: routed}, nil
}

// gatherContext собирает контекст для AI: снимок портфеля, цены торгуемых
// монет и лимиты риска модели
func (s *Scheduler) gatherContext(ctx context.Context, model *domain.Model) (*ai.DecisionRequest, error) {
	snap, err := s.snapshots.Snapshot(ctx, model)
	if err != nil {
		return nil, fmt.Errorf("portfolio snapshot for model %d: %w", model.ID, err)
	}

	settings, err := s.store.GetRiskSettings(model.ID)
	if err != nil {
		return nil, fmt.Errorf("risk settings for model %d: %w", model.ID, err)
	}

	request := &ai.DecisionRequest{
		Environment: string(model.Environment),
		Portfolio: ai.PortfolioContext{
			Cash:           snap.Cash,
			TotalValue:     snap.TotalValue,
			InitialCapital: snap.InitialCapital,
			UnrealizedPnL:  snap.UnrealizedPnL,
			RealizedToday:  snap.RealizedToday,
			TradesToday:    snap.TradesToday,
		},
		RiskLimits: ai.RiskLimits{
			MaxPositionSizePercent: settings.MaxPositionSizePercent,
			MaxDailyLossPercent:    settings.MaxDailyLossPercent,
			MaxDailyTrades:         settings.MaxDailyTrades,
			MaxOpenPositions:       settings.MaxOpenPositions,
			MinCashReservePercent:  settings.MinCashReservePercent,
		},
	}

	seen := make(map[string]bool)
	for _, pos := range snap.Positions {
		request.Portfolio.Positions = append(request.Portfolio.Positions, ai.PositionContext{
			Coin:          pos.Coin,
			Quantity:      pos.Quantity,
			AvgEntryPrice: pos.AvgEntryPrice,
			CurrentPrice:  pos.CurrentPrice,
			UnrealizedPnL: pos.UnrealizedPnL,
		})
		request.Market = append(request.Market, ai.CoinPrice{Coin: pos.Coin, Price: pos.CurrentPrice})
		seen[pos.Coin] = true
	}

	for _, coin := range s.universe {
		if seen[coin] {
			continue
		}
		price, err := s.prices.GetCoinPrice(ctx, coin)
		if err != nil {
			s.logger.Warn("⚠️ No price for %s, leaving it out of AI context: %v", coin, err)
			continue
		}
		request.Market = append(request.Market, ai.CoinPrice{Coin: coin, Price: price})
	}

	return request, nil
}

// EmergencyStopAll переводит все модели в simulation/manual одним UPDATE
// и записывает инцидент по каждой остановленной модели. Уже размещенные
// на бирже ордера не отзываются.
func (s *Scheduler) EmergencyStopAll() (int, error) {
	ids, err := s.store.StopAllModels()
	if err != nil {
		return 0, err
	}

	for _, id := range ids {
		incident := &domain.Incident{
			ModelID:  id,
			Type:     domain.IncidentEmergencyStop,
			Severity: domain.SeverityDanger,
			Message:  "emergency stop: model forced to simulation/manual",
		}
		if err := s.store.SaveIncident(incident); err != nil {
			s.logger.Error("Failed to save emergency stop incident for model %d: %v", id, err)
		}
	}

	s.logger.Warn("🛑 EMERGENCY STOP: %d models forced to simulation/manual", len(ids))
	if s.notifier != nil {
		s.notifier.EmergencyStopped(len(ids))
	}

	return len(ids), nil
}

// IsRunning сообщает, запущен ли фоновый цикл
func (s *Scheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isRunning
}

// due проверяет, истек ли торговый интервал модели
func (s *Scheduler) due(modelID int64, interval time.Duration, now time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	last, ok := s.lastRun[modelID]
	if !ok {
		return true
	}
	return now.Sub(last) >= interval
}

// markRun запоминает время последнего цикла модели
func (s *Scheduler) markRun(modelID int64, now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastRun[modelID] = now
}
