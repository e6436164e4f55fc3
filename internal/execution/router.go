package execution

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/tackey2/aitradegame/internal/domain"
	"github.com/tackey2/aitradegame/internal/exchange"
	"github.com/tackey2/aitradegame/internal/metrics"
	"github.com/tackey2/aitradegame/internal/risk"
	"github.com/tackey2/aitradegame/pkg/utils"
)

// Store операции хранилища, необходимые маршрутизатору
type Store interface {
	GetModel(id int64) (*domain.Model, error)
	GetRiskSettings(modelID int64) (*domain.RiskSettings, error)
	ApplyFill(fill *domain.Fill) (*domain.Trade, error)
	UpdatePeakValue(modelID int64, peak float64) error
	CreatePendingDecision(decision *domain.PendingDecision) error
	GetPendingDecision(id int64) (*domain.PendingDecision, error)
	UpdatePendingDecisionStatus(id int64, status domain.DecisionStatus, reason string) error
	ExpirePendingBefore(cutoff time.Time) (int64, error)
	SaveIncident(incident *domain.Incident) error
}

// Snapshots источник состояния портфеля для оценки рисков
type Snapshots interface {
	RiskState(ctx context.Context, model *domain.Model) (*risk.PortfolioState, error)
}

// Prices источник текущих цен монет
type Prices interface {
	GetCoinPrice(ctx context.Context, coin string) (float64, error)
}

// ExchangeClient операции биржи, необходимые для live-исполнения
type ExchangeClient interface {
	GetSymbolInfo(ctx context.Context, symbol string) (*exchange.SymbolInfo, error)
	PlaceMarketOrder(ctx context.Context, symbol, side string, quantity float64, test bool) (*exchange.OrderInfo, error)
}

// Clients выдает клиент биржи под ключи и контур модели
type Clients interface {
	ClientFor(model *domain.Model) (ExchangeClient, error)
}

// Notifier уведомляет о решениях, поставленных в очередь на подтверждение
type Notifier interface {
	PendingDecisionQueued(model *domain.Model, decision *domain.PendingDecision)
}

// Outcome исход маршрутизации торгового решения
type Outcome string

const (
	OutcomeExecuted Outcome = "executed"
	OutcomeQueued   Outcome = "queued"
	OutcomeAdvisory Outcome = "advisory"
	OutcomeHold     Outcome = "hold"
	OutcomeRejected Outcome = "rejected"
	OutcomeFailed   Outcome = "failed"
)

// Decision торговое решение, подлежащее маршрутизации
type Decision struct {
	Signal        domain.Signal `json:"signal"`
	Coin          string        `json:"coin"`
	Quantity      float64       `json:"quantity"`
	Leverage      int           `json:"leverage"`
	Confidence    float64       `json:"confidence"`
	Justification string        `json:"justification"`
}

// Result результат маршрутизации торгового решения
type Result struct {
	Outcome    Outcome       `json:"outcome"`
	Success    bool          `json:"success"`
	Decision   *Decision     `json:"decision,omitempty"`
	Verdict    *risk.Verdict `json:"verdict,omitempty"`
	Trade      *domain.Trade `json:"trade,omitempty"`
	PendingID  int64         `json:"pending_id,omitempty"`
	OrderID    string        `json:"order_id,omitempty"`
	Error      string        `json:"error,omitempty"`
	ExecutedAt time.Time     `json:"executed_at"`
}

// Router маршрутизирует торговые решения по матрице environment x automation
// модели. Решения одной модели исполняются строго последовательно: на каждую
// модель держится собственный мьютекс и трекер статусов риск-метрик.
type Router struct {
	store      Store
	snapshots  Snapshots
	prices     Prices
	clients    Clients
	evaluator  *risk.Evaluator
	notifier   Notifier
	logger     *utils.Logger
	pendingTTL time.Duration

	mu       sync.Mutex
	locks    map[int64]*sync.Mutex
	trackers map[int64]*risk.StatusTracker
}

// NewRouter создает маршрутизатор решений. notifier может быть nil.
func NewRouter(store Store, snapshots Snapshots, prices Prices, clients Clients, evaluator *risk.Evaluator, notifier Notifier, pendingTTL time.Duration, logger *utils.Logger) *Router {
	if logger == nil {
		logger = utils.NewLogger("info")
	}
	if pendingTTL <= 0 {
		pendingTTL = time.Hour
	}
	return &Router{
		store:      store,
		snapshots:  snapshots,
		prices:     prices,
		clients:    clients,
		evaluator:  evaluator,
		notifier:   notifier,
		logger:     logger,
		pendingTTL: pendingTTL,
		locks:      make(map[int64]*sync.Mutex),
		trackers:   make(map[int64]*risk.StatusTracker),
	}
}

// Route проводит решение через оценку рисков и исполняет его согласно
// режиму модели:
//
//	simulation + любой режим   -> симулированная сделка в леджере
//	live + manual              -> только рекомендация
//	live + semi_automated      -> очередь на подтверждение
//	live + fully_automated     -> ордер на бирже
//
// Сигнал hold всегда остается рекомендацией. Неизвестная комбинация
// режимов — ошибка, а не тихий пропуск.
func (r *Router) Route(ctx context.Context, model *domain.Model, decision *Decision) (*Result, error) {
	if decision == nil {
		return nil, fmt.Errorf("%w: nil decision", domain.ErrInvalidInput)
	}
	if !decision.Signal.Valid() {
		return nil, fmt.Errorf("%w: unknown signal %q", domain.ErrInvalidInput, decision.Signal)
	}

	if decision.Signal == domain.SignalHold {
		r.logger.Info("Model %d (%s) holds: %s", model.ID, model.Name, decision.Justification)
		return &Result{
			Outcome:    OutcomeHold,
			Success:    true,
			Decision:   decision,
			ExecutedAt: time.Now().UTC(),
		}, nil
	}

	lock, tracker := r.session(model.ID)
	lock.Lock()
	defer lock.Unlock()

	verdict, state, price, err := r.evaluate(ctx, model, decision, tracker)
	if err != nil {
		return nil, err
	}
	if !verdict.Approved {
		return r.rejectedResult(model, decision, verdict), nil
	}

	switch model.Environment {
	case domain.EnvSimulation:
		return r.executeSimulated(model, decision, price, state, verdict)
	case domain.EnvLive:
		switch model.Automation {
		case domain.AutomationManual:
			r.logger.Info("💡 Advisory for model %d (%s): %s %.8f %s — manual mode, no order placed",
				model.ID, model.Name, decision.Signal, decision.Quantity, decision.Coin)
			return &Result{
				Outcome:    OutcomeAdvisory,
				Success:    true,
				Decision:   decision,
				Verdict:    verdict,
				ExecutedAt: time.Now().UTC(),
			}, nil
		case domain.AutomationSemiAuto:
			return r.queuePending(model, decision, verdict)
		case domain.AutomationFullAuto:
			return r.executeLive(ctx, model, decision, price, state, verdict)
		default:
			return nil, fmt.Errorf("%w: unknown automation %q", domain.ErrInvalidInput, model.Automation)
		}
	default:
		return nil, fmt.Errorf("%w: unknown environment %q", domain.ErrInvalidInput, model.Environment)
	}
}

// Approve подтверждает отложенное решение. Перед исполнением решение
// проходит повторную оценку рисков по свежему состоянию портфеля: с момента
// постановки в очередь балансы могли измениться. Конечный статус фиксируется
// до размещения ордера, поэтому повторное подтверждение не приводит к
// двойному исполнению.
func (r *Router) Approve(ctx context.Context, decisionID int64) (*Result, error) {
	if err := r.ExpireStale(); err != nil {
		return nil, err
	}

	pending, err := r.store.GetPendingDecision(decisionID)
	if err != nil {
		return nil, err
	}
	if pending.Status != domain.DecisionPending {
		return nil, fmt.Errorf("%w: decision %d is already %s", domain.ErrTerminalState, decisionID, pending.Status)
	}

	model, err := r.store.GetModel(pending.ModelID)
	if err != nil {
		return nil, err
	}

	decision := &Decision{
		Signal:        pending.Signal,
		Coin:          pending.Coin,
		Quantity:      pending.Quantity,
		Leverage:      pending.Leverage,
		Confidence:    pending.Confidence,
		Justification: pending.Justification,
	}

	lock, tracker := r.session(model.ID)
	lock.Lock()
	defer lock.Unlock()

	verdict, state, price, err := r.evaluate(ctx, model, decision, tracker)
	if err != nil {
		return nil, err
	}
	if !verdict.Approved {
		reason := fmt.Sprintf("risk evaluation failed at approval: %s", strings.Join(verdict.DangerMetrics(), ", "))
		if err := r.store.UpdatePendingDecisionStatus(decisionID, domain.DecisionRejected, reason); err != nil {
			return nil, err
		}
		return r.rejectedResult(model, decision, verdict), nil
	}

	if err := r.store.UpdatePendingDecisionStatus(decisionID, domain.DecisionApproved, ""); err != nil {
		return nil, err
	}

	r.logger.Info("👍 Decision %d approved for model %d (%s)", decisionID, model.ID, model.Name)

	if model.Environment == domain.EnvSimulation {
		return r.executeSimulated(model, decision, price, state, verdict)
	}
	return r.executeLive(ctx, model, decision, price, state, verdict)
}

// Reject отклоняет отложенное решение с указанием причины
func (r *Router) Reject(decisionID int64, reason string) (*domain.PendingDecision, error) {
	if err := r.ExpireStale(); err != nil {
		return nil, err
	}

	pending, err := r.store.GetPendingDecision(decisionID)
	if err != nil {
		return nil, err
	}
	if pending.Status != domain.DecisionPending {
		return nil, fmt.Errorf("%w: decision %d is already %s", domain.ErrTerminalState, decisionID, pending.Status)
	}

	if reason == "" {
		reason = "rejected by user"
	}
	if err := r.store.UpdatePendingDecisionStatus(decisionID, domain.DecisionRejected, reason); err != nil {
		return nil, err
	}

	r.logger.Info("👎 Decision %d rejected for model %d: %s", decisionID, pending.ModelID, reason)

	return r.store.GetPendingDecision(decisionID)
}

// ExpireStale переводит pending-решения старше срока жизни в expired.
// Вызывается на путях чтения и обработки очереди, отдельного фонового
// процесса для этого нет.
func (r *Router) ExpireStale() error {
	cutoff := time.Now().UTC().Add(-r.pendingTTL)
	expired, err := r.store.ExpirePendingBefore(cutoff)
	if err != nil {
		return fmt.Errorf("expire pending decisions: %w", err)
	}
	if expired > 0 {
		r.logger.Info("⌛ Expired %d stale pending decisions", expired)
	}
	return nil
}

// evaluate собирает свежее состояние портфеля и проверяет решение против
// лимитов риска. Возвращает вердикт, состояние и текущую цену монеты.
func (r *Router) evaluate(ctx context.Context, model *domain.Model, decision *Decision, tracker *risk.StatusTracker) (*risk.Verdict, *risk.PortfolioState, float64, error) {
	settings, err := r.store.GetRiskSettings(model.ID)
	if err != nil {
		return nil, nil, 0, fmt.Errorf("risk settings for model %d: %w", model.ID, err)
	}

	price, err := r.prices.GetCoinPrice(ctx, decision.Coin)
	if err != nil {
		return nil, nil, 0, fmt.Errorf("price for %s: %w", decision.Coin, err)
	}

	state, err := r.snapshots.RiskState(ctx, model)
	if err != nil {
		return nil, nil, 0, err
	}

	proposed := &risk.ProposedOrder{
		Coin:     decision.Coin,
		Action:   decision.Signal.Action(),
		Quantity: decision.Quantity,
		Price:    price,
	}
	verdict := r.evaluator.Evaluate(model, settings, state, proposed, tracker)

	return verdict, state, price, nil
}

// executeSimulated записывает сделку в леджер по текущей рыночной цене.
// Биржа в simulation-режиме не вызывается ни при каких условиях.
func (r *Router) executeSimulated(model *domain.Model, decision *Decision, price float64, state *risk.PortfolioState, verdict *risk.Verdict) (*Result, error) {
	trade, err := r.store.ApplyFill(&domain.Fill{
		ModelID:  model.ID,
		Coin:     decision.Coin,
		Action:   decision.Signal.Action(),
		Quantity: decision.Quantity,
		Price:    price,
		Leverage: normalizeLeverage(decision.Leverage),
	})
	if err != nil {
		return nil, err
	}

	r.updatePeak(model.ID, state.TotalValue)
	metrics.OrdersExecuted.WithLabelValues("simulated").Inc()
	r.logger.Info("✅ Simulated %s %.8f %s @ %.2f for model %d (%s)",
		decision.Signal.Action(), trade.Quantity, trade.Coin, trade.Price, model.ID, model.Name)

	return &Result{
		Outcome:    OutcomeExecuted,
		Success:    true,
		Decision:   decision,
		Verdict:    verdict,
		Trade:      trade,
		ExecutedAt: trade.CreatedAt,
	}, nil
}

// executeLive размещает рыночный ордер на бирже и зеркалирует сделку
// в леджер. Количество приводится к шагу лота символа. Ошибка биржи
// фиксируется инцидентом и возвращается вызывающему без ретраев.
func (r *Router) executeLive(ctx context.Context, model *domain.Model, decision *Decision, price float64, state *risk.PortfolioState, verdict *risk.Verdict) (*Result, error) {
	client, err := r.clients.ClientFor(model)
	if err != nil {
		return nil, err
	}

	symbol := exchange.ResolveSymbol(decision.Coin)

	info, err := client.GetSymbolInfo(ctx, symbol)
	if err != nil {
		return r.failedResult(model, decision, verdict, fmt.Errorf("symbol info for %s: %w", symbol, err))
	}

	quantity, _, err := exchange.NormalizeOrder(info, decision.Quantity, price)
	if err != nil {
		return nil, err
	}

	order, err := client.PlaceMarketOrder(ctx, symbol, decision.Signal.Side(), quantity, false)
	if err != nil {
		return r.failedResult(model, decision, verdict, fmt.Errorf("place market order %s %s: %w", decision.Signal.Side(), symbol, err))
	}

	fillPrice := order.Price
	if fillPrice <= 0 {
		fillPrice = price
	}
	fillQty := order.Quantity
	if fillQty <= 0 {
		fillQty = quantity
	}

	trade, err := r.store.ApplyFill(&domain.Fill{
		ModelID:  model.ID,
		Coin:     decision.Coin,
		Action:   decision.Signal.Action(),
		Quantity: fillQty,
		Price:    fillPrice,
		Leverage: normalizeLeverage(decision.Leverage),
		OrderID:  order.OrderID,
	})
	if err != nil {
		return r.failedResult(model, decision, verdict, fmt.Errorf("order %s filled at exchange but ledger update failed: %w", order.OrderID, err))
	}

	r.updatePeak(model.ID, state.TotalValue)
	metrics.OrdersExecuted.WithLabelValues("live").Inc()
	r.logger.Info("✅ Live order %s executed: %s %.8f %s @ %.2f for model %d (%s)",
		order.OrderID, decision.Signal.Side(), trade.Quantity, symbol, trade.Price, model.ID, model.Name)

	return &Result{
		Outcome:    OutcomeExecuted,
		Success:    true,
		Decision:   decision,
		Verdict:    verdict,
		Trade:      trade,
		OrderID:    order.OrderID,
		ExecutedAt: trade.CreatedAt,
	}, nil
}

// queuePending ставит решение в очередь на подтверждение пользователем
func (r *Router) queuePending(model *domain.Model, decision *Decision, verdict *risk.Verdict) (*Result, error) {
	pending := &domain.PendingDecision{
		ModelID:       model.ID,
		Coin:          decision.Coin,
		Signal:        decision.Signal,
		Quantity:      decision.Quantity,
		Leverage:      normalizeLeverage(decision.Leverage),
		Confidence:    decision.Confidence,
		Justification: decision.Justification,
	}
	if err := r.store.CreatePendingDecision(pending); err != nil {
		return nil, fmt.Errorf("queue pending decision: %w", err)
	}

	metrics.PendingCreated.Inc()
	r.logger.Info("⏳ Decision %d queued for approval: %s %.8f %s for model %d (%s)",
		pending.ID, decision.Signal, decision.Quantity, decision.Coin, model.ID, model.Name)

	if r.notifier != nil {
		r.notifier.PendingDecisionQueued(model, pending)
	}

	return &Result{
		Outcome:    OutcomeQueued,
		Success:    true,
		Decision:   decision,
		Verdict:    verdict,
		PendingID:  pending.ID,
		ExecutedAt: time.Now().UTC(),
	}, nil
}

// rejectedResult оформляет отказ оценки рисков
func (r *Router) rejectedResult(model *domain.Model, decision *Decision, verdict *risk.Verdict) *Result {
	metrics.OrdersRejected.Inc()
	r.logger.Warn("❌ Risk evaluation rejected %s %.8f %s for model %d (%s): %s",
		decision.Signal, decision.Quantity, decision.Coin, model.ID, model.Name,
		strings.Join(verdict.DangerMetrics(), ", "))
	return &Result{
		Outcome:    OutcomeRejected,
		Decision:   decision,
		Verdict:    verdict,
		ExecutedAt: time.Now().UTC(),
	}
}

// failedResult фиксирует ошибку исполнения инцидентом и возвращает ее
// вызывающему. Повторная попытка остается за пользователем.
func (r *Router) failedResult(model *domain.Model, decision *Decision, verdict *risk.Verdict, execErr error) (*Result, error) {
	metrics.OrdersFailed.Inc()
	r.logger.Error("❌ Execution failed for model %d (%s): %v", model.ID, model.Name, execErr)

	incident := &domain.Incident{
		ModelID:  model.ID,
		Type:     domain.IncidentExecutionError,
		Severity: domain.SeverityDanger,
		Message:  execErr.Error(),
	}
	if err := r.store.SaveIncident(incident); err != nil {
		r.logger.Error("Failed to save execution incident for model %d: %v", model.ID, err)
	}

	return &Result{
		Outcome:    OutcomeFailed,
		Decision:   decision,
		Verdict:    verdict,
		Error:      execErr.Error(),
		ExecutedAt: time.Now().UTC(),
	}, execErr
}

// session возвращает мьютекс и трекер статусов риск-метрик модели
func (r *Router) session(modelID int64) (*sync.Mutex, *risk.StatusTracker) {
	r.mu.Lock()
	defer r.mu.Unlock()

	lock, ok := r.locks[modelID]
	if !ok {
		lock = &sync.Mutex{}
		r.locks[modelID] = lock
	}
	tracker, ok := r.trackers[modelID]
	if !ok {
		tracker = risk.NewStatusTracker()
		r.trackers[modelID] = tracker
	}
	return lock, tracker
}

// updatePeak обновляет пиковую стоимость портфеля после сделки.
// Сделка по рыночной цене не меняет суммарную стоимость, поэтому
// используется значение из снимка перед исполнением.
func (r *Router) updatePeak(modelID int64, totalValue float64) {
	if err := r.store.UpdatePeakValue(modelID, totalValue); err != nil {
		r.logger.Warn("Failed to update peak value for model %d: %v", modelID, err)
	}
}

func normalizeLeverage(leverage int) int {
	if leverage < 1 {
		return 1
	}
	return leverage
}
