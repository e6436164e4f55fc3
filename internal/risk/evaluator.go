package risk

import (
	"fmt"
	"time"

	"github.com/tackey2/aitradegame/internal/domain"
	"github.com/tackey2/aitradegame/pkg/utils"
)

// IncidentSink интерфейс для записи инцидентов
type IncidentSink interface {
	SaveIncident(incident *domain.Incident) error
}

// Evaluator проверяет предлагаемые ордера против лимитов риска модели
type Evaluator struct {
	profile *Profile
	sink    IncidentSink
	logger  *utils.Logger
}

// NewEvaluator создает evaluator с профилем из YAML
func NewEvaluator(profilePath, profileName string, sink IncidentSink, logger *utils.Logger) (*Evaluator, error) {
	profile, err := LoadProfile(profilePath, profileName)
	if err != nil {
		return nil, fmt.Errorf("failed to load risk profile: %w", err)
	}
	return NewEvaluatorWithProfile(profile, sink, logger), nil
}

// NewEvaluatorWithProfile создает evaluator с готовым профилем
func NewEvaluatorWithProfile(profile *Profile, sink IncidentSink, logger *utils.Logger) *Evaluator {
	if logger == nil {
		logger = utils.NewLogger("info")
	}
	return &Evaluator{
		profile: profile,
		sink:    sink,
		logger:  logger,
	}
}

// GetProfile возвращает текущий профиль рисков
func (e *Evaluator) GetProfile() *Profile {
	return e.profile
}

// Evaluate проверяет предлагаемый ордер против лимитов модели.
// Ордер с нулевым количеством оценивает текущее состояние портфеля.
// tracker == nil отключает эмиссию инцидентов (режим probe).
func (e *Evaluator) Evaluate(model *domain.Model, settings *domain.RiskSettings, state *PortfolioState, proposed *ProposedOrder, tracker *StatusTracker) *Verdict {
	if proposed == nil {
		proposed = &ProposedOrder{}
	}

	proj := project(state, proposed)

	verdict := &Verdict{
		Approved:  true,
		CheckedAt: time.Now(),
	}

	metrics := []MetricStatus{
		e.positionSize(settings, state, proj, proposed),
		e.dailyLoss(settings, state),
		e.openPositions(settings, proj),
		e.cashReserve(settings, proj),
		e.dailyTrades(settings, state),
	}

	for _, m := range metrics {
		verdict.Metrics = append(verdict.Metrics, m)
		if m.Status == StatusDanger {
			if m.Hard {
				verdict.HardViolations++
				verdict.Approved = false
			} else {
				verdict.SoftViolations++
			}
		}
		e.reportTransition(model, m, tracker)
	}

	verdict.RiskScore = calculateRiskScore(verdict.Metrics)
	return verdict
}

// projection описывает портфель после применения предлагаемого ордера.
// Сделка по текущей цене меняет состав портфеля, но не его стоимость,
// поэтому итоговая стоимость берётся из снимка.
type projection struct {
	cash      float64
	total     float64
	coinValue float64
	openCount int
}

func project(state *PortfolioState, proposed *ProposedOrder) projection {
	proj := projection{
		cash:      state.Cash,
		total:     state.TotalValue,
		coinValue: state.PositionValues[proposed.Coin],
	}

	for _, qty := range state.PositionQty {
		if qty > 0 {
			proj.openCount++
		}
	}

	if proposed.Quantity <= 0 || proposed.Price <= 0 {
		return proj
	}

	amount := proposed.Quantity * proposed.Price
	priorQty := state.PositionQty[proposed.Coin]

	switch proposed.Action {
	case domain.ActionBuy:
		proj.cash -= amount
		proj.coinValue += amount
		if priorQty <= 0 {
			proj.openCount++
		}
	case domain.ActionSell:
		proj.cash += amount
		proj.coinValue -= amount
		if proj.coinValue < 0 {
			proj.coinValue = 0
		}
		if priorQty > 0 && proposed.Quantity >= priorQty {
			proj.openCount--
		}
	}

	return proj
}

func (e *Evaluator) classify(usage float64) Status {
	switch {
	case usage >= e.profile.DangerRatio:
		return StatusDanger
	case usage >= e.profile.WarningRatio:
		return StatusWarning
	default:
		return StatusOK
	}
}

func disabledMetric(name string, hard bool) MetricStatus {
	return MetricStatus{Name: name, Status: StatusOK, Hard: hard}
}

func (e *Evaluator) positionSize(settings *domain.RiskSettings, state *PortfolioState, proj projection, proposed *ProposedOrder) MetricStatus {
	hard := e.profile.EnforcePositionLimits
	limit := settings.MaxPositionSizePercent
	if limit <= 0 {
		return disabledMetric(MetricPositionSize, hard)
	}

	var valuePct float64
	if proj.total > 0 {
		valuePct = proj.coinValue / proj.total * 100
	}
	usage := valuePct / limit

	m := MetricStatus{
		Name:   MetricPositionSize,
		Status: e.classify(usage),
		Usage:  usage,
		Value:  valuePct,
		Limit:  limit,
		Hard:   hard,
	}
	if m.Status != StatusOK {
		m.Message = fmt.Sprintf("position %s would be %.1f%% of portfolio value (limit %.1f%%)",
			proposed.Coin, valuePct, limit)
	}
	return m
}

func (e *Evaluator) dailyLoss(settings *domain.RiskSettings, state *PortfolioState) MetricStatus {
	limit := settings.MaxDailyLossPercent
	if limit <= 0 {
		return disabledMetric(MetricDailyLoss, true)
	}

	combined := state.RealizedToday + state.UnrealizedPnL
	var loss float64
	if combined < 0 {
		loss = -combined
	}
	var lossPct float64
	if state.InitialCapital > 0 {
		lossPct = loss / state.InitialCapital * 100
	}
	usage := lossPct / limit

	m := MetricStatus{
		Name:   MetricDailyLoss,
		Status: e.classify(usage),
		Usage:  usage,
		Value:  lossPct,
		Limit:  limit,
		Hard:   true,
	}
	if m.Status != StatusOK {
		m.Message = fmt.Sprintf("daily loss %.2f%% of initial capital (limit %.2f%%)", lossPct, limit)
	}
	return m
}

func (e *Evaluator) openPositions(settings *domain.RiskSettings, proj projection) MetricStatus {
	hard := e.profile.EnforcePositionLimits
	limit := settings.MaxOpenPositions
	if limit <= 0 {
		return disabledMetric(MetricOpenPositions, hard)
	}

	usage := float64(proj.openCount) / float64(limit)

	m := MetricStatus{
		Name:   MetricOpenPositions,
		Status: e.classify(usage),
		Usage:  usage,
		Value:  float64(proj.openCount),
		Limit:  float64(limit),
		Hard:   hard,
	}
	if m.Status != StatusOK {
		m.Message = fmt.Sprintf("%d open positions after trade (limit %d)", proj.openCount, limit)
	}
	return m
}

// cashReserve — обратная метрика: опасность при падении резерва НИЖЕ минимума.
// Использование растёт по мере приближения резерва к минимуму и
// пересекает 100% когда резерв опускается до минимума.
func (e *Evaluator) cashReserve(settings *domain.RiskSettings, proj projection) MetricStatus {
	limit := settings.MinCashReservePercent
	if limit <= 0 {
		return disabledMetric(MetricCashReserve, true)
	}

	var reservePct float64
	if proj.total > 0 {
		reservePct = proj.cash / proj.total * 100
	}

	var usage float64
	if reservePct <= 0 {
		usage = 100 // резерва нет вовсе
	} else {
		usage = limit / reservePct
		if usage > 100 {
			usage = 100
		}
	}

	m := MetricStatus{
		Name:   MetricCashReserve,
		Status: e.classify(usage),
		Usage:  usage,
		Value:  reservePct,
		Limit:  limit,
		Hard:   true,
	}
	if m.Status != StatusOK {
		m.Message = fmt.Sprintf("cash reserve would be %.1f%% of portfolio value (minimum %.1f%%)",
			reservePct, limit)
	}
	return m
}

func (e *Evaluator) dailyTrades(settings *domain.RiskSettings, state *PortfolioState) MetricStatus {
	limit := settings.MaxDailyTrades
	if limit <= 0 {
		return disabledMetric(MetricDailyTrades, true)
	}

	usage := float64(state.TradesToday) / float64(limit)

	m := MetricStatus{
		Name:   MetricDailyTrades,
		Status: e.classify(usage),
		Usage:  usage,
		Value:  float64(state.TradesToday),
		Limit:  float64(limit),
		Hard:   true,
	}
	if m.Status != StatusOK {
		m.Message = fmt.Sprintf("%d trades already executed today (limit %d)", state.TradesToday, limit)
	}
	return m
}

// reportTransition записывает инцидент при входе метрики в danger
func (e *Evaluator) reportTransition(model *domain.Model, m MetricStatus, tracker *StatusTracker) {
	if tracker == nil || e.sink == nil {
		return
	}

	entered := tracker.Transition(m.Name, m.Status == StatusDanger)
	if !entered {
		return
	}

	severity := domain.SeverityWarning
	if m.Hard {
		severity = domain.SeverityDanger
	}

	incident := &domain.Incident{
		ModelID:  model.ID,
		Type:     domain.IncidentRiskViolation,
		Severity: severity,
		Message:  fmt.Sprintf("%s: %s", m.Name, m.Message),
	}
	if err := e.sink.SaveIncident(incident); err != nil {
		e.logger.Warn("failed to save risk incident for model %d: %v", model.ID, err)
	}
}

// calculateRiskScore вычисляет общий риск-скор (0.0 = безопасно, 1.0 = максимум)
func calculateRiskScore(metrics []MetricStatus) float64 {
	weights := map[string]float64{
		MetricPositionSize:  0.2,
		MetricDailyLoss:     0.25,
		MetricOpenPositions: 0.15,
		MetricCashReserve:   0.2,
		MetricDailyTrades:   0.2,
	}

	score := 0.0
	for _, m := range metrics {
		usage := m.Usage
		if usage > 1.0 {
			usage = 1.0
		}
		score += usage * weights[m.Name]
	}

	if score > 1.0 {
		score = 1.0
	}
	return score
}
