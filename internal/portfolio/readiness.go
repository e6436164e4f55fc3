package portfolio

import (
	"context"

	"github.com/tackey2/aitradegame/internal/domain"
	"github.com/tackey2/aitradegame/internal/risk"
)

// Имена проверок готовности
const (
	CheckTrades   = "trades"
	CheckWinRate  = "win_rate"
	CheckSharpe   = "sharpe"
	CheckDrawdown = "drawdown"
)

// ReadinessCheck результат одной проверки готовности
type ReadinessCheck struct {
	Name      string  `json:"name"`
	Value     float64 `json:"value"`
	Threshold float64 `json:"threshold"`
	Passed    bool    `json:"passed"`
}

// Readiness оценка готовности модели к live-торговле
type Readiness struct {
	Ready          bool             `json:"ready"`
	Score          float64          `json:"score"` // 0..1, прогресс к порогам
	Checks         []ReadinessCheck `json:"checks"`
	Recommendation string           `json:"recommendation"`
}

// Readiness строит снимок и производительность модели и сравнивает их
// с порогами graduation-профиля
func (s *Service) Readiness(ctx context.Context, model *domain.Model, settings *domain.RiskSettings, grad risk.Graduation) (*Readiness, error) {
	perf, err := s.Performance(model.ID)
	if err != nil {
		return nil, err
	}

	snap, err := s.Snapshot(ctx, model)
	if err != nil {
		return nil, err
	}

	return EvaluateReadiness(grad, settings, perf, snap), nil
}

// EvaluateReadiness сравнивает производительность модели с порогами
// graduation-профиля. Порог просадки модели перекрывает порог профиля,
// если задан. Итоговый балл — средний прогресс к каждому порогу;
// нулевой порог считается пройденным.
func EvaluateReadiness(grad risk.Graduation, settings *domain.RiskSettings, perf *Performance, snap *Snapshot) *Readiness {
	maxDrawdown := grad.MaxDrawdown
	if settings != nil && settings.MaxDrawdownPercent > 0 {
		maxDrawdown = settings.MaxDrawdownPercent
	}

	var drawdown float64
	if snap.PeakValue > 0 && snap.TotalValue < snap.PeakValue {
		drawdown = (snap.PeakValue - snap.TotalValue) / snap.PeakValue * 100
	}

	checks := []ReadinessCheck{
		atLeast(CheckTrades, float64(perf.TotalTrades), float64(grad.MinTrades)),
		atLeast(CheckWinRate, perf.WinRate, grad.MinWinRate),
		atLeast(CheckSharpe, perf.Sharpe, grad.MinSharpe),
		atMost(CheckDrawdown, drawdown, maxDrawdown),
	}

	result := &Readiness{Ready: true, Checks: checks}
	for _, check := range checks {
		if !check.Passed {
			result.Ready = false
		}
		result.Score += checkProgress(check) / float64(len(checks))
	}

	if result.Ready {
		result.Recommendation = "model meets graduation criteria and is ready for live trading"
	} else {
		result.Recommendation = "continue simulated trading until all graduation criteria are met"
	}

	return result
}

// atLeast проверка "значение не меньше порога"
func atLeast(name string, value, threshold float64) ReadinessCheck {
	return ReadinessCheck{
		Name:      name,
		Value:     value,
		Threshold: threshold,
		Passed:    threshold <= 0 || value >= threshold,
	}
}

// atMost проверка "значение не больше порога"
func atMost(name string, value, threshold float64) ReadinessCheck {
	return ReadinessCheck{
		Name:      name,
		Value:     value,
		Threshold: threshold,
		Passed:    threshold <= 0 || value <= threshold,
	}
}

// checkProgress возвращает прогресс проверки от 0 до 1
func checkProgress(check ReadinessCheck) float64 {
	if check.Threshold <= 0 {
		return 1
	}
	if check.Name == CheckDrawdown {
		progress := 1 - check.Value/check.Threshold
		if progress < 0 {
			return 0
		}
		return progress
	}
	progress := check.Value / check.Threshold
	if progress > 1 {
		return 1
	}
	if progress < 0 {
		return 0
	}
	return progress
}
