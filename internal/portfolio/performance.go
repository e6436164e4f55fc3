package portfolio

import (
	"fmt"
	"math"

	"github.com/tackey2/aitradegame/internal/domain"
)

// Performance агрегаты производительности по журналу сделок модели
type Performance struct {
	TotalTrades   int     `json:"total_trades"`
	ClosedTrades  int     `json:"closed_trades"`
	WinningTrades int     `json:"winning_trades"`
	WinRate       float64 `json:"win_rate"` // проценты от закрытых сделок
	RealizedPnL   float64 `json:"realized_pnl"`
	BestTrade     float64 `json:"best_trade"`
	WorstTrade    float64 `json:"worst_trade"`
	Sharpe        float64 `json:"sharpe"`
}

// Performance считает агрегаты по всему журналу сделок модели
func (s *Service) Performance(modelID int64) (*Performance, error) {
	trades, err := s.store.GetAllModelTrades(modelID)
	if err != nil {
		return nil, fmt.Errorf("get trades for model %d: %w", modelID, err)
	}
	return ComputePerformance(trades), nil
}

// ComputePerformance считает агрегаты по списку сделок. Закрытой считается
// сделка с реализованным P&L (продажа), выигрышной — с положительным.
func ComputePerformance(trades []domain.Trade) *Performance {
	perf := &Performance{TotalTrades: len(trades)}
	daily := make(map[string]float64)

	for _, trade := range trades {
		if trade.RealizedPnL == nil {
			continue
		}
		pnl := *trade.RealizedPnL

		perf.ClosedTrades++
		perf.RealizedPnL += pnl
		if pnl > 0 {
			perf.WinningTrades++
		}
		if perf.ClosedTrades == 1 || pnl > perf.BestTrade {
			perf.BestTrade = pnl
		}
		if perf.ClosedTrades == 1 || pnl < perf.WorstTrade {
			perf.WorstTrade = pnl
		}

		day := trade.CreatedAt.UTC().Format("2006-01-02")
		daily[day] += pnl
	}

	if perf.ClosedTrades > 0 {
		perf.WinRate = float64(perf.WinningTrades) / float64(perf.ClosedTrades) * 100
	}
	perf.Sharpe = sharpeRatio(daily)

	return perf
}

// sharpeRatio считает упрощенный годовой Sharpe по дневному реализованному
// P&L: среднее, деленное на стандартное отклонение, в годовом выражении.
// Меньше двух торговых дней или нулевой разброс дают 0.
func sharpeRatio(daily map[string]float64) float64 {
	if len(daily) < 2 {
		return 0
	}

	var sum float64
	for _, pnl := range daily {
		sum += pnl
	}
	mean := sum / float64(len(daily))

	var variance float64
	for _, pnl := range daily {
		variance += (pnl - mean) * (pnl - mean)
	}
	variance /= float64(len(daily))

	stddev := math.Sqrt(variance)
	if stddev == 0 {
		return 0
	}

	return mean / stddev * math.Sqrt(365)
}
