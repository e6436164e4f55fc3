package portfolio

import (
	"math"
	"testing"
	"time"

	"github.com/tackey2/aitradegame/internal/domain"
)

func sellTrade(pnl float64, day string) domain.Trade {
	createdAt, _ := time.Parse("2006-01-02", day)
	return domain.Trade{
		Coin:        "BTC",
		Action:      domain.ActionSell,
		RealizedPnL: &pnl,
		CreatedAt:   createdAt,
	}
}

func buyTrade(day string) domain.Trade {
	createdAt, _ := time.Parse("2006-01-02", day)
	return domain.Trade{
		Coin:      "BTC",
		Action:    domain.ActionBuy,
		CreatedAt: createdAt,
	}
}

func TestComputePerformance(t *testing.T) {
	tests := []struct {
		name        string
		trades      []domain.Trade
		wantTotal   int
		wantClosed  int
		wantWinning int
		wantWinRate float64
		wantPnL     float64
		wantBest    float64
		wantWorst   float64
	}{
		{
			name: "empty journal",
		},
		{
			name:      "only buys have no closed trades",
			trades:    []domain.Trade{buyTrade("2026-08-01"), buyTrade("2026-08-02")},
			wantTotal: 2,
		},
		{
			name: "mixed wins and losses",
			trades: []domain.Trade{
				buyTrade("2026-08-01"),
				sellTrade(100, "2026-08-01"),
				sellTrade(-50, "2026-08-01"),
				buyTrade("2026-08-02"),
				sellTrade(200, "2026-08-02"),
			},
			wantTotal:   5,
			wantClosed:  3,
			wantWinning: 2,
			wantWinRate: 200.0 / 3.0,
			wantPnL:     250,
			wantBest:    200,
			wantWorst:   -50,
		},
		{
			name: "all wins keep positive worst trade",
			trades: []domain.Trade{
				sellTrade(10, "2026-08-01"),
				sellTrade(30, "2026-08-01"),
			},
			wantTotal:   2,
			wantClosed:  2,
			wantWinning: 2,
			wantWinRate: 100,
			wantPnL:     40,
			wantBest:    30,
			wantWorst:   10,
		},
		{
			name: "breakeven sell is not a win",
			trades: []domain.Trade{
				sellTrade(0, "2026-08-01"),
			},
			wantTotal:  1,
			wantClosed: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			perf := ComputePerformance(tt.trades)

			if perf.TotalTrades != tt.wantTotal {
				t.Errorf("TotalTrades = %d, want %d", perf.TotalTrades, tt.wantTotal)
			}
			if perf.ClosedTrades != tt.wantClosed {
				t.Errorf("ClosedTrades = %d, want %d", perf.ClosedTrades, tt.wantClosed)
			}
			if perf.WinningTrades != tt.wantWinning {
				t.Errorf("WinningTrades = %d, want %d", perf.WinningTrades, tt.wantWinning)
			}
			if math.Abs(perf.WinRate-tt.wantWinRate) > 1e-9 {
				t.Errorf("WinRate = %v, want %v", perf.WinRate, tt.wantWinRate)
			}
			if math.Abs(perf.RealizedPnL-tt.wantPnL) > 1e-9 {
				t.Errorf("RealizedPnL = %v, want %v", perf.RealizedPnL, tt.wantPnL)
			}
			if perf.BestTrade != tt.wantBest {
				t.Errorf("BestTrade = %v, want %v", perf.BestTrade, tt.wantBest)
			}
			if perf.WorstTrade != tt.wantWorst {
				t.Errorf("WorstTrade = %v, want %v", perf.WorstTrade, tt.wantWorst)
			}
		})
	}
}

func TestSharpe(t *testing.T) {
	tests := []struct {
		name   string
		trades []domain.Trade
		want   float64
	}{
		{
			name:   "single day gives zero",
			trades: []domain.Trade{sellTrade(100, "2026-08-01")},
			want:   0,
		},
		{
			name: "identical days give zero spread",
			trades: []domain.Trade{
				sellTrade(100, "2026-08-01"),
				sellTrade(100, "2026-08-02"),
			},
			want: 0,
		},
		{
			name: "two uneven days",
			trades: []domain.Trade{
				sellTrade(50, "2026-08-01"),
				sellTrade(200, "2026-08-02"),
			},
			// mean 125, stddev 75, в годовом выражении
			want: 125.0 / 75.0 * math.Sqrt(365),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			perf := ComputePerformance(tt.trades)
			if math.Abs(perf.Sharpe-tt.want) > 1e-9 {
				t.Errorf("Sharpe = %v, want %v", perf.Sharpe, tt.want)
			}
		})
	}
}
