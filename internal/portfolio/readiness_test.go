package portfolio

import (
	"math"
	"testing"

	"github.com/tackey2/aitradegame/internal/domain"
	"github.com/tackey2/aitradegame/internal/risk"
)

func testGraduation() risk.Graduation {
	return risk.Graduation{
		MinTrades:   50,
		MinWinRate:  55.0,
		MinSharpe:   1.5,
		MaxDrawdown: 10.0,
	}
}

func checkByName(t *testing.T, r *Readiness, name string) ReadinessCheck {
	t.Helper()
	for _, check := range r.Checks {
		if check.Name == name {
			return check
		}
	}
	t.Fatalf("readiness has no check %q", name)
	return ReadinessCheck{}
}

func TestEvaluateReadiness(t *testing.T) {
	tests := []struct {
		name      string
		grad      risk.Graduation
		settings  *domain.RiskSettings
		perf      *Performance
		snap      *Snapshot
		wantReady bool
		wantScore float64
	}{
		{
			name:      "seasoned model graduates",
			grad:      testGraduation(),
			perf:      &Performance{TotalTrades: 60, WinRate: 60, Sharpe: 2.0},
			snap:      &Snapshot{TotalValue: 11000, PeakValue: 11000},
			wantReady: true,
			wantScore: 1.0,
		},
		{
			name:      "young model keeps training",
			grad:      testGraduation(),
			perf:      &Performance{TotalTrades: 10, WinRate: 40, Sharpe: 0.5},
			snap:      &Snapshot{TotalValue: 10000, PeakValue: 10000},
			wantReady: false,
			wantScore: (10.0/50.0 + 40.0/55.0 + 0.5/1.5 + 1.0) / 4,
		},
		{
			name:      "drawdown above limit blocks graduation",
			grad:      testGraduation(),
			perf:      &Performance{TotalTrades: 60, WinRate: 60, Sharpe: 2.0},
			snap:      &Snapshot{TotalValue: 8500, PeakValue: 10000},
			wantReady: false,
			wantScore: 3.0 / 4, // прогресс просадки обрезан до нуля
		},
		{
			name:      "model drawdown limit overrides profile",
			grad:      testGraduation(),
			settings:  &domain.RiskSettings{MaxDrawdownPercent: 5},
			perf:      &Performance{TotalTrades: 60, WinRate: 60, Sharpe: 2.0},
			snap:      &Snapshot{TotalValue: 9300, PeakValue: 10000},
			wantReady: false,
			wantScore: 3.0 / 4, // прогресс просадки обрезан до нуля
		},
		{
			name:      "zero thresholds always pass",
			grad:      risk.Graduation{},
			perf:      &Performance{},
			snap:      &Snapshot{TotalValue: 10000, PeakValue: 10000},
			wantReady: true,
			wantScore: 1.0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := EvaluateReadiness(tt.grad, tt.settings, tt.perf, tt.snap)

			if result.Ready != tt.wantReady {
				t.Errorf("Ready = %v, want %v", result.Ready, tt.wantReady)
			}
			if math.Abs(result.Score-tt.wantScore) > 1e-9 {
				t.Errorf("Score = %v, want %v", result.Score, tt.wantScore)
			}
			if result.Recommendation == "" {
				t.Error("Recommendation is empty")
			}
			if len(result.Checks) != 4 {
				t.Fatalf("Checks = %d, want 4", len(result.Checks))
			}
		})
	}
}

func TestEvaluateReadinessDrawdown(t *testing.T) {
	grad := testGraduation()
	perf := &Performance{TotalTrades: 60, WinRate: 60, Sharpe: 2.0}

	tests := []struct {
		name       string
		snap       *Snapshot
		wantValue  float64
		wantPassed bool
	}{
		{
			name:       "no peak means no drawdown",
			snap:       &Snapshot{TotalValue: 10000, PeakValue: 0},
			wantValue:  0,
			wantPassed: true,
		},
		{
			name:       "above peak means no drawdown",
			snap:       &Snapshot{TotalValue: 12000, PeakValue: 10000},
			wantValue:  0,
			wantPassed: true,
		},
		{
			name:       "five percent drawdown within limit",
			snap:       &Snapshot{TotalValue: 9500, PeakValue: 10000},
			wantValue:  5,
			wantPassed: true,
		},
		{
			name:       "twelve percent drawdown fails",
			snap:       &Snapshot{TotalValue: 8800, PeakValue: 10000},
			wantValue:  12,
			wantPassed: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := EvaluateReadiness(grad, nil, perf, tt.snap)
			check := checkByName(t, result, CheckDrawdown)

			if math.Abs(check.Value-tt.wantValue) > 1e-9 {
				t.Errorf("drawdown value = %v, want %v", check.Value, tt.wantValue)
			}
			if check.Passed != tt.wantPassed {
				t.Errorf("drawdown passed = %v, want %v", check.Passed, tt.wantPassed)
			}
		})
	}
}
