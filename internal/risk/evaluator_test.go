package risk

import (
	"math"
	"testing"

	"github.com/tackey2/aitradegame/internal/domain"
)

type fakeSink struct {
	incidents []*domain.Incident
}

func (f *fakeSink) SaveIncident(incident *domain.Incident) error {
	f.incidents = append(f.incidents, incident)
	return nil
}

func testProfile(enforce bool) *Profile {
	return &Profile{
		ProfileName:           "test",
		WarningRatio:          0.8,
		DangerRatio:           1.0,
		EnforcePositionLimits: enforce,
	}
}

func testSettings() *domain.RiskSettings {
	return &domain.RiskSettings{
		ModelID:                1,
		MaxPositionSizePercent: 20,
		MaxDailyLossPercent:    5,
		MaxDailyTrades:         10,
		MaxOpenPositions:       5,
		MinCashReservePercent:  10,
	}
}

func cleanState() *PortfolioState {
	return &PortfolioState{
		InitialCapital: 10000,
		Cash:           10000,
		TotalValue:     10000,
		PositionValues: map[string]float64{},
		PositionQty:    map[string]float64{},
	}
}

func metricByName(t *testing.T, v *Verdict, name string) MetricStatus {
	t.Helper()
	for _, m := range v.Metrics {
		if m.Name == name {
			return m
		}
	}
	t.Fatalf("verdict has no metric %q", name)
	return MetricStatus{}
}

func TestEvaluate(t *testing.T) {
	model := &domain.Model{ID: 1, Name: "alpha", Environment: domain.EnvSimulation}

	tests := []struct {
		name         string
		enforce      bool
		mutate       func(s *domain.RiskSettings, st *PortfolioState)
		order        *ProposedOrder
		wantApproved bool
		wantHard     int
		wantSoft     int
		wantDanger   []string
	}{
		{
			name:         "order within all limits approved",
			enforce:      true,
			order:        &ProposedOrder{Coin: "BTC", Action: domain.ActionBuy, Quantity: 0.01, Price: 50000},
			wantApproved: true,
		},
		{
			name:         "oversized position rejected when limits enforced",
			enforce:      true,
			order:        &ProposedOrder{Coin: "BTC", Action: domain.ActionBuy, Quantity: 0.05, Price: 50000},
			wantApproved: false,
			wantHard:     1,
			wantDanger:   []string{MetricPositionSize},
		},
		{
			name:         "oversized position tolerated without enforcement",
			enforce:      false,
			order:        &ProposedOrder{Coin: "BTC", Action: domain.ActionBuy, Quantity: 0.05, Price: 50000},
			wantApproved: true,
			wantSoft:     1,
			wantDanger:   []string{MetricPositionSize},
		},
		{
			name:         "daily loss limit blocks trading",
			enforce:      true,
			mutate:       func(s *domain.RiskSettings, st *PortfolioState) { st.RealizedToday = -600 },
			order:        &ProposedOrder{},
			wantApproved: false,
			wantHard:     1,
			wantDanger:   []string{MetricDailyLoss},
		},
		{
			name:    "unrealized losses count toward daily loss",
			enforce: true,
			mutate: func(s *domain.RiskSettings, st *PortfolioState) {
				st.RealizedToday = -300
				st.UnrealizedPnL = -250
			},
			order:        &ProposedOrder{},
			wantApproved: false,
			wantHard:     1,
			wantDanger:   []string{MetricDailyLoss},
		},
		{
			name:         "daily trade limit reached",
			enforce:      true,
			mutate:       func(s *domain.RiskSettings, st *PortfolioState) { st.TradesToday = 10 },
			order:        &ProposedOrder{Coin: "BTC", Action: domain.ActionBuy, Quantity: 0.01, Price: 50000},
			wantApproved: false,
			wantHard:     1,
			wantDanger:   []string{MetricDailyTrades},
		},
		{
			name:    "zero limit disables metric",
			enforce: true,
			mutate: func(s *domain.RiskSettings, st *PortfolioState) {
				s.MaxPositionSizePercent = 0
			},
			order:        &ProposedOrder{Coin: "BTC", Action: domain.ActionBuy, Quantity: 0.1, Price: 50000},
			wantApproved: true,
		},
		{
			name:    "draining cash below reserve minimum rejected",
			enforce: true,
			mutate: func(s *domain.RiskSettings, st *PortfolioState) {
				s.MaxPositionSizePercent = 0
			},
			order:        &ProposedOrder{Coin: "BTC", Action: domain.ActionBuy, Quantity: 0.19, Price: 50000},
			wantApproved: false,
			wantHard:     1,
			wantDanger:   []string{MetricCashReserve},
		},
		{
			name:    "position cap counts the new coin",
			enforce: true,
			mutate: func(s *domain.RiskSettings, st *PortfolioState) {
				s.MaxOpenPositions = 2
				st.Cash = 7000
				st.PositionValues = map[string]float64{"ETH": 2000, "SOL": 1000}
				st.PositionQty = map[string]float64{"ETH": 1, "SOL": 10}
			},
			order:        &ProposedOrder{Coin: "BTC", Action: domain.ActionBuy, Quantity: 0.01, Price: 50000},
			wantApproved: false,
			wantHard:     1,
			wantDanger:   []string{MetricOpenPositions},
		},
		{
			name:    "full exit frees a position slot",
			enforce: true,
			mutate: func(s *domain.RiskSettings, st *PortfolioState) {
				s.MaxOpenPositions = 2
				st.Cash = 7000
				st.PositionValues = map[string]float64{"ETH": 2000, "SOL": 1000}
				st.PositionQty = map[string]float64{"ETH": 1, "SOL": 10}
			},
			order:        &ProposedOrder{Coin: "SOL", Action: domain.ActionSell, Quantity: 10, Price: 100},
			wantApproved: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			settings := testSettings()
			state := cleanState()
			if tt.mutate != nil {
				tt.mutate(settings, state)
			}

			e := NewEvaluatorWithProfile(testProfile(tt.enforce), nil, nil)
			verdict := e.Evaluate(model, settings, state, tt.order, nil)

			if verdict.Approved != tt.wantApproved {
				t.Errorf("Evaluate() approved = %v, want %v", verdict.Approved, tt.wantApproved)
			}
			if verdict.HardViolations != tt.wantHard {
				t.Errorf("Evaluate() hardViolations = %d, want %d", verdict.HardViolations, tt.wantHard)
			}
			if verdict.SoftViolations != tt.wantSoft {
				t.Errorf("Evaluate() softViolations = %d, want %d", verdict.SoftViolations, tt.wantSoft)
			}

			danger := verdict.DangerMetrics()
			if len(danger) != len(tt.wantDanger) {
				t.Fatalf("DangerMetrics() = %v, want %v", danger, tt.wantDanger)
			}
			for i, name := range tt.wantDanger {
				if danger[i] != name {
					t.Errorf("DangerMetrics()[%d] = %q, want %q", i, danger[i], name)
				}
			}
		})
	}
}

func TestEvaluateWarningTier(t *testing.T) {
	model := &domain.Model{ID: 1, Name: "alpha"}
	e := NewEvaluatorWithProfile(testProfile(true), nil, nil)

	// 17% от портфеля при лимите 20% — использование 0.85, зона warning
	order := &ProposedOrder{Coin: "BTC", Action: domain.ActionBuy, Quantity: 0.034, Price: 50000}
	verdict := e.Evaluate(model, testSettings(), cleanState(), order, nil)

	if !verdict.Approved {
		t.Fatalf("Evaluate() approved = false, want true: warning не блокирует")
	}
	m := metricByName(t, verdict, MetricPositionSize)
	if m.Status != StatusWarning {
		t.Errorf("position_size status = %q, want %q", m.Status, StatusWarning)
	}
	if m.Message == "" {
		t.Error("position_size message is empty, want explanation")
	}
}

func TestEvaluateRiskScore(t *testing.T) {
	model := &domain.Model{ID: 1, Name: "alpha"}
	e := NewEvaluatorWithProfile(testProfile(true), nil, nil)

	// чистый портфель: только метрика резерва даёт вклад 10/100 * 0.2
	verdict := e.Evaluate(model, testSettings(), cleanState(), &ProposedOrder{}, nil)
	if math.Abs(verdict.RiskScore-0.02) > 1e-9 {
		t.Errorf("RiskScore = %v, want 0.02", verdict.RiskScore)
	}

	// перегруженный портфель: скор растёт, но не выходит за 1.0
	state := cleanState()
	state.RealizedToday = -2000
	state.TradesToday = 50
	verdict = e.Evaluate(model, testSettings(), state, &ProposedOrder{}, nil)
	if verdict.RiskScore <= 0.02 || verdict.RiskScore > 1.0 {
		t.Errorf("RiskScore = %v, want in (0.02, 1.0]", verdict.RiskScore)
	}
}

func TestEvaluateIncidents(t *testing.T) {
	model := &domain.Model{ID: 7, Name: "beta"}
	lossState := func() *PortfolioState {
		st := cleanState()
		st.RealizedToday = -600
		return st
	}

	t.Run("incident emitted once while danger persists", func(t *testing.T) {
		sink := &fakeSink{}
		e := NewEvaluatorWithProfile(testProfile(true), sink, nil)
		tracker := NewStatusTracker()

		e.Evaluate(model, testSettings(), lossState(), &ProposedOrder{}, tracker)
		e.Evaluate(model, testSettings(), lossState(), &ProposedOrder{}, tracker)

		if len(sink.incidents) != 1 {
			t.Fatalf("incidents = %d, want 1", len(sink.incidents))
		}
		inc := sink.incidents[0]
		if inc.ModelID != 7 {
			t.Errorf("incident modelID = %d, want 7", inc.ModelID)
		}
		if inc.Type != domain.IncidentRiskViolation {
			t.Errorf("incident type = %q, want %q", inc.Type, domain.IncidentRiskViolation)
		}
		if inc.Severity != domain.SeverityDanger {
			t.Errorf("incident severity = %q, want %q", inc.Severity, domain.SeverityDanger)
		}
	})

	t.Run("recovery re-arms the incident", func(t *testing.T) {
		sink := &fakeSink{}
		e := NewEvaluatorWithProfile(testProfile(true), sink, nil)
		tracker := NewStatusTracker()

		e.Evaluate(model, testSettings(), lossState(), &ProposedOrder{}, tracker)
		e.Evaluate(model, testSettings(), cleanState(), &ProposedOrder{}, tracker)
		e.Evaluate(model, testSettings(), lossState(), &ProposedOrder{}, tracker)

		if len(sink.incidents) != 2 {
			t.Errorf("incidents = %d, want 2", len(sink.incidents))
		}
	})

	t.Run("nil tracker suppresses incidents", func(t *testing.T) {
		sink := &fakeSink{}
		e := NewEvaluatorWithProfile(testProfile(true), sink, nil)

		e.Evaluate(model, testSettings(), lossState(), &ProposedOrder{}, nil)

		if len(sink.incidents) != 0 {
			t.Errorf("incidents = %d, want 0", len(sink.incidents))
		}
	})

	t.Run("soft violation reports warning severity", func(t *testing.T) {
		sink := &fakeSink{}
		e := NewEvaluatorWithProfile(testProfile(false), sink, nil)
		tracker := NewStatusTracker()

		order := &ProposedOrder{Coin: "BTC", Action: domain.ActionBuy, Quantity: 0.05, Price: 50000}
		e.Evaluate(model, testSettings(), cleanState(), order, tracker)

		if len(sink.incidents) != 1 {
			t.Fatalf("incidents = %d, want 1", len(sink.incidents))
		}
		if sink.incidents[0].Severity != domain.SeverityWarning {
			t.Errorf("incident severity = %q, want %q", sink.incidents[0].Severity, domain.SeverityWarning)
		}
	})
}

func TestStatusTracker(t *testing.T) {
	tracker := NewStatusTracker()

	tests := []struct {
		name     string
		metric   string
		inDanger bool
		want     bool
	}{
		{"first danger fires", MetricDailyLoss, true, true},
		{"repeat danger silent", MetricDailyLoss, true, false},
		{"independent metric fires", MetricCashReserve, true, true},
		{"recovery silent", MetricDailyLoss, false, false},
		{"re-entry fires again", MetricDailyLoss, true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tracker.Transition(tt.metric, tt.inDanger); got != tt.want {
				t.Errorf("Transition(%q, %v) = %v, want %v", tt.metric, tt.inDanger, got, tt.want)
			}
		})
	}
}
