package risk

import "time"

// Status определяет классификацию использования лимита
type Status string

const (
	StatusOK      Status = "ok"
	StatusWarning Status = "warning"
	StatusDanger  Status = "danger"
)

// Имена метрик риска
const (
	MetricPositionSize  = "position_size"
	MetricDailyLoss     = "daily_loss"
	MetricOpenPositions = "open_positions"
	MetricCashReserve   = "cash_reserve"
	MetricDailyTrades   = "daily_trades"
)

// Profile представляет профиль классификации рисков
type Profile struct {
	ProfileName           string     `yaml:"profile_name"`
	WarningRatio          float64    `yaml:"warning_ratio"`
	DangerRatio           float64    `yaml:"danger_ratio"`
	EnforcePositionLimits bool       `yaml:"enforce_position_limits"`
	Graduation            Graduation `yaml:"graduation"`
}

// Graduation описывает пороги готовности модели к live-торговле
type Graduation struct {
	MinTrades   int     `yaml:"min_trades"`
	MinWinRate  float64 `yaml:"min_win_rate"`
	MinSharpe   float64 `yaml:"min_sharpe"`
	MaxDrawdown float64 `yaml:"max_drawdown"`
}

// PortfolioState представляет снимок портфеля для оценки рисков
type PortfolioState struct {
	InitialCapital float64
	Cash           float64
	TotalValue     float64
	PositionValues map[string]float64
	PositionQty    map[string]float64
	RealizedToday  float64
	UnrealizedPnL  float64
	TradesToday    int
}

// ProposedOrder представляет предлагаемый ордер для проверки.
// Нулевое количество оценивает текущее состояние без изменений.
type ProposedOrder struct {
	Coin     string
	Action   string
	Quantity float64
	Price    float64
}

// MetricStatus результат проверки одной метрики
type MetricStatus struct {
	Name    string  `json:"name"`
	Status  Status  `json:"status"`
	Usage   float64 `json:"usage"`
	Value   float64 `json:"value"`
	Limit   float64 `json:"limit"`
	Hard    bool    `json:"hard"`
	Message string  `json:"message,omitempty"`
}

// Verdict результат проверки предлагаемого ордера
type Verdict struct {
	Approved       bool           `json:"approved"`
	Metrics        []MetricStatus `json:"metrics"`
	HardViolations int            `json:"hard_violations"`
	SoftViolations int            `json:"soft_violations"`
	RiskScore      float64        `json:"risk_score"`
	CheckedAt      time.Time      `json:"checked_at"`
}

// DangerMetrics возвращает имена метрик в состоянии danger
func (v *Verdict) DangerMetrics() []string {
	var names []string
	for _, m := range v.Metrics {
		if m.Status == StatusDanger {
			names = append(names, m.Name)
		}
	}
	return names
}
