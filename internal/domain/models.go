package domain

import "time"

// AIProvider представляет подключение к OpenAI-совместимому AI-провайдеру
type AIProvider struct {
	ID        int64     `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	BaseURL   string    `db:"base_url" json:"base_url"`
	APIKey    string    `db:"api_key" json:"-"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Model представляет торговую модель: AI + капитал + настройки исполнения
type Model struct {
	ID                  int64               `db:"id" json:"id"`
	Name                string              `db:"name" json:"name"`
	ProviderID          int64               `db:"provider_id" json:"provider_id"`
	AIModel             string              `db:"ai_model" json:"ai_model"`
	InitialCapital      float64             `db:"initial_capital" json:"initial_capital"`
	Environment         Environment         `db:"environment" json:"environment"`
	Automation          Automation          `db:"automation" json:"automation"`
	ExchangeEnvironment ExchangeEnvironment `db:"exchange_environment" json:"exchange_environment"`
	Active              bool                `db:"active" json:"active"`
	CreatedAt           time.Time           `db:"created_at" json:"created_at"`
	UpdatedAt           time.Time           `db:"updated_at" json:"updated_at"`
}

// RiskSettings представляет лимиты риск-менеджмента модели (один к одному)
type RiskSettings struct {
	ModelID                int64     `db:"model_id" json:"model_id"`
	MaxPositionSizePercent float64   `db:"max_position_size_percent" json:"max_position_size_percent"`
	MaxDailyLossPercent    float64   `db:"max_daily_loss_percent" json:"max_daily_loss_percent"`
	MaxDailyTrades         int       `db:"max_daily_trades" json:"max_daily_trades"`
	MaxOpenPositions       int       `db:"max_open_positions" json:"max_open_positions"`
	MinCashReservePercent  float64   `db:"min_cash_reserve_percent" json:"min_cash_reserve_percent"`
	MaxDrawdownPercent     float64   `db:"max_drawdown_percent" json:"max_drawdown_percent"`
	TradingIntervalMinutes int       `db:"trading_interval_minutes" json:"trading_interval_minutes"`
	UpdatedAt              time.Time `db:"updated_at" json:"updated_at"`
}

// ModelBalance представляет денежный остаток модели и пик стоимости портфеля
type ModelBalance struct {
	ModelID   int64     `db:"model_id" json:"model_id"`
	Cash      float64   `db:"cash" json:"cash"`
	PeakValue float64   `db:"peak_value" json:"peak_value"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// Position представляет открытую позицию модели по монете
type Position struct {
	ID            int64     `db:"id" json:"id"`
	ModelID       int64     `db:"model_id" json:"model_id"`
	Coin          string    `db:"coin" json:"coin"`
	Quantity      float64   `db:"quantity" json:"quantity"`
	AvgEntryPrice float64   `db:"avg_entry_price" json:"avg_entry_price"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}

// Trade представляет исполненную сделку (запись неизменяема)
type Trade struct {
	ID          int64     `db:"id" json:"id"`
	ModelID     int64     `db:"model_id" json:"model_id"`
	Coin        string    `db:"coin" json:"coin"`
	Action      string    `db:"action" json:"action"` // "buy" or "sell"
	Quantity    float64   `db:"quantity" json:"quantity"`
	Price       float64   `db:"price" json:"price"`
	RealizedPnL *float64  `db:"realized_pnl" json:"realized_pnl"` // только для продаж
	Leverage    int       `db:"leverage" json:"leverage"`
	OrderID     string    `db:"order_id" json:"order_id"` // пустой для симуляции
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// PendingDecision представляет решение AI, ожидающее подтверждения оператором
type PendingDecision struct {
	ID             int64          `db:"id" json:"id"`
	ModelID        int64          `db:"model_id" json:"model_id"`
	Coin           string         `db:"coin" json:"coin"`
	Signal         Signal         `db:"signal" json:"signal"`
	Quantity       float64        `db:"quantity" json:"quantity"`
	Leverage       int            `db:"leverage" json:"leverage"`
	Confidence     float64        `db:"confidence" json:"confidence"`
	Justification  string         `db:"justification" json:"justification"`
	Status         DecisionStatus `db:"status" json:"status"`
	RejectedReason string         `db:"rejected_reason" json:"rejected_reason,omitempty"`
	CreatedAt      time.Time      `db:"created_at" json:"created_at"`
	ActionedAt     *time.Time     `db:"actioned_at" json:"actioned_at"`
}

// ExchangeCredentials представляет API-ключи биржи модели.
// Секреты никогда не сериализуются в ответы API.
type ExchangeCredentials struct {
	ModelID       int64      `db:"model_id" json:"model_id"`
	Exchange      string     `db:"exchange" json:"exchange"`
	MainnetAPIKey string     `db:"mainnet_api_key" json:"-"`
	MainnetSecret string     `db:"mainnet_secret" json:"-"`
	TestnetAPIKey string     `db:"testnet_api_key" json:"-"`
	TestnetSecret string     `db:"testnet_secret" json:"-"`
	Active        bool       `db:"active" json:"active"`
	LastValidated *time.Time `db:"last_validated" json:"last_validated"`
	UpdatedAt     time.Time  `db:"updated_at" json:"updated_at"`
}

// CredentialsStatus описывает наличие ключей без раскрытия значений
type CredentialsStatus struct {
	ModelID       int64      `json:"model_id"`
	Exchange      string     `json:"exchange"`
	HasMainnet    bool       `json:"has_mainnet"`
	HasTestnet    bool       `json:"has_testnet"`
	Active        bool       `json:"active"`
	LastValidated *time.Time `json:"last_validated"`
}

// Incident представляет событие журнала инцидентов (append-only)
type Incident struct {
	ID        int64            `db:"id" json:"id"`
	ModelID   int64            `db:"model_id" json:"model_id"`
	Type      IncidentType     `db:"type" json:"type"`
	Severity  IncidentSeverity `db:"severity" json:"severity"`
	Message   string           `db:"message" json:"message"`
	CreatedAt time.Time        `db:"created_at" json:"created_at"`
}
