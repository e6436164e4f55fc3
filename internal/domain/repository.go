package domain

import "time"

// ProviderRepository определяет интерфейс для работы с AI-провайдерами
type ProviderRepository interface {
	Create(provider *AIProvider) error
	GetByID(id int64) (*AIProvider, error)
	GetAll() ([]AIProvider, error)
	Update(provider *AIProvider) error
	Delete(id int64) error
}

// ModelRepository определяет интерфейс для работы с торговыми моделями
type ModelRepository interface {
	Create(model *Model) error
	GetByID(id int64) (*Model, error)
	GetAll() ([]Model, error)
	GetActive() ([]Model, error)
	Update(model *Model) error
	Delete(id int64) error
	SetEnvironment(id int64, env Environment) error
	SetAutomation(id int64, automation Automation) error
	SetExchangeEnvironment(id int64, env ExchangeEnvironment) error
	StopAll() ([]int64, error)
}

// RiskSettingsRepository определяет интерфейс для работы с лимитами риска
type RiskSettingsRepository interface {
	Get(modelID int64) (*RiskSettings, error)
	Upsert(settings *RiskSettings) error
}

// BalanceRepository определяет интерфейс для работы с балансами моделей
type BalanceRepository interface {
	Get(modelID int64) (*ModelBalance, error)
	UpdatePeak(modelID int64, peak float64) error
}

// PositionRepository определяет интерфейс для работы с позициями
type PositionRepository interface {
	Get(modelID int64, coin string) (*Position, error)
	GetByModel(modelID int64) ([]Position, error)
	CountOpen(modelID int64) (int, error)
}

// TradeRepository определяет интерфейс для чтения журнала сделок.
// Запись идёт только через транзакцию исполнения в storage.
type TradeRepository interface {
	GetByModel(modelID int64, limit int) ([]Trade, error)
	GetAllByModel(modelID int64) ([]Trade, error)
	CountSince(modelID int64, since time.Time) (int, error)
	RealizedPnLSince(modelID int64, since time.Time) (float64, error)
}

// PendingDecisionRepository определяет интерфейс для отложенных решений
type PendingDecisionRepository interface {
	Create(decision *PendingDecision) error
	GetByID(id int64) (*PendingDecision, error)
	List(modelID int64) ([]PendingDecision, error)
	UpdateStatus(id int64, status DecisionStatus, reason string) error
	ExpireBefore(cutoff time.Time) (int64, error)
}

// CredentialsRepository определяет интерфейс для работы с ключами биржи
type CredentialsRepository interface {
	Upsert(creds *ExchangeCredentials) error
	Get(modelID int64) (*ExchangeCredentials, error)
	Delete(modelID int64) error
	UpdateLastValidated(modelID int64, at time.Time) error
}

// IncidentRepository определяет интерфейс для журнала инцидентов
type IncidentRepository interface {
	Save(incident *Incident) error
	GetByModel(modelID int64, limit int) ([]Incident, error)
}
