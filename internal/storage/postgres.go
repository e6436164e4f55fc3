package storage

import (
	"database/sql"
	"fmt"
	"math"
	"time"

	"github.com/tackey2/aitradegame/internal/domain"
	"github.com/tackey2/aitradegame/internal/storage/repository"
	_ "github.com/lib/pq"
)

// Алиасы доменных типов, чтобы вызывающему коду хватало одного импорта storage
type (
	AIProvider          = domain.AIProvider
	Model               = domain.Model
	RiskSettings        = domain.RiskSettings
	ModelBalance        = domain.ModelBalance
	Position            = domain.Position
	Trade               = domain.Trade
	PendingDecision     = domain.PendingDecision
	ExchangeCredentials = domain.ExchangeCredentials
	Incident            = domain.Incident
)

// Fill описывает исполненный ордер для атомарной записи в леджер
type Fill = domain.Fill

// PostgresStorage является фасадом для работы с PostgreSQL через репозитории
type PostgresStorage struct {
	db          *sql.DB
	providers   *repository.ProviderRepository
	models      *repository.ModelRepository
	risk        *repository.RiskSettingsRepository
	balances    *repository.BalanceRepository
	positions   *repository.PositionRepository
	trades      *repository.TradeRepository
	pending     *repository.PendingDecisionRepository
	credentials *repository.CredentialsRepository
	incidents   *repository.IncidentRepository
}

func NewPostgresStorage(host string, port int, user, password, dbname, sslmode string, maxOpenConns, maxIdleConns int, connMaxLifetime time.Duration) (*PostgresStorage, error) {
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		host, port, user, password, dbname, sslmode)

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	// Настройка connection pool из конфигурации
	db.SetMaxOpenConns(maxOpenConns)
	db.SetMaxIdleConns(maxIdleConns)
	db.SetConnMaxLifetime(connMaxLifetime)

	storage := &PostgresStorage{
		db:          db,
		providers:   repository.NewProviderRepository(db),
		models:      repository.NewModelRepository(db),
		risk:        repository.NewRiskSettingsRepository(db),
		balances:    repository.NewBalanceRepository(db),
		positions:   repository.NewPositionRepository(db),
		trades:      repository.NewTradeRepository(db),
		pending:     repository.NewPendingDecisionRepository(db),
		credentials: repository.NewCredentialsRepository(db),
		incidents:   repository.NewIncidentRepository(db),
	}

	// Запускаем миграции
	if err := storage.migrate(); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return storage, nil
}

func (s *PostgresStorage) migrate() error {
	migrations := []string{
		// AI-провайдеры
		`CREATE TABLE IF NOT EXISTS ai_providers (
			id BIGSERIAL PRIMARY KEY,
			name VARCHAR(100) NOT NULL,
			base_url TEXT NOT NULL,
			api_key TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		// Торговые модели
		`CREATE TABLE IF NOT EXISTS models (
			id BIGSERIAL PRIMARY KEY,
			name VARCHAR(100) NOT NULL,
			provider_id BIGINT NOT NULL REFERENCES ai_providers(id),
			ai_model VARCHAR(100) NOT NULL,
			initial_capital DECIMAL(20, 8) NOT NULL,
			environment VARCHAR(20) NOT NULL DEFAULT 'simulation',
			automation VARCHAR(20) NOT NULL DEFAULT 'manual',
			exchange_environment VARCHAR(20) NOT NULL DEFAULT 'testnet',
			active BOOLEAN NOT NULL DEFAULT true,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		// Лимиты риска (один к одному с моделью)
		`CREATE TABLE IF NOT EXISTS risk_settings (
			model_id BIGINT PRIMARY KEY REFERENCES models(id) ON DELETE CASCADE,
			max_position_size_percent DECIMAL(10, 2) NOT NULL,
			max_daily_loss_percent DECIMAL(10, 2) NOT NULL,
			max_daily_trades INTEGER NOT NULL,
			max_open_positions INTEGER NOT NULL,
			min_cash_reserve_percent DECIMAL(10, 2) NOT NULL,
			max_drawdown_percent DECIMAL(10, 2) NOT NULL,
			trading_interval_minutes INTEGER NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		// Денежный остаток и пик стоимости портфеля
		`CREATE TABLE IF NOT EXISTS model_balances (
			model_id BIGINT PRIMARY KEY REFERENCES models(id) ON DELETE CASCADE,
			cash DECIMAL(20, 8) NOT NULL,
			peak_value DECIMAL(20, 8) NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		// Открытые позиции
		`CREATE TABLE IF NOT EXISTS model_positions (
			id BIGSERIAL PRIMARY KEY,
			model_id BIGINT NOT NULL REFERENCES models(id) ON DELETE CASCADE,
			coin VARCHAR(20) NOT NULL,
			quantity DECIMAL(20, 8) NOT NULL,
			avg_entry_price DECIMAL(20, 8) NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			UNIQUE (model_id, coin)
		)`,
		// Журнал сделок (append-only)
		`CREATE TABLE IF NOT EXISTS trades (
			id BIGSERIAL PRIMARY KEY,
			model_id BIGINT NOT NULL REFERENCES models(id) ON DELETE CASCADE,
			coin VARCHAR(20) NOT NULL,
			action VARCHAR(10) NOT NULL,
			quantity DECIMAL(20, 8) NOT NULL,
			price DECIMAL(20, 8) NOT NULL,
			realized_pnl DECIMAL(20, 8),
			leverage INTEGER NOT NULL DEFAULT 1,
			order_id VARCHAR(100),
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		// Отложенные решения AI
		`CREATE TABLE IF NOT EXISTS pending_decisions (
			id BIGSERIAL PRIMARY KEY,
			model_id BIGINT NOT NULL REFERENCES models(id) ON DELETE CASCADE,
			coin VARCHAR(20) NOT NULL,
			signal VARCHAR(20) NOT NULL,
			quantity DECIMAL(20, 8) NOT NULL,
			leverage INTEGER NOT NULL DEFAULT 1,
			confidence NUMERIC(3, 2),
			justification TEXT,
			status VARCHAR(20) NOT NULL DEFAULT 'pending',
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			actioned_at TIMESTAMPTZ
		)`,
		// Ключи биржи (один комплект на модель)
		`CREATE TABLE IF NOT EXISTS exchange_credentials (
			model_id BIGINT PRIMARY KEY REFERENCES models(id) ON DELETE CASCADE,
			exchange VARCHAR(20) NOT NULL DEFAULT 'binance',
			mainnet_api_key TEXT NOT NULL DEFAULT '',
			mainnet_secret TEXT NOT NULL DEFAULT '',
			testnet_api_key TEXT NOT NULL DEFAULT '',
			testnet_secret TEXT NOT NULL DEFAULT '',
			active BOOLEAN NOT NULL DEFAULT true,
			last_validated TIMESTAMPTZ,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		// Журнал инцидентов (append-only)
		`CREATE TABLE IF NOT EXISTS incidents (
			id BIGSERIAL PRIMARY KEY,
			model_id BIGINT NOT NULL REFERENCES models(id) ON DELETE CASCADE,
			type VARCHAR(30) NOT NULL,
			severity VARCHAR(10) NOT NULL,
			message TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		// Индексы
		`CREATE INDEX IF NOT EXISTS idx_trades_model_id ON trades(model_id)`,
		`CREATE INDEX IF NOT EXISTS idx_trades_model_created ON trades(model_id, created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_positions_model_id ON model_positions(model_id)`,
		`CREATE INDEX IF NOT EXISTS idx_pending_model_id ON pending_decisions(model_id)`,
		`CREATE INDEX IF NOT EXISTS idx_pending_status ON pending_decisions(status)`,
		`CREATE INDEX IF NOT EXISTS idx_incidents_model_id ON incidents(model_id)`,
		`CREATE INDEX IF NOT EXISTS idx_incidents_created_at ON incidents(created_at)`,
		// Миграции для существующих таблиц
		`ALTER TABLE pending_decisions ADD COLUMN IF NOT EXISTS rejected_reason TEXT`,
		`ALTER TABLE exchange_credentials ADD COLUMN IF NOT EXISTS last_validated TIMESTAMPTZ`,
	}

	for _, migration := range migrations {
		if _, err := s.db.Exec(migration); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}

	return nil
}

// ==================== AI PROVIDERS ====================

func (s *PostgresStorage) CreateProvider(provider *AIProvider) error {
	return s.providers.Create(provider)
}

func (s *PostgresStorage) GetProvider(id int64) (*AIProvider, error) {
	return s.providers.GetByID(id)
}

func (s *PostgresStorage) GetProviders() ([]AIProvider, error) {
	return s.providers.GetAll()
}

func (s *PostgresStorage) UpdateProvider(provider *AIProvider) error {
	return s.providers.Update(provider)
}

func (s *PostgresStorage) DeleteProvider(id int64) error {
	return s.providers.Delete(id)
}

// ==================== MODELS ====================

// CreateModel создает модель вместе с дефолтными лимитами риска и балансом
// в одной транзакции
func (s *PostgresStorage) CreateModel(model *Model) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	err = tx.QueryRow(
		`INSERT INTO models (name, provider_id, ai_model, initial_capital, environment,
		                     automation, exchange_environment, active, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW(), NOW())
		 RETURNING id, created_at, updated_at`,
		model.Name,
		model.ProviderID,
		model.AIModel,
		model.InitialCapital,
		model.Environment,
		model.Automation,
		model.ExchangeEnvironment,
		model.Active,
	).Scan(&model.ID, &model.CreatedAt, &model.UpdatedAt)
	if err != nil {
		return err
	}

	_, err = tx.Exec(
		`INSERT INTO risk_settings (model_id, max_position_size_percent, max_daily_loss_percent,
		                            max_daily_trades, max_open_positions, min_cash_reserve_percent,
		                            max_drawdown_percent, trading_interval_minutes, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW())`,
		model.ID,
		domain.DefaultMaxPositionSizePercent,
		domain.DefaultMaxDailyLossPercent,
		domain.DefaultMaxDailyTrades,
		domain.DefaultMaxOpenPositions,
		domain.DefaultMinCashReservePercent,
		domain.DefaultMaxDrawdownPercent,
		domain.DefaultTradingIntervalMinutes,
	)
	if err != nil {
		return err
	}

	_, err = tx.Exec(
		`INSERT INTO model_balances (model_id, cash, peak_value, updated_at)
		 VALUES ($1, $2, $2, NOW())`,
		model.ID, model.InitialCapital,
	)
	if err != nil {
		return err
	}

	return tx.Commit()
}

func (s *PostgresStorage) GetModel(id int64) (*Model, error) {
	return s.models.GetByID(id)
}

func (s *PostgresStorage) GetModels() ([]Model, error) {
	return s.models.GetAll()
}

func (s *PostgresStorage) GetActiveModels() ([]Model, error) {
	return s.models.GetActive()
}

func (s *PostgresStorage) UpdateModel(model *Model) error {
	return s.models.Update(model)
}

func (s *PostgresStorage) DeleteModel(id int64) error {
	return s.models.Delete(id)
}

func (s *PostgresStorage) SetModelEnvironment(id int64, env domain.Environment) error {
	return s.models.SetEnvironment(id, env)
}

func (s *PostgresStorage) SetModelAutomation(id int64, automation domain.Automation) error {
	return s.models.SetAutomation(id, automation)
}

func (s *PostgresStorage) SetModelExchangeEnvironment(id int64, env domain.ExchangeEnvironment) error {
	return s.models.SetExchangeEnvironment(id, env)
}

func (s *PostgresStorage) StopAllModels() ([]int64, error) {
	return s.models.StopAll()
}

// ==================== RISK SETTINGS ====================

func (s *PostgresStorage) GetRiskSettings(modelID int64) (*RiskSettings, error) {
	return s.risk.Get(modelID)
}

func (s *PostgresStorage) UpdateRiskSettings(settings *RiskSettings) error {
	return s.risk.Upsert(settings)
}

// ==================== BALANCES & POSITIONS ====================

func (s *PostgresStorage) GetModelBalance(modelID int64) (*ModelBalance, error) {
	return s.balances.Get(modelID)
}

func (s *PostgresStorage) UpdatePeakValue(modelID int64, peak float64) error {
	return s.balances.UpdatePeak(modelID, peak)
}

func (s *PostgresStorage) GetPosition(modelID int64, coin string) (*Position, error) {
	return s.positions.Get(modelID, coin)
}

func (s *PostgresStorage) GetPositions(modelID int64) ([]Position, error) {
	return s.positions.GetByModel(modelID)
}

func (s *PostgresStorage) CountOpenPositions(modelID int64) (int, error) {
	return s.positions.CountOpen(modelID)
}

// ==================== TRADES ====================

func (s *PostgresStorage) GetModelTrades(modelID int64, limit int) ([]Trade, error) {
	return s.trades.GetByModel(modelID, limit)
}

func (s *PostgresStorage) GetAllModelTrades(modelID int64) ([]Trade, error) {
	return s.trades.GetAllByModel(modelID)
}

func (s *PostgresStorage) CountTradesSince(modelID int64, since time.Time) (int, error) {
	return s.trades.CountSince(modelID, since)
}

func (s *PostgresStorage) RealizedPnLSince(modelID int64, since time.Time) (float64, error) {
	return s.trades.RealizedPnLSince(modelID, since)
}

// ApplyFill атомарно записывает сделку: вставка в журнал, обновление денег
// и позиции выполняются в одной транзакции. Возвращает созданную сделку.
func (s *PostgresStorage) ApplyFill(fill *Fill) (*Trade, error) {
	if fill.Quantity <= 0 || fill.Price <= 0 {
		return nil, fmt.Errorf("%w: fill quantity and price must be positive", domain.ErrInvalidInput)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var cash float64
	err = tx.QueryRow(
		`SELECT cash FROM model_balances WHERE model_id = $1 FOR UPDATE`,
		fill.ModelID,
	).Scan(&cash)
	if err == sql.ErrNoRows {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	var posQty, posAvg float64
	err = tx.QueryRow(
		`SELECT quantity, avg_entry_price FROM model_positions
		 WHERE model_id = $1 AND coin = $2 FOR UPDATE`,
		fill.ModelID, fill.Coin,
	).Scan(&posQty, &posAvg)
	if err != nil && err != sql.ErrNoRows {
		return nil, err
	}

	trade := &Trade{
		ModelID:  fill.ModelID,
		Coin:     fill.Coin,
		Action:   fill.Action,
		Quantity: fill.Quantity,
		Price:    fill.Price,
		Leverage: fill.Leverage,
		OrderID:  fill.OrderID,
	}

	outcome, err := domain.ComputeFill(cash, posQty, posAvg, fill)
	if err != nil {
		return nil, err
	}
	trade.RealizedPnL = outcome.RealizedPnL
	cash = outcome.Cash
	newQty, newAvg := outcome.Quantity, outcome.AvgEntryPrice

	err = tx.QueryRow(
		`INSERT INTO trades (model_id, coin, action, quantity, price, realized_pnl, leverage, order_id, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW())
		 RETURNING id, created_at`,
		trade.ModelID,
		trade.Coin,
		trade.Action,
		trade.Quantity,
		trade.Price,
		nullableFloat(trade.RealizedPnL),
		trade.Leverage,
		trade.OrderID,
	).Scan(&trade.ID, &trade.CreatedAt)
	if err != nil {
		return nil, err
	}

	// Позиция с нулевым остатком удаляется
	if newQty <= quantityEpsilon {
		_, err = tx.Exec(
			`DELETE FROM model_positions WHERE model_id = $1 AND coin = $2`,
			fill.ModelID, fill.Coin,
		)
	} else {
		_, err = tx.Exec(
			`INSERT INTO model_positions (model_id, coin, quantity, avg_entry_price, updated_at)
			 VALUES ($1, $2, $3, $4, NOW())
			 ON CONFLICT (model_id, coin) DO UPDATE SET
				quantity = EXCLUDED.quantity,
				avg_entry_price = EXCLUDED.avg_entry_price,
				updated_at = NOW()`,
			fill.ModelID, fill.Coin, newQty, newAvg,
		)
	}
	if err != nil {
		return nil, err
	}

	_, err = tx.Exec(
		`UPDATE model_balances SET cash = $2, updated_at = NOW() WHERE model_id = $1`,
		fill.ModelID, cash,
	)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	return trade, nil
}

// quantityEpsilon поглощает хвост двоичной погрешности при полном выходе из позиции
const quantityEpsilon = 1e-9

func nullableFloat(v *float64) sql.NullFloat64 {
	if v == nil || math.IsNaN(*v) {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

// ==================== PENDING DECISIONS ====================

func (s *PostgresStorage) CreatePendingDecision(decision *PendingDecision) error {
	return s.pending.Create(decision)
}

func (s *PostgresStorage) GetPendingDecision(id int64) (*PendingDecision, error) {
	return s.pending.GetByID(id)
}

func (s *PostgresStorage) ListPendingDecisions(modelID int64) ([]PendingDecision, error) {
	return s.pending.List(modelID)
}

func (s *PostgresStorage) UpdatePendingDecisionStatus(id int64, status domain.DecisionStatus, reason string) error {
	return s.pending.UpdateStatus(id, status, reason)
}

func (s *PostgresStorage) ExpirePendingBefore(cutoff time.Time) (int64, error) {
	return s.pending.ExpireBefore(cutoff)
}

// ==================== EXCHANGE CREDENTIALS ====================

func (s *PostgresStorage) UpsertCredentials(creds *ExchangeCredentials) error {
	return s.credentials.Upsert(creds)
}

func (s *PostgresStorage) GetCredentials(modelID int64) (*ExchangeCredentials, error) {
	return s.credentials.Get(modelID)
}

func (s *PostgresStorage) DeleteCredentials(modelID int64) error {
	return s.credentials.Delete(modelID)
}

func (s *PostgresStorage) TouchCredentialsValidated(modelID int64, at time.Time) error {
	return s.credentials.UpdateLastValidated(modelID, at)
}

// ==================== INCIDENTS ====================

func (s *PostgresStorage) SaveIncident(incident *Incident) error {
	return s.incidents.Save(incident)
}

func (s *PostgresStorage) GetModelIncidents(modelID int64, limit int) ([]Incident, error) {
	return s.incidents.GetByModel(modelID, limit)
}

// Close закрывает соединение с базой данных
func (s *PostgresStorage) Close() error {
	return s.db.Close()
}

// DB возвращает указатель на *sql.DB
func (s *PostgresStorage) DB() *sql.DB {
	return s.db
}
