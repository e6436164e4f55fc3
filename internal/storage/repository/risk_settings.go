package repository

import (
	"database/sql"

	"github.com/tackey2/aitradegame/internal/domain"
)

// RiskSettingsRepository реализует работу с лимитами риска модели
type RiskSettingsRepository struct {
	db *sql.DB
}

// NewRiskSettingsRepository создает новый репозиторий для лимитов риска
func NewRiskSettingsRepository(db *sql.DB) *RiskSettingsRepository {
	return &RiskSettingsRepository{db: db}
}

// Get получает лимиты риска модели
func (r *RiskSettingsRepository) Get(modelID int64) (*domain.RiskSettings, error) {
	settings := &domain.RiskSettings{}
	query := `
		SELECT model_id, max_position_size_percent, max_daily_loss_percent,
		       max_daily_trades, max_open_positions, min_cash_reserve_percent,
		       max_drawdown_percent, trading_interval_minutes, updated_at
		FROM risk_settings WHERE model_id = $1
	`
	err := r.db.QueryRow(query, modelID).Scan(
		&settings.ModelID,
		&settings.MaxPositionSizePercent,
		&settings.MaxDailyLossPercent,
		&settings.MaxDailyTrades,
		&settings.MaxOpenPositions,
		&settings.MinCashReservePercent,
		&settings.MaxDrawdownPercent,
		&settings.TradingIntervalMinutes,
		&settings.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	return settings, nil
}

// Upsert сохраняет лимиты риска модели
func (r *RiskSettingsRepository) Upsert(settings *domain.RiskSettings) error {
	query := `
		INSERT INTO risk_settings (model_id, max_position_size_percent, max_daily_loss_percent,
		                           max_daily_trades, max_open_positions, min_cash_reserve_percent,
		                           max_drawdown_percent, trading_interval_minutes, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW())
		ON CONFLICT (model_id) DO UPDATE SET
			max_position_size_percent = EXCLUDED.max_position_size_percent,
			max_daily_loss_percent = EXCLUDED.max_daily_loss_percent,
			max_daily_trades = EXCLUDED.max_daily_trades,
			max_open_positions = EXCLUDED.max_open_positions,
			min_cash_reserve_percent = EXCLUDED.min_cash_reserve_percent,
			max_drawdown_percent = EXCLUDED.max_drawdown_percent,
			trading_interval_minutes = EXCLUDED.trading_interval_minutes,
			updated_at = NOW()
	`
	_, err := r.db.Exec(
		query,
		settings.ModelID,
		settings.MaxPositionSizePercent,
		settings.MaxDailyLossPercent,
		settings.MaxDailyTrades,
		settings.MaxOpenPositions,
		settings.MinCashReservePercent,
		settings.MaxDrawdownPercent,
		settings.TradingIntervalMinutes,
	)
	return err
}
