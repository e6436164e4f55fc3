package repository

import (
	"database/sql"

	"github.com/tackey2/aitradegame/internal/domain"
)

// BalanceRepository реализует работу с денежными остатками моделей
type BalanceRepository struct {
	db *sql.DB
}

// NewBalanceRepository создает новый репозиторий для балансов
func NewBalanceRepository(db *sql.DB) *BalanceRepository {
	return &BalanceRepository{db: db}
}

// Get получает баланс модели
func (r *BalanceRepository) Get(modelID int64) (*domain.ModelBalance, error) {
	balance := &domain.ModelBalance{}
	query := `
		SELECT model_id, cash, peak_value, updated_at
		FROM model_balances WHERE model_id = $1
	`
	err := r.db.QueryRow(query, modelID).Scan(
		&balance.ModelID,
		&balance.Cash,
		&balance.PeakValue,
		&balance.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	return balance, nil
}

// UpdatePeak поднимает пик стоимости портфеля, если новое значение выше
func (r *BalanceRepository) UpdatePeak(modelID int64, peak float64) error {
	query := `
		UPDATE model_balances
		SET peak_value = GREATEST(peak_value, $2), updated_at = NOW()
		WHERE model_id = $1
	`
	_, err := r.db.Exec(query, modelID, peak)
	return err
}
