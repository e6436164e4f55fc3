package repository

import (
	"database/sql"

	"github.com/tackey2/aitradegame/internal/domain"
)

// PositionRepository реализует работу с открытыми позициями моделей
type PositionRepository struct {
	db *sql.DB
}

// NewPositionRepository создает новый репозиторий для позиций
func NewPositionRepository(db *sql.DB) *PositionRepository {
	return &PositionRepository{db: db}
}

// Get получает позицию модели по монете; nil без ошибки если позиции нет
func (r *PositionRepository) Get(modelID int64, coin string) (*domain.Position, error) {
	position := &domain.Position{}
	query := `
		SELECT id, model_id, coin, quantity, avg_entry_price, updated_at
		FROM model_positions WHERE model_id = $1 AND coin = $2
	`
	err := r.db.QueryRow(query, modelID, coin).Scan(
		&position.ID,
		&position.ModelID,
		&position.Coin,
		&position.Quantity,
		&position.AvgEntryPrice,
		&position.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return position, nil
}

// GetByModel получает все открытые позиции модели
func (r *PositionRepository) GetByModel(modelID int64) ([]domain.Position, error) {
	query := `
		SELECT id, model_id, coin, quantity, avg_entry_price, updated_at
		FROM model_positions
		WHERE model_id = $1 AND quantity > 0
		ORDER BY coin
	`
	rows, err := r.db.Query(query, modelID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var positions []domain.Position
	for rows.Next() {
		var position domain.Position
		err := rows.Scan(
			&position.ID,
			&position.ModelID,
			&position.Coin,
			&position.Quantity,
			&position.AvgEntryPrice,
			&position.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		positions = append(positions, position)
	}

	return positions, rows.Err()
}

// CountOpen считает открытые позиции модели
func (r *PositionRepository) CountOpen(modelID int64) (int, error) {
	var count int
	err := r.db.QueryRow(
		`SELECT COUNT(*) FROM model_positions WHERE model_id = $1 AND quantity > 0`,
		modelID,
	).Scan(&count)
	return count, err
}
