package repository

import (
	"database/sql"
	"time"

	"github.com/tackey2/aitradegame/internal/domain"
)

// TradeRepository реализует чтение журнала сделок.
// Вставка сделок идёт только через транзакцию исполнения в storage.
type TradeRepository struct {
	db *sql.DB
}

// NewTradeRepository создает новый репозиторий для журнала сделок
func NewTradeRepository(db *sql.DB) *TradeRepository {
	return &TradeRepository{db: db}
}

// GetByModel получает последние N сделок модели
func (r *TradeRepository) GetByModel(modelID int64, limit int) ([]domain.Trade, error) {
	query := `
		SELECT id, model_id, coin, action, quantity, price, realized_pnl,
		       leverage, COALESCE(order_id, ''), created_at
		FROM trades
		WHERE model_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2
	`
	return r.queryTrades(query, modelID, limit)
}

// GetAllByModel получает всю историю сделок модели в хронологическом порядке
func (r *TradeRepository) GetAllByModel(modelID int64) ([]domain.Trade, error) {
	query := `
		SELECT id, model_id, coin, action, quantity, price, realized_pnl,
		       leverage, COALESCE(order_id, ''), created_at
		FROM trades
		WHERE model_id = $1
		ORDER BY created_at, id
	`
	return r.queryTrades(query, modelID)
}

// CountSince считает сделки модели начиная с указанного момента
func (r *TradeRepository) CountSince(modelID int64, since time.Time) (int, error) {
	var count int
	err := r.db.QueryRow(
		`SELECT COUNT(*) FROM trades WHERE model_id = $1 AND created_at >= $2`,
		modelID, since,
	).Scan(&count)
	return count, err
}

// RealizedPnLSince суммирует реализованный P&L модели начиная с указанного момента
func (r *TradeRepository) RealizedPnLSince(modelID int64, since time.Time) (float64, error) {
	var pnl float64
	err := r.db.QueryRow(
		`SELECT COALESCE(SUM(realized_pnl), 0) FROM trades
		 WHERE model_id = $1 AND created_at >= $2 AND realized_pnl IS NOT NULL`,
		modelID, since,
	).Scan(&pnl)
	return pnl, err
}

// queryTrades выполняет запрос и возвращает список сделок
func (r *TradeRepository) queryTrades(query string, args ...interface{}) ([]domain.Trade, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var trades []domain.Trade
	for rows.Next() {
		var trade domain.Trade
		var realized sql.NullFloat64
		err := rows.Scan(
			&trade.ID,
			&trade.ModelID,
			&trade.Coin,
			&trade.Action,
			&trade.Quantity,
			&trade.Price,
			&realized,
			&trade.Leverage,
			&trade.OrderID,
			&trade.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		if realized.Valid {
			v := realized.Float64
			trade.RealizedPnL = &v
		}
		trades = append(trades, trade)
	}

	return trades, rows.Err()
}
