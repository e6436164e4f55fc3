package portfolio

import (
	"context"
	"fmt"
	"time"

	"github.com/tackey2/aitradegame/internal/domain"
	"github.com/tackey2/aitradegame/internal/risk"
	"github.com/tackey2/aitradegame/pkg/utils"
)

// Store определяет операции хранилища для построения снимков портфеля
type Store interface {
	GetModelBalance(modelID int64) (*domain.ModelBalance, error)
	GetPositions(modelID int64) ([]domain.Position, error)
	CountTradesSince(modelID int64, since time.Time) (int, error)
	RealizedPnLSince(modelID int64, since time.Time) (float64, error)
	GetAllModelTrades(modelID int64) ([]domain.Trade, error)
}

// PriceSource источник текущих цен монет
type PriceSource interface {
	GetCoinPrice(ctx context.Context, coin string) (float64, error)
}

// Service строит снимки портфеля и агрегаты производительности модели
type Service struct {
	store  Store
	prices PriceSource
	logger *utils.Logger
}

// NewService создает сервис портфеля
func NewService(store Store, prices PriceSource, logger *utils.Logger) *Service {
	if logger == nil {
		logger = utils.NewLogger("info")
	}
	return &Service{
		store:  store,
		prices: prices,
		logger: logger,
	}
}

// PositionView позиция с оценкой по текущей цене
type PositionView struct {
	Coin          string  `json:"coin"`
	Quantity      float64 `json:"quantity"`
	AvgEntryPrice float64 `json:"avg_entry_price"`
	CurrentPrice  float64 `json:"current_price"`
	Value         float64 `json:"value"`
	UnrealizedPnL float64 `json:"unrealized_pnl"`
	PnLPercent    float64 `json:"pnl_percent"`
}

// Snapshot снимок портфеля модели на момент TakenAt
type Snapshot struct {
	ModelID        int64          `json:"model_id"`
	Cash           float64        `json:"cash"`
	Positions      []PositionView `json:"positions"`
	TotalValue     float64        `json:"total_value"`
	InitialCapital float64        `json:"initial_capital"`
	PeakValue      float64        `json:"peak_value"`
	UnrealizedPnL  float64        `json:"unrealized_pnl"`
	RealizedToday  float64        `json:"realized_today"`
	TradesToday    int            `json:"trades_today"`
	TakenAt        time.Time      `json:"taken_at"`
}

// Snapshot собирает состояние портфеля: деньги и позиции из БД,
// оценка позиций по текущим рыночным ценам, дневные агрегаты по
// журналу сделок. Дневная граница считается по UTC.
func (s *Service) Snapshot(ctx context.Context, model *domain.Model) (*Snapshot, error) {
	balance, err := s.store.GetModelBalance(model.ID)
	if err != nil {
		return nil, fmt.Errorf("get balance for model %d: %w", model.ID, err)
	}

	positions, err := s.store.GetPositions(model.ID)
	if err != nil {
		return nil, fmt.Errorf("get positions for model %d: %w", model.ID, err)
	}

	snap := &Snapshot{
		ModelID:        model.ID,
		Cash:           balance.Cash,
		InitialCapital: model.InitialCapital,
		PeakValue:      balance.PeakValue,
		TotalValue:     balance.Cash,
		TakenAt:        time.Now().UTC(),
	}

	for _, pos := range positions {
		price, err := s.prices.GetCoinPrice(ctx, pos.Coin)
		if err != nil {
			return nil, fmt.Errorf("price for %s: %w", pos.Coin, err)
		}

		view := PositionView{
			Coin:          pos.Coin,
			Quantity:      pos.Quantity,
			AvgEntryPrice: pos.AvgEntryPrice,
			CurrentPrice:  price,
			Value:         pos.Quantity * price,
			UnrealizedPnL: (price - pos.AvgEntryPrice) * pos.Quantity,
		}
		if pos.AvgEntryPrice > 0 {
			view.PnLPercent = (price - pos.AvgEntryPrice) / pos.AvgEntryPrice * 100
		}

		snap.Positions = append(snap.Positions, view)
		snap.TotalValue += view.Value
		snap.UnrealizedPnL += view.UnrealizedPnL
	}

	since := startOfDayUTC(snap.TakenAt)

	snap.TradesToday, err = s.store.CountTradesSince(model.ID, since)
	if err != nil {
		return nil, fmt.Errorf("count trades for model %d: %w", model.ID, err)
	}

	snap.RealizedToday, err = s.store.RealizedPnLSince(model.ID, since)
	if err != nil {
		return nil, fmt.Errorf("realized pnl for model %d: %w", model.ID, err)
	}

	s.logger.Debug("Снимок портфеля модели %d: всего %.2f, деньги %.2f, позиций %d",
		model.ID, snap.TotalValue, snap.Cash, len(snap.Positions))

	return snap, nil
}

// RiskState строит снимок и конвертирует его в состояние для оценки рисков
func (s *Service) RiskState(ctx context.Context, model *domain.Model) (*risk.PortfolioState, error) {
	snap, err := s.Snapshot(ctx, model)
	if err != nil {
		return nil, err
	}
	return snap.RiskState(), nil
}

// RiskState конвертирует снимок в состояние портфеля для оценки рисков
func (snap *Snapshot) RiskState() *risk.PortfolioState {
	state := &risk.PortfolioState{
		InitialCapital: snap.InitialCapital,
		Cash:           snap.Cash,
		TotalValue:     snap.TotalValue,
		PositionValues: make(map[string]float64, len(snap.Positions)),
		PositionQty:    make(map[string]float64, len(snap.Positions)),
		RealizedToday:  snap.RealizedToday,
		UnrealizedPnL:  snap.UnrealizedPnL,
		TradesToday:    snap.TradesToday,
	}
	for _, pos := range snap.Positions {
		state.PositionValues[pos.Coin] = pos.Value
		state.PositionQty[pos.Coin] = pos.Quantity
	}
	return state
}

// startOfDayUTC возвращает начало суток по UTC
func startOfDayUTC(now time.Time) time.Time {
	now = now.UTC()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}
