package portfolio

import (
	"context"
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/tackey2/aitradegame/internal/domain"
)

type fakePortfolioStore struct {
	balance   *domain.ModelBalance
	positions []domain.Position
	trades    []domain.Trade
	today     int
	realized  float64
	since     time.Time
}

func (f *fakePortfolioStore) GetModelBalance(modelID int64) (*domain.ModelBalance, error) {
	return f.balance, nil
}

func (f *fakePortfolioStore) GetPositions(modelID int64) ([]domain.Position, error) {
	return f.positions, nil
}

func (f *fakePortfolioStore) CountTradesSince(modelID int64, since time.Time) (int, error) {
	f.since = since
	return f.today, nil
}

func (f *fakePortfolioStore) RealizedPnLSince(modelID int64, since time.Time) (float64, error) {
	return f.realized, nil
}

func (f *fakePortfolioStore) GetAllModelTrades(modelID int64) ([]domain.Trade, error) {
	return f.trades, nil
}

type fakePriceSource struct {
	prices map[string]float64
}

func (f *fakePriceSource) GetCoinPrice(ctx context.Context, coin string) (float64, error) {
	price, ok := f.prices[coin]
	if !ok {
		return 0, fmt.Errorf("no price for %s", coin)
	}
	return price, nil
}

func TestSnapshot(t *testing.T) {
	store := &fakePortfolioStore{
		balance: &domain.ModelBalance{ModelID: 1, Cash: 5000, PeakValue: 12000},
		positions: []domain.Position{
			{ModelID: 1, Coin: "BTC", Quantity: 0.1, AvgEntryPrice: 40000},
			{ModelID: 1, Coin: "ETH", Quantity: 2, AvgEntryPrice: 2500},
		},
		today:    2,
		realized: -150,
	}
	prices := &fakePriceSource{prices: map[string]float64{"BTC": 50000, "ETH": 2000}}
	svc := NewService(store, prices, nil)

	model := &domain.Model{ID: 1, Name: "alpha", InitialCapital: 10000}
	snap, err := svc.Snapshot(context.Background(), model)
	if err != nil {
		t.Fatalf("Snapshot() error = %v", err)
	}

	// 5000 деньгами + 0.1*50000 + 2*2000
	if math.Abs(snap.TotalValue-14000) > 1e-9 {
		t.Errorf("TotalValue = %v, want 14000", snap.TotalValue)
	}
	// BTC +1000, ETH -1000
	if math.Abs(snap.UnrealizedPnL-0) > 1e-9 {
		t.Errorf("UnrealizedPnL = %v, want 0", snap.UnrealizedPnL)
	}
	if snap.PeakValue != 12000 {
		t.Errorf("PeakValue = %v, want 12000", snap.PeakValue)
	}
	if snap.TradesToday != 2 {
		t.Errorf("TradesToday = %d, want 2", snap.TradesToday)
	}
	if snap.RealizedToday != -150 {
		t.Errorf("RealizedToday = %v, want -150", snap.RealizedToday)
	}

	if len(snap.Positions) != 2 {
		t.Fatalf("Positions = %d, want 2", len(snap.Positions))
	}
	btc := snap.Positions[0]
	if btc.Value != 5000 {
		t.Errorf("BTC value = %v, want 5000", btc.Value)
	}
	if btc.UnrealizedPnL != 1000 {
		t.Errorf("BTC unrealized = %v, want 1000", btc.UnrealizedPnL)
	}
	if math.Abs(btc.PnLPercent-25) > 1e-9 {
		t.Errorf("BTC pnl percent = %v, want 25", btc.PnLPercent)
	}

	// дневные агрегаты считаются с начала суток UTC
	now := time.Now().UTC()
	wantSince := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	if !store.since.Equal(wantSince) {
		t.Errorf("trades counted since %v, want %v", store.since, wantSince)
	}
}

func TestSnapshotRiskState(t *testing.T) {
	store := &fakePortfolioStore{
		balance: &domain.ModelBalance{ModelID: 1, Cash: 6000, PeakValue: 10000},
		positions: []domain.Position{
			{ModelID: 1, Coin: "BTC", Quantity: 0.08, AvgEntryPrice: 45000},
		},
		today:    1,
		realized: 75,
	}
	prices := &fakePriceSource{prices: map[string]float64{"BTC": 50000}}
	svc := NewService(store, prices, nil)

	model := &domain.Model{ID: 1, InitialCapital: 10000}
	state, err := svc.RiskState(context.Background(), model)
	if err != nil {
		t.Fatalf("RiskState() error = %v", err)
	}

	if state.InitialCapital != 10000 {
		t.Errorf("InitialCapital = %v, want 10000", state.InitialCapital)
	}
	if state.Cash != 6000 {
		t.Errorf("Cash = %v, want 6000", state.Cash)
	}
	if math.Abs(state.TotalValue-10000) > 1e-9 {
		t.Errorf("TotalValue = %v, want 10000", state.TotalValue)
	}
	if state.PositionQty["BTC"] != 0.08 {
		t.Errorf("PositionQty[BTC] = %v, want 0.08", state.PositionQty["BTC"])
	}
	if math.Abs(state.PositionValues["BTC"]-4000) > 1e-9 {
		t.Errorf("PositionValues[BTC] = %v, want 4000", state.PositionValues["BTC"])
	}
	if state.RealizedToday != 75 {
		t.Errorf("RealizedToday = %v, want 75", state.RealizedToday)
	}
	if state.TradesToday != 1 {
		t.Errorf("TradesToday = %d, want 1", state.TradesToday)
	}
}

func TestSnapshotMissingPrice(t *testing.T) {
	store := &fakePortfolioStore{
		balance:   &domain.ModelBalance{ModelID: 1, Cash: 5000},
		positions: []domain.Position{{ModelID: 1, Coin: "DOGE", Quantity: 100, AvgEntryPrice: 0.1}},
	}
	svc := NewService(store, &fakePriceSource{prices: map[string]float64{}}, nil)

	if _, err := svc.Snapshot(context.Background(), &domain.Model{ID: 1}); err == nil {
		t.Fatal("Snapshot() error = nil, want price error")
	}
}
