package domain

import (
	"errors"
	"math"
	"testing"
)

func TestComputeFill_Buy(t *testing.T) {
	tests := []struct {
		name     string
		cash     float64
		posQty   float64
		posAvg   float64
		fill     Fill
		wantCash float64
		wantQty  float64
		wantAvg  float64
		wantErr  error
	}{
		{
			name:     "first buy opens position",
			cash:     10000,
			fill:     Fill{Coin: "BTC", Action: ActionBuy, Quantity: 0.1, Price: 50000},
			wantCash: 5000,
			wantQty:  0.1,
			wantAvg:  50000,
		},
		{
			name:     "second buy averages entry price",
			cash:     10000,
			posQty:   0.1,
			posAvg:   40000,
			fill:     Fill{Coin: "BTC", Action: ActionBuy, Quantity: 0.1, Price: 60000},
			wantCash: 4000,
			wantQty:  0.2,
			wantAvg:  50000,
		},
		{
			name:     "buy spends entire cash",
			cash:     5000,
			fill:     Fill{Coin: "ETH", Action: ActionBuy, Quantity: 2, Price: 2500},
			wantCash: 0,
			wantQty:  2,
			wantAvg:  2500,
		},
		{
			name:    "insufficient cash",
			cash:    100,
			fill:    Fill{Coin: "BTC", Action: ActionBuy, Quantity: 1, Price: 50000},
			wantErr: ErrInsufficientBalance,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			outcome, err := ComputeFill(tt.cash, tt.posQty, tt.posAvg, &tt.fill)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("ComputeFill() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("ComputeFill() error = %v", err)
			}
			if !closeTo(outcome.Cash, tt.wantCash) {
				t.Errorf("ComputeFill() cash = %v, want %v", outcome.Cash, tt.wantCash)
			}
			if !closeTo(outcome.Quantity, tt.wantQty) {
				t.Errorf("ComputeFill() quantity = %v, want %v", outcome.Quantity, tt.wantQty)
			}
			if !closeTo(outcome.AvgEntryPrice, tt.wantAvg) {
				t.Errorf("ComputeFill() avgEntryPrice = %v, want %v", outcome.AvgEntryPrice, tt.wantAvg)
			}
			if outcome.RealizedPnL != nil {
				t.Errorf("ComputeFill() realizedPnL = %v, want nil for buys", *outcome.RealizedPnL)
			}
		})
	}
}

func TestComputeFill_Sell(t *testing.T) {
	tests := []struct {
		name         string
		cash         float64
		posQty       float64
		posAvg       float64
		fill         Fill
		wantCash     float64
		wantQty      float64
		wantRealized float64
		wantErr      error
	}{
		{
			name:         "profitable sell",
			cash:         1000,
			posQty:       0.2,
			posAvg:       40000,
			fill:         Fill{Coin: "BTC", Action: ActionSell, Quantity: 0.1, Price: 50000},
			wantCash:     6000,
			wantQty:      0.1,
			wantRealized: 1000,
		},
		{
			name:         "losing sell",
			cash:         0,
			posQty:       1,
			posAvg:       3000,
			fill:         Fill{Coin: "ETH", Action: ActionSell, Quantity: 1, Price: 2500},
			wantCash:     2500,
			wantQty:      0,
			wantRealized: -500,
		},
		{
			name:         "full exit at entry price breaks even",
			cash:         0,
			posQty:       5,
			posAvg:       100,
			fill:         Fill{Coin: "SOL", Action: ActionSell, Quantity: 5, Price: 100},
			wantCash:     500,
			wantQty:      0,
			wantRealized: 0,
		},
		{
			name:    "sell more than held",
			cash:    0,
			posQty:  0.5,
			posAvg:  40000,
			fill:    Fill{Coin: "BTC", Action: ActionSell, Quantity: 1, Price: 50000},
			wantErr: ErrInsufficientBalance,
		},
		{
			name:    "sell with no position",
			cash:    10000,
			fill:    Fill{Coin: "BTC", Action: ActionSell, Quantity: 0.1, Price: 50000},
			wantErr: ErrInsufficientBalance,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			outcome, err := ComputeFill(tt.cash, tt.posQty, tt.posAvg, &tt.fill)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("ComputeFill() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("ComputeFill() error = %v", err)
			}
			if !closeTo(outcome.Cash, tt.wantCash) {
				t.Errorf("ComputeFill() cash = %v, want %v", outcome.Cash, tt.wantCash)
			}
			if !closeTo(outcome.Quantity, tt.wantQty) {
				t.Errorf("ComputeFill() quantity = %v, want %v", outcome.Quantity, tt.wantQty)
			}
			if outcome.RealizedPnL == nil {
				t.Fatal("ComputeFill() realizedPnL = nil, want value for sells")
			}
			if !closeTo(*outcome.RealizedPnL, tt.wantRealized) {
				t.Errorf("ComputeFill() realizedPnL = %v, want %v", *outcome.RealizedPnL, tt.wantRealized)
			}
		})
	}
}

func TestComputeFill_InvalidInput(t *testing.T) {
	tests := []struct {
		name string
		fill Fill
	}{
		{"zero quantity", Fill{Coin: "BTC", Action: ActionBuy, Quantity: 0, Price: 50000}},
		{"negative quantity", Fill{Coin: "BTC", Action: ActionBuy, Quantity: -1, Price: 50000}},
		{"zero price", Fill{Coin: "BTC", Action: ActionBuy, Quantity: 1, Price: 0}},
		{"unknown action", Fill{Coin: "BTC", Action: "short", Quantity: 1, Price: 50000}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ComputeFill(10000, 0, 0, &tt.fill)
			if !errors.Is(err, ErrInvalidInput) {
				t.Errorf("ComputeFill() error = %v, want %v", err, ErrInvalidInput)
			}
		})
	}
}

func closeTo(got, want float64) bool {
	return math.Abs(got-want) < 1e-9
}
