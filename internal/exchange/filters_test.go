package exchange

import (
	"errors"
	"math"
	"testing"

	"github.com/tackey2/aitradegame/internal/domain"
)

func TestResolveSymbol(t *testing.T) {
	tests := []struct {
		name string
		coin string
		want string
	}{
		{"bare coin", "BTC", "BTCUSDT"},
		{"lowercase coin", "btc", "BTCUSDT"},
		{"full symbol kept", "BTCUSDT", "BTCUSDT"},
		{"dashed pair", "BTC-USDT", "BTCUSDT"},
		{"underscored pair", "eth_usdt", "ETHUSDT"},
		{"slashed pair", "sol/usdt", "SOLUSDT"},
		{"padded input", "  bnb ", "BNBUSDT"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ResolveSymbol(tt.coin); got != tt.want {
				t.Errorf("ResolveSymbol(%q) = %q, want %q", tt.coin, got, tt.want)
			}
		})
	}
}

func TestTruncateToStep(t *testing.T) {
	tests := []struct {
		name  string
		value float64
		step  float64
		want  float64
	}{
		{"already on step", 0.5, 0.1, 0.5},
		{"truncates down", 0.123456, 0.001, 0.123},
		{"tiny step", 1.23456789, 0.00000001, 1.23456789},
		{"coarse step", 17.9, 5, 15},
		{"below one step", 0.0004, 0.001, 0},
		{"zero step returns value", 0.123, 0, 0.123},
		{"zero value", 0, 0.001, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := TruncateToStep(tt.value, tt.step)
			if math.Abs(got-tt.want) > 1e-12 {
				t.Errorf("TruncateToStep(%v, %v) = %v, want %v", tt.value, tt.step, got, tt.want)
			}
		})
	}
}

func TestNormalizeOrder(t *testing.T) {
	info := &SymbolInfo{
		Symbol:      "BTCUSDT",
		MinQty:      0.0001,
		MaxQty:      100,
		StepSize:    0.0001,
		TickSize:    0.01,
		MinNotional: 10,
	}

	tests := []struct {
		name     string
		quantity float64
		price    float64
		wantQty  float64
		wantPx   float64
		wantErr  error
	}{
		{
			name:     "valid order truncated to filters",
			quantity: 0.12345678,
			price:    50000.123,
			wantQty:  0.1234,
			wantPx:   50000.12,
		},
		{
			name:     "below min quantity",
			quantity: 0.00005,
			price:    50000,
			wantErr:  domain.ErrOrderTooSmall,
		},
		{
			name:     "below min notional",
			quantity: 0.0001,
			price:    50000,
			wantErr:  domain.ErrOrderTooSmall,
		},
		{
			name:     "above max quantity",
			quantity: 150,
			price:    50000,
			wantErr:  domain.ErrInvalidInput,
		},
		{
			name:     "notional just above minimum",
			quantity: 0.0003,
			price:    50000,
			wantQty:  0.0003,
			wantPx:   50000,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			qty, px, err := NormalizeOrder(info, tt.quantity, tt.price)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("NormalizeOrder() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("NormalizeOrder() error = %v", err)
			}
			if math.Abs(qty-tt.wantQty) > 1e-12 {
				t.Errorf("NormalizeOrder() qty = %v, want %v", qty, tt.wantQty)
			}
			if math.Abs(px-tt.wantPx) > 1e-12 {
				t.Errorf("NormalizeOrder() price = %v, want %v", px, tt.wantPx)
			}
		})
	}
}
