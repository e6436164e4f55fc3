package exchange

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/tackey2/aitradegame/internal/domain"
)

// ResolveSymbol преобразует монету в торговый символ ("BTC" -> "BTCUSDT").
// Уже полный символ возвращается как есть.
func ResolveSymbol(coin string) string {
	symbol := strings.ToUpper(strings.TrimSpace(coin))
	symbol = strings.ReplaceAll(symbol, "-", "")
	symbol = strings.ReplaceAll(symbol, "_", "")
	symbol = strings.ReplaceAll(symbol, "/", "")
	if strings.HasSuffix(symbol, domain.QuoteAsset) {
		return symbol
	}
	return symbol + domain.QuoteAsset
}

// TruncateToStep обрезает значение вниз до кратного шагу.
// Округление всегда к нулю: биржа отклоняет количество выше запрошенного.
func TruncateToStep(value, step float64) float64 {
	if step <= 0 || value <= 0 {
		return value
	}
	v := decimal.NewFromFloat(value)
	s := decimal.NewFromFloat(step)
	result, _ := v.Div(s).Floor().Mul(s).Float64()
	return result
}

// NormalizeOrder приводит количество и цену к ограничениям символа.
// Возвращает ErrOrderTooSmall если после обрезки ордер ниже минимумов биржи.
func NormalizeOrder(info *SymbolInfo, quantity, price float64) (float64, float64, error) {
	qty := TruncateToStep(quantity, info.StepSize)
	px := TruncateToStep(price, info.TickSize)

	if qty <= 0 || (info.MinQty > 0 && qty < info.MinQty) {
		return 0, 0, fmt.Errorf("%w: quantity %.8f is below min quantity %.8f for %s",
			domain.ErrOrderTooSmall, qty, info.MinQty, info.Symbol)
	}
	if info.MaxQty > 0 && qty > info.MaxQty {
		return 0, 0, fmt.Errorf("%w: quantity %.8f exceeds max quantity %.8f for %s",
			domain.ErrInvalidInput, qty, info.MaxQty, info.Symbol)
	}
	if info.MinNotional > 0 && px > 0 && qty*px < info.MinNotional {
		return 0, 0, fmt.Errorf("%w: notional %.8f is below min notional %.8f for %s",
			domain.ErrOrderTooSmall, qty*px, info.MinNotional, info.Symbol)
	}

	return qty, px, nil
}
