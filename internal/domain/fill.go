package domain

import "fmt"

// Fill описывает исполненный ордер для записи в леджер модели
type Fill struct {
	ModelID  int64
	Coin     string
	Action   string // ActionBuy / ActionSell
	Quantity float64
	Price    float64
	Leverage int
	OrderID  string // пустой для симулированных сделок
}

// FillOutcome описывает состояние леджера после применения сделки
type FillOutcome struct {
	Cash          float64
	Quantity      float64 // остаток позиции по монете
	AvgEntryPrice float64
	RealizedPnL   *float64 // только для продаж
}

// ComputeFill применяет сделку к состоянию леджера. Покупка списывает деньги
// и усредняет цену входа, продажа зачисляет выручку и реализует P&L против
// средней цены входа. Продажа без достаточного остатка монеты запрещена.
func ComputeFill(cash, posQty, posAvg float64, fill *Fill) (*FillOutcome, error) {
	if fill.Quantity <= 0 || fill.Price <= 0 {
		return nil, fmt.Errorf("%w: fill quantity and price must be positive", ErrInvalidInput)
	}

	outcome := &FillOutcome{}
	switch fill.Action {
	case ActionBuy:
		cost := fill.Quantity * fill.Price
		if cash < cost {
			return nil, fmt.Errorf("%w: need %.8f, have %.8f", ErrInsufficientBalance, cost, cash)
		}
		outcome.Cash = cash - cost
		outcome.Quantity = posQty + fill.Quantity
		outcome.AvgEntryPrice = (posQty*posAvg + cost) / outcome.Quantity
	case ActionSell:
		if posQty < fill.Quantity {
			return nil, fmt.Errorf("%w: need %.8f %s, have %.8f", ErrInsufficientBalance, fill.Quantity, fill.Coin, posQty)
		}
		realized := (fill.Price - posAvg) * fill.Quantity
		outcome.Cash = cash + fill.Quantity*fill.Price
		outcome.Quantity = posQty - fill.Quantity
		outcome.AvgEntryPrice = posAvg
		outcome.RealizedPnL = &realized
	default:
		return nil, fmt.Errorf("%w: unknown fill action %q", ErrInvalidInput, fill.Action)
	}

	return outcome, nil
}
