package domain

import (
	"math"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func TestFillRoundTripProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	parameters.Rng.Seed(time.Now().UnixNano())

	properties := gopter.NewProperties(parameters)

	properties.Property("покупка и продажа той же позиции по той же цене не создают P&L", prop.ForAll(
		func(qty, price float64) bool {
			cash := qty * price * 2

			bought, err := ComputeFill(cash, 0, 0, &Fill{
				Coin: "BTC", Action: ActionBuy, Quantity: qty, Price: price,
			})
			if err != nil {
				return false
			}

			sold, err := ComputeFill(bought.Cash, bought.Quantity, bought.AvgEntryPrice, &Fill{
				Coin: "BTC", Action: ActionSell, Quantity: qty, Price: price,
			})
			if err != nil {
				return false
			}

			if sold.RealizedPnL == nil || *sold.RealizedPnL != 0 {
				return false
			}
			if sold.Quantity != 0 {
				return false
			}
			return math.Abs(sold.Cash-cash) < cash*1e-12
		},
		gen.Float64Range(0.0001, 100),
		gen.Float64Range(0.01, 100000),
	))

	properties.Property("средняя цена входа после двух покупок лежит между ценами", prop.ForAll(
		func(qty1, qty2, price1, price2 float64) bool {
			cash := (qty1*price1 + qty2*price2) * 2

			first, err := ComputeFill(cash, 0, 0, &Fill{
				Coin: "ETH", Action: ActionBuy, Quantity: qty1, Price: price1,
			})
			if err != nil {
				return false
			}

			second, err := ComputeFill(first.Cash, first.Quantity, first.AvgEntryPrice, &Fill{
				Coin: "ETH", Action: ActionBuy, Quantity: qty2, Price: price2,
			})
			if err != nil {
				return false
			}

			lo := math.Min(price1, price2)
			hi := math.Max(price1, price2)
			eps := hi * 1e-9
			return second.AvgEntryPrice >= lo-eps && second.AvgEntryPrice <= hi+eps
		},
		gen.Float64Range(0.0001, 100),
		gen.Float64Range(0.0001, 100),
		gen.Float64Range(0.01, 100000),
		gen.Float64Range(0.01, 100000),
	))

	properties.Property("продажа реализует P&L пропорционально разнице цен", prop.ForAll(
		func(qty, entry, exit float64) bool {
			outcome, err := ComputeFill(0, qty, entry, &Fill{
				Coin: "SOL", Action: ActionSell, Quantity: qty, Price: exit,
			})
			if err != nil {
				return false
			}
			if outcome.RealizedPnL == nil {
				return false
			}
			want := (exit - entry) * qty
			return math.Abs(*outcome.RealizedPnL-want) < 1e-9*math.Max(1, math.Abs(want))
		},
		gen.Float64Range(0.0001, 100),
		gen.Float64Range(0.01, 100000),
		gen.Float64Range(0.01, 100000),
	))

	properties.TestingRun(t)
}
