package domain

// Trade actions
const (
	ActionBuy  = "buy"
	ActionSell = "sell"
)

// Order sides (Binance API)
const (
	SideBuy  = "BUY"
	SideSell = "SELL"
)

// Order types
const (
	OrderTypeMarket = "MARKET"
	OrderTypeLimit  = "LIMIT"
)

// Binance constants
const (
	BinanceRecvWindow = "5000"
	QuoteAsset        = "USDT"
	ExchangeBinance   = "binance"
)

// Default risk settings for a new model
const (
	DefaultMaxPositionSizePercent = 20.0
	DefaultMaxDailyLossPercent    = 5.0
	DefaultMaxDailyTrades         = 10
	DefaultMaxOpenPositions       = 5
	DefaultMinCashReservePercent  = 10.0
	DefaultMaxDrawdownPercent     = 20.0
	DefaultTradingIntervalMinutes = 60
)
