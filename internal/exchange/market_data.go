package exchange

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/tackey2/aitradegame/pkg/utils"
)

// ErrPriceUnavailable возвращается когда цена недоступна из всех источников
var ErrPriceUnavailable = errors.New("price unavailable from all sources")

// PriceSource источник цен
type PriceSource interface {
	GetTickerPrice(ctx context.Context, symbol string) (float64, error)
}

// MarketData отдаёт рыночные цены с failover и кешем последнего значения
type MarketData struct {
	primarySource   PriceSource
	fallbackSources []PriceSource
	cacheTTL        time.Duration
	logger          *utils.Logger

	mu    sync.RWMutex
	cache map[string]cachedPrice
}

type cachedPrice struct {
	price     float64
	timestamp time.Time
}

// NewMarketData создает новый источник рыночных данных
func NewMarketData(primarySource PriceSource, logger *utils.Logger) *MarketData {
	if logger == nil {
		logger = utils.NewLogger("info")
	}
	return &MarketData{
		primarySource:   primarySource,
		fallbackSources: []PriceSource{},
		cacheTTL:        5 * time.Minute,
		logger:          logger,
		cache:           make(map[string]cachedPrice),
	}
}

// AddFallbackSource добавляет запасной источник цен
func (m *MarketData) AddFallbackSource(source PriceSource) {
	m.fallbackSources = append(m.fallbackSources, source)
}

// GetPrice получает цену символа с failover
func (m *MarketData) GetPrice(ctx context.Context, symbol string) (float64, error) {
	// Пробуем основной источник
	price, err := m.primarySource.GetTickerPrice(ctx, symbol)
	if err == nil {
		m.storeCache(symbol, price)
		return price, nil
	}

	// Основной источник недоступен, пробуем fallback
	for i, source := range m.fallbackSources {
		price, err := source.GetTickerPrice(ctx, symbol)
		if err == nil {
			m.logger.Warn("⚠️ Using fallback source #%d for %s price", i+1, symbol)
			m.storeCache(symbol, price)
			return price, nil
		}
	}

	// Все источники недоступны, используем кеш если он ещё свежий
	m.mu.RLock()
	cached, ok := m.cache[symbol]
	m.mu.RUnlock()
	if ok {
		age := time.Since(cached.timestamp)
		if age < m.cacheTTL {
			m.logger.Warn("⚠️ Using cached price for %s (age: %v)", symbol, age)
			return cached.price, nil
		}
	}

	return 0, ErrPriceUnavailable
}

// GetCoinPrice получает цену монеты против котируемого актива
func (m *MarketData) GetCoinPrice(ctx context.Context, coin string) (float64, error) {
	return m.GetPrice(ctx, ResolveSymbol(coin))
}

func (m *MarketData) storeCache(symbol string, price float64) {
	m.mu.Lock()
	m.cache[symbol] = cachedPrice{price: price, timestamp: time.Now()}
	m.mu.Unlock()
}
