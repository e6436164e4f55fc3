package exchange

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/tackey2/aitradegame/internal/domain"
)

// Базовые URL контуров Binance
const (
	MainnetBaseURL = "https://api.binance.com"
	TestnetBaseURL = "https://testnet.binance.vision"
)

// BinanceClient реализует REST-клиент Binance Spot API
type BinanceClient struct {
	apiKey     string
	apiSecret  string
	baseURL    string
	client     *http.Client
	limiter    *rate.Limiter
	recvWindow string
}

type tickerPriceResponse struct {
	Symbol string `json:"symbol"`
	Price  string `json:"price"`
}

type apiErrorResponse struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
}

type orderResponse struct {
	Symbol              string `json:"symbol"`
	OrderID             int64  `json:"orderId"`
	ClientOrderID       string `json:"clientOrderId"`
	TransactTime        int64  `json:"transactTime"`
	Price               string `json:"price"`
	OrigQty             string `json:"origQty"`
	ExecutedQty         string `json:"executedQty"`
	CummulativeQuoteQty string `json:"cummulativeQuoteQty"`
	Status              string `json:"status"`
}

type accountResponse struct {
	CanTrade bool `json:"canTrade"`
	Balances []struct {
		Asset  string `json:"asset"`
		Free   string `json:"free"`
		Locked string `json:"locked"`
	} `json:"balances"`
}

type exchangeInfoResponse struct {
	Symbols []struct {
		Symbol     string `json:"symbol"`
		Status     string `json:"status"`
		BaseAsset  string `json:"baseAsset"`
		QuoteAsset string `json:"quoteAsset"`
		Filters    []struct {
			FilterType  string `json:"filterType"`
			MinQty      string `json:"minQty"`
			MaxQty      string `json:"maxQty"`
			StepSize    string `json:"stepSize"`
			MinPrice    string `json:"minPrice"`
			TickSize    string `json:"tickSize"`
			MinNotional string `json:"minNotional"`
		} `json:"filters"`
	} `json:"symbols"`
}

// OrderInfo описывает результат размещения ордера
type OrderInfo struct {
	OrderID   string
	Symbol    string
	Side      string
	Price     float64
	Quantity  float64
	Status    string
	CreatedAt time.Time
}

// SymbolInfo описывает торговые ограничения символа
type SymbolInfo struct {
	Symbol      string
	Status      string
	BaseAsset   string
	QuoteAsset  string
	MinQty      float64
	MaxQty      float64
	StepSize    float64
	TickSize    float64
	MinNotional float64
}

// AssetBalance описывает остаток актива на бирже
type AssetBalance struct {
	Asset  string
	Free   float64
	Locked float64
}

// AccountInfo описывает состояние аккаунта на бирже
type AccountInfo struct {
	CanTrade bool
	Balances []AssetBalance
}

func NewBinanceClient(apiKey, apiSecret, baseURL string) *BinanceClient {
	return &BinanceClient{
		apiKey:    apiKey,
		apiSecret: apiSecret,
		baseURL:   baseURL,
		client:    &http.Client{Timeout: 30 * time.Second},
		// Spot API: 1200 weight в минуту, держимся сильно ниже
		limiter:    rate.NewLimiter(rate.Limit(10), 20),
		recvWindow: domain.BinanceRecvWindow,
	}
}

// BaseURL возвращает базовый URL клиента
func (b *BinanceClient) BaseURL() string {
	return b.baseURL
}

// Ping проверяет доступность API
func (b *BinanceClient) Ping(ctx context.Context) error {
	_, err := b.doPublic(ctx, "/api/v3/ping", url.Values{})
	return err
}

// GetTickerPrice получает текущую цену символа
func (b *BinanceClient) GetTickerPrice(ctx context.Context, symbol string) (float64, error) {
	params := url.Values{}
	params.Set("symbol", symbol)

	body, err := b.doPublic(ctx, "/api/v3/ticker/price", params)
	if err != nil {
		return 0, err
	}

	var tickerResp tickerPriceResponse
	if err := json.Unmarshal(body, &tickerResp); err != nil {
		return 0, fmt.Errorf("failed to unmarshal response: %w", err)
	}

	if tickerResp.Price == "" {
		return 0, fmt.Errorf("empty price data for symbol %s", symbol)
	}

	price, err := strconv.ParseFloat(tickerResp.Price, 64)
	if err != nil {
		return 0, fmt.Errorf("failed to parse price for %s: %w", symbol, err)
	}

	return price, nil
}

// GetSymbolInfo получает торговые ограничения символа
func (b *BinanceClient) GetSymbolInfo(ctx context.Context, symbol string) (*SymbolInfo, error) {
	params := url.Values{}
	params.Set("symbol", symbol)

	body, err := b.doPublic(ctx, "/api/v3/exchangeInfo", params)
	if err != nil {
		return nil, err
	}

	var infoResp exchangeInfoResponse
	if err := json.Unmarshal(body, &infoResp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}

	if len(infoResp.Symbols) == 0 {
		return nil, fmt.Errorf("%w: unknown symbol %s", domain.ErrExchangeAPI, symbol)
	}

	raw := infoResp.Symbols[0]
	info := &SymbolInfo{
		Symbol:     raw.Symbol,
		Status:     raw.Status,
		BaseAsset:  raw.BaseAsset,
		QuoteAsset: raw.QuoteAsset,
	}

	for _, filter := range raw.Filters {
		switch filter.FilterType {
		case "LOT_SIZE":
			info.MinQty = parseFloatOrZero(filter.MinQty)
			info.MaxQty = parseFloatOrZero(filter.MaxQty)
			info.StepSize = parseFloatOrZero(filter.StepSize)
		case "PRICE_FILTER":
			info.TickSize = parseFloatOrZero(filter.TickSize)
		case "NOTIONAL", "MIN_NOTIONAL":
			info.MinNotional = parseFloatOrZero(filter.MinNotional)
		}
	}

	return info, nil
}

// GetAccountInfo получает состояние аккаунта (подписанный запрос)
func (b *BinanceClient) GetAccountInfo(ctx context.Context) (*AccountInfo, error) {
	body, err := b.doSigned(ctx, http.MethodGet, "/api/v3/account", url.Values{})
	if err != nil {
		return nil, err
	}

	var accountResp accountResponse
	if err := json.Unmarshal(body, &accountResp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}

	account := &AccountInfo{CanTrade: accountResp.CanTrade}
	for _, raw := range accountResp.Balances {
		free := parseFloatOrZero(raw.Free)
		locked := parseFloatOrZero(raw.Locked)
		if free == 0 && locked == 0 {
			continue
		}
		account.Balances = append(account.Balances, AssetBalance{
			Asset:  raw.Asset,
			Free:   free,
			Locked: locked,
		})
	}

	return account, nil
}

// GetBalance получает свободный остаток актива
func (b *BinanceClient) GetBalance(ctx context.Context, asset string) (float64, error) {
	account, err := b.GetAccountInfo(ctx)
	if err != nil {
		return 0, err
	}

	for _, balance := range account.Balances {
		if balance.Asset == asset {
			return balance.Free, nil
		}
	}

	return 0, nil
}

// PlaceMarketOrder размещает рыночный ордер.
// test=true отправляет ордер на эндпоинт проверки без исполнения.
func (b *BinanceClient) PlaceMarketOrder(ctx context.Context, symbol, side string, quantity float64, test bool) (*OrderInfo, error) {
	params := url.Values{}
	params.Set("symbol", symbol)
	params.Set("side", side)
	params.Set("type", domain.OrderTypeMarket)
	params.Set("quantity", formatQuantity(quantity))

	endpoint := "/api/v3/order"
	if test {
		endpoint = "/api/v3/order/test"
	}

	body, err := b.doSigned(ctx, http.MethodPost, endpoint, params)
	if err != nil {
		return nil, err
	}

	if test {
		return &OrderInfo{
			Symbol:    symbol,
			Side:      side,
			Quantity:  quantity,
			Status:    "TEST",
			CreatedAt: time.Now(),
		}, nil
	}

	return parseOrderResponse(body, symbol, side, quantity)
}

// PlaceLimitOrder размещает лимитный ордер GTC
func (b *BinanceClient) PlaceLimitOrder(ctx context.Context, symbol, side string, quantity, price float64, test bool) (*OrderInfo, error) {
	params := url.Values{}
	params.Set("symbol", symbol)
	params.Set("side", side)
	params.Set("type", domain.OrderTypeLimit)
	params.Set("timeInForce", "GTC")
	params.Set("quantity", formatQuantity(quantity))
	params.Set("price", formatQuantity(price))

	endpoint := "/api/v3/order"
	if test {
		endpoint = "/api/v3/order/test"
	}

	body, err := b.doSigned(ctx, http.MethodPost, endpoint, params)
	if err != nil {
		return nil, err
	}

	if test {
		return &OrderInfo{
			Symbol:    symbol,
			Side:      side,
			Price:     price,
			Quantity:  quantity,
			Status:    "TEST",
			CreatedAt: time.Now(),
		}, nil
	}

	return parseOrderResponse(body, symbol, side, quantity)
}

// CancelOrder отменяет ордер по идентификатору
func (b *BinanceClient) CancelOrder(ctx context.Context, symbol, orderID string) error {
	params := url.Values{}
	params.Set("symbol", symbol)
	params.Set("orderId", orderID)

	_, err := b.doSigned(ctx, http.MethodDelete, "/api/v3/order", params)
	return err
}

// doPublic выполняет публичный запрос без подписи
func (b *BinanceClient) doPublic(ctx context.Context, endpoint string, params url.Values) ([]byte, error) {
	reqURL := fmt.Sprintf("%s%s", b.baseURL, endpoint)
	if encoded := params.Encode(); encoded != "" {
		reqURL = fmt.Sprintf("%s?%s", reqURL, encoded)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	return b.do(req)
}

// doSigned выполняет подписанный запрос.
// Подпись HMAC-SHA256 считается от строки параметров и добавляется в конец.
func (b *BinanceClient) doSigned(ctx context.Context, method, endpoint string, params url.Values) ([]byte, error) {
	params.Set("timestamp", strconv.FormatInt(time.Now().UnixMilli(), 10))
	params.Set("recvWindow", b.recvWindow)

	payload := params.Encode()
	signed := payload + "&signature=" + b.generateSignature(payload)

	var req *http.Request
	var err error
	if method == http.MethodGet || method == http.MethodDelete {
		reqURL := fmt.Sprintf("%s%s?%s", b.baseURL, endpoint, signed)
		req, err = http.NewRequestWithContext(ctx, method, reqURL, nil)
	} else {
		reqURL := fmt.Sprintf("%s%s", b.baseURL, endpoint)
		req, err = http.NewRequestWithContext(ctx, method, reqURL, strings.NewReader(signed))
		if req != nil {
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("X-MBX-APIKEY", b.apiKey)

	return b.do(req)
}

func (b *BinanceClient) do(req *http.Request) ([]byte, error) {
	if err := b.limiter.Wait(req.Context()); err != nil {
		return nil, err
	}

	resp, err := b.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var apiErr apiErrorResponse
		if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Msg != "" {
			return nil, fmt.Errorf("%w: %s (code %d)", domain.ErrExchangeAPI, apiErr.Msg, apiErr.Code)
		}
		return nil, fmt.Errorf("%w: HTTP %d: %s", domain.ErrExchangeAPI, resp.StatusCode, string(body))
	}

	return body, nil
}

// generateSignature генерирует подпись для подписанных запросов
func (b *BinanceClient) generateSignature(payload string) string {
	h := hmac.New(sha256.New, []byte(b.apiSecret))
	h.Write([]byte(payload))
	return hex.EncodeToString(h.Sum(nil))
}

func parseOrderResponse(body []byte, symbol, side string, quantity float64) (*OrderInfo, error) {
	var orderResp orderResponse
	if err := json.Unmarshal(body, &orderResp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}

	info := &OrderInfo{
		OrderID:   strconv.FormatInt(orderResp.OrderID, 10),
		Symbol:    symbol,
		Side:      side,
		Quantity:  quantity,
		Status:    orderResp.Status,
		CreatedAt: time.Now(),
	}

	executed := parseFloatOrZero(orderResp.ExecutedQty)
	quote := parseFloatOrZero(orderResp.CummulativeQuoteQty)
	if executed > 0 {
		info.Quantity = executed
		if quote > 0 {
			info.Price = quote / executed
		}
	}
	if info.Price == 0 {
		info.Price = parseFloatOrZero(orderResp.Price)
	}

	return info, nil
}

func parseFloatOrZero(s string) float64 {
	if s == "" {
		return 0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}

func formatQuantity(q float64) string {
	return strconv.FormatFloat(q, 'f', -1, 64)
}
