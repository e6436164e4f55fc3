package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/tackey2/aitradegame/internal/domain"
	"github.com/tackey2/aitradegame/internal/metrics"
)

// DecisionClient клиент для получения торговых решений от AI
type DecisionClient struct {
	baseClient *Client
}

// NewDecisionClient создает новый decision client
func NewDecisionClient(baseClient *Client) *DecisionClient {
	return &DecisionClient{
		baseClient: baseClient,
	}
}

// DecisionRequest контекст для принятия торгового решения
type DecisionRequest struct {
	Environment string           `json:"environment"` // simulation | live
	Portfolio   PortfolioContext `json:"portfolio"`
	Market      []CoinPrice      `json:"market"`
	RiskLimits  RiskLimits       `json:"risk_limits"`
}

// PortfolioContext снимок портфеля для AI
type PortfolioContext struct {
	Cash           float64           `json:"cash"`
	TotalValue     float64           `json:"total_value"`
	InitialCapital float64           `json:"initial_capital"`
	UnrealizedPnL  float64           `json:"unrealized_pnl"`
	RealizedToday  float64           `json:"realized_today"`
	TradesToday    int               `json:"trades_today"`
	Positions      []PositionContext `json:"positions"`
}

// PositionContext открытая позиция для AI
type PositionContext struct {
	Coin          string  `json:"coin"`
	Quantity      float64 `json:"quantity"`
	AvgEntryPrice float64 `json:"avg_entry_price"`
	CurrentPrice  float64 `json:"current_price"`
	UnrealizedPnL float64 `json:"unrealized_pnl"`
}

// CoinPrice текущая цена монеты
type CoinPrice struct {
	Coin  string  `json:"coin"`
	Price float64 `json:"price"`
}

// RiskLimits лимиты риска модели для AI
type RiskLimits struct {
	MaxPositionSizePercent float64 `json:"max_position_size_percent"`
	MaxDailyLossPercent    float64 `json:"max_daily_loss_percent"`
	MaxDailyTrades         int     `json:"max_daily_trades"`
	MaxOpenPositions       int     `json:"max_open_positions"`
	MinCashReservePercent  float64 `json:"min_cash_reserve_percent"`
}

// Decision торговое решение AI по одной монете
type Decision struct {
	Signal        domain.Signal `json:"signal"`
	Coin          string        `json:"coin"`
	Quantity      float64       `json:"quantity"`
	Leverage      int           `json:"leverage"`
	Confidence    float64       `json:"confidence"`
	Justification string        `json:"justification"`
}

// RequestDecision запрашивает торговое решение у AI
func (dc *DecisionClient) RequestDecision(ctx context.Context, req DecisionRequest) (*Decision, error) {
	started := time.Now()
	defer func() {
		metrics.AIRequestDuration.Observe(time.Since(started).Seconds())
	}()

	prompt := buildDecisionPrompt(req)

	messages := []Message{
		{Role: "system", Content: DecisionSystemPrompt()},
		{Role: "user", Content: prompt},
	}

	response, err := dc.baseClient.Chat(ctx, messages)
	if err != nil {
		return nil, fmt.Errorf("AI request failed: %w", err)
	}

	// Парсим JSON ответ; модели любят заворачивать его в markdown
	var decision Decision
	if err := json.Unmarshal([]byte(response), &decision); err != nil {
		cleanJSON := extractJSON(response)
		if err := json.Unmarshal([]byte(cleanJSON), &decision); err != nil {
			return nil, fmt.Errorf("failed to parse AI response: %w\nRaw response: %s", err, response)
		}
	}

	if err := validateDecision(&decision); err != nil {
		return nil, fmt.Errorf("invalid decision: %w", err)
	}

	return &decision, nil
}

// validateDecision проверяет корректность решения AI
func validateDecision(decision *Decision) error {
	if !decision.Signal.Valid() {
		return fmt.Errorf("invalid signal: %q", decision.Signal)
	}

	if decision.Confidence < 0.0 || decision.Confidence > 1.0 {
		return fmt.Errorf("confidence must be between 0.0 and 1.0, got: %.2f", decision.Confidence)
	}

	if decision.Leverage == 0 {
		decision.Leverage = 1
	}
	if decision.Leverage < 1 {
		return fmt.Errorf("leverage must be at least 1, got: %d", decision.Leverage)
	}

	if decision.Signal == domain.SignalHold {
		return nil
	}

	if decision.Coin == "" {
		return fmt.Errorf("coin is required for signal %s", decision.Signal)
	}
	if decision.Quantity <= 0 {
		return fmt.Errorf("quantity must be positive for signal %s, got: %.8f", decision.Signal, decision.Quantity)
	}

	return nil
}

// extractJSON извлекает JSON из markdown code block
func extractJSON(text string) string {
	// Простой парсер для ```json...```
	start := -1
	end := -1

	for i := 0; i < len(text)-2; i++ {
		if text[i:i+3] == "```" {
			if start == -1 {
				start = i + 3
				// Пропускаем "json" если есть
				if i+7 < len(text) && text[i+3:i+7] == "json" {
					start = i + 7
				}
				// Пропускаем перенос строки
				if start < len(text) && text[start] == '\n' {
					start++
				}
			} else {
				end = i
				break
			}
		}
	}

	if start > 0 && end > start {
		return text[start:end]
	}

	return text
}

// ProviderSource источник настроек AI-провайдеров
type ProviderSource interface {
	GetProvider(id int64) (*domain.AIProvider, error)
}

// DecisionService строит клиента под провайдера модели и запрашивает решение.
// Провайдер читается из БД на каждый запрос, так что смена ключа или URL
// подхватывается без перезапуска.
type DecisionService struct {
	providers ProviderSource
}

// NewDecisionService создает сервис торговых решений
func NewDecisionService(providers ProviderSource) *DecisionService {
	return &DecisionService{providers: providers}
}

// RequestDecision запрашивает решение у провайдера, закрепленного за моделью
func (s *DecisionService) RequestDecision(ctx context.Context, model *domain.Model, req DecisionRequest) (*Decision, error) {
	provider, err := s.providers.GetProvider(model.ProviderID)
	if err != nil {
		return nil, fmt.Errorf("provider %d for model %d: %w", model.ProviderID, model.ID, err)
	}

	client := NewClient(provider.BaseURL, provider.APIKey, model.AIModel)
	return NewDecisionClient(client).RequestDecision(ctx, req)
}
