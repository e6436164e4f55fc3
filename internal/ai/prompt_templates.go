package ai

import (
	"encoding/json"
	"fmt"
	"time"
)

// DecisionSystemPrompt возвращает системный промпт для торговых решений
func DecisionSystemPrompt() string {
	return `You are a disciplined crypto trading advisor managing a single spot portfolio.

# Your Role
On every cycle you receive the portfolio state, current market prices and the
risk limits configured for this portfolio. You respond with exactly one trading
signal for one coin, or hold.

# Available Signals

1. **buy_to_enter** - Open or increase a position
   - Use when you expect the price to rise
   - Quantity is in coin units, not USDT

2. **buy_to_exit** - Buy back (reserved for closing short exposure)

3. **sell_to_enter** - Sell held coins expecting a decline
   - Only possible for coins already in the portfolio

4. **sell_to_exit** - Close or reduce an existing position
   - Use to take profit or cut losses

5. **hold** - Do nothing this cycle
   - Always the right choice when conviction is low

# Rules
1. NEVER exceed the risk limits: position size, daily loss, open positions,
   cash reserve and daily trade count are enforced after your decision, and a
   breach means your decision is discarded.
2. You trade spot: selling requires held balance, there is no margin.
3. Prefer fewer, higher-conviction trades over frequent small ones.
4. If confidence is below 0.5, respond with hold.
5. Respond with pure JSON, no markdown fences, no commentary.`
}

// buildDecisionPrompt строит промпт с контекстом портфеля и рынка
func buildDecisionPrompt(req DecisionRequest) string {
	portfolioJSON, _ := json.MarshalIndent(req.Portfolio, "", "  ")
	marketJSON, _ := json.MarshalIndent(req.Market, "", "  ")
	limitsJSON, _ := json.MarshalIndent(req.RiskLimits, "", "  ")

	return fmt.Sprintf(`Analyze the current situation and decide on one trading action.

Current Context:
- Environment: %s
- Time: %s

Portfolio:
%s

Market Prices:
%s

Risk Limits:
%s

Provide your decision in JSON format (no markdown, pure JSON):
{
  "signal": "buy_to_enter|buy_to_exit|sell_to_enter|sell_to_exit|hold",
  "coin": "BTC",
  "quantity": 0.001,
  "leverage": 1,
  "confidence": 0.0-1.0,
  "justification": "Brief explanation of your decision"
}

For hold, coin and quantity may be omitted. Quantity is in coin units.`,
		req.Environment,
		time.Now().UTC().Format(time.RFC3339),
		string(portfolioJSON),
		string(marketJSON),
		string(limitsJSON),
	)
}
