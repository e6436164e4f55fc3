package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/tackey2/aitradegame/internal/domain"
)

type createModelRequest struct {
	Name                string  `json:"name"`
	ProviderID          int64   `json:"provider_id"`
	AIModel             string  `json:"ai_model"`
	InitialCapital      float64 `json:"initial_capital"`
	Environment         string  `json:"environment"`
	Automation          string  `json:"automation"`
	ExchangeEnvironment string  `json:"exchange_environment"`
}

type updateModelRequest struct {
	Name       string `json:"name"`
	ProviderID int64  `json:"provider_id"`
	AIModel    string `json:"ai_model"`
	Active     bool   `json:"active"`
}

type riskSettingsRequest struct {
	MaxPositionSizePercent float64 `json:"max_position_size_percent"`
	MaxDailyLossPercent    float64 `json:"max_daily_loss_percent"`
	MaxDailyTrades         int     `json:"max_daily_trades"`
	MaxOpenPositions       int     `json:"max_open_positions"`
	MinCashReservePercent  float64 `json:"min_cash_reserve_percent"`
	MaxDrawdownPercent     float64 `json:"max_drawdown_percent"`
	TradingIntervalMinutes int     `json:"trading_interval_minutes"`
}

func (s *Server) handleModels(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.listModels(w)
	case http.MethodPost:
		s.createModel(w, r)
	default:
		s.sendError(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleModelByID(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		s.sendError(w, "Invalid model id", http.StatusBadRequest)
		return
	}

	switch r.Method {
	case http.MethodGet:
		s.getModel(w, id)
	case http.MethodPut:
		s.updateModel(w, r, id)
	case http.MethodDelete:
		s.deleteModel(w, id)
	default:
		s.sendError(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) listModels(w http.ResponseWriter) {
	models, err := s.storage.GetModels()
	if err != nil {
		s.sendDomainError(w, err)
		return
	}
	s.sendSuccess(w, models)
}

// createModel создает модель с безопасными значениями по умолчанию:
// симуляция, ручной режим, тестнет
func (s *Server) createModel(w http.ResponseWriter, r *http.Request) {
	var req createModelRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.sendError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if req.Name == "" {
		s.sendError(w, "Name is required", http.StatusBadRequest)
		return
	}
	if req.ProviderID <= 0 {
		s.sendError(w, "Provider id is required", http.StatusBadRequest)
		return
	}
	if req.AIModel == "" {
		s.sendError(w, "AI model is required", http.StatusBadRequest)
		return
	}
	if req.InitialCapital <= 0 {
		s.sendError(w, "Initial capital must be positive", http.StatusBadRequest)
		return
	}

	env := domain.EnvSimulation
	if req.Environment != "" {
		env = domain.Environment(req.Environment)
		if !env.Valid() {
			s.sendError(w, fmt.Sprintf("Invalid environment: %s", req.Environment), http.StatusBadRequest)
			return
		}
	}

	automation := domain.AutomationManual
	if req.Automation != "" {
		automation = domain.Automation(req.Automation)
		if !automation.Valid() {
			s.sendError(w, fmt.Sprintf("Invalid automation mode: %s", req.Automation), http.StatusBadRequest)
			return
		}
	}

	exchEnv := domain.ExchangeTestnet
	if req.ExchangeEnvironment != "" {
		exchEnv = domain.ExchangeEnvironment(req.ExchangeEnvironment)
		if !exchEnv.Valid() {
			s.sendError(w, fmt.Sprintf("Invalid exchange environment: %s", req.ExchangeEnvironment), http.StatusBadRequest)
			return
		}
	}

	if _, err := s.storage.GetProvider(req.ProviderID); err != nil {
		s.sendDomainError(w, err)
		return
	}

	model := &domain.Model{
		Name:                req.Name,
		ProviderID:          req.ProviderID,
		AIModel:             req.AIModel,
		InitialCapital:      req.InitialCapital,
		Environment:         env,
		Automation:          automation,
		ExchangeEnvironment: exchEnv,
		Active:              true,
	}
	if err := s.storage.CreateModel(model); err != nil {
		s.sendDomainError(w, err)
		return
	}

	s.logger.Info("✅ Создана модель %s (id=%d, капитал %.2f)", model.Name, model.ID, model.InitialCapital)
	s.sendSuccess(w, model)
}

func (s *Server) getModel(w http.ResponseWriter, id int64) {
	model, err := s.storage.GetModel(id)
	if err != nil {
		s.sendDomainError(w, err)
		return
	}
	s.sendSuccess(w, model)
}

func (s *Server) updateModel(w http.ResponseWriter, r *http.Request, id int64) {
	var req updateModelRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.sendError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if req.Name == "" {
		s.sendError(w, "Name is required", http.StatusBadRequest)
		return
	}
	if req.ProviderID <= 0 {
		s.sendError(w, "Provider id is required", http.StatusBadRequest)
		return
	}
	if req.AIModel == "" {
		s.sendError(w, "AI model is required", http.StatusBadRequest)
		return
	}

	if _, err := s.storage.GetProvider(req.ProviderID); err != nil {
		s.sendDomainError(w, err)
		return
	}

	model, err := s.storage.GetModel(id)
	if err != nil {
		s.sendDomainError(w, err)
		return
	}

	model.Name = req.Name
	model.ProviderID = req.ProviderID
	model.AIModel = req.AIModel
	model.Active = req.Active

	if err := s.storage.UpdateModel(model); err != nil {
		s.sendDomainError(w, err)
		return
	}

	updated, err := s.storage.GetModel(id)
	if err != nil {
		s.sendDomainError(w, err)
		return
	}
	s.sendSuccess(w, updated)
}

func (s *Server) deleteModel(w http.ResponseWriter, id int64) {
	if err := s.storage.DeleteModel(id); err != nil {
		s.sendDomainError(w, err)
		return
	}

	s.logger.Info("🗑 Модель %d удалена вместе с историей", id)
	s.sendSuccess(w, map[string]interface{}{"deleted": true})
}

func (s *Server) handleModelSettings(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		s.sendError(w, "Invalid model id", http.StatusBadRequest)
		return
	}

	switch r.Method {
	case http.MethodGet:
		settings, err := s.storage.GetRiskSettings(id)
		if err != nil {
			s.sendDomainError(w, err)
			return
		}
		s.sendSuccess(w, settings)
	case http.MethodPost:
		s.updateModelSettings(w, r, id)
	default:
		s.sendError(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// updateModelSettings сохраняет лимиты риска; ноль отключает соответствующую проверку
func (s *Server) updateModelSettings(w http.ResponseWriter, r *http.Request, id int64) {
	var req riskSettingsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.sendError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if req.MaxPositionSizePercent < 0 || req.MaxDailyLossPercent < 0 ||
		req.MinCashReservePercent < 0 || req.MaxDrawdownPercent < 0 {
		s.sendError(w, "Percent limits must not be negative", http.StatusBadRequest)
		return
	}
	if req.MaxDailyTrades < 0 || req.MaxOpenPositions < 0 {
		s.sendError(w, "Count limits must not be negative", http.StatusBadRequest)
		return
	}
	if req.MinCashReservePercent > 100 {
		s.sendError(w, "Min cash reserve percent must not exceed 100", http.StatusBadRequest)
		return
	}

	if _, err := s.storage.GetModel(id); err != nil {
		s.sendDomainError(w, err)
		return
	}

	interval := req.TradingIntervalMinutes
	if interval <= 0 {
		interval = domain.DefaultTradingIntervalMinutes
	}

	settings := &domain.RiskSettings{
		ModelID:                id,
		MaxPositionSizePercent: req.MaxPositionSizePercent,
		MaxDailyLossPercent:    req.MaxDailyLossPercent,
		MaxDailyTrades:         req.MaxDailyTrades,
		MaxOpenPositions:       req.MaxOpenPositions,
		MinCashReservePercent:  req.MinCashReservePercent,
		MaxDrawdownPercent:     req.MaxDrawdownPercent,
		TradingIntervalMinutes: interval,
	}
	if err := s.storage.UpdateRiskSettings(settings); err != nil {
		s.sendDomainError(w, err)
		return
	}

	updated, err := s.storage.GetRiskSettings(id)
	if err != nil {
		s.sendDomainError(w, err)
		return
	}
	s.sendSuccess(w, updated)
}

func (s *Server) handleModelEnvironment(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		s.sendError(w, "Invalid model id", http.StatusBadRequest)
		return
	}

	switch r.Method {
	case http.MethodGet:
		model, err := s.storage.GetModel(id)
		if err != nil {
			s.sendDomainError(w, err)
			return
		}
		s.sendSuccess(w, map[string]interface{}{"environment": model.Environment})
	case http.MethodPost:
		var req struct {
			Environment string `json:"environment"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.sendError(w, "Invalid request body", http.StatusBadRequest)
			return
		}

		env := domain.Environment(req.Environment)
		if !env.Valid() {
			s.sendError(w, fmt.Sprintf("Invalid environment: %s", req.Environment), http.StatusBadRequest)
			return
		}

		if err := s.storage.SetModelEnvironment(id, env); err != nil {
			s.sendDomainError(w, err)
			return
		}

		s.logger.Info("🔄 Модель %d переведена в режим %s", id, env)
		s.sendSuccess(w, map[string]interface{}{"environment": env})
	default:
		s.sendError(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleModelAutomation(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		s.sendError(w, "Invalid model id", http.StatusBadRequest)
		return
	}

	switch r.Method {
	case http.MethodGet:
		model, err := s.storage.GetModel(id)
		if err != nil {
			s.sendDomainError(w, err)
			return
		}
		s.sendSuccess(w, map[string]interface{}{"automation": model.Automation})
	case http.MethodPost:
		var req struct {
			Automation string `json:"automation"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.sendError(w, "Invalid request body", http.StatusBadRequest)
			return
		}

		automation := domain.Automation(req.Automation)
		if !automation.Valid() {
			s.sendError(w, fmt.Sprintf("Invalid automation mode: %s", req.Automation), http.StatusBadRequest)
			return
		}

		if err := s.storage.SetModelAutomation(id, automation); err != nil {
			s.sendDomainError(w, err)
			return
		}

		s.logger.Info("🔄 Модель %d: уровень автоматизации %s", id, automation)
		s.sendSuccess(w, map[string]interface{}{"automation": automation})
	default:
		s.sendError(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}
