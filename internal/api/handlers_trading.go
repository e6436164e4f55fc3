package api

import (
	"encoding/json"
	"net/http"

	"github.com/tackey2/aitradegame/internal/risk"
)

func (s *Server) handlePendingDecisions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.sendError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	// просроченные решения сначала переводятся в expired,
	// чтобы список не показывал уже неактуальные запросы
	if err := s.router.ExpireStale(); err != nil {
		s.logger.Warn("⚠️ Не удалось обработать просроченные решения: %v", err)
	}

	modelID := getQueryParamInt64(r, "model_id", 0)
	decisions, err := s.storage.ListPendingDecisions(modelID)
	if err != nil {
		s.sendDomainError(w, err)
		return
	}
	s.sendSuccess(w, decisions)
}

func (s *Server) handleApproveDecision(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.sendError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	id, ok := pathID(r)
	if !ok {
		s.sendError(w, "Invalid decision id", http.StatusBadRequest)
		return
	}

	result, err := s.router.Approve(r.Context(), id)
	if err != nil {
		s.sendDomainError(w, err)
		return
	}
	s.sendSuccess(w, result)
}

func (s *Server) handleRejectDecision(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.sendError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	id, ok := pathID(r)
	if !ok {
		s.sendError(w, "Invalid decision id", http.StatusBadRequest)
		return
	}

	var req struct {
		Reason string `json:"reason"`
	}
	if r.Body != nil {
		// тело необязательно: отклонение без причины тоже допустимо
		_ = json.NewDecoder(r.Body).Decode(&req)
	}

	decision, err := s.router.Reject(id, req.Reason)
	if err != nil {
		s.sendDomainError(w, err)
		return
	}
	s.sendSuccess(w, decision)
}

// handleExecuteEnhanced запускает торговый цикл модели вне расписания
func (s *Server) handleExecuteEnhanced(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.sendError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	id, ok := pathID(r)
	if !ok {
		s.sendError(w, "Invalid model id", http.StatusBadRequest)
		return
	}

	result, err := s.scheduler.RunCycle(r.Context(), id)
	if err != nil {
		s.sendDomainError(w, err)
		return
	}
	s.sendSuccess(w, result)
}

func (s *Server) handleEmergencyStopAll(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.sendError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	stopped, err := s.scheduler.EmergencyStopAll()
	if err != nil {
		s.sendDomainError(w, err)
		return
	}
	s.sendSuccess(w, map[string]interface{}{"models_stopped": stopped})
}

// handleRiskStatus оценивает текущее состояние портфеля без заявки:
// пробный ордер с нулевым объемом не порождает инцидентов
func (s *Server) handleRiskStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.sendError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	id, ok := pathID(r)
	if !ok {
		s.sendError(w, "Invalid model id", http.StatusBadRequest)
		return
	}

	model, err := s.storage.GetModel(id)
	if err != nil {
		s.sendDomainError(w, err)
		return
	}

	settings, err := s.storage.GetRiskSettings(id)
	if err != nil {
		s.sendDomainError(w, err)
		return
	}

	state, err := s.portfolio.RiskState(r.Context(), model)
	if err != nil {
		s.sendDomainError(w, err)
		return
	}

	verdict := s.evaluator.Evaluate(model, settings, state, &risk.ProposedOrder{}, nil)
	s.sendSuccess(w, map[string]interface{}{
		"verdict": verdict,
		"state":   state,
	})
}

func (s *Server) handleIncidents(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.sendError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	id, ok := pathID(r)
	if !ok {
		s.sendError(w, "Invalid model id", http.StatusBadRequest)
		return
	}

	if _, err := s.storage.GetModel(id); err != nil {
		s.sendDomainError(w, err)
		return
	}

	limit := getQueryParamInt(r, "limit", 50)
	incidents, err := s.storage.GetModelIncidents(id, limit)
	if err != nil {
		s.sendDomainError(w, err)
		return
	}
	s.sendSuccess(w, incidents)
}

func (s *Server) handleReadiness(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.sendError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	id, ok := pathID(r)
	if !ok {
		s.sendError(w, "Invalid model id", http.StatusBadRequest)
		return
	}

	model, err := s.storage.GetModel(id)
	if err != nil {
		s.sendDomainError(w, err)
		return
	}

	settings, err := s.storage.GetRiskSettings(id)
	if err != nil {
		s.sendDomainError(w, err)
		return
	}

	readiness, err := s.portfolio.Readiness(r.Context(), model, settings, s.evaluator.GetProfile().Graduation)
	if err != nil {
		s.sendDomainError(w, err)
		return
	}
	s.sendSuccess(w, readiness)
}

func (s *Server) handleTrades(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.sendError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	id, ok := pathID(r)
	if !ok {
		s.sendError(w, "Invalid model id", http.StatusBadRequest)
		return
	}

	if _, err := s.storage.GetModel(id); err != nil {
		s.sendDomainError(w, err)
		return
	}

	limit := getQueryParamInt(r, "limit", 100)
	trades, err := s.storage.GetModelTrades(id, limit)
	if err != nil {
		s.sendDomainError(w, err)
		return
	}
	s.sendSuccess(w, trades)
}

func (s *Server) handlePortfolio(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.sendError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	id, ok := pathID(r)
	if !ok {
		s.sendError(w, "Invalid model id", http.StatusBadRequest)
		return
	}

	model, err := s.storage.GetModel(id)
	if err != nil {
		s.sendDomainError(w, err)
		return
	}

	snapshot, err := s.portfolio.Snapshot(r.Context(), model)
	if err != nil {
		s.sendDomainError(w, err)
		return
	}

	performance, err := s.portfolio.Performance(id)
	if err != nil {
		s.sendDomainError(w, err)
		return
	}

	s.sendSuccess(w, map[string]interface{}{
		"snapshot":    snapshot,
		"performance": performance,
	})
}
