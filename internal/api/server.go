package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tackey2/aitradegame/internal/domain"
	"github.com/tackey2/aitradegame/internal/exchange"
	"github.com/tackey2/aitradegame/internal/execution"
	"github.com/tackey2/aitradegame/internal/orchestrator"
	"github.com/tackey2/aitradegame/internal/portfolio"
	"github.com/tackey2/aitradegame/internal/risk"
	"github.com/tackey2/aitradegame/internal/storage"
	"github.com/tackey2/aitradegame/pkg/utils"
)

// Server HTTP сервер для API дашборда
type Server struct {
	storage     *storage.PostgresStorage
	credentials *exchange.CredentialsManager
	router      *execution.Router
	scheduler   *orchestrator.Scheduler
	portfolio   *portfolio.Service
	evaluator   *risk.Evaluator
	logger      *utils.Logger
	port        int
	httpServer  *http.Server
}

// Response стандартный ответ API
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// NewServer создает новый API сервер
func NewServer(
	store *storage.PostgresStorage,
	credentials *exchange.CredentialsManager,
	router *execution.Router,
	scheduler *orchestrator.Scheduler,
	portfolioSvc *portfolio.Service,
	evaluator *risk.Evaluator,
	logger *utils.Logger,
	port int,
) *Server {
	return &Server{
		storage:     store,
		credentials: credentials,
		router:      router,
		scheduler:   scheduler,
		portfolio:   portfolioSvc,
		evaluator:   evaluator,
		logger:      logger,
		port:        port,
	}
}

// Start запускает HTTP сервер
func (s *Server) Start() error {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", s.handleHealth)
	mux.Handle("/metrics", promhttp.Handler())

	// AI-провайдеры
	mux.HandleFunc("/api/providers", s.handleProviders)
	mux.HandleFunc("/api/providers/{id}", s.handleProviderByID)

	// Модели и их настройки
	mux.HandleFunc("/api/models", s.handleModels)
	mux.HandleFunc("/api/models/{id}", s.handleModelByID)
	mux.HandleFunc("/api/models/{id}/settings", s.handleModelSettings)
	mux.HandleFunc("/api/models/{id}/environment", s.handleModelEnvironment)
	mux.HandleFunc("/api/models/{id}/automation", s.handleModelAutomation)

	// Биржевые ключи
	mux.HandleFunc("/api/models/{id}/exchange/credentials", s.handleExchangeCredentials)
	mux.HandleFunc("/api/models/{id}/exchange/validate", s.handleExchangeValidate)
	mux.HandleFunc("/api/models/{id}/exchange/environment", s.handleExchangeEnvironment)

	// Торговля и мониторинг
	mux.HandleFunc("/api/models/{id}/execute-enhanced", s.handleExecuteEnhanced)
	mux.HandleFunc("/api/models/{id}/risk-status", s.handleRiskStatus)
	mux.HandleFunc("/api/models/{id}/incidents", s.handleIncidents)
	mux.HandleFunc("/api/models/{id}/readiness", s.handleReadiness)
	mux.HandleFunc("/api/models/{id}/trades", s.handleTrades)
	mux.HandleFunc("/api/models/{id}/portfolio", s.handlePortfolio)

	// Отложенные решения
	mux.HandleFunc("/api/pending-decisions", s.handlePendingDecisions)
	mux.HandleFunc("/api/pending-decisions/{id}/approve", s.handleApproveDecision)
	mux.HandleFunc("/api/pending-decisions/{id}/reject", s.handleRejectDecision)

	mux.HandleFunc("/api/emergency-stop-all", s.handleEmergencyStopAll)

	s.httpServer = &http.Server{
		Addr:    fmt.Sprintf(":%d", s.port),
		Handler: mux,
		// запрос может ждать ответа AI, поэтому таймаут записи больше таймаута AI-клиента
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 90 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	s.logger.Info("🌐 API сервер запускается на порту %d", s.port)

	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown останавливает сервер, дожидаясь активных запросов
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.sendError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	s.sendSuccess(w, map[string]interface{}{
		"status":            "ok",
		"scheduler_running": s.scheduler.IsRunning(),
		"time":              time.Now().UTC(),
	})
}

func (s *Server) sendSuccess(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(Response{
		Success: true,
		Data:    data,
	})
}

func (s *Server) sendError(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(Response{
		Success: false,
		Error:   message,
	})
}

// sendDomainError транслирует доменные ошибки в HTTP-статусы
func (s *Server) sendDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		s.sendError(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, domain.ErrTerminalState),
		errors.Is(err, domain.ErrModelInactive):
		s.sendError(w, err.Error(), http.StatusConflict)
	case errors.Is(err, domain.ErrInvalidInput),
		errors.Is(err, domain.ErrOrderTooSmall),
		errors.Is(err, domain.ErrInsufficientBalance),
		errors.Is(err, domain.ErrNoCredentials):
		s.sendError(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, domain.ErrExchangeAPI):
		s.sendError(w, err.Error(), http.StatusBadGateway)
	default:
		s.sendError(w, err.Error(), http.StatusInternalServerError)
	}
}

// pathID извлекает числовой идентификатор из шаблона маршрута
func pathID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func getQueryParamInt(r *http.Request, name string, defaultValue int) int {
	value := r.URL.Query().Get(name)
	if value == "" {
		return defaultValue
	}

	n, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return n
}

func getQueryParamInt64(r *http.Request, name string, defaultValue int64) int64 {
	value := r.URL.Query().Get(name)
	if value == "" {
		return defaultValue
	}

	n, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return defaultValue
	}
	return n
}
