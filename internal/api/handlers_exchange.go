package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/tackey2/aitradegame/internal/domain"
)

type credentialsRequest struct {
	Exchange      string `json:"exchange"`
	MainnetAPIKey string `json:"mainnet_api_key"`
	MainnetSecret string `json:"mainnet_secret"`
	TestnetAPIKey string `json:"testnet_api_key"`
	TestnetSecret string `json:"testnet_secret"`
	Active        *bool  `json:"active"`
}

// handleExchangeCredentials управляет ключами биржи; значения ключей
// никогда не возвращаются в ответах
func (s *Server) handleExchangeCredentials(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		s.sendError(w, "Invalid model id", http.StatusBadRequest)
		return
	}

	switch r.Method {
	case http.MethodGet:
		status, err := s.credentials.Status(id)
		if err != nil {
			s.sendDomainError(w, err)
			return
		}
		s.sendSuccess(w, status)
	case http.MethodPost:
		s.setExchangeCredentials(w, r, id)
	case http.MethodDelete:
		if err := s.credentials.Delete(id); err != nil {
			s.sendDomainError(w, err)
			return
		}
		s.sendSuccess(w, map[string]interface{}{"deleted": true})
	default:
		s.sendError(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) setExchangeCredentials(w http.ResponseWriter, r *http.Request, id int64) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.sendError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if (req.MainnetAPIKey == "") != (req.MainnetSecret == "") {
		s.sendError(w, "Mainnet API key and secret must be provided together", http.StatusBadRequest)
		return
	}
	if (req.TestnetAPIKey == "") != (req.TestnetSecret == "") {
		s.sendError(w, "Testnet API key and secret must be provided together", http.StatusBadRequest)
		return
	}
	if req.MainnetAPIKey == "" && req.TestnetAPIKey == "" {
		s.sendError(w, "At least one key pair is required", http.StatusBadRequest)
		return
	}

	if _, err := s.storage.GetModel(id); err != nil {
		s.sendDomainError(w, err)
		return
	}

	active := true
	if req.Active != nil {
		active = *req.Active
	}

	creds := &domain.ExchangeCredentials{
		ModelID:       id,
		Exchange:      req.Exchange,
		MainnetAPIKey: req.MainnetAPIKey,
		MainnetSecret: req.MainnetSecret,
		TestnetAPIKey: req.TestnetAPIKey,
		TestnetSecret: req.TestnetSecret,
		Active:        active,
	}
	if err := s.credentials.Set(creds); err != nil {
		s.sendDomainError(w, err)
		return
	}

	status, err := s.credentials.Status(id)
	if err != nil {
		s.sendDomainError(w, err)
		return
	}
	s.sendSuccess(w, status)
}

func (s *Server) handleExchangeValidate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
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

	valid := s.credentials.Validate(r.Context(), model)
	s.sendSuccess(w, map[string]interface{}{
		"valid":                valid,
		"exchange_environment": model.ExchangeEnvironment,
	})
}

func (s *Server) handleExchangeEnvironment(w http.ResponseWriter, r *http.Request) {
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
		s.sendSuccess(w, map[string]interface{}{"exchange_environment": model.ExchangeEnvironment})
	case http.MethodPost:
		var req struct {
			ExchangeEnvironment string `json:"exchange_environment"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.sendError(w, "Invalid request body", http.StatusBadRequest)
			return
		}

		env := domain.ExchangeEnvironment(req.ExchangeEnvironment)
		if !env.Valid() {
			s.sendError(w, fmt.Sprintf("Invalid exchange environment: %s", req.ExchangeEnvironment), http.StatusBadRequest)
			return
		}

		if err := s.storage.SetModelExchangeEnvironment(id, env); err != nil {
			s.sendDomainError(w, err)
			return
		}

		s.logger.Info("🔄 Модель %d: биржевое окружение %s", id, env)
		s.sendSuccess(w, map[string]interface{}{"exchange_environment": env})
	default:
		s.sendError(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}
