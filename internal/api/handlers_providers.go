package api

import (
	"encoding/json"
	"net/http"

	"github.com/tackey2/aitradegame/internal/domain"
)

// providerView отдает провайдера без значения API-ключа
type providerView struct {
	domain.AIProvider
	HasAPIKey bool `json:"has_api_key"`
}

func newProviderView(p domain.AIProvider) providerView {
	return providerView{AIProvider: p, HasAPIKey: p.APIKey != ""}
}

type providerRequest struct {
	Name    string `json:"name"`
	BaseURL string `json:"base_url"`
	APIKey  string `json:"api_key"`
}

func (s *Server) handleProviders(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.listProviders(w, r)
	case http.MethodPost:
		s.createProvider(w, r)
	default:
		s.sendError(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleProviderByID(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		s.sendError(w, "Invalid provider id", http.StatusBadRequest)
		return
	}

	switch r.Method {
	case http.MethodGet:
		s.getProvider(w, id)
	case http.MethodPut:
		s.updateProvider(w, r, id)
	case http.MethodDelete:
		s.deleteProvider(w, id)
	default:
		s.sendError(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) listProviders(w http.ResponseWriter, r *http.Request) {
	providers, err := s.storage.GetProviders()
	if err != nil {
		s.sendDomainError(w, err)
		return
	}

	views := make([]providerView, 0, len(providers))
	for _, p := range providers {
		views = append(views, newProviderView(p))
	}
	s.sendSuccess(w, views)
}

func (s *Server) createProvider(w http.ResponseWriter, r *http.Request) {
	var req providerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.sendError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if req.Name == "" {
		s.sendError(w, "Name is required", http.StatusBadRequest)
		return
	}
	if req.BaseURL == "" {
		s.sendError(w, "Base URL is required", http.StatusBadRequest)
		return
	}

	provider := &domain.AIProvider{
		Name:    req.Name,
		BaseURL: req.BaseURL,
		APIKey:  req.APIKey,
	}
	if err := s.storage.CreateProvider(provider); err != nil {
		s.sendDomainError(w, err)
		return
	}

	s.logger.Info("✅ Добавлен AI-провайдер: %s", provider.Name)
	s.sendSuccess(w, newProviderView(*provider))
}

func (s *Server) getProvider(w http.ResponseWriter, id int64) {
	provider, err := s.storage.GetProvider(id)
	if err != nil {
		s.sendDomainError(w, err)
		return
	}
	s.sendSuccess(w, newProviderView(*provider))
}

// updateProvider обновляет провайдера; пустой api_key сохраняет прежний ключ
func (s *Server) updateProvider(w http.ResponseWriter, r *http.Request, id int64) {
	var req providerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.sendError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if req.Name == "" {
		s.sendError(w, "Name is required", http.StatusBadRequest)
		return
	}
	if req.BaseURL == "" {
		s.sendError(w, "Base URL is required", http.StatusBadRequest)
		return
	}

	provider := &domain.AIProvider{
		ID:      id,
		Name:    req.Name,
		BaseURL: req.BaseURL,
		APIKey:  req.APIKey,
	}
	if err := s.storage.UpdateProvider(provider); err != nil {
		s.sendDomainError(w, err)
		return
	}

	updated, err := s.storage.GetProvider(id)
	if err != nil {
		s.sendDomainError(w, err)
		return
	}
	s.sendSuccess(w, newProviderView(*updated))
}

func (s *Server) deleteProvider(w http.ResponseWriter, id int64) {
	if err := s.storage.DeleteProvider(id); err != nil {
		s.sendDomainError(w, err)
		return
	}
	s.sendSuccess(w, map[string]interface{}{"deleted": true})
}
