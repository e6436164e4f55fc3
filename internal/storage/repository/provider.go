package repository

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/tackey2/aitradegame/internal/domain"
)

// ProviderRepository реализует работу с AI-провайдерами
type ProviderRepository struct {
	db *sql.DB
}

// NewProviderRepository создает новый репозиторий для AI-провайдеров
func NewProviderRepository(db *sql.DB) *ProviderRepository {
	return &ProviderRepository{db: db}
}

// Create сохраняет нового провайдера
func (r *ProviderRepository) Create(provider *domain.AIProvider) error {
	query := `
		INSERT INTO ai_providers (name, base_url, api_key, created_at)
		VALUES ($1, $2, $3, NOW())
		RETURNING id, created_at
	`
	return r.db.QueryRow(
		query,
		provider.Name,
		provider.BaseURL,
		provider.APIKey,
	).Scan(&provider.ID, &provider.CreatedAt)
}

// GetByID получает провайдера по идентификатору
func (r *ProviderRepository) GetByID(id int64) (*domain.AIProvider, error) {
	provider := &domain.AIProvider{}
	query := `
		SELECT id, name, base_url, api_key, created_at
		FROM ai_providers WHERE id = $1
	`
	err := r.db.QueryRow(query, id).Scan(
		&provider.ID,
		&provider.Name,
		&provider.BaseURL,
		&provider.APIKey,
		&provider.CreatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	return provider, nil
}

// GetAll получает всех провайдеров
func (r *ProviderRepository) GetAll() ([]domain.AIProvider, error) {
	query := `
		SELECT id, name, base_url, api_key, created_at
		FROM ai_providers
		ORDER BY id
	`
	rows, err := r.db.Query(query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var providers []domain.AIProvider
	for rows.Next() {
		var provider domain.AIProvider
		err := rows.Scan(
			&provider.ID,
			&provider.Name,
			&provider.BaseURL,
			&provider.APIKey,
			&provider.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		providers = append(providers, provider)
	}

	return providers, rows.Err()
}

// Update обновляет провайдера. Пустой api_key сохраняет прежний ключ.
func (r *ProviderRepository) Update(provider *domain.AIProvider) error {
	query := `
		UPDATE ai_providers
		SET name = $2, base_url = $3,
		    api_key = CASE WHEN $4 = '' THEN api_key ELSE $4 END
		WHERE id = $1
	`
	result, err := r.db.Exec(query, provider.ID, provider.Name, provider.BaseURL, provider.APIKey)
	if err != nil {
		return err
	}
	return requireRowsAffected(result)
}

// Delete удаляет провайдера. Провайдер, на которого ссылаются модели,
// удален быть не может.
func (r *ProviderRepository) Delete(id int64) error {
	result, err := r.db.Exec(`DELETE FROM ai_providers WHERE id = $1`, id)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "foreign_key_violation" {
			return fmt.Errorf("%w: provider %d is used by existing models", domain.ErrInvalidInput, id)
		}
		return err
	}
	return requireRowsAffected(result)
}

// requireRowsAffected возвращает ErrNotFound если запрос не затронул ни одной строки
func requireRowsAffected(result sql.Result) error {
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}
