package repository

import (
	"database/sql"
	"time"

	"github.com/tackey2/aitradegame/internal/domain"
)

// CredentialsRepository реализует работу с API-ключами биржи
type CredentialsRepository struct {
	db *sql.DB
}

// NewCredentialsRepository создает новый репозиторий для ключей биржи
func NewCredentialsRepository(db *sql.DB) *CredentialsRepository {
	return &CredentialsRepository{db: db}
}

// Upsert сохраняет ключи модели. Пустые значения сохраняют прежние ключи,
// что позволяет обновлять пары testnet и mainnet независимо.
func (r *CredentialsRepository) Upsert(creds *domain.ExchangeCredentials) error {
	query := `
		INSERT INTO exchange_credentials (model_id, exchange, mainnet_api_key, mainnet_secret,
		                                  testnet_api_key, testnet_secret, active, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
		ON CONFLICT (model_id) DO UPDATE SET
			exchange = EXCLUDED.exchange,
			mainnet_api_key = CASE WHEN EXCLUDED.mainnet_api_key = '' THEN exchange_credentials.mainnet_api_key ELSE EXCLUDED.mainnet_api_key END,
			mainnet_secret = CASE WHEN EXCLUDED.mainnet_secret = '' THEN exchange_credentials.mainnet_secret ELSE EXCLUDED.mainnet_secret END,
			testnet_api_key = CASE WHEN EXCLUDED.testnet_api_key = '' THEN exchange_credentials.testnet_api_key ELSE EXCLUDED.testnet_api_key END,
			testnet_secret = CASE WHEN EXCLUDED.testnet_secret = '' THEN exchange_credentials.testnet_secret ELSE EXCLUDED.testnet_secret END,
			active = EXCLUDED.active,
			updated_at = NOW()
	`
	_, err := r.db.Exec(
		query,
		creds.ModelID,
		creds.Exchange,
		creds.MainnetAPIKey,
		creds.MainnetSecret,
		creds.TestnetAPIKey,
		creds.TestnetSecret,
		creds.Active,
	)
	return err
}

// Get получает ключи модели
func (r *CredentialsRepository) Get(modelID int64) (*domain.ExchangeCredentials, error) {
	creds := &domain.ExchangeCredentials{}
	var lastValidated sql.NullTime
	query := `
		SELECT model_id, exchange, mainnet_api_key, mainnet_secret,
		       testnet_api_key, testnet_secret, active, last_validated, updated_at
		FROM exchange_credentials WHERE model_id = $1
	`
	err := r.db.QueryRow(query, modelID).Scan(
		&creds.ModelID,
		&creds.Exchange,
		&creds.MainnetAPIKey,
		&creds.MainnetSecret,
		&creds.TestnetAPIKey,
		&creds.TestnetSecret,
		&creds.Active,
		&lastValidated,
		&creds.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if lastValidated.Valid {
		t := lastValidated.Time
		creds.LastValidated = &t
	}

	return creds, nil
}

// Delete удаляет ключи модели
func (r *CredentialsRepository) Delete(modelID int64) error {
	result, err := r.db.Exec(`DELETE FROM exchange_credentials WHERE model_id = $1`, modelID)
	if err != nil {
		return err
	}
	return requireRowsAffected(result)
}

// UpdateLastValidated отмечает момент успешной проверки ключей
func (r *CredentialsRepository) UpdateLastValidated(modelID int64, at time.Time) error {
	_, err := r.db.Exec(
		`UPDATE exchange_credentials SET last_validated = $2 WHERE model_id = $1`,
		modelID, at,
	)
	return err
}
