package exchange

import (
	"context"
	"fmt"
	"time"

	"github.com/tackey2/aitradegame/internal/domain"
	"github.com/tackey2/aitradegame/pkg/utils"
)

// SecretCodec кодирует секреты перед записью в хранилище.
// Сейчас единственная реализация хранит их открытым текстом;
// шифрующий кодек подключается здесь без изменения менеджера.
type SecretCodec interface {
	Encode(secret string) (string, error)
	Decode(stored string) (string, error)
}

// PlainCodec хранит секреты без преобразования
type PlainCodec struct{}

func (PlainCodec) Encode(secret string) (string, error) { return secret, nil }
func (PlainCodec) Decode(stored string) (string, error) { return stored, nil }

// CredentialsStore определяет операции хранилища, нужные менеджеру ключей
type CredentialsStore interface {
	UpsertCredentials(creds *domain.ExchangeCredentials) error
	GetCredentials(modelID int64) (*domain.ExchangeCredentials, error)
	DeleteCredentials(modelID int64) error
	TouchCredentialsValidated(modelID int64, at time.Time) error
	SaveIncident(incident *domain.Incident) error
}

// CredentialsManager управляет API-ключами биржи для моделей
type CredentialsManager struct {
	store  CredentialsStore
	codec  SecretCodec
	logger *utils.Logger
}

// NewCredentialsManager создает новый менеджер ключей
func NewCredentialsManager(store CredentialsStore, codec SecretCodec, logger *utils.Logger) *CredentialsManager {
	if codec == nil {
		codec = PlainCodec{}
	}
	if logger == nil {
		logger = utils.NewLogger("info")
	}
	return &CredentialsManager{
		store:  store,
		codec:  codec,
		logger: logger,
	}
}

// BaseURLFor возвращает базовый URL для контура биржи
func BaseURLFor(env domain.ExchangeEnvironment) string {
	if env == domain.ExchangeTestnet {
		return TestnetBaseURL
	}
	return MainnetBaseURL
}

// Set сохраняет ключи модели. Пустые поля оставляют прежние значения,
// поэтому пары testnet и mainnet можно задавать по отдельности.
func (m *CredentialsManager) Set(creds *domain.ExchangeCredentials) error {
	encoded := *creds
	var err error
	if encoded.MainnetSecret, err = m.codec.Encode(creds.MainnetSecret); err != nil {
		return fmt.Errorf("failed to encode secret: %w", err)
	}
	if encoded.TestnetSecret, err = m.codec.Encode(creds.TestnetSecret); err != nil {
		return fmt.Errorf("failed to encode secret: %w", err)
	}
	if encoded.Exchange == "" {
		encoded.Exchange = domain.ExchangeBinance
	}

	if err := m.store.UpsertCredentials(&encoded); err != nil {
		return err
	}

	m.recordChange(creds.ModelID, "exchange credentials updated")
	return nil
}

// Delete удаляет ключи модели
func (m *CredentialsManager) Delete(modelID int64) error {
	if err := m.store.DeleteCredentials(modelID); err != nil {
		return err
	}

	m.recordChange(modelID, "exchange credentials deleted")
	return nil
}

// ClientFor возвращает клиент биржи, привязанный к контуру модели.
// Без подходящей пары ключей возвращается ErrNoCredentials.
func (m *CredentialsManager) ClientFor(model *domain.Model) (*BinanceClient, error) {
	creds, err := m.store.GetCredentials(model.ID)
	if err != nil {
		m.logger.Warn("no exchange credentials for model %d: %v", model.ID, err)
		return nil, fmt.Errorf("%w: model %d", domain.ErrNoCredentials, model.ID)
	}

	var apiKey, secret string
	switch model.ExchangeEnvironment {
	case domain.ExchangeTestnet:
		apiKey, secret = creds.TestnetAPIKey, creds.TestnetSecret
	case domain.ExchangeMainnet:
		apiKey, secret = creds.MainnetAPIKey, creds.MainnetSecret
	default:
		return nil, fmt.Errorf("%w: unknown exchange environment %q", domain.ErrInvalidInput, model.ExchangeEnvironment)
	}

	if apiKey == "" || secret == "" {
		m.logger.Warn("model %d has no %s key pair", model.ID, model.ExchangeEnvironment)
		return nil, fmt.Errorf("%w: model %d has no %s key pair", domain.ErrNoCredentials, model.ID, model.ExchangeEnvironment)
	}

	decoded, err := m.codec.Decode(secret)
	if err != nil {
		return nil, fmt.Errorf("failed to decode secret: %w", err)
	}

	return NewBinanceClient(apiKey, decoded, BaseURLFor(model.ExchangeEnvironment)), nil
}

// Validate выполняет лёгкий аутентифицированный запрос к бирже.
// Возвращает только успех/неуспех; last_validated обновляется при успехе.
func (m *CredentialsManager) Validate(ctx context.Context, model *domain.Model) bool {
	client, err := m.ClientFor(model)
	if err != nil {
		return false
	}

	if _, err := client.GetAccountInfo(ctx); err != nil {
		m.logger.Warn("credentials validation failed for model %d: %v", model.ID, err)
		return false
	}

	if err := m.store.TouchCredentialsValidated(model.ID, time.Now()); err != nil {
		m.logger.Warn("failed to update last_validated for model %d: %v", model.ID, err)
	}

	return true
}

// Status возвращает наличие ключей без раскрытия их значений
func (m *CredentialsManager) Status(modelID int64) (*domain.CredentialsStatus, error) {
	creds, err := m.store.GetCredentials(modelID)
	if err != nil {
		return nil, err
	}

	return &domain.CredentialsStatus{
		ModelID:       creds.ModelID,
		Exchange:      creds.Exchange,
		HasMainnet:    creds.MainnetAPIKey != "" && creds.MainnetSecret != "",
		HasTestnet:    creds.TestnetAPIKey != "" && creds.TestnetSecret != "",
		Active:        creds.Active,
		LastValidated: creds.LastValidated,
	}, nil
}

func (m *CredentialsManager) recordChange(modelID int64, message string) {
	incident := &domain.Incident{
		ModelID:  modelID,
		Type:     domain.IncidentCredentialsChange,
		Severity: domain.SeverityInfo,
		Message:  message,
	}
	if err := m.store.SaveIncident(incident); err != nil {
		m.logger.Warn("failed to record credentials incident: %v", err)
	}
}
