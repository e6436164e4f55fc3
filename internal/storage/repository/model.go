package repository

import (
	"database/sql"

	"github.com/tackey2/aitradegame/internal/domain"
)

// ModelRepository реализует работу с торговыми моделями
type ModelRepository struct {
	db *sql.DB
}

// NewModelRepository создает новый репозиторий для торговых моделей
func NewModelRepository(db *sql.DB) *ModelRepository {
	return &ModelRepository{db: db}
}

// Create сохраняет новую модель
func (r *ModelRepository) Create(model *domain.Model) error {
	query := `
		INSERT INTO models (name, provider_id, ai_model, initial_capital, environment,
		                    automation, exchange_environment, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW(), NOW())
		RETURNING id, created_at, updated_at
	`
	return r.db.QueryRow(
		query,
		model.Name,
		model.ProviderID,
		model.AIModel,
		model.InitialCapital,
		model.Environment,
		model.Automation,
		model.ExchangeEnvironment,
		model.Active,
	).Scan(&model.ID, &model.CreatedAt, &model.UpdatedAt)
}

// GetByID получает модель по идентификатору
func (r *ModelRepository) GetByID(id int64) (*domain.Model, error) {
	query := `
		SELECT id, name, provider_id, ai_model, initial_capital, environment,
		       automation, exchange_environment, active, created_at, updated_at
		FROM models WHERE id = $1
	`
	model := &domain.Model{}
	err := r.db.QueryRow(query, id).Scan(
		&model.ID,
		&model.Name,
		&model.ProviderID,
		&model.AIModel,
		&model.InitialCapital,
		&model.Environment,
		&model.Automation,
		&model.ExchangeEnvironment,
		&model.Active,
		&model.CreatedAt,
		&model.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	return model, nil
}

// GetAll получает все модели
func (r *ModelRepository) GetAll() ([]domain.Model, error) {
	query := `
		SELECT id, name, provider_id, ai_model, initial_capital, environment,
		       automation, exchange_environment, active, created_at, updated_at
		FROM models
		ORDER BY id
	`
	return r.queryModels(query)
}

// GetActive получает модели, участвующие в циклах планировщика
func (r *ModelRepository) GetActive() ([]domain.Model, error) {
	query := `
		SELECT id, name, provider_id, ai_model, initial_capital, environment,
		       automation, exchange_environment, active, created_at, updated_at
		FROM models
		WHERE active = true
		ORDER BY id
	`
	return r.queryModels(query)
}

// Update обновляет основные поля модели
func (r *ModelRepository) Update(model *domain.Model) error {
	query := `
		UPDATE models
		SET name = $2, provider_id = $3, ai_model = $4, active = $5, updated_at = NOW()
		WHERE id = $1
	`
	result, err := r.db.Exec(query, model.ID, model.Name, model.ProviderID, model.AIModel, model.Active)
	if err != nil {
		return err
	}
	return requireRowsAffected(result)
}

// Delete удаляет модель; зависимые строки удаляются каскадом
func (r *ModelRepository) Delete(id int64) error {
	result, err := r.db.Exec(`DELETE FROM models WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return requireRowsAffected(result)
}

// SetEnvironment переключает режим исполнения модели
func (r *ModelRepository) SetEnvironment(id int64, env domain.Environment) error {
	result, err := r.db.Exec(
		`UPDATE models SET environment = $2, updated_at = NOW() WHERE id = $1`,
		id, env,
	)
	if err != nil {
		return err
	}
	return requireRowsAffected(result)
}

// SetAutomation переключает уровень автономности модели
func (r *ModelRepository) SetAutomation(id int64, automation domain.Automation) error {
	result, err := r.db.Exec(
		`UPDATE models SET automation = $2, updated_at = NOW() WHERE id = $1`,
		id, automation,
	)
	if err != nil {
		return err
	}
	return requireRowsAffected(result)
}

// SetExchangeEnvironment переключает контур биржи модели
func (r *ModelRepository) SetExchangeEnvironment(id int64, env domain.ExchangeEnvironment) error {
	result, err := r.db.Exec(
		`UPDATE models SET exchange_environment = $2, updated_at = NOW() WHERE id = $1`,
		id, env,
	)
	if err != nil {
		return err
	}
	return requireRowsAffected(result)
}

// StopAll переводит все модели в simulation/manual одним UPDATE
// и возвращает идентификаторы затронутых моделей
func (r *ModelRepository) StopAll() ([]int64, error) {
	rows, err := r.db.Query(
		`UPDATE models SET environment = $1, automation = $2, updated_at = NOW()
		 WHERE environment <> $1 OR automation <> $2
		 RETURNING id`,
		domain.EnvSimulation, domain.AutomationManual,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}

	return ids, rows.Err()
}

// queryModels выполняет запрос и возвращает список моделей
func (r *ModelRepository) queryModels(query string, args ...interface{}) ([]domain.Model, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var models []domain.Model
	for rows.Next() {
		var model domain.Model
		err := rows.Scan(
			&model.ID,
			&model.Name,
			&model.ProviderID,
			&model.AIModel,
			&model.InitialCapital,
			&model.Environment,
			&model.Automation,
			&model.ExchangeEnvironment,
			&model.Active,
			&model.CreatedAt,
			&model.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		models = append(models, model)
	}

	return models, rows.Err()
}
