package repository

import (
	"database/sql"

	"github.com/tackey2/aitradegame/internal/domain"
)

// IncidentRepository реализует журнал инцидентов (только добавление)
type IncidentRepository struct {
	db *sql.DB
}

// NewIncidentRepository создает новый репозиторий для инцидентов
func NewIncidentRepository(db *sql.DB) *IncidentRepository {
	return &IncidentRepository{db: db}
}

// Save сохраняет инцидент
func (r *IncidentRepository) Save(incident *domain.Incident) error {
	query := `
		INSERT INTO incidents (model_id, type, severity, message, created_at)
		VALUES ($1, $2, $3, $4, NOW())
		RETURNING id, created_at
	`
	return r.db.QueryRow(
		query,
		incident.ModelID,
		incident.Type,
		incident.Severity,
		incident.Message,
	).Scan(&incident.ID, &incident.CreatedAt)
}

// GetByModel получает последние N инцидентов модели
func (r *IncidentRepository) GetByModel(modelID int64, limit int) ([]domain.Incident, error) {
	query := `
		SELECT id, model_id, type, severity, message, created_at
		FROM incidents
		WHERE model_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2
	`
	rows, err := r.db.Query(query, modelID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var incidents []domain.Incident
	for rows.Next() {
		var incident domain.Incident
		err := rows.Scan(
			&incident.ID,
			&incident.ModelID,
			&incident.Type,
			&incident.Severity,
			&incident.Message,
			&incident.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		incidents = append(incidents, incident)
	}

	return incidents, rows.Err()
}
