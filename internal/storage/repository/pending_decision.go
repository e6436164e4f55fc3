package repository

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/tackey2/aitradegame/internal/domain"
)

// PendingDecisionRepository реализует работу с отложенными решениями
type PendingDecisionRepository struct {
	db *sql.DB
}

// NewPendingDecisionRepository создает новый репозиторий для отложенных решений
func NewPendingDecisionRepository(db *sql.DB) *PendingDecisionRepository {
	return &PendingDecisionRepository{db: db}
}

// Create сохраняет новое отложенное решение в статусе pending
func (r *PendingDecisionRepository) Create(decision *domain.PendingDecision) error {
	decision.Status = domain.DecisionPending
	query := `
		INSERT INTO pending_decisions (model_id, coin, signal, quantity, leverage,
		                               confidence, justification, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW())
		RETURNING id, created_at
	`
	return r.db.QueryRow(
		query,
		decision.ModelID,
		decision.Coin,
		decision.Signal,
		decision.Quantity,
		decision.Leverage,
		decision.Confidence,
		decision.Justification,
		decision.Status,
	).Scan(&decision.ID, &decision.CreatedAt)
}

// GetByID получает отложенное решение по идентификатору
func (r *PendingDecisionRepository) GetByID(id int64) (*domain.PendingDecision, error) {
	query := `
		SELECT id, model_id, coin, signal, quantity, leverage, confidence,
		       justification, status, COALESCE(rejected_reason, ''), created_at, actioned_at
		FROM pending_decisions WHERE id = $1
	`
	decision := &domain.PendingDecision{}
	var actioned sql.NullTime
	err := r.db.QueryRow(query, id).Scan(
		&decision.ID,
		&decision.ModelID,
		&decision.Coin,
		&decision.Signal,
		&decision.Quantity,
		&decision.Leverage,
		&decision.Confidence,
		&decision.Justification,
		&decision.Status,
		&decision.RejectedReason,
		&decision.CreatedAt,
		&actioned,
	)

	if err == sql.ErrNoRows {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if actioned.Valid {
		t := actioned.Time
		decision.ActionedAt = &t
	}

	return decision, nil
}

// List получает отложенные решения; modelID = 0 возвращает по всем моделям
func (r *PendingDecisionRepository) List(modelID int64) ([]domain.PendingDecision, error) {
	query := `
		SELECT id, model_id, coin, signal, quantity, leverage, confidence,
		       justification, status, COALESCE(rejected_reason, ''), created_at, actioned_at
		FROM pending_decisions
		WHERE ($1 = 0 OR model_id = $1)
		ORDER BY created_at DESC
	`
	rows, err := r.db.Query(query, modelID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var decisions []domain.PendingDecision
	for rows.Next() {
		var decision domain.PendingDecision
		var actioned sql.NullTime
		err := rows.Scan(
			&decision.ID,
			&decision.ModelID,
			&decision.Coin,
			&decision.Signal,
			&decision.Quantity,
			&decision.Leverage,
			&decision.Confidence,
			&decision.Justification,
			&decision.Status,
			&decision.RejectedReason,
			&decision.CreatedAt,
			&actioned,
		)
		if err != nil {
			return nil, err
		}
		if actioned.Valid {
			t := actioned.Time
			decision.ActionedAt = &t
		}
		decisions = append(decisions, decision)
	}

	return decisions, rows.Err()
}

// UpdateStatus переводит решение из pending в новый статус.
// actioned_at выставляется только для approved и rejected. Решение в конечном
// статусе повторно не переводится: возвращается ErrTerminalState.
func (r *PendingDecisionRepository) UpdateStatus(id int64, status domain.DecisionStatus, reason string) error {
	query := `
		UPDATE pending_decisions
		SET status = $2,
		    rejected_reason = CASE WHEN $3 = '' THEN rejected_reason ELSE $3 END,
		    actioned_at = CASE WHEN $2 IN ('approved', 'rejected') THEN NOW() ELSE actioned_at END
		WHERE id = $1 AND status = $4
	`
	result, err := r.db.Exec(query, id, status, reason, domain.DecisionPending)
	if err != nil {
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected > 0 {
		return nil
	}

	var current domain.DecisionStatus
	err = r.db.QueryRow(`SELECT status FROM pending_decisions WHERE id = $1`, id).Scan(&current)
	if err == sql.ErrNoRows {
		return domain.ErrNotFound
	}
	if err != nil {
		return err
	}
	return fmt.Errorf("%w: decision %d is already %s", domain.ErrTerminalState, id, current)
}

// ExpireBefore переводит просроченные pending-решения в expired
func (r *PendingDecisionRepository) ExpireBefore(cutoff time.Time) (int64, error) {
	result, err := r.db.Exec(
		`UPDATE pending_decisions SET status = $1 WHERE status = $2 AND created_at < $3`,
		domain.DecisionExpired, domain.DecisionPending, cutoff,
	)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
