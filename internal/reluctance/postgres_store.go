package reluctance

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// PostgresStore persists reluctance metrics in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a PostgreSQL-backed reluctance metrics store.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) GetOrCreate(ctx context.Context, operatorID string) (*Metrics, error) {
	m := &Metrics{OperatorID: operatorID}
	err := s.db.QueryRowContext(ctx, `
		SELECT score, no_action_count, hesitation_count, actions_taken, actions_required,
		       quota_shortfall, warnings_received, under_review, updated_at
		FROM reluctance_metrics WHERE operator_id = $1
	`, operatorID).Scan(&m.Score, &m.NoActionCount, &m.HesitationCount, &m.ActionsTaken,
		&m.ActionsRequired, &m.QuotaShortfall, &m.WarningsReceived, &m.UnderReview, &m.UpdatedAt)

	if errors.Is(err, sql.ErrNoRows) {
		_, err = s.db.ExecContext(ctx, `
			INSERT INTO reluctance_metrics (operator_id, updated_at)
			VALUES ($1, NOW())
			ON CONFLICT (operator_id) DO NOTHING
		`, operatorID)
		if err != nil {
			return nil, fmt.Errorf("failed to create reluctance metrics: %w", err)
		}
		return m, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load reluctance metrics: %w", err)
	}
	return m, nil
}

func (s *PostgresStore) Put(ctx context.Context, m *Metrics) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO reluctance_metrics
			(operator_id, score, no_action_count, hesitation_count, actions_taken,
			 actions_required, quota_shortfall, warnings_received, under_review, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (operator_id) DO UPDATE SET
			score = EXCLUDED.score,
			no_action_count = EXCLUDED.no_action_count,
			hesitation_count = EXCLUDED.hesitation_count,
			actions_taken = EXCLUDED.actions_taken,
			actions_required = EXCLUDED.actions_required,
			quota_shortfall = EXCLUDED.quota_shortfall,
			warnings_received = EXCLUDED.warnings_received,
			under_review = EXCLUDED.under_review,
			updated_at = EXCLUDED.updated_at
	`, m.OperatorID, m.Score, m.NoActionCount, m.HesitationCount, m.ActionsTaken,
		m.ActionsRequired, m.QuotaShortfall, m.WarningsReceived, m.UnderReview, m.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to save reluctance metrics: %w", err)
	}
	return nil
}
