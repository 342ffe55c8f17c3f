package opinion

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// PostgresStore persists opinion metrics in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a PostgreSQL-backed opinion metrics store.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) GetOrCreate(ctx context.Context, operatorID string) (*PublicMetrics, error) {
	m := &PublicMetrics{OperatorID: operatorID}
	err := s.db.QueryRowContext(ctx, `
		SELECT international_awareness, public_anger, awareness_tier, anger_tier, updated_at
		FROM public_metrics WHERE operator_id = $1
	`, operatorID).Scan(&m.InternationalAwareness, &m.PublicAnger, &m.AwarenessTier, &m.AngerTier, &m.UpdatedAt)

	if errors.Is(err, sql.ErrNoRows) {
		_, err = s.db.ExecContext(ctx, `
			INSERT INTO public_metrics (operator_id, international_awareness, public_anger, awareness_tier, anger_tier, updated_at)
			VALUES ($1, 0, 0, 0, 0, NOW())
			ON CONFLICT (operator_id) DO NOTHING
		`, operatorID)
		if err != nil {
			return nil, fmt.Errorf("failed to create public metrics: %w", err)
		}
		return m, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load public metrics: %w", err)
	}
	return m, nil
}

func (s *PostgresStore) Put(ctx context.Context, m *PublicMetrics) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO public_metrics (operator_id, international_awareness, public_anger, awareness_tier, anger_tier, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (operator_id) DO UPDATE SET
			international_awareness = EXCLUDED.international_awareness,
			public_anger = EXCLUDED.public_anger,
			awareness_tier = EXCLUDED.awareness_tier,
			anger_tier = EXCLUDED.anger_tier,
			updated_at = EXCLUDED.updated_at
	`, m.OperatorID, m.InternationalAwareness, m.PublicAnger, m.AwarenessTier, m.AngerTier, m.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to save public metrics: %w", err)
	}
	return nil
}
