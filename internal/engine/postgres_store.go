package engine

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// PostgresStore persists the action log and operator profiles in
// PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a PostgreSQL-backed engine store.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) RecordAction(ctx context.Context, a *SystemAction) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO system_actions (
			id, operator_id, directive_id, action_type,
			target_citizen_id, target_neighborhood, target_channel_id, target_protest_id,
			severity, backlash_probability, backlash_triggered,
			justification, decision_seconds, hesitant, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`, a.ID, a.OperatorID, nullStr(a.DirectiveID), a.Type,
		nullStr(a.Target.CitizenID), nullStr(a.Target.Neighborhood), nullStr(a.Target.ChannelID), nullStr(a.Target.ProtestID),
		a.Severity, a.BacklashProbability, a.BacklashTriggered,
		a.Justification, a.DecisionSeconds, a.Hesitant, a.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to record action: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListActions(ctx context.Context, operatorID string, limit int) ([]*SystemAction, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, operator_id, COALESCE(directive_id, ''), action_type,
			COALESCE(target_citizen_id, ''), COALESCE(target_neighborhood, ''),
			COALESCE(target_channel_id, ''), COALESCE(target_protest_id, ''),
			severity, backlash_probability, backlash_triggered,
			justification, decision_seconds, hesitant, created_at
		FROM system_actions
		WHERE operator_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, operatorID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list actions: %w", err)
	}
	defer rows.Close()

	var out []*SystemAction
	for rows.Next() {
		a := &SystemAction{}
		if err := rows.Scan(&a.ID, &a.OperatorID, &a.DirectiveID, &a.Type,
			&a.Target.CitizenID, &a.Target.Neighborhood, &a.Target.ChannelID, &a.Target.ProtestID,
			&a.Severity, &a.BacklashProbability, &a.BacklashTriggered,
			&a.Justification, &a.DecisionSeconds, &a.Hesitant, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan action: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *PostgresStore) GetOrCreateProfile(ctx context.Context, operatorID string) (*OperatorProfile, error) {
	p := &OperatorProfile{OperatorID: operatorID}
	err := s.db.QueryRowContext(ctx, `
		SELECT exposure_stage, total_actions, harsh_actions, no_actions,
			citizens_detained, arrests_caused, casualties_caused, updated_at
		FROM operator_profiles WHERE operator_id = $1
	`, operatorID).Scan(&p.ExposureStage, &p.TotalActions, &p.HarshActions, &p.NoActions,
		&p.CitizensDetained, &p.ArrestsCaused, &p.CasualtiesCaused, &p.UpdatedAt)

	if errors.Is(err, sql.ErrNoRows) {
		_, err = s.db.ExecContext(ctx, `
			INSERT INTO operator_profiles (operator_id, updated_at)
			VALUES ($1, NOW())
			ON CONFLICT (operator_id) DO NOTHING
		`, operatorID)
		if err != nil {
			return nil, fmt.Errorf("failed to create profile: %w", err)
		}
		return p, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load profile: %w", err)
	}
	return p, nil
}

func (s *PostgresStore) PutProfile(ctx context.Context, p *OperatorProfile) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO operator_profiles (
			operator_id, exposure_stage, total_actions, harsh_actions, no_actions,
			citizens_detained, arrests_caused, casualties_caused, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (operator_id) DO UPDATE SET
			exposure_stage = EXCLUDED.exposure_stage,
			total_actions = EXCLUDED.total_actions,
			harsh_actions = EXCLUDED.harsh_actions,
			no_actions = EXCLUDED.no_actions,
			citizens_detained = EXCLUDED.citizens_detained,
			arrests_caused = EXCLUDED.arrests_caused,
			casualties_caused = EXCLUDED.casualties_caused,
			updated_at = EXCLUDED.updated_at
	`, p.OperatorID, p.ExposureStage, p.TotalActions, p.HarshActions, p.NoActions,
		p.CitizensDetained, p.ArrestsCaused, p.CasualtiesCaused, p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to save profile: %w", err)
	}
	return nil
}

func nullStr(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
