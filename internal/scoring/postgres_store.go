package scoring

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

// PostgresStore persists risk assessments in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a PostgreSQL-backed assessment store.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Record(ctx context.Context, assessment *RiskAssessment) error {
	factorsJSON, err := json.Marshal(assessment.Factors)
	if err != nil {
		return fmt.Errorf("failed to marshal factors: %w", err)
	}
	alertsJSON, err := json.Marshal(assessment.Alerts)
	if err != nil {
		return fmt.Errorf("failed to marshal alerts: %w", err)
	}
	actionsJSON, err := json.Marshal(assessment.RecommendedActions)
	if err != nil {
		return fmt.Errorf("failed to marshal recommended actions: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO risk_assessments
			(id, citizen_id, score, level, factors, alerts, recommended_actions, from_cache, evaluated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`,
		assessment.ID,
		assessment.CitizenID,
		assessment.Score,
		string(assessment.Level),
		factorsJSON,
		alertsJSON,
		actionsJSON,
		assessment.FromCache,
		assessment.EvaluatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to record risk assessment: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListByCitizen(ctx context.Context, citizenID string, limit int) ([]*RiskAssessment, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, citizen_id, score, level, factors, alerts, recommended_actions, from_cache, evaluated_at
		FROM risk_assessments
		WHERE citizen_id = $1
		ORDER BY evaluated_at DESC
		LIMIT $2
	`, citizenID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list risk assessments: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var result []*RiskAssessment
	for rows.Next() {
		var a RiskAssessment
		var factorsJSON, alertsJSON, actionsJSON []byte
		var evaluatedAt time.Time

		if err := rows.Scan(&a.ID, &a.CitizenID, &a.Score, &a.Level,
			&factorsJSON, &alertsJSON, &actionsJSON, &a.FromCache, &evaluatedAt); err != nil {
			continue
		}
		a.EvaluatedAt = evaluatedAt
		_ = json.Unmarshal(factorsJSON, &a.Factors)
		_ = json.Unmarshal(alertsJSON, &a.Alerts)
		_ = json.Unmarshal(actionsJSON, &a.RecommendedActions)
		result = append(result, &a)
	}
	return result, rows.Err()
}
