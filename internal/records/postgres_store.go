package records

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// PostgresStore persists citizen dossiers in PostgreSQL.
// Domain records are stored as one JSONB payload per (citizen, domain):
// the engine only needs presence/absence plus a handful of typed fields,
// so a column-per-field schema buys nothing here.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a PostgreSQL-backed citizen record store.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) GetDossier(ctx context.Context, citizenID string) (*Dossier, error) {
	c, err := s.GetCitizen(ctx, citizenID)
	if err != nil {
		return nil, err
	}
	d := &Dossier{Citizen: *c}

	rows, err := s.db.QueryContext(ctx, `
		SELECT domain, payload FROM domain_records WHERE citizen_id = $1
	`, citizenID)
	if err != nil {
		return nil, fmt.Errorf("failed to load domain records: %w", err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var domain string
		var payload []byte
		if err := rows.Scan(&domain, &payload); err != nil {
			return nil, fmt.Errorf("failed to scan domain record: %w", err)
		}
		if err := attachDomain(d, domain, payload); err != nil {
			return nil, err
		}
	}
	return d, rows.Err()
}

func (s *PostgresStore) GetCitizen(ctx context.Context, citizenID string) (*Citizen, error) {
	var c Citizen
	var scoredAt sql.NullTime
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, neighborhood, detained, hospitalized, risk_score, risk_scored_at
		FROM citizens WHERE id = $1
	`, citizenID).Scan(&c.ID, &c.Name, &c.Neighborhood, &c.Detained, &c.Hospitalized, &c.RiskScore, &scoredAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load citizen: %w", err)
	}
	if scoredAt.Valid {
		c.RiskScoredAt = &scoredAt.Time
	}
	return &c, nil
}

func (s *PostgresStore) PutDossier(ctx context.Context, d *Dossier) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO citizens (id, name, neighborhood, detained, hospitalized, risk_score, risk_scored_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			neighborhood = EXCLUDED.neighborhood,
			detained = EXCLUDED.detained,
			hospitalized = EXCLUDED.hospitalized
	`, d.Citizen.ID, d.Citizen.Name, d.Citizen.Neighborhood,
		d.Citizen.Detained, d.Citizen.Hospitalized, d.Citizen.RiskScore, d.Citizen.RiskScoredAt)
	if err != nil {
		return fmt.Errorf("failed to upsert citizen: %w", err)
	}

	domains := map[string]any{}
	if d.Health != nil {
		domains["health"] = d.Health
	}
	if d.Finance != nil {
		domains["finance"] = d.Finance
	}
	if d.Judicial != nil {
		domains["judicial"] = d.Judicial
	}
	if d.Location != nil {
		domains["location"] = d.Location
	}
	if d.Social != nil {
		domains["social"] = d.Social
	}

	for domain, rec := range domains {
		payload, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("failed to marshal %s record: %w", domain, err)
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO domain_records (citizen_id, domain, payload)
			VALUES ($1, $2, $3)
			ON CONFLICT (citizen_id, domain) DO UPDATE SET payload = EXCLUDED.payload
		`, d.Citizen.ID, domain, payload)
		if err != nil {
			return fmt.Errorf("failed to upsert %s record: %w", domain, err)
		}
	}

	return tx.Commit()
}

func (s *PostgresStore) SetRiskScore(ctx context.Context, citizenID string, score int, at time.Time) error {
	return s.updateCitizen(ctx, `
		UPDATE citizens SET risk_score = $2, risk_scored_at = $3 WHERE id = $1
	`, citizenID, score, at)
}

func (s *PostgresStore) SetHospitalized(ctx context.Context, citizenID string, hospitalized bool) error {
	return s.updateCitizen(ctx, `
		UPDATE citizens SET hospitalized = $2 WHERE id = $1
	`, citizenID, hospitalized)
}

func (s *PostgresStore) SetDetained(ctx context.Context, citizenID string, detained bool) error {
	return s.updateCitizen(ctx, `
		UPDATE citizens SET detained = $2 WHERE id = $1
	`, citizenID, detained)
}

func (s *PostgresStore) updateCitizen(ctx context.Context, query string, args ...any) error {
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update citizen: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func attachDomain(d *Dossier, domain string, payload []byte) error {
	var err error
	switch domain {
	case "health":
		var r HealthRecord
		if err = json.Unmarshal(payload, &r); err == nil {
			d.Health = &r
		}
	case "finance":
		var r FinanceRecord
		if err = json.Unmarshal(payload, &r); err == nil {
			d.Finance = &r
		}
	case "judicial":
		var r JudicialRecord
		if err = json.Unmarshal(payload, &r); err == nil {
			d.Judicial = &r
		}
	case "location":
		var r LocationRecord
		if err = json.Unmarshal(payload, &r); err == nil {
			d.Location = &r
		}
	case "social":
		var r SocialRecord
		if err = json.Unmarshal(payload, &r); err == nil {
			d.Social = &r
		}
	default:
		// Unknown domains are ignored: forward compatibility with new feeds.
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to unmarshal %s record: %w", domain, err)
	}
	return nil
}
