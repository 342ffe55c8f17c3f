package protest

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// PostgresStore persists protests in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a PostgreSQL-backed protest store.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const protestColumns = `id, neighborhood, description, status, size, agitator_planted, agitator_discovered, casualties, arrests, started_at, updated_at`

func scanProtest(row interface{ Scan(...any) error }) (*Protest, error) {
	p := &Protest{}
	err := row.Scan(&p.ID, &p.Neighborhood, &p.Description, &p.Status, &p.Size,
		&p.AgitatorPlanted, &p.AgitatorDiscovered, &p.Casualties, &p.Arrests,
		&p.StartedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (s *PostgresStore) Create(ctx context.Context, p *Protest) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO protests (`+protestColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`, p.ID, p.Neighborhood, p.Description, p.Status, p.Size,
		p.AgitatorPlanted, p.AgitatorDiscovered, p.Casualties, p.Arrests,
		p.StartedAt, p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create protest: %w", err)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, id string) (*Protest, error) {
	p, err := scanProtest(s.db.QueryRowContext(ctx, `
		SELECT `+protestColumns+` FROM protests WHERE id = $1
	`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load protest: %w", err)
	}
	return p, nil
}

func (s *PostgresStore) Update(ctx context.Context, p *Protest) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE protests SET
			status = $2, size = $3, agitator_discovered = $4,
			casualties = $5, arrests = $6, updated_at = $7
		WHERE id = $1
	`, p.ID, p.Status, p.Size, p.AgitatorDiscovered, p.Casualties, p.Arrests, p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to update protest: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to update protest: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) ListOpen(ctx context.Context) ([]*Protest, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+protestColumns+` FROM protests
		WHERE status IN ('FORMING', 'ACTIVE')
		ORDER BY started_at
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list protests: %w", err)
	}
	defer rows.Close()

	var out []*Protest
	for rows.Next() {
		p, err := scanProtest(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan protest: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
