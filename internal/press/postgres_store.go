package press

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// PostgresStore persists outlets and articles in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a PostgreSQL-backed press store.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// SeedDefaults inserts the default outlet roster, skipping rows that
// already exist. Called once at startup.
func (s *PostgresStore) SeedDefaults(ctx context.Context) error {
	for _, ch := range DefaultChannels() {
		_, err := s.db.ExecContext(ctx, `
			INSERT INTO news_channels (id, name, stance, credibility, banned, reporter_fired, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			ON CONFLICT (id) DO NOTHING
		`, ch.ID, ch.Name, ch.Stance, ch.Credibility, ch.Banned, ch.ReporterFired, ch.CreatedAt)
		if err != nil {
			return fmt.Errorf("failed to seed channel %s: %w", ch.ID, err)
		}
	}
	return nil
}

func (s *PostgresStore) ListChannels(ctx context.Context) ([]*NewsChannel, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, stance, credibility, banned, reporter_fired, created_at
		FROM news_channels ORDER BY created_at, id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list channels: %w", err)
	}
	defer rows.Close()

	var out []*NewsChannel
	for rows.Next() {
		ch := &NewsChannel{}
		if err := rows.Scan(&ch.ID, &ch.Name, &ch.Stance, &ch.Credibility, &ch.Banned, &ch.ReporterFired, &ch.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan channel: %w", err)
		}
		out = append(out, ch)
	}
	return out, rows.Err()
}

func (s *PostgresStore) GetChannel(ctx context.Context, id string) (*NewsChannel, error) {
	ch := &NewsChannel{}
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, stance, credibility, banned, reporter_fired, created_at
		FROM news_channels WHERE id = $1
	`, id).Scan(&ch.ID, &ch.Name, &ch.Stance, &ch.Credibility, &ch.Banned, &ch.ReporterFired, &ch.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load channel: %w", err)
	}
	return ch, nil
}

func (s *PostgresStore) PutChannel(ctx context.Context, ch *NewsChannel) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO news_channels (id, name, stance, credibility, banned, reporter_fired, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			stance = EXCLUDED.stance,
			credibility = EXCLUDED.credibility,
			banned = EXCLUDED.banned,
			reporter_fired = EXCLUDED.reporter_fired
	`, ch.ID, ch.Name, ch.Stance, ch.Credibility, ch.Banned, ch.ReporterFired, ch.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to save channel: %w", err)
	}
	return nil
}

func (s *PostgresStore) RecordArticle(ctx context.Context, a *Article) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO articles (id, channel_id, channel_name, type, headline, summary, awareness_delta, anger_delta, published_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, a.ID, nullStr(a.ChannelID), a.ChannelName, a.Type, a.Headline, a.Summary, a.AwarenessDelta, a.AngerDelta, a.PublishedAt)
	if err != nil {
		return fmt.Errorf("failed to record article: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListArticles(ctx context.Context, limit int) ([]*Article, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, COALESCE(channel_id, ''), channel_name, type, headline, summary, awareness_delta, anger_delta, published_at
		FROM articles ORDER BY published_at DESC LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list articles: %w", err)
	}
	defer rows.Close()

	var out []*Article
	for rows.Next() {
		a := &Article{}
		if err := rows.Scan(&a.ID, &a.ChannelID, &a.ChannelName, &a.Type, &a.Headline, &a.Summary, &a.AwarenessDelta, &a.AngerDelta, &a.PublishedAt); err != nil {
			return nil, fmt.Errorf("failed to scan article: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *PostgresStore) ListArticlesBefore(ctx context.Context, before time.Time, limit int) ([]*Article, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, COALESCE(channel_id, ''), channel_name, type, headline, summary, awareness_delta, anger_delta, published_at
		FROM articles WHERE published_at < $1 ORDER BY published_at DESC LIMIT $2
	`, before, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list articles: %w", err)
	}
	defer rows.Close()

	var out []*Article
	for rows.Next() {
		a := &Article{}
		if err := rows.Scan(&a.ID, &a.ChannelID, &a.ChannelName, &a.Type, &a.Headline, &a.Summary, &a.AwarenessDelta, &a.AngerDelta, &a.PublishedAt); err != nil {
			return nil, fmt.Errorf("failed to scan article: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func nullStr(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
