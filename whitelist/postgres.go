package whitelist

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// PostgresStore persists whitelist entries in Postgres. It is selected when
// DATABASE_URL is set.
type PostgresStore struct {
	pool *pgxpool.Pool
	log  *slog.Logger
}

// NewPostgresStore applies pending migrations, then opens a connection pool
// against dsn and verifies it with a ping.
func NewPostgresStore(ctx context.Context, dsn string) (*PostgresStore, error) {
	if err := runMigrations(dsn); err != nil {
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parsing database config: %w", err)
	}
	cfg.MaxConns = 10
	cfg.HealthCheckPeriod = 30 * time.Second

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	return &PostgresStore{
		pool: pool,
		log:  slog.Default().With("component", "whitelist"),
	}, nil
}

// runMigrations uses the database/sql driver because goose does not speak
// pgx pools directly.
func runMigrations(dsn string) error {
	goose.SetBaseFS(migrationsFS)
	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return err
	}
	defer db.Close()
	return goose.Up(db, "migrations")
}

// Close releases the connection pool.
func (s *PostgresStore) Close() {
	s.pool.Close()
}

// IsMember reports whether domain is whitelisted. Lookup errors read as
// non-membership so a database outage never skips analysis.
func (s *PostgresStore) IsMember(ctx context.Context, domain string) bool {
	var exists bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM whitelist_domains WHERE domain = $1)`,
		NormalizeDomain(domain),
	).Scan(&exists)
	if err != nil {
		s.log.Warn("whitelist membership check failed", "domain", domain, "error", err)
		return false
	}
	return exists
}

func (s *PostgresStore) Add(ctx context.Context, domain, addedBy, notes string) (*Entry, error) {
	d, err := normalizeAndValidate(domain)
	if err != nil {
		return nil, err
	}

	entry := &Entry{
		ID:        uuid.NewString(),
		Domain:    d,
		AddedBy:   addedBy,
		Notes:     notes,
		CreatedAt: time.Now().UTC(),
	}

	var id string
	err = s.pool.QueryRow(ctx, `
		INSERT INTO whitelist_domains (id, domain, added_by, notes, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (domain) DO NOTHING
		RETURNING id
	`, entry.ID, entry.Domain, entry.AddedBy, entry.Notes, entry.CreatedAt).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrDuplicate
	}
	if err != nil {
		return nil, fmt.Errorf("inserting whitelist entry: %w", err)
	}
	return entry, nil
}

func (s *PostgresStore) Remove(ctx context.Context, id string) bool {
	tag, err := s.pool.Exec(ctx, `DELETE FROM whitelist_domains WHERE id = $1`, id)
	if err != nil {
		s.log.Warn("whitelist delete failed", "id", id, "error", err)
		return false
	}
	return tag.RowsAffected() > 0
}

func (s *PostgresStore) Get(ctx context.Context, id string) (*Entry, bool) {
	var entry Entry
	err := s.pool.QueryRow(ctx, `
		SELECT id, domain, added_by, notes, created_at
		FROM whitelist_domains
		WHERE id = $1
	`, id).Scan(&entry.ID, &entry.Domain, &entry.AddedBy, &entry.Notes, &entry.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, false
	}
	if err != nil {
		s.log.Warn("whitelist fetch failed", "id", id, "error", err)
		return nil, false
	}
	return &entry, true
}

// List returns entries ordered by creation time along with the total count.
func (s *PostgresStore) List(ctx context.Context, offset, limit int) ([]Entry, int) {
	if offset < 0 {
		offset = 0
	}
	if limit < 0 {
		limit = 0
	}

	var total int
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM whitelist_domains`).Scan(&total); err != nil {
		s.log.Warn("whitelist count failed", "error", err)
		return []Entry{}, 0
	}

	rows, err := s.pool.Query(ctx, `
		SELECT id, domain, added_by, notes, created_at
		FROM whitelist_domains
		ORDER BY created_at, domain
		LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		s.log.Warn("whitelist list failed", "error", err)
		return []Entry{}, total
	}
	defer rows.Close()

	entries := make([]Entry, 0)
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.Domain, &e.AddedBy, &e.Notes, &e.CreatedAt); err != nil {
			s.log.Warn("whitelist row scan failed", "error", err)
			return entries, total
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		s.log.Warn("whitelist listing interrupted", "error", err)
	}
	return entries, total
}
