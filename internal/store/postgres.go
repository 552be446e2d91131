package store

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/outreach-cli/internal/model"
)

// Pool is the subset of pgxpool.Pool used by PostgresStore.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    Pool
	closeFn func()
	nowFunc func() time.Time
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close, nowFunc: utcNow}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS search_history (
	id           TEXT PRIMARY KEY,
	created_at   TIMESTAMPTZ NOT NULL,
	params       JSONB NOT NULL,
	result_count INTEGER NOT NULL DEFAULT 0,
	job_id       TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS saved_leads (
	id       TEXT PRIMARY KEY,
	lead     JSONB NOT NULL,
	saved_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_search_history_created_at ON search_history(created_at DESC);
CREATE INDEX IF NOT EXISTS idx_saved_leads_saved_at ON saved_leads(saved_at DESC);
`

func (s *PostgresStore) Ping(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, "SELECT 1")
	return eris.Wrap(err, "postgres: ping")
}

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) now() time.Time {
	if s.nowFunc == nil {
		return utcNow()
	}
	return s.nowFunc()
}

func (s *PostgresStore) AddHistory(ctx context.Context, params model.SearchParams, resultCount int, jobID string) (*model.HistoryEntry, error) {
	entry := &model.HistoryEntry{
		ID:          uuid.New().String(),
		Timestamp:   s.now(),
		Params:      params,
		ResultCount: resultCount,
		JobID:       jobID,
	}

	paramsJSON, err := json.Marshal(params)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: marshal params")
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO search_history (id, created_at, params, result_count, job_id) VALUES ($1, $2, $3, $4, $5)`,
		entry.ID, entry.Timestamp, paramsJSON, resultCount, jobID,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: insert history")
	}
	return entry, nil
}

func (s *PostgresStore) ListHistory(ctx context.Context, limit int) ([]model.HistoryEntry, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, created_at, params, result_count, job_id FROM search_history ORDER BY created_at DESC LIMIT $1`,
		historyLimit(limit),
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list history")
	}
	defer rows.Close()

	entries := make([]model.HistoryEntry, 0)
	for rows.Next() {
		e, err := scanHistory(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, *e)
	}
	return entries, eris.Wrap(rows.Err(), "postgres: list history iterate")
}

// SaveLead bookmarks lead. The upsert leaves an existing row untouched and
// returns it.
func (s *PostgresStore) SaveLead(ctx context.Context, lead model.Lead) (*model.SavedLead, error) {
	if lead.ID == "" {
		return nil, ErrEmptyLeadID
	}
	leadJSON, err := json.Marshal(lead)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: marshal lead")
	}

	row := s.pool.QueryRow(ctx,
		`INSERT INTO saved_leads (id, lead, saved_at) VALUES ($1, $2, $3)
		 ON CONFLICT (id) DO UPDATE SET id = saved_leads.id
		 RETURNING lead, saved_at`,
		lead.ID, leadJSON, s.now(),
	)
	saved, err := scanSavedLead(row)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: save lead %s", lead.ID)
	}
	return saved, nil
}

func (s *PostgresStore) DeleteLead(ctx context.Context, id string) (bool, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM saved_leads WHERE id = $1`, id)
	if err != nil {
		return false, eris.Wrapf(err, "postgres: delete lead %s", id)
	}
	return tag.RowsAffected() > 0, nil
}

func (s *PostgresStore) ListLeads(ctx context.Context) ([]model.SavedLead, error) {
	rows, err := s.pool.Query(ctx, `SELECT lead, saved_at FROM saved_leads ORDER BY saved_at DESC`)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list leads")
	}
	defer rows.Close()

	leads := make([]model.SavedLead, 0)
	for rows.Next() {
		l, err := scanSavedLead(rows)
		if err != nil {
			return nil, err
		}
		leads = append(leads, *l)
	}
	return leads, eris.Wrap(rows.Err(), "postgres: list leads iterate")
}
