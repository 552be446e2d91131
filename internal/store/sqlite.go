package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/outreach-cli/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db      *sql.DB
	nowFunc func() time.Time
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db, nowFunc: utcNow}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS search_history (
	id           TEXT PRIMARY KEY,
	created_at   DATETIME NOT NULL,
	params       TEXT NOT NULL,
	result_count INTEGER NOT NULL DEFAULT 0,
	job_id       TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS saved_leads (
	id       TEXT PRIMARY KEY,
	lead     TEXT NOT NULL,
	saved_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_search_history_created_at ON search_history(created_at);
CREATE INDEX IF NOT EXISTS idx_saved_leads_saved_at ON saved_leads(saved_at);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) AddHistory(ctx context.Context, params model.SearchParams, resultCount int, jobID string) (*model.HistoryEntry, error) {
	entry := &model.HistoryEntry{
		ID:          uuid.New().String(),
		Timestamp:   s.nowFunc(),
		Params:      params,
		ResultCount: resultCount,
		JobID:       jobID,
	}

	paramsJSON, err := json.Marshal(params)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: marshal params")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO search_history (id, created_at, params, result_count, job_id) VALUES (?, ?, ?, ?, ?)`,
		entry.ID, entry.Timestamp, string(paramsJSON), resultCount, jobID,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: insert history")
	}
	return entry, nil
}

func (s *SQLiteStore) ListHistory(ctx context.Context, limit int) ([]model.HistoryEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, created_at, params, result_count, job_id FROM search_history
		 ORDER BY created_at DESC, rowid DESC LIMIT ?`,
		historyLimit(limit),
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list history")
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
	return entries, eris.Wrap(rows.Err(), "sqlite: list history iterate")
}

// SaveLead bookmarks lead. Saving an already bookmarked ID returns the
// existing bookmark unchanged.
func (s *SQLiteStore) SaveLead(ctx context.Context, lead model.Lead) (*model.SavedLead, error) {
	if lead.ID == "" {
		return nil, ErrEmptyLeadID
	}
	leadJSON, err := json.Marshal(lead)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: marshal lead")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO saved_leads (id, lead, saved_at) VALUES (?, ?, ?) ON CONFLICT(id) DO NOTHING`,
		lead.ID, string(leadJSON), s.nowFunc(),
	)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: insert lead %s", lead.ID)
	}

	row := s.db.QueryRowContext(ctx, `SELECT lead, saved_at FROM saved_leads WHERE id = ?`, lead.ID)
	return scanSavedLead(row)
}

func (s *SQLiteStore) DeleteLead(ctx context.Context, id string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM saved_leads WHERE id = ?`, id)
	if err != nil {
		return false, eris.Wrapf(err, "sqlite: delete lead %s", id)
	}
	if err := checkRowsAffected(res, "lead", id); err != nil {
		if errors.Is(err, errNoRows) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (s *SQLiteStore) ListLeads(ctx context.Context) ([]model.SavedLead, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT lead, saved_at FROM saved_leads ORDER BY saved_at DESC, rowid DESC`,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list leads")
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
	return leads, eris.Wrap(rows.Err(), "sqlite: list leads iterate")
}

var errNoRows = eris.New("no rows affected")

func checkRowsAffected(res sql.Result, entity, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "rows affected")
	}
	if n == 0 {
		return eris.Wrapf(errNoRows, "%s not found: %s", entity, id)
	}
	return nil
}

type scannable interface {
	Scan(dest ...any) error
}

func scanHistory(row scannable) (*model.HistoryEntry, error) {
	var e model.HistoryEntry
	var paramsJSON []byte
	if err := row.Scan(&e.ID, &e.Timestamp, &paramsJSON, &e.ResultCount, &e.JobID); err != nil {
		return nil, eris.Wrap(err, "store: scan history")
	}
	if err := json.Unmarshal(paramsJSON, &e.Params); err != nil {
		return nil, eris.Wrap(err, "store: unmarshal history params")
	}
	e.Timestamp = e.Timestamp.UTC()
	return &e, nil
}

func scanSavedLead(row scannable) (*model.SavedLead, error) {
	var l model.SavedLead
	var leadJSON []byte
	if err := row.Scan(&leadJSON, &l.SavedAt); err != nil {
		return nil, eris.Wrap(err, "store: scan saved lead")
	}
	if err := json.Unmarshal(leadJSON, &l.Lead); err != nil {
		return nil, eris.Wrap(err, "store: unmarshal saved lead")
	}
	l.SavedAt = l.SavedAt.UTC()
	return &l, nil
}
