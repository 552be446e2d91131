// Package store persists search history and bookmarked leads.
package store

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/outreach-cli/internal/model"
)

// DefaultHistoryLimit caps ListHistory when no limit is given.
const DefaultHistoryLimit = 50

// Store defines the persistence interface for searches and bookmarks.
type Store interface {
	// History
	AddHistory(ctx context.Context, params model.SearchParams, resultCount int, jobID string) (*model.HistoryEntry, error)
	ListHistory(ctx context.Context, limit int) ([]model.HistoryEntry, error)

	// Bookmarks
	SaveLead(ctx context.Context, lead model.Lead) (*model.SavedLead, error)
	DeleteLead(ctx context.Context, id string) (bool, error)
	ListLeads(ctx context.Context) ([]model.SavedLead, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}

// ErrEmptyLeadID is returned by SaveLead for a lead without an ID.
var ErrEmptyLeadID = eris.New("store: lead id is required")

// Open connects to the backend named by driver ("sqlite" or "postgres") and
// runs migrations.
func Open(ctx context.Context, driver, dsn string) (Store, error) {
	var (
		s   Store
		err error
	)
	switch driver {
	case "", "sqlite":
		if dsn == "" {
			dsn = "outreach.db"
		}
		s, err = NewSQLite(dsn)
	case "postgres":
		s, err = NewPostgres(ctx, dsn, nil)
	default:
		return nil, eris.Errorf("store: unknown driver %q", driver)
	}
	if err != nil {
		return nil, err
	}
	if err := s.Migrate(ctx); err != nil {
		s.Close() //nolint:errcheck
		return nil, err
	}
	return s, nil
}

func historyLimit(limit int) int {
	if limit <= 0 {
		return DefaultHistoryLimit
	}
	return limit
}

func utcNow() time.Time {
	return time.Now().UTC()
}
