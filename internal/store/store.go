package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/patrolbot/hub/internal/domain"
)

// QueryFilter narrows and paginates alert queries. Nil pointer fields mean
// "no filter"; filters combine with AND.
type QueryFilter struct {
	Limit        int
	Offset       int
	Status       *string
	Acknowledged *bool
}

const DefaultQueryLimit = 20

// Store is the persistence contract for alerts and the whitelist. Each
// operation is independently transactional; there is no cross-call atomicity.
type Store interface {
	// InsertAlert persists the alert, assigning an id and timestamp when
	// absent and forcing acknowledged=false. Returns the id.
	InsertAlert(ctx context.Context, alert *domain.Alert) (string, error)

	// QueryAlerts returns alerts ordered by timestamp descending.
	QueryAlerts(ctx context.Context, filter QueryFilter) ([]domain.Alert, error)

	// GetAlertByID returns domain.ErrAlertNotFound for an unknown id.
	GetAlertByID(ctx context.Context, id string) (*domain.Alert, error)

	// AcknowledgeAlert flips acknowledged to true. The bool reports whether a
	// row actually changed: a repeat call on an acknowledged alert returns
	// false even though the stored state is unchanged.
	AcknowledgeAlert(ctx context.Context, id string) (bool, error)

	// UpsertWhitelistPerson replaces the whole record keyed by name.
	UpsertWhitelistPerson(ctx context.Context, name string, imageRefs []string) (int64, error)

	// ListWhitelist returns all entries ordered by name.
	ListWhitelist(ctx context.Context) ([]domain.WhitelistPerson, error)

	// PurgeAlertsBefore deletes alerts older than the timestamp and returns
	// how many were removed.
	PurgeAlertsBefore(ctx context.Context, timestamp float64) (int64, error)

	// CountAlerts aggregates totals for status reports.
	CountAlerts(ctx context.Context) (domain.AlertCounts, error)

	Close() error
}

// Config selects and parameterizes a backend.
type Config struct {
	Driver      string // "sqlite" or "postgres"
	SQLitePath  string
	DatabaseURL string
}

// Open constructs the configured backend and runs its schema setup.
func Open(ctx context.Context, cfg Config) (Store, error) {
	switch strings.ToLower(cfg.Driver) {
	case "sqlite", "":
		return OpenSQLite(ctx, cfg.SQLitePath)
	case "postgres", "postgresql":
		return OpenPostgres(ctx, cfg.DatabaseURL)
	default:
		return nil, fmt.Errorf("open store: unsupported driver %q", cfg.Driver)
	}
}

// NewAlertID builds a millisecond-timestamp id with a uuid suffix so that
// alerts arriving within the same millisecond still get distinct ids.
// Handlers that need the id before insert (to name a snapshot file) call
// this directly and pass the id in on the draft.
func NewAlertID(now time.Time) string {
	return fmt.Sprintf("alert_%d_%s", now.UnixMilli(), uuid.NewString()[:8])
}

// prepareInsert fills server-assigned fields on a draft before persisting.
func prepareInsert(alert *domain.Alert, now time.Time) {
	if alert.ID == "" {
		alert.ID = NewAlertID(now)
	}
	if alert.Timestamp == 0 {
		alert.Timestamp = float64(now.UnixNano()) / 1e9
	}
	if alert.Status == "" {
		alert.Status = domain.StatusUnknown
	}
	alert.Acknowledged = false
	if alert.Meta == nil {
		alert.Meta = map[string]any{}
	}
}

func normalizeFilter(f QueryFilter) QueryFilter {
	if f.Limit <= 0 {
		f.Limit = DefaultQueryLimit
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	return f
}
