package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/patrolbot/hub/internal/database"
	"github.com/patrolbot/hub/internal/domain"
)

// PgxPool is the subset of pgxpool.Pool the store needs; pgxmock satisfies
// it in tests.
type PgxPool interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type postgresStore struct {
	pool  PgxPool
	close func()
}

// OpenPostgres connects a pool and returns the store. Schema is managed by
// the migrate CLI, not here.
func OpenPostgres(ctx context.Context, databaseURL string) (Store, error) {
	pool, err := database.NewPool(ctx, databaseURL)
	if err != nil {
		return nil, err
	}
	return &postgresStore{pool: pool, close: pool.Close}, nil
}

// NewPostgresStore wraps an existing pool (or mock).
func NewPostgresStore(pool PgxPool) Store {
	return &postgresStore{pool: pool, close: func() {}}
}

var _ PgxPool = (*pgxpool.Pool)(nil)

func (s *postgresStore) Close() error {
	s.close()
	return nil
}

func (s *postgresStore) InsertAlert(ctx context.Context, alert *domain.Alert) (string, error) {
	prepareInsert(alert, time.Now())

	meta, err := json.Marshal(alert.Meta)
	if err != nil {
		return "", fmt.Errorf("marshal alert meta: %w", err)
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO alerts (id, timestamp, status, identity, confidence, angle, distance, snapshot_path, acknowledged, meta)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, false, $9)`,
		alert.ID, alert.Timestamp, alert.Status, alert.Identity, alert.Confidence,
		alert.Angle, alert.Distance, alert.SnapshotPath, string(meta),
	)
	if err != nil {
		return "", fmt.Errorf("insert alert: %w", err)
	}
	return alert.ID, nil
}

func (s *postgresStore) QueryAlerts(ctx context.Context, filter QueryFilter) ([]domain.Alert, error) {
	filter = normalizeFilter(filter)

	query := `SELECT id, timestamp, status, identity, confidence, angle, distance, snapshot_path, acknowledged, meta
		FROM alerts WHERE 1=1`
	args := []any{}

	if filter.Status != nil {
		args = append(args, *filter.Status)
		query += fmt.Sprintf(" AND status = $%d", len(args))
	}
	if filter.Acknowledged != nil {
		args = append(args, *filter.Acknowledged)
		query += fmt.Sprintf(" AND acknowledged = $%d", len(args))
	}
	args = append(args, filter.Limit, filter.Offset)
	query += fmt.Sprintf(" ORDER BY timestamp DESC LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query alerts: %w", err)
	}
	defer rows.Close()

	var alerts []domain.Alert
	for rows.Next() {
		alert, err := scanPostgresAlert(rows)
		if err != nil {
			return nil, err
		}
		alerts = append(alerts, *alert)
	}
	return alerts, rows.Err()
}

func (s *postgresStore) GetAlertByID(ctx context.Context, id string) (*domain.Alert, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, timestamp, status, identity, confidence, angle, distance, snapshot_path, acknowledged, meta
		FROM alerts WHERE id = $1`, id)

	alert, err := scanPostgresAlert(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrAlertNotFound
	}
	if err != nil {
		return nil, err
	}
	return alert, nil
}

func (s *postgresStore) AcknowledgeAlert(ctx context.Context, id string) (bool, error) {
	// The acknowledged guard preserves the flip-once return contract.
	tag, err := s.pool.Exec(ctx,
		`UPDATE alerts SET acknowledged = true WHERE id = $1 AND acknowledged = false`, id)
	if err != nil {
		return false, fmt.Errorf("acknowledge alert: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (s *postgresStore) UpsertWhitelistPerson(ctx context.Context, name string, imageRefs []string) (int64, error) {
	if imageRefs == nil {
		imageRefs = []string{}
	}
	images, err := json.Marshal(imageRefs)
	if err != nil {
		return 0, fmt.Errorf("marshal whitelist images: %w", err)
	}

	var id int64
	err = s.pool.QueryRow(ctx,
		`INSERT INTO whitelist (name, sample_images, sample_count, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (name) DO UPDATE SET
			sample_images = EXCLUDED.sample_images,
			sample_count = EXCLUDED.sample_count,
			created_at = EXCLUDED.created_at
		RETURNING id`,
		name, string(images), len(imageRefs), float64(time.Now().UnixNano())/1e9,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("upsert whitelist person: %w", err)
	}
	return id, nil
}

func (s *postgresStore) ListWhitelist(ctx context.Context) ([]domain.WhitelistPerson, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, name, sample_images, sample_count, created_at FROM whitelist ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list whitelist: %w", err)
	}
	defer rows.Close()

	var people []domain.WhitelistPerson
	for rows.Next() {
		var person domain.WhitelistPerson
		var images *string
		if err := rows.Scan(&person.ID, &person.Name, &images, &person.SampleCount, &person.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan whitelist person: %w", err)
		}
		if images != nil && *images != "" {
			if err := json.Unmarshal([]byte(*images), &person.SampleImages); err != nil {
				return nil, fmt.Errorf("decode whitelist images for %q: %w", person.Name, err)
			}
		}
		people = append(people, person)
	}
	return people, rows.Err()
}

func (s *postgresStore) PurgeAlertsBefore(ctx context.Context, timestamp float64) (int64, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM alerts WHERE timestamp < $1`, timestamp)
	if err != nil {
		return 0, fmt.Errorf("purge alerts: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (s *postgresStore) CountAlerts(ctx context.Context) (domain.AlertCounts, error) {
	var counts domain.AlertCounts
	err := s.pool.QueryRow(ctx,
		`SELECT COUNT(*),
			COALESCE(SUM(CASE WHEN acknowledged = false THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN status = 'friendly' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN status = 'unknown' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN status = 'suspicious' THEN 1 ELSE 0 END), 0)
		FROM alerts`,
	).Scan(&counts.Total, &counts.Unacknowledged, &counts.Friendly, &counts.Unknown, &counts.Suspicious)
	if err != nil {
		return domain.AlertCounts{}, fmt.Errorf("count alerts: %w", err)
	}
	return counts, nil
}

func scanPostgresAlert(row pgx.Row) (*domain.Alert, error) {
	var alert domain.Alert
	var meta *string

	err := row.Scan(
		&alert.ID, &alert.Timestamp, &alert.Status, &alert.Identity,
		&alert.Confidence, &alert.Angle, &alert.Distance, &alert.SnapshotPath,
		&alert.Acknowledged, &meta,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("scan alert: %w", err)
	}

	if meta != nil && *meta != "" {
		if err := json.Unmarshal([]byte(*meta), &alert.Meta); err != nil {
			return nil, fmt.Errorf("decode alert meta for %q: %w", alert.ID, err)
		}
	}
	return &alert, nil
}
