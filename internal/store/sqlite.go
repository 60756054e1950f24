package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/patrolbot/hub/internal/domain"
)

// sqliteStore is the embedded backend. A single connection serializes all
// writes, which keeps concurrent inserts from tripping over SQLITE_BUSY.
type sqliteStore struct {
	db *sql.DB
}

// OpenSQLite opens (or creates) the database file and ensures the schema.
func OpenSQLite(ctx context.Context, path string) (Store, error) {
	if strings.TrimSpace(path) == "" {
		path = "hub.db"
	}
	dsn := path
	if path != ":memory:" {
		dsn = fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)", path)
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)

	s := &sqliteStore{db: db}
	if err := s.init(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *sqliteStore) init(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS alerts (
			id TEXT PRIMARY KEY,
			timestamp REAL NOT NULL,
			status TEXT NOT NULL,
			identity TEXT,
			confidence REAL,
			angle REAL,
			distance REAL,
			snapshot_path TEXT,
			acknowledged BOOLEAN DEFAULT 0,
			meta TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS whitelist (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT UNIQUE NOT NULL,
			sample_images TEXT,
			sample_count INTEGER DEFAULT 0,
			created_at REAL NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_alerts_timestamp ON alerts(timestamp DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_alerts_status ON alerts(status)`,
		`CREATE INDEX IF NOT EXISTS idx_alerts_acknowledged ON alerts(acknowledged)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("init sqlite schema: %w", err)
		}
	}
	return nil
}

func (s *sqliteStore) Close() error {
	return s.db.Close()
}

func (s *sqliteStore) InsertAlert(ctx context.Context, alert *domain.Alert) (string, error) {
	prepareInsert(alert, time.Now())

	meta, err := json.Marshal(alert.Meta)
	if err != nil {
		return "", fmt.Errorf("marshal alert meta: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO alerts (id, timestamp, status, identity, confidence, angle, distance, snapshot_path, acknowledged, meta)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, 0, ?)`,
		alert.ID, alert.Timestamp, alert.Status, alert.Identity, alert.Confidence,
		alert.Angle, alert.Distance, alert.SnapshotPath, string(meta),
	)
	if err != nil {
		return "", fmt.Errorf("insert alert: %w", err)
	}
	return alert.ID, nil
}

func (s *sqliteStore) QueryAlerts(ctx context.Context, filter QueryFilter) ([]domain.Alert, error) {
	filter = normalizeFilter(filter)

	query := `SELECT id, timestamp, status, identity, confidence, angle, distance, snapshot_path, acknowledged, meta
		FROM alerts WHERE 1=1`
	args := []any{}

	if filter.Status != nil {
		query += " AND status = ?"
		args = append(args, *filter.Status)
	}
	if filter.Acknowledged != nil {
		query += " AND acknowledged = ?"
		args = append(args, boolToInt(*filter.Acknowledged))
	}
	query += " ORDER BY timestamp DESC LIMIT ? OFFSET ?"
	args = append(args, filter.Limit, filter.Offset)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query alerts: %w", err)
	}
	defer rows.Close()

	var alerts []domain.Alert
	for rows.Next() {
		alert, err := scanSQLiteAlert(rows)
		if err != nil {
			return nil, err
		}
		alerts = append(alerts, *alert)
	}
	return alerts, rows.Err()
}

func (s *sqliteStore) GetAlertByID(ctx context.Context, id string) (*domain.Alert, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, timestamp, status, identity, confidence, angle, distance, snapshot_path, acknowledged, meta
		FROM alerts WHERE id = ?`, id)

	alert, err := scanSQLiteAlert(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrAlertNotFound
	}
	if err != nil {
		return nil, err
	}
	return alert, nil
}

func (s *sqliteStore) AcknowledgeAlert(ctx context.Context, id string) (bool, error) {
	// The acknowledged guard preserves the flip-once return contract: a
	// second ack on the same id matches zero rows.
	res, err := s.db.ExecContext(ctx,
		`UPDATE alerts SET acknowledged = 1 WHERE id = ? AND acknowledged = 0`, id)
	if err != nil {
		return false, fmt.Errorf("acknowledge alert: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("acknowledge alert: %w", err)
	}
	return affected > 0, nil
}

func (s *sqliteStore) UpsertWhitelistPerson(ctx context.Context, name string, imageRefs []string) (int64, error) {
	if imageRefs == nil {
		imageRefs = []string{}
	}
	images, err := json.Marshal(imageRefs)
	if err != nil {
		return 0, fmt.Errorf("marshal whitelist images: %w", err)
	}

	res, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO whitelist (name, sample_images, sample_count, created_at)
		VALUES (?, ?, ?, ?)`,
		name, string(images), len(imageRefs), float64(time.Now().UnixNano())/1e9,
	)
	if err != nil {
		return 0, fmt.Errorf("upsert whitelist person: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("upsert whitelist person: %w", err)
	}
	return id, nil
}

func (s *sqliteStore) ListWhitelist(ctx context.Context) ([]domain.WhitelistPerson, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, sample_images, sample_count, created_at FROM whitelist ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list whitelist: %w", err)
	}
	defer rows.Close()

	var people []domain.WhitelistPerson
	for rows.Next() {
		var person domain.WhitelistPerson
		var images sql.NullString
		if err := rows.Scan(&person.ID, &person.Name, &images, &person.SampleCount, &person.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan whitelist person: %w", err)
		}
		if images.Valid && images.String != "" {
			if err := json.Unmarshal([]byte(images.String), &person.SampleImages); err != nil {
				return nil, fmt.Errorf("decode whitelist images for %q: %w", person.Name, err)
			}
		}
		people = append(people, person)
	}
	return people, rows.Err()
}

func (s *sqliteStore) PurgeAlertsBefore(ctx context.Context, timestamp float64) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM alerts WHERE timestamp < ?`, timestamp)
	if err != nil {
		return 0, fmt.Errorf("purge alerts: %w", err)
	}
	deleted, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("purge alerts: %w", err)
	}
	return deleted, nil
}

func (s *sqliteStore) CountAlerts(ctx context.Context) (domain.AlertCounts, error) {
	var counts domain.AlertCounts
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*),
			COALESCE(SUM(CASE WHEN acknowledged = 0 THEN 1 ELSE 0 END), 0),
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

// rowScanner covers both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanSQLiteAlert(row rowScanner) (*domain.Alert, error) {
	var alert domain.Alert
	var acknowledged int
	var meta sql.NullString

	err := row.Scan(
		&alert.ID, &alert.Timestamp, &alert.Status, &alert.Identity,
		&alert.Confidence, &alert.Angle, &alert.Distance, &alert.SnapshotPath,
		&acknowledged, &meta,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("scan alert: %w", err)
	}

	alert.Acknowledged = acknowledged != 0
	if meta.Valid && meta.String != "" {
		if err := json.Unmarshal([]byte(meta.String), &alert.Meta); err != nil {
			return nil, fmt.Errorf("decode alert meta for %q: %w", alert.ID, err)
		}
	}
	return &alert, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
