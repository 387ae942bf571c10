package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"rescue-coordination/internal/model"

	_ "github.com/lib/pq"
)

const reportColumns = `id, location, latitude, longitude, description, urgent, status, assigned_volunteer_id, reporter_id, created_at`

type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(dbURL string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dbURL)
	if err != nil {
		return nil, err
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &PostgresStore{db: db}, nil
}

// NewPostgresStoreWithDB wraps an already opened handle.
func NewPostgresStoreWithDB(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) CreateTables(ctx context.Context) error {
	query := `
CREATE TABLE IF NOT EXISTS rescue_reports (
    id                    BIGSERIAL PRIMARY KEY,
    location              TEXT        NOT NULL DEFAULT '',
    latitude              TEXT,
    longitude             TEXT,
    description           TEXT        NOT NULL,
    urgent                BOOLEAN     NOT NULL DEFAULT FALSE,
    status                TEXT        NOT NULL DEFAULT 'pending',
    assigned_volunteer_id BIGINT,
    reporter_id           BIGINT      NOT NULL,
    created_at            TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
`
	_, err := s.db.ExecContext(ctx, query)
	if err != nil {
		return fmt.Errorf("create table rescue_reports: %w", err)
	}
	return nil
}

func (s *PostgresStore) Create(ctx context.Context, draft model.ReportDraft, reporterID int64) (*model.RescueReport, error) {
	query := `
INSERT INTO rescue_reports (location, latitude, longitude, description, urgent, status, reporter_id)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING ` + reportColumns + `;
`
	row := s.db.QueryRowContext(ctx, query,
		draft.Location,
		nullString(draft.Latitude),
		nullString(draft.Longitude),
		draft.Description,
		draft.Urgent,
		string(model.StatusPending),
		reporterID,
	)
	return scanReport(row)
}

func (s *PostgresStore) Get(ctx context.Context, id int64) (*model.RescueReport, error) {
	query := `
SELECT ` + reportColumns + `
FROM rescue_reports
WHERE id = $1;
`
	report, err := scanReport(s.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return report, nil
}

func (s *PostgresStore) List(ctx context.Context) ([]model.RescueReport, error) {
	query := `
SELECT ` + reportColumns + `
FROM rescue_reports
ORDER BY created_at DESC, id DESC;
`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []model.RescueReport{}
	for rows.Next() {
		report, err := scanReport(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *report)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// CompareAndSwapStatus writes update only if the row still has status
// expected. A missed row is probed once more to tell a conflict from a
// deleted report.
func (s *PostgresStore) CompareAndSwapStatus(ctx context.Context, id int64, expected model.Status, update model.StatusUpdate) (*model.RescueReport, error) {
	query := `
UPDATE rescue_reports
SET status = $1,
    assigned_volunteer_id = $2
WHERE id = $3 AND status = $4
RETURNING ` + reportColumns + `;
`
	report, err := scanReport(s.db.QueryRowContext(ctx, query,
		string(update.Status),
		nullInt64(update.AssignedVolunteerID),
		id,
		string(expected),
	))
	if err == nil {
		return report, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}

	var exists bool
	if err := s.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM rescue_reports WHERE id = $1);`, id).Scan(&exists); err != nil {
		return nil, err
	}
	if !exists {
		return nil, model.ErrNotFound
	}
	return nil, model.ErrConflict
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *PostgresStore) Close() error {
	return s.db.Close()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanReport(row rowScanner) (*model.RescueReport, error) {
	var (
		r         model.RescueReport
		lat, lng  sql.NullString
		assignee  sql.NullInt64
		rawStatus string
	)
	if err := row.Scan(
		&r.ID,
		&r.Location,
		&lat,
		&lng,
		&r.Description,
		&r.Urgent,
		&rawStatus,
		&assignee,
		&r.ReporterID,
		&r.CreatedAt,
	); err != nil {
		return nil, err
	}

	r.Status = model.Status(rawStatus)
	if lat.Valid {
		r.Latitude = &lat.String
	}
	if lng.Valid {
		r.Longitude = &lng.String
	}
	if assignee.Valid {
		r.AssignedVolunteerID = &assignee.Int64
	}
	return &r, nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func nullInt64(v *int64) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *v, Valid: true}
}
