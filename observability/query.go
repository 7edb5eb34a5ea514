package observability

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/hazyhaar/doctext/dbopen"
	"github.com/hazyhaar/doctext/docpipe"
)

// Recent returns the latest events, newest first. limit <= 0 means 50.
func Recent(ctx context.Context, db *sql.DB, limit int) ([]*Event, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := db.QueryContext(ctx, `
		SELECT event_id, name, media_type, size_bytes, sha256, tier, failure,
		       warnings, chars, pages, ocr_pages, duration_ms,
		       transport, request_id, created_at
		FROM extraction_events
		ORDER BY created_at DESC, event_id DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query recent events: %w", err)
	}
	defer rows.Close()

	var events []*Event
	for rows.Next() {
		var (
			e          Event
			mediaType  string
			failure    string
			durationMs int64
			createdAt  int64
		)
		if err := rows.Scan(&e.ID, &e.Name, &mediaType, &e.Size, &e.SHA256, &e.Tier, &failure,
			&e.Warnings, &e.Chars, &e.Pages, &e.OCRPages, &durationMs,
			&e.Transport, &e.RequestID, &createdAt); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		e.MediaType = docpipe.MediaType(mediaType)
		e.Failure = docpipe.FailureKind(failure)
		e.Duration = time.Duration(durationMs) * time.Millisecond
		e.CreatedAt = time.Unix(createdAt, 0)
		events = append(events, &e)
	}
	return events, rows.Err()
}

// Outcome counts events sharing a media type and failure kind. An empty
// Failure means success.
type Outcome struct {
	MediaType docpipe.MediaType
	Failure   docpipe.FailureKind
	Count     int
	OCRPages  int
}

// Summary aggregates events created at or after since.
func Summary(ctx context.Context, db *sql.DB, since time.Time) ([]Outcome, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT media_type, failure, COUNT(*), COALESCE(SUM(ocr_pages), 0)
		FROM extraction_events
		WHERE created_at >= ?
		GROUP BY media_type, failure
		ORDER BY media_type, failure`, since.Unix())
	if err != nil {
		return nil, fmt.Errorf("query summary: %w", err)
	}
	defer rows.Close()

	var out []Outcome
	for rows.Next() {
		var o Outcome
		var mediaType, failure string
		if err := rows.Scan(&mediaType, &failure, &o.Count, &o.OCRPages); err != nil {
			return nil, fmt.Errorf("scan summary: %w", err)
		}
		o.MediaType = docpipe.MediaType(mediaType)
		o.Failure = docpipe.FailureKind(failure)
		out = append(out, o)
	}
	return out, rows.Err()
}

// RetentionConfig specifies event retention in days. Zero means no cleanup.
type RetentionConfig struct {
	EventDays      int
	RunVacuumAfter bool
}

// Cleanup deletes events older than the retention threshold and reports
// how many were removed.
func Cleanup(ctx context.Context, db *sql.DB, cfg RetentionConfig) (int64, error) {
	if cfg.EventDays <= 0 {
		return 0, nil
	}
	cutoff := time.Now().AddDate(0, 0, -cfg.EventDays).Unix()
	res, err := dbopen.Exec(ctx, db, `DELETE FROM extraction_events WHERE created_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("cleanup extraction_events: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	if cfg.RunVacuumAfter {
		if _, err := db.ExecContext(ctx, "VACUUM"); err != nil {
			return n, fmt.Errorf("vacuum: %w", err)
		}
	}
	return n, nil
}
