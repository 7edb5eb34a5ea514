// Package observability persists one row per extraction into SQLite so an
// operator can see which tiers win, which documents fail and why, without
// ever storing document content.
package observability

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/hazyhaar/doctext/dbopen"
	"github.com/hazyhaar/doctext/docpipe"
	"github.com/hazyhaar/doctext/idgen"
	"github.com/hazyhaar/doctext/kit"
)

// Event is a stored extraction event.
type Event struct {
	ID string
	docpipe.ExtractionEvent
	Transport string
	RequestID string
	CreatedAt time.Time
}

const batchSize = 100

// EventLogger records extraction events asynchronously. It implements
// docpipe.Observer.
type EventLogger struct {
	db     *sql.DB
	newID  idgen.Generator
	logger *slog.Logger
	flush  time.Duration

	ch   chan *Event
	stop chan struct{}
	done chan struct{}
}

// EventLoggerOption configures an EventLogger.
type EventLoggerOption func(*EventLogger)

// WithEventIDGenerator sets a custom ID generator for event IDs.
func WithEventIDGenerator(gen idgen.Generator) EventLoggerOption {
	return func(l *EventLogger) { l.newID = gen }
}

// WithLogger sets the logger used to report store failures.
func WithLogger(logger *slog.Logger) EventLoggerOption {
	return func(l *EventLogger) { l.logger = logger }
}

// WithFlushInterval sets how often queued events are written. Default: 2s.
func WithFlushInterval(d time.Duration) EventLoggerOption {
	return func(l *EventLogger) { l.flush = d }
}

// NewEventLogger starts a logger backed by db, which must carry Schema.
// bufferSize bounds the queue; events arriving on a full queue are dropped.
// Close must be called to flush pending events.
func NewEventLogger(db *sql.DB, bufferSize int, opts ...EventLoggerOption) *EventLogger {
	if bufferSize <= 0 {
		bufferSize = 1000
	}
	l := &EventLogger{
		db:     db,
		newID:  idgen.Prefixed("ext_", idgen.Default),
		logger: slog.Default(),
		flush:  2 * time.Second,
		ch:     make(chan *Event, bufferSize),
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}
	for _, o := range opts {
		o(l)
	}
	go l.flushLoop()
	return l
}

// ObserveExtraction queues ev. It never blocks and never fails the caller.
func (l *EventLogger) ObserveExtraction(ctx context.Context, ev docpipe.ExtractionEvent) {
	e := l.newEvent(ctx, ev)
	select {
	case l.ch <- e:
	default:
		l.logger.Warn("extraction event buffer full, dropped", "event_id", e.ID, "media_type", ev.MediaType)
	}
}

// Record inserts ev synchronously and returns the stored event.
func (l *EventLogger) Record(ctx context.Context, ev docpipe.ExtractionEvent) (*Event, error) {
	e := l.newEvent(ctx, ev)
	if _, err := dbopen.Exec(ctx, l.db, insertEvent, eventArgs(e)...); err != nil {
		return nil, fmt.Errorf("record extraction event: %w", err)
	}
	return e, nil
}

// Close drains the queue and stops the flush goroutine.
func (l *EventLogger) Close() error {
	close(l.stop)
	<-l.done
	return nil
}

func (l *EventLogger) newEvent(ctx context.Context, ev docpipe.ExtractionEvent) *Event {
	return &Event{
		ID:              l.newID(),
		ExtractionEvent: ev,
		Transport:       kit.GetTransport(ctx),
		RequestID:       kit.GetRequestID(ctx),
		CreatedAt:       time.Now(),
	}
}

const insertEvent = `INSERT INTO extraction_events
	(event_id, name, media_type, size_bytes, sha256, tier, failure,
	 warnings, chars, pages, ocr_pages, duration_ms,
	 transport, request_id, created_at)
	VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`

func eventArgs(e *Event) []any {
	return []any{
		e.ID, e.Name, string(e.MediaType), e.Size, e.SHA256, e.Tier, string(e.Failure),
		e.Warnings, e.Chars, e.Pages, e.OCRPages, e.Duration.Milliseconds(),
		e.Transport, e.RequestID, e.CreatedAt.Unix(),
	}
}

func (l *EventLogger) flushLoop() {
	defer close(l.done)
	ticker := time.NewTicker(l.flush)
	defer ticker.Stop()
	batch := make([]*Event, 0, batchSize)

	flush := func() {
		if len(batch) == 0 {
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		err := dbopen.RunTx(ctx, l.db, func(tx *sql.Tx) error {
			stmt, err := tx.PrepareContext(ctx, insertEvent)
			if err != nil {
				return err
			}
			defer stmt.Close()
			for _, e := range batch {
				if _, err := stmt.ExecContext(ctx, eventArgs(e)...); err != nil {
					return fmt.Errorf("insert %s: %w", e.ID, err)
				}
			}
			return nil
		})
		if err != nil {
			l.logger.Error("extraction events flush failed", "error", err, "events", len(batch))
		}
		batch = batch[:0]
	}

	for {
		select {
		case <-l.stop:
			for {
				select {
				case e := <-l.ch:
					batch = append(batch, e)
				default:
					flush()
					return
				}
			}
		case e := <-l.ch:
			batch = append(batch, e)
			if len(batch) >= batchSize {
				flush()
			}
		case <-ticker.C:
			flush()
		}
	}
}
