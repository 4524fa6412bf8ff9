//go:build !rp2040 && !rp2350

// Package journal keeps a host-side history of finished sessions and media
// operations in sqlite. It listens on the bus, so the control loop never
// waits for it.
package journal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"datalogger-go/bus"
	"datalogger-go/types"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"
)

// ErrNewerSchema is returned when the file was written by a newer build.
var ErrNewerSchema = fmt.Errorf("journal: schema newer than %d", SchemaVersion)

type Journal struct {
	db   *sql.DB
	log  zerolog.Logger
	done chan struct{}
}

// Entry is one journaled session.
type Entry struct {
	File     string
	ID       int
	Samples  uint32
	Skipped  uint32
	Duration time.Duration
	Bytes    int64
	Aborted  bool
	ClosedAt time.Time
}

func Open(path string, log zerolog.Logger) (*Journal, error) {
	if path == "" {
		return nil, errors.New("journal: empty path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("journal: create directory: %w", err)
	}
	db, err := sql.Open("sqlite3", path+"?_journal=WAL")
	if err != nil {
		return nil, fmt.Errorf("journal: open: %w", err)
	}
	// Single connection shared by the subscriber and readers.
	db.SetMaxOpenConns(1)

	log = log.With().Str("component", "journal").Logger()
	v, err := schemaVersion(db)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("journal: read version: %w", err)
	}
	if v > SchemaVersion {
		db.Close()
		return nil, ErrNewerSchema
	}
	if err := initSchema(db, log); err != nil {
		db.Close()
		return nil, err
	}
	log.Info().Str("path", path).Int("schema_version", SchemaVersion).Msg("journal opened")
	return &Journal{db: db, log: log}, nil
}

func (j *Journal) Close() error { return j.db.Close() }

func btoi(b bool) int {
	if b {
		return 1
	}
	return 0
}

func (j *Journal) RecordSession(s types.SessionSummary) error {
	_, err := j.db.Exec(insertSessionSQL,
		s.File, s.ID, s.Samples, s.Skipped,
		s.Duration.Milliseconds(), s.Bytes, btoi(s.Aborted), s.ClosedAt.UnixMilli())
	if err != nil {
		return fmt.Errorf("journal: insert session: %w", err)
	}
	return nil
}

func (j *Journal) RecordMedia(r types.MediaReport) error {
	_, err := j.db.Exec(insertMediaSQL,
		r.Op, btoi(r.OK), r.Code, r.TotalKB, r.FreeKB, len(r.Files), r.TS.UnixMilli())
	if err != nil {
		return fmt.Errorf("journal: insert media event: %w", err)
	}
	return nil
}

// Sessions returns up to limit sessions, newest first.
func (j *Journal) Sessions(limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := j.db.Query(selectSessionsSQL, limit)
	if err != nil {
		return nil, fmt.Errorf("journal: query sessions: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var (
			e         Entry
			durMs, at int64
			aborted   int
		)
		if err := rows.Scan(&e.File, &e.ID, &e.Samples, &e.Skipped, &durMs, &e.Bytes, &aborted, &at); err != nil {
			return nil, fmt.Errorf("journal: scan session: %w", err)
		}
		e.Duration = time.Duration(durMs) * time.Millisecond
		e.Aborted = aborted == 1
		e.ClosedAt = time.UnixMilli(at)
		out = append(out, e)
	}
	return out, rows.Err()
}

// MediaEvents counts recorded media operations by op.
func (j *Journal) MediaEvents(op string) (int, error) {
	var n int
	err := j.db.QueryRow(`SELECT COUNT(*) FROM media_events WHERE op = ?`, op).Scan(&n)
	return n, err
}

// Start subscribes before returning, so no event published afterwards is
// missed, and records events until ctx is done.
func (j *Journal) Start(ctx context.Context, conn *bus.Connection) {
	media := conn.Subscribe(bus.TopicMedia())
	closed := conn.Subscribe(bus.TopicSessionClosed())
	j.done = make(chan struct{})
	go j.serviceLoop(ctx, conn, media, closed)
}

// Wait blocks until the loop started by Start has drained and returned.
func (j *Journal) Wait() {
	if j.done != nil {
		<-j.done
	}
}

func (j *Journal) serviceLoop(ctx context.Context, conn *bus.Connection, media, closed *bus.Subscription) {
	defer close(j.done)
	defer conn.Unsubscribe(media)
	defer conn.Unsubscribe(closed)

	for {
		select {
		case <-ctx.Done():
			// Events published just before shutdown are still queued.
			for {
				var msg *bus.Message
				var ok bool
				select {
				case msg, ok = <-media.Channel():
				case msg, ok = <-closed.Channel():
				default:
				}
				if !ok {
					return
				}
				j.handle(msg)
			}
		case msg, ok := <-media.Channel():
			if !ok {
				return
			}
			j.handle(msg)
		case msg, ok := <-closed.Channel():
			if !ok {
				return
			}
			j.handle(msg)
		}
	}
}

func (j *Journal) handle(msg *bus.Message) {
	if msg == nil {
		return
	}
	switch p := msg.Payload.(type) {
	case types.MediaReport:
		if err := j.RecordMedia(p); err != nil {
			j.log.Error().Err(err).Msg("media event not journaled")
		}
	case types.SessionSummary:
		// Stop without an open session reports an empty summary.
		if p.File == "" {
			return
		}
		if err := j.RecordSession(p); err != nil {
			j.log.Error().Err(err).Str("file", p.File).Msg("session not journaled")
		}
	}
}
