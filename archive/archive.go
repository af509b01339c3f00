// Package archive keeps a queryable SQLite copy of the game event stream.
// Writes are queued and applied by a single goroutine; when the queue is
// full the event is dropped rather than stalling the publisher.
package archive

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"tileworld/hub"
	"tileworld/protocol"
)

const queueSize = 4096

// Record is one archived event.
type Record struct {
	Seq     int64           `json:"seq"`
	At      time.Time       `json:"at"`
	Kind    string          `json:"kind"`
	Payload json.RawMessage `json:"event"`
}

type row struct {
	at      time.Time
	kind    string
	payload []byte
}

type Archive struct {
	db  *sql.DB
	log *zap.SugaredLogger

	// mu orders sends on ch against its close.
	mu     sync.RWMutex
	closed bool
	ch     chan row
	wg     sync.WaitGroup
	once   sync.Once

	dropped atomic.Uint64
	now     func() time.Time
}

// Open creates (or reopens) the database at path.
func Open(path string, log *zap.SugaredLogger) (*Archive, error) {
	if path == "" {
		return nil, fmt.Errorf("empty archive path")
	}
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create archive dir: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initPragmas(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("archive pragmas: %w", err)
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("archive schema: %w", err)
	}

	a := &Archive{
		db:  db,
		log: log,
		ch:  make(chan row, queueSize),
		now: time.Now,
	}
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		a.loop()
	}()
	return a, nil
}

func initPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA temp_store=MEMORY;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return err
		}
	}
	return nil
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS events (
			seq INTEGER PRIMARY KEY AUTOINCREMENT,
			at TEXT NOT NULL,
			kind TEXT NOT NULL,
			payload TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS events_kind ON events(kind);`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}

// Record queues ev for insertion. It never blocks.
func (a *Archive) Record(ev protocol.GameEvent) error {
	if a == nil {
		return nil
	}
	b, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("encode %s: %w", ev.Kind(), err)
	}
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.closed {
		return nil
	}
	select {
	case a.ch <- row{at: a.now().UTC(), kind: ev.Kind(), payload: b}:
	default:
		a.dropped.Add(1)
	}
	return nil
}

// Dropped counts events lost to a full queue.
func (a *Archive) Dropped() uint64 { return a.dropped.Load() }

// Recent returns up to limit events, newest first.
func (a *Archive) Recent(ctx context.Context, limit int) ([]Record, error) {
	if limit <= 0 {
		return []Record{}, nil
	}
	rows, err := a.db.QueryContext(ctx,
		`SELECT seq, at, kind, payload FROM events ORDER BY seq DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	out := make([]Record, 0, limit)
	for rows.Next() {
		var (
			r       Record
			at      string
			payload string
		)
		if err := rows.Scan(&r.Seq, &at, &r.Kind, &payload); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		if r.At, err = time.Parse(time.RFC3339Nano, at); err != nil {
			return nil, fmt.Errorf("parse event time %q: %w", at, err)
		}
		r.Payload = json.RawMessage(payload)
		out = append(out, r)
	}
	return out, rows.Err()
}

// Run archives every event from sub until ctx is done or sub is closed.
func (a *Archive) Run(ctx context.Context, sub *hub.Subscription[protocol.GameEvent]) {
	defer sub.Close()
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-sub.C():
			if !ok {
				return
			}
			if err := a.Record(ev); err != nil {
				a.log.Warnf("archive: %v", err)
			}
		}
	}
}

// Close flushes queued events and closes the database.
func (a *Archive) Close() error {
	var err error
	a.once.Do(func() {
		a.mu.Lock()
		a.closed = true
		close(a.ch)
		a.mu.Unlock()
		a.wg.Wait()
		err = a.db.Close()
	})
	return err
}

func (a *Archive) loop() {
	insert, err := a.db.Prepare(`INSERT INTO events(at, kind, payload) VALUES(?,?,?)`)
	if err != nil {
		a.log.Errorf("archive: prepare insert: %v", err)
		for range a.ch {
		}
		return
	}
	defer insert.Close()

	for r := range a.ch {
		if _, err := insert.Exec(r.at.Format(time.RFC3339Nano), r.kind, string(r.payload)); err != nil {
			a.log.Warnf("archive: insert %s: %v", r.kind, err)
		}
	}
}
