// Package indexdb keeps a queryable SQLite index of streaming runs next to
// the compressed JSONL logs. The logs remain the source of truth; the index
// drops records when its writer falls behind.
package indexdb

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"voxelstream.ai/internal/sim/stream"
	"voxelstream.ai/internal/sim/voxel"
)

type SQLiteIndex struct {
	db    *sql.DB
	runID string

	ch   chan req
	wg   sync.WaitGroup
	once sync.Once

	closed atomic.Bool

	dropFrame atomic.Uint64
	dropEvent atomic.Uint64
	written   atomic.Uint64
}

type reqKind int

const (
	reqFrame reqKind = iota + 1
	reqEvent
)

type req struct {
	kind  reqKind
	frame stream.FrameLogEntry
	event stream.Event
}

type Stats struct {
	RunID          string `json:"run_id"`
	QueueDepth     int    `json:"queue_depth"`
	QueueCapacity  int    `json:"queue_capacity"`
	WrittenTotal   uint64 `json:"written_total"`
	DropFrameTotal uint64 `json:"drop_frame_total"`
	DropEventTotal uint64 `json:"drop_event_total"`
}

func OpenSQLite(path string) (*SQLiteIndex, error) {
	return openSQLite(path, 65536)
}

func openSQLite(path string, queue int) (*SQLiteIndex, error) {
	if path == "" {
		return nil, fmt.Errorf("empty db path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initPragmas(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	s := &SQLiteIndex{
		db: db,
		ch: make(chan req, queue),
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.loop()
	}()
	return s, nil
}

func initPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA foreign_keys=ON;",
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
		`CREATE TABLE IF NOT EXISTS meta (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS runs (
			run_id TEXT PRIMARY KEY,
			seed INTEGER NOT NULL,
			tuning_digest TEXT NOT NULL,
			tuning_json TEXT NOT NULL,
			started_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS frames (
			run_id TEXT NOT NULL,
			frame INTEGER NOT NULL,
			cx INTEGER NOT NULL,
			cy INTEGER NOT NULL,
			cz INTEGER NOT NULL,
			built INTEGER NOT NULL,
			decorated INTEGER NOT NULL,
			queued INTEGER NOT NULL,
			uploaded INTEGER NOT NULL,
			stale INTEGER NOT NULL,
			evicted INTEGER NOT NULL,
			duration_ms REAL NOT NULL,
			raw_json TEXT NOT NULL,
			PRIMARY KEY (run_id, frame)
		);`,
		`CREATE TABLE IF NOT EXISTS chunk_events (
			run_id TEXT NOT NULL,
			frame INTEGER NOT NULL,
			seq INTEGER NOT NULL,
			kind TEXT NOT NULL,
			cx INTEGER NOT NULL,
			cy INTEGER NOT NULL,
			cz INTEGER NOT NULL,
			from_status TEXT,
			to_status TEXT,
			version INTEGER NOT NULL,
			vertices INTEGER NOT NULL,
			PRIMARY KEY (run_id, frame, seq)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_chunk_events_pos ON chunk_events(cx, cz, cy, frame);`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}

// BeginRun registers a new run with the tuning it applies and returns its id.
// Frames and events written afterwards belong to this run.
func (s *SQLiteIndex) BeginRun(seed int64, tune any) (string, error) {
	b, err := json.Marshal(tune)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(b)
	id := uuid.NewString()

	tx, err := s.db.BeginTx(context.Background(), nil)
	if err != nil {
		return "", err
	}
	defer func() { _ = tx.Rollback() }()
	if _, err := tx.Exec(`INSERT OR REPLACE INTO meta(key,value) VALUES('schema_version','1')`); err != nil {
		return "", err
	}
	if _, err := tx.Exec(`INSERT INTO runs(run_id,seed,tuning_digest,tuning_json,started_at) VALUES(?,?,?,?,?)`,
		id, seed, hex.EncodeToString(sum[:]), string(b), time.Now().UTC().Format(time.RFC3339Nano)); err != nil {
		return "", err
	}
	if err := tx.Commit(); err != nil {
		return "", err
	}
	s.runID = id
	return id, nil
}

func (s *SQLiteIndex) Close() error {
	var err error
	s.once.Do(func() {
		s.closed.Store(true)
		close(s.ch)
		s.wg.Wait()
		if s.db != nil {
			err = s.db.Close()
		}
	})
	return err
}

func (s *SQLiteIndex) WriteFrame(entry stream.FrameLogEntry) error {
	if s == nil || s.closed.Load() {
		return nil
	}
	select {
	case s.ch <- req{kind: reqFrame, frame: entry}:
	default:
		s.dropFrame.Add(1)
	}
	return nil
}

func (s *SQLiteIndex) WriteEvent(e stream.Event) error {
	if s == nil || s.closed.Load() {
		return nil
	}
	select {
	case s.ch <- req{kind: reqEvent, event: e}:
	default:
		s.dropEvent.Add(1)
	}
	return nil
}

func (s *SQLiteIndex) Stats() Stats {
	return Stats{
		RunID:          s.runID,
		QueueDepth:     len(s.ch),
		QueueCapacity:  cap(s.ch),
		WrittenTotal:   s.written.Load(),
		DropFrameTotal: s.dropFrame.Load(),
		DropEventTotal: s.dropEvent.Load(),
	}
}

func (s *SQLiteIndex) loop() {
	ctx := context.Background()

	insertFrame, _ := s.db.Prepare(`INSERT OR REPLACE INTO frames(run_id,frame,cx,cy,cz,built,decorated,queued,uploaded,stale,evicted,duration_ms,raw_json) VALUES(?,?,?,?,?,?,?,?,?,?,?,?,?)`)
	insertEvent, _ := s.db.Prepare(`INSERT OR REPLACE INTO chunk_events(run_id,frame,seq,kind,cx,cy,cz,from_status,to_status,version,vertices) VALUES(?,?,?,?,?,?,?,?,?,?,?)`)
	defer func() {
		if insertFrame != nil {
			_ = insertFrame.Close()
		}
		if insertEvent != nil {
			_ = insertEvent.Close()
		}
	}()

	var (
		tx            *sql.Tx
		opCount       int
		lastCommit    = time.Now()
		commitEvery   = 2000
		commitMaxWait = 2 * time.Second

		lastEventFrame uint64
		eventSeq       int
	)

	begin := func() {
		if tx != nil {
			return
		}
		txx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			time.Sleep(50 * time.Millisecond)
			return
		}
		tx = txx
		opCount = 0
		lastCommit = time.Now()
	}
	commit := func() {
		if tx == nil {
			return
		}
		_ = tx.Commit()
		tx = nil
		opCount = 0
		lastCommit = time.Now()
	}
	rollback := func() {
		if tx == nil {
			return
		}
		_ = tx.Rollback()
		tx = nil
		opCount = 0
		lastCommit = time.Now()
	}

	for r := range s.ch {
		begin()
		if tx == nil {
			continue
		}
		switch r.kind {
		case reqFrame:
			f := r.frame
			if insertFrame == nil {
				continue
			}
			raw, _ := json.Marshal(f)
			if _, err := tx.Stmt(insertFrame).Exec(
				s.runID,
				int64(f.Frame),
				f.Observer.X, f.Observer.Y, f.Observer.Z,
				f.Built,
				f.Decorated,
				f.Queued,
				f.Uploaded,
				f.Stale,
				f.Evicted,
				f.DurationMS,
				string(raw),
			); err != nil {
				rollback()
				continue
			}

		case reqEvent:
			e := r.event
			if insertEvent == nil {
				continue
			}
			if e.Frame != lastEventFrame {
				lastEventFrame = e.Frame
				eventSeq = 0
			}
			seq := eventSeq
			eventSeq++
			if _, err := tx.Stmt(insertEvent).Exec(
				s.runID,
				int64(e.Frame),
				seq,
				string(e.Kind),
				e.Pos.X, e.Pos.Y, e.Pos.Z,
				e.From,
				e.To,
				int64(e.Version),
				e.Vertices,
			); err != nil {
				rollback()
				continue
			}
		}
		opCount++
		s.written.Add(1)
		if opCount >= commitEvery || time.Since(lastCommit) >= commitMaxWait {
			commit()
		}
	}

	commit()
}

// ChunkHistory returns the event kinds recorded for pos in frame order.
func (s *SQLiteIndex) ChunkHistory(runID string, pos voxel.ChunkPos) ([]string, error) {
	rows, err := s.db.Query(`SELECT kind FROM chunk_events WHERE run_id=? AND cx=? AND cy=? AND cz=? ORDER BY frame, seq`,
		runID, pos.X, pos.Y, pos.Z)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, err
		}
		out = append(out, k)
	}
	return out, rows.Err()
}
