package indexdb

import (
	"database/sql"
	"path/filepath"
	"slices"
	"testing"

	_ "modernc.org/sqlite"

	"voxelstream.ai/internal/sim/stream"
	"voxelstream.ai/internal/sim/voxel"
)

func TestSQLiteIndex_FramesAndEvents(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "index.db")

	idx, err := OpenSQLite(path)
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	runID, err := idx.BeginRun(42, map[string]int{"render_distance": 4})
	if err != nil {
		t.Fatalf("BeginRun: %v", err)
	}
	pos := voxel.ChunkPos{X: 1, Y: 0, Z: -2}
	_ = idx.WriteEvent(stream.Event{Frame: 1, Kind: stream.EventBuild, Pos: pos})
	_ = idx.WriteEvent(stream.Event{Frame: 1, Kind: stream.EventQueue, Pos: pos, Version: 2})
	_ = idx.WriteEvent(stream.Event{Frame: 3, Kind: stream.EventUpload, Pos: pos, Version: 2, Vertices: 36})
	_ = idx.WriteFrame(stream.FrameLogEntry{Frame: 1, Observer: pos, Built: 125})
	if err := idx.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("sql.Open: %v", err)
	}
	defer db.Close()

	var (
		seed  int64
		built int
		cx    int
	)
	if err := db.QueryRow(`SELECT seed FROM runs WHERE run_id=?`, runID).Scan(&seed); err != nil {
		t.Fatalf("runs: %v", err)
	}
	if err := db.QueryRow(`SELECT built,cx FROM frames WHERE run_id=? AND frame=1`, runID).Scan(&built, &cx); err != nil {
		t.Fatalf("frames: %v", err)
	}
	if seed != 42 || built != 125 || cx != 1 {
		t.Fatalf("row mismatch: seed=%d built=%d cx=%d", seed, built, cx)
	}

	idx2, err := OpenSQLite(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer idx2.Close()
	hist, err := idx2.ChunkHistory(runID, pos)
	if err != nil {
		t.Fatalf("ChunkHistory: %v", err)
	}
	if !slices.Equal(hist, []string{"BUILD", "QUEUE", "UPLOAD"}) {
		t.Fatalf("history=%v", hist)
	}
}

func TestSQLiteIndex_QueueDropStats(t *testing.T) {
	s := &SQLiteIndex{ch: make(chan req, 1)}
	s.ch <- req{kind: reqFrame}

	_ = s.WriteFrame(stream.FrameLogEntry{Frame: 2})
	_ = s.WriteEvent(stream.Event{Frame: 2})
	_ = s.WriteEvent(stream.Event{Frame: 2})

	st := s.Stats()
	if st.DropFrameTotal != 1 {
		t.Fatalf("DropFrameTotal=%d want=1", st.DropFrameTotal)
	}
	if st.DropEventTotal != 2 {
		t.Fatalf("DropEventTotal=%d want=2", st.DropEventTotal)
	}
	if st.QueueDepth != 1 || st.QueueCapacity != 1 {
		t.Fatalf("queue stats mismatch: depth=%d cap=%d", st.QueueDepth, st.QueueCapacity)
	}
}

func TestSQLiteIndex_NilAndClosedAreNoops(t *testing.T) {
	var s *SQLiteIndex
	if err := s.WriteFrame(stream.FrameLogEntry{}); err != nil {
		t.Fatalf("nil WriteFrame: %v", err)
	}
	idx, err := openSQLite(filepath.Join(t.TempDir(), "i.db"), 4)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	_ = idx.Close()
	_ = idx.Close()
	if err := idx.WriteEvent(stream.Event{}); err != nil {
		t.Fatalf("closed WriteEvent: %v", err)
	}
}
