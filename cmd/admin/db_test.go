package main

import (
	"bytes"
	"database/sql"
	"path/filepath"
	"strings"
	"testing"

	_ "modernc.org/sqlite"

	"voxelstream.ai/internal/persistence/indexdb"
	"voxelstream.ai/internal/sim/stream"
	"voxelstream.ai/internal/sim/voxel"
)

func TestRunQueries(t *testing.T) {
	path := filepath.Join(t.TempDir(), "runs.sqlite")
	idx, err := indexdb.OpenSQLite(path)
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	runID, err := idx.BeginRun(7, struct{}{})
	if err != nil {
		t.Fatalf("BeginRun: %v", err)
	}
	p := voxel.ChunkPos{X: -1, Y: 0, Z: 2}
	_ = idx.WriteFrame(stream.FrameLogEntry{Frame: 1, Built: 27, Observer: p})
	_ = idx.WriteEvent(stream.Event{Frame: 1, Kind: stream.EventStatus, Pos: p, From: "clean", To: "dirty"})
	if err := idx.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer db.Close()

	var buf bytes.Buffer
	if err := runQuery(&buf, db, "runs", "", "", 5); err != nil || !strings.Contains(buf.String(), runID) {
		t.Fatalf("runs: %v %s", err, buf.String())
	}
	buf.Reset()
	if err := runQuery(&buf, db, "frames", "", "", 5); err != nil || !strings.Contains(buf.String(), `"built":27`) {
		t.Fatalf("frames: %v %s", err, buf.String())
	}
	buf.Reset()
	if err := runQuery(&buf, db, "chunk", runID, "-1,0,2", 5); err != nil || !strings.Contains(buf.String(), `"from":"clean"`) {
		t.Fatalf("chunk: %v %s", err, buf.String())
	}
	if err := runQuery(&buf, db, "bogus", runID, "", 5); err == nil {
		t.Fatalf("expected unknown query error")
	}
}

func TestParsePos(t *testing.T) {
	p, err := parsePos(" 1, -2,3")
	if err != nil || p != (voxel.ChunkPos{X: 1, Y: -2, Z: 3}) {
		t.Fatalf("pos=%v err=%v", p, err)
	}
	if _, err := parsePos("1,2"); err == nil {
		t.Fatalf("expected error")
	}
}
