package log

import (
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"voxelstream.ai/internal/sim/stream"
	"voxelstream.ai/internal/sim/voxel"
)

func TestFrameLoggerRoundTrip(t *testing.T) {
	dir := t.TempDir()
	l := NewFrameLogger(dir)
	for i := uint64(1); i <= 3; i++ {
		if err := l.WriteFrame(stream.FrameLogEntry{Frame: i, Built: int(i) * 10}); err != nil {
			t.Fatalf("write: %v", err)
		}
	}
	if err := l.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	files, err := Files(filepath.Join(dir, "frames"), "frames")
	if err != nil || len(files) != 1 {
		t.Fatalf("files=%v err=%v", files, err)
	}
	var got []stream.FrameLogEntry
	err = ReadFile(files[0], func(line []byte) error {
		var e stream.FrameLogEntry
		if err := json.Unmarshal(line, &e); err != nil {
			return err
		}
		got = append(got, e)
		return nil
	})
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(got) != 3 || got[2].Frame != 3 || got[2].Built != 30 {
		t.Fatalf("got=%+v", got)
	}
}

func TestWriterRotatesHourly(t *testing.T) {
	dir := t.TempDir()
	w := NewJSONLZstdWriter(dir, "events")
	now := time.Date(2024, 1, 1, 10, 59, 0, 0, time.UTC)
	w.now = func() time.Time { return now }

	_ = w.Write(stream.Event{Kind: stream.EventBuild, Pos: voxel.ChunkPos{X: 1}})
	now = now.Add(2 * time.Minute)
	_ = w.Write(stream.Event{Kind: stream.EventEvict, Pos: voxel.ChunkPos{X: 1}})
	if err := w.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	files, _ := Files(dir, "events")
	if len(files) != 2 {
		t.Fatalf("files=%v", files)
	}
	if filepath.Base(files[0]) != "events-2024-01-01-10.jsonl.zst" {
		t.Fatalf("first=%s", files[0])
	}
	if w.Lines() != 2 {
		t.Fatalf("lines=%d", w.Lines())
	}
}

func TestReopenAppendsFrames(t *testing.T) {
	dir := t.TempDir()
	now := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	for i := 0; i < 2; i++ {
		w := NewJSONLZstdWriter(dir, "frames")
		w.now = func() time.Time { return now }
		if err := w.Write(stream.FrameLogEntry{Frame: uint64(i + 1)}); err != nil {
			t.Fatalf("write: %v", err)
		}
		if err := w.Close(); err != nil {
			t.Fatalf("close: %v", err)
		}
	}
	files, _ := Files(dir, "frames")
	n := 0
	if err := ReadFile(files[0], func([]byte) error { n++; return nil }); err != nil {
		t.Fatalf("read: %v", err)
	}
	if n != 2 {
		t.Fatalf("lines=%d want 2", n)
	}
}
