package main

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/santhosh-tekuri/jsonschema/v5"

	"voxelstream.ai/internal/persistence/indexdb"
	"voxelstream.ai/internal/render"
	"voxelstream.ai/internal/sim/stream"
	"voxelstream.ai/internal/sim/tuning"
	"voxelstream.ai/internal/transport/viewer"
)

func TestObserverPathMovesAlongHeading(t *testing.T) {
	began := time.Unix(100, 0)
	p := newObserverPath(tuning.Observer{Start: [3]float32{1, 40, 2}, Speed: 4, HeadingDeg: 90}, began)
	got := p.At(began.Add(2 * time.Second))
	want := mgl32.Vec3{9, 40, 2}
	if !got.ApproxEqualThreshold(want, 1e-4) {
		t.Fatalf("pos=%v want %v", got, want)
	}
	if stream.ObserverChunk(got).X != 0 {
		t.Fatalf("chunk=%v", stream.ObserverChunk(got))
	}
}

func TestBootstrapMatchesSchema(t *testing.T) {
	s, err := jsonschema.Compile(filepath.Join("..", "..", "schemas", "viewer", "bootstrap.schema.json"))
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	b, _ := json.Marshal(bootstrap("run-1", tuning.Defaults()))
	var doc any
	_ = json.Unmarshal(b, &doc)
	if err := s.Validate(doc); err != nil {
		t.Fatalf("validate: %v", err)
	}
	if l := vertexLayout(); l.Face != [2]int{22, 3} || l.Voxel != [2]int{0, 4} {
		t.Fatalf("layout=%+v", l)
	}
}

func TestWriteMetrics(t *testing.T) {
	var buf bytes.Buffer
	m := stream.Metrics{Frame: 12, UploadsTotal: 5}
	m.World.Clean = 3
	writeMetrics(&buf, "r", m, render.HeadlessStats{Buffers: 2}, viewer.Stats{}, &indexdb.Stats{DropEventTotal: 4})
	out := buf.String()
	for _, line := range []string{
		`voxelstream_frame{run="r"} 12`,
		`voxelstream_chunks{run="r",status="clean"} 3`,
		`voxelstream_mesh_results_total{run="r",outcome="uploaded"} 5`,
		`voxelstream_gpu_buffers{run="r"} 2`,
		`voxelstream_index_dropped_total{run="r",kind="event"} 4`,
	} {
		if !strings.Contains(out, line+"\n") {
			t.Fatalf("missing %q in:\n%s", line, out)
		}
	}
}

func TestMultiSinkFansOut(t *testing.T) {
	a, b := &countSink{}, &countSink{}
	m := multiSink{frames: []stream.FrameSink{a, b}, events: []stream.EventSink{a}}
	_ = m.WriteFrame(stream.FrameLogEntry{})
	_ = m.WriteEvent(stream.Event{})
	if a.frames != 1 || b.frames != 1 || a.events != 1 || b.events != 0 {
		t.Fatalf("a=%+v b=%+v", a, b)
	}
}

type countSink struct{ frames, events int }

func (c *countSink) WriteFrame(stream.FrameLogEntry) error { c.frames++; return nil }
func (c *countSink) WriteEvent(stream.Event) error         { c.events++; return nil }
