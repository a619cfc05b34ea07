package main

import (
	"fmt"
	"io"

	"voxelstream.ai/internal/persistence/indexdb"
	"voxelstream.ai/internal/render"
	"voxelstream.ai/internal/sim/stream"
	"voxelstream.ai/internal/transport/viewer"
)

// writeMetrics renders the Prometheus text exposition format.
func writeMetrics(w io.Writer, runID string, m stream.Metrics, gpu render.HeadlessStats, vs viewer.Stats, idx *indexdb.Stats) {
	fmt.Fprintf(w, "# HELP voxelstream_frame Current frame number.\n")
	fmt.Fprintf(w, "# TYPE voxelstream_frame gauge\n")
	fmt.Fprintf(w, "voxelstream_frame{run=%q} %d\n", runID, m.Frame)

	fmt.Fprintf(w, "# HELP voxelstream_frame_ms Last frame update duration in milliseconds.\n")
	fmt.Fprintf(w, "# TYPE voxelstream_frame_ms gauge\n")
	fmt.Fprintf(w, "voxelstream_frame_ms{run=%q} %.3f\n", runID, m.FrameMS)

	fmt.Fprintf(w, "# HELP voxelstream_chunks Resident chunks by status.\n")
	fmt.Fprintf(w, "# TYPE voxelstream_chunks gauge\n")
	fmt.Fprintf(w, "voxelstream_chunks{run=%q,status=%q} %d\n", runID, "empty", m.World.Empty)
	fmt.Fprintf(w, "voxelstream_chunks{run=%q,status=%q} %d\n", runID, "terrain", m.World.Terrain)
	fmt.Fprintf(w, "voxelstream_chunks{run=%q,status=%q} %d\n", runID, "dirty", m.World.Dirty)
	fmt.Fprintf(w, "voxelstream_chunks{run=%q,status=%q} %d\n", runID, "clean", m.World.Clean)

	fmt.Fprintf(w, "# HELP voxelstream_mesh_queue Mesh jobs waiting and running.\n")
	fmt.Fprintf(w, "# TYPE voxelstream_mesh_queue gauge\n")
	fmt.Fprintf(w, "voxelstream_mesh_queue{run=%q,state=%q} %d\n", runID, "pending", m.MeshPending)
	fmt.Fprintf(w, "voxelstream_mesh_queue{run=%q,state=%q} %d\n", runID, "running", m.MeshRunning)
	fmt.Fprintf(w, "voxelstream_mesh_queue{run=%q,state=%q} %d\n", runID, "in_flight", m.World.InFlight)

	fmt.Fprintf(w, "# HELP voxelstream_vertices Vertices held by clean chunk meshes.\n")
	fmt.Fprintf(w, "# TYPE voxelstream_vertices gauge\n")
	fmt.Fprintf(w, "voxelstream_vertices{run=%q} %d\n", runID, m.World.Vertices)

	fmt.Fprintf(w, "# HELP voxelstream_decoration_edits Recorded decoration edits.\n")
	fmt.Fprintf(w, "# TYPE voxelstream_decoration_edits gauge\n")
	fmt.Fprintf(w, "voxelstream_decoration_edits{run=%q} %d\n", runID, m.World.Edits)

	fmt.Fprintf(w, "# HELP voxelstream_mesh_results_total Mesh results by outcome.\n")
	fmt.Fprintf(w, "# TYPE voxelstream_mesh_results_total counter\n")
	fmt.Fprintf(w, "voxelstream_mesh_results_total{run=%q,outcome=%q} %d\n", runID, "uploaded", m.UploadsTotal)
	fmt.Fprintf(w, "voxelstream_mesh_results_total{run=%q,outcome=%q} %d\n", runID, "stale", m.StaleTotal)
	fmt.Fprintf(w, "voxelstream_mesh_results_total{run=%q,outcome=%q} %d\n", runID, "error", m.ErrorsTotal)

	fmt.Fprintf(w, "# HELP voxelstream_evicted_total Chunks evicted from the world.\n")
	fmt.Fprintf(w, "# TYPE voxelstream_evicted_total counter\n")
	fmt.Fprintf(w, "voxelstream_evicted_total{run=%q} %d\n", runID, m.EvictTotal)

	fmt.Fprintf(w, "# HELP voxelstream_gpu_buffers Live vertex buffers.\n")
	fmt.Fprintf(w, "# TYPE voxelstream_gpu_buffers gauge\n")
	fmt.Fprintf(w, "voxelstream_gpu_buffers{run=%q} %d\n", runID, gpu.Buffers)
	fmt.Fprintf(w, "voxelstream_gpu_buffer_bytes{run=%q} %d\n", runID, gpu.BufferBytes)
	fmt.Fprintf(w, "voxelstream_gpu_draw_calls_total{run=%q} %d\n", runID, gpu.DrawCalls)

	fmt.Fprintf(w, "# HELP voxelstream_viewer_sessions Connected mesh viewers.\n")
	fmt.Fprintf(w, "# TYPE voxelstream_viewer_sessions gauge\n")
	fmt.Fprintf(w, "voxelstream_viewer_sessions{run=%q} %d\n", runID, vs.Sessions)
	fmt.Fprintf(w, "voxelstream_viewer_messages_total{run=%q,outcome=%q} %d\n", runID, "sent", vs.Sent)
	fmt.Fprintf(w, "voxelstream_viewer_messages_total{run=%q,outcome=%q} %d\n", runID, "dropped", vs.Dropped)

	if idx == nil {
		return
	}
	fmt.Fprintf(w, "# HELP voxelstream_index_queue_depth Run index writer backlog.\n")
	fmt.Fprintf(w, "# TYPE voxelstream_index_queue_depth gauge\n")
	fmt.Fprintf(w, "voxelstream_index_queue_depth{run=%q} %d\n", runID, idx.QueueDepth)
	fmt.Fprintf(w, "voxelstream_index_dropped_total{run=%q,kind=%q} %d\n", runID, "frame", idx.DropFrameTotal)
	fmt.Fprintf(w, "voxelstream_index_dropped_total{run=%q,kind=%q} %d\n", runID, "event", idx.DropEventTotal)
}
