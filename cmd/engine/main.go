package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"net/http"
	"net/http/pprof"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"strings"
	"syscall"
	"time"

	"github.com/faiface/mainthread"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"

	persistlog "voxelstream.ai/internal/persistence/log"
	"voxelstream.ai/internal/persistence/indexdb"
	"voxelstream.ai/internal/render"
	"voxelstream.ai/internal/sim/chunk"
	"voxelstream.ai/internal/sim/mesh"
	"voxelstream.ai/internal/sim/stream"
	"voxelstream.ai/internal/sim/tuning"
	"voxelstream.ai/internal/sim/voxel"
	"voxelstream.ai/internal/sim/world"
	"voxelstream.ai/internal/sim/worldgen"
	"voxelstream.ai/internal/transport/viewer"
	"voxelstream.ai/internal/viewerproto"
)

func main() {
	mainthread.Run(run)
}

func run() {
	var (
		addr       = flag.String("addr", "127.0.0.1:8080", "http listen address")
		configDir  = flag.String("configs", "./configs", "config directory")
		tuningPath = flag.String("tuning", "", "path to tuning.yaml (default: <configs>/tuning.yaml)")
		dataDir    = flag.String("data", "./data", "runtime data directory")
		seed       = flag.Int64("seed", 0, "override tuning seed (0 keeps the configured seed)")
		disableDB  = flag.Bool("disable_db", false, "disable the sqlite run index")
		disableLog = flag.Bool("disable_log", false, "disable compressed frame/event logs")
		duration   = flag.Duration("duration", 0, "stop after this long (0 runs until interrupted)")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[engine] ", log.LstdFlags|log.Lmicroseconds)

	tp := strings.TrimSpace(*tuningPath)
	if tp == "" {
		tp = filepath.Join(*configDir, "tuning.yaml")
	}
	tune, err := tuning.Load(tp)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Fatalf("load tuning: %v", err)
		}
		logger.Printf("tuning not found (%s); using defaults", tp)
		tune = tuning.Defaults()
	}
	if *seed != 0 {
		tune.Seed = *seed
	}

	var idx *indexdb.SQLiteIndex
	runID := uuid.NewString()
	if !*disableDB {
		idx, err = indexdb.OpenSQLite(filepath.Join(*dataDir, "index", "runs.sqlite"))
		if err != nil {
			logger.Fatalf("open index: %v", err)
		}
		defer idx.Close()
		if runID, err = idx.BeginRun(tune.Seed, tune); err != nil {
			logger.Fatalf("register run: %v", err)
		}
	}
	runDir := filepath.Join(*dataDir, "runs", runID)
	logger.Printf("run=%s seed=%d render_distance=%d mesher=%s", runID, tune.Seed, tune.RenderDistance, tune.Mesher)

	sinks := multiSink{}
	if !*disableLog {
		frameLog := persistlog.NewFrameLogger(runDir)
		eventLog := persistlog.NewEventLogger(runDir)
		defer frameLog.Close()
		defer eventLog.Close()
		sinks.frames = append(sinks.frames, frameLog)
		sinks.events = append(sinks.events, eventLog)
	}
	if idx != nil {
		sinks.frames = append(sinks.frames, idx)
		sinks.events = append(sinks.events, idx)
	}

	terrain := worldgen.NewTerrain(tune.Seed, tune.BaseHeight, tune.Octaves)
	w := world.New(world.WorldConfig{
		RenderDistance: tune.RenderDistance,
		MaxResident:    tune.MaxResidentChunks,
		Bands:          tune.Terrain,
	}, terrain.Height, worldgen.Hash)

	build, _ := mesh.ByName(tune.Mesher)
	mesher := mesh.NewWorker(build, workers(tune.MeshWorkers), tune.MeshBacklog)

	gpu := render.NewHeadless()
	scene := render.NewScene(gpu)
	viewSrv := viewer.NewServer(bootstrap(runID, tune), logger)
	scene.AddListener(viewSrv)

	ctx, cancel := signalContext()
	defer cancel()
	if *duration > 0 {
		var stop context.CancelFunc
		ctx, stop = context.WithTimeout(ctx, *duration)
		defer stop()
	}

	path := newObserverPath(tune.Observer, time.Now())
	var drawn int
	streamer := stream.New(stream.Config{
		FrameRateHz:        tune.FrameRateHz,
		MaxUploadsPerFrame: tune.MaxUploadsPerFrame,
		BuildWorkers:       tune.BuildWorkers,
	}, w, mesher, scene, stream.Options{
		Logger:       logger,
		RenderThread: mainthread.Call,
		Frames:       sinks,
		Events:       sinks,
		OnFrame: func(stream.FrameLogEntry) {
			eye := path.At(time.Now())
			view, proj := camera(eye, path.Forward(), tune.RenderDistance)
			mainthread.Call(func() {
				n, err := scene.Draw(view, proj, render.WithinDistance(eye, float32((tune.RenderDistance+1)*chunk.Size)))
				if err != nil {
					logger.Printf("draw: %v", err)
				}
				drawn = n
			})
		},
	})
	defer streamer.Close()

	meshDone := make(chan struct{})
	go func() {
		defer close(meshDone)
		mesher.Run(ctx)
	}()

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(rw http.ResponseWriter, r *http.Request) {
		rw.WriteHeader(200)
		_, _ = rw.Write([]byte("ok"))
	})
	mux.HandleFunc("/metrics", func(rw http.ResponseWriter, r *http.Request) {
		rw.Header().Set("Content-Type", "text/plain; version=0.0.4")
		var idxStats *indexdb.Stats
		if idx != nil {
			st := idx.Stats()
			idxStats = &st
		}
		writeMetrics(rw, runID, streamer.Metrics(), gpu.Stats(), viewSrv.Stats(), idxStats)
	})
	mux.HandleFunc("/admin/v1/state", func(rw http.ResponseWriter, r *http.Request) {
		if !viewer.IsLoopbackRemote(r.RemoteAddr) {
			http.Error(rw, "forbidden", http.StatusForbidden)
			return
		}
		rw.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(rw).Encode(struct {
			RunID   string         `json:"run_id"`
			Metrics stream.Metrics `json:"metrics"`
			Scene   int            `json:"scene_meshes"`
			Viewer  viewer.Stats   `json:"viewer"`
		}{RunID: runID, Metrics: streamer.Metrics(), Scene: scene.Len(), Viewer: viewSrv.Stats()})
	})
	mux.HandleFunc("/viewer/bootstrap", viewSrv.BootstrapHandler())
	mux.HandleFunc("/viewer/ws", viewSrv.WSHandler())
	if envBool("VS_ENABLE_PPROF_HTTP", false) {
		mux.HandleFunc("/debug/pprof/", pprof.Index)
		mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
		mux.HandleFunc("/debug/pprof/trace", pprof.Trace)
	}

	srv := &http.Server{
		Addr:              *addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel2()
		_ = srv.Shutdown(ctx2)
	}()
	go func() {
		logger.Printf("listening on %s", *addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Printf("ListenAndServe: %v", err)
			cancel()
		}
	}()

	streamer.Run(ctx, func() mgl32.Vec3 { return path.At(time.Now()) })
	<-meshDone

	m := streamer.Metrics()
	logger.Printf("stopped frame=%d resident=%d clean=%d uploads=%d stale=%d drawn=%d",
		m.Frame, m.World.Resident, m.World.Clean, m.UploadsTotal, m.StaleTotal, drawn)
}

func workers(n int) int {
	if n <= 0 {
		return runtime.NumCPU()
	}
	return n
}

func bootstrap(runID string, tune tuning.Tuning) viewerproto.BootstrapResponse {
	palette := []string{voxel.Empty.String()}
	for _, v := range voxel.Kinds {
		palette = append(palette, v.String())
	}
	return viewerproto.BootstrapResponse{
		ProtocolVersion: viewerproto.Version,
		RunID:           runID,
		Params: viewerproto.StreamParams{
			ChunkSize:      chunk.Size,
			RenderDistance: tune.RenderDistance,
			FrameRateHz:    tune.FrameRateHz,
			Seed:           tune.Seed,
			Mesher:         tune.Mesher,
		},
		VoxelPalette: palette,
		Layout:       vertexLayout(),
	}
}

func vertexLayout() viewerproto.VertexLayout {
	l := mesh.Layout()
	return viewerproto.VertexLayout{Voxel: l.Voxel, Z: l.Z, Y: l.Y, X: l.X, Face: l.Face}
}

func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	ch := make(chan os.Signal, 2)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-ch
		cancel()
	}()
	return ctx, cancel
}

func envBool(key string, def bool) bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(key))) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	}
	return def
}

type multiSink struct {
	frames []stream.FrameSink
	events []stream.EventSink
}

func (m multiSink) WriteFrame(e stream.FrameLogEntry) error {
	for _, s := range m.frames {
		_ = s.WriteFrame(e)
	}
	return nil
}

func (m multiSink) WriteEvent(e stream.Event) error {
	for _, s := range m.events {
		_ = s.WriteEvent(e)
	}
	return nil
}
