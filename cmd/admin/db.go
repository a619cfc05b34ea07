package main

import (
	"database/sql"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	_ "modernc.org/sqlite"

	"voxelstream.ai/internal/sim/voxel"
)

func dbCmd(args []string) {
	fs := flag.NewFlagSet("db", flag.ExitOnError)
	dataDir := fs.String("data", "./data", "runtime data directory")
	dbPath := fs.String("db", "", "sqlite db path (default: <data>/index/runs.sqlite)")
	runID := fs.String("run", "", "run id (default: latest run)")
	pos := fs.String("pos", "", "chunk coordinate x,y,z (chunk query)")
	limit := fs.Int("limit", 20, "result limit")
	_ = fs.Parse(args)

	q := "runs"
	if fs.NArg() > 0 {
		q = strings.TrimSpace(fs.Arg(0))
	}
	path := strings.TrimSpace(*dbPath)
	if path == "" {
		path = filepath.Join(*dataDir, "index", "runs.sqlite")
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		fmt.Fprintln(os.Stderr, "open:", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := runQuery(os.Stdout, db, q, *runID, *pos, *limit); err != nil {
		fmt.Fprintln(os.Stderr, q+":", err)
		os.Exit(1)
	}
}

func runQuery(w io.Writer, db *sql.DB, q, runID, pos string, limit int) error {
	if limit <= 0 {
		limit = 20
	}
	if q != "runs" && runID == "" {
		id, err := latestRun(db)
		if err != nil {
			return err
		}
		runID = id
	}

	switch q {
	case "runs":
		rows, err := db.Query(`SELECT run_id,seed,tuning_digest,started_at FROM runs ORDER BY started_at DESC LIMIT ?`, limit)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			var r struct {
				RunID     string `json:"run_id"`
				Seed      int64  `json:"seed"`
				Digest    string `json:"tuning_digest"`
				StartedAt string `json:"started_at"`
			}
			if err := rows.Scan(&r.RunID, &r.Seed, &r.Digest, &r.StartedAt); err != nil {
				return err
			}
			writeJSON(w, r)
		}
		return rows.Err()

	case "frames":
		rows, err := db.Query(`SELECT frame,cx,cy,cz,built,decorated,queued,uploaded,stale,evicted,duration_ms FROM frames WHERE run_id=? ORDER BY frame DESC LIMIT ?`, runID, limit)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			var r struct {
				Frame      int64   `json:"frame"`
				Observer   [3]int  `json:"observer"`
				Built      int     `json:"built"`
				Decorated  int     `json:"decorated"`
				Queued     int     `json:"queued"`
				Uploaded   int     `json:"uploaded"`
				Stale      int     `json:"stale"`
				Evicted    int     `json:"evicted"`
				DurationMS float64 `json:"duration_ms"`
			}
			if err := rows.Scan(&r.Frame, &r.Observer[0], &r.Observer[1], &r.Observer[2],
				&r.Built, &r.Decorated, &r.Queued, &r.Uploaded, &r.Stale, &r.Evicted, &r.DurationMS); err != nil {
				return err
			}
			writeJSON(w, r)
		}
		return rows.Err()

	case "chunk":
		p, err := parsePos(pos)
		if err != nil {
			return err
		}
		rows, err := db.Query(`SELECT frame,seq,kind,from_status,to_status,version,vertices FROM chunk_events WHERE run_id=? AND cx=? AND cy=? AND cz=? ORDER BY frame,seq LIMIT ?`,
			runID, p.X, p.Y, p.Z, limit)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			var r struct {
				Frame    int64  `json:"frame"`
				Seq      int    `json:"seq"`
				Kind     string `json:"kind"`
				From     string `json:"from,omitempty"`
				To       string `json:"to,omitempty"`
				Version  int64  `json:"version"`
				Vertices int    `json:"vertices"`
			}
			var from, to sql.NullString
			if err := rows.Scan(&r.Frame, &r.Seq, &r.Kind, &from, &to, &r.Version, &r.Vertices); err != nil {
				return err
			}
			r.From, r.To = from.String, to.String
			writeJSON(w, r)
		}
		return rows.Err()
	}
	return fmt.Errorf("unknown query %q (want runs, frames or chunk)", q)
}

func latestRun(db *sql.DB) (string, error) {
	var id string
	err := db.QueryRow(`SELECT run_id FROM runs ORDER BY started_at DESC LIMIT 1`).Scan(&id)
	if err == sql.ErrNoRows {
		return "", fmt.Errorf("no runs recorded")
	}
	return id, err
}

func parsePos(s string) (voxel.ChunkPos, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 3 {
		return voxel.ChunkPos{}, fmt.Errorf("bad -pos %q, want x,y,z", s)
	}
	var v [3]int
	for i, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return voxel.ChunkPos{}, fmt.Errorf("bad -pos %q: %w", s, err)
		}
		v[i] = n
	}
	return voxel.ChunkPos{X: v[0], Y: v[1], Z: v[2]}, nil
}

func writeJSON(w io.Writer, v any) {
	b, _ := json.Marshal(v)
	fmt.Fprintln(w, string(b))
}
