// Command replay checks the frame and event logs of one engine run for
// scheduling violations.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	persistlog "voxelstream.ai/internal/persistence/log"
	"voxelstream.ai/internal/sim/stream"
)

func main() {
	var (
		runDir     = flag.String("run", "", "run directory containing frames/ and events/")
		maxUploads = flag.Int("max_uploads", 0, "per-frame upload budget to enforce (0 skips the check)")
		verbose    = flag.Bool("v", false, "print every violation instead of stopping at the first")
	)
	flag.Parse()

	if *runDir == "" {
		fmt.Fprintln(os.Stderr, "missing -run")
		os.Exit(2)
	}

	c := newChecker(*maxUploads)
	if err := readAll(filepath.Join(*runDir, "frames"), "frames", func(line []byte) error {
		var f stream.FrameLogEntry
		if err := json.Unmarshal(line, &f); err != nil {
			return err
		}
		return report(c.Frame(f), *verbose)
	}); err != nil {
		fmt.Fprintln(os.Stderr, "frames:", err)
		os.Exit(1)
	}
	if err := readAll(filepath.Join(*runDir, "events"), "events", func(line []byte) error {
		var e stream.Event
		if err := json.Unmarshal(line, &e); err != nil {
			return err
		}
		return report(c.Event(e), *verbose)
	}); err != nil {
		fmt.Fprintln(os.Stderr, "events:", err)
		os.Exit(1)
	}

	s := c.Summary()
	fmt.Printf("replay frames=%d events=%d chunks=%d uploads=%d stale=%d evicted=%d violations=%d\n",
		s.Frames, s.Events, s.Chunks, s.Uploads, s.Stale, s.Evicted, s.Violations)
	if s.Violations > 0 {
		os.Exit(1)
	}
}

func readAll(dir, prefix string, fn func([]byte) error) error {
	files, err := persistlog.Files(dir, prefix)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("no %s files found in %s", prefix, dir)
	}
	for _, path := range files {
		if err := persistlog.ReadFile(path, fn); err != nil {
			return fmt.Errorf("%s: %w", filepath.Base(path), err)
		}
	}
	return nil
}

func report(err error, verbose bool) error {
	if err == nil {
		return nil
	}
	if verbose {
		fmt.Fprintln(os.Stderr, "violation:", err)
		return nil
	}
	return err
}
