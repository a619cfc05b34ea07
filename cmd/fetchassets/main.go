// Command fetchassets downloads a tuning preset bundle (a directory holding
// tuning.yaml) from any go-getter source and checks that it loads.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	get "github.com/hashicorp/go-getter"

	"voxelstream.ai/internal/sim/tuning"
)

func main() {
	var (
		src  = flag.String("src", "", "go-getter source, e.g. git::https://example.com/presets.git//mountains")
		out  = flag.String("o", "./configs/presets", "output dir path")
		name = flag.String("name", "", "preset name (default: last path element of -src)")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[fetchassets] ", log.LstdFlags|log.Lmicroseconds)
	if *src == "" {
		fmt.Fprintln(os.Stderr, "missing -src")
		os.Exit(2)
	}
	preset := *name
	if preset == "" {
		preset = presetName(*src)
	}
	path := filepath.Join(*out, preset)

	if err := os.RemoveAll(path); err != nil {
		logger.Fatalf("clear %s: %v", path, err)
	}
	logger.Printf("start downloading preset %s", path)
	if err := get.Get(path, *src); err != nil {
		logger.Fatalf("download: %v", err)
	}

	tp := filepath.Join(path, "tuning.yaml")
	tune, err := tuning.Load(tp)
	if err != nil {
		logger.Fatalf("preset %s: %v", preset, err)
	}
	logger.Printf("done preset=%s seed=%d render_distance=%d mesher=%s", preset, tune.Seed, tune.RenderDistance, tune.Mesher)
}

// presetName derives a directory name from a go-getter source string.
func presetName(src string) string {
	s := src
	if i := strings.LastIndex(s, "?"); i >= 0 {
		s = s[:i]
	}
	s = strings.TrimRight(s, "/")
	if i := strings.LastIndex(s, "/"); i >= 0 {
		s = s[i+1:]
	}
	s = strings.TrimSuffix(s, ".git")
	if s == "" {
		return "preset"
	}
	return s
}
