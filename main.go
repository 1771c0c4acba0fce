package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"

	"github.com/andrew-shc/Matrixagon2/engine/config"
	"github.com/andrew-shc/Matrixagon2/engine/util"
	"github.com/pkg/errors"
	"golang.org/x/term"
)

func main() {
	var (
		configPath   = flag.String("config", "", "YAML config path (defaults to $"+config.EnvConfigPath+")")
		fidelity     = flag.String("fidelity", "", "fidelity preset: extreme, high, mid")
		border       = flag.String("border", "", "outer border policy: open or stitch")
		workers      = flag.Int("workers", 0, "chunks meshed in parallel, 0 for unlimited")
		merge        = flag.Bool("merge", false, "merge coplanar faces of equal material")
		verify       = flag.Bool("verify", false, "check height bounds against the voxels before scanning")
		fullScan     = flag.Bool("full-scan", false, "scan every y layer, ignoring height bounds")
		seed         = flag.Int64("seed", 0, "terrain seed")
		chunks       = flag.String("chunks", "", "terrain size in chunks, WxHxD")
		construction = flag.String("construction", "", "import an Amulet .construction file instead of generating terrain")
		load         = flag.String("load", "", "load a saved map instead of generating terrain")
		save         = flag.String("save", "", "save the map to this file")
		gltfPath     = flag.String("gltf", "", "export meshes to .gltf or .glb")
		metricsAddr  = flag.String("metrics", "", "serve Prometheus metrics on this address")
		layer        = flag.Int("layer", -1, "print this y layer of the map before meshing")
		logLevel     = flag.String("log", "", "log level: error, warning, info, debug")
	)
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(2)
	}
	set := make(map[string]bool)
	flag.Visit(func(f *flag.Flag) { set[f.Name] = true })
	if set["fidelity"] {
		cfg.Mesher.Fidelity = *fidelity
	}
	if set["border"] {
		cfg.Mesher.Border = *border
	}
	if set["workers"] {
		cfg.Mesher.Workers = *workers
	}
	if set["merge"] {
		cfg.Mesher.MergeRuns = *merge
	}
	if set["verify"] {
		cfg.Mesher.VerifyBounds = *verify
	}
	if set["full-scan"] {
		cfg.Mesher.FullScan = *fullScan
	}
	if set["seed"] {
		cfg.Terrain.Seed = *seed
	}
	if set["chunks"] {
		dims, err := parseDimensions(*chunks)
		if err != nil {
			fmt.Fprintln(os.Stderr, "chunks:", err)
			os.Exit(2)
		}
		cfg.Terrain.Chunks = dims
	}
	if set["log"] {
		cfg.Log.Level = *logLevel
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(2)
	}
	level, err := util.ParseLogLevel(cfg.Log.Level)
	if err != nil {
		fmt.Fprintln(os.Stderr, "log:", err)
		os.Exit(2)
	}
	util.GLOBAL_LOG_LEVEL = level

	app, err := newMesherApp(cfg, os.Stdout)
	if err != nil {
		fmt.Fprintln(os.Stderr, "mesher:", err)
		os.Exit(2)
	}
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()
	err = app.run(ctx, runOptions{
		construction: *construction,
		load:         *load,
		save:         *save,
		gltf:         *gltfPath,
		metricsAddr:  *metricsAddr,
		layer:        *layer,
		pretty:       term.IsTerminal(int(os.Stdout.Fd())),
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, "mesher:", err)
		os.Exit(1)
	}
}

func parseDimensions(s string) ([3]int, error) {
	var dims [3]int
	parts := strings.Split(strings.ToLower(s), "x")
	if len(parts) != 3 {
		return dims, errors.Errorf("expected WxHxD, got %q", s)
	}
	for i, part := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil || n < 1 {
			return dims, errors.Errorf("invalid dimension %q in %q", part, s)
		}
		dims[i] = n
	}
	return dims, nil
}
