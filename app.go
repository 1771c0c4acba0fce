package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/andrew-shc/Matrixagon2/engine/config"
	"github.com/andrew-shc/Matrixagon2/engine/export"
	"github.com/andrew-shc/Matrixagon2/engine/terrain"
	"github.com/andrew-shc/Matrixagon2/engine/util"
	"github.com/andrew-shc/Matrixagon2/engine/voxel"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// runOptions holds what the command line asks for beyond the config file.
type runOptions struct {
	construction string
	load         string
	save         string
	gltf         string
	metricsAddr  string
	layer        int
	pretty       bool
}

type mesherApp struct {
	cfg     *config.Config
	reg     *voxel.Registry
	opts    voxel.MeshOptions
	timer   *util.Timer
	metrics *prometheus.Registry
	out     io.Writer
}

func newMesherApp(cfg *config.Config, out io.Writer) (*mesherApp, error) {
	reg := voxel.DefaultRegistry()
	opts, err := cfg.MeshOptions(reg)
	if err != nil {
		return nil, err
	}
	metrics := prometheus.NewRegistry()
	opts.Metrics = voxel.NewMeshMetrics(metrics)
	return &mesherApp{
		cfg:     cfg,
		reg:     reg,
		opts:    opts,
		timer:   util.NewTimer(),
		metrics: metrics,
		out:     out,
	}, nil
}

func (a *mesherApp) run(ctx context.Context, ro runOptions) error {
	if ro.metricsAddr != "" {
		a.serveMetrics(ro.metricsAddr)
	}
	voxelMap, err := a.loadMap(ctx, ro)
	if err != nil {
		return err
	}
	if ro.layer >= 0 {
		if err := voxelMap.WriteLayer(a.out, int32(ro.layer), a.opts.Fidelity.Predicate()); err != nil {
			return err
		}
	}

	stop := a.timer.Start("mesh")
	report, err := voxelMap.MeshAll(ctx, a.opts, a.cfg.Mesher.Workers)
	stop()
	if err != nil {
		return err
	}
	for position, failure := range report.Failures {
		util.LogVoxelWarning(fmt.Sprintf("[Mesher] chunk %s: %v", position.ToString(), failure))
	}

	if ro.save != "" {
		stop = a.timer.Start("save")
		err = voxelMap.SaveToDisk(ro.save)
		stop()
		if err != nil {
			return err
		}
	}
	if ro.gltf != "" {
		stop = a.timer.Start("export")
		doc := export.NewDocument(a.reg)
		doc.AddReport(report, voxelMap.ChunkSize())
		err = doc.Save(ro.gltf)
		stop()
		if err != nil {
			return err
		}
	}
	a.printSummary(voxelMap, report, ro.pretty)
	if len(report.Failures) > 0 {
		return errors.Errorf("%d chunks violated the mesher contract", len(report.Failures))
	}
	return nil
}

func (a *mesherApp) loadMap(ctx context.Context, ro runOptions) (*voxel.Map, error) {
	size := a.opts.Fidelity.ChunkSize
	switch {
	case ro.load != "":
		defer a.timer.Start("load")()
		m, err := voxel.NewMapFromFile(ro.load)
		if err != nil {
			return nil, err
		}
		if m.ChunkSize() != size {
			return nil, errors.Errorf("%s uses chunk edge %d, fidelity %q expects %d", ro.load, m.ChunkSize(), a.opts.Fidelity.Name, size)
		}
		return m, nil
	case ro.construction != "":
		defer a.timer.Start("import")()
		construction, err := voxel.LoadConstruction(ro.construction)
		if err != nil {
			return nil, err
		}
		util.LogIOInfo(fmt.Sprintf("[Import] Blocks used: %s", strings.Join(voxel.BlocksNeededByConstruction(construction), ", ")))
		return voxel.NewMapFromConstruction(a.reg, construction, size)
	default:
		defer a.timer.Start("generate")()
		generator, err := terrain.NewGenerator(a.cfg.Terrain.Seed, a.reg)
		if err != nil {
			return nil, err
		}
		c := a.cfg.Terrain.Chunks
		m := voxel.NewMap(int32(c[0]), int32(c[1]), int32(c[2]), size)
		if err := generator.GenerateMap(ctx, m, a.cfg.Mesher.Workers); err != nil {
			return nil, err
		}
		return m, nil
	}
}

func (a *mesherApp) serveMetrics(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(a.metrics, promhttp.HandlerOpts{}))
	server := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		util.LogSystemInfo(fmt.Sprintf("[Metrics] Serving on %s/metrics", addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			util.LogSystemError(fmt.Sprintf("[Metrics] %v", err))
		}
	}()
}

func (a *mesherApp) printSummary(m *voxel.Map, report *voxel.MeshReport, pretty bool) {
	var sides [voxel.FACE_TYPE_COUNT]int
	for _, mesh := range report.Meshes {
		counts := mesh.CountBySide()
		for i := range sides {
			sides[i] += counts[i]
		}
	}
	if !pretty {
		fmt.Fprintf(a.out, "fidelity=%s border=%s chunks=%d failed=%d faces=%d triangles=%d\n",
			a.opts.Fidelity.Name, a.opts.Border, len(report.Meshes), len(report.Failures), report.FaceCount(), report.TriangleCount())
		return
	}
	w := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "fidelity\t%s (edge %d)\n", a.opts.Fidelity.Name, a.opts.Fidelity.ChunkSize)
	fmt.Fprintf(w, "border\t%s\n", a.opts.Border)
	fmt.Fprintf(w, "map\t%s chunks\n", m.Dimensions().ToString())
	fmt.Fprintf(w, "meshed\t%d (%d failed)\n", len(report.Meshes), len(report.Failures))
	for _, side := range voxel.AllFaceTypes() {
		fmt.Fprintf(w, "faces %s\t%d\n", side, sides[side])
	}
	fmt.Fprintf(w, "triangles\t%d\n", report.TriangleCount())
	w.Flush()
	fmt.Fprint(a.out, a.timer.String())
}
