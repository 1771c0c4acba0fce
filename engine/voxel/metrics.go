package voxel

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	resultMeshed  = "meshed"
	resultSkipped = "skipped"
	resultFailed  = "failed"
)

// MeshMetrics is optional, a nil *MeshMetrics records nothing.
type MeshMetrics struct {
	chunks       *prometheus.CounterVec
	faces        *prometheus.CounterVec
	voxelsRead   prometheus.Counter
	rowsSkipped  prometheus.Counter
	meshDuration prometheus.Histogram
}

func NewMeshMetrics(reg prometheus.Registerer) *MeshMetrics {
	m := &MeshMetrics{
		chunks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "mesher",
			Name:      "chunks_total",
			Help:      "Chunks processed by the mesher, by result (meshed, skipped, failed).",
		}, []string{"result"}),
		faces: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "mesher",
			Name:      "faces_total",
			Help:      "Faces emitted, by side.",
		}, []string{"side"}),
		voxelsRead: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "mesher",
			Name:      "voxels_read_total",
			Help:      "Voxels visited by the axis passes.",
		}),
		rowsSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "mesher",
			Name:      "height_rows_skipped_total",
			Help:      "Y layers left out of the scan by the height bound restriction.",
		}),
		meshDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "mesher",
			Name:      "chunk_duration_seconds",
			Help:      "Time to mesh one chunk.",
			Buckets:   prometheus.ExponentialBuckets(0.00005, 2, 14),
		}),
	}
	if reg != nil {
		reg.MustRegister(m.chunks, m.faces, m.voxelsRead, m.rowsSkipped, m.meshDuration)
	}
	return m
}

func (m *MeshMetrics) observeResult(result string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.chunks.WithLabelValues(result).Inc()
	m.meshDuration.Observe(elapsed.Seconds())
}

func (m *MeshMetrics) observeScan(size int32, window ScanRange, skipped bool, visited int) {
	if m == nil {
		return
	}
	if skipped {
		m.rowsSkipped.Add(float64(size))
		return
	}
	m.rowsSkipped.Add(float64(size - window.Height()))
	m.voxelsRead.Add(float64(visited))
}

func (m *MeshMetrics) observeFaces(mesh *ChunkMesh) {
	if m == nil {
		return
	}
	for side, count := range mesh.CountBySide() {
		if count > 0 {
			m.faces.WithLabelValues(FaceType(side).String()).Add(float64(count))
		}
	}
}
