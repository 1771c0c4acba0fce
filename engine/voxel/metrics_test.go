package voxel

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMeshMetrics(t *testing.T) {
	registry := prometheus.NewRegistry()
	metrics := NewMeshMetrics(registry)
	opts := testOptions(8)
	opts.Metrics = metrics

	vol := NewVolume(8)
	vol.Set(2, 3, 2, testStone)
	_, err := MeshVolume(context.Background(), Int3{}, vol, ComputeHeightBounds(vol, opts.Fidelity.Predicate()), opts)
	require.NoError(t, err)

	empty := NewVolume(8)
	_, err = MeshVolume(context.Background(), Int3{}, empty, NewHeightBounds(8), opts)
	require.NoError(t, err)

	_, err = MeshVolume(context.Background(), Int3{}, NewVolume(4), NewHeightBounds(4), opts)
	require.Error(t, err)

	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.chunks.WithLabelValues(resultMeshed)))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.chunks.WithLabelValues(resultSkipped)))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.chunks.WithLabelValues(resultFailed)))
	for _, side := range AllFaceTypes() {
		assert.Equal(t, 1.0, testutil.ToFloat64(metrics.faces.WithLabelValues(side.String())), side.String())
	}
	// y window [2,4] of 8 layers, then a skipped chunk of 8
	assert.Equal(t, float64(5+8), testutil.ToFloat64(metrics.rowsSkipped))
	assert.Equal(t, float64(3*3*8*8), testutil.ToFloat64(metrics.voxelsRead))
	assert.Equal(t, 1, testutil.CollectAndCount(metrics.meshDuration))
}

func TestMeshMetrics_NilIsSafe(t *testing.T) {
	var metrics *MeshMetrics
	assert.NotPanics(t, func() {
		metrics.observeResult(resultMeshed, 0)
		metrics.observeScan(8, FullRange(8), false, 10)
		metrics.observeFaces(NewChunkMesh(Int3{}))
	})
}
