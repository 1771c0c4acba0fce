package voxel

import (
	"bytes"
	"math/rand"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeChunk_KeepsVoxelsAndTrackedBounds(t *testing.T) {
	vol := randomVolume(rand.New(rand.NewSource(21)), 8, 0.3)
	bounds := ComputeHeightBounds(vol, func(id BlockID) bool { return !id.IsAir() })
	chunk := NewChunk(Int3{X: 2, Y: -1, Z: 5}, vol, bounds)

	encoded, err := EncodeChunk(chunk)
	require.NoError(t, err)
	decoded, err := DecodeChunk(encoded)
	require.NoError(t, err)

	assert.Equal(t, chunk.Position(), decoded.Position())
	assert.Equal(t, vol.Data(), decoded.Volume().Data())
	require.NotNil(t, decoded.HeightBounds())
	assert.Equal(t, bounds.Columns(), decoded.HeightBounds().Columns())
}

func TestEncodeChunk_DerivedBoundsAreNotStored(t *testing.T) {
	vol := NewVolume(4)
	vol.Set(1, 1, 1, testStone)
	chunk := NewChunk(Int3{}, vol, nil)
	_ = chunk.boundsFor(testLevel(4))
	require.NotNil(t, chunk.HeightBounds())

	encoded, err := EncodeChunk(chunk)
	require.NoError(t, err)
	decoded, err := DecodeChunk(encoded)
	require.NoError(t, err)

	assert.Nil(t, decoded.HeightBounds())
}

func TestReadChunk_RejectsBadInput(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteChunk(&buf, NewChunk(Int3{}, NewVolume(2), nil)))
	raw := buf.Bytes()

	corrupted := append([]byte("XXXX"), raw[4:]...)
	_, err := ReadChunk(bytes.NewReader(corrupted))
	assert.ErrorContains(t, err, "magic")

	_, err = ReadChunk(bytes.NewReader(raw[:len(raw)-3]))
	assert.Error(t, err)

	_, err = DecodeChunk([]byte("not zstd"))
	assert.Error(t, err)
}

func TestMap_SaveAndLoad(t *testing.T) {
	m := NewMap(2, 1, 2, 8)
	for _, p := range []Int3{{X: 0, Z: 0}, {X: 1, Z: 0}, {X: 1, Z: 1}} {
		m.NewChunk(p.X, p.Y, p.Z)
	}
	m.SetFloorAtHeight(2, testStone)
	m.SetBlock(9, 5, 12, testDirt)
	filename := filepath.Join(t.TempDir(), "map.bin")

	require.NoError(t, m.SaveToDisk(filename))
	loaded, err := NewMapFromFile(filename)
	require.NoError(t, err)

	assert.Equal(t, m.Dimensions(), loaded.Dimensions())
	assert.Equal(t, m.ChunkSize(), loaded.ChunkSize())
	require.Len(t, loaded.Chunks(), 3)
	assert.Nil(t, loaded.GetChunk(0, 0, 1))
	block, ok := loaded.GetGlobalBlock(9, 5, 12)
	assert.True(t, ok)
	assert.Equal(t, testDirt, block)
	for i, chunk := range m.Chunks() {
		assert.Equal(t, chunk.Volume().Data(), loaded.Chunks()[i].Volume().Data())
		assert.Equal(t, chunk.HeightBounds().Columns(), loaded.Chunks()[i].HeightBounds().Columns())
	}
}

func TestNewMapFromFile_Missing(t *testing.T) {
	_, err := NewMapFromFile(filepath.Join(t.TempDir(), "nope.bin"))
	assert.Error(t, err)
}
