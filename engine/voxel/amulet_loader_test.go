package voxel

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeSectionTable(t *testing.T) {
	var table bytes.Buffer
	for _, v := range []any{int32(-16), int32(0), int32(32), uint8(16), uint8(8), uint8(4), uint32(1234), uint32(99)} {
		require.NoError(t, binary.Write(&table, binary.LittleEndian, v))
	}

	sections := decodeSectionTable(table.Bytes())

	require.Len(t, sections, 1)
	assert.Equal(t, SectionIndex{MinBlockX: -16, MinBlockY: 0, MinBlockZ: 32, ShapeX: 16, ShapeY: 8, ShapeZ: 4, Offset: 1234, Size: 99}, sections[0])
	assert.Empty(t, decodeSectionTable(table.Bytes()[:22]))
}

func TestReadConstruction_RejectsOtherFiles(t *testing.T) {
	_, err := ReadConstruction(bytes.NewReader([]byte("definitely not a construction")))
	assert.ErrorContains(t, err, "magic")
}

func TestNewMapFromConstruction(t *testing.T) {
	reg := DefaultRegistry()
	stone := &BlockDefinition{Name: "minecraft:stone", NameSpace: "minecraft"}
	sand := &BlockDefinition{Name: "sand", NameSpace: "minecraft"}
	unknown := &BlockDefinition{Name: "minecraft:obsidian", NameSpace: "minecraft"}
	construction := &Construction{Sections: []*ConstructionSection{
		{
			// x outer, z inner
			Blocks:    []*BlockDefinition{stone, nil, sand, unknown, stone, stone, stone, stone},
			ShapeX:    2,
			ShapeY:    2,
			ShapeZ:    2,
			MinBlockX: -3,
			MinBlockY: 10,
			MinBlockZ: 4,
		},
		{
			ShapeX: 1, ShapeY: 1, ShapeZ: 1,
			MinBlockX: 6, MinBlockY: 10, MinBlockZ: 4,
			BlockEntities: []BlockEntity{{Name: "sand", X: 6, Y: 10, Z: 4}},
		},
	}}

	m, err := NewMapFromConstruction(reg, construction, 4)

	require.NoError(t, err)
	assert.Equal(t, Int3{X: 3, Y: 1, Z: 1}, m.Dimensions())
	at := func(x, y, z int32) BlockID {
		id, ok := m.GetGlobalBlock(x, y, z)
		require.True(t, ok)
		return id
	}
	assert.Equal(t, reg.MustByName("stone"), at(0, 0, 0))
	assert.Equal(t, Air, at(0, 0, 1))
	assert.Equal(t, reg.MustByName("sand"), at(0, 1, 0))
	assert.Equal(t, Air, at(0, 1, 1), "unknown blocks become air")
	assert.Equal(t, reg.MustByName("stone"), at(1, 1, 1))
	assert.Equal(t, reg.MustByName("sand"), at(9, 0, 0))
	assert.True(t, reg.UnknownBlocks["minecraft:obsidian"])
	assert.Equal(t, []string{"minecraft:obsidian", "minecraft:stone", "sand"}, BlocksNeededByConstruction(construction))

	for _, chunk := range m.Chunks() {
		assert.NoError(t, chunk.HeightBounds().Verify(chunk.Position(), chunk.Volume(), func(id BlockID) bool { return !id.IsAir() }))
	}
}

func TestNewMapFromConstruction_Errors(t *testing.T) {
	reg := DefaultRegistry()
	_, err := NewMapFromConstruction(reg, &Construction{}, 8)
	assert.Error(t, err)

	short := &Construction{Sections: []*ConstructionSection{{Blocks: make([]*BlockDefinition, 3), ShapeX: 2, ShapeY: 2, ShapeZ: 2}}}
	_, err = NewMapFromConstruction(reg, short, 8)
	assert.ErrorContains(t, err, "shape")

	_, err = NewMapFromConstruction(reg, &Construction{Sections: []*ConstructionSection{{ShapeX: 1, ShapeY: 1, ShapeZ: 1}}}, 64)
	assert.Error(t, err)
}
