package voxel

import (
	"compress/gzip"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
	"sort"

	"github.com/Tnze/go-mc/nbt"
	"github.com/andrew-shc/Matrixagon2/engine/util"
	"github.com/pkg/errors"
)

// Amulet construction files: "constrct", gzipped NBT sections, gzipped NBT metadata,
// int32 metadata offset, "constrct".
/*
	TAG_Compound({
	    "block_entities": TAG_List([
	        TAG_Compound({
	            "namespace": TAG_String(),
	            "base_name": TAG_String(),
	            "x": TAG_Int(),
	            "y": TAG_Int(),
	            "z": TAG_Int(),
	            "nbt": TAG_Compound()
	        })
	        ...
	    ]),
	    "blocks_array_type": TAG_Byte(),
	    "blocks": <palette indices>
	})
*/
const constructionMagic = "constrct"

const (
	blocksArrayByte = 7
	blocksArrayInt  = 11
	blocksArrayLong = 12
)

type sectionBlockInfo struct {
	BlocksArrayType byte `nbt:"blocks_array_type"`
}

type byteSection struct {
	BlockEntities []BlockEntity `nbt:"block_entities"`
	Blocks        []byte        `nbt:"blocks"`
}

type intSection struct {
	BlockEntities []BlockEntity `nbt:"block_entities"`
	Blocks        []int32       `nbt:"blocks"`
}

type longSection struct {
	BlockEntities []BlockEntity `nbt:"block_entities"`
	Blocks        []int64       `nbt:"blocks"`
}

type BlockEntity struct {
	Namespace string `nbt:"namespace"`
	Name      string `nbt:"base_name"`
	X         int32  `nbt:"x"`
	Y         int32  `nbt:"y"`
	Z         int32  `nbt:"z"`
}

type AmuletMetadata struct {
	SelectionBoxes    []int32 `nbt:"selection_boxes"`
	SectionIndexTable []byte  `nbt:"section_index_table"`
	SectionVersion    byte    `nbt:"section_version"`
	ExportVersion     struct {
		Edition string  `nbt:"edition"`
		Version []int32 `nbt:"version"`
	} `nbt:"export_version"`
	BlockPalette []*BlockDefinition `nbt:"block_palette"`
	CreatedWith  string             `nbt:"created_with"`
}

type BlockDefinition struct {
	Name       string         `nbt:"blockname"`
	NameSpace  string         `nbt:"namespace"`
	Properties map[string]any `nbt:"properties"`
}

type Construction struct {
	Sections []*ConstructionSection
}

// ConstructionSection blocks are ordered x, then y, then z innermost. Nil entries are air.
type ConstructionSection struct {
	Blocks        []*BlockDefinition
	ShapeX        uint8
	ShapeY        uint8
	ShapeZ        uint8
	MinBlockX     int32
	MinBlockY     int32
	MinBlockZ     int32
	BlockEntities []BlockEntity
}

func LoadConstruction(filename string) (*Construction, error) {
	fileReader, err := os.Open(filename)
	if err != nil {
		return nil, errors.Wrap(err, "open construction")
	}
	defer fileReader.Close()
	construction, err := ReadConstruction(fileReader)
	if err != nil {
		return nil, errors.Wrapf(err, "load %s", filename)
	}
	return construction, nil
}

func ReadConstruction(r io.ReadSeeker) (*Construction, error) {
	var magicNumber [8]byte
	if err := binary.Read(r, binary.BigEndian, &magicNumber); err != nil {
		return nil, errors.Wrap(err, "read magic")
	}
	if string(magicNumber[:]) != constructionMagic {
		return nil, errors.Errorf("invalid magic number %q", magicNumber[:])
	}
	offset := int64(len(constructionMagic))
	if _, err := r.Seek(-offset, io.SeekEnd); err != nil {
		return nil, errors.Wrap(err, "seek trailer")
	}
	if err := binary.Read(r, binary.BigEndian, &magicNumber); err != nil {
		return nil, errors.Wrap(err, "read trailing magic")
	}
	if string(magicNumber[:]) != constructionMagic {
		return nil, errors.Errorf("invalid trailing magic number %q", magicNumber[:])
	}

	if _, err := r.Seek(-offset-4, io.SeekEnd); err != nil {
		return nil, errors.Wrap(err, "seek metadata offset")
	}
	var metaDataOffset int32
	if err := binary.Read(r, binary.BigEndian, &metaDataOffset); err != nil {
		return nil, errors.Wrap(err, "read metadata offset")
	}
	var metadata AmuletMetadata
	if err := decodeGzipNBT(r, int64(metaDataOffset), &metadata); err != nil {
		return nil, errors.Wrap(err, "metadata")
	}

	sectionTable := decodeSectionTable(metadata.SectionIndexTable)
	sections := make([]*ConstructionSection, len(sectionTable))
	for sIndex, section := range sectionTable {
		var blockInfo sectionBlockInfo
		if err := decodeGzipNBT(r, int64(section.Offset), &blockInfo); err != nil {
			return nil, errors.Wrapf(err, "section %d", sIndex)
		}
		var blockEntities []BlockEntity
		var blocks []*BlockDefinition
		var err error
		switch blockInfo.BlocksArrayType {
		case blocksArrayByte:
			var decodedSection byteSection
			if err = decodeGzipNBT(r, int64(section.Offset), &decodedSection); err == nil {
				blockEntities = decodedSection.BlockEntities
				blocks, err = decodeBlocks(decodedSection.Blocks, metadata.BlockPalette)
			}
		case blocksArrayInt:
			var decodedSection intSection
			if err = decodeGzipNBT(r, int64(section.Offset), &decodedSection); err == nil {
				blockEntities = decodedSection.BlockEntities
				blocks, err = decodeBlocks(decodedSection.Blocks, metadata.BlockPalette)
			}
		case blocksArrayLong:
			var decodedSection longSection
			if err = decodeGzipNBT(r, int64(section.Offset), &decodedSection); err == nil {
				blockEntities = decodedSection.BlockEntities
				blocks, err = decodeBlocks(decodedSection.Blocks, metadata.BlockPalette)
			}
		default:
			// sections without a block array carry only entities
		}
		if err != nil {
			return nil, errors.Wrapf(err, "section %d", sIndex)
		}
		sections[sIndex] = &ConstructionSection{
			Blocks:        blocks,
			BlockEntities: blockEntities,
			ShapeX:        section.ShapeX,
			ShapeY:        section.ShapeY,
			ShapeZ:        section.ShapeZ,
			MinBlockX:     section.MinBlockX,
			MinBlockY:     section.MinBlockY,
			MinBlockZ:     section.MinBlockZ,
		}
	}
	return &Construction{Sections: sections}, nil
}

func decodeGzipNBT(r io.ReadSeeker, offset int64, v any) error {
	if _, err := r.Seek(offset, io.SeekStart); err != nil {
		return errors.Wrap(err, "seek")
	}
	gzipReader, err := gzip.NewReader(r)
	if err != nil {
		return errors.Wrap(err, "gzip")
	}
	defer gzipReader.Close()
	if _, err := nbt.NewDecoder(gzipReader).Decode(v); err != nil {
		return errors.Wrap(err, "nbt")
	}
	return nil
}

func decodeBlocks[T int32 | int64 | byte](blocks []T, palette []*BlockDefinition) ([]*BlockDefinition, error) {
	result := make([]*BlockDefinition, len(blocks))
	for i, block := range blocks {
		if int64(block) < 0 || int64(block) >= int64(len(palette)) {
			return nil, errors.Errorf("block %d: palette index %d out of %d entries", i, block, len(palette))
		}
		result[i] = palette[block]
	}
	return result, nil
}

// BlocksNeededByConstruction lists the distinct block names used, sorted.
func BlocksNeededByConstruction(construction *Construction) []string {
	blocks := make(map[string]bool)
	for _, section := range construction.Sections {
		for _, block := range section.Blocks {
			if block != nil {
				blocks[block.Name] = true
			}
		}
		for _, blockEntity := range section.BlockEntities {
			blocks[blockEntity.Name] = true
		}
	}
	blockNames := make([]string, 0, len(blocks))
	for blockName := range blocks {
		blockNames = append(blockNames, blockName)
	}
	sort.Strings(blockNames)
	return blockNames
}

// NewMapFromConstruction shifts the construction so its minimum corner lands on (0,0,0)
// and fills chunks of the given edge. Names the registry does not know become air.
func NewMapFromConstruction(reg *Registry, construction *Construction, chunkSize int32) (*Map, error) {
	if len(construction.Sections) == 0 {
		return nil, errors.New("construction has no sections")
	}
	if chunkSize < 1 || chunkSize > MAX_CHUNK_SIZE {
		return nil, errors.Errorf("chunk size %d outside [1,%d]", chunkSize, MAX_CHUNK_SIZE)
	}
	minX, minY, minZ := int32(math.MaxInt32), int32(math.MaxInt32), int32(math.MaxInt32)
	maxX, maxY, maxZ := int32(math.MinInt32), int32(math.MinInt32), int32(math.MinInt32)
	for _, section := range construction.Sections {
		minX = min(minX, section.MinBlockX)
		minY = min(minY, section.MinBlockY)
		minZ = min(minZ, section.MinBlockZ)
		maxX = max(maxX, section.MinBlockX+int32(section.ShapeX))
		maxY = max(maxY, section.MinBlockY+int32(section.ShapeY))
		maxZ = max(maxZ, section.MinBlockZ+int32(section.ShapeZ))
	}
	chunkCount := func(extent int32) int32 {
		return max(1, (extent+chunkSize-1)/chunkSize)
	}
	voxelMap := NewMap(chunkCount(maxX-minX), chunkCount(maxY-minY), chunkCount(maxZ-minZ), chunkSize)
	dims := voxelMap.Dimensions()
	for cX := int32(0); cX < dims.X; cX++ {
		for cY := int32(0); cY < dims.Y; cY++ {
			for cZ := int32(0); cZ < dims.Z; cZ++ {
				voxelMap.NewChunk(cX, cY, cZ)
			}
		}
	}
	util.LogIOInfo(fmt.Sprintf("[Map] Construction bounds (%d,%d,%d)-(%d,%d,%d), %s chunks", minX, minY, minZ, maxX, maxY, maxZ, dims.ToString()))

	blockID := func(name string) BlockID {
		if id, ok := reg.ByName(name); ok {
			return id
		}
		return Air
	}
	blockCounter := 0
	for sIndex, section := range construction.Sections {
		expected := int(section.ShapeX) * int(section.ShapeY) * int(section.ShapeZ)
		if section.Blocks != nil && len(section.Blocks) != expected {
			return nil, errors.Errorf("section %d has %d blocks for shape %dx%dx%d", sIndex, len(section.Blocks), section.ShapeX, section.ShapeY, section.ShapeZ)
		}
		blockIndex := 0
		for x := section.MinBlockX; section.Blocks != nil && x < section.MinBlockX+int32(section.ShapeX); x++ {
			for y := section.MinBlockY; y < section.MinBlockY+int32(section.ShapeY); y++ {
				for z := section.MinBlockZ; z < section.MinBlockZ+int32(section.ShapeZ); z++ {
					sourceBlockDef := section.Blocks[blockIndex]
					blockIndex++
					if sourceBlockDef == nil {
						continue
					}
					id := blockID(sourceBlockDef.Name)
					if id.IsAir() {
						continue
					}
					voxelMap.SetBlock(x-minX, y-minY, z-minZ, id)
					blockCounter++
				}
			}
		}
		for _, blockEntityDef := range section.BlockEntities {
			if id := blockID(blockEntityDef.Name); !id.IsAir() {
				voxelMap.SetBlock(blockEntityDef.X-minX, blockEntityDef.Y-minY, blockEntityDef.Z-minZ, id)
			}
		}
	}
	unknown := make([]string, 0, len(reg.UnknownBlocks))
	for name := range reg.UnknownBlocks {
		unknown = append(unknown, name)
	}
	sort.Strings(unknown)
	for _, name := range unknown {
		util.LogIOInfo(fmt.Sprintf("[Map] Unknown block: %s", name))
	}
	util.LogIOInfo(fmt.Sprintf("[Map] Loaded construction with %d blocks", blockCounter))
	return voxelMap, nil
}

/*
The section_index_table is an Mx23 TAG_Byte_Array where M is the number of section data entries present in the construction file. May be empty if there are no section data entries.

The real format of the section_index_table is IIIBBBII where I is a uint32 and B is a uint8.

Each represents the following

III: The X, Y, and Z block coordinates of the minimum point of the section
BBB: The shape of the section in blocks in X, Y, Z order
I: The starting byte of the section data entry in the file
I: The byte length of the section data entry
*/

type SectionIndex struct {
	MinBlockX int32  // 4 bytes
	MinBlockY int32  // 4 bytes
	MinBlockZ int32  // 4 bytes => 12 bytes
	ShapeX    uint8  // 1 byte
	ShapeY    uint8  // 1 byte
	ShapeZ    uint8  // 1 byte => 3 bytes
	Offset    uint32 // 4 bytes
	Size      uint32 // 4 bytes => 8 bytes
	// 23 bytes per section
}

func decodeSectionTable(table []byte) []SectionIndex {
	// 23 bytes per section
	sectionCount := len(table) / 23
	sections := make([]SectionIndex, sectionCount)
	for i := 0; i < sectionCount; i++ {
		sections[i].MinBlockX = int32(binary.LittleEndian.Uint32(table[i*23 : i*23+4]))
		sections[i].MinBlockY = int32(binary.LittleEndian.Uint32(table[i*23+4 : i*23+8]))
		sections[i].MinBlockZ = int32(binary.LittleEndian.Uint32(table[i*23+8 : i*23+12]))
		sections[i].ShapeX = table[i*23+12]
		sections[i].ShapeY = table[i*23+13]
		sections[i].ShapeZ = table[i*23+14]
		sections[i].Offset = binary.LittleEndian.Uint32(table[i*23+15 : i*23+19])
		sections[i].Size = binary.LittleEndian.Uint32(table[i*23+19 : i*23+23])
	}
	return sections
}
