package voxel

import (
	"fmt"
	"sort"
)

// BlockID is the voxel type tag. Air is the only type that is open at every fidelity level,
// any other id doubles as the material id carried onto emitted faces.
type BlockID uint16

const Air BlockID = 0

func (b BlockID) IsAir() bool {
	return b == Air
}

type MeshType int

const (
	MeshCube MeshType = iota
	MeshXCross
	MeshFluid
	MeshEmpty
)

type Transparency int

const (
	Opaque Transparency = iota
	Transparent
	Translucent
)

// TextureMapper names the texture of every side. Lateral covers all four sides with one texture.
type TextureMapper struct {
	Top    string
	Bottom string
	East   string // +X
	West   string // -X
	South  string // +Z
	North  string // -Z
}

func TextureAll(name string) TextureMapper {
	return TextureMapper{name, name, name, name, name, name}
}

func TextureLateral(top, bottom, lateral string) TextureMapper {
	return TextureMapper{top, bottom, lateral, lateral, lateral, lateral}
}

func (t TextureMapper) ForSide(side FaceType) string {
	switch side {
	case YP:
		return t.Top
	case YN:
		return t.Bottom
	case XP:
		return t.East
	case XN:
		return t.West
	case ZP:
		return t.South
	default:
		return t.North
	}
}

type BlockData struct {
	Ident        string
	Texture      TextureMapper
	Mesh         MeshType
	Transparency Transparency
}

// Registry maps block ids to their static data and texture names to texture array layers.
type Registry struct {
	blocks         []BlockData
	byName         map[string]BlockID
	textureIndices map[string]byte
	UnknownBlocks  map[string]bool
}

func NewRegistry(blocks []BlockData) *Registry {
	r := &Registry{
		byName:         make(map[string]BlockID, len(blocks)),
		textureIndices: make(map[string]byte),
		UnknownBlocks:  make(map[string]bool),
	}
	r.blocks = append(r.blocks, BlockData{Ident: "air", Texture: TextureAll(""), Mesh: MeshEmpty, Transparency: Transparent})
	r.byName["air"] = Air
	for _, b := range blocks {
		if b.Ident == "air" {
			continue
		}
		r.byName[b.Ident] = BlockID(len(r.blocks))
		r.blocks = append(r.blocks, b)
	}
	r.assignTextureIndices()
	return r
}

// DefaultRegistry returns the stock terrain blocks.
func DefaultRegistry() *Registry {
	return NewRegistry([]BlockData{
		{Ident: "grass_block", Texture: TextureLateral("grass_top", "dirt", "grass_side"), Mesh: MeshCube, Transparency: Opaque},
		{Ident: "dirt", Texture: TextureAll("dirt"), Mesh: MeshCube, Transparency: Opaque},
		{Ident: "stone", Texture: TextureAll("stone"), Mesh: MeshCube, Transparency: Opaque},
		{Ident: "sand", Texture: TextureAll("sand"), Mesh: MeshCube, Transparency: Opaque},
		{Ident: "grass", Texture: TextureAll("grass_flora"), Mesh: MeshXCross, Transparency: Transparent},
		{Ident: "flower", Texture: TextureAll("flower"), Mesh: MeshXCross, Transparency: Transparent},
		{Ident: "water", Texture: TextureAll("water"), Mesh: MeshFluid, Transparency: Translucent},
	})
}

func (r *Registry) assignTextureIndices() {
	names := make(map[string]bool)
	for _, b := range r.blocks[1:] {
		for _, side := range AllFaceTypes() {
			names[b.Texture.ForSide(side)] = true
		}
	}
	sorted := make([]string, 0, len(names))
	for name := range names {
		sorted = append(sorted, name)
	}
	sort.Strings(sorted)
	for i, name := range sorted {
		r.textureIndices[name] = byte(i)
	}
}

func (r *Registry) Len() int {
	return len(r.blocks)
}

func (r *Registry) Get(id BlockID) (BlockData, bool) {
	if int(id) >= len(r.blocks) {
		return BlockData{}, false
	}
	return r.blocks[id], true
}

// ByName looks up a block by its identifier, namespaced names ("minecraft:stone") match on the base name.
// Unknown names are remembered and resolve to ok == false.
func (r *Registry) ByName(name string) (BlockID, bool) {
	if id, exists := r.byName[name]; exists {
		return id, true
	}
	for i := len(name) - 1; i >= 0; i-- {
		if name[i] == ':' {
			if id, exists := r.byName[name[i+1:]]; exists {
				return id, true
			}
			break
		}
	}
	r.UnknownBlocks[name] = true
	return Air, false
}

func (r *Registry) MustByName(name string) BlockID {
	id, ok := r.ByName(name)
	if !ok {
		panic(fmt.Sprintf("unknown block %q", name))
	}
	return id
}

// TextureIndex returns the texture array layer for one side of a block, 0 for unknown ids.
func (r *Registry) TextureIndex(id BlockID, side FaceType) byte {
	b, ok := r.Get(id)
	if !ok {
		return 0
	}
	return r.textureIndices[b.Texture.ForSide(side)]
}

func (r *Registry) TextureCount() int {
	return len(r.textureIndices)
}

// IDsWhere returns all non-air ids whose data matches the filter, in id order.
func (r *Registry) IDsWhere(filter func(BlockData) bool) []BlockID {
	var ids []BlockID
	for i := 1; i < len(r.blocks); i++ {
		if filter(r.blocks[i]) {
			ids = append(ids, BlockID(i))
		}
	}
	return ids
}
