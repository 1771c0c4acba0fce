package export

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/andrew-shc/Matrixagon2/engine/util"
	"github.com/andrew-shc/Matrixagon2/engine/voxel"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
)

// Document collects chunk meshes as nodes of a single glTF scene.
type Document struct {
	doc      *gltf.Document
	reg      *voxel.Registry
	material uint32
}

func NewDocument(reg *voxel.Registry) *Document {
	doc := gltf.NewDocument()
	doc.Materials = append(doc.Materials, &gltf.Material{Name: "voxel"})
	return &Document{doc: doc, reg: reg, material: uint32(len(doc.Materials) - 1)}
}

func (d *Document) GLTF() *gltf.Document {
	return d.doc
}

// AddChunk appends one chunk mesh, its vertices moved to origin. Empty meshes add nothing
// and report ok == false.
func (d *Document) AddChunk(name string, mesh *voxel.ChunkMesh, origin mgl32.Vec3) (meshIndex uint32, ok bool) {
	if mesh.IsEmpty() {
		return 0, false
	}
	data := mesh.Flatten(d.reg)
	positions := make([][3]float32, len(data.Positions))
	normals := make([][3]float32, len(data.Normals))
	uvs := make([][2]float32, len(data.UVs))
	for i := range data.Positions {
		positions[i] = data.Positions[i].Add(origin)
		normals[i] = data.Normals[i]
		uvs[i] = data.UVs[i]
	}

	primitive := &gltf.Primitive{
		Indices: gltf.Index(modeler.WriteIndices(d.doc, data.Indices)),
		Attributes: map[string]uint32{
			gltf.POSITION:   modeler.WritePosition(d.doc, positions),
			gltf.NORMAL:     modeler.WriteNormal(d.doc, normals),
			gltf.TEXCOORD_0: modeler.WriteTextureCoord(d.doc, uvs),
		},
		Material: gltf.Index(d.material),
	}
	d.doc.Meshes = append(d.doc.Meshes, &gltf.Mesh{Name: name, Primitives: []*gltf.Primitive{primitive}})
	meshIndex = uint32(len(d.doc.Meshes) - 1)
	d.doc.Nodes = append(d.doc.Nodes, &gltf.Node{Name: name, Mesh: gltf.Index(meshIndex)})
	d.doc.Scenes[0].Nodes = append(d.doc.Scenes[0].Nodes, uint32(len(d.doc.Nodes)-1))
	return meshIndex, true
}

// AddReport adds every meshed chunk of a map in position order, placed at its world origin.
func (d *Document) AddReport(report *voxel.MeshReport, chunkSize int32) int {
	added := 0
	for _, position := range report.Positions() {
		name := fmt.Sprintf("chunk_%d_%d_%d", position.X, position.Y, position.Z)
		if _, ok := d.AddChunk(name, report.Meshes[position], position.Mul(chunkSize).ToVec3()); ok {
			added++
		}
	}
	return added
}

// Save writes .glb files in the binary container, anything else as .gltf with embedded buffers.
func (d *Document) Save(filename string) error {
	var err error
	if strings.EqualFold(filepath.Ext(filename), ".glb") {
		err = gltf.SaveBinary(d.doc, filename)
	} else {
		for _, buffer := range d.doc.Buffers {
			if buffer.URI == "" {
				buffer.EmbeddedResource()
			}
		}
		err = gltf.Save(d.doc, filename)
	}
	if err != nil {
		return errors.Wrapf(err, "save %s", filename)
	}
	util.LogIOInfo(fmt.Sprintf("[Export] Wrote %d meshes to %s", len(d.doc.Meshes), filename))
	return nil
}
