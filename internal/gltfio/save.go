package gltfio

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"

	"mesh-seam-merge/internal/mathutil"
	"mesh-seam-merge/internal/mesh"
	"mesh-seam-merge/internal/skeleton"
)

// Generator is written into documents created by Encode.
const Generator = "mesh-seam-merge"

// Replace writes m into the document in place of the decoded mesh. The old
// accessors stay in the buffer; primitive i keeps the material of the old
// primitive i. Bind poses are rewritten when the mesh is skinned.
func (md *Model) Replace(m *mesh.Mesh) error {
	if err := m.Validate(); err != nil {
		return fmt.Errorf("gltfio: %w", err)
	}
	doc := md.Doc
	if md.MeshIndex < 0 || md.MeshIndex >= len(doc.Meshes) {
		return fmt.Errorf("gltfio: mesh index %d out of range", md.MeshIndex)
	}
	gm := doc.Meshes[md.MeshIndex]

	attrs := writeAttributes(doc, m)
	targets, names := writeTargets(doc, m)

	prims := make([]*gltf.Primitive, len(m.SubMeshes))
	for i, sub := range m.SubMeshes {
		indices := make([]uint32, len(sub))
		for k, ix := range sub {
			indices[k] = uint32(ix)
		}
		p := &gltf.Primitive{
			Attributes: cloneAttributes(attrs),
			Indices:    gltf.Index(modeler.WriteIndices(doc, indices)),
			Targets:    targets,
		}
		if i < len(gm.Primitives) {
			p.Material = gm.Primitives[i].Material
		}
		prims[i] = p
	}
	gm.Primitives = prims

	if len(targets) > 0 {
		if len(gm.Weights) != len(targets) {
			gm.Weights = make([]float32, len(targets))
		}
		gm.Extras = map[string]any{"targetNames": names}
	} else {
		gm.Weights = nil
	}

	if md.Skin >= 0 && md.Skin < len(doc.Skins) && len(m.BindPoses) > 0 {
		mats := make([][4][4]float32, len(m.BindPoses))
		for i, bp := range m.BindPoses {
			c := bp.ColumnMajor()
			for col := 0; col < 4; col++ {
				for row := 0; row < 4; row++ {
					mats[i][row][col] = float32(c[col*4+row])
				}
			}
		}
		doc.Skins[md.Skin].InverseBindMatrices = gltf.Index(modeler.WriteAccessor(doc, gltf.TargetNone, mats))
	}

	md.Mesh = m
	return nil
}

func writeAttributes(doc *gltf.Document, m *mesh.Mesh) map[string]uint32 {
	n := m.VertexCount()
	pos := make([][3]float32, n)
	for i, v := range m.Vertices {
		pos[i] = v.To32()
	}
	attrs := map[string]uint32{gltf.POSITION: modeler.WritePosition(doc, pos)}

	if m.HasNormals() && n > 0 {
		nrm := make([][3]float32, n)
		for i, v := range m.Normals {
			nrm[i] = v.To32()
		}
		attrs[gltf.NORMAL] = modeler.WriteNormal(doc, nrm)
	}
	if m.HasTangents() && n > 0 {
		tan := make([][4]float32, n)
		for i, v := range m.Tangents {
			tan[i] = v.To32()
		}
		attrs[gltf.TANGENT] = modeler.WriteTangent(doc, tan)
	}
	if m.HasUVs() && n > 0 {
		uv := make([][2]float32, n)
		for i, v := range m.UVs {
			uv[i] = v.To32()
		}
		attrs[gltf.TEXCOORD_0] = modeler.WriteTextureCoord(doc, uv)
	}
	if m.HasWeights() && n > 0 {
		joints := make([][4]uint16, n)
		weights := make([][4]float32, n)
		for i, bw := range m.Weights {
			for k := 0; k < mesh.MaxInfluences; k++ {
				if bw.Weights[k] <= 0 || bw.Bones[k] < 0 {
					continue
				}
				joints[i][k] = uint16(bw.Bones[k])
				weights[i][k] = float32(bw.Weights[k])
			}
		}
		attrs[gltf.JOINTS_0] = modeler.WriteJoints(doc, joints)
		attrs[gltf.WEIGHTS_0] = modeler.WriteWeights(doc, weights)
	}
	return attrs
}

// writeTargets exports the heaviest frame of every blend shape as a morph
// target.
func writeTargets(doc *gltf.Document, m *mesh.Mesh) ([]gltf.Attribute, []string) {
	n := m.VertexCount()
	var targets []gltf.Attribute
	var names []string
	for _, s := range m.BlendShapes {
		if len(s.Frames) == 0 {
			continue
		}
		f := s.Frames[0]
		for _, fr := range s.Frames[1:] {
			if fr.Weight > f.Weight {
				f = fr
			}
		}
		t := gltf.Attribute{gltf.POSITION: modeler.WritePosition(doc, deltas32(f.DeltaVertices, n))}
		if hasAny(f.DeltaNormals) {
			t[gltf.NORMAL] = modeler.WriteAccessor(doc, gltf.TargetArrayBuffer, deltas32(f.DeltaNormals, n))
		}
		if hasAny(f.DeltaTangents) {
			t[gltf.TANGENT] = modeler.WriteAccessor(doc, gltf.TargetArrayBuffer, deltas32(f.DeltaTangents, n))
		}
		targets = append(targets, t)
		names = append(names, s.Name)
	}
	return targets, names
}

func deltas32(d []mathutil.Vec3, n int) [][3]float32 {
	out := make([][3]float32, n)
	for i := 0; i < n && i < len(d); i++ {
		out[i] = d[i].To32()
	}
	return out
}

func hasAny(d []mathutil.Vec3) bool {
	for _, v := range d {
		if v != (mathutil.Vec3{}) {
			return true
		}
	}
	return false
}

func cloneAttributes(a map[string]uint32) map[string]uint32 {
	out := make(map[string]uint32, len(a))
	for k, v := range a {
		out[k] = v
	}
	return out
}

// Save writes the document. A .glb path produces a binary file; anything
// else produces JSON glTF with embedded buffers.
func (md *Model) Save(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("gltfio: %w", err)
		}
	}
	var err error
	if strings.EqualFold(filepath.Ext(path), ".glb") {
		err = gltf.SaveBinary(md.Doc, path)
	} else {
		for _, b := range md.Doc.Buffers {
			if !b.IsEmbeddedResource() {
				b.EmbeddedResource()
			}
		}
		err = gltf.Save(md.Doc, path)
	}
	if err != nil {
		return fmt.Errorf("gltfio: save %s: %w", path, err)
	}
	return nil
}

// Encode builds a new document holding m, bound to the given joints of a
// node hierarchy. With no joints the mesh is written rigid.
func Encode(m *mesh.Mesh, nodes []skeleton.Node, joints []int) (*Model, error) {
	doc := gltf.NewDocument()
	doc.Asset.Generator = Generator

	for _, n := range nodes {
		gn := &gltf.Node{
			Name:        n.Name,
			Translation: n.Translation.To32(),
			Rotation:    mathutil.Vec4(n.Rotation).To32(),
			Scale:       n.Scale.To32(),
			Matrix:      gltf.DefaultMatrix,
		}
		if n.Rotation == (mathutil.Quat{}) {
			gn.Rotation = gltf.DefaultRotation
		}
		if n.Scale == (mathutil.Vec3{}) {
			gn.Scale = gltf.DefaultScale
		}
		if n.Matrix != nil {
			gn.Matrix = mat4To32(*n.Matrix)
		}
		doc.Nodes = append(doc.Nodes, gn)
	}
	for i, n := range nodes {
		if n.Parent >= 0 && n.Parent < len(nodes) && n.Parent != i {
			doc.Nodes[n.Parent].Children = append(doc.Nodes[n.Parent].Children, uint32(i))
		} else {
			doc.Scenes[0].Nodes = append(doc.Scenes[0].Nodes, uint32(i))
		}
	}

	name := m.Name
	if name == "" {
		name = "mesh"
	}
	doc.Meshes = []*gltf.Mesh{{Name: name}}
	meshNode := &gltf.Node{
		Name:     name,
		Mesh:     gltf.Index(0),
		Rotation: gltf.DefaultRotation,
		Scale:    gltf.DefaultScale,
		Matrix:   gltf.DefaultMatrix,
	}
	md := &Model{Doc: doc, MeshIndex: 0, Skin: -1}
	if len(joints) > 0 {
		sk := &gltf.Skin{Joints: make([]uint32, len(joints))}
		for i, j := range joints {
			sk.Joints[i] = uint32(j)
		}
		doc.Skins = []*gltf.Skin{sk}
		meshNode.Skin = gltf.Index(0)
		md.Skin = 0
	}
	doc.Nodes = append(doc.Nodes, meshNode)
	md.Node = len(doc.Nodes) - 1
	doc.Scenes[0].Nodes = append(doc.Scenes[0].Nodes, uint32(md.Node))

	if err := md.Replace(m); err != nil {
		return nil, err
	}
	return Decode(doc, name)
}
