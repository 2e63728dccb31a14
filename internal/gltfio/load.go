// Package gltfio reads skinned meshes and their rigs from glTF 2.0 files and
// writes merged meshes back into the same documents.
package gltfio

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"

	"mesh-seam-merge/internal/mathutil"
	"mesh-seam-merge/internal/mesh"
	"mesh-seam-merge/internal/skeleton"
	"mesh-seam-merge/internal/skin"
)

var (
	// ErrNoSkinnedMesh is returned when no mesh was named and the document
	// has no node carrying both a mesh and a skin.
	ErrNoSkinnedMesh = errors.New("gltfio: no skinned mesh")
	// ErrMeshNotFound is returned when no mesh or node has the requested name.
	ErrMeshNotFound = errors.New("gltfio: mesh not found")
)

// Model is one mesh of a glTF document together with its posed rig.
type Model struct {
	Doc  *gltf.Document
	Mesh *mesh.Mesh
	Rig  skin.Rig

	MeshIndex int
	Node      int // node instancing the mesh, -1 if none
	Skin      int // -1 if the mesh is rigid
}

// Load opens a .gltf or .glb file and decodes the mesh called name. An empty
// name selects the first skinned mesh.
func Load(path, name string) (*Model, error) {
	doc, err := gltf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("gltfio: open %s: %w", path, err)
	}
	m, err := Decode(doc, name)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}

// Decode extracts the mesh called name from doc. Primitives become
// submeshes; primitives that share a POSITION accessor share vertices.
func Decode(doc *gltf.Document, name string) (*Model, error) {
	mi, ni, err := findMesh(doc, name)
	if err != nil {
		return nil, err
	}
	model := &Model{Doc: doc, MeshIndex: mi, Node: ni, Skin: -1}

	gm := doc.Meshes[mi]
	m, err := readMesh(doc, gm)
	if err != nil {
		return nil, err
	}
	model.Mesh = m

	worlds := skeleton.BuildWorldMatrices(nodesOf(doc))
	model.Rig.LocalToWorld = mathutil.Mat4Identity()
	if ni >= 0 {
		model.Rig.LocalToWorld = worlds[ni]
		if s := doc.Nodes[ni].Skin; s != nil && int(*s) < len(doc.Skins) {
			model.Skin = int(*s)
			sk := doc.Skins[*s]
			joints := make([]int, len(sk.Joints))
			for i, j := range sk.Joints {
				joints[i] = int(j)
			}
			model.Rig.Bones = skeleton.SelectJoints(worlds, joints)
			m.BindPoses, err = readBindPoses(doc, sk)
			if err != nil {
				return nil, fmt.Errorf("gltfio: skin %d: %w", *s, err)
			}
		}
	}
	return model, nil
}

func findMesh(doc *gltf.Document, name string) (mi, ni int, err error) {
	if name == "" {
		for i, n := range doc.Nodes {
			if n.Mesh != nil && n.Skin != nil && int(*n.Mesh) < len(doc.Meshes) {
				return int(*n.Mesh), i, nil
			}
		}
		return -1, -1, ErrNoSkinnedMesh
	}
	for i, n := range doc.Nodes {
		if n.Mesh == nil || int(*n.Mesh) >= len(doc.Meshes) {
			continue
		}
		if n.Name == name || doc.Meshes[*n.Mesh].Name == name {
			return int(*n.Mesh), i, nil
		}
	}
	// A mesh nothing instances is still usable, rigidly at the origin.
	for i, gm := range doc.Meshes {
		if gm.Name == name {
			return i, -1, nil
		}
	}
	return -1, -1, fmt.Errorf("%w: %q", ErrMeshNotFound, name)
}

func nodesOf(doc *gltf.Document) []skeleton.Node {
	out := make([]skeleton.Node, len(doc.Nodes))
	for i := range out {
		out[i].Parent = -1
	}
	for i, n := range doc.Nodes {
		out[i].Name = n.Name
		out[i].Translation = mathutil.Vec3From32(n.Translation)
		out[i].Rotation = mathutil.Quat(mathutil.Vec4From32(n.Rotation))
		if out[i].Rotation == (mathutil.Quat{}) {
			out[i].Rotation = mathutil.QuatIdentity
		}
		out[i].Scale = mathutil.Vec3From32(n.Scale)
		if out[i].Scale == (mathutil.Vec3{}) {
			out[i].Scale = mathutil.Vec3{1, 1, 1}
		}
		if n.Matrix != ([16]float32{}) && n.Matrix != gltf.DefaultMatrix {
			mat := mat4From32(n.Matrix)
			out[i].Matrix = &mat
		}
		for _, c := range n.Children {
			if int(c) < len(out) {
				out[c].Parent = i
			}
		}
	}
	return out
}

func mat4From32(c [16]float32) mathutil.Mat4 {
	var d [16]float64
	for i, v := range c {
		d[i] = float64(v)
	}
	return mathutil.Mat4FromColumnMajor(d)
}

func mat4To32(m mathutil.Mat4) [16]float32 {
	var out [16]float32
	for i, v := range m.ColumnMajor() {
		out[i] = float32(v)
	}
	return out
}

func readBindPoses(doc *gltf.Document, sk *gltf.Skin) ([]mathutil.Mat4, error) {
	out := make([]mathutil.Mat4, len(sk.Joints))
	if sk.InverseBindMatrices == nil {
		for i := range out {
			out[i] = mathutil.Mat4Identity()
		}
		return out, nil
	}
	data, err := modeler.ReadAccessor(doc, doc.Accessors[*sk.InverseBindMatrices], nil)
	if err != nil {
		return nil, fmt.Errorf("read inverse bind matrices: %w", err)
	}
	mats, ok := data.([][4][4]float32)
	if !ok {
		return nil, fmt.Errorf("inverse bind matrices have type %T", data)
	}
	for i := range out {
		if i >= len(mats) {
			out[i] = mathutil.Mat4Identity()
			continue
		}
		var c [16]float64
		for col := 0; col < 4; col++ {
			for row := 0; row < 4; row++ {
				c[col*4+row] = float64(mats[i][row][col])
			}
		}
		out[i] = mathutil.Mat4FromColumnMajor(c)
	}
	return out, nil
}

// part is the raw attribute data of one primitive.
type part struct {
	positions [][3]float32
	normals   [][3]float32
	tangents  [][4]float32
	uvs       [][2]float32
	joints    [][4]uint16
	weights   [][4]float32
	indices   []uint32
	targets   []delta
}

type delta struct {
	positions, normals, tangents [][3]float32
}

func readMesh(doc *gltf.Document, gm *gltf.Mesh) (*mesh.Mesh, error) {
	m := &mesh.Mesh{Name: gm.Name}
	names := targetNames(gm)

	// POSITION accessor -> base vertex, for primitives sharing vertices
	bases := make(map[uint32]int)
	var parts []*part
	var partBase []int

	for pi, p := range gm.Primitives {
		if p.Mode != gltf.PrimitiveTriangles {
			return nil, fmt.Errorf("gltfio: mesh %q primitive %d: mode %v not supported", gm.Name, pi, p.Mode)
		}
		posIdx, ok := p.Attributes[gltf.POSITION]
		if !ok {
			return nil, fmt.Errorf("gltfio: mesh %q primitive %d: no POSITION", gm.Name, pi)
		}
		pt, err := readPart(doc, p)
		if err != nil {
			return nil, fmt.Errorf("gltfio: mesh %q primitive %d: %w", gm.Name, pi, err)
		}

		base, shared := bases[posIdx]
		if !shared {
			base = len(m.Vertices)
			bases[posIdx] = base
			appendPart(m, pt, base)
			parts = append(parts, pt)
			partBase = append(partBase, base)
		}
		sub := make([]int, len(pt.indices))
		for i, ix := range pt.indices {
			sub[i] = base + int(ix)
		}
		m.SubMeshes = append(m.SubMeshes, sub)
	}

	n := len(m.Vertices)
	if len(m.Normals) > 0 {
		m.Normals = grow(m.Normals, n, mathutil.Vec3{0, 0, 1})
	}
	if len(m.Tangents) > 0 {
		m.Tangents = grow(m.Tangents, n, mathutil.Vec4{1, 0, 0, 1})
	}
	if len(m.UVs) > 0 {
		m.UVs = grow(m.UVs, n, mathutil.Vec2{})
	}
	if len(m.Weights) > 0 {
		m.Weights = grow(m.Weights, n, mesh.BoneWeight{})
	}
	m.BlendShapes = blendShapes(parts, partBase, names, n)
	return m, nil
}

func readPart(doc *gltf.Document, p *gltf.Primitive) (*part, error) {
	pt := &part{}
	acc := func(idx uint32) (*gltf.Accessor, error) {
		if int(idx) >= len(doc.Accessors) {
			return nil, fmt.Errorf("accessor %d out of range", idx)
		}
		return doc.Accessors[idx], nil
	}
	var err error
	read := func(attr string, fn func(a *gltf.Accessor) error) {
		idx, ok := p.Attributes[attr]
		if !ok || err != nil {
			return
		}
		a, e := acc(idx)
		if e == nil {
			e = fn(a)
		}
		if e != nil {
			err = fmt.Errorf("%s: %w", attr, e)
		}
	}

	read(gltf.POSITION, func(a *gltf.Accessor) (e error) {
		pt.positions, e = modeler.ReadPosition(doc, a, nil)
		return
	})
	read(gltf.NORMAL, func(a *gltf.Accessor) (e error) {
		pt.normals, e = modeler.ReadNormal(doc, a, nil)
		return
	})
	read(gltf.TANGENT, func(a *gltf.Accessor) (e error) {
		pt.tangents, e = modeler.ReadTangent(doc, a, nil)
		return
	})
	read(gltf.TEXCOORD_0, func(a *gltf.Accessor) (e error) {
		pt.uvs, e = modeler.ReadTextureCoord(doc, a, nil)
		return
	})
	read(gltf.JOINTS_0, func(a *gltf.Accessor) (e error) {
		pt.joints, e = modeler.ReadJoints(doc, a, nil)
		return
	})
	read(gltf.WEIGHTS_0, func(a *gltf.Accessor) (e error) {
		pt.weights, e = modeler.ReadWeights(doc, a, nil)
		return
	})
	if err != nil {
		return nil, err
	}

	if p.Indices != nil {
		a, err := acc(*p.Indices)
		if err != nil {
			return nil, err
		}
		if pt.indices, err = modeler.ReadIndices(doc, a, nil); err != nil {
			return nil, fmt.Errorf("indices: %w", err)
		}
	} else {
		pt.indices = make([]uint32, len(pt.positions))
		for i := range pt.indices {
			pt.indices[i] = uint32(i)
		}
	}

	for ti, t := range p.Targets {
		var d delta
		for attr, dst := range map[string]*[][3]float32{
			gltf.POSITION: &d.positions,
			gltf.NORMAL:   &d.normals,
			gltf.TANGENT:  &d.tangents,
		} {
			idx, ok := t[attr]
			if !ok {
				continue
			}
			a, err := acc(idx)
			if err != nil {
				return nil, fmt.Errorf("target %d %s: %w", ti, attr, err)
			}
			if *dst, err = modeler.ReadPosition(doc, a, nil); err != nil {
				return nil, fmt.Errorf("target %d %s: %w", ti, attr, err)
			}
		}
		pt.targets = append(pt.targets, d)
	}
	return pt, nil
}

// appendPart adds a primitive's vertices at base. Attributes a primitive
// lacks are filled with defaults once any primitive provides them.
func appendPart(m *mesh.Mesh, pt *part, base int) {
	n := len(pt.positions)
	for _, v := range pt.positions {
		m.Vertices = append(m.Vertices, mathutil.Vec3From32(v))
	}
	if len(pt.normals) == n {
		m.Normals = grow(m.Normals, base, mathutil.Vec3{0, 0, 1})
		for _, v := range pt.normals {
			m.Normals = append(m.Normals, mathutil.Vec3From32(v))
		}
	}
	if len(pt.tangents) == n {
		m.Tangents = grow(m.Tangents, base, mathutil.Vec4{1, 0, 0, 1})
		for _, v := range pt.tangents {
			m.Tangents = append(m.Tangents, mathutil.Vec4From32(v))
		}
	}
	if len(pt.uvs) == n {
		m.UVs = grow(m.UVs, base, mathutil.Vec2{})
		for _, v := range pt.uvs {
			m.UVs = append(m.UVs, mathutil.Vec2From32(v))
		}
	}
	if len(pt.joints) == n && len(pt.weights) == n {
		m.Weights = grow(m.Weights, base, mesh.BoneWeight{})
		for i := range pt.joints {
			var bw mesh.BoneWeight
			for k := 0; k < mesh.MaxInfluences; k++ {
				bw.Bones[k] = int(pt.joints[i][k])
				bw.Weights[k] = float64(pt.weights[i][k])
			}
			m.Weights = append(m.Weights, bw)
		}
	}
}

// grow pads s with fill up to length n.
func grow[T any](s []T, n int, fill T) []T {
	for len(s) < n {
		s = append(s, fill)
	}
	return s
}

// blendShapes turns morph targets into single-frame blend shapes at weight
// 100. Targets are matched across primitives by position in the list.
func blendShapes(parts []*part, bases []int, names []string, n int) []mesh.BlendShape {
	count := 0
	for _, pt := range parts {
		count = max(count, len(pt.targets))
	}
	if count == 0 {
		return nil
	}
	shapes := make([]mesh.BlendShape, count)
	for t := range shapes {
		f := mesh.Frame{
			Weight:        100,
			DeltaVertices: make([]mathutil.Vec3, n),
			DeltaNormals:  make([]mathutil.Vec3, n),
			DeltaTangents: make([]mathutil.Vec3, n),
		}
		for pi, pt := range parts {
			if t >= len(pt.targets) {
				continue
			}
			d := pt.targets[t]
			copyDeltas(f.DeltaVertices[bases[pi]:], d.positions)
			copyDeltas(f.DeltaNormals[bases[pi]:], d.normals)
			copyDeltas(f.DeltaTangents[bases[pi]:], d.tangents)
		}
		name := fmt.Sprintf("target%d", t)
		if t < len(names) && names[t] != "" {
			name = names[t]
		}
		shapes[t] = mesh.BlendShape{Name: name, Frames: []mesh.Frame{f}}
	}
	return shapes
}

func copyDeltas(dst []mathutil.Vec3, src [][3]float32) {
	for i := 0; i < len(src) && i < len(dst); i++ {
		dst[i] = mathutil.Vec3From32(src[i])
	}
}

// targetNames reads the common extras.targetNames convention.
func targetNames(gm *gltf.Mesh) []string {
	var extras struct {
		TargetNames []string `json:"targetNames"`
	}
	switch e := gm.Extras.(type) {
	case map[string]any:
		raw, _ := e["targetNames"].([]any)
		out := make([]string, len(raw))
		for i, v := range raw {
			out[i], _ = v.(string)
		}
		return out
	case json.RawMessage:
		if json.Unmarshal(e, &extras) == nil {
			return extras.TargetNames
		}
	case *json.RawMessage:
		if e != nil && json.Unmarshal(*e, &extras) == nil {
			return extras.TargetNames
		}
	}
	return nil
}
