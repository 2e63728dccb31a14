// Package mesh holds the skinned mesh representation shared by the merge engine.
package mesh

import (
	"fmt"

	"github.com/jinzhu/copier"

	"mesh-seam-merge/internal/mathutil"
)

// Frame is one blend-shape frame. Delta arrays are sized to the vertex count
// of the mesh the frame was captured from.
type Frame struct {
	Weight        float64
	DeltaVertices []mathutil.Vec3
	DeltaNormals  []mathutil.Vec3
	DeltaTangents []mathutil.Vec3
}

// BlendShape is a named, ordered list of frames.
type BlendShape struct {
	Name   string
	Frames []Frame
}

// Mesh holds geometry for one skinned renderer. Per-vertex attribute slices
// are parallel to Vertices; an attribute whose length differs from the
// vertex count is treated as absent.
type Mesh struct {
	Name      string
	Vertices  []mathutil.Vec3 // local space
	Normals   []mathutil.Vec3
	Tangents  []mathutil.Vec4 // xyz direction, w handedness
	UVs       []mathutil.Vec2
	Weights   []BoneWeight
	SubMeshes [][]int // triangle index lists
	BindPoses []mathutil.Mat4

	BlendShapes []BlendShape
}

// VertexCount returns the number of vertices.
func (m *Mesh) VertexCount() int {
	if m == nil {
		return 0
	}
	return len(m.Vertices)
}

func (m *Mesh) HasNormals() bool  { return m != nil && len(m.Normals) == len(m.Vertices) }
func (m *Mesh) HasTangents() bool { return m != nil && len(m.Tangents) == len(m.Vertices) }
func (m *Mesh) HasUVs() bool      { return m != nil && len(m.UVs) == len(m.Vertices) }
func (m *Mesh) HasWeights() bool  { return m != nil && len(m.Weights) == len(m.Vertices) }

// InRange reports whether i is a valid vertex index.
func (m *Mesh) InRange(i int) bool {
	return m != nil && i >= 0 && i < len(m.Vertices)
}

// Triangles returns every submesh's indices concatenated in submesh order.
func (m *Mesh) Triangles() []int {
	if m == nil {
		return nil
	}
	n := 0
	for _, sm := range m.SubMeshes {
		n += len(sm)
	}
	tris := make([]int, 0, n)
	for _, sm := range m.SubMeshes {
		tris = append(tris, sm...)
	}
	return tris
}

// TriangleCount returns the number of triangles over all submeshes.
func (m *Mesh) TriangleCount() int {
	n := 0
	for _, sm := range m.SubMeshes {
		n += len(sm) / 3
	}
	return n
}

// Clone returns a deep copy of m. A nil mesh clones to nil.
func (m *Mesh) Clone() *Mesh {
	if m == nil {
		return nil
	}
	out := new(Mesh)
	if err := copier.CopyWithOption(out, m, copier.Option{DeepCopy: true}); err != nil {
		// copier only fails on mismatched kinds; identical types never do.
		panic(fmt.Sprintf("mesh: clone %s: %v", m.Name, err))
	}
	return out
}

// Validate checks structural consistency: index lists in multiples of three
// and in range, attribute slices either absent or vertex-sized.
func (m *Mesh) Validate() error {
	if m == nil {
		return fmt.Errorf("mesh: nil mesh")
	}
	n := len(m.Vertices)
	for si, sm := range m.SubMeshes {
		if len(sm)%3 != 0 {
			return fmt.Errorf("mesh: %s submesh %d: index count %d is not a multiple of 3", m.Name, si, len(sm))
		}
		for _, idx := range sm {
			if idx < 0 || idx >= n {
				return fmt.Errorf("mesh: %s submesh %d: index %d out of range [0,%d)", m.Name, si, idx, n)
			}
		}
	}
	check := func(name string, l int) error {
		if l != 0 && l != n {
			return fmt.Errorf("mesh: %s: %s count %d does not match vertex count %d", m.Name, name, l, n)
		}
		return nil
	}
	for _, c := range []struct {
		name string
		l    int
	}{
		{"normal", len(m.Normals)},
		{"tangent", len(m.Tangents)},
		{"uv", len(m.UVs)},
		{"bone weight", len(m.Weights)},
	} {
		if err := check(c.name, c.l); err != nil {
			return err
		}
	}
	return nil
}
