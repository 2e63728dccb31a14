// Package skin converts vertex positions between a skinned mesh's local space
// and world space using per-vertex blended bone matrices.
package skin

import (
	"math"

	"mesh-seam-merge/internal/graph"
	"mesh-seam-merge/internal/mathutil"
	"mesh-seam-merge/internal/mesh"
)

// Rig is the posed skeleton a mesh is bound to.
type Rig struct {
	// Bones holds bone world matrices indexed like the mesh's bind poses.
	// A zero matrix marks a missing bone.
	Bones []mathutil.Mat4
	// LocalToWorld is the renderer's rigid transform.
	LocalToWorld mathutil.Mat4
}

// IdentityRig returns a rig with no bones placed at the origin.
func IdentityRig() Rig {
	return Rig{LocalToWorld: mathutil.Mat4Identity()}
}

// Space is the local/world mapping of one mesh under one rig.
type Space struct {
	localToWorld mathutil.Mat4
	worldToLocal mathutil.Mat4

	skin    []mathutil.Mat4 // nil when the mesh is rigid
	inverse []mathutil.Mat4
	valid   []bool // skin[i] is usable for forward transforms
	inv     []bool // inverse[i] is usable
}

// NewSpace computes the skin matrix of every vertex of m. The mesh is treated
// as rigid when it has no bind poses or no per-vertex weights.
func NewSpace(m *mesh.Mesh, rig Rig) *Space {
	l2w := rig.LocalToWorld
	if l2w.IsZero() {
		l2w = mathutil.Mat4Identity()
	}
	w2l := l2w.Inverse()
	if w2l.IsZero() {
		w2l = mathutil.Mat4Identity()
	}
	s := &Space{localToWorld: l2w, worldToLocal: w2l}

	if m == nil || len(m.BindPoses) == 0 || len(rig.Bones) == 0 || !m.HasWeights() || len(m.Weights) == 0 {
		return s
	}

	n := len(m.Weights)
	s.skin = make([]mathutil.Mat4, n)
	s.inverse = make([]mathutil.Mat4, n)
	s.valid = make([]bool, n)
	s.inv = make([]bool, n)
	for i, bw := range m.Weights {
		var acc mathutil.Mat4
		for k := 0; k < mesh.MaxInfluences; k++ {
			acc = accumulate(acc, rig.Bones, m.BindPoses, bw.Bones[k], bw.Weights[k])
		}
		s.skin[i] = acc
		s.valid[i] = !acc.IsZero()
		if math.Abs(acc.Det()) > mathutil.SingularDet {
			s.inverse[i] = acc.Inverse()
			s.inv[i] = true
		}
	}
	return s
}

func accumulate(acc mathutil.Mat4, bones, bindPoses []mathutil.Mat4, bone int, weight float64) mathutil.Mat4 {
	if weight <= 0 || bone < 0 || bone >= len(bones) || bone >= len(bindPoses) {
		return acc
	}
	if bones[bone].IsZero() {
		return acc
	}
	m := mathutil.Mat4Mul(bones[bone], bindPoses[bone])
	return acc.Add(m.Scale(weight))
}

// IsSkinned reports whether per-vertex skin matrices are in use.
func (s *Space) IsSkinned() bool { return s.skin != nil }

// LocalToWorld returns the rigid renderer transform.
func (s *Space) LocalToWorld() mathutil.Mat4 { return s.localToWorld }

// WorldToLocal returns the inverse of the rigid renderer transform.
func (s *Space) WorldToLocal() mathutil.Mat4 { return s.worldToLocal }

// Matrix returns the skin matrix of vertex i, or the rigid transform when the
// vertex has no usable influences. A vertex whose influences all drop out
// therefore maps through LocalToWorld rather than collapsing to the origin.
func (s *Space) Matrix(i int) mathutil.Mat4 {
	if i >= 0 && i < len(s.skin) && s.valid[i] {
		return s.skin[i]
	}
	return s.localToWorld
}

// ToWorld maps a local position of vertex i to world space.
func (s *Space) ToWorld(local mathutil.Vec3, i int) mathutil.Vec3 {
	return s.Matrix(i).MulPoint(local)
}

// ToLocal maps a world position back into vertex i's local space through its
// own skin inverse. Singular skin matrices fall back to the rigid transform.
func (s *Space) ToLocal(world mathutil.Vec3, i int) mathutil.Vec3 {
	if i >= 0 && i < len(s.inv) && s.inv[i] {
		return s.inverse[i].MulPoint(world)
	}
	return s.worldToLocal.MulPoint(world)
}

// BindDir maps a direction produced by Bake for vertex i back into the
// mesh's bind space. Vertices Bake leaves untouched return d unchanged.
func (s *Space) BindDir(d mathutil.Vec3, i int) mathutil.Vec3 {
	if i < 0 || i >= len(s.skin) || !s.valid[i] || !s.inv[i] {
		return d
	}
	return s.inverse[i].MulDir(s.localToWorld.MulDir(d)).Normalize()
}

// World maps every vertex to world space.
func (s *Space) World(vertices []mathutil.Vec3) []mathutil.Vec3 {
	out := make([]mathutil.Vec3, len(vertices))
	for i, v := range vertices {
		out[i] = s.ToWorld(v, i)
	}
	return out
}

// Coincident groups vertices whose world positions share a 0.1 mm bucket.
func (s *Space) Coincident(vertices []mathutil.Vec3) graph.Groups {
	return graph.Coincident(s.World(vertices), mathutil.CoincidentScale)
}
