// Package meshtest provides small skinned meshes for tests.
package meshtest

import (
	"mesh-seam-merge/internal/mathutil"
	"mesh-seam-merge/internal/mesh"
)

// Quad returns a unit quad in the XY plane with its lower-left corner at
// origin, split into triangles (0,2,1) and (2,3,1):
//
//	2--3
//	| /|
//	0--1
//
// Every vertex is bound fully to bone 0 with an identity bind pose.
func Quad(name string, origin mathutil.Vec3) *mesh.Mesh {
	m := &mesh.Mesh{
		Name: name,
		Vertices: []mathutil.Vec3{
			origin,
			origin.Add(mathutil.Vec3{1, 0, 0}),
			origin.Add(mathutil.Vec3{0, 1, 0}),
			origin.Add(mathutil.Vec3{1, 1, 0}),
		},
		UVs:       []mathutil.Vec2{{0, 0}, {1, 0}, {0, 1}, {1, 1}},
		SubMeshes: [][]int{{0, 2, 1, 2, 3, 1}},
		BindPoses: []mathutil.Mat4{mathutil.Mat4Identity()},
	}
	fillFlat(m)
	return m
}

// Strip returns a row of quads symmetric about x = 0 with columns at
// x = -cols..cols, two rows high. Vertex (col, row) has index
// row*(2*cols+1) + col + cols.
func Strip(name string, cols int) *mesh.Mesh {
	w := 2*cols + 1
	m := &mesh.Mesh{Name: name, BindPoses: []mathutil.Mat4{mathutil.Mat4Identity()}}
	for row := 0; row < 2; row++ {
		for c := -cols; c <= cols; c++ {
			m.Vertices = append(m.Vertices, mathutil.Vec3{float64(c), float64(row), 0})
			m.UVs = append(m.UVs, mathutil.Vec2{float64(c+cols) / float64(w-1), float64(row)})
		}
	}
	var tris []int
	for c := 0; c+1 < w; c++ {
		a, b := c, c+1
		d, e := c+w, c+1+w
		tris = append(tris, a, d, b, d, e, b)
	}
	m.SubMeshes = [][]int{tris}
	fillFlat(m)
	return m
}

// Grid returns an n×n vertex grid in the XY plane with unit spacing.
// Vertex (x, y) has index y*n + x.
func Grid(name string, n int) *mesh.Mesh {
	m := &mesh.Mesh{Name: name, BindPoses: []mathutil.Mat4{mathutil.Mat4Identity()}}
	for y := 0; y < n; y++ {
		for x := 0; x < n; x++ {
			m.Vertices = append(m.Vertices, mathutil.Vec3{float64(x), float64(y), 0})
			m.UVs = append(m.UVs, mathutil.Vec2{float64(x) / float64(n-1), float64(y) / float64(n-1)})
		}
	}
	var tris []int
	for y := 0; y+1 < n; y++ {
		for x := 0; x+1 < n; x++ {
			a := y*n + x
			tris = append(tris, a, a+n, a+1, a+n, a+n+1, a+1)
		}
	}
	m.SubMeshes = [][]int{tris}
	fillFlat(m)
	return m
}

// Bones returns n identity bone matrices.
func Bones(n int) []mathutil.Mat4 {
	out := make([]mathutil.Mat4, n)
	for i := range out {
		out[i] = mathutil.Mat4Identity()
	}
	return out
}

// Translate returns a translation matrix.
func Translate(x, y, z float64) mathutil.Mat4 {
	return mathutil.TRS(mathutil.Vec3{x, y, z}, mathutil.QuatIdentity, mathutil.Vec3{1, 1, 1})
}

func fillFlat(m *mesh.Mesh) {
	n := len(m.Vertices)
	m.Normals = make([]mathutil.Vec3, n)
	m.Tangents = make([]mathutil.Vec4, n)
	m.Weights = make([]mesh.BoneWeight, n)
	for i := 0; i < n; i++ {
		m.Normals[i] = mathutil.Vec3{0, 0, 1}
		m.Tangents[i] = mathutil.Vec4{1, 0, 0, 1}
		m.Weights[i] = mesh.BoneWeight{Weights: [4]float64{1, 0, 0, 0}}
	}
}
