package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"mesh-seam-merge/internal/mathutil"
	"mesh-seam-merge/internal/mesh"
)

func TestBuildQuad(t *testing.T) {
	// 0--1
	// | /|
	// 2--3
	adj := Build([]int{0, 1, 2, 2, 1, 3})

	assert.Equal(t, []int{0}, adj.Triangles[0])
	assert.Equal(t, []int{0, 3}, adj.Triangles[1])
	assert.Equal(t, []int{0, 3}, adj.Triangles[2])
	assert.Equal(t, []int{3}, adj.Triangles[3])

	assert.Equal(t, []int{1, 2}, adj.Neighbors[0])
	assert.Equal(t, []int{0, 2, 3}, adj.Neighbors[1])
	assert.Equal(t, []int{0, 1, 3}, adj.Neighbors[2])
	assert.Equal(t, []int{1, 2}, adj.Neighbors[3])
}

func TestBuildMeshConcatenatesSubMeshes(t *testing.T) {
	m := &mesh.Mesh{
		Vertices:  make([]mathutil.Vec3, 5),
		SubMeshes: [][]int{{0, 1, 2}, {2, 3, 4}},
	}
	adj := BuildMesh(m)
	assert.Equal(t, []int{0, 3}, adj.Triangles[2])
	assert.Equal(t, []int{0, 1, 3, 4}, adj.Neighbors[2])
	_, ok := adj.Neighbors[5]
	assert.False(t, ok)
}

func TestCoincident(t *testing.T) {
	pts := []mathutil.Vec3{
		{0, 0, 0},
		{1, 0, 0},
		{0.00002, 0, 0}, // rounds onto vertex 0
		{1, 0, 0},
		{2, 0, 0},
	}
	g := Coincident(pts, mathutil.CoincidentScale)

	assert.Equal(t, []int{0, 2}, g[0])
	assert.Equal(t, []int{0, 2}, g[2])
	assert.Equal(t, []int{1, 3}, g[3])
	assert.Equal(t, []int{4}, g.Of(4))
	assert.Equal(t, []int{7}, g.Of(7))
	assert.Equal(t, 2, g.Count())
}

func TestMergeNeighbors(t *testing.T) {
	// Two triangles that touch only through duplicated vertices 2 and 3.
	adj := Build([]int{0, 1, 2, 3, 4, 5})
	pts := []mathutil.Vec3{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}, {0, 1, 0}, {-1, 1, 0}, {0, 2, 0}}
	g := Coincident(pts, mathutil.CoincidentScale)

	merged := MergeNeighbors(adj.Neighbors, g)
	assert.Equal(t, []int{0, 1, 3, 4, 5}, merged[2])
	assert.Equal(t, []int{0, 1, 2, 4, 5}, merged[3])
	assert.Equal(t, []int{1, 2}, merged[0])
}
