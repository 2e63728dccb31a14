package gltfio

import (
	"math"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mesh-seam-merge/internal/mathutil"
	"mesh-seam-merge/internal/mesh"
	"mesh-seam-merge/internal/meshtest"
	"mesh-seam-merge/internal/skeleton"
	"mesh-seam-merge/internal/topology"
)

func rigNodes() []skeleton.Node {
	return []skeleton.Node{
		{Name: "root", Parent: -1, Translation: mathutil.Vec3{0, 1, 0}},
		{Name: "head", Parent: 0, Translation: mathutil.Vec3{0, 0, 2}},
	}
}

func sampleFace() *mesh.Mesh {
	m := meshtest.Quad("face", mathutil.Vec3{})
	m.BindPoses = []mathutil.Mat4{meshtest.Translate(0, -1, -2)}
	m.BlendShapes = []mesh.BlendShape{{
		Name: "blink",
		Frames: []mesh.Frame{{
			Weight:        100,
			DeltaVertices: []mathutil.Vec3{{0, 0, 0.5}, {}, {}, {0, -0.25, 0}},
			DeltaNormals:  make([]mathutil.Vec3, 4),
			DeltaTangents: make([]mathutil.Vec3, 4),
		}},
	}}
	return m
}

func assertMat4(t *testing.T, want, got mathutil.Mat4) {
	t.Helper()
	w, g := want.ColumnMajor(), got.ColumnMajor()
	for i := range w {
		assert.InDelta(t, w[i], g[i], 1e-6, "element %d", i)
	}
}

func assertSameMesh(t *testing.T, want, got *mesh.Mesh) {
	t.Helper()
	require.Equal(t, want.VertexCount(), got.VertexCount())
	for i := range want.Vertices {
		assert.True(t, want.Vertices[i].ApproxEqual(got.Vertices[i], 1e-6), "vertex %d", i)
		assert.True(t, want.Normals[i].ApproxEqual(got.Normals[i], 1e-6), "normal %d", i)
		assert.InDeltaSlice(t, want.UVs[i][:], got.UVs[i][:], 1e-6, "uv %d", i)
		assert.InDeltaSlice(t, want.Tangents[i][:], got.Tangents[i][:], 1e-6, "tangent %d", i)
		assert.Equal(t, want.Weights[i], got.Weights[i], "weights %d", i)
	}
	assert.Equal(t, want.SubMeshes, got.SubMeshes)
}

func TestEncodeDecode(t *testing.T) {
	src := sampleFace()
	md, err := Encode(src, rigNodes(), []int{1})
	require.NoError(t, err)

	assert.Equal(t, 0, md.Skin)
	assertSameMesh(t, src, md.Mesh)
	require.Len(t, md.Rig.Bones, 1)
	assertMat4(t, meshtest.Translate(0, 1, 2), md.Rig.Bones[0])
	assertMat4(t, mathutil.Mat4Identity(), md.Rig.LocalToWorld)
	require.Len(t, md.Mesh.BindPoses, 1)
	assertMat4(t, src.BindPoses[0], md.Mesh.BindPoses[0])
}

func TestSaveLoad(t *testing.T) {
	dir := t.TempDir()
	src := sampleFace()
	md, err := Encode(src, rigNodes(), []int{1})
	require.NoError(t, err)

	for _, name := range []string{"face.glb", "face.gltf"} {
		path := filepath.Join(dir, name)
		require.NoError(t, md.Save(path), name)

		got, err := Load(path, "")
		require.NoError(t, err, name)
		assertSameMesh(t, src, got.Mesh)
		assertMat4(t, meshtest.Translate(0, 1, 2), got.Rig.Bones[0])
		assertMat4(t, src.BindPoses[0], got.Mesh.BindPoses[0])

		require.Len(t, got.Mesh.BlendShapes, 1, name)
		bs := got.Mesh.BlendShapes[0]
		assert.Equal(t, "blink", bs.Name)
		require.Len(t, bs.Frames, 1)
		assert.Equal(t, 100.0, bs.Frames[0].Weight)
		assert.True(t, bs.Frames[0].DeltaVertices[0].ApproxEqual(mathutil.Vec3{0, 0, 0.5}, 1e-6))
		assert.True(t, bs.Frames[0].DeltaVertices[3].ApproxEqual(mathutil.Vec3{0, -0.25, 0}, 1e-6))

		byName, err := Load(path, "face")
		require.NoError(t, err, name)
		assert.Equal(t, got.MeshIndex, byName.MeshIndex)
	}
}

func TestNodeTransformsSurviveSave(t *testing.T) {
	h := math.Sqrt2 / 2
	offset := meshtest.Translate(0.5, 0, -1)
	nodes := []skeleton.Node{
		{Name: "root", Parent: -1, Translation: mathutil.Vec3{1, 2, 3}, Rotation: mathutil.Quat{0, 0, h, h}, Scale: mathutil.Vec3{2, 2, 2}},
		{Name: "head", Parent: 0, Matrix: &offset},
	}
	want := skeleton.BuildWorldMatrices(nodes)

	face := sampleFace()
	face.BindPoses = append(face.BindPoses, mathutil.Mat4Identity())
	md, err := Encode(face, nodes, []int{0, 1})
	require.NoError(t, err)
	assert.Equal(t, [3]float32{1, 2, 3}, md.Doc.Nodes[0].Translation)

	path := filepath.Join(t.TempDir(), "rig.glb")
	require.NoError(t, md.Save(path))
	got, err := Load(path, "face")
	require.NoError(t, err)
	require.Len(t, got.Rig.Bones, 2)
	assertMat4(t, want[0], got.Rig.Bones[0])
	assertMat4(t, want[1], got.Rig.Bones[1])
	assert.Len(t, got.Doc.Meshes[got.MeshIndex].Weights, 1)
}

func TestReplaceAfterSplit(t *testing.T) {
	md, err := Encode(sampleFace(), rigNodes(), []int{1})
	require.NoError(t, err)

	m := md.Mesh.Clone()
	require.Equal(t, 4, topology.NewSplitter(m, nil).Split(1, 2))
	require.NoError(t, md.Replace(m))

	path := filepath.Join(t.TempDir(), "split.glb")
	require.NoError(t, md.Save(path))
	got, err := Load(path, "face")
	require.NoError(t, err)
	assert.Equal(t, 5, got.Mesh.VertexCount())
	assert.Equal(t, 4, got.Mesh.TriangleCount())
	assert.True(t, got.Mesh.Vertices[4].ApproxEqual(mathutil.Vec3{0.5, 0.5, 0}, 1e-6))
	assert.Equal(t, 0, got.Mesh.Weights[4].Bones[0])
	assert.InDelta(t, 1, got.Mesh.Weights[4].Weights[0], 1e-6)
}

func TestReplaceRejectsInvalidMesh(t *testing.T) {
	md, err := Encode(sampleFace(), rigNodes(), []int{1})
	require.NoError(t, err)
	bad := md.Mesh.Clone()
	bad.SubMeshes = [][]int{{0, 1, 9}}
	assert.Error(t, md.Replace(bad))
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()
	rigid, err := Encode(meshtest.Quad("prop", mathutil.Vec3{}), nil, nil)
	require.NoError(t, err)
	assert.Equal(t, -1, rigid.Skin)
	assert.Empty(t, rigid.Rig.Bones)

	path := filepath.Join(dir, "prop.glb")
	require.NoError(t, rigid.Save(path))

	_, err = Load(path, "")
	assert.ErrorIs(t, err, ErrNoSkinnedMesh)
	_, err = Load(path, "nope")
	assert.ErrorIs(t, err, ErrMeshNotFound)

	got, err := Load(path, "prop")
	require.NoError(t, err)
	assert.Equal(t, 4, got.Mesh.VertexCount())

	_, err = Load(filepath.Join(dir, "missing.glb"), "")
	assert.Error(t, err)
}
