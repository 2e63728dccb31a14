package session

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mesh-seam-merge/internal/mathutil"
	"mesh-seam-merge/internal/mesh"
	"mesh-seam-merge/internal/meshtest"
	"mesh-seam-merge/internal/seam"
	"mesh-seam-merge/internal/skin"
	"mesh-seam-merge/internal/topology"
)

// quads returns a face quad at the origin and a body quad whose single bone
// lifts it to z = 1.
func quads(opts ...Option) *Session {
	face := NewMeshWorkspace(meshtest.Quad("face", mathutil.Vec3{}), skin.Rig{
		Bones:        meshtest.Bones(1),
		LocalToWorld: mathutil.Mat4Identity(),
	}, nil)
	body := NewMeshWorkspace(meshtest.Quad("body", mathutil.Vec3{}), skin.Rig{
		Bones:        []mathutil.Mat4{meshtest.Translate(0, 0, 1)},
		LocalToWorld: mathutil.Mat4Identity(),
	}, nil)
	return New(face, body, opts...)
}

func strips(opts ...Option) *Session {
	face := NewMeshWorkspace(meshtest.Strip("face", 2), skin.IdentityRig(), nil)
	body := NewMeshWorkspace(meshtest.Strip("body", 2), skin.Rig{
		Bones:        []mathutil.Mat4{meshtest.Translate(0, -1, 0)},
		LocalToWorld: mathutil.Mat4Identity(),
	}, nil)
	return New(face, body, opts...)
}

func noSymmetry() Option {
	st := DefaultSettings()
	st.Symmetry = false
	return WithSettings(st)
}

func worldOf(s *Session, side Side, i int) mathutil.Vec3 {
	return s.Space(side).ToWorld(s.Topology(side).Vertices[i], i)
}

func TestPairMergesWorldPositions(t *testing.T) {
	s := quads(noSymmetry())
	idx := s.AddPair(seam.Pair{Face: 0, Body: 0})
	require.Equal(t, 0, idx)

	want := mathutil.Vec3{0, 0, 0.5}
	assert.True(t, worldOf(s, Face, 0).ApproxEqual(want, 1e-9), "%v", worldOf(s, Face, 0))
	assert.True(t, worldOf(s, Body, 0).ApproxEqual(want, 1e-9), "%v", worldOf(s, Body, 0))

	// untouched vertices stay put
	assert.True(t, worldOf(s, Face, 3).ApproxEqual(mathutil.Vec3{1, 1, 0}, 1e-9))
	assert.True(t, worldOf(s, Body, 3).ApproxEqual(mathutil.Vec3{1, 1, 1}, 1e-9))

	// baked results agree in renderer space
	assert.True(t, s.Result(Face).Vertices[0].ApproxEqual(want, 1e-9))
	assert.True(t, s.Result(Body).Vertices[0].ApproxEqual(want, 1e-9))

	// sources are never mutated
	assert.Equal(t, mathutil.Vec3{}, s.Workspace(Face).Source().Vertices[0])
	assert.Equal(t, mathutil.Vec3{}, s.Workspace(Body).Source().Vertices[0])
}

func TestFinalCarriesSmoothedNormals(t *testing.T) {
	h := math.Sqrt2 / 2
	faceMesh := meshtest.Quad("face", mathutil.Vec3{})
	bodyMesh := meshtest.Quad("body", mathutil.Vec3{})
	for i := range bodyMesh.Normals {
		bodyMesh.Normals[i] = mathutil.Vec3{0, -1, 0}
	}
	// The body bone turns its bind-space normals to +X in world space.
	spin := mathutil.TRS(mathutil.Vec3{}, mathutil.Quat{0, 0, h, h}, mathutil.Vec3{1, 1, 1})
	face := NewMeshWorkspace(faceMesh, skin.IdentityRig(), nil)
	body := NewMeshWorkspace(bodyMesh, skin.Rig{Bones: []mathutil.Mat4{spin}, LocalToWorld: mathutil.Mat4Identity()}, nil)
	s := New(face, body, noSymmetry())
	s.AddPair(seam.Pair{Face: 0, Body: 0})

	merged := mathutil.Vec3{h, 0, h}
	require.True(t, s.Result(Face).Normals[0].ApproxEqual(merged, 1e-9), "have %v", s.Result(Face).Normals[0])
	assert.True(t, s.Result(Body).Normals[0].ApproxEqual(merged, 1e-9), "have %v", s.Result(Body).Normals[0])

	assert.True(t, s.Final(Face).Normals[0].ApproxEqual(merged, 1e-9), "have %v", s.Final(Face).Normals[0])
	assert.True(t, s.Final(Body).Normals[0].ApproxEqual(mathutil.Vec3{0, -h, h}, 1e-9), "have %v", s.Final(Body).Normals[0])
	assert.Equal(t, s.Topology(Face).Vertices, s.Final(Face).Vertices)

	// the aligned topology keeps its unsmoothed normals
	assert.Equal(t, mathutil.Vec3{0, 0, 1}, s.Topology(Face).Normals[0])

	st := s.Settings()
	st.SmoothStrength = 0
	s.SetSettings(st)
	assert.Equal(t, s.Topology(Body).Normals, s.Final(Body).Normals)
}

func TestPairOffset(t *testing.T) {
	s := quads(noSymmetry())
	s.AddPair(seam.Pair{Face: 0, Body: 0, Offset: mathutil.Vec3{0, 0.25, 0}})
	want := mathutil.Vec3{0, 0.25, 0.5}
	assert.True(t, worldOf(s, Face, 0).ApproxEqual(want, 1e-9))
	assert.True(t, worldOf(s, Body, 0).ApproxEqual(want, 1e-9))
}

func TestDeletePairRestores(t *testing.T) {
	s := quads(noSymmetry())
	idx := s.AddPair(seam.Pair{Face: 1, Body: 1})
	require.True(t, worldOf(s, Face, 1).ApproxEqual(mathutil.Vec3{1, 0, 0.5}, 1e-9))

	require.True(t, s.DeletePair(idx))
	s.Invalidate()
	assert.True(t, worldOf(s, Face, 1).ApproxEqual(mathutil.Vec3{1, 0, 0}, 1e-9))
	assert.True(t, worldOf(s, Body, 1).ApproxEqual(mathutil.Vec3{1, 0, 1}, 1e-9))
	assert.Equal(t, 0, s.Log().Len())

	assert.False(t, s.DeletePair(0))
}

func TestAddPairRejectsOutOfRange(t *testing.T) {
	s := quads(noSymmetry())
	assert.Equal(t, -1, s.AddPair(seam.Pair{Face: 4, Body: 0}))
	assert.Equal(t, -1, s.AddPair(seam.Pair{Face: 0, Body: -1}))
	assert.Equal(t, 0, s.Log().Len())
}

func TestAddPairUpdatesExisting(t *testing.T) {
	s := quads(noSymmetry())
	a := s.AddPair(seam.Pair{Face: 0, Body: 0})
	b := s.AddPair(seam.Pair{Face: 0, Body: 0, Offset: mathutil.Vec3{1, 0, 0}})
	assert.Equal(t, a, b)
	assert.Equal(t, 1, s.Log().Len())
	r, _ := s.Log().At(a)
	assert.Equal(t, mathutil.Vec3{1, 0, 0}, r.Pair.Offset)
}

func TestDirtyFlags(t *testing.T) {
	s := quads(noSymmetry())
	topo, deform := s.Dirty()
	assert.True(t, topo)
	assert.True(t, deform)

	require.True(t, s.Update())
	assert.False(t, s.Update())
	cached := s.topo[Face]

	s.AddPair(seam.Pair{Face: 0, Body: 0})
	topo, deform = s.Dirty()
	assert.False(t, topo)
	assert.True(t, deform)

	require.True(t, s.Update())
	assert.Same(t, cached, s.topo[Face], "pair edits must not re-split")

	s.AddSplit(Face, topology.Edge{V1: 1, V2: 2})
	topo, _ = s.Dirty()
	assert.True(t, topo)
	require.True(t, s.Update())
	assert.NotSame(t, cached, s.topo[Face])
}

func TestSplitRebuild(t *testing.T) {
	s := quads(noSymmetry())
	assert.Equal(t, 1, s.AddSplit(Face, topology.Edge{V1: 1, V2: 2}))
	assert.Equal(t, 0, s.AddSplit(Face, topology.Edge{V1: 1, V2: 7}))

	m := s.Topology(Face)
	require.Equal(t, 5, m.VertexCount())
	assert.Equal(t, 4, m.TriangleCount())
	assert.True(t, m.Vertices[4].ApproxEqual(mathutil.Vec3{0.5, 0.5, 0}, 1e-12))
	assert.Equal(t, []topology.Dependency{{Mid: 4, Parent1: 1, Parent2: 2}}, s.Dependencies(Face))
	assert.Equal(t, 4, s.Topology(Body).VertexCount())

	// moving a parent drags the midpoint along
	s.AddPair(seam.Pair{Face: 1, Body: 1})
	assert.True(t, worldOf(s, Face, 1).ApproxEqual(mathutil.Vec3{1, 0, 0.5}, 1e-9))
	assert.True(t, worldOf(s, Face, 4).ApproxEqual(mathutil.Vec3{0.5, 0.5, 0.25}, 1e-9))
	assert.Equal(t, 5, s.Result(Face).VertexCount())
}

func TestSplitCarriesBlendShapes(t *testing.T) {
	src := meshtest.Quad("face", mathutil.Vec3{})
	src.BlendShapes = []mesh.BlendShape{{
		Name: "smile",
		Frames: []mesh.Frame{{
			Weight:        100,
			DeltaVertices: []mathutil.Vec3{{}, {0, 0, 2}, {0, 0, 4}, {}},
		}},
	}}
	face := NewMeshWorkspace(src, skin.IdentityRig(), nil)
	body := NewMeshWorkspace(meshtest.Quad("body", mathutil.Vec3{}), skin.IdentityRig(), nil)
	s := New(face, body, noSymmetry())
	s.AddSplit(Face, topology.Edge{V1: 1, V2: 2})

	m := s.Topology(Face)
	require.Len(t, m.BlendShapes, 1)
	d := m.BlendShapes[0].Frames[0].DeltaVertices
	require.Len(t, d, 5)
	assert.Equal(t, mathutil.Vec3{0, 0, 3}, d[4])

	face.SetBlendWeights(map[string]float64{"smile": 100})
	s.Invalidate()
	assert.True(t, s.Result(Face).Vertices[4].ApproxEqual(mathutil.Vec3{0.5, 0.5, 3}, 1e-9))
}

func TestSymmetricSplit(t *testing.T) {
	s := strips()
	// left edge 0-5 mirrors to right edge 4-9
	assert.Equal(t, 2, s.AddSplit(Face, topology.Edge{V1: 0, V2: 5}))
	assert.Equal(t, []string{"Face Split 0 - 5", "Face Split 4 - 9"}, s.Labels())
	assert.Equal(t, 12, s.Topology(Face).VertexCount())

	// vertices on the mirror plane have no counterpart
	assert.Equal(t, 1, s.AddSplit(Body, topology.Edge{V1: 2, V2: 7}))
	assert.Equal(t, 11, s.Topology(Body).VertexCount())
}

func TestSymmetricPair(t *testing.T) {
	s := strips()
	idx := s.AddPair(seam.Pair{Face: 0, Body: 0, Offset: mathutil.Vec3{0.1, 0.2, 0}})
	require.Equal(t, 0, idx)
	require.Equal(t, 2, s.Log().Len())

	m, ok := s.Log().At(1)
	require.True(t, ok)
	assert.Equal(t, seam.Key{Face: 4, Body: 4}, m.Pair.Key())
	assert.True(t, m.Pair.Offset.ApproxEqual(mathutil.Vec3{-0.1, 0.2, 0}, 1e-12))

	// adding the mirror explicitly updates it without a third record
	s.AddPair(seam.Pair{Face: 4, Body: 4})
	assert.Equal(t, 2, s.Log().Len())

	require.True(t, s.SetPairOffset(0, mathutil.Vec3{0.3, 0, 0}))
	m, _ = s.Log().At(1)
	assert.True(t, m.Pair.Offset.ApproxEqual(mathutil.Vec3{-0.3, 0, 0}, 1e-12))

	// both seams are aligned
	assert.True(t, worldOf(s, Face, 0).ApproxEqual(worldOf(s, Body, 0), 1e-9))
	assert.True(t, worldOf(s, Face, 4).ApproxEqual(worldOf(s, Body, 4), 1e-9))

	require.True(t, s.DeletePair(1))
	assert.Equal(t, 0, s.Log().Len())
}

func TestOnPlanePairHasNoMirror(t *testing.T) {
	s := strips()
	s.AddPair(seam.Pair{Face: 2, Body: 2})
	assert.Equal(t, 1, s.Log().Len())
}

func TestSetPairOffsetFromWorld(t *testing.T) {
	s := quads(noSymmetry())
	idx := s.AddPair(seam.Pair{Face: 0, Body: 0})
	require.True(t, s.SetPairOffsetFromWorld(idx, mathutil.Vec3{0, 1, 0.5}))

	r, _ := s.Log().At(idx)
	assert.True(t, r.Pair.Offset.ApproxEqual(mathutil.Vec3{0, 1, 0}, 1e-9), "%v", r.Pair.Offset)
	assert.True(t, worldOf(s, Face, 0).ApproxEqual(mathutil.Vec3{0, 1, 0.5}, 1e-9))

	// repeating the request is stable
	require.True(t, s.SetPairOffsetFromWorld(idx, mathutil.Vec3{0, 1, 0.5}))
	r, _ = s.Log().At(idx)
	assert.True(t, r.Pair.Offset.ApproxEqual(mathutil.Vec3{0, 1, 0}, 1e-9))

	assert.False(t, s.SetPairOffsetFromWorld(5, mathutil.Vec3{}))
}

func TestRevertAndClear(t *testing.T) {
	s := quads(noSymmetry())
	s.AddSplit(Face, topology.Edge{V1: 1, V2: 2})
	s.AddPair(seam.Pair{Face: 4, Body: 0})
	s.AddSplit(Body, topology.Edge{V1: 1, V2: 2})
	require.Equal(t, 5, s.Topology(Body).VertexCount())

	require.True(t, s.RevertTo(0))
	assert.Equal(t, []string{"Face Split 1 - 2"}, s.Labels())
	assert.Equal(t, 4, s.Topology(Body).VertexCount())
	assert.Equal(t, 5, s.Topology(Face).VertexCount())
	assert.False(t, s.RevertTo(3))

	s.Clear()
	assert.Equal(t, 4, s.Topology(Face).VertexCount())
	assert.Empty(t, s.Labels())
}

func TestQueries(t *testing.T) {
	s := quads(noSymmetry())
	s.AddSplit(Face, topology.Edge{V1: 1, V2: 2})
	s.AddPair(seam.Pair{Face: 4, Body: 3})

	assert.True(t, s.IsVertexUsed(Face, 4))
	assert.True(t, s.IsVertexUsed(Body, 3))
	assert.False(t, s.IsVertexUsed(Face, 3))
	assert.True(t, s.IsVertexUsed(Body, -1))

	assert.Equal(t, -1, s.PairIndex(0))
	assert.Equal(t, 0, s.PairIndex(1))
	assert.Equal(t, []string{"Face Split 1 - 2", "Pair Face 4 / Body 3"}, s.Labels())
}

func TestSettings(t *testing.T) {
	st := Settings{SmoothDepth: 99, SmoothStrength: -1}.Clamped()
	assert.Equal(t, seam.MaxDepth, st.SmoothDepth)
	assert.Equal(t, 0.0, st.SmoothStrength)
	assert.Equal(t, DefaultSettings().SymmetryTolerance, st.SymmetryTolerance)

	s := quads()
	s.Update()
	next := s.Settings()
	next.SmoothDepth = 5
	s.SetSettings(next)
	topo, deform := s.Dirty()
	assert.False(t, topo)
	assert.True(t, deform)

	next.SymmetryTolerance = 0.01
	s.SetSettings(next)
	topo, _ = s.Dirty()
	assert.True(t, topo)
}

func TestUpdateWithoutSources(t *testing.T) {
	s := New(NewMeshWorkspace(nil, skin.IdentityRig(), nil), nil)
	assert.False(t, s.Update())
	assert.Nil(t, s.Result(Face))
	assert.Equal(t, 0, s.AddSplit(Face, topology.Edge{V1: 0, V2: 1}))
}
