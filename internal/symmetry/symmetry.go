// Package symmetry finds bilateral mirror vertices across the local X = 0
// plane of a mesh.
package symmetry

import (
	"math"

	"mesh-seam-merge/internal/mathutil"
	"mesh-seam-merge/internal/topology"
)

// DefaultTolerance is the mirror matching distance used when none is set.
const DefaultTolerance = 0.0005

// Lookup maps a vertex to its mirror. The relation is symmetric.
type Lookup map[int]int

// BuildLookup hashes local positions at the given tolerance and pairs every
// vertex whose X-negated key was already seen. Only the first vertex to land
// on a key is indexed, so later duplicates at that key find no mirror through
// it.
func BuildLookup(vertices []mathutil.Vec3, tolerance float64) Lookup {
	scale := 1 / math.Max(1e-6, tolerance)
	seen := make(map[mathutil.Key3]int, len(vertices))
	out := make(Lookup)
	for i, v := range vertices {
		key := mathutil.Quantize(v, scale)
		mirror := mathutil.Quantize(mathutil.Vec3{-v[0], v[1], v[2]}, scale)
		if other, ok := seen[mirror]; ok {
			out[i] = other
			out[other] = i
		}
		if _, ok := seen[key]; !ok {
			seen[key] = i
		}
	}
	return out
}

// Mirror returns the mirror of v.
func (l Lookup) Mirror(v int) (int, bool) {
	m, ok := l[v]
	return m, ok
}

// MirrorEdge returns the mirrored edge when both endpoints have mirrors and
// the result differs from e.
func (l Lookup) MirrorEdge(e topology.Edge) (topology.Edge, bool) {
	a, ok1 := l[e.V1]
	b, ok2 := l[e.V2]
	if !ok1 || !ok2 {
		return topology.Edge{}, false
	}
	me := topology.Edge{V1: a, V2: b}
	if me.Key() == e.Key() {
		return topology.Edge{}, false
	}
	return me, true
}

// MirrorOffset reflects a world-space offset across the reference transform's
// local YZ plane.
func MirrorOffset(offset mathutil.Vec3, localToWorld mathutil.Mat4) mathutil.Vec3 {
	worldToLocal := localToWorld.Inverse()
	if worldToLocal.IsZero() {
		return offset
	}
	local := worldToLocal.MulDir(offset)
	local[0] = -local[0]
	return localToWorld.MulDir(local)
}
