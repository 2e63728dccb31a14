package seam

import (
	"sort"

	"mesh-seam-merge/internal/graph"
	"mesh-seam-merge/internal/mathutil"
	"mesh-seam-merge/internal/mesh"
)

// MaxDepth bounds the smoothing falloff in adjacency hops.
const MaxDepth = 10

// Baked is a pose-evaluated mesh whose normals get smoothed in place.
type Baked struct {
	Mesh         *mesh.Mesh
	Adjacency    *graph.Adjacency
	LocalToWorld mathutil.Mat4
	WorldToLocal mathutil.Mat4
}

func (b *Baked) ready() bool {
	return b != nil && b.Mesh != nil && b.Mesh.HasNormals() && b.Adjacency != nil
}

// side holds per-mesh smoothing state.
type side struct {
	normals    []mathutil.Vec3
	coincident graph.Groups
	neighbors  map[int][]int
	fixed      map[int]mathutil.Vec3
}

func newSide(b *Baked) *side {
	c := graph.Coincident(b.Mesh.Vertices, mathutil.CoincidentScale)
	return &side{
		normals:    b.Mesh.Normals,
		coincident: c,
		neighbors:  graph.MergeNeighbors(b.Adjacency.Neighbors, c),
		fixed:      make(map[int]mathutil.Vec3),
	}
}

func (s *side) seed(i int, n mathutil.Vec3) {
	for _, g := range s.coincident.Of(i) {
		s.fixed[g] = n
	}
}

// SmoothNormals fixes a shared normal at every seam pair and blends the
// normals around it. Each pair's seam normal is the normalized sum of both
// sides' world normals, stored on the paired vertex and its coincident
// duplicates. Vertices up to depth hops away are pulled toward their
// neighbourhood average with a weight falling linearly with distance, scaled
// by strength. Strength 0 leaves every normal untouched.
func SmoothNormals(face, body *Baked, pairs []Pair, depth int, strength float64) {
	if !face.ready() || !body.ready() || len(pairs) == 0 {
		return
	}
	strength = mathutil.Clamp01(strength)
	if strength == 0 {
		return
	}
	depth = max(0, min(depth, MaxDepth))

	fs, bs := newSide(face), newSide(body)
	for _, p := range pairs {
		if p.Face < 0 || p.Face >= len(fs.normals) || p.Body < 0 || p.Body >= len(bs.normals) {
			continue
		}
		nf := face.LocalToWorld.MulDir(fs.normals[p.Face]).Normalize()
		nb := body.LocalToWorld.MulDir(bs.normals[p.Body]).Normalize()
		merged := nf
		if sum := nf.Add(nb); sum.LenSq() > mathutil.DegenerateSq {
			merged = sum.Normalize()
		}
		fs.seed(p.Face, face.WorldToLocal.MulDir(merged).Normalize())
		bs.seed(p.Body, body.WorldToLocal.MulDir(merged).Normalize())
	}

	fs.blend(fs.weights(depth), strength)
	bs.blend(bs.weights(depth), strength)
}

// weights runs a multi-source BFS from the seeds. A vertex first reached at
// hop d gets 1 - (d+1)/(depth+1); seeds get 1.
func (s *side) weights(depth int) map[int]float64 {
	seeds := make([]int, 0, len(s.fixed))
	for i := range s.fixed {
		seeds = append(seeds, i)
	}
	sort.Ints(seeds)

	type item struct{ idx, depth int }
	w := make(map[int]float64, len(seeds))
	queue := make([]item, 0, len(seeds))
	for _, i := range seeds {
		w[i] = 1
		queue = append(queue, item{i, 0})
	}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if cur.depth >= depth {
			continue
		}
		for _, next := range s.neighbors[cur.idx] {
			if _, seen := w[next]; seen {
				continue
			}
			w[next] = max(0, 1-float64(cur.depth+1)/float64(depth+1))
			queue = append(queue, item{next, cur.depth + 1})
		}
	}
	return w
}

func (s *side) blend(weights map[int]float64, strength float64) {
	orig := make([]mathutil.Vec3, len(s.normals))
	copy(orig, s.normals)

	for idx, weight := range weights {
		if idx < 0 || idx >= len(orig) {
			continue
		}
		if n, ok := s.fixed[idx]; ok {
			s.normals[idx] = n
			continue
		}
		t := weight * strength
		if t <= 0 {
			continue
		}
		avg := orig[idx]
		for _, j := range s.neighbors[idx] {
			if j >= 0 && j < len(orig) {
				avg = avg.Add(orig[j])
			}
		}
		avg = avg.Normalize()
		if avg.LenSq() == 0 {
			avg = orig[idx]
		}
		s.normals[idx] = mathutil.Slerp(orig[idx], avg, t)
	}
}
