// Package graph builds vertex adjacency and coincident-vertex groups for
// triangle meshes. Both the seam aligner and the normal smoother consume it.
package graph

import (
	"sort"

	"mesh-seam-merge/internal/mathutil"
	"mesh-seam-merge/internal/mesh"
)

// Adjacency maps each referenced vertex to the start offsets of its incident
// triangles and to its neighbour vertices. Neighbour lists are sorted and
// free of duplicates.
type Adjacency struct {
	Triangles map[int][]int
	Neighbors map[int][]int
}

// Build computes adjacency for a flat triangle index list. A trailing partial
// triangle is ignored.
func Build(tris []int) *Adjacency {
	a := &Adjacency{
		Triangles: make(map[int][]int),
		Neighbors: make(map[int][]int),
	}
	sets := make(map[int]map[int]struct{})
	link := func(v, n int) {
		s, ok := sets[v]
		if !ok {
			s = make(map[int]struct{})
			sets[v] = s
		}
		s[n] = struct{}{}
	}

	for i := 0; i+2 < len(tris); i += 3 {
		t0, t1, t2 := tris[i], tris[i+1], tris[i+2]
		a.Triangles[t0] = append(a.Triangles[t0], i)
		a.Triangles[t1] = append(a.Triangles[t1], i)
		a.Triangles[t2] = append(a.Triangles[t2], i)
		link(t0, t1)
		link(t0, t2)
		link(t1, t0)
		link(t1, t2)
		link(t2, t0)
		link(t2, t1)
	}

	for v, s := range sets {
		a.Neighbors[v] = sortedKeys(s)
	}
	return a
}

// BuildMesh computes adjacency over all submeshes of m.
func BuildMesh(m *mesh.Mesh) *Adjacency {
	return Build(m.Triangles())
}

// Groups maps every vertex index to the full list of vertices that share its
// quantized position, itself included. All members of a group share one slice.
type Groups map[int][]int

// Coincident groups points whose coordinates round to the same integer key
// after multiplying by scale. Group members are in ascending index order.
func Coincident(points []mathutil.Vec3, scale float64) Groups {
	byKey := make(map[mathutil.Key3][]int)
	order := make([]mathutil.Key3, 0)
	for i, p := range points {
		k := mathutil.Quantize(p, scale)
		if _, ok := byKey[k]; !ok {
			order = append(order, k)
		}
		byKey[k] = append(byKey[k], i)
	}
	g := make(Groups, len(points))
	for _, k := range order {
		members := byKey[k]
		for _, idx := range members {
			g[idx] = members
		}
	}
	return g
}

// Of returns the group containing idx, or just idx when it was not grouped.
func (g Groups) Of(idx int) []int {
	if members, ok := g[idx]; ok {
		return members
	}
	return []int{idx}
}

// Count returns the number of distinct groups with more than one member.
func (g Groups) Count() int {
	n := 0
	for idx, members := range g {
		if len(members) > 1 && members[0] == idx {
			n++
		}
	}
	return n
}

// MergeNeighbors unions adjacency with coincident links: a vertex becomes
// adjacent to every other member of its group and to all of their neighbours.
func MergeNeighbors(neighbors map[int][]int, coincident Groups) map[int][]int {
	keys := make(map[int]struct{}, len(neighbors)+len(coincident))
	for k := range neighbors {
		keys[k] = struct{}{}
	}
	for k := range coincident {
		keys[k] = struct{}{}
	}

	merged := make(map[int][]int, len(keys))
	for k := range keys {
		set := make(map[int]struct{})
		for _, n := range neighbors[k] {
			set[n] = struct{}{}
		}
		for _, g := range coincident[k] {
			if g != k {
				set[g] = struct{}{}
			}
			for _, n := range neighbors[g] {
				set[n] = struct{}{}
			}
		}
		delete(set, k)
		merged[k] = sortedKeys(set)
	}
	return merged
}

func sortedKeys(s map[int]struct{}) []int {
	out := make([]int, 0, len(s))
	for k := range s {
		out = append(out, k)
	}
	sort.Ints(out)
	return out
}
