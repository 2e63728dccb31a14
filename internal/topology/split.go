// Package topology subdivides mesh edges and keeps the inserted midpoint
// vertices consistent with their parents.
package topology

import (
	"log/slog"

	"mesh-seam-merge/internal/mathutil"
	"mesh-seam-merge/internal/mesh"
)

// Edge is an undirected edge request between two vertex indices.
type Edge struct {
	V1 int `json:"v1" toml:"v1" yaml:"v1"`
	V2 int `json:"v2" toml:"v2" yaml:"v2"`
}

// Key returns the edge with its endpoints in ascending order.
func (e Edge) Key() Edge {
	if e.V1 > e.V2 {
		return Edge{e.V2, e.V1}
	}
	return e
}

// Dependency records that vertex Mid was inserted halfway between Parent1
// and Parent2.
type Dependency struct {
	Mid     int
	Parent1 int
	Parent2 int
}

// Splitter inserts midpoints into one mesh. Splitting the same edge again,
// in either direction, reuses the existing midpoint.
type Splitter struct {
	m     *mesh.Mesh
	cache map[Edge]int
	deps  []Dependency
	log   *slog.Logger
}

// NewSplitter returns a splitter that mutates m in place.
func NewSplitter(m *mesh.Mesh, log *slog.Logger) *Splitter {
	if log == nil {
		log = slog.Default()
	}
	return &Splitter{m: m, cache: make(map[Edge]int), log: log}
}

// Dependencies returns the midpoints created so far, in creation order.
func (s *Splitter) Dependencies() []Dependency {
	return s.deps
}

// Split subdivides edge (v1, v2) in every submesh that contains it. It
// returns the midpoint index, or -1 when the request was ignored because an
// index was out of range or no triangle uses the edge. An edge this splitter
// already subdivided returns its existing midpoint.
func (s *Splitter) Split(v1, v2 int) int {
	m := s.m
	if m == nil || !m.InRange(v1) || !m.InRange(v2) || v1 == v2 {
		s.log.Debug("split ignored: bad index", "mesh", meshName(m), "v1", v1, "v2", v2)
		return -1
	}
	mid := -1
	for si, tris := range m.SubMeshes {
		if !hasEdge(tris, v1, v2) {
			continue
		}
		mid = s.midpoint(v1, v2)
		m.SubMeshes[si] = splitTriangles(tris, v1, v2, mid)
	}
	if mid < 0 {
		if idx, ok := s.cache[Edge{v1, v2}.Key()]; ok {
			return idx
		}
		s.log.Debug("split ignored: edge not found", "mesh", m.Name, "v1", v1, "v2", v2)
	}
	return mid
}

// SplitAll applies edges in order.
func (s *Splitter) SplitAll(edges []Edge) {
	for _, e := range edges {
		s.Split(e.V1, e.V2)
	}
}

func (s *Splitter) midpoint(a, b int) int {
	key := Edge{a, b}.Key()
	if idx, ok := s.cache[key]; ok {
		return idx
	}

	m := s.m
	hasN, hasT, hasUV, hasW := m.HasNormals(), m.HasTangents(), m.HasUVs(), m.HasWeights()

	m.Vertices = append(m.Vertices, mathutil.Midpoint(m.Vertices[a], m.Vertices[b]))
	if hasN {
		m.Normals = append(m.Normals, mesh.AverageNormal(m.Normals[a], m.Normals[b]))
	}
	if hasT {
		m.Tangents = append(m.Tangents, mesh.AverageTangent(m.Tangents[a], m.Tangents[b]))
	}
	if hasUV {
		m.UVs = append(m.UVs, mesh.AverageUV(m.UVs[a], m.UVs[b]))
	}
	if hasW {
		m.Weights = append(m.Weights, mesh.BlendBoneWeights(m.Weights[a], m.Weights[b]))
	}

	idx := len(m.Vertices) - 1
	s.cache[key] = idx
	s.deps = append(s.deps, Dependency{Mid: idx, Parent1: a, Parent2: b})
	return idx
}

func edgeMatches(a, b, v1, v2 int) bool {
	return (a == v1 && b == v2) || (a == v2 && b == v1)
}

func hasEdge(tris []int, v1, v2 int) bool {
	for i := 0; i+2 < len(tris); i += 3 {
		i0, i1, i2 := tris[i], tris[i+1], tris[i+2]
		if edgeMatches(i0, i1, v1, v2) || edgeMatches(i1, i2, v1, v2) || edgeMatches(i2, i0, v1, v2) {
			return true
		}
	}
	return false
}

// splitTriangles replaces every triangle on edge (v1, v2) with two triangles
// through mid, keeping the original winding.
func splitTriangles(tris []int, v1, v2, mid int) []int {
	out := make([]int, 0, len(tris)+6)
	for i := 0; i+2 < len(tris); i += 3 {
		i0, i1, i2 := tris[i], tris[i+1], tris[i+2]
		switch {
		case edgeMatches(i0, i1, v1, v2):
			out = append(out, i0, mid, i2, mid, i1, i2)
		case edgeMatches(i1, i2, v1, v2):
			out = append(out, i0, i1, mid, i0, mid, i2)
		case edgeMatches(i2, i0, v1, v2):
			out = append(out, i0, i1, mid, mid, i1, i2)
		default:
			out = append(out, i0, i1, i2)
		}
	}
	return out
}

// UpdateDependents re-derives every midpoint's position, normal, tangent and
// UV from its parents' current values. Dependencies are applied in order, so
// midpoints whose parents are themselves midpoints settle in one pass.
func UpdateDependents(m *mesh.Mesh, deps []Dependency) {
	if m == nil {
		return
	}
	hasN, hasT, hasUV := m.HasNormals(), m.HasTangents(), m.HasUVs()
	for _, d := range deps {
		if !m.InRange(d.Mid) || !m.InRange(d.Parent1) || !m.InRange(d.Parent2) {
			continue
		}
		p1, p2 := d.Parent1, d.Parent2
		m.Vertices[d.Mid] = mathutil.Midpoint(m.Vertices[p1], m.Vertices[p2])
		if hasN {
			m.Normals[d.Mid] = mesh.AverageNormal(m.Normals[p1], m.Normals[p2])
		}
		if hasT {
			m.Tangents[d.Mid] = mesh.AverageTangent(m.Tangents[p1], m.Tangents[p2])
		}
		if hasUV {
			m.UVs[d.Mid] = mesh.AverageUV(m.UVs[p1], m.UVs[p2])
		}
	}
}

// Parents indexes dependencies by midpoint.
func Parents(deps []Dependency) map[int][2]int {
	out := make(map[int][2]int, len(deps))
	for _, d := range deps {
		out[d.Mid] = [2]int{d.Parent1, d.Parent2}
	}
	return out
}

func meshName(m *mesh.Mesh) string {
	if m == nil {
		return ""
	}
	return m.Name
}
