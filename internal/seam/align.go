// Package seam reconciles paired vertices of two skinned meshes: it moves
// both sides onto a shared world position and blends normals across the
// join.
package seam

import (
	"log/slog"

	"mesh-seam-merge/internal/graph"
	"mesh-seam-merge/internal/mathutil"
	"mesh-seam-merge/internal/mesh"
	"mesh-seam-merge/internal/skin"
	"mesh-seam-merge/internal/topology"
)

// Pair links a face vertex to a body vertex. Offset is a world-space
// displacement added to their merged position.
type Pair struct {
	Face   int           `json:"face" toml:"face" yaml:"face"`
	Body   int           `json:"body" toml:"body" yaml:"body"`
	Offset mathutil.Vec3 `json:"offset" toml:"offset" yaml:"offset"`
}

// Key identifies a pair independent of its offset.
type Key struct {
	Face, Body int
}

// Key returns the pair's identity.
func (p Pair) Key() Key { return Key{p.Face, p.Body} }

// Side is one mesh taking part in an alignment. Groups may be nil, in which
// case they are derived from the mesh's current world positions.
type Side struct {
	Mesh   *mesh.Mesh
	Space  *skin.Space
	Groups graph.Groups
	Deps   []topology.Dependency
}

func (s *Side) ready() bool {
	return s.Mesh != nil && s.Space != nil
}

func (s *Side) world(i int) mathutil.Vec3 {
	return s.Space.ToWorld(s.Mesh.Vertices[i], i)
}

// place writes the world point p into vertex i and every vertex coincident
// with it, each through its own skin inverse.
func (s *Side) place(i int, p mathutil.Vec3) {
	for _, t := range s.Groups.Of(i) {
		if s.Mesh.InRange(t) {
			s.Mesh.Vertices[t] = s.Space.ToLocal(p, t)
		}
	}
}

// Align moves every valid pair onto the average of its two world positions
// plus the pair's offset. Pairs are applied in order against the vertices as
// modified by earlier pairs. Split midpoints on both meshes are re-derived
// afterwards. It returns the number of pairs applied.
func Align(face, body *Side, pairs []Pair, log *slog.Logger) int {
	if log == nil {
		log = slog.Default()
	}
	if face == nil || body == nil || !face.ready() || !body.ready() {
		return 0
	}
	if face.Groups == nil {
		face.Groups = face.Space.Coincident(face.Mesh.Vertices)
	}
	if body.Groups == nil {
		body.Groups = body.Space.Coincident(body.Mesh.Vertices)
	}

	applied := 0
	for _, p := range pairs {
		if !face.Mesh.InRange(p.Face) || !body.Mesh.InRange(p.Body) {
			log.Debug("pair skipped: index out of range", "face", p.Face, "body", p.Body)
			continue
		}
		merged := mathutil.Midpoint(face.world(p.Face), body.world(p.Body)).Add(p.Offset)
		face.place(p.Face, merged)
		body.place(p.Body, merged)
		applied++
	}

	topology.UpdateDependents(face.Mesh, face.Deps)
	topology.UpdateDependents(body.Mesh, body.Deps)
	return applied
}
