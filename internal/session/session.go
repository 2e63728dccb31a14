// Package session owns one face/body merge: the operation log, the settings
// and every mesh derived from them.
package session

import (
	"log/slog"

	"mesh-seam-merge/internal/blendshape"
	"mesh-seam-merge/internal/graph"
	"mesh-seam-merge/internal/mathutil"
	"mesh-seam-merge/internal/mesh"
	"mesh-seam-merge/internal/oplog"
	"mesh-seam-merge/internal/seam"
	"mesh-seam-merge/internal/skin"
	"mesh-seam-merge/internal/symmetry"
	"mesh-seam-merge/internal/topology"
)

// Side selects the face or body mesh.
type Side int

const (
	Face Side = iota
	Body
)

func (s Side) String() string {
	if s == Face {
		return "face"
	}
	return "body"
}

func (s Side) splitKind() oplog.Kind {
	if s == Face {
		return oplog.FaceSplit
	}
	return oplog.BodySplit
}

// topo is the post-split state of one side, reused by deform-only rebuilds.
type topo struct {
	mesh      *mesh.Mesh
	deps      []topology.Dependency
	adjacency *graph.Adjacency
	mirror    symmetry.Lookup
}

// derived is the output of a deform pass for one side.
type derived struct {
	working *mesh.Mesh // aligned, pre-bake
	space   *skin.Space
	result  *mesh.Mesh // baked, smoothed normals
	final   *mesh.Mesh // working with smoothed normals back in bind space
}

// Session rebuilds derived meshes on demand. Topology edits (splits, log
// truncation, workspace changes) force a full rebuild from the sources;
// pair and smoothing edits only redo alignment, baking and smoothing.
type Session struct {
	ws       [2]Workspace
	ops      *oplog.Log
	settings Settings
	log      *slog.Logger

	topologyDirty bool
	deformDirty   bool

	topo [2]*topo
	out  [2]*derived
}

// Option configures a Session.
type Option func(*Session)

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(s *Session) { s.log = l }
}

// WithSettings replaces DefaultSettings.
func WithSettings(st Settings) Option {
	return func(s *Session) { s.settings = st.Clamped() }
}

// WithLog starts the session from an existing operation log.
func WithLog(l *oplog.Log) Option {
	return func(s *Session) { s.ops = l }
}

// New creates a session over the two workspaces.
func New(face, body Workspace, opts ...Option) *Session {
	s := &Session{
		ws:            [2]Workspace{face, body},
		ops:           oplog.New(),
		settings:      DefaultSettings(),
		log:           slog.Default(),
		topologyDirty: true,
		deformDirty:   true,
	}
	for _, o := range opts {
		o(s)
	}
	if s.ops == nil {
		s.ops = oplog.New()
	}
	if s.log == nil {
		s.log = slog.Default()
	}
	return s
}

// Log returns the operation log. Mutating it directly requires a call to
// Invalidate.
func (s *Session) Log() *oplog.Log { return s.ops }

// Settings returns the current settings.
func (s *Session) Settings() Settings { return s.settings }

// Workspace returns one side's workspace.
func (s *Session) Workspace(side Side) Workspace { return s.ws[side] }

// SetWorkspace swaps one side's input and forces a full rebuild.
func (s *Session) SetWorkspace(side Side, w Workspace) {
	s.ws[side] = w
	s.markTopologyDirty()
}

// SetSettings applies new settings. Tolerance changes rebuild symmetry
// lookups; smoothing changes only redo the deform pass.
func (s *Session) SetSettings(st Settings) {
	st = st.Clamped()
	if st.SymmetryTolerance != s.settings.SymmetryTolerance {
		s.markTopologyDirty()
	}
	s.settings = st
	s.deformDirty = true
}

// Invalidate forces a full rebuild on the next Update.
func (s *Session) Invalidate() { s.markTopologyDirty() }

// Dirty reports the pending rebuild flags.
func (s *Session) Dirty() (topology, deform bool) {
	return s.topologyDirty, s.deformDirty
}

func (s *Session) markTopologyDirty() {
	s.topologyDirty = true
	s.deformDirty = true
}

func (s *Session) ready() bool {
	return s.ws[Face] != nil && s.ws[Body] != nil &&
		s.ws[Face].Source() != nil && s.ws[Body].Source() != nil
}

// Update runs whatever rebuild the dirty flags call for and reports whether
// anything was rebuilt.
func (s *Session) Update() bool {
	if !s.ready() {
		return false
	}
	if !s.topologyDirty && !s.deformDirty && s.out[Face] != nil {
		return false
	}
	if s.topologyDirty || s.topo[Face] == nil || s.topo[Body] == nil {
		s.rebuildTopology()
	}
	s.rebuildDeform()
	s.topologyDirty = false
	s.deformDirty = false
	return true
}

// rebuildTopology replays the log's splits onto fresh copies of both sources
// and extends their blend shapes to the new vertices.
func (s *Session) rebuildTopology() {
	for _, side := range []Side{Face, Body} {
		src := s.ws[side].Source()
		m := src.Clone()
		shapes := blendshape.Capture(src)

		sp := topology.NewSplitter(m, s.log.With("side", side.String()))
		sp.SplitAll(s.ops.Splits(side.splitKind()))
		deps := sp.Dependencies()
		blendshape.Apply(m, shapes, deps)

		s.topo[side] = &topo{
			mesh:      m,
			deps:      deps,
			adjacency: graph.BuildMesh(m),
			mirror:    symmetry.BuildLookup(m.Vertices, s.settings.SymmetryTolerance),
		}
		s.log.Debug("topology rebuilt", "side", side.String(), "mesh", m.Name,
			"vertices", m.VertexCount(), "splits", len(deps))
	}
}

// rebuildDeform aligns the seam pairs on copies of the cached topology,
// bakes both sides and smooths normals across the seam.
func (s *Session) rebuildDeform() {
	var sides [2]*seam.Side
	for _, side := range []Side{Face, Body} {
		t := s.topo[side]
		m := t.mesh.Clone()
		sides[side] = &seam.Side{
			Mesh:  m,
			Space: skin.NewSpace(m, s.ws[side].Rig()),
			Deps:  t.deps,
		}
	}

	pairs := s.pairs()
	applied := seam.Align(sides[Face], sides[Body], pairs, s.log)

	var baked [2]*seam.Baked
	var before [2][]mathutil.Vec3
	for _, side := range []Side{Face, Body} {
		ws := s.ws[side]
		ws.SetWorking(sides[side].Mesh)
		result := ws.Bake(sides[side].Mesh)
		s.out[side] = &derived{
			working: sides[side].Mesh,
			space:   sides[side].Space,
			result:  result,
		}
		baked[side] = &seam.Baked{
			Mesh:         result,
			Adjacency:    s.topo[side].adjacency,
			LocalToWorld: sides[side].Space.LocalToWorld(),
			WorldToLocal: sides[side].Space.WorldToLocal(),
		}
		if result != nil {
			before[side] = append([]mathutil.Vec3(nil), result.Normals...)
		}
	}
	seam.SmoothNormals(baked[Face], baked[Body], pairs, s.settings.SmoothDepth, s.settings.SmoothStrength)
	for _, side := range []Side{Face, Body} {
		s.out[side].final = unbakeNormals(s.out[side], before[side])
	}

	s.log.Debug("deform rebuilt", "pairs", len(pairs), "applied", applied,
		"depth", s.settings.SmoothDepth, "strength", s.settings.SmoothStrength)
}

// unbakeNormals copies the working mesh and carries every normal the smoother
// changed back into bind space.
func unbakeNormals(d *derived, before []mathutil.Vec3) *mesh.Mesh {
	final := d.working.Clone()
	if d.result == nil || !final.HasNormals() || len(d.result.Normals) != len(final.Normals) {
		return final
	}
	for i, n := range d.result.Normals {
		if i < len(before) && n == before[i] {
			continue
		}
		final.Normals[i] = d.space.BindDir(n, i).Normalize()
	}
	return final
}

func (s *Session) pairs() []seam.Pair {
	refs := s.ops.Pairs()
	out := make([]seam.Pair, len(refs))
	for i, r := range refs {
		out[i] = r.Pair
	}
	return out
}

// Topology returns one side's rebuilt, aligned mesh in bind space, ready for
// baking. It rebuilds first if needed.
func (s *Session) Topology(side Side) *mesh.Mesh {
	s.Update()
	if s.out[side] == nil {
		return nil
	}
	return s.out[side].working
}

// Final returns one side's aligned bind-space mesh carrying the smoothed seam
// normals. It is the mesh to persist: still skinnable, seam closed and shaded.
func (s *Session) Final(side Side) *mesh.Mesh {
	s.Update()
	if s.out[side] == nil {
		return nil
	}
	return s.out[side].final
}

// Result returns one side's baked mesh with smoothed seam normals.
func (s *Session) Result(side Side) *mesh.Mesh {
	s.Update()
	if s.out[side] == nil {
		return nil
	}
	return s.out[side].result
}

// Space returns the skin space of one side's aligned mesh.
func (s *Session) Space(side Side) *skin.Space {
	s.Update()
	if s.out[side] == nil {
		return nil
	}
	return s.out[side].space
}

// Dependencies returns the split dependencies of one side.
func (s *Session) Dependencies(side Side) []topology.Dependency {
	if t := s.topology(side); t != nil {
		return t.deps
	}
	return nil
}

// Mirror returns the symmetry lookup of one side's post-split mesh.
func (s *Session) Mirror(side Side) symmetry.Lookup {
	if t := s.topology(side); t != nil {
		return t.mirror
	}
	return nil
}

// topology returns the cached split state, rebuilding it if the log changed.
func (s *Session) topology(side Side) *topo {
	if !s.ready() {
		return nil
	}
	if s.topologyDirty || s.topo[side] == nil {
		s.rebuildTopology()
		s.topologyDirty = false
		s.deformDirty = true
	}
	return s.topo[side]
}
