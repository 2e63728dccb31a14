package session

import (
	"mesh-seam-merge/internal/mathutil"
	"mesh-seam-merge/internal/oplog"
	"mesh-seam-merge/internal/seam"
	"mesh-seam-merge/internal/symmetry"
	"mesh-seam-merge/internal/topology"
)

// AddSplit logs a split of edge e on one side. With symmetry on, the mirrored
// edge is logged too when both endpoints have mirrors. It returns the number
// of records appended.
func (s *Session) AddSplit(side Side, e topology.Edge) int {
	t := s.topology(side)
	if t == nil || !t.mesh.InRange(e.V1) || !t.mesh.InRange(e.V2) {
		s.log.Debug("split rejected: index out of range", "side", side.String(), "v1", e.V1, "v2", e.V2)
		return 0
	}
	face := side == Face
	s.ops.Append(oplog.NewSplit(face, e))
	n := 1
	if s.settings.Symmetry {
		if me, ok := t.mirror.MirrorEdge(e); ok {
			s.ops.Append(oplog.NewSplit(face, me))
			n++
		}
	}
	s.markTopologyDirty()
	return n
}

// AddPair adds p, or updates the offset of the existing pair with the same
// key. With symmetry on, the mirrored pair is added with a mirrored offset
// unless it already exists. It returns the log index of p's record, or -1
// when an index is out of range.
func (s *Session) AddPair(p seam.Pair) int {
	ft, bt := s.topology(Face), s.topology(Body)
	if ft == nil || bt == nil || !ft.mesh.InRange(p.Face) || !bt.mesh.InRange(p.Body) {
		s.log.Debug("pair rejected: index out of range", "face", p.Face, "body", p.Body)
		return -1
	}

	idx := s.addOrUpdatePair(p)
	if !s.settings.Symmetry {
		return idx
	}
	mf, ok1 := ft.mirror.Mirror(p.Face)
	mb, ok2 := bt.mirror.Mirror(p.Body)
	if !ok1 || !ok2 {
		return idx
	}
	mk := seam.Key{Face: mf, Body: mb}
	if mk == p.Key() || s.ops.FindPair(mk) >= 0 {
		return idx
	}
	s.addOrUpdatePair(seam.Pair{Face: mf, Body: mb, Offset: s.mirrorOffset(p.Offset)})
	return idx
}

func (s *Session) addOrUpdatePair(p seam.Pair) int {
	s.deformDirty = true
	if i := s.ops.FindPair(p.Key()); i >= 0 {
		s.ops.SetPairOffset(i, p.Offset)
		return i
	}
	return s.ops.Append(oplog.NewPair(p))
}

// mirrorOffset reflects offset in the face renderer's local frame.
func (s *Session) mirrorOffset(offset mathutil.Vec3) mathutil.Vec3 {
	l2w := s.ws[Face].Rig().LocalToWorld
	if l2w.IsZero() {
		l2w = mathutil.Mat4Identity()
	}
	return symmetry.MirrorOffset(offset, l2w)
}

// symmetricPair returns the log index of the mirror of the pair at logIndex,
// or -1.
func (s *Session) symmetricPair(logIndex int) int {
	r, ok := s.ops.At(logIndex)
	if !ok || r.Kind != oplog.Pair {
		return -1
	}
	ft, bt := s.topology(Face), s.topology(Body)
	if ft == nil || bt == nil {
		return -1
	}
	mf, ok1 := ft.mirror.Mirror(r.Pair.Face)
	mb, ok2 := bt.mirror.Mirror(r.Pair.Body)
	if !ok1 || !ok2 {
		return -1
	}
	i := s.ops.FindPair(seam.Key{Face: mf, Body: mb})
	if i == logIndex {
		return -1
	}
	return i
}

// DeletePair removes the pair record at logIndex and, with symmetry on, its
// mirrored pair.
func (s *Session) DeletePair(logIndex int) bool {
	r, ok := s.ops.At(logIndex)
	if !ok || r.Kind != oplog.Pair {
		return false
	}
	drop := []int{logIndex}
	if s.settings.Symmetry {
		if m := s.symmetricPair(logIndex); m >= 0 {
			drop = append(drop, m)
		}
	}
	s.ops.Remove(drop...)
	s.deformDirty = true
	return true
}

// SetPairOffset replaces a pair's offset. With symmetry on, the mirrored
// pair receives the mirrored offset.
func (s *Session) SetPairOffset(logIndex int, offset mathutil.Vec3) bool {
	if !s.ops.SetPairOffset(logIndex, offset) {
		return false
	}
	s.deformDirty = true
	if s.settings.Symmetry {
		if m := s.symmetricPair(logIndex); m >= 0 {
			s.ops.SetPairOffset(m, s.mirrorOffset(offset))
		}
	}
	return true
}

// SetPairOffsetFromWorld picks the offset that puts the pair's merged vertex
// at world. The current merged position is read from the result meshes
// through each side's rigid transform.
func (s *Session) SetPairOffsetFromWorld(logIndex int, world mathutil.Vec3) bool {
	r, ok := s.ops.At(logIndex)
	if !ok || r.Kind != oplog.Pair {
		return false
	}
	fr, br := s.Result(Face), s.Result(Body)
	if fr == nil || br == nil || !fr.InRange(r.Pair.Face) || !br.InRange(r.Pair.Body) {
		return false
	}
	fp := s.Space(Face).LocalToWorld().MulPoint(fr.Vertices[r.Pair.Face])
	bp := s.Space(Body).LocalToWorld().MulPoint(br.Vertices[r.Pair.Body])

	current := mathutil.Midpoint(fp, bp)
	base := current.Sub(r.Pair.Offset)
	return s.SetPairOffset(logIndex, world.Sub(base))
}

// RevertTo keeps records 0..logIndex and drops the rest.
func (s *Session) RevertTo(logIndex int) bool {
	if !s.ops.RevertTo(logIndex) {
		return false
	}
	s.markTopologyDirty()
	return true
}

// Clear empties the log.
func (s *Session) Clear() {
	s.ops.Clear()
	s.markTopologyDirty()
}

// IsVertexUsed reports whether a pair already references vertex idx on side.
// Negative indices count as used.
func (s *Session) IsVertexUsed(side Side, idx int) bool {
	if idx < 0 {
		return true
	}
	for _, p := range s.ops.Pairs() {
		if side == Face && p.Face == idx || side == Body && p.Body == idx {
			return true
		}
	}
	return false
}

// PairIndex returns the position among pairs of the record at logIndex, or -1
// when that record is not a pair.
func (s *Session) PairIndex(logIndex int) int {
	for i, p := range s.ops.Pairs() {
		if p.LogIndex == logIndex {
			return i
		}
	}
	return -1
}

// Labels describes every logged operation, in order.
func (s *Session) Labels() []string {
	recs := s.ops.Records()
	out := make([]string, len(recs))
	for i, r := range recs {
		out[i] = r.Label()
	}
	return out
}
