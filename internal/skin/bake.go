package skin

import (
	"sort"

	"mesh-seam-merge/internal/mathutil"
	"mesh-seam-merge/internal/mesh"
)

// Bake evaluates m under rig with linear blend skinning and returns a copy
// whose positions, normals and tangents are expressed in the renderer's local
// space. Blend shapes named in weights are applied before skinning; weights
// use the same scale as frame weights (usually 0..100).
func Bake(m *mesh.Mesh, rig Rig, weights map[string]float64) *mesh.Mesh {
	if m == nil {
		return nil
	}
	out := m.Clone()
	applyBlendWeights(out, weights)

	s := NewSpace(out, rig)
	if !s.IsSkinned() {
		return out
	}

	w2l := s.WorldToLocal()
	for i := range out.Vertices {
		// No influences: the vertex already sits in renderer space.
		if !s.valid[i] {
			continue
		}
		skin := mathutil.Mat4Mul(w2l, s.skin[i])
		out.Vertices[i] = skin.MulPoint(out.Vertices[i])
		if out.HasNormals() {
			out.Normals[i] = skin.MulDir(out.Normals[i]).Normalize()
		}
		if out.HasTangents() {
			tg := out.Tangents[i]
			d := skin.MulDir(tg.XYZ()).Normalize()
			out.Tangents[i] = mathutil.Vec4{d[0], d[1], d[2], tg[3]}
		}
	}
	return out
}

func applyBlendWeights(m *mesh.Mesh, weights map[string]float64) {
	if len(weights) == 0 {
		return
	}
	for _, shape := range m.BlendShapes {
		w, ok := weights[shape.Name]
		if !ok || w == 0 || len(shape.Frames) == 0 {
			continue
		}
		for _, c := range frameContributions(shape.Frames, w) {
			f := shape.Frames[c.frame]
			addScaled(m.Vertices, f.DeltaVertices, c.scale)
			if m.HasNormals() {
				addScaled(m.Normals, f.DeltaNormals, c.scale)
			}
			if m.HasTangents() {
				for i := 0; i < len(m.Tangents) && i < len(f.DeltaTangents); i++ {
					d := f.DeltaTangents[i].Scale(c.scale)
					m.Tangents[i][0] += d[0]
					m.Tangents[i][1] += d[1]
					m.Tangents[i][2] += d[2]
				}
			}
		}
	}
	if m.HasNormals() {
		for i, n := range m.Normals {
			if nn := n.Normalize(); nn.LenSq() > 0 {
				m.Normals[i] = nn
			}
		}
	}
}

type contribution struct {
	frame int
	scale float64
}

// frameContributions resolves a shape weight into per-frame scales. Below the
// first frame the first frame is scaled from zero; between two frames they
// are interpolated; past the last frame the last frame is extrapolated.
func frameContributions(frames []mesh.Frame, w float64) []contribution {
	idx := make([]int, len(frames))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool { return frames[idx[a]].Weight < frames[idx[b]].Weight })

	first := idx[0]
	if w <= frames[first].Weight || len(idx) == 1 {
		if frames[first].Weight == 0 {
			return nil
		}
		return []contribution{{first, w / frames[first].Weight}}
	}
	for k := 0; k+1 < len(idx); k++ {
		a, b := idx[k], idx[k+1]
		wa, wb := frames[a].Weight, frames[b].Weight
		if w <= wb || k+2 == len(idx) {
			if wb == wa {
				return []contribution{{b, 1}}
			}
			t := (w - wa) / (wb - wa)
			return []contribution{{a, 1 - t}, {b, t}}
		}
	}
	return nil
}

func addScaled(dst, delta []mathutil.Vec3, s float64) {
	for i := 0; i < len(dst) && i < len(delta); i++ {
		dst[i] = dst[i].Add(delta[i].Scale(s))
	}
}
