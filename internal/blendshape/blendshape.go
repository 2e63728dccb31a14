// Package blendshape carries blend-shape frames across topology edits.
package blendshape

import (
	"mesh-seam-merge/internal/mathutil"
	"mesh-seam-merge/internal/mesh"
	"mesh-seam-merge/internal/topology"
)

// Capture deep-copies every blend shape of m. Delta arrays are sized to the
// vertex count; missing entries are zero.
func Capture(m *mesh.Mesh) []mesh.BlendShape {
	if m == nil {
		return nil
	}
	n := m.VertexCount()
	out := make([]mesh.BlendShape, 0, len(m.BlendShapes))
	for _, s := range m.BlendShapes {
		shape := mesh.BlendShape{Name: s.Name, Frames: make([]mesh.Frame, 0, len(s.Frames))}
		for _, f := range s.Frames {
			shape.Frames = append(shape.Frames, mesh.Frame{
				Weight:        f.Weight,
				DeltaVertices: resized(f.DeltaVertices, n),
				DeltaNormals:  resized(f.DeltaNormals, n),
				DeltaTangents: resized(f.DeltaTangents, n),
			})
		}
		out = append(out, shape)
	}
	return out
}

// Apply replaces m's blend shapes with shapes resized to m's vertex count.
// Vertices inside the captured range keep their deltas; a vertex created by a
// split whose parents both lie inside that range gets the parents' average.
// Any other new vertex gets zero deltas.
func Apply(m *mesh.Mesh, shapes []mesh.BlendShape, deps []topology.Dependency) {
	if m == nil {
		return
	}
	n := m.VertexCount()
	parents := topology.Parents(deps)
	m.BlendShapes = make([]mesh.BlendShape, 0, len(shapes))
	for _, s := range shapes {
		shape := mesh.BlendShape{Name: s.Name, Frames: make([]mesh.Frame, 0, len(s.Frames))}
		for _, f := range s.Frames {
			src := len(f.DeltaVertices)
			frame := mesh.Frame{
				Weight:        f.Weight,
				DeltaVertices: resized(f.DeltaVertices, n),
				DeltaNormals:  resized(f.DeltaNormals, n),
				DeltaTangents: resized(f.DeltaTangents, n),
			}
			for i := src; i < n; i++ {
				p, ok := parents[i]
				if !ok || p[0] < 0 || p[0] >= src || p[1] < 0 || p[1] >= src {
					continue
				}
				frame.DeltaVertices[i] = average(frame.DeltaVertices, p)
				frame.DeltaNormals[i] = average(frame.DeltaNormals, p)
				frame.DeltaTangents[i] = average(frame.DeltaTangents, p)
			}
			shape.Frames = append(shape.Frames, frame)
		}
		m.BlendShapes = append(m.BlendShapes, shape)
	}
}

func average(d []mathutil.Vec3, p [2]int) mathutil.Vec3 {
	return mathutil.Midpoint(d[p[0]], d[p[1]])
}

func resized(src []mathutil.Vec3, n int) []mathutil.Vec3 {
	out := make([]mathutil.Vec3, n)
	copy(out, src)
	return out
}
