package preview

import (
	"image/color"

	"mesh-seam-merge/internal/mathutil"
	"mesh-seam-merge/internal/session"
)

// Layer colors for the two sides of a merge.
var (
	FaceColor = color.NRGBA{R: 214, G: 180, B: 160, A: 255}
	BodyColor = color.NRGBA{R: 150, G: 170, B: 200, A: 255}
)

// SessionScene returns both result meshes of s placed in world space and a
// marker at every pair's merged position.
func SessionScene(s *session.Session) ([]Layer, []mathutil.Vec3) {
	var layers []Layer
	for _, side := range []session.Side{session.Face, session.Body} {
		m := s.Result(side)
		sp := s.Space(side)
		if m == nil || sp == nil {
			continue
		}
		col := FaceColor
		if side == session.Body {
			col = BodyColor
		}
		layers = append(layers, Layer{Mesh: m, Transform: sp.LocalToWorld(), Color: col})
	}

	face, sp := s.Result(session.Face), s.Space(session.Face)
	var markers []mathutil.Vec3
	if face != nil && sp != nil {
		for _, p := range s.Log().Pairs() {
			if face.InRange(p.Face) {
				markers = append(markers, sp.LocalToWorld().MulPoint(face.Vertices[p.Face]))
			}
		}
	}
	return layers, markers
}
