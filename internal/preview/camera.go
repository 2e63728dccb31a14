package preview

import (
	"math"

	"mesh-seam-merge/internal/mathutil"
)

// Camera is an orthographic view fitted around a set of world points.
type Camera struct {
	R      mathutil.Mat3 // world -> view rotation
	Center mathutil.Vec3 // view-space center of the fitted box
	Scale  float64       // pixels per world unit
	Half   float64       // half the render size in pixels
	Span   float64       // larger of the box's view-space width and height
}

// FitCamera frames points so their view-space bounding box fills size
// pixels minus margin on each side.
func FitCamera(r mathutil.Mat3, points []mathutil.Vec3, size, margin int) Camera {
	lo := mathutil.Vec3{math.Inf(1), math.Inf(1), math.Inf(1)}
	hi := mathutil.Vec3{math.Inf(-1), math.Inf(-1), math.Inf(-1)}
	for _, p := range points {
		t := r.MulVec3(p)
		for k := 0; k < 3; k++ {
			lo[k] = math.Min(lo[k], t[k])
			hi[k] = math.Max(hi[k], t[k])
		}
	}
	if len(points) == 0 {
		lo, hi = mathutil.Vec3{}, mathutil.Vec3{}
	}

	center := mathutil.Midpoint(lo, hi)
	span := math.Max(hi[0]-lo[0], hi[1]-lo[1])
	if span < 0.001 {
		span = 0.001
	}
	inner := math.Max(float64(size-2*margin), 1)
	return Camera{
		R:      r,
		Center: center,
		Scale:  inner / span,
		Half:   float64(size) / 2,
		Span:   span,
	}
}

// Project maps a world point to screen x, y and view depth (larger is
// closer).
func (c Camera) Project(p mathutil.Vec3) (x, y, z float64) {
	t := c.R.MulVec3(p)
	return (t[0]-c.Center[0])*c.Scale + c.Half, -(t[1]-c.Center[1])*c.Scale + c.Half, t[2]
}

// Rotate maps a world direction into view space.
func (c Camera) Rotate(d mathutil.Vec3) mathutil.Vec3 {
	return c.R.MulVec3(d)
}
