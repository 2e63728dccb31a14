package mesh

import (
	"math"

	"mesh-seam-merge/internal/mathutil"
)

// AverageNormal returns the normalized sum of a and b, or a when the sum is
// degenerate.
func AverageNormal(a, b mathutil.Vec3) mathutil.Vec3 {
	n := a.Add(b)
	if n.LenSq() > mathutil.DegenerateSq {
		return n.Normalize()
	}
	return a
}

// AverageTangent averages two tangents. The direction is the normalized sum of
// both directions; when that cancels out, the longer input direction is used,
// and +X when both are zero. Handedness follows the input with the larger |w|.
func AverageTangent(a, b mathutil.Vec4) mathutil.Vec4 {
	da, db := a.XYZ(), b.XYZ()
	dir := da.Add(db)
	if dir.LenSq() < mathutil.DegenerateSq {
		if da.LenSq() >= db.LenSq() {
			dir = da
		} else {
			dir = db
		}
	}
	if dir.LenSq() > mathutil.DegenerateSq {
		dir = dir.Normalize()
	} else {
		dir = mathutil.Vec3{1, 0, 0}
	}

	w := mathutil.Sign(b[3])
	if math.Abs(a[3]) >= math.Abs(b[3]) {
		w = mathutil.Sign(a[3])
	}
	return mathutil.Vec4{dir[0], dir[1], dir[2], w}
}

// AverageUV averages texture coordinates on the unit torus: per axis, when the
// inputs are more than half a tile apart the smaller one is shifted by +1
// before averaging, and the result is wrapped into [0, 1).
func AverageUV(a, b mathutil.Vec2) mathutil.Vec2 {
	var out mathutil.Vec2
	for i := 0; i < 2; i++ {
		x, y := a[i], b[i]
		if math.Abs(x-y) > 0.5 {
			if x > y {
				y++
			} else {
				x++
			}
		}
		out[i] = mathutil.Repeat((x + y) * 0.5)
	}
	return out
}
