package mathutil

import "math"

// Vec2 is a 2-component vector, used for texture coordinates.
type Vec2 [2]float64

// Vec4 is a 4-component vector. Tangents store the direction in xyz and the
// bitangent handedness sign in w.
type Vec4 [4]float64

// XYZ drops the w component.
func (v Vec4) XYZ() Vec3 {
	return Vec3{v[0], v[1], v[2]}
}

// Repeat wraps t into [0, 1).
func Repeat(t float64) float64 {
	r := t - math.Floor(t)
	if r >= 1 {
		return 0
	}
	return r
}

// Clamp01 clamps t into [0, 1].
func Clamp01(t float64) float64 {
	if t < 0 {
		return 0
	}
	if t > 1 {
		return 1
	}
	return t
}

// Sign returns -1 for negative values and 1 otherwise.
func Sign(v float64) float64 {
	if v < 0 {
		return -1
	}
	return 1
}

func Vec2From32(v [2]float32) Vec2 {
	return Vec2{float64(v[0]), float64(v[1])}
}

func (v Vec2) To32() [2]float32 {
	return [2]float32{float32(v[0]), float32(v[1])}
}

func Vec4From32(v [4]float32) Vec4 {
	return Vec4{float64(v[0]), float64(v[1]), float64(v[2]), float64(v[3])}
}

func (v Vec4) To32() [4]float32 {
	return [4]float32{float32(v[0]), float32(v[1]), float32(v[2]), float32(v[3])}
}
