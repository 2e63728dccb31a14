package mathutil

import "math"

// Vec3 is a 3-component vector (value type, stack-allocated).
type Vec3 [3]float64

func (a Vec3) Add(b Vec3) Vec3 {
	return Vec3{a[0] + b[0], a[1] + b[1], a[2] + b[2]}
}

func (a Vec3) Sub(b Vec3) Vec3 {
	return Vec3{a[0] - b[0], a[1] - b[1], a[2] - b[2]}
}

func (v Vec3) Scale(s float64) Vec3 {
	return Vec3{v[0] * s, v[1] * s, v[2] * s}
}

func (v Vec3) Neg() Vec3 {
	return Vec3{-v[0], -v[1], -v[2]}
}

func (a Vec3) Dot(b Vec3) float64 {
	return a[0]*b[0] + a[1]*b[1] + a[2]*b[2]
}

func (a Vec3) Cross(b Vec3) Vec3 {
	return Vec3{
		a[1]*b[2] - a[2]*b[1],
		a[2]*b[0] - a[0]*b[2],
		a[0]*b[1] - a[1]*b[0],
	}
}

func (v Vec3) Len() float64 {
	return math.Sqrt(v[0]*v[0] + v[1]*v[1] + v[2]*v[2])
}

// LenSq returns the squared length of v.
func (v Vec3) LenSq() float64 {
	return v[0]*v[0] + v[1]*v[1] + v[2]*v[2]
}

func (v Vec3) Normalize() Vec3 {
	l := v.Len()
	if l < 1e-12 {
		return Vec3{}
	}
	return Vec3{v[0] / l, v[1] / l, v[2] / l}
}

// Midpoint returns (a + b) / 2.
func Midpoint(a, b Vec3) Vec3 {
	return a.Add(b).Scale(0.5)
}

// Lerp interpolates linearly between a and b.
func Lerp(a, b Vec3, t float64) Vec3 {
	return a.Add(b.Sub(a).Scale(t))
}

// Slerp interpolates spherically between the directions of a and b and
// linearly between their lengths. t is clamped to [0, 1].
func Slerp(a, b Vec3, t float64) Vec3 {
	t = Clamp01(t)
	la, lb := a.Len(), b.Len()
	if la < 1e-12 || lb < 1e-12 {
		return Lerp(a, b, t)
	}
	ua, ub := a.Scale(1/la), b.Scale(1/lb)
	d := ua.Dot(ub)
	if d > 1 {
		d = 1
	} else if d < -1 {
		d = -1
	}
	theta := math.Acos(d)
	length := la + (lb-la)*t

	// Nearly parallel (or antiparallel, where the great circle is undefined)
	s := math.Sin(theta)
	if s < 1e-6 {
		return Lerp(ua, ub, t).Normalize().Scale(length)
	}
	wa := math.Sin((1-t)*theta) / s
	wb := math.Sin(t*theta) / s
	return ua.Scale(wa).Add(ub.Scale(wb)).Scale(length)
}

// ApproxEqual reports whether every component of a and b differs by at most eps.
func (a Vec3) ApproxEqual(b Vec3, eps float64) bool {
	for i := 0; i < 3; i++ {
		if math.Abs(a[i]-b[i]) > eps {
			return false
		}
	}
	return true
}

// Vec3From32 widens a float32 triple.
func Vec3From32(v [3]float32) Vec3 {
	return Vec3{float64(v[0]), float64(v[1]), float64(v[2])}
}

// To32 narrows v to a float32 triple.
func (v Vec3) To32() [3]float32 {
	return [3]float32{float32(v[0]), float32(v[1]), float32(v[2])}
}
