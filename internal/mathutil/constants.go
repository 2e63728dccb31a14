package mathutil

import "math"

const (
	// CoincidentScale quantizes world positions to ~0.1 mm buckets when
	// grouping duplicated seam vertices.
	CoincidentScale = 10000.0

	// SingularDet is the determinant magnitude below which a skin matrix is
	// treated as non-invertible.
	SingularDet = 1e-8

	// DegenerateSq is the squared length below which a summed normal or
	// tangent direction is treated as zero.
	DegenerateSq = 1e-12
)

// Key3 is a quantized 3D position used as a spatial hash key.
type Key3 [3]int64

// Quantize rounds v×scale per axis, half to even.
func Quantize(v Vec3, scale float64) Key3 {
	return Key3{
		int64(math.RoundToEven(v[0] * scale)),
		int64(math.RoundToEven(v[1] * scale)),
		int64(math.RoundToEven(v[2] * scale)),
	}
}
