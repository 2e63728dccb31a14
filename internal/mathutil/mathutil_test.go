package mathutil

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMat4Inverse(t *testing.T) {
	m := TRS(Vec3{1, -2, 3}, Quat{0, 0.7071067811865476, 0, 0.7071067811865476}, Vec3{2, 2, 2})
	inv := m.Inverse()

	p := Vec3{0.5, 4, -1}
	back := inv.MulPoint(m.MulPoint(p))
	assert.True(t, back.ApproxEqual(p, 1e-9), "have %v want %v", back, p)
	assert.InDelta(t, 8.0, m.Det(), 1e-9)
	assert.True(t, Mat4Mul(m, inv).IsIdentity())
}

func TestMat4Singular(t *testing.T) {
	var zero Mat4
	assert.True(t, zero.IsZero())
	assert.Equal(t, 0.0, zero.Det())
	assert.True(t, zero.Inverse().IsZero())
}

func TestColumnMajorRoundTrip(t *testing.T) {
	m := TRS(Vec3{4, 5, 6}, QuatIdentity, Vec3{1, 1, 1})
	c := m.ColumnMajor()
	// Translation lives in the last column.
	assert.Equal(t, [3]float64{4, 5, 6}, [3]float64{c[12], c[13], c[14]})
	assert.Equal(t, m, Mat4FromColumnMajor(c))
}

func TestMulDirIgnoresTranslation(t *testing.T) {
	m := TRS(Vec3{10, 10, 10}, QuatIdentity, Vec3{1, 1, 1})
	assert.Equal(t, Vec3{0, 1, 0}, m.MulDir(Vec3{0, 1, 0}))
	assert.Equal(t, Vec3{10, 11, 10}, m.MulPoint(Vec3{0, 1, 0}))
}

func TestSlerp(t *testing.T) {
	a := Vec3{1, 0, 0}
	b := Vec3{0, 1, 0}

	assert.True(t, Slerp(a, b, 0).ApproxEqual(a, 1e-12))
	assert.True(t, Slerp(a, b, 1).ApproxEqual(b, 1e-12))

	mid := Slerp(a, b, 0.5)
	h := math.Sqrt(0.5)
	assert.True(t, mid.ApproxEqual(Vec3{h, h, 0}, 1e-12), "have %v", mid)
	assert.InDelta(t, 1.0, mid.Len(), 1e-12)

	// Length interpolates linearly.
	assert.InDelta(t, 2.0, Slerp(Vec3{1, 0, 0}, Vec3{0, 3, 0}, 0.5).Len(), 1e-12)
}

func TestQuantize(t *testing.T) {
	assert.Equal(t, Key3{1, -2, 0}, Quantize(Vec3{0.0001, -0.0002, 0.00004}, CoincidentScale))
	// Half rounds to even.
	assert.Equal(t, Key3{0, 2, 2}, Quantize(Vec3{0.5, 1.5, 2.5}, 1))
}

func TestRepeat(t *testing.T) {
	for _, c := range []struct{ in, want float64 }{
		{0, 0},
		{0.25, 0.25},
		{1, 0},
		{1.5, 0.5},
		{-0.25, 0.75},
	} {
		assert.InDelta(t, c.want, Repeat(c.in), 1e-12, "Repeat(%v)", c.in)
	}
}
