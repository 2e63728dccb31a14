package mathutil

import "github.com/go-gl/mathgl/mgl64"

// Mat4 is a 4×4 matrix stored row-major. Used for bone, bind-pose and skin transforms.
// The zero value is not the identity; it marks a missing bone in a pose.
type Mat4 [16]float64

func Mat4Identity() Mat4 {
	return Mat4{
		1, 0, 0, 0,
		0, 1, 0, 0,
		0, 0, 1, 0,
		0, 0, 0, 1,
	}
}

// Mat4Mul returns a × b.
func Mat4Mul(a, b Mat4) Mat4 {
	var m Mat4
	for r := 0; r < 4; r++ {
		for c := 0; c < 4; c++ {
			m[r*4+c] = a[r*4+0]*b[0*4+c] + a[r*4+1]*b[1*4+c] +
				a[r*4+2]*b[2*4+c] + a[r*4+3]*b[3*4+c]
		}
	}
	return m
}

// MulPoint transforms a 3D point (w=1) by the 4×4 matrix.
func (m Mat4) MulPoint(v Vec3) Vec3 {
	return Vec3{
		m[0]*v[0] + m[1]*v[1] + m[2]*v[2] + m[3],
		m[4]*v[0] + m[5]*v[1] + m[6]*v[2] + m[7],
		m[8]*v[0] + m[9]*v[1] + m[10]*v[2] + m[11],
	}
}

// MulDir transforms a direction (w=0) by the upper 3×3 block.
func (m Mat4) MulDir(v Vec3) Vec3 {
	return Vec3{
		m[0]*v[0] + m[1]*v[1] + m[2]*v[2],
		m[4]*v[0] + m[5]*v[1] + m[6]*v[2],
		m[8]*v[0] + m[9]*v[1] + m[10]*v[2],
	}
}

// Add returns m + n.
func (m Mat4) Add(n Mat4) Mat4 {
	for i := range m {
		m[i] += n[i]
	}
	return m
}

// Scale returns m with every element multiplied by s.
func (m Mat4) Scale(s float64) Mat4 {
	for i := range m {
		m[i] *= s
	}
	return m
}

// FromMat3Translation builds a 4×4 affine matrix from a 3×3 rotation and translation.
func FromMat3Translation(r Mat3, t Vec3) Mat4 {
	return Mat4{
		r[0], r[1], r[2], t[0],
		r[3], r[4], r[5], t[1],
		r[6], r[7], r[8], t[2],
		0, 0, 0, 1,
	}
}

// TRS builds translation × rotation × scale.
func TRS(t Vec3, q Quat, s Vec3) Mat4 {
	r := QuatToMat3(q)
	for row := 0; row < 3; row++ {
		for col := 0; col < 3; col++ {
			r[row*3+col] *= s[col]
		}
	}
	return FromMat3Translation(r, t)
}

// Mat4FromColumnMajor converts a column-major array (glTF, GL) to Mat4.
func Mat4FromColumnMajor(c [16]float64) Mat4 {
	return Mat4(mgl64.Mat4(c).Transpose())
}

// ColumnMajor returns m in column-major order.
func (m Mat4) ColumnMajor() [16]float64 {
	return [16]float64(m.gl())
}

// gl reinterprets m as an mgl64 (column-major) matrix.
func (m Mat4) gl() mgl64.Mat4 {
	return mgl64.Mat4(m).Transpose()
}

// Det returns the determinant of m.
func (m Mat4) Det() float64 {
	return m.gl().Det()
}

// Inverse returns the inverse of m, or the zero matrix when m is singular.
func (m Mat4) Inverse() Mat4 {
	return Mat4(m.gl().Inv().Transpose())
}

// IsZero reports whether every element of m is zero.
func (m Mat4) IsZero() bool {
	return m == Mat4{}
}

// IsIdentity checks if the matrix is approximately identity.
func (m Mat4) IsIdentity() bool {
	id := Mat4Identity()
	for i := 0; i < 16; i++ {
		d := m[i] - id[i]
		if d > 1e-8 || d < -1e-8 {
			return false
		}
	}
	return true
}
