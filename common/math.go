package common

import (
	"github.com/chewxy/math32"
)

// Vec3 is a 3-component float32 vector.
type Vec3 [3]float32

// Quat is a quaternion stored as (x, y, z, w).
type Quat [4]float32

// Mat3 is a 3x3 matrix stored in column-major order.
type Mat3 [9]float32

// Mat4 is a 4x4 matrix stored in column-major order (WebGPU convention).
type Mat4 [16]float32

const epsilon = 1e-6

// Mat4Identity returns the 4x4 identity matrix.
func Mat4Identity() Mat4 {
	return Mat4{
		1, 0, 0, 0,
		0, 1, 0, 0,
		0, 0, 1, 0,
		0, 0, 0, 1,
	}
}

// QuatIdentity returns the identity rotation.
func QuatIdentity() Quat {
	return Quat{0, 0, 0, 1}
}

// Mul multiplies two column-major matrices.
// Result: m * b
//
// Parameters:
//   - b: right-hand matrix
//
// Returns:
//   - Mat4: the product m * b
func (m Mat4) Mul(b Mat4) Mat4 {
	var out Mat4
	for col := 0; col < 4; col++ {
		for row := 0; row < 4; row++ {
			var sum float32
			for k := 0; k < 4; k++ {
				sum += m[k*4+row] * b[col*4+k]
			}
			out[col*4+row] = sum
		}
	}
	return out
}

// Translation returns the translation column of the matrix.
func (m Mat4) Translation() Vec3 {
	return Vec3{m[12], m[13], m[14]}
}

// TransformPoint transforms a point (w = 1) by the matrix, without perspective divide.
func (m Mat4) TransformPoint(v Vec3) Vec3 {
	return Vec3{
		m[0]*v[0] + m[4]*v[1] + m[8]*v[2] + m[12],
		m[1]*v[0] + m[5]*v[1] + m[9]*v[2] + m[13],
		m[2]*v[0] + m[6]*v[1] + m[10]*v[2] + m[14],
	}
}

// Mat3 extracts the upper-left 3x3 block.
func (m Mat4) Mat3() Mat3 {
	return Mat3{
		m[0], m[1], m[2],
		m[4], m[5], m[6],
		m[8], m[9], m[10],
	}
}

// Transpose swaps rows and columns.
func (m Mat4) Transpose() Mat4 {
	var out Mat4
	for col := 0; col < 4; col++ {
		for row := 0; row < 4; row++ {
			out[row*4+col] = m[col*4+row]
		}
	}
	return out
}

// NormalMatrix returns the inverse transpose of m, which keeps normals perpendicular to surfaces under
// non-uniform scale. A singular m is returned unchanged.
func (m Mat4) NormalMatrix() Mat4 {
	inv, ok := m.Invert()
	if !ok {
		return m
	}
	return inv.Transpose()
}

// Invert computes the inverse of a 4x4 matrix using cofactor expansion.
//
// Returns:
//   - Mat4: the inverse matrix (zero matrix when singular)
//   - bool: false if the matrix is singular
func (m Mat4) Invert() (Mat4, bool) {
	a00, a01, a02, a03 := m[0], m[1], m[2], m[3]
	a10, a11, a12, a13 := m[4], m[5], m[6], m[7]
	a20, a21, a22, a23 := m[8], m[9], m[10], m[11]
	a30, a31, a32, a33 := m[12], m[13], m[14], m[15]

	b00 := a00*a11 - a01*a10
	b01 := a00*a12 - a02*a10
	b02 := a00*a13 - a03*a10
	b03 := a01*a12 - a02*a11
	b04 := a01*a13 - a03*a11
	b05 := a02*a13 - a03*a12
	b06 := a20*a31 - a21*a30
	b07 := a20*a32 - a22*a30
	b08 := a20*a33 - a23*a30
	b09 := a21*a32 - a22*a31
	b10 := a21*a33 - a23*a31
	b11 := a22*a33 - a23*a32

	det := b00*b11 - b01*b10 + b02*b09 + b03*b08 - b04*b07 + b05*b06
	if math32.Abs(det) < 1e-12 {
		return Mat4{}, false
	}
	inv := 1 / det

	return Mat4{
		(a11*b11 - a12*b10 + a13*b09) * inv,
		(a02*b10 - a01*b11 - a03*b09) * inv,
		(a31*b05 - a32*b04 + a33*b03) * inv,
		(a22*b04 - a21*b05 - a23*b03) * inv,
		(a12*b08 - a10*b11 - a13*b07) * inv,
		(a00*b11 - a02*b08 + a03*b07) * inv,
		(a32*b02 - a30*b05 - a33*b01) * inv,
		(a20*b05 - a22*b02 + a23*b01) * inv,
		(a10*b10 - a11*b08 + a13*b06) * inv,
		(a01*b08 - a00*b10 - a03*b06) * inv,
		(a30*b04 - a31*b02 + a33*b00) * inv,
		(a21*b02 - a20*b04 - a23*b00) * inv,
		(a11*b07 - a10*b09 - a12*b06) * inv,
		(a00*b09 - a01*b07 + a02*b06) * inv,
		(a31*b01 - a30*b03 - a32*b00) * inv,
		(a20*b03 - a21*b01 + a22*b00) * inv,
	}, true
}

// Perspective builds a right-handed perspective projection mapping depth to the WebGPU [0, 1] clip range.
//
// Parameters:
//   - fovY: vertical field of view in radians
//   - aspect: viewport aspect ratio (width/height)
//   - near: near clipping plane distance
//   - far: far clipping plane distance
//
// Returns:
//   - Mat4: the projection matrix
func Perspective(fovY, aspect, near, far float32) Mat4 {
	f := 1 / math32.Tan(fovY/2)
	nf := 1 / (near - far)
	return Mat4{
		f / aspect, 0, 0, 0,
		0, f, 0, 0,
		0, 0, far * nf, -1,
		0, 0, far * near * nf, 0,
	}
}

// Ortho builds a right-handed orthographic projection mapping depth to the WebGPU [0, 1] clip range.
func Ortho(left, right, bottom, top, near, far float32) Mat4 {
	lr := 1 / (left - right)
	bt := 1 / (bottom - top)
	nf := 1 / (near - far)
	return Mat4{
		-2 * lr, 0, 0, 0,
		0, -2 * bt, 0, 0,
		0, 0, nf, 0,
		(left + right) * lr, (top + bottom) * bt, near * nf, 1,
	}
}

// FromRotationTranslationScale composes T * R * S into a single matrix.
//
// Parameters:
//   - q: rotation quaternion (x, y, z, w)
//   - t: translation
//   - s: scale
//
// Returns:
//   - Mat4: the composed model matrix
func FromRotationTranslationScale(q Quat, t, s Vec3) Mat4 {
	x, y, z, w := q[0], q[1], q[2], q[3]
	x2, y2, z2 := x+x, y+y, z+z

	xx, xy, xz := x*x2, x*y2, x*z2
	yy, yz, zz := y*y2, y*z2, z*z2
	wx, wy, wz := w*x2, w*y2, w*z2

	return Mat4{
		(1 - (yy + zz)) * s[0], (xy + wz) * s[0], (xz - wy) * s[0], 0,
		(xy - wz) * s[1], (1 - (xx + zz)) * s[1], (yz + wx) * s[1], 0,
		(xz + wy) * s[2], (yz - wx) * s[2], (1 - (xx + yy)) * s[2], 0,
		t[0], t[1], t[2], 1,
	}
}

// TargetTo builds a world matrix placing an object at eye and orienting its -Z axis toward target.
func TargetTo(eye, target, up Vec3) Mat4 {
	z := eye.Sub(target)
	if z.Length() < epsilon {
		z = Vec3{0, 0, 1}
	}
	z = z.Normalize()

	x := up.Cross(z)
	if x.Length() < epsilon {
		// up is parallel to the view direction; nudge it
		x = Vec3{0, 0, 1}.Cross(z)
		if x.Length() < epsilon {
			x = Vec3{1, 0, 0}
		}
	}
	x = x.Normalize()
	y := z.Cross(x)

	return Mat4{
		x[0], x[1], x[2], 0,
		y[0], y[1], y[2], 0,
		z[0], z[1], z[2], 0,
		eye[0], eye[1], eye[2], 1,
	}
}

// LookAt builds a view matrix for a camera at eye looking at center. It is the inverse of TargetTo.
func LookAt(eye, center, up Vec3) Mat4 {
	inv, _ := TargetTo(eye, center, up).Invert()
	return inv
}

// RigidInverse inverts a rotation plus translation by transposing the rotation block. Scale in m is
// not undone.
func RigidInverse(m Mat4) Mat4 {
	return Mat4{
		m[0], m[4], m[8], 0,
		m[1], m[5], m[9], 0,
		m[2], m[6], m[10], 0,
		-(m[0]*m[12] + m[1]*m[13] + m[2]*m[14]),
		-(m[4]*m[12] + m[5]*m[13] + m[6]*m[14]),
		-(m[8]*m[12] + m[9]*m[13] + m[10]*m[14]),
		1,
	}
}

// QuatFromMat3 converts a rotation matrix to a normalized quaternion.
func QuatFromMat3(m Mat3) Quat {
	var out Quat
	trace := m[0] + m[4] + m[8]

	if trace > 0 {
		root := math32.Sqrt(trace + 1)
		out[3] = 0.5 * root
		root = 0.5 / root
		out[0] = (m[5] - m[7]) * root
		out[1] = (m[6] - m[2]) * root
		out[2] = (m[1] - m[3]) * root
		return out.Normalize()
	}

	i := 0
	if m[4] > m[0] {
		i = 1
	}
	if m[8] > m[i*3+i] {
		i = 2
	}
	j := (i + 1) % 3
	k := (i + 2) % 3

	root := math32.Sqrt(m[i*3+i] - m[j*3+j] - m[k*3+k] + 1)
	out[i] = 0.5 * root
	root = 0.5 / root
	out[3] = (m[j*3+k] - m[k*3+j]) * root
	out[j] = (m[j*3+i] + m[i*3+j]) * root
	out[k] = (m[k*3+i] + m[i*3+k]) * root
	return out.Normalize()
}

// QuatFromAxisAngle builds a rotation of rad radians around axis.
func QuatFromAxisAngle(axis Vec3, rad float32) Quat {
	axis = axis.Normalize()
	s := math32.Sin(rad / 2)
	return Quat{axis[0] * s, axis[1] * s, axis[2] * s, math32.Cos(rad / 2)}
}

// Mul composes two rotations; the result applies b first, then q.
func (q Quat) Mul(b Quat) Quat {
	ax, ay, az, aw := q[0], q[1], q[2], q[3]
	bx, by, bz, bw := b[0], b[1], b[2], b[3]
	return Quat{
		ax*bw + aw*bx + ay*bz - az*by,
		ay*bw + aw*by + az*bx - ax*bz,
		az*bw + aw*bz + ax*by - ay*bx,
		aw*bw - ax*bx - ay*by - az*bz,
	}
}

// Normalize returns the unit quaternion. The zero quaternion normalizes to identity.
func (q Quat) Normalize() Quat {
	l := math32.Sqrt(q[0]*q[0] + q[1]*q[1] + q[2]*q[2] + q[3]*q[3])
	if l < epsilon {
		return QuatIdentity()
	}
	inv := 1 / l
	return Quat{q[0] * inv, q[1] * inv, q[2] * inv, q[3] * inv}
}

// Rotate applies the rotation to v.
func (q Quat) Rotate(v Vec3) Vec3 {
	qv := Vec3{q[0], q[1], q[2]}
	uv := qv.Cross(v)
	uuv := qv.Cross(uv)
	uv = uv.Scale(2 * q[3])
	uuv = uuv.Scale(2)
	return v.Add(uv).Add(uuv)
}

// Slerp spherically interpolates between a and b, taking the shorter arc.
//
// Parameters:
//   - a: rotation at t = 0
//   - b: rotation at t = 1
//   - t: interpolation fraction
//
// Returns:
//   - Quat: the interpolated rotation
func Slerp(a, b Quat, t float32) Quat {
	bx, by, bz, bw := b[0], b[1], b[2], b[3]

	cosom := a[0]*bx + a[1]*by + a[2]*bz + a[3]*bw
	if cosom < 0 {
		cosom = -cosom
		bx, by, bz, bw = -bx, -by, -bz, -bw
	}

	scale0, scale1 := 1-t, t
	if 1-cosom > epsilon {
		omega := math32.Acos(cosom)
		sinom := math32.Sin(omega)
		scale0 = math32.Sin((1-t)*omega) / sinom
		scale1 = math32.Sin(t*omega) / sinom
	}

	return Quat{
		scale0*a[0] + scale1*bx,
		scale0*a[1] + scale1*by,
		scale0*a[2] + scale1*bz,
		scale0*a[3] + scale1*bw,
	}
}

// Lerp linearly interpolates between two scalars. The endpoints are reproduced exactly at t = 0 and t = 1.
func Lerp(a, b, t float32) float32 {
	return a*(1-t) + b*t
}

// LerpVec3 linearly interpolates between two vectors component-wise.
func LerpVec3(a, b Vec3, t float32) Vec3 {
	return Vec3{Lerp(a[0], b[0], t), Lerp(a[1], b[1], t), Lerp(a[2], b[2], t)}
}

func (v Vec3) Add(b Vec3) Vec3 { return Vec3{v[0] + b[0], v[1] + b[1], v[2] + b[2]} }

func (v Vec3) Sub(b Vec3) Vec3 { return Vec3{v[0] - b[0], v[1] - b[1], v[2] - b[2]} }

func (v Vec3) Scale(s float32) Vec3 { return Vec3{v[0] * s, v[1] * s, v[2] * s} }

func (v Vec3) Dot(b Vec3) float32 { return v[0]*b[0] + v[1]*b[1] + v[2]*b[2] }

func (v Vec3) Cross(b Vec3) Vec3 {
	return Vec3{
		v[1]*b[2] - v[2]*b[1],
		v[2]*b[0] - v[0]*b[2],
		v[0]*b[1] - v[1]*b[0],
	}
}

func (v Vec3) Length() float32 { return math32.Sqrt(v.Dot(v)) }

// Normalize returns the unit vector; the zero vector is returned unchanged.
func (v Vec3) Normalize() Vec3 {
	l := v.Length()
	if l < epsilon {
		return v
	}
	return v.Scale(1 / l)
}

// ApproxEqual reports whether a and b differ by at most tol.
func ApproxEqual(a, b, tol float32) bool {
	return math32.Abs(a-b) <= tol
}
