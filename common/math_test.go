package common

import (
	"testing"

	"github.com/chewxy/math32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func assertMat4InDelta(t *testing.T, want, got Mat4, delta float64) {
	t.Helper()
	for i := range want {
		assert.InDelta(t, want[i], got[i], delta, "element %d", i)
	}
}

func TestMat4MulIdentity(t *testing.T) {
	m := FromRotationTranslationScale(QuatFromAxisAngle(Vec3{0, 1, 0}, 0.7), Vec3{1, 2, 3}, Vec3{2, 2, 2})
	assertMat4InDelta(t, m, m.Mul(Mat4Identity()), 1e-6)
	assertMat4InDelta(t, m, Mat4Identity().Mul(m), 1e-6)
}

func TestMat4MulComposesTranslations(t *testing.T) {
	parent := FromRotationTranslationScale(QuatIdentity(), Vec3{0, 1, 0}, Vec3{1, 1, 1})
	child := FromRotationTranslationScale(QuatIdentity(), Vec3{1, 0, 0}, Vec3{1, 1, 1})

	got := parent.Mul(child).Translation()
	assert.Equal(t, Vec3{1, 1, 0}, got)
}

func TestMat4Invert(t *testing.T) {
	m := FromRotationTranslationScale(QuatFromAxisAngle(Vec3{1, 1, 0}, 1.1), Vec3{-3, 4, 5}, Vec3{1, 2, 3})
	inv, ok := m.Invert()
	require.True(t, ok)
	assertMat4InDelta(t, Mat4Identity(), m.Mul(inv), 1e-5)

	_, ok = Mat4{}.Invert()
	assert.False(t, ok)
}

func TestQuatRotate(t *testing.T) {
	q := QuatFromAxisAngle(Vec3{0, 1, 0}, math32.Pi/2)
	got := q.Rotate(Vec3{0, 0, -1})
	assert.InDelta(t, -1, got[0], 1e-6)
	assert.InDelta(t, 0, got[1], 1e-6)
	assert.InDelta(t, 0, got[2], 1e-6)
}

func TestSlerpEndpoints(t *testing.T) {
	a := QuatFromAxisAngle(Vec3{0, 0, 1}, 0.2)
	b := QuatFromAxisAngle(Vec3{0, 0, 1}, 1.4)

	assert.Equal(t, a, Slerp(a, b, 0))
	for i, v := range Slerp(a, b, 1) {
		assert.InDelta(t, b[i], v, 1e-6)
	}

	mid := Slerp(a, b, 0.5)
	want := QuatFromAxisAngle(Vec3{0, 0, 1}, 0.8)
	for i := range want {
		assert.InDelta(t, want[i], mid[i], 1e-5)
	}
}

func TestQuatFromMat3RoundTrip(t *testing.T) {
	for _, q := range []Quat{
		QuatIdentity(),
		QuatFromAxisAngle(Vec3{0, 1, 0}, 2.5),
		QuatFromAxisAngle(Vec3{1, 0, 0}, math32.Pi),
		QuatFromAxisAngle(Vec3{1, 2, 3}, -0.9),
	} {
		m := FromRotationTranslationScale(q, Vec3{}, Vec3{1, 1, 1}).Mat3()
		got := QuatFromMat3(m)
		// q and -q encode the same rotation
		if got.Mul(Quat{-q[0], -q[1], -q[2], q[3]})[3] < 0 {
			got = Quat{-got[0], -got[1], -got[2], -got[3]}
		}
		for i := range q {
			assert.InDelta(t, q[i], got[i], 1e-5)
		}
	}
}

func TestTargetToFacesTarget(t *testing.T) {
	eye := Vec3{0, 0, 5}
	m := TargetTo(eye, Vec3{}, Vec3{0, 1, 0})
	q := QuatFromMat3(m.Mat3())
	fwd := q.Rotate(Vec3{0, 0, -1})

	assert.InDelta(t, 0, fwd[0], 1e-6)
	assert.InDelta(t, 0, fwd[1], 1e-6)
	assert.InDelta(t, -1, fwd[2], 1e-6)
	assert.Equal(t, eye, m.Translation())
}

func TestLookAtMovesEyeToOrigin(t *testing.T) {
	view := LookAt(Vec3{3, 4, 5}, Vec3{}, Vec3{0, 1, 0})
	got := view.TransformPoint(Vec3{3, 4, 5})
	for _, v := range got {
		assert.InDelta(t, 0, v, 1e-5)
	}
}

func TestPerspectiveDepthRange(t *testing.T) {
	p := Perspective(math32.Pi/2, 1, 0.1, 100)

	clipZ := func(z float32) float32 {
		v := p.TransformPoint(Vec3{0, 0, z})
		w := -z
		return v[2] / w
	}
	assert.InDelta(t, 0, clipZ(-0.1), 1e-5)
	assert.InDelta(t, 1, clipZ(-100), 1e-5)
}

func TestOrthoDepthRange(t *testing.T) {
	o := Ortho(-5, 5, -5, 5, 0.01, 30)
	assert.InDelta(t, 0, o.TransformPoint(Vec3{0, 0, -0.01})[2], 1e-6)
	assert.InDelta(t, 1, o.TransformPoint(Vec3{0, 0, -30})[2], 1e-6)
	assert.InDelta(t, 1, o.TransformPoint(Vec3{5, 0, -1})[0], 1e-6)
}

func TestPutFloat32s(t *testing.T) {
	buf := make([]byte, 12)
	off := PutFloat32s(buf, 0, 1.5, -2, 3)
	assert.Equal(t, 12, off)
	assert.Equal(t, float32(-2), Float32At(buf, 4))
}

func TestCoalesce(t *testing.T) {
	assert.Equal(t, 3, Coalesce(0, 3, 4))
	assert.Equal(t, "", Coalesce[string]())
}
