// Package transform provides rigid-body transforms whose derived matrices live in one contiguous
// pool-owned buffer.
package transform

import "github.com/Carmen-Shannon/oxy-deferred/common"

// Transform is a position, rotation, and scale with a derived 4x4 matrix. Transforms are issued by a Pool;
// the derived matrix is stored in the pool's contiguous matrix buffer at the transform's slot.
type Transform struct {
	Position common.Vec3
	Rotation common.Quat
	Scale    common.Vec3

	slot  int
	pool  *pool
	freed bool
}

// Reset restores identity-equivalent defaults: origin position, identity rotation, unit scale.
func (t *Transform) Reset() {
	t.Position = common.Vec3{}
	t.Rotation = common.QuatIdentity()
	t.Scale = common.Vec3{1, 1, 1}
}

// Matrix recomputes the model matrix from position, rotation, and scale, stores it in the
// pool buffer, and returns it.
func (t *Transform) Matrix() common.Mat4 {
	m := common.FromRotationTranslationScale(t.Rotation, t.Position, t.Scale)
	if v := t.MatrixView(); v != nil {
		copy(v, m[:])
	}
	return m
}

// MatrixView returns the transform's 16-float window into the pool buffer. The view holds the value
// last computed by Matrix and is invalidated when the pool grows.
func (t *Transform) MatrixView() []float32 {
	if t.pool == nil || t.freed {
		return nil
	}
	off := t.slot * 16
	return t.pool.matrices[off : off+16 : off+16]
}

// Slot returns the transform's index in the pool buffer.
func (t *Transform) Slot() int {
	return t.slot
}

// View returns the world-to-local matrix of the transform's position and rotation. Scale is ignored, so
// cameras and shadow-casting lights on scaled objects keep an undistorted frustum.
func (t *Transform) View() common.Mat4 {
	return common.RigidInverse(common.FromRotationTranslationScale(t.Rotation, t.Position, common.Vec3{1, 1, 1}))
}

// Forward returns the -Z axis rotated by the transform's rotation.
func (t *Transform) Forward() common.Vec3 {
	return t.Rotation.Rotate(common.Vec3{0, 0, -1})
}

// LookAt places the transform at eye and orients it toward center. The rotation is re-derived from
// the orthonormal 3x3 block, which keeps it normalized.
//
// Parameters:
//   - eye: the new position
//   - center: the point to face
//   - up: the approximate up direction
func (t *Transform) LookAt(eye, center, up common.Vec3) {
	m := common.TargetTo(eye, center, up)
	t.Rotation = common.QuatFromMat3(m.Mat3())
	t.Position = eye
}

// Rotate composes q onto the current rotation and renormalizes.
func (t *Transform) Rotate(q common.Quat) {
	t.Rotation = q.Mul(t.Rotation).Normalize()
}
