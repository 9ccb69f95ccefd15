package graphics

import (
	"github.com/Carmen-Shannon/oxy-deferred/common"
	"github.com/Carmen-Shannon/oxy-deferred/engine/model"
)

// Uniform block sizes in bytes of the built-in pipeline programs.
const (
	GeometryUniformSize  = 240
	ShadowUniformSize    = 128
	AOUniformSize        = 1168
	BloomUniformSize     = 16
	CompositeUniformSize = 16
)

// MaxAOSamples is the length of the sample array in the AO uniform block.
const MaxAOSamples = 64

// GPUGeometryUniform is the per-primitive uniform block of the geometry program.
// Size: 240 bytes.
//
// Layout:
//
//	mat4x4<f32> model        (64 bytes, offset 0)
//	mat4x4<f32> viewProj     (64 bytes, offset 64)
//	mat4x4<f32> normalMatrix (64 bytes, offset 128)
//	vec4<f32>   albedo       (16 bytes, offset 192)
//	vec4<f32>   emission     (16 bytes, offset 208)
//	vec4<f32>   material     (16 bytes, offset 224)  x roughness, y metallic
type GPUGeometryUniform struct {
	Model    common.Mat4
	ViewProj common.Mat4
	Material model.Material
}

// Marshal serializes the uniform block into dst, growing it if needed.
//
// Parameters:
//   - dst: a reusable buffer, may be nil
//
// Returns:
//   - []byte: GeometryUniformSize bytes ready for upload
func (u *GPUGeometryUniform) Marshal(dst []byte) []byte {
	buf := resize(dst, GeometryUniformSize)
	normal := u.Model.NormalMatrix()
	off := common.PutFloat32s(buf, 0, u.Model[:]...)
	off = common.PutFloat32s(buf, off, u.ViewProj[:]...)
	off = common.PutFloat32s(buf, off, normal[:]...)
	a, e := u.Material.Albedo, u.Material.Emission
	off = common.PutFloat32s(buf, off, a[0], a[1], a[2], 1)
	off = common.PutFloat32s(buf, off, e[0], e[1], e[2], 1)
	common.PutFloat32s(buf, off, u.Material.Roughness, u.Material.Metallic, 0, 0)
	return buf
}

// GPUShadowUniform is the per-primitive uniform block of the shadow depth program.
// Size: 128 bytes.
//
// Layout:
//
//	mat4x4<f32> model         (64 bytes, offset 0)
//	mat4x4<f32> lightViewProj (64 bytes, offset 64)
type GPUShadowUniform struct {
	Model         common.Mat4
	LightViewProj common.Mat4
}

// Marshal serializes the uniform block into dst, growing it if needed.
//
// Parameters:
//   - dst: a reusable buffer, may be nil
//
// Returns:
//   - []byte: ShadowUniformSize bytes ready for upload
func (u *GPUShadowUniform) Marshal(dst []byte) []byte {
	buf := resize(dst, ShadowUniformSize)
	off := common.PutFloat32s(buf, 0, u.Model[:]...)
	common.PutFloat32s(buf, off, u.LightViewProj[:]...)
	return buf
}

// GPUAOUniform is the uniform block of the ambient occlusion program.
// Size: 1168 bytes.
//
// Layout:
//
//	mat4x4<f32>        viewProj (64 bytes, offset 0)
//	mat4x4<f32>        view     (64 bytes, offset 64)
//	vec4<f32>          params   (16 bytes, offset 128)  x radius, y sample count, z noise size, w range bias
//	array<vec4<f32>,64> samples (1024 bytes, offset 144)
type GPUAOUniform struct {
	ViewProj  common.Mat4
	View      common.Mat4
	Radius    float32
	NoiseSize float32
	Bias      float32
	Samples   []common.Vec3
}

// Marshal serializes the uniform block into dst, growing it if needed. Samples beyond MaxAOSamples are
// dropped.
//
// Parameters:
//   - dst: a reusable buffer, may be nil
//
// Returns:
//   - []byte: AOUniformSize bytes ready for upload
func (u *GPUAOUniform) Marshal(dst []byte) []byte {
	buf := resize(dst, AOUniformSize)
	clear(buf)
	n := min(len(u.Samples), MaxAOSamples)
	off := common.PutFloat32s(buf, 0, u.ViewProj[:]...)
	off = common.PutFloat32s(buf, off, u.View[:]...)
	off = common.PutFloat32s(buf, off, u.Radius, float32(n), u.NoiseSize, u.Bias)
	for _, s := range u.Samples[:n] {
		off = common.PutFloat32s(buf, off, s[0], s[1], s[2], 0)
	}
	return buf
}

// GPUBloomUniform is the uniform block of both bloom programs.
// Size: 16 bytes.
//
// Layout:
//
//	vec4<f32> params (16 bytes, offset 0)  xy source texel size, w blend factor
type GPUBloomUniform struct {
	TexelWidth  float32
	TexelHeight float32
	Factor      float32
}

// Marshal serializes the uniform block.
//
// Returns:
//   - []byte: BloomUniformSize bytes ready for upload
func (u *GPUBloomUniform) Marshal() []byte {
	buf := make([]byte, BloomUniformSize)
	common.PutFloat32s(buf, 0, u.TexelWidth, u.TexelHeight, 0, u.Factor)
	return buf
}

// GPUCompositeUniform is the uniform block of the composite program.
// Size: 16 bytes.
//
// Layout:
//
//	vec4<f32> params (16 bytes, offset 0)  x exposure, y view mode
type GPUCompositeUniform struct {
	Exposure float32
	Mode     ViewMode
}

// Marshal serializes the uniform block.
//
// Returns:
//   - []byte: CompositeUniformSize bytes ready for upload
func (u *GPUCompositeUniform) Marshal() []byte {
	buf := make([]byte, CompositeUniformSize)
	common.PutFloat32s(buf, 0, u.Exposure, float32(u.Mode), 0, 0)
	return buf
}

func resize(buf []byte, n int) []byte {
	if cap(buf) < n {
		return make([]byte, n)
	}
	return buf[:n]
}
