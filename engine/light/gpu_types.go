package light

import (
	"github.com/Carmen-Shannon/oxy-deferred/common"
)

// Uniform block sizes in bytes. Each matches the WGSL struct bound at @group(0) @binding(0) by the
// corresponding light program.
const (
	PointLightUniformSize       = 48
	PointLightRecordSize        = 32
	SpotLightUniformSize        = 128
	DirectionalLightUniformSize = 112
	AmbientLightUniformSize     = 16
)

// GPUPointLight is one point light as the shaders see it, either inside the point light uniform block or
// as an element of the instanced light storage buffer.
// Size: 32 bytes.
type GPUPointLight struct {
	Position  common.Vec3  // offset  0: world-space position
	Radius    float32      // offset 12: distance at which the light contributes nothing
	Color     common.Color // offset 16: linear RGB
	Intensity float32      // offset 28: scalar multiplier
}

// Put writes the record into buf at off.
//
// Parameters:
//   - buf: the destination, must hold off + PointLightRecordSize bytes
//   - off: the byte offset
//
// Returns:
//   - int: the offset after the record
func (g *GPUPointLight) Put(buf []byte, off int) int {
	off = common.PutFloat32s(buf, off, g.Position[0], g.Position[1], g.Position[2], g.Radius)
	return common.PutFloat32s(buf, off, g.Color[0], g.Color[1], g.Color[2], g.Intensity)
}

// GPUPointLightUniform is the uniform block of the point light program.
// Size: 48 bytes.
//
// Layout:
//
//	PointLight light   (32 bytes, offset 0)
//	vec4<f32>  camera  (16 bytes, offset 32)
type GPUPointLightUniform struct {
	Light  GPUPointLight
	Camera common.Vec3
}

// Marshal serializes the uniform block.
//
// Returns:
//   - []byte: PointLightUniformSize bytes ready for upload
func (u *GPUPointLightUniform) Marshal() []byte {
	buf := make([]byte, PointLightUniformSize)
	off := u.Light.Put(buf, 0)
	common.PutFloat32s(buf, off, u.Camera[0], u.Camera[1], u.Camera[2], 1)
	return buf
}

// GPUSpotLightUniform is the uniform block of the spot light program.
// Size: 128 bytes.
//
// Layout:
//
//	mat4x4<f32> lightViewProj (64 bytes, offset 0)
//	vec4<f32>   position      (16 bytes, offset 64)  w = radius
//	vec4<f32>   direction     (16 bytes, offset 80)  w = cos(half angle)
//	vec4<f32>   color         (16 bytes, offset 96)  w = intensity
//	vec4<f32>   camera        (16 bytes, offset 112)
type GPUSpotLightUniform struct {
	LightViewProj common.Mat4
	Position      common.Vec3
	Radius        float32
	Direction     common.Vec3
	CosHalfAngle  float32
	Color         common.Color
	Intensity     float32
	Camera        common.Vec3
}

// Marshal serializes the uniform block.
//
// Returns:
//   - []byte: SpotLightUniformSize bytes ready for upload
func (u *GPUSpotLightUniform) Marshal() []byte {
	buf := make([]byte, SpotLightUniformSize)
	off := common.PutFloat32s(buf, 0, u.LightViewProj[:]...)
	off = common.PutFloat32s(buf, off, u.Position[0], u.Position[1], u.Position[2], u.Radius)
	off = common.PutFloat32s(buf, off, u.Direction[0], u.Direction[1], u.Direction[2], u.CosHalfAngle)
	off = common.PutFloat32s(buf, off, u.Color[0], u.Color[1], u.Color[2], u.Intensity)
	common.PutFloat32s(buf, off, u.Camera[0], u.Camera[1], u.Camera[2], 1)
	return buf
}

// GPUDirectionalLightUniform is the uniform block of the directional light program.
// Size: 112 bytes.
//
// Layout:
//
//	mat4x4<f32> lightViewProj (64 bytes, offset 0)
//	vec4<f32>   direction     (16 bytes, offset 64)
//	vec4<f32>   color         (16 bytes, offset 80)  w = intensity
//	vec4<f32>   camera        (16 bytes, offset 96)
type GPUDirectionalLightUniform struct {
	LightViewProj common.Mat4
	Direction     common.Vec3
	Color         common.Color
	Intensity     float32
	Camera        common.Vec3
}

// Marshal serializes the uniform block.
//
// Returns:
//   - []byte: DirectionalLightUniformSize bytes ready for upload
func (u *GPUDirectionalLightUniform) Marshal() []byte {
	buf := make([]byte, DirectionalLightUniformSize)
	off := common.PutFloat32s(buf, 0, u.LightViewProj[:]...)
	off = common.PutFloat32s(buf, off, u.Direction[0], u.Direction[1], u.Direction[2], 0)
	off = common.PutFloat32s(buf, off, u.Color[0], u.Color[1], u.Color[2], u.Intensity)
	common.PutFloat32s(buf, off, u.Camera[0], u.Camera[1], u.Camera[2], 1)
	return buf
}

// GPUAmbientLightUniform is the uniform block of the ambient light program.
// Size: 16 bytes.
type GPUAmbientLightUniform struct {
	Color     common.Color // offset  0
	Intensity float32      // offset 12
}

// Marshal serializes the uniform block.
//
// Returns:
//   - []byte: AmbientLightUniformSize bytes ready for upload
func (u *GPUAmbientLightUniform) Marshal() []byte {
	buf := make([]byte, AmbientLightUniformSize)
	common.PutFloat32s(buf, 0, u.Color[0], u.Color[1], u.Color[2], u.Intensity)
	return buf
}

// MarshalPointLights packs records into dst, reusing it when it is large enough.
//
// Parameters:
//   - dst: a buffer to reuse, may be nil
//   - lights: the records to pack
//
// Returns:
//   - []byte: len(lights) * PointLightRecordSize bytes
func MarshalPointLights(dst []byte, lights []GPUPointLight) []byte {
	n := len(lights) * PointLightRecordSize
	if cap(dst) < n {
		dst = make([]byte, n)
	}
	dst = dst[:n]
	off := 0
	for i := range lights {
		off = lights[i].Put(dst, off)
	}
	return dst
}
