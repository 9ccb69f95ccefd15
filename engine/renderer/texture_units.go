package renderer

// TextureUnit is a fixed binding slot for sampled textures. Every program that samples a G-buffer
// attachment reads it from the same unit.
type TextureUnit uint32

const (
	UnitPosition TextureUnit = 0
	UnitAlbedo   TextureUnit = 1
	UnitNormal   TextureUnit = 2
	UnitEmission TextureUnit = 3
	UnitMaterial TextureUnit = 4
	UnitAO       TextureUnit = 5
	UnitDepth    TextureUnit = 7
	UnitLighting TextureUnit = 10

	// UnitFree0 is the first unit not reserved by the G-buffer. Shadow maps, the AO noise texture and
	// bloom inputs are bound here.
	UnitFree0 TextureUnit = 12
)

// Group 0 binding indices shared by every program.
const (
	BindingUniforms      uint32 = 0
	BindingLinearSampler uint32 = 1
	BindingShadowSampler uint32 = 2
	BindingStorage       uint32 = 4
)

// TextureGroup is the bind group index that holds texture units.
const TextureGroup = 1
