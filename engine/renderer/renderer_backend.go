package renderer

import (
	"errors"
	"fmt"

	"github.com/Carmen-Shannon/oxy-deferred/common"
)

// PresentMode controls how rendered frames are presented to the display surface.
type PresentMode int

const (
	// PresentModeVSync waits for the next vertical blank before presenting, capping frame rate
	// to the monitor's refresh rate. Eliminates tearing.
	PresentModeVSync PresentMode = iota

	// PresentModeUncapped presents frames immediately without waiting for vertical blank.
	// May cause screen tearing but provides the lowest latency.
	PresentModeUncapped
)

// TextureFormat is the pixel format of a Texture or a program's render target.
type TextureFormat int

const (
	// FormatUndefined marks an absent attachment, such as the depth target of a program that does not test depth.
	FormatUndefined TextureFormat = iota

	// FormatRGBA8Unorm is an 8-bit normalized color format.
	FormatRGBA8Unorm

	// FormatRGBA16Float is a filterable half-float color format used by every HDR intermediate.
	FormatRGBA16Float

	// FormatDepth32Float is a 32-bit float depth format, samplable as a depth texture.
	FormatDepth32Float

	// FormatSurface resolves to whatever format the presentation surface was configured with.
	FormatSurface
)

// IsDepth reports whether the format is a depth format.
func (f TextureFormat) IsDepth() bool {
	return f == FormatDepth32Float
}

// BytesPerPixel returns the texel size of the format, or 4 for the surface format.
func (f TextureFormat) BytesPerPixel() int {
	switch f {
	case FormatRGBA16Float:
		return 8
	case FormatUndefined:
		return 0
	default:
		return 4
	}
}

// String returns a readable name of the format.
func (f TextureFormat) String() string {
	switch f {
	case FormatRGBA8Unorm:
		return "rgba8unorm"
	case FormatRGBA16Float:
		return "rgba16float"
	case FormatDepth32Float:
		return "depth32float"
	case FormatSurface:
		return "surface"
	default:
		return "undefined"
	}
}

// TextureUsage is a bit set of the ways a Texture will be used.
type TextureUsage uint32

const (
	// TextureUsageRenderTarget allows the texture as a color or depth attachment.
	TextureUsageRenderTarget TextureUsage = 1 << iota

	// TextureUsageSampled allows the texture to be bound to a texture unit.
	TextureUsageSampled

	// TextureUsageCopyDst allows uploading texel data with WriteTexture.
	TextureUsageCopyDst
)

// BufferUsage selects how a Buffer is bound.
type BufferUsage int

const (
	// BufferUsageVertex is a vertex buffer.
	BufferUsageVertex BufferUsage = iota

	// BufferUsageIndex is a 32-bit index buffer.
	BufferUsageIndex

	// BufferUsageStorage is a read-only storage buffer bound with Pass.BindStorage.
	BufferUsageStorage
)

// LoadOp controls what happens to an attachment's prior contents when a pass begins.
type LoadOp int

const (
	// LoadClear clears the attachment to the pass's clear value.
	LoadClear LoadOp = iota

	// LoadKeep preserves the attachment's prior contents.
	LoadKeep
)

var (
	// ErrIncompleteTarget is returned when a render target is not usable as a set of attachments.
	ErrIncompleteTarget = errors.New("renderer: incomplete render target")

	// ErrNoFrame is returned when a pass is begun outside of BeginFrame/EndFrame.
	ErrNoFrame = errors.New("renderer: no frame in progress")
)

// Texture is a backend texture handle.
type Texture interface {
	// Label returns the debug label of the texture.
	Label() string

	// Size returns the texture dimensions in pixels.
	Size() (width, height int)

	// Format returns the pixel format.
	Format() TextureFormat

	// Release frees the GPU resource.
	Release()
}

// Buffer is a backend buffer handle.
type Buffer interface {
	// Label returns the debug label of the buffer.
	Label() string

	// Size returns the buffer size in bytes.
	Size() uint64

	// Release frees the GPU resource.
	Release()
}

// Program is a compiled render program: shaders plus fixed-function state for one target layout.
type Program interface {
	// Key returns the key of the descriptor the program was built from.
	Key() string

	// Release frees the GPU resources.
	Release()
}

// TextureDescriptor describes a texture to create.
type TextureDescriptor struct {
	Label  string
	Width  int
	Height int
	Format TextureFormat
	Usage  TextureUsage
}

// BufferDescriptor describes a buffer to create. Contents, when set, seeds the buffer and its length
// becomes the size when Size is zero.
type BufferDescriptor struct {
	Label    string
	Usage    BufferUsage
	Size     uint64
	Contents []byte
}

// ColorAttachment is one color output of a pass. A nil Target renders to the presentation surface.
type ColorAttachment struct {
	Target Texture
	Load   LoadOp
	Clear  [4]float64
}

// PassDescriptor describes the attachments of a render pass.
type PassDescriptor struct {
	Label      string
	Colors     []ColorAttachment
	Depth      Texture
	DepthLoad  LoadOp
	ClearDepth float32
}

// ProgramDescriptor is the backend-independent description of a Program. It is implemented by
// pipeline.Pipeline.
type ProgramDescriptor interface {
	// Key returns a unique identifier for the program.
	Key() string

	// Source returns the fully resolved WGSL source holding both entry points.
	Source() string

	// VertexEntry returns the vertex entry point name.
	VertexEntry() string

	// FragmentEntry returns the fragment entry point name, or "" for a depth-only program.
	FragmentEntry() string

	// ColorFormats returns the formats of the color targets the program renders into, in attachment order.
	ColorFormats() []TextureFormat

	// DepthFormat returns the depth target format, or FormatUndefined when the program has no depth target.
	DepthFormat() TextureFormat

	// DepthTestEnabled reports whether fragments are tested against the depth target.
	DepthTestEnabled() bool

	// DepthWriteEnabled reports whether fragments write the depth target.
	DepthWriteEnabled() bool

	// DepthBias returns the constant depth bias.
	DepthBias() int32

	// DepthBiasSlopeScale returns the slope-scaled depth bias.
	DepthBiasSlopeScale() float32

	// CullMode returns the face culling mode.
	CullMode() CullMode

	// Topology returns the primitive topology.
	Topology() Topology

	// Blend returns the color blend mode applied to every color target.
	Blend() BlendMode
}

// CullMode selects which triangle faces are discarded.
type CullMode int

const (
	CullNone CullMode = iota
	CullBack
	CullFront
)

// Topology is the primitive assembly mode.
type Topology int

const (
	TopologyTriangleList Topology = iota
	TopologyTriangleStrip
	TopologyLineList
)

// BlendMode is the color blend applied by a program.
type BlendMode int

const (
	// BlendNone replaces the destination.
	BlendNone BlendMode = iota

	// BlendAdditive adds the source to the destination.
	BlendAdditive

	// BlendAlpha blends by source alpha.
	BlendAlpha
)

// Pass records draw commands into one render pass. Texture and storage bindings persist across
// SetProgram calls for the lifetime of the pass.
type Pass interface {
	// SetProgram selects the program used by subsequent draws.
	//
	// Parameters:
	//   - p: a program created by the same Backend
	SetProgram(p Program)

	// BindTexture binds t to a texture unit. Unit N is visible to shaders as @group(1) @binding(N).
	//
	// Parameters:
	//   - unit: the texture unit
	//   - t: the texture to bind
	BindTexture(unit TextureUnit, t Texture)

	// SetUniforms stages the uniform block for the next draw. The block is visible to shaders as
	// @group(0) @binding(0).
	//
	// Parameters:
	//   - data: the marshalled uniform block
	SetUniforms(data []byte)

	// BindStorage binds a read-only storage buffer at @group(0) @binding(4).
	//
	// Parameters:
	//   - b: the storage buffer
	BindStorage(b Buffer)

	// SetVertexBuffer binds b as vertex buffer slot.
	SetVertexBuffer(slot uint32, b Buffer)

	// SetIndexBuffer binds b as a 32-bit index buffer.
	SetIndexBuffer(b Buffer)

	// Draw issues a non-indexed draw.
	//
	// Parameters:
	//   - vertexCount: vertices per instance
	//   - instanceCount: number of instances
	Draw(vertexCount, instanceCount uint32)

	// DrawIndexed issues an indexed draw.
	//
	// Parameters:
	//   - indexCount: indices per instance
	//   - instanceCount: number of instances
	DrawIndexed(indexCount, instanceCount uint32)

	// End finishes the pass.
	//
	// Returns:
	//   - error: the first error recorded during the pass
	End() error
}

// Backend is the GPU device abstraction the graphics manager renders through.
type Backend interface {
	// CreateTexture allocates a texture.
	//
	// Parameters:
	//   - desc: the texture description
	//
	// Returns:
	//   - Texture: the new texture
	//   - error: an error if the texture could not be allocated
	CreateTexture(desc TextureDescriptor) (Texture, error)

	// WriteTexture uploads texel data into t.
	//
	// Parameters:
	//   - t: a texture created with TextureUsageCopyDst
	//   - data: the staged pixels
	//
	// Returns:
	//   - error: an error if the data does not fit the texture
	WriteTexture(t Texture, data common.TextureStagingData) error

	// CreateBuffer allocates a buffer.
	//
	// Parameters:
	//   - desc: the buffer description
	//
	// Returns:
	//   - Buffer: the new buffer
	//   - error: an error if the buffer could not be allocated
	CreateBuffer(desc BufferDescriptor) (Buffer, error)

	// WriteBuffer uploads data into b at offset.
	WriteBuffer(b Buffer, offset uint64, data []byte)

	// CreateProgram compiles a program.
	//
	// Parameters:
	//   - desc: the program description
	//
	// Returns:
	//   - Program: the compiled program
	//   - error: an error if the shader fails to compile or link
	CreateProgram(desc ProgramDescriptor) (Program, error)

	// CheckTarget verifies that the textures form a complete set of render attachments.
	//
	// Parameters:
	//   - colors: the color attachments
	//   - depth: the depth attachment, may be nil
	//
	// Returns:
	//   - error: ErrIncompleteTarget wrapped with the reason
	CheckTarget(colors []Texture, depth Texture) error

	// BeginFrame acquires the next surface image.
	BeginFrame() error

	// BeginPass starts a render pass within the current frame.
	//
	// Parameters:
	//   - desc: the pass attachments
	//
	// Returns:
	//   - Pass: the pass recorder
	//   - error: ErrNoFrame outside of a frame, or an attachment error
	BeginPass(desc PassDescriptor) (Pass, error)

	// EndFrame submits the recorded passes and presents the surface.
	EndFrame() error

	// Resize reconfigures the presentation surface.
	Resize(width, height int)

	// Size returns the presentation surface size in pixels.
	Size() (width, height int)

	// Release frees every device resource.
	Release()
}

// ValidateTarget checks the attachment rules shared by every backend: at least one attachment, matching
// sizes, color formats on color slots and a depth format on the depth slot.
//
// Parameters:
//   - colors: the color attachments
//   - depth: the depth attachment, may be nil
//
// Returns:
//   - error: nil when the target is complete, otherwise ErrIncompleteTarget wrapped with the reason
func ValidateTarget(colors []Texture, depth Texture) error {
	if len(colors) == 0 && depth == nil {
		return fmt.Errorf("%w: no attachments", ErrIncompleteTarget)
	}
	w, h := -1, -1
	check := func(t Texture) error {
		tw, th := t.Size()
		if tw <= 0 || th <= 0 {
			return fmt.Errorf("%w: %q has empty size %dx%d", ErrIncompleteTarget, t.Label(), tw, th)
		}
		if w < 0 {
			w, h = tw, th
			return nil
		}
		if tw != w || th != h {
			return fmt.Errorf("%w: %q is %dx%d, expected %dx%d", ErrIncompleteTarget, t.Label(), tw, th, w, h)
		}
		return nil
	}
	for i, c := range colors {
		if c == nil {
			return fmt.Errorf("%w: color attachment %d is nil", ErrIncompleteTarget, i)
		}
		if c.Format().IsDepth() || c.Format() == FormatUndefined {
			return fmt.Errorf("%w: %q has non-color format %s", ErrIncompleteTarget, c.Label(), c.Format())
		}
		if err := check(c); err != nil {
			return err
		}
	}
	if depth != nil {
		if !depth.Format().IsDepth() {
			return fmt.Errorf("%w: %q has non-depth format %s", ErrIncompleteTarget, depth.Label(), depth.Format())
		}
		if err := check(depth); err != nil {
			return err
		}
	}
	return nil
}
