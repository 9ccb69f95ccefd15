package model

import (
	"github.com/Carmen-Shannon/oxy-deferred/common"
)

// --- Vertex Types ---

// Vertex is a single static mesh vertex.
type Vertex struct {
	// Position is the vertex position in model space.
	Position common.Vec3

	// Normal is the vertex normal in model space.
	Normal common.Vec3

	// UV is the texture coordinate.
	UV [2]float32
}

// SkinnedVertex is a mesh vertex deformed by up to four joints.
type SkinnedVertex struct {
	Vertex

	// Joints are the indices of the influencing joints within the skin.
	Joints [4]uint32

	// Weights are the blend weights of Joints and should sum to 1.
	Weights [4]float32
}

// --- Skeleton Types ---

// Joint is one node of a skin's joint hierarchy with its rest pose.
type Joint struct {
	// Name identifies the joint for animation targeting.
	Name string

	// Parent is the index of the parent joint, or -1 for the root.
	Parent int

	// Translation is the rest-pose local translation.
	Translation common.Vec3

	// Rotation is the rest-pose local rotation.
	Rotation common.Quat

	// Scale is the rest-pose local scale.
	Scale common.Vec3

	// InverseBind maps model space into the joint's space at bind time.
	InverseBind common.Mat4
}

// Skin is a joint hierarchy stored parent-before-child.
type Skin struct {
	Joints []Joint
}

// JointIndex returns the index of the joint called name, or -1.
func (s *Skin) JointIndex(name string) int {
	for i, j := range s.Joints {
		if j.Name == name {
			return i
		}
	}
	return -1
}

// --- Animation Types ---

// Property is the joint property a channel animates.
type Property int

const (
	PropertyRotation Property = iota
	PropertyTranslation
	PropertyScale
)

// String returns the property name.
func (p Property) String() string {
	switch p {
	case PropertyRotation:
		return "rotation"
	case PropertyTranslation:
		return "translation"
	case PropertyScale:
		return "scale"
	default:
		return "unknown"
	}
}

// Channel animates one property of one joint with samples aligned to the clip's time axis.
type Channel struct {
	// Joint is the index of the animated joint.
	Joint int

	// Property selects which of Vectors or Rotations holds the samples.
	Property Property

	// Vectors holds translation or scale samples.
	Vectors []common.Vec3

	// Rotations holds rotation samples.
	Rotations []common.Quat
}

// Len returns the number of samples in the channel.
func (c *Channel) Len() int {
	if c.Property == PropertyRotation {
		return len(c.Rotations)
	}
	return len(c.Vectors)
}

// Clip is a keyframed animation sharing one sample-time axis across its channels.
type Clip struct {
	// Name is the clip identifier.
	Name string

	// Duration is the loop length in seconds.
	Duration float32

	// Times are the keyframe times in seconds, strictly increasing.
	Times []float32

	// Channels are the animated joint properties.
	Channels []Channel
}

// --- Mesh Types ---

// Material holds the surface parameters written into the G-buffer.
type Material struct {
	// Albedo is the base color.
	Albedo common.Color

	// Emission is the emitted radiance, copied into the lit buffer before any light.
	Emission common.Color

	// Roughness is the microfacet roughness in [0, 1].
	Roughness float32

	// Metallic is the metalness in [0, 1].
	Metallic float32
}

// DefaultMaterial is a white, fully rough dielectric.
var DefaultMaterial = Material{
	Albedo:    common.White,
	Roughness: 1,
}

// Primitive is one drawable part of a mesh. Exactly one of Vertices and SkinnedVertices is set.
type Primitive struct {
	// Name is used in GPU resource labels.
	Name string

	// Vertices are static vertices.
	Vertices []Vertex

	// SkinnedVertices are vertices deformed by the mesh's skin.
	SkinnedVertices []SkinnedVertex

	// Indices are triangle-list indices; empty for a non-indexed primitive.
	Indices []uint32

	// Program is the shader library name of the geometry program. Empty selects the built-in geometry program.
	Program string

	// Instances is the number of instances drawn; zero draws one.
	Instances uint32

	// Material is the primitive's surface.
	Material Material
}

// Skinned reports whether the primitive carries skinning data.
func (p *Primitive) Skinned() bool {
	return len(p.SkinnedVertices) > 0
}

// Mesh is the in-memory descriptor produced by an asset loader: primitives plus an optional skin and its
// clips.
type Mesh struct {
	Name       string
	Primitives []Primitive
	Skin       *Skin
	Clips      []*Clip
}
