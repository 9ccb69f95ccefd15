package model

import (
	"github.com/Carmen-Shannon/oxy-deferred/common"
)

const (
	// VertexStride is the byte size of a marshalled Vertex: position, normal, uv.
	VertexStride = 32

	// SkinnedVertexStride is the byte size of a marshalled SkinnedVertex: the Vertex fields, four joint
	// indices and four weights.
	SkinnedVertexStride = 64

	// JointMatrixSize is the byte size of one skinning matrix in the joint storage buffer.
	JointMatrixSize = 64
)

// MarshalVertices serializes static vertices into a buffer matching the VertexInput struct of the built-in
// sources.
//
// Parameters:
//   - vertices: the vertices to serialize
//
// Returns:
//   - []byte: len(vertices) * VertexStride bytes
func MarshalVertices(vertices []Vertex) []byte {
	buf := make([]byte, len(vertices)*VertexStride)
	off := 0
	for _, v := range vertices {
		off = putVertex(buf, off, v)
	}
	return buf
}

// MarshalSkinnedVertices serializes skinned vertices into a buffer matching the SKINNED VertexInput struct.
//
// Parameters:
//   - vertices: the vertices to serialize
//
// Returns:
//   - []byte: len(vertices) * SkinnedVertexStride bytes
func MarshalSkinnedVertices(vertices []SkinnedVertex) []byte {
	buf := make([]byte, len(vertices)*SkinnedVertexStride)
	off := 0
	for _, v := range vertices {
		off = putVertex(buf, off, v.Vertex)
		off = common.PutUint32s(buf, off, v.Joints[:]...)
		off = common.PutFloat32s(buf, off, v.Weights[:]...)
	}
	return buf
}

func putVertex(buf []byte, off int, v Vertex) int {
	off = common.PutFloat32s(buf, off, v.Position[:]...)
	off = common.PutFloat32s(buf, off, v.Normal[:]...)
	return common.PutFloat32s(buf, off, v.UV[:]...)
}

// MarshalIndices serializes 32-bit indices.
func MarshalIndices(indices []uint32) []byte {
	buf := make([]byte, len(indices)*4)
	common.PutUint32s(buf, 0, indices...)
	return buf
}

// MarshalMatrices serializes column-major matrices back to back, as read by an array<mat4x4f> storage binding.
//
// Parameters:
//   - dst: destination buffer, reused when it holds len(matrices) * JointMatrixSize bytes
//   - matrices: the matrices to serialize
//
// Returns:
//   - []byte: the serialized matrices
func MarshalMatrices(dst []byte, matrices []common.Mat4) []byte {
	if len(dst) != len(matrices)*JointMatrixSize {
		dst = make([]byte, len(matrices)*JointMatrixSize)
	}
	off := 0
	for _, m := range matrices {
		off = common.PutFloat32s(dst, off, m[:]...)
	}
	return dst
}
