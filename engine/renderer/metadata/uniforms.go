package metadata

import (
	"encoding/binary"
	stdmath "math"

	"github.com/spaghettifunk/anima-skybox/engine/math"
)

// Indices shared with the skybox shaders.
type BufferIndex int

const (
	BufferIndexMeshPositions BufferIndex = 0
	BufferIndexUniforms      BufferIndex = 1
)

type VertexAttribute int

const (
	VertexAttributePosition VertexAttribute = 0
)

type TextureIndex int

const (
	TextureIndexColor TextureIndex = 0
)

// MaxViewCount is the number of per-view uniform entries in UniformsArray.
const MaxViewCount = 2

const (
	mat4Size = 16 * 4
	// UniformsSize is the byte size of one Uniforms entry.
	UniformsSize = 2 * mat4Size
	// UniformsArraySize is the byte size of UniformsArray as seen by the shader.
	UniformsArraySize = MaxViewCount * UniformsSize
)

/** @brief Per-view shader constants. */
type Uniforms struct {
	ProjectionMatrix math.Mat4
	ModelViewMatrix  math.Mat4
}

/** @brief The uniform block bound for one draw: one entry per stereo view. */
type UniformsArray struct {
	Uniforms [MaxViewCount]Uniforms
}

// Put writes u into dst using the shader's little-endian float layout.
// dst must hold at least UniformsSize bytes.
func (u Uniforms) Put(dst []byte) {
	putMat4(dst[:mat4Size], u.ProjectionMatrix)
	putMat4(dst[mat4Size:UniformsSize], u.ModelViewMatrix)
}

// ReadUniforms decodes one Uniforms entry from src.
func ReadUniforms(src []byte) Uniforms {
	return Uniforms{
		ProjectionMatrix: readMat4(src[:mat4Size]),
		ModelViewMatrix:  readMat4(src[mat4Size:UniformsSize]),
	}
}

// ReadUniformsArray decodes a full UniformsArray from src.
func ReadUniformsArray(src []byte) UniformsArray {
	out := UniformsArray{}
	for i := 0; i < MaxViewCount; i++ {
		out.Uniforms[i] = ReadUniforms(src[i*UniformsSize:])
	}
	return out
}

func putMat4(dst []byte, m math.Mat4) {
	for i, f := range m.Data {
		binary.LittleEndian.PutUint32(dst[i*4:], stdmath.Float32bits(f))
	}
}

func readMat4(src []byte) math.Mat4 {
	m := math.Mat4{}
	for i := range m.Data {
		m.Data[i] = stdmath.Float32frombits(binary.LittleEndian.Uint32(src[i*4:]))
	}
	return m
}
