package renderer

import (
	"encoding/binary"
	"fmt"
	stdmath "math"

	"github.com/spaghettifunk/anima-skybox/engine/compositor"
	"github.com/spaghettifunk/anima-skybox/engine/core"
	"github.com/spaghettifunk/anima-skybox/engine/renderer/metadata"
)

const (
	skyboxVertexFunction   = "skyboxVertex"
	skyboxFragmentFunction = "skyboxFragment"
	skyboxVertexCount      = 36
	skyboxVertexStride     = 12
)

// skyboxVertices is a cube of half extent 100 around the viewer, two
// triangles per face: front, right, back, left, top, bottom.
var skyboxVertices = [skyboxVertexCount][3]float32{
	{-100, 100, 100}, {100, 100, 100}, {-100, -100, 100},
	{100, 100, 100}, {100, -100, 100}, {-100, -100, 100},

	{100, 100, 100}, {100, 100, -100}, {100, -100, 100},
	{100, 100, -100}, {100, -100, -100}, {100, -100, 100},

	{100, 100, -100}, {-100, 100, -100}, {100, -100, -100},
	{-100, 100, -100}, {-100, -100, -100}, {100, -100, -100},

	{-100, 100, -100}, {-100, 100, 100}, {-100, -100, -100},
	{-100, 100, 100}, {-100, -100, 100}, {-100, -100, -100},

	{-100, 100, -100}, {100, 100, -100}, {-100, 100, 100},
	{100, 100, -100}, {100, 100, 100}, {-100, 100, 100},

	{-100, -100, 100}, {100, -100, 100}, {-100, -100, -100},
	{100, -100, 100}, {100, -100, -100}, {-100, -100, -100},
}

func skyboxVertexBytes() []byte {
	out := make([]byte, 0, skyboxVertexCount*skyboxVertexStride)
	for _, v := range skyboxVertices {
		for _, f := range v {
			out = binary.LittleEndian.AppendUint32(out, stdmath.Float32bits(f))
		}
	}
	return out
}

func buildVertexDescriptor() *metadata.VertexDescriptor {
	vd := metadata.NewVertexDescriptor()
	vd.Attributes[metadata.VertexAttributePosition] = metadata.VertexAttributeDescriptor{
		Format:      metadata.VertexFormatFloat3,
		Offset:      0,
		BufferIndex: metadata.BufferIndexMeshPositions,
	}
	vd.Layouts[metadata.BufferIndexMeshPositions] = metadata.VertexBufferLayoutDescriptor{
		Stride:       skyboxVertexStride,
		StepRate:     1,
		StepFunction: metadata.VertexStepFunctionPerVertex,
	}
	return vd
}

// selectSampleCount returns preference when the device can rasterize with it
// into 32 bit attachments, 1 otherwise.
func selectSampleCount(device metadata.Device, preference int) int {
	if preference > 1 && device.Supports32BitMSAA() && device.SupportsTextureSampleCount(preference) {
		return preference
	}
	return 1
}

func buildRenderPipeline(device metadata.Device, layer compositor.LayerRenderer, sampleCount int) (metadata.RenderPipelineState, error) {
	library, err := device.NewDefaultLibrary()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", core.ErrShaderFunctionMissing, err)
	}
	vertexFunction, err := library.NewFunction(skyboxVertexFunction)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", core.ErrShaderFunctionMissing, err)
	}
	fragmentFunction, err := library.NewFunction(skyboxFragmentFunction)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", core.ErrShaderFunctionMissing, err)
	}

	configuration := layer.Configuration()
	pipeline, err := device.NewRenderPipelineState(&metadata.RenderPipelineDescriptor{
		Label:                       "RenderPipeline",
		VertexFunction:              vertexFunction,
		FragmentFunction:            fragmentFunction,
		VertexDescriptor:            buildVertexDescriptor(),
		RasterSampleCount:           sampleCount,
		ColorPixelFormat:            configuration.ColorFormat,
		DepthPixelFormat:            configuration.DepthFormat,
		MaxVertexAmplificationCount: layer.Properties().ViewCount,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", core.ErrPipelineCreation, err)
	}
	return pipeline, nil
}

// buildDepthState uses a greater-than test: depth is reversed, near is 1.0.
func buildDepthState(device metadata.Device) (metadata.DepthStencilState, error) {
	state, err := device.NewDepthStencilState(&metadata.DepthStencilDescriptor{
		Label:                "DepthState",
		DepthCompareFunction: metadata.CompareFunctionGreater,
		DepthWriteEnabled:    true,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", core.ErrDepthStateCreation, err)
	}
	return state, nil
}
