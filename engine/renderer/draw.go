package renderer

import (
	"github.com/spaghettifunk/anima-skybox/engine/compositor"
	"github.com/spaghettifunk/anima-skybox/engine/renderer/metadata"
)

// encodeSkybox records the single amplified skybox draw. uniformOffset
// selects the uniform slot written for this frame.
func (r *Renderer) encodeSkybox(encoder metadata.RenderCommandEncoder, drawable compositor.Drawable, uniformOffset int) {
	encoder.SetLabel("Primary Render Encoder")
	encoder.PushDebugGroup("Draw Skybox")

	// The viewer sits inside the cube.
	encoder.SetCullMode(metadata.FaceCullModeFront)
	encoder.SetRenderPipelineState(r.pipeline)
	encoder.SetDepthStencilState(r.depthState)
	encoder.SetVertexBuffer(r.vertices, 0, metadata.BufferIndexMeshPositions)
	encoder.SetVertexBuffer(r.uniforms.Buffer(), uniformOffset, metadata.BufferIndexUniforms)
	if r.skyboxTexture != nil {
		encoder.SetFragmentTexture(r.skyboxTexture, metadata.TextureIndexColor)
	}

	views := drawable.Views()
	viewports := make([]metadata.Viewport, len(views))
	for i, v := range views {
		viewports[i] = v.Viewport
	}
	encoder.SetViewports(viewports)

	if len(views) > 1 {
		mappings := make([]metadata.VertexAmplificationViewMapping, len(views))
		for i := range mappings {
			mappings[i] = metadata.VertexAmplificationViewMapping{
				ViewportArrayIndexOffset:     uint32(i),
				RenderTargetArrayIndexOffset: uint32(i),
			}
		}
		encoder.SetVertexAmplificationCount(len(viewports), mappings)
	}

	encoder.DrawPrimitives(metadata.PrimitiveTypeTriangle, 0, skyboxVertexCount)
	encoder.PopDebugGroup()
}
