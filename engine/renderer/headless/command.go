package headless

import (
	"fmt"
	"sync"

	"github.com/spaghettifunk/anima-skybox/engine/core"
	"github.com/spaghettifunk/anima-skybox/engine/renderer/metadata"
)

type CommandStatus int

const (
	CommandStatusNotEnqueued CommandStatus = iota
	CommandStatusCommitted
	CommandStatusCompleted
)

/** @brief What one committed command buffer asked the GPU to do. */
type Submission struct {
	Label  string
	Passes []Pass
}

type BufferBinding struct {
	Buffer metadata.Buffer
	Offset int
}

/** @brief One encoded render pass. */
type Pass struct {
	EncoderLabel string
	// Descriptor is a copy taken when the encoder was created.
	Descriptor         metadata.RenderPassDescriptor
	DebugGroups        []string
	CullMode           metadata.FaceCullMode
	Pipeline           metadata.RenderPipelineState
	DepthState         metadata.DepthStencilState
	VertexBuffers      map[metadata.BufferIndex]BufferBinding
	FragmentTextures   map[metadata.TextureIndex]metadata.Texture
	Viewports          []metadata.Viewport
	AmplificationCount int
	ViewMappings       []metadata.VertexAmplificationViewMapping
	Draws              []DrawCall
}

type DrawCall struct {
	Primitive   metadata.PrimitiveType
	VertexStart int
	VertexCount int
	// Uniforms holds the bytes bound at BufferIndexUniforms when the draw
	// was encoded, nil when nothing was bound there.
	Uniforms []byte
}

type CommandQueue struct {
	device *Device
}

func (q *CommandQueue) NewCommandBuffer() (metadata.CommandBuffer, error) {
	if q.device.faulted(FaultCommandBuffer) {
		return nil, fmt.Errorf("headless: command buffer creation failed")
	}
	return &CommandBuffer{device: q.device}, nil
}

type CommandBuffer struct {
	device   *Device
	label    string
	passes   []Pass
	handlers []func(metadata.CommandBuffer)
	encoding bool

	mu     sync.Mutex
	status CommandStatus
}

func (cb *CommandBuffer) Label() string         { return cb.label }
func (cb *CommandBuffer) SetLabel(label string) { cb.label = label }

func (cb *CommandBuffer) Status() CommandStatus {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.status
}

func (cb *CommandBuffer) NewRenderCommandEncoder(desc *metadata.RenderPassDescriptor) (metadata.RenderCommandEncoder, error) {
	if cb.device.faulted(FaultRenderEncoder) {
		return nil, fmt.Errorf("headless: render encoder creation failed")
	}
	if cb.Status() != CommandStatusNotEnqueued {
		return nil, fmt.Errorf("headless: command buffer '%s' already committed", cb.label)
	}
	if cb.encoding {
		return nil, fmt.Errorf("headless: previous encoder was not ended")
	}
	if err := validateRenderPass(desc); err != nil {
		return nil, err
	}
	cb.encoding = true
	return &RenderCommandEncoder{
		cb: cb,
		pass: Pass{
			Descriptor:       *desc,
			VertexBuffers:    make(map[metadata.BufferIndex]BufferBinding),
			FragmentTextures: make(map[metadata.TextureIndex]metadata.Texture),
		},
	}, nil
}

func validateRenderPass(desc *metadata.RenderPassDescriptor) error {
	color := desc.ColorAttachments[0]
	if color.Texture == nil {
		return fmt.Errorf("headless: render pass has no color attachment")
	}
	if err := validateAttachment("color", color.Texture, color.ResolveTexture, color.StoreAction); err != nil {
		return err
	}
	depth := desc.DepthAttachment
	if depth.Texture != nil {
		if !depth.Texture.PixelFormat().IsDepth() {
			return fmt.Errorf("headless: depth attachment has a color format")
		}
		if err := validateAttachment("depth", depth.Texture, depth.ResolveTexture, depth.StoreAction); err != nil {
			return err
		}
	}
	return nil
}

func validateAttachment(name string, tex, resolve metadata.Texture, store metadata.StoreAction) error {
	if t, ok := tex.(*Texture); ok && t.Released() {
		return fmt.Errorf("headless: %s attachment '%s' was released", name, tex.Label())
	}
	if tex.StorageMode() == metadata.StorageModeMemoryless && store == metadata.StoreActionStore {
		return fmt.Errorf("headless: memoryless %s attachment cannot be stored", name)
	}
	if store == metadata.StoreActionMultisampleResolve {
		if resolve == nil {
			return fmt.Errorf("headless: %s attachment resolves without a resolve texture", name)
		}
		if resolve.Width() != tex.Width() || resolve.Height() != tex.Height() {
			return fmt.Errorf("headless: %s resolve texture is %dx%d, attachment is %dx%d",
				name, resolve.Width(), resolve.Height(), tex.Width(), tex.Height())
		}
	}
	return nil
}

func (cb *CommandBuffer) AddCompletedHandler(handler func(metadata.CommandBuffer)) {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	if cb.status == CommandStatusCompleted {
		core.LogWarn("headless: completed handler added to finished command buffer '%s'", cb.label)
		return
	}
	cb.handlers = append(cb.handlers, handler)
}

func (cb *CommandBuffer) Commit() {
	cb.mu.Lock()
	if cb.status != CommandStatusNotEnqueued {
		cb.mu.Unlock()
		core.LogError("headless: command buffer '%s' committed twice", cb.label)
		return
	}
	if cb.encoding {
		core.LogWarn("headless: command buffer '%s' committed with an open encoder", cb.label)
	}
	cb.status = CommandStatusCommitted
	cb.mu.Unlock()
	cb.device.commit(cb)
}

func (cb *CommandBuffer) record() Submission {
	return Submission{Label: cb.label, Passes: cb.passes}
}

func (cb *CommandBuffer) complete() {
	cb.mu.Lock()
	cb.status = CommandStatusCompleted
	handlers := cb.handlers
	cb.handlers = nil
	cb.mu.Unlock()

	cb.device.markCompleted()
	for _, h := range handlers {
		h(cb)
	}
}

type RenderCommandEncoder struct {
	cb    *CommandBuffer
	pass  Pass
	ended bool
}

func (e *RenderCommandEncoder) SetLabel(label string) { e.pass.EncoderLabel = label }

func (e *RenderCommandEncoder) PushDebugGroup(name string) {
	e.pass.DebugGroups = append(e.pass.DebugGroups, name)
}

func (e *RenderCommandEncoder) PopDebugGroup() {}

func (e *RenderCommandEncoder) SetCullMode(mode metadata.FaceCullMode) { e.pass.CullMode = mode }

func (e *RenderCommandEncoder) SetRenderPipelineState(state metadata.RenderPipelineState) {
	e.pass.Pipeline = state
}

func (e *RenderCommandEncoder) SetDepthStencilState(state metadata.DepthStencilState) {
	e.pass.DepthState = state
}

func (e *RenderCommandEncoder) SetVertexBuffer(buffer metadata.Buffer, offset int, index metadata.BufferIndex) {
	e.pass.VertexBuffers[index] = BufferBinding{Buffer: buffer, Offset: offset}
}

func (e *RenderCommandEncoder) SetFragmentTexture(texture metadata.Texture, index metadata.TextureIndex) {
	e.pass.FragmentTextures[index] = texture
}

func (e *RenderCommandEncoder) SetViewports(viewports []metadata.Viewport) {
	e.pass.Viewports = append([]metadata.Viewport(nil), viewports...)
}

func (e *RenderCommandEncoder) SetVertexAmplificationCount(count int, mappings []metadata.VertexAmplificationViewMapping) {
	e.pass.AmplificationCount = count
	e.pass.ViewMappings = append([]metadata.VertexAmplificationViewMapping(nil), mappings...)
}

func (e *RenderCommandEncoder) DrawPrimitives(primitive metadata.PrimitiveType, vertexStart, vertexCount int) {
	if e.ended {
		core.LogError("headless: draw after EndEncoding")
		return
	}
	if e.pass.Pipeline == nil {
		core.LogError("headless: draw without a pipeline state")
		return
	}
	draw := DrawCall{Primitive: primitive, VertexStart: vertexStart, VertexCount: vertexCount}
	if b, ok := e.pass.VertexBuffers[metadata.BufferIndexUniforms]; ok {
		if hb, ok := b.Buffer.(*Buffer); ok && b.Offset+metadata.UniformsArraySize <= len(hb.data) {
			draw.Uniforms = append([]byte(nil), hb.data[b.Offset:b.Offset+metadata.UniformsArraySize]...)
		}
	}
	e.pass.Draws = append(e.pass.Draws, draw)
}

func (e *RenderCommandEncoder) EndEncoding() {
	if e.ended {
		return
	}
	e.ended = true
	e.cb.passes = append(e.cb.passes, e.pass)
	e.cb.encoding = false
}
