package metadata

/**
 * @brief A GPU device: the factory of every resource the renderer owns.
 */
type Device interface {
	Name() string
	NewCommandQueue() (CommandQueue, error)
	NewBuffer(length int, mode StorageMode) (Buffer, error)
	NewBufferWithBytes(data []byte, mode StorageMode) (Buffer, error)
	NewTexture(desc TextureDescriptor) (Texture, error)
	// NewTextureWithData creates a texture and fills one slice per element of
	// slices (six for a cube map).
	NewTextureWithData(desc TextureDescriptor, slices [][]byte) (Texture, error)
	NewDefaultLibrary() (Library, error)
	NewRenderPipelineState(desc *RenderPipelineDescriptor) (RenderPipelineState, error)
	NewDepthStencilState(desc *DepthStencilDescriptor) (DepthStencilState, error)
	SupportsTextureSampleCount(count int) bool
	Supports32BitMSAA() bool
}

type Buffer interface {
	Label() string
	SetLabel(label string)
	Length() int
	// Contents returns the CPU mapping of a shared buffer, nil otherwise.
	Contents() []byte
	Release()
}

type Library interface {
	NewFunction(name string) (Function, error)
}

type Function interface {
	Name() string
}

type RenderPipelineState interface {
	Label() string
}

type DepthStencilState interface {
	Label() string
}

type CommandQueue interface {
	NewCommandBuffer() (CommandBuffer, error)
}

/**
 * @brief A unit of GPU work. Once committed it executes asynchronously and
 * calls every completed handler, in registration order, when it finishes.
 */
type CommandBuffer interface {
	Label() string
	SetLabel(label string)
	NewRenderCommandEncoder(desc *RenderPassDescriptor) (RenderCommandEncoder, error)
	AddCompletedHandler(handler func(CommandBuffer))
	Commit()
}

type RenderCommandEncoder interface {
	SetLabel(label string)
	PushDebugGroup(name string)
	PopDebugGroup()
	SetCullMode(mode FaceCullMode)
	SetRenderPipelineState(state RenderPipelineState)
	SetDepthStencilState(state DepthStencilState)
	SetVertexBuffer(buffer Buffer, offset int, index BufferIndex)
	SetFragmentTexture(texture Texture, index TextureIndex)
	SetViewports(viewports []Viewport)
	SetVertexAmplificationCount(count int, mappings []VertexAmplificationViewMapping)
	DrawPrimitives(primitive PrimitiveType, vertexStart, vertexCount int)
	EndEncoding()
}
