package metadata

type LoadAction int

const (
	LoadActionDontCare LoadAction = iota
	LoadActionLoad
	LoadActionClear
)

type StoreAction int

const (
	StoreActionDontCare StoreAction = iota
	StoreActionStore
	StoreActionMultisampleResolve
)

type ClearColor struct {
	Red, Green, Blue, Alpha float64
}

type RenderPassColorAttachment struct {
	Texture        Texture
	ResolveTexture Texture
	LoadAction     LoadAction
	StoreAction    StoreAction
	ClearColor     ClearColor
}

type RenderPassDepthAttachment struct {
	Texture        Texture
	ResolveTexture Texture
	LoadAction     LoadAction
	StoreAction    StoreAction
	ClearDepth     float64
}

/**
 * @brief Describes the attachments and per-pass state of one render pass.
 */
type RenderPassDescriptor struct {
	ColorAttachments     [1]RenderPassColorAttachment
	DepthAttachment      RenderPassDepthAttachment
	RasterizationRateMap RasterizationRateMap
	/** @brief Number of layers rendered when the output is a layered texture; 0 when unused. */
	RenderTargetArrayLength int
}

// Reset clears every field so the descriptor can be reused.
func (d *RenderPassDescriptor) Reset() {
	*d = RenderPassDescriptor{}
}
