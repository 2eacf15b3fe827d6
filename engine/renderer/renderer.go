package renderer

import (
	"fmt"
	"sync"

	"github.com/spaghettifunk/anima-skybox/engine/compositor"
	"github.com/spaghettifunk/anima-skybox/engine/core"
	"github.com/spaghettifunk/anima-skybox/engine/renderer/metadata"
	"github.com/spaghettifunk/anima-skybox/engine/renderer/views"
	"github.com/spaghettifunk/anima-skybox/engine/tracking"
)

// Notifier receives the immersive space state changes of the render loop.
// Calls must not block the caller.
type Notifier interface {
	PostImmersiveSpaceState(state core.ImmersiveSpaceState)
}

// NotifierFunc adapts a function to a Notifier.
type NotifierFunc func(state core.ImmersiveSpaceState)

func (f NotifierFunc) PostImmersiveSpaceState(state core.ImmersiveSpaceState) { f(state) }

/** @brief Everything the renderer borrows from its host. */
type Dependencies struct {
	Layer    compositor.LayerRenderer
	Poses    tracking.PoseProvider
	Clock    core.Clock
	Notifier Notifier
	// SkyboxTexture is a cube map; nil renders the cube untextured.
	SkyboxTexture metadata.Texture
}

/**
 * @brief Renderer drives the frame loop of one layer: it paces frames,
 * rotates per-frame resources and submits the skybox draw.
 * It must be used from a single goroutine.
 */
type Renderer struct {
	config   Config
	layer    compositor.LayerRenderer
	poses    tracking.PoseProvider
	clock    core.Clock
	notifier Notifier

	device        metadata.Device
	queue         metadata.CommandQueue
	uniforms      *UniformRing
	targets       *TransientTargetCache
	inFlight      *InFlightLimiter
	pipeline      metadata.RenderPipelineState
	depthState    metadata.DepthStencilState
	vertices      metadata.Buffer
	skyboxTexture metadata.Texture
	skybox        *views.Skybox
	sampleCount   int

	passPool sync.Pool

	posted     bool
	lastPosted core.ImmersiveSpaceState

	metrics        *core.FrameMetrics
	lastFrameStart core.Instant
	frameStarted   bool
}

func New(config Config, deps Dependencies) (*Renderer, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if deps.Layer == nil || deps.Poses == nil || deps.Clock == nil || deps.Notifier == nil {
		return nil, fmt.Errorf("renderer requires a layer, a pose provider, a clock and a notifier")
	}

	device := deps.Layer.Device()
	r := &Renderer{
		config:        config,
		layer:         deps.Layer,
		poses:         deps.Poses,
		clock:         deps.Clock,
		notifier:      deps.Notifier,
		device:        device,
		skyboxTexture: deps.SkyboxTexture,
		skybox:        views.NewSkybox(),
		inFlight:      NewInFlightLimiter(config.MaxFramesInFlight),
		targets:       NewTransientTargetCache(device, config.MaxFramesInFlight),
		sampleCount:   selectSampleCount(device, config.SampleCountPreference),
		metrics:       core.NewFrameMetrics(),
	}
	r.passPool.New = func() any { return &metadata.RenderPassDescriptor{} }

	queue, err := device.NewCommandQueue()
	if err != nil {
		err = fmt.Errorf("%w: %w", core.ErrNoCommandQueue, err)
		core.LogError(err.Error())
		return nil, err
	}
	r.queue = queue

	if r.uniforms, err = NewUniformRing(device, config.MaxFramesInFlight, config.UniformAlignment); err != nil {
		return nil, err
	}

	if r.pipeline, err = buildRenderPipeline(device, deps.Layer, r.sampleCount); err != nil {
		core.LogError(err.Error())
		r.uniforms.Release()
		return nil, err
	}
	if r.depthState, err = buildDepthState(device); err != nil {
		core.LogError(err.Error())
		r.uniforms.Release()
		return nil, err
	}

	if r.vertices, err = device.NewBufferWithBytes(skyboxVertexBytes(), metadata.StorageModeShared); err != nil {
		err = fmt.Errorf("failed to upload skybox vertices: %w", err)
		core.LogError(err.Error())
		r.uniforms.Release()
		return nil, err
	}
	r.vertices.SetLabel("SkyboxVertices")

	if r.skyboxTexture == nil {
		core.LogWarn("no skybox texture, the sky will be drawn untextured")
	}
	core.LogInfo("renderer ready: device '%s', %d frames in flight, %dx msaa, %d view(s)",
		device.Name(), config.MaxFramesInFlight, r.sampleCount, deps.Layer.Properties().ViewCount)
	return r, nil
}

// SampleCount returns the raster sample count chosen for the device.
func (r *Renderer) SampleCount() int { return r.sampleCount }

// Metrics returns the frame statistics of the loop. Only read it from the
// render goroutine or after RenderLoop returned.
func (r *Renderer) Metrics() *core.FrameMetrics { return r.metrics }

/**
 * @brief Runs frames until the layer is invalidated.
 * @return nil on invalidation; a fatal error when the GPU refuses work.
 */
func (r *Renderer) RenderLoop() error {
	for {
		s := nextStep(r.layer.State())
		r.post(s.notify)

		switch s.action {
		case actionExit:
			core.LogInfo("layer is invalidated")
			return nil
		case actionWaitUntilRunning:
			r.layer.WaitUntilRunning()
		case actionRender:
			if err := r.frameScope(); err != nil {
				core.LogError(err.Error())
				return err
			}
		}
	}
}

func (r *Renderer) post(state core.ImmersiveSpaceState) {
	if r.posted && r.lastPosted == state {
		return
	}
	r.posted = true
	r.lastPosted = state
	r.notifier.PostImmersiveSpaceState(state)
}

// frameScope bounds the lifetime of per-frame scratch objects to one
// iteration.
func (r *Renderer) frameScope() error {
	desc := r.passPool.Get().(*metadata.RenderPassDescriptor)
	defer func() {
		desc.Reset()
		r.passPool.Put(desc)
	}()
	return r.renderFrame(desc)
}

func (r *Renderer) renderFrame(desc *metadata.RenderPassDescriptor) error {
	frame := r.layer.QueryNextFrame()
	if frame == nil {
		return nil
	}

	frame.StartUpdate()
	frame.EndUpdate()

	timing, ok := frame.PredictTiming()
	if !ok {
		return nil
	}
	r.clock.Wait(timing.OptimalInputTime)

	cb, err := r.queue.NewCommandBuffer()
	if err != nil {
		return fmt.Errorf("%w: %w", core.ErrNoCommandBuffer, err)
	}
	cb.SetLabel(fmt.Sprintf("Frame %d", frame.FrameIndex()))

	drawable := frame.QueryDrawable()
	if drawable == nil {
		return nil
	}

	r.inFlight.Acquire()

	frame.StartSubmission()

	anchor := r.poses.QueryDeviceAnchor(drawable.FrameTiming().PresentationTime.Seconds())
	drawable.SetDeviceAnchor(anchor)

	limiter := r.inFlight
	cb.AddCompletedHandler(func(metadata.CommandBuffer) {
		limiter.Release()
	})

	slot, uniformOffset := r.uniforms.Advance()
	r.uniforms.Write(uniformOffset, r.skybox.Uniforms(drawable, anchor))

	if err := r.buildRenderPass(desc, slot, drawable); err != nil {
		limiter.Release()
		return err
	}

	encoder, err := cb.NewRenderCommandEncoder(desc)
	if err != nil {
		limiter.Release()
		return fmt.Errorf("%w: %w", core.ErrNoRenderEncoder, err)
	}
	r.encodeSkybox(encoder, drawable, uniformOffset)
	encoder.EndEncoding()

	drawable.EncodePresent(cb)
	cb.Commit()

	frame.EndSubmission()

	r.recordFrame()
	return nil
}

func (r *Renderer) buildRenderPass(desc *metadata.RenderPassDescriptor, slot int, drawable compositor.Drawable) error {
	color := &desc.ColorAttachments[0]
	depth := &desc.DepthAttachment
	resolveColor := drawable.ColorTextures()[0]
	resolveDepth := drawable.DepthTextures()[0]

	if r.sampleCount > 1 {
		targets, err := r.targets.GetOrCreate(slot, resolveColor, resolveDepth, r.sampleCount)
		if err != nil {
			return err
		}
		color.Texture = targets.Color
		color.ResolveTexture = resolveColor
		color.StoreAction = metadata.StoreActionMultisampleResolve
		depth.Texture = targets.Depth
		depth.ResolveTexture = resolveDepth
		depth.StoreAction = metadata.StoreActionMultisampleResolve
	} else {
		color.Texture = resolveColor
		color.StoreAction = metadata.StoreActionStore
		depth.Texture = resolveDepth
		depth.StoreAction = metadata.StoreActionStore
	}

	color.LoadAction = metadata.LoadActionClear
	color.ClearColor = metadata.ClearColor{Red: 0, Green: 0, Blue: 0, Alpha: 0}
	depth.LoadAction = metadata.LoadActionClear
	depth.ClearDepth = 0.0

	if maps := drawable.RasterizationRateMaps(); len(maps) > 0 {
		desc.RasterizationRateMap = maps[0]
	}
	if r.layer.Configuration().Layout == compositor.LayoutLayered {
		desc.RenderTargetArrayLength = len(drawable.Views())
	}
	return nil
}

func (r *Renderer) recordFrame() {
	now := r.clock.Now()
	if r.frameStarted {
		elapsed := (now - r.lastFrameStart).Seconds()
		if r.metrics.Update(elapsed) {
			core.LogDebug("%.0f fps, %.2f ms/frame, %d frames", r.metrics.FPS(), r.metrics.FrameTime(), r.metrics.TotalFrames())
		}
	}
	r.lastFrameStart = now
	r.frameStarted = true
}

// Destroy releases the resources the renderer owns. Call it after
// RenderLoop returned and the GPU finished the outstanding frames.
func (r *Renderer) Destroy() {
	r.targets.Release()
	r.uniforms.Release()
	r.vertices.Release()
}
