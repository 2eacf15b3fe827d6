package compositor

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/spaghettifunk/anima-skybox/engine/core"
	"github.com/spaghettifunk/anima-skybox/engine/math"
	"github.com/spaghettifunk/anima-skybox/engine/renderer/metadata"
	"github.com/spaghettifunk/anima-skybox/engine/tracking"
)

/** @brief Settings of the simulated compositor. */
type SimulatorConfig struct {
	/** @brief Per-view resolution in pixels. */
	Width  int    `toml:"width"`
	Height int    `toml:"height"`
	Stereo bool   `toml:"stereo"`
	Layout Layout `toml:"layout"`
	/** @brief Display refresh rate in Hz. */
	FrameRate int `toml:"frame_rate"`
	/** @brief Horizontal field of view of one eye, in degrees. */
	FieldOfView float32 `toml:"field_of_view"`
	/** @brief Distance between the eyes, in meters. */
	InterpupillaryDistance float32 `toml:"interpupillary_distance"`
	NearPlane              float32 `toml:"near_plane"`
	Foveation              bool    `toml:"foveation"`
	SwapchainLength        int     `toml:"swapchain_length"`
}

func DefaultSimulatorConfig() SimulatorConfig {
	return SimulatorConfig{
		Width:                  1920,
		Height:                 1824,
		Stereo:                 true,
		Layout:                 LayoutLayered,
		FrameRate:              90,
		FieldOfView:            100,
		InterpupillaryDistance: 0.064,
		NearPlane:              0.1,
		Foveation:              true,
		SwapchainLength:        3,
	}
}

func (c SimulatorConfig) Validate() error {
	if c.Width <= 0 || c.Height <= 0 {
		return fmt.Errorf("simulator resolution must be positive, got %dx%d", c.Width, c.Height)
	}
	if c.FrameRate <= 0 {
		return fmt.Errorf("simulator frame rate must be positive, got %d", c.FrameRate)
	}
	if c.FieldOfView <= 0 || c.FieldOfView >= 180 {
		return fmt.Errorf("simulator field of view must be in (0, 180), got %f", c.FieldOfView)
	}
	if c.NearPlane <= 0 {
		return fmt.Errorf("simulator near plane must be positive, got %f", c.NearPlane)
	}
	if c.SwapchainLength <= 0 {
		return fmt.Errorf("simulator swapchain length must be positive, got %d", c.SwapchainLength)
	}
	return nil
}

func (c SimulatorConfig) viewCount() int {
	if c.Stereo {
		return 2
	}
	return 1
}

type rateMap struct {
	label         string
	width, height int
}

func (r *rateMap) Label() string                   { return r.label }
func (r *rateMap) ScreenSize() (width, height int) { return r.width, r.height }

type swapchainImage struct {
	color    []metadata.Texture
	depth    []metadata.Texture
	rateMaps []metadata.RasterizationRateMap
	inUse    atomic.Bool
}

func (img *swapchainImage) release() {
	for _, t := range img.color {
		t.Release()
	}
	for _, t := range img.depth {
		t.Release()
	}
}

/**
 * @brief Simulator is a LayerRenderer that paces frames against a clock and
 * hands out drawables from a small swapchain allocated on the device.
 */
type Simulator struct {
	config SimulatorConfig
	device metadata.Device
	clock  core.Clock
	period time.Duration

	mu         sync.Mutex
	cond       *sync.Cond
	state      LayerState
	frameIndex uint64
	lastVsync  int64
	resize     *[2]int
	swapchain  []*swapchainImage
	next       int

	presented atomic.Uint64
}

func NewSimulator(device metadata.Device, clock core.Clock, config SimulatorConfig) (*Simulator, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	s := &Simulator{
		config: config,
		device: device,
		clock:  clock,
		period: time.Second / time.Duration(config.FrameRate),
		state:  LayerStatePaused,
	}
	s.cond = sync.NewCond(&s.mu)
	if err := s.createSwapchain(); err != nil {
		return nil, err
	}
	core.LogInfo("compositor simulator: %dx%d, %d view(s), %s layout, %d Hz",
		config.Width, config.Height, config.viewCount(), config.Layout, config.FrameRate)
	return s, nil
}

func (s *Simulator) createSwapchain() error {
	views := s.config.viewCount()
	width, height, arrayLength, count := s.config.Width, s.config.Height, 1, views
	textureType := metadata.TextureType2D
	switch s.config.Layout {
	case LayoutShared:
		width, count = width*views, 1
	case LayoutLayered:
		arrayLength, count = views, 1
		textureType = metadata.TextureType2DArray
	}

	images := make([]*swapchainImage, 0, s.config.SwapchainLength)
	for i := 0; i < s.config.SwapchainLength; i++ {
		img := &swapchainImage{}
		for j := 0; j < count; j++ {
			color, err := s.newTarget(metadata.PixelFormatBGRA8UnormSRGB, textureType, width, height, arrayLength)
			if err != nil {
				img.release()
				releaseAll(images)
				return err
			}
			img.color = append(img.color, color)
			depth, err := s.newTarget(metadata.PixelFormatDepth32Float, textureType, width, height, arrayLength)
			if err != nil {
				img.release()
				releaseAll(images)
				return err
			}
			img.depth = append(img.depth, depth)
			if s.config.Foveation {
				img.rateMaps = append(img.rateMaps, &rateMap{label: uuid.NewString(), width: width, height: height})
			}
		}
		images = append(images, img)
	}
	s.swapchain = images
	s.next = 0
	return nil
}

func releaseAll(images []*swapchainImage) {
	for _, img := range images {
		img.release()
	}
}

func (s *Simulator) newTarget(format metadata.PixelFormat, textureType metadata.TextureType, width, height, arrayLength int) (metadata.Texture, error) {
	t, err := s.device.NewTexture(metadata.TextureDescriptor{
		PixelFormat: format,
		TextureType: textureType,
		Width:       width,
		Height:      height,
		ArrayLength: arrayLength,
		SampleCount: 1,
		Usage:       metadata.TextureUsageRenderTarget | metadata.TextureUsageShaderRead,
		StorageMode: metadata.StorageModePrivate,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to allocate swapchain texture: %w", err)
	}
	t.SetLabel("swapchain-" + uuid.NewString())
	return t, nil
}

func (s *Simulator) State() LayerState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// SetState moves the layer to state and wakes goroutines blocked in
// WaitUntilRunning. Invalidated is terminal.
func (s *Simulator) SetState(state LayerState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == LayerStateInvalidated {
		return
	}
	if s.state != state {
		core.LogDebug("layer state %s -> %s", s.state, state)
	}
	s.state = state
	s.cond.Broadcast()
}

func (s *Simulator) Invalidate() {
	s.SetState(LayerStateInvalidated)
}

func (s *Simulator) WaitUntilRunning() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for s.state == LayerStatePaused {
		s.cond.Wait()
	}
}

// SetResolution changes the per-view resolution. The swapchain is rebuilt
// before the next frame is handed out.
func (s *Simulator) SetResolution(width, height int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resize = &[2]int{width, height}
}

func (s *Simulator) Device() metadata.Device { return s.device }

func (s *Simulator) Configuration() Configuration {
	return Configuration{
		ColorFormat:      metadata.PixelFormatBGRA8UnormSRGB,
		DepthFormat:      metadata.PixelFormatDepth32Float,
		Layout:           s.config.Layout,
		FoveationEnabled: s.config.Foveation,
	}
}

func (s *Simulator) Properties() Properties {
	return Properties{ViewCount: s.config.viewCount()}
}

// PresentedFrames returns the number of drawables whose presentation completed.
func (s *Simulator) PresentedFrames() uint64 {
	return s.presented.Load()
}

func (s *Simulator) QueryNextFrame() Frame {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != LayerStateRunning {
		return nil
	}
	if s.resize != nil {
		size := *s.resize
		s.resize = nil
		old := s.swapchain
		prevW, prevH := s.config.Width, s.config.Height
		s.config.Width, s.config.Height = size[0], size[1]
		if err := s.createSwapchain(); err != nil {
			core.LogError("swapchain resize to %dx%d failed: %s", size[0], size[1], err.Error())
			s.config.Width, s.config.Height = prevW, prevH
		} else {
			releaseAll(old)
			core.LogInfo("swapchain resized to %dx%d", size[0], size[1])
		}
	}

	now := s.clock.Now()
	vsync := int64(time.Duration(now)/s.period) + 2
	if vsync <= s.lastVsync {
		vsync = s.lastVsync + 1
	}
	s.lastVsync = vsync
	presentation := core.Instant(time.Duration(vsync) * s.period)
	s.frameIndex++

	return &frame{
		sim:   s,
		index: s.frameIndex,
		timing: FrameTiming{
			OptimalInputTime: presentation.Add(-s.period - s.period/2),
			PresentationTime: presentation,
		},
	}
}

// acquireImage hands out the next swapchain image that is not waiting for
// presentation, nil when all of them are.
func (s *Simulator) acquireImage() *swapchainImage {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := 0; i < len(s.swapchain); i++ {
		img := s.swapchain[(s.next+i)%len(s.swapchain)]
		if img.inUse.CompareAndSwap(false, true) {
			s.next = (s.next + i + 1) % len(s.swapchain)
			return img
		}
	}
	return nil
}

func (s *Simulator) views() []View {
	cfg := s.config
	n := cfg.viewCount()
	views := make([]View, n)
	for i := 0; i < n; i++ {
		offset := float32(0)
		if n == 2 {
			offset = (float32(i) - 0.5) * cfg.InterpupillaryDistance
		}
		x := 0.0
		if cfg.Layout == LayoutShared {
			x = float64(i * cfg.Width)
		}
		views[i] = View{
			Transform: math.NewMat4Translation(math.NewVec3(offset, 0, 0)),
			Viewport: metadata.Viewport{
				OriginX: x,
				Width:   float64(cfg.Width),
				Height:  float64(cfg.Height),
				ZNear:   0,
				ZFar:    1,
			},
		}
	}
	return views
}

// projection builds the off-axis frustum of one eye. The nasal half of each
// eye's field is narrower than the temporal half.
func (s *Simulator) projection(viewIndex int) math.Mat4 {
	cfg := s.config
	h := math.TanHalfAngle(math.DegToRad(cfg.FieldOfView))
	v := h * float32(cfg.Height) / float32(cfg.Width)
	left, right := -h, h
	if cfg.viewCount() == 2 {
		if viewIndex == 0 {
			right = h * 0.85
		} else {
			left = -h * 0.85
		}
	}
	return math.NewMat4FrustumReverseZ(left, right, -v, v, cfg.NearPlane)
}

// Destroy releases the swapchain. The layer is invalidated first.
func (s *Simulator) Destroy() {
	s.Invalidate()
	s.mu.Lock()
	defer s.mu.Unlock()
	releaseAll(s.swapchain)
	s.swapchain = nil
}

type framePhase int

const (
	phaseIdle framePhase = iota
	phaseUpdating
	phaseUpdated
	phaseSubmitting
	phaseDone
)

type frame struct {
	sim      *Simulator
	index    uint64
	timing   FrameTiming
	phase    framePhase
	drawable *drawable
}

func (f *frame) FrameIndex() uint64 { return f.index }

func (f *frame) expect(from framePhase, to framePhase, op string) {
	if f.phase != from {
		core.LogWarn("frame %d: %s called out of order", f.index, op)
	}
	f.phase = to
}

func (f *frame) StartUpdate() { f.expect(phaseIdle, phaseUpdating, "StartUpdate") }
func (f *frame) EndUpdate()   { f.expect(phaseUpdating, phaseUpdated, "EndUpdate") }

func (f *frame) PredictTiming() (FrameTiming, bool) {
	return f.timing, true
}

func (f *frame) QueryDrawable() Drawable {
	img := f.sim.acquireImage()
	if img == nil {
		return nil
	}
	f.drawable = &drawable{
		sim:    f.sim,
		image:  img,
		timing: f.timing,
		views:  f.sim.views(),
	}
	return f.drawable
}

func (f *frame) StartSubmission() { f.expect(phaseUpdated, phaseSubmitting, "StartSubmission") }

func (f *frame) EndSubmission() {
	f.expect(phaseSubmitting, phaseDone, "EndSubmission")
	// A drawable that was never presented goes straight back to the swapchain.
	if f.drawable != nil && !f.drawable.presentEncoded {
		f.drawable.image.inUse.Store(false)
	}
}

type drawable struct {
	sim            *Simulator
	image          *swapchainImage
	timing         FrameTiming
	views          []View
	anchor         *tracking.DeviceAnchor
	presentEncoded bool
}

func (d *drawable) Views() []View { return d.views }

func (d *drawable) ComputeProjection(viewIndex int) math.Mat4 {
	return d.sim.projection(viewIndex)
}

func (d *drawable) ColorTextures() []metadata.Texture { return d.image.color }
func (d *drawable) DepthTextures() []metadata.Texture { return d.image.depth }

func (d *drawable) RasterizationRateMaps() []metadata.RasterizationRateMap {
	return d.image.rateMaps
}

func (d *drawable) FrameTiming() FrameTiming { return d.timing }

func (d *drawable) SetDeviceAnchor(anchor *tracking.DeviceAnchor) { d.anchor = anchor }
func (d *drawable) DeviceAnchor() *tracking.DeviceAnchor          { return d.anchor }

func (d *drawable) EncodePresent(cb metadata.CommandBuffer) {
	d.presentEncoded = true
	img := d.image
	sim := d.sim
	cb.AddCompletedHandler(func(metadata.CommandBuffer) {
		img.inUse.Store(false)
		sim.presented.Add(1)
	})
}
