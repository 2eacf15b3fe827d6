package renderer

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/spaghettifunk/anima-skybox/engine/compositor"
	"github.com/spaghettifunk/anima-skybox/engine/core"
	"github.com/spaghettifunk/anima-skybox/engine/math"
	"github.com/spaghettifunk/anima-skybox/engine/renderer/headless"
	"github.com/spaghettifunk/anima-skybox/engine/renderer/metadata"
	"github.com/spaghettifunk/anima-skybox/engine/tracking"
)

type fakeClock struct {
	mu    sync.Mutex
	now   core.Instant
	waits []core.Instant
}

func (c *fakeClock) Now() core.Instant {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Wait(until core.Instant) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.waits = append(c.waits, until)
	if until > c.now {
		c.now = until
	}
}

type fakePoses struct {
	anchor     *tracking.DeviceAnchor
	timestamps []float64
}

func (p *fakePoses) QueryDeviceAnchor(timestamp float64) *tracking.DeviceAnchor {
	p.timestamps = append(p.timestamps, timestamp)
	return p.anchor
}

type recordingNotifier struct {
	mu     sync.Mutex
	states []core.ImmersiveSpaceState
}

func (n *recordingNotifier) PostImmersiveSpaceState(state core.ImmersiveSpaceState) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.states = append(n.states, state)
}

func (n *recordingNotifier) Posted() []core.ImmersiveSpaceState {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]core.ImmersiveSpaceState(nil), n.states...)
}

// fakeLayer replays a scripted sequence of layer states; the last state
// repeats once the script is exhausted.
type fakeLayer struct {
	t         *testing.T
	device    *headless.Device
	viewCount int
	layout    compositor.Layout
	rateMap   metadata.RasterizationRateMap

	mu     sync.Mutex
	script []compositor.LayerState
	color  metadata.Texture
	depth  metadata.Texture

	noFrame    bool
	noTiming   bool
	noDrawable bool

	frames    int
	waits     int
	drawables []*fakeDrawable
	presented atomic.Int32
}

func newFakeLayer(t *testing.T, device *headless.Device, viewCount int, states ...compositor.LayerState) *fakeLayer {
	l := &fakeLayer{
		t:         t,
		device:    device,
		viewCount: viewCount,
		layout:    compositor.LayoutLayered,
		script:    states,
	}
	l.resize(64, 32)
	return l
}

func (l *fakeLayer) resize(width, height int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	newTarget := func(format metadata.PixelFormat) metadata.Texture {
		tex, err := l.device.NewTexture(metadata.TextureDescriptor{
			PixelFormat: format,
			TextureType: metadata.TextureType2DArray,
			Width:       width,
			Height:      height,
			ArrayLength: l.viewCount,
			Usage:       metadata.TextureUsageRenderTarget,
			StorageMode: metadata.StorageModePrivate,
		})
		if err != nil {
			l.t.Fatal(err)
		}
		return tex
	}
	l.color = newTarget(metadata.PixelFormatBGRA8UnormSRGB)
	l.depth = newTarget(metadata.PixelFormatDepth32Float)
}

func (l *fakeLayer) setState(state compositor.LayerState) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.script = []compositor.LayerState{state}
}

func (l *fakeLayer) State() compositor.LayerState {
	l.mu.Lock()
	defer l.mu.Unlock()
	s := l.script[0]
	if len(l.script) > 1 {
		l.script = l.script[1:]
	}
	return s
}

func (l *fakeLayer) WaitUntilRunning() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.waits++
}

func (l *fakeLayer) QueryNextFrame() compositor.Frame {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.noFrame {
		return nil
	}
	l.frames++
	presentation := core.Instant(int64(l.frames) * int64(11_111_111))
	return &fakeFrame{
		layer: l,
		index: uint64(l.frames),
		timing: compositor.FrameTiming{
			OptimalInputTime: presentation - 5_000_000,
			PresentationTime: presentation,
		},
	}
}

func (l *fakeLayer) Device() metadata.Device { return l.device }

func (l *fakeLayer) Configuration() compositor.Configuration {
	return compositor.Configuration{
		ColorFormat: metadata.PixelFormatBGRA8UnormSRGB,
		DepthFormat: metadata.PixelFormatDepth32Float,
		Layout:      l.layout,
	}
}

func (l *fakeLayer) Properties() compositor.Properties {
	return compositor.Properties{ViewCount: l.viewCount}
}

func (l *fakeLayer) lastDrawable() *fakeDrawable {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.drawables) == 0 {
		return nil
	}
	return l.drawables[len(l.drawables)-1]
}

type fakeFrame struct {
	layer  *fakeLayer
	index  uint64
	timing compositor.FrameTiming
	calls  []string
}

func (f *fakeFrame) FrameIndex() uint64 { return f.index }
func (f *fakeFrame) StartUpdate()       { f.calls = append(f.calls, "StartUpdate") }
func (f *fakeFrame) EndUpdate()         { f.calls = append(f.calls, "EndUpdate") }
func (f *fakeFrame) StartSubmission()   { f.calls = append(f.calls, "StartSubmission") }
func (f *fakeFrame) EndSubmission()     { f.calls = append(f.calls, "EndSubmission") }

func (f *fakeFrame) PredictTiming() (compositor.FrameTiming, bool) {
	if f.layer.noTiming {
		return compositor.FrameTiming{}, false
	}
	return f.timing, true
}

func (f *fakeFrame) QueryDrawable() compositor.Drawable {
	l := f.layer
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.noDrawable {
		return nil
	}
	d := &fakeDrawable{layer: l, timing: f.timing, color: l.color, depth: l.depth}
	for i := 0; i < l.viewCount; i++ {
		x := float32(0)
		if l.viewCount == 2 {
			x = float32(i)*0.064 - 0.032
		}
		d.views = append(d.views, compositor.View{
			Transform: math.NewMat4Translation(math.NewVec3(x, 0, 0)),
			Viewport:  metadata.Viewport{Width: float64(l.color.Width()), Height: float64(l.color.Height()), ZFar: 1},
		})
	}
	l.drawables = append(l.drawables, d)
	return d
}

type fakeDrawable struct {
	layer        *fakeLayer
	timing       compositor.FrameTiming
	views        []compositor.View
	color, depth metadata.Texture
	anchor       *tracking.DeviceAnchor
	anchorSet    bool
}

func (d *fakeDrawable) Views() []compositor.View { return d.views }

func (d *fakeDrawable) ComputeProjection(viewIndex int) math.Mat4 {
	h := float32(1 + viewIndex)
	return math.NewMat4FrustumReverseZ(-h, h, -1, 1, 0.1)
}

func (d *fakeDrawable) ColorTextures() []metadata.Texture { return []metadata.Texture{d.color} }
func (d *fakeDrawable) DepthTextures() []metadata.Texture { return []metadata.Texture{d.depth} }

func (d *fakeDrawable) RasterizationRateMaps() []metadata.RasterizationRateMap {
	if d.layer.rateMap == nil {
		return nil
	}
	return []metadata.RasterizationRateMap{d.layer.rateMap}
}

func (d *fakeDrawable) FrameTiming() compositor.FrameTiming { return d.timing }

func (d *fakeDrawable) SetDeviceAnchor(anchor *tracking.DeviceAnchor) {
	d.anchor = anchor
	d.anchorSet = true
}

func (d *fakeDrawable) DeviceAnchor() *tracking.DeviceAnchor { return d.anchor }

func (d *fakeDrawable) EncodePresent(cb metadata.CommandBuffer) {
	layer := d.layer
	cb.AddCompletedHandler(func(metadata.CommandBuffer) { layer.presented.Add(1) })
}

type testRateMap struct{}

func (testRateMap) Label() string                   { return "rate-map" }
func (testRateMap) ScreenSize() (width, height int) { return 64, 32 }

type harness struct {
	device   *headless.Device
	layer    *fakeLayer
	clock    *fakeClock
	poses    *fakePoses
	notifier *recordingNotifier
	renderer *Renderer
}

func newHarness(t *testing.T, opts headless.Options, viewCount int, states ...compositor.LayerState) *harness {
	t.Helper()
	opts.ManualCompletion = true
	device, err := headless.NewDevice(opts)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { device.Shutdown() })

	if len(states) == 0 {
		states = []compositor.LayerState{compositor.LayerStateRunning}
	}
	h := &harness{
		device:   device,
		layer:    newFakeLayer(t, device, viewCount, states...),
		clock:    &fakeClock{},
		poses:    &fakePoses{},
		notifier: &recordingNotifier{},
	}
	return h
}

func (h *harness) build(t *testing.T, config Config) *Renderer {
	t.Helper()
	r, err := New(config, Dependencies{
		Layer:    h.layer,
		Poses:    h.poses,
		Clock:    h.clock,
		Notifier: h.notifier,
	})
	if err != nil {
		t.Fatal(err)
	}
	h.renderer = r
	return r
}

func (h *harness) frame(t *testing.T) {
	t.Helper()
	if err := h.renderer.frameScope(); err != nil {
		t.Fatal(err)
	}
}

func (h *harness) lastPass(t *testing.T) headless.Pass {
	t.Helper()
	subs := h.device.Submissions()
	if len(subs) == 0 {
		t.Fatal("nothing submitted")
	}
	last := subs[len(subs)-1]
	if len(last.Passes) != 1 {
		t.Fatalf("submission has %d passes, want 1", len(last.Passes))
	}
	return last.Passes[0]
}
