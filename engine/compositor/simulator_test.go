package compositor

import (
	"testing"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/spaghettifunk/anima-skybox/engine/core"
	"github.com/spaghettifunk/anima-skybox/engine/renderer/headless"
	"github.com/spaghettifunk/anima-skybox/engine/renderer/metadata"
)

type manualClock struct {
	now core.Instant
}

func (c *manualClock) Now() core.Instant { return c.now }
func (c *manualClock) Wait(until core.Instant) {
	if until > c.now {
		c.now = until
	}
}

func newSimulator(t *testing.T, cfg SimulatorConfig) (*Simulator, *headless.Device) {
	t.Helper()
	opts := headless.DefaultOptions()
	opts.ManualCompletion = true
	device, err := headless.NewDevice(opts)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { device.Shutdown() })
	sim, err := NewSimulator(device, &manualClock{}, cfg)
	if err != nil {
		t.Fatal(err)
	}
	return sim, device
}

func TestSimulatorNoFrameUnlessRunning(t *testing.T) {
	sim, _ := newSimulator(t, DefaultSimulatorConfig())
	if sim.QueryNextFrame() != nil {
		t.Error("a paused layer must not produce frames")
	}
	sim.SetState(LayerStateRunning)
	if sim.QueryNextFrame() == nil {
		t.Error("a running layer should produce a frame")
	}
	sim.Invalidate()
	sim.SetState(LayerStateRunning)
	if sim.State() != LayerStateInvalidated {
		t.Error("invalidated must be terminal")
	}
}

func TestSimulatorWaitUntilRunning(t *testing.T) {
	sim, _ := newSimulator(t, DefaultSimulatorConfig())
	done := make(chan struct{})
	go func() {
		sim.WaitUntilRunning()
		close(done)
	}()
	select {
	case <-done:
		t.Fatal("WaitUntilRunning returned while paused")
	case <-time.After(20 * time.Millisecond):
	}
	sim.SetState(LayerStateRunning)
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("WaitUntilRunning did not return after resume")
	}
}

func TestSimulatorFramePacing(t *testing.T) {
	cfg := DefaultSimulatorConfig()
	cfg.FrameRate = 100
	sim, _ := newSimulator(t, cfg)
	sim.SetState(LayerStateRunning)

	var last core.Instant
	for i := 0; i < 4; i++ {
		f := sim.QueryNextFrame()
		timing, ok := f.PredictTiming()
		if !ok {
			t.Fatal("no timing")
		}
		if timing.OptimalInputTime >= timing.PresentationTime {
			t.Errorf("optimal input %v not before presentation %v", timing.OptimalInputTime, timing.PresentationTime)
		}
		if i > 0 && time.Duration(timing.PresentationTime-last) != 10*time.Millisecond {
			t.Errorf("frame %d presented %v after previous", i, time.Duration(timing.PresentationTime-last))
		}
		last = timing.PresentationTime
	}
}

func TestSimulatorLayouts(t *testing.T) {
	tests := []struct {
		layout       Layout
		textures     int
		arrayLength  int
		textureWidth int
		secondX      float64
	}{
		{LayoutDedicated, 2, 1, 64, 0},
		{LayoutShared, 1, 1, 128, 64},
		{LayoutLayered, 1, 2, 64, 0},
	}
	for _, tt := range tests {
		t.Run(tt.layout.String(), func(t *testing.T) {
			cfg := DefaultSimulatorConfig()
			cfg.Width, cfg.Height, cfg.Layout = 64, 32, tt.layout
			sim, _ := newSimulator(t, cfg)
			sim.SetState(LayerStateRunning)

			d := sim.QueryNextFrame().QueryDrawable()
			if got := len(d.ColorTextures()); got != tt.textures {
				t.Fatalf("color textures = %d, want %d", got, tt.textures)
			}
			color := d.ColorTextures()[0]
			if color.ArrayLength() != tt.arrayLength || color.Width() != tt.textureWidth {
				t.Errorf("color texture %dx%d[%d]", color.Width(), color.Height(), color.ArrayLength())
			}
			if len(d.DepthTextures()) != tt.textures {
				t.Error("depth textures must match color textures")
			}
			if got := d.Views()[1].Viewport.OriginX; got != tt.secondX {
				t.Errorf("second viewport x = %v, want %v", got, tt.secondX)
			}
		})
	}
}

func TestSimulatorStereoProjectionsDiffer(t *testing.T) {
	sim, _ := newSimulator(t, DefaultSimulatorConfig())
	sim.SetState(LayerStateRunning)
	d := sim.QueryNextFrame().QueryDrawable()
	if d.ComputeProjection(0) == d.ComputeProjection(1) {
		t.Error("left and right eye projections should differ")
	}
	if d.Views()[0].Transform == d.Views()[1].Transform {
		t.Error("eye transforms should differ")
	}
}

func TestSimulatorSwapchainExhaustionAndPresent(t *testing.T) {
	cfg := DefaultSimulatorConfig()
	cfg.Width, cfg.Height, cfg.SwapchainLength = 16, 16, 1
	sim, device := newSimulator(t, cfg)
	sim.SetState(LayerStateRunning)
	queue, _ := device.NewCommandQueue()

	f := sim.QueryNextFrame()
	f.StartUpdate()
	f.EndUpdate()
	d := f.QueryDrawable()
	if d == nil {
		t.Fatal("expected a drawable")
	}
	f.StartSubmission()
	cb, _ := queue.NewCommandBuffer()
	d.EncodePresent(cb)
	cb.Commit()
	f.EndSubmission()

	if sim.QueryNextFrame().QueryDrawable() != nil {
		t.Error("the only image is waiting for presentation")
	}
	device.CompleteNext()
	if sim.PresentedFrames() != 1 {
		t.Errorf("PresentedFrames() = %d", sim.PresentedFrames())
	}
	if sim.QueryNextFrame().QueryDrawable() == nil {
		t.Error("image should be available after presentation")
	}
}

func TestSimulatorResize(t *testing.T) {
	cfg := DefaultSimulatorConfig()
	cfg.Width, cfg.Height = 32, 32
	sim, device := newSimulator(t, cfg)
	sim.SetState(LayerStateRunning)
	before := device.Stats().Textures

	sim.SetResolution(48, 24)
	d := sim.QueryNextFrame().QueryDrawable()
	if c := d.ColorTextures()[0]; c.Width() != 48 || c.Height() != 24 {
		t.Errorf("color texture is %dx%d after resize", c.Width(), c.Height())
	}
	if got := device.Stats().Textures; got != before {
		t.Errorf("live textures = %d after resize, want %d", got, before)
	}
	sim.Destroy()
	if got := device.Stats().Textures; got != 0 {
		t.Errorf("live textures = %d after Destroy", got)
	}
}

func TestSimulatorConfigFromTOML(t *testing.T) {
	cfg := DefaultSimulatorConfig()
	doc := []byte("width = 800\nheight = 600\nstereo = false\nlayout = \"shared\"\n")
	if err := toml.Unmarshal(doc, &cfg); err != nil {
		t.Fatal(err)
	}
	if cfg.Width != 800 || cfg.Stereo || cfg.Layout != LayoutShared {
		t.Errorf("decoded %+v", cfg)
	}
	if cfg.FrameRate != 90 {
		t.Error("fields absent from the document keep their defaults")
	}
	if err := cfg.Validate(); err != nil {
		t.Error(err)
	}
	var bad Layout
	if err := bad.UnmarshalText([]byte("diagonal")); err == nil {
		t.Error("unknown layout should be rejected")
	}
}

var _ metadata.RasterizationRateMap = (*rateMap)(nil)
