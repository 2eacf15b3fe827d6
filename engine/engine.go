package engine

import (
	"fmt"
	"runtime"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/spaghettifunk/anima-skybox/engine/assets"
	"github.com/spaghettifunk/anima-skybox/engine/assets/loaders"
	"github.com/spaghettifunk/anima-skybox/engine/compositor"
	"github.com/spaghettifunk/anima-skybox/engine/core"
	"github.com/spaghettifunk/anima-skybox/engine/renderer"
	"github.com/spaghettifunk/anima-skybox/engine/renderer/headless"
	"github.com/spaghettifunk/anima-skybox/engine/renderer/metadata"
	"github.com/spaghettifunk/anima-skybox/engine/tracking"
)

type Stage uint8

const (
	// Engine is in an uninitialized state
	EngineStageUninitialized Stage = iota
	// Engine is currently initializing
	EngineStageInitializing
	// Engine initialization is complete
	EngineStageInitialized
	// Engine is currently running
	EngineStageRunning
	// Engine is in the process of shutting down
	EngineStageShuttingDown
)

const skyboxShaderName = "skybox"

type Engine struct {
	currentStage Stage
	config       *ApplicationConfig
	events       *core.EventBus
	model        *AppModel
	clock        *core.MonotonicClock
	assetManager *assets.AssetManager

	device        metadata.Device
	layer         *compositor.Simulator
	session       *tracking.Session
	world         *tracking.WorldTrackingProvider
	skyboxTexture metadata.Texture
	renderer      *renderer.Renderer
}

func New(config *ApplicationConfig) (*Engine, error) {
	if err := config.Validate(); err != nil {
		core.LogError(err.Error())
		return nil, err
	}
	core.SetLogLevel(config.Level())

	am, err := assets.NewAssetManager()
	if err != nil {
		core.LogError(err.Error())
		return nil, err
	}

	return &Engine{
		currentStage: EngineStageUninitialized,
		config:       config,
		events:       core.NewEventBus(64),
		model:        NewAppModel(),
		clock:        core.NewClock(),
		assetManager: am,
		session:      tracking.NewSession(),
		world:        tracking.NewWorldTrackingProvider(config.Tracking),
	}, nil
}

func (e *Engine) Model() *AppModel { return e.model }

func (e *Engine) Layer() *compositor.Simulator { return e.layer }

// Renderer is set once Run created it, nil before.
func (e *Engine) Renderer() *renderer.Renderer { return e.renderer }

func (e *Engine) Initialize() error {
	e.currentStage = EngineStageInitializing

	e.events.Register(core.EVENT_CODE_IMMERSIVE_SPACE_STATE, e.model.onEvent)
	e.events.Register(core.EVENT_CODE_APPLICATION_QUIT, e.onEvent)

	if err := e.assetManager.Initialize(e.config.AssetsDir); err != nil {
		return err
	}
	e.assetManager.OnChange(e.onAssetChanged)

	opts := headless.DefaultOptions()
	opts.Name = e.config.Name
	if fns := e.shaderFunctions(); len(fns) > 0 {
		opts.Functions = fns
	}
	device, err := renderer.NewDevice(e.config.Renderer.Backend, opts)
	if err != nil {
		core.LogError(err.Error())
		return err
	}
	e.device = device

	layer, err := compositor.NewSimulator(device, e.clock, e.config.Simulator)
	if err != nil {
		core.LogError(err.Error())
		return err
	}
	e.layer = layer

	e.skyboxTexture = e.loadSkybox()

	e.post(core.ImmersiveSpaceOpening)
	e.currentStage = EngineStageInitialized
	return nil
}

// shaderFunctions lists the entry points of the skybox shader asset, if any.
func (e *Engine) shaderFunctions() []string {
	res, err := e.assetManager.LoadAsset(skyboxShaderName, loaders.ResourceTypeShader)
	if err != nil {
		core.LogWarn("skybox shader not found, using the built-in library: %s", err.Error())
		return nil
	}
	return res.Data.(*loaders.ShaderSource).Functions
}

// loadSkybox uploads the configured cube map. A missing or broken asset falls
// back to a generated gradient; a failed upload leaves the sky untextured.
func (e *Engine) loadSkybox() metadata.Texture {
	size := e.config.SkyboxFaceSize
	cube, err := e.assetManager.LoadCubeMap(e.config.Skybox, size)
	if err != nil {
		core.LogWarn("unable to load skybox '%s', using a gradient: %s", e.config.Skybox, err.Error())
		cube = assets.GenerateGradientCubeMap(size)
	}
	texture, err := cube.Upload(e.device, "Skybox")
	if err != nil {
		core.LogWarn(err.Error())
		return nil
	}
	return texture
}

func (e *Engine) onAssetChanged(info assets.AssetInfo, op fsnotify.Op) {
	if info.Type == loaders.ResourceTypeImage && strings.HasPrefix(info.Name, e.config.Skybox) {
		core.LogInfo("skybox asset '%s' changed (%s), restart to apply", info.Name, op)
	}
}

/**
 * @brief Runs the render loop on a dedicated OS thread and pumps events on
 * the calling goroutine until the layer is invalidated.
 * @return the fatal error that stopped the loop, nil on invalidation.
 */
func (e *Engine) Run() error {
	if e.currentStage != EngineStageInitialized {
		return fmt.Errorf("engine must be initialized before running")
	}
	e.currentStage = EngineStageRunning

	done := make(chan error, 1)
	go func() {
		runtime.LockOSThread()
		defer runtime.UnlockOSThread()

		err := e.renderThread()
		// Events posted by the loop are queued before this, so they are
		// still dispatched.
		e.events.Shutdown()
		done <- err
	}()

	e.events.Process()
	return <-done
}

func (e *Engine) renderThread() error {
	if err := e.session.Run(e.world); err != nil {
		core.LogError(err.Error())
		return err
	}
	defer e.session.Stop()

	r, err := renderer.New(e.config.Renderer, renderer.Dependencies{
		Layer:         e.layer,
		Poses:         e.world,
		Clock:         e.clock,
		Notifier:      renderer.NotifierFunc(e.post),
		SkyboxTexture: e.skyboxTexture,
	})
	if err != nil {
		return err
	}
	e.renderer = r

	// The compositor shows the layer once the space finished opening.
	e.layer.SetState(compositor.LayerStateRunning)
	return r.RenderLoop()
}

func (e *Engine) post(state core.ImmersiveSpaceState) {
	e.events.Fire(core.EventContext{
		Type: core.EVENT_CODE_IMMERSIVE_SPACE_STATE,
		Data: state,
	})
}

// Quit asks the event pump to stop the engine. Safe from any goroutine,
// including signal handlers.
func (e *Engine) Quit() {
	e.events.Fire(core.EventContext{Type: core.EVENT_CODE_APPLICATION_QUIT})
}

// Stop invalidates the layer; Run returns once the loop noticed.
func (e *Engine) Stop() {
	if e.layer != nil {
		e.layer.Invalidate()
	}
}

// Pause and Resume simulate the compositor hiding and showing the layer.
func (e *Engine) Pause() {
	if e.layer != nil {
		e.layer.SetState(compositor.LayerStatePaused)
	}
}

func (e *Engine) Resume() {
	if e.layer != nil {
		e.layer.SetState(compositor.LayerStateRunning)
	}
}

func (e *Engine) Shutdown() error {
	e.currentStage = EngineStageShuttingDown
	e.Stop()

	// Completion handlers of outstanding frames must run before the
	// resources they reference are released.
	if d, ok := e.device.(interface{ Shutdown() error }); ok {
		if err := d.Shutdown(); err != nil {
			return err
		}
	}
	if e.renderer != nil {
		if m := e.renderer.Metrics(); m.TotalFrames() > 0 {
			core.LogInfo("rendered %d frames in %s, %.0f fps", m.TotalFrames(), e.clock.Elapsed().Round(time.Millisecond), m.FPS())
		}
		e.renderer.Destroy()
	}
	if e.skyboxTexture != nil {
		e.skyboxTexture.Release()
	}
	if e.layer != nil {
		e.layer.Destroy()
	}
	if err := e.events.Shutdown(); err != nil {
		return err
	}
	return e.assetManager.Shutdown()
}

func (e *Engine) onEvent(context core.EventContext) {
	switch context.Type {
	case core.EVENT_CODE_APPLICATION_QUIT:
		core.LogInfo("EVENT_CODE_APPLICATION_QUIT received, shutting down.")
		e.Stop()
	}
}
