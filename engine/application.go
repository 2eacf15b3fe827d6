package engine

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"

	"github.com/spaghettifunk/anima-skybox/engine/compositor"
	"github.com/spaghettifunk/anima-skybox/engine/core"
	"github.com/spaghettifunk/anima-skybox/engine/renderer"
	"github.com/spaghettifunk/anima-skybox/engine/tracking"
)

type ApplicationConfig struct {
	// The application name used in logs and device labels.
	Name string `toml:"name"`
	// One of debug, info, warn, error.
	LogLevel string `toml:"log_level"`
	// Directory indexed by the asset manager. Relative paths are resolved
	// against the working directory.
	AssetsDir string `toml:"assets_dir"`
	// Name of the cube map asset, without extension.
	Skybox string `toml:"skybox"`
	// Edge length of every cube map face after resampling.
	SkyboxFaceSize int `toml:"skybox_face_size"`

	Renderer  renderer.Config              `toml:"renderer"`
	Simulator compositor.SimulatorConfig   `toml:"simulator"`
	Tracking  tracking.WorldTrackingConfig `toml:"tracking"`
}

func DefaultApplicationConfig() *ApplicationConfig {
	return &ApplicationConfig{
		Name:           "Anima Skybox",
		LogLevel:       "info",
		AssetsDir:      "assets",
		Skybox:         "skybox",
		SkyboxFaceSize: 512,
		Renderer:       renderer.DefaultConfig(),
		Simulator:      compositor.DefaultSimulatorConfig(),
		Tracking:       tracking.DefaultWorldTrackingConfig(),
	}
}

// LoadApplicationConfig reads a TOML file on top of the defaults. Keys missing
// from the file keep their default value.
func LoadApplicationConfig(path string) (*ApplicationConfig, error) {
	config := DefaultApplicationConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config '%s': %w", path, err)
	}
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config '%s': %w", path, err)
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config '%s': %w", path, err)
	}
	return config, nil
}

func (c *ApplicationConfig) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("name must not be empty")
	}
	if c.SkyboxFaceSize <= 0 {
		return fmt.Errorf("skybox_face_size must be positive, got %d", c.SkyboxFaceSize)
	}
	if err := c.Renderer.Validate(); err != nil {
		return fmt.Errorf("renderer: %w", err)
	}
	if err := c.Simulator.Validate(); err != nil {
		return fmt.Errorf("simulator: %w", err)
	}
	return nil
}

func (c *ApplicationConfig) Level() core.LogLevel {
	return core.ParseLogLevel(c.LogLevel)
}
