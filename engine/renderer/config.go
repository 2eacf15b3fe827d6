package renderer

import (
	"fmt"

	"github.com/spaghettifunk/anima-skybox/engine/math"
)

/** @brief Tunables of the frame pipeline. */
type Config struct {
	/** @brief Backend creating the GPU device; see BackendType. */
	Backend BackendType `toml:"backend"`
	/** @brief Upper bound of frames submitted to the GPU and not yet completed. */
	MaxFramesInFlight int `toml:"max_frames_in_flight"`
	/** @brief Alignment of every uniform slot, in bytes. Must be a power of two. */
	UniformAlignment int `toml:"uniform_alignment"`
	/** @brief Preferred multisample count; falls back to 1 when unsupported. */
	SampleCountPreference int `toml:"sample_count_preference"`
}

func DefaultConfig() Config {
	return Config{
		Backend:               BackendHeadless,
		MaxFramesInFlight:     3,
		UniformAlignment:      256,
		SampleCountPreference: 4,
	}
}

func (c Config) Validate() error {
	if c.MaxFramesInFlight < 1 {
		return fmt.Errorf("max_frames_in_flight must be at least 1, got %d", c.MaxFramesInFlight)
	}
	if !math.IsPowerOfTwo(c.UniformAlignment) {
		return fmt.Errorf("uniform_alignment must be a power of two, got %d", c.UniformAlignment)
	}
	if c.SampleCountPreference < 1 {
		return fmt.Errorf("sample_count_preference must be at least 1, got %d", c.SampleCountPreference)
	}
	return nil
}
