package tracking

import (
	"fmt"
	"sync/atomic"

	"github.com/spaghettifunk/anima-skybox/engine/math"
)

/** @brief Configuration of the simulated world tracking provider. */
type WorldTrackingConfig struct {
	/** @brief Seconds after which tracking converges and poses become available. */
	ConvergenceSeconds float64 `toml:"convergence_seconds"`
	/** @brief Height of the head above the floor, in meters. */
	HeadHeight float32 `toml:"head_height"`
	/** @brief Yaw rate of the simulated head, in degrees per second. */
	YawDegreesPerSecond float32 `toml:"yaw_degrees_per_second"`
	/** @brief Makes Start fail; used to exercise session start failures. */
	Unavailable bool `toml:"unavailable"`
}

func DefaultWorldTrackingConfig() WorldTrackingConfig {
	return WorldTrackingConfig{
		ConvergenceSeconds:  0.0,
		HeadHeight:          1.6,
		YawDegreesPerSecond: 10.0,
	}
}

/**
 * @brief WorldTrackingProvider simulates a head slowly turning in place.
 * Poses are a pure function of the timestamp, so any timestamp can be
 * queried, including ones in the future.
 */
type WorldTrackingProvider struct {
	config  WorldTrackingConfig
	running atomic.Bool
}

func NewWorldTrackingProvider(config WorldTrackingConfig) *WorldTrackingProvider {
	return &WorldTrackingProvider{config: config}
}

func (w *WorldTrackingProvider) Name() string { return "world-tracking" }

func (w *WorldTrackingProvider) Start() error {
	if w.config.Unavailable {
		return fmt.Errorf("world tracking is not supported on this device")
	}
	w.running.Store(true)
	return nil
}

func (w *WorldTrackingProvider) Stop() {
	w.running.Store(false)
}

func (w *WorldTrackingProvider) QueryDeviceAnchor(timestamp float64) *DeviceAnchor {
	if !w.running.Load() || timestamp < w.config.ConvergenceSeconds {
		return nil
	}
	yaw := math.DegToRad(w.config.YawDegreesPerSecond * float32(timestamp))
	rotation := math.NewMat4EulerY(yaw)
	translation := math.NewMat4Translation(math.NewVec3(0, w.config.HeadHeight, 0))
	return &DeviceAnchor{
		OriginFromAnchorTransform: rotation.Mul(translation),
		Timestamp:                 timestamp,
	}
}
