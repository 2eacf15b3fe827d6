package tracking

import (
	"fmt"
	"sync"

	"github.com/spaghettifunk/anima-skybox/engine/core"
	"github.com/spaghettifunk/anima-skybox/engine/math"
)

/**
 * @brief The estimated pose of the headset at a point in time.
 */
type DeviceAnchor struct {
	/** @brief Transform from the anchor space to the world origin. */
	OriginFromAnchorTransform math.Mat4
	/** @brief The compositor time, in seconds, the pose was predicted for. */
	Timestamp float64
}

// PoseProvider predicts where the device will be at a given timestamp. It
// returns nil while tracking is unavailable.
type PoseProvider interface {
	QueryDeviceAnchor(timestamp float64) *DeviceAnchor
}

// DataProvider is a tracking source a Session can run.
type DataProvider interface {
	Name() string
	Start() error
	Stop()
}

/** @brief Runs a set of tracking data providers. */
type Session struct {
	mu        sync.Mutex
	providers []DataProvider
}

func NewSession() *Session {
	return &Session{}
}

// Run starts every provider, in order. When one fails the ones already
// started are stopped again and the error is returned.
func (s *Session) Run(providers ...DataProvider) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, p := range providers {
		if err := p.Start(); err != nil {
			for j := i - 1; j >= 0; j-- {
				providers[j].Stop()
			}
			err = fmt.Errorf("%w: provider '%s': %w", core.ErrTrackingSession, p.Name(), err)
			core.LogError(err.Error())
			return err
		}
		core.LogInfo("tracking provider '%s' running", p.Name())
	}
	s.providers = append(s.providers, providers...)
	return nil
}

// Stop stops every running provider in reverse start order.
func (s *Session) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := len(s.providers) - 1; i >= 0; i-- {
		s.providers[i].Stop()
	}
	s.providers = nil
}
