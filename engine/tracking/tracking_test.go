package tracking

import (
	"errors"
	"testing"

	"github.com/spaghettifunk/anima-skybox/engine/core"
	"github.com/spaghettifunk/anima-skybox/engine/math"
)

type stubProvider struct {
	name    string
	fail    bool
	started bool
}

func (s *stubProvider) Name() string { return s.name }
func (s *stubProvider) Stop()        { s.started = false }
func (s *stubProvider) Start() error {
	if s.fail {
		return errors.New("denied")
	}
	s.started = true
	return nil
}

func TestSessionRunFailureStopsStartedProviders(t *testing.T) {
	ok := &stubProvider{name: "ok"}
	bad := &stubProvider{name: "bad", fail: true}

	err := NewSession().Run(ok, bad)
	if !errors.Is(err, core.ErrTrackingSession) {
		t.Fatalf("Run() = %v, want ErrTrackingSession", err)
	}
	if ok.started {
		t.Error("provider started before the failure should be stopped")
	}
}

func TestWorldTrackingPose(t *testing.T) {
	cfg := DefaultWorldTrackingConfig()
	cfg.ConvergenceSeconds = 1.0
	w := NewWorldTrackingProvider(cfg)

	if a := w.QueryDeviceAnchor(2.0); a != nil {
		t.Error("no pose expected before Start")
	}
	session := NewSession()
	if err := session.Run(w); err != nil {
		t.Fatal(err)
	}
	if a := w.QueryDeviceAnchor(0.5); a != nil {
		t.Error("no pose expected before convergence")
	}

	a := w.QueryDeviceAnchor(2.0)
	if a == nil {
		t.Fatal("pose expected after convergence")
	}
	if a.Timestamp != 2.0 {
		t.Errorf("Timestamp = %v", a.Timestamp)
	}
	// The head stays at head height whatever the yaw.
	origin := math.NewVec3(0, 0, 0).Transform(a.OriginFromAnchorTransform)
	if !origin.Compare(math.NewVec3(0, cfg.HeadHeight, 0), 1e-5) {
		t.Errorf("head position = %+v", origin)
	}

	session.Stop()
	if a := w.QueryDeviceAnchor(2.0); a != nil {
		t.Error("no pose expected after Stop")
	}
}

func TestWorldTrackingUnavailable(t *testing.T) {
	cfg := DefaultWorldTrackingConfig()
	cfg.Unavailable = true
	if err := NewSession().Run(NewWorldTrackingProvider(cfg)); err == nil {
		t.Error("expected start failure")
	}
}
