package compositor

import (
	"fmt"
	"strings"

	"github.com/spaghettifunk/anima-skybox/engine/core"
	"github.com/spaghettifunk/anima-skybox/engine/math"
	"github.com/spaghettifunk/anima-skybox/engine/renderer/metadata"
	"github.com/spaghettifunk/anima-skybox/engine/tracking"
)

/** @brief The lifecycle state of a layer renderer. */
type LayerState int

const (
	LayerStatePaused LayerState = iota
	LayerStateRunning
	LayerStateInvalidated
)

func (s LayerState) String() string {
	switch s {
	case LayerStatePaused:
		return "paused"
	case LayerStateRunning:
		return "running"
	case LayerStateInvalidated:
		return "invalidated"
	}
	return fmt.Sprintf("LayerState(%d)", int(s))
}

/** @brief How the views of a drawable map onto its textures. */
type Layout int

const (
	/** @brief One texture per view. */
	LayoutDedicated Layout = iota
	/** @brief All views side by side in one texture. */
	LayoutShared
	/** @brief One texture array with a slice per view. */
	LayoutLayered
)

func (l Layout) String() string {
	switch l {
	case LayoutDedicated:
		return "dedicated"
	case LayoutShared:
		return "shared"
	case LayoutLayered:
		return "layered"
	}
	return fmt.Sprintf("Layout(%d)", int(l))
}

func (l Layout) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

func (l *Layout) UnmarshalText(text []byte) error {
	switch strings.ToLower(string(text)) {
	case "dedicated":
		*l = LayoutDedicated
	case "shared":
		*l = LayoutShared
	case "layered":
		*l = LayoutLayered
	default:
		return fmt.Errorf("unknown layout '%s'", text)
	}
	return nil
}

type Configuration struct {
	ColorFormat      metadata.PixelFormat
	DepthFormat      metadata.PixelFormat
	Layout           Layout
	FoveationEnabled bool
}

type Properties struct {
	/** @brief Number of views every drawable of the layer carries (1 or 2). */
	ViewCount int
}

/** @brief One eye of a drawable. */
type View struct {
	/** @brief Eye pose relative to the device anchor. */
	Transform math.Mat4
	Viewport  metadata.Viewport
}

type FrameTiming struct {
	/** @brief The latest instant at which input should be sampled for this frame. */
	OptimalInputTime core.Instant
	/** @brief The instant the frame is expected to reach the display. */
	PresentationTime core.Instant
}

/**
 * @brief LayerRenderer is the compositor surface the renderer draws into.
 */
type LayerRenderer interface {
	State() LayerState
	// WaitUntilRunning blocks until the state leaves LayerStatePaused.
	WaitUntilRunning()
	// QueryNextFrame returns nil when no frame is available yet.
	QueryNextFrame() Frame
	Device() metadata.Device
	Configuration() Configuration
	Properties() Properties
}

type Frame interface {
	FrameIndex() uint64
	StartUpdate()
	EndUpdate()
	// PredictTiming reports false when no prediction is available.
	PredictTiming() (FrameTiming, bool)
	// QueryDrawable returns nil when no drawable is available.
	QueryDrawable() Drawable
	StartSubmission()
	EndSubmission()
}

type Drawable interface {
	Views() []View
	ComputeProjection(viewIndex int) math.Mat4
	ColorTextures() []metadata.Texture
	DepthTextures() []metadata.Texture
	RasterizationRateMaps() []metadata.RasterizationRateMap
	FrameTiming() FrameTiming
	// SetDeviceAnchor records the pose the frame was rendered with; nil is allowed.
	SetDeviceAnchor(anchor *tracking.DeviceAnchor)
	DeviceAnchor() *tracking.DeviceAnchor
	// EncodePresent schedules presentation once cb completes.
	EncodePresent(cb metadata.CommandBuffer)
}
