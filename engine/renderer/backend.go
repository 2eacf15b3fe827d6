package renderer

import (
	"fmt"
	"strings"

	"github.com/spaghettifunk/anima-skybox/engine/renderer/headless"
	"github.com/spaghettifunk/anima-skybox/engine/renderer/metadata"
)

type BackendType uint8

const (
	BackendHeadless BackendType = iota
	BackendMetal
)

func (b BackendType) String() string {
	switch b {
	case BackendHeadless:
		return "headless"
	case BackendMetal:
		return "metal"
	}
	return fmt.Sprintf("BackendType(%d)", uint8(b))
}

func (b BackendType) MarshalText() ([]byte, error) {
	return []byte(b.String()), nil
}

func (b *BackendType) UnmarshalText(text []byte) error {
	switch strings.ToLower(string(text)) {
	case "headless":
		*b = BackendHeadless
	case "metal":
		*b = BackendMetal
	default:
		return fmt.Errorf("unknown renderer backend '%s'", text)
	}
	return nil
}

// NewDevice creates the GPU device of the requested backend. Only the
// headless backend is built into this binary; on device the compositor
// hands its own device to the renderer.
func NewDevice(backend BackendType, opts headless.Options) (metadata.Device, error) {
	switch backend {
	case BackendHeadless:
		return headless.NewDevice(opts)
	default:
		return nil, fmt.Errorf("renderer backend '%s' is not available on this platform", backend)
	}
}
