package headless

import (
	"fmt"
	"sync"

	"github.com/spaghettifunk/anima-skybox/engine/renderer/metadata"
)

type Buffer struct {
	device   *Device
	label    string
	data     []byte
	mode     metadata.StorageMode
	released sync.Once
}

func (b *Buffer) Label() string         { return b.label }
func (b *Buffer) SetLabel(label string) { b.label = label }
func (b *Buffer) Length() int           { return len(b.data) }

func (b *Buffer) Contents() []byte {
	if b.mode != metadata.StorageModeShared {
		return nil
	}
	return b.data
}

// Bytes returns the backing memory regardless of storage mode.
func (b *Buffer) Bytes() []byte { return b.data }

func (b *Buffer) Release() {
	b.released.Do(b.device.releaseBuffer)
}

type Texture struct {
	device   *Device
	label    string
	desc     metadata.TextureDescriptor
	slices   [][]byte
	mu       sync.Mutex
	released bool
}

func newTexture(d *Device, desc metadata.TextureDescriptor) *Texture {
	if desc.ArrayLength == 0 {
		desc.ArrayLength = 1
	}
	if desc.SampleCount == 0 {
		desc.SampleCount = 1
	}
	return &Texture{device: d, desc: desc}
}

func validateTextureDescriptor(d *Device, desc metadata.TextureDescriptor) error {
	if desc.Width <= 0 || desc.Height <= 0 {
		return fmt.Errorf("headless: invalid texture size %dx%d", desc.Width, desc.Height)
	}
	if desc.PixelFormat == metadata.PixelFormatInvalid {
		return fmt.Errorf("headless: invalid pixel format")
	}
	multisampled := desc.TextureType == metadata.TextureType2DMultisample || desc.TextureType == metadata.TextureType2DMultisampleArray
	if multisampled {
		if desc.SampleCount < 2 || !d.SupportsTextureSampleCount(desc.SampleCount) {
			return fmt.Errorf("headless: unsupported sample count %d for multisample texture", desc.SampleCount)
		}
	} else if desc.SampleCount > 1 {
		return fmt.Errorf("headless: sample count %d requires a multisample texture type", desc.SampleCount)
	}
	if desc.StorageMode == metadata.StorageModeMemoryless && desc.Usage&metadata.TextureUsageRenderTarget == 0 {
		return fmt.Errorf("headless: memoryless textures must be render targets")
	}
	return nil
}

func (t *Texture) sliceCount() int {
	if t.desc.TextureType == metadata.TextureTypeCube {
		return 6 * t.desc.ArrayLength
	}
	return t.desc.ArrayLength
}

func (t *Texture) upload(slices [][]byte) error {
	if t.desc.StorageMode == metadata.StorageModeMemoryless {
		return fmt.Errorf("headless: memoryless textures have no contents to upload")
	}
	if len(slices) != t.sliceCount() {
		return fmt.Errorf("headless: expected %d slices, got %d", t.sliceCount(), len(slices))
	}
	size := t.desc.Width * t.desc.Height * t.desc.PixelFormat.BytesPerPixel()
	t.slices = make([][]byte, len(slices))
	for i, s := range slices {
		if len(s) != size {
			return fmt.Errorf("headless: slice %d has %d bytes, want %d", i, len(s), size)
		}
		t.slices[i] = append([]byte(nil), s...)
	}
	return nil
}

func (t *Texture) Label() string                          { return t.label }
func (t *Texture) SetLabel(label string)                  { t.label = label }
func (t *Texture) Width() int                             { return t.desc.Width }
func (t *Texture) Height() int                            { return t.desc.Height }
func (t *Texture) ArrayLength() int                       { return t.desc.ArrayLength }
func (t *Texture) SampleCount() int                       { return t.desc.SampleCount }
func (t *Texture) PixelFormat() metadata.PixelFormat      { return t.desc.PixelFormat }
func (t *Texture) TextureType() metadata.TextureType      { return t.desc.TextureType }
func (t *Texture) StorageMode() metadata.StorageMode      { return t.desc.StorageMode }
func (t *Texture) Usage() metadata.TextureUsage           { return t.desc.Usage }
func (t *Texture) Descriptor() metadata.TextureDescriptor { return t.desc }

// Slice returns the uploaded contents of one slice, nil if none.
func (t *Texture) Slice(i int) []byte {
	if i < 0 || i >= len(t.slices) {
		return nil
	}
	return t.slices[i]
}

func (t *Texture) Release() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.released {
		return
	}
	t.released = true
	t.slices = nil
	t.device.releaseTexture(t.desc.StorageMode == metadata.StorageModeMemoryless)
}

func (t *Texture) Released() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.released
}

type Library struct {
	functions []string
}

type Function struct {
	name string
}

func (f *Function) Name() string { return f.name }

func (l *Library) NewFunction(name string) (metadata.Function, error) {
	for _, fn := range l.functions {
		if fn == name {
			return &Function{name: name}, nil
		}
	}
	return nil, fmt.Errorf("headless: function '%s' not found in library", name)
}

type RenderPipelineState struct {
	desc metadata.RenderPipelineDescriptor
}

func (p *RenderPipelineState) Label() string { return p.desc.Label }

func (p *RenderPipelineState) Descriptor() metadata.RenderPipelineDescriptor { return p.desc }

type DepthStencilState struct {
	desc metadata.DepthStencilDescriptor
}

func (s *DepthStencilState) Label() string { return s.desc.Label }

func (s *DepthStencilState) Descriptor() metadata.DepthStencilDescriptor { return s.desc }
