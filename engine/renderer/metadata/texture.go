package metadata

type PixelFormat uint32

const (
	PixelFormatInvalid PixelFormat = iota
	PixelFormatRGBA8Unorm
	PixelFormatBGRA8Unorm
	PixelFormatBGRA8UnormSRGB
	PixelFormatRGBA16Float
	PixelFormatDepth32Float
)

// BytesPerPixel returns the size of one texel, or 0 for PixelFormatInvalid.
func (pf PixelFormat) BytesPerPixel() int {
	switch pf {
	case PixelFormatRGBA8Unorm, PixelFormatBGRA8Unorm, PixelFormatBGRA8UnormSRGB, PixelFormatDepth32Float:
		return 4
	case PixelFormatRGBA16Float:
		return 8
	default:
		return 0
	}
}

// IsDepth reports whether the format can back a depth attachment.
func (pf PixelFormat) IsDepth() bool {
	return pf == PixelFormatDepth32Float
}

type TextureType int

const (
	TextureType2D TextureType = iota
	TextureType2DArray
	TextureType2DMultisample
	TextureType2DMultisampleArray
	TextureTypeCube
)

/** @brief Where a resource lives and who can access it. */
type StorageMode int

const (
	/** @brief CPU and GPU visible memory. */
	StorageModeShared StorageMode = iota
	/** @brief GPU-only memory. */
	StorageModePrivate
	/** @brief Tile memory valid only inside one render pass; never backed by device memory. */
	StorageModeMemoryless
)

type TextureUsage uint32

const (
	TextureUsageShaderRead   TextureUsage = 0x1
	TextureUsageShaderWrite  TextureUsage = 0x2
	TextureUsageRenderTarget TextureUsage = 0x4
)

type TextureDescriptor struct {
	PixelFormat PixelFormat
	TextureType TextureType
	Width       int
	Height      int
	// Number of array slices; 6 faces are implied for TextureTypeCube.
	ArrayLength int
	SampleCount int
	Mipmapped   bool
	Usage       TextureUsage
	StorageMode StorageMode
}

type Texture interface {
	Label() string
	SetLabel(label string)
	Width() int
	Height() int
	ArrayLength() int
	SampleCount() int
	PixelFormat() PixelFormat
	TextureType() TextureType
	StorageMode() StorageMode
	Usage() TextureUsage
	// Release gives the texture's memory back to the device.
	Release()
}

/** @brief Variable rasterization rate (foveation) map attached to a render pass. */
type RasterizationRateMap interface {
	Label() string
	ScreenSize() (width, height int)
}
