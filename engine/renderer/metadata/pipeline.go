package metadata

type VertexFormat int

const (
	VertexFormatInvalid VertexFormat = iota
	VertexFormatFloat2
	VertexFormatFloat3
	VertexFormatFloat4
)

// Size returns the number of bytes one attribute of this format occupies.
func (vf VertexFormat) Size() int {
	switch vf {
	case VertexFormatFloat2:
		return 8
	case VertexFormatFloat3:
		return 12
	case VertexFormatFloat4:
		return 16
	default:
		return 0
	}
}

type VertexStepFunction int

const (
	VertexStepFunctionConstant VertexStepFunction = iota
	VertexStepFunctionPerVertex
	VertexStepFunctionPerInstance
)

type VertexAttributeDescriptor struct {
	Format      VertexFormat
	Offset      int
	BufferIndex BufferIndex
}

type VertexBufferLayoutDescriptor struct {
	Stride       int
	StepRate     int
	StepFunction VertexStepFunction
}

/** @brief Describes how vertex attributes are fetched from bound buffers. */
type VertexDescriptor struct {
	Attributes map[VertexAttribute]VertexAttributeDescriptor
	Layouts    map[BufferIndex]VertexBufferLayoutDescriptor
}

func NewVertexDescriptor() *VertexDescriptor {
	return &VertexDescriptor{
		Attributes: make(map[VertexAttribute]VertexAttributeDescriptor),
		Layouts:    make(map[BufferIndex]VertexBufferLayoutDescriptor),
	}
}

type RenderPipelineDescriptor struct {
	Label                       string
	VertexFunction              Function
	FragmentFunction            Function
	VertexDescriptor            *VertexDescriptor
	RasterSampleCount           int
	ColorPixelFormat            PixelFormat
	DepthPixelFormat            PixelFormat
	MaxVertexAmplificationCount int
}

type DepthStencilDescriptor struct {
	Label                string
	DepthCompareFunction CompareFunction
	DepthWriteEnabled    bool
}
