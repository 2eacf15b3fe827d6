package metadata

/** @brief Determines face culling mode during rendering. */
type FaceCullMode int

const (
	/** @brief No faces are culled. */
	FaceCullModeNone FaceCullMode = 0x0
	/** @brief Only front faces are culled. */
	FaceCullModeFront FaceCullMode = 0x1
	/** @brief Only back faces are culled. */
	FaceCullModeBack FaceCullMode = 0x2
)

/** @brief The kind of primitive assembled from a vertex stream. */
type PrimitiveType int

const (
	PrimitiveTypePoint PrimitiveType = iota
	PrimitiveTypeLine
	PrimitiveTypeTriangle
	PrimitiveTypeTriangleStrip
)

/** @brief A depth comparison, evaluated as `incoming <op> stored`. */
type CompareFunction int

const (
	CompareFunctionNever CompareFunction = iota
	CompareFunctionLess
	CompareFunctionEqual
	CompareFunctionLessEqual
	CompareFunctionGreater
	CompareFunctionNotEqual
	CompareFunctionGreaterEqual
	CompareFunctionAlways
)

// Passes reports whether a fragment at depth incoming survives the test
// against the depth already stored in the attachment.
func (cf CompareFunction) Passes(incoming, stored float32) bool {
	switch cf {
	case CompareFunctionLess:
		return incoming < stored
	case CompareFunctionEqual:
		return incoming == stored
	case CompareFunctionLessEqual:
		return incoming <= stored
	case CompareFunctionGreater:
		return incoming > stored
	case CompareFunctionNotEqual:
		return incoming != stored
	case CompareFunctionGreaterEqual:
		return incoming >= stored
	case CompareFunctionAlways:
		return true
	default:
		return false
	}
}

/** @brief A viewport rectangle in pixels plus its depth range. */
type Viewport struct {
	OriginX float64
	OriginY float64
	Width   float64
	Height  float64
	ZNear   float64
	ZFar    float64
}

/**
 * @brief Routes one amplified instance of the vertex stage to a viewport and
 * a render target array slice, each given as an offset from the base index.
 */
type VertexAmplificationViewMapping struct {
	ViewportArrayIndexOffset     uint32
	RenderTargetArrayIndexOffset uint32
}
