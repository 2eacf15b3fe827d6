package loaders

type ResourceType int

const (
	ResourceTypeNone ResourceType = iota
	ResourceTypeImage
	ResourceTypeShader
)

func (rt ResourceType) String() string {
	switch rt {
	case ResourceTypeImage:
		return "image"
	case ResourceTypeShader:
		return "shader"
	default:
		return "none"
	}
}

/** @brief A loaded asset. Data holds the loader specific payload. */
type Resource struct {
	Name     string
	FullPath string
	DataSize uint64
	Data     interface{}
}
