package loaders

import (
	"os"
	"regexp"
)

/** @brief Payload of a loaded shader source. */
type ShaderSource struct {
	Source string
	// Entry points declared with a vertex or fragment qualifier, in source order.
	Functions []string
}

// Matches `vertex <type> name(` and `fragment <type> name(` declarations.
var entryPointPattern = regexp.MustCompile(`(?m)^\s*(?:\[\[[^\]]*\]\]\s*)?(?:vertex|fragment)\s+[\w:<>,\s]+?\s+(\w+)\s*\(`)

type ShaderLoader struct{}

func (sl *ShaderLoader) Load(path string) (*Resource, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	source := string(data)
	return &Resource{
		Name:     path,
		FullPath: path,
		DataSize: uint64(len(data)),
		Data: &ShaderSource{
			Source:    source,
			Functions: EntryPoints(source),
		},
	}, nil
}

func (sl *ShaderLoader) Unload(*Resource) error {
	return nil
}

// EntryPoints lists the vertex and fragment functions declared in source.
func EntryPoints(source string) []string {
	var out []string
	for _, m := range entryPointPattern.FindAllStringSubmatch(source, -1) {
		out = append(out, m[1])
	}
	return out
}
