package loaders

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

const skyboxSource = `#include <metal_stdlib>
using namespace metal;

// vertex shader reading the cube
vertex ColorInOut skyboxVertex(Vertex in [[stage_in]],
                               ushort amp_id [[amplification_id]])
{
    ColorInOut out;
    return out;
}

fragment float4 skyboxFragment(ColorInOut in [[stage_in]],
                               texturecube<half> colorMap [[ texture(TextureIndexColor) ]])
{
    return float4(1);
}
`

func TestEntryPoints(t *testing.T) {
	got := EntryPoints(skyboxSource)
	want := []string{"skyboxVertex", "skyboxFragment"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("EntryPoints() = %v, want %v", got, want)
	}
}

func TestEntryPointsNone(t *testing.T) {
	if got := EntryPoints("float helper(float x) { return x; }"); len(got) != 0 {
		t.Errorf("EntryPoints() = %v, want none", got)
	}
}

func TestShaderLoaderLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "skybox.metal")
	if err := os.WriteFile(path, []byte(skyboxSource), 0o644); err != nil {
		t.Fatal(err)
	}

	res, err := (&ShaderLoader{}).Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	src, ok := res.Data.(*ShaderSource)
	if !ok {
		t.Fatalf("Data is %T, want *ShaderSource", res.Data)
	}
	if len(src.Functions) != 2 {
		t.Errorf("Functions = %v, want two entry points", src.Functions)
	}
	if res.DataSize != uint64(len(skyboxSource)) {
		t.Errorf("DataSize = %d, want %d", res.DataSize, len(skyboxSource))
	}
}
