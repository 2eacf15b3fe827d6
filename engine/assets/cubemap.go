package assets

import (
	"fmt"
	"image"
	"image/color"

	xdraw "golang.org/x/image/draw"

	"github.com/spaghettifunk/anima-skybox/engine/assets/loaders"
	"github.com/spaghettifunk/anima-skybox/engine/core"
	"github.com/spaghettifunk/anima-skybox/engine/renderer/metadata"
)

// Face order of a cube texture: +X, -X, +Y, -Y, +Z, -Z.
var cubeFaceSuffixes = [6]string{"px", "nx", "py", "ny", "pz", "nz"}

/** @brief Six square RGBA faces, in cube texture slice order. */
type CubeMap struct {
	Size  int
	Faces [6]*image.RGBA
}

/**
 * @brief Loads the cube map called name. Six assets named <name>_px ..
 * <name>_nz are used when all exist; otherwise a single horizontal strip
 * asset <name> holding the six faces side by side.
 *
 * @param name The asset name, without extension.
 * @param size The edge length every face is resampled to.
 */
func (am *AssetManager) LoadCubeMap(name string, size int) (*CubeMap, error) {
	if size <= 0 {
		return nil, fmt.Errorf("cube map face size must be positive, got %d", size)
	}

	var faces [6]image.Image
	separate := true
	for i, suffix := range cubeFaceSuffixes {
		if _, ok := am.Lookup(name+"_"+suffix, loaders.ResourceTypeImage); !ok {
			separate = false
			break
		}
		res, err := am.LoadAsset(name+"_"+suffix, loaders.ResourceTypeImage)
		if err != nil {
			return nil, err
		}
		faces[i] = res.Data.(*image.RGBA)
	}
	if separate {
		return cubeMapFromFaces(faces, size), nil
	}

	res, err := am.LoadAsset(name, loaders.ResourceTypeImage)
	if err != nil {
		return nil, err
	}
	return CubeMapFromStrip(res.Data.(*image.RGBA), size)
}

// CubeMapFromStrip cuts a 6:1 horizontal strip into faces.
func CubeMapFromStrip(strip image.Image, size int) (*CubeMap, error) {
	b := strip.Bounds()
	if b.Dx() != 6*b.Dy() {
		return nil, fmt.Errorf("cube map strip must be 6:1, got %dx%d", b.Dx(), b.Dy())
	}
	edge := b.Dy()
	var faces [6]image.Image
	for i := range faces {
		rect := image.Rect(b.Min.X+i*edge, b.Min.Y, b.Min.X+(i+1)*edge, b.Max.Y)
		faces[i] = subImage{strip, rect}
	}
	return cubeMapFromFaces(faces, size), nil
}

type subImage struct {
	image.Image
	rect image.Rectangle
}

func (s subImage) Bounds() image.Rectangle { return s.rect }

func cubeMapFromFaces(faces [6]image.Image, size int) *CubeMap {
	cube := &CubeMap{Size: size}
	for i, f := range faces {
		dst := image.NewRGBA(image.Rect(0, 0, size, size))
		if f.Bounds().Dx() == size && f.Bounds().Dy() == size {
			xdraw.Draw(dst, dst.Bounds(), f, f.Bounds().Min, xdraw.Src)
		} else {
			xdraw.CatmullRom.Scale(dst, dst.Bounds(), f, f.Bounds(), xdraw.Src, nil)
		}
		cube.Faces[i] = dst
	}
	return cube
}

// GenerateGradientCubeMap builds a sky that fades from a horizon color to a
// zenith color, with a darker ground below.
func GenerateGradientCubeMap(size int) *CubeMap {
	zenith := color.RGBA{R: 24, G: 64, B: 160, A: 255}
	horizon := color.RGBA{R: 170, G: 200, B: 235, A: 255}
	ground := color.RGBA{R: 40, G: 36, B: 32, A: 255}

	cube := &CubeMap{Size: size}
	for i := range cube.Faces {
		face := image.NewRGBA(image.Rect(0, 0, size, size))
		for y := 0; y < size; y++ {
			var c color.RGBA
			switch i {
			case 2:
				c = zenith
			case 3:
				c = ground
			default:
				// Top row looks up, bottom row down.
				t := float64(y) / float64(max(size-1, 1))
				if t < 0.5 {
					c = lerp(zenith, horizon, t*2)
				} else {
					c = lerp(horizon, ground, (t-0.5)*2)
				}
			}
			for x := 0; x < size; x++ {
				face.SetRGBA(x, y, c)
			}
		}
		cube.Faces[i] = face
	}
	return cube
}

func lerp(a, b color.RGBA, t float64) color.RGBA {
	mix := func(x, y uint8) uint8 {
		return uint8(float64(x) + (float64(y)-float64(x))*t + 0.5)
	}
	return color.RGBA{R: mix(a.R, b.R), G: mix(a.G, b.G), B: mix(a.B, b.B), A: 255}
}

/**
 * @brief Uploads the cube map as a GPU-private, shader-read cube texture.
 */
func (c *CubeMap) Upload(device metadata.Device, label string) (metadata.Texture, error) {
	slices := make([][]byte, len(c.Faces))
	for i, f := range c.Faces {
		slices[i] = f.Pix
	}
	texture, err := device.NewTextureWithData(metadata.TextureDescriptor{
		PixelFormat: metadata.PixelFormatRGBA8Unorm,
		TextureType: metadata.TextureTypeCube,
		Width:       c.Size,
		Height:      c.Size,
		ArrayLength: 1,
		SampleCount: 1,
		Usage:       metadata.TextureUsageShaderRead,
		StorageMode: metadata.StorageModePrivate,
	}, slices)
	if err != nil {
		return nil, fmt.Errorf("failed to upload cube map '%s': %w", label, err)
	}
	texture.SetLabel(label)
	core.LogDebug("cube map '%s' uploaded (%dx%d per face)", label, c.Size, c.Size)
	return texture, nil
}
