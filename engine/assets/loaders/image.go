package loaders

import (
	"fmt"
	"image"
	"image/draw"
	"os"

	// Decoders registered with image.Decode.
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

type ImageLoader struct{}

// Load decodes the image at path into an RGBA image.
func (il *ImageLoader) Load(path string) (*Resource, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, err
	}

	img, format, err := image.Decode(file)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image %s: %w", path, err)
	}
	return &Resource{
		Name:     format,
		FullPath: path,
		DataSize: uint64(info.Size()),
		Data:     ToRGBA(img),
	}, nil
}

func (il *ImageLoader) Unload(*Resource) error {
	return nil
}

// ToRGBA returns img as an *image.RGBA whose bounds start at the origin.
func ToRGBA(img image.Image) *image.RGBA {
	if rgba, ok := img.(*image.RGBA); ok && rgba.Rect.Min == (image.Point{}) {
		return rgba
	}
	b := img.Bounds()
	rgba := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(rgba, rgba.Bounds(), img, b.Min, draw.Src)
	return rgba
}
