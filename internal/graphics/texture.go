package graphics

import (
	"fmt"
	"image"
	"image/color"

	"github.com/go-gl/gl/v4.1-core/gl"
)

// LayerSize is the edge length in texels of each generated layer.
const LayerSize = 16

// layerColors maps registry texture names to base colours.
var layerColors = map[string]color.RGBA{
	"grass_top.png":   {R: 95, G: 159, B: 53, A: 255},
	"grass_side.png":  {R: 121, G: 115, B: 62, A: 255},
	"dirt.png":        {R: 134, G: 96, B: 67, A: 255},
	"stone.png":       {R: 125, G: 125, B: 125, A: 255},
	"bedrock.png":     {R: 58, G: 58, B: 58, A: 255},
	"sand.png":        {R: 219, G: 207, B: 163, A: 255},
	"gravel.png":      {R: 136, G: 126, B: 126, A: 255},
	"glass.png":       {R: 192, G: 232, B: 240, A: 255},
	"water_still.png": {R: 47, G: 67, B: 244, A: 255},
	"water_flow.png":  {R: 52, G: 74, B: 232, A: 255},
}

// LayerColor returns the base colour of a texture; unknown names get magenta.
func LayerColor(name string) color.RGBA {
	if c, ok := layerColors[name]; ok {
		return c
	}
	return color.RGBA{R: 255, G: 0, B: 255, A: 255}
}

// BuildLayerImages generates one speckled size×size image per texture name.
// The pattern depends only on the layer index, so output is stable.
func BuildLayerImages(names []string, size int) []*image.RGBA {
	layers := make([]*image.RGBA, len(names))
	for i, name := range names {
		base := LayerColor(name)
		img := image.NewRGBA(image.Rect(0, 0, size, size))
		for y := range size {
			for x := range size {
				img.SetRGBA(x, y, speckle(base, i, x, y))
			}
		}
		layers[i] = img
	}
	return layers
}

func speckle(c color.RGBA, layer, x, y int) color.RGBA {
	h := uint32(layer*73856093) ^ uint32(x*19349663) ^ uint32(y*83492791)
	h ^= h >> 13
	h *= 0x5bd1e995
	h ^= h >> 15
	// ±12 brightness jitter
	d := int(h%25) - 12
	return color.RGBA{R: clampByte(int(c.R) + d), G: clampByte(int(c.G) + d), B: clampByte(int(c.B) + d), A: c.A}
}

func clampByte(v int) uint8 {
	return uint8(max(0, min(255, v)))
}

// NewTextureArray uploads equally sized layers into a GL_TEXTURE_2D_ARRAY.
func NewTextureArray(layers []*image.RGBA) (uint32, error) {
	if len(layers) == 0 {
		return 0, fmt.Errorf("texture array needs at least one layer")
	}
	size := layers[0].Rect.Size()
	for i, l := range layers {
		if l.Rect.Size() != size {
			return 0, fmt.Errorf("layer %d is %v, want %v", i, l.Rect.Size(), size)
		}
	}

	var texture uint32
	gl.GenTextures(1, &texture)
	gl.BindTexture(gl.TEXTURE_2D_ARRAY, texture)

	gl.TexParameteri(gl.TEXTURE_2D_ARRAY, gl.TEXTURE_WRAP_S, gl.CLAMP_TO_EDGE)
	gl.TexParameteri(gl.TEXTURE_2D_ARRAY, gl.TEXTURE_WRAP_T, gl.CLAMP_TO_EDGE)
	gl.TexParameteri(gl.TEXTURE_2D_ARRAY, gl.TEXTURE_MIN_FILTER, gl.NEAREST)
	gl.TexParameteri(gl.TEXTURE_2D_ARRAY, gl.TEXTURE_MAG_FILTER, gl.NEAREST)

	gl.TexImage3D(gl.TEXTURE_2D_ARRAY, 0, gl.RGBA8,
		int32(size.X), int32(size.Y), int32(len(layers)),
		0, gl.RGBA, gl.UNSIGNED_BYTE, nil)
	for i, l := range layers {
		gl.TexSubImage3D(gl.TEXTURE_2D_ARRAY, 0, 0, 0, int32(i),
			int32(size.X), int32(size.Y), 1,
			gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(l.Pix))
	}

	gl.BindTexture(gl.TEXTURE_2D_ARRAY, 0)
	return texture, nil
}
