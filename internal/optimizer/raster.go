package optimizer

import (
	"image"

	"golang.org/x/image/draw"
)

type opaquer interface {
	Opaque() bool
}

// hasTransparency reports whether img has at least one pixel that is not
// fully opaque. Images with an alpha channel that is 255 everywhere count as
// opaque.
func hasTransparency(img image.Image) bool {
	if o, ok := img.(opaquer); ok {
		return !o.Opaque()
	}

	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if _, _, _, a := img.At(x, y).RGBA(); a != 0xffff {
				return true
			}
		}
	}
	return false
}

// toNRGBA copies img into a zero-origin non-premultiplied raster.
func toNRGBA(img image.Image) *image.NRGBA {
	b := img.Bounds()
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
	return dst
}

// flatten normalizes img to an opaque 8-bit RGB raster. The alpha channel is
// dropped, not composited.
func flatten(img image.Image) *image.NRGBA {
	dst := toNRGBA(img)
	for i := 3; i < len(dst.Pix); i += 4 {
		dst.Pix[i] = 0xff
	}
	return dst
}
