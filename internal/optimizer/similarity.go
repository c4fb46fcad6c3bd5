package optimizer

import (
	"image"

	"golang.org/x/image/draw"
)

const maxChannelError = 255 * 255

// Similarity compares two images in the pixel domain and returns a score in
// [0,1], where 1 means identical RGB content. It is one minus the mean squared
// channel error normalized by the largest possible error. Alpha is ignored.
// When the sizes differ, b is resampled to a's size first.
func Similarity(a, b image.Image) float64 {
	ab := a.Bounds()
	if ab.Empty() {
		return 1
	}
	if b.Bounds().Size() != ab.Size() {
		b = resample(b, ab.Dx(), ab.Dy())
	}

	pa := toNRGBA(a)
	pb := toNRGBA(b)

	var diff uint64
	for y := 0; y < ab.Dy(); y++ {
		ra := pa.Pix[y*pa.Stride : y*pa.Stride+ab.Dx()*4]
		rb := pb.Pix[y*pb.Stride : y*pb.Stride+ab.Dx()*4]
		for i := 0; i < len(ra); i += 4 {
			for c := 0; c < 3; c++ {
				d := int64(ra[i+c]) - int64(rb[i+c])
				diff += uint64(d * d)
			}
		}
	}

	worst := float64(ab.Dx()) * float64(ab.Dy()) * 3 * maxChannelError
	score := 1 - float64(diff)/worst
	if score < 0 {
		return 0
	}
	return score
}

func resample(img image.Image, w, h int) image.Image {
	dst := image.NewNRGBA(image.Rect(0, 0, w, h))
	draw.BiLinear.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Src, nil)
	return dst
}
