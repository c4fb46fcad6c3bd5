package optimizer

import (
	"bytes"
	"image"

	"github.com/gen2brain/webp"
	xwebp "golang.org/x/image/webp"
)

type EncodeOptions struct {
	Quality  int
	Lossless bool
}

// Codec encodes rasters to WebP bytes and decodes them back for comparison.
type Codec interface {
	Encode(img image.Image, opts EncodeOptions) ([]byte, error)
	Decode(data []byte) (image.Image, error)
}

// WebPCodec encodes with libwebp (compiled to WASM, no cgo) and decodes with
// the pure Go x/image decoder.
type WebPCodec struct{}

// encodeMethod is the libwebp speed/size tradeoff, 0 (fast) to 6 (smallest).
const encodeMethod = 4

func (WebPCodec) Encode(img image.Image, opts EncodeOptions) ([]byte, error) {
	var buf bytes.Buffer
	err := webp.Encode(&buf, img, webp.Options{
		Quality:  opts.Quality,
		Lossless: opts.Lossless,
		Method:   encodeMethod,
		Exact:    opts.Lossless,
	})
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (WebPCodec) Decode(data []byte) (image.Image, error) {
	return xwebp.Decode(bytes.NewReader(data))
}
