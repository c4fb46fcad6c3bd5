// Package optimizer decides, for a single JPEG or PNG file, whether a WebP
// re-encoding is both smaller and visually near-identical, and writes it when
// it is.
//
// Transparent images are encoded losslessly. Opaque images walk a fixed,
// descending quality ladder and take the first level whose re-decoded pixels
// meet the similarity threshold. Either way the result is kept only when it is
// strictly smaller than the source file. The optimizer never removes the
// original; callers do that after checking Outcome.Written.
package optimizer

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"os"

	"webpify/pkg/imgutil"
)

type Optimizer struct {
	cfg Config
}

// New builds an Optimizer. Zero fields in cfg take their DefaultConfig values.
func New(cfg Config) *Optimizer {
	return &Optimizer{cfg: cfg.withDefaults()}
}

func (o *Optimizer) Config() Config {
	return o.cfg
}

// Optimize processes one candidate. It never panics and never returns an
// error directly: every failure is folded into the returned Outcome.
func (o *Optimizer) Optimize(ctx context.Context, path string) (out Outcome) {
	out = Outcome{SourcePath: path, OutputPath: OutputPath(path)}
	defer func() {
		if r := recover(); r != nil {
			out = out.fail(fmt.Errorf("%w: panic: %v", ErrEncode, r))
		}
	}()

	info, err := os.Stat(path)
	if err != nil {
		return out.fail(fmt.Errorf("%w: %w", ErrDecode, err))
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return out.fail(fmt.Errorf("%w: %w", ErrDecode, err))
	}
	out.OriginalSize = int64(len(data))

	img, err := o.decode(data)
	if err != nil {
		return out.fail(err)
	}
	if b := img.Bounds(); b.Dx() > MaxWebPDimension || b.Dy() > MaxWebPDimension {
		return out.fail(fmt.Errorf("%w: %dx%d exceeds the WebP limit of %d", ErrEncode, b.Dx(), b.Dy(), MaxWebPDimension))
	}
	if err := interrupted(ctx); err != nil {
		return out.fail(err)
	}

	var encoded []byte
	if hasTransparency(img) {
		encoded, err = o.encode(img, EncodeOptions{Quality: LosslessEffort, Lossless: true})
		if err != nil {
			return out.fail(err)
		}
		out.Lossless = true
		out.Similarity = 1
		out.Attempts = append(out.Attempts, Attempt{Lossless: true, Size: int64(len(encoded)), Similarity: 1})
	} else {
		var ok bool
		encoded, out, ok = o.searchQuality(ctx, flatten(img), out)
		if !ok {
			return out
		}
	}

	size := int64(len(encoded))
	if size >= out.OriginalSize {
		return out.skip(ReasonNotBeneficial,
			fmt.Errorf("%w: %d >= %d bytes", ErrNotBeneficial, size, out.OriginalSize))
	}

	if !o.cfg.DryRun {
		if err := interrupted(ctx); err != nil {
			return out.fail(err)
		}
		if err := writeFileDurable(out.OutputPath, encoded, info.Mode().Perm()); err != nil {
			return out.fail(fmt.Errorf("%w: %w", ErrWrite, err))
		}
		out.Written = true
	}

	return out.convert(size)
}

// searchQuality walks the quality ladder from best to worst fidelity and stops
// at the first level that meets the threshold. It never searches upward and
// never continues past an accepted level looking for a smaller file.
func (o *Optimizer) searchQuality(ctx context.Context, src image.Image, out Outcome) ([]byte, Outcome, bool) {
	for _, q := range o.cfg.Qualities {
		if err := interrupted(ctx); err != nil {
			return nil, out.fail(err), false
		}

		encoded, err := o.encode(src, EncodeOptions{Quality: q})
		if err != nil {
			return nil, out.fail(err), false
		}
		decoded, err := o.cfg.Codec.Decode(encoded)
		if err != nil {
			return nil, out.fail(fmt.Errorf("%w: re-decode at q%d: %w", ErrEncode, q, err)), false
		}

		score := Similarity(src, decoded)
		out.Attempts = append(out.Attempts, Attempt{Quality: q, Size: int64(len(encoded)), Similarity: score})
		if score > out.Similarity {
			out.Similarity = score
		}
		if score >= o.cfg.SimilarityThreshold {
			out.Quality = q
			out.Similarity = score
			return encoded, out, true
		}
	}

	err := fmt.Errorf("%w: best %.4f < %.2f", ErrQualityRejected, out.Similarity, o.cfg.SimilarityThreshold)
	return nil, out.skip(ReasonQualityRejected, err), false
}

func (o *Optimizer) decode(data []byte) (image.Image, error) {
	kind, err := imgutil.SniffReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecode, err)
	}

	var (
		decodeConfig func([]byte) (image.Config, error)
		decodeImage  func([]byte) (image.Image, error)
	)
	switch kind {
	case imgutil.KindJPEG:
		decodeConfig = func(b []byte) (image.Config, error) { return jpeg.DecodeConfig(bytes.NewReader(b)) }
		decodeImage = func(b []byte) (image.Image, error) { return jpeg.Decode(bytes.NewReader(b)) }
	case imgutil.KindPNG:
		decodeConfig = func(b []byte) (image.Config, error) { return png.DecodeConfig(bytes.NewReader(b)) }
		decodeImage = func(b []byte) (image.Image, error) { return png.Decode(bytes.NewReader(b)) }
	default:
		return nil, fmt.Errorf("%w: unsupported content (%s)", ErrDecode, kind)
	}

	cfg, err := decodeConfig(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecode, err)
	}
	if pixels := int64(cfg.Width) * int64(cfg.Height); pixels > int64(o.cfg.MaxPixels) {
		return nil, fmt.Errorf("%w: %w: %dx%d exceeds %d pixels", ErrDecode, ErrTooLarge, cfg.Width, cfg.Height, o.cfg.MaxPixels)
	}

	img, err := decodeImage(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecode, err)
	}
	if kind == imgutil.KindJPEG {
		img = applyOrientation(img, readOrientation(data))
	}
	return img, nil
}

func (o *Optimizer) encode(img image.Image, opts EncodeOptions) ([]byte, error) {
	data, err := o.cfg.Codec.Encode(img, opts)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEncode, err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: encoder produced no data", ErrEncode)
	}
	return data, nil
}

func interrupted(ctx context.Context) error {
	if ctx == nil {
		return nil
	}
	if err := ctx.Err(); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return fmt.Errorf("timed out: %w", err)
		}
		return fmt.Errorf("interrupted: %w", err)
	}
	return nil
}
