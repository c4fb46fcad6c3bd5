package optimizer

const (
	// SimilarityThreshold is the minimum score a lossy candidate needs.
	SimilarityThreshold = 0.95
	// LosslessEffort is passed as quality to the lossless encoder, where it
	// controls compression effort instead of fidelity.
	LosslessEffort = 90
	// DefaultMaxPixels bounds decoded image area; larger images are rejected
	// before decoding.
	DefaultMaxPixels = 100_000_000
	// MaxWebPDimension is the largest width or height WebP can store.
	MaxWebPDimension = 16383
)

// QualityLadder is tried in order; the first level meeting the threshold wins.
var QualityLadder = []int{90, 85, 80}

type Config struct {
	Qualities           []int
	SimilarityThreshold float64
	MaxPixels           int
	Codec               Codec
	// DryRun evaluates candidates without writing any file.
	DryRun bool
}

func DefaultConfig() Config {
	return Config{
		Qualities:           append([]int(nil), QualityLadder...),
		SimilarityThreshold: SimilarityThreshold,
		MaxPixels:           DefaultMaxPixels,
		Codec:               WebPCodec{},
	}
}

func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if len(c.Qualities) == 0 {
		c.Qualities = def.Qualities
	}
	if c.SimilarityThreshold <= 0 {
		c.SimilarityThreshold = def.SimilarityThreshold
	}
	if c.MaxPixels <= 0 {
		c.MaxPixels = def.MaxPixels
	}
	if c.Codec == nil {
		c.Codec = def.Codec
	}
	return c
}
