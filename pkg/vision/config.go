package vision

// Config holds the fixed heuristics used to isolate the title band.
type Config struct {
	TitleBandRatio float64 // share of the card height kept as title band
	UpscaleFactor  float64
	SharpenSigma   float64
	ContrastFactor float64 // 1 = unchanged, 2 = doubled
	CannyLow       float32
	CannyHigh      float32
	MinDimension   int // frames smaller than this skip detection
}

// DefaultConfig returns the heuristics tuned for standard card proportions.
func DefaultConfig() Config {
	return Config{
		TitleBandRatio: 0.25,
		UpscaleFactor:  2,
		SharpenSigma:   1,
		ContrastFactor: 2,
		CannyLow:       50,
		CannyHigh:      150,
		MinDimension:   32,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.TitleBandRatio <= 0 || c.TitleBandRatio > 1 {
		c.TitleBandRatio = d.TitleBandRatio
	}
	if c.UpscaleFactor <= 0 {
		c.UpscaleFactor = d.UpscaleFactor
	}
	if c.ContrastFactor <= 0 {
		c.ContrastFactor = d.ContrastFactor
	}
	if c.CannyLow <= 0 && c.CannyHigh <= 0 {
		c.CannyLow, c.CannyHigh = d.CannyLow, d.CannyHigh
	}
	if c.MinDimension <= 0 {
		c.MinDimension = d.MinDimension
	}
	return c
}
