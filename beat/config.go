package beat

// Default pipeline constants, tuned for ECG R-peaks.
const (
	DefaultLowCut        = 5.0   // Hz
	DefaultHighCut       = 15.0  // Hz
	DefaultOrder         = 3     // Butterworth prototype order
	DefaultMedianDivisor = 5.0   // kernel = int(fs/divisor) | 1
	DefaultMaxRate       = 200.0 // events per minute
	DefaultThresholdStd  = 1.0   // height = mean + k*std
	DefaultMinSeconds    = 2.0
	DefaultMinPeaks      = 2
)

// Config holds every tunable of the beat pipeline.
type Config struct {
	LowCut        float64
	HighCut       float64
	Order         int
	MedianDivisor float64
	MaxRate       float64
	ThresholdStd  float64
	MinSeconds    float64
	MinPeaks      int
}

func DefaultConfig() Config {
	return Config{
		LowCut:        DefaultLowCut,
		HighCut:       DefaultHighCut,
		Order:         DefaultOrder,
		MedianDivisor: DefaultMedianDivisor,
		MaxRate:       DefaultMaxRate,
		ThresholdStd:  DefaultThresholdStd,
		MinSeconds:    DefaultMinSeconds,
		MinPeaks:      DefaultMinPeaks,
	}
}

// MedianKernel is the odd smoothing width for fs, never below 1.
func (c Config) MedianKernel(fs float64) int {
	div := c.MedianDivisor
	if div <= 0 {
		div = DefaultMedianDivisor
	}
	return int(fs/div) | 1
}

// PeakDistance is the refractory gap in samples for MaxRate events/minute.
func (c Config) PeakDistance(fs float64) float64 {
	rate := c.MaxRate
	if rate <= 0 {
		rate = DefaultMaxRate
	}
	return fs / rate * 60
}
