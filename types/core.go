package types

/*

	These are the "immutable" core types of Ictus,
	provided for cross-package use (analysis, dispatch, plugins, display) and testing.

	There are no functions defined here.
	Constructors and operations live in their own packages:
	ordinal, entropy, beat, dispatch.

*/

import "time"

// TimeSeries is the input to every analysis.
// BeatTimes is optional and, when present, runs parallel to Samples.
type TimeSeries struct {
	Samples   []float64
	BeatTimes []float64
}

// OrdinalPattern is a permutation of 0..D-1, the argsort of D embedded samples.
type OrdinalPattern []int

// PatternDistribution holds one relative frequency per permutation,
// indexed by the lexicographic rank of the permutation (length D!).
type PatternDistribution []float64

// WindowEntropy is one window of an EntropyTrace
type WindowEntropy struct {
	Start        int                 // first sample index of the window
	Distribution PatternDistribution // frequencies over all D! patterns
	Entropy      float64             // normalized Shannon entropy in [0, 1]
	Time         float64             // representative time, NaN when undefined
}

// EntropyTrace is the ordered result of a Bandt-Pompe sweep over a series
type EntropyTrace struct {
	Dimension  int
	Delay      int
	WindowSize int
	Step       int
	Windows    []WindowEntropy // ascending by Start
}

// HeatValue chooses what each heatmap cell holds
type HeatValue int

const (
	HeatEntropy   HeatValue = iota // normalized entropy per window
	HeatFrequency                  // relative frequency of a single pattern per window
)

// AlignPolicy decides how heatmap rows of different lengths are stacked
type AlignPolicy int

const (
	AlignReject   AlignPolicy = iota // fail when row lengths differ
	AlignTruncate                    // cut every row to the shortest
	AlignPad                         // pad short rows with NaN up to the longest
)

// DelayHeatmap is a (delay, window) matrix built by sweeping tau from 1 to DelayMax.
// Rows[i] belongs to tau = i+1.
type DelayHeatmap struct {
	Dimension    int
	DelayMax     int
	WindowSize   int
	Step         int
	Value        HeatValue
	PatternIndex int // only meaningful for HeatFrequency
	Policy       AlignPolicy
	Rows         [][]float64
	EmptyDelays  []int // delays whose windows hold no embeddable vectors
}

// PeakSet is a strictly increasing list of sample indices
type PeakSet []int

// IBISequence holds inter-beat intervals in milliseconds
type IBISequence []float64

// Band is one coloured span of the diagnostic plot, in sample index units
type Band struct {
	StartIndex int
	EndIndex   int
	Color      string
}

// DiagnosticPlot is everything a renderer needs to draw
// sample index against elapsed time with alternating bands.
type DiagnosticPlot struct {
	Name      string    // file prefix or title
	Dimension int       // embedding dimension used
	Delay     int       // delay used
	Samples   []float64 // the analysed series
	Times     []float64 // elapsed time per sample, beat_times[1:]
	TickStep  int       // sample stride of the top time axis
	Bands     []Band
}

// AnalysisKind names a computation that can be dispatched
type AnalysisKind string

const (
	KindBandtPompe AnalysisKind = "bandt_pompe"
	KindTauHeatmap AnalysisKind = "tau_heatmap"
	KindIBI        AnalysisKind = "ibi"
)

// Result tags, mirrored in every dispatched outcome
const (
	StatusOK      = "ok"
	StatusError   = "error"
	StatusPending = "pending"
)

// AnalysisRecord is a completed, tagged analysis kept by result stores.
// Exactly one of Trace, Heatmap, IBI is set when Status is StatusOK.
type AnalysisRecord struct {
	ID        string
	Name      string
	Kind      AnalysisKind
	Status    string
	Message   string
	Trace     *EntropyTrace
	Heatmap   *DelayHeatmap
	IBI       IBISequence
	StartTime time.Time // This is a Primary Key
	Duration  time.Duration
}
