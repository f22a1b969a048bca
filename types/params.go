package types

// AnalysisParams is the wire and config form of every analysis parameter.
// Fields that do not apply to a kind are ignored.
type AnalysisParams struct {
	Dimension  int     `json:"dimension"`
	Delay      int     `json:"delay,omitempty"`
	DelayMax   int     `json:"delay_max,omitempty"`
	Window     int     `json:"window,omitempty"`
	Step       int     `json:"step,omitempty"`
	Value      string  `json:"value,omitempty"`   // "entropy" or "frequency"
	Pattern    int     `json:"pattern,omitempty"` // pattern rank for "frequency"
	Align      string  `json:"align,omitempty"`   // "reject", "truncate" or "pad"
	SampleRate float64 `json:"fs,omitempty"`
	Plot       bool    `json:"plot,omitempty"`
}
