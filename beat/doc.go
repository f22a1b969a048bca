// Package beat extracts inter-beat intervals from a raw biosignal.
//
// The pipeline is Condition (zero-phase Butterworth band-pass, full-wave
// rectification, median smoothing), DetectPeaks (adaptive height threshold
// with a refractory distance) and finally ComputeIBI, which converts peak
// indices to milliseconds. Every constant lives in Config; DefaultConfig
// holds the values tuned for cardiac R-peaks.
package beat
