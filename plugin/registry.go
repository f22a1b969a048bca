package plugin

import (
	"errors"
	"fmt"

	"github.com/maroda/ictus/beat"
)

var ErrUnknownAnalyzer = errors.New("unknown analyzer")

// Analyzers is a global map of Analyzer plugins by kind name.
var Analyzers = map[string]func() Analyzer{
	"bandt_pompe": func() Analyzer {
		return BandtPompeAnalyzer{}
	},
	"tau_heatmap": func() Analyzer {
		return HeatmapAnalyzer{}
	},
	"ibi": func() Analyzer {
		return IBIAnalyzer{Config: beat.DefaultConfig()}
	},
}

func AnalyzerLookup(name string) (Analyzer, error) {
	factory, ok := Analyzers[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownAnalyzer, name)
	}
	return factory(), nil
}
