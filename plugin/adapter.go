package plugin

/*

	The Adapter sits aside /ictus/
	Contains core interfaces for Plugin

*/

import (
	"time"

	"github.com/maroda/ictus/dispatch"
	"github.com/maroda/ictus/entropy"
	It "github.com/maroda/ictus/types"
)

// Analysis is one request to run an analyzer over a series.
type Analysis struct {
	Name       string
	Series     It.TimeSeries
	Params     It.AnalysisParams
	Diagnostic entropy.Diagnostic // optional plot renderer
}

// Analyzer turns an Analysis into a dispatched job.
// Check rejects malformed parameters before anything is dispatched;
// numeric validation happens inside the job and surfaces as an error result.
type Analyzer interface {
	Check(p It.AnalysisParams) error
	Submit(d *dispatch.Dispatcher, a Analysis) string // returns the job ID
	Kind() It.AnalysisKind
}

// OutputAdapter can be used to define a place for completed records to go,
// record-by-record or in batches if supported by the output type.
type OutputAdapter interface {
	WriteRecord(rec *It.AnalysisRecord) error                      // Write a single record
	WriteBatch(recs []*It.AnalysisRecord) error                    // Write batches of records
	QueryRange(start, end time.Time) ([]*It.AnalysisRecord, error) // Time range query tool
	Flush() error                                                  // Flush any buffered data
	Close() error                                                  // Close the adapter and release resources
	Type() string                                                  // ID for output
}
