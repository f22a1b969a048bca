package plugin_test

import (
	"bytes"
	"math"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v4"
	Mp "github.com/maroda/ictus/plugin"
	It "github.com/maroda/ictus/types"
)

func TestNewBadgerOutput(t *testing.T) {
	adapter, closedb := makeTestBadgerOutput(t)
	defer closedb()

	t.Run("Creates new struct for output", func(t *testing.T) {
		got, err := Mp.NewBadgerOutput(t.TempDir(), 10)
		assertError(t, err, nil)
		defer got.Close()
		assertInt(t, got.BatchSize, 10)
	})

	t.Run("Returns Type", func(t *testing.T) {
		assertStringContains(t, adapter.Type(), "BadgerDB")
	})
}

func TestBadgerOutput_WriteRecord(t *testing.T) {
	adapter, closedb := makeTestBadgerOutput(t)
	defer closedb()

	t.Run("Writes record without error", func(t *testing.T) {
		err := adapter.WriteRecord(makeRecord("a1", It.KindIBI, time.Now()))
		assertError(t, err, nil)
	})

	t.Run("Ignores pending records", func(t *testing.T) {
		rec := makeRecord("p1", It.KindIBI, time.Now())
		rec.Status = It.StatusPending
		before := len(adapter.Buffer)
		err := adapter.WriteRecord(rec)
		assertError(t, err, nil)
		assertInt(t, len(adapter.Buffer), before)
	})

	t.Run("Flushes records for writing", func(t *testing.T) {
		adapter, closedb := makeTestBadgerOutput(t)
		defer closedb()

		start := time.Now()
		// the test adapter buffer size is 5
		recs := []*It.AnalysisRecord{
			makeRecord("b1", It.KindBandtPompe, start),
			makeRecord("b2", It.KindTauHeatmap, start.Add(1*time.Second)),
			makeRecord("b3", It.KindIBI, start.Add(2*time.Second)),
			makeRecord("b4", It.KindBandtPompe, start.Add(3*time.Second)),
			makeRecord("b5", It.KindIBI, start.Add(4*time.Second)),
		}
		for _, r := range recs {
			err := adapter.WriteRecord(r)
			assertError(t, err, nil)
		}
		assertInt(t, len(adapter.Buffer), 0)

		got, err := adapter.QueryRange(start.Add(-1*time.Second), start.Add(5*time.Second))
		assertError(t, err, nil)
		if len(got) != len(recs) {
			t.Fatalf("Expected %d records, got %d", len(recs), len(got))
		}

		// keys sort chronologically
		for i, r := range got {
			assertString(t, r.ID, recs[i].ID)
		}
	})
}

func TestBadgerOutput_RecordRoundTrip(t *testing.T) {
	adapter, closedb := makeTestBadgerOutput(t)
	defer closedb()

	start := time.Now()
	rec := makeRecord("trace-01", It.KindBandtPompe, start)
	rec.Trace = &It.EntropyTrace{
		Dimension: 3, Delay: 1, WindowSize: 4, Step: 2,
		Windows: []It.WindowEntropy{
			{Start: 0, Distribution: It.PatternDistribution{1, 0, 0, 0, 0, 0}, Entropy: 0, Time: math.NaN()},
		},
	}

	assertError(t, adapter.WriteBatch([]*It.AnalysisRecord{rec}), nil)

	got, err := adapter.QueryRange(start.Add(-time.Second), start.Add(time.Second))
	assertError(t, err, nil)
	if len(got) != 1 {
		t.Fatalf("Expected 1 record, got %d", len(got))
	}
	if got[0].Trace == nil || len(got[0].Trace.Windows) != 1 {
		t.Fatalf("Trace did not survive storage: %+v", got[0].Trace)
	}
	if !math.IsNaN(got[0].Trace.Windows[0].Time) {
		t.Errorf("NaN time sentinel lost, got %v", got[0].Trace.Windows[0].Time)
	}
}

func TestBadgerOutput_RecordKey(t *testing.T) {
	rec := makeRecord("0123456789abcdef", It.KindTauHeatmap, time.Now())
	key := Mp.RecordKey(rec)

	assertInt(t, len(key), 17)
	if key[8] != Mp.KindCode(It.KindTauHeatmap) {
		t.Errorf("kind byte = %d, want %d", key[8], Mp.KindCode(It.KindTauHeatmap))
	}
	if !bytes.Equal(key[9:], []byte("01234567")) {
		t.Errorf("RecordKey id = %q, want %q", key[9:], "01234567")
	}

	later := makeRecord("0123456789abcdef", It.KindTauHeatmap, rec.StartTime.Add(time.Millisecond))
	if bytes.Compare(key, Mp.RecordKey(later)) >= 0 {
		t.Errorf("keys do not sort by start time")
	}
}

func TestBadgerOutput_WriteBatch(t *testing.T) {
	tests := []struct {
		name    string
		recs    []*It.AnalysisRecord
		wantErr bool
	}{
		{name: "empty batch", recs: []*It.AnalysisRecord{}},
		{name: "single record", recs: []*It.AnalysisRecord{makeRecord("s1", It.KindIBI, time.Now())}},
		{
			name: "multiple records",
			recs: []*It.AnalysisRecord{
				makeRecord("m1", It.KindIBI, time.Now()),
				makeRecord("m2", It.KindIBI, time.Now().Add(1*time.Second)),
				makeRecord("m3", It.KindIBI, time.Now().Add(2*time.Second)),
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			adapter, closedb := makeTestBadgerOutput(t)
			defer closedb()

			err := adapter.WriteBatch(tt.recs)
			if (err != nil) != tt.wantErr {
				t.Errorf("WriteBatch() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestBadgerOutput_QueryRange(t *testing.T) {
	adapter, closedb := makeTestBadgerOutput(t)
	defer closedb()

	start := time.Now()
	for i := 0; i < 6; i++ {
		err := adapter.WriteRecord(makeRecord("q"+string(rune('a'+i)), It.KindIBI, start.Add(time.Duration(i)*time.Second)))
		assertError(t, err, nil)
	}
	assertError(t, adapter.Flush(), nil)

	t.Run("QueryRange excludes the bounds", func(t *testing.T) {
		got, err := adapter.QueryRange(start, start.Add(3*time.Second))
		assertError(t, err, nil)
		assertInt(t, len(got), 2)
	})

	t.Run("QueryRange returns everything in range", func(t *testing.T) {
		got, err := adapter.QueryRange(start.Add(-time.Second), start.Add(10*time.Second))
		assertError(t, err, nil)
		assertInt(t, len(got), 6)
	})
}

// Helpers //

func makeRecord(id string, kind It.AnalysisKind, start time.Time) *It.AnalysisRecord {
	return &It.AnalysisRecord{
		ID:        id,
		Name:      "test",
		Kind:      kind,
		Status:    It.StatusOK,
		IBI:       It.IBISequence{812, 790, 805},
		StartTime: start,
		Duration:  3 * time.Millisecond,
	}
}

func makeTestBadgerOutput(t *testing.T) (*Mp.BadgerOutput, func()) {
	t.Helper()

	opts := badger.DefaultOptions("").WithInMemory(true).WithLogger(nil)
	db, err := badger.Open(opts)
	assertError(t, err, nil)

	adapter := &Mp.BadgerOutput{
		DB:        db,
		BatchSize: 5,
		Buffer:    make([]*It.AnalysisRecord, 0, 5),
	}

	cleanup := func() {
		adapter.Close()
	}
	return adapter, cleanup
}
