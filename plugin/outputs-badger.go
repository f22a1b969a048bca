package plugin

import (
	"bytes"
	"encoding/binary"
	"encoding/gob"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"
	It "github.com/maroda/ictus/types"
)

const (
	keyTimeLen = 8
	keyIDLen   = 8
	keyLen     = keyTimeLen + 1 + keyIDLen
)

type BadgerOutput struct {
	MU        sync.Mutex
	DB        *badger.DB
	BatchSize int
	Buffer    []*It.AnalysisRecord
}

func NewBadgerOutput(path string, batchSize int) (*BadgerOutput, error) {
	if batchSize < 1 {
		batchSize = 1
	}
	opts := badger.DefaultOptions(path).
		WithCompression(options.ZSTD).
		WithNumVersionsToKeep(1).
		WithLogger(nil)

	db, err := badger.Open(opts)
	if err != nil {
		slog.Error("BadgerOutput failed to open database", slog.Any("error", err))
		return nil, fmt.Errorf("database error: %w", err)
	}

	slog.Info("BadgerOutput opened",
		slog.String("path", path),
		slog.Int("batchSize", batchSize))

	return &BadgerOutput{
		DB:        db,
		BatchSize: batchSize,
		Buffer:    make([]*It.AnalysisRecord, 0, batchSize),
	}, nil
}

// WriteRecord queues a record; a full buffer is written as one batch.
// Pending records are never stored.
func (bo *BadgerOutput) WriteRecord(rec *It.AnalysisRecord) error {
	if rec == nil || rec.Status == It.StatusPending {
		return nil
	}

	bo.MU.Lock()
	defer bo.MU.Unlock()

	bo.Buffer = append(bo.Buffer, rec)
	if len(bo.Buffer) >= bo.BatchSize {
		return bo.flushLocked()
	}
	return nil
}

// WriteBatch performs the key/value creation to be stored
// and actually calls BadgerDB to write the data
func (bo *BadgerOutput) WriteBatch(recs []*It.AnalysisRecord) error {
	wb := bo.DB.NewWriteBatch()
	defer wb.Cancel()

	for _, r := range recs {
		v, err := RecordEncode(r)
		if err != nil {
			return fmt.Errorf("record %s: %w", r.ID, err)
		}
		if err := wb.Set(RecordKey(r), v); err != nil {
			slog.Error("BadgerOutput failed to set key in batch",
				slog.Any("error", err),
				slog.Time("startTime", r.StartTime),
				slog.String("id", r.ID))
			return fmt.Errorf("write batch error: %w", err)
		}
	}

	if err := wb.Flush(); err != nil {
		slog.Error("BadgerOutput failed to flush batch", slog.Any("error", err))
		return fmt.Errorf("batch flush error: %w", err)
	}
	return nil
}

// Flush writes out and clears the buffer
func (bo *BadgerOutput) Flush() error {
	bo.MU.Lock()
	defer bo.MU.Unlock()
	return bo.flushLocked()
}

// flushLocked expects bo.MU to be held
func (bo *BadgerOutput) flushLocked() error {
	if len(bo.Buffer) == 0 {
		return nil
	}
	err := bo.WriteBatch(bo.Buffer)
	bo.Buffer = bo.Buffer[:0] // Clear but keep capacity
	return err
}

// Close returns a Flush error but still attempts to close
func (bo *BadgerOutput) Close() error {
	slog.Info("BadgerOutput closing, flushing buffer",
		slog.Int("bufferSize", len(bo.Buffer)))
	flushErr := bo.Flush()
	closeErr := bo.DB.Close()

	if flushErr != nil {
		slog.Error("BadgerOutput failed to flush on close", slog.Any("error", flushErr))
		return fmt.Errorf("flush failed, close may have failed: %w", flushErr)
	}
	if closeErr != nil {
		slog.Error("BadgerOutput failed to close database", slog.Any("error", closeErr))
		return fmt.Errorf("close failed: %w", closeErr)
	}

	slog.Info("BadgerOutput closed successfully")
	return nil
}

func (bo *BadgerOutput) Type() string { return "BadgerDB" }

// RecordKey creates a composite key
// start time + kind code + first eight bytes of the job ID
func RecordKey(rec *It.AnalysisRecord) []byte {
	key := make([]byte, keyLen)

	// Positive BigEndian nanoseconds sort chronologically in BadgerDB
	binary.BigEndian.PutUint64(key[:keyTimeLen], uint64(rec.StartTime.UnixNano()))
	key[keyTimeLen] = KindCode(rec.Kind)
	copy(key[keyTimeLen+1:], rec.ID)
	return key
}

// KindCode is the one-byte tag of a kind inside RecordKey, 0 when unknown.
func KindCode(k It.AnalysisKind) byte {
	switch k {
	case It.KindBandtPompe:
		return 1
	case It.KindTauHeatmap:
		return 2
	case It.KindIBI:
		return 3
	default:
		return 0
	}
}

// RecordEncode serializes the record for data storage
func RecordEncode(r *It.AnalysisRecord) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(r); err != nil {
		return nil, fmt.Errorf("record encode error: %w", err)
	}
	return buf.Bytes(), nil
}

// RecordDecode deserializes the record data
func RecordDecode(data []byte) (*It.AnalysisRecord, error) {
	var r It.AnalysisRecord
	err := gob.NewDecoder(bytes.NewReader(data)).Decode(&r)
	return &r, err
}

// QueryRange retrieves records started strictly between start and end
func (bo *BadgerOutput) QueryRange(start, end time.Time) ([]*It.AnalysisRecord, error) {
	var recs []*It.AnalysisRecord

	seek := make([]byte, keyTimeLen)
	binary.BigEndian.PutUint64(seek, uint64(start.UnixNano()))
	stop := uint64(end.UnixNano())

	err := bo.DB.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		for it.Seek(seek); it.Valid(); it.Next() {
			item := it.Item()
			if binary.BigEndian.Uint64(item.Key()[:keyTimeLen]) >= stop {
				break
			}

			err := item.Value(func(val []byte) error {
				rec, err := RecordDecode(val)
				if err != nil {
					slog.Error("BadgerOutput failed to decode record", slog.Any("error", err))
					return fmt.Errorf("record decode error: %w", err)
				}
				if rec.StartTime.After(start) && rec.StartTime.Before(end) {
					recs = append(recs, rec)
				}
				return nil
			})
			if err != nil {
				return fmt.Errorf("item data error: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		slog.Error("BadgerOutput QueryRange failed", slog.Any("error", err))
		return nil, err
	}

	slog.Debug("BadgerOutput QueryRange successful", slog.Int("count", len(recs)))
	return recs, nil
}
