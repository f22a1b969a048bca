package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"runtime/debug"
	"sync"
	"time"

	"github.com/google/uuid"
	Mo "github.com/maroda/ictus/obvy"
	It "github.com/maroda/ictus/types"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/semaphore"
)

var (
	// ErrUnknownJob is returned when looking up an ID that was never submitted.
	ErrUnknownJob = errors.New("dispatch: unknown job id")

	// ErrClosed is the result of work submitted after Close.
	ErrClosed = errors.New("dispatch: dispatcher is closed")
)

// Recorder receives every completed record, e.g. a result store.
type Recorder interface {
	WriteRecord(rec *It.AnalysisRecord) error
}

// Dispatcher runs analyses on their own goroutines, at most Workers at a time.
type Dispatcher struct {
	MU      sync.RWMutex
	WG      sync.WaitGroup
	Workers int
	Stats   *Mo.StatsInternal
	Output  Recorder

	sem     *semaphore.Weighted
	ctx     context.Context
	cancel  context.CancelFunc
	closed  bool
	jobs    map[string]*job
	order   []string
	subs    map[int]chan It.AnalysisRecord
	nextSub int
}

type job struct {
	record It.AnalysisRecord
	done   chan struct{}
}

// New returns a Dispatcher with the given worker limit;
// zero or less means GOMAXPROCS.
func New(workers int, stats *Mo.StatsInternal) *Dispatcher {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if stats == nil {
		stats = Mo.NewStatsInternal()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Dispatcher{
		Workers: workers,
		Stats:   stats,
		sem:     semaphore.NewWeighted(int64(workers)),
		ctx:     ctx,
		cancel:  cancel,
		jobs:    make(map[string]*job),
		subs:    make(map[int]chan It.AnalysisRecord),
	}
}

// Task describes one unit of work.
// Run receives a context that ends when the Dispatcher closes.
// Fill copies a successful payload into the stored record.
type Task[T any] struct {
	Kind It.AnalysisKind
	Name string
	Run  func(ctx context.Context) (T, error)
	Fill func(rec *It.AnalysisRecord, payload T)
}

// Submit starts task in the background and returns immediately.
// The Future receives exactly one Result.
func Submit[T any](d *Dispatcher, task Task[T]) *Future[T] {
	id := uuid.NewString()
	fut := newFuture[T](id, task.Kind)

	j := &job{
		record: It.AnalysisRecord{
			ID:        id,
			Name:      task.Name,
			Kind:      task.Kind,
			Status:    It.StatusPending,
			StartTime: time.Now(),
		},
		done: make(chan struct{}),
	}

	d.MU.Lock()
	if d.closed {
		d.MU.Unlock()
		fut.resolve(errResult[T](ErrClosed))
		return fut
	}
	d.jobs[id] = j
	d.order = append(d.order, id)
	d.WG.Add(1)
	d.MU.Unlock()

	d.Stats.JobStarted()
	go run(d, fut, j, task)
	return fut
}

// run is the isolation boundary: panics and errors become error results.
func run[T any](d *Dispatcher, fut *Future[T], j *job, task Task[T]) {
	defer d.WG.Done()
	defer d.Stats.JobDone()

	ctx, span := Mo.Tracer().Start(d.ctx, "analysis."+string(task.Kind))
	span.SetAttributes(
		attribute.String("analysis.id", fut.ID),
		attribute.String("analysis.kind", string(task.Kind)),
		attribute.String("analysis.name", task.Name),
	)
	defer span.End()

	res := func() (res Result[T]) {
		defer func() {
			if r := recover(); r != nil {
				slog.Error("Panic in analysis",
					slog.String("id", fut.ID),
					slog.String("kind", string(task.Kind)),
					slog.Any("panic", r))
				slog.Error("Recovered from panic", slog.String("stack", string(debug.Stack())))
				res = errResult[T](fmt.Errorf("dispatch: analysis panicked: %v", r))
			}
		}()

		if err := d.sem.Acquire(ctx, 1); err != nil {
			return errResult[T](err)
		}
		defer d.sem.Release(1)

		payload, err := task.Run(ctx)
		if err != nil {
			return errResult[T](err)
		}
		return okResult(payload)
	}()

	rec := d.finish(j, res.Status, res.Message, func(r *It.AnalysisRecord) {
		if res.OK() && task.Fill != nil {
			task.Fill(r, res.Payload)
		}
	})

	if res.OK() {
		span.SetStatus(codes.Ok, "")
	} else {
		span.SetStatus(codes.Error, res.Message)
		slog.Warn("Analysis failed",
			slog.String("id", fut.ID),
			slog.String("kind", string(task.Kind)),
			slog.String("error", res.Message))
	}
	d.Stats.RecJob(string(task.Kind), res.Status, rec.Duration.Seconds())

	fut.resolve(res)
}

// finish seals the stored record, writes it to Output, releases waiters
// and notifies subscribers.
func (d *Dispatcher) finish(j *job, status, message string, fill func(*It.AnalysisRecord)) It.AnalysisRecord {
	d.MU.Lock()
	j.record.Status = status
	j.record.Message = message
	j.record.Duration = time.Since(j.record.StartTime)
	fill(&j.record)
	rec := j.record

	subs := make([]chan It.AnalysisRecord, 0, len(d.subs))
	for _, ch := range d.subs {
		subs = append(subs, ch)
	}
	out := d.Output
	d.MU.Unlock()

	if out != nil {
		if err := out.WriteRecord(&rec); err != nil {
			slog.Error("Failed to store analysis record",
				slog.String("id", rec.ID),
				slog.Any("Error", err))
		}
	}
	// Await returns only once the record is stored
	close(j.done)

	for _, ch := range subs {
		select {
		case ch <- rec:
		default:
			slog.Warn("Subscriber is behind, dropping record", slog.String("id", rec.ID))
		}
	}
	return rec
}

// Record returns the stored record for id; pending jobs report StatusPending.
func (d *Dispatcher) Record(id string) (It.AnalysisRecord, error) {
	d.MU.RLock()
	defer d.MU.RUnlock()

	j, ok := d.jobs[id]
	if !ok {
		return It.AnalysisRecord{}, fmt.Errorf("%w: %s", ErrUnknownJob, id)
	}
	return j.record, nil
}

// Records lists every known record in submission order.
func (d *Dispatcher) Records() []It.AnalysisRecord {
	d.MU.RLock()
	defer d.MU.RUnlock()

	out := make([]It.AnalysisRecord, 0, len(d.order))
	for _, id := range d.order {
		out = append(out, d.jobs[id].record)
	}
	return out
}

// Await blocks until job id finishes or ctx ends.
func (d *Dispatcher) Await(ctx context.Context, id string) (It.AnalysisRecord, error) {
	d.MU.RLock()
	j, ok := d.jobs[id]
	d.MU.RUnlock()
	if !ok {
		return It.AnalysisRecord{}, fmt.Errorf("%w: %s", ErrUnknownJob, id)
	}

	select {
	case <-j.done:
		return d.Record(id)
	case <-ctx.Done():
		return It.AnalysisRecord{}, ctx.Err()
	}
}

// Subscribe streams every record completed from now on.
// A slow reader loses records rather than stalling workers.
func (d *Dispatcher) Subscribe(buffer int) (<-chan It.AnalysisRecord, func()) {
	ch := make(chan It.AnalysisRecord, max(buffer, 1))

	d.MU.Lock()
	id := d.nextSub
	d.nextSub++
	d.subs[id] = ch
	d.MU.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			d.MU.Lock()
			delete(d.subs, id)
			d.MU.Unlock()
		})
	}
}

// Close refuses new work, cancels running analyses at their next
// checkpoint and waits for every worker to deliver its result.
func (d *Dispatcher) Close() {
	d.MU.Lock()
	if d.closed {
		d.MU.Unlock()
		return
	}
	d.closed = true
	d.MU.Unlock()

	d.cancel()
	d.WG.Wait()
}

// Drain waits for the work already submitted, without cancelling it.
func (d *Dispatcher) Drain(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		d.WG.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
