package ictus

import (
	"encoding/json"
	"errors"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/maroda/ictus/dispatch"
	Mp "github.com/maroda/ictus/plugin"
	Ms "github.com/maroda/ictus/server"
	It "github.com/maroda/ictus/types"
)

const maxBodyBytes = 32 << 20

// SetupMux handles all data serving:
// - Prometheus metric endpoint
// - Websocket of completed analyses
// - Version for programmatic use
// - Analysis submission and results
func (v *View) SetupMux() *mux.Router {
	r := mux.NewRouter()

	r.Handle("/metrics", v.Stats.Handler())
	r.HandleFunc("/ws", v.WebsocketHandler)

	api := r.PathPrefix("/api").Subrouter()
	api.Use(v.StatsMiddleware)
	api.HandleFunc("/version", v.VersionHandler).Methods(http.MethodGet)
	api.HandleFunc("/v1/analyses", v.ListHandler).Methods(http.MethodGet)
	api.HandleFunc("/v1/analyses/{kind}", v.SubmitHandler).Methods(http.MethodPost)
	api.HandleFunc("/v1/analyses/{id}", v.RecordHandler).Methods(http.MethodGet)
	api.HandleFunc("/v1/store", v.StoreHandler).Methods(http.MethodGet)

	return r
}

var Version = "dev"

func (v *View) VersionHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"version": Version})
}

// Float marshals NaN and infinities as null
type Float float64

func (f Float) MarshalJSON() ([]byte, error) {
	x := float64(f)
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return []byte("null"), nil
	}
	return json.Marshal(x)
}

func toFloats(v []float64) []Float {
	if v == nil {
		return nil
	}
	out := make([]Float, len(v))
	for i, x := range v {
		out[i] = Float(x)
	}
	return out
}

type WindowJSON struct {
	Start        int     `json:"start"`
	Entropy      Float   `json:"entropy"`
	Time         Float   `json:"time"`
	Distribution []Float `json:"distribution"`
}

type TraceJSON struct {
	Dimension int          `json:"dimension"`
	Delay     int          `json:"delay"`
	Window    int          `json:"window"`
	Step      int          `json:"step"`
	Windows   []WindowJSON `json:"windows"`
}

type HeatmapJSON struct {
	Dimension   int       `json:"dimension"`
	DelayMax    int       `json:"delay_max"`
	Window      int       `json:"window"`
	Step        int       `json:"step"`
	Rows        [][]Float `json:"rows"`
	EmptyDelays []int     `json:"empty_delays,omitempty"`
}

// RecordJSON is the tagged result served by the API and the websocket
type RecordJSON struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Kind       string    `json:"kind"`
	Status     string    `json:"status"`
	Message    string    `json:"message,omitempty"`
	Payload    any       `json:"payload,omitempty"`
	StartTime  time.Time `json:"start_time"`
	DurationMS float64   `json:"duration_ms"`
}

// RecordView converts a record for the wire
func RecordView(rec It.AnalysisRecord) RecordJSON {
	out := RecordJSON{
		ID:         rec.ID,
		Name:       rec.Name,
		Kind:       string(rec.Kind),
		Status:     rec.Status,
		Message:    rec.Message,
		StartTime:  rec.StartTime,
		DurationMS: float64(rec.Duration.Microseconds()) / 1000,
	}
	if rec.Status != It.StatusOK {
		return out
	}

	switch {
	case rec.Trace != nil:
		tr := TraceJSON{
			Dimension: rec.Trace.Dimension,
			Delay:     rec.Trace.Delay,
			Window:    rec.Trace.WindowSize,
			Step:      rec.Trace.Step,
			Windows:   make([]WindowJSON, len(rec.Trace.Windows)),
		}
		for i, w := range rec.Trace.Windows {
			tr.Windows[i] = WindowJSON{
				Start:        w.Start,
				Entropy:      Float(w.Entropy),
				Time:         Float(w.Time),
				Distribution: toFloats(w.Distribution),
			}
		}
		out.Payload = tr
	case rec.Heatmap != nil:
		hm := HeatmapJSON{
			Dimension:   rec.Heatmap.Dimension,
			DelayMax:    rec.Heatmap.DelayMax,
			Window:      rec.Heatmap.WindowSize,
			Step:        rec.Heatmap.Step,
			Rows:        make([][]Float, len(rec.Heatmap.Rows)),
			EmptyDelays: rec.Heatmap.EmptyDelays,
		}
		for i, row := range rec.Heatmap.Rows {
			hm.Rows[i] = toFloats(row)
		}
		out.Payload = hm
	case rec.IBI != nil:
		out.Payload = toFloats(rec.IBI)
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("Could not encode response", slog.Any("Error", err))
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"status": It.StatusError, "message": err.Error()})
}

// SubmitHandler accepts a configuration stanza for the kind in the path.
// With ?wait=true the response carries the finished record.
func (v *View) SubmitHandler(w http.ResponseWriter, r *http.Request) {
	kind := mux.Vars(r)["kind"]

	var cf Ms.ConfigFile
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cf); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	cf.Kind = kind
	if cf.ID == "" {
		cf.ID = kind
	}
	if err := cf.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	id, err := Ms.SubmitConfig(v.Dispatch, cf, v.Diagnostics(""))
	switch {
	case errors.Is(err, Mp.ErrUnknownAnalyzer):
		writeError(w, http.StatusNotFound, err)
		return
	case errors.Is(err, Ms.ErrSource):
		writeError(w, http.StatusBadGateway, err)
		return
	case err != nil:
		writeError(w, http.StatusBadRequest, err)
		return
	}

	wait, _ := strconv.ParseBool(r.URL.Query().Get("wait"))
	if !wait {
		writeJSON(w, http.StatusAccepted, map[string]string{"id": id, "status": It.StatusPending})
		return
	}

	rec, err := v.Dispatch.Await(r.Context(), id)
	if err != nil {
		// the client went away, the job keeps running
		writeJSON(w, http.StatusAccepted, map[string]string{"id": id, "status": It.StatusPending})
		return
	}
	status := http.StatusOK
	if rec.Status == It.StatusError {
		status = http.StatusUnprocessableEntity
	}
	writeJSON(w, status, RecordView(rec))
}

// RecordHandler returns one record, pending or finished
func (v *View) RecordHandler(w http.ResponseWriter, r *http.Request) {
	rec, err := v.Dispatch.Record(mux.Vars(r)["id"])
	if errors.Is(err, dispatch.ErrUnknownJob) {
		writeError(w, http.StatusNotFound, err)
		return
	}
	writeJSON(w, http.StatusOK, RecordView(rec))
}

// ListHandler returns every record in submission order
func (v *View) ListHandler(w http.ResponseWriter, r *http.Request) {
	records := v.Dispatch.Records()
	out := make([]RecordJSON, len(records))
	for i, rec := range records {
		out[i] = RecordView(rec)
	}
	writeJSON(w, http.StatusOK, out)
}

// StoreHandler queries the result store between ?from= and ?to= (RFC 3339).
// The range defaults to everything up to now.
func (v *View) StoreHandler(w http.ResponseWriter, r *http.Request) {
	v.MU.Lock()
	store := v.Store
	v.MU.Unlock()
	if store == nil {
		writeError(w, http.StatusServiceUnavailable, errors.New("no output configured"))
		return
	}

	from, err := parseTime(r.URL.Query().Get("from"), time.Unix(0, 0))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	to, err := parseTime(r.URL.Query().Get("to"), time.Now().Add(time.Second))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	if err := store.Flush(); err != nil {
		slog.Warn("Store flush failed before query", slog.Any("Error", err))
	}
	recs, err := store.QueryRange(from, to)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	out := make([]RecordJSON, len(recs))
	for i, rec := range recs {
		out[i] = RecordView(*rec)
	}
	writeJSON(w, http.StatusOK, out)
}

func parseTime(s string, def time.Time) (time.Time, error) {
	if s == "" {
		return def, nil
	}
	return time.Parse(time.RFC3339Nano, s)
}
