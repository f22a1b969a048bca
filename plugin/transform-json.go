package plugin

/*
	JSON series extraction

	Remote sources hand back JSON documents; a dotted key path
	("data.ibi") points at the array of samples inside them.
*/

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	It "github.com/maroda/ictus/types"
)

var ErrNotNumeric = errors.New("value is not numeric")

// SeriesFromJSON decodes body and pulls the samples at samplesKey and,
// when beatsKey is set, the parallel beat times.
func SeriesFromJSON(body []byte, samplesKey, beatsKey string) (It.TimeSeries, error) {
	var data interface{}
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	if err := dec.Decode(&data); err != nil {
		slog.Error("Error unmarshalling json",
			slog.String("search", samplesKey),
			slog.Any("error", err))
		return It.TimeSeries{}, fmt.Errorf("error unmarshalling json series: %w", err)
	}

	samples, err := ExtractSeries(data, samplesKey)
	if err != nil {
		return It.TimeSeries{}, fmt.Errorf("samples: %w", err)
	}
	ts := It.TimeSeries{Samples: samples}

	if beatsKey != "" {
		if ts.BeatTimes, err = ExtractSeries(data, beatsKey); err != nil {
			return It.TimeSeries{}, fmt.Errorf("beat times: %w", err)
		}
	}
	return ts, nil
}

// ExtractSeries walks the dotted key path and converts the array found there.
// An empty path means data itself is the array.
func ExtractSeries(data interface{}, path string) ([]float64, error) {
	current, err := traverse(data, path)
	if err != nil {
		return nil, err
	}

	arr, ok := current.([]interface{})
	if !ok {
		return nil, fmt.Errorf("%w: expected array at %q, found %T", ErrNotNumeric, path, current)
	}

	out := make([]float64, len(arr))
	for i, v := range arr {
		f, err := toFloat(v)
		if err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}
		out[i] = f
	}
	return out, nil
}

// ExtractValue returns the single number at the dotted key path.
func ExtractValue(data interface{}, path string) (float64, error) {
	current, err := traverse(data, path)
	if err != nil {
		return 0, err
	}
	return toFloat(current)
}

func traverse(data interface{}, path string) (interface{}, error) {
	current := data
	if path == "" {
		return current, nil
	}

	for _, key := range strings.Split(path, ".") {
		switch v := current.(type) {
		case map[string]interface{}:
			var ok bool
			current, ok = v[key]
			if !ok {
				return nil, fmt.Errorf("key %s not found", key)
			}
		case []interface{}:
			return nil, fmt.Errorf("array indexing not implemented yet")
		default:
			return nil, fmt.Errorf("cannot traverse into type %T at key %s", v, key)
		}
	}
	return current, nil
}

func toFloat(v interface{}) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case int64:
		return float64(n), nil
	case int:
		return float64(n), nil
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return 0, fmt.Errorf("error converting json.Number: %w", err)
		}
		return f, nil
	default:
		return 0, fmt.Errorf("%w: %T", ErrNotNumeric, v)
	}
}

const (
	summaryItems = 6
	summaryChars = 200
)

// Summarize renders a short description of a value for listings:
// numeric arrays show their shape and first items, anything else is
// printed and cut to a fixed width.
func Summarize(v interface{}) string {
	switch a := v.(type) {
	case []float64:
		return fmt.Sprintf("array shape=(%d), data=[%s]", len(a), snippet(a, len(a)))
	case It.IBISequence:
		return Summarize([]float64(a))
	case [][]float64:
		flat := make([]float64, 0, summaryItems)
		total, cols := 0, 0
		for _, row := range a {
			total += len(row)
			cols = max(cols, len(row))
			for _, x := range row {
				if len(flat) < summaryItems {
					flat = append(flat, x)
				}
			}
		}
		return fmt.Sprintf("array shape=(%d, %d), data=[%s]", len(a), cols, snippet(flat, total))
	}

	s := fmt.Sprintf("%#v", v)
	if len(s) > summaryChars {
		s = s[:summaryChars]
	}
	return s
}

func snippet(a []float64, total int) string {
	parts := make([]string, 0, summaryItems)
	for i := 0; i < len(a) && i < summaryItems; i++ {
		parts = append(parts, fmt.Sprint(a[i]))
	}
	out := strings.Join(parts, ", ")
	if total > summaryItems {
		out += "..."
	}
	return out
}
