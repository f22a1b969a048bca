package ictus

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	Mp "github.com/maroda/ictus/plugin"
	It "github.com/maroda/ictus/types"
)

const (
	webTimeout = 10 * time.Second
)

var ErrFetchStatus = errors.New("unexpected response status")

type HTTPClient interface {
	Get(string) (*http.Response, error)
}

// Shared HTTP Client
var sharedHTTPClient = &http.Client{
	Timeout: webTimeout,
	Transport: &http.Transport{
		MaxIdleConns:        10,
		MaxIdleConnsPerHost: 2,
		IdleConnTimeout:     30 * time.Second,
	},
}

// SingleFetchWithClient handles the messy business of the HTTP connection
// and is testable with dependency injection, called by SingleFetch
func SingleFetchWithClient(url string, c HTTPClient) (int, []byte, error) {
	resp, err := c.Get(url)
	if err != nil {
		slog.Error("Fetch Error", slog.Any("Error", err))
		return 0, nil, err
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			slog.Error("Close Error", slog.Any("Error", err))
		}
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		slog.Error("Could not read body", slog.Any("Error", err))
		return 0, nil, err
	}

	return resp.StatusCode, body, nil
}

// SingleFetch returns the Response Code, raw byte stream body, and error
// This uses a Shared HTTP Client:
// - to reuse existing endpoint connections
// - to avoid stale connections that eat up OS FDs
func SingleFetch(url string) (int, []byte, error) {
	return SingleFetchWithClient(url, sharedHTTPClient)
}

// LoadSeries returns the stanza's inline series, or fetches it from the URL
func LoadSeries(c ConfigFile) (It.TimeSeries, error) {
	if len(c.Samples) > 0 {
		return It.TimeSeries{Samples: c.Samples, BeatTimes: c.BeatTimes}, nil
	}
	return FetchSeries(c.URL, c.Key, c.BeatsKey, c.Delim)
}

// FetchSeries downloads a series. JSON bodies are searched with key and
// beatsKey, anything else is read as delimited text by ParseSeries.
func FetchSeries(url, key, beatsKey, delim string) (It.TimeSeries, error) {
	status, body, err := SingleFetch(url)
	if err != nil {
		return It.TimeSeries{}, err
	}
	if status != http.StatusOK {
		return It.TimeSeries{}, fmt.Errorf("%w: %d from %s", ErrFetchStatus, status, url)
	}

	trimmed := bytes.TrimSpace(body)
	if len(trimmed) > 0 && (trimmed[0] == '{' || trimmed[0] == '[') {
		return Mp.SeriesFromJSON(trimmed, key, beatsKey)
	}
	return ParseSeries(bytes.NewReader(body), delim)
}

// ParseSeries reads one sample per line, optionally followed by its beat
// time after the delimiter, removing whitespace and comments.
// An empty delimiter splits on commas and whitespace.
func ParseSeries(reader io.Reader, d string) (It.TimeSeries, error) {
	var ts It.TimeSeries
	withBeats := -1 // unknown until the first data line
	scanner := bufio.NewScanner(reader)

	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())

		// ignore whitespace and comments
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		if pos := strings.Index(text, "#"); pos != -1 {
			text = strings.TrimSpace(text[:pos])
		}

		fields := splitFields(text, d)
		if len(fields) > 2 {
			return It.TimeSeries{}, fmt.Errorf("line %d: expected 1 or 2 fields, found %d", line, len(fields))
		}
		if withBeats == -1 {
			withBeats = len(fields) - 1
		}
		if len(fields)-1 != withBeats {
			return It.TimeSeries{}, fmt.Errorf("line %d: column count changed", line)
		}

		sample, err := strconv.ParseFloat(fields[0], 64)
		if err != nil {
			return It.TimeSeries{}, fmt.Errorf("line %d: %w", line, err)
		}
		ts.Samples = append(ts.Samples, sample)

		if withBeats == 1 {
			bt, err := strconv.ParseFloat(fields[1], 64)
			if err != nil {
				return It.TimeSeries{}, fmt.Errorf("line %d: %w", line, err)
			}
			ts.BeatTimes = append(ts.BeatTimes, bt)
		}
	}

	if err := scanner.Err(); err != nil {
		slog.Error("Problem scanning input", slog.Any("Error", err))
		return It.TimeSeries{}, fmt.Errorf("scanning error: %w", err)
	}

	return ts, nil
}

func splitFields(text, d string) []string {
	if d == "" {
		return strings.FieldsFunc(text, func(r rune) bool {
			return r == ',' || r == ' ' || r == '\t' || r == ';'
		})
	}
	parts := strings.Split(text, d)
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
