package ictus

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"

	It "github.com/maroda/ictus/types"
)

// ConfigFile is one analysis stanza of a batch configuration.
// The series comes from Samples inline, or from URL when Samples is empty.
type ConfigFile struct {
	ID        string            `json:"id"`
	Kind      string            `json:"kind"`
	URL       string            `json:"url,omitempty"`
	Key       string            `json:"key,omitempty"`       // dotted JSON path of the samples
	BeatsKey  string            `json:"beats_key,omitempty"` // dotted JSON path of the beat times
	Delim     string            `json:"delim,omitempty"`     // field delimiter of text bodies
	Samples   []float64         `json:"samples,omitempty"`
	BeatTimes []float64         `json:"beat_times,omitempty"`
	Params    It.AnalysisParams `json:"params"`
}

var ErrConfig = errors.New("invalid configuration")

// LoadConfigFileName pulls a given filename config off local disk
// Validation is performed on the file before opening
func LoadConfigFileName(filename string) ([]ConfigFile, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	// validation
	err = validateLoad(file)
	if err != nil {
		slog.Error("Validation failed", slog.Any("Error", err))
		return nil, err
	}

	return LoadConfig(file)
}

func validateLoad(file *os.File) error {
	// validate file
	info, err := file.Stat()
	if err != nil {
		slog.Error("could not stat file")
		return err
	}

	// validate size
	if info.Size() == 0 {
		slog.Error("file is empty")
		return errors.New("file is empty")
	}

	return nil
}

// LoadConfig decodes and checks every stanza
func LoadConfig(file *os.File) ([]ConfigFile, error) {
	var config []ConfigFile
	decoder := json.NewDecoder(file)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&config); err != nil {
		slog.Error("could not decode file", slog.Any("Error", err))
		return nil, err
	}

	seen := make(map[string]bool, len(config))
	for i, c := range config {
		if err := c.Validate(); err != nil {
			return nil, fmt.Errorf("stanza %d: %w", i, err)
		}
		if seen[c.ID] {
			return nil, fmt.Errorf("%w: duplicate id %q", ErrConfig, c.ID)
		}
		seen[c.ID] = true
	}

	return config, nil
}

// Validate checks the fields every stanza needs
func (c ConfigFile) Validate() error {
	if c.ID == "" {
		return fmt.Errorf("%w: id is required", ErrConfig)
	}
	if c.Kind == "" {
		return fmt.Errorf("%w: %s: kind is required", ErrConfig, c.ID)
	}
	if len(c.Samples) == 0 && c.URL == "" {
		return fmt.Errorf("%w: %s: needs samples or a url", ErrConfig, c.ID)
	}
	return nil
}
