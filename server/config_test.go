package ictus_test

import (
	"os"
	"testing"

	Ms "github.com/maroda/ictus/server"
)

// Temporary OS file to use for testing configurations
func createTempFile(t testing.TB, data string) (*os.File, func()) {
	t.Helper()
	tmpfile, err := os.CreateTemp("", "config")
	if err != nil {
		t.Fatalf("could not create temp file %v", err)
	}

	tmpfile.Write([]byte(data))
	removeFile := func() {
		tmpfile.Close()
		os.Remove(tmpfile.Name())
	}
	return tmpfile, removeFile
}

func TestLoadConfigFileName(t *testing.T) {
	configFile, delConfig := createTempFile(t, `[{
		  "id": "BREATH",
		  "kind": "bandt_pompe",
		  "url": "http://localhost:8080/ibi.json",
		  "key": "data.ibi",
		  "beats_key": "data.times",
		  "params": {"dimension": 3, "delay": 1, "window": 20, "step": 5, "plot": true}
		},
		{
		  "id": "ECG",
		  "kind": "ibi",
		  "delim": ",",
		  "samples": [0, 1, 0, -1],
		  "params": {"fs": 250}
		}]`)
	defer delConfig()
	fileName := configFile.Name()

	t.Run("Returns the correct id when loading", func(t *testing.T) {
		loadConfig, err := Ms.LoadConfigFileName(fileName)
		assertError(t, err, nil)
		assertInt(t, len(loadConfig), 2)
		assertString(t, loadConfig[0].ID, "BREATH")
		assertString(t, loadConfig[1].Kind, "ibi")
	})

	t.Run("Decodes analysis parameters", func(t *testing.T) {
		loadConfig, err := Ms.LoadConfigFileName(fileName)
		assertError(t, err, nil)

		p := loadConfig[0].Params
		assertInt(t, p.Dimension, 3)
		assertInt(t, p.Window, 20)
		assertInt(t, p.Step, 5)
		if !p.Plot {
			t.Errorf("expected plot to be set")
		}
		assertFloat(t, loadConfig[1].Params.SampleRate, 250)
		assertString(t, loadConfig[1].Delim, ",")
		assertString(t, loadConfig[0].BeatsKey, "data.times")
	})

	t.Run("Errors with malformed JSON", func(t *testing.T) {
		badFile, delBad := createTempFile(t, `[{
		  "id": "BREATH",
		  "kind": "bandt_pompe",
		}]`)
		defer delBad()

		_, err := Ms.LoadConfigFileName(badFile.Name())
		assertGotError(t, err)
	})

	t.Run("Errors with unknown fields", func(t *testing.T) {
		badFile, delBad := createTempFile(t, `[{"id": "X", "kind": "ibi", "samples": [1], "metrics": {}}]`)
		defer delBad()

		_, err := Ms.LoadConfigFileName(badFile.Name())
		assertGotError(t, err)
	})

	t.Run("Errors with empty file", func(t *testing.T) {
		emptyFile, delEmpty := createTempFile(t, "")
		defer delEmpty()

		_, err := Ms.LoadConfigFileName(emptyFile.Name())
		assertGotError(t, err)
		assertStringContains(t, err.Error(), "empty")
	})

	t.Run("Errors with missing file", func(t *testing.T) {
		_, err := Ms.LoadConfigFileName("/nonexistent/ictus.json")
		assertGotError(t, err)
	})

	t.Run("Errors with a stanza missing its series", func(t *testing.T) {
		badFile, delBad := createTempFile(t, `[{"id": "X", "kind": "ibi"}]`)
		defer delBad()

		_, err := Ms.LoadConfigFileName(badFile.Name())
		assertError(t, err, Ms.ErrConfig)
	})

	t.Run("Errors with duplicate ids", func(t *testing.T) {
		badFile, delBad := createTempFile(t, `[
			{"id": "X", "kind": "ibi", "samples": [1]},
			{"id": "X", "kind": "ibi", "samples": [2]}]`)
		defer delBad()

		_, err := Ms.LoadConfigFileName(badFile.Name())
		assertError(t, err, Ms.ErrConfig)
		assertStringContains(t, err.Error(), "duplicate")
	})
}

func TestConfigFileValidate(t *testing.T) {
	tests := []struct {
		name string
		cf   Ms.ConfigFile
		ok   bool
	}{
		{"inline samples", Ms.ConfigFile{ID: "a", Kind: "ibi", Samples: []float64{1}}, true},
		{"url only", Ms.ConfigFile{ID: "a", Kind: "ibi", URL: "http://x"}, true},
		{"no id", Ms.ConfigFile{Kind: "ibi", Samples: []float64{1}}, false},
		{"no kind", Ms.ConfigFile{ID: "a", Samples: []float64{1}}, false},
		{"no series", Ms.ConfigFile{ID: "a", Kind: "ibi"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cf.Validate()
			if tt.ok {
				assertError(t, err, nil)
			} else {
				assertError(t, err, Ms.ErrConfig)
			}
		})
	}
}
