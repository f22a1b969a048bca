package ictus

import (
	"log/slog"
	"math"
	"os"
	"strconv"
)

// FillEnvVar returns the value of a runtime Environment Variable
func FillEnvVar(ev string) string {
	// If the EnvVar doesn't exist return a default string
	value := os.Getenv(ev)
	if value == "" {
		value = "ENOENT"
	}
	return value
}

// FillEnvVarDefault is FillEnvVar with a caller supplied default
func FillEnvVarDefault(ev, def string) string {
	if value := FillEnvVar(ev); value != "ENOENT" {
		return value
	}
	return def
}

// FillEnvVarInt reads an integer Environment Variable, falling back to def
func FillEnvVarInt(ev string, def int) int {
	value := os.Getenv(ev)
	if value == "" {
		return def
	}
	i, err := strconv.Atoi(value)
	if err != nil {
		slog.Warn("Environment variable is not an integer, using default",
			slog.String("var", ev),
			slog.String("value", value),
			slog.Int("default", def))
		return def
	}
	return i
}

// FloatPrecise rounds f to the given number of decimal places
func FloatPrecise(f float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(f*p) / p
}
