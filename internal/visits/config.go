package visits

import (
	"fmt"
	"os"
	"strconv"
)

// Config holds the externally-supplied knobs for the verification engine.
type Config struct {
	// DefaultRadiusM is the geofence radius used when a station has no
	// per-station override. There is deliberately no compiled-in production
	// radius: the deployment must choose one.
	DefaultRadiusM float64

	// ConfidenceThreshold is the minimum roundel-read confidence for a
	// verified check-in.
	ConfidenceThreshold float64
}

// LoadFromEnv loads engine configuration from environment variables.
//
// Environment variables:
//   - GEOFENCE_DEFAULT_RADIUS_M: fallback geofence radius in meters (required)
//   - OCR_CONFIDENCE_THRESHOLD: minimum read confidence (default: 0.7)
func LoadFromEnv() (Config, error) {
	rawRadius := os.Getenv("GEOFENCE_DEFAULT_RADIUS_M")
	if rawRadius == "" {
		return Config{}, fmt.Errorf("GEOFENCE_DEFAULT_RADIUS_M is not set")
	}
	radius, err := strconv.ParseFloat(rawRadius, 64)
	if err != nil || radius <= 0 {
		return Config{}, fmt.Errorf("invalid GEOFENCE_DEFAULT_RADIUS_M %q", rawRadius)
	}

	threshold := DefaultConfidenceThreshold
	if raw := os.Getenv("OCR_CONFIDENCE_THRESHOLD"); raw != "" {
		parsed, err := strconv.ParseFloat(raw, 64)
		if err != nil || parsed <= 0 || parsed > 1 {
			return Config{}, fmt.Errorf("invalid OCR_CONFIDENCE_THRESHOLD %q", raw)
		}
		threshold = parsed
	}

	return Config{
		DefaultRadiusM:      radius,
		ConfidenceThreshold: threshold,
	}, nil
}
