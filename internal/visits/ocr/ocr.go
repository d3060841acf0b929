// Package ocr is the boundary to the vision model that reads station-name
// roundels out of check-in photos. Everything past this package is an
// untrusted remote call: callers treat any error as a failed read, never as
// a reason to abort the check-in.
package ocr

import "context"

// Result is the structured outcome of one roundel read.
type Result struct {
	Success        bool    `json:"success"`
	Confidence     float64 `json:"confidence"`
	StationTextRaw string  `json:"station_text_raw,omitempty"`
}

// Verifier reads a station name out of an image and matches it against the
// candidate names for the station being claimed.
type Verifier interface {
	VerifyImage(ctx context.Context, imageB64 string, candidates []string) (Result, error)
}

// Matcher decides whether a raw model read names one of the candidate
// stations. Behind an interface so the fuzzy matching strategy can be
// swapped without touching the client.
type Matcher interface {
	Match(read string, candidates []string) bool
}
