package visits

import (
	"errors"
	"math"

	"github.com/golang/geo/s2"
)

// EarthRadiusMeters is the mean Earth radius used for great-circle math.
const EarthRadiusMeters = 6371000.0

// ClientDistanceToleranceM is how far apart the client- and server-computed
// distances may be before we flag the pair as mismatched. Covers float
// rounding on the client, nothing more.
const ClientDistanceToleranceM = 5.0

var ErrInvalidCoordinates = errors.New("invalid coordinates")

// GPSSource records where the location claim came from.
type GPSSource string

const (
	GPSSourceDevice GPSSource = "device"
	GPSSourceExif   GPSSource = "exif"
	GPSSourceNone   GPSSource = "none"
)

// GeofenceValidationResult is the server-side verdict on a location claim.
// Valid is derived exclusively from the server-computed Distance; the client
// distance is kept for audit only and never gates admission.
type GeofenceValidationResult struct {
	Distance          float64   `json:"distance"`
	RadiusUsed        float64   `json:"radiusUsed"`
	Valid             bool      `json:"valid"`
	GPSSource         GPSSource `json:"gpsSource"`
	ClientDistance    *float64  `json:"clientDistance,omitempty"`
	ClientServerMatch bool      `json:"clientServerMatch"`
}

// HaversineDistance calculates the great-circle distance between two points
// in meters using the Haversine formula
func HaversineDistance(lat1, lon1, lat2, lon2 float64) float64 {
	p1 := s2.LatLngFromDegrees(lat1, lon1)
	p2 := s2.LatLngFromDegrees(lat2, lon2)
	return p1.Distance(p2).Radians() * EarthRadiusMeters
}

func validCoordinate(lat, lng float64) bool {
	if math.IsNaN(lat) || math.IsInf(lat, 0) || math.IsNaN(lng) || math.IsInf(lng, 0) {
		return false
	}
	return lat >= -90 && lat <= 90 && lng >= -180 && lng <= 180
}

// EvaluateGeofence recomputes the user↔station distance server-side and
// checks it against the radius. Deterministic: no clock, no randomness, no
// I/O. Returns ErrInvalidCoordinates for non-finite or out-of-range input.
func EvaluateGeofence(userLat, userLng, stationLat, stationLng, radiusM float64, source GPSSource, clientDistance *float64) (*GeofenceValidationResult, error) {
	if !validCoordinate(userLat, userLng) || !validCoordinate(stationLat, stationLng) {
		return nil, ErrInvalidCoordinates
	}
	if math.IsNaN(radiusM) || math.IsInf(radiusM, 0) || radiusM <= 0 {
		return nil, ErrInvalidCoordinates
	}
	if source == "" {
		source = GPSSourceNone
	}

	distance := HaversineDistance(userLat, userLng, stationLat, stationLng)

	result := &GeofenceValidationResult{
		Distance:          distance,
		RadiusUsed:        radiusM,
		Valid:             distance <= radiusM,
		GPSSource:         source,
		ClientDistance:    clientDistance,
		ClientServerMatch: true,
	}

	// A lying client is flagged here but rejected above on the server
	// distance alone.
	if clientDistance != nil && math.Abs(*clientDistance-distance) > ClientDistanceToleranceM {
		result.ClientServerMatch = false
	}

	return result, nil
}
