package visits

import (
	"math"
	"testing"
)

// Test points: King's Cross St. Pancras and a point due north of it.
const (
	kingsCrossLat = 51.5306
	kingsCrossLng = -0.1236
)

func TestHaversineDistance_ZeroForSamePoint(t *testing.T) {
	if d := HaversineDistance(kingsCrossLat, kingsCrossLng, kingsCrossLat, kingsCrossLng); d != 0 {
		t.Errorf("same point: got %f, want 0", d)
	}
}

func TestHaversineDistance_OneDegreeLatitude(t *testing.T) {
	// One degree of latitude on a 6371km sphere is ~111.195km.
	d := HaversineDistance(51.0, 0.0, 52.0, 0.0)
	if math.Abs(d-111195) > 50 {
		t.Errorf("1° latitude: got %.1f m, want ≈111195 m", d)
	}
}

func TestEvaluateGeofence_InsideRadius(t *testing.T) {
	// ~55m north of the station point.
	result, err := EvaluateGeofence(kingsCrossLat+0.0005, kingsCrossLng,
		kingsCrossLat, kingsCrossLng, 150, GPSSourceDevice, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.Valid {
		t.Errorf("55m inside a 150m radius should be valid (distance=%.1f)", result.Distance)
	}
	if result.RadiusUsed != 150 {
		t.Errorf("RadiusUsed = %.1f, want 150", result.RadiusUsed)
	}
	if !result.ClientServerMatch {
		t.Error("no client distance supplied should count as a match")
	}
}

// TestEvaluateGeofence_SpoofedClientDistance: a user ~1100m out who claims
// to be 50m away is rejected on the server-computed distance and flagged.
func TestEvaluateGeofence_SpoofedClientDistance(t *testing.T) {
	claimed := 50.0
	// 0.0099° of latitude ≈ 1100m.
	result, err := EvaluateGeofence(kingsCrossLat+0.0099, kingsCrossLng,
		kingsCrossLat, kingsCrossLng, 750, GPSSourceDevice, &claimed)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.Valid {
		t.Error("1100m outside a 750m radius must be invalid regardless of the claimed distance")
	}
	if math.Abs(result.Distance-1100) > 10 {
		t.Errorf("server distance = %.1f, want ≈1100", result.Distance)
	}
	if result.ClientServerMatch {
		t.Error("claimed 50m vs real ~1100m must be flagged as a mismatch")
	}
}

func TestEvaluateGeofence_ClientDistanceWithinTolerance(t *testing.T) {
	result, err := EvaluateGeofence(kingsCrossLat+0.0005, kingsCrossLng,
		kingsCrossLat, kingsCrossLng, 150, GPSSourceDevice, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	claimed := result.Distance + ClientDistanceToleranceM - 0.5
	again, err := EvaluateGeofence(kingsCrossLat+0.0005, kingsCrossLng,
		kingsCrossLat, kingsCrossLng, 150, GPSSourceDevice, &claimed)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !again.ClientServerMatch {
		t.Errorf("client distance %.1f within tolerance of %.1f should match", claimed, again.Distance)
	}
}

func TestEvaluateGeofence_InvalidCoordinates(t *testing.T) {
	cases := []struct {
		name                      string
		uLat, uLng, sLat, sLng, r float64
	}{
		{"NaN user lat", math.NaN(), 0, 51, 0, 150},
		{"Inf user lng", 51, math.Inf(1), 51, 0, 150},
		{"latitude out of range", 91, 0, 51, 0, 150},
		{"longitude out of range", 51, -181, 51, 0, 150},
		{"station latitude out of range", 51, 0, -90.5, 0, 150},
		{"zero radius", 51, 0, 51, 0, 0},
		{"negative radius", 51, 0, 51, 0, -10},
		{"NaN radius", 51, 0, 51, 0, math.NaN()},
	}

	for _, tt := range cases {
		t.Run(tt.name, func(t *testing.T) {
			_, err := EvaluateGeofence(tt.uLat, tt.uLng, tt.sLat, tt.sLng, tt.r, GPSSourceDevice, nil)
			if err != ErrInvalidCoordinates {
				t.Errorf("got err=%v, want ErrInvalidCoordinates", err)
			}
		})
	}
}

// TestEvaluateGeofence_Deterministic: identical inputs yield identical
// output, byte for byte — required for anti-replay auditing.
func TestEvaluateGeofence_Deterministic(t *testing.T) {
	claimed := 120.0
	first, err := EvaluateGeofence(51.5152, -0.1418, kingsCrossLat, kingsCrossLng, 150, GPSSourceExif, &claimed)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for i := 0; i < 50; i++ {
		got, err := EvaluateGeofence(51.5152, -0.1418, kingsCrossLat, kingsCrossLng, 150, GPSSourceExif, &claimed)
		if err != nil {
			t.Fatalf("call %d: unexpected error: %v", i, err)
		}
		if got.Distance != first.Distance || got.Valid != first.Valid || got.ClientServerMatch != first.ClientServerMatch {
			t.Fatalf("call %d: got %+v, want %+v", i, got, first)
		}
	}
}

func TestEvaluateGeofence_DefaultsEmptySourceToNone(t *testing.T) {
	result, err := EvaluateGeofence(kingsCrossLat, kingsCrossLng, kingsCrossLat, kingsCrossLng, 150, "", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.GPSSource != GPSSourceNone {
		t.Errorf("GPSSource = %q, want %q", result.GPSSource, GPSSourceNone)
	}
}
