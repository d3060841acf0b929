package visits

import (
	"time"
)

// StationVisit is one recorded check-in attempt. At most one row may exist
// per (activity_id, station_id); the composite unique index is what makes
// the duplicate guard race-safe — never weaken it to an application-level
// select-then-insert.
type StationVisit struct {
	ID         string `gorm:"primaryKey" json:"id"`
	ActivityID string `gorm:"index;uniqueIndex:visits_activity_station_unique" json:"activity_id"`
	StationID  string `gorm:"uniqueIndex:visits_activity_station_unique" json:"station_id"`
	UserID     string `gorm:"index" json:"user_id"`

	Status             Status         `json:"status"`
	PendingReason      *PendingReason `json:"pending_reason,omitempty"`
	VerificationMethod Method         `json:"verification_method"`

	// SequenceNumber is 1-based arrival order within the activity, assigned
	// under a per-activity lock at write time.
	SequenceNumber int `json:"sequence_number"`

	// Location fields are nulled for simulation visits; only the EXIF
	// presence flags below survive (they describe the photo, not the
	// location claim).
	Latitude          *float64  `json:"latitude,omitempty"`
	Longitude         *float64  `json:"longitude,omitempty"`
	GPSSource         GPSSource `json:"gps_source"`
	GeofenceDistanceM *float64  `json:"geofence_distance_m,omitempty"`

	ExifTimePresent bool `json:"exif_time_present"`
	ExifGPSPresent  bool `json:"exif_gps_present"`

	IsSimulation bool `json:"is_simulation"`

	VisitedAt time.Time `json:"visited_at"`
	CreatedAt time.Time `json:"created_at"`
}

func (StationVisit) TableName() string {
	return "visits.station_visits"
}
