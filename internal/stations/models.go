package stations

import (
	"time"

	"github.com/lib/pq"
)

// Station is one catalogue entry. TflID is the stable upstream identifier
// (e.g. "940GZZLUKSX"); Aliases carry alternate spellings the roundel reader
// is allowed to match ("Kings Cross", "King's Cross", ...).
type Station struct {
	ID        string         `gorm:"primaryKey" json:"id"`
	TflID     string         `gorm:"uniqueIndex" json:"tfl_id"`
	Name      string         `json:"name"`
	Aliases   pq.StringArray `gorm:"type:text[]" json:"aliases"`
	Latitude  float64        `json:"latitude"`
	Longitude float64        `json:"longitude"`
	// RadiusM is the check-in geofence radius for this station in meters.
	// Zero means "no per-station override"; callers fall back to the
	// deployment-wide default.
	RadiusM   float64        `json:"radius_m"`
	Zone      string         `json:"zone,omitempty"`
	Lines     pq.StringArray `gorm:"type:text[]" json:"lines,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

func (Station) TableName() string {
	return "stations.stations"
}
