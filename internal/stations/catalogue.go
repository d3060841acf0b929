package stations

import (
	"context"
	"fmt"

	"github.com/TubeQuest/TQ-Backend/internal/db"
)

// Find looks a station up by catalogue ID first, then by TfL ID. Check-in
// clients send whichever identifier they planned the route with.
func Find(ctx context.Context, stationID string) (*Station, error) {
	var station Station
	err := db.DB.WithContext(ctx).
		Where("id = ? OR LOWER(tfl_id) = LOWER(?)", stationID, stationID).
		First(&station).Error
	if err != nil {
		return nil, fmt.Errorf("station lookup %q: %w", stationID, err)
	}
	return &station, nil
}

// ResolveName returns a display name for a station. If the catalogue lookup
// fails for any reason the raw identifier is returned instead — a duplicate
// check-in rejection must never fail just because the name read did.
func ResolveName(ctx context.Context, stationID string) string {
	station, err := Find(ctx, stationID)
	if err != nil {
		return stationID
	}
	return station.Name
}

// MatchCandidates returns the strings the roundel reader may match for a
// station: canonical name first, then aliases.
func MatchCandidates(ctx context.Context, stationID string) []string {
	station, err := Find(ctx, stationID)
	if err != nil {
		return nil
	}
	candidates := make([]string, 0, 1+len(station.Aliases))
	candidates = append(candidates, station.Name)
	candidates = append(candidates, station.Aliases...)
	return candidates
}
