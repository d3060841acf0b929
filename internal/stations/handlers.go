package stations

import (
	"encoding/json"
	"net/http"

	"github.com/TubeQuest/TQ-Backend/internal/db"
	"github.com/go-chi/chi/v5"
)

// ListStations returns the full catalogue, ordered by name.
func ListStations(w http.ResponseWriter, r *http.Request) {
	var stations []Station

	if err := db.DB.WithContext(r.Context()).Order("name").Find(&stations).Error; err != nil {
		http.Error(w, "Failed to fetch stations: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(stations)
}

// GetStation returns a single station by catalogue or TfL ID.
func GetStation(w http.ResponseWriter, r *http.Request) {
	stationID := chi.URLParam(r, "station_id")

	station, err := Find(r.Context(), stationID)
	if err != nil {
		http.Error(w, "Station not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(station)
}
