package visits

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/TubeQuest/TQ-Backend/internal/utils"
	"github.com/go-chi/chi/v5"
	"gorm.io/gorm"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type errorBody struct {
	Code      string          `json:"code"`
	Message   string          `json:"message"`
	Duplicate *DuplicateError `json:"duplicate,omitempty"`
}

// CheckInHandler runs one check-in request through the recorder and shapes
// the response envelopes the apps depend on.
func CheckInHandler(w http.ResponseWriter, r *http.Request) {
	var req CheckInRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request format", http.StatusBadRequest)
		return
	}

	// The session is the identity source of truth when present; the body's
	// user_id is still required so offline-queued check-ins stay replayable.
	if userID, ok := utils.GetUserIDFromContext(r.Context()); ok && req.UserID == "" {
		req.UserID = userID
	}

	result, err := engine.RecordVisit(r.Context(), &req)
	if err != nil {
		var missing *MissingFieldsError
		if errors.As(err, &missing) {
			writeJSON(w, http.StatusBadRequest, map[string]any{
				"error": errorBody{Code: "missing_fields", Message: missing.Error()},
			})
			return
		}

		var dup *DuplicateError
		if errors.As(err, &dup) {
			writeJSON(w, http.StatusConflict, map[string]any{
				"data":  nil,
				"error": errorBody{Code: dup.Code, Message: dup.Error(), Duplicate: dup},
			})
			return
		}

		if errors.Is(err, ErrInvalidCoordinates) {
			writeJSON(w, http.StatusBadRequest, map[string]any{
				"error": errorBody{Code: "invalid_coordinates", Message: "Location data was not usable. Try again."},
			})
			return
		}

		log.Printf("[CheckIn] activity=%s station=%s err=%v", req.ActivityID, req.StationID, err)
		w.Header().Set("Retry-After", "3")
		http.Error(w, "Check-in could not be saved. Please try again.", http.StatusServiceUnavailable)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":    true,
		"visit_id":   result.VisitID,
		"seq_actual": result.SeqActual,
		"status":     result.Status,
	})
}

type geofenceValidateRequest struct {
	UserLat        *float64  `json:"userLat"`
	UserLng        *float64  `json:"userLng"`
	StationLat     *float64  `json:"stationLat,omitempty"`
	StationLng     *float64  `json:"stationLng,omitempty"`
	StationID      string    `json:"stationId,omitempty"`
	RadiusM        *float64  `json:"radiusM,omitempty"`
	GPSSource      GPSSource `json:"gpsSource,omitempty"`
	ClientDistance *float64  `json:"clientDistance,omitempty"`
}

type geofenceValidateResponse struct {
	Valid             bool      `json:"valid"`
	Distance          float64   `json:"distance"`
	RadiusUsed        float64   `json:"radiusUsed"`
	GPSSource         GPSSource `json:"gpsSource"`
	ServerCalculation bool      `json:"serverCalculation"`
	ClientServerMatch bool      `json:"clientServerMatch"`
	Timestamp         time.Time `json:"timestamp"`
}

// ValidateGeofenceHandler is the pre-flight geofence check. The verdict is
// always the server's own calculation; clientDistance only feeds the
// mismatch flag.
func ValidateGeofenceHandler(w http.ResponseWriter, r *http.Request) {
	var req geofenceValidateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request format", http.StatusBadRequest)
		return
	}

	if req.UserLat == nil || req.UserLng == nil {
		http.Error(w, "Missing or invalid coordinates", http.StatusBadRequest)
		return
	}

	stationLat, stationLng := req.StationLat, req.StationLng
	radius := engineConfig.DefaultRadiusM

	if stationLat == nil || stationLng == nil {
		if req.StationID == "" {
			http.Error(w, "Missing station coordinates", http.StatusBadRequest)
			return
		}
		station, err := engine.findStation(r.Context(), req.StationID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				http.Error(w, "Station not found", http.StatusNotFound)
				return
			}
			http.Error(w, "Station lookup failed", http.StatusServiceUnavailable)
			return
		}
		stationLat, stationLng = &station.Latitude, &station.Longitude
		if station.RadiusM > 0 {
			radius = station.RadiusM
		}
	}

	if req.RadiusM != nil && *req.RadiusM > 0 {
		radius = *req.RadiusM
	}

	result, err := EvaluateGeofence(*req.UserLat, *req.UserLng, *stationLat, *stationLng,
		radius, req.GPSSource, req.ClientDistance)
	if err != nil {
		http.Error(w, "Missing or invalid coordinates", http.StatusBadRequest)
		return
	}

	writeJSON(w, http.StatusOK, geofenceValidateResponse{
		Valid:             result.Valid,
		Distance:          result.Distance,
		RadiusUsed:        result.RadiusUsed,
		GPSSource:         result.GPSSource,
		ServerCalculation: true,
		ClientServerMatch: result.ClientServerMatch,
		Timestamp:         time.Now().UTC(),
	})
}

// ListActivityVisitsHandler returns an activity's visits in arrival order.
// Display read only — nothing here participates in the duplicate guard.
func ListActivityVisitsHandler(w http.ResponseWriter, r *http.Request) {
	activityID := chi.URLParam(r, "activity_id")

	var records []StationVisit
	if err := engine.db.WithContext(r.Context()).
		Where("activity_id = ?", activityID).
		Order("sequence_number").
		Find(&records).Error; err != nil {
		http.Error(w, "Failed to fetch visits: "+err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, records)
}
