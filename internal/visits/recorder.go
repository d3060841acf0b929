package visits

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/TubeQuest/TQ-Backend/internal/stations"
	"github.com/TubeQuest/TQ-Backend/internal/visits/ocr"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CheckInRequest is one attempt to check in at a station during an activity.
// The location evidence is raw coordinates — the server recomputes the
// geofence itself; client_distance is audit-only.
type CheckInRequest struct {
	ActivityID string `json:"activity_id"`
	StationID  string `json:"station_id"`
	UserID     string `json:"user_id"`

	SimulationMode  bool `json:"simulation_mode"`
	AIEnabled       bool `json:"ai_enabled"`
	HasConnectivity bool `json:"has_connectivity"`

	Latitude       *float64  `json:"latitude,omitempty"`
	Longitude      *float64  `json:"longitude,omitempty"`
	GPSSource      GPSSource `json:"gps_source,omitempty"`
	ClientDistance *float64  `json:"client_distance,omitempty"`

	// ImageBase64 triggers a server-side roundel read when AI is enabled.
	// OCRResult is accepted as a fallback from a prior read; a fresh
	// server-side read always wins.
	ImageBase64 string      `json:"image_base64,omitempty"`
	OCRResult   *ocr.Result `json:"ocr_result,omitempty"`

	ExifTimePresent bool `json:"exif_time_present"`
	ExifGPSPresent  bool `json:"exif_gps_present"`

	VisitedAt *time.Time `json:"visited_at,omitempty"`
}

// VisitResult is the success payload for a recorded check-in.
type VisitResult struct {
	VisitID   string `json:"visit_id"`
	SeqActual int    `json:"seq_actual"`
	Status    Status `json:"status"`
}

// MissingFieldsError rejects a request before any other work happens.
type MissingFieldsError struct {
	Fields []string
}

func (e *MissingFieldsError) Error() string {
	return "missing required fields: " + strings.Join(e.Fields, ", ")
}

func (r *CheckInRequest) validate() error {
	var missing []string
	if r.ActivityID == "" {
		missing = append(missing, "activity_id")
	}
	if r.StationID == "" {
		missing = append(missing, "station_id")
	}
	if r.UserID == "" {
		missing = append(missing, "user_id")
	}
	if len(missing) > 0 {
		return &MissingFieldsError{Fields: missing}
	}
	if (r.Latitude == nil) != (r.Longitude == nil) {
		return &MissingFieldsError{Fields: []string{"latitude/longitude pair"}}
	}
	return nil
}

// StationLookup resolves a station record; split out so tests can run the
// recorder without the catalogue tables.
type StationLookup func(ctx context.Context, stationID string) (*stations.Station, error)

// Recorder orchestrates one check-in request: validation, duplicate guard,
// geofence, roundel read, decision, and the transactional write.
type Recorder struct {
	db          *gorm.DB
	guard       *DuplicateGuard
	verifier    ocr.Verifier
	findStation StationLookup
	candidates  func(ctx context.Context, stationID string) []string
	cfg         Config
}

func NewRecorder(db *gorm.DB, cfg Config, verifier ocr.Verifier, findStation StationLookup, resolveName NameResolver, candidates func(ctx context.Context, stationID string) []string) *Recorder {
	return &Recorder{
		db:          db,
		guard:       NewDuplicateGuard(db, resolveName),
		verifier:    verifier,
		findStation: findStation,
		candidates:  candidates,
		cfg:         cfg,
	}
}

// RecordVisit runs the full check-in cycle. Error values callers must
// branch on: *MissingFieldsError, *DuplicateError, ErrInvalidCoordinates;
// anything else is an infrastructure failure and retryable.
//
// Hard guarantee: a duplicate outcome never allocates a sequence number or
// leaves a row behind — no visit_id in the response means no side effect.
func (rec *Recorder) RecordVisit(ctx context.Context, req *CheckInRequest) (*VisitResult, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}

	dup, err := rec.guard.Check(ctx, req.ActivityID, req.StationID)
	if err != nil {
		return nil, err
	}
	if dup != nil {
		return nil, dup
	}

	geofence, err := rec.evaluateGeofence(ctx, req)
	if err != nil {
		return nil, err
	}
	ocrResult := rec.readRoundel(ctx, req)

	decision := Decide(DecisionInput{
		SimulationMode:      req.SimulationMode,
		HasConnectivity:     req.HasConnectivity,
		AIEnabled:           req.AIEnabled,
		Geofence:            geofence,
		OCR:                 ocrResult,
		ConfidenceThreshold: rec.cfg.ConfidenceThreshold,
	})

	visit := newVisitRow(req, decision, geofence)

	if err := rec.persist(ctx, visit); err != nil {
		if raceDup, classifyErr := rec.guard.ClassifyInsertErr(ctx, req.ActivityID, req.StationID, err); classifyErr == nil && raceDup != nil {
			log.Printf("[visits] duplicate race activity=%s station=%s", req.ActivityID, req.StationID)
			return nil, raceDup
		}
		return nil, fmt.Errorf("recording visit: %w", err)
	}

	log.Printf("[visits] recorded activity=%s station=%s seq=%d status=%s method=%s",
		visit.ActivityID, visit.StationID, visit.SequenceNumber, visit.Status, visit.VerificationMethod)

	return &VisitResult{
		VisitID:   visit.ID,
		SeqActual: visit.SequenceNumber,
		Status:    visit.Status,
	}, nil
}

// evaluateGeofence recomputes the geofence server-side. Three shapes:
// simulation skips it entirely, a missing coordinate pair becomes a failed
// result with gps_source none, and real coordinates get the haversine check
// against the station's radius.
func (rec *Recorder) evaluateGeofence(ctx context.Context, req *CheckInRequest) (*GeofenceValidationResult, error) {
	if req.SimulationMode {
		return nil, nil
	}

	station, err := rec.findStation(ctx, req.StationID)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("resolving station for geofence: %w", err)
		}
		// Unknown station: nothing to measure against, so the location
		// claim can't pass. The visit still records — catalogue gaps are
		// our problem, not the user's — it just lands as pending.
		log.Printf("[visits] station %s not in catalogue, geofence cannot pass", req.StationID)
		station = nil
	}

	radius := rec.cfg.DefaultRadiusM
	if station != nil && station.RadiusM > 0 {
		radius = station.RadiusM
	}

	if req.Latitude == nil || req.Longitude == nil {
		return &GeofenceValidationResult{
			Valid:             false,
			RadiusUsed:        radius,
			GPSSource:         GPSSourceNone,
			ClientServerMatch: true,
		}, nil
	}
	if station == nil {
		source := req.GPSSource
		if source == "" {
			source = GPSSourceNone
		}
		return &GeofenceValidationResult{
			Valid:             false,
			RadiusUsed:        radius,
			GPSSource:         source,
			ClientServerMatch: true,
		}, nil
	}

	return EvaluateGeofence(*req.Latitude, *req.Longitude,
		station.Latitude, station.Longitude, radius, req.GPSSource, req.ClientDistance)
}

// readRoundel runs the vision read when an image was supplied and AI is on.
// Adapter failures degrade to a failed read — a flaky provider loosens
// strictness, it never blocks check-ins.
func (rec *Recorder) readRoundel(ctx context.Context, req *CheckInRequest) *ocr.Result {
	if req.SimulationMode || !req.AIEnabled || !req.HasConnectivity {
		return req.OCRResult
	}
	if req.ImageBase64 == "" || rec.verifier == nil {
		return req.OCRResult
	}

	result, err := rec.verifier.VerifyImage(ctx, req.ImageBase64, rec.candidates(ctx, req.StationID))
	if err != nil {
		log.Printf("[visits] roundel read failed station=%s err=%v", req.StationID, err)
		return &ocr.Result{Success: false}
	}
	return &result
}

// newVisitRow builds the row to persist, applying the simulation-mode
// suppression rule: location fields are nulled and gps_source forced to
// "none" for simulated visits, while the EXIF presence flags are kept —
// they describe the photo, not the location claim.
func newVisitRow(req *CheckInRequest, decision Decision, geofence *GeofenceValidationResult) *StationVisit {
	visitedAt := time.Now().UTC()
	if req.VisitedAt != nil {
		visitedAt = req.VisitedAt.UTC()
	}

	visit := &StationVisit{
		ID:                 uuid.New().String(),
		ActivityID:         req.ActivityID,
		StationID:          req.StationID,
		UserID:             req.UserID,
		Status:             decision.Status,
		VerificationMethod: decision.Method,
		GPSSource:          GPSSourceNone,
		ExifTimePresent:    req.ExifTimePresent,
		ExifGPSPresent:     req.ExifGPSPresent,
		IsSimulation:       req.SimulationMode,
		VisitedAt:          visitedAt,
	}

	if decision.Reason != "" {
		reason := decision.Reason
		visit.PendingReason = &reason
	}

	if !req.SimulationMode {
		visit.Latitude = req.Latitude
		visit.Longitude = req.Longitude
		if geofence != nil {
			visit.GPSSource = geofence.GPSSource
			if req.Latitude != nil {
				distance := geofence.Distance
				visit.GeofenceDistanceM = &distance
			}
		}
	}

	return visit
}

// persist writes the visit inside one transaction: a per-activity advisory
// lock serializes sequence assignment, MAX+1 hands out the next number, and
// the unique index is the last line of defense against a racing duplicate.
// The lock wait is bounded so a stuck writer can't deadlock the activity.
func (rec *Recorder) persist(ctx context.Context, visit *StationVisit) error {
	return rec.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec(`SET LOCAL lock_timeout = '5s'`).Error; err != nil {
			return fmt.Errorf("set lock_timeout: %w", err)
		}

		if err := tx.Exec(`SELECT pg_advisory_xact_lock(hashtext(?))`, "visit-seq-"+visit.ActivityID).Error; err != nil {
			return fmt.Errorf("activity sequence lock: %w", err)
		}

		var next int
		if err := tx.Raw(
			`SELECT COALESCE(MAX(sequence_number), 0) + 1 FROM visits.station_visits WHERE activity_id = ?`,
			visit.ActivityID,
		).Row().Scan(&next); err != nil {
			return fmt.Errorf("next sequence number: %w", err)
		}
		visit.SequenceNumber = next

		return tx.Create(visit).Error
	})
}
