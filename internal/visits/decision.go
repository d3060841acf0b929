package visits

import "github.com/TubeQuest/TQ-Backend/internal/visits/ocr"

// Status is the trust level assigned to a visit. Terminal within this
// engine: pending visits are reconciled (if ever) by a separate process.
type Status string

const (
	StatusVerified Status = "verified"
	StatusPending  Status = "pending"
)

// PendingReason codes why a visit landed as pending. Empty when verified.
type PendingReason string

const (
	ReasonNoConnectivity PendingReason = "no_connectivity"
	ReasonAIDisabled     PendingReason = "ai_disabled"
	ReasonGeofenceFailed PendingReason = "geofence_failed"
	ReasonNoGPSData      PendingReason = "no_gps_data"
	ReasonOCRFailed      PendingReason = "ocr_failed"
	ReasonLowConfidence  PendingReason = "low_confidence"
)

// Method records how the status was reached, independent of whether the
// evidence passed.
type Method string

const (
	MethodSimulation Method = "simulation"
	MethodManual     Method = "manual"
	MethodAIImage    Method = "ai_image"
	MethodGPS        Method = "gps"
	MethodOffline    Method = "offline"
)

// DefaultConfidenceThreshold is the minimum roundel-read confidence for a
// verified check-in.
const DefaultConfidenceThreshold = 0.7

// DecisionInput carries every signal the decision depends on. Flags that
// used to be ambient (simulation mode, AI toggle) are explicit fields here
// so the decision stays a pure function.
type DecisionInput struct {
	SimulationMode  bool
	HasConnectivity bool
	AIEnabled       bool
	Geofence        *GeofenceValidationResult
	OCR             *ocr.Result
	// ConfidenceThreshold of 0 means DefaultConfidenceThreshold.
	ConfidenceThreshold float64
}

// Decision is the (status, reason, method) triple for one check-in.
type Decision struct {
	Status Status
	Reason PendingReason
	Method Method
}

// Decide derives the trust decision for a check-in attempt.
//
// The rule order is a contract, not an implementation detail:
//  1. simulation mode wins over everything, including failed evidence
//  2. no connectivity — evidence can't be trusted offline
//  3. AI disabled — forced manual review even with perfect evidence
//  4. geofence failed with no GPS at all
//  5. geofence failed with GPS present
//  6. roundel read failed
//  7. roundel read below the confidence threshold
//  8. verified — via the photo if one was read, else GPS alone
//
// Infrastructure preconditions (2, 3) come before evidence because location
// and photo signals are meaningless to evaluate without them; the geofence
// outranks the photo because a plausible read from the wrong place is more
// dangerous than a reader failure.
func Decide(in DecisionInput) Decision {
	if in.SimulationMode {
		return Decision{Status: StatusVerified, Method: MethodSimulation}
	}

	if !in.HasConnectivity {
		return Decision{Status: StatusPending, Reason: ReasonNoConnectivity, Method: MethodOffline}
	}

	if !in.AIEnabled {
		return Decision{Status: StatusPending, Reason: ReasonAIDisabled, Method: MethodManual}
	}

	if in.Geofence != nil && !in.Geofence.Valid {
		if in.Geofence.GPSSource == GPSSourceNone {
			return Decision{Status: StatusPending, Reason: ReasonNoGPSData, Method: MethodAIImage}
		}
		return Decision{Status: StatusPending, Reason: ReasonGeofenceFailed, Method: MethodAIImage}
	}

	if in.OCR != nil {
		if !in.OCR.Success {
			return Decision{Status: StatusPending, Reason: ReasonOCRFailed, Method: MethodAIImage}
		}
		threshold := in.ConfidenceThreshold
		if threshold == 0 {
			threshold = DefaultConfidenceThreshold
		}
		if in.OCR.Confidence < threshold {
			return Decision{Status: StatusPending, Reason: ReasonLowConfidence, Method: MethodAIImage}
		}
		return Decision{Status: StatusVerified, Method: MethodAIImage}
	}

	return Decision{Status: StatusVerified, Method: MethodGPS}
}
