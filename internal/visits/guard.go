package visits

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// Duplicate error codes. "race" means the conflict surfaced from the unique
// constraint during the insert itself rather than the pre-check; callers
// handle both identically, the split exists for observability.
const (
	CodeDuplicateVisit     = "duplicate_visit"
	CodeDuplicateVisitRace = "duplicate_visit_race"
)

// DuplicateError is the structured conflict returned when a station already
// has a visit in this activity. Carries enough context for a specific,
// non-generic user message.
type DuplicateError struct {
	Code            string    `json:"-"`
	ExistingVisitID string    `json:"existing_visit_id"`
	StationName     string    `json:"station_name"`
	VisitedAt       time.Time `json:"visited_at"`
}

// Error returns the fixed product copy for a duplicate check-in.
// "to", not "at" — the apps test against this exact string.
func (e *DuplicateError) Error() string {
	return fmt.Sprintf("Already checked in to %s for this activity.", e.StationName)
}

// NameResolver turns a station ID into a display name, falling back to the
// raw ID when the lookup fails.
type NameResolver func(ctx context.Context, stationID string) string

// DuplicateGuard enforces at-most-one-visit-per-station-per-activity.
// Check is the cheap pre-flight; the real guarantee is the unique index on
// (activity_id, station_id), classified by ClassifyInsertErr when two
// requests race past the pre-check together.
type DuplicateGuard struct {
	db          *gorm.DB
	resolveName NameResolver
}

func NewDuplicateGuard(db *gorm.DB, resolveName NameResolver) *DuplicateGuard {
	return &DuplicateGuard{db: db, resolveName: resolveName}
}

// Check reports an existing visit for (activityID, stationID), if any.
// Returns (nil, nil) when the slot is free.
func (g *DuplicateGuard) Check(ctx context.Context, activityID, stationID string) (*DuplicateError, error) {
	var existing StationVisit
	err := g.db.WithContext(ctx).
		Where("activity_id = ? AND station_id = ?", activityID, stationID).
		First(&existing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("duplicate pre-check: %w", err)
	}

	return g.duplicateError(ctx, CodeDuplicateVisit, &existing), nil
}

// ClassifyInsertErr inspects an insert failure. A unique violation on the
// visits index means we lost a race for the slot: the winner's row is
// re-read and returned as a duplicate_visit_race conflict. Any other error
// passes through untouched.
func (g *DuplicateGuard) ClassifyInsertErr(ctx context.Context, activityID, stationID string, err error) (*DuplicateError, error) {
	if !isUniqueViolation(err) {
		return nil, err
	}

	var winner StationVisit
	readErr := g.db.WithContext(ctx).
		Where("activity_id = ? AND station_id = ?", activityID, stationID).
		First(&winner).Error
	if readErr != nil {
		// The winner's commit may not be visible yet; one more look.
		readErr = g.db.WithContext(ctx).
			Where("activity_id = ? AND station_id = ?", activityID, stationID).
			First(&winner).Error
	}
	if readErr != nil {
		return g.degradedRaceError(ctx, stationID), nil
	}

	return g.duplicateError(ctx, CodeDuplicateVisitRace, &winner), nil
}

// degradedRaceError reports a lost race whose winning row could not be read
// back. The constraint fired, so the winner exists; the conflict time stands
// in for its visited_at, and only existing_visit_id is left empty.
func (g *DuplicateGuard) degradedRaceError(ctx context.Context, stationID string) *DuplicateError {
	return &DuplicateError{
		Code:        CodeDuplicateVisitRace,
		StationName: g.resolveName(ctx, stationID),
		VisitedAt:   time.Now().UTC(),
	}
}

func (g *DuplicateGuard) duplicateError(ctx context.Context, code string, existing *StationVisit) *DuplicateError {
	return &DuplicateError{
		Code:            code,
		ExistingVisitID: existing.ID,
		StationName:     g.resolveName(ctx, existing.StationID),
		VisitedAt:       existing.VisitedAt,
	}
}

// isUniqueViolation reports whether err is a Postgres 23505 unique_violation.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
