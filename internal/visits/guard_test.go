package visits

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
)

// TestDuplicateError_ProductCopy pins the exact user-facing message. The
// apps assert on this string — "to", not "at".
func TestDuplicateError_ProductCopy(t *testing.T) {
	dup := &DuplicateError{
		Code:            CodeDuplicateVisit,
		ExistingVisitID: "v-123",
		StationName:     "King's Cross St. Pancras",
		VisitedAt:       time.Now(),
	}

	want := "Already checked in to King's Cross St. Pancras for this activity."
	if got := dup.Error(); got != want {
		t.Errorf("message = %q, want %q", got, want)
	}
}

// TestDegradedRaceError: even when the winner's row can't be read back, the
// conflict still names the station and carries a usable visited_at.
func TestDegradedRaceError(t *testing.T) {
	guard := NewDuplicateGuard(nil, func(ctx context.Context, stationID string) string {
		return "King's Cross St. Pancras"
	})

	dup := guard.degradedRaceError(context.Background(), "940GZZLUKSX")

	if dup.Code != CodeDuplicateVisitRace {
		t.Errorf("code = %q, want %q", dup.Code, CodeDuplicateVisitRace)
	}
	if dup.StationName != "King's Cross St. Pancras" {
		t.Errorf("station name = %q", dup.StationName)
	}
	if dup.VisitedAt.IsZero() {
		t.Error("degraded conflict must still carry a visited_at")
	}
}

func TestIsUniqueViolation(t *testing.T) {
	unique := &pgconn.PgError{Code: "23505", ConstraintName: "visits_activity_station_unique"}

	if !isUniqueViolation(unique) {
		t.Error("bare 23505 should classify as unique violation")
	}
	if !isUniqueViolation(fmt.Errorf("create: %w", unique)) {
		t.Error("wrapped 23505 should classify as unique violation")
	}
	if isUniqueViolation(&pgconn.PgError{Code: "40001"}) {
		t.Error("serialization failure is not a unique violation")
	}
	if isUniqueViolation(errors.New("connection refused")) {
		t.Error("plain errors are not unique violations")
	}
	if isUniqueViolation(nil) {
		t.Error("nil is not a unique violation")
	}
}
