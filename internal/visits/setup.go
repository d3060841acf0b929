package visits

import (
	"log"

	"github.com/TubeQuest/TQ-Backend/internal/db"
	"github.com/TubeQuest/TQ-Backend/internal/stations"
	"github.com/TubeQuest/TQ-Backend/internal/visits/ocr"
)

// engine handles every check-in; no writer bypasses it.
var engine *Recorder

var engineConfig Config

func Init() {
	// Ensure the visits schema exists first
	if err := db.EnsureSchema(db.DB, "visits"); err != nil {
		log.Fatal("Failed to create visits schema: ", err)
	}

	if err := db.DB.AutoMigrate(&StationVisit{}); err != nil {
		log.Fatal("Failed to auto-migrate tables", err)
	}

	// The duplicate guard rides on this index; AutoMigrate creates it from
	// the struct tags, this keeps it explicit for databases migrated by hand.
	if err := db.DB.Exec(`
        CREATE UNIQUE INDEX IF NOT EXISTS visits_activity_station_unique
        ON visits.station_visits (activity_id, station_id);
    `).Error; err != nil {
		log.Fatal("Failed to create visits_activity_station_unique", err)
	}

	cfg, err := LoadFromEnv()
	if err != nil {
		log.Fatal("Failed to load visits config: ", err)
	}
	engineConfig = cfg

	verifier, err := ocr.NewClient(ocr.FoldMatcher{})
	if err != nil {
		log.Fatal("Failed to initialize roundel reader: ", err)
	}
	if verifier == nil {
		log.Printf("[visits] OPENAI_API_KEY not set — roundel reads disabled, photo check-ins will land as pending")
		engine = NewRecorder(db.DB, cfg, nil, stations.Find, stations.ResolveName, stations.MatchCandidates)
		return
	}

	engine = NewRecorder(db.DB, cfg, verifier, stations.Find, stations.ResolveName, stations.MatchCandidates)
}
