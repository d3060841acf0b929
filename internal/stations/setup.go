package stations

import (
	"log"

	"github.com/TubeQuest/TQ-Backend/internal/db"
)

func Init() {
	// Ensure the stations schema exists first
	if err := db.EnsureSchema(db.DB, "stations"); err != nil {
		log.Fatal("Failed to create stations schema: ", err)
	}

	if err := db.DB.AutoMigrate(&Station{}); err != nil {
		log.Fatal("Failed to auto-migrate tables", err)
	}

	// Case insensitive unique for stations.tfl_id — upstream feeds are not
	// consistent about casing.
	if err := db.DB.Exec(`
        CREATE UNIQUE INDEX IF NOT EXISTS stations_tfl_id_ci_unique
        ON stations.stations (LOWER(tfl_id));
    `).Error; err != nil {
		log.Fatal("Failed to create stations_tfl_id_ci_unique", err)
	}
}
