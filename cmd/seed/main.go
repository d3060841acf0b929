package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/goccy/go-yaml"
	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	"github.com/lib/pq"
)

// CLI flags
var (
	yamlPath    = flag.String("yaml", "", "Path to the station catalogue YAML (required)")
	dsn         = flag.String("dsn", os.Getenv("DATABASE_URL"), "Postgres DSN (default: env DATABASE_URL)")
	dryRun      = flag.Bool("dry-run", false, "Parse + validate only; no DB writes")
	confirm     = flag.Bool("confirm", false, "Required to write to the catalogue")
	advisoryKey = flag.Int64("advisory-lock", 0, "Optional Postgres advisory lock key (e.g., 424242). 0 = disabled")
)

// YAML contract
// stations:
//   - tfl_id: 940GZZLUKSX
//     name: King's Cross St. Pancras
//     aliases: [Kings Cross, King's Cross]
//     lat: 51.5306
//     lng: -0.1236
//     radius_m: 150   # optional per-station geofence override
//     zone: "1"
//     lines: [Victoria, Piccadilly]

type StationYAML struct {
	TflID   string   `yaml:"tfl_id"`
	Name    string   `yaml:"name"`
	Aliases []string `yaml:"aliases"`
	Lat     float64  `yaml:"lat"`
	Lng     float64  `yaml:"lng"`
	RadiusM float64  `yaml:"radius_m"`
	Zone    string   `yaml:"zone"`
	Lines   []string `yaml:"lines"`
}

type catalogueYAML struct {
	Stations []StationYAML `yaml:"stations"`
}

func main() {
	_ = godotenv.Load(".env.local")
	flag.Parse()
	if *yamlPath == "" {
		fatalf("--yaml is required")
	}
	if *dsn == "" {
		fatalf("--dsn not provided and DATABASE_URL not set")
	}

	rows, err := loadYAML(*yamlPath)
	if err != nil {
		fatalf("YAML error: %v", err)
	}

	if err := validateRows(rows); err != nil {
		fatalf("YAML validation failed: %v", err)
	}

	fmt.Printf("Loaded %d stations from %s\n", len(rows), *yamlPath)

	if *dryRun {
		printPlan(rows)
		fmt.Println("Dry run complete. No changes made.")
		return
	}

	if !*confirm {
		fatalf("Refusing to run without --confirm. Add --dry-run to preview.")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	db, err := sql.Open("pgx", *dsn)
	if err != nil {
		fatalf("connect: %v", err)
	}
	defer db.Close()

	if err := db.PingContext(ctx); err != nil {
		fatalf("ping: %v", err)
	}

	tx, err := db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		fatalf("begin tx: %v", err)
	}
	defer func() {
		_ = tx.Rollback() // no-op if already committed
	}()

	// Optional advisory lock to avoid concurrent runs
	if *advisoryKey != 0 {
		if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, *advisoryKey); err != nil {
			fatalf("advisory lock: %v", err)
		}
	}

	var before int64
	if err := tx.QueryRowContext(ctx, `SELECT count(*) FROM stations.stations`).Scan(&before); err != nil {
		fatalf("pre-count: %v", err)
	}
	fmt.Printf("Before: stations=%d\n", before)

	upserted, err := upsertAll(ctx, tx, rows)
	if err != nil {
		fatalf("upsert stations: %v", err)
	}
	fmt.Printf("Upserted %d stations\n", upserted)

	var after int64
	if err := tx.QueryRowContext(ctx, `SELECT count(*) FROM stations.stations`).Scan(&after); err != nil {
		fatalf("post-count: %v", err)
	}
	fmt.Printf("After:  stations=%d\n", after)

	if err := tx.Commit(); err != nil {
		fatalf("commit: %v", err)
	}
	fmt.Println("Seed complete ✅")
}

func loadYAML(path string) ([]StationYAML, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var doc catalogueYAML
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parse yaml: %w", err)
	}
	return doc.Stations, nil
}

func validateRows(rows []StationYAML) error {
	if len(rows) == 0 {
		return fmt.Errorf("YAML has no stations")
	}
	seen := make(map[string]struct{}, len(rows))
	for i, r := range rows {
		if strings.TrimSpace(r.TflID) == "" {
			return fmt.Errorf("station %d: tfl_id is empty", i+1)
		}
		if strings.TrimSpace(r.Name) == "" {
			return fmt.Errorf("station %d (%s): name is empty", i+1, r.TflID)
		}
		if r.Lat < -90 || r.Lat > 90 || r.Lng < -180 || r.Lng > 180 {
			return fmt.Errorf("station %d (%s): coordinates out of range", i+1, r.TflID)
		}
		if r.RadiusM < 0 {
			return fmt.Errorf("station %d (%s): radius_m is negative", i+1, r.TflID)
		}
		key := strings.ToLower(r.TflID)
		if _, dup := seen[key]; dup {
			return fmt.Errorf("station %d: duplicate tfl_id '%s'", i+1, r.TflID)
		}
		seen[key] = struct{}{}
	}
	return nil
}

func printPlan(rows []StationYAML) {
	withRadius := 0
	for _, r := range rows {
		if r.RadiusM > 0 {
			withRadius++
		}
	}
	fmt.Println("Plan preview:")
	fmt.Printf("  Stations to upsert: %d\n", len(rows))
	fmt.Printf("  Per-station radius overrides: %d\n", withRadius)
	fmt.Println("  Tables affected (non-destructive upsert): stations.stations")
}

func upsertAll(ctx context.Context, tx *sql.Tx, rows []StationYAML) (int64, error) {
	const stmt = `
		INSERT INTO stations.stations
			(id, tfl_id, name, aliases, latitude, longitude, radius_m, zone, lines, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, now(), now())
		ON CONFLICT (LOWER(tfl_id)) DO UPDATE SET
			name = EXCLUDED.name,
			aliases = EXCLUDED.aliases,
			latitude = EXCLUDED.latitude,
			longitude = EXCLUDED.longitude,
			radius_m = EXCLUDED.radius_m,
			zone = EXCLUDED.zone,
			lines = EXCLUDED.lines,
			updated_at = now()
	`

	var total int64
	for _, r := range rows {
		res, err := tx.ExecContext(ctx, stmt,
			uuid.New().String(), r.TflID, r.Name, pq.Array(r.Aliases),
			r.Lat, r.Lng, r.RadiusM, r.Zone, pq.Array(r.Lines))
		if err != nil {
			return total, fmt.Errorf("upsert %s: %w", r.TflID, err)
		}
		n, _ := res.RowsAffected()
		total += n
	}
	return total, nil
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "ERROR: "+format+"\n", args...)
	os.Exit(1)
}
