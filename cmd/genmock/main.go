// Command genmock writes a reproducible fixture of seeded flood observations.
// It uses the domain seed generator so the fixture matches what the service
// inserts on an empty store.
//
// Usage:
//
//	go run ./cmd/genmock -out data/mock/seed_observations.json -seed 20240724
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math/rand/v2"
	"os"
	"path/filepath"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/flood-risk-service/internal/domain"
)

// recordedAt is stamped on every generated observation.
var recordedAt = time.Date(2024, time.July, 24, 8, 0, 0, 0, time.UTC)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	out := flag.String("out", "", "output path for the observation fixture")
	seed := flag.Uint64("seed", 20240724, "random seed")
	flag.Parse()

	if *out == "" {
		flag.Usage()
		return fmt.Errorf("missing required flag: -out")
	}

	domain.SetClock(clockwork.NewFakeClockAt(recordedAt))
	defer domain.SetClock(nil)

	obs := domain.SeedObservations(rand.New(rand.NewPCG(*seed, 0)))
	for i := range obs {
		if err := domain.Validate(obs[i]); err != nil {
			return fmt.Errorf("generated record %d is invalid: %w", i, err)
		}
	}

	if err := writeJSON(*out, obs); err != nil {
		return fmt.Errorf("writing fixture: %w", err)
	}
	log.Printf("wrote %d observations to %s", len(obs), *out)

	for _, s := range domain.Aggregate(obs) {
		log.Printf("%-12s avgFloodLevel=%.1f avgRainfall=%.1f trend=%s", s.City, s.AvgFloodLevel, s.AvgRainfall, s.RiskTrend)
	}
	return nil
}

func writeJSON(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}
