// Command validate checks an observation fixture for integrity: every record
// must pass domain validation, flood heights must agree with the seeding
// rule for their rainfall, and each city must be represented. It then prints
// the per-city summary the stats endpoint would serve.
//
// Usage:
//
//	go run ./cmd/validate -in data/mock/flood_observations.json
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/couchcryptid/flood-risk-service/internal/domain"
)

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	in := flag.String("in", "", "path to observation fixture JSON")
	flag.Parse()

	if *in == "" {
		flag.Usage()
		os.Exit(1)
	}

	os.Exit(run(*in))
}

func run(path string) int {
	data, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "read fixture: %v\n", err)
		return 1
	}

	var obs []domain.FloodObservation
	if err := json.Unmarshal(data, &obs); err != nil {
		fmt.Fprintf(os.Stderr, "decode fixture: %v\n", err)
		return 1
	}

	phases := []*phase{
		checkRecords(obs),
		checkHeights(obs),
		checkCoverage(obs),
	}

	failed := false
	for _, p := range phases {
		if p.passed() {
			fmt.Printf("PASS  %s\n", p.name)
			continue
		}
		failed = true
		fmt.Printf("FAIL  %s\n", p.name)
		for _, e := range p.errors {
			fmt.Printf("      %s\n", e)
		}
	}

	printSummaries(obs)

	if failed {
		return 1
	}
	return 0
}

func checkRecords(obs []domain.FloodObservation) *phase {
	p := &phase{name: "record validation"}
	for i := range obs {
		if err := domain.Validate(obs[i]); err != nil {
			p.errorf("record %d: %v", i, err)
		}
		if obs[i].RecordedAt.IsZero() {
			p.errorf("record %d: recordedAt is missing", i)
		}
	}
	return p
}

// Stored precipitation is rounded to 0.1 mm after the height is drawn, so
// the drawn rainfall may sit up to half a step either side of it.
const precipitationHalfStep = 0.05

func checkHeights(obs []domain.FloodObservation) *phase {
	p := &phase{name: "flood height follows rainfall"}
	for i, o := range obs {
		lo, _ := domain.SeedHeightRange(o.Precipitation - precipitationHalfStep)
		_, hi := domain.SeedHeightRange(o.Precipitation + precipitationHalfStep)
		if o.FloodHeight < lo || o.FloodHeight > hi {
			p.errorf("record %d (%s): floodHeight %d outside %d-%d for %.1f mm", i, o.City, o.FloodHeight, lo, hi, o.Precipitation)
		}
	}
	return p
}

func checkCoverage(obs []domain.FloodObservation) *phase {
	p := &phase{name: "city coverage"}
	counts := make(map[domain.City]int)
	for _, o := range obs {
		counts[o.City]++
	}
	for _, c := range domain.Cities() {
		if counts[c] == 0 {
			p.errorf("no observations for %s", c)
		}
	}
	return p
}

func printSummaries(obs []domain.FloodObservation) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "\nCITY\tAVG FLOOD LEVEL\tAVG RAINFALL\tTREND")
	for _, s := range domain.Aggregate(obs) {
		fmt.Fprintf(w, "%s\t%.1f\t%.1f\t%s\n", s.City, s.AvgFloodLevel, s.AvgRainfall, s.RiskTrend)
	}
	w.Flush() //nolint:errcheck // stdout
}
