// Command genevents generates a synthetic conflict-risk dataset for local
// development and test fixtures. Indicators follow a seeded random walk per
// region, so runs with the same seed are reproducible.
//
// Usage:
//
//	go run ./cmd/genevents \
//	  -out data/synthetic_conflict_risk_90d_15min.csv \
//	  -regions 6 -days 90 -interval 15 -seed 42
package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/couchcryptid/risk-replay-dashboard/internal/domain"
)

var baseDate = time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC)

var regionNames = []string{
	"north", "east", "south", "west", "central", "coastal",
	"highland", "border", "delta", "plains",
}

// walker evolves one region's indicators step by step.
type walker struct {
	rng    *rand.Rand
	lat    float64
	lon    float64
	risk   float64
	act    float64
	supply float64
	morale float64
}

func newWalker(rng *rand.Rand) *walker {
	return &walker{
		rng:    rng,
		lat:    44 + rng.Float64()*8,
		lon:    22 + rng.Float64()*18,
		risk:   10 + rng.Float64()*40,
		act:    rng.Float64() * 30,
		supply: 40 + rng.Float64()*40,
		morale: 50 + rng.Float64()*40,
	}
}

func (w *walker) step() {
	w.risk = domain.Clamp(w.risk+w.rng.NormFloat64()*2.5, 0, 100)
	w.act = domain.Clamp(w.act+w.rng.NormFloat64()*3, 0, 100)
	w.supply = domain.Clamp(w.supply+w.rng.NormFloat64()*1.5, 0, 100)
	w.morale = domain.Clamp(w.morale+w.rng.NormFloat64()*1.2, 0, 100)

	// Occasional flare-up: risk spikes, supply and morale sag.
	if w.rng.Float64() < 0.005 {
		w.risk = domain.Clamp(w.risk+20+w.rng.Float64()*20, 0, 100)
		w.supply = domain.Clamp(w.supply-10, 0, 100)
		w.morale = domain.Clamp(w.morale-8, 0, 100)
	}
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	out := flag.String("out", "", "output CSV path")
	regions := flag.Int("regions", 6, "number of regions")
	days := flag.Int("days", 90, "span of the dataset in days")
	interval := flag.Int("interval", 15, "sampling interval in minutes")
	seed := flag.Int64("seed", 42, "random seed")
	flag.Parse()

	if *out == "" {
		flag.Usage()
		return fmt.Errorf("missing required flag: -out")
	}
	if *regions < 1 || *regions > len(regionNames) {
		return fmt.Errorf("-regions must be between 1 and %d", len(regionNames))
	}
	if *days < 1 || *interval < 1 {
		return fmt.Errorf("-days and -interval must be positive")
	}

	rng := rand.New(rand.NewSource(*seed))
	walkers := make([]*walker, *regions)
	for i := range walkers {
		walkers[i] = newWalker(rng)
	}

	if err := os.MkdirAll(filepath.Dir(*out), 0o755); err != nil {
		return err
	}
	f, err := os.Create(*out)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(domain.RequiredColumns); err != nil {
		return err
	}

	steps := *days * 24 * 60 / *interval
	rows := 0
	for s := 0; s < steps; s++ {
		ts := baseDate.Add(time.Duration(s) * time.Duration(*interval) * time.Minute)
		for i, wk := range walkers {
			wk.step()
			record := []string{
				ts.Format(time.RFC3339),
				regionNames[i],
				strconv.FormatFloat(wk.lat, 'f', 4, 64),
				strconv.FormatFloat(wk.lon, 'f', 4, 64),
				strconv.FormatFloat(wk.risk, 'f', 2, 64),
				strconv.FormatFloat(wk.act, 'f', 2, 64),
				strconv.FormatFloat(wk.supply, 'f', 2, 64),
				strconv.FormatFloat(wk.morale, 'f', 2, 64),
			}
			if err := w.Write(record); err != nil {
				return err
			}
			rows++
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}

	log.Printf("wrote %s: %d rows (%d regions x %d steps, %dmin interval)",
		*out, rows, *regions, steps, *interval)
	return nil
}
