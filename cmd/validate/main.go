// Command validate performs integrity checks on a conflict-risk dataset
// before it is served: schema presence, canonical ordering, indicator ranges,
// region coverage, and sampling cadence.
//
// Usage:
//
//	go run ./cmd/validate -data data/synthetic_conflict_risk_90d_15min.csv
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/couchcryptid/risk-replay-dashboard/internal/adapter/csvfile"
	"github.com/couchcryptid/risk-replay-dashboard/internal/domain"
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
	data := flag.String("data", "", "path to the dataset CSV")
	interval := flag.Int("interval", 15, "expected sampling interval in minutes")
	flag.Parse()

	if *data == "" {
		flag.Usage()
		os.Exit(1)
	}

	os.Exit(run(*data, *interval))
}

func run(path string, intervalMinutes int) int {
	fmt.Println("=== Conflict Risk Dataset Validation ===")
	fmt.Println()

	res, err := csvfile.Read(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load dataset: %v\n", err)
		return 1
	}

	fmt.Printf("Loaded %d events (%s encoding, %d undatable rows)\n",
		len(res.Events), res.Encoding, res.NullTimestamps)

	phases := []*phase{
		validateTimestamps(res),
		validateOrdering(res.Events),
		validateRanges(res.Events),
		validateCoverage(res.Events),
		validateCadence(res.Events, intervalMinutes),
	}
	fmt.Println()

	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Printf("  %-38s %s\n", p.name, status)
	}

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Printf("\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			if i >= 20 {
				fmt.Printf("  ... and %d more\n", len(p.errors)-i)
				break
			}
			fmt.Printf("  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Println("\nAll validations passed.")
		return 0
	}
	fmt.Println("\nValidation FAILED.")
	return 1
}

// validateTimestamps flags datasets where a large share of rows degraded to a
// null timestamp. A handful is tolerable; wholesale failure means the source
// uses an unsupported layout.
func validateTimestamps(res csvfile.Result) *phase {
	p := &phase{name: "Phase 1: Timestamp parseability"}
	if len(res.Events) == 0 {
		p.errorf("dataset is empty")
		return p
	}
	if res.NullTimestamps*10 > len(res.Events) {
		p.errorf("%d of %d rows have unparseable timestamps (>10%%)", res.NullTimestamps, len(res.Events))
	}
	return p
}

// validateOrdering checks that events follow the canonical sort: ascending by
// timestamp, nulls last, region as tiebreaker.
func validateOrdering(events []domain.Event) *phase {
	p := &phase{name: "Phase 2: Canonical ordering"}
	for i := 1; i < len(events); i++ {
		if domain.Less(events[i], events[i-1]) {
			p.errorf("row %d sorts before row %d (%s/%s before %s/%s)",
				i, i-1,
				events[i].Region, events[i].Timestamp.Format(time.RFC3339),
				events[i-1].Region, events[i-1].Timestamp.Format(time.RFC3339))
		}
	}
	return p
}

// validateRanges checks that every indicator sits inside [0, 100].
func validateRanges(events []domain.Event) *phase {
	p := &phase{name: "Phase 3: Indicator ranges"}
	check := func(i int, name string, v float64) {
		if v < 0 || v > 100 {
			p.errorf("row %d: %s=%g outside [0, 100]", i, name, v)
		}
	}
	for i := range events {
		e := &events[i]
		check(i, "risk_score", e.RiskScore)
		check(i, "activity_index", e.ActivityIndex)
		check(i, "supply_pressure", e.SupplyPressure)
		check(i, "morale_index", e.MoraleIndex)
	}
	return p
}

// validateCoverage checks that every region has the same number of samples.
func validateCoverage(events []domain.Event) *phase {
	p := &phase{name: "Phase 4: Region coverage"}
	counts := map[string]int{}
	for i := range events {
		counts[events[i].Region]++
	}
	if len(counts) == 0 {
		p.errorf("no regions found")
		return p
	}

	regions := domain.Regions(events)
	want := counts[regions[0]]
	for _, r := range regions[1:] {
		if counts[r] != want {
			p.errorf("region %q has %d samples, %q has %d", r, counts[r], regions[0], want)
		}
	}
	fmt.Printf("  regions: %d, samples per region: %d\n", len(regions), want)
	return p
}

// validateCadence checks that consecutive dated samples within a region are
// spaced by the expected interval.
func validateCadence(events []domain.Event, intervalMinutes int) *phase {
	p := &phase{name: "Phase 5: Sampling cadence"}
	step := time.Duration(intervalMinutes) * time.Minute

	last := map[string]time.Time{}
	for i := range events {
		e := &events[i]
		if !e.HasTimestamp() {
			continue
		}
		if prev, ok := last[e.Region]; ok {
			if gap := e.Timestamp.Sub(prev); gap != step {
				p.errorf("region %q: gap of %s between %s and %s (expected %s)",
					e.Region, gap,
					prev.Format(time.RFC3339), e.Timestamp.Format(time.RFC3339), step)
			}
		}
		last[e.Region] = e.Timestamp
	}
	return p
}
