// Command validate checks an observation CSV before it is served to the
// globe: header columns, row structure, coordinates and measurement values.
// It runs the same parser the service uses and exits non-zero when any
// phase fails.
//
// Usage:
//
//	go run ./cmd/validate -csv weatherdata.csv
//	go run ./cmd/validate -csv weatherdata.csv -strict
package main

import (
	"bytes"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"

	"github.com/couchcryptid/weather-globe-service/internal/domain"
	"github.com/couchcryptid/weather-globe-service/internal/loader"
)

// phase tracks pass/fail for a validation phase.
type phase struct {
	name     string
	errors   []string
	warnings []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) warnf(format string, args ...any) {
	p.warnings = append(p.warnings, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	path := flag.String("csv", "weatherdata.csv", "observation CSV to validate")
	strict := flag.Bool("strict", false, "treat warnings as failures")
	flag.Parse()

	os.Exit(run(*path, *strict))
}

func run(path string, strict bool) int {
	data, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: %v\n", err)
		return 1
	}

	fmt.Println("=== Weather Data Validation ===")
	fmt.Println()

	res, parseErr := loader.Parse(bytes.NewReader(data), slog.New(slog.NewTextHandler(io.Discard, nil)))

	phases := []*phase{
		validateStructure(res, parseErr),
		validateCoordinates(res),
		validateMeasurements(res.Records),
		validateCategories(res.Records),
	}

	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		switch {
		case !p.passed():
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		case len(p.warnings) > 0:
			status = fmt.Sprintf("\033[33mWARN (%d)\033[0m", len(p.warnings))
			if strict {
				allPassed = false
			}
		}
		fmt.Printf("  %-36s %s\n", p.name, status)
	}

	fmt.Println()
	fmt.Printf("Rows: %d read, %d records, %d dropped, %d malformed\n",
		res.Rows, len(res.Records), res.Dropped, res.Malformed)

	for _, p := range phases {
		if len(p.errors) == 0 && len(p.warnings) == 0 {
			continue
		}
		fmt.Printf("\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Printf("  [E%d] %s\n", i+1, e)
		}
		for i, w := range p.warnings {
			fmt.Printf("  [W%d] %s\n", i+1, w)
		}
	}

	if allPassed {
		fmt.Println("\nAll validations passed.")
		return 0
	}
	fmt.Println("\nValidation FAILED.")
	return 1
}

func validateStructure(res loader.ParseResult, parseErr error) *phase {
	p := &phase{name: "Phase 1: Structure (header, rows)"}
	if parseErr != nil {
		p.errorf("%v", parseErr)
	}
	for _, col := range res.MissingColumns {
		p.warnf("column %q missing from header", col)
	}
	if res.Malformed > 0 {
		p.warnf("%d malformed rows skipped", res.Malformed)
	}
	if parseErr == nil && res.Rows == 0 {
		p.errorf("no data rows")
	}
	return p
}

func validateCoordinates(res loader.ParseResult) *phase {
	p := &phase{name: "Phase 2: Coordinates"}
	if res.Dropped > 0 {
		p.warnf("%d rows without usable coordinates will not be shown", res.Dropped)
	}
	if res.Rows > 0 && len(res.Records) == 0 {
		p.errorf("no row has usable coordinates")
	}
	seen := map[[2]float64]string{}
	for _, r := range res.Records {
		key := [2]float64{r.Lat, r.Lng}
		if prev, ok := seen[key]; ok {
			p.warnf("%s (%s) shares coordinates with %s", r.ID, r.Location, prev)
			continue
		}
		seen[key] = string(r.ID)
	}
	return p
}

func validateMeasurements(records []domain.WeatherRecord) *phase {
	p := &phase{name: "Phase 3: Measurements"}
	for _, r := range records {
		fields := []struct {
			name string
			v    float64
		}{
			{"temperature", r.Temperature},
			{"feels_like", r.FeelsLike},
			{"humidity", r.Humidity},
			{"pressure", r.Pressure},
			{"wind_speed", r.WindSpeed},
			{"visibility", r.Visibility},
			{"precipitation", r.Precipitation},
			{"cloudcover", r.CloudCover},
		}
		for _, f := range fields {
			if math.IsNaN(f.v) {
				p.warnf("%s (%s): %s is not a number", r.ID, r.Location, f.name)
			}
		}
		if r.Humidity < 0 || r.Humidity > 100 {
			p.warnf("%s (%s): humidity %g outside 0-100", r.ID, r.Location, r.Humidity)
		}
		if !r.HasTimestamp() {
			p.warnf("%s (%s): missing or unparsable timestamp", r.ID, r.Location)
		}
	}
	return p
}

func validateCategories(records []domain.WeatherRecord) *phase {
	p := &phase{name: "Phase 4: Categories"}
	counts := map[domain.Category]int{}
	for _, r := range records {
		counts[r.Category]++
	}
	for _, c := range domain.Categories() {
		if counts[c] == 0 {
			p.warnf("no %s records", c)
		}
	}
	return p
}
