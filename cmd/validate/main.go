// Command validate checks the integrity of a catalog directory: file naming
// and headers, per-row value ranges, agreement between each row and its file
// date, and that every row survives a round trip through listing notation.
// It closes with the row counts each aggregation profile would keep.
//
// Usage:
//
//	go run ./cmd/validate -catalog-dir data -region 青森県東方沖
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/couchcryptid/quake-catalog/internal/catalog"
	"github.com/couchcryptid/quake-catalog/internal/config"
	"github.com/couchcryptid/quake-catalog/internal/domain"
	"github.com/couchcryptid/quake-catalog/internal/observability"
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

// catalogFile is one loaded catalog file.
type catalogFile struct {
	path string
	date string // YYYYMMDD from the file name
	rows []catalog.Row
}

func main() {
	dir := flag.String("catalog-dir", "data", "catalog directory holding jma_eq_YYYYMMDD.csv files")
	region := flag.String("region", domain.DefaultRegion, "target region for the profile summary")
	flag.Parse()

	os.Exit(run(os.Stdout, *dir, *region))
}

func run(w io.Writer, dir, region string) int {
	fmt.Fprintln(w, "=== Earthquake Catalog Integrity Validation ===")
	fmt.Fprintln(w)

	store := catalog.NewStore(dir)
	files, load := loadFiles(store)
	if len(files) == 0 && load.passed() {
		fmt.Fprintf(os.Stderr, "FATAL: %v in %s\n", domain.ErrNoCatalogFiles, dir)
		return 1
	}

	phases := []*phase{
		load,
		validateRows(files),
		validateFileDates(files),
		validateListingRoundTrip(files),
	}

	fmt.Fprintln(w)
	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Fprintf(w, "  %-42s %s\n", p.name, status)
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "Files: %d, rows: %d\n", len(files), countRows(files))
	printProfileSummary(w, store, region)

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Fprintf(w, "\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Fprintf(w, "  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Fprintln(w, "\nAll validations passed.")
		return 0
	}
	fmt.Fprintln(w, "\nValidation FAILED.")
	return 1
}

// ── Data loading ──

func loadFiles(store *catalog.Store) ([]catalogFile, *phase) {
	p := &phase{name: "Catalog files readable"}

	paths, err := store.Discover()
	if err != nil {
		p.errorf("discover: %v", err)
		return nil, p
	}

	files := make([]catalogFile, 0, len(paths))
	for _, path := range paths {
		rows, err := store.Load(path)
		if err != nil {
			p.errorf("%v", err)
			continue
		}
		name := filepath.Base(path)
		date := strings.TrimSuffix(strings.TrimPrefix(name, "jma_eq_"), ".csv")
		if _, err := config.ParseDate(date); err != nil {
			p.errorf("%s: file name date: %v", name, err)
		}
		files = append(files, catalogFile{path: path, date: date, rows: rows})
	}
	return files, p
}

func countRows(files []catalogFile) int {
	n := 0
	for _, f := range files {
		n += len(f.rows)
	}
	return n
}

// ── Phase: row values ──

func validateRows(files []catalogFile) *phase {
	p := &phase{name: "Row values in range"}

	for _, f := range files {
		name := filepath.Base(f.path)
		for i, row := range f.rows {
			line := i + 2
			rec, missing := row.Coerce()

			if slices.Contains(missing, domain.FieldTimestamp) {
				p.errorf("%s:%d: invalid date/time %s-%s-%s %s %s", name, line, row.Year, row.Month, row.Day, row.TimeHM, row.Second)
			}
			if slices.Contains(missing, domain.FieldLatitude) || rec.Latitude < -90 || rec.Latitude > 90 {
				p.errorf("%s:%d: latitude %q out of range", name, line, row.Latitude)
			}
			if slices.Contains(missing, domain.FieldLongitude) || rec.Longitude < -180 || rec.Longitude > 180 {
				p.errorf("%s:%d: longitude %q out of range", name, line, row.Longitude)
			}
			if strings.TrimSpace(row.DepthKm) != "-" && (rec.DepthKm == nil || *rec.DepthKm < 0 || *rec.DepthKm > 999) {
				p.errorf("%s:%d: depth %q is neither 0-999 nor \"-\"", name, line, row.DepthKm)
			}
			if strings.TrimSpace(row.Magnitude) != "-" && rec.Magnitude == nil {
				p.errorf("%s:%d: magnitude %q is neither numeric nor \"-\"", name, line, row.Magnitude)
			}
			if rec.Region == "" {
				p.errorf("%s:%d: empty region", name, line)
			} else if row.Region != rec.Region {
				p.errorf("%s:%d: region %q has surrounding whitespace", name, line, row.Region)
			}
		}
	}
	return p
}

// ── Phase: file date ──

func validateFileDates(files []catalogFile) *phase {
	p := &phase{name: "Rows match file date"}

	for _, f := range files {
		name := filepath.Base(f.path)
		for i, row := range f.rows {
			rec, missing := row.Coerce()
			if slices.Contains(missing, domain.FieldTimestamp) {
				continue
			}
			if got := fmt.Sprintf("%04d%02d%02d", rec.Year, rec.Month, rec.Day); got != f.date {
				p.errorf("%s:%d: row date %s differs from file date %s", name, i+2, got, f.date)
			}
		}
	}
	return p
}

// ── Phase: listing round trip ──

func validateListingRoundTrip(files []catalogFile) *phase {
	p := &phase{name: "Rows round-trip through listing notation"}

	for _, f := range files {
		name := filepath.Base(f.path)
		for i, row := range f.rows {
			rec, missing := row.Coerce()
			if slices.Contains(missing, domain.FieldTimestamp) ||
				slices.Contains(missing, domain.FieldLatitude) ||
				slices.Contains(missing, domain.FieldLongitude) {
				continue
			}
			line := domain.FormatLine(rec)
			back, ok := domain.ParseLine(line)
			if !ok {
				p.errorf("%s:%d: formatted line does not parse: %q", name, i+2, line)
				continue
			}
			if domain.Fingerprint(back) != domain.Fingerprint(rec) {
				p.errorf("%s:%d: round trip changed the record: %q", name, i+2, line)
			}
		}
	}
	return p
}

// ── Profile summary ──

func printProfileSummary(w io.Writer, store *catalog.Store, region string) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	agg := catalog.NewAggregator(store, store, logger, observability.NewUnregisteredMetrics())

	fmt.Fprintf(w, "\nProfiles for %s:\n", region)
	for _, prof := range domain.DefaultProfiles(region) {
		res, err := agg.Aggregate(context.Background(), prof)
		if err != nil {
			fmt.Fprintf(w, "  %-4s error: %v\n", prof.Name, err)
			continue
		}
		fmt.Fprintf(w, "  %-4s kept %d of %d matching rows\n", prof.Name, len(res.Rows), res.Matched)
	}
}
