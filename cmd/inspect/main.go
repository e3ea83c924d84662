// Command inspect performs integrity checks across downloaded yearly
// dataset files: file metadata, station catalogs, time indexes, and
// coverage.
//
// Usage:
//
//	go run ./cmd/inspect -data-dir data
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"time"

	"github.com/alanzhou93/substorm-detection/internal/domain"
	"github.com/alanzhou93/substorm-detection/internal/store"
)

// phase tracks pass/fail for one inspection phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

type yearFile struct {
	path     string
	nameYear int
	meta     map[string]string
	ds       *domain.YearlyDataset
}

var (
	fileYearRe    = regexp.MustCompile(`^mag_data_(\d{4})\.db$`)
	stationCodeRe = regexp.MustCompile(`^[A-Z0-9]{2,5}$`)
)

func main() {
	dataDir := flag.String("data-dir", "data", "directory containing mag_data_<year>.db files")
	flag.Parse()

	if code := run(*dataDir); code != 0 {
		os.Exit(code)
	}
}

func run(dataDir string) int {
	fmt.Println("=== Yearly Dataset Integrity Inspection ===")
	fmt.Println()

	files, err := loadYearFiles(dataDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: %v\n", err)
		return 1
	}

	phases := []*phase{
		validateMetadata(files),
		validateCatalogs(files),
		validateTimeIndexes(files),
		validateCoverage(files),
	}

	fmt.Println()
	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Printf("  %-42s %s\n", p.name, status)
	}

	fetched, missing, rows := 0, 0, 0
	for _, f := range files {
		fetched += len(f.ds.Records)
		missing += len(f.ds.Missing)
		rows += f.ds.Rows()
	}
	fmt.Println()
	fmt.Printf("Files: %d, stations: %d fetched, %d missing, rows: %d\n",
		len(files), fetched, missing, rows)

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Printf("\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Printf("  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Println("\nAll inspections passed.")
		return 0
	}
	fmt.Println("\nInspection FAILED.")
	return 1
}

func loadYearFiles(dir string) ([]yearFile, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "mag_data_*.db"))
	if err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		return nil, fmt.Errorf("no mag_data_*.db files under %s", dir)
	}
	sort.Strings(matches)

	ctx := context.Background()
	var files []yearFile
	for _, path := range matches {
		m := fileYearRe.FindStringSubmatch(filepath.Base(path))
		if m == nil {
			return nil, fmt.Errorf("unexpected file name %s", filepath.Base(path))
		}
		nameYear, _ := strconv.Atoi(m[1])

		meta, err := store.ReadMeta(ctx, path)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		ds, err := store.ReadYear(ctx, path)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}

		fmt.Printf("  loaded %s: %d stations, %d rows\n", filepath.Base(path), len(ds.Records), ds.Rows())
		files = append(files, yearFile{path: path, nameYear: nameYear, meta: meta, ds: ds})
	}
	return files, nil
}

// ── Phase 1: Metadata ──
// The meta table must agree with the file name and carry a well-formed
// provenance record.

func validateMetadata(files []yearFile) *phase {
	p := &phase{name: "Phase 1: Metadata"}
	for _, f := range files {
		base := filepath.Base(f.path)
		if f.ds.Year != f.nameYear {
			p.errorf("%s: meta year %d does not match file name", base, f.ds.Year)
		}
		if f.meta["schema"] != "1" {
			p.errorf("%s: unknown schema %q", base, f.meta["schema"])
		}
		if f.meta["generator"] == "" {
			p.errorf("%s: missing generator", base)
		}
		if _, err := time.Parse(time.RFC3339, f.meta["created_at"]); err != nil {
			p.errorf("%s: created_at %q: %v", base, f.meta["created_at"], err)
		}
	}
	return p
}

// ── Phase 2: Station Catalogs ──
// Every record must be internally consistent: IAGA-like code, a field
// list, and rows as wide as that list.

func validateCatalogs(files []yearFile) *phase {
	p := &phase{name: "Phase 2: Station Catalogs"}
	for _, f := range files {
		base := filepath.Base(f.path)
		for _, code := range f.ds.Stations() {
			rec := f.ds.Records[code]
			if rec.Station != code {
				p.errorf("%s: catalog key %s against record station %s", base, code, rec.Station)
			}
			if !stationCodeRe.MatchString(code) {
				p.errorf("%s: station code %q is not IAGA-like", base, code)
			}
			if len(rec.Fields) == 0 {
				p.errorf("%s %s: empty field list", base, code)
			}
			if len(rec.Times) != len(rec.Values) {
				p.errorf("%s %s: %d timestamps against %d rows", base, code, len(rec.Times), len(rec.Values))
				continue
			}
			for i, row := range rec.Values {
				if len(row) != len(rec.Fields) {
					p.errorf("%s %s row %d: %d values against %d fields", base, code, i, len(row), len(rec.Fields))
					break
				}
			}
		}
	}
	return p
}

// ── Phase 3: Time Indexes ──
// Timestamps must advance strictly, stay inside the file's year, and sit
// on whole minutes.

func validateTimeIndexes(files []yearFile) *phase {
	p := &phase{name: "Phase 3: Time Indexes"}
	for _, f := range files {
		base := filepath.Base(f.path)
		lo := time.Date(f.ds.Year, time.January, 1, 0, 0, 0, 0, time.UTC)
		hi := lo.AddDate(1, 0, 0)
		for _, code := range f.ds.Stations() {
			rec := f.ds.Records[code]
			var prev time.Time
			for i, ts := range rec.Times {
				if ts.Before(lo) || !ts.Before(hi) {
					p.errorf("%s %s: sample %d at %s outside %d", base, code, i, ts.Format(time.RFC3339), f.ds.Year)
					break
				}
				if i > 0 && !ts.After(prev) {
					p.errorf("%s %s: sample %d at %s does not advance past %s",
						base, code, i, ts.Format(time.RFC3339), prev.Format(time.RFC3339))
					break
				}
				if ts.Second() != 0 || ts.Nanosecond() != 0 {
					p.errorf("%s %s: sample %d at %s is not minute-aligned", base, code, i, ts.Format(time.RFC3339))
					break
				}
				prev = ts
			}
		}
	}
	return p
}

// ── Phase 4: Coverage ──

func validateCoverage(files []yearFile) *phase {
	p := &phase{name: "Phase 4: Coverage"}
	for _, f := range files {
		base := filepath.Base(f.path)
		if len(f.ds.Records) == 0 && len(f.ds.Missing) == 0 {
			p.errorf("%s: no stations at all", base)
			continue
		}

		missing := map[string]bool{}
		for _, code := range f.ds.Missing {
			if missing[code] {
				p.errorf("%s: station %s marked missing twice", base, code)
			}
			missing[code] = true
		}
		for _, code := range f.ds.Stations() {
			if f.ds.Records[code].Len() == 0 && !missing[code] {
				p.errorf("%s %s: no rows and no missing marker", base, code)
			}
		}
	}
	return p
}
