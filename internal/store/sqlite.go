package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"time"

	_ "modernc.org/sqlite"

	"github.com/alanzhou93/substorm-detection/internal/domain"
)

// identRe restricts station codes and field names that get interpolated into
// SQL identifiers. IAGA codes and SuperMAG column names all satisfy it.
var identRe = regexp.MustCompile(`^[A-Za-z0-9_]+$`)

// timeLayout is how sample timestamps are stored. Lexical order equals
// chronological order for this layout, so the files sort naturally.
const timeLayout = time.RFC3339

// SQLite writes yearly datasets as self-describing SQLite files under one
// directory: a meta table, a stations catalog, and one data table per
// station named mag_<code>.
type SQLite struct {
	dir    string
	logger *slog.Logger
}

// NewSQLite creates a store rooted at dir. The directory is created on the
// first write.
func NewSQLite(dir string, logger *slog.Logger) *SQLite {
	return &SQLite{dir: dir, logger: logger}
}

// YearPath returns where a year's dataset file lives under the output dir.
func (s *SQLite) YearPath(year int) string {
	return filepath.Join(s.dir, fmt.Sprintf("mag_data_%d.db", year))
}

// WriteYear persists a merged yearly dataset, atomically replacing any
// previous file for the same year. Returns the written path.
func (s *SQLite) WriteYear(ctx context.Context, ds *domain.YearlyDataset) (string, error) {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("creating output dir: %w", err)
	}

	path := s.YearPath(ds.Year)
	tmp := path + ".tmp"
	if err := os.Remove(tmp); err != nil && !os.IsNotExist(err) {
		return "", fmt.Errorf("clearing stale temp file: %w", err)
	}

	if err := s.writeFile(ctx, tmp, ds); err != nil {
		_ = os.Remove(tmp)
		return "", err
	}
	if err := os.Rename(tmp, path); err != nil {
		return "", fmt.Errorf("replacing %s: %w", path, err)
	}

	s.logger.Info("yearly dataset file written",
		"year", ds.Year,
		"path", path,
		"stations", len(ds.Records),
		"rows", ds.Rows(),
	)
	return path, nil
}

func (s *SQLite) writeFile(ctx context.Context, path string, ds *domain.YearlyDataset) error {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	if err := initSchema(ctx, db); err != nil {
		return fmt.Errorf("initializing schema: %w", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if err := writeMeta(ctx, tx, ds.Year); err != nil {
		return err
	}
	for _, code := range ds.Stations() {
		if err := writeStation(ctx, tx, ds.Records[code]); err != nil {
			return err
		}
	}
	for _, code := range ds.Missing {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO stations (code, fields, samples, missing) VALUES (?, '[]', 0, 1)
			 ON CONFLICT(code) DO UPDATE SET missing = 1`, code); err != nil {
			return fmt.Errorf("recording missing station %s: %w", code, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing: %w", err)
	}
	return nil
}

func initSchema(ctx context.Context, db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS meta (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);
	CREATE TABLE IF NOT EXISTS stations (
		code TEXT PRIMARY KEY,
		fields TEXT NOT NULL,
		samples INTEGER NOT NULL,
		missing INTEGER NOT NULL DEFAULT 0
	);
	`
	_, err := db.ExecContext(ctx, schema)
	return err
}

func writeMeta(ctx context.Context, tx *sql.Tx, year int) error {
	entries := map[string]string{
		"year":       strconv.Itoa(year),
		"created_at": time.Now().UTC().Format(timeLayout),
		"generator":  "substorm-detection",
		"schema":     "1",
	}
	for key, value := range entries {
		if _, err := tx.ExecContext(ctx, `INSERT INTO meta (key, value) VALUES (?, ?)`, key, value); err != nil {
			return fmt.Errorf("writing meta %s: %w", key, err)
		}
	}
	return nil
}

func writeStation(ctx context.Context, tx *sql.Tx, rec *domain.StationRecord) error {
	if !identRe.MatchString(rec.Station) {
		return fmt.Errorf("unsafe station code %q", rec.Station)
	}
	columns := ""
	insertCols := "t"
	placeholders := "?"
	for _, f := range rec.Fields {
		if !identRe.MatchString(f) {
			return fmt.Errorf("station %s: unsafe field name %q", rec.Station, f)
		}
		columns += fmt.Sprintf(", %q REAL", f)
		insertCols += fmt.Sprintf(", %q", f)
		placeholders += ", ?"
	}

	fieldsJSON, err := json.Marshal(rec.Fields)
	if err != nil {
		return fmt.Errorf("encoding field list for %s: %w", rec.Station, err)
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO stations (code, fields, samples, missing) VALUES (?, ?, ?, 0)`,
		rec.Station, string(fieldsJSON), rec.Len()); err != nil {
		return fmt.Errorf("cataloging station %s: %w", rec.Station, err)
	}

	table := "mag_" + rec.Station
	if _, err := tx.ExecContext(ctx,
		fmt.Sprintf(`CREATE TABLE %q (t TEXT NOT NULL%s)`, table, columns)); err != nil {
		return fmt.Errorf("creating table for %s: %w", rec.Station, err)
	}

	stmt, err := tx.PrepareContext(ctx,
		fmt.Sprintf(`INSERT INTO %q (%s) VALUES (%s)`, table, insertCols, placeholders))
	if err != nil {
		return fmt.Errorf("preparing insert for %s: %w", rec.Station, err)
	}
	defer stmt.Close()

	for i, row := range rec.Values {
		args := make([]any, 0, len(row)+1)
		args = append(args, rec.Times[i].UTC().Format(timeLayout))
		for _, v := range row {
			if math.IsNaN(v) {
				args = append(args, nil)
			} else {
				args = append(args, v)
			}
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return fmt.Errorf("inserting row %d for %s: %w", i, rec.Station, err)
		}
	}
	return nil
}

// ReadYear loads a yearly dataset file back into memory. NULL cells come
// back as NaN, mirroring what WriteYear stored.
func ReadYear(ctx context.Context, path string) (*domain.YearlyDataset, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("dataset file: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	meta, err := readMeta(ctx, db)
	if err != nil {
		return nil, err
	}
	year, err := strconv.Atoi(meta["year"])
	if err != nil {
		return nil, fmt.Errorf("meta year %q: %w", meta["year"], err)
	}

	type catalogEntry struct {
		code    string
		fields  []string
		missing bool
	}
	rows, err := db.QueryContext(ctx, `SELECT code, fields, missing FROM stations ORDER BY code`)
	if err != nil {
		return nil, fmt.Errorf("querying station catalog: %w", err)
	}
	var catalog []catalogEntry
	for rows.Next() {
		var entry catalogEntry
		var fieldsJSON string
		var missing int
		if err := rows.Scan(&entry.code, &fieldsJSON, &missing); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scanning station catalog: %w", err)
		}
		if err := json.Unmarshal([]byte(fieldsJSON), &entry.fields); err != nil {
			rows.Close()
			return nil, fmt.Errorf("decoding field list for %s: %w", entry.code, err)
		}
		entry.missing = missing != 0
		catalog = append(catalog, entry)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("reading station catalog: %w", err)
	}
	rows.Close()

	ds := &domain.YearlyDataset{Year: year, Records: make(map[string]*domain.StationRecord)}
	for _, entry := range catalog {
		if entry.missing {
			ds.Missing = append(ds.Missing, entry.code)
		}
		if entry.missing && len(entry.fields) == 0 {
			// never fetched in any interval, no data table to read
			continue
		}
		rec, err := readStation(ctx, db, entry.code, entry.fields)
		if err != nil {
			return nil, err
		}
		ds.Records[entry.code] = rec
	}
	return ds, nil
}

// ReadMeta returns the meta key/value pairs of a dataset file.
func ReadMeta(ctx context.Context, path string) (map[string]string, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("dataset file: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()
	return readMeta(ctx, db)
}

func readMeta(ctx context.Context, db *sql.DB) (map[string]string, error) {
	rows, err := db.QueryContext(ctx, `SELECT key, value FROM meta`)
	if err != nil {
		return nil, fmt.Errorf("querying meta: %w", err)
	}
	defer rows.Close()

	meta := make(map[string]string)
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, fmt.Errorf("scanning meta: %w", err)
		}
		meta[key] = value
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading meta: %w", err)
	}
	if _, ok := meta["year"]; !ok {
		return nil, errors.New("meta has no year entry")
	}
	return meta, nil
}

func readStation(ctx context.Context, db *sql.DB, code string, fields []string) (*domain.StationRecord, error) {
	if !identRe.MatchString(code) {
		return nil, fmt.Errorf("unsafe station code %q", code)
	}
	selectCols := "t"
	for _, f := range fields {
		if !identRe.MatchString(f) {
			return nil, fmt.Errorf("station %s: unsafe field name %q", code, f)
		}
		selectCols += fmt.Sprintf(", %q", f)
	}

	rows, err := db.QueryContext(ctx,
		fmt.Sprintf(`SELECT %s FROM %q ORDER BY rowid`, selectCols, "mag_"+code))
	if err != nil {
		return nil, fmt.Errorf("querying station %s: %w", code, err)
	}
	defer rows.Close()

	rec := &domain.StationRecord{Station: code, Fields: fields}
	for rows.Next() {
		var ts string
		values := make([]sql.NullFloat64, len(fields))
		dest := make([]any, 0, len(fields)+1)
		dest = append(dest, &ts)
		for i := range values {
			dest = append(dest, &values[i])
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("scanning station %s: %w", code, err)
		}

		t, err := time.Parse(timeLayout, ts)
		if err != nil {
			return nil, fmt.Errorf("station %s timestamp %q: %w", code, ts, err)
		}
		row := make([]float64, len(fields))
		for i, v := range values {
			if v.Valid {
				row[i] = v.Float64
			} else {
				row[i] = math.NaN()
			}
		}
		rec.Times = append(rec.Times, t.UTC())
		rec.Values = append(rec.Values, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading station %s: %w", code, err)
	}
	return rec, nil
}
