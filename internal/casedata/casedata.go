// Package casedata stores daily cumulative case counts per country in SQLite
// and serves them as the observed series for calibration.
package casedata

import (
	"context"
	"database/sql"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/GoSim-25-26J-441/epicast/pkg/models"
	"github.com/GoSim-25-26J-441/epicast/pkg/utils"
)

// Case kinds tracked by the store
const (
	KindConfirmed = "confirmed"
	KindDeaths    = "deaths"
	KindRecovered = "recovered"
)

// MemoryPath opens a private in-memory database
const MemoryPath = ":memory:"

const schema = `
CREATE TABLE IF NOT EXISTS cases(
	kind    TEXT    NOT NULL,
	country TEXT    NOT NULL,
	day     INTEGER NOT NULL,
	count   REAL    NOT NULL,
	PRIMARY KEY(kind, country, day)
)`

// Record is the cumulative count of one kind of case in a country on a given day
type Record struct {
	Kind    string
	Country string
	Day     int
	Count   float64
}

// Validate rejects records that cannot be stored
func (r Record) Validate() error {
	if r.Kind == "" || r.Country == "" {
		return &models.InvalidInputError{Reason: "record needs a kind and a country"}
	}
	if r.Day < 0 {
		return &models.InvalidInputError{Reason: fmt.Sprintf("day %d is negative", r.Day)}
	}
	if !utils.IsFinite(r.Count) || r.Count < 0 {
		return &models.InvalidInputError{Reason: fmt.Sprintf("count %g for %s/%s day %d is not a non-negative number", r.Count, r.Kind, r.Country, r.Day)}
	}
	return nil
}

// Store is a case-count database
type Store struct {
	db   *sql.DB
	path string
}

// Open opens or creates the database at path and ensures the schema exists
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, &models.IOError{Op: "open", Path: path, Err: err}
	}
	// every connection to :memory: is a separate database
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, &models.IOError{Op: "open", Path: path, Err: err}
	}
	return &Store{db: db, path: path}, nil
}

// Close releases the database
func (s *Store) Close() error {
	return s.db.Close()
}

// Insert stores records in one transaction. A record for an existing
// (kind, country, day) replaces the stored count.
func (s *Store) Insert(ctx context.Context, records ...Record) error {
	for _, r := range records {
		if err := r.Validate(); err != nil {
			return err
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return &models.IOError{Op: "insert", Path: s.path, Err: err}
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO cases(kind, country, day, count) VALUES(?,?,?,?)
		ON CONFLICT(kind, country, day) DO UPDATE SET count = excluded.count`)
	if err != nil {
		return &models.IOError{Op: "insert", Path: s.path, Err: err}
	}
	defer stmt.Close()

	for _, r := range records {
		if _, err := stmt.ExecContext(ctx, r.Kind, r.Country, r.Day, r.Count); err != nil {
			return &models.IOError{Op: "insert", Path: s.path, Err: err}
		}
	}
	if err := tx.Commit(); err != nil {
		return &models.IOError{Op: "insert", Path: s.path, Err: err}
	}
	return nil
}

// CasesByCountry returns the counts of kind for country ordered by day.
// The recorded days must run 0, 1, ..., n-1; a gap is an InvalidInputError
// since the series is compared point by point against daily model output.
func (s *Store) CasesByCountry(ctx context.Context, kind, country string) ([]float64, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT day, count FROM cases WHERE kind = ? AND country = ? ORDER BY day ASC", kind, country)
	if err != nil {
		return nil, &models.IOError{Op: "query", Path: s.path, Err: err}
	}
	defer rows.Close()

	var out []float64
	for rows.Next() {
		var (
			day   int
			count float64
		)
		if err := rows.Scan(&day, &count); err != nil {
			return nil, &models.IOError{Op: "query", Path: s.path, Err: err}
		}
		if day != len(out) {
			if len(out) == 0 {
				return nil, &models.InvalidInputError{Reason: fmt.Sprintf("%s cases for %s start at day %d, not day 0", kind, country, day)}
			}
			return nil, &models.InvalidInputError{Reason: fmt.Sprintf("%s cases for %s skip from day %d to day %d", kind, country, len(out)-1, day)}
		}
		out = append(out, count)
	}
	if err := rows.Err(); err != nil {
		return nil, &models.IOError{Op: "query", Path: s.path, Err: err}
	}
	if len(out) == 0 {
		return nil, &models.InvalidInputError{Reason: fmt.Sprintf("no %s cases recorded for %s", kind, country)}
	}
	return out, nil
}

// Countries lists the countries with records of kind, alphabetically
func (s *Store) Countries(ctx context.Context, kind string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT DISTINCT country FROM cases WHERE kind = ? ORDER BY country", kind)
	if err != nil {
		return nil, &models.IOError{Op: "query", Path: s.path, Err: err}
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, &models.IOError{Op: "query", Path: s.path, Err: err}
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, &models.IOError{Op: "query", Path: s.path, Err: err}
	}
	return out, nil
}

// ImportCSV loads records of kind from r and returns how many were stored.
// The input has a header row naming the columns country, day and count in any order;
// other columns are ignored.
func (s *Store) ImportCSV(ctx context.Context, r io.Reader, kind string) (int, error) {
	records, err := ParseCSV(r, kind)
	if err != nil {
		return 0, err
	}
	if err := s.Insert(ctx, records...); err != nil {
		return 0, err
	}
	return len(records), nil
}

// ParseCSV reads records of kind from r; see ImportCSV for the format
func ParseCSV(r io.Reader, kind string) ([]Record, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, &models.InvalidInputError{Reason: "csv input is empty"}
	}
	if err != nil {
		return nil, &models.InvalidInputError{Reason: fmt.Sprintf("csv header: %v", err)}
	}

	cols := map[string]int{"country": -1, "day": -1, "count": -1}
	for i, name := range header {
		if _, ok := cols[strings.ToLower(strings.TrimSpace(name))]; ok {
			cols[strings.ToLower(strings.TrimSpace(name))] = i
		}
	}
	for name, idx := range cols {
		if idx < 0 {
			return nil, &models.InvalidInputError{Reason: fmt.Sprintf("csv header is missing column %q", name)}
		}
	}

	var out []Record
	for line := 2; ; line++ {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, &models.InvalidInputError{Reason: fmt.Sprintf("csv line %d: %v", line, err)}
		}
		day, err := strconv.Atoi(strings.TrimSpace(row[cols["day"]]))
		if err != nil {
			return nil, &models.InvalidInputError{Reason: fmt.Sprintf("csv line %d: bad day %q", line, row[cols["day"]])}
		}
		count, err := strconv.ParseFloat(strings.TrimSpace(row[cols["count"]]), 64)
		if err != nil {
			return nil, &models.InvalidInputError{Reason: fmt.Sprintf("csv line %d: bad count %q", line, row[cols["count"]])}
		}
		rec := Record{Kind: kind, Country: strings.TrimSpace(row[cols["country"]]), Day: day, Count: count}
		if err := rec.Validate(); err != nil {
			return nil, fmt.Errorf("csv line %d: %w", line, err)
		}
		out = append(out, rec)
	}
	return out, nil
}
