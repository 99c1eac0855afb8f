package casedata

import (
	"context"
	"errors"
	"math"
	"path/filepath"
	"strings"
	"testing"

	"github.com/GoSim-25-26J-441/epicast/pkg/models"
)

func openMemory(t *testing.T) *Store {
	t.Helper()
	s, err := Open(MemoryPath)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestInsertAndQuery(t *testing.T) {
	ctx := context.Background()
	s := openMemory(t)

	err := s.Insert(ctx,
		Record{Kind: KindConfirmed, Country: "Italy", Day: 2, Count: 20},
		Record{Kind: KindConfirmed, Country: "Italy", Day: 0, Count: 3},
		Record{Kind: KindConfirmed, Country: "Italy", Day: 1, Count: 9},
		Record{Kind: KindConfirmed, Country: "Spain", Day: 0, Count: 1},
		Record{Kind: KindDeaths, Country: "Italy", Day: 0, Count: 0},
	)
	if err != nil {
		t.Fatalf("insert: %v", err)
	}

	got, err := s.CasesByCountry(ctx, KindConfirmed, "Italy")
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	want := []float64{3, 9, 20}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}

	countries, err := s.Countries(ctx, KindConfirmed)
	if err != nil {
		t.Fatalf("countries: %v", err)
	}
	if strings.Join(countries, ",") != "Italy,Spain" {
		t.Fatalf("unexpected countries: %v", countries)
	}
}

func TestInsertReplacesExistingDay(t *testing.T) {
	ctx := context.Background()
	s := openMemory(t)

	if err := s.Insert(ctx, Record{Kind: KindConfirmed, Country: "Italy", Day: 0, Count: 1}); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if err := s.Insert(ctx, Record{Kind: KindConfirmed, Country: "Italy", Day: 0, Count: 5}); err != nil {
		t.Fatalf("insert: %v", err)
	}
	got, err := s.CasesByCountry(ctx, KindConfirmed, "Italy")
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(got) != 1 || got[0] != 5 {
		t.Fatalf("expected [5], got %v", got)
	}
}

func TestInsertRejectsInvalidRecords(t *testing.T) {
	ctx := context.Background()
	s := openMemory(t)

	bad := []Record{
		{Kind: "", Country: "Italy", Day: 0, Count: 1},
		{Kind: KindConfirmed, Country: "Italy", Day: -1, Count: 1},
		{Kind: KindConfirmed, Country: "Italy", Day: 0, Count: -1},
		{Kind: KindConfirmed, Country: "Italy", Day: 0, Count: math.NaN()},
	}
	for _, r := range bad {
		var input *models.InvalidInputError
		if err := s.Insert(ctx, Record{Kind: KindConfirmed, Country: "Italy", Day: 9, Count: 1}, r); !errors.As(err, &input) {
			t.Fatalf("%+v: expected InvalidInputError, got %v", r, err)
		}
	}

	// nothing from a rejected batch is stored
	if _, err := s.CasesByCountry(ctx, KindConfirmed, "Italy"); err == nil {
		t.Fatalf("expected no rows after rejected inserts")
	}
}

func TestCasesByCountryUnknown(t *testing.T) {
	s := openMemory(t)
	var input *models.InvalidInputError
	if _, err := s.CasesByCountry(context.Background(), KindConfirmed, "Atlantis"); !errors.As(err, &input) {
		t.Fatalf("expected InvalidInputError, got %v", err)
	}
}

func TestCasesByCountryRejectsGaps(t *testing.T) {
	tests := []struct {
		name string
		days []int
	}{
		{"Missing middle day", []int{0, 1, 3}},
		{"Late start", []int{1, 2, 3}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			s := openMemory(t)
			for _, d := range tt.days {
				if err := s.Insert(ctx, Record{Kind: KindConfirmed, Country: "Italy", Day: d, Count: float64(d)}); err != nil {
					t.Fatalf("insert: %v", err)
				}
			}
			var input *models.InvalidInputError
			if _, err := s.CasesByCountry(ctx, KindConfirmed, "Italy"); !errors.As(err, &input) {
				t.Fatalf("expected InvalidInputError, got %v", err)
			}
		})
	}
}

func TestImportCSV(t *testing.T) {
	ctx := context.Background()
	s := openMemory(t)

	data := "Country, Count, Day, source\nItaly, 3, 0, x\nItaly, 17, 1, x\nSpain, 2, 0, y\n"
	n, err := s.ImportCSV(ctx, strings.NewReader(data), KindConfirmed)
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if n != 3 {
		t.Fatalf("expected 3 records, got %d", n)
	}
	got, err := s.CasesByCountry(ctx, KindConfirmed, "Italy")
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(got) != 2 || got[0] != 3 || got[1] != 17 {
		t.Fatalf("unexpected series %v", got)
	}
}

func TestParseCSVErrors(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{name: "empty", data: ""},
		{name: "missing column", data: "country,day\nItaly,0\n"},
		{name: "bad day", data: "country,day,count\nItaly,zero,1\n"},
		{name: "bad count", data: "country,day,count\nItaly,0,many\n"},
		{name: "negative count", data: "country,day,count\nItaly,0,-4\n"},
		{name: "short row", data: "country,day,count\nItaly,0\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseCSV(strings.NewReader(tt.data), KindConfirmed)
			var input *models.InvalidInputError
			if !errors.As(err, &input) {
				t.Fatalf("expected InvalidInputError, got %v", err)
			}
		})
	}
}

func TestOpenFilePersists(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "cases.sqlite3")

	s, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := s.Insert(ctx, Record{Kind: KindConfirmed, Country: "Italy", Day: 0, Count: 42}); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	s, err = Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s.Close()
	got, err := s.CasesByCountry(ctx, KindConfirmed, "Italy")
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(got) != 1 || got[0] != 42 {
		t.Fatalf("expected [42], got %v", got)
	}
}

func TestOpenBadPath(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "missing", "dir", "cases.sqlite3"))
	var ioErr *models.IOError
	if !errors.As(err, &ioErr) {
		t.Fatalf("expected IOError, got %v", err)
	}
}
