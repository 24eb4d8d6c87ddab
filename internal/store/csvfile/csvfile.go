// Package csvfile reads and writes the tables as one CSV file per table with a header row.
package csvfile

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/aouyang1/go-demoforecast/internal/store"
	"github.com/aouyang1/go-demoforecast/quadrant"
	"github.com/aouyang1/go-demoforecast/timedataset"
)

var (
	ErrMissingColumn = errors.New("missing column")
	ErrNoDir         = errors.New("csv directory is required")
)

// InterimFiles returns the file names the cleaning step writes for the input tables
func InterimFiles() map[string]string {
	return map[string]string{
		store.Expenditure.Name: "expenditure_clean.csv",
		store.TFR.Name:         "tfr_clean.csv",
		store.Regions.Name:     "region_master.csv",
	}
}

// Store keeps each table in <dir>/<table>.csv unless a file name is mapped for the table
type Store struct {
	dir   string
	files map[string]string
}

func New(dir string) (*Store, error) {
	return NewWithFiles(dir, nil)
}

// NewWithFiles creates a Store reading and writing the tables named in files from the mapped file
// names. Tables without an entry use <table>.csv.
func NewWithFiles(dir string, files map[string]string) (*Store, error) {
	if dir == "" {
		return nil, ErrNoDir
	}
	mapped := make(map[string]string, len(files))
	for table, file := range files {
		if file != "" {
			mapped[table] = file
		}
	}
	return &Store{dir: dir, files: mapped}, nil
}

func (s *Store) Close() error {
	return nil
}

// Path returns the file backing a table
func (s *Store) Path(t store.Table) string {
	if file, ok := s.files[t.Name]; ok {
		return filepath.Join(s.dir, file)
	}
	return filepath.Join(s.dir, t.Name+".csv")
}

type table struct {
	index map[string]int
	rows  [][]string
}

func (tbl *table) col(row []string, name string) string {
	i := tbl.index[name]
	if i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func (s *Store) read(t store.Table, required ...string) (*table, error) {
	f, err := os.Open(s.Path(t))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	header, err := r.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return &table{index: map[string]int{}}, nil
		}
		return nil, fmt.Errorf("unable to read header of %s, %w", t.Name, err)
	}

	index := make(map[string]int, len(header))
	for i, h := range header {
		index[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))] = i
	}
	// older cleaned files name the region column region
	if _, ok := index["region_name"]; !ok {
		if i, ok := index["region"]; ok {
			index["region_name"] = i
		}
	}
	for _, name := range required {
		if _, ok := index[name]; !ok {
			return nil, fmt.Errorf("%s in %s, %w", name, t.Name, ErrMissingColumn)
		}
	}

	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("unable to read %s, %w", t.Name, err)
	}
	return &table{index: index, rows: rows}, nil
}

// ReadObservations reads an observation table. Empty values are read as NaN.
func (s *Store) ReadObservations(_ context.Context, t store.Table) ([]timedataset.Observation, error) {
	value := t.ValueColumn()
	tbl, err := s.read(t, "region_name", "year", value)
	if err != nil {
		return nil, err
	}

	out := make([]timedataset.Observation, 0, len(tbl.rows))
	for i, row := range tbl.rows {
		year, err := parseYear(tbl.col(row, "year"))
		if err != nil {
			return nil, fmt.Errorf("%s line %d, %w", t.Name, i+2, err)
		}
		v := math.NaN()
		if raw := tbl.col(row, value); raw != "" {
			if v, err = strconv.ParseFloat(raw, 64); err != nil {
				return nil, fmt.Errorf("%s line %d, %w", t.Name, i+2, err)
			}
		}
		out = append(out, timedataset.Observation{
			Entity: tbl.col(row, "region_name"),
			Period: year,
			Value:  v,
		})
	}
	return out, nil
}

// parseYear accepts integer years, including ones written as floats
func parseYear(raw string) (int, error) {
	if y, err := strconv.Atoi(raw); err == nil {
		return y, nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || f != math.Trunc(f) {
		return 0, fmt.Errorf("invalid year %q", raw)
	}
	return int(f), nil
}

// ReadRegions reads the regions table. A missing file yields no regions so types are inferred
// from names.
func (s *Store) ReadRegions(_ context.Context) ([]store.Region, error) {
	tbl, err := s.read(store.Regions, "region_name", "region_type")
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	out := make([]store.Region, 0, len(tbl.rows))
	for _, row := range tbl.rows {
		out = append(out, store.Region{
			Name: tbl.col(row, "region_name"),
			Type: quadrant.RegionType(tbl.col(row, "region_type")),
		})
	}
	return out, nil
}

func format(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return ""
		}
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	}
	return fmt.Sprint(v)
}

// Replace truncates the table file and writes the header followed by rows. The file is written
// next to its destination and renamed into place.
func (s *Store) Replace(_ context.Context, t store.Table, rows [][]any) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(s.dir, t.Name+".*.csv")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	w := csv.NewWriter(tmp)
	if err := w.Write(t.ColumnNames()); err != nil {
		tmp.Close()
		return err
	}
	record := make([]string, len(t.Columns))
	for i, row := range rows {
		if len(row) != len(t.Columns) {
			tmp.Close()
			return fmt.Errorf("row %d of %s has %d values, expected %d", i, t.Name, len(row), len(t.Columns))
		}
		for j, v := range row {
			record[j] = format(v)
		}
		if err := w.Write(record); err != nil {
			tmp.Close()
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), s.Path(t))
}
