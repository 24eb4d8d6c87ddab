// Package sqlite stores the input and result tables in an embedded SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/aouyang1/go-demoforecast/internal/store"
	"github.com/aouyang1/go-demoforecast/quadrant"
	"github.com/aouyang1/go-demoforecast/timedataset"
)

var ErrNoPath = errors.New("sqlite: path is required")

type Store struct {
	db *sql.DB
}

// New opens the database at path and creates any missing tables
func New(path string) (*Store, error) {
	if path == "" {
		return nil, ErrNoPath
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func quote(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func columnType(c store.Column) string {
	var typ string
	switch c.Kind {
	case store.Integer, store.Bool:
		typ = "INTEGER"
	case store.Real:
		typ = "REAL"
	default:
		typ = "TEXT"
	}
	if !c.Nullable {
		typ += " NOT NULL"
	}
	return typ
}

func createTableSQL(t store.Table) string {
	cols := make([]string, 0, len(t.Columns))
	for _, c := range t.Columns {
		cols = append(cols, quote(c.Name)+" "+columnType(c))
	}
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s);", quote(t.Name), strings.Join(cols, ", "))
}

func (s *Store) migrate() error {
	statements := []string{`PRAGMA journal_mode = WAL;`}
	for _, t := range store.Inputs {
		statements = append(statements, createTableSQL(t))
	}
	for _, t := range store.Outputs {
		statements = append(statements, createTableSQL(t))
	}

	for _, statement := range statements {
		if _, err := s.db.Exec(statement); err != nil {
			return fmt.Errorf("sqlite: migrate, %w", err)
		}
	}
	return nil
}

// Replace deletes every row of the table and inserts rows within one transaction
func (s *Store) Replace(ctx context.Context, t store.Table, rows [][]any) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, "DELETE FROM "+quote(t.Name)); err != nil {
		return fmt.Errorf("unable to clear %s, %w", t.Name, err)
	}

	cols := make([]string, 0, len(t.Columns))
	marks := make([]string, 0, len(t.Columns))
	for _, c := range t.Columns {
		cols = append(cols, quote(c.Name))
		marks = append(marks, "?")
	}
	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		quote(t.Name), strings.Join(cols, ", "), strings.Join(marks, ", ")))
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, row := range rows {
		if len(row) != len(t.Columns) {
			err = fmt.Errorf("row %d of %s has %d values, expected %d", i, t.Name, len(row), len(t.Columns))
			return err
		}
		if _, err = stmt.ExecContext(ctx, row...); err != nil {
			return fmt.Errorf("unable to insert into %s, %w", t.Name, err)
		}
	}

	return tx.Commit()
}

// ReadObservations reads an observation table ordered by region and year. NULL values are read as
// NaN.
func (s *Store) ReadObservations(ctx context.Context, t store.Table) ([]timedataset.Observation, error) {
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(
		"SELECT region_name, year, %s FROM %s ORDER BY region_name, year",
		quote(t.ValueColumn()), quote(t.Name),
	))
	if err != nil {
		return nil, fmt.Errorf("unable to query %s, %w", t.Name, err)
	}
	defer rows.Close()

	var out []timedataset.Observation
	for rows.Next() {
		var (
			obs   timedataset.Observation
			value sql.NullFloat64
		)
		if err := rows.Scan(&obs.Entity, &obs.Period, &value); err != nil {
			return nil, fmt.Errorf("unable to scan %s, %w", t.Name, err)
		}
		obs.Value = math.NaN()
		if value.Valid {
			obs.Value = value.Float64
		}
		out = append(out, obs)
	}
	return out, rows.Err()
}

func (s *Store) ReadRegions(ctx context.Context) ([]store.Region, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT region_name, region_type FROM regions ORDER BY region_name")
	if err != nil {
		return nil, fmt.Errorf("unable to query regions, %w", err)
	}
	defer rows.Close()

	var out []store.Region
	for rows.Next() {
		var name, typ string
		if err := rows.Scan(&name, &typ); err != nil {
			return nil, fmt.Errorf("unable to scan regions, %w", err)
		}
		out = append(out, store.Region{Name: name, Type: quadrant.RegionType(typ)})
	}
	return out, rows.Err()
}

// Count returns the number of rows in a table
func (s *Store) Count(ctx context.Context, t store.Table) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+quote(t.Name)).Scan(&n)
	return n, err
}
