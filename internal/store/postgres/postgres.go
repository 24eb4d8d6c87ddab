// Package postgres stores the input and result tables in PostgreSQL through a pgx pool.
package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/aouyang1/go-demoforecast/internal/store"
	"github.com/aouyang1/go-demoforecast/quadrant"
	"github.com/aouyang1/go-demoforecast/timedataset"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DBPool is the subset of a pgx pool used by the store
type DBPool interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Begin(ctx context.Context) (pgx.Tx, error)
	Close()
}

type Store struct {
	pool DBPool
}

// Connect opens a pool to the database at dsn and verifies it with a ping
func Connect(ctx context.Context, dsn string) (*Store, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("unable to create pool, %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("unable to reach database, %w", err)
	}
	return New(pool), nil
}

func New(pool DBPool) *Store {
	return &Store{pool: pool}
}

func (s *Store) Close() error {
	if s == nil || s.pool == nil {
		return nil
	}
	s.pool.Close()
	return nil
}

func columnType(c store.Column) string {
	var typ string
	switch c.Kind {
	case store.Integer:
		typ = "INTEGER"
	case store.Real:
		typ = "DOUBLE PRECISION"
	case store.Bool:
		typ = "BOOLEAN"
	default:
		typ = "TEXT"
	}
	if !c.Nullable {
		typ += " NOT NULL"
	}
	return typ
}

// CreateTableSQL returns the DDL of a table
func CreateTableSQL(t store.Table) string {
	cols := make([]string, 0, len(t.Columns))
	for _, c := range t.Columns {
		cols = append(cols, pgx.Identifier{c.Name}.Sanitize()+" "+columnType(c))
	}
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)",
		pgx.Identifier{t.Name}.Sanitize(), strings.Join(cols, ", "))
}

// Migrate creates every input and output table that does not exist
func (s *Store) Migrate(ctx context.Context) error {
	tables := append(append([]store.Table{}, store.Inputs...), store.Outputs...)
	for _, t := range tables {
		if _, err := s.pool.Exec(ctx, CreateTableSQL(t)); err != nil {
			return fmt.Errorf("unable to create %s, %w", t.Name, err)
		}
	}
	return nil
}

// Replace deletes every row of the table and copies in rows within one transaction
func (s *Store) Replace(ctx context.Context, t store.Table, rows [][]any) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("unable to begin replace of %s, %w", t.Name, err)
	}

	if _, err := tx.Exec(ctx, "DELETE FROM "+pgx.Identifier{t.Name}.Sanitize()); err != nil {
		_ = tx.Rollback(ctx)
		return fmt.Errorf("unable to clear %s, %w", t.Name, err)
	}
	if len(rows) > 0 {
		n, err := tx.CopyFrom(ctx, pgx.Identifier{t.Name}, t.ColumnNames(), pgx.CopyFromRows(rows))
		if err != nil {
			_ = tx.Rollback(ctx)
			return fmt.Errorf("unable to copy into %s, %w", t.Name, err)
		}
		if int(n) != len(rows) {
			_ = tx.Rollback(ctx)
			return fmt.Errorf("copied %d of %d rows into %s", n, len(rows), t.Name)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("unable to commit replace of %s, %w", t.Name, err)
	}
	return nil
}

// ReadObservations reads an observation table ordered by region and year. NULL values are read as
// NaN and dropped when series are prepared.
func (s *Store) ReadObservations(ctx context.Context, t store.Table) ([]timedataset.Observation, error) {
	query := fmt.Sprintf(
		"SELECT region_name, year, COALESCE(%s, 'NaN'::double precision) FROM %s ORDER BY region_name, year",
		pgx.Identifier{t.ValueColumn()}.Sanitize(), pgx.Identifier{t.Name}.Sanitize(),
	)
	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("unable to query %s, %w", t.Name, err)
	}
	defer rows.Close()

	var out []timedataset.Observation
	for rows.Next() {
		var obs timedataset.Observation
		if err := rows.Scan(&obs.Entity, &obs.Period, &obs.Value); err != nil {
			return nil, fmt.Errorf("unable to scan %s, %w", t.Name, err)
		}
		out = append(out, obs)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("unable to read %s, %w", t.Name, err)
	}
	return out, nil
}

func (s *Store) ReadRegions(ctx context.Context) ([]store.Region, error) {
	rows, err := s.pool.Query(ctx, "SELECT region_name, region_type FROM regions ORDER BY region_name")
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
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("unable to read regions, %w", err)
	}
	return out, nil
}
