package storage

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/ashita-ai/blueline/internal/model"
)

// ErrQueryColumns is returned by CheckQueryColumns when the store lacks a
// column the filtered queries name directly.
var ErrQueryColumns = errors.New("storage: filtered queries unsupported")

// queryColumns are the columns the filtered queries reference by name. Full
// fetches tolerate any key spelling; these do not.
var queryColumns = map[string][]string{
	TableOfficers:     {"employee_id", "first_name", "last_name"},
	TableCompensation: {"employee_id", "year"},
	TableIncidents:    {"incident_id", "incident_year"},
}

// CheckQueryColumns verifies that the filtered queries can run against the
// store's schema. Call it once at startup; on error, serve filters from the
// cache instead.
func (db *DB) CheckQueryColumns(ctx context.Context) error {
	rows, err := db.pool.Query(ctx, `
		SELECT table_name, column_name
		FROM information_schema.columns
		WHERE table_schema = current_schema() AND table_name = ANY($1)`,
		[]string{TableOfficers, TableCompensation, TableIncidents},
	)
	if err != nil {
		return fmt.Errorf("storage: read columns: %w", err)
	}
	type column struct{ Table, Name string }
	cols, err := pgx.CollectRows(rows, func(r pgx.CollectableRow) (column, error) {
		var c column
		err := r.Scan(&c.Table, &c.Name)
		return c, err
	})
	if err != nil {
		return fmt.Errorf("storage: read columns: %w", err)
	}

	have := make(map[string][]string)
	for _, c := range cols {
		have[c.Table] = append(have[c.Table], c.Name)
	}
	if missing := missingQueryColumns(have); len(missing) > 0 {
		return fmt.Errorf("%w: missing %s", ErrQueryColumns, strings.Join(missing, ", "))
	}
	return nil
}

// missingQueryColumns lists "table.column" entries absent from have, sorted.
func missingQueryColumns(have map[string][]string) []string {
	var missing []string
	for table, want := range queryColumns {
		for _, col := range want {
			if !slices.Contains(have[table], col) {
				missing = append(missing, table+"."+col)
			}
		}
	}
	slices.Sort(missing)
	return missing
}

// escapeLike escapes LIKE/ILIKE wildcards in user input.
func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

// FindOfficersByName returns officers whose first and/or last name contain
// the given fragments (case-insensitive), ordered by employee id. An empty
// fragment does not constrain its column.
func (db *DB) FindOfficersByName(ctx context.Context, firstName, lastName string, limit int) ([]model.Officer, error) {
	var (
		conds []string
		args  []any
	)
	if f := strings.TrimSpace(firstName); f != "" {
		args = append(args, "%"+escapeLike(f)+"%")
		conds = append(conds, fmt.Sprintf("first_name ILIKE $%d", len(args)))
	}
	if l := strings.TrimSpace(lastName); l != "" {
		args = append(args, "%"+escapeLike(l)+"%")
		conds = append(conds, fmt.Sprintf("last_name ILIKE $%d", len(args)))
	}

	query := "SELECT * FROM officers_real"
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	args = append(args, limit)
	query += fmt.Sprintf(" ORDER BY employee_id LIMIT $%d", len(args))

	rows, err := db.queryRows(ctx, TableOfficers, query, args...)
	if err != nil {
		return nil, err
	}
	return decodeOfficers(rows), nil
}

// ListOfficers returns one page of officers ordered by employee id.
func (db *DB) ListOfficers(ctx context.Context, limit, offset int) ([]model.Officer, error) {
	rows, err := db.queryRows(ctx, TableOfficers,
		`SELECT * FROM officers_real ORDER BY employee_id LIMIT $1 OFFSET $2`,
		limit, offset,
	)
	if err != nil {
		return nil, err
	}
	return decodeOfficers(rows), nil
}

// CompensationByYear returns up to limit compensation rows for year.
func (db *DB) CompensationByYear(ctx context.Context, year, limit int) ([]model.Compensation, error) {
	rows, err := db.queryRows(ctx, TableCompensation,
		`SELECT * FROM compensation WHERE year = $1 ORDER BY employee_id LIMIT $2`,
		year, limit,
	)
	if err != nil {
		return nil, err
	}
	return decodeCompensation(rows)
}

// IncidentsByYear returns up to limit incidents recorded in year.
func (db *DB) IncidentsByYear(ctx context.Context, year, limit int) ([]model.Incident, error) {
	rows, err := db.queryRows(ctx, TableIncidents,
		`SELECT * FROM incidents WHERE incident_year = $1 ORDER BY incident_id LIMIT $2`,
		year, limit,
	)
	if err != nil {
		return nil, err
	}
	return decodeIncidents(rows)
}
