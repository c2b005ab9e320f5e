package storage

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/ashita-ai/blueline/internal/model"
)

var sourceTables = map[string]bool{
	TableOfficers:     true,
	TableDistricts:    true,
	TableCompensation: true,
	TableIncidents:    true,
}

// FetchRows reads every row of table with normalized keys.
func (db *DB) FetchRows(ctx context.Context, table string) ([]Row, error) {
	if !sourceTables[table] {
		return nil, fmt.Errorf("%w: %q", ErrUnknownTable, table)
	}
	query := "SELECT * FROM " + pgx.Identifier{table}.Sanitize()
	return db.queryRows(ctx, table, query)
}

func (db *DB) queryRows(ctx context.Context, table, query string, args ...any) ([]Row, error) {
	var raw []map[string]any
	err := defaultReadPolicy.run(ctx, db.logger, table, func() error {
		rows, err := db.pool.Query(ctx, query, args...)
		if err != nil {
			return err
		}
		raw, err = pgx.CollectRows(rows, pgx.RowToMap)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("storage: query %s: %w", table, err)
	}

	out := make([]Row, len(raw))
	for i, m := range raw {
		out[i] = NormalizeRow(m)
	}
	return out, nil
}

// FetchOfficers returns every officers_real row.
func (db *DB) FetchOfficers(ctx context.Context) ([]model.Officer, error) {
	rows, err := db.FetchRows(ctx, TableOfficers)
	if err != nil {
		return nil, err
	}
	return decodeOfficers(rows), nil
}

// FetchDistricts returns every districts row.
func (db *DB) FetchDistricts(ctx context.Context) ([]model.DistrictAssignment, error) {
	rows, err := db.FetchRows(ctx, TableDistricts)
	if err != nil {
		return nil, err
	}
	out := make([]model.DistrictAssignment, len(rows))
	for i, r := range rows {
		out[i] = DecodeDistrict(r)
	}
	return out, nil
}

// FetchCompensation returns every compensation row.
func (db *DB) FetchCompensation(ctx context.Context) ([]model.Compensation, error) {
	rows, err := db.FetchRows(ctx, TableCompensation)
	if err != nil {
		return nil, err
	}
	return decodeCompensation(rows)
}

// FetchIncidents returns every incidents row.
func (db *DB) FetchIncidents(ctx context.Context) ([]model.Incident, error) {
	rows, err := db.FetchRows(ctx, TableIncidents)
	if err != nil {
		return nil, err
	}
	return decodeIncidents(rows)
}

func decodeOfficers(rows []Row) []model.Officer {
	out := make([]model.Officer, len(rows))
	for i, r := range rows {
		out[i] = DecodeOfficer(r)
	}
	return out
}

func decodeCompensation(rows []Row) ([]model.Compensation, error) {
	out := make([]model.Compensation, 0, len(rows))
	for _, r := range rows {
		c, err := DecodeCompensation(r)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

func decodeIncidents(rows []Row) ([]model.Incident, error) {
	out := make([]model.Incident, 0, len(rows))
	for _, r := range rows {
		inc, err := DecodeIncident(r)
		if err != nil {
			return nil, err
		}
		out = append(out, inc)
	}
	return out, nil
}
