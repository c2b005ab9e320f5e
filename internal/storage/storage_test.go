package storage_test

import (
	"context"
	"flag"
	"fmt"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ashita-ai/blueline/internal/storage"
	"github.com/ashita-ai/blueline/internal/testutil"
	"github.com/ashita-ai/blueline/migrations"
)

// testDB is shared by the integration tests in this package. It stays nil
// under -short, and those tests skip.
var testDB *storage.DB

func TestMain(m *testing.M) {
	flag.Parse()
	if testing.Short() {
		os.Exit(m.Run())
	}

	ctx := context.Background()
	pg := testutil.MustStartPostgres()

	var err error
	testDB, err = pg.NewDB(ctx, testutil.TestLogger())
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create DB: %v\n", err)
		pg.Stop()
		os.Exit(1)
	}
	if err := seed(ctx, testDB); err != nil {
		fmt.Fprintf(os.Stderr, "failed to seed: %v\n", err)
		pg.Stop()
		os.Exit(1)
	}

	code := m.Run()

	testDB.Close()
	pg.Stop()
	os.Exit(code)
}

func seed(ctx context.Context, db *storage.DB) error {
	stmts := []string{
		`INSERT INTO officers_real (employee_id, first_name, last_name, zip_code, rank) VALUES
			(1001, 'Ana', 'Rivera', '02114', 'Det'),
			(1002, 'Sean', 'O''Neil', '02128', 'Sgt'),
			(1003, 'Priya', 'Patel', '02119', 'Ptl')`,
		`INSERT INTO districts (employee_id, district, total_incidents) VALUES
			(1001, 'Boston Police District A-1', 2),
			(1002, 'Boston Police District A-7', 0),
			(NULL, 'Boston Police District B-2', 0)`,
		`INSERT INTO compensation (employee_id, year, regular_pay, ot_pay, total_pay) VALUES
			(1001, 2020, '$90,000.00', '12,500.50', '102500.50'),
			(1001, 2021, '95000', 'N/A', '95000'),
			(1002, 2021, '80000', '40000', '120000')`,
		`INSERT INTO incidents (incident_id, "Employee_ID", employee_id_text, incident_year, alg_allegation, severity_score) VALUES
			(1, 1001, NULL, 2020, 'Use of force', '7'),
			(2, NULL, '1002', 2021, 'Conduct', 'high: 4'),
			(3, 1001, NULL, 2021, 'Neglect of duty', NULL)`,
	}
	for _, s := range stmts {
		if _, err := db.Pool().Exec(ctx, s); err != nil {
			return err
		}
	}
	return nil
}

func requireDB(t *testing.T) {
	t.Helper()
	if testDB == nil {
		t.Skip("integration test requires Docker (skipped with -short)")
	}
}

func TestRunMigrations_Idempotent(t *testing.T) {
	requireDB(t)
	require.NoError(t, testDB.RunMigrations(context.Background(), migrations.FS))
}

func TestFetchOfficers(t *testing.T) {
	requireDB(t)
	officers, err := testDB.FetchOfficers(context.Background())
	require.NoError(t, err)
	require.Len(t, officers, 3)

	byID := map[int64]string{}
	for _, o := range officers {
		require.NotNil(t, o.EmployeeID)
		byID[*o.EmployeeID] = o.FirstName + " " + o.LastName
	}
	assert.Equal(t, "Sean O'Neil", byID[1002])
}

func TestFetchDistricts_KeepsNullEmployee(t *testing.T) {
	requireDB(t)
	districts, err := testDB.FetchDistricts(context.Background())
	require.NoError(t, err)
	require.Len(t, districts, 3)

	var nulls int
	for _, d := range districts {
		if d.EmployeeID == nil {
			nulls++
			assert.Equal(t, "Boston Police District B-2", d.District)
		}
	}
	assert.Equal(t, 1, nulls, "gateway returns null-id rows; the cache drops them")
}

func TestFetchCompensation_CoercesTextPay(t *testing.T) {
	requireDB(t)
	comp, err := testDB.FetchCompensation(context.Background())
	require.NoError(t, err)
	require.Len(t, comp, 3)

	for _, c := range comp {
		if *c.EmployeeID == 1001 && c.Year == 2020 {
			assert.InDelta(t, 90000.0, c.RegularPay, 1e-9)
			assert.InDelta(t, 12500.5, c.OvertimePay, 1e-9)
		}
		if *c.EmployeeID == 1001 && c.Year == 2021 {
			assert.Equal(t, 0.0, c.OvertimePay)
		}
	}
}

func TestFetchIncidents_EmployeeIDFallback(t *testing.T) {
	requireDB(t)
	incidents, err := testDB.FetchIncidents(context.Background())
	require.NoError(t, err)
	require.Len(t, incidents, 3)

	for _, inc := range incidents {
		require.NotNil(t, inc.EmployeeID, "incident %d", inc.IncidentID)
		if inc.IncidentID == 2 {
			assert.Equal(t, int64(1002), *inc.EmployeeID)
			assert.InDelta(t, 4.0, inc.Severity, 1e-9)
		}
	}
}

func TestFetchRows_UnknownTable(t *testing.T) {
	requireDB(t)
	_, err := testDB.FetchRows(context.Background(), "pg_user")
	require.ErrorIs(t, err, storage.ErrUnknownTable)
}

func TestQueries(t *testing.T) {
	requireDB(t)
	ctx := context.Background()

	require.NoError(t, testDB.CheckQueryColumns(ctx))

	found, err := testDB.FindOfficersByName(ctx, "PRI", "pat", 10)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, int64(1003), *found[0].EmployeeID)

	found, err = testDB.FindOfficersByName(ctx, "", "", 2)
	require.NoError(t, err)
	assert.Len(t, found, 2, "no fragments lists the first page")

	found, err = testDB.FindOfficersByName(ctx, "%", "", 10)
	require.NoError(t, err)
	assert.Empty(t, found, "wildcards in input are matched literally")

	page, err := testDB.ListOfficers(ctx, 2, 1)
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, int64(1002), *page[0].EmployeeID)

	comp, err := testDB.CompensationByYear(ctx, 2021, 10)
	require.NoError(t, err)
	assert.Len(t, comp, 2)

	inc, err := testDB.IncidentsByYear(ctx, 2021, 1)
	require.NoError(t, err)
	require.Len(t, inc, 1)
	assert.Equal(t, int64(2), inc[0].IncidentID)
}
