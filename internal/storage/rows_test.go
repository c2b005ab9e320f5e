package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeKey(t *testing.T) {
	tests := map[string]string{
		"employee_id":       "employee_id",
		"Employee ID":       "employee_id",
		"Employee_ID":       "employee_id",
		"  Employee--ID  ":  "employee_id",
		"offSnp_title_rank": "offsnp_title_rank",
		"OT Pay ($)":        "ot_pay",
		"":                  "",
	}
	for in, want := range tests {
		assert.Equal(t, want, NormalizeKey(in), "input %q", in)
	}
}

func TestNormalizeRow_FirstNonNilWins(t *testing.T) {
	row := NormalizeRow(map[string]any{
		"Employee ID": nil,
		"employee_id": int64(7),
	})
	assert.Equal(t, int64(7), row["employee_id"])
}

func TestNormalizeRow_CollisionIsDeterministic(t *testing.T) {
	raw := map[string]any{
		"employee_id": int64(1),
		"Employee ID": int64(2),
		"EMPLOYEE_ID": int64(3),
	}
	for range 50 {
		row := NormalizeRow(raw)
		assert.Equal(t, int64(3), row["employee_id"], `"EMPLOYEE_ID" sorts first`)
	}
}

func TestDecodeOfficer_IDVariants(t *testing.T) {
	for _, key := range []string{"employee_id", "Employee ID", "Employee_ID"} {
		o := DecodeOfficer(NormalizeRow(map[string]any{key: "42", "first_name": " Ana "}))
		require.NotNil(t, o.EmployeeID, key)
		assert.Equal(t, int64(42), *o.EmployeeID)
		assert.Equal(t, "Ana", o.FirstName)
	}

	o := DecodeOfficer(NormalizeRow(map[string]any{"employee_id": nil}))
	assert.Nil(t, o.EmployeeID)
}

func TestDecodeDistrict_UnitFallback(t *testing.T) {
	d := DecodeDistrict(NormalizeRow(map[string]any{"Employee_ID": 9, "unit": "District C-11"}))
	assert.Equal(t, "District C-11", d.District)
	assert.Equal(t, int64(9), *d.EmployeeID)
}

func TestDecodeCompensation(t *testing.T) {
	c, err := DecodeCompensation(NormalizeRow(map[string]any{
		"employee_id": 5,
		"year":        "2021",
		"regular_pay": "$80,000.00",
		"ot_pay":      "garbage",
		"quinn_pay":   "1,200",
	}))
	require.NoError(t, err)
	assert.Equal(t, 2021, c.Year)
	assert.InDelta(t, 80000.0, c.RegularPay, 1e-9)
	assert.Equal(t, 0.0, c.OvertimePay)
	assert.InDelta(t, 1200.0, c.QuinnPay, 1e-9)

	_, err = DecodeCompensation(NormalizeRow(map[string]any{"employee_id": 5}))
	require.ErrorIs(t, err, ErrMissingField)
}

func TestDecodeIncident(t *testing.T) {
	inc, err := DecodeIncident(NormalizeRow(map[string]any{
		"incident_id":      "88",
		"Employee_ID":      nil,
		"employee_id_text": "1002",
		"alg_allegation":   "Conduct",
		"severity_score":   "sev 3.5",
	}))
	require.NoError(t, err)
	assert.Equal(t, int64(88), inc.IncidentID)
	require.NotNil(t, inc.EmployeeID)
	assert.Equal(t, int64(1002), *inc.EmployeeID)
	assert.Equal(t, "Conduct", inc.Allegation)
	assert.InDelta(t, 3.5, inc.Severity, 1e-9)

	_, err = DecodeIncident(NormalizeRow(map[string]any{"employee_id": 1}))
	require.ErrorIs(t, err, ErrMissingField)
}

func TestEscapeLike(t *testing.T) {
	assert.Equal(t, `50\% off\_x`, escapeLike("50% off_x"))
}

func TestMissingQueryColumns(t *testing.T) {
	full := map[string][]string{
		TableOfficers:     {"employee_id", "first_name", "last_name", "rank"},
		TableCompensation: {"employee_id", "year", "ot_pay"},
		TableIncidents:    {"incident_id", "Employee_ID", "incident_year"},
	}
	assert.Empty(t, missingQueryColumns(full))

	spaced := map[string][]string{
		TableOfficers:     {"Employee ID", "First Name", "last_name"},
		TableCompensation: {"employee_id", "year"},
	}
	assert.Equal(t, []string{
		"incidents.incident_id",
		"incidents.incident_year",
		"officers_real.employee_id",
		"officers_real.first_name",
	}, missingQueryColumns(spaced))
}
