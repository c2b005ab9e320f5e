package storage

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/ashita-ai/blueline/internal/coerce"
	"github.com/ashita-ai/blueline/internal/model"
)

// Source table names.
const (
	TableOfficers     = "officers_real"
	TableDistricts    = "districts"
	TableCompensation = "compensation"
	TableIncidents    = "incidents"
)

// Row is one source row with normalized keys.
type Row map[string]any

// NormalizeKey lowercases a column name and collapses every run of
// non-alphanumeric characters into a single underscore, so "Employee ID",
// "Employee_ID" and "employee_id" all become "employee_id".
func NormalizeKey(key string) string {
	var b strings.Builder
	b.Grow(len(key))
	pendingSep := false
	for _, r := range strings.ToLower(key) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			if pendingSep && b.Len() > 0 {
				b.WriteByte('_')
			}
			pendingSep = false
			b.WriteRune(r)
			continue
		}
		pendingSep = true
	}
	return b.String()
}

// NormalizeRow rekeys raw with NormalizeKey. When two raw keys collapse to
// the same normalized key, the non-nil value of the raw key that sorts first
// wins, so the result does not depend on map iteration order.
func NormalizeRow(raw map[string]any) Row {
	row := make(Row, len(raw))
	for _, k := range slices.Sorted(maps.Keys(raw)) {
		v := raw[k]
		nk := NormalizeKey(k)
		if existing, ok := row[nk]; ok && existing != nil {
			continue
		}
		row[nk] = v
	}
	return row
}

// first returns the first non-nil, non-blank value among keys.
func (r Row) first(keys ...string) any {
	for _, k := range keys {
		v, ok := r[k]
		if !ok || v == nil {
			continue
		}
		if s, isStr := v.(string); isStr && strings.TrimSpace(s) == "" {
			continue
		}
		return v
	}
	return nil
}

func (r Row) str(keys ...string) string {
	return coerce.String(r.first(keys...))
}

func (r Row) num(keys ...string) float64 {
	return coerce.Float(r.first(keys...))
}

func (r Row) employeeID(extra ...string) *int64 {
	keys := append([]string{"employee_id", "emp_id", "employeeid"}, extra...)
	id, ok := coerce.ID(r.first(keys...))
	if !ok {
		return nil
	}
	return &id
}

// DecodeOfficer maps an officers_real row.
func DecodeOfficer(r Row) model.Officer {
	return model.Officer{
		EmployeeID: r.employeeID(),
		FirstName:  r.str("first_name", "firstname"),
		LastName:   r.str("last_name", "lastname"),
		Rank:       r.str("rank", "title_rank"),
		ZipCode:    r.str("zip_code", "zip", "postal"),
	}
}

// DecodeDistrict maps a districts row. Older exports name the district
// column "unit".
func DecodeDistrict(r Row) model.DistrictAssignment {
	return model.DistrictAssignment{
		EmployeeID:     r.employeeID(),
		District:       r.str("district", "unit", "district_name"),
		TotalIncidents: int(coerce.Int(r.first("total_incidents"))),
	}
}

// DecodeCompensation maps a compensation row. year is part of the key and
// must be present.
func DecodeCompensation(r Row) (model.Compensation, error) {
	year, ok := coerce.ID(r.first("year"))
	if !ok {
		return model.Compensation{}, fmt.Errorf("%w: %s.year", ErrMissingField, TableCompensation)
	}
	return model.Compensation{
		EmployeeID:  r.employeeID(),
		Year:        int(year),
		RegularPay:  r.num("regular_pay", "regular"),
		RetroPay:    r.num("retro_pay", "retro"),
		OtherPay:    r.num("other_pay", "other"),
		OvertimePay: r.num("ot_pay", "overtime_pay", "overtime"),
		InjuredPay:  r.num("injured_pay", "injured"),
		DetailPay:   r.num("detail_pay", "detail"),
		QuinnPay:    r.num("quinn_pay", "quinn", "quinn_education_incentive"),
		TotalPay:    r.num("total_pay", "total_gross", "total"),
	}, nil
}

// DecodeIncident maps an incidents row. incident_id is required; the
// employee id falls back to the employee_id_text column.
func DecodeIncident(r Row) (model.Incident, error) {
	id, ok := coerce.ID(r.first("incident_id", "id"))
	if !ok {
		return model.Incident{}, fmt.Errorf("%w: %s.incident_id", ErrMissingField, TableIncidents)
	}
	return model.Incident{
		IncidentID:         id,
		EmployeeID:         r.employeeID("employee_id_text"),
		IANumber:           r.str("inc_ia_no", "ia_no", "ia_number"),
		IncidentType:       r.str("inc_incident_type", "incident_type"),
		ReceivedDate:       r.str("inc_received_date", "received_date"),
		OccurredDate:       r.str("inc_occurred_date", "occurred_date"),
		IncidentYear:       int(coerce.Int(r.first("incident_year", "year"))),
		TitleRank:          r.str("offsnp_title_rank", "title_rank"),
		OfficerFirstName:   r.str("off_first_name", "first_name"),
		OfficerLastName:    r.str("off_last_name", "last_name"),
		Allegation:         r.str("alg_allegation", "allegation"),
		Finding:            r.str("alg_finding", "finding"),
		ActionTaken:        r.str("act_action_taken", "action_taken"),
		DaysHoursSuspended: r.str("act_days_hours_suspended", "days_hours_suspended"),
		ActionTakenDate:    r.str("act_action_taken_date", "action_taken_date"),
		Severity:           r.num("severity_score", "severity"),
	}, nil
}
