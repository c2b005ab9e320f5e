package model

import "strconv"

// Officer is one row of the officers_real table.
type Officer struct {
	EmployeeID *int64 `json:"employee_id"`
	FirstName  string `json:"first_name,omitempty"`
	LastName   string `json:"last_name,omitempty"`
	Rank       string `json:"rank,omitempty"`
	ZipCode    string `json:"zip_code,omitempty"`
}

// DistrictAssignment relates one employee to the district (patrol area) they
// are assigned to. One assignment per employee; duplicates are last-write-wins.
type DistrictAssignment struct {
	EmployeeID     *int64 `json:"employee_id"`
	District       string `json:"district"`
	TotalIncidents int    `json:"total_incidents"`
}

// Compensation is one year of pay for one employee. (EmployeeID, Year) is the
// composite key. Pay columns arrive as free text in the source and are
// coerced to numbers when decoded.
type Compensation struct {
	EmployeeID  *int64  `json:"employee_id"`
	Year        int     `json:"year"`
	RegularPay  float64 `json:"regular_pay"`
	RetroPay    float64 `json:"retro_pay"`
	OtherPay    float64 `json:"other_pay"`
	OvertimePay float64 `json:"ot_pay"`
	InjuredPay  float64 `json:"injured_pay"`
	DetailPay   float64 `json:"detail_pay"`
	QuinnPay    float64 `json:"quinn_pay"`
	TotalPay    float64 `json:"total_pay"`
}

// Incident is one internal-affairs record. Many incidents per officer.
type Incident struct {
	IncidentID         int64   `json:"incident_id"`
	EmployeeID         *int64  `json:"employee_id"`
	IANumber           string  `json:"ia_number,omitempty"`
	IncidentType       string  `json:"incident_type,omitempty"`
	ReceivedDate       string  `json:"received_date,omitempty"`
	OccurredDate       string  `json:"occurred_date,omitempty"`
	IncidentYear       int     `json:"incident_year,omitempty"`
	TitleRank          string  `json:"title_rank,omitempty"`
	OfficerFirstName   string  `json:"officer_first_name,omitempty"`
	OfficerLastName    string  `json:"officer_last_name,omitempty"`
	Allegation         string  `json:"allegation,omitempty"`
	Finding            string  `json:"finding,omitempty"`
	ActionTaken        string  `json:"action_taken,omitempty"`
	DaysHoursSuspended string  `json:"days_hours_suspended,omitempty"`
	ActionTakenDate    string  `json:"action_taken_date,omitempty"`
	Severity           float64 `json:"severity"`
}

// OfficerMetrics are the derived performance metrics for one employee.
// Percentiles are nil when there was no population to rank against.
type OfficerMetrics struct {
	EmployeeID              int64    `json:"employee_id"`
	OvertimePay             float64  `json:"overtime_pay"`
	OvertimeRatio           float64  `json:"overtime_ratio"`
	ComplaintCount          int      `json:"complaint_count"`
	OvertimeRatioPercentile *float64 `json:"overtime_ratio_percentile"`
	ComplaintsPercentile    *float64 `json:"complaints_percentile"`
}

// OfficerProfile aggregates everything known about one officer.
type OfficerProfile struct {
	Officer            Officer             `json:"officer"`
	District           *DistrictAssignment `json:"district"`
	DepartmentID       string              `json:"department_id,omitempty"`
	LatestCompensation *Compensation       `json:"latest_compensation"`
	Compensation       []Compensation      `json:"compensation"`
	Incidents          []Incident          `json:"incidents"`
	Metrics            *OfficerMetrics     `json:"metrics"`
}

// FormatEmployeeID renders an employee id for display, or "unknown" when nil.
func FormatEmployeeID(id *int64) string {
	if id == nil {
		return "unknown"
	}
	return strconv.FormatInt(*id, 10)
}

// Int64Ptr returns a pointer to v.
func Int64Ptr(v int64) *int64 {
	return &v
}
