package model

// Department is the public representation of a patrol district. It is derived
// by grouping district assignments by district name; there is no source table.
type Department struct {
	ID           string              `json:"id"`
	District     string              `json:"district"`
	Address      string              `json:"address"`
	Position     [2]float64          `json:"position"`
	Officers     []DepartmentOfficer `json:"officers"`
	MappingScore float64             `json:"mappingScore"`
}

// DepartmentOfficer is one officer entry inside a Department payload.
type DepartmentOfficer struct {
	ID                   string   `json:"id"`
	Name                 string   `json:"name"`
	Rank                 string   `json:"rank,omitempty"`
	ComplaintsPercentile *float64 `json:"complaintsPercentile"`
	OvertimePercentile   *float64 `json:"overtimePercentile"`
}

// DistrictMember is one district assignment joined with its officer row.
// Officer is nil when the assignment references an unknown employee.
type DistrictMember struct {
	Assignment DistrictAssignment
	Officer    *Officer
}
