// Package fixture provides a static in-memory dataset shaped like the four
// source tables. It backs the service when no database is configured, so the
// map and the agent tools have something to show in local development.
package fixture

import (
	"context"
	"fmt"

	"github.com/ashita-ai/blueline/internal/model"
)

type seedOfficer struct {
	first, last, rank string
}

type seedDistrict struct {
	name     string
	zip      string
	officers [4]seedOfficer
}

var districts = []seedDistrict{
	{"Boston Police District A-1", "02114", [4]seedOfficer{
		{"Ana", "Rivera", "Det"}, {"Sean", "O'Neil", "Sgt"}, {"Priya", "Patel", "Ptl"}, {"Marcus", "Bell", "Capt"},
	}},
	{"Boston Police District A-7", "02128", [4]seedOfficer{
		{"Luis", "Diaz", "Ptl"}, {"Elena", "Morales", "Det"}, {"Conor", "Finn", "Lt"}, {"Imran", "Khan", "Dep Supt"},
	}},
	{"Boston Police District B-2", "02119", [4]seedOfficer{
		{"Grace", "Bennett", "Ptl"}, {"Jorge", "Martinez", "Sgt"}, {"Owen", "Pratt", "Lt Det"}, {"Tanya", "Byrd", "Dep Supt"},
	}},
	{"Boston Police District C-11", "02122", [4]seedOfficer{
		{"Nora", "Reed", "Ptl"}, {"Felix", "Clarke", "Det"}, {"Dana", "Holt", "Sgt Det"}, {"Victor", "Jacobs", "Supt"},
	}},
	{"Boston Police District D-4", "02120", [4]seedOfficer{
		{"Rosa", "Flores", "Ptl"}, {"Ben", "Allen", "Det"}, {"Ruth", "Carlisle", "Lt"}, {"Miles", "Dane", "Lt Det"},
	}},
	{"Boston Police District E-18", "02136", [4]seedOfficer{
		{"Kim", "Owens", "Ptl"}, {"Ian", "Nash", "Det"}, {"Paula", "Farley", "Capt"}, {"Hugo", "Shaw", "Lt Det"},
	}},
}

var allegations = []struct {
	allegation, finding, action string
	severity               float64
}{
	{"Respectful Treatment", "Sustained", "Written Reprimand", 3},
	{"Use of Force", "Not Sustained", "No Action", 8},
	{"Neglect of Duty", "Sustained", "Suspension", 5},
	{"Conduct Unbecoming", "Exonerated", "No Action", 4},
	{"Untruthfulness", "Sustained", "Termination", 9},
}

// firstEmployeeID is the id assigned to the first seeded officer.
const firstEmployeeID = 100001

// Gateway serves the seeded dataset. It is read-only and safe for
// concurrent use.
type Gateway struct {
	officers     []model.Officer
	assignments  []model.DistrictAssignment
	compensation []model.Compensation
	incidents    []model.Incident
}

// New builds the seeded dataset. Pay and incident counts are derived from
// the officer's position so every metric has a spread to rank.
func New() *Gateway {
	g := &Gateway{}
	var incidentID int64 = 1
	n := 0
	for _, d := range districts {
		for _, s := range d.officers {
			id := int64(firstEmployeeID + n)
			g.officers = append(g.officers, model.Officer{
				EmployeeID: model.Int64Ptr(id),
				FirstName:  s.first,
				LastName:   s.last,
				Rank:       s.rank,
				ZipCode:    d.zip,
			})

			complaints := n % 4
			g.assignments = append(g.assignments, model.DistrictAssignment{
				EmployeeID:     model.Int64Ptr(id),
				District:       d.name,
				TotalIncidents: complaints,
			})

			for i, year := range []int{2022, 2023} {
				regular := 72000 + float64(n*1850) + float64(i*2400)
				overtime := float64((n*7919)%38000) + float64(i*1500)
				detail := float64((n * 613) % 9000)
				g.compensation = append(g.compensation, model.Compensation{
					EmployeeID:  model.Int64Ptr(id),
					Year:        year,
					RegularPay:  regular,
					OvertimePay: overtime,
					DetailPay:   detail,
					QuinnPay:    regular * 0.1,
					TotalPay:    regular + overtime + detail + regular*0.1,
				})
			}

			for c := range complaints {
				a := allegations[(n+c)%len(allegations)]
				year := 2019 + (n+c)%5
				g.incidents = append(g.incidents, model.Incident{
					IncidentID:       incidentID,
					EmployeeID:       model.Int64Ptr(id),
					IANumber:         fmt.Sprintf("IAD%d-%04d", year, incidentID),
					IncidentType:     "Citizen complaint",
					ReceivedDate:     fmt.Sprintf("%d-0%d-15", year, 1+c),
					IncidentYear:     year,
					TitleRank:        s.rank,
					OfficerFirstName: s.first,
					OfficerLastName:  s.last,
					Allegation:       a.allegation,
					Finding:          a.finding,
					ActionTaken:      a.action,
					Severity:         a.severity,
				})
				incidentID++
			}
			n++
		}
	}
	return g
}

// FetchOfficers returns the seeded officers.
func (g *Gateway) FetchOfficers(ctx context.Context) ([]model.Officer, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return append([]model.Officer(nil), g.officers...), nil
}

// FetchDistricts returns the seeded district assignments.
func (g *Gateway) FetchDistricts(ctx context.Context) ([]model.DistrictAssignment, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return append([]model.DistrictAssignment(nil), g.assignments...), nil
}

// FetchCompensation returns two years of pay per seeded officer.
func (g *Gateway) FetchCompensation(ctx context.Context) ([]model.Compensation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return append([]model.Compensation(nil), g.compensation...), nil
}

// FetchIncidents returns the seeded incidents.
func (g *Gateway) FetchIncidents(ctx context.Context) ([]model.Incident, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return append([]model.Incident(nil), g.incidents...), nil
}
