package testutil

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/ashita-ai/blueline/internal/model"
)

// Gateway is an in-memory source-table gateway for tests. Set Err to make
// every fetch fail; set Gate to block fetches until the channel is closed.
type Gateway struct {
	Officers     []model.Officer
	Districts    []model.DistrictAssignment
	Compensation []model.Compensation
	Incidents    []model.Incident

	mu   sync.Mutex
	err  error
	Gate chan struct{}

	calls atomic.Int64
}

// SetErr makes subsequent fetches fail with err (nil clears it).
func (g *Gateway) SetErr(err error) {
	g.mu.Lock()
	g.err = err
	g.mu.Unlock()
}

// OfficerCalls returns how many times FetchOfficers ran, which equals the
// number of build attempts.
func (g *Gateway) OfficerCalls() int64 {
	return g.calls.Load()
}

func (g *Gateway) wait(ctx context.Context) error {
	if g.Gate != nil {
		select {
		case <-g.Gate:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.err
}

func (g *Gateway) FetchOfficers(ctx context.Context) ([]model.Officer, error) {
	g.calls.Add(1)
	if err := g.wait(ctx); err != nil {
		return nil, err
	}
	return g.Officers, nil
}

func (g *Gateway) FetchDistricts(ctx context.Context) ([]model.DistrictAssignment, error) {
	if err := g.wait(ctx); err != nil {
		return nil, err
	}
	return g.Districts, nil
}

func (g *Gateway) FetchCompensation(ctx context.Context) ([]model.Compensation, error) {
	if err := g.wait(ctx); err != nil {
		return nil, err
	}
	return g.Compensation, nil
}

func (g *Gateway) FetchIncidents(ctx context.Context) ([]model.Incident, error) {
	if err := g.wait(ctx); err != nil {
		return nil, err
	}
	return g.Incidents, nil
}

// ThreeOfficers returns a gateway over three officers in two districts:
//
//	1 Ana Rivera   A-1  pay 2020+2021  ot 40 / base 200  2 incidents (sev 2, 3)
//	2 Sean O'Neil  A-1  pay 2021       ot 50 / base 100  no incidents
//	3 (no name)    B-2  no pay                           1 incident (sev 4.5)
//
// Ratios are 20, 50 and 0; complaint counts are 2, 0 and 1.
func ThreeOfficers() *Gateway {
	id := model.Int64Ptr
	return &Gateway{
		Officers: []model.Officer{
			{EmployeeID: id(1), FirstName: "Ana", LastName: "Rivera", Rank: "Det"},
			{EmployeeID: id(2), FirstName: "Sean", LastName: "O'Neil", Rank: "Sgt"},
			{EmployeeID: id(3), Rank: "Ptl"},
		},
		Districts: []model.DistrictAssignment{
			{EmployeeID: id(1), District: "Boston Police District A-1", TotalIncidents: 2},
			{EmployeeID: id(2), District: "Boston Police District A-1"},
			{EmployeeID: id(3), District: "District B-2", TotalIncidents: 1},
		},
		Compensation: []model.Compensation{
			{EmployeeID: id(1), Year: 2020, RegularPay: 100, OvertimePay: 10, TotalPay: 110},
			{EmployeeID: id(1), Year: 2021, RegularPay: 100, OvertimePay: 30, TotalPay: 130},
			{EmployeeID: id(2), Year: 2021, RegularPay: 100, OvertimePay: 50, TotalPay: 150},
		},
		Incidents: []model.Incident{
			{IncidentID: 10, EmployeeID: id(1), IncidentYear: 2020, Allegation: "Use of Force", Severity: 2},
			{IncidentID: 11, EmployeeID: id(1), IncidentYear: 2021, Allegation: "Neglect of Duty", Severity: 3},
			{IncidentID: 12, EmployeeID: id(3), IncidentYear: 2021, Allegation: "Conduct", Severity: 4.5},
		},
	}
}

// UnevenIncidents returns three officers with two pay years each and five
// incidents spread 3/2/0:
//
//	1 Ana Rivera    A-1  ot 10+20 / base 100+100  ratio 15  3 incidents
//	2 Sean O'Neil   A-1  ot 40+60 / base 100+100  ratio 50  2 incidents
//	3 Priya Patel   B-2  ot 10+5  / base 0+0      ratio 0   0 incidents
func UnevenIncidents() *Gateway {
	id := model.Int64Ptr
	return &Gateway{
		Officers: []model.Officer{
			{EmployeeID: id(1), FirstName: "Ana", LastName: "Rivera", Rank: "Det"},
			{EmployeeID: id(2), FirstName: "Sean", LastName: "O'Neil", Rank: "Sgt"},
			{EmployeeID: id(3), FirstName: "Priya", LastName: "Patel", Rank: "Ptl"},
		},
		Districts: []model.DistrictAssignment{
			{EmployeeID: id(1), District: "Boston Police District A-1", TotalIncidents: 3},
			{EmployeeID: id(2), District: "Boston Police District A-1", TotalIncidents: 2},
			{EmployeeID: id(3), District: "Boston Police District B-2"},
		},
		Compensation: []model.Compensation{
			{EmployeeID: id(1), Year: 2020, RegularPay: 100, OvertimePay: 10, TotalPay: 110},
			{EmployeeID: id(1), Year: 2021, RegularPay: 100, OvertimePay: 20, TotalPay: 120},
			{EmployeeID: id(2), Year: 2020, RegularPay: 100, OvertimePay: 40, TotalPay: 140},
			{EmployeeID: id(2), Year: 2021, RegularPay: 100, OvertimePay: 60, TotalPay: 160},
			{EmployeeID: id(3), Year: 2020, OvertimePay: 10, TotalPay: 10},
			{EmployeeID: id(3), Year: 2021, OvertimePay: 5, TotalPay: 5},
		},
		Incidents: []model.Incident{
			{IncidentID: 1, EmployeeID: id(1), IncidentYear: 2020, Severity: 1},
			{IncidentID: 2, EmployeeID: id(1), IncidentYear: 2020, Severity: 2},
			{IncidentID: 3, EmployeeID: id(2), IncidentYear: 2021, Severity: 3},
			{IncidentID: 4, EmployeeID: id(1), IncidentYear: 2021, Severity: 1},
			{IncidentID: 5, EmployeeID: id(2), IncidentYear: 2021, Severity: 2},
		},
	}
}
