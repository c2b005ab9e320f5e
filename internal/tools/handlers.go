package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/ashita-ai/blueline/internal/cache"
	"github.com/ashita-ai/blueline/internal/model"
)

func employeeIDParam(desc string) Param {
	return Param{Name: "employee_id", Type: TypeInteger, Description: desc, Required: true}
}

func limitParam(def int) Param {
	return Param{Name: "limit", Type: TypeInteger, Description: "Maximum rows to return", Minimum: intPtr(1), Default: def}
}

func (r *Registry) register() {
	r.add(Definition{
		Name:        "get_officer_by_employee_id",
		Description: "Fetch a single officer record by employee id",
		Params:      []Param{employeeIDParam("Officer employee id")},
	}, r.getOfficer)

	r.add(Definition{
		Name:        "list_officers",
		Description: "List officers with pagination, ordered by employee id",
		Params: []Param{
			limitParam(50),
			{Name: "offset", Type: TypeInteger, Description: "Rows to skip", Minimum: intPtr(0), Default: 0},
		},
	}, r.listOfficers)

	r.add(Definition{
		Name:        "find_officers_by_name",
		Description: "Search officers by first or last name (case-insensitive substring match)",
		Params: []Param{
			{Name: "first_name", Type: TypeString, Description: "First name fragment"},
			{Name: "last_name", Type: TypeString, Description: "Last name fragment"},
			limitParam(50),
		},
	}, r.findOfficersByName)

	r.add(Definition{
		Name:        "get_compensation_for_employee",
		Description: "Get compensation records for an employee, optionally for one year",
		Params: []Param{
			employeeIDParam("Officer employee id"),
			{Name: "year", Type: TypeInteger, Description: "Only return this pay year"},
		},
	}, r.getCompensationForEmployee)

	r.add(Definition{
		Name:        "get_compensation_by_year",
		Description: "Get compensation records for a given year",
		Params: []Param{
			{Name: "year", Type: TypeInteger, Description: "Pay year", Required: true},
			limitParam(200),
		},
	}, r.getCompensationByYear)

	r.add(Definition{
		Name:        "get_incidents_for_employee",
		Description: "Get internal-affairs incidents linked to an employee",
		Params: []Param{
			employeeIDParam("Officer employee id"),
			limitParam(100),
		},
	}, r.getIncidentsForEmployee)

	r.add(Definition{
		Name:        "get_incidents_by_year",
		Description: "Get internal-affairs incidents recorded in a specific year",
		Params: []Param{
			{Name: "year", Type: TypeInteger, Description: "Incident year", Required: true},
			limitParam(100),
		},
	}, r.getIncidentsByYear)

	r.add(Definition{
		Name:        "list_departments",
		Description: "List police districts with their officers, percentile metrics and map position",
		Params:      []Param{limitParam(100)},
	}, r.listDepartments)

	r.add(Definition{
		Name:        "get_department_by_employee_id",
		Description: "Fetch the district an employee is assigned to",
		Params:      []Param{employeeIDParam("Officer employee id")},
	}, r.getDepartmentByEmployeeID)

	r.add(Definition{
		Name:        "get_officer_profile",
		Description: "Fetch an officer with compensation, incidents, metrics and department",
		Params:      []Param{employeeIDParam("Officer employee id")},
	}, r.getOfficerProfile)
}

// ready fails fast when the cache cannot be built.
func (r *Registry) ready(ctx context.Context) error {
	if !r.source.EnsureReady(ctx) {
		return cache.ErrNotReady
	}
	return nil
}

func (r *Registry) employeeID(ctx context.Context, args map[string]any) (int64, error) {
	id, err := intArg(args, "employee_id", 0, true)
	if err != nil {
		return 0, err
	}
	return int64(id), r.ready(ctx)
}

func (r *Registry) getOfficer(ctx context.Context, args map[string]any) (any, error) {
	id, err := r.employeeID(ctx, args)
	if err != nil {
		return nil, err
	}
	if o, ok := r.source.Officer(ctx, id); ok {
		return o, nil
	}
	return nil, nil
}

func (r *Registry) listOfficers(ctx context.Context, args map[string]any) (any, error) {
	limit, err := limitArg(args, 50)
	if err != nil {
		return nil, err
	}
	offset, err := intArg(args, "offset", 0, false)
	if err != nil {
		return nil, err
	}
	if offset < 0 {
		return nil, fmt.Errorf("%w: offset must not be negative", ErrInvalidArgument)
	}

	if r.querier != nil {
		officers, err := r.querier.ListOfficers(ctx, limit, offset)
		if err == nil {
			return officers, nil
		}
		r.logger.Warn("tools: list officers query failed, using cache", "error", err)
	}
	if err := r.ready(ctx); err != nil {
		return nil, err
	}
	return page(r.source.Officers(ctx), limit, offset), nil
}

func (r *Registry) findOfficersByName(ctx context.Context, args map[string]any) (any, error) {
	limit, err := limitArg(args, 50)
	if err != nil {
		return nil, err
	}
	first, last := stringArg(args, "first_name"), stringArg(args, "last_name")

	if r.querier != nil {
		officers, err := r.querier.FindOfficersByName(ctx, first, last, limit)
		if err == nil {
			return officers, nil
		}
		r.logger.Warn("tools: name search query failed, using cache", "error", err)
	}
	if err := r.ready(ctx); err != nil {
		return nil, err
	}

	first, last = strings.ToLower(first), strings.ToLower(last)
	out := []model.Officer{}
	for _, o := range r.source.Officers(ctx) {
		if len(out) == limit {
			break
		}
		if first != "" && !strings.Contains(strings.ToLower(o.FirstName), first) {
			continue
		}
		if last != "" && !strings.Contains(strings.ToLower(o.LastName), last) {
			continue
		}
		out = append(out, o)
	}
	return out, nil
}

func (r *Registry) getCompensationForEmployee(ctx context.Context, args map[string]any) (any, error) {
	id, err := r.employeeID(ctx, args)
	if err != nil {
		return nil, err
	}
	year, err := intArg(args, "year", 0, false)
	if err != nil {
		return nil, err
	}
	comp := r.source.Compensation(ctx, id)
	if year == 0 {
		return comp, nil
	}
	out := []model.Compensation{}
	for _, c := range comp {
		if c.Year == year {
			out = append(out, c)
		}
	}
	return out, nil
}

func (r *Registry) getCompensationByYear(ctx context.Context, args map[string]any) (any, error) {
	year, err := intArg(args, "year", 0, true)
	if err != nil {
		return nil, err
	}
	limit, err := limitArg(args, 200)
	if err != nil {
		return nil, err
	}

	if r.querier != nil {
		comp, err := r.querier.CompensationByYear(ctx, year, limit)
		if err == nil {
			return comp, nil
		}
		r.logger.Warn("tools: compensation query failed, using cache", "error", err)
	}
	if err := r.ready(ctx); err != nil {
		return nil, err
	}
	out := []model.Compensation{}
	for _, c := range r.source.AllCompensation(ctx) {
		if len(out) == limit {
			break
		}
		if c.Year == year {
			out = append(out, c)
		}
	}
	return out, nil
}

func (r *Registry) getIncidentsForEmployee(ctx context.Context, args map[string]any) (any, error) {
	id, err := r.employeeID(ctx, args)
	if err != nil {
		return nil, err
	}
	limit, err := limitArg(args, 100)
	if err != nil {
		return nil, err
	}
	return page(r.source.Incidents(ctx, id), limit, 0), nil
}

func (r *Registry) getIncidentsByYear(ctx context.Context, args map[string]any) (any, error) {
	year, err := intArg(args, "year", 0, true)
	if err != nil {
		return nil, err
	}
	limit, err := limitArg(args, 100)
	if err != nil {
		return nil, err
	}

	if r.querier != nil {
		incidents, err := r.querier.IncidentsByYear(ctx, year, limit)
		if err == nil {
			return incidents, nil
		}
		r.logger.Warn("tools: incidents query failed, using cache", "error", err)
	}
	if err := r.ready(ctx); err != nil {
		return nil, err
	}
	out := []model.Incident{}
	for _, inc := range r.source.AllIncidents(ctx) {
		if len(out) == limit {
			break
		}
		if inc.IncidentYear == year {
			out = append(out, inc)
		}
	}
	return out, nil
}

func (r *Registry) listDepartments(ctx context.Context, args map[string]any) (any, error) {
	limit, err := limitArg(args, 100)
	if err != nil {
		return nil, err
	}
	if err := r.ready(ctx); err != nil {
		return nil, err
	}
	return page(r.source.Departments(ctx), limit, 0), nil
}

func (r *Registry) departmentFor(ctx context.Context, id int64) *model.Department {
	d, ok := r.source.District(ctx, id)
	if !ok {
		return nil
	}
	dept, ok := r.source.DepartmentForDistrict(ctx, d.District)
	if !ok {
		return nil
	}
	return &dept
}

func (r *Registry) getDepartmentByEmployeeID(ctx context.Context, args map[string]any) (any, error) {
	id, err := r.employeeID(ctx, args)
	if err != nil {
		return nil, err
	}
	if dept := r.departmentFor(ctx, id); dept != nil {
		return dept, nil
	}
	return nil, nil
}

// ProfileResult is the get_officer_profile payload.
type ProfileResult struct {
	model.OfficerProfile
	Department *model.Department `json:"department"`
}

func (r *Registry) getOfficerProfile(ctx context.Context, args map[string]any) (any, error) {
	id, err := r.employeeID(ctx, args)
	if err != nil {
		return nil, err
	}
	p, ok := r.source.Profile(ctx, id)
	if !ok {
		return nil, nil
	}
	return ProfileResult{OfficerProfile: p, Department: r.departmentFor(ctx, id)}, nil
}

func page[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return []T{}
	}
	end := min(offset+limit, len(items))
	return items[offset:end]
}
