package cache

import (
	"sort"

	"github.com/ashita-ai/blueline/internal/coerce"
	"github.com/ashita-ai/blueline/internal/model"
)

// Percentile returns the inclusive percentile rank of v within sorted: the
// share of values <= v, times 100, rounded to one decimal. sorted must be in
// ascending order. An empty population yields nil ("no data"), which is
// distinct from a rank of zero.
func Percentile(v float64, sorted []float64) *float64 {
	if len(sorted) == 0 {
		return nil
	}
	atOrBelow := sort.Search(len(sorted), func(i int) bool { return sorted[i] > v })
	p := coerce.Round(float64(atOrBelow)/float64(len(sorted))*100, 1)
	return &p
}

// OvertimeRatio returns overtime as a percentage of base pay, or 0 when base
// pay is not positive.
func OvertimeRatio(overtime, base float64) float64 {
	if base <= 0 {
		return 0
	}
	return overtime / base * 100
}

// ComputeMetrics derives per-employee metrics over the population of every
// employee id that appears in officers, compensation or incidents. Pay is
// summed across all years. Rows with a nil employee id are ignored.
func ComputeMetrics(officers []model.Officer, comp []model.Compensation, incidents []model.Incident) map[int64]model.OfficerMetrics {
	population := make(map[int64]struct{})
	overtime := make(map[int64]float64)
	base := make(map[int64]float64)
	complaints := make(map[int64]int)

	for _, o := range officers {
		if o.EmployeeID != nil {
			population[*o.EmployeeID] = struct{}{}
		}
	}
	for _, c := range comp {
		if c.EmployeeID == nil {
			continue
		}
		id := *c.EmployeeID
		population[id] = struct{}{}
		overtime[id] += c.OvertimePay
		base[id] += c.RegularPay
	}
	for _, inc := range incidents {
		if inc.EmployeeID == nil {
			continue
		}
		id := *inc.EmployeeID
		population[id] = struct{}{}
		complaints[id]++
	}

	ratios := make(map[int64]float64, len(population))
	ratioValues := make([]float64, 0, len(population))
	complaintValues := make([]float64, 0, len(population))
	for id := range population {
		r := OvertimeRatio(overtime[id], base[id])
		ratios[id] = r
		ratioValues = append(ratioValues, r)
		complaintValues = append(complaintValues, float64(complaints[id]))
	}
	sort.Float64s(ratioValues)
	sort.Float64s(complaintValues)

	out := make(map[int64]model.OfficerMetrics, len(population))
	for id := range population {
		out[id] = model.OfficerMetrics{
			EmployeeID:              id,
			OvertimePay:             coerce.Round(overtime[id], 2),
			OvertimeRatio:           coerce.Round(ratios[id], 2),
			ComplaintCount:          complaints[id],
			OvertimeRatioPercentile: Percentile(ratios[id], ratioValues),
			ComplaintsPercentile:    Percentile(float64(complaints[id]), complaintValues),
		}
	}
	return out
}
