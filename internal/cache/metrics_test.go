package cache

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ashita-ai/blueline/internal/model"
)

func TestPercentile(t *testing.T) {
	pop := []float64{0, 10, 10, 20, 50}

	p := Percentile(50, pop)
	require.NotNil(t, p)
	assert.Equal(t, 100.0, *p, "maximum always scores 100")

	p = Percentile(10, pop)
	require.NotNil(t, p)
	assert.Equal(t, 60.0, *p, "ties count as at-or-below")

	p = Percentile(0, pop)
	require.NotNil(t, p)
	assert.Equal(t, 20.0, *p)

	p = Percentile(7, []float64{7})
	require.NotNil(t, p)
	assert.Equal(t, 100.0, *p, "single member scores 100")

	assert.Nil(t, Percentile(3, nil), "empty population is no data, not zero")
}

func TestPercentile_Bounds(t *testing.T) {
	pop := []float64{3, 1, 4, 1, 5, 9, 2, 6, 5, 3, 5}
	sort.Float64s(pop)
	for _, v := range pop {
		p := Percentile(v, pop)
		require.NotNil(t, p)
		assert.GreaterOrEqual(t, *p, 0.0)
		assert.LessOrEqual(t, *p, 100.0)
	}
}

func TestPercentile_RoundsToOneDecimal(t *testing.T) {
	p := Percentile(1, []float64{1, 2, 3})
	require.NotNil(t, p)
	assert.Equal(t, 33.3, *p)
}

func TestOvertimeRatio_ZeroBase(t *testing.T) {
	assert.Equal(t, 0.0, OvertimeRatio(5000, 0))
	assert.Equal(t, 0.0, OvertimeRatio(5000, -1))
	assert.Equal(t, 25.0, OvertimeRatio(25, 100))
}

func TestComputeMetrics_UnionPopulation(t *testing.T) {
	id := model.Int64Ptr
	officers := []model.Officer{{EmployeeID: id(1)}, {EmployeeID: nil}}
	comp := []model.Compensation{
		{EmployeeID: id(2), Year: 2020, RegularPay: 1000, OvertimePay: 333.333},
		{EmployeeID: id(2), Year: 2021, RegularPay: 0, OvertimePay: 0},
	}
	incidents := []model.Incident{
		{IncidentID: 1, EmployeeID: id(3)},
		{IncidentID: 2, EmployeeID: id(3)},
		{IncidentID: 3, EmployeeID: nil},
	}

	m := ComputeMetrics(officers, comp, incidents)
	require.Len(t, m, 3, "officer-only, pay-only and incident-only ids all ranked")

	assert.Equal(t, 0.0, m[1].OvertimeRatio)
	assert.Equal(t, 0, m[1].ComplaintCount)

	assert.Equal(t, 333.33, m[2].OvertimePay)
	assert.Equal(t, 33.33, m[2].OvertimeRatio)
	require.NotNil(t, m[2].OvertimeRatioPercentile)
	assert.Equal(t, 100.0, *m[2].OvertimeRatioPercentile)

	assert.Equal(t, 2, m[3].ComplaintCount)
	require.NotNil(t, m[3].ComplaintsPercentile)
	assert.Equal(t, 100.0, *m[3].ComplaintsPercentile)
	require.NotNil(t, m[1].ComplaintsPercentile)
	assert.Equal(t, 66.7, *m[1].ComplaintsPercentile, "two of three have zero complaints")
}

func TestComputeMetrics_Empty(t *testing.T) {
	assert.Empty(t, ComputeMetrics(nil, nil, nil))
}
