package cache

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ashita-ai/blueline/internal/model"
	"github.com/ashita-ai/blueline/internal/testutil"
)

func newTestCache(gw Gateway) *Cache {
	return New(Config{Gateway: gw, Logger: testutil.TestLogger(), BuildTimeout: 5 * time.Second})
}

func TestCache_ThreeOfficersEndToEnd(t *testing.T) {
	ctx := context.Background()
	c := newTestCache(testutil.ThreeOfficers())

	require.True(t, c.EnsureReady(ctx))

	o, ok := c.Officer(ctx, 1)
	require.True(t, ok)
	assert.Equal(t, "Rivera", o.LastName)
	_, ok = c.Officer(ctx, 99)
	assert.False(t, ok)

	d, ok := c.District(ctx, 3)
	require.True(t, ok)
	assert.Equal(t, "District B-2", d.District)

	latest, ok := c.LatestCompensation(ctx, 1)
	require.True(t, ok)
	assert.Equal(t, 2021, latest.Year)
	_, ok = c.LatestCompensation(ctx, 3)
	assert.False(t, ok)

	assert.Len(t, c.Incidents(ctx, 1), 2)
	none := c.Incidents(ctx, 2)
	assert.NotNil(t, none)
	assert.Empty(t, none)

	cases := []struct {
		id         int64
		ratio      float64
		complaints int
		ratioPct   float64
		complPct   float64
	}{
		{1, 20, 2, 66.7, 100},
		{2, 50, 0, 100, 33.3},
		{3, 0, 1, 33.3, 66.7},
	}
	for _, tc := range cases {
		m, ok := c.Metrics(ctx, tc.id)
		require.True(t, ok, "metrics for %d", tc.id)
		assert.Equal(t, tc.ratio, m.OvertimeRatio, "ratio for %d", tc.id)
		assert.Equal(t, tc.complaints, m.ComplaintCount, "complaints for %d", tc.id)
		require.NotNil(t, m.OvertimeRatioPercentile)
		require.NotNil(t, m.ComplaintsPercentile)
		assert.Equal(t, tc.ratioPct, *m.OvertimeRatioPercentile, "ratio pct for %d", tc.id)
		assert.Equal(t, tc.complPct, *m.ComplaintsPercentile, "complaints pct for %d", tc.id)
	}
	m1, _ := c.Metrics(ctx, 1)
	assert.Equal(t, 40.0, m1.OvertimePay, "overtime is summed across years")

	depts := c.Departments(ctx)
	require.Len(t, depts, 2)
	assert.Equal(t, "a-1", depts[0].ID)
	assert.Equal(t, "b-2", depts[1].ID)
	assert.Equal(t, 5.0, depts[0].MappingScore)
	assert.Equal(t, 4.5, depts[1].MappingScore)
	assert.Equal(t, "40 New Sudbury St, Boston, MA 02114", depts[0].Address)
	assert.Equal(t, DefaultPosition, depts[1].Position, "District B-2 is not in the position table")
	require.Len(t, depts[0].Officers, 2)
	assert.Equal(t, "Ana Rivera", depts[0].Officers[0].Name)
	require.Len(t, depts[1].Officers, 1)
	assert.Equal(t, "Officer 3", depts[1].Officers[0].Name)
	assert.Equal(t, "3", depts[1].Officers[0].ID)

	assert.Equal(t, []int64{1, 2}, c.DepartmentEmployeeIDs(ctx, "a-1"))
	assert.Equal(t, []int64{}, c.DepartmentEmployeeIDs(ctx, "zz-1"))

	dept, ok := c.Department(ctx, "b-2")
	require.True(t, ok)
	assert.Equal(t, "District B-2", dept.District)
}

func TestCache_LatestCompensation(t *testing.T) {
	id := model.Int64Ptr
	ctx := context.Background()

	gw := &testutil.Gateway{Compensation: []model.Compensation{
		{EmployeeID: id(1), Year: 2021, TotalPay: 2021},
		{EmployeeID: id(1), Year: 2019, TotalPay: 2019},
	}}
	c := newTestCache(gw)
	latest, ok := c.LatestCompensation(ctx, 1)
	require.True(t, ok, "reads build lazily")
	assert.Equal(t, 2021, latest.Year, "max year wins regardless of order")

	all := c.Compensation(ctx, 1)
	require.Len(t, all, 2)
	assert.Equal(t, 2019, all[0].Year)

	gw = &testutil.Gateway{Compensation: []model.Compensation{
		{EmployeeID: id(1), Year: 2021, TotalPay: 1},
		{EmployeeID: id(1), Year: 2021, TotalPay: 2},
	}}
	c = newTestCache(gw)
	latest, ok = c.LatestCompensation(ctx, 1)
	require.True(t, ok)
	assert.Equal(t, 2.0, latest.TotalPay, "equal years keep the last row")
}

func TestCache_DropsNullEmployeeIDs(t *testing.T) {
	ctx := context.Background()
	gw := testutil.ThreeOfficers()
	gw.Officers = append(gw.Officers, model.Officer{FirstName: "Ghost"})
	gw.Districts = append(gw.Districts, model.DistrictAssignment{District: "Boston Police District A-1"})
	gw.Incidents = append(gw.Incidents, model.Incident{IncidentID: 99, Severity: 100})

	c := newTestCache(gw)
	require.True(t, c.EnsureReady(ctx))

	assert.Len(t, c.Officers(ctx), 3)
	dept, ok := c.Department(ctx, "a-1")
	require.True(t, ok)
	assert.Len(t, dept.Officers, 2)
	assert.Equal(t, 5.0, dept.MappingScore)
	assert.Len(t, c.AllIncidents(ctx), 4, "unkeyed listing keeps every row")
}

func TestCache_DuplicateAssignmentLastWins(t *testing.T) {
	ctx := context.Background()
	gw := testutil.ThreeOfficers()
	gw.Districts = append(gw.Districts, model.DistrictAssignment{
		EmployeeID: model.Int64Ptr(2), District: "District B-2",
	})

	c := newTestCache(gw)
	d, ok := c.District(ctx, 2)
	require.True(t, ok)
	assert.Equal(t, "District B-2", d.District)
	assert.Equal(t, []int64{1}, c.DepartmentEmployeeIDs(ctx, "a-1"))
	assert.Equal(t, []int64{2, 3}, c.DepartmentEmployeeIDs(ctx, "b-2"))
}

func TestCache_SlugCollisionsMerge(t *testing.T) {
	ctx := context.Background()
	id := model.Int64Ptr
	gw := &testutil.Gateway{Districts: []model.DistrictAssignment{
		{EmployeeID: id(1), District: "Boston Police District A-1"},
		{EmployeeID: id(2), District: "District A-1 (Downtown)"},
	}}

	c := newTestCache(gw)
	depts := c.Departments(ctx)
	require.Len(t, depts, 2)
	assert.Equal(t, depts[0].ID, depts[1].ID)
	assert.Equal(t, []int64{1, 2}, c.DepartmentEmployeeIDs(ctx, "a-1"))
}

func TestCache_UnevenIncidentsEndToEnd(t *testing.T) {
	ctx := context.Background()
	c := newTestCache(testutil.UnevenIncidents())
	require.True(t, c.EnsureReady(ctx))

	m1, ok := c.Metrics(ctx, 1)
	require.True(t, ok)
	assert.Equal(t, 3, m1.ComplaintCount)
	require.NotNil(t, m1.ComplaintsPercentile)
	assert.Equal(t, 100.0, *m1.ComplaintsPercentile, "most incidents ranks 100")

	m3, ok := c.Metrics(ctx, 3)
	require.True(t, ok)
	assert.Equal(t, 0, m3.ComplaintCount)
	require.NotNil(t, m3.ComplaintsPercentile)
	assert.Equal(t, 33.3, *m3.ComplaintsPercentile, "one of three officers has <= 0 incidents")
	assert.Equal(t, 0.0, m3.OvertimeRatio, "zero base pay")

	m2, _ := c.Metrics(ctx, 2)
	assert.Equal(t, 50.0, m2.OvertimeRatio)
	require.NotNil(t, m2.OvertimeRatioPercentile)
	assert.Equal(t, 100.0, *m2.OvertimeRatioPercentile)
	assert.Equal(t, 15.0, m1.OvertimeRatio)
	assert.Equal(t, 66.7, *m1.OvertimeRatioPercentile)

	for _, id := range []int64{1, 2, 3} {
		latest, ok := c.LatestCompensation(ctx, id)
		require.True(t, ok)
		assert.Equal(t, 2021, latest.Year)
		assert.Len(t, c.Compensation(ctx, id), 2)
	}
}

func TestCache_RebuildIsIdempotent(t *testing.T) {
	ctx := context.Background()
	c := newTestCache(testutil.UnevenIncidents())
	require.NoError(t, c.Build(ctx))
	first := c.snap.Load()

	require.NoError(t, c.Build(ctx))
	second := c.snap.Load()
	require.NotSame(t, first, second, "a rebuild swaps in a new snapshot")

	a, b := *first, *second
	a.builtAt, b.builtAt = time.Time{}, time.Time{}
	assert.Equal(t, a, b)
	assert.Equal(t, int64(2), c.Status().Builds)
}

func TestCache_BuildHonorsTimeout(t *testing.T) {
	gw := testutil.ThreeOfficers()
	gw.Gate = make(chan struct{})
	defer close(gw.Gate)
	c := New(Config{Gateway: gw, Logger: testutil.TestLogger(), BuildTimeout: 30 * time.Millisecond})

	err := c.Build(context.Background())
	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.False(t, c.Ready())

	err = c.Refresh(context.Background())
	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Contains(t, c.Status().LastError, "deadline exceeded")
}

func TestCache_FailureIsRecordedAndRetried(t *testing.T) {
	ctx := context.Background()
	gw := testutil.ThreeOfficers()
	gw.SetErr(errors.New("connection refused"))
	c := newTestCache(gw)

	assert.False(t, c.EnsureReady(ctx))
	st := c.Status()
	assert.False(t, st.Ready)
	assert.Contains(t, st.LastError, "connection refused")

	_, ok := c.Officer(ctx, 1)
	assert.False(t, ok, "reads during an outage are absent")
	assert.Empty(t, c.Departments(ctx))

	attempts := gw.OfficerCalls()
	assert.GreaterOrEqual(t, attempts, int64(3), "every read retries the build")

	gw.SetErr(nil)
	assert.True(t, c.EnsureReady(ctx))
	st = c.Status()
	assert.True(t, st.Ready)
	assert.Empty(t, st.LastError)
	require.NotNil(t, st.BuiltAt)
	assert.Equal(t, 3, st.Officers)
	assert.Equal(t, 2, st.Departments)
}

func TestCache_FailedRefreshKeepsSnapshot(t *testing.T) {
	ctx := context.Background()
	gw := testutil.ThreeOfficers()
	c := newTestCache(gw)
	require.True(t, c.EnsureReady(ctx))

	gw.SetErr(errors.New("timeout"))
	require.Error(t, c.Refresh(ctx))

	assert.True(t, c.Ready())
	assert.Contains(t, c.Status().LastError, "timeout")
	_, ok := c.Officer(ctx, 1)
	assert.True(t, ok)
}

func TestCache_Invalidate(t *testing.T) {
	ctx := context.Background()
	gw := testutil.ThreeOfficers()
	c := newTestCache(gw)
	require.True(t, c.EnsureReady(ctx))
	require.True(t, c.EnsureReady(ctx))
	assert.Equal(t, int64(1), gw.OfficerCalls(), "ready cache does not refetch")

	c.Invalidate()
	assert.False(t, c.Ready())

	_, ok := c.Officer(ctx, 2)
	assert.True(t, ok)
	assert.Equal(t, int64(2), gw.OfficerCalls())
}

func TestCache_ConcurrentColdCallersShareOneBuild(t *testing.T) {
	ctx := context.Background()
	gw := testutil.ThreeOfficers()
	gw.Gate = make(chan struct{})
	c := newTestCache(gw)

	const callers = 16
	var wg sync.WaitGroup
	results := make([]bool, callers)
	for i := range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i] = c.EnsureReady(ctx)
		}()
	}

	require.Eventually(t, func() bool { return gw.OfficerCalls() == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	close(gw.Gate)
	wg.Wait()

	assert.Equal(t, int64(1), gw.OfficerCalls())
	for i, ok := range results {
		assert.True(t, ok, "caller %d", i)
	}
}

func TestCache_CallerCancelDoesNotAbortBuild(t *testing.T) {
	gw := testutil.ThreeOfficers()
	gw.Gate = make(chan struct{})
	c := newTestCache(gw)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan bool)
	go func() { done <- c.EnsureReady(ctx) }()

	require.Eventually(t, func() bool { return gw.OfficerCalls() == 1 }, time.Second, 5*time.Millisecond)
	cancel()
	assert.False(t, <-done)

	close(gw.Gate)
	require.Eventually(t, c.Ready, time.Second, 5*time.Millisecond)
}

func TestCache_NoGateway(t *testing.T) {
	c := New(Config{Logger: testutil.TestLogger()})
	assert.False(t, c.EnsureReady(context.Background()))
	assert.Contains(t, c.Status().LastError, "no gateway")
}
