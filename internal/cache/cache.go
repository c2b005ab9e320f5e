// Package cache holds the derived-metrics cache: an in-process, immutable
// snapshot of the four source tables denormalized into lookups keyed by
// employee id and by department slug, together with percentile-ranked
// officer metrics.
//
// A snapshot is built in one pass from a full read of every table and is
// never mutated afterwards; a rebuild produces a new snapshot and swaps it in
// atomically. Concurrent cold-cache callers share a single build.
package cache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/ashita-ai/blueline/internal/model"
	"github.com/ashita-ai/blueline/internal/telemetry"
)

// ErrNotReady is returned when a caller needs the snapshot and the cache
// could not be built.
var ErrNotReady = errors.New("cache: not ready")

// DefaultBuildTimeout bounds one full build when Config leaves it unset.
const DefaultBuildTimeout = 60 * time.Second

// Gateway reads the four source tables in full.
type Gateway interface {
	FetchOfficers(ctx context.Context) ([]model.Officer, error)
	FetchDistricts(ctx context.Context) ([]model.DistrictAssignment, error)
	FetchCompensation(ctx context.Context) ([]model.Compensation, error)
	FetchIncidents(ctx context.Context) ([]model.Incident, error)
}

// Config configures a Cache.
type Config struct {
	Gateway      Gateway
	Logger       *slog.Logger
	BuildTimeout time.Duration
}

// Cache is the derived-metrics cache. The zero value is not usable; call New.
type Cache struct {
	gw           Gateway
	logger       *slog.Logger
	buildTimeout time.Duration

	snap  atomic.Pointer[snapshot]
	group singleflight.Group

	mu      sync.Mutex
	lastErr string
	builds  int64

	buildCounter  metric.Int64Counter
	buildDuration metric.Float64Histogram
}

// New creates an empty, uninitialized cache.
func New(cfg Config) *Cache {
	if cfg.BuildTimeout <= 0 {
		cfg.BuildTimeout = DefaultBuildTimeout
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	meter := telemetry.Meter("blueline/cache")
	counter, _ := meter.Int64Counter("blueline.cache.builds",
		metric.WithDescription("Derived-metrics cache builds by outcome"),
	)
	duration, _ := meter.Float64Histogram("blueline.cache.build.duration",
		metric.WithDescription("Time to fetch and build a cache snapshot (ms)"),
		metric.WithUnit("ms"),
	)

	return &Cache{
		gw:            cfg.Gateway,
		logger:        cfg.Logger,
		buildTimeout:  cfg.BuildTimeout,
		buildCounter:  counter,
		buildDuration: duration,
	}
}

// snapshot is one fully built, read-only view of the source tables.
type snapshot struct {
	officers     map[int64]model.Officer
	officerIDs   []int64
	districts    map[int64]model.DistrictAssignment
	latestComp   map[int64]model.Compensation
	compByID     map[int64][]model.Compensation
	incidents    map[int64][]model.Incident
	metrics      map[int64]model.OfficerMetrics
	departments  []model.Department
	deptIndex    map[string][]int64
	allComp      []model.Compensation
	allIncidents []model.Incident
	builtAt      time.Time
}

type tables struct {
	officers  []model.Officer
	districts []model.DistrictAssignment
	comp      []model.Compensation
	incidents []model.Incident
}

// Build fetches all four tables and swaps in a fresh snapshot. On failure the
// error message is recorded and any previous snapshot is left in place; an
// uninitialized cache stays uninitialized. Every build is bounded by the
// configured build timeout.
func (c *Cache) Build(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, c.buildTimeout)
	defer cancel()

	start := time.Now()
	snap, err := c.fetchAndBuild(ctx)
	elapsed := time.Since(start)

	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	attrs := metric.WithAttributes(attribute.String("outcome", outcome))
	c.buildCounter.Add(ctx, 1, attrs)
	c.buildDuration.Record(ctx, float64(elapsed.Milliseconds()), attrs)

	c.mu.Lock()
	c.builds++
	if err != nil {
		c.lastErr = err.Error()
	} else {
		c.lastErr = ""
	}
	c.mu.Unlock()

	if err != nil {
		c.logger.Error("cache: build failed", "error", err, "duration_ms", elapsed.Milliseconds())
		return err
	}

	c.snap.Store(snap)
	c.logger.Info("cache: build complete",
		"officers", len(snap.officers),
		"departments", len(snap.departments),
		"incidents", len(snap.allIncidents),
		"duration_ms", elapsed.Milliseconds(),
	)
	return nil
}

// EnsureReady reports whether a snapshot is available, building one if not.
// Concurrent callers share one build. The build runs under the cache's own
// timeout so that one caller cancelling does not fail the others.
func (c *Cache) EnsureReady(ctx context.Context) bool {
	if c.snap.Load() != nil {
		return true
	}
	_ = c.rebuild(ctx)
	return c.snap.Load() != nil
}

// Refresh rebuilds the snapshot unconditionally, joining a build already in
// flight if there is one.
func (c *Cache) Refresh(ctx context.Context) error {
	return c.rebuild(ctx)
}

func (c *Cache) rebuild(ctx context.Context) error {
	ch := c.group.DoChan("build", func() (any, error) {
		return nil, c.Build(context.WithoutCancel(ctx))
	})
	select {
	case res := <-ch:
		return res.Err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Invalidate drops the current snapshot. The next read rebuilds.
func (c *Cache) Invalidate() {
	c.snap.Store(nil)
	c.logger.Info("cache: invalidated")
}

// Ready reports whether a snapshot is loaded, without building.
func (c *Cache) Ready() bool {
	return c.snap.Load() != nil
}

// Status reports the cache state, without building.
func (c *Cache) Status() model.CacheStatus {
	c.mu.Lock()
	st := model.CacheStatus{LastError: c.lastErr, Builds: c.builds}
	c.mu.Unlock()

	if s := c.snap.Load(); s != nil {
		builtAt := s.builtAt
		st.Ready = true
		st.BuiltAt = &builtAt
		st.Officers = len(s.officers)
		st.Departments = len(s.departments)
		st.Incidents = len(s.allIncidents)
	}
	return st
}

func (c *Cache) fetchAndBuild(ctx context.Context) (*snapshot, error) {
	if c.gw == nil {
		return nil, errors.New("cache: no gateway configured")
	}

	var t tables
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		t.officers, err = c.gw.FetchOfficers(gctx)
		return wrapFetch("officers", err)
	})
	g.Go(func() (err error) {
		t.districts, err = c.gw.FetchDistricts(gctx)
		return wrapFetch("districts", err)
	})
	g.Go(func() (err error) {
		t.comp, err = c.gw.FetchCompensation(gctx)
		return wrapFetch("compensation", err)
	})
	g.Go(func() (err error) {
		t.incidents, err = c.gw.FetchIncidents(gctx)
		return wrapFetch("incidents", err)
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	snap, dropped := buildSnapshot(t)
	if dropped > 0 {
		c.logger.Warn("cache: dropped rows without employee id", "rows", dropped)
	}
	return snap, nil
}

func wrapFetch(table string, err error) error {
	if err != nil {
		return fmt.Errorf("cache: fetch %s: %w", table, err)
	}
	return nil
}

// buildSnapshot is the pure part of a build. It returns the snapshot and the
// number of rows dropped from keyed structures for lack of an employee id.
func buildSnapshot(t tables) (*snapshot, int) {
	s := &snapshot{
		officers:     make(map[int64]model.Officer, len(t.officers)),
		districts:    make(map[int64]model.DistrictAssignment, len(t.districts)),
		latestComp:   make(map[int64]model.Compensation),
		compByID:     make(map[int64][]model.Compensation),
		incidents:    make(map[int64][]model.Incident),
		deptIndex:    make(map[string][]int64),
		allComp:      t.comp,
		allIncidents: t.incidents,
		builtAt:      time.Now().UTC(),
	}
	dropped := 0

	var validOfficers []model.Officer
	for _, o := range t.officers {
		if o.EmployeeID == nil {
			dropped++
			continue
		}
		s.officers[*o.EmployeeID] = o
		validOfficers = append(validOfficers, o)
	}
	s.officerIDs = make([]int64, 0, len(s.officers))
	for id := range s.officers {
		s.officerIDs = append(s.officerIDs, id)
	}
	slices.Sort(s.officerIDs)

	for _, d := range t.districts {
		if d.EmployeeID == nil {
			dropped++
			continue
		}
		s.districts[*d.EmployeeID] = d
	}

	for _, c := range t.comp {
		if c.EmployeeID == nil {
			dropped++
			continue
		}
		id := *c.EmployeeID
		s.compByID[id] = append(s.compByID[id], c)
		if cur, ok := s.latestComp[id]; !ok || c.Year >= cur.Year {
			s.latestComp[id] = c
		}
	}
	for id := range s.compByID {
		sort.SliceStable(s.compByID[id], func(i, j int) bool {
			return s.compByID[id][i].Year < s.compByID[id][j].Year
		})
	}

	severity := make(map[int64]float64)
	for _, inc := range t.incidents {
		if inc.EmployeeID == nil {
			dropped++
			continue
		}
		id := *inc.EmployeeID
		s.incidents[id] = append(s.incidents[id], inc)
		severity[id] += inc.Severity
	}

	s.metrics = ComputeMetrics(validOfficers, t.comp, t.incidents)
	s.departments = buildDepartments(s, severity)
	return s, dropped
}

// buildDepartments groups the deduplicated district assignments by district
// name and builds one payload per name. Employee ids within a department are
// in ascending order and departments are ordered by id, then name.
func buildDepartments(s *snapshot, severity map[int64]float64) []model.Department {
	byName := make(map[string][]int64)
	for id, d := range s.districts {
		byName[d.District] = append(byName[d.District], id)
	}

	depts := make([]model.Department, 0, len(byName))
	for name, ids := range byName {
		slices.Sort(ids)
		members := make([]model.DistrictMember, 0, len(ids))
		score := 0.0
		for _, id := range ids {
			m := model.DistrictMember{Assignment: s.districts[id]}
			if o, ok := s.officers[id]; ok {
				m.Officer = &o
			}
			members = append(members, m)
			score += severity[id]
		}
		dept := BuildDepartment(name, members, s.metrics, score)
		s.deptIndex[dept.ID] = append(s.deptIndex[dept.ID], ids...)
		depts = append(depts, dept)
	}

	sort.Slice(depts, func(i, j int) bool {
		if depts[i].ID != depts[j].ID {
			return depts[i].ID < depts[j].ID
		}
		return depts[i].District < depts[j].District
	})
	for slug := range s.deptIndex {
		slices.Sort(s.deptIndex[slug])
	}
	return depts
}

// load returns the current snapshot, building it first if necessary.
func (c *Cache) load(ctx context.Context) *snapshot {
	if s := c.snap.Load(); s != nil {
		return s
	}
	if !c.EnsureReady(ctx) {
		return nil
	}
	return c.snap.Load()
}

// Officer returns the officer with the given employee id.
func (c *Cache) Officer(ctx context.Context, id int64) (model.Officer, bool) {
	s := c.load(ctx)
	if s == nil {
		return model.Officer{}, false
	}
	o, ok := s.officers[id]
	return o, ok
}

// Officers returns every officer ordered by employee id.
func (c *Cache) Officers(ctx context.Context) []model.Officer {
	s := c.load(ctx)
	if s == nil {
		return []model.Officer{}
	}
	out := make([]model.Officer, 0, len(s.officerIDs))
	for _, id := range s.officerIDs {
		out = append(out, s.officers[id])
	}
	return out
}

// District returns the district assignment of an employee.
func (c *Cache) District(ctx context.Context, id int64) (model.DistrictAssignment, bool) {
	s := c.load(ctx)
	if s == nil {
		return model.DistrictAssignment{}, false
	}
	d, ok := s.districts[id]
	return d, ok
}

// LatestCompensation returns the most recent year of pay for an employee.
func (c *Cache) LatestCompensation(ctx context.Context, id int64) (model.Compensation, bool) {
	s := c.load(ctx)
	if s == nil {
		return model.Compensation{}, false
	}
	comp, ok := s.latestComp[id]
	return comp, ok
}

// Compensation returns every year of pay for an employee, oldest first.
func (c *Cache) Compensation(ctx context.Context, id int64) []model.Compensation {
	s := c.load(ctx)
	if s == nil {
		return []model.Compensation{}
	}
	return slices.Clone(nonNil(s.compByID[id]))
}

// AllCompensation returns every compensation row as fetched.
func (c *Cache) AllCompensation(ctx context.Context) []model.Compensation {
	s := c.load(ctx)
	if s == nil {
		return []model.Compensation{}
	}
	return slices.Clone(nonNil(s.allComp))
}

// Incidents returns the incidents of an employee. The result is never nil.
func (c *Cache) Incidents(ctx context.Context, id int64) []model.Incident {
	s := c.load(ctx)
	if s == nil {
		return []model.Incident{}
	}
	return slices.Clone(nonNil(s.incidents[id]))
}

// AllIncidents returns every incident row as fetched.
func (c *Cache) AllIncidents(ctx context.Context) []model.Incident {
	s := c.load(ctx)
	if s == nil {
		return []model.Incident{}
	}
	return slices.Clone(nonNil(s.allIncidents))
}

// Metrics returns the derived metrics of an employee.
func (c *Cache) Metrics(ctx context.Context, id int64) (model.OfficerMetrics, bool) {
	s := c.load(ctx)
	if s == nil {
		return model.OfficerMetrics{}, false
	}
	m, ok := s.metrics[id]
	return m, ok
}

// Departments returns every department payload.
func (c *Cache) Departments(ctx context.Context) []model.Department {
	s := c.load(ctx)
	if s == nil {
		return []model.Department{}
	}
	return slices.Clone(s.departments)
}

// Department returns the first department payload with the given slug.
func (c *Cache) Department(ctx context.Context, slug string) (model.Department, bool) {
	s := c.load(ctx)
	if s == nil {
		return model.Department{}, false
	}
	for _, d := range s.departments {
		if d.ID == slug {
			return d, true
		}
	}
	return model.Department{}, false
}

// DepartmentForDistrict returns the payload built for the exact district
// name. Unlike Department it is unambiguous when names share a slug.
func (c *Cache) DepartmentForDistrict(ctx context.Context, district string) (model.Department, bool) {
	s := c.load(ctx)
	if s == nil {
		return model.Department{}, false
	}
	for _, d := range s.departments {
		if d.District == district {
			return d, true
		}
	}
	return model.Department{}, false
}

// DepartmentEmployeeIDs returns the employee ids assigned to a department
// slug. Districts whose names share a slug are merged.
func (c *Cache) DepartmentEmployeeIDs(ctx context.Context, slug string) []int64 {
	s := c.load(ctx)
	if s == nil {
		return []int64{}
	}
	return slices.Clone(nonNil(s.deptIndex[slug]))
}

// Profile assembles everything known about one officer.
func (c *Cache) Profile(ctx context.Context, id int64) (model.OfficerProfile, bool) {
	s := c.load(ctx)
	if s == nil {
		return model.OfficerProfile{}, false
	}
	o, ok := s.officers[id]
	if !ok {
		return model.OfficerProfile{}, false
	}

	p := model.OfficerProfile{
		Officer:      o,
		Compensation: slices.Clone(nonNil(s.compByID[id])),
		Incidents:    slices.Clone(nonNil(s.incidents[id])),
	}
	if d, ok := s.districts[id]; ok {
		p.District = &d
		p.DepartmentID = Slug(d.District)
	}
	if comp, ok := s.latestComp[id]; ok {
		p.LatestCompensation = &comp
	}
	if m, ok := s.metrics[id]; ok {
		p.Metrics = &m
	}
	return p, true
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
