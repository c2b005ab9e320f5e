package cache

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ashita-ai/blueline/internal/model"
)

func TestSlug(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"Boston Police District A-1", "a-1"},
		{"District C-11", "c-11"},
		{"district e18", "e-18"},
		{"B 2", "b-2"},
		{"Downtown Precinct", "downtown-precinct"},
		{"  Área  Norte!  ", "area-norte"},
		{"District C-110", "district-c-110"},
		{"", "unknown"},
		{"   ", "unknown"},
		{"---", "unknown"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Slug(tt.name))
		})
	}
}

func TestPositionAndAddress(t *testing.T) {
	assert.Equal(t, [2]float64{42.3613, -71.0598}, PositionFor("  BOSTON Police District A-1 "))
	assert.Equal(t, DefaultPosition, PositionFor("Springfield"))
	assert.Equal(t, "135 Dudley St, Roxbury, MA 02119", AddressFor("b-2"))
	assert.Equal(t, "Address unavailable.", AddressFor("zz-9"))
}

func TestDisplayName(t *testing.T) {
	id := model.Int64Ptr(77)
	assert.Equal(t, "Ana Rivera", DisplayName(&model.Officer{FirstName: " Ana", LastName: "Rivera "}, id))
	assert.Equal(t, "Rivera", DisplayName(&model.Officer{LastName: "Rivera"}, id))
	assert.Equal(t, "Officer 77", DisplayName(&model.Officer{FirstName: "  ", LastName: ""}, id))
	assert.Equal(t, "Officer 77", DisplayName(nil, id))
	assert.Equal(t, "Officer unknown", DisplayName(nil, nil))
}

func TestBuildDepartment(t *testing.T) {
	p90, p40 := 90.0, 40.0
	metrics := map[int64]model.OfficerMetrics{
		5: {EmployeeID: 5, ComplaintsPercentile: &p90, OvertimeRatioPercentile: &p40},
	}
	members := []model.DistrictMember{
		{
			Assignment: model.DistrictAssignment{EmployeeID: model.Int64Ptr(5), District: "Boston Police District D-4"},
			Officer:    &model.Officer{EmployeeID: model.Int64Ptr(5), FirstName: "Ben", LastName: "Allen", Rank: "Det"},
		},
		{Assignment: model.DistrictAssignment{EmployeeID: model.Int64Ptr(6), District: "Boston Police District D-4"}},
		{Assignment: model.DistrictAssignment{District: "Boston Police District D-4"}},
	}

	d := BuildDepartment("Boston Police District D-4", members, metrics, 12.3456)

	assert.Equal(t, "d-4", d.ID)
	assert.Equal(t, "Boston Police District D-4", d.District)
	assert.Equal(t, "1499 Tremont St, Boston, MA 02120", d.Address)
	assert.Equal(t, [2]float64{42.3337, -71.0984}, d.Position)
	assert.Equal(t, 12.35, d.MappingScore)
	require.Len(t, d.Officers, 3)

	assert.Equal(t, model.DepartmentOfficer{
		ID: "5", Name: "Ben Allen", Rank: "Det",
		ComplaintsPercentile: &p90, OvertimePercentile: &p40,
	}, d.Officers[0])

	assert.Equal(t, "6", d.Officers[1].ID)
	assert.Equal(t, "Officer 6", d.Officers[1].Name)
	assert.Nil(t, d.Officers[1].ComplaintsPercentile, "no metrics means absent, not zero")

	assert.Equal(t, "unknown", d.Officers[2].ID)
	assert.Equal(t, "Officer unknown", d.Officers[2].Name)
}

func TestBuildDepartment_EmptyName(t *testing.T) {
	d := BuildDepartment("", nil, nil, 0)
	assert.Equal(t, "unknown", d.ID)
	assert.Equal(t, DefaultAddress, d.Address)
	assert.Equal(t, DefaultPosition, d.Position)
	assert.NotNil(t, d.Officers)
	assert.Equal(t, 0.0, d.MappingScore)
}
