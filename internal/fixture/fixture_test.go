package fixture

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGateway_Shape(t *testing.T) {
	g := New()
	ctx := context.Background()

	officers, err := g.FetchOfficers(ctx)
	require.NoError(t, err)
	assert.Len(t, officers, 24)

	assignments, err := g.FetchDistricts(ctx)
	require.NoError(t, err)
	assert.Len(t, assignments, 24)

	names := map[string]int{}
	for _, a := range assignments {
		names[a.District]++
	}
	assert.Len(t, names, 6)
	assert.Equal(t, 4, names["Boston Police District C-11"])

	comp, err := g.FetchCompensation(ctx)
	require.NoError(t, err)
	assert.Len(t, comp, 48)

	incidents, err := g.FetchIncidents(ctx)
	require.NoError(t, err)
	// complaints cycle 0,1,2,3 per district: 6 each.
	assert.Len(t, incidents, 36)

	seen := map[int64]bool{}
	for _, inc := range incidents {
		assert.False(t, seen[inc.IncidentID], "duplicate incident id %d", inc.IncidentID)
		seen[inc.IncidentID] = true
		require.NotNil(t, inc.EmployeeID)
	}
}

func TestGateway_ReturnsCopies(t *testing.T) {
	g := New()
	ctx := context.Background()

	first, err := g.FetchOfficers(ctx)
	require.NoError(t, err)
	first[0].FirstName = "mutated"

	second, err := g.FetchOfficers(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Ana", second[0].FirstName)
}

func TestGateway_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New().FetchIncidents(ctx)
	require.ErrorIs(t, err, context.Canceled)
}
