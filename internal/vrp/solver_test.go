package vrp

import (
	"context"
	"testing"
	"time"

	"github.com/donorlogix/fleetplan/internal/geo"
	"github.com/donorlogix/fleetplan/internal/model"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildMatrix(t *testing.T, points []model.Coord) *geo.Matrices {
	t.Helper()
	m, err := geo.Build(context.Background(), points, geo.NoOracle{}, geo.Params{
		VariableCostPerKm: 0.39,
		DriverWagePerHour: 24,
		AverageSpeedKmh:   40,
		RoadFactor:        1.3,
	})
	require.NoError(t, err)
	return m
}

func baseParams() Params {
	return Params{
		VehicleCapacityLbs:      4000,
		EffectiveDrivingMinutes: 660,
		PerNodeSlackMinutes:     30,
		TruckFixedCostCents:     9086,
		MaxTrucks:               2,
		TimeLimit:               200 * time.Millisecond,
		SolutionLimit:           500,
	}
}

func TestSolve_NoNodesReturnsEmptySolution(t *testing.T) {
	sol := Solve(nil, &geo.Matrices{}, baseParams())
	assert.Empty(t, sol.Routes)
	assert.Empty(t, sol.Dropped)
}

func TestSolve_ScenarioOne_SingleProfitableSiteIsServed(t *testing.T) {
	site := model.Site{SiteID: 1, RevenuePerVisit: decimal.NewFromFloat(30), StructuralCostPerVisit: decimal.NewFromFloat(5)}
	nodes := []model.VisitNode{{
		SiteID: 1, SiteRef: &site, DemandLbs: 500, ServiceMinutes: 6,
		NetContributionPerVisit: site.NetContributionPerVisit(),
	}}
	// ~7.7 km straight line, ~10 km after the 1.3 road factor: round-trip
	// arc cost 2*990 = 1980 cents, below the 2500-cent drop penalty.
	points := []model.Coord{{Lat: 0, Lon: 0}, {Lat: 0.0692, Lon: 0}}
	m := buildMatrix(t, points)

	p := baseParams()
	p.MaxTrucks = 1
	sol := Solve(nodes, m, p)

	require.Len(t, sol.Routes, 1)
	assert.Empty(t, sol.Dropped)
	assert.Equal(t, 500, sol.Routes[0].TotalLbs)
}

func TestSolve_ScenarioTwo_UnprofitableSiteIsDropped(t *testing.T) {
	site := model.Site{SiteID: 1, RevenuePerVisit: decimal.NewFromFloat(5), StructuralCostPerVisit: decimal.NewFromFloat(10)}
	nodes := []model.VisitNode{{
		SiteID: 1, SiteRef: &site, DemandLbs: 500, ServiceMinutes: 6,
		NetContributionPerVisit: site.NetContributionPerVisit(),
	}}
	points := []model.Coord{{Lat: 0, Lon: 0}, {Lat: 0.09, Lon: 0}}
	m := buildMatrix(t, points)

	p := baseParams()
	p.MaxTrucks = 1
	sol := Solve(nodes, m, p)

	assert.Empty(t, sol.Routes)
	require.Len(t, sol.Dropped, 1)
	assert.Equal(t, model.DropDisjunction, sol.Dropped[0].Reason)
}

func TestSolve_ScenarioFour_CapacityOverflowForcesSecondTruck(t *testing.T) {
	siteA := model.Site{SiteID: 1, RevenuePerVisit: decimal.NewFromFloat(200), StructuralCostPerVisit: decimal.NewFromFloat(5)}
	siteB := model.Site{SiteID: 2, RevenuePerVisit: decimal.NewFromFloat(200), StructuralCostPerVisit: decimal.NewFromFloat(5)}
	nodes := []model.VisitNode{
		{SiteID: 1, SiteRef: &siteA, DemandLbs: 3500, ServiceMinutes: 10, NetContributionPerVisit: siteA.NetContributionPerVisit()},
		{SiteID: 2, SiteRef: &siteB, DemandLbs: 3500, ServiceMinutes: 10, NetContributionPerVisit: siteB.NetContributionPerVisit()},
	}
	points := []model.Coord{{Lat: 0, Lon: 0}, {Lat: 0.05, Lon: 0}, {Lat: 0, Lon: 0.05}}
	m := buildMatrix(t, points)

	p := baseParams()
	p.MaxTrucks = 2
	sol := Solve(nodes, m, p)

	require.Len(t, sol.Routes, 2)
	for _, r := range sol.Routes {
		assert.LessOrEqual(t, r.TotalLbs, p.VehicleCapacityLbs)
		require.Len(t, r.Stops, 1)
	}
}

func TestSolve_NeverExceedsCapacityOrTimeBudget(t *testing.T) {
	var nodes []model.VisitNode
	var points []model.Coord
	points = append(points, model.Coord{Lat: 0, Lon: 0})
	for i := 1; i <= 12; i++ {
		s := model.Site{SiteID: i, RevenuePerVisit: decimal.NewFromFloat(40), StructuralCostPerVisit: decimal.NewFromFloat(5)}
		nodes = append(nodes, model.VisitNode{
			SiteID: i, SiteRef: &s, DemandLbs: 600, ServiceMinutes: 8,
			NetContributionPerVisit: s.NetContributionPerVisit(),
		})
		points = append(points, model.Coord{Lat: float64(i) * 0.02, Lon: float64(i) * 0.01})
	}
	m := buildMatrix(t, points)

	p := baseParams()
	p.MaxTrucks = 3
	sol := Solve(nodes, m, p)

	for _, r := range sol.Routes {
		assert.LessOrEqual(t, r.TotalLbs, p.VehicleCapacityLbs)
		assert.LessOrEqual(t, r.TotalMinutes, p.EffectiveDrivingMinutes)
	}
}
