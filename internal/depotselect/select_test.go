package depotselect

import (
	"testing"

	"github.com/donorlogix/fleetplan/internal/geo"
	"github.com/donorlogix/fleetplan/internal/model"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testParams() geo.Params {
	return geo.Params{
		VariableCostPerKm: 0.39,
		DriverWagePerHour: 24,
		AverageSpeedKmh:   40,
		RoadFactor:        1.3,
		TruckFixedWeekly:  636,
	}
}

func TestSelect_AnchorAlwaysRemainsOpen(t *testing.T) {
	depots := []model.Depot{
		{Key: "anchor", Coord: model.Coord{Lat: 0, Lon: 0}, MaxTrucks: 1, Anchor: true},
		{Key: "d2", Coord: model.Coord{Lat: 5, Lon: 5}, MaxTrucks: 1},
	}
	sites := []model.Site{{
		SiteID: 1, Coord: model.Coord{Lat: 5.01, Lon: 5.01}, Frequency: model.D5,
		RevenuePerVisit: decimal.NewFromFloat(50),
	}}

	result, err := Select(sites, depots, testParams())
	require.NoError(t, err)

	var anchorOpen bool
	for _, d := range result.OpenDepots {
		if d.Key == "anchor" {
			anchorOpen = true
		}
	}
	assert.True(t, anchorOpen)
}

func TestSelect_ScenarioFive_GreedyClosureOfSixUnprofitableDepots(t *testing.T) {
	depots := []model.Depot{
		{Key: "anchor", Coord: model.Coord{Lat: 0, Lon: 0}, MaxTrucks: 1, Anchor: true},
	}
	sites := make([]model.Site, 0, 6)
	for i := 1; i <= 6; i++ {
		key := string(rune('a' + i))
		// Depots ~1.5 km apart, so moving a site to the anchor costs far less
		// than the $636/week fixed cost saved by closing its depot.
		lat := float64(i) * 0.01
		depots = append(depots, model.Depot{Key: key, Coord: model.Coord{Lat: lat, Lon: lat}, MaxTrucks: 1})
		sites = append(sites, model.Site{
			SiteID:          i,
			Coord:           model.Coord{Lat: lat + 0.001, Lon: lat + 0.001},
			Frequency:       model.D5,
			RevenuePerVisit: decimal.NewFromFloat(50), // $50/week matches weekly_visits=1 for D5
		})
	}

	result, err := Select(sites, depots, testParams())
	require.NoError(t, err)

	require.Len(t, result.OpenDepots, 1)
	assert.Equal(t, "anchor", result.OpenDepots[0].Key)

	for _, s := range sites {
		assert.Equal(t, "anchor", result.Assignment[s.SiteID])
	}
}

func TestSelect_NoSiteIsOrphaned(t *testing.T) {
	depots := []model.Depot{
		{Key: "anchor", Coord: model.Coord{Lat: 0, Lon: 0}, MaxTrucks: 2, Anchor: true},
		{Key: "far", Coord: model.Coord{Lat: 50, Lon: 50}, MaxTrucks: 1},
	}
	sites := []model.Site{
		{SiteID: 1, Coord: model.Coord{Lat: 0.1, Lon: 0.1}, Frequency: model.D1, RevenuePerVisit: decimal.NewFromFloat(30)},
		{SiteID: 2, Coord: model.Coord{Lat: 49.9, Lon: 49.9}, Frequency: model.D1, RevenuePerVisit: decimal.NewFromFloat(1000)},
	}

	result, err := Select(sites, depots, testParams())
	require.NoError(t, err)

	for _, s := range sites {
		depotKey, ok := result.Assignment[s.SiteID]
		assert.True(t, ok)

		var found bool
		for _, d := range result.OpenDepots {
			if d.Key == depotKey {
				found = true
			}
		}
		assert.True(t, found, "site %d assigned to closed depot %s", s.SiteID, depotKey)
	}
}
