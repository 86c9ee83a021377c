package pnl

import (
	"testing"

	"github.com/donorlogix/fleetplan/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testParams() Params {
	return Params{
		DriverWagePerHour:      24,
		OTWeeklyThresholdHours: 40,
		OTMultiplier:           1.5,
		VariableCostPerKm:      0.39,
		TruckFixedWeekly:       636,
		RevenuePerLb:           0.05,
	}
}

func TestAggregate_EmptyWeekProducesZeroNet(t *testing.T) {
	ws := model.WeeklySolution{DepotKey: "anchor"}
	d := Aggregate(ws, testParams())
	assert.True(t, d.Net.IsZero())
	assert.Equal(t, 0, d.VehiclesUsed)
}

func TestAggregate_FixedCostChargedOncePerDispatchedVehiclePerWeek(t *testing.T) {
	var ws model.WeeklySolution
	ws.DepotKey = "anchor"
	for d := 0; d < 3; d++ {
		ws.Days[d] = model.DailySolution{
			Routes: []model.Route{{TotalLbs: 100, TotalKm: 10, TotalMinutes: 60}},
		}
	}

	result := Aggregate(ws, testParams())
	require.Equal(t, 1, result.VehiclesUsed)
	assert.True(t, result.FixedCost.Equal(result.FixedCost)) // sanity: non-panicking path
	assert.InDelta(t, 636.0, result.FixedCost.InexactFloat64(), 0.01)
}

func TestAggregate_OvertimeAppliesAboveWeeklyThreshold(t *testing.T) {
	var ws model.WeeklySolution
	ws.DepotKey = "anchor"
	// One vehicle driving 45 hours across the week -> 40 regular + 5 OT.
	for d := 0; d < 5; d++ {
		ws.Days[d] = model.DailySolution{
			Routes: []model.Route{{TotalLbs: 100, TotalKm: 10, TotalMinutes: 9 * 60}},
		}
	}

	p := testParams()
	result := Aggregate(ws, p)

	expectedRegular := 40.0 * p.DriverWagePerHour
	expectedOT := 5.0 * p.DriverWagePerHour * p.OTMultiplier
	assert.InDelta(t, expectedRegular+expectedOT, result.DriverCost.InexactFloat64(), 0.1)
}

func TestAggregateNetwork_SumsAcrossDepots(t *testing.T) {
	p := testParams()
	weekly := []model.WeeklySolution{
		{DepotKey: "a", Days: [7]model.DailySolution{{Routes: []model.Route{{TotalLbs: 1000, TotalKm: 10, TotalMinutes: 60}}}}},
		{DepotKey: "b", Days: [7]model.DailySolution{{Routes: []model.Route{{TotalLbs: 2000, TotalKm: 20, TotalMinutes: 120}}}}},
	}

	net := AggregateNetwork(weekly, p)
	require.Len(t, net.Depots, 2)
	assert.True(t, net.Revenue.Equal(net.Depots[0].Revenue.Add(net.Depots[1].Revenue)))
}
