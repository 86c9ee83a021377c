package geo

import (
	"context"
	"testing"

	"github.com/donorlogix/fleetplan/internal/model"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testParams() Params {
	return Params{
		VariableCostPerKm: 0.39,
		DriverWagePerHour: 24,
		AverageSpeedKmh:   40,
		RoadFactor:        1.3,
	}
}

func TestBuild_EmptyPointsReturnsEmptyMatrices(t *testing.T) {
	m, err := Build(context.Background(), nil, NoOracle{}, testParams())
	require.NoError(t, err)
	assert.Empty(t, m.DistKm)
}

func TestBuild_DiagonalIsZero(t *testing.T) {
	points := []model.Coord{{Lat: 0, Lon: 0}, {Lat: 1, Lon: 1}}
	m, err := Build(context.Background(), points, NoOracle{}, testParams())
	require.NoError(t, err)

	for i := range points {
		assert.Zero(t, m.DistKm[i][i])
		assert.Zero(t, m.TimeMin[i][i])
		assert.Zero(t, m.ArcCostCents[i][i])
	}
}

func TestBuild_FallsBackToHaversineAndCountsDegradedCells(t *testing.T) {
	points := []model.Coord{{Lat: 41.15, Lon: -8.61}, {Lat: 41.20, Lon: -8.65}}
	m, err := Build(context.Background(), points, NoOracle{}, testParams())
	require.NoError(t, err)

	expectedDist := HaversineKm(41.15, -8.61, 41.20, -8.65) * 1.3
	assert.InDelta(t, expectedDist, m.DistKm[0][1], 1e-6)
	assert.Equal(t, 2, m.DegradedCells)
}

func TestBuild_ScenarioOneArcCostMatchesSpecExample(t *testing.T) {
	// spec.md scenario 1: a site 10 km from the depot, i.e. a 20 km, 30 min
	// round trip, fed here as a single 20 km / 30 min arc.
	// arc_cost_cents = round(20*0.39*100) + round((30/60)*24*100) = 780 + 1200 = 1980
	// Using a direct oracle hit so distance/time are exact, matching the
	// literal example rather than the haversine fallback.
	oracle := fixedOracle{distKm: 20, timeMin: 30}
	points := []model.Coord{{Lat: 0, Lon: 0}, {Lat: 1, Lon: 1}}
	m, err := Build(context.Background(), points, oracle, testParams())
	require.NoError(t, err)

	assert.EqualValues(t, 1980, m.ArcCostCents[0][1])
}

type fixedOracle struct {
	distKm, timeMin float64
}

func (f fixedOracle) Matrix(ctx context.Context, origins, destinations []model.Coord) ([][]OracleCell, error) {
	out := make([][]OracleCell, len(origins))
	for i := range out {
		out[i] = make([]OracleCell, len(destinations))
		for j := range out[i] {
			if i == j {
				continue
			}
			out[i][j] = OracleCell{DistKm: f.distKm, TimeMin: f.timeMin, OK: true}
		}
	}
	return out, nil
}

func TestRoundCentsNonNegative_ClampsNegativeToZero(t *testing.T) {
	assert.EqualValues(t, 0, RoundCentsNonNegative(decimal.NewFromFloat(-5.00)))
	assert.EqualValues(t, 500, RoundCentsNonNegative(decimal.NewFromFloat(5.00)))
}

func TestEstimatedArcCostCents_DoesNotApplyRoadFactorItself(t *testing.T) {
	p := testParams()
	// Callers are responsible for scaling distKm by RoadFactor before calling,
	// same as Build's own haversine fallback path does.
	raw := EstimatedArcCostCents(10, p)
	scaled := EstimatedArcCostCents(10*p.RoadFactor, p)
	assert.Less(t, raw, scaled)
}
