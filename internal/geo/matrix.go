package geo

import (
	"context"
	"fmt"
	"math"

	"github.com/donorlogix/fleetplan/internal/model"
	"github.com/shopspring/decimal"
)

// Matrices holds the three N×N arrays C1 produces for one sub-problem.
// Point 0 is always the depot; points 1..n-1 are visit-nodes in the same
// order as the caller's point list.
type Matrices struct {
	DistKm       [][]float64
	TimeMin      [][]float64
	ArcCostCents [][]int64
	// DegradedCells counts entries that fell back to Haversine because the
	// oracle did not return them.
	DegradedCells int
}

// Params carries the injected constants Matrices needs that otherwise live
// in internal/config, avoiding an import cycle back to config.
type Params struct {
	VariableCostPerKm float64
	DriverWagePerHour float64
	AverageSpeedKmh   float64
	RoadFactor        float64
	TruckFixedWeekly  float64
}

// Build constructs all three matrices atomically for the given ordered point
// list, preferring the oracle and falling back to Haversine per-cell.
func Build(ctx context.Context, points []model.Coord, oracle Oracle, p Params) (*Matrices, error) {
	n := len(points)
	m := &Matrices{
		DistKm:       make([][]float64, n),
		TimeMin:      make([][]float64, n),
		ArcCostCents: make([][]int64, n),
	}
	for i := range m.DistKm {
		m.DistKm[i] = make([]float64, n)
		m.TimeMin[i] = make([]float64, n)
		m.ArcCostCents[i] = make([]int64, n)
	}

	if n == 0 {
		return m, nil
	}

	oracleCells, err := oracle.Matrix(ctx, points, points)
	if err != nil {
		return nil, fmt.Errorf("building cost matrix: oracle call: %w", err)
	}

	hundred := decimal.NewFromInt(100)
	perKm := decimal.NewFromFloat(p.VariableCostPerKm)
	perHour := decimal.NewFromFloat(p.DriverWagePerHour)

	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			if i == j {
				continue
			}

			var distKm, timeMin float64
			if oracleCells != nil && i < len(oracleCells) && j < len(oracleCells[i]) && oracleCells[i][j].OK {
				distKm = oracleCells[i][j].DistKm
				timeMin = oracleCells[i][j].TimeMin
			} else {
				distKm = HaversineKm(points[i].Lat, points[i].Lon, points[j].Lat, points[j].Lon) * p.RoadFactor
				timeMin = distKm / p.AverageSpeedKmh * 60
				m.DegradedCells++
			}

			m.DistKm[i][j] = distKm
			m.TimeMin[i][j] = timeMin

			distCost := decimal.NewFromFloat(distKm).Mul(perKm).Mul(hundred).Round(0)
			timeCost := decimal.NewFromFloat(timeMin).Div(decimal.NewFromInt(60)).Mul(perHour).Mul(hundred).Round(0)
			m.ArcCostCents[i][j] = distCost.Add(timeCost).IntPart()
		}
	}

	return m, nil
}

// RoundCents rounds a decimal dollar amount to integer cents, the single
// floating-point-to-integer boundary the VRP solver's objective crosses.
func RoundCents(amount decimal.Decimal) int64 {
	return amount.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}

// RoundCentsNonNegative is RoundCents clamped to zero, matching the
// disjunction-penalty and route-revenue encoding's max(0, ...) rule.
func RoundCentsNonNegative(amount decimal.Decimal) int64 {
	c := RoundCents(amount)
	if c < 0 {
		return 0
	}
	return c
}

// EstimatedArcCostCents mirrors arc-cost math for the depot selector's
// Haversine-only P&L estimate (spec §4.3), without constructing a full
// matrix.
func EstimatedArcCostCents(distKm float64, p Params) int64 {
	timeMin := distKm / p.AverageSpeedKmh * 60
	cents := distKm*p.VariableCostPerKm*100 + (timeMin/60)*p.DriverWagePerHour*100
	return int64(math.Round(cents))
}
