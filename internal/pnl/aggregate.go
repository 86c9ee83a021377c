// Package pnl implements C6: rolling per-route outcomes into weekly and
// per-depot network P&L, and persisting the resulting NetworkRun.
package pnl

import (
	"github.com/donorlogix/fleetplan/internal/model"
	"github.com/shopspring/decimal"
)

// Params bundles the injected cost constants C6 needs.
type Params struct {
	DriverWagePerHour      float64
	OTWeeklyThresholdHours float64
	OTMultiplier           float64
	VariableCostPerKm      float64
	TruckFixedWeekly       float64
	RevenuePerLb           float64
}

// DepotPNL is one open depot's weekly profit-and-loss rollup.
type DepotPNL struct {
	DepotKey        string
	DriverCost      decimal.Decimal
	VariableCost    decimal.Decimal
	FixedCost       decimal.Decimal
	Revenue         decimal.Decimal
	Net             decimal.Decimal
	VehiclesUsed    int
	TotalLbs        int
	TotalKm         float64
	TotalMinutes    float64
}

// NetworkPNL is the full network rollup: one DepotPNL per open depot plus
// network-wide totals.
type NetworkPNL struct {
	Depots  []DepotPNL
	Revenue decimal.Decimal
	Cost    decimal.Decimal
	Net     decimal.Decimal
}

// vehicleWeek tracks per-vehicle weekly driving minutes for the overtime
// rule; vehicles are identified positionally (the Nth route emitted for a
// given weekday stands in for "vehicle N" since the solver does not persist
// a stable vehicle identity across days).
type vehicleWeek struct {
	minutes      float64
	dispatchedAt map[int]bool
}

// Aggregate rolls a WeeklySolution (seven DailySolutions for one open depot)
// into a DepotPNL.
func Aggregate(ws model.WeeklySolution, p Params) DepotPNL {
	out := DepotPNL{DepotKey: ws.DepotKey}

	vehicles := map[int]*vehicleWeek{}

	for weekday, day := range ws.Days {
		for vehicleIdx, r := range day.Routes {
			v, ok := vehicles[vehicleIdx]
			if !ok {
				v = &vehicleWeek{dispatchedAt: map[int]bool{}}
				vehicles[vehicleIdx] = v
			}
			v.minutes += r.TotalMinutes
			v.dispatchedAt[weekday] = true

			out.TotalLbs += r.TotalLbs
			out.TotalKm += r.TotalKm
			out.TotalMinutes += r.TotalMinutes

			out.VariableCost = out.VariableCost.Add(decimal.NewFromFloat(r.TotalKm * p.VariableCostPerKm))
			out.Revenue = out.Revenue.Add(decimal.NewFromInt(int64(r.TotalLbs)).Mul(decimal.NewFromFloat(p.RevenuePerLb)))
		}
	}

	regularThresholdMin := p.OTWeeklyThresholdHours * 60
	for _, v := range vehicles {
		if len(v.dispatchedAt) > 0 {
			out.VehiclesUsed++
			out.FixedCost = out.FixedCost.Add(decimal.NewFromFloat(p.TruckFixedWeekly))
		}

		regular := v.minutes
		overtime := 0.0
		if regular > regularThresholdMin {
			overtime = regular - regularThresholdMin
			regular = regularThresholdMin
		}

		regularHours := decimal.NewFromFloat(regular / 60)
		overtimeHours := decimal.NewFromFloat(overtime / 60)

		wage := decimal.NewFromFloat(p.DriverWagePerHour)
		otWage := wage.Mul(decimal.NewFromFloat(p.OTMultiplier))

		out.DriverCost = out.DriverCost.Add(regularHours.Mul(wage)).Add(overtimeHours.Mul(otWage))
	}

	out.Net = out.Revenue.Sub(out.DriverCost).Sub(out.VariableCost).Sub(out.FixedCost)
	return out
}

// AggregateNetwork rolls every open depot's WeeklySolution into the network
// total. Depots are processed in the stable order the caller supplies
// (depot key ascending, per the concurrency model's ordering guarantee).
func AggregateNetwork(weekly []model.WeeklySolution, p Params) NetworkPNL {
	out := NetworkPNL{}
	for _, ws := range weekly {
		d := Aggregate(ws, p)
		out.Depots = append(out.Depots, d)
		out.Revenue = out.Revenue.Add(d.Revenue)
		out.Cost = out.Cost.Add(d.DriverCost).Add(d.VariableCost).Add(d.FixedCost)
	}
	out.Net = out.Revenue.Sub(out.Cost)
	return out
}
