// Package depotselect implements C3: nearest-depot assignment followed by
// greedy single-pass network closure with reassignment.
package depotselect

import (
	"fmt"
	"sort"

	"github.com/donorlogix/fleetplan/internal/geo"
	"github.com/donorlogix/fleetplan/internal/model"
	"github.com/shopspring/decimal"
)

// Result is C3's output: the open-depot set and the final site assignment.
type Result struct {
	OpenDepots []model.Depot
	Assignment model.Assignment
}

// weeklyVisits returns the number of visits per week a frequency code
// produces, used for the depot P&L estimate (spec §4.3).
func weeklyVisits(freq model.FrequencyCode) int {
	switch freq {
	case model.D1:
		return 7
	case model.D2:
		return 14
	case model.D3:
		return 2
	case model.D4:
		return 3
	case model.D5:
		return 1
	default:
		return 0
	}
}

// Select runs the initial nearest-depot assignment and the greedy closure
// loop, returning the final open-depot set and assignment.
func Select(sites []model.Site, depots []model.Depot, p geo.Params) (Result, error) {
	anchorIdx := -1
	for i, d := range depots {
		if d.Anchor {
			anchorIdx = i
		}
	}
	if anchorIdx < 0 {
		return Result{}, fmt.Errorf("depot selection: no anchor depot configured")
	}

	open := make(map[string]model.Depot, len(depots))
	for _, d := range depots {
		open[d.Key] = d
	}

	assignment := nearestAssignment(sites, open)

	for {
		nets := perDepotNet(sites, open, assignment, p)
		total := sumNets(nets)

		candidate, ok := leastProfitableNonAnchor(open, nets, depots[anchorIdx].Key)
		if !ok {
			break
		}

		trialOpen := make(map[string]model.Depot, len(open))
		for k, v := range open {
			trialOpen[k] = v
		}
		delete(trialOpen, candidate)

		trialAssignment := reassignClosed(sites, assignment, trialOpen, candidate)

		trialNets := perDepotNet(sites, trialOpen, trialAssignment, p)
		trialTotal := sumNets(trialNets)

		if trialTotal.GreaterThan(total) {
			open = trialOpen
			assignment = trialAssignment
			continue
		}
		break
	}

	result := Result{Assignment: assignment}
	for _, d := range depots {
		if _, ok := open[d.Key]; ok {
			result.OpenDepots = append(result.OpenDepots, d)
		}
	}
	sort.Slice(result.OpenDepots, func(i, j int) bool {
		return result.OpenDepots[i].Key < result.OpenDepots[j].Key
	})

	return result, nil
}

func nearestAssignment(sites []model.Site, open map[string]model.Depot) model.Assignment {
	assignment := make(model.Assignment, len(sites))
	keys := sortedKeys(open)
	for _, s := range sites {
		if !s.Coord.HasCoord() {
			continue
		}
		assignment[s.SiteID] = nearestOf(s, open, keys)
	}
	return assignment
}

func nearestOf(s model.Site, open map[string]model.Depot, keys []string) string {
	best := ""
	bestDist := -1.0
	for _, k := range keys {
		d := open[k]
		dist := geo.HaversineKm(s.Coord.Lat, s.Coord.Lon, d.Coord.Lat, d.Coord.Lon)
		if bestDist < 0 || dist < bestDist {
			bestDist = dist
			best = k
		}
	}
	return best
}

func sortedKeys(open map[string]model.Depot) []string {
	keys := make([]string, 0, len(open))
	for k := range open {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// reassignClosed reassigns every site currently pointed at closing to its
// next-nearest currently-open depot (tie-broken by stable key order), and
// leaves every other site's assignment untouched.
func reassignClosed(sites []model.Site, assignment model.Assignment, stillOpen map[string]model.Depot, closing string) model.Assignment {
	out := make(model.Assignment, len(assignment))
	for k, v := range assignment {
		out[k] = v
	}

	keys := sortedKeys(stillOpen)
	for _, s := range sites {
		if assignment[s.SiteID] != closing {
			continue
		}
		out[s.SiteID] = nearestOf(s, stillOpen, keys)
	}
	return out
}

// perDepotNet computes the estimated weekly P&L per depot per spec §4.3.
func perDepotNet(sites []model.Site, open map[string]model.Depot, assignment model.Assignment, p geo.Params) map[string]decimal.Decimal {
	nets := make(map[string]decimal.Decimal, len(open))
	for k, d := range open {
		weeklyFixedCost := decimal.NewFromFloat(float64(d.MaxTrucks) * p.TruckFixedWeekly)
		nets[k] = decimal.Zero.Sub(weeklyFixedCost)
	}

	for _, s := range sites {
		depotKey, ok := assignment[s.SiteID]
		if !ok {
			continue
		}
		d, ok := open[depotKey]
		if !ok {
			continue
		}

		visits := weeklyVisits(s.Frequency)
		weeklyRevenue := s.RevenuePerVisit.Mul(decimal.NewFromInt(int64(visits)))

		distKm := geo.HaversineKm(d.Coord.Lat, d.Coord.Lon, s.Coord.Lat, s.Coord.Lon) * p.RoadFactor
		arcCents := geo.EstimatedArcCostCents(distKm, p)
		weeklyVariableCost := decimal.NewFromInt(arcCents).Div(decimal.NewFromInt(100)).Mul(decimal.NewFromInt(int64(visits)))

		nets[depotKey] = nets[depotKey].Add(weeklyRevenue).Sub(weeklyVariableCost)
	}

	return nets
}

func sumNets(nets map[string]decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, n := range nets {
		total = total.Add(n)
	}
	return total
}

func leastProfitableNonAnchor(open map[string]model.Depot, nets map[string]decimal.Decimal, anchorKey string) (string, bool) {
	best := ""
	var bestNet decimal.Decimal
	found := false

	keys := sortedKeys(open)
	for _, k := range keys {
		if k == anchorKey {
			continue
		}
		n := nets[k]
		if !found || n.LessThan(bestNet) {
			bestNet = n
			best = k
			found = true
		}
	}
	return best, found
}
