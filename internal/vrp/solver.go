// Package vrp implements C4: a capacitated vehicle routing solver with
// optional stops, cumulative-time constraints, and fixed vehicle activation
// cost. It is a hand-rolled cheapest-insertion construction followed by a
// guided-local-search-style improvement loop, in the teacher's procedural,
// no-framework style — see DESIGN.md for why an off-the-shelf solver
// library was not adopted.
package vrp

import (
	"sort"
	"time"

	"github.com/donorlogix/fleetplan/internal/geo"
	"github.com/donorlogix/fleetplan/internal/model"
)

// Params bundles the per-sub-problem constants the solver needs.
type Params struct {
	VehicleCapacityLbs      int
	EffectiveDrivingMinutes float64
	PerNodeSlackMinutes     float64
	TruckFixedCostCents     int64
	MaxTrucks               int
	TimeLimit               time.Duration
	SolutionLimit           int
}

// route is the solver's internal mutable representation of one vehicle's
// itinerary, indices into the node list (0 is always the depot).
type route struct {
	nodeIdx      []int
	demandLbs    int
	cumMinutes   float64
}

func newRoute() *route {
	return &route{}
}

// sortedUnplaced returns unplaced's keys in ascending order, so passes that
// range over it evaluate candidates in a fixed order and ties between equal
// deltas resolve the same way on every run.
func sortedUnplaced(unplaced map[int]bool) []int {
	keys := make([]int, 0, len(unplaced))
	for idx := range unplaced {
		keys = append(keys, idx)
	}
	sort.Ints(keys)
	return keys
}

func (r *route) cost(m *geo.Matrices) int64 {
	var total int64
	prev := 0
	for _, idx := range r.nodeIdx {
		total += m.ArcCostCents[prev][idx]
		prev = idx
	}
	total += m.ArcCostCents[prev][0]
	return total
}

// insertionCost returns the marginal arc-cost increase (cents) of inserting
// node idx at position pos in r, and whether the result stays feasible.
func (r *route) insertionCost(m *geo.Matrices, nodes []model.VisitNode, idx, pos int, p Params) (int64, bool) {
	prevNode := 0
	if pos > 0 {
		prevNode = r.nodeIdx[pos-1]
	}
	nextNode := 0
	if pos < len(r.nodeIdx) {
		nextNode = r.nodeIdx[pos]
	}

	demand := nodes[idx-1].DemandLbs
	if r.demandLbs+demand > p.VehicleCapacityLbs {
		return 0, false
	}

	removed := m.ArcCostCents[prevNode][nextNode]
	added := m.ArcCostCents[prevNode][idx] + m.ArcCostCents[idx][nextNode]
	delta := added - removed

	addedTime := m.TimeMin[prevNode][idx] + m.TimeMin[idx][nextNode] - m.TimeMin[prevNode][nextNode]
	addedTime += nodes[idx-1].ServiceMinutes + p.PerNodeSlackMinutes
	if r.cumMinutes+addedTime > p.EffectiveDrivingMinutes {
		return 0, false
	}

	return delta, true
}

func (r *route) insertAt(m *geo.Matrices, nodes []model.VisitNode, idx, pos int, p Params) {
	prevNode := 0
	if pos > 0 {
		prevNode = r.nodeIdx[pos-1]
	}
	nextNode := 0
	if pos < len(r.nodeIdx) {
		nextNode = r.nodeIdx[pos]
	}

	addedTime := m.TimeMin[prevNode][idx] + m.TimeMin[idx][nextNode] - m.TimeMin[prevNode][nextNode]
	addedTime += nodes[idx-1].ServiceMinutes + p.PerNodeSlackMinutes

	r.nodeIdx = append(r.nodeIdx, 0)
	copy(r.nodeIdx[pos+1:], r.nodeIdx[pos:])
	r.nodeIdx[pos] = idx

	r.demandLbs += nodes[idx-1].DemandLbs
	r.cumMinutes += addedTime
}

// Solve runs the cheapest-insertion construction and guided local search
// improvement for one (depot, weekday) sub-problem. nodes is the visit-node
// list for this depot and weekday; m is the matrix built over
// [depot, nodes...] (so m has len(nodes)+1 rows/cols).
func Solve(nodes []model.VisitNode, m *geo.Matrices, p Params) model.DailySolution {
	sol := model.DailySolution{}

	if len(nodes) == 0 {
		return sol
	}

	deadline := time.Now().Add(p.TimeLimit)

	routes := make([]*route, 0, p.MaxTrucks)
	for i := 0; i < p.MaxTrucks; i++ {
		routes = append(routes, newRoute())
	}

	unplaced := make(map[int]bool, len(nodes))
	for i := range nodes {
		unplaced[i+1] = true
	}

	penalty := make([]int64, len(nodes)+1)
	for i, n := range nodes {
		penalty[i+1] = geo.RoundCentsNonNegative(n.NetContributionPerVisit)
	}

	cheapestInsertion(routes, nodes, m, p, unplaced)

	improve(routes, nodes, m, p, unplaced, penalty, deadline)

	for _, r := range routes {
		if len(r.nodeIdx) == 0 {
			continue
		}
		sol.Routes = append(sol.Routes, toModelRoute(r, nodes, m, p))
	}

	for _, idx := range sortedUnplaced(unplaced) {
		sol.Dropped = append(sol.Dropped, model.DroppedVisit{
			Visit:  nodes[idx-1],
			Reason: model.DropDisjunction,
		})
	}

	return sol
}

// cheapestInsertion builds an initial solution: repeatedly insert the
// unplaced node whose cheapest feasible insertion point across all vehicles
// has the lowest marginal arc cost, until no remaining node can be feasibly
// inserted anywhere.
func cheapestInsertion(routes []*route, nodes []model.VisitNode, m *geo.Matrices, p Params, unplaced map[int]bool) {
	for {
		bestIdx, bestRoute, bestPos, bestDelta := -1, -1, -1, int64(0)
		found := false

		for _, idx := range sortedUnplaced(unplaced) {
			for ri, r := range routes {
				for pos := 0; pos <= len(r.nodeIdx); pos++ {
					delta, ok := r.insertionCost(m, nodes, idx, pos, p)
					if !ok {
						continue
					}
					if !found || delta < bestDelta {
						bestIdx, bestRoute, bestPos, bestDelta = idx, ri, pos, delta
						found = true
					}
				}
			}
		}

		if !found {
			return
		}

		routes[bestRoute].insertAt(m, nodes, bestIdx, bestPos, p)
		delete(unplaced, bestIdx)
	}
}

// improve runs or-opt relocation and 2-opt edge exchange until the time
// budget or solution-evaluation limit is reached, or a round makes no move.
// A penalized-move memory (keyed by node and target route for relocations,
// by introduced arc for exchanges) records each accepted move so the same
// move is not made again, in the guided-local-search tradition.
func improve(routes []*route, nodes []model.VisitNode, m *geo.Matrices, p Params, unplaced map[int]bool, penalty []int64, deadline time.Time) {
	penalized := make(map[[2]int]int)
	evaluations := 0

	for evaluations < p.SolutionLimit && time.Now().Before(deadline) {
		movedOrOpt := orOptPass(routes, nodes, m, p, unplaced, penalized, &evaluations)
		moved2opt := twoOptPass(routes, nodes, m, p, penalized, &evaluations)
		movedDrop := dropUnprofitablePass(routes, nodes, m, p, unplaced, penalty, &evaluations)
		tryInsertUnplaced(routes, nodes, m, p, unplaced, penalty, &evaluations)

		if !movedOrOpt && !moved2opt && !movedDrop {
			break
		}
	}
}

// dropUnprofitablePass removes a placed node back to unplaced whenever the
// arc cost of keeping it on its route (removalDelta) strictly exceeds its
// disjunction penalty. Construction inserts any feasible node regardless of
// profitability; this is what actually enforces the drop/serve trade-off.
func dropUnprofitablePass(routes []*route, nodes []model.VisitNode, m *geo.Matrices, p Params, unplaced map[int]bool, penalty []int64, evaluations *int) bool {
	for _, r := range routes {
		for pos := 0; pos < len(r.nodeIdx); pos++ {
			idx := r.nodeIdx[pos]
			*evaluations++

			if removalDelta(r, m, pos) > penalty[idx] {
				r.nodeIdx = removeAt(r.nodeIdx, pos)
				recomputeRoute(r, nodes, m, p)
				unplaced[idx] = true
				return true
			}
		}
	}
	return false
}

// orOptPass tries relocating each placed node to a cheaper position on any
// route (including its own), accepting the first improving move found.
func orOptPass(routes []*route, nodes []model.VisitNode, m *geo.Matrices, p Params, unplaced map[int]bool, penalized map[[2]int]int, evaluations *int) bool {
	moved := false

	for ri, r := range routes {
		for pos := 0; pos < len(r.nodeIdx); pos++ {
			idx := r.nodeIdx[pos]
			*evaluations++

			removalGain := removalDelta(r, m, pos)

			for rj, target := range routes {
				maxPos := len(target.nodeIdx)
				if rj == ri {
					maxPos = len(target.nodeIdx) - 1
				}
				for tp := 0; tp <= maxPos; tp++ {
					if rj == ri && (tp == pos || tp == pos-1) {
						continue
					}

					simTarget := &route{
						nodeIdx:    append([]int(nil), target.nodeIdx...),
						demandLbs:  target.demandLbs,
						cumMinutes: target.cumMinutes,
					}
					if rj == ri {
						simTarget.nodeIdx = removeAt(simTarget.nodeIdx, pos)
						simTarget.demandLbs -= nodes[idx-1].DemandLbs
					}

					insertDelta, ok := simTarget.insertionCost(m, nodes, idx, tp, p)
					if !ok {
						continue
					}

					netDelta := insertDelta - removalGain
					if penalized[[2]int{idx, rj}] > 0 {
						continue
					}
					if netDelta < 0 {
						r.nodeIdx = removeAt(r.nodeIdx, pos)
						recomputeRoute(r, nodes, m, p)
						target.insertAt(m, nodes, idx, tp, p)
						penalized[[2]int{idx, rj}]++
						moved = true
						break
					}
				}
				if moved {
					break
				}
			}
			if moved {
				break
			}
		}
		if moved {
			break
		}
	}

	return moved
}

func removalDelta(r *route, m *geo.Matrices, pos int) int64 {
	prev := 0
	if pos > 0 {
		prev = r.nodeIdx[pos-1]
	}
	cur := r.nodeIdx[pos]
	next := 0
	if pos+1 < len(r.nodeIdx) {
		next = r.nodeIdx[pos+1]
	}
	return m.ArcCostCents[prev][cur] + m.ArcCostCents[cur][next] - m.ArcCostCents[prev][next]
}

func removeAt(s []int, pos int) []int {
	out := append([]int(nil), s[:pos]...)
	return append(out, s[pos+1:]...)
}

func recomputeRoute(r *route, nodes []model.VisitNode, m *geo.Matrices, p Params) {
	r.demandLbs = 0
	r.cumMinutes = 0
	prev := 0
	for _, idx := range r.nodeIdx {
		r.demandLbs += nodes[idx-1].DemandLbs
		r.cumMinutes += m.TimeMin[prev][idx] + nodes[idx-1].ServiceMinutes + p.PerNodeSlackMinutes
		prev = idx
	}
	r.cumMinutes += m.TimeMin[prev][0]
}

// twoOptPass tries reversing segments within each route, accepting every
// improving exchange in the first route that has one. The arc each accepted
// exchange introduces is recorded in penalized, and an exchange that would
// introduce an already-penalized arc is skipped.
func twoOptPass(routes []*route, nodes []model.VisitNode, m *geo.Matrices, p Params, penalized map[[2]int]int, evaluations *int) bool {
	moved := false
	for _, r := range routes {
		n := len(r.nodeIdx)
		if n < 3 {
			continue
		}
		for i := 0; i < n-1; i++ {
			for j := i + 1; j < n; j++ {
				*evaluations++

				a := nodeBefore(r, i)
				b := r.nodeIdx[i]
				c := r.nodeIdx[j]
				d := nodeAfter(r, j)

				before := m.ArcCostCents[a][b] + m.ArcCostCents[c][d]
				after := m.ArcCostCents[a][c] + m.ArcCostCents[b][d]

				if after < before && penalized[[2]int{a, c}] == 0 {
					reverseSegment(r.nodeIdx, i, j)
					recomputeRoute(r, nodes, m, p)
					penalized[[2]int{a, c}]++
					moved = true
				}
			}
		}
		if moved {
			break
		}
	}
	return moved
}

func nodeBefore(r *route, i int) int {
	if i == 0 {
		return 0
	}
	return r.nodeIdx[i-1]
}

func nodeAfter(r *route, j int) int {
	if j == len(r.nodeIdx)-1 {
		return 0
	}
	return r.nodeIdx[j+1]
}

func reverseSegment(s []int, i, j int) {
	for i < j {
		s[i], s[j] = s[j], s[i]
		i++
		j--
	}
}

// tryInsertUnplaced attempts to insert dropped nodes whose penalty now
// exceeds the marginal insertion cost somewhere in the fleet, since
// relocations above may have freed capacity or time.
func tryInsertUnplaced(routes []*route, nodes []model.VisitNode, m *geo.Matrices, p Params, unplaced map[int]bool, penalty []int64, evaluations *int) {
	for _, idx := range sortedUnplaced(unplaced) {
		*evaluations++
		if penalty[idx] <= 0 {
			continue
		}
		for _, r := range routes {
			for pos := 0; pos <= len(r.nodeIdx); pos++ {
				delta, ok := r.insertionCost(m, nodes, idx, pos, p)
				if ok && delta < penalty[idx] {
					r.insertAt(m, nodes, idx, pos, p)
					delete(unplaced, idx)
					return
				}
			}
		}
	}
}

func toModelRoute(r *route, nodes []model.VisitNode, m *geo.Matrices, p Params) model.Route {
	out := model.Route{
		CostCents: r.cost(m) + p.TruckFixedCostCents,
	}
	prev := 0
	for _, idx := range r.nodeIdx {
		n := nodes[idx-1]
		out.Stops = append(out.Stops, n)
		out.TotalLbs += n.DemandLbs
		out.TotalKm += m.DistKm[prev][idx]
		out.TotalMinutes += m.TimeMin[prev][idx] + n.ServiceMinutes
		out.RevenueCents += geo.RoundCentsNonNegative(n.NetContributionPerVisit)
		prev = idx
	}
	out.TotalKm += m.DistKm[prev][0]
	out.TotalMinutes += m.TimeMin[prev][0]
	return out
}
