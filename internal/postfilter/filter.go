// Package postfilter implements C5: an independent post-solve pass that
// deletes any route whose revenue does not cover its cost. Deliberately
// decoupled from C4's objective — see SPEC_FULL.md's design notes on why
// this is not folded into the solver.
package postfilter

import "github.com/donorlogix/fleetplan/internal/model"

// Apply filters the routes in sol, moving the stops of any route whose
// revenue does not cover its cost into sol's dropped list.
func Apply(sol model.DailySolution) model.DailySolution {
	kept := sol.Routes[:0:0]

	for _, r := range sol.Routes {
		if routeRevenueCents(r) < r.CostCents {
			for _, stop := range r.Stops {
				sol.Dropped = append(sol.Dropped, model.DroppedVisit{
					Visit:  stop,
					Reason: model.DropPostFilter,
				})
			}
			continue
		}
		kept = append(kept, r)
	}

	sol.Routes = kept
	return sol
}

func routeRevenueCents(r model.Route) int64 {
	return r.RevenueCents
}
