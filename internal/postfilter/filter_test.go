package postfilter

import (
	"testing"

	"github.com/donorlogix/fleetplan/internal/model"
	"github.com/stretchr/testify/assert"
)

func TestApply_DropsRouteWhenCostExceedsRevenue(t *testing.T) {
	sol := model.DailySolution{
		Routes: []model.Route{
			{CostCents: 5000, RevenueCents: 3000, Stops: []model.VisitNode{{SiteID: 1}}},
			{CostCents: 1000, RevenueCents: 2000, Stops: []model.VisitNode{{SiteID: 2}}},
		},
	}

	out := Apply(sol)

	assert.Len(t, out.Routes, 1)
	assert.Equal(t, 2, out.Routes[0].Stops[0].SiteID)
	assert.Len(t, out.Dropped, 1)
	assert.Equal(t, 1, out.Dropped[0].Visit.SiteID)
	assert.Equal(t, model.DropPostFilter, out.Dropped[0].Reason)
}

func TestApply_RouteRevenueEqualToCostIsKept(t *testing.T) {
	sol := model.DailySolution{
		Routes: []model.Route{{CostCents: 2000, RevenueCents: 2000, Stops: []model.VisitNode{{SiteID: 1}}}},
	}
	out := Apply(sol)
	assert.Len(t, out.Routes, 1)
	assert.Empty(t, out.Dropped)
}

func TestApply_NoRoutesIsNoOp(t *testing.T) {
	out := Apply(model.DailySolution{})
	assert.Empty(t, out.Routes)
	assert.Empty(t, out.Dropped)
}
