// Package model holds the shared data types that flow between fleetplan's
// pipeline stages: sites, depots, visit-nodes, routes and their solutions.
package model

import (
	"github.com/shopspring/decimal"
)

// FrequencyCode is one of the symbolic visit-frequency labels D1..D5.
type FrequencyCode string

const (
	D1 FrequencyCode = "D1"
	D2 FrequencyCode = "D2"
	D3 FrequencyCode = "D3"
	D4 FrequencyCode = "D4"
	D5 FrequencyCode = "D5"
)

// Coord is a geographic point.
type Coord struct {
	Lat float64
	Lon float64
}

// HasCoord reports whether c has been resolved (the zero value is never a
// legitimate resolved coordinate for this network's service area).
func (c Coord) HasCoord() bool {
	return c.Lat != 0 || c.Lon != 0
}

// Site is one pickup location, immutable after load.
type Site struct {
	SiteID                  int
	Address                 string
	Coord                   Coord
	Frequency               FrequencyCode
	Bins                    int
	// DemandPerVisitLbs is the per-visit demand for D1/D3/D4/D5 sites. For
	// D2 sites it holds the full daily demand, split by internal/schedule
	// into two visit-nodes (ceil/floor of half) per scheduled day.
	DemandPerVisitLbs       int
	RevenuePerVisit         decimal.Decimal
	StructuralCostPerVisit  decimal.Decimal
	AnnualVisits            int
}

// NetContributionPerVisit is revenue minus structural cost per visit.
func (s Site) NetContributionPerVisit() decimal.Decimal {
	return s.RevenuePerVisit.Sub(s.StructuralCostPerVisit)
}

// ServiceMinutes is the on-site dwell time for one visit.
func (s Site) ServiceMinutes(minutesPerBin float64) float64 {
	return float64(s.Bins) * minutesPerBin
}

// Depot is a dispatch point for trucks.
type Depot struct {
	Key       string
	Name      string
	Address   string
	Coord     Coord
	MaxTrucks int
	Anchor    bool
}

// VisitNode is a single per-day instance of a site's visit.
type VisitNode struct {
	SiteID                  int
	SiteRef                 *Site
	DemandLbs               int
	ServiceMinutes          float64
	NetContributionPerVisit decimal.Decimal
}

// WeeklySchedule maps weekday index 0..6 to the visit-nodes due that day.
type WeeklySchedule [7][]VisitNode

// Assignment maps a site id to the depot key currently serving it.
type Assignment map[int]string

// Route is one vehicle's ordered sequence of stops for a (depot, weekday).
type Route struct {
	DepotKey       string
	Weekday        int
	Stops          []VisitNode
	TotalLbs       int
	TotalKm        float64
	TotalMinutes   float64
	CostCents      int64
	RevenueCents   int64
	Polyline       string
}

// DailySolution is the output of the VRP solver for one (depot, weekday).
type DailySolution struct {
	DepotKey     string
	Weekday      int
	Routes       []Route
	Dropped      []DroppedVisit
}

// DropReason explains why a visit-node did not end up on a route.
type DropReason string

const (
	DropInfeasible   DropReason = "solver_infeasible"
	DropDisjunction  DropReason = "not_cost_justified"
	DropPostFilter   DropReason = "route_not_cost_justified"
	DropHoliday      DropReason = "holiday_unprofitable"
	DropNoCoord      DropReason = "no_resolved_coordinate"
)

// DroppedVisit records a visit-node that was not served, and why.
type DroppedVisit struct {
	Visit  VisitNode
	Reason DropReason
}

// WeeklySolution bundles seven DailySolutions for one open depot.
type WeeklySolution struct {
	DepotKey string
	Days     [7]DailySolution
}
