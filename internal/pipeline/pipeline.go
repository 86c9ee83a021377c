// Package pipeline orchestrates the full fleetplan run: load -> geocode ->
// schedule -> depot selection -> (per open-depot x weekday, in parallel)
// cost matrix + VRP solve + post-filter -> aggregate -> report.
package pipeline

import (
	"context"
	"fmt"
	"log"
	"sort"
	"time"

	"github.com/donorlogix/fleetplan/internal/cache"
	"github.com/donorlogix/fleetplan/internal/config"
	"github.com/donorlogix/fleetplan/internal/depotselect"
	"github.com/donorlogix/fleetplan/internal/geo"
	"github.com/donorlogix/fleetplan/internal/geocode"
	"github.com/donorlogix/fleetplan/internal/loader"
	"github.com/donorlogix/fleetplan/internal/model"
	"github.com/donorlogix/fleetplan/internal/pnl"
	"github.com/donorlogix/fleetplan/internal/postfilter"
	"github.com/donorlogix/fleetplan/internal/report"
	"github.com/donorlogix/fleetplan/internal/schedule"
	"github.com/donorlogix/fleetplan/internal/vrp"
	"golang.org/x/sync/errgroup"
)

// Depots is the static network topology; in a full deployment this would
// come from its own configuration source, but the core pipeline only needs
// the shape described in spec §3.
type Depots []model.Depot

// Run executes one full pipeline invocation and returns the network P&L.
func Run(ctx context.Context, cfg config.Config, depots Depots, oracle geo.Oracle, cacheStore *cache.Store) (pnl.NetworkPNL, error) {
	sites, err := loader.LoadSites(cfg.SitesPath, cfg.MaxLegalPayloadLbs)
	if err != nil {
		return pnl.NetworkPNL{}, fmt.Errorf("loading sites: %w", err)
	}
	log.Printf("[pipeline] loaded %d sites", len(sites))

	geocodeCache := cache.NewGeocodeCache(cacheStore)
	resolver := geocode.NewResolver(geocodeCache, nil, cfg.GeocodeURL, cfg.SkipGeocode)
	for i := range sites {
		coord, ok, err := resolver.Resolve(ctx, sites[i].Address)
		if err != nil {
			return pnl.NetworkPNL{}, fmt.Errorf("resolving site %d: %w", sites[i].SiteID, err)
		}
		if ok {
			sites[i].Coord = coord
		}
	}

	holidays := make(map[int]bool, len(cfg.Holidays))
	for _, h := range cfg.Holidays {
		holidays[h] = true
	}

	sched, scheduleDropped, err := schedule.Build(sites, holidays, cfg.ServiceMinutesPerBin)
	if err != nil {
		return pnl.NetworkPNL{}, fmt.Errorf("building schedule: %w", err)
	}
	logDroppedByReason(scheduleDropped)

	geoParams := geo.Params{
		VariableCostPerKm: cfg.VariableCostPerKm,
		DriverWagePerHour: cfg.DriverWagePerHour,
		AverageSpeedKmh:   cfg.AverageSpeedKmh,
		RoadFactor:        cfg.RoadFactor,
		TruckFixedWeekly:  cfg.TruckFixedWeekly,
	}

	selection, err := depotselect.Select(sites, depots, geoParams)
	if err != nil {
		return pnl.NetworkPNL{}, fmt.Errorf("selecting depots: %w", err)
	}
	log.Printf("[pipeline] %d depots open", len(selection.OpenDepots))

	weekly, err := solveAll(ctx, selection, sched, sites, oracle, geoParams, cfg)
	if err != nil {
		return pnl.NetworkPNL{}, fmt.Errorf("solving routes: %w", err)
	}

	pnlParams := pnl.Params{
		DriverWagePerHour:      cfg.DriverWagePerHour,
		OTWeeklyThresholdHours: cfg.OTWeeklyThresholdHours,
		OTMultiplier:           cfg.OTMultiplier,
		VariableCostPerKm:      cfg.VariableCostPerKm,
		TruckFixedWeekly:       cfg.TruckFixedWeekly,
		RevenuePerLb:           cfg.RevenuePerLb,
	}
	net := pnl.AggregateNetwork(weekly, pnlParams)

	report.PrintSummary(net)

	if cfg.ExportPath != "" {
		if err := report.WriteWorkbook(cfg.ExportPath, weekly, net); err != nil {
			return net, fmt.Errorf("writing workbook: %w", err)
		}
	}

	if cfg.Archive {
		if err := report.ArchiveRun(ctx, time.Now(), weekly); err != nil {
			log.Printf("[pipeline] archive failed: %v", err)
		}
	}

	if cfg.DatabaseURL != "" {
		if err := persist(ctx, cfg.DatabaseURL, net, weekly); err != nil {
			log.Printf("[pipeline] persisting run failed: %v", err)
		}
	}

	return net, nil
}

// logDroppedByReason summarizes visits that never entered the schedule
// (missing coordinate, pruned on a holiday), so they're traceable even
// though they never reach a depot's DailySolution.
func logDroppedByReason(dropped []model.DroppedVisit) {
	if len(dropped) == 0 {
		return
	}
	counts := make(map[model.DropReason]int)
	for _, d := range dropped {
		counts[d.Reason]++
	}
	for reason, n := range counts {
		log.Printf("[pipeline] %d site-visits dropped before scheduling: %s", n, reason)
	}
}

// subProblem is one (open depot, weekday) unit of C4 work.
type subProblem struct {
	depot   model.Depot
	weekday int
}

// solveAll fans C4 sub-problems out across depots and weekdays in parallel
// via errgroup, each with its own matrices and solver state, and
// aggregates results in stable (depot key ascending, weekday ascending)
// order regardless of completion order (spec §5's ordering guarantee).
func solveAll(ctx context.Context, selection depotselect.Result, sched model.WeeklySchedule, sites []model.Site, oracle geo.Oracle, geoParams geo.Params, cfg config.Config) ([]model.WeeklySolution, error) {
	depots := append([]model.Depot(nil), selection.OpenDepots...)
	sort.Slice(depots, func(i, j int) bool { return depots[i].Key < depots[j].Key })

	if cfg.Depot != "" {
		filtered := depots[:0]
		for _, d := range depots {
			if d.Key == cfg.Depot {
				filtered = append(filtered, d)
			}
		}
		depots = filtered
	}

	var problems []subProblem
	for _, d := range depots {
		for w := 0; w < 7; w++ {
			if cfg.Day >= 0 && w != cfg.Day {
				continue
			}
			problems = append(problems, subProblem{depot: d, weekday: w})
		}
	}

	results := make([]model.DailySolution, len(problems))

	group, gctx := errgroup.WithContext(ctx)
	for i, p := range problems {
		i, p := i, p
		group.Go(func() error {
			sol, err := solveOne(gctx, p, sched, sites, selection.Assignment, oracle, geoParams, cfg)
			if err != nil {
				return fmt.Errorf("solving depot=%s weekday=%d: %w", p.depot.Key, p.weekday, err)
			}
			results[i] = sol
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}

	byDepot := make(map[string]*model.WeeklySolution, len(depots))
	for _, d := range depots {
		byDepot[d.Key] = &model.WeeklySolution{DepotKey: d.Key}
	}
	for i, p := range problems {
		byDepot[p.depot.Key].Days[p.weekday] = results[i]
	}

	weekly := make([]model.WeeklySolution, 0, len(depots))
	for _, d := range depots {
		weekly = append(weekly, *byDepot[d.Key])
	}
	return weekly, nil
}

func solveOne(ctx context.Context, p subProblem, sched model.WeeklySchedule, sites []model.Site, assignment model.Assignment, oracle geo.Oracle, geoParams geo.Params, cfg config.Config) (model.DailySolution, error) {
	var nodes []model.VisitNode
	for _, v := range sched[p.weekday] {
		if assignment[v.SiteID] == p.depot.Key {
			nodes = append(nodes, v)
		}
	}

	sol := model.DailySolution{DepotKey: p.depot.Key, Weekday: p.weekday}
	if len(nodes) == 0 {
		return sol, nil
	}

	points := make([]model.Coord, 0, len(nodes)+1)
	points = append(points, p.depot.Coord)
	for _, n := range nodes {
		if n.SiteRef != nil {
			points = append(points, n.SiteRef.Coord)
		} else {
			points = append(points, model.Coord{})
		}
	}

	matrices, err := geo.Build(ctx, points, oracle, geoParams)
	if err != nil {
		return sol, fmt.Errorf("building matrix: %w", err)
	}
	if matrices.DegradedCells > 0 {
		log.Printf("[pipeline] depot=%s weekday=%d: %d degraded cells (haversine fallback)", p.depot.Key, p.weekday, matrices.DegradedCells)
	}

	vrpParams := vrp.Params{
		VehicleCapacityLbs:      cfg.TargetDailyPayloadLbs,
		EffectiveDrivingMinutes: cfg.EffectiveDrivingMinutes,
		PerNodeSlackMinutes:     cfg.PerNodeTimeSlackMinutes,
		TruckFixedCostCents:     cfg.TruckFixedCostCents,
		MaxTrucks:               p.depot.MaxTrucks,
		TimeLimit:               time.Duration(cfg.SolverTimeLimitSeconds) * time.Second,
		SolutionLimit:           cfg.SolverSolutionLimit,
	}

	daily := vrp.Solve(nodes, matrices, vrpParams)
	daily.DepotKey = p.depot.Key
	daily.Weekday = p.weekday

	for i := range daily.Routes {
		daily.Routes[i].DepotKey = p.depot.Key
		daily.Routes[i].Weekday = p.weekday
		daily.Routes[i].Polyline = report.EncodeRouteGeometry(p.depot.Coord, daily.Routes[i].Stops)
	}

	return postfilter.Apply(daily), nil
}

func persist(ctx context.Context, databaseURL string, net pnl.NetworkPNL, weekly []model.WeeklySolution) error {
	pool, err := pnl.NewPool(ctx, databaseURL)
	if err != nil {
		return err
	}
	defer pool.Close()

	var routes []pnl.RouteOutcomeRow
	for _, ws := range weekly {
		for weekday, day := range ws.Days {
			for _, r := range day.Routes {
				routes = append(routes, pnl.RouteOutcomeRow{
					DepotKey:     ws.DepotKey,
					Weekday:      weekday,
					TotalLbs:     r.TotalLbs,
					TotalKm:      r.TotalKm,
					TotalMinutes: r.TotalMinutes,
					CostCents:    r.CostCents,
					RevenueCents: r.RevenueCents,
					Polyline:     r.Polyline,
				})
			}
		}
	}

	runID, err := pnl.PersistRun(ctx, pool, time.Now(), net, routes)
	if err != nil {
		return err
	}
	log.Printf("[pipeline] persisted run %d", runID)
	return nil
}
