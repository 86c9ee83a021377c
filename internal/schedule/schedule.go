// Package schedule implements C2: expanding a site catalog's frequency
// codes into a seven-day weekly visit plan.
package schedule

import (
	"fmt"
	"math"

	"github.com/donorlogix/fleetplan/internal/model"
)

// Build produces a WeeklySchedule from the site catalog. holidays names
// weekdays on which only positive-net-contribution sites are served. Sites
// that never enter the schedule (no resolved coordinate, or pruned on a
// holiday) are returned as DroppedVisit records rather than silently
// omitted, so every input site is traceable to an outcome.
func Build(sites []model.Site, holidays map[int]bool, serviceMinutesPerBin float64) (model.WeeklySchedule, []model.DroppedVisit, error) {
	var sched model.WeeklySchedule
	var dropped []model.DroppedVisit

	for i := range sites {
		s := &sites[i]
		if !s.Coord.HasCoord() {
			nodes := visitNodesFor(s, serviceMinutesPerBin)
			dropped = append(dropped, model.DroppedVisit{Visit: nodes[0], Reason: model.DropNoCoord})
			continue
		}

		days, err := daysFor(*s)
		if err != nil {
			return sched, dropped, fmt.Errorf("scheduling site %d: %w", s.SiteID, err)
		}

		for _, d := range days {
			nodes := visitNodesFor(s, serviceMinutesPerBin)
			if holidays[d] && s.NetContributionPerVisit().Sign() <= 0 {
				for _, n := range nodes {
					dropped = append(dropped, model.DroppedVisit{Visit: n, Reason: model.DropHoliday})
				}
				continue
			}
			sched[d] = append(sched[d], nodes...)
		}
	}

	return sched, dropped, nil
}

// daysFor returns the weekday indices a site is visited on, per the
// frequency-code expansion table.
func daysFor(s model.Site) ([]int, error) {
	switch s.Frequency {
	case model.D1, model.D2:
		return []int{0, 1, 2, 3, 4, 5, 6}, nil
	case model.D3:
		return []int{1, 3}, nil
	case model.D4:
		return []int{0, 2, 4}, nil
	case model.D5:
		return []int{((s.SiteID % 7) + 7) % 7}, nil
	default:
		return nil, fmt.Errorf("unknown frequency code %q", s.Frequency)
	}
}

// visitNodesFor produces the visit-node(s) a site contributes on one
// scheduled day. D2 sites split into two nodes carrying half the daily
// demand each (first visit gets the ceiling, second the floor, so their
// sum always equals the full daily demand — invariant 6).
func visitNodesFor(s *model.Site, serviceMinutesPerBin float64) []model.VisitNode {
	serviceMinutes := s.ServiceMinutes(serviceMinutesPerBin)
	netContribution := s.NetContributionPerVisit()

	if s.Frequency != model.D2 {
		return []model.VisitNode{{
			SiteID:                  s.SiteID,
			SiteRef:                 s,
			DemandLbs:               s.DemandPerVisitLbs,
			ServiceMinutes:          serviceMinutes,
			NetContributionPerVisit: netContribution,
		}}
	}

	full := s.DemandPerVisitLbs
	first := int(math.Ceil(float64(full) / 2))
	second := full - first

	return []model.VisitNode{
		{
			SiteID:                  s.SiteID,
			SiteRef:                 s,
			DemandLbs:               first,
			ServiceMinutes:          serviceMinutes,
			NetContributionPerVisit: netContribution,
		},
		{
			SiteID:                  s.SiteID,
			SiteRef:                 s,
			DemandLbs:               second,
			ServiceMinutes:          serviceMinutes,
			NetContributionPerVisit: netContribution,
		},
	}
}
