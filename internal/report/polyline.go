package report

import (
	"github.com/donorlogix/fleetplan/internal/model"
	polyline "github.com/twpayne/go-polyline"
)

// EncodeRouteGeometry encodes a route's depot->stop->...->depot coordinate
// sequence, the inverse of the teacher's polyline.DecodeCoords call in
// cron_segments.go.
func EncodeRouteGeometry(depot model.Coord, stops []model.VisitNode) string {
	coords := make([][]float64, 0, len(stops)+2)
	coords = append(coords, []float64{depot.Lat, depot.Lon})
	for _, s := range stops {
		if s.SiteRef == nil {
			continue
		}
		coords = append(coords, []float64{s.SiteRef.Coord.Lat, s.SiteRef.Coord.Lon})
	}
	coords = append(coords, []float64{depot.Lat, depot.Lon})

	return string(polyline.EncodeCoords(coords))
}
