// Package report renders pipeline results: a console summary, an Excel
// workbook export, a Parquet/R2 weekly archive, and polyline-encoded route
// geometry.
package report

import (
	"log"

	"github.com/donorlogix/fleetplan/internal/pnl"
)

// PrintSummary writes a terse console summary, matching the teacher's
// "[stage] message" logging idiom.
func PrintSummary(net pnl.NetworkPNL) {
	log.Printf("[report] network revenue=$%s cost=$%s net=$%s", net.Revenue.StringFixed(2), net.Cost.StringFixed(2), net.Net.StringFixed(2))
	for _, d := range net.Depots {
		log.Printf("[report] depot=%s revenue=$%s net=$%s vehicles=%d lbs=%d km=%.1f",
			d.DepotKey, d.Revenue.StringFixed(2), d.Net.StringFixed(2), d.VehiclesUsed, d.TotalLbs, d.TotalKm)
	}
}
