package report

import (
	"fmt"

	"github.com/donorlogix/fleetplan/internal/model"
	"github.com/donorlogix/fleetplan/internal/pnl"
	"github.com/xuri/excelize/v2"
)

var weekdayNames = [7]string{"Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun"}

// WriteWorkbook exports one sheet per depot plus a Summary sheet, mirroring
// the Site_Table input's sheet conventions.
func WriteWorkbook(path string, weekly []model.WeeklySolution, net pnl.NetworkPNL) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := writeSummarySheet(f, net); err != nil {
		return err
	}

	for _, ws := range weekly {
		if err := writeDepotSheet(f, ws); err != nil {
			return fmt.Errorf("writing sheet for depot %s: %w", ws.DepotKey, err)
		}
	}

	f.DeleteSheet("Sheet1")

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("saving workbook %s: %w", path, err)
	}
	return nil
}

func writeSummarySheet(f *excelize.File, net pnl.NetworkPNL) error {
	sheet := "Summary"
	idx, err := f.NewSheet(sheet)
	if err != nil {
		return fmt.Errorf("creating summary sheet: %w", err)
	}
	f.SetActiveSheet(idx)

	f.SetSheetRow(sheet, "A1", &[]interface{}{"Depot", "Revenue", "Net", "VehiclesUsed", "TotalLbs", "TotalKm"})
	for i, d := range net.Depots {
		row := i + 2
		f.SetSheetRow(sheet, fmt.Sprintf("A%d", row), &[]interface{}{
			d.DepotKey, d.Revenue.InexactFloat64(), d.Net.InexactFloat64(), d.VehiclesUsed, d.TotalLbs, d.TotalKm,
		})
	}
	return nil
}

func writeDepotSheet(f *excelize.File, ws model.WeeklySolution) error {
	sheet := ws.DepotKey
	if _, err := f.NewSheet(sheet); err != nil {
		return err
	}

	f.SetSheetRow(sheet, "A1", &[]interface{}{"Weekday", "RouteIdx", "SiteID", "DemandLbs", "CostCents", "RevenueCents"})

	row := 2
	for weekday, day := range ws.Days {
		for routeIdx, r := range day.Routes {
			for _, stop := range r.Stops {
				f.SetSheetRow(sheet, fmt.Sprintf("A%d", row), &[]interface{}{
					weekdayNames[weekday], routeIdx, stop.SiteID, stop.DemandLbs, r.CostCents, r.RevenueCents,
				})
				row++
			}
		}
	}
	return nil
}
