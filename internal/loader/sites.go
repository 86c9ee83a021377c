// Package loader parses the Site_Table input spreadsheet (A2) into the
// immutable site catalog, using xuri/excelize.
package loader

import (
	"fmt"
	"strconv"

	"github.com/donorlogix/fleetplan/internal/model"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

const sheetName = "Site_Table"
const firstDataRow = 3 // 1-indexed; row 1-2 are headers.

// LoadSites parses path's Site_Table sheet into a deduplicated site catalog.
// Column layout per spec §6 (0-indexed): 1=Site_ID, 2=Address,
// 3=FrequencyCode, 4=Bins, 5=Annual_Lbs, 6=RentAnnual, 7=WasteAnnual,
// 8=Annual_Visits, 9=Lbs_Per_Visit, 10=RevenuePerVisit.
// maxLegalPayloadLbs enforces the demand_per_visit_lbs <= MAX_LEGAL_PAYLOAD_LBS
// invariant; a row exceeding it is an input error, not a silent pass-through.
func LoadSites(path string, maxLegalPayloadLbs int) ([]model.Site, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("opening sites workbook %s: %w", path, err)
	}
	defer f.Close()

	rows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, fmt.Errorf("reading sheet %q: %w", sheetName, err)
	}

	seen := make(map[int]bool)
	var sites []model.Site

	for i, row := range rows {
		rowNum := i + 1
		if rowNum < firstDataRow {
			continue
		}
		if len(row) <= 10 {
			continue
		}

		site, err := parseRow(row, maxLegalPayloadLbs)
		if err != nil {
			return nil, fmt.Errorf("parsing row %d: %w", rowNum, err)
		}

		if seen[site.SiteID] {
			continue
		}
		seen[site.SiteID] = true
		sites = append(sites, site)
	}

	return sites, nil
}

func parseRow(row []string, maxLegalPayloadLbs int) (model.Site, error) {
	siteID, err := strconv.Atoi(cell(row, 1))
	if err != nil {
		return model.Site{}, fmt.Errorf("Site_ID: %w", err)
	}

	address := cell(row, 2)
	freq := model.FrequencyCode(cell(row, 3))

	bins, err := strconv.Atoi(cell(row, 4))
	if err != nil {
		return model.Site{}, fmt.Errorf("Bins: %w", err)
	}

	annualVisits, err := parseIntDefault(cell(row, 8), 0)
	if err != nil {
		return model.Site{}, fmt.Errorf("Annual_Visits: %w", err)
	}

	rentAnnual, err := parseFloat(cell(row, 6))
	if err != nil {
		return model.Site{}, fmt.Errorf("RentAnnual: %w", err)
	}
	wasteAnnual, err := parseFloat(cell(row, 7))
	if err != nil {
		return model.Site{}, fmt.Errorf("WasteAnnual: %w", err)
	}
	lbsPerVisit, err := parseFloat(cell(row, 9))
	if err != nil {
		return model.Site{}, fmt.Errorf("Lbs_Per_Visit: %w", err)
	}
	revenuePerVisit, err := parseFloat(cell(row, 10))
	if err != nil {
		return model.Site{}, fmt.Errorf("RevenuePerVisit: %w", err)
	}

	if bins < 0 {
		return model.Site{}, fmt.Errorf("site %d: negative bins", siteID)
	}
	if bins == 0 && lbsPerVisit > 0 {
		return model.Site{}, fmt.Errorf("site %d: positive demand with zero bins", siteID)
	}
	if maxLegalPayloadLbs > 0 && lbsPerVisit > float64(maxLegalPayloadLbs) {
		return model.Site{}, fmt.Errorf("site %d: demand_per_visit_lbs %.0f exceeds max legal payload %d", siteID, lbsPerVisit, maxLegalPayloadLbs)
	}

	var structuralCostPerVisit decimal.Decimal
	if annualVisits > 0 {
		structuralCostPerVisit = decimal.NewFromFloat(rentAnnual + wasteAnnual).Div(decimal.NewFromInt(int64(annualVisits)))
	}

	return model.Site{
		SiteID:                 siteID,
		Address:                address,
		Frequency:              freq,
		Bins:                   bins,
		DemandPerVisitLbs:      int(lbsPerVisit),
		RevenuePerVisit:        decimal.NewFromFloat(revenuePerVisit),
		StructuralCostPerVisit: structuralCostPerVisit,
		AnnualVisits:           annualVisits,
	}, nil
}

func cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return row[idx]
}

func parseFloat(s string) (float64, error) {
	if s == "" {
		return 0, nil
	}
	return strconv.ParseFloat(s, 64)
}

func parseIntDefault(s string, def int) (int, error) {
	if s == "" {
		return def, nil
	}
	return strconv.Atoi(s)
}
