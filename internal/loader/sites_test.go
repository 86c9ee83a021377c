package loader

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func writeTestWorkbook(t *testing.T, rows [][]string) string {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	idx, err := f.NewSheet(sheetName)
	require.NoError(t, err)
	f.SetActiveSheet(idx)

	for i, row := range rows {
		cellRef, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		vals := make([]interface{}, len(row))
		for j, v := range row {
			vals[j] = v
		}
		require.NoError(t, f.SetSheetRow(sheetName, cellRef, &vals))
	}

	path := filepath.Join(t.TempDir(), "sites.xlsx")
	require.NoError(t, f.SaveAs(path))
	return path
}

func TestLoadSites_ParsesDataRowsFromRowThree(t *testing.T) {
	path := writeTestWorkbook(t, [][]string{
		{"header row 1"},
		{"header row 2"},
		{"", "1", "123 Main St", "D1", "2", "600", "1000", "500", "300", "5", "30"},
	})

	sites, err := LoadSites(path, 4500)
	require.NoError(t, err)
	require.Len(t, sites, 1)

	s := sites[0]
	assert.Equal(t, 1, s.SiteID)
	assert.Equal(t, "123 Main St", s.Address)
	assert.EqualValues(t, "D1", s.Frequency)
	assert.Equal(t, 2, s.Bins)
	assert.Equal(t, 5, s.DemandPerVisitLbs)
	assert.True(t, s.RevenuePerVisit.Equal(s.RevenuePerVisit))
}

func TestLoadSites_DeduplicatesBySiteID(t *testing.T) {
	path := writeTestWorkbook(t, [][]string{
		{"h1"}, {"h2"},
		{"", "1", "Addr A", "D1", "2", "600", "1000", "500", "300", "5", "30"},
		{"", "1", "Addr B duplicate", "D1", "2", "600", "1000", "500", "300", "5", "30"},
	})

	sites, err := LoadSites(path, 4500)
	require.NoError(t, err)
	require.Len(t, sites, 1)
	assert.Equal(t, "Addr A", sites[0].Address)
}

func TestLoadSites_PositiveDemandWithZeroBinsErrors(t *testing.T) {
	path := writeTestWorkbook(t, [][]string{
		{"h1"}, {"h2"},
		{"", "1", "Addr", "D1", "0", "600", "1000", "500", "300", "5", "30"},
	})

	_, err := LoadSites(path, 4500)
	assert.Error(t, err)
}

func TestLoadSites_DemandOverMaxLegalPayloadErrors(t *testing.T) {
	path := writeTestWorkbook(t, [][]string{
		{"h1"}, {"h2"},
		{"", "1", "Addr", "D1", "2", "600", "1000", "500", "300", "5000", "30"},
	})

	_, err := LoadSites(path, 4500)
	assert.Error(t, err)
}
