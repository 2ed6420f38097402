package zonemeter

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

const (
	testSourceSheet = "荔湾2025年9月"
	testLogSheet    = "分区计量"
)

// testMeters is the meter table used by workbook scenarios.
func testMeters() []MeterLabel {
	return []MeterLabel{
		{ID: "main_supply_A", Label: "荔新大道"},
		{ID: "west_total", Label: "西区总表"},
		{ID: "missing", Label: "东风路DN600"},
	}
}

// createMeterWorkbook creates a workbook with a September source sheet and a
// running log holding an August block.
//
// Source sheet:
//
//	row 1     title
//	row 4     日期 | ... | 西区总表 (C) | ... | 荔新大道DN1200流量计\n(m³) (G)
//	row 5..34 2025-09-01 .. 2025-09-30, C = 1..30, G = 10..300
//	row 35    合计
//
// Log sheet:
//
//	A1:C1 merged heading
//	A3    "2025年8月" (bold)
//	A4..  header, one metric row, totals (bordered)
func createMeterWorkbook(t *testing.T) string {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	require.NoError(t, f.SetSheetName("Sheet1", testLogSheet))
	_, err := f.NewSheet(testSourceSheet)
	require.NoError(t, err)

	// Source
	src := testSourceSheet
	f.SetCellValue(src, "A1", "荔湾区分区计量日报")
	f.SetCellValue(src, "A4", "日期")
	f.SetCellValue(src, "B4", "备注")
	f.SetCellValue(src, "C4", "西区\n总表")
	f.SetCellValue(src, "G4", "荔新大道DN1200流量计\n(m³)")
	dateStyle, err := f.NewStyle(&excelize.Style{NumFmt: 14})
	require.NoError(t, err)
	for day := 1; day <= 30; day++ {
		row := 4 + day
		a, _ := excelize.CoordinatesToCellName(1, row)
		c, _ := excelize.CoordinatesToCellName(3, row)
		g, _ := excelize.CoordinatesToCellName(7, row)
		f.SetCellValue(src, a, time.Date(2025, 9, day, 0, 0, 0, 0, time.UTC))
		f.SetCellStyle(src, a, a, dateStyle)
		f.SetCellValue(src, c, day)
		f.SetCellValue(src, g, 10*day)
	}
	f.SetCellValue(src, "A35", "合计")
	f.SetCellFormula(src, "G35", "SUM(G5:G34)")

	// Log
	log := testLogSheet
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true, Size: 14}})
	require.NoError(t, err)
	bordered, err := f.NewStyle(&excelize.Style{
		Border: []excelize.Border{{Type: "left", Color: "000000", Style: 1}, {Type: "bottom", Color: "000000", Style: 1}},
		Fill:   excelize.Fill{Type: "pattern", Color: []string{"DDEBF7"}, Pattern: 1},
	})
	require.NoError(t, err)

	f.SetCellValue(log, "A1", "分区计量台账")
	require.NoError(t, f.MergeCell(log, "A1", "C1"))
	f.SetCellValue(log, "A3", "2025年8月")
	f.SetCellStyle(log, "A3", "C3", bold)
	f.SetCellValue(log, "A4", "项目")
	f.SetCellValue(log, "B4", "荔新大道")
	f.SetCellValue(log, "C4", "西区总表")
	f.SetCellValue(log, "A5", "最大日用水量")
	f.SetCellValue(log, "B5", 310)
	f.SetCellValue(log, "A6", "合计")
	f.SetCellValue(log, "B6", 4800)
	f.SetCellStyle(log, "A4", "C6", bordered)
	require.NoError(t, f.SetRowHeight(log, 4, 28))

	path := filepath.Join(t.TempDir(), "zones.xlsx")
	require.NoError(t, f.SaveAs(path))
	return path
}

// openSheets opens path and returns its source and log sheets.
func openSheets(t *testing.T, path string) (*Workbook, *ExcelizeSheet, *ExcelizeSheet) {
	t.Helper()
	wb, err := Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { wb.Close() })
	src, err := wb.Sheet(testSourceSheet)
	require.NoError(t, err)
	log, err := wb.Sheet(testLogSheet)
	require.NoError(t, err)
	return wb, src, log
}
