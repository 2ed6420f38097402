package zonemeter

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestExcelizeSheet_ReadsRawValues(t *testing.T) {
	_, src, _ := openSheets(t, createMeterWorkbook(t))

	assert.Equal(t, testSourceSheet, src.Name())
	assert.Equal(t, 35, src.MaxRow())
	assert.Equal(t, 7, src.MaxCol())
	assert.Equal(t, "日期", src.Value(4, 1))
	assert.Equal(t, "荔新大道DN1200流量计\n(m³)", src.Value(4, 7))
	assert.Equal(t, 300.0, src.Value(34, 7))
	assert.Nil(t, src.Value(5, 2))

	// Dates come back as day-counts and normalize to the calendar date.
	d, ok := NewNormalizer().Normalize(src.Value(5, 1)).AsDate()
	require.True(t, ok)
	assert.Equal(t, NewDate(2025, time.September, 1), d)
}

func TestExcelizeSheet_SheetNotFound(t *testing.T) {
	wb, _, _ := openSheets(t, createMeterWorkbook(t))
	_, err := wb.Sheet("不存在")
	assert.ErrorIs(t, err, ErrSheetNotFound)
}

func TestExcelizeSheet_SetValuePreservesStyle(t *testing.T) {
	wb, _, log := openSheets(t, createMeterWorkbook(t))
	before, err := wb.File().GetCellStyle(testLogSheet, "B5")
	require.NoError(t, err)
	require.NotZero(t, before)

	require.NoError(t, log.SetValue(5, 2, 299.5))
	after, err := wb.File().GetCellStyle(testLogSheet, "B5")
	require.NoError(t, err)
	assert.Equal(t, before, after)
	assert.Equal(t, 299.5, log.Value(5, 2))

	v, err := wb.File().GetCellValue(testLogSheet, "B5")
	require.NoError(t, err)
	assert.Equal(t, "299.5", v)
}

func TestExcelizeSheet_MergedRegions(t *testing.T) {
	_, _, log := openSheets(t, createMeterWorkbook(t))
	regions, err := log.MergedRegions()
	require.NoError(t, err)
	require.Len(t, regions, 1)
	assert.Equal(t, "分区计量!A1:C1", regions[0].String())

	err = log.SetValue(1, 2, "x")
	assert.ErrorIs(t, err, ErrMergedCellWrite)
}

func TestExcelizeSheet_InsertRowsShiftsCacheAndMerges(t *testing.T) {
	wb, _, log := openSheets(t, createMeterWorkbook(t))

	require.NoError(t, log.InsertRows(1, 2))
	assert.Equal(t, "分区计量台账", log.Value(3, 1))
	assert.Equal(t, "2025年8月", log.Value(5, 1))
	assert.Equal(t, 8, log.MaxRow())

	regions, err := log.MergedRegions()
	require.NoError(t, err)
	assert.Equal(t, "分区计量!A3:C3", regions[0].String())

	v, err := wb.File().GetCellValue(testLogSheet, "A5")
	require.NoError(t, err)
	assert.Equal(t, "2025年8月", v)
}

func TestExcelizeSheet_InsertRowsRefusesStraddle(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()
	f.SetCellValue("Sheet1", "A2", "说明")
	require.NoError(t, f.MergeCell("Sheet1", "A2", "B4"))

	s, err := NewExcelizeSheet(f, "Sheet1")
	require.NoError(t, err)
	err = s.InsertRows(3, 1)
	var sre *StraddlingRegionError
	require.ErrorAs(t, err, &sre)
	assert.Equal(t, 2, sre.After)

	regions, _ := s.MergedRegions()
	assert.Equal(t, "Sheet1!A2:B4", regions[0].String(), "region untouched")
}

func TestExcelizeSheet_CopyRowStyle(t *testing.T) {
	wb, _, log := openSheets(t, createMeterWorkbook(t))
	f := wb.File()

	require.NoError(t, log.CopyRowStyle(4, 20, 3))
	for _, col := range []string{"A", "B", "C"} {
		want, _ := f.GetCellStyle(testLogSheet, col+"4")
		got, _ := f.GetCellStyle(testLogSheet, col+"20")
		assert.Equal(t, want, got, col)
	}
	h, err := f.GetRowHeight(testLogSheet, 20)
	require.NoError(t, err)
	assert.Equal(t, 28.0, h)
	assert.Nil(t, log.Value(20, 1), "values are not copied")
}

func TestExcelizeSheet_WriteBlockRoundTrip(t *testing.T) {
	wb, _, log := openSheets(t, createMeterWorkbook(t))

	last, err := NewWriter(nil).Write(log, septemberBlock(), 6, 4)
	require.NoError(t, err)
	assert.Equal(t, 10, last)

	var buf bytes.Buffer
	require.NoError(t, wb.Write(&buf))
	reopened, err := OpenReader(&buf)
	require.NoError(t, err)
	defer reopened.Close()

	g, err := reopened.Sheet(testLogSheet)
	require.NoError(t, err)
	b, ok := NewLocator(nil).Find(g, 2025, time.September)
	require.True(t, ok)
	assert.Equal(t, 7, b.Row)
	assert.Equal(t, 10, b.LastRow)
	assert.Equal(t, 4650.0, g.Value(10, 2))

	regions, err := g.MergedRegions()
	require.NoError(t, err)
	assert.Contains(t, regions, NewAreaRef(NewCellRef(testLogSheet, 7, 1), NewCellRef(testLogSheet, 7, 2)))
}

func TestDecodeRaw(t *testing.T) {
	assert.Equal(t, true, decodeRaw("1", excelize.CellTypeBool))
	assert.Equal(t, false, decodeRaw("0", excelize.CellTypeBool))
	assert.Equal(t, 12.5, decodeRaw("12.5", excelize.CellTypeNumber))
	assert.Equal(t, 7.0, decodeRaw("7", excelize.CellTypeUnset))
	assert.Equal(t, "abc", decodeRaw("abc", excelize.CellTypeUnset))
	assert.Equal(t, time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC), decodeRaw("2025-09-01T00:00:00Z", excelize.CellTypeDate))
	assert.Equal(t, "42", decodeRaw("42", excelize.CellTypeSharedString))
}
