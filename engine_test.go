package zonemeter

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingObserver struct {
	outcomes []Outcome
}

func (r *recordingObserver) Observe(out Outcome, _ time.Duration) {
	r.outcomes = append(r.outcomes, out)
}

func TestEngine_RunWritesBlock(t *testing.T) {
	path := createMeterWorkbook(t)
	wb, src, log := openSheets(t, path)
	var logs bytes.Buffer
	obs := &recordingObserver{}
	e := New(WithLogger(slog.New(slog.NewTextHandler(&logs, nil))), WithObserver(obs))

	out := e.Run(Request{Source: src, Target: log, Year: 2025, Month: time.September, Meters: testMeters()})
	require.Equal(t, StatusWritten, out.Status, out.Error)
	assert.Equal(t, 7, out.TitleRow)
	assert.Equal(t, 13, out.LastRow)
	assert.Equal(t, []string{"missing"}, out.Unresolved)
	require.Len(t, out.Columns, 2)
	assert.Equal(t, 7, out.Columns[0].Col)
	assert.Equal(t, 3, out.Columns[1].Col)
	require.Len(t, out.Stats, 2)
	assert.Equal(t, 4650.0, out.Stats[0].Sum)
	assert.Equal(t, 30, out.Stats[0].Count)
	assert.Equal(t, 155.0, *out.Stats[0].Mean)
	assert.Equal(t, 465.0, out.Stats[1].Sum)

	require.Len(t, out.Issues, 1)
	assert.Equal(t, IssueUnresolvedColumn, out.Issues[0].Kind)
	assert.Contains(t, logs.String(), "东风路DN600", "diagnostics logged on success")
	assert.Contains(t, logs.String(), "summary block written")
	require.Len(t, obs.outcomes, 1)

	assert.Equal(t, "2025年9月", log.Value(7, 1))
	assert.Equal(t, "荔新大道DN1200流量计\n(m³)", log.Value(8, 2))
	assert.Equal(t, "西区\n总表", log.Value(8, 3))
	assert.Equal(t, "最大日用水量", log.Value(9, 1))
	assert.Equal(t, 300.0, log.Value(9, 2))
	assert.Equal(t, 30.0, log.Value(9, 3))
	assert.Equal(t, 15.5, log.Value(11, 3))
	assert.Equal(t, "合计", log.Value(13, 1))
	assert.Equal(t, 4650.0, log.Value(13, 2))
	assert.Equal(t, 465.0, log.Value(13, 3))

	// Styles cloned role by role from the August block.
	f := wb.File()
	titleStyle, _ := f.GetCellStyle(testLogSheet, "A3")
	bodyStyle, _ := f.GetCellStyle(testLogSheet, "B5")
	got, _ := f.GetCellStyle(testLogSheet, "A7")
	assert.Equal(t, titleStyle, got)
	got, _ = f.GetCellStyle(testLogSheet, "B10")
	assert.Equal(t, bodyStyle, got)
	h, _ := f.GetRowHeight(testLogSheet, 8)
	assert.Equal(t, 28.0, h)

	require.NoError(t, wb.Save())
	_, _, reopened := openSheets(t, path)
	b, ok := NewLocator(nil).Find(reopened, 2025, time.September)
	require.True(t, ok)
	assert.Equal(t, 7, b.Row)
	assert.Equal(t, 13, b.LastRow)
}

func TestEngine_SecondRunIsDuplicate(t *testing.T) {
	_, src, log := openSheets(t, createMeterWorkbook(t))
	e := New()
	req := Request{Source: src, Target: log, Year: 2025, Month: time.September, Meters: testMeters()}

	first := e.Run(req)
	require.Equal(t, StatusWritten, first.Status)
	rows := log.MaxRow()

	second := e.Run(req)
	assert.Equal(t, StatusDuplicate, second.Status)
	assert.Equal(t, first.TitleRow, second.TitleRow)
	assert.Empty(t, second.Error)
	assert.Equal(t, rows, log.MaxRow())
	assert.Equal(t, IssueDuplicateBlock, second.Issues[len(second.Issues)-1].Kind)
}

func TestEngine_ExistingBlockReportedBeforeWrite(t *testing.T) {
	_, src, log := openSheets(t, createMeterWorkbook(t))
	out := New().Run(Request{Source: src, Target: log, Year: 2025, Month: time.August, Meters: testMeters()})
	assert.Equal(t, StatusDuplicate, out.Status)
	assert.Equal(t, 3, out.TitleRow)
	assert.Equal(t, 6, out.LastRow)
	// August has no source rows, but the aggregation still reports zero counts.
	assert.Equal(t, 0, out.Stats[0].Count)
	assert.Nil(t, out.Stats[0].Mean)
}

func TestEngine_DailyMode(t *testing.T) {
	_, src, log := openSheets(t, createMeterWorkbook(t))
	out := New().Run(Request{Source: src, Target: log, Year: 2025, Month: time.September, Meters: testMeters(), Mode: ModeDaily})
	require.Equal(t, StatusWritten, out.Status, out.Error)
	assert.Equal(t, 7+33-1, out.LastRow)
	assert.Equal(t, "日期", log.Value(8, 1))
	assert.Equal(t, "9月1日", log.Value(9, 1))
	assert.Equal(t, 10.0, log.Value(9, 2))
	assert.Equal(t, "合计", log.Value(39, 1))
	assert.Equal(t, 4650.0, log.Value(39, 2))
}

func TestEngine_NoColumnsResolved(t *testing.T) {
	_, src, log := openSheets(t, createMeterWorkbook(t))
	out := New().Run(Request{Source: src, Target: log, Year: 2025, Month: time.September,
		Meters: []MeterLabel{{ID: "x", Label: "不存在的表"}}})
	assert.Equal(t, StatusFailed, out.Status)
	assert.Equal(t, []string{"x"}, out.Unresolved)
	assert.Equal(t, 6, log.MaxRow(), "nothing written")
}

func TestEngine_StraddlingRegionFails(t *testing.T) {
	src := NewMemSheet("src").Set(4, 1, "日期").Set(4, 2, "总表").Set(5, 1, "2025-09-01").Set(5, 2, 5.0)
	target := NewMemSheet("log").Set(1, 1, "说明").Set(3, 1, "尾注")
	require.NoError(t, target.MergeCells(NewAreaRef(NewCellRef("log", 1, 1), NewCellRef("log", 2, 2))))

	out := New().Run(Request{Source: src, Target: target, Year: 2025, Month: time.September,
		Meters: []MeterLabel{{ID: "t", Label: "总表"}}, InsertAfter: 1})
	assert.Equal(t, StatusFailed, out.Status)
	var sre *StraddlingRegionError
	assert.ErrorAs(t, out.Err, &sre)
	last := out.Issues[len(out.Issues)-1]
	assert.Equal(t, IssueStraddlingRegion, last.Kind)
	assert.Equal(t, SeverityError, last.Severity)
	assert.Contains(t, last.Message, "log!A1:B2")
}

func TestEngine_ConflictFails(t *testing.T) {
	_, src, log := openSheets(t, createMeterWorkbook(t))
	out := New().Run(Request{Source: src, Target: log, Year: 2025, Month: time.September, Meters: testMeters(), InsertAfter: 4})
	assert.Equal(t, StatusFailed, out.Status)
	assert.Equal(t, IssueBlockConflict, out.Issues[len(out.Issues)-1].Kind)
}

func TestEngine_PrefilledDayOneRowDoesNotBlockMonth(t *testing.T) {
	src := NewMemSheet("src").
		Set(4, 1, "日期").Set(4, 2, "总表").
		Set(5, 1, "2025-10-01").Set(5, 2, 8.0).
		Set(6, 1, "2025-10-02").Set(6, 2, 9.0)
	target := NewMemSheet("log").
		Set(1, 1, "日期").Set(1, 2, "总表").
		Set(2, 1, "2025-09-30").Set(2, 2, 10.0).
		Set(3, 1, "2025-10-01")

	out := New().Run(Request{Source: src, Target: target, Year: 2025, Month: time.October,
		Meters: []MeterLabel{{ID: "t", Label: "总表"}}})
	require.Equal(t, StatusWritten, out.Status, out.Error)
	assert.Equal(t, 4, out.TitleRow)
	assert.Equal(t, "2025年10月", target.Value(4, 1))
}

func TestEngine_InvalidRequest(t *testing.T) {
	out := New().Run(Request{Year: 2025, Month: time.September})
	assert.Equal(t, StatusFailed, out.Status)

	out = New().Run(Request{Source: NewMemSheet("a"), Target: NewMemSheet("b"), Year: 2025, Month: 13})
	assert.Equal(t, StatusFailed, out.Status)
	assert.Contains(t, out.Error, "invalid month")
}

func TestEngine_AmbiguousDatesReported(t *testing.T) {
	src := NewMemSheet("src").
		Set(4, 1, "日期").Set(4, 2, "总表").
		Set(5, 1, "2025-09-01").Set(5, 2, 5.0).
		Set(6, 1, "2025-09-31").Set(6, 2, 500.0).
		Set(7, 1, "2025-09-02").Set(7, 2, 7.0)
	out := New().Run(Request{Source: src, Target: NewMemSheet("log"), Year: 2025, Month: time.September,
		Meters: []MeterLabel{{ID: "t", Label: "总表"}}})
	require.Equal(t, StatusWritten, out.Status)
	assert.Equal(t, 12.0, out.Stats[0].Sum)
	require.Len(t, out.Issues, 1)
	assert.Equal(t, IssueAmbiguousDate, out.Issues[0].Kind)
	assert.Equal(t, "src!A6", out.Issues[0].Cell)
}

func TestEngine_RunMonthsChains(t *testing.T) {
	src := NewMemSheet("src").Set(4, 1, "日期").Set(4, 2, "总表")
	for i, d := range []string{"2025-07-01", "2025-08-01", "2025-09-01"} {
		src.Set(5+i, 1, d).Set(5+i, 2, float64(i+1))
	}
	target := NewMemSheet("log").Set(1, 1, "台账")
	months := MonthRange(YearMonth{2025, time.July}, YearMonth{2025, time.September})

	outs := New().RunMonths(Request{Source: src, Target: target, Meters: []MeterLabel{{ID: "t", Label: "总表"}}, InsertAfter: 1}, months)
	require.Len(t, outs, 3)
	assert.Equal(t, 2, outs[0].TitleRow)
	assert.Equal(t, outs[0].LastRow+1, outs[1].TitleRow)
	assert.Equal(t, outs[1].LastRow+1, outs[2].TitleRow)

	blocks := NewLocator(nil).ListAll(target)
	require.Len(t, blocks, 3)
	assert.Equal(t, time.July, blocks[0].Month)
	assert.Equal(t, time.September, blocks[2].Month)
}

func TestEngine_RunMonthsSourcePerMonth(t *testing.T) {
	sheets := map[YearMonth]Grid{}
	for _, ym := range []YearMonth{{2025, time.July}, {2025, time.September}} {
		sheets[ym] = NewMemSheet(MonthlySheetName("荔湾", ym.Year, ym.Month)).
			Set(4, 1, "日期").Set(4, 2, "总表").
			Set(5, 1, DateToSerial(Date{Year: ym.Year, Month: ym.Month, Day: 1})).Set(5, 2, 4.0)
	}
	target := NewMemSheet("log").Set(1, 1, "台账")
	months := MonthRange(YearMonth{2025, time.July}, YearMonth{2025, time.September})

	outs := New().RunMonths(Request{
		Target:      target,
		Meters:      []MeterLabel{{ID: "t", Label: "总表"}},
		InsertAfter: 1,
		SourceFor: func(ym YearMonth) (Grid, error) {
			g, ok := sheets[ym]
			if !ok {
				return nil, ErrSheetNotFound
			}
			return g, nil
		},
	}, months)
	require.Len(t, outs, 3)

	assert.Equal(t, StatusWritten, outs[0].Status)
	assert.Equal(t, "荔湾2025年7月", outs[0].Source)
	assert.Equal(t, StatusFailed, outs[1].Status)
	assert.ErrorIs(t, outs[1].Err, ErrSheetNotFound)
	assert.Equal(t, "log", outs[1].Sheet)
	assert.Equal(t, StatusWritten, outs[2].Status)
	assert.Equal(t, outs[0].LastRow+1, outs[2].TitleRow)
}

func TestOutcome_JSON(t *testing.T) {
	_, src, log := openSheets(t, createMeterWorkbook(t))
	out := New().Run(Request{Source: src, Target: log, Year: 2025, Month: time.September, Meters: testMeters()})

	data, err := json.Marshal(out)
	require.NoError(t, err)
	var m map[string]any
	require.NoError(t, json.Unmarshal(data, &m))
	assert.Equal(t, "written", m["status"])
	assert.Equal(t, "2025年9月", m["title"])
	assert.Equal(t, float64(9), m["month"])
	issues := m["issues"].([]any)
	assert.Equal(t, "warning", issues[0].(map[string]any)["severity"])
	stats := m["stats"].([]any)
	assert.Equal(t, "2025-09-30", stats[0].(map[string]any)["max"].(map[string]any)["date"])
}
