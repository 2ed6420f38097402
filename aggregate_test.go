package zonemeter

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// septemberRows returns one row per September 2025 day with 10, 20, ..., 300 in col.
func septemberRows(col int) []DailyRow {
	rows := make([]DailyRow, 30)
	for i := range rows {
		rows[i] = DailyRow{
			Row:    5 + i,
			Date:   NewDate(2025, time.September, i+1),
			Values: map[int]Value{col: NumberValue(float64(10 * (i + 1)))},
		}
	}
	return rows
}

func TestAggregate_September(t *testing.T) {
	st := Aggregate(septemberRows(7), 7, 2025, time.September)
	assert.Equal(t, 4650.0, st.Sum)
	assert.Equal(t, 30, st.Count)
	require.NotNil(t, st.Mean)
	assert.Equal(t, 155.0, *st.Mean)
	require.NotNil(t, st.Min)
	require.NotNil(t, st.Max)
	assert.Equal(t, 10.0, st.Min.Value)
	assert.Equal(t, "2025-09-01", st.Min.Day)
	assert.Equal(t, 300.0, st.Max.Value)
	assert.Equal(t, NewDate(2025, time.September, 30), st.Max.Date)
	assert.Equal(t, 34, st.Max.Row)
}

func TestAggregate_EmptyHasNoMean(t *testing.T) {
	for _, rows := range [][]DailyRow{nil, {}, septemberRows(7)} {
		st := Aggregate(rows, 3, 2025, time.September)
		assert.Equal(t, 0, st.Count)
		assert.Equal(t, 0.0, st.Sum)
		assert.Nil(t, st.Mean)
		assert.Nil(t, st.Min)
		assert.Nil(t, st.Max)
	}
}

func TestAggregate_TieBreakEarliestDate(t *testing.T) {
	rows := []DailyRow{
		{Row: 9, Date: NewDate(2025, time.September, 20), Values: map[int]Value{2: NumberValue(50)}},
		{Row: 5, Date: NewDate(2025, time.September, 3), Values: map[int]Value{2: NumberValue(50)}},
		{Row: 6, Date: NewDate(2025, time.September, 9), Values: map[int]Value{2: NumberValue(5)}},
		{Row: 7, Date: NewDate(2025, time.September, 1), Values: map[int]Value{2: NumberValue(5)}},
	}
	st := Aggregate(rows, 2, 2025, time.September)
	assert.Equal(t, NewDate(2025, time.September, 3), st.Max.Date)
	assert.Equal(t, NewDate(2025, time.September, 1), st.Min.Date)
}

func TestAggregate_MonthBoundsInclusive(t *testing.T) {
	rows := []DailyRow{
		{Date: NewDate(2025, time.August, 31), Values: map[int]Value{2: NumberValue(1000)}},
		{Date: NewDate(2025, time.September, 1), Values: map[int]Value{2: NumberValue(1)}},
		{Date: NewDate(2025, time.September, 30), Values: map[int]Value{2: NumberValue(2)}},
		{Date: NewDate(2025, time.October, 1), Values: map[int]Value{2: NumberValue(1000)}},
		{Values: map[int]Value{2: NumberValue(1000)}},
	}
	st := Aggregate(rows, 2, 2025, time.September)
	assert.Equal(t, 2, st.Count)
	assert.Equal(t, 3.0, st.Sum)
}

func TestAggregate_NonNumericSkippedPerColumn(t *testing.T) {
	rows := []DailyRow{
		{Date: NewDate(2025, time.September, 1), Values: map[int]Value{2: TextValue("停表"), 3: NumberValue(7)}},
		{Date: NewDate(2025, time.September, 2), Values: map[int]Value{2: NumberValue(4), 3: NumberValue(8)}},
	}
	a := Aggregate(rows, 2, 2025, time.September)
	b := Aggregate(rows, 3, 2025, time.September)
	assert.Equal(t, 1, a.Count)
	assert.Equal(t, 4.0, *a.Mean)
	assert.Equal(t, 2, b.Count)
	assert.Equal(t, 15.0, b.Sum)
}

func TestAggregate_ExactDecimalSum(t *testing.T) {
	var rows []DailyRow
	for d := 1; d <= 10; d++ {
		rows = append(rows, DailyRow{Date: NewDate(2025, time.September, d), Values: map[int]Value{2: NumberValue(0.1)}})
	}
	st := Aggregate(rows, 2, 2025, time.September)
	assert.Equal(t, 1.0, st.Sum)
	assert.Equal(t, 0.1, *st.Mean)
}

func TestAggregate_DayCountReadingCounted(t *testing.T) {
	rows := []DailyRow{
		{Date: NewDate(2025, time.September, 1), Values: map[int]Value{2: NewNormalizer().Normalize(45000)}},
	}
	st := Aggregate(rows, 2, 2025, time.September)
	assert.Equal(t, 1, st.Count)
	assert.Equal(t, 45000.0, st.Sum)
}

func TestAggregateColumns(t *testing.T) {
	rows := septemberRows(7)
	header := []HeaderCell{{Col: 7, Label: "荔新大道DN1200"}, {Col: 9, Label: "空表"}}
	cm, _ := NewResolver().Resolve(header, []MeterLabel{{ID: "a", Label: "荔新大道"}, {ID: "b", Label: "空表"}})

	stats := AggregateColumns(rows, cm, 2025, time.September)
	require.Len(t, stats, 2)
	assert.Equal(t, "a", stats[0].ID)
	assert.Equal(t, 4650.0, stats[0].Sum)
	assert.Equal(t, "b", stats[1].ID)
	assert.Equal(t, 0, stats[1].Count)
}

func TestDaily(t *testing.T) {
	rows := []DailyRow{
		{Date: NewDate(2025, time.February, 3), Values: map[int]Value{2: NumberValue(1.5)}},
		{Date: NewDate(2025, time.February, 3), Values: map[int]Value{2: NumberValue(2.5)}},
		{Date: NewDate(2025, time.February, 28), Values: map[int]Value{2: NumberValue(9)}},
	}
	days := Daily(rows, 2, 2025, time.February)
	require.Len(t, days, 28)
	assert.True(t, days[2].Present)
	assert.Equal(t, 4.0, days[2].Value)
	assert.False(t, days[0].Present)
	assert.Equal(t, NewDate(2025, time.February, 28), days[27].Date)
	assert.Equal(t, 9.0, days[27].Value)
}
