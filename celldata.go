package zonemeter

import (
	"fmt"
	"strconv"
	"time"
)

// Kind is the tag of a normalized cell value.
type Kind int

const (
	KindEmpty Kind = iota
	KindText
	KindNumber
	KindDate
)

// String returns a human-readable name for the Kind.
func (k Kind) String() string {
	switch k {
	case KindEmpty:
		return "Empty"
	case KindText:
		return "Text"
	case KindNumber:
		return "Number"
	case KindDate:
		return "Date"
	default:
		return "Unknown"
	}
}

// Date is a calendar date without time-of-day or location.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// NewDate creates a Date, normalizing out-of-range components the way time.Date does.
func NewDate(year int, month time.Month, day int) Date {
	return DateOf(time.Date(year, month, day, 0, 0, 0, 0, time.UTC))
}

// DateOf truncates t to its calendar date in t's own location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

// Time returns the date at midnight UTC.
func (d Date) Time() time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
}

// IsZero reports whether d is the zero Date.
func (d Date) IsZero() bool {
	return d == Date{}
}

// Before reports whether d is strictly earlier than other.
func (d Date) Before(other Date) bool {
	if d.Year != other.Year {
		return d.Year < other.Year
	}
	if d.Month != other.Month {
		return d.Month < other.Month
	}
	return d.Day < other.Day
}

// InMonth reports whether d falls in the given year and month.
func (d Date) InMonth(year int, month time.Month) bool {
	return d.Year == year && d.Month == month
}

// String formats the date as YYYY-MM-DD.
func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

// DaysIn returns the number of days in the given month.
func DaysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// Value is the canonical, tagged form of a raw cell value. Exactly one of
// Text, Number or Date is meaningful, selected by Kind.
type Value struct {
	Kind   Kind
	Text   string
	Number float64
	Date   Date

	// MonthOnly marks a date parsed from a "YYYY年M月" label; Day is then 1.
	MonthOnly bool
	// Serial is set when a Date was decoded from a numeric day-count;
	// Number then holds the original day-count.
	Serial bool
	// Ambiguous marks Text that partially matched a date pattern but failed to parse.
	Ambiguous bool
}

// EmptyValue is the canonical empty cell.
var EmptyValue = Value{Kind: KindEmpty}

// TextValue creates a Text value.
func TextValue(s string) Value { return Value{Kind: KindText, Text: s} }

// NumberValue creates a Number value.
func NumberValue(f float64) Value { return Value{Kind: KindNumber, Number: f} }

// DateValue creates a Date value.
func DateValue(d Date) Value { return Value{Kind: KindDate, Date: d} }

// IsEmpty reports whether v is the empty value.
func (v Value) IsEmpty() bool { return v.Kind == KindEmpty }

// AsDate returns the date held by v, if any.
func (v Value) AsDate() (Date, bool) {
	if v.Kind != KindDate {
		return Date{}, false
	}
	return v.Date, true
}

// AsNumber returns the numeric reading held by v. A Date decoded from a
// day-count still carries its original number: a meter reading that happens to
// fall in the day-count range must not be lost from aggregation.
func (v Value) AsNumber() (float64, bool) {
	switch {
	case v.Kind == KindNumber:
		return v.Number, true
	case v.Kind == KindDate && v.Serial:
		return v.Number, true
	}
	return 0, false
}

// String renders the value for diagnostics.
func (v Value) String() string {
	switch v.Kind {
	case KindText:
		return strconv.Quote(v.Text)
	case KindNumber:
		return strconv.FormatFloat(v.Number, 'f', -1, 64)
	case KindDate:
		if v.MonthOnly {
			return fmt.Sprintf("%04d-%02d", v.Date.Year, int(v.Date.Month))
		}
		return v.Date.String()
	default:
		return "<empty>"
	}
}
