package zonemeter

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// serialEpoch is day 0 of the legacy spreadsheet day-count. Using 1899-12-30
// rather than 1900-01-01 reproduces the 1900 leap-year artifact for every
// serial after February 1900.
var serialEpoch = time.Date(1899, 12, 30, 0, 0, 0, 0, time.UTC)

// Default plausible day-count range: 2009-01-01 .. 2099-12-31.
const (
	DefaultSerialMin = 39814
	DefaultSerialMax = 73050
)

// SerialRange is the inclusive range of numbers treated as day-counts.
type SerialRange struct {
	Min float64
	Max float64
}

// DefaultSerialRange returns the range covering years 2009–2099.
func DefaultSerialRange() SerialRange {
	return SerialRange{Min: DefaultSerialMin, Max: DefaultSerialMax}
}

// Contains reports whether f lies in the range.
func (r SerialRange) Contains(f float64) bool {
	return f >= r.Min && f <= r.Max
}

// SerialRangeForYears returns the day-count range spanning Jan 1 of fromYear to
// Dec 31 of toYear.
func SerialRangeForYears(fromYear, toYear int) SerialRange {
	return SerialRange{
		Min: float64(DateToSerial(NewDate(fromYear, time.January, 1))),
		Max: float64(DateToSerial(NewDate(toYear, time.December, 31))),
	}
}

// SerialToDate converts a day-count to a calendar date. Fractions (time of day) are dropped.
func SerialToDate(serial float64) Date {
	days := int(math.Floor(serial))
	return DateOf(serialEpoch.AddDate(0, 0, days))
}

// DateToSerial converts a calendar date back to its day-count.
func DateToSerial(d Date) int {
	return int(d.Time().Sub(serialEpoch).Hours() / 24)
}

var (
	isoDateRe   = regexp.MustCompile(`^(\d{4})-(\d{1,2})-(\d{1,2})(?:[ T]\d{1,2}:\d{2}(?::\d{2}(?:\.\d+)?)?)?$`)
	isoPrefixRe = regexp.MustCompile(`^\d{4}-\d`)
	cnDateRe    = regexp.MustCompile(`^(\d{4})\s*年\s*(\d{1,2})\s*月(?:\s*(\d{1,2})\s*日)?$`)
	cnPrefixRe  = regexp.MustCompile(`^\d{4}\s*年`)
)

// Normalizer converts raw cell values into canonical Values. It is safe for
// concurrent use and has no side effects.
type Normalizer struct {
	serials SerialRange
}

// NormalizerOption configures a Normalizer.
type NormalizerOption func(*Normalizer)

// WithSerialRange sets the range of numbers interpreted as day-counts.
func WithSerialRange(r SerialRange) NormalizerOption {
	return func(n *Normalizer) { n.serials = r }
}

// NewNormalizer creates a Normalizer with the default 2009–2099 day-count range.
func NewNormalizer(opts ...NormalizerOption) *Normalizer {
	n := &Normalizer{serials: DefaultSerialRange()}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// SerialRange returns the configured day-count range.
func (n *Normalizer) SerialRange() SerialRange {
	return n.serials
}

// Normalize classifies raw into Empty, Text, Number or Date.
//
// Accepted raw types are nil, string, the integer and float kinds, bool,
// time.Time and Value (returned unchanged).
func (n *Normalizer) Normalize(raw any) Value {
	switch v := raw.(type) {
	case nil:
		return EmptyValue
	case Value:
		return v
	case Date:
		if v.IsZero() {
			return EmptyValue
		}
		return DateValue(v)
	case time.Time:
		if v.IsZero() {
			return EmptyValue
		}
		return DateValue(DateOf(v))
	case *time.Time:
		if v == nil {
			return EmptyValue
		}
		return n.Normalize(*v)
	case string:
		return n.normalizeString(v)
	case bool:
		return TextValue(strconv.FormatBool(v))
	case float64:
		return n.normalizeNumber(v)
	case float32:
		return n.normalizeNumber(float64(v))
	case int:
		return n.normalizeNumber(float64(v))
	case int8:
		return n.normalizeNumber(float64(v))
	case int16:
		return n.normalizeNumber(float64(v))
	case int32:
		return n.normalizeNumber(float64(v))
	case int64:
		return n.normalizeNumber(float64(v))
	case uint:
		return n.normalizeNumber(float64(v))
	case uint8:
		return n.normalizeNumber(float64(v))
	case uint16:
		return n.normalizeNumber(float64(v))
	case uint32:
		return n.normalizeNumber(float64(v))
	case uint64:
		return n.normalizeNumber(float64(v))
	case fmt.Stringer:
		return n.normalizeString(v.String())
	}
	return TextValue(fmt.Sprint(raw))
}

func (n *Normalizer) normalizeNumber(f float64) Value {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return TextValue(strconv.FormatFloat(f, 'f', -1, 64))
	}
	if n.serials.Contains(f) {
		return Value{Kind: KindDate, Date: SerialToDate(f), Number: f, Serial: true}
	}
	return NumberValue(f)
}

func (n *Normalizer) normalizeString(s string) Value {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return EmptyValue
	}

	if m := isoDateRe.FindStringSubmatch(trimmed); m != nil {
		if d, ok := parseDateParts(m[1], m[2], m[3]); ok {
			return DateValue(d)
		}
		return Value{Kind: KindText, Text: s, Ambiguous: true}
	}
	if m := cnDateRe.FindStringSubmatch(trimmed); m != nil {
		day := m[3]
		monthOnly := day == ""
		if monthOnly {
			day = "1"
		}
		if d, ok := parseDateParts(m[1], m[2], day); ok {
			return Value{Kind: KindDate, Date: d, MonthOnly: monthOnly}
		}
		return Value{Kind: KindText, Text: s, Ambiguous: true}
	}
	if isoPrefixRe.MatchString(trimmed) || cnPrefixRe.MatchString(trimmed) {
		return Value{Kind: KindText, Text: s, Ambiguous: true}
	}
	return TextValue(s)
}

// parseDateParts validates y/m/d strictly: 2025-02-30 is rejected rather than
// rolled over into March.
func parseDateParts(ys, ms, ds string) (Date, bool) {
	y, err1 := strconv.Atoi(ys)
	m, err2 := strconv.Atoi(ms)
	d, err3 := strconv.Atoi(ds)
	if err1 != nil || err2 != nil || err3 != nil {
		return Date{}, false
	}
	if m < 1 || m > 12 || d < 1 || d > DaysIn(y, time.Month(m)) {
		return Date{}, false
	}
	return Date{Year: y, Month: time.Month(m), Day: d}, true
}
