package zonemeter

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// YearMonth identifies a calendar month.
type YearMonth struct {
	Year  int
	Month time.Month
}

func (ym YearMonth) String() string {
	return fmt.Sprintf("%04d-%02d", ym.Year, int(ym.Month))
}

// Next returns the following month.
func (ym YearMonth) Next() YearMonth {
	if ym.Month == time.December {
		return YearMonth{Year: ym.Year + 1, Month: time.January}
	}
	return YearMonth{Year: ym.Year, Month: ym.Month + 1}
}

// ParseYearMonth accepts "2025-09", "2025-9", "202509" and "2025年9月".
func ParseYearMonth(s string) (YearMonth, error) {
	s = strings.TrimSpace(s)
	m := yearMonthRe.FindStringSubmatch(s)
	if m == nil {
		return YearMonth{}, fmt.Errorf("invalid month %q (want YYYY-MM)", s)
	}
	y, _ := strconv.Atoi(m[1])
	mo, _ := strconv.Atoi(m[2])
	if mo < 1 || mo > 12 {
		return YearMonth{}, fmt.Errorf("invalid month %q: month %d out of range", s, mo)
	}
	return YearMonth{Year: y, Month: time.Month(mo)}, nil
}

// MonthRange returns every month from first to last inclusive.
func MonthRange(first, last YearMonth) []YearMonth {
	var out []YearMonth
	for ym := first; !last.before(ym); ym = ym.Next() {
		out = append(out, ym)
	}
	return out
}

func (ym YearMonth) before(o YearMonth) bool {
	return ym.Year < o.Year || (ym.Year == o.Year && ym.Month < o.Month)
}

var (
	yearMonthRe  = regexp.MustCompile(`^(\d{4})(?:-|年|/)?(\d{1,2})月?$`)
	sheetMonthRe = regexp.MustCompile(`(\d{4})\s*年\s*(\d{1,2})\s*月`)
)

// MonthlySheetName returns the name of a region's worksheet for year-month,
// e.g. "荔湾2025年9月".
func MonthlySheetName(region string, year int, month time.Month) string {
	return region + TitleText(year, month)
}

// FindMonthlySheet returns the first sheet name carrying year-month in the
// "<YYYY>年<M>月" form, whatever its region prefix.
func FindMonthlySheet(names []string, year int, month time.Month) (string, bool) {
	for _, name := range names {
		m := sheetMonthRe.FindStringSubmatch(name)
		if m == nil {
			continue
		}
		y, _ := strconv.Atoi(m[1])
		mo, _ := strconv.Atoi(m[2])
		if y == year && time.Month(mo) == month {
			return name, true
		}
	}
	return "", false
}
