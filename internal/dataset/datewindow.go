package dataset

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/haolin/tianji/backend/internal/contracts"
)

// Temporal-key column vocabulary. A column whose name contains any of these
// markers is a candidate date column; 最新公告日期 is explicitly excluded
// because it tracks publication metadata, not the row's reporting period.
var dateColumnMarkers = []string{
	"日期", "月份", "TRADE_DATE", "date", "季度", "统计时间", "年份", "报告期", "发布时间",
}

const deniedDateColumn = "最新公告日期"

var (
	reISODate     = regexp.MustCompile(`^\d{4}-\d{1,2}-\d{1,2}$`)
	reISODateTime = regexp.MustCompile(`^(\d{4})-(\d{1,2})-(\d{1,2}) (\d{1,2}):(\d{1,2}):(\d{1,2})$`)
	reCNMonth     = regexp.MustCompile(`^(\d{4})年(\d{1,2})月份$`)
	reCompactYM   = regexp.MustCompile(`^\d{6}$`)
	reCNQuarter   = regexp.MustCompile(`^(\d{4})年第([1-4])季度$`)
	reCNQuarterRg = regexp.MustCompile(`^(\d{4})年第[1-4]-[1-4]季度$`)
	reDotYM       = regexp.MustCompile(`^(\d{4})\.(\d{1,2})$`)
	reDashYM      = regexp.MustCompile(`^(\d{4})-(\d{1,2})$`)
)

// DateColumns returns the indexes of candidate date columns in t
func DateColumns(t *Table) []int {
	var cols []int
	for i, name := range t.Columns {
		if name == deniedDateColumn {
			continue
		}
		for _, marker := range dateColumnMarkers {
			if strings.Contains(name, marker) {
				cols = append(cols, i)
				break
			}
		}
	}
	return cols
}

// ParseFlexibleDate parses one cell of a candidate date column. The lexical
// encoding of the temporal key varies per dataset, so dispatch happens on
// (column name, value shape) pairs. An unparsable cell returns ok=false and
// is excluded by the caller; it never fails the whole table.
//
// Quarter encodings resolve to the quarter's last calendar day, and a
// "first-fourth quarter" range resolves to Dec 31 of the year.
func ParseFlexibleDate(value, column string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false
	}

	// 2023-05-31 (also covers TRADE_DATE)
	if reISODate.MatchString(value) {
		t, err := time.Parse("2006-1-2", value)
		return t, err == nil
	}

	// 2025-04-01 11:33:01
	if m := reISODateTime.FindStringSubmatch(value); m != nil {
		return timeFromParts(m[1], m[2], m[3], m[4], m[5], m[6])
	}

	// 2008年02月份
	if strings.Contains(column, "月份") {
		if m := reCNMonth.FindStringSubmatch(value); m != nil {
			return timeFromParts(m[1], m[2], "1", "0", "0", "0")
		}
	}

	// 202011 (date / 月份 columns)
	if strings.Contains(strings.ToLower(column), "date") || strings.Contains(column, "月份") {
		if reCompactYM.MatchString(value) {
			return timeFromParts(value[:4], value[4:], "1", "0", "0", "0")
		}
	}

	if strings.Contains(column, "季度") {
		// 2024年第4季度 → quarter's last calendar day
		if m := reCNQuarter.FindStringSubmatch(value); m != nil {
			year, _ := strconv.Atoi(m[1])
			quarter, _ := strconv.Atoi(m[2])
			return quarterEnd(year, quarter), true
		}
		// 2024年第1-4季度 → Dec 31 of the year
		if m := reCNQuarterRg.FindStringSubmatch(value); m != nil {
			year, _ := strconv.Atoi(m[1])
			return time.Date(year, 12, 31, 0, 0, 0, 0, time.UTC), true
		}
	}

	// 2025.2 (统计时间)
	if strings.Contains(column, "统计时间") {
		if m := reDotYM.FindStringSubmatch(value); m != nil {
			return timeFromParts(m[1], m[2], "1", "0", "0", "0")
		}
	}

	// 2005-03 (年份)
	if strings.Contains(column, "年份") {
		if m := reDashYM.FindStringSubmatch(value); m != nil {
			return timeFromParts(m[1], m[2], "1", "0", "0", "0")
		}
	}

	return time.Time{}, false
}

func timeFromParts(y, mo, d, h, mi, s string) (time.Time, bool) {
	year, _ := strconv.Atoi(y)
	month, _ := strconv.Atoi(mo)
	day, _ := strconv.Atoi(d)
	hour, _ := strconv.Atoi(h)
	minute, _ := strconv.Atoi(mi)
	sec, _ := strconv.Atoi(s)
	if month < 1 || month > 12 || day < 1 || day > 31 || hour > 23 || minute > 59 || sec > 59 {
		return time.Time{}, false
	}
	return time.Date(year, time.Month(month), day, hour, minute, sec, 0, time.UTC), true
}

// quarterEnd returns the last calendar day of the quarter
func quarterEnd(year, quarter int) time.Time {
	switch quarter {
	case 1:
		return time.Date(year, 3, 31, 0, 0, 0, 0, time.UTC)
	case 2:
		return time.Date(year, 6, 30, 0, 0, 0, 0, time.UTC)
	case 3:
		return time.Date(year, 9, 30, 0, 0, 0, 0, time.UTC)
	default:
		return time.Date(year, 12, 31, 0, 0, 0, 0, time.UTC)
	}
}

// FilterByWindow keeps rows whose temporal key falls inside [w.Start, w.End]
// inclusive (end-of-day normalized by TimeWindow.Contains).
//
// When several candidate date columns exist each is filtered independently
// and the result sets are unioned, then de-duplicated by row content. When
// no candidate column exists the table passes through unchanged: not every
// dataset is temporally keyed, and dropping those on the floor would starve
// the reports.
func FilterByWindow(t *Table, w contracts.TimeWindow) *Table {
	cols := DateColumns(t)
	if len(cols) == 0 {
		return t
	}

	keep := make([]bool, len(t.Rows))
	for _, col := range cols {
		for i := range t.Rows {
			parsed, ok := ParseFlexibleDate(t.Cell(i, col), t.Columns[col])
			if !ok {
				continue // row-local parse noise, excluded silently
			}
			if w.Contains(parsed) {
				keep[i] = true
			}
		}
	}

	out := &Table{Name: t.Name, Columns: t.Columns}
	seen := make(map[string]bool)
	for i, k := range keep {
		if !k {
			continue
		}
		key := strings.Join(t.Rows[i], "\x1f")
		if seen[key] {
			continue
		}
		seen[key] = true
		out.Rows = append(out.Rows, t.Rows[i])
	}
	return out
}

// LatestRow returns the index of the row with the most recent parseable
// temporal key, falling back to the last row when the table has no candidate
// date column or no cell parses. Returns -1 for an empty table.
func LatestRow(t *Table) int {
	if t.Empty() {
		return -1
	}

	cols := DateColumns(t)
	if len(cols) == 0 {
		return len(t.Rows) - 1
	}

	col := cols[0]
	best := -1
	var bestTime time.Time
	for i := range t.Rows {
		parsed, ok := ParseFlexibleDate(t.Cell(i, col), t.Columns[col])
		if !ok {
			continue
		}
		if best == -1 || parsed.After(bestTime) {
			best = i
			bestTime = parsed
		}
	}
	if best == -1 {
		return len(t.Rows) - 1
	}
	return best
}

// LatestRowBefore behaves like LatestRow but only considers rows whose
// temporal key is on or before cutoff. Rows without a parseable key are
// skipped; if nothing qualifies it returns -1.
func LatestRowBefore(t *Table, cutoff time.Time) int {
	cols := DateColumns(t)
	if len(cols) == 0 || t.Empty() {
		return LatestRow(t)
	}

	end := time.Date(cutoff.Year(), cutoff.Month(), cutoff.Day(), 23, 59, 59, 0, cutoff.Location())
	col := cols[0]
	best := -1
	var bestTime time.Time
	for i := range t.Rows {
		parsed, ok := ParseFlexibleDate(t.Cell(i, col), t.Columns[col])
		if !ok || parsed.After(end) {
			continue
		}
		if best == -1 || parsed.After(bestTime) {
			best = i
			bestTime = parsed
		}
	}
	return best
}

// MostRecentQuarterEnd returns the latest quarter-end date strictly before t
func MostRecentQuarterEnd(t time.Time) time.Time {
	year := t.Year()
	for {
		for q := 4; q >= 1; q-- {
			qe := quarterEnd(year, q)
			if qe.Before(t) {
				return qe
			}
		}
		year--
	}
}
