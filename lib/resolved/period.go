// Package resolved enriches Jira issue exports with specification metadata
// and summarizes how fast issues get resolved.
package resolved

import (
	"fmt"
	"regexp"
	"strconv"
	"time"
)

// Period is a span of whole days, End is the first instant after it.
type Period struct {
	Label string
	Start time.Time
	End   time.Time
}

var (
	periodRange  = regexp.MustCompile(`^(\d{4}(?:T[1-3])?)-(\d{4}(?:T[1-3])?)$`)
	periodSingle = regexp.MustCompile(`^(\d{4})(?:T([1-3]))?$`)
)

// TrimesterOf is the trimester a month falls in, T1 is January to April.
func TrimesterOf(month time.Month) int {
	return (int(month)-1)/4 + 1
}

func trimester(year, n int) Period {
	start := time.Date(year, time.Month((n-1)*4+1), 1, 0, 0, 0, 0, time.UTC)
	return Period{
		Label: fmt.Sprintf("%dT%d", year, n),
		Start: start,
		End:   start.AddDate(0, 4, 0),
	}
}

func parseSingle(s string) (Period, bool) {
	m := periodSingle.FindStringSubmatch(s)
	if m == nil {
		return Period{}, false
	}
	year, _ := strconv.Atoi(m[1])
	if m[2] != "" {
		n, _ := strconv.Atoi(m[2])
		return trimester(year, n), true
	}
	start := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	return Period{Label: m[1], Start: start, End: start.AddDate(1, 0, 0)}, true
}

// ParsePeriod reads a year (2024), a trimester (2025T1) or a range of
// either (2023-2025T2). Periods are in UTC.
func ParsePeriod(s string) (Period, error) {
	m := periodRange.FindStringSubmatch(s)
	if m != nil {
		first, _ := parseSingle(m[1])
		last, _ := parseSingle(m[2])
		if !first.Start.Before(last.End) {
			return Period{}, fmt.Errorf("period %q ends before it starts", s)
		}
		return Period{Label: s, Start: first.Start, End: last.End}, nil
	}
	p, ok := parseSingle(s)
	if !ok {
		return Period{}, fmt.Errorf("invalid period %q, use YYYY, YYYYT[1-3] or a range of those like 2024T2-2025T1", s)
	}
	return p, nil
}

func ParsePeriods(specs []string) ([]Period, error) {
	out := make([]Period, len(specs))
	for i, s := range specs {
		p, err := ParsePeriod(s)
		if err != nil {
			return nil, err
		}
		out[i] = p
	}
	return out, nil
}

func (p Period) Contains(t time.Time) bool {
	return !t.Before(p.Start) && t.Before(p.End)
}

// LastDay is the last calendar day inside the period.
func (p Period) LastDay() time.Time {
	return p.End.AddDate(0, 0, -1)
}

const dayLayout = "January 02, 2006"

// Describe spells the period out, e.g. "January 01, 2024 to December 31, 2024".
func (p Period) Describe() string {
	return p.Start.Format(dayLayout) + " to " + p.LastDay().Format(dayLayout)
}

// Trimesters lists every trimester the period touches, in order.
func (p Period) Trimesters() []Period {
	var out []Period
	last := p.LastDay()
	for year := p.Start.Year(); year <= last.Year(); year++ {
		first, final := 1, 3
		if year == p.Start.Year() {
			first = TrimesterOf(p.Start.Month())
		}
		if year == last.Year() {
			final = TrimesterOf(last.Month())
		}
		for n := first; n <= final; n++ {
			out = append(out, trimester(year, n))
		}
	}
	return out
}
