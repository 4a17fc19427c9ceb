package resolved

import (
	"fmt"
	"math"
	"sort"
)

// Quantile interpolates linearly between the closest ranks of sorted, q is
// in [0, 1].
func Quantile(sorted []float64, q float64) float64 {
	if len(sorted) == 0 {
		return math.NaN()
	}
	pos := q * float64(len(sorted)-1)
	lower := int(math.Floor(pos))
	upper := int(math.Ceil(pos))
	if lower == upper {
		return sorted[lower]
	}
	return sorted[lower] + (sorted[upper]-sorted[lower])*(pos-float64(lower))
}

// Durations summarizes resolution times in days.
type Durations struct {
	Count  int
	Mean   float64
	Median float64
	P80    float64
}

// Summarize returns the zero Durations for no samples.
func Summarize(days []float64) Durations {
	if len(days) == 0 {
		return Durations{}
	}
	sorted := append([]float64(nil), days...)
	sort.Float64s(sorted)
	sum := 0.0
	for _, d := range sorted {
		sum += d
	}
	return Durations{
		Count:  len(sorted),
		Mean:   sum / float64(len(sorted)),
		Median: Quantile(sorted, 0.5),
		P80:    Quantile(sorted, 0.8),
	}
}

const notAvailable = "N/A"

// Band names how fast 80% of issues get resolved, named after tempo
// markings.
func Band(p80 float64) string {
	switch {
	case p80 <= 60:
		return "🏎️ Presto"
	case p80 <= 180:
		return "🚴 Allegro"
	case p80 <= 365:
		return "🚶 Andante"
	}
	return "🐢 Adagio"
}

func formatDays(v float64) string {
	return fmt.Sprintf("%.2f", v)
}

// Cells are the average, median, P80 and band columns of a report row.
func (d Durations) Cells() []string {
	if d.Count == 0 {
		return []string{notAvailable, notAvailable, notAvailable, notAvailable}
	}
	return []string{formatDays(d.Mean), formatDays(d.Median), formatDays(d.P80), Band(d.P80)}
}
